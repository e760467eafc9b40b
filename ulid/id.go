// Package ulid implements 128-bit time-sortable identifiers in the ULID format.
//
// # ID Structure (128 bits)
//
//	┌──────────────────────────────┬────────────────────────────────────────────┐
//	│ 48 bits: Unix milliseconds   │          80 bits: entropy                  │
//	└──────────────────────────────┴────────────────────────────────────────────┘
//
// The string form is 26 Crockford base32 symbols and the first symbol is at most
// 7. IDs are byte- and string-compatible with other ULID implementations, and
// convert losslessly to and from UUIDs.
package ulid

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sxyafiq/sortid"
)

const (
	// TotalBits is the identifier width.
	TotalBits = 128

	// EntropyBits is the width of the random field.
	EntropyBits = 80

	// TimeBits is the width of the time field.
	TimeBits = TotalBits - EntropyBits

	// EncodedLen is the length of the string form.
	EncodedLen = 26

	// Size is the length of the byte form.
	Size = TotalBits / 8

	// DefaultDriftTolerance is how far the clock may step back before the
	// generator treats it as a clock error rather than a stall.
	DefaultDriftTolerance = 10 * time.Second
)

// Epoch is the Unix epoch; ULID time fields count Unix milliseconds.
var Epoch = time.Unix(0, 0).UTC()

// Layout is the bit layout of a ULID.
var Layout = sortid.BitLayout{
	TotalBits:  TotalBits,
	RandomBits: EntropyBits,
	TimeUnit:   time.Millisecond,
}

var (
	codec      = sortid.MustCodec(sortid.Crockford32, TotalBits)
	lowerCodec = codec.Lower()
)

// ID is a 128-bit ULID in big-endian byte order.
type ID [Size]byte

var (
	// Nil is the zero ID.
	Nil ID

	// Max is the largest ID, 7ZZZZZZZZZZZZZZZZZZZZZZZZZ.
	Max = ID{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
)

// ============================================================================
// Construction
// ============================================================================

// Parse decodes the 26-symbol string form. Decoding is case-insensitive.
func Parse(s string) (ID, error) {
	var id ID
	if err := codec.Decode(id[:], s); err != nil {
		return Nil, err
	}
	return id, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Valid reports whether s is a well-formed ULID string.
func Valid(s string) bool {
	return codec.Valid(s)
}

// FromBytes decodes the 16-byte big-endian form.
func FromBytes(b []byte) (ID, error) {
	if len(b) != Size {
		return Nil, sortid.NewFormatError(fmt.Sprintf("%x", b), -1,
			fmt.Errorf("%w: got %d bytes, want %d", sortid.ErrInvalidLength, len(b), Size))
	}
	var id ID
	copy(id[:], b)
	return id, nil
}

// FromUUID reinterprets the 16 bytes of u as a ULID.
func FromUUID(u uuid.UUID) ID {
	return ID(u)
}

// FromFields composes an ID from its components.
func FromFields(f sortid.Fields) ID {
	var id ID
	Layout.Compose(id[:], f)
	return id
}

// ============================================================================
// Conversions
// ============================================================================

// Bytes returns the 16-byte big-endian form.
func (id ID) Bytes() []byte {
	return id[:]
}

// UUID returns the same 16 bytes as a UUID. The result is not a valid RFC 4122
// version; it round-trips through FromUUID.
func (id ID) UUID() uuid.UUID {
	return uuid.UUID(id)
}

// String returns the upper-case 26-symbol form.
func (id ID) String() string {
	return codec.EncodeToString(id[:])
}

// Lower returns the lower-case 26-symbol form.
func (id ID) Lower() string {
	return lowerCodec.EncodeToString(id[:])
}

// ============================================================================
// Component Extraction
// ============================================================================

// Timestamp returns the time field: Unix milliseconds.
func (id ID) Timestamp() uint64 {
	return Layout.ExtractTime(id[:])
}

// Time returns the creation time.
func (id ID) Time() time.Time {
	return sortid.FromUnits(id.Timestamp(), Epoch, time.Millisecond)
}

// Entropy returns the 80-bit random field.
func (id ID) Entropy() [10]byte {
	var e [10]byte
	copy(e[:], id[6:])
	return e
}

// Fields splits the ID into its components.
func (id ID) Fields() sortid.Fields {
	return Layout.Decompose(id[:])
}

// IsZero reports whether id is Nil.
func (id ID) IsZero() bool {
	return id == Nil
}

// ============================================================================
// Ordering
// ============================================================================

// Compare returns -1, 0 or +1 by unsigned byte order.
func (id ID) Compare(other ID) int {
	return bytes.Compare(id[:], other[:])
}

// Before reports whether id sorts before other.
func (id ID) Before(other ID) bool {
	return id.Compare(other) < 0
}

// After reports whether id sorts after other.
func (id ID) After(other ID) bool {
	return id.Compare(other) > 0
}

// Equal reports whether id and other are the same.
func (id ID) Equal(other ID) bool {
	return id == other
}

// Increment returns the next ID. The entropy carries into the time field.
// Incrementing Max returns ErrOverflow.
func (id ID) Increment() (ID, error) {
	if !sortid.IncrementBytes(id[:]) {
		return id, sortid.ErrOverflow
	}
	return id, nil
}

// Decrement returns the previous ID. Decrementing Nil returns ErrUnderflow.
func (id ID) Decrement() (ID, error) {
	if !sortid.DecrementBytes(id[:]) {
		return id, sortid.ErrUnderflow
	}
	return id, nil
}

// ============================================================================
// Interface Implementations
// ============================================================================

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	out := make([]byte, EncodedLen)
	codec.Encode(out, id[:])
	return out, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (id ID) MarshalBinary() ([]byte, error) {
	b := make([]byte, Size)
	copy(b, id[:])
	return b, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (id *ID) UnmarshalBinary(data []byte) error {
	parsed, err := FromBytes(data)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
