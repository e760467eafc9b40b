// Package tsid implements 64-bit time-sortable identifiers.
//
// # ID Structure (64 bits)
//
//	┌──────────────────────────────────────────┬─────────────────────────────────┐
//	│      42 bits: time (milliseconds)        │    22 bits: random field        │
//	│      ~139 years from 2020-01-01          │  [node (0-20 bits) | counter]   │
//	└──────────────────────────────────────────┴─────────────────────────────────┘
//
// The node field is optional: with NodeBits = 0 all 22 random bits are a counter
// seeded randomly every millisecond. With NodeBits = 10, 1024 uncoordinated
// generators can share one id space, each with 4096 counter values per millisecond.
//
// # String Form
//
// 13 Crockford base32 symbols, upper-case by default. Decoding is case-insensitive
// and accepts O for 0 and I/L for 1. The first symbol is at most F because 13
// symbols hold 65 bits.
//
//	id := gen.MustGenerate()
//	fmt.Println(id)         // 0AWQ4J7ZR1FGE
//	fmt.Println(id.Lower()) // 0awq4j7zr1fge
package tsid

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/sxyafiq/sortid"
)

const (
	// TotalBits is the identifier width.
	TotalBits = 64

	// RandomBits is the width of the node + counter field.
	RandomBits = 22

	// TimeBits is the width of the time field.
	TimeBits = TotalBits - RandomBits

	// EncodedLen is the length of the string form.
	EncodedLen = 13

	// Size is the length of the byte form.
	Size = TotalBits / 8

	// DefaultDriftTolerance is how far the clock may step back before the
	// generator treats it as a clock error rather than a stall.
	DefaultDriftTolerance = 10 * time.Second
)

// Epoch is the default epoch, 2020-01-01T00:00:00Z.
var Epoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

var (
	codec      = sortid.MustCodec(sortid.Crockford32, TotalBits)
	lowerCodec = codec.Lower()
)

// ID is a 64-bit time-sortable identifier.
//
// The backing type is unsigned, so the native operators order IDs correctly;
// Compare is provided for symmetry with the other families.
type ID uint64

const (
	// Nil is the zero ID.
	Nil ID = 0

	// Max is the largest ID.
	Max ID = math.MaxUint64
)

// Layout returns the bit layout of an ID with the given node width.
func Layout(nodeBits int) sortid.BitLayout {
	return sortid.BitLayout{
		TotalBits:  TotalBits,
		RandomBits: RandomBits,
		NodeBits:   nodeBits,
		TimeUnit:   time.Millisecond,
	}
}

// ============================================================================
// Construction
// ============================================================================

// Parse decodes the 13-symbol string form.
func Parse(s string) (ID, error) {
	var b [Size]byte
	if err := codec.Decode(b[:], s); err != nil {
		return Nil, err
	}
	return ID(binary.BigEndian.Uint64(b[:])), nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Valid reports whether s is a well-formed ID string.
func Valid(s string) bool {
	return codec.Valid(s)
}

// FromBytes decodes the 8-byte big-endian form.
func FromBytes(b []byte) (ID, error) {
	if len(b) != Size {
		return Nil, sortid.NewFormatError(fmt.Sprintf("%x", b), -1,
			fmt.Errorf("%w: got %d bytes, want %d", sortid.ErrInvalidLength, len(b), Size))
	}
	return ID(binary.BigEndian.Uint64(b)), nil
}

// FromInt64 converts a signed integer, as stored in a database column, to an ID.
func FromInt64(v int64) ID {
	return ID(uint64(v))
}

// FromFields composes an ID from its components.
func FromFields(f sortid.Fields, nodeBits int) ID {
	return ID(Layout(nodeBits).Compose64(f))
}

// ============================================================================
// Basic Conversions
// ============================================================================

// Uint64 returns the ID as a uint64.
func (id ID) Uint64() uint64 {
	return uint64(id)
}

// Int64 returns the ID as an int64. IDs issued before 2089 are positive, so the
// signed value sorts the same way as the ID.
func (id ID) Int64() int64 {
	return int64(id)
}

// Bytes returns the 8-byte big-endian form.
func (id ID) Bytes() [Size]byte {
	var b [Size]byte
	binary.BigEndian.PutUint64(b[:], uint64(id))
	return b
}

// String returns the upper-case 13-symbol form.
func (id ID) String() string {
	b := id.Bytes()
	return codec.EncodeToString(b[:])
}

// Lower returns the lower-case 13-symbol form.
func (id ID) Lower() string {
	b := id.Bytes()
	return lowerCodec.EncodeToString(b[:])
}

// ============================================================================
// Component Extraction
// ============================================================================

// Timestamp returns the time field: milliseconds since the epoch.
func (id ID) Timestamp() uint64 {
	return uint64(id) >> RandomBits
}

// Time returns the creation time assuming the default Epoch.
func (id ID) Time() time.Time {
	return id.TimeSince(Epoch)
}

// TimeSince returns the creation time of an ID generated with a custom epoch.
func (id ID) TimeSince(epoch time.Time) time.Time {
	return sortid.FromUnits(id.Timestamp(), epoch, time.Millisecond)
}

// Random returns the 22-bit node + counter field.
func (id ID) Random() uint64 {
	return uint64(id) & (1<<RandomBits - 1)
}

// Node returns the node field for a generator configured with nodeBits.
func (id ID) Node(nodeBits int) uint64 {
	return Layout(nodeBits).Decompose64(uint64(id)).Node
}

// Counter returns the counter field for a generator configured with nodeBits.
func (id ID) Counter(nodeBits int) uint64 {
	return Layout(nodeBits).Decompose64(uint64(id)).Counter.Lo
}

// Fields splits the ID for a generator configured with nodeBits.
func (id ID) Fields(nodeBits int) sortid.Fields {
	return Layout(nodeBits).Decompose64(uint64(id))
}

// IsZero reports whether id is Nil.
func (id ID) IsZero() bool {
	return id == Nil
}

// ============================================================================
// Ordering
// ============================================================================

// Compare returns -1, 0 or +1.
func (id ID) Compare(other ID) int {
	switch {
	case id < other:
		return -1
	case id > other:
		return 1
	}
	return 0
}

// Before reports whether id sorts before other.
func (id ID) Before(other ID) bool {
	return id < other
}

// After reports whether id sorts after other.
func (id ID) After(other ID) bool {
	return id > other
}

// Equal reports whether id and other are the same.
func (id ID) Equal(other ID) bool {
	return id == other
}

// Increment returns the next ID. The counter carries into the time field.
// Incrementing Max returns ErrOverflow.
func (id ID) Increment() (ID, error) {
	if id == Max {
		return id, sortid.ErrOverflow
	}
	return id + 1, nil
}

// Decrement returns the previous ID. Decrementing Nil returns ErrUnderflow.
func (id ID) Decrement() (ID, error) {
	if id == Nil {
		return id, sortid.ErrUnderflow
	}
	return id - 1, nil
}

// ============================================================================
// Interface Implementations
// ============================================================================

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	b := id.Bytes()
	out := make([]byte, EncodedLen)
	codec.Encode(out, b[:])
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
	b := id.Bytes()
	return b[:], nil
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
