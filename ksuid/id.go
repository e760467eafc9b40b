// Package ksuid implements K-sortable identifiers in the KSUID format.
//
// # ID Structure (160 bits)
//
//	┌────────────────────────────────┬─────────────────────────────────────────┐
//	│ 32 bits: seconds since epoch   │          128 bits: payload              │
//	│ (2014-05-13T16:53:20Z)         │                                         │
//	└────────────────────────────────┴─────────────────────────────────────────┘
//
// The string form is 27 case-sensitive Base62 symbols. IDs sort by second, so two
// IDs from different machines in the same second are ordered arbitrarily; IDs from
// one Generator are strictly increasing.
package ksuid

import (
	"bytes"
	"fmt"
	"time"

	"github.com/sxyafiq/sortid"
)

const (
	// TotalBits is the identifier width.
	TotalBits = 160

	// PayloadBits is the width of the random payload.
	PayloadBits = 128

	// TimeBits is the width of the time field.
	TimeBits = TotalBits - PayloadBits

	// EncodedLen is the length of the string form.
	EncodedLen = 27

	// Size is the length of the byte form.
	Size = TotalBits / 8

	// EpochSeconds is the KSUID epoch as a Unix timestamp.
	EpochSeconds = 1400000000

	// DefaultDriftTolerance is how far the clock may step back before the
	// generator treats it as a clock error rather than a stall.
	DefaultDriftTolerance = 10 * time.Second
)

// Epoch is the instant the time field counts from.
var Epoch = time.Unix(EpochSeconds, 0).UTC()

// Layout is the bit layout of a KSUID.
var Layout = sortid.BitLayout{
	TotalBits:  TotalBits,
	RandomBits: PayloadBits,
	TimeUnit:   time.Second,
}

var codec = sortid.MustCodec(sortid.Base62, TotalBits)

// ID is a 160-bit KSUID in big-endian byte order.
type ID [Size]byte

var (
	// Nil is the zero ID.
	Nil ID

	// Max is the largest ID, aWgEPTl1tmebfsQzFP4bxwgy80V.
	Max = ID{
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	}
)

// Parse decodes the 27-symbol string form. Values above Max are rejected.
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

// Valid reports whether s is a well-formed KSUID string.
func Valid(s string) bool {
	return codec.Valid(s)
}

// FromBytes decodes the 20-byte big-endian form.
func FromBytes(b []byte) (ID, error) {
	if len(b) != Size {
		return Nil, sortid.NewFormatError(fmt.Sprintf("%x", b), -1,
			fmt.Errorf("%w: got %d bytes, want %d", sortid.ErrInvalidLength, len(b), Size))
	}
	var id ID
	copy(id[:], b)
	return id, nil
}

// FromParts builds an ID from a time and a 16-byte payload.
// Times outside the 32-bit second range are clamped to it.
func FromParts(t time.Time, payload [16]byte) ID {
	secs, ok := sortid.Units(t, Epoch, time.Second)
	if !ok {
		secs = 0
	}
	if max := Layout.MaxTime(); secs > max {
		secs = max
	}
	var id ID
	Layout.Compose(id[:], sortid.Fields{Time: secs, Counter: sortid.Uint128FromBytes(payload[:])})
	return id
}

func fromFields(f sortid.Fields) ID {
	var id ID
	Layout.Compose(id[:], f)
	return id
}

// Bytes returns the 20-byte big-endian form.
func (id ID) Bytes() []byte {
	return id[:]
}

// String returns the 27-symbol Base62 form.
func (id ID) String() string {
	return codec.EncodeToString(id[:])
}

// Timestamp returns the time field: seconds since the KSUID epoch.
func (id ID) Timestamp() uint64 {
	return Layout.ExtractTime(id[:])
}

// Time returns the creation time.
func (id ID) Time() time.Time {
	return sortid.FromUnits(id.Timestamp(), Epoch, time.Second)
}

// Payload returns the 128-bit payload.
func (id ID) Payload() [16]byte {
	var p [16]byte
	copy(p[:], id[4:])
	return p
}

// IsZero reports whether id is Nil.
func (id ID) IsZero() bool {
	return id == Nil
}

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

// Increment returns the next ID. The payload carries into the time field.
func (id ID) Increment() (ID, error) {
	if !sortid.IncrementBytes(id[:]) {
		return id, sortid.ErrOverflow
	}
	return id, nil
}

// Decrement returns the previous ID.
func (id ID) Decrement() (ID, error) {
	if !sortid.DecrementBytes(id[:]) {
		return id, sortid.ErrUnderflow
	}
	return id, nil
}

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
