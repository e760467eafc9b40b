// Package sortid - layout.go describes how an identifier's bits are partitioned.
//
// Every identifier family in this module is a fixed-width unsigned integer split into
// three right-to-left fields:
//
//	┌──────────────────────────┬──────────────────┬───────────────────────────┐
//	│   time (TimeBits)        │ node (NodeBits)  │  counter (CounterBits)    │
//	└──────────────────────────┴──────────────────┴───────────────────────────┘
//	                           └────────── random field (RandomBits) ─────────┘
//
// The node field is optional and occupies the high-order bits of the random field.
// A BitLayout is validated once; all derived masks and shifts are pure functions.

package sortid

import (
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"time"
)

// Bounds enforced by Validate.
const (
	// MaxNodeBits is the widest node field accepted.
	MaxNodeBits = 20

	// MaxTimeBits is the widest time field accepted (the time field is held in a uint64).
	MaxTimeBits = 64

	// MaxCounterBits is the widest counter field accepted (held in a Uint128).
	MaxCounterBits = 128

	// MaxTotalBits is the widest identifier accepted.
	MaxTotalBits = MaxTimeBits + MaxCounterBits
)

// BitLayout defines how TotalBits are allocated between time, node and counter.
//
// Example:
//
//	layout, err := sortid.NewBitLayout(64, 22, 10, time.Millisecond)
//	// 42 time bits, 10 node bits, 12 counter bits
type BitLayout struct {
	// TotalBits is the width of the whole identifier. Must be a multiple of 8.
	TotalBits int

	// RandomBits is the width of the low-order field holding node and counter.
	RandomBits int

	// NodeBits is the width of the node field, taken from the top of the random field.
	// Zero disables the node field.
	NodeBits int

	// TimeUnit is the resolution of the time field.
	TimeUnit time.Duration
}

// Fields is an identifier split into its components.
type Fields struct {
	// Time is the number of time units since the format's epoch.
	Time uint64

	// Node is the node/shard id, zero when the layout has no node field.
	Node uint64

	// Counter is the counter or random component.
	Counter Uint128
}

// NewBitLayout builds and validates a layout.
func NewBitLayout(totalBits, randomBits, nodeBits int, unit time.Duration) (BitLayout, error) {
	l := BitLayout{
		TotalBits:  totalBits,
		RandomBits: randomBits,
		NodeBits:   nodeBits,
		TimeUnit:   unit,
	}
	if err := l.Validate(); err != nil {
		return BitLayout{}, err
	}
	return l, nil
}

// Validate checks that the layout is usable.
//
// A valid layout must:
//   - have TotalBits a multiple of 8, at most MaxTotalBits
//   - leave 1-64 bits for time
//   - have 0-MaxNodeBits node bits and at least one counter bit
//   - leave at most MaxCounterBits for the counter
//   - have a positive time unit
func (l BitLayout) Validate() error {
	if l.TotalBits <= 0 || l.TotalBits%8 != 0 || l.TotalBits > MaxTotalBits {
		return l.invalid("TotalBits", l.TotalBits, "must be a positive multiple of 8",
			fmt.Sprintf("8..%d", MaxTotalBits))
	}
	if l.RandomBits <= 0 || l.RandomBits >= l.TotalBits {
		return l.invalid("RandomBits", l.RandomBits, "must leave room for the time field",
			fmt.Sprintf("1..%d", l.TotalBits-1))
	}
	if l.TimeBits() > MaxTimeBits {
		return l.invalid("RandomBits", l.RandomBits, "time field wider than 64 bits",
			fmt.Sprintf(">= %d", l.TotalBits-MaxTimeBits))
	}
	if l.NodeBits < 0 || l.NodeBits > MaxNodeBits {
		return l.invalid("NodeBits", l.NodeBits, "out of valid range",
			fmt.Sprintf("0..%d", MaxNodeBits))
	}
	if cb := l.CounterBits(); cb < 1 {
		return l.invalid("NodeBits", l.NodeBits, "leaves no counter bits",
			fmt.Sprintf("< %d", l.RandomBits))
	} else if cb > MaxCounterBits {
		return l.invalid("RandomBits", l.RandomBits, "counter field wider than 128 bits",
			fmt.Sprintf("<= %d", MaxCounterBits+l.NodeBits))
	}
	if l.TimeUnit <= 0 {
		return NewConfigError("TimeUnit", l.TimeUnit.String(), "must be positive", "> 0", ErrInvalidBitLayout)
	}
	return nil
}

func (l BitLayout) invalid(field string, value int, reason, constraint string) error {
	return NewConfigError(field, strconv.Itoa(value), reason, constraint, ErrInvalidBitLayout)
}

// TimeBits returns the width of the time field.
func (l BitLayout) TimeBits() int {
	return l.TotalBits - l.RandomBits
}

// CounterBits returns the width of the counter field.
func (l BitLayout) CounterBits() int {
	return l.RandomBits - l.NodeBits
}

// Size returns the identifier width in bytes.
func (l BitLayout) Size() int {
	return l.TotalBits / 8
}

// TimeShift is the bit position of the time field's least significant bit.
func (l BitLayout) TimeShift() int {
	return l.RandomBits
}

// NodeShift is the bit position of the node field's least significant bit.
func (l BitLayout) NodeShift() int {
	return l.CounterBits()
}

// MaxTime returns the largest value of the time field.
func (l BitLayout) MaxTime() uint64 {
	return MaskBits(l.TimeBits()).Lo
}

// MaxNode returns the largest node id.
func (l BitLayout) MaxNode() uint64 {
	return MaskBits(l.NodeBits).Lo
}

// CounterMask returns the mask of the counter field.
func (l BitLayout) CounterMask() Uint128 {
	return MaskBits(l.CounterBits())
}

// FoldNode maps any node id into the node field by modulo. Out-of-range ids are
// accepted rather than rejected, so two different configured ids can fold onto
// the same node.
func (l BitLayout) FoldNode(node uint64) uint64 {
	if l.NodeBits == 0 {
		return 0
	}
	return node % (l.MaxNode() + 1)
}

// Compose64 packs f into a uint64. Only valid for layouts with TotalBits <= 64.
// Out-of-range components are masked to their field widths.
func (l BitLayout) Compose64(f Fields) uint64 {
	v := (f.Time & l.MaxTime()) << uint(l.TimeShift())
	v |= (f.Node & l.MaxNode()) << uint(l.NodeShift())
	v |= f.Counter.And(l.CounterMask()).Lo
	return v
}

// Decompose64 is the inverse of Compose64.
func (l BitLayout) Decompose64(v uint64) Fields {
	return Fields{
		Time:    (v >> uint(l.TimeShift())) & l.MaxTime(),
		Node:    (v >> uint(l.NodeShift())) & l.MaxNode(),
		Counter: U128(v).And(l.CounterMask()),
	}
}

// Compose packs f big-endian into dst, which must be Size() bytes long.
func (l BitLayout) Compose(dst []byte, f Fields) {
	for i := range dst {
		dst[i] = 0
	}
	putField(dst, l.TimeShift(), l.TimeBits(), U128(f.Time))
	putField(dst, l.NodeShift(), l.NodeBits, U128(f.Node))
	putField(dst, 0, l.CounterBits(), f.Counter)
}

// Decompose splits a big-endian identifier of Size() bytes into its fields.
func (l BitLayout) Decompose(src []byte) Fields {
	return Fields{
		Time:    l.ExtractTime(src),
		Node:    l.ExtractNode(src),
		Counter: l.ExtractCounter(src),
	}
}

// ExtractTime returns the time field of a big-endian identifier.
func (l BitLayout) ExtractTime(src []byte) uint64 {
	return getField(src, l.TimeShift(), l.TimeBits()).Lo
}

// ExtractNode returns the node field of a big-endian identifier.
func (l BitLayout) ExtractNode(src []byte) uint64 {
	return getField(src, l.NodeShift(), l.NodeBits).Lo
}

// ExtractCounter returns the counter field of a big-endian identifier.
func (l BitLayout) ExtractCounter(src []byte) Uint128 {
	return getField(src, 0, l.CounterBits())
}

// putField ORs the low width bits of v into b at bit offset shift (counted from
// the least significant bit of b).
func putField(b []byte, shift, width int, v Uint128) {
	if width == 0 {
		return
	}
	v = v.And(MaskBits(width))
	if shift%8 == 0 && width%8 == 0 {
		end := len(b) - shift/8
		field := b[end-width/8 : end]
		var tmp [16]byte
		v.PutBytes(tmp[16-len(field):])
		for i := range field {
			field[i] |= tmp[16-len(field)+i]
		}
		return
	}
	for i := 0; i < width; i++ {
		if v.Rsh(uint(i)).Lo&1 == 0 {
			continue
		}
		pos := shift + i
		b[len(b)-1-pos/8] |= 1 << uint(pos%8)
	}
}

// getField reads width bits of b starting at bit offset shift.
func getField(b []byte, shift, width int) Uint128 {
	if width == 0 {
		return Uint128{}
	}
	if shift%8 == 0 && width%8 == 0 {
		end := len(b) - shift/8
		return Uint128FromBytes(b[end-width/8 : end])
	}
	var v Uint128
	for i := width - 1; i >= 0; i-- {
		pos := shift + i
		bit := (b[len(b)-1-pos/8] >> uint(pos%8)) & 1
		v = v.Lsh(1)
		v.Lo |= uint64(bit)
	}
	return v
}

// NodeBitsFor returns ceil(log2(nodeCount)), the node field width needed to give
// nodeCount generators distinct ids. Counts below 2 need no node field.
func NodeBitsFor(nodeCount int) int {
	if nodeCount <= 1 {
		return 0
	}
	return bits.Len(uint(nodeCount - 1))
}

// LayoutCapacity holds calculated capacity information for a BitLayout.
type LayoutCapacity struct {
	// MaxNodes is the number of distinct node ids.
	MaxNodes uint64

	// CounterBits is the counter width; 2^CounterBits identifiers fit in one time unit
	// per node before the counter carries into the time field.
	CounterBits int

	// Lifespan is the duration from the epoch until the time field is exhausted.
	// Capped at the largest time.Duration (~292 years).
	Lifespan time.Duration

	// TimeUnit is the time field resolution.
	TimeUnit time.Duration
}

// Capacity returns the theoretical capacity of this layout.
func (l BitLayout) Capacity() LayoutCapacity {
	units := math.Ldexp(1, l.TimeBits())
	lifespan := time.Duration(math.MaxInt64)
	if nanos := units * float64(l.TimeUnit); nanos < math.MaxInt64 {
		lifespan = time.Duration(nanos)
	}
	return LayoutCapacity{
		MaxNodes:    l.MaxNode() + 1,
		CounterBits: l.CounterBits(),
		Lifespan:    lifespan,
		TimeUnit:    l.TimeUnit,
	}
}

// String returns a human-readable description of the layout capacity.
func (c LayoutCapacity) String() string {
	years := int(c.Lifespan.Hours() / 24 / 365)
	return fmt.Sprintf("MaxNodes: %d, CounterBits: %d, Lifespan: %d years, TimeUnit: %v",
		c.MaxNodes, c.CounterBits, years, c.TimeUnit)
}
