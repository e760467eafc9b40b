package sortid

import (
	"sync/atomic"
	"time"
)

// FastGenerator produces identifiers without a lock.
//
// Identifiers are unique with overwhelming probability but NOT monotonic: two
// identifiers issued in the same time unit are ordered by their counter field only.
// Counters of 32 bits or fewer come from an atomic sequence seeded randomly at
// construction; wider counters are a fresh random draw on every call.
type FastGenerator struct {
	layout      BitLayout
	epoch       time.Time
	node        uint64
	clock       Clock
	random      RandomSource
	maxTime     uint64
	counterBits int
	counterMask Uint128
	sequential  bool
	seq         atomic.Uint64
	generated   atomic.Int64
}

// maxSequentialBits is the widest counter served by the atomic sequence.
const maxSequentialBits = 32

// NewFastGenerator validates cfg and returns a lock-free generator.
// DriftTolerance, Reset and StrictClock are ignored.
func NewFastGenerator(cfg Config) (*FastGenerator, error) {
	if err := (&cfg).Validate(); err != nil {
		return nil, err
	}
	g := &FastGenerator{
		layout:      cfg.Layout,
		epoch:       cfg.Epoch,
		node:        cfg.Layout.FoldNode(cfg.Node),
		clock:       cfg.Clock,
		random:      cfg.Random,
		maxTime:     cfg.Layout.MaxTime(),
		counterBits: cfg.Layout.CounterBits(),
		counterMask: cfg.Layout.CounterMask(),
		sequential:  cfg.Layout.CounterBits() <= maxSequentialBits,
	}
	if g.sequential {
		seed, err := ReadBits(g.random, 64)
		if err != nil {
			return nil, err
		}
		g.seq.Store(seed.Lo)
	}
	return g, nil
}

// Next returns the fields of a new identifier.
func (g *FastGenerator) Next() (Fields, error) {
	t, ok := Units(g.clock.Now(), g.epoch, g.layout.TimeUnit)
	if !ok {
		t = 0
	}
	if t > g.maxTime {
		return Fields{}, newOverflowError(t, g.maxTime, g.node)
	}

	var counter Uint128
	if g.sequential {
		counter = U128(g.seq.Add(1)).And(g.counterMask)
	} else {
		var err error
		if counter, err = ReadBits(g.random, g.counterBits); err != nil {
			return Fields{}, err
		}
	}

	g.generated.Add(1)
	return Fields{Time: t, Node: g.node, Counter: counter}, nil
}

// Layout returns the generator's bit layout.
func (g *FastGenerator) Layout() BitLayout {
	return g.layout
}

// Epoch returns the generator's epoch.
func (g *FastGenerator) Epoch() time.Time {
	return g.epoch
}

// Node returns the node id after folding into range.
func (g *FastGenerator) Node() uint64 {
	return g.node
}

// Generated returns the number of identifiers issued.
func (g *FastGenerator) Generated() int64 {
	return g.generated.Load()
}
