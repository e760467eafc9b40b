// Package sortid is the shared core of three time-sortable identifier families:
// a 64-bit TSID (package tsid), a 128-bit ULID (package ulid) and a 160-bit
// K-sortable KSUID (package ksuid).
//
// # Overview
//
// Each family is a fixed-width unsigned integer made of a time field counted from a
// format-specific epoch, an optional node field and a counter/random field
// (see BitLayout). The packages here supply what the families share:
//
//   - RandomSource: pluggable randomness (CSPRNG, seeded ChaCha8, fixed test bytes)
//   - Clock: pluggable time (monotonic-safe system clock, manual clock for tests)
//   - BitLayout: field widths, masks, shifts, compose/decompose
//   - Codec: fixed-length strings over an Alphabet whose order matches numeric order
//   - Generator: the monotonic algorithm under a single mutex
//   - FastGenerator: lock-free, non-monotonic generation
//
// # Monotonic Generation
//
// Within one Generator every identifier is strictly greater than the previous one:
//
//   - clock moved forward: take the new time, reset the counter (random or zero)
//   - clock equal, or behind by up to DriftTolerance: keep the last time, counter+1
//   - counter overflow: counter wraps to zero and the time field advances by one unit
//   - clock behind by more than DriftTolerance: same as above by default; with
//     StrictClock the call fails with a *ClockError instead
//
// # Usage
//
//	gen, err := tsid.NewGenerator(tsid.DefaultConfig())
//	id, err := gen.Generate()
//	fmt.Println(id) // 0AWQ4J7ZR1FGE
package sortid

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ResetPolicy selects the counter value taken when the clock advances.
type ResetPolicy int

const (
	// ResetRandom seeds the counter with a fresh random draw (TSID, ULID, KSUID).
	ResetRandom ResetPolicy = iota

	// ResetZero restarts the counter at zero (classic Snowflake sequence).
	ResetZero
)

// String returns the policy name.
func (p ResetPolicy) String() string {
	switch p {
	case ResetRandom:
		return "random"
	case ResetZero:
		return "zero"
	default:
		return fmt.Sprintf("ResetPolicy(%d)", int(p))
	}
}

// Config holds the construction parameters of a Generator or FastGenerator.
//
// The family packages fill it from their own configuration; use it directly only
// for custom layouts.
type Config struct {
	// Layout is the bit layout of the identifiers. Required.
	Layout BitLayout

	// Epoch is the instant the time field counts from. Required.
	Epoch time.Time

	// Node is this generator's node id. Folded into range by modulo.
	Node uint64

	// Clock is the time source. Default: SystemClock().
	Clock Clock

	// Random supplies counter seeds and random fields. Default: CryptoSource().
	Random RandomSource

	// DriftTolerance is how far the clock may move backwards before it is
	// treated as a clock error rather than a stall.
	DriftTolerance time.Duration

	// Reset selects the counter value taken when the clock advances.
	Reset ResetPolicy

	// StrictClock makes regressions beyond DriftTolerance fail with *ClockError
	// instead of continuing from the last timestamp.
	StrictClock bool

	// Logger receives clock anomaly and counter carry events. Default: discard.
	Logger *slog.Logger
}

// Validate checks the configuration and fills in defaults.
func (c *Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if c.Epoch.IsZero() {
		return NewConfigError("Epoch", "0001-01-01", "must be set", "non-zero time", nil)
	}
	if c.DriftTolerance < 0 {
		return NewConfigError("DriftTolerance", c.DriftTolerance.String(), "must be non-negative", ">= 0", nil)
	}
	if c.Reset != ResetRandom && c.Reset != ResetZero {
		return NewConfigError("Reset", c.Reset.String(), "unknown policy", "ResetRandom or ResetZero", nil)
	}
	if c.Clock == nil {
		c.Clock = SystemClock()
	}
	if c.Random == nil {
		c.Random = CryptoSource()
	}
	if c.Logger == nil {
		c.Logger = discardLogger()
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Metrics holds runtime metrics for monitoring and observability.
type Metrics struct {
	Generated        int64 // Identifiers successfully generated
	Advances         int64 // Calls where the clock moved past the last timestamp
	Stalls           int64 // Calls within the same time unit or within drift tolerance
	ClockBackward    int64 // Regressions beyond the drift tolerance
	ClockBackwardErr int64 // Regressions rejected in strict mode
	CounterOverflow  int64 // Counter wraps that advanced the time field
}

// Generator produces strictly increasing identifier fields.
//
// # Thread Safety
//
// Generator is safe for concurrent use. The whole read-decide-write sequence of
// Next runs under one mutex, so concurrent callers observe a single total order.
// Generators share no state with each other; identifiers from two generators are
// distinct only if their node ids differ.
type Generator struct {
	mu        sync.Mutex
	issued    bool    // false until the first identifier
	last      uint64  // last time value used
	lastClock uint64  // largest clock reading seen
	tail      Uint128 // last counter value used

	layout      BitLayout
	epoch       time.Time
	node        uint64
	clock       Clock
	random      RandomSource
	reset       ResetPolicy
	strict      bool
	tolerance   time.Duration
	driftUnits  uint64
	maxTime     uint64
	counterMask Uint128
	counterBits int
	logger      *slog.Logger

	generated        atomic.Int64
	advances         atomic.Int64
	stalls           atomic.Int64
	clockBackward    atomic.Int64
	clockBackwardErr atomic.Int64
	counterOverflow  atomic.Int64
}

// NewGenerator validates cfg and returns a generator.
//
// The clock is sampled once to check it lies inside the layout's time range and
// the counter is seeded from the random source.
func NewGenerator(cfg Config) (*Generator, error) {
	if err := (&cfg).Validate(); err != nil {
		return nil, err
	}

	g := &Generator{
		layout:      cfg.Layout,
		epoch:       cfg.Epoch,
		node:        cfg.Layout.FoldNode(cfg.Node),
		clock:       cfg.Clock,
		random:      cfg.Random,
		reset:       cfg.Reset,
		strict:      cfg.StrictClock,
		tolerance:   cfg.DriftTolerance,
		driftUnits:  uint64(cfg.DriftTolerance / cfg.Layout.TimeUnit),
		maxTime:     cfg.Layout.MaxTime(),
		counterMask: cfg.Layout.CounterMask(),
		counterBits: cfg.Layout.CounterBits(),
		logger:      cfg.Logger,
	}

	now, err := g.sample()
	if err != nil {
		return nil, err
	}
	tail, err := ReadBits(g.random, g.counterBits)
	if err != nil {
		return nil, err
	}
	g.last, g.lastClock, g.tail = now, now, tail
	return g, nil
}

// sample reads the clock in time units since the epoch.
func (g *Generator) sample() (uint64, error) {
	t, ok := Units(g.clock.Now(), g.epoch, g.layout.TimeUnit)
	if !ok {
		return 0, NewConfigError("Clock", g.clock.Now().UTC().Format(time.RFC3339Nano),
			"clock reads before the epoch", "at or after "+g.epoch.UTC().Format(time.RFC3339), nil)
	}
	if t > g.maxTime {
		return 0, newOverflowError(t, g.maxTime, g.node)
	}
	return t, nil
}

// Next returns the fields of the next identifier.
//
// Errors: *OverflowError when the time field is exhausted, *ClockError in strict
// mode, or a random source failure. Generator state is unchanged on error.
func (g *Generator) Next() (Fields, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.next()
}

// NextBatch returns n consecutive fields under a single lock acquisition.
//
// ctx is checked every 100 identifiers. If an error occurs the fields generated
// so far are returned with it.
func (g *Generator) NextBatch(ctx context.Context, n int) ([]Fields, error) {
	if n <= 0 {
		return []Fields{}, nil
	}
	out := make([]Fields, 0, n)

	g.mu.Lock()
	defer g.mu.Unlock()

	for i := 0; i < n; i++ {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return out, err
			}
		}
		f, err := g.next()
		if err != nil {
			return out, err
		}
		out = append(out, f)
	}
	return out, nil
}

// next runs one step of the algorithm. Caller holds g.mu.
func (g *Generator) next() (Fields, error) {
	t, ok := Units(g.clock.Now(), g.epoch, g.layout.TimeUnit)
	if !ok {
		t = 0
	}

	if !g.issued || t > g.last {
		if t > g.maxTime {
			return Fields{}, newOverflowError(t, g.maxTime, g.node)
		}
		tail := Uint128{}
		if g.reset == ResetRandom {
			var err error
			if tail, err = ReadBits(g.random, g.counterBits); err != nil {
				return Fields{}, err
			}
		}
		g.last, g.tail, g.issued = t, tail, true
		if t > g.lastClock {
			g.lastClock = t
		}
		g.advances.Add(1)
	} else {
		if t+g.driftUnits < g.lastClock {
			g.clockBackward.Add(1)
			if g.strict {
				g.clockBackwardErr.Add(1)
				return Fields{}, newClockError(t, g.lastClock, g.tolerance, g.layout.TimeUnit, g.node)
			}
			g.logger.Warn("clock moved backwards beyond tolerance, reusing last timestamp",
				"current", t, "last", g.last, "tolerance", g.tolerance, "node", g.node)
		} else {
			g.stalls.Add(1)
		}
		if err := g.bump(); err != nil {
			return Fields{}, err
		}
	}

	g.generated.Add(1)
	return Fields{Time: g.last, Node: g.node, Counter: g.tail}, nil
}

// bump increments the counter, carrying into the time field on overflow.
func (g *Generator) bump() error {
	if g.tail != g.counterMask {
		g.tail, _ = g.tail.AddOne()
		return nil
	}
	if g.last >= g.maxTime {
		return newOverflowError(g.last+1, g.maxTime, g.node)
	}
	g.last++
	g.tail = Uint128{}
	g.counterOverflow.Add(1)
	g.logger.Debug("counter overflow, advancing time field", "time", g.last, "node", g.node)
	return nil
}

// State returns the last time value and counter used.
func (g *Generator) State() (last uint64, tail Uint128) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last, g.tail
}

// SetState overrides the generator state as if an identifier with the given time
// and counter had just been issued. Intended for tests and diagnostics.
func (g *Generator) SetState(last uint64, tail Uint128) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last, g.lastClock, g.tail, g.issued = last, last, tail.And(g.counterMask), true
}

// Layout returns the generator's bit layout.
func (g *Generator) Layout() BitLayout {
	return g.layout
}

// Epoch returns the generator's epoch.
func (g *Generator) Epoch() time.Time {
	return g.epoch
}

// Node returns the node id after folding into range.
func (g *Generator) Node() uint64 {
	return g.node
}

// Metrics returns a snapshot of current metrics.
func (g *Generator) Metrics() Metrics {
	return Metrics{
		Generated:        g.generated.Load(),
		Advances:         g.advances.Load(),
		Stalls:           g.stalls.Load(),
		ClockBackward:    g.clockBackward.Load(),
		ClockBackwardErr: g.clockBackwardErr.Load(),
		CounterOverflow:  g.counterOverflow.Load(),
	}
}

// ResetMetrics resets all metrics counters to zero.
func (g *Generator) ResetMetrics() {
	g.generated.Store(0)
	g.advances.Store(0)
	g.stalls.Store(0)
	g.clockBackward.Store(0)
	g.clockBackwardErr.Store(0)
	g.counterOverflow.Store(0)
}
