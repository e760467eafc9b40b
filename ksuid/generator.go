package ksuid

import (
	"context"
	"log/slog"
	"time"

	"github.com/sxyafiq/sortid"
)

// Config holds configuration options for a KSUID generator.
type Config struct {
	// Clock is the time source. Default: monotonic-safe system clock.
	Clock sortid.Clock

	// Random supplies payloads. Default: crypto/rand.
	Random sortid.RandomSource

	// DriftTolerance is the backward clock movement treated as a stall.
	// Sub-second values round down to whole seconds. Default: 10 seconds
	DriftTolerance time.Duration

	// StrictClock fails generation when the clock moves back beyond DriftTolerance.
	StrictClock bool

	// Logger receives clock anomaly events. Default: discard.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() Config {
	return Config{DriftTolerance: DefaultDriftTolerance}
}

func (c Config) core() sortid.Config {
	return sortid.Config{
		Layout:         Layout,
		Epoch:          Epoch,
		Clock:          c.Clock,
		Random:         c.Random,
		DriftTolerance: c.DriftTolerance,
		Reset:          sortid.ResetRandom,
		StrictClock:    c.StrictClock,
		Logger:         c.Logger,
	}
}

// Generator issues strictly increasing KSUIDs. Within one second the payload is
// incremented by one; a new second draws a fresh payload.
//
// Thread-safe: Yes.
type Generator struct {
	core *sortid.Generator
}

// NewGenerator validates cfg and returns a generator.
func NewGenerator(cfg Config) (*Generator, error) {
	core, err := sortid.NewGenerator(cfg.core())
	if err != nil {
		return nil, err
	}
	return &Generator{core: core}, nil
}

// New returns an independent generator with DefaultConfig.
func New() (*Generator, error) {
	return NewGenerator(DefaultConfig())
}

// Generate returns the next KSUID.
func (g *Generator) Generate() (ID, error) {
	f, err := g.core.Next()
	if err != nil {
		return Nil, err
	}
	return fromFields(f), nil
}

// MustGenerate generates an ID and panics on error.
func (g *Generator) MustGenerate() ID {
	id, err := g.Generate()
	if err != nil {
		panic(err)
	}
	return id
}

// GenerateBatch returns count consecutive IDs under one lock acquisition.
func (g *Generator) GenerateBatch(ctx context.Context, count int) ([]ID, error) {
	fields, err := g.core.NextBatch(ctx, count)
	ids := make([]ID, len(fields))
	for i, f := range fields {
		ids[i] = fromFields(f)
	}
	return ids, err
}

// Metrics returns a snapshot of the generator metrics.
func (g *Generator) Metrics() sortid.Metrics {
	return g.core.Metrics()
}

// ResetMetrics resets all metrics counters to zero.
func (g *Generator) ResetMetrics() {
	g.core.ResetMetrics()
}

// Core returns the underlying monotonic generator.
func (g *Generator) Core() *sortid.Generator {
	return g.core
}

// FastGenerator issues KSUIDs with a fresh payload on every call, without locking.
type FastGenerator struct {
	core *sortid.FastGenerator
}

// NewFastGenerator validates cfg and returns a lock-free generator.
func NewFastGenerator(cfg Config) (*FastGenerator, error) {
	core, err := sortid.NewFastGenerator(cfg.core())
	if err != nil {
		return nil, err
	}
	return &FastGenerator{core: core}, nil
}

// Generate returns a new KSUID.
func (g *FastGenerator) Generate() (ID, error) {
	f, err := g.core.Next()
	if err != nil {
		return Nil, err
	}
	return fromFields(f), nil
}

// MustGenerate generates an ID and panics on error.
func (g *FastGenerator) MustGenerate() ID {
	id, err := g.Generate()
	if err != nil {
		panic(err)
	}
	return id
}
