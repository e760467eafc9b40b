package tsid

import (
	"context"
	"time"

	"github.com/sxyafiq/sortid"
)

// Generator issues strictly increasing TSIDs.
//
// Thread-safe: Yes, all state lives behind a single mutex in sortid.Generator.
type Generator struct {
	core     *sortid.Generator
	layout   sortid.BitLayout
	nodeBits int
}

// NewGenerator validates cfg and returns a generator.
//
// Example:
//
//	cfg := tsid.DefaultConfig()
//	cfg.NodeBits = 10
//	cfg.Node = 42
//	gen, err := tsid.NewGenerator(cfg)
func NewGenerator(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	core, err := sortid.NewGenerator(cfg.core())
	if err != nil {
		return nil, err
	}
	return &Generator{core: core, layout: core.Layout(), nodeBits: cfg.NodeBits}, nil
}

// New returns a generator with DefaultConfig. Each call returns an independent
// generator; there is no package-level instance.
func New() (*Generator, error) {
	return NewGenerator(DefaultConfig())
}

// Generate returns the next ID.
func (g *Generator) Generate() (ID, error) {
	f, err := g.core.Next()
	if err != nil {
		return Nil, err
	}
	return ID(g.layout.Compose64(f)), nil
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
//
// On error the IDs generated so far are returned with the error.
func (g *Generator) GenerateBatch(ctx context.Context, count int) ([]ID, error) {
	fields, err := g.core.NextBatch(ctx, count)
	ids := make([]ID, len(fields))
	for i, f := range fields {
		ids[i] = ID(g.layout.Compose64(f))
	}
	return ids, err
}

// Node returns the node id after folding into range.
func (g *Generator) Node() uint64 {
	return g.core.Node()
}

// NodeBits returns the node field width.
func (g *Generator) NodeBits() int {
	return g.nodeBits
}

// Layout returns the generator's bit layout.
func (g *Generator) Layout() sortid.BitLayout {
	return g.layout
}

// Time returns the creation time of id relative to this generator's epoch.
func (g *Generator) Time(id ID) time.Time {
	return id.TimeSince(g.core.Epoch())
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

// FastGenerator issues TSIDs without locking. IDs are unique with high
// probability but not monotonic within a millisecond.
type FastGenerator struct {
	core   *sortid.FastGenerator
	layout sortid.BitLayout
}

// NewFastGenerator validates cfg and returns a lock-free generator.
func NewFastGenerator(cfg Config) (*FastGenerator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	core, err := sortid.NewFastGenerator(cfg.core())
	if err != nil {
		return nil, err
	}
	return &FastGenerator{core: core, layout: core.Layout()}, nil
}

// Generate returns a new ID.
func (g *FastGenerator) Generate() (ID, error) {
	f, err := g.core.Next()
	if err != nil {
		return Nil, err
	}
	return ID(g.layout.Compose64(f)), nil
}

// MustGenerate generates an ID and panics on error.
func (g *FastGenerator) MustGenerate() ID {
	id, err := g.Generate()
	if err != nil {
		panic(err)
	}
	return id
}
