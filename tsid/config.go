package tsid

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/sxyafiq/sortid"
)

// Environment variables read by ConfigFromEnv.
const (
	// EnvNode holds the node id: a decimal number, or any other string which is
	// hashed into the node field.
	EnvNode = "TSID_NODE"

	// EnvNodeCount holds the number of generators sharing the id space. The node
	// width is derived from it as ceil(log2(count)).
	EnvNodeCount = "TSID_NODE_COUNT"
)

// Config holds configuration options for a TSID generator.
//
// All fields can be customized, but sensible defaults are provided via DefaultConfig().
type Config struct {
	// Node identifies this generator among NodeCount (or 2^NodeBits) generators.
	// Out-of-range values are folded into range by modulo.
	Node uint64

	// NodeBits is the width of the node field, 0-20.
	// Default: 0 (the whole random field is a counter)
	NodeBits int

	// NodeCount derives NodeBits when set and NodeBits is 0.
	NodeCount int

	// Epoch is the instant the time field counts from.
	// Default: 2020-01-01T00:00:00Z
	//
	// IMPORTANT: IDs generated with different epochs are not comparable.
	Epoch time.Time

	// Clock is the time source. Default: monotonic-safe system clock.
	Clock sortid.Clock

	// Random seeds the counter. Default: crypto/rand.
	Random sortid.RandomSource

	// DriftTolerance is the backward clock movement treated as a stall.
	// Default: 10 seconds
	DriftTolerance time.Duration

	// Reset is the counter policy when the millisecond changes.
	// Default: sortid.ResetRandom
	Reset sortid.ResetPolicy

	// StrictClock fails generation when the clock moves back beyond DriftTolerance.
	// Default: false (keep issuing from the last timestamp)
	StrictClock bool

	// Logger receives clock anomaly events. Default: discard.
	Logger *slog.Logger
}

// DefaultConfig returns a Config for a single, node-less generator.
func DefaultConfig() Config {
	return Config{
		Epoch:          Epoch,
		DriftTolerance: DefaultDriftTolerance,
		Reset:          sortid.ResetRandom,
	}
}

// ConfigFromEnv returns DefaultConfig with the node taken from the environment.
//
// TSID_NODE_COUNT sets the node width. TSID_NODE sets the node id; when it is
// unset and the node width is non-zero, a random node in range is chosen.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	count, ok, err := sortid.NodeCountFromEnv(EnvNodeCount)
	if err != nil {
		return Config{}, err
	}
	if ok {
		cfg.NodeCount = count
		cfg.NodeBits = sortid.NodeBitsFor(count)
		if cfg.NodeBits > sortid.MaxNodeBits {
			return Config{}, sortid.NewConfigError(EnvNodeCount, strconv.Itoa(count),
				"too many nodes", fmt.Sprintf("<= %d", 1<<sortid.MaxNodeBits), sortid.ErrInvalidBitLayout)
		}
	}

	if node, ok := sortid.NodeFromEnv(EnvNode); ok {
		cfg.Node = node
	} else if cfg.NodeBits > 0 {
		node, err := sortid.RandomNode(sortid.CryptoSource(), cfg.NodeBits)
		if err != nil {
			return Config{}, err
		}
		cfg.Node = node
	}
	return cfg, nil
}

// Validate checks the configuration and derives NodeBits from NodeCount.
func (c *Config) Validate() error {
	if c.NodeCount < 0 {
		return sortid.NewConfigError("NodeCount", strconv.Itoa(c.NodeCount), "must be non-negative", ">= 0", nil)
	}
	if c.NodeBits == 0 && c.NodeCount > 0 {
		c.NodeBits = sortid.NodeBitsFor(c.NodeCount)
	}
	if c.NodeBits < 0 || c.NodeBits > sortid.MaxNodeBits {
		return sortid.NewConfigError("NodeBits", strconv.Itoa(c.NodeBits), "out of valid range",
			fmt.Sprintf("0..%d", sortid.MaxNodeBits), sortid.ErrInvalidBitLayout)
	}
	if c.Epoch.IsZero() {
		c.Epoch = Epoch
	}
	return Layout(c.NodeBits).Validate()
}

// core converts a validated Config to the shared generator configuration.
func (c Config) core() sortid.Config {
	return sortid.Config{
		Layout:         Layout(c.NodeBits),
		Epoch:          c.Epoch,
		Node:           c.Node,
		Clock:          c.Clock,
		Random:         c.Random,
		DriftTolerance: c.DriftTolerance,
		Reset:          c.Reset,
		StrictClock:    c.StrictClock,
		Logger:         c.Logger,
	}
}
