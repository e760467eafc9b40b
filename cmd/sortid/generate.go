package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/sxyafiq/sortid"
	"github.com/sxyafiq/sortid/ksuid"
	"github.com/sxyafiq/sortid/tsid"
	"github.com/sxyafiq/sortid/ulid"
)

// ============================================================================
// Generate Command
// ============================================================================

type generateOptions struct {
	kind     string
	count    int
	node     string
	nodeBits int
	lower    bool
	fast     bool
	strict   bool
}

func (a *app) newGenerateCmd() *cobra.Command {
	o := generateOptions{}

	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen", "g"},
		Short:   "Generate identifiers",
		Example: `  sortid generate
  sortid generate --kind ulid --count 10
  sortid generate --node web-01 --node-bits 10 --count 1000
  TSID_NODE=3 TSID_NODE_COUNT=16 sortid generate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("node-bits") {
				o.nodeBits = -1
			}
			start := time.Now()
			ids, err := a.generate(cmd.Context(), o)
			for _, id := range ids {
				fmt.Fprintln(a.out, id)
			}
			if err != nil {
				return err
			}
			if o.count > 100 {
				elapsed := time.Since(start)
				a.logger.Info("generated identifiers",
					"kind", o.kind,
					"count", len(ids),
					"duration", elapsed,
					"rate_per_sec", int64(float64(len(ids))/elapsed.Seconds()))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.kind, "kind", "k", defaultKind(), "Identifier kind: tsid|ulid|ksuid")
	f.IntVarP(&o.count, "count", "n", 1, "Number of identifiers to generate")
	f.StringVar(&o.node, "node", "", "TSID node: a number, or a name hashed into the node field (default $TSID_NODE)")
	f.IntVar(&o.nodeBits, "node-bits", 0, "TSID node field width 0-20 (default from $TSID_NODE_COUNT)")
	f.BoolVar(&o.lower, "lower", false, "Print Crockford identifiers in lower case")
	f.BoolVar(&o.fast, "fast", false, "Use the lock-free generator (unique, not strictly ordered)")
	f.BoolVar(&o.strict, "strict-clock", false, "Fail instead of stalling when the clock moves backwards")
	return cmd
}

func (a *app) generate(ctx context.Context, o generateOptions) ([]string, error) {
	if err := checkKind(o.kind); err != nil {
		return nil, err
	}
	if o.count < 1 {
		return nil, fmt.Errorf("--count must be at least 1, got %d", o.count)
	}
	if o.lower && o.kind == kindKSUID {
		return nil, fmt.Errorf("--lower is not supported for ksuid: Base62 is case-sensitive")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		ids []string
		err error
	)
	switch o.kind {
	case kindTSID:
		var cfg tsid.Config
		if cfg, err = a.tsidConfig(o); err != nil {
			return nil, err
		}
		if o.fast {
			var g *tsid.FastGenerator
			if g, err = tsid.NewFastGenerator(cfg); err != nil {
				return nil, err
			}
			ids, err = repeat(o.count, g.Generate)
		} else {
			var g *tsid.Generator
			if g, err = tsid.NewGenerator(cfg); err != nil {
				return nil, err
			}
			a.logger.Debug("tsid generator ready", "node", g.Node(), "node_bits", g.NodeBits(), "layout", g.Layout().Capacity())
			ids, err = render(g.GenerateBatch(ctx, o.count))
		}

	case kindULID:
		cfg := ulid.DefaultConfig()
		cfg.StrictClock = o.strict
		cfg.Logger = a.logger
		if o.fast {
			var g *ulid.FastGenerator
			if g, err = ulid.NewFastGenerator(cfg); err != nil {
				return nil, err
			}
			ids, err = repeat(o.count, g.Generate)
		} else {
			var g *ulid.Generator
			if g, err = ulid.NewGenerator(cfg); err != nil {
				return nil, err
			}
			ids, err = render(g.GenerateBatch(ctx, o.count))
		}

	case kindKSUID:
		cfg := ksuid.DefaultConfig()
		cfg.StrictClock = o.strict
		cfg.Logger = a.logger
		if o.fast {
			var g *ksuid.FastGenerator
			if g, err = ksuid.NewFastGenerator(cfg); err != nil {
				return nil, err
			}
			ids, err = repeat(o.count, g.Generate)
		} else {
			var g *ksuid.Generator
			if g, err = ksuid.NewGenerator(cfg); err != nil {
				return nil, err
			}
			ids, err = render(g.GenerateBatch(ctx, o.count))
		}
	}

	if o.lower {
		for i := range ids {
			ids[i] = strings.ToLower(ids[i])
		}
	}
	return ids, err
}

// tsidConfig starts from the environment and applies command-line overrides.
// A nodeBits of -1 means the flag was not given.
func (a *app) tsidConfig(o generateOptions) (tsid.Config, error) {
	cfg, err := tsid.ConfigFromEnv()
	if err != nil {
		return tsid.Config{}, err
	}
	if o.nodeBits >= 0 {
		cfg.NodeBits = o.nodeBits
		cfg.NodeCount = 0
	}
	if o.node != "" {
		cfg.Node = sortid.NodeFromString(o.node)
	}
	cfg.StrictClock = o.strict
	cfg.Logger = a.logger
	return cfg, nil
}

// render formats a batch, keeping the partial result on error.
func render[T fmt.Stringer](ids []T, err error) ([]string, error) {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out, err
}

// repeat calls gen n times, stopping at the first error.
func repeat[T fmt.Stringer](n int, gen func() (T, error)) ([]string, error) {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id, err := gen()
		if err != nil {
			return out, err
		}
		out = append(out, id.String())
	}
	return out, nil
}
