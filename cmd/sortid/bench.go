package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/sxyafiq/sortid"
	"github.com/sxyafiq/sortid/ksuid"
	"github.com/sxyafiq/sortid/tsid"
	"github.com/sxyafiq/sortid/ulid"
)

// ============================================================================
// Benchmark Command
// ============================================================================

// benchTarget adapts one identifier kind to the benchmark loops.
type benchTarget struct {
	single  func() error
	batch   func(ctx context.Context, n int) (int, error)
	fast    func() error
	format  func() string
	parse   func() error
	metrics func() sortid.Metrics
}

func newBenchTarget(kind string) (benchTarget, error) {
	switch kind {
	case kindTSID:
		g, err := tsid.New()
		if err != nil {
			return benchTarget{}, err
		}
		f, err := tsid.NewFastGenerator(tsid.DefaultConfig())
		if err != nil {
			return benchTarget{}, err
		}
		sample := g.MustGenerate()
		s := sample.String()
		return benchTarget{
			single:  func() error { _, err := g.Generate(); return err },
			batch:   func(ctx context.Context, n int) (int, error) { ids, err := g.GenerateBatch(ctx, n); return len(ids), err },
			fast:    func() error { _, err := f.Generate(); return err },
			format:  sample.String,
			parse:   func() error { _, err := tsid.Parse(s); return err },
			metrics: g.Metrics,
		}, nil

	case kindULID:
		g, err := ulid.New()
		if err != nil {
			return benchTarget{}, err
		}
		f, err := ulid.NewFastGenerator(ulid.DefaultConfig())
		if err != nil {
			return benchTarget{}, err
		}
		sample := g.MustGenerate()
		s := sample.String()
		return benchTarget{
			single:  func() error { _, err := g.Generate(); return err },
			batch:   func(ctx context.Context, n int) (int, error) { ids, err := g.GenerateBatch(ctx, n); return len(ids), err },
			fast:    func() error { _, err := f.Generate(); return err },
			format:  sample.String,
			parse:   func() error { _, err := ulid.Parse(s); return err },
			metrics: g.Metrics,
		}, nil

	case kindKSUID:
		g, err := ksuid.New()
		if err != nil {
			return benchTarget{}, err
		}
		f, err := ksuid.NewFastGenerator(ksuid.DefaultConfig())
		if err != nil {
			return benchTarget{}, err
		}
		sample := g.MustGenerate()
		s := sample.String()
		return benchTarget{
			single:  func() error { _, err := g.Generate(); return err },
			batch:   func(ctx context.Context, n int) (int, error) { ids, err := g.GenerateBatch(ctx, n); return len(ids), err },
			fast:    func() error { _, err := f.Generate(); return err },
			format:  sample.String,
			parse:   func() error { _, err := ksuid.Parse(s); return err },
			metrics: g.Metrics,
		}, nil
	}
	return benchTarget{}, checkKind(kind)
}

func (a *app) newBenchCmd() *cobra.Command {
	var (
		kind      string
		duration  time.Duration
		batchSize int
	)
	cmd := &cobra.Command{
		Use:     "bench",
		Aliases: []string{"benchmark", "b"},
		Short:   "Run generation benchmarks",
		Example: `  sortid bench --duration 5s
  sortid bench --kind ksuid --batch 1000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if duration <= 0 {
				return fmt.Errorf("--duration must be positive, got %v", duration)
			}
			if batchSize < 1 {
				return fmt.Errorf("--batch must be at least 1, got %d", batchSize)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return a.bench(ctx, kind, duration, batchSize)
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", defaultKind(), "Identifier kind: tsid|ulid|ksuid")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 3*time.Second, "Duration of each benchmark")
	cmd.Flags().IntVar(&batchSize, "batch", 100, "Batch size for the batch benchmark")
	return cmd
}

func (a *app) bench(ctx context.Context, kind string, duration time.Duration, batchSize int) error {
	target, err := newBenchTarget(kind)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Running %s benchmarks (duration: %v)\n\n", kind, duration)

	// Benchmark 1: Single generation
	fmt.Fprintf(a.out, "1. Single Generation:\n")
	count, elapsed, err := runFor(duration, func() (int, error) { return 1, target.single() })
	if err != nil {
		return err
	}
	a.printRate(count, elapsed)

	// Benchmark 2: Batch generation
	fmt.Fprintf(a.out, "2. Batch Generation (batch size: %d):\n", batchSize)
	count, elapsed, err = runFor(duration, func() (int, error) { return target.batch(ctx, batchSize) })
	if err != nil {
		return err
	}
	a.printRate(count, elapsed)

	// Benchmark 3: Lock-free generation
	fmt.Fprintf(a.out, "3. Fast Generation:\n")
	count, elapsed, err = runFor(duration, func() (int, error) { return 1, target.fast() })
	if err != nil {
		return err
	}
	a.printRate(count, elapsed)

	// Benchmark 4: Encoding
	const ops = 1000
	fmt.Fprintf(a.out, "4. Encoding Performance (%d operations):\n", ops)
	start := time.Now()
	for i := 0; i < ops; i++ {
		_ = target.format()
	}
	fmt.Fprintf(a.out, "   %-8s %6.0f ns/op\n", "String:", float64(time.Since(start).Nanoseconds())/ops)
	start = time.Now()
	for i := 0; i < ops; i++ {
		if err := target.parse(); err != nil {
			return err
		}
	}
	fmt.Fprintf(a.out, "   %-8s %6.0f ns/op\n", "Parse:", float64(time.Since(start).Nanoseconds())/ops)
	fmt.Fprintf(a.out, "\n")

	m := target.metrics()
	fmt.Fprintf(a.out, "Generator Metrics:\n")
	fmt.Fprintf(a.out, "   Generated:        %d\n", m.Generated)
	fmt.Fprintf(a.out, "   Advances:         %d\n", m.Advances)
	fmt.Fprintf(a.out, "   Stalls:           %d\n", m.Stalls)
	fmt.Fprintf(a.out, "   Counter overflow: %d\n", m.CounterOverflow)
	fmt.Fprintf(a.out, "   Clock backward:   %d\n", m.ClockBackward)

	a.logger.Debug("benchmark complete", "kind", kind, "generated", m.Generated)
	return nil
}

// runFor calls step until d has elapsed and returns the number of identifiers produced.
func runFor(d time.Duration, step func() (int, error)) (int, time.Duration, error) {
	count := 0
	start := time.Now()
	deadline := start.Add(d)
	for time.Now().Before(deadline) {
		n, err := step()
		count += n
		if err != nil {
			return count, time.Since(start), err
		}
	}
	return count, time.Since(start), nil
}

func (a *app) printRate(count int, elapsed time.Duration) {
	rate := float64(count) / elapsed.Seconds()
	nsPerOp := float64(elapsed.Nanoseconds()) / float64(max(count, 1))
	fmt.Fprintf(a.out, "   Generated:      %d IDs\n", count)
	fmt.Fprintf(a.out, "   Duration:       %v\n", elapsed.Round(time.Millisecond))
	fmt.Fprintf(a.out, "   Rate:           %.0f IDs/sec (%.0f ns/op)\n", rate, nsPerOp)
	fmt.Fprintf(a.out, "\n")
}
