package tsid

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sxyafiq/sortid"
)

func testConfig(clock sortid.Clock) Config {
	cfg := DefaultConfig()
	cfg.Clock = clock
	cfg.Reset = sortid.ResetZero
	return cfg
}

func TestNewGenerator_Defaults(t *testing.T) {
	gen, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if gen.NodeBits() != 0 || gen.Node() != 0 {
		t.Errorf("default node = %d/%d bits, want 0/0", gen.Node(), gen.NodeBits())
	}

	id := gen.MustGenerate()
	if d := time.Since(id.Time()); d < 0 || d > time.Second {
		t.Errorf("id time %v is %v away from now", id.Time(), d)
	}
	if len(id.String()) != EncodedLen {
		t.Errorf("len(String()) = %d", len(id.String()))
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		modify   func(*Config)
		wantErr  error
		wantBits int
	}{
		{"Default", func(c *Config) {}, nil, 0},
		{"Node bits", func(c *Config) { c.NodeBits = 10 }, nil, 10},
		{"Node count", func(c *Config) { c.NodeCount = 1000 }, nil, 10},
		{"Node count power of two", func(c *Config) { c.NodeCount = 1024 }, nil, 10},
		{"Node count one", func(c *Config) { c.NodeCount = 1 }, nil, 0},
		{"Explicit bits win", func(c *Config) { c.NodeBits = 4; c.NodeCount = 1000 }, nil, 4},
		{"Negative node count", func(c *Config) { c.NodeCount = -1 }, sortid.ErrInvalidConfig, 0},
		{"Too many node bits", func(c *Config) { c.NodeBits = 21 }, sortid.ErrInvalidBitLayout, 0},
		{"Negative node bits", func(c *Config) { c.NodeBits = -1 }, sortid.ErrInvalidBitLayout, 0},
		{"Node count too large", func(c *Config) { c.NodeCount = 1<<20 + 1 }, sortid.ErrInvalidBitLayout, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if cfg.NodeBits != tt.wantBits {
				t.Errorf("NodeBits = %d, want %d", cfg.NodeBits, tt.wantBits)
			}
		})
	}
}

func TestConfig_ZeroEpochDefaults(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !cfg.Epoch.Equal(Epoch) {
		t.Errorf("Epoch = %v, want %v", cfg.Epoch, Epoch)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Run("Unset", func(t *testing.T) {
		t.Setenv(EnvNode, "")
		t.Setenv(EnvNodeCount, "")
		cfg, err := ConfigFromEnv()
		if err != nil {
			t.Fatalf("ConfigFromEnv() error = %v", err)
		}
		if cfg.NodeBits != 0 || cfg.Node != 0 {
			t.Errorf("cfg = %d/%d, want 0/0", cfg.Node, cfg.NodeBits)
		}
	})

	t.Run("Node and count", func(t *testing.T) {
		t.Setenv(EnvNode, "3")
		t.Setenv(EnvNodeCount, "16")
		cfg, err := ConfigFromEnv()
		if err != nil {
			t.Fatalf("ConfigFromEnv() error = %v", err)
		}
		if cfg.NodeBits != 4 || cfg.Node != 3 {
			t.Errorf("cfg = node %d bits %d, want 3/4", cfg.Node, cfg.NodeBits)
		}
	})

	t.Run("Hostname node", func(t *testing.T) {
		t.Setenv(EnvNode, "orders-7f9c")
		t.Setenv(EnvNodeCount, "256")
		cfg, err := ConfigFromEnv()
		if err != nil {
			t.Fatalf("ConfigFromEnv() error = %v", err)
		}
		gen, err := NewGenerator(cfg)
		if err != nil {
			t.Fatalf("NewGenerator() error = %v", err)
		}
		if want := sortid.NodeFromString("orders-7f9c") % 256; gen.Node() != want {
			t.Errorf("Node() = %d, want %d", gen.Node(), want)
		}
	})

	t.Run("Random node", func(t *testing.T) {
		t.Setenv(EnvNode, "")
		t.Setenv(EnvNodeCount, "16")
		cfg, err := ConfigFromEnv()
		if err != nil {
			t.Fatalf("ConfigFromEnv() error = %v", err)
		}
		if cfg.Node >= 16 {
			t.Errorf("random node %d out of range", cfg.Node)
		}
	})

	t.Run("Malformed count", func(t *testing.T) {
		t.Setenv(EnvNodeCount, "many")
		if _, err := ConfigFromEnv(); !sortid.IsConfigError(err) {
			t.Errorf("ConfigFromEnv() error = %v, want ConfigError", err)
		}
	})

	t.Run("Count too large", func(t *testing.T) {
		t.Setenv(EnvNodeCount, "2000000")
		_, err := ConfigFromEnv()
		if !errors.Is(err, sortid.ErrInvalidBitLayout) {
			t.Errorf("ConfigFromEnv() error = %v, want ErrInvalidBitLayout", err)
		}
	})
}

func TestGenerator_Components(t *testing.T) {
	clock := sortid.NewManualClock(Epoch.Add(1000 * time.Millisecond))
	cfg := testConfig(clock)
	cfg.NodeBits = 10
	cfg.Node = 42

	gen, err := NewGenerator(cfg)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	a := gen.MustGenerate()
	b := gen.MustGenerate()

	if a.Timestamp() != 1000 || a.Node(10) != 42 || a.Counter(10) != 0 {
		t.Errorf("first id fields = %+v", a.Fields(10))
	}
	if b.Counter(10) != 1 || !a.Before(b) {
		t.Errorf("second id = %+v, want counter 1 after %v", b.Fields(10), a)
	}
	if !gen.Time(a).Equal(clock.Now()) {
		t.Errorf("Time() = %v, want %v", gen.Time(a), clock.Now())
	}
	if gen.Layout() != Layout(10) {
		t.Errorf("Layout() = %+v", gen.Layout())
	}
}

func TestGenerator_NodeFolding(t *testing.T) {
	cfg := testConfig(sortid.NewManualClock(Epoch.Add(time.Second)))
	cfg.NodeBits = 10
	cfg.Node = 1024 + 5

	gen, err := NewGenerator(cfg)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	if gen.Node() != 5 || gen.MustGenerate().Node(10) != 5 {
		t.Errorf("Node() = %d, want 5", gen.Node())
	}
}

func TestGenerator_CustomEpoch(t *testing.T) {
	epoch := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	cfg := testConfig(sortid.NewManualClock(epoch.Add(5 * time.Second)))
	cfg.Epoch = epoch

	gen, err := NewGenerator(cfg)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	id := gen.MustGenerate()
	if id.Timestamp() != 5000 {
		t.Errorf("Timestamp() = %d, want 5000", id.Timestamp())
	}
	if !gen.Time(id).Equal(epoch.Add(5 * time.Second)) {
		t.Errorf("Time() = %v", gen.Time(id))
	}
}

func TestGenerator_ClockBeforeEpoch(t *testing.T) {
	cfg := testConfig(sortid.NewManualClock(Epoch.Add(-time.Hour)))
	if _, err := NewGenerator(cfg); !sortid.IsConfigError(err) {
		t.Errorf("NewGenerator() error = %v, want ConfigError", err)
	}
}

func TestGenerator_CounterCarry(t *testing.T) {
	clock := sortid.NewManualClock(Epoch.Add(time.Second))
	cfg := testConfig(clock)
	cfg.NodeBits = 20

	gen, err := NewGenerator(cfg)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	// Four counter values per millisecond.
	var prev ID
	for i := 0; i < 10; i++ {
		id := gen.MustGenerate()
		if i > 0 && !prev.Before(id) {
			t.Fatalf("id %d not increasing: %v <= %v", i, id, prev)
		}
		prev = id
	}
	if prev.Timestamp() != 1002 || prev.Counter(20) != 1 {
		t.Errorf("last id = %+v, want time 1002 counter 1", prev.Fields(20))
	}
	if m := gen.Metrics(); m.CounterOverflow != 2 || m.Generated != 10 {
		t.Errorf("Metrics() = %+v", m)
	}
}

func TestGenerator_ClockRegression(t *testing.T) {
	clock := sortid.NewManualClock(Epoch.Add(time.Hour))
	var logs bytes.Buffer
	cfg := testConfig(clock)
	cfg.Logger = slog.New(slog.NewTextHandler(&logs, nil))

	gen, err := NewGenerator(cfg)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	first := gen.MustGenerate()

	clock.Advance(-time.Minute)
	second, err := gen.Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !first.Before(second) || second.Timestamp() != first.Timestamp() {
		t.Errorf("after regression: %v then %v", first, second)
	}
	if !strings.Contains(logs.String(), "clock moved backwards") {
		t.Errorf("expected a warning, got %q", logs.String())
	}

	cfg.StrictClock = true
	cfg.Logger = nil
	clock.Set(Epoch.Add(time.Hour))
	strict, err := NewGenerator(cfg)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	strict.MustGenerate()
	clock.Advance(-time.Minute)
	_, err = strict.Generate()
	if ce, ok := sortid.GetClockError(err); !ok || ce.Drift() != time.Minute {
		t.Errorf("Generate() error = %v, want ClockError with 1m drift", err)
	}
	if !errors.Is(err, sortid.ErrClockMovedBack) {
		t.Errorf("errors.Is(err, ErrClockMovedBack) = false")
	}
}

func TestGenerator_GenerateBatch(t *testing.T) {
	gen, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ids, err := gen.GenerateBatch(context.Background(), 5000)
	if err != nil {
		t.Fatalf("GenerateBatch() error = %v", err)
	}
	if len(ids) != 5000 {
		t.Fatalf("len = %d", len(ids))
	}
	for i := 1; i < len(ids); i++ {
		if !ids[i-1].Before(ids[i]) {
			t.Fatalf("batch not increasing at %d", i)
		}
	}

	next := gen.MustGenerate()
	if !ids[len(ids)-1].Before(next) {
		t.Error("id after batch is not greater than the batch")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := gen.GenerateBatch(ctx, 10); !errors.Is(err, context.Canceled) {
		t.Errorf("GenerateBatch(canceled) error = %v", err)
	}
}

func TestGenerator_Concurrent(t *testing.T) {
	gen, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const goroutines, perG = 16, 2000
	var (
		mu   sync.Mutex
		seen = make(map[ID]struct{}, goroutines*perG)
		wg   sync.WaitGroup
	)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]ID, perG)
			for i := range local {
				local[i] = gen.MustGenerate()
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range local {
				seen[id] = struct{}{}
			}
		}()
	}
	wg.Wait()

	if len(seen) != goroutines*perG {
		t.Errorf("unique ids = %d, want %d", len(seen), goroutines*perG)
	}
}

func TestFastGenerator(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NodeBits = 8
	cfg.Node = 200

	gen, err := NewFastGenerator(cfg)
	if err != nil {
		t.Fatalf("NewFastGenerator() error = %v", err)
	}

	seen := make(map[ID]struct{})
	for i := 0; i < 10000; i++ {
		id := gen.MustGenerate()
		if id.Node(8) != 200 {
			t.Fatalf("Node() = %d, want 200", id.Node(8))
		}
		seen[id] = struct{}{}
	}
	if len(seen) != 10000 {
		t.Errorf("unique ids = %d, want 10000", len(seen))
	}

	cfg.NodeBits = 30
	if _, err := NewFastGenerator(cfg); !sortid.IsConfigError(err) {
		t.Errorf("NewFastGenerator() error = %v, want ConfigError", err)
	}
}

func TestGenerator_ResetMetrics(t *testing.T) {
	gen, _ := New()
	gen.MustGenerate()
	if gen.Metrics().Generated != 1 {
		t.Errorf("Generated = %d", gen.Metrics().Generated)
	}
	gen.ResetMetrics()
	if gen.Core().Metrics().Generated != 0 {
		t.Error("ResetMetrics() did not reset")
	}
}

func BenchmarkGenerator_Generate(b *testing.B) {
	gen, _ := New()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = gen.Generate()
	}
}

func BenchmarkGenerator_GenerateParallel(b *testing.B) {
	gen, _ := New()
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = gen.Generate()
		}
	})
}

func BenchmarkFastGenerator_GenerateParallel(b *testing.B) {
	gen, _ := NewFastGenerator(DefaultConfig())
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = gen.Generate()
		}
	})
}
