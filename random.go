package sortid

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	mrand "math/rand/v2"
	"sync"
)

// RandomSource supplies random bytes on demand.
//
// Implementations must be safe for concurrent use: a Generator holds its own lock
// while drawing, but a FastGenerator draws without any lock, and several
// generators may share one source.
type RandomSource interface {
	Read(p []byte) (n int, err error)
}

type cryptoSource struct{}

func (cryptoSource) Read(p []byte) (int, error) {
	return io.ReadFull(rand.Reader, p)
}

// CryptoSource returns the operating system CSPRNG. This is the default source
// of every generator in this module.
func CryptoSource() RandomSource {
	return cryptoSource{}
}

// lockedSource serializes access to a non thread-safe stream.
type lockedSource struct {
	mu sync.Mutex
	r  io.Reader
}

func (s *lockedSource) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Read(p)
}

// NewSeededSource returns a deterministic ChaCha8 stream keyed by seed.
//
// Two sources with the same seed produce the same bytes, which makes generator
// output reproducible in tests and simulations. Not for production identifiers.
func NewSeededSource(seed uint64) RandomSource {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:8], seed)
	return &lockedSource{r: mrand.NewChaCha8(key)}
}

// fixedSource repeats a byte pattern forever.
type fixedSource struct {
	pattern []byte
}

func (s fixedSource) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = s.pattern[i%len(s.pattern)]
	}
	return len(p), nil
}

// NewFixedSource returns a source that fills every read with the repeating
// pattern b, starting from b[0] on each call. With no arguments it yields zeros.
func NewFixedSource(b ...byte) RandomSource {
	if len(b) == 0 {
		b = []byte{0}
	}
	pattern := make([]byte, len(b))
	copy(pattern, b)
	return fixedSource{pattern: pattern}
}

// ReadBits draws n random bits (0 <= n <= 128) from src, right-aligned.
func ReadBits(src RandomSource, n int) (Uint128, error) {
	if n <= 0 {
		return Uint128{}, nil
	}
	if n > 128 {
		return Uint128{}, fmt.Errorf("%w: cannot draw %d bits", ErrInvalidConfig, n)
	}
	var buf [16]byte
	size := (n + 7) / 8
	if _, err := io.ReadFull(src, buf[16-size:]); err != nil {
		return Uint128{}, fmt.Errorf("read random bits: %w", err)
	}
	return Uint128FromBytes(buf[:]).And(MaskBits(n)), nil
}
