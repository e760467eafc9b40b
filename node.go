package sortid

import (
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// NodeFromString turns a configured node value into a node id.
//
// Decimal numbers are used as-is; anything else (a hostname, a pod name) is
// hashed with xxhash64 so every distinct name maps to a stable id. The result
// is folded into the layout's node field by the generator.
func NodeFromString(s string) uint64 {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return n
	}
	return xxhash.Sum64String(s)
}

// NodeFromEnv reads a node id from the environment variable key.
// It returns false when the variable is unset or empty.
func NodeFromEnv(key string) (uint64, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return 0, false
	}
	return NodeFromString(v), true
}

// NodeCountFromEnv reads a positive node count from the environment variable key.
// It returns false when the variable is unset; a malformed value is a ConfigError.
func NodeCountFromEnv(key string) (int, bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 0, false, NewConfigError(key, v, "must be a positive integer", ">= 1", err)
	}
	return n, true, nil
}

// RandomNode draws a node id in [0, 2^nodeBits) from src.
func RandomNode(src RandomSource, nodeBits int) (uint64, error) {
	if nodeBits <= 0 {
		return 0, nil
	}
	if nodeBits > MaxNodeBits {
		return 0, NewConfigError("NodeBits", strconv.Itoa(nodeBits), "out of valid range", "0..20", ErrInvalidBitLayout)
	}
	v, err := ReadBits(src, nodeBits)
	if err != nil {
		return 0, err
	}
	return v.Lo, nil
}
