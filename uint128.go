package sortid

import (
	"encoding/binary"
	"math/bits"
)

// Uint128 is an unsigned 128-bit integer used for the counter/random field of an
// identifier. The field is always right-aligned: a 22-bit counter lives in the low
// 22 bits of Lo, an 80-bit ULID entropy field spans all of Lo and the low 16 bits of Hi.
type Uint128 struct {
	Hi, Lo uint64
}

// U128 returns v as a Uint128.
func U128(v uint64) Uint128 {
	return Uint128{Lo: v}
}

// MaskBits returns a Uint128 with the low n bits set (0 <= n <= 128).
func MaskBits(n int) Uint128 {
	switch {
	case n <= 0:
		return Uint128{}
	case n < 64:
		return Uint128{Lo: 1<<uint(n) - 1}
	case n == 64:
		return Uint128{Lo: ^uint64(0)}
	case n < 128:
		return Uint128{Hi: 1<<uint(n-64) - 1, Lo: ^uint64(0)}
	default:
		return Uint128{Hi: ^uint64(0), Lo: ^uint64(0)}
	}
}

// IsZero reports whether u == 0.
func (u Uint128) IsZero() bool {
	return u.Hi == 0 && u.Lo == 0
}

// Cmp compares u and v as unsigned integers and returns -1, 0 or +1.
func (u Uint128) Cmp(v Uint128) int {
	switch {
	case u.Hi < v.Hi:
		return -1
	case u.Hi > v.Hi:
		return 1
	case u.Lo < v.Lo:
		return -1
	case u.Lo > v.Lo:
		return 1
	}
	return 0
}

// And returns u & v.
func (u Uint128) And(v Uint128) Uint128 {
	return Uint128{Hi: u.Hi & v.Hi, Lo: u.Lo & v.Lo}
}

// Or returns u | v.
func (u Uint128) Or(v Uint128) Uint128 {
	return Uint128{Hi: u.Hi | v.Hi, Lo: u.Lo | v.Lo}
}

// AddOne returns u+1 and the carry out of bit 127.
func (u Uint128) AddOne() (Uint128, bool) {
	lo, c := bits.Add64(u.Lo, 1, 0)
	hi, c := bits.Add64(u.Hi, 0, c)
	return Uint128{Hi: hi, Lo: lo}, c != 0
}

// SubOne returns u-1 and the borrow out of bit 127.
func (u Uint128) SubOne() (Uint128, bool) {
	lo, b := bits.Sub64(u.Lo, 1, 0)
	hi, b := bits.Sub64(u.Hi, 0, b)
	return Uint128{Hi: hi, Lo: lo}, b != 0
}

// Lsh returns u << n.
func (u Uint128) Lsh(n uint) Uint128 {
	switch {
	case n == 0:
		return u
	case n >= 128:
		return Uint128{}
	case n >= 64:
		return Uint128{Hi: u.Lo << (n - 64)}
	}
	return Uint128{Hi: u.Hi<<n | u.Lo>>(64-n), Lo: u.Lo << n}
}

// Rsh returns u >> n.
func (u Uint128) Rsh(n uint) Uint128 {
	switch {
	case n == 0:
		return u
	case n >= 128:
		return Uint128{}
	case n >= 64:
		return Uint128{Lo: u.Hi >> (n - 64)}
	}
	return Uint128{Hi: u.Hi >> n, Lo: u.Lo>>n | u.Hi<<(64-n)}
}

// PutBytes writes u big-endian into b, keeping the low len(b)*8 bits.
// len(b) must not exceed 16.
func (u Uint128) PutBytes(b []byte) {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[0:8], u.Hi)
	binary.BigEndian.PutUint64(buf[8:16], u.Lo)
	copy(b, buf[16-len(b):])
}

// Uint128FromBytes reads a big-endian unsigned integer of up to 16 bytes.
func Uint128FromBytes(b []byte) Uint128 {
	var buf [16]byte
	if len(b) > 16 {
		b = b[len(b)-16:]
	}
	copy(buf[16-len(b):], b)
	return Uint128{
		Hi: binary.BigEndian.Uint64(buf[0:8]),
		Lo: binary.BigEndian.Uint64(buf[8:16]),
	}
}

// IncrementBytes adds one to the big-endian integer b in place. It reports false,
// leaving b unchanged, when b is all ones.
func IncrementBytes(b []byte) bool {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != 0xFF {
			b[i]++
			for j := i + 1; j < len(b); j++ {
				b[j] = 0
			}
			return true
		}
	}
	return false
}

// DecrementBytes subtracts one from the big-endian integer b in place. It reports
// false, leaving b unchanged, when b is zero.
func DecrementBytes(b []byte) bool {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != 0 {
			b[i]--
			for j := i + 1; j < len(b); j++ {
				b[j] = 0xFF
			}
			return true
		}
	}
	return false
}
