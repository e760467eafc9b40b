// Package sortid - encoding.go provides the fixed-length string codecs.
//
// # Design
//
// A Codec turns a fixed-width big-endian integer into a fixed-length string over an
// Alphabet and back. Because every encoding has the same length and every alphabet
// lists its symbols in ascending byte order, comparing two encoded strings byte by byte
// gives the same answer as comparing the integers.
//
// # Supported Alphabets
//
//   - Crockford32: 5 bits/char, digits + uppercase minus I, L, O, U; case-insensitive,
//     O decodes as 0, I and L decode as 1
//   - Base62: 0-9, A-Z, a-z; case-sensitive
//
// Power-of-two alphabets are encoded with bit groups, most significant group first.
// When the width is not a multiple of the group size, the first symbol carries pad bits
// that must decode to zero. Other radices use fixed-length long division and reject any
// decoded value wider than the codec.
//
// # Thread Safety
//
// Alphabets and codecs are immutable after construction and safe for concurrent use.

package sortid

import (
	"fmt"
	"math/bits"
	"strings"
)

// Alphabet symbol sets.
const (
	// Crockford32Symbols is Douglas Crockford's Base32 alphabet.
	Crockford32Symbols = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

	// Base62Symbols is the ASCII-ordered alphanumeric alphabet.
	Base62Symbols = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// invalidSymbol marks bytes that are not part of an alphabet.
const invalidSymbol = 0xFF

// Predefined alphabets, built once at package initialization.
var (
	// Crockford32 folds lower case onto upper case and the ambiguous O, I, L onto 0 and 1.
	Crockford32 = MustAlphabet(Crockford32Symbols,
		WithCaseFolding(),
		WithAliases(map[byte]byte{'O': '0', 'I': '1', 'L': '1'}),
	)

	// Base62 is case-sensitive; it has no room for folding.
	Base62 = MustAlphabet(Base62Symbols)
)

// Alphabet maps symbol values to characters and back.
type Alphabet struct {
	upper    string
	lower    string
	decode   [256]byte
	foldCase bool
}

// AlphabetOption configures an Alphabet.
type AlphabetOption func(*alphabetOptions)

type alphabetOptions struct {
	foldCase bool
	aliases  map[byte]byte
}

// WithCaseFolding makes decoding case-insensitive and allows lower-case encoding.
// The alphabet must not contain both cases of a letter.
func WithCaseFolding() AlphabetOption {
	return func(o *alphabetOptions) {
		o.foldCase = true
	}
}

// WithAliases decodes each key as if it were the mapped symbol.
func WithAliases(aliases map[byte]byte) AlphabetOption {
	return func(o *alphabetOptions) {
		o.aliases = aliases
	}
}

// NewAlphabet builds an alphabet from symbols listed in strictly ascending byte order.
func NewAlphabet(symbols string, opts ...AlphabetOption) (*Alphabet, error) {
	var o alphabetOptions
	for _, opt := range opts {
		opt(&o)
	}

	if len(symbols) < 2 || len(symbols) > 255 {
		return nil, NewConfigError("Alphabet", symbols, "wrong number of symbols", "2..255", nil)
	}

	a := &Alphabet{upper: symbols, foldCase: o.foldCase}
	for i := range a.decode {
		a.decode[i] = invalidSymbol
	}
	for i := 0; i < len(symbols); i++ {
		c := symbols[i]
		if i > 0 && c <= symbols[i-1] {
			return nil, NewConfigError("Alphabet", symbols, "symbols not in ascending order",
				"each symbol must sort after the previous one", nil)
		}
		a.decode[c] = byte(i)
	}

	if o.foldCase {
		a.upper = strings.ToUpper(symbols)
		a.lower = strings.ToLower(symbols)
		if a.upper != symbols {
			return nil, NewConfigError("Alphabet", symbols, "case folding needs an upper-case alphabet",
				"no lower-case letters", nil)
		}
		for i := 1; i < len(a.lower); i++ {
			if a.lower[i] <= a.lower[i-1] {
				return nil, NewConfigError("Alphabet", symbols, "lower-case symbols not in ascending order",
					"lower-case variant must sort like the upper-case one", nil)
			}
		}
		for i := 0; i < len(a.lower); i++ {
			a.decode[a.lower[i]] = byte(i)
		}
	}

	for alias, target := range o.aliases {
		v := a.decode[target]
		if v == invalidSymbol {
			return nil, NewConfigError("Alphabet", string(alias), "alias target is not a symbol",
				fmt.Sprintf("target %q must be in %q", target, symbols), nil)
		}
		if strings.IndexByte(symbols, alias) >= 0 {
			return nil, NewConfigError("Alphabet", string(alias), "alias shadows a symbol",
				"aliases must not be symbols", nil)
		}
		a.decode[alias] = v
		if o.foldCase {
			a.decode[strings.ToLower(string(alias))[0]] = v
		}
	}
	return a, nil
}

// MustAlphabet is like NewAlphabet but panics on error.
func MustAlphabet(symbols string, opts ...AlphabetOption) *Alphabet {
	a, err := NewAlphabet(symbols, opts...)
	if err != nil {
		panic(err)
	}
	return a
}

// Radix returns the number of symbols.
func (a *Alphabet) Radix() int {
	return len(a.upper)
}

// Symbols returns the canonical (upper-case) symbol string.
func (a *Alphabet) Symbols() string {
	return a.upper
}

// Value returns the symbol value of c and whether c belongs to the alphabet.
func (a *Alphabet) Value(c byte) (byte, bool) {
	v := a.decode[c]
	return v, v != invalidSymbol
}

// FoldsCase reports whether the alphabet decodes case-insensitively.
func (a *Alphabet) FoldsCase() bool {
	return a.foldCase
}

// Codec encodes integers of a fixed bit width as fixed-length strings.
type Codec struct {
	alphabet *Alphabet
	symbols  string
	bits     int
	size     int
	length   int
	group    int // bits per symbol for power-of-two radices, else 0
	pad      int // leading zero bits carried by the first symbol
}

// NewCodec returns a codec for bits-wide integers (a multiple of 8).
func NewCodec(a *Alphabet, bits int) (*Codec, error) {
	if a == nil {
		return nil, NewConfigError("Alphabet", "nil", "alphabet required", "non-nil", nil)
	}
	if bits <= 0 || bits%8 != 0 || bits > MaxTotalBits {
		return nil, NewConfigError("Bits", fmt.Sprint(bits), "must be a positive multiple of 8",
			fmt.Sprintf("8..%d", MaxTotalBits), nil)
	}

	c := &Codec{
		alphabet: a,
		symbols:  a.upper,
		bits:     bits,
		size:     bits / 8,
	}
	if r := a.Radix(); r&(r-1) == 0 {
		c.group = bitsLen(r) - 1
		c.length = (bits + c.group - 1) / c.group
		c.pad = c.length*c.group - bits
	} else {
		c.length = digitsNeeded(c.size, r)
	}
	return c, nil
}

// MustCodec is like NewCodec but panics on error.
func MustCodec(a *Alphabet, bits int) *Codec {
	c, err := NewCodec(a, bits)
	if err != nil {
		panic(err)
	}
	return c
}

func bitsLen(n int) int {
	return bits.Len(uint(n))
}

// digitsNeeded counts the radix-r digits of the largest size-byte integer.
func digitsNeeded(size, r int) int {
	num := make([]byte, size)
	for i := range num {
		num[i] = 0xFF
	}
	n := 0
	for !allZero(num) {
		divmod(num, r)
		n++
	}
	return n
}

func allZero(b []byte) bool {
	for _, x := range b {
		if x != 0 {
			return false
		}
	}
	return true
}

// divmod divides the big-endian integer num by r in place and returns the remainder.
func divmod(num []byte, r int) int {
	rem := 0
	for j := range num {
		cur := rem<<8 | int(num[j])
		num[j] = byte(cur / r)
		rem = cur % r
	}
	return rem
}

// Lower returns a codec emitting lower-case symbols. For alphabets without case
// folding it returns c unchanged.
func (c *Codec) Lower() *Codec {
	if !c.alphabet.foldCase {
		return c
	}
	lc := *c
	lc.symbols = c.alphabet.lower
	return &lc
}

// Upper returns a codec emitting the canonical upper-case symbols.
func (c *Codec) Upper() *Codec {
	uc := *c
	uc.symbols = c.alphabet.upper
	return &uc
}

// Alphabet returns the codec alphabet.
func (c *Codec) Alphabet() *Alphabet {
	return c.alphabet
}

// EncodedLen returns the fixed string length.
func (c *Codec) EncodedLen() int {
	return c.length
}

// DecodedLen returns the fixed byte length.
func (c *Codec) DecodedLen() int {
	return c.size
}

// Bits returns the integer width.
func (c *Codec) Bits() int {
	return c.bits
}

// Encode writes EncodedLen() symbols for the big-endian integer src into dst.
// src is left-padded with zeros when short; when long, only its first DecodedLen()
// bytes are used.
func (c *Codec) Encode(dst, src []byte) {
	var buf [MaxTotalBits / 8]byte
	num := buf[:c.size]
	if len(src) >= c.size {
		copy(num, src[:c.size])
	} else {
		copy(num[c.size-len(src):], src)
	}

	if c.group > 0 {
		mask := uint(1)<<uint(c.group) - 1
		var acc uint
		n := c.pad
		j := 0
		for _, b := range num {
			acc = acc<<8 | uint(b)
			n += 8
			for n >= c.group {
				n -= c.group
				dst[j] = c.symbols[(acc>>uint(n))&mask]
				j++
			}
		}
		return
	}

	r := c.alphabet.Radix()
	for i := c.length - 1; i >= 0; i-- {
		dst[i] = c.symbols[divmod(num, r)]
	}
}

// EncodeToString returns the encoding of src.
func (c *Codec) EncodeToString(src []byte) string {
	var buf [2 * MaxTotalBits]byte
	dst := buf[:c.length]
	c.Encode(dst, src)
	return string(dst)
}

// Decode parses src into dst (DecodedLen() bytes). On error dst is left untouched.
func (c *Codec) Decode(dst []byte, src string) error {
	if len(src) != c.length {
		return NewFormatError(src, -1, fmt.Errorf("%w: got %d symbols, want %d", ErrInvalidLength, len(src), c.length))
	}
	if len(dst) < c.size {
		return NewFormatError(src, -1, fmt.Errorf("%w: destination holds %d bytes, want %d", ErrInvalidLength, len(dst), c.size))
	}

	var buf [MaxTotalBits / 8]byte
	num := buf[:c.size]

	if c.group > 0 {
		var acc uint
		n := 0
		j := 0
		for i := 0; i < len(src); i++ {
			v, ok := c.alphabet.Value(src[i])
			if !ok {
				return NewFormatError(src, i, fmt.Errorf("%w %q", ErrInvalidCharacter, src[i]))
			}
			acc = acc<<uint(c.group) | uint(v)
			n += c.group
			if i == 0 && c.pad > 0 {
				if v>>uint(c.group-c.pad) != 0 {
					return NewFormatError(src, 0, fmt.Errorf("%w: leading symbol %q exceeds %d bits", ErrOverflow, src[0], c.bits))
				}
				n -= c.pad
				acc &= 1<<uint(n) - 1
			}
			for n >= 8 {
				n -= 8
				num[j] = byte(acc >> uint(n))
				j++
			}
		}
	} else {
		r := c.alphabet.Radix()
		for i := 0; i < len(src); i++ {
			v, ok := c.alphabet.Value(src[i])
			if !ok {
				return NewFormatError(src, i, fmt.Errorf("%w %q", ErrInvalidCharacter, src[i]))
			}
			carry := int(v)
			for j := len(num) - 1; j >= 0; j-- {
				cur := int(num[j])*r + carry
				num[j] = byte(cur)
				carry = cur >> 8
			}
			if carry != 0 {
				return NewFormatError(src, i, fmt.Errorf("%w: value exceeds %d bits", ErrOverflow, c.bits))
			}
		}
	}

	copy(dst, num)
	return nil
}

// DecodeString returns the bytes encoded by s.
func (c *Codec) DecodeString(s string) ([]byte, error) {
	dst := make([]byte, c.size)
	if err := c.Decode(dst, s); err != nil {
		return nil, err
	}
	return dst, nil
}

// Valid reports whether s decodes without error.
func (c *Codec) Valid(s string) bool {
	var buf [MaxTotalBits / 8]byte
	return c.Decode(buf[:c.size], s) == nil
}
