package ulid

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/fogfish/it/v2"
	"github.com/google/uuid"
	oklog "github.com/oklog/ulid/v2"
	"github.com/sxyafiq/sortid"
)

func TestID_KnownValues(t *testing.T) {
	tests := []struct {
		name string
		id   ID
		want string
	}{
		{"Nil", Nil, "00000000000000000000000000"},
		{"Max", Max, "7ZZZZZZZZZZZZZZZZZZZZZZZZZ"},
		{"One millisecond", FromFields(sortid.Fields{Time: 1}), "00000000010000000000000000"},
		{"Entropy one", FromFields(sortid.Fields{Counter: sortid.U128(1)}), "00000000000000000000000001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.id.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if got := MustParse(tt.want); got != tt.id {
				t.Errorf("Parse(%q) = %x, want %x", tt.want, got, tt.id)
			}
		})
	}
}

func TestID_MatchesOklog(t *testing.T) {
	entropy := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xAB, 0xCD, 0xEF, 0xFE, 0xDC}
	ms := uint64(1700000000123)

	ref := oklog.MustNew(ms, bytes.NewReader(entropy))
	ours := FromFields(sortid.Fields{Time: ms, Counter: sortid.Uint128FromBytes(entropy)})

	it.Then(t).Should(
		it.Equal([Size]byte(ours), [Size]byte(ref)),
		it.Equal(ours.String(), ref.String()),
		it.Equal(ours.Timestamp(), ref.Time()),
		it.Equal(ours.Time().UnixMilli(), int64(ms)),
		it.True(bytes.Equal(ours.Bytes(), ref.Bytes())),
	)

	entropyOut := ours.Entropy()
	it.Then(t).Should(
		it.True(bytes.Equal(entropyOut[:], ref.Entropy())),
	)

	parsed, err := oklog.ParseStrict(ours.Lower())
	it.Then(t).Should(
		it.True(err == nil),
		it.Equal([Size]byte(parsed), [Size]byte(ours)),
	)

	back, err := Parse(ref.String())
	it.Then(t).Should(
		it.True(err == nil),
		it.Equal(back, ours),
	)
}

func TestID_OklogOrdering(t *testing.T) {
	entropy := oklog.Monotonic(sortid.CryptoSource(), 0)
	ms := oklog.Now()

	var prev ID
	for i := 0; i < 1000; i++ {
		ref := oklog.MustNew(ms+uint64(i/100), entropy)
		id := ID(ref)
		if i > 0 && id.Compare(prev) != ref.Compare(oklog.ULID(prev)) {
			t.Fatalf("Compare disagrees with oklog at %d", i)
		}
		if i > 0 && !prev.Before(id) {
			t.Fatalf("oklog monotonic ids not increasing at %d", i)
		}
		prev = id
	}
}

func TestID_UUID(t *testing.T) {
	id := MustParse("01HF8Z2K7Q5V3N4M6P8R9S0T1W")
	u := id.UUID()

	it.Then(t).Should(
		it.Equal([Size]byte(u), [Size]byte(id)),
		it.Equal(FromUUID(u), id),
	)

	parsed, err := uuid.Parse(u.String())
	it.Then(t).Should(
		it.True(err == nil),
		it.Equal(FromUUID(parsed), id),
	)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"Empty", "", sortid.ErrInvalidLength},
		{"Too short", "01HF8Z2K7Q5V3N4M6P8R9S0T1", sortid.ErrInvalidLength},
		{"Invalid symbol", "01HF8Z2K7Q5V3N4M6P8R9S0TU1", sortid.ErrInvalidCharacter},
		{"Leading symbol too large", "80000000000000000000000000", sortid.ErrOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			if Valid(tt.input) {
				t.Errorf("Valid(%q) = true", tt.input)
			}
		})
	}

	if _, err := oklog.ParseStrict("80000000000000000000000000"); err == nil {
		t.Error("oklog accepts an overflowing ULID; expected both to reject")
	}
}

func TestID_FromBytes(t *testing.T) {
	id := MustParse("01HF8Z2K7Q5V3N4M6P8R9S0T1W")
	back, err := FromBytes(id.Bytes())
	if err != nil || back != id {
		t.Errorf("FromBytes() = %v, %v", back, err)
	}
	if _, err := FromBytes(id.Bytes()[:15]); !errors.Is(err, sortid.ErrInvalidLength) {
		t.Errorf("FromBytes(short) error = %v", err)
	}
}

func TestID_Components(t *testing.T) {
	when := time.Date(2024, 3, 15, 12, 30, 0, 500_000_000, time.UTC)
	f := sortid.Fields{Time: uint64(when.UnixMilli()), Counter: sortid.MaskBits(EntropyBits)}
	id := FromFields(f)

	it.Then(t).Should(
		it.True(id.Time().Equal(when)),
		it.Equal(id.Fields(), f),
		it.Equal(id.Entropy(), [10]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}),
	)
}

func TestID_IncrementDecrement(t *testing.T) {
	id := FromFields(sortid.Fields{Time: 5, Counter: sortid.MaskBits(EntropyBits)})
	next, err := id.Increment()
	it.Then(t).Should(
		it.True(err == nil),
		it.Equal(next.Timestamp(), 6),
		it.True(next.Fields().Counter.IsZero()),
		it.True(id.Before(next)),
	)

	prev, err := next.Decrement()
	it.Then(t).Should(
		it.True(err == nil),
		it.Equal(prev, id),
	)

	_, err = Max.Increment()
	it.Then(t).Should(it.True(errors.Is(err, sortid.ErrOverflow)))
	_, err = Nil.Decrement()
	it.Then(t).Should(it.True(errors.Is(err, sortid.ErrUnderflow)))
}

func TestID_Text(t *testing.T) {
	id := MustParse("01HF8Z2K7Q5V3N4M6P8R9S0T1W")
	text, _ := id.MarshalText()

	var back ID
	if err := back.UnmarshalText(bytes.ToLower(text)); err != nil || back != id {
		t.Errorf("UnmarshalText() = %v, %v", back, err)
	}
	if id.Lower() != "01hf8z2k7q5v3n4m6p8r9s0t1w" {
		t.Errorf("Lower() = %q", id.Lower())
	}
	if !Nil.IsZero() || id.IsZero() {
		t.Error("IsZero() mismatch")
	}
}

func BenchmarkID_String(b *testing.B) {
	id := MustParse("01HF8Z2K7Q5V3N4M6P8R9S0T1W")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = id.String()
	}
}

func BenchmarkOklog_String(b *testing.B) {
	id := oklog.MustParse("01HF8Z2K7Q5V3N4M6P8R9S0T1W")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = id.String()
	}
}
