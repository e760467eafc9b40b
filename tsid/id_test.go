package tsid

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/fogfish/it/v2"
	"github.com/sxyafiq/sortid"
)

func TestID_KnownValues(t *testing.T) {
	tests := []struct {
		name string
		id   ID
		want string
	}{
		{"Nil", Nil, "0000000000000"},
		{"Max", Max, "FZZZZZZZZZZZZ"},
		{"One time unit", ID(1 << RandomBits), "0000000040000"},
		{"Counter one", ID(1), "0000000000001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.id.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			parsed, err := Parse(tt.want)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.want, err)
			}
			if parsed != tt.id {
				t.Errorf("Parse(%q) = %d, want %d", tt.want, parsed, tt.id)
			}
		})
	}
}

func TestID_Fields(t *testing.T) {
	f := sortid.Fields{Time: 123456789, Node: 42, Counter: sortid.U128(4095)}
	id := FromFields(f, 10)

	it.Then(t).Should(
		it.Equal(id.Timestamp(), 123456789),
		it.Equal(id.Node(10), 42),
		it.Equal(id.Counter(10), 4095),
		it.Equal(id.Random(), 42<<12|4095),
		it.Equal(id.Fields(10), f),
		it.True(id.Time().Equal(Epoch.Add(123456789*time.Millisecond))),
	)

	custom := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	it.Then(t).Should(
		it.True(id.TimeSince(custom).Equal(custom.Add(123456789 * time.Millisecond))),
	)
}

func TestID_ParseCaseAndAliases(t *testing.T) {
	id := FromFields(sortid.Fields{Time: 987654321, Counter: sortid.U128(0x1ABCDE)}, 0)
	s := id.String()

	lower, err := Parse(id.Lower())
	if err != nil {
		t.Fatalf("Parse(lower) error = %v", err)
	}
	if lower != id {
		t.Errorf("Parse(%q) = %v, want %v", id.Lower(), lower, id)
	}

	for _, alias := range []string{"OOOOOOOOOOOOO", "ooooooooooooo"} {
		if got := MustParse(alias); got != Nil {
			t.Errorf("Parse(%q) = %v, want Nil", alias, got)
		}
	}
	if MustParse("000000000000I") != 1 || MustParse("000000000000l") != 1 {
		t.Error("I and L should decode as 1")
	}
	if !Valid(s) || Valid(s[1:]) {
		t.Errorf("Valid(%q) mismatch", s)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"Empty", "", sortid.ErrInvalidLength},
		{"Too short", "0AWQ4J7ZR1FG", sortid.ErrInvalidLength},
		{"Too long", "0AWQ4J7ZR1FGEE", sortid.ErrInvalidLength},
		{"Invalid symbol U", "0AWQ4J7ZR1FGU", sortid.ErrInvalidCharacter},
		{"Invalid symbol punctuation", "0AWQ4J7-R1FGE", sortid.ErrInvalidCharacter},
		{"Leading symbol too large", "G000000000000", sortid.ErrOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			if !errors.Is(err, sortid.ErrInvalidFormat) {
				t.Errorf("Parse(%q) error = %v, want ErrInvalidFormat", tt.input, err)
			}
		})
	}
}

func TestMustParse_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse() should panic on invalid input")
		}
	}()
	MustParse("not-an-id")
}

func TestID_Bytes(t *testing.T) {
	id := ID(0x0102030405060708)
	b := id.Bytes()

	it.Then(t).Should(
		it.Equal(b, [Size]byte{1, 2, 3, 4, 5, 6, 7, 8}),
	)

	back, err := FromBytes(b[:])
	it.Then(t).Should(
		it.True(err == nil),
		it.Equal(back, id),
	)

	_, err = FromBytes(b[:7])
	it.Then(t).Should(
		it.True(errors.Is(err, sortid.ErrInvalidLength)),
	)
}

func TestID_Int64(t *testing.T) {
	id := FromFields(sortid.Fields{Time: 1 << 40}, 0)
	it.Then(t).Should(
		it.True(id.Int64() > 0),
		it.Equal(FromInt64(id.Int64()), id),
		it.Equal(FromInt64(-1), Max),
		it.Equal(id.Uint64(), uint64(1)<<62),
	)
}

func TestID_Ordering(t *testing.T) {
	ids := []ID{
		FromFields(sortid.Fields{Time: 1, Counter: sortid.U128(5)}, 0),
		FromFields(sortid.Fields{Time: 1, Counter: sortid.U128(6)}, 0),
		FromFields(sortid.Fields{Time: 2, Counter: sortid.U128(0)}, 0),
		FromFields(sortid.Fields{Time: 1 << 41, Counter: sortid.U128(0)}, 0),
		Max,
	}

	for i := 1; i < len(ids); i++ {
		a, b := ids[i-1], ids[i]
		if a.Compare(b) != -1 || b.Compare(a) != 1 || a.Compare(a) != 0 {
			t.Errorf("Compare(%v, %v) inconsistent", a, b)
		}
		if !a.Before(b) || !b.After(a) || a.Equal(b) {
			t.Errorf("Before/After/Equal inconsistent for %v, %v", a, b)
		}
		if a.String() >= b.String() {
			t.Errorf("string order differs: %s >= %s", a, b)
		}
	}

	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[len(ids)-1-i] = id.String()
	}
	sort.Strings(strs)
	for i, s := range strs {
		if s != ids[i].String() {
			t.Errorf("sorted[%d] = %s, want %s", i, s, ids[i])
		}
	}
}

func TestID_IncrementDecrement(t *testing.T) {
	carry := FromFields(sortid.Fields{Time: 7, Counter: sortid.MaskBits(RandomBits)}, 0)
	next, err := carry.Increment()
	it.Then(t).Should(
		it.True(err == nil),
		it.Equal(next.Timestamp(), 8),
		it.Equal(next.Random(), 0),
	)

	prev, err := next.Decrement()
	it.Then(t).Should(
		it.True(err == nil),
		it.Equal(prev, carry),
	)

	_, err = Max.Increment()
	it.Then(t).Should(it.True(errors.Is(err, sortid.ErrOverflow)))

	_, err = Nil.Decrement()
	it.Then(t).Should(it.True(errors.Is(err, sortid.ErrUnderflow)))
}

func TestID_IsZero(t *testing.T) {
	it.Then(t).Should(
		it.True(Nil.IsZero()),
	).ShouldNot(
		it.True(ID(1).IsZero()),
	)
}

func TestID_Text(t *testing.T) {
	id := MustParse("0AWQ4J7ZR1FGE")
	text, err := id.MarshalText()
	if err != nil || string(text) != "0AWQ4J7ZR1FGE" {
		t.Fatalf("MarshalText() = %s, %v", text, err)
	}

	var got ID
	if err := got.UnmarshalText([]byte("0awq4j7zr1fge")); err != nil || got != id {
		t.Errorf("UnmarshalText() = %v, %v; want %v", got, err, id)
	}
	if err := got.UnmarshalText([]byte("bad")); !sortid.IsFormatError(err) {
		t.Errorf("UnmarshalText(bad) error = %v, want FormatError", err)
	}
}

func TestID_Binary(t *testing.T) {
	id := ID(0xDEADBEEF)
	data, _ := id.MarshalBinary()

	var back ID
	if err := back.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary() error = %v", err)
	}
	if back != id {
		t.Errorf("UnmarshalBinary() = %v, want %v", back, id)
	}
	if err := back.UnmarshalBinary(data[:3]); !errors.Is(err, sortid.ErrInvalidLength) {
		t.Errorf("UnmarshalBinary(short) error = %v", err)
	}
}

func BenchmarkID_String(b *testing.B) {
	id := MustParse("0AWQ4J7ZR1FGE")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = id.String()
	}
}

func BenchmarkParse(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = Parse("0AWQ4J7ZR1FGE")
	}
}
