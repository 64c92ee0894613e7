package money

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func amount(t *testing.T, raw string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(raw)
	if err != nil {
		t.Fatalf("bad amount %q: %v", raw, err)
	}
	return d
}

func TestToMoney(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   any
		want string
	}{
		{"string price", "25.00", "25"},
		{"string with spaces", " 10.5 ", "10.5"},
		{"rounding", "3.567", "3.57"},
		{"empty string", "", "0"},
		{"garbage", "free", "0"},
		{"nil", nil, "0"},
		{"float", 19.999, "20"},
		{"nan", math.NaN(), "0"},
		{"inf", math.Inf(1), "0"},
		{"int", 7, "7"},
		{"negative", "-4.20", "-4.2"},
	}

	for _, tc := range cases {
		got := ToMoney(tc.in)
		if !got.Equal(amount(t, tc.want)) {
			t.Fatalf("%s: ToMoney(%v) = %s, want %s", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestSplitProportionallyRemainder(t *testing.T) {
	t.Parallel()

	shares := SplitProportionally(amount(t, "10.00"), []int{1, 1, 1})
	want := []string{"3.33", "3.33", "3.34"}
	for i, w := range want {
		if shares[i].StringFixed(2) != w {
			t.Fatalf("share %d = %s, want %s", i, shares[i].StringFixed(2), w)
		}
	}
}

func TestSplitProportionallyWeighted(t *testing.T) {
	t.Parallel()

	shares := SplitProportionally(amount(t, "10.00"), []int{1, 2})
	if shares[0].StringFixed(2) != "3.33" {
		t.Fatalf("first share = %s, want 3.33", shares[0].StringFixed(2))
	}
	if shares[1].StringFixed(2) != "6.67" {
		t.Fatalf("second share = %s, want 6.67", shares[1].StringFixed(2))
	}
}

func TestSplitProportionallyConservation(t *testing.T) {
	t.Parallel()

	totals := []string{"0.01", "0.10", "1.00", "9.99", "10.00", "40.00", "59.99", "123.45", "1000.01"}
	weightSets := [][]int{{1}, {1, 1}, {1, 2}, {3, 1, 2}, {1, 1, 1, 1, 1}, {7, 13}, {2, 0, 3}}

	for _, total := range totals {
		for _, weights := range weightSets {
			shares := SplitProportionally(amount(t, total), weights)
			sum := decimal.Zero
			for _, s := range shares {
				sum = sum.Add(s)
			}
			if !sum.Equal(amount(t, total)) {
				t.Fatalf("split %s over %v drifted: sum %s", total, weights, sum)
			}
		}
	}
}

func TestSplitProportionallyDegenerate(t *testing.T) {
	t.Parallel()

	for _, shares := range [][]decimal.Decimal{
		SplitProportionally(amount(t, "0.00"), []int{1, 2, 3}),
		SplitProportionally(amount(t, "10.00"), []int{0, 0}),
		SplitProportionally(amount(t, "10.00"), nil),
	} {
		for i, s := range shares {
			if !s.IsZero() {
				t.Fatalf("degenerate share %d = %s, want 0.00", i, s)
			}
		}
	}
}

func TestSplitProportionallyZeroWeightLast(t *testing.T) {
	t.Parallel()

	shares := SplitProportionally(amount(t, "10.00"), []int{1, 1, 0})
	if shares[0].StringFixed(2) != "5.00" || shares[1].StringFixed(2) != "5.00" {
		t.Fatalf("positive shares wrong: %s %s", shares[0], shares[1])
	}
	if !shares[2].IsZero() {
		t.Fatalf("zero-weight bucket got %s", shares[2])
	}
}

func TestCentsRoundTrip(t *testing.T) {
	t.Parallel()

	if got := Cents(amount(t, "12.34")); got != 1234 {
		t.Fatalf("Cents = %d, want 1234", got)
	}
	if got := FromCents(1234); got.StringFixed(2) != "12.34" {
		t.Fatalf("FromCents = %s, want 12.34", got)
	}
}
