package money

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ToMoney coerces a numeric-like value into a two-decimal amount. Unparsable,
// infinite or NaN inputs collapse to zero instead of returning an error:
// webhook payloads carry prices as strings and a bad one must never fail a
// whole order.
func ToMoney(raw any) decimal.Decimal {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return v.Round(2)
	case string:
		return parseMoneyString(v)
	case json.Number:
		return parseMoneyString(v.String())
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(v).Round(2)
	case float32:
		return ToMoney(float64(v))
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	default:
		return decimal.Zero
	}
}

func parseMoneyString(raw string) decimal.Decimal {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero
	}
	return d.Round(2)
}

// Cents returns the amount as integer cents.
func Cents(amount decimal.Decimal) int64 {
	return amount.Round(2).Mul(decimal.NewFromInt(100)).IntPart()
}

// FromCents builds a two-decimal amount from integer cents.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// SplitProportionally distributes total across buckets proportional to each
// weight, working in integer cents so the shares always sum back to the
// rounded total. The accumulated rounding error lands in the last bucket.
// Non-positive weights contribute nothing; if the total is zero or every
// weight is zero, every share is 0.00.
func SplitProportionally(total decimal.Decimal, weights []int) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(weights))
	for i := range shares {
		shares[i] = decimal.New(0, -2)
	}
	if len(weights) == 0 {
		return shares
	}

	totalCents := Cents(total)
	var weightSum int64
	for _, w := range weights {
		if w > 0 {
			weightSum += int64(w)
		}
	}
	if totalCents == 0 || weightSum == 0 {
		return shares
	}

	lastPositive := -1
	for i, w := range weights {
		if w > 0 {
			lastPositive = i
		}
	}

	var allocated int64
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if i == lastPositive {
			shares[i] = FromCents(totalCents - allocated)
			break
		}
		cents := totalCents * int64(w) / weightSum
		shares[i] = FromCents(cents)
		allocated += cents
	}
	return shares
}
