package types

import "github.com/shopspring/decimal"

// OutputLine is one flattened fulfillment line produced by the transform.
// Bundle wrappers survive as zero-priced parent lines so downstream systems
// can suppress them; everything else is a physical good with a real price.
type OutputLine struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	SKU       string          `json:"sku,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ImageURL  string          `json:"image_url,omitempty"`
	GroupKey  string          `json:"group_key,omitempty"`
	IsParent  bool            `json:"is_parent,omitempty"`
}

// Total is the line's extended amount (unit price times quantity).
func (l OutputLine) Total() decimal.Decimal {
	qty := l.Quantity
	if qty < 1 {
		qty = 1
	}
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
}

// Equal reports element-wise equality, used by idempotence checks.
func (l OutputLine) Equal(other OutputLine) bool {
	return l.ID == other.ID &&
		l.Title == other.Title &&
		l.SKU == other.SKU &&
		l.Quantity == other.Quantity &&
		l.UnitPrice.Equal(other.UnitPrice) &&
		l.ImageURL == other.ImageURL &&
		l.GroupKey == other.GroupKey &&
		l.IsParent == other.IsParent
}
