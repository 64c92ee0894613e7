package bundle

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/shipfeedhq/shipfeed-backend/pkg/money"
	"github.com/shipfeedhq/shipfeed-backend/pkg/types"
)

// ParentTitleSuffix marks synthetic parent adjustment lines in the output.
const ParentTitleSuffix = " (PARENT)"

// Redistribute prices a non-deferred group into output lines: the parent
// becomes a zero-priced adjustment and its charge is spread across the
// components in proportion to quantity, exact to the cent. When any
// component still carries a net charge of its own the split is skipped and
// everything passes through at face value. Net, not gross: a component
// priced $10.00 with a $10.00 discount allocation was never actually
// charged and still takes its share of the parent's total.
func Redistribute(group Group) []types.OutputLine {
	if group.Parent == nil {
		return passThroughLines(group)
	}

	componentsPriced := false
	for _, li := range group.Components {
		if !isZeroed(li) {
			componentsPriced = true
			break
		}
	}

	out := make([]types.OutputLine, 0, len(group.Components)+1)
	out = append(out, parentLine(*group.Parent, group.Key))

	if componentsPriced {
		return append(out, passThroughLines(group)...)
	}

	parentTotal := lineCharge(*group.Parent)
	weights := make([]int, len(group.Components))
	for i, li := range group.Components {
		weights[i] = max(1, li.Quantity)
	}
	shares := money.SplitProportionally(parentTotal, weights)

	for i, li := range group.Components {
		qty := max(1, li.Quantity)
		// Unit price keeps sub-cent precision so unit*qty reproduces the
		// cent-exact share; rounding happens only at render time.
		out = append(out, types.OutputLine{
			ID:        strconv.FormatInt(li.ID, 10),
			Title:     li.Title,
			SKU:       li.SKU,
			Quantity:  qty,
			UnitPrice: shares[i].Div(decimal.NewFromInt(int64(qty))),
			GroupKey:  group.Key,
		})
	}
	return out
}

// parentLine converts a bundle parent into its zero-priced marker line.
func parentLine(li types.LineItem, groupKey string) types.OutputLine {
	return types.OutputLine{
		ID:        strconv.FormatInt(li.ID, 10),
		Title:     li.Title + ParentTitleSuffix,
		SKU:       li.SKU,
		Quantity:  max(1, li.Quantity),
		UnitPrice: decimal.Zero,
		GroupKey:  groupKey,
		IsParent:  true,
	}
}

func passThroughLines(group Group) []types.OutputLine {
	out := make([]types.OutputLine, 0, len(group.Components))
	for _, li := range group.Components {
		out = append(out, PassThrough(li, group.Key))
	}
	return out
}

// PassThrough converts an untransformed line item at face value.
func PassThrough(li types.LineItem, groupKey string) types.OutputLine {
	return types.OutputLine{
		ID:        strconv.FormatInt(li.ID, 10),
		Title:     li.Title,
		SKU:       li.SKU,
		Quantity:  max(1, li.Quantity),
		UnitPrice: money.ToMoney(li.Price),
		GroupKey:  groupKey,
	}
}
