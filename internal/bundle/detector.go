package bundle

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shipfeedhq/shipfeed-backend/pkg/money"
	"github.com/shipfeedhq/shipfeed-backend/pkg/types"
)

// ResolutionSource records which signal produced a bundle group.
type ResolutionSource string

const (
	SourceInlineFlag     ResolutionSource = "inline-flag"
	SourceZeroedDiscount ResolutionSource = "zeroed-discount"
	SourceTagHeuristic   ResolutionSource = "tag-heuristic"
	SourceExternalRecipe ResolutionSource = "external-recipe"
)

// Group is one detected bundle within an order. Deferred groups carry no
// inline component data and need external recipe resolution before they can
// be priced.
type Group struct {
	Key        string
	Parent     *types.LineItem
	Components []types.LineItem
	Source     ResolutionSource
	Deferred   bool
}

// discountEpsilon bounds the float noise tolerated when deciding whether a
// line was discounted down to zero.
var discountEpsilon = decimal.New(1, -2)

// bundleTagKeywords are order-tag markers left by known bundle apps,
// matched case-insensitively as substrings.
var bundleTagKeywords = []string{
	"simple bundles",
	"bundle",
	"skio",
	"aftersell",
	"upcart",
}

// bundleTitleKeywords mark titles/SKUs that textually suggest a multi-item
// product, used only together with a selling-plan reference.
var bundleTitleKeywords = []string{
	"bundle",
	"pack",
	"kit",
}

// Strategy is one detection rule. Strategies are evaluated in a fixed
// priority order and the first one that yields any group wins for the whole
// order; rules are never combined within one run, which also guarantees a
// line belongs to at most one group.
type Strategy interface {
	Kind() string
	Match(order types.Order) []Group
}

var strategies = []Strategy{
	groupKeyStrategy{},
	zeroedPriceStrategy{},
	tagHeuristicStrategy{},
	sellingPlanStrategy{},
}

// Detect classifies an order's line items into bundle groups. An empty result
// means every line is a plain item.
func Detect(order types.Order) []Group {
	for _, strategy := range strategies {
		if groups := strategy.Match(order); len(groups) > 0 {
			return groups
		}
	}
	return nil
}

// groupKeyStrategy partitions lines by a shared bundle-key property. Within a
// group of two or more, parent-flagged lines become the parent and the rest
// components. Singleton keys are not bundles.
type groupKeyStrategy struct{}

func (groupKeyStrategy) Kind() string { return "group-key" }

func (groupKeyStrategy) Match(order types.Order) []Group {
	type partition struct {
		parent     *types.LineItem
		components []types.LineItem
		size       int
	}
	byKey := make(map[string]*partition)
	var keyOrder []string

	for i := range order.LineItems {
		li := order.LineItems[i]
		props := PropsOf(li)
		key := props.GroupKey()
		if key == "" {
			continue
		}
		part, ok := byKey[key]
		if !ok {
			part = &partition{}
			byKey[key] = part
			keyOrder = append(keyOrder, key)
		}
		part.size++
		if props.ParentFlag() && part.parent == nil {
			parent := li
			part.parent = &parent
			continue
		}
		part.components = append(part.components, li)
	}

	var groups []Group
	for _, key := range keyOrder {
		part := byKey[key]
		if part.size < 2 || len(part.components) == 0 {
			continue
		}
		groups = append(groups, Group{
			Key:        key,
			Parent:     part.parent,
			Components: part.components,
			Source:     SourceInlineFlag,
		})
	}
	return groups
}

// zeroedPriceStrategy catches the "charge the parent, zero the components"
// convention: lines whose discounts cancel their whole charge become
// components of the single remaining charged line. With several charged lines
// the signal is ambiguous and needs a bundle tag to confirm; the
// highest-priced charged line is then taken as the parent and the rest pass
// through untouched.
type zeroedPriceStrategy struct{}

func (zeroedPriceStrategy) Kind() string { return "zeroed-price" }

func (zeroedPriceStrategy) Match(order types.Order) []Group {
	var zeroed, charged []types.LineItem
	for _, li := range order.LineItems {
		if isZeroed(li) {
			zeroed = append(zeroed, li)
		} else {
			charged = append(charged, li)
		}
	}
	if len(zeroed) == 0 || len(charged) == 0 {
		return nil
	}

	var parent types.LineItem
	switch {
	case len(charged) == 1:
		parent = charged[0]
	case hasBundleTag(order.Tags):
		parent = highestCharge(charged)
	default:
		return nil
	}

	return []Group{{
		Key:        "zeroed:" + order.Name,
		Parent:     &parent,
		Components: zeroed,
		Source:     SourceZeroedDiscount,
	}}
}

// tagHeuristicStrategy fires when the order is tagged by a known bundle app
// but carries no structural markers: every line is deferred to external
// recipe resolution individually.
type tagHeuristicStrategy struct{}

func (tagHeuristicStrategy) Kind() string { return "tag-heuristic" }

func (tagHeuristicStrategy) Match(order types.Order) []Group {
	if !hasBundleTag(order.Tags) || len(order.LineItems) == 0 {
		return nil
	}
	return []Group{{
		Key:        "tag:" + order.Name,
		Components: order.LineItems,
		Source:     SourceTagHeuristic,
		Deferred:   true,
	}}
}

// sellingPlanStrategy flags subscription lines whose title or SKU suggests a
// bundle; they expand later through catalog recipe metadata.
type sellingPlanStrategy struct{}

func (sellingPlanStrategy) Kind() string { return "selling-plan-bundle" }

func (sellingPlanStrategy) Match(order types.Order) []Group {
	var groups []Group
	for i := range order.LineItems {
		li := order.LineItems[i]
		if li.SellingPlanAllocation == nil {
			continue
		}
		if !looksLikeBundle(li.Title) && !looksLikeBundle(li.SKU) {
			continue
		}
		parent := li
		groups = append(groups, Group{
			Key:      "plan:" + parent.SKU,
			Parent:   &parent,
			Source:   SourceExternalRecipe,
			Deferred: true,
		})
	}
	return groups
}

// isZeroed reports whether the line's discounts cancel its entire charge.
func isZeroed(li types.LineItem) bool {
	charge := money.ToMoney(li.Price).Mul(decimal.NewFromInt(int64(max(1, li.Quantity))))
	if charge.IsZero() {
		return true
	}

	discount := decimal.Zero
	for _, alloc := range li.DiscountAllocations {
		discount = discount.Add(money.ToMoney(alloc.Amount))
	}
	if discount.IsZero() {
		discount = money.ToMoney(li.TotalDiscount)
	}
	return charge.Sub(discount).Abs().LessThanOrEqual(discountEpsilon)
}

func hasBundleTag(tags string) bool {
	lowered := strings.ToLower(tags)
	for _, keyword := range bundleTagKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

func looksLikeBundle(text string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range bundleTitleKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

func highestCharge(lines []types.LineItem) types.LineItem {
	best := lines[0]
	bestCharge := lineCharge(best)
	for _, li := range lines[1:] {
		if charge := lineCharge(li); charge.GreaterThan(bestCharge) {
			best = li
			bestCharge = charge
		}
	}
	return best
}

func lineCharge(li types.LineItem) decimal.Decimal {
	return money.ToMoney(li.Price).Mul(decimal.NewFromInt(int64(max(1, li.Quantity))))
}
