package bundle

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/shipfeedhq/shipfeed-backend/pkg/types"
)

func decEq(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()
	if got.StringFixed(2) != want {
		t.Fatalf("expected %s, got %s", want, got.StringFixed(2))
	}
}

func TestRedistributeSingleZeroedComponent(t *testing.T) {
	t.Parallel()

	// Parent qty 2 at $25.00 carries $50.00; the lone zeroed component takes
	// all of it.
	group := Group{
		Key:    "g1",
		Parent: &types.LineItem{ID: 1, Title: "Duo Box", SKU: "DUO", Quantity: 2, Price: "25.00"},
		Components: []types.LineItem{
			{ID: 2, Title: "Soap", SKU: "SOAP", Quantity: 2, Price: "0.00"},
		},
		Source: SourceInlineFlag,
	}

	lines := Redistribute(group)
	if len(lines) != 2 {
		t.Fatalf("expected parent + component, got %d lines", len(lines))
	}

	parent := lines[0]
	if !parent.IsParent || parent.Title != "Duo Box (PARENT)" || !parent.UnitPrice.IsZero() {
		t.Fatalf("unexpected parent line %+v", parent)
	}

	component := lines[1]
	if component.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", component.Quantity)
	}
	decEq(t, component.UnitPrice, "25.00")
	decEq(t, component.Total(), "50.00")
}

func TestRedistributeByQuantityWeights(t *testing.T) {
	t.Parallel()

	group := Group{
		Key:    "g1",
		Parent: &types.LineItem{ID: 1, Title: "Quad Kit", Quantity: 1, Price: "40.00"},
		Components: []types.LineItem{
			{ID: 2, Title: "One", Quantity: 1, Price: "0.00"},
			{ID: 3, Title: "Three", Quantity: 3, Price: "0.00"},
		},
	}

	lines := Redistribute(group)
	decEq(t, lines[1].UnitPrice, "10.00")
	decEq(t, lines[1].Total(), "10.00")
	decEq(t, lines[2].UnitPrice, "10.00")
	decEq(t, lines[2].Total(), "30.00")
}

func TestRedistributeRemainderGoesToLastComponent(t *testing.T) {
	t.Parallel()

	group := Group{
		Key:    "g1",
		Parent: &types.LineItem{ID: 1, Title: "Trio", Quantity: 1, Price: "10.00"},
		Components: []types.LineItem{
			{ID: 2, Title: "One", Quantity: 1, Price: "0.00"},
			{ID: 3, Title: "Two", Quantity: 2, Price: "0.00"},
		},
	}

	lines := Redistribute(group)
	decEq(t, lines[1].Total(), "3.33")
	decEq(t, lines[2].Total(), "6.67")

	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.Total())
	}
	decEq(t, sum, "10.00")
}

func TestRedistributeConservation(t *testing.T) {
	t.Parallel()

	totals := []string{"0.01", "0.10", "9.99", "10.00", "59.97", "100.03", "1234.56"}
	quantities := [][]int{{1}, {1, 1, 1}, {1, 2}, {2, 3, 5}, {7, 1, 1, 1}}

	for _, total := range totals {
		for _, qtys := range quantities {
			group := Group{
				Key:    "g",
				Parent: &types.LineItem{ID: 1, Quantity: 1, Price: total},
			}
			for i, q := range qtys {
				group.Components = append(group.Components, types.LineItem{
					ID: int64(10 + i), Quantity: q, Price: "0.00",
				})
			}

			sum := decimal.Zero
			for _, line := range Redistribute(group) {
				if line.UnitPrice.IsNegative() {
					t.Fatalf("total %s qtys %v: negative unit price", total, qtys)
				}
				if line.Quantity < 1 {
					t.Fatalf("total %s qtys %v: quantity below 1", total, qtys)
				}
				sum = sum.Add(line.Total())
			}
			if sum.StringFixed(2) != total {
				t.Fatalf("total %s qtys %v: conserved %s", total, qtys, sum.StringFixed(2))
			}
		}
	}
}

func TestRedistributeDiscountedToZeroComponentTakesSplit(t *testing.T) {
	t.Parallel()

	// Components priced then fully discounted were never charged; only the
	// parent's $50.00 may survive.
	order := types.Order{
		ID:   1,
		Name: "#1001",
		LineItems: []types.LineItem{
			{ID: 1, Title: "Set", Quantity: 1, Price: "50.00"},
			{ID: 2, Title: "Insert", Quantity: 1, Price: "10.00",
				DiscountAllocations: []types.DiscountAllocation{{Amount: "10.00"}}},
		},
	}

	groups := Detect(order)
	if len(groups) != 1 || groups[0].Source != SourceZeroedDiscount {
		t.Fatalf("expected one zeroed-discount group, got %+v", groups)
	}

	lines := Redistribute(groups[0])
	if len(lines) != 2 {
		t.Fatalf("expected parent + component, got %d lines", len(lines))
	}
	if !lines[0].IsParent || !lines[0].UnitPrice.IsZero() {
		t.Fatalf("expected zeroed parent adjustment, got %+v", lines[0])
	}
	decEq(t, lines[1].Total(), "50.00")

	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.Total())
	}
	decEq(t, sum, "50.00")
}

func TestRedistributePricedComponentsPassThrough(t *testing.T) {
	t.Parallel()

	group := Group{
		Key:    "g1",
		Parent: &types.LineItem{ID: 1, Title: "Wrap", Quantity: 1, Price: "5.00"},
		Components: []types.LineItem{
			{ID: 2, Title: "Priced", Quantity: 1, Price: "12.00"},
			{ID: 3, Title: "Free", Quantity: 1, Price: "0.00"},
		},
	}

	lines := Redistribute(group)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !lines[0].IsParent || !lines[0].UnitPrice.IsZero() {
		t.Fatalf("parent should still be a zeroed adjustment, got %+v", lines[0])
	}
	decEq(t, lines[1].UnitPrice, "12.00")
	decEq(t, lines[2].UnitPrice, "0.00")
}

func TestRedistributeParentlessGroupPassesThrough(t *testing.T) {
	t.Parallel()

	group := Group{
		Key: "g1",
		Components: []types.LineItem{
			{ID: 2, Title: "A", Quantity: 2, Price: "7.50"},
			{ID: 3, Title: "B", Quantity: 0, Price: "3.00"},
		},
	}

	lines := Redistribute(group)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	decEq(t, lines[0].UnitPrice, "7.50")
	if lines[1].Quantity != 1 {
		t.Fatalf("zero quantity should clamp to 1, got %d", lines[1].Quantity)
	}
}

func TestRedistributeZeroQuantityParentClamps(t *testing.T) {
	t.Parallel()

	group := Group{
		Key:    "g1",
		Parent: &types.LineItem{ID: 1, Title: "Odd", Quantity: -2, Price: "9.00"},
		Components: []types.LineItem{
			{ID: 2, Title: "Only", Quantity: 1, Price: "0.00"},
		},
	}

	lines := Redistribute(group)
	if lines[0].Quantity != 1 {
		t.Fatalf("parent quantity should clamp to 1, got %d", lines[0].Quantity)
	}
	decEq(t, lines[1].Total(), "9.00")
}
