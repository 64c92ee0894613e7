package transform

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/shipfeedhq/shipfeed-backend/internal/bundle"
	"github.com/shipfeedhq/shipfeed-backend/internal/catalog"
	"github.com/shipfeedhq/shipfeed-backend/pkg/logger"
	"github.com/shipfeedhq/shipfeed-backend/pkg/metrics"
	"github.com/shipfeedhq/shipfeed-backend/pkg/money"
	"github.com/shipfeedhq/shipfeed-backend/pkg/types"
)

// Pipeline turns a raw order into the flattened output line list the feed
// serves. It is safe for concurrent use; all state lives in the injected
// resolvers' caches.
type Pipeline struct {
	recipes *bundle.RecipeResolver
	catalog *catalog.Resolver
	logg    *logger.Logger
	metrics *metrics.TransformMetrics
}

// New builds a pipeline. recipes and catalog may be nil, which disables
// external recipe expansion and image enrichment respectively.
func New(recipes *bundle.RecipeResolver, cat *catalog.Resolver, logg *logger.Logger, m *metrics.TransformMetrics) *Pipeline {
	return &Pipeline{
		recipes: recipes,
		catalog: cat,
		logg:    logg,
		metrics: m,
	}
}

// TransformOrder flattens one order. The result is deterministic for a given
// payload and catalog state, so at-least-once webhook delivery retransforms to
// an identical line list. Output order: redistributed groups in detection
// order, then deferred expansions, then untouched lines in their original
// order. No input line is ever dropped.
func (p *Pipeline) TransformOrder(ctx context.Context, order types.Order) []types.OutputLine {
	p.metrics.IncTransform()

	groups := bundle.Detect(order)
	if len(groups) > 0 && p.logg != nil {
		ctx = p.logg.WithFields(ctx, map[string]any{
			"order":  order.Name,
			"groups": len(groups),
			"source": string(groups[0].Source),
		})
		p.logg.Info(ctx, "bundle groups detected")
	}

	handled := make(map[int64]bool)
	var grouped, expanded []types.OutputLine

	for _, group := range groups {
		p.metrics.IncBundleGroup(string(group.Source))

		if group.Deferred {
			expanded = append(expanded, p.expandDeferred(ctx, group, handled)...)
			continue
		}

		if group.Parent != nil {
			handled[group.Parent.ID] = true
		}
		lines := bundle.Redistribute(group)
		for _, li := range group.Components {
			handled[li.ID] = true
		}
		p.enrichGroupImages(ctx, group, lines)
		grouped = append(grouped, lines...)
	}

	out := append(grouped, expanded...)
	for _, li := range order.LineItems {
		if handled[li.ID] {
			continue
		}
		line := bundle.PassThrough(li, "")
		p.enrichImage(ctx, &line, li.VariantID)
		out = append(out, line)
	}
	return out
}

// expandDeferred resolves recipes for a deferred group's members. Each member
// with a recipe expands into component lines carrying the member's own charge;
// members without one pass through unchanged so no data is lost.
func (p *Pipeline) expandDeferred(ctx context.Context, group bundle.Group, handled map[int64]bool) []types.OutputLine {
	members := group.Components
	if group.Parent != nil {
		members = append([]types.LineItem{*group.Parent}, members...)
	}

	var out []types.OutputLine
	for _, li := range members {
		handled[li.ID] = true

		var recipe bundle.Recipe
		if p.recipes != nil {
			recipe = p.recipes.ResolveLine(ctx, li)
		}
		if recipe.IsEmpty() {
			line := bundle.PassThrough(li, "")
			p.enrichImage(ctx, &line, li.VariantID)
			out = append(out, line)
			continue
		}
		out = append(out, p.expandLine(ctx, li, recipe, group.Key)...)
	}
	return out
}

// expandLine replaces one line with its recipe components. The line's own
// charge is the total to distribute; recipe quantities are scaled by the
// line's quantity.
func (p *Pipeline) expandLine(ctx context.Context, li types.LineItem, recipe bundle.Recipe, groupKey string) []types.OutputLine {
	multiplier := max(1, li.Quantity)
	total := money.ToMoney(li.Price).Mul(decimal.NewFromInt(int64(multiplier)))

	type slot struct {
		component bundle.Component
		qty       int
	}
	slots := make([]slot, 0, len(recipe))
	weights := make([]int, 0, len(recipe))
	for _, component := range recipe {
		qty := component.Quantity * multiplier
		if qty <= 0 {
			continue
		}
		slots = append(slots, slot{component: component, qty: qty})
		weights = append(weights, qty)
	}
	if len(slots) == 0 {
		line := bundle.PassThrough(li, groupKey)
		p.enrichImage(ctx, &line, li.VariantID)
		return []types.OutputLine{line}
	}

	shares := money.SplitProportionally(total, weights)
	out := make([]types.OutputLine, 0, len(slots))
	for i, s := range slots {
		line := types.OutputLine{
			ID:        fmt.Sprintf("%d-%s", li.ID, s.component.ComponentID),
			Title:     fmt.Sprintf("Component %s", s.component.ComponentID),
			Quantity:  s.qty,
			UnitPrice: shares[i].Div(decimal.NewFromInt(int64(s.qty))),
			GroupKey:  groupKey,
		}
		if p.catalog != nil {
			if id, err := strconv.ParseInt(s.component.ComponentID, 10, 64); err == nil {
				meta := p.catalog.Resolve(ctx, catalog.Ref{Type: catalog.RefVariant, ID: id})
				if meta.Title != "" {
					line.Title = meta.Title
				}
				line.SKU = meta.SKU
				line.ImageURL = meta.ImageURL
			}
		}
		out = append(out, line)
	}
	return out
}

// enrichGroupImages backfills images on redistributed lines from the original
// line items' variant references. Lines align with the group as parent first,
// then components, except on the priced-components path where Redistribute
// still emits parent first.
func (p *Pipeline) enrichGroupImages(ctx context.Context, group bundle.Group, lines []types.OutputLine) {
	byID := make(map[string]int64, len(group.Components)+1)
	if group.Parent != nil {
		byID[strconv.FormatInt(group.Parent.ID, 10)] = group.Parent.VariantID
	}
	for _, li := range group.Components {
		byID[strconv.FormatInt(li.ID, 10)] = li.VariantID
	}
	for i := range lines {
		p.enrichImage(ctx, &lines[i], byID[lines[i].ID])
	}
}

// enrichImage sets the line's image from the catalog, best effort.
func (p *Pipeline) enrichImage(ctx context.Context, line *types.OutputLine, variantID int64) {
	if p.catalog == nil || variantID == 0 || line.ImageURL != "" {
		return
	}
	meta := p.catalog.Resolve(ctx, catalog.Ref{Type: catalog.RefVariant, ID: variantID})
	line.ImageURL = meta.ImageURL
}
