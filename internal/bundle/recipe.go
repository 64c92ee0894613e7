package bundle

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/shipfeedhq/shipfeed-backend/pkg/shopify"
	"github.com/shipfeedhq/shipfeed-backend/pkg/types"
)

// Component is one entry of a bundle recipe: a catalog variant id and how many
// units of it one bundle contains.
type Component struct {
	ComponentID string
	Quantity    int
}

// Recipe is the ordered component list a bundle parent expands into.
type Recipe []Component

// IsEmpty reports whether the recipe has no components.
func (r Recipe) IsEmpty() bool { return len(r) == 0 }

// metafieldCandidates are the namespace/key pairs bundle apps are known to
// write recipes under, in priority order.
var metafieldCandidates = []struct {
	Namespace string
	Key       string
}{
	{"simple_bundles_2_0", "components"},
	{"simple_bundles", "components"},
	{"simplebundles", "components"},
	{"bundles", "components"},
	{"sb", "components"},
	{"simple_bundles_2_0", "bundle_components"},
	{"simple_bundles", "bundle_components"},
	{"bundles", "bundle_components"},
	{"simple_bundles_2_0", "components_json"},
	{"simple_bundles", "components_json"},
	{"bundles", "components_json"},
}

// catalogIDPattern is the "looks like a real catalog id" gate: a long numeric
// string. Short numbers are almost always app-internal counters, not ids.
var catalogIDPattern = regexp.MustCompile(`^\d{6,}$`)

var (
	gidTrailingID = regexp.MustCompile(`ProductVariant/(\d+)`)
	flatPairToken = regexp.MustCompile(`(?i)(?:ProductVariant/)?(\d+)\s*:\s*(\d+)`)
)

// MetafieldClient is the slice of the Admin API the recipe resolver queries
// when an order carries no inline recipe.
type MetafieldClient interface {
	GetProductMetafields(ctx context.Context, id int64) ([]shopify.Metafield, error)
	GetVariantMetafields(ctx context.Context, id int64) ([]shopify.Metafield, error)
}

// RecipeResolver turns line items or catalog ids into normalized recipes.
// Results are cached per source so retried webhooks resolve identically.
type RecipeResolver struct {
	catalog MetafieldClient

	mu    sync.Mutex
	cache map[string]Recipe
}

// NewRecipeResolver builds a resolver. A nil catalog disables metafield
// lookups; inline property recipes still work.
func NewRecipeResolver(catalog MetafieldClient) *RecipeResolver {
	return &RecipeResolver{
		catalog: catalog,
		cache:   make(map[string]Recipe),
	}
}

// ResolveLine resolves a recipe for one order line: inline properties first,
// then the product's metafields, then the variant's.
func (r *RecipeResolver) ResolveLine(ctx context.Context, li types.LineItem) Recipe {
	if recipe := ParseRecipeValue(PropsOf(li).RecipePayload(), ""); !recipe.IsEmpty() {
		return recipe
	}
	if li.ProductID != 0 {
		if recipe := r.ResolveProduct(ctx, li.ProductID); !recipe.IsEmpty() {
			return recipe
		}
	}
	if li.VariantID != 0 {
		if recipe := r.ResolveVariant(ctx, li.VariantID); !recipe.IsEmpty() {
			return recipe
		}
	}
	return nil
}

// ResolveProduct resolves a recipe from a product's metafields.
func (r *RecipeResolver) ResolveProduct(ctx context.Context, productID int64) Recipe {
	return r.cached(fmt.Sprintf("product:%d", productID), func() Recipe {
		if r.catalog == nil {
			return nil
		}
		metafields, err := r.catalog.GetProductMetafields(ctx, productID)
		if err != nil {
			return nil
		}
		return pickRecipe(metafields)
	})
}

// ResolveVariant resolves a recipe from a variant's metafields.
func (r *RecipeResolver) ResolveVariant(ctx context.Context, variantID int64) Recipe {
	return r.cached(fmt.Sprintf("variant:%d", variantID), func() Recipe {
		if r.catalog == nil {
			return nil
		}
		metafields, err := r.catalog.GetVariantMetafields(ctx, variantID)
		if err != nil {
			return nil
		}
		return pickRecipe(metafields)
	})
}

func (r *RecipeResolver) cached(key string, resolve func() Recipe) Recipe {
	r.mu.Lock()
	if recipe, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return recipe
	}
	r.mu.Unlock()

	recipe := resolve()
	// Failed lookups are not cached so a later webhook can retry them; only a
	// resolved recipe is pinned for determinism.
	if recipe.IsEmpty() {
		return nil
	}

	r.mu.Lock()
	r.cache[key] = recipe
	r.mu.Unlock()
	return recipe
}

// pickRecipe tries the prioritized namespace/key candidates first, then every
// remaining metafield for anything recipe-shaped.
func pickRecipe(metafields []shopify.Metafield) Recipe {
	for _, candidate := range metafieldCandidates {
		for _, mf := range metafields {
			if mf.Namespace != candidate.Namespace || mf.Key != candidate.Key || mf.Value == "" {
				continue
			}
			if recipe := ParseRecipeValue(mf.Value, mf.Type); !recipe.IsEmpty() {
				return recipe
			}
		}
	}
	for _, mf := range metafields {
		if mf.Value == "" {
			continue
		}
		if recipe := ParseRecipeValue(mf.Value, mf.Type); !recipe.IsEmpty() {
			return recipe
		}
	}
	return nil
}

// ParseRecipeValue parses a heterogeneous recipe encoding: reference-typed
// metafields carrying catalog GIDs, JSON arrays of component objects, or flat
// "id:qty" lists. Malformed entries are dropped silently; a completely
// unparsable value yields an empty recipe.
func ParseRecipeValue(value, fieldType string) Recipe {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}

	if strings.Contains(fieldType, "product_variant_reference") {
		if recipe := parseReferenceList(trimmed); !recipe.IsEmpty() {
			return recipe
		}
	}
	if recipe := parseJSONComponents(trimmed); !recipe.IsEmpty() {
		return recipe
	}
	return parseFlatPairs(trimmed)
}

// parseReferenceList handles list.product_variant_reference values: a JSON
// array of GIDs (or objects holding one), or a separator-delimited GID list.
// Reference fields carry no quantities, so each component counts once.
func parseReferenceList(value string) Recipe {
	var parsed any
	if err := json.Unmarshal([]byte(value), &parsed); err == nil {
		items, ok := parsed.([]any)
		if !ok {
			items = []any{parsed}
		}
		builder := newRecipeBuilder()
		for _, item := range items {
			switch v := item.(type) {
			case string:
				builder.add(extractCatalogID(v), 1)
			case map[string]any:
				if id, ok := v["id"].(string); ok {
					builder.add(extractCatalogID(id), 1)
				}
			}
		}
		if recipe := builder.recipe(); !recipe.IsEmpty() {
			return recipe
		}
	}

	builder := newRecipeBuilder()
	for _, part := range strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';' || r == '|' || r == ' ' || r == '\n' || r == '\t'
	}) {
		builder.add(extractCatalogID(part), 1)
	}
	return builder.recipe()
}

// parseJSONComponents handles JSON arrays of {variantId|variant_id|id,
// qty|quantity|qty_each} objects, optionally wrapped in {"components": [...]}.
func parseJSONComponents(value string) Recipe {
	var parsed any
	if err := json.Unmarshal([]byte(value), &parsed); err != nil {
		return nil
	}

	items, ok := parsed.([]any)
	if !ok {
		wrapper, isMap := parsed.(map[string]any)
		if !isMap {
			return nil
		}
		items, ok = wrapper["components"].([]any)
		if !ok {
			return nil
		}
	}

	builder := newRecipeBuilder()
	for _, item := range items {
		entry, isMap := item.(map[string]any)
		if !isMap {
			continue
		}
		id := extractCatalogID(firstString(entry, "variantId", "variant_id", "id"))
		qty := firstQuantity(entry, "qty", "quantity", "qty_each", "count")
		builder.add(id, qty)
	}
	return builder.recipe()
}

// parseFlatPairs handles delimiter-separated "id:qty" tokens.
func parseFlatPairs(value string) Recipe {
	builder := newRecipeBuilder()
	for _, token := range strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	}) {
		match := flatPairToken.FindStringSubmatch(strings.TrimSpace(token))
		if match == nil {
			continue
		}
		qty, err := strconv.Atoi(match[2])
		if err != nil {
			continue
		}
		builder.add(extractCatalogID(match[1]), qty)
	}
	return builder.recipe()
}

// extractCatalogID pulls the trailing numeric id out of a GID, or validates a
// bare id. Returns "" when the value does not look like a catalog id.
func extractCatalogID(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if match := gidTrailingID.FindStringSubmatch(s); match != nil {
		return match[1]
	}
	if catalogIDPattern.MatchString(s) {
		return s
	}
	return ""
}

func firstString(entry map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := entry[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func firstQuantity(entry map[string]any, keys ...string) int {
	for _, key := range keys {
		switch v := entry[key].(type) {
		case float64:
			if v > 0 {
				return int(v)
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
				return n
			}
		}
	}
	return 1
}

// recipeBuilder accumulates components, merging duplicate ids by summing
// quantity while keeping first-seen order.
type recipeBuilder struct {
	order []string
	qty   map[string]int
}

func newRecipeBuilder() *recipeBuilder {
	return &recipeBuilder{qty: make(map[string]int)}
}

func (b *recipeBuilder) add(id string, quantity int) {
	if id == "" || quantity <= 0 {
		return
	}
	if _, seen := b.qty[id]; !seen {
		b.order = append(b.order, id)
	}
	b.qty[id] += quantity
}

func (b *recipeBuilder) recipe() Recipe {
	if len(b.order) == 0 {
		return nil
	}
	recipe := make(Recipe, 0, len(b.order))
	for _, id := range b.order {
		recipe = append(recipe, Component{ComponentID: id, Quantity: b.qty[id]})
	}
	return recipe
}
