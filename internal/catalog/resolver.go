package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/shipfeedhq/shipfeed-backend/pkg/logger"
	"github.com/shipfeedhq/shipfeed-backend/pkg/metrics"
	"github.com/shipfeedhq/shipfeed-backend/pkg/money"
	"github.com/shipfeedhq/shipfeed-backend/pkg/shopify"
)

// RefType selects which catalog resource a Ref points at.
type RefType string

const (
	RefVariant RefType = "variant"
	RefProduct RefType = "product"
)

// Ref identifies one catalog resource.
type Ref struct {
	Type RefType
	ID   int64
}

func (r Ref) key() string {
	return fmt.Sprintf("%s:%d", r.Type, r.ID)
}

// Meta is the best-effort enrichment for a catalog reference. Found is false
// when the lookup failed or the resource does not exist; the zero Meta is the
// documented degradation, never an error.
type Meta struct {
	Price    decimal.Decimal
	Title    string
	SKU      string
	ImageURL string
	Found    bool
}

// Client is the slice of the Admin API the resolver needs.
type Client interface {
	GetVariant(ctx context.Context, id int64) (*shopify.Variant, error)
	GetProduct(ctx context.Context, id int64) (*shopify.Product, error)
}

// Resolver is a read-through cache over the catalog client. Results, including
// failures, are cached for the process lifetime; concurrent lookups for the
// same key collapse into one upstream call.
type Resolver struct {
	client  Client
	logg    *logger.Logger
	metrics *metrics.TransformMetrics

	mu    sync.Mutex
	cache map[string]Meta
	group singleflight.Group
}

// NewResolver builds a resolver. A nil client yields empty Meta for every ref.
func NewResolver(client Client, logg *logger.Logger, m *metrics.TransformMetrics) *Resolver {
	return &Resolver{
		client:  client,
		logg:    logg,
		metrics: m,
		cache:   make(map[string]Meta),
	}
}

// Resolve returns enrichment for the ref. It never returns an error: lookup
// failures cache an empty Meta so the same broken ref is not retried within
// this process run.
func (r *Resolver) Resolve(ctx context.Context, ref Ref) Meta {
	if r == nil || ref.ID == 0 {
		return Meta{}
	}

	key := ref.key()
	r.mu.Lock()
	if cached, ok := r.cache[key]; ok {
		r.mu.Unlock()
		r.metrics.IncCacheHit()
		return cached
	}
	r.mu.Unlock()

	result, _, _ := r.group.Do(key, func() (any, error) {
		meta := r.lookup(ctx, ref)
		r.mu.Lock()
		r.cache[key] = meta
		r.mu.Unlock()
		return meta, nil
	})

	meta, ok := result.(Meta)
	if !ok {
		return Meta{}
	}
	return meta
}

func (r *Resolver) lookup(ctx context.Context, ref Ref) Meta {
	if r.client == nil {
		return Meta{}
	}

	switch ref.Type {
	case RefVariant:
		return r.lookupVariant(ctx, ref.ID)
	case RefProduct:
		return r.lookupProduct(ctx, ref.ID)
	default:
		return Meta{}
	}
}

func (r *Resolver) lookupVariant(ctx context.Context, id int64) Meta {
	variant, err := r.client.GetVariant(ctx, id)
	if err != nil {
		r.metrics.IncCatalogLookup("variant", "error")
		r.warn(ctx, "catalog variant lookup failed", err)
		return Meta{}
	}
	r.metrics.IncCatalogLookup("variant", "ok")

	meta := Meta{
		Price: money.ToMoney(variant.Price),
		Title: variant.Title,
		SKU:   variant.SKU,
		Found: true,
	}
	meta.ImageURL = r.variantImage(ctx, variant)
	return meta
}

func (r *Resolver) lookupProduct(ctx context.Context, id int64) Meta {
	product, err := r.client.GetProduct(ctx, id)
	if err != nil {
		r.metrics.IncCatalogLookup("product", "error")
		r.warn(ctx, "catalog product lookup failed", err)
		return Meta{}
	}
	r.metrics.IncCatalogLookup("product", "ok")

	return Meta{
		Title:    product.Title,
		ImageURL: firstProductImage(product),
		Found:    true,
	}
}

// variantImage resolves the image fallback chain: variant-specific image,
// then first product image, then empty.
func (r *Resolver) variantImage(ctx context.Context, variant *shopify.Variant) string {
	if variant.ProductID == 0 {
		return ""
	}
	product, err := r.client.GetProduct(ctx, variant.ProductID)
	if err != nil {
		r.metrics.IncCatalogLookup("product", "error")
		return ""
	}
	r.metrics.IncCatalogLookup("product", "ok")

	if variant.ImageID != nil {
		for _, image := range product.Images {
			if image.ID == *variant.ImageID {
				return image.Src
			}
		}
	}
	return firstProductImage(product)
}

func firstProductImage(product *shopify.Product) string {
	if product == nil {
		return ""
	}
	if len(product.Images) > 0 {
		return product.Images[0].Src
	}
	if product.Image != nil {
		return product.Image.Src
	}
	return ""
}

func (r *Resolver) warn(ctx context.Context, msg string, err error) {
	if r.logg == nil {
		return
	}
	ctx = r.logg.WithField(ctx, "error", err.Error())
	r.logg.Warn(ctx, msg)
}
