package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TransformMetrics records webhook, transform and catalog activity.
type TransformMetrics struct {
	webhooks       *prometheus.CounterVec
	transforms     prometheus.Counter
	bundleGroups   *prometheus.CounterVec
	catalogLookups *prometheus.CounterVec
	cacheHits      prometheus.Counter
}

// NewTransformMetrics registers the transform metrics on the provided registerer.
func NewTransformMetrics(reg prometheus.Registerer) *TransformMetrics {
	if reg == nil {
		return &TransformMetrics{}
	}
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_deliveries_total",
		Help: "Webhook deliveries by topic and result.",
	}, []string{"topic", "result"})
	transforms := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_transforms_total",
		Help: "Order transforms executed.",
	})
	bundleGroups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bundle_groups_total",
		Help: "Detected bundle groups by resolution source.",
	}, []string{"source"})
	catalogLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_lookups_total",
		Help: "Catalog lookups by kind and result.",
	}, []string{"kind", "result"})
	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_hits_total",
		Help: "Catalog lookups served from the in-process cache.",
	})
	reg.MustRegister(webhooks, transforms, bundleGroups, catalogLookups, cacheHits)
	return &TransformMetrics{
		webhooks:       webhooks,
		transforms:     transforms,
		bundleGroups:   bundleGroups,
		catalogLookups: catalogLookups,
		cacheHits:      cacheHits,
	}
}

// IncWebhook counts a webhook delivery outcome for the named topic.
func (m *TransformMetrics) IncWebhook(topic, result string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(topic), normalizeLabel(result)).Inc()
}

// IncTransform counts one executed transform.
func (m *TransformMetrics) IncTransform() {
	if m == nil || m.transforms == nil {
		return
	}
	m.transforms.Inc()
}

// IncBundleGroup counts a detected group by resolution source.
func (m *TransformMetrics) IncBundleGroup(source string) {
	if m == nil || m.bundleGroups == nil {
		return
	}
	m.bundleGroups.WithLabelValues(normalizeLabel(source)).Inc()
}

// IncCatalogLookup counts an external catalog call outcome.
func (m *TransformMetrics) IncCatalogLookup(kind, result string) {
	if m == nil || m.catalogLookups == nil {
		return
	}
	m.catalogLookups.WithLabelValues(normalizeLabel(kind), normalizeLabel(result)).Inc()
}

// IncCacheHit counts a catalog lookup served from cache.
func (m *TransformMetrics) IncCacheHit() {
	if m == nil || m.cacheHits == nil {
		return
	}
	m.cacheHits.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
