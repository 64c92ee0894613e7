package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shipfeedhq/shipfeed-backend/api/controllers"
	webhookcontrollers "github.com/shipfeedhq/shipfeed-backend/api/controllers/webhooks"
	"github.com/shipfeedhq/shipfeed-backend/api/middleware"
	"github.com/shipfeedhq/shipfeed-backend/internal/feed"
	"github.com/shipfeedhq/shipfeed-backend/pkg/config"
	"github.com/shipfeedhq/shipfeed-backend/pkg/logger"
	"github.com/shipfeedhq/shipfeed-backend/pkg/metrics"
	"github.com/shipfeedhq/shipfeed-backend/pkg/redis"
)

// OrderStore is the full store surface the router wires: the webhook write
// side plus the feed's read/update side. *orders.Store satisfies it.
type OrderStore interface {
	webhookcontrollers.OrderStore
	controllers.FeedStore
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	pipeline webhookcontrollers.OrderTransformer,
	store OrderStore,
	serializer *feed.Serializer,
	m *metrics.TransformMetrics,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, pinger(redisClient), logg))
	})

	r.Route("/webhooks", func(r chi.Router) {
		r.Use(middleware.ShopifyHMAC(cfg.Shopify.WebhookSecret, logg))
		if redisClient != nil {
			r.Use(middleware.WebhookDedupe(redisClient, cfg.Redis.DedupeTTL, logg))
		}
		r.Post("/orders-create", webhookcontrollers.OrdersCreate(pipeline, store, m, logg))
		r.Post("/orders-updated", webhookcontrollers.OrdersUpdated(pipeline, store, m, logg))
		r.Post("/orders-cancelled", webhookcontrollers.OrdersCancelled(store, m, logg))
	})

	r.With(middleware.FeedAuth(cfg.Feed, logg)).
		Get("/shipstation", controllers.ShipStation(store, serializer, cfg.Feed, logg))
	r.With(middleware.FeedAuth(cfg.Feed, logg)).
		Post("/shipstation", controllers.ShipStation(store, serializer, cfg.Feed, logg))

	r.Post("/admin/mark-cancelled", controllers.AdminMarkCancelled(store, cfg.Admin, logg))

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	return r
}

// pinger avoids handing HealthReady a typed-nil interface when redis is not
// configured.
func pinger(client *redis.Client) redis.Pinger {
	if client == nil {
		return nil
	}
	return client
}
