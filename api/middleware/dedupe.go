package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/shipfeedhq/shipfeed-backend/api/responses"
	"github.com/shipfeedhq/shipfeed-backend/pkg/logger"
)

const webhookIDHeader = "X-Shopify-Webhook-Id"

// Deduper is the slice of the redis client webhook dedupe needs.
type Deduper interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	WebhookKey(deliveryID string) string
}

// WebhookDedupe short-circuits redelivered webhooks by claiming the delivery
// id in redis. Duplicates are acknowledged with 200 so the platform stops
// retrying. A nil deduper, a missing header, or a redis failure all let the
// request through: transforms are idempotent, so processing twice is safe
// while dropping a delivery is not.
func WebhookDedupe(deduper Deduper, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if deduper == nil {
				next.ServeHTTP(w, r)
				return
			}
			deliveryID := r.Header.Get(webhookIDHeader)
			if deliveryID == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			claimed, err := deduper.SetNX(ctx, deduper.WebhookKey(deliveryID), 1, ttl)
			if err != nil {
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "error", err.Error()), "webhook dedupe unavailable")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !claimed {
				if logg != nil {
					logg.Info(logg.WithField(ctx, "delivery_id", deliveryID), "duplicate webhook delivery skipped")
				}
				responses.WriteSuccess(w, map[string]any{"duplicate": true})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
