package controllers

import (
	"net/http"

	"github.com/shipfeedhq/shipfeed-backend/api/responses"
	"github.com/shipfeedhq/shipfeed-backend/pkg/config"
	pkgerrors "github.com/shipfeedhq/shipfeed-backend/pkg/errors"
	"github.com/shipfeedhq/shipfeed-backend/pkg/logger"
	"github.com/shipfeedhq/shipfeed-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ShipFeed-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks optional dependencies; without redis configured the
// service is ready on its own.
func HealthReady(cfg *config.Config, rdb redis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ShipFeed-Env", cfg.App.Env)

		if rdb != nil {
			if err := rdb.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
