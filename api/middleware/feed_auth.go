package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/shipfeedhq/shipfeed-backend/api/responses"
	"github.com/shipfeedhq/shipfeed-backend/pkg/config"
	pkgerrors "github.com/shipfeedhq/shipfeed-backend/pkg/errors"
	"github.com/shipfeedhq/shipfeed-backend/pkg/logger"
)

// FeedAuth guards the ShipStation endpoint. ShipStation sends Basic auth on
// modern stores and SS-UserName/SS-Password query parameters on legacy ones;
// either form is accepted.
func FeedAuth(cfg config.FeedConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok {
				query := r.URL.Query()
				user = query.Get("SS-UserName")
				pass = query.Get("SS-Password")
			}

			if !credentialsMatch(user, cfg.Username) || !credentialsMatch(pass, cfg.Password) {
				w.Header().Set("WWW-Authenticate", `Basic realm="shipfeed"`)
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid feed credentials"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func credentialsMatch(provided, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}
