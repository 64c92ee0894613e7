package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"

	"github.com/shipfeedhq/shipfeed-backend/api/responses"
	pkgerrors "github.com/shipfeedhq/shipfeed-backend/pkg/errors"
	"github.com/shipfeedhq/shipfeed-backend/pkg/logger"
)

const (
	hmacHeader  = "X-Shopify-Hmac-Sha256"
	topicHeader = "X-Shopify-Topic"

	// maxWebhookBody bounds the payload read; Shopify order webhooks are far
	// smaller than this.
	maxWebhookBody = 4 << 20
)

// ShopifyHMAC verifies the webhook signature against the shared secret before
// the handler runs. The body is re-buffered so handlers can decode it
// normally. An empty secret rejects everything: a misconfigured gate must
// fail closed.
func ShopifyHMAC(secret string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if logg != nil {
				if topic := r.Header.Get(topicHeader); topic != "" {
					ctx = logg.WithTopic(ctx, topic)
				}
			}

			if secret == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook secret not configured"))
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading webhook body"))
				return
			}
			r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(body))

			if !validSignature(secret, body, r.Header.Get(hmacHeader)) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature mismatch"))
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validSignature(secret string, body []byte, header string) bool {
	if header == "" {
		return false
	}
	provided, err := base64.StdEncoding.DecodeString(header)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}
