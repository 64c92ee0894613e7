package controllers

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/shipfeedhq/shipfeed-backend/api/responses"
	"github.com/shipfeedhq/shipfeed-backend/api/validators"
	"github.com/shipfeedhq/shipfeed-backend/internal/orders"
	"github.com/shipfeedhq/shipfeed-backend/pkg/config"
	pkgerrors "github.com/shipfeedhq/shipfeed-backend/pkg/errors"
	"github.com/shipfeedhq/shipfeed-backend/pkg/logger"
)

const adminTokenHeader = "X-Admin-Token"

type markCancelledRequest struct {
	OrderID     int64  `json:"order_id" validate:"required_without=OrderNumber"`
	OrderNumber string `json:"order_number" validate:"required_without=OrderID"`
}

// AdminMarkCancelled force-cancels an order, by id or display number. Ids the
// store has never seen get a cancelled stub so the feed stops offering them.
func AdminMarkCancelled(store FeedStore, cfg config.AdminConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if !adminTokenValid(r, cfg.Token) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid admin token"))
			return
		}

		var req markCancelledRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		orderID := req.OrderID
		if orderID == 0 {
			if stored, ok := store.FindByNumber(req.OrderNumber); ok {
				orderID = stored.OrderID
			} else {
				// A number the store never saw still gets cancelled: key the
				// stub by the number's digits so a later webhook for the same
				// order lands on it.
				legacyID, err := legacyOrderID(req.OrderNumber)
				if err != nil {
					responses.WriteError(ctx, logg, w, err)
					return
				}
				orderID = legacyID
			}
		}

		stored := store.SetStatus(orderID, orders.StatusCancelled)
		if logg != nil {
			logg.Info(logg.WithField(ctx, "order_id", orderID), "order force-cancelled")
		}
		responses.WriteSuccess(w, map[string]any{
			"order_id": stored.OrderID,
			"status":   stored.Status,
		})
	}
}

func legacyOrderID(number string) (int64, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	if digits == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order_number carries no digits")
	}
	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order_number is not a usable order key")
	}
	return id, nil
}

func adminTokenValid(r *http.Request, expected string) bool {
	if expected == "" {
		return false
	}
	provided := r.Header.Get(adminTokenHeader)
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}
