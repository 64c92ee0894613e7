package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shipfeedhq/shipfeed-backend/api/responses"
	"github.com/shipfeedhq/shipfeed-backend/api/validators"
	"github.com/shipfeedhq/shipfeed-backend/internal/feed"
	"github.com/shipfeedhq/shipfeed-backend/internal/orders"
	"github.com/shipfeedhq/shipfeed-backend/pkg/config"
	pkgerrors "github.com/shipfeedhq/shipfeed-backend/pkg/errors"
	"github.com/shipfeedhq/shipfeed-backend/pkg/logger"
)

const feedStoreName = "shipfeed"

// FeedStore is the read/update surface the ShipStation endpoint needs.
type FeedStore interface {
	Get(orderID int64) (orders.StoredOrder, bool)
	Latest() (orders.StoredOrder, bool)
	FindByNumber(number string) (orders.StoredOrder, bool)
	Recent(since time.Time, limit int) []orders.StoredOrder
	SetStatus(orderID int64, status orders.Status) orders.StoredOrder
}

// ShipStation serves the custom-store protocol: action=test for the
// connectivity check, action=export for the XML order feed, and
// action=shipnotify to mark an order shipped.
func ShipStation(store FeedStore, serializer *feed.Serializer, cfg config.FeedConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		action := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("action")))
		switch action {
		case "test":
			responses.WriteXML(w, http.StatusOK, serializer.TestResponse(feedStoreName))
		case "", "export":
			exportFeed(w, r, store, serializer, cfg, logg)
		case "shipnotify":
			shipNotify(w, r, store, logg)
		default:
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unsupported action").WithDetails(map[string]any{"action": action}))
		}
	}
}

func exportFeed(w http.ResponseWriter, r *http.Request, store FeedStore, serializer *feed.Serializer, cfg config.FeedConfig, logg *logger.Logger) {
	ctx := r.Context()
	query := r.URL.Query()

	var selected []orders.StoredOrder
	switch {
	case query.Get("order_id") != "":
		orderID, err := strconv.ParseInt(query.Get("order_id"), 10, 64)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order_id must be numeric"))
			return
		}
		stored, ok := store.Get(orderID)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not remembered"))
			return
		}
		selected = []orders.StoredOrder{stored}

	case query.Get("order_number") != "":
		stored, ok := store.FindByNumber(query.Get("order_number"))
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not remembered"))
			return
		}
		selected = []orders.StoredOrder{stored}

	case query.Get("latest") == "true":
		if stored, ok := store.Latest(); ok {
			selected = []orders.StoredOrder{stored}
		}

	default:
		since, err := validators.ParseQueryDate(r, "start_date", cfg.StrictDates)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		until, err := validators.ParseQueryDate(r, "end_date", cfg.StrictDates)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit := cfg.PageSize
		if limit < 1 {
			limit = 100
		}
		selected = store.Recent(since, limit)
		if !until.IsZero() {
			kept := selected[:0]
			for _, stored := range selected {
				if !stored.UpdatedAt.After(until) {
					kept = append(kept, stored)
				}
			}
			selected = kept
		}
	}

	body, err := serializer.Serialize(selected, 1)
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "serializing feed"))
		return
	}
	responses.WriteXML(w, http.StatusOK, body)
}

func shipNotify(w http.ResponseWriter, r *http.Request, store FeedStore, logg *logger.Logger) {
	ctx := r.Context()

	number := r.URL.Query().Get("order_number")
	if number == "" {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order_number is required"))
		return
	}
	stored, ok := store.FindByNumber(number)
	if !ok {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not remembered"))
		return
	}

	updated := store.SetStatus(stored.OrderID, orders.StatusShipped)
	if logg != nil {
		logg.Info(logg.WithOrderID(ctx, number), "order marked shipped")
	}
	responses.WriteSuccess(w, map[string]any{
		"order_id": updated.OrderID,
		"status":   updated.Status,
	})
}
