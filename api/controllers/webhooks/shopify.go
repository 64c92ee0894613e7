package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/shipfeedhq/shipfeed-backend/api/responses"
	"github.com/shipfeedhq/shipfeed-backend/internal/orders"
	pkgerrors "github.com/shipfeedhq/shipfeed-backend/pkg/errors"
	"github.com/shipfeedhq/shipfeed-backend/pkg/logger"
	"github.com/shipfeedhq/shipfeed-backend/pkg/metrics"
	"github.com/shipfeedhq/shipfeed-backend/pkg/types"
)

// OrderTransformer flattens one order payload into output lines.
type OrderTransformer interface {
	TransformOrder(ctx context.Context, order types.Order) []types.OutputLine
}

// OrderStore is the slice of the order store the webhook handlers mutate.
type OrderStore interface {
	Remember(order types.Order, lines []types.OutputLine) orders.StoredOrder
	SetStatus(orderID int64, status orders.Status) orders.StoredOrder
}

// OrdersCreate handles orders/create deliveries: transform and remember.
func OrdersCreate(pipeline OrderTransformer, store OrderStore, m *metrics.TransformMetrics, logg *logger.Logger) http.HandlerFunc {
	return handleOrderUpsert("orders/create", pipeline, store, m, logg)
}

// OrdersUpdated handles orders/updated deliveries. Updates retransform from
// scratch; the store's best-version rule decides whether the result replaces
// what is already remembered.
func OrdersUpdated(pipeline OrderTransformer, store OrderStore, m *metrics.TransformMetrics, logg *logger.Logger) http.HandlerFunc {
	return handleOrderUpsert("orders/updated", pipeline, store, m, logg)
}

func handleOrderUpsert(topic string, pipeline OrderTransformer, store OrderStore, m *metrics.TransformMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if pipeline == nil || store == nil {
			m.IncWebhook(topic, "error")
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transform pipeline unavailable"))
			return
		}

		order, err := decodeOrder(r)
		if err != nil {
			m.IncWebhook(topic, "invalid")
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			ctx = logg.WithOrderID(ctx, order.Name)
		}

		lines := pipeline.TransformOrder(ctx, order)
		stored := store.Remember(order, lines)

		m.IncWebhook(topic, "ok")
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{"lines": len(lines), "status": string(stored.Status)})
			logg.Info(ctx, "order transformed")
		}
		responses.WriteSuccess(w, map[string]any{
			"order_id": stored.OrderID,
			"lines":    len(stored.Lines),
			"status":   stored.Status,
		})
	}
}

// OrdersCancelled handles orders/cancelled deliveries. Unknown order ids
// still get a cancelled record so the feed reports them.
func OrdersCancelled(store OrderStore, m *metrics.TransformMetrics, logg *logger.Logger) http.HandlerFunc {
	const topic = "orders/cancelled"
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if store == nil {
			m.IncWebhook(topic, "error")
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order store unavailable"))
			return
		}

		order, err := decodeOrder(r)
		if err != nil {
			m.IncWebhook(topic, "invalid")
			responses.WriteError(ctx, logg, w, err)
			return
		}

		stored := store.SetStatus(order.ID, orders.StatusCancelled)

		m.IncWebhook(topic, "ok")
		if logg != nil {
			ctx = logg.WithOrderID(ctx, order.Name)
			logg.Info(ctx, "order cancelled")
		}
		responses.WriteSuccess(w, map[string]any{
			"order_id": stored.OrderID,
			"status":   stored.Status,
		})
	}
}

func decodeOrder(r *http.Request) (types.Order, error) {
	defer io.Copy(io.Discard, r.Body)

	var order types.Order
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		return types.Order{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order payload")
	}
	if order.ID == 0 {
		return types.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return order, nil
}
