package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shipfeedhq/shipfeed-backend/internal/feed"
	"github.com/shipfeedhq/shipfeed-backend/internal/orders"
	"github.com/shipfeedhq/shipfeed-backend/pkg/config"
	"github.com/shipfeedhq/shipfeed-backend/pkg/types"
)

type stubFeedStore struct {
	orders   map[int64]orders.StoredOrder
	statuses map[int64]orders.Status
}

func newStubFeedStore(stored ...orders.StoredOrder) *stubFeedStore {
	s := &stubFeedStore{
		orders:   make(map[int64]orders.StoredOrder),
		statuses: make(map[int64]orders.Status),
	}
	for _, so := range stored {
		s.orders[so.OrderID] = so
	}
	return s
}

func (s *stubFeedStore) Get(orderID int64) (orders.StoredOrder, bool) {
	so, ok := s.orders[orderID]
	return so, ok
}

func (s *stubFeedStore) Latest() (orders.StoredOrder, bool) {
	var latest orders.StoredOrder
	found := false
	for _, so := range s.orders {
		if !found || so.UpdatedAt.After(latest.UpdatedAt) {
			latest = so
			found = true
		}
	}
	return latest, found
}

func (s *stubFeedStore) FindByNumber(number string) (orders.StoredOrder, bool) {
	wanted := strings.TrimPrefix(number, "#")
	for _, so := range s.orders {
		if so.Number == wanted {
			return so, true
		}
	}
	return orders.StoredOrder{}, false
}

func (s *stubFeedStore) Recent(since time.Time, limit int) []orders.StoredOrder {
	var out []orders.StoredOrder
	for _, so := range s.orders {
		if !since.IsZero() && so.UpdatedAt.Before(since) {
			continue
		}
		if len(out) < limit {
			out = append(out, so)
		}
	}
	return out
}

func (s *stubFeedStore) SetStatus(orderID int64, status orders.Status) orders.StoredOrder {
	s.statuses[orderID] = status
	so := s.orders[orderID]
	so.OrderID = orderID
	so.Status = status
	s.orders[orderID] = so
	return so
}

func feedFixture() orders.StoredOrder {
	price, _ := decimal.NewFromString("12.50")
	return orders.StoredOrder{
		OrderID: 42,
		Number:  "1001",
		Status:  orders.StatusAwaitingShipment,
		Order:   types.Order{ID: 42, Name: "#1001", CreatedAt: "2026-03-05T14:30:00Z"},
		Lines: []types.OutputLine{
			{ID: "1", Title: "Mug", Quantity: 2, UnitPrice: price},
		},
		ReceivedAt: time.Date(2026, 3, 5, 14, 31, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2026, 3, 5, 14, 31, 0, 0, time.UTC),
	}
}

func feedConfig() config.FeedConfig {
	return config.FeedConfig{Username: "u", Password: "p", SKUPrefix: "SF", PageSize: 100}
}

func serveFeed(t *testing.T, store FeedStore, target string) *httptest.ResponseRecorder {
	t.Helper()
	cfg := feedConfig()
	handler := ShipStation(store, feed.NewSerializer(cfg), cfg, nil)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestShipStationTest(t *testing.T) {
	t.Parallel()

	rec := serveFeed(t, newStubFeedStore(), "/shipstation?action=test")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<Status><![CDATA[ok]]></Status>") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestShipStationExport(t *testing.T) {
	t.Parallel()

	rec := serveFeed(t, newStubFeedStore(feedFixture()), "/shipstation?action=export")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
		t.Fatalf("unexpected cache control %q", cc)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<OrderNumber><![CDATA[1001]]></OrderNumber>") {
		t.Fatalf("feed missing order\n%s", body)
	}
	if !strings.Contains(body, "<OrderTotal>25.00</OrderTotal>") {
		t.Fatalf("feed missing total\n%s", body)
	}
}

func TestShipStationExportByOrderID(t *testing.T) {
	t.Parallel()

	store := newStubFeedStore(feedFixture())
	rec := serveFeed(t, store, "/shipstation?action=export&order_id=42")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = serveFeed(t, store, "/shipstation?action=export&order_id=999")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", rec.Code)
	}

	rec = serveFeed(t, store, "/shipstation?action=export&order_id=abc")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
}

func TestShipStationExportStartDateFilter(t *testing.T) {
	t.Parallel()

	store := newStubFeedStore(feedFixture())

	// Lenient mode swallows a malformed date and serves everything.
	rec := serveFeed(t, store, "/shipstation?action=export&start_date=garbage")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	// A start date after the order's update hides it.
	rec = serveFeed(t, store, "/shipstation?action=export&start_date=03%2F06%2F2026%2000%3A00")
	if strings.Contains(rec.Body.String(), "<OrderNumber><![CDATA[1001]]></OrderNumber>") {
		t.Fatalf("expected filtered feed\n%s", rec.Body.String())
	}

	// So does an end date before it.
	rec = serveFeed(t, store, "/shipstation?action=export&end_date=03%2F04%2F2026%2000%3A00")
	if strings.Contains(rec.Body.String(), "<OrderNumber><![CDATA[1001]]></OrderNumber>") {
		t.Fatalf("expected end_date to filter\n%s", rec.Body.String())
	}

	// A window spanning the update keeps it.
	rec = serveFeed(t, store, "/shipstation?action=export&start_date=03%2F05%2F2026%2000%3A00&end_date=03%2F06%2F2026%2000%3A00")
	if !strings.Contains(rec.Body.String(), "<OrderNumber><![CDATA[1001]]></OrderNumber>") {
		t.Fatalf("expected windowed feed to include order\n%s", rec.Body.String())
	}
}

func TestShipStationStrictDates(t *testing.T) {
	t.Parallel()

	cfg := feedConfig()
	cfg.StrictDates = true
	handler := ShipStation(newStubFeedStore(), feed.NewSerializer(cfg), cfg, nil)

	req := httptest.NewRequest(http.MethodGet, "/shipstation?action=export&start_date=garbage", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("strict mode expected 400, got %d", rec.Code)
	}
}

func TestShipStationShipNotify(t *testing.T) {
	t.Parallel()

	store := newStubFeedStore(feedFixture())
	rec := serveFeed(t, store, "/shipstation?action=shipnotify&order_number=1001")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if store.statuses[42] != orders.StatusShipped {
		t.Fatalf("expected shipped, got %q", store.statuses[42])
	}

	rec = serveFeed(t, store, "/shipstation?action=shipnotify")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without order_number, got %d", rec.Code)
	}
}

func TestShipStationUnknownAction(t *testing.T) {
	t.Parallel()

	rec := serveFeed(t, newStubFeedStore(), "/shipstation?action=reboot")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
