package orders

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shipfeedhq/shipfeed-backend/pkg/types"
)

// Status is the fulfillment state a stored order reports to the feed.
type Status string

const (
	StatusAwaitingShipment Status = "awaiting_shipment"
	StatusAwaitingPayment  Status = "awaiting_payment"
	StatusOnHold           Status = "on_hold"
	StatusShipped          Status = "shipped"
	StatusCancelled        Status = "cancelled"
)

// StoredOrder is one remembered transform result. Lines may be empty when the
// order was only ever seen through a cancellation.
type StoredOrder struct {
	OrderID    int64
	Number     string
	Order      types.Order
	Lines      []types.OutputLine
	Status     Status
	ReceivedAt time.Time
	UpdatedAt  time.Time
}

// Store keeps recent transform results in memory: a bounded FIFO history of
// every delivery plus a per-order "best version" that survives eviction. All
// operations are atomic with respect to each other.
type Store struct {
	capacity int
	now      func() time.Time

	mu      sync.RWMutex
	history []*StoredOrder // newest first
	best    map[int64]*StoredOrder
	status  map[int64]Status
}

// NewStore builds a store holding at most capacity history entries. A
// non-positive capacity falls back to 1.
func NewStore(capacity int) *Store {
	if capacity < 1 {
		capacity = 1
	}
	return &Store{
		capacity: capacity,
		now:      time.Now,
		best:     make(map[int64]*StoredOrder),
		status:   make(map[int64]Status),
	}
}

// Remember records one transform result. The best version for the order id is
// replaced when the new line list is at least as complete as the remembered
// one; a retried webhook carrying fewer lines never clobbers a richer
// earlier transform.
func (s *Store) Remember(order types.Order, lines []types.OutputLine) StoredOrder {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stored := &StoredOrder{
		OrderID:    order.ID,
		Number:     strings.TrimPrefix(order.Name, "#"),
		Order:      order,
		Lines:      lines,
		Status:     s.statusFor(order.ID),
		ReceivedAt: now,
		UpdatedAt:  now,
	}

	s.history = append([]*StoredOrder{stored}, s.history...)
	if len(s.history) > s.capacity {
		s.history = s.history[:s.capacity]
	}

	if existing, ok := s.best[order.ID]; !ok || len(lines) >= len(existing.Lines) {
		s.best[order.ID] = stored
	} else {
		existing.UpdatedAt = now
		existing.Status = stored.Status
	}
	return *s.best[order.ID]
}

// SetStatus marks an order's status. An id never seen by Remember gets a
// synthesized record with no lines so status-only webhooks (a cancellation
// arriving before, or without, a create) are not lost.
func (s *Store) SetStatus(orderID int64, status Status) StoredOrder {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status[orderID] = status
	if existing, ok := s.best[orderID]; ok {
		existing.Status = status
		existing.UpdatedAt = s.now()
		return *existing
	}

	now := s.now()
	stub := &StoredOrder{
		OrderID:    orderID,
		Status:     status,
		ReceivedAt: now,
		UpdatedAt:  now,
	}
	s.best[orderID] = stub
	s.history = append([]*StoredOrder{stub}, s.history...)
	if len(s.history) > s.capacity {
		s.history = s.history[:s.capacity]
	}
	return *stub
}

// Get returns the best remembered version of an order.
func (s *Store) Get(orderID int64) (StoredOrder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.best[orderID]
	if !ok {
		return StoredOrder{}, false
	}
	return *stored, true
}

// Latest returns the most recently remembered order, if any.
func (s *Store) Latest() (StoredOrder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.history) == 0 {
		return StoredOrder{}, false
	}
	return *s.history[0], true
}

// FindByNumber looks up an order by display number, ignoring any leading "#".
func (s *Store) FindByNumber(number string) (StoredOrder, bool) {
	wanted := strings.TrimPrefix(strings.TrimSpace(number), "#")
	if wanted == "" {
		return StoredOrder{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, stored := range s.best {
		if stored.Number == wanted {
			return *stored, true
		}
	}
	return StoredOrder{}, false
}

// Recent returns up to limit best versions updated at or after since, newest
// first. A zero since returns everything remembered, subject to the limit.
func (s *Store) Recent(since time.Time, limit int) []StoredOrder {
	if limit < 1 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]StoredOrder, 0, min(limit, len(s.best)))
	seen := make(map[int64]bool, len(s.best))
	for _, stored := range s.history {
		best, ok := s.best[stored.OrderID]
		if !ok || seen[stored.OrderID] {
			continue
		}
		seen[stored.OrderID] = true
		if !since.IsZero() && best.UpdatedAt.Before(since) {
			continue
		}
		out = append(out, *best)
		if len(out) == limit {
			return out
		}
	}

	// Best versions can outlive their history entries; sweep the remainder,
	// sorted so page order stays stable across calls.
	var overflow []*StoredOrder
	for id, best := range s.best {
		if seen[id] {
			continue
		}
		if !since.IsZero() && best.UpdatedAt.Before(since) {
			continue
		}
		overflow = append(overflow, best)
	}
	sort.Slice(overflow, func(i, j int) bool {
		return overflow[i].UpdatedAt.After(overflow[j].UpdatedAt)
	})
	for _, best := range overflow {
		out = append(out, *best)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Len reports how many distinct orders the store remembers.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.best)
}

func (s *Store) statusFor(orderID int64) Status {
	if status, ok := s.status[orderID]; ok {
		return status
	}
	return StatusAwaitingShipment
}
