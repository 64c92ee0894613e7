package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipfeedhq/shipfeed-backend/pkg/types"
)

func testOrder(id int64, name string) types.Order {
	return types.Order{ID: id, Name: name}
}

func testLines(n int) []types.OutputLine {
	lines := make([]types.OutputLine, n)
	for i := range lines {
		lines[i] = types.OutputLine{ID: "line", Quantity: 1}
	}
	return lines
}

func TestRememberAndGet(t *testing.T) {
	t.Parallel()

	store := NewStore(10)
	store.Remember(testOrder(1, "#1001"), testLines(2))

	stored, ok := store.Get(1)
	require.True(t, ok)
	assert.Equal(t, "1001", stored.Number, "leading # must be stripped")
	assert.Equal(t, StatusAwaitingShipment, stored.Status)
	assert.Len(t, stored.Lines, 2)
}

func TestBestVersionReplacement(t *testing.T) {
	t.Parallel()

	store := NewStore(10)
	store.Remember(testOrder(1, "#1001"), testLines(3))

	// A leaner retransform must not clobber the richer remembered version.
	store.Remember(testOrder(1, "#1001"), testLines(1))
	stored, ok := store.Get(1)
	require.True(t, ok)
	assert.Len(t, stored.Lines, 3)

	// An equally or more complete transform replaces.
	store.Remember(testOrder(1, "#1001"), testLines(3))
	store.Remember(testOrder(1, "#1001"), testLines(4))
	stored, _ = store.Get(1)
	assert.Len(t, stored.Lines, 4)
}

func TestHistoryEvictionKeepsBestVersion(t *testing.T) {
	t.Parallel()

	store := NewStore(2)
	store.Remember(testOrder(1, "#1"), testLines(2))
	store.Remember(testOrder(2, "#2"), testLines(1))
	store.Remember(testOrder(3, "#3"), testLines(1))

	// Order 1 fell out of the bounded history but its best version survives.
	_, ok := store.Get(1)
	assert.True(t, ok, "best version must survive history eviction")

	latest, ok := store.Latest()
	require.True(t, ok)
	assert.Equal(t, int64(3), latest.OrderID)
}

func TestSetStatusOnKnownOrder(t *testing.T) {
	t.Parallel()

	store := NewStore(10)
	store.Remember(testOrder(1, "#1001"), testLines(2))

	stored := store.SetStatus(1, StatusCancelled)
	assert.Equal(t, StatusCancelled, stored.Status)
	assert.Len(t, stored.Lines, 2, "status change must not discard lines")
}

func TestSetStatusSynthesizesUnknownOrder(t *testing.T) {
	t.Parallel()

	store := NewStore(10)
	stored := store.SetStatus(77, StatusCancelled)

	assert.Equal(t, int64(77), stored.OrderID)
	assert.Equal(t, StatusCancelled, stored.Status)
	assert.Empty(t, stored.Lines)

	got, ok := store.Get(77)
	require.True(t, ok, "stub must be retrievable")
	assert.Equal(t, StatusCancelled, got.Status)
}

func TestStatusSticksAcrossLaterRemember(t *testing.T) {
	t.Parallel()

	store := NewStore(10)
	store.SetStatus(1, StatusCancelled)

	// The create webhook arriving after the cancellation must not resurrect
	// the order.
	stored := store.Remember(testOrder(1, "#1001"), testLines(2))
	assert.Equal(t, StatusCancelled, stored.Status)
}

func TestFindByNumber(t *testing.T) {
	t.Parallel()

	store := NewStore(10)
	store.Remember(testOrder(1, "#1001"), testLines(1))

	_, ok := store.FindByNumber("1001")
	assert.True(t, ok)
	_, ok = store.FindByNumber("#1001")
	assert.True(t, ok)
	_, ok = store.FindByNumber("9999")
	assert.False(t, ok)
	_, ok = store.FindByNumber("")
	assert.False(t, ok)
}

func TestRecentFiltersAndLimits(t *testing.T) {
	t.Parallel()

	store := NewStore(10)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	store.now = func() time.Time { return clock }

	store.Remember(testOrder(1, "#1"), testLines(1))
	clock = base.Add(time.Hour)
	store.Remember(testOrder(2, "#2"), testLines(1))
	clock = base.Add(2 * time.Hour)
	store.Remember(testOrder(3, "#3"), testLines(1))

	recent := store.Recent(time.Time{}, 10)
	require.Len(t, recent, 3)
	assert.Equal(t, int64(3), recent[0].OrderID, "newest first")

	recent = store.Recent(base.Add(30*time.Minute), 10)
	assert.Len(t, recent, 2)

	recent = store.Recent(time.Time{}, 1)
	require.Len(t, recent, 1)
	assert.Equal(t, int64(3), recent[0].OrderID)

	assert.Nil(t, store.Recent(time.Time{}, 0))
}

func TestRecentOrdersEvictedHistoryNewestFirst(t *testing.T) {
	t.Parallel()

	store := NewStore(1)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	store.now = func() time.Time { return clock }

	store.Remember(testOrder(1, "#1"), testLines(1))
	clock = base.Add(time.Hour)
	store.Remember(testOrder(2, "#2"), testLines(1))
	clock = base.Add(2 * time.Hour)
	store.Remember(testOrder(3, "#3"), testLines(1))

	// Orders 1 and 2 only survive in the best-version map; their relative
	// order must stay stable call after call.
	for i := 0; i < 5; i++ {
		recent := store.Recent(time.Time{}, 10)
		require.Len(t, recent, 3)
		assert.Equal(t, int64(3), recent[0].OrderID)
		assert.Equal(t, int64(2), recent[1].OrderID)
		assert.Equal(t, int64(1), recent[2].OrderID)
	}
}

func TestLen(t *testing.T) {
	t.Parallel()

	store := NewStore(2)
	store.Remember(testOrder(1, "#1"), nil)
	store.Remember(testOrder(1, "#1"), nil)
	store.Remember(testOrder(2, "#2"), nil)
	store.Remember(testOrder(3, "#3"), nil)

	assert.Equal(t, 3, store.Len())
}
