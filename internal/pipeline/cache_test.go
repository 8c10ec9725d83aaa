package pipeline

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/aforos-dashboard/internal/domain"
	"github.com/couchcryptid/aforos-dashboard/internal/observability"
)

// --- mock for cache tests ---

type countingDeriver struct {
	mu    sync.Mutex
	calls map[domain.ViewName]int
}

func newCountingDeriver() *countingDeriver {
	return &countingDeriver{calls: make(map[domain.ViewName]int)}
}

func (m *countingDeriver) Derive(name domain.ViewName, state domain.FilterState) domain.View {
	m.mu.Lock()
	m.calls[name]++
	m.mu.Unlock()

	switch name {
	case domain.ViewFilteredRows:
		return domain.RowsView{Year: state.Year, Month: state.Month}
	case domain.ViewHistoricalSeries:
		return domain.SeriesView{VehicleType: state.VehicleType}
	case domain.ViewAnnualSummary:
		return domain.SummaryView{Year: state.Year}
	default:
		return nil
	}
}

func (m *countingDeriver) count(name domain.ViewName) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func newTestCache(t *testing.T, inner Deriver, size int) *CachedDeriver {
	t.Helper()
	g, err := NewGraph()
	require.NoError(t, err)
	return NewCachedDeriver(inner, g, size, observability.NewMetricsForTesting())
}

// --- CachedDeriver tests ---

func TestCachedDeriver_Hit(t *testing.T) {
	inner := newCountingDeriver()
	cached := newTestCache(t, inner, 10)
	state := domain.FilterState{Year: 2023, Month: 5, VehicleType: domain.VehicleAutos}

	v1 := cached.Derive(domain.ViewAnnualSummary, state)
	v2 := cached.Derive(domain.ViewAnnualSummary, state)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, inner.count(domain.ViewAnnualSummary), "should only call inner once")
}

func TestCachedDeriver_KeyIgnoresUnrelatedInputs(t *testing.T) {
	inner := newCountingDeriver()
	cached := newTestCache(t, inner, 10)

	cached.Derive(domain.ViewAnnualSummary, domain.FilterState{Year: 2023, Month: 1, VehicleType: domain.VehicleAutos})
	cached.Derive(domain.ViewAnnualSummary, domain.FilterState{Year: 2023, Month: 7, VehicleType: domain.VehicleMotos})
	assert.Equal(t, 1, inner.count(domain.ViewAnnualSummary))

	cached.Derive(domain.ViewHistoricalSeries, domain.FilterState{Year: 2021, VehicleType: domain.VehicleMotos})
	cached.Derive(domain.ViewHistoricalSeries, domain.FilterState{Year: 2023, VehicleType: domain.VehicleMotos})
	assert.Equal(t, 1, inner.count(domain.ViewHistoricalSeries))

	cached.Derive(domain.ViewFilteredRows, domain.FilterState{Year: 2023, Month: 1})
	cached.Derive(domain.ViewFilteredRows, domain.FilterState{Year: 2023, Month: 2})
	assert.Equal(t, 2, inner.count(domain.ViewFilteredRows))
}

func TestCachedDeriver_UnknownViewBypassesCache(t *testing.T) {
	inner := newCountingDeriver()
	cached := newTestCache(t, inner, 10)

	assert.Nil(t, cached.Derive("nope", domain.FilterState{}))
	assert.Nil(t, cached.Derive("nope", domain.FilterState{}))
	assert.Equal(t, 2, inner.count("nope"))
	assert.Equal(t, 0, cached.cache.size())
}

func TestCachedDeriver_Key(t *testing.T) {
	cached := newTestCache(t, newCountingDeriver(), 10)
	state := domain.FilterState{Year: 2023, Month: 5, VehicleType: domain.VehicleBus2Axles}

	key, err := cached.key(domain.ViewFilteredRows, state)
	require.NoError(t, err)
	assert.Equal(t, "filtered_rows|month=5|year=2023", key)

	key, err = cached.key(domain.ViewHistoricalSeries, state)
	require.NoError(t, err)
	assert.Equal(t, "historical_series|vehicle_type=AUTOBUS DE 2 EJES", key)
}

// --- lruCache tests ---

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache[domain.View](2)
	c.put("a", domain.SummaryView{Year: 1})
	c.put("b", domain.SummaryView{Year: 2})

	// Touch "a" so "b" becomes least recently used.
	_, ok := c.get("a")
	require.True(t, ok)

	c.put("c", domain.SummaryView{Year: 3})

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = c.get("a")
	assert.True(t, ok)
	_, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.size())
}

func TestLRUCache_Update(t *testing.T) {
	c := newLRUCache[domain.View](2)
	c.put("a", domain.SummaryView{Year: 1})
	c.put("a", domain.SummaryView{Year: 9})

	v, ok := c.get("a")
	require.True(t, ok)
	assert.Equal(t, domain.SummaryView{Year: 9}, v)
	assert.Equal(t, 1, c.size())
}

func TestLRUCache_MinimumSize(t *testing.T) {
	c := newLRUCache[domain.View](0)
	c.put("a", domain.SummaryView{Year: 1})
	c.put("b", domain.SummaryView{Year: 2})
	assert.Equal(t, 1, c.size())
}

func TestLRUCache_MissReturnsZeroValue(t *testing.T) {
	c := newLRUCache[int](1)
	v, ok := c.get("absent")
	assert.False(t, ok)
	assert.Zero(t, v)

	c.put("a", 1)
	c.put("b", 2)
	_, ok = c.get("a")
	assert.False(t, ok)
	v, ok = c.get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}
