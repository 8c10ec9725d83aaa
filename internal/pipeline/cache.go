package pipeline

import (
	"container/list"
	"fmt"
	"strings"
	"sync"

	"github.com/couchcryptid/aforos-dashboard/internal/domain"
	"github.com/couchcryptid/aforos-dashboard/internal/observability"
)

// CachedDeriver memoises a Deriver in an LRU keyed by the view name and the
// values of only the inputs that view depends on. Views are pure functions of
// those inputs over an immutable dataset, so entries never go stale.
// Cached views are shared; callers must not modify them.
type CachedDeriver struct {
	inner   Deriver
	graph   *Graph
	cache   *lruCache[domain.View]
	metrics *observability.Metrics
}

// NewCachedDeriver creates a cache decorator around a deriver.
func NewCachedDeriver(inner Deriver, graph *Graph, maxEntries int, metrics *observability.Metrics) *CachedDeriver {
	return &CachedDeriver{
		inner:   inner,
		graph:   graph,
		cache:   newLRUCache[domain.View](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedDeriver) Derive(name domain.ViewName, state domain.FilterState) domain.View {
	key, err := c.key(name, state)
	if err != nil {
		return c.inner.Derive(name, state)
	}
	if view, ok := c.cache.get(key); ok {
		c.metrics.ViewCache.WithLabelValues(string(name), "hit").Inc()
		return view
	}
	c.metrics.ViewCache.WithLabelValues(string(name), "miss").Inc()

	view := c.inner.Derive(name, state)
	if view != nil {
		c.cache.put(key, view)
	}
	return view
}

// key renders e.g. "annual_summary|year=2023". The dataset input is constant
// for the process lifetime and is left out.
func (c *CachedDeriver) key(name domain.ViewName, state domain.FilterState) (string, error) {
	inputs, err := c.graph.Inputs(name)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(string(name))
	for _, in := range inputs {
		switch in {
		case domain.InputYear:
			fmt.Fprintf(&b, "|year=%d", state.Year)
		case domain.InputMonth:
			fmt.Fprintf(&b, "|month=%d", state.Month)
		case domain.InputVehicleType:
			fmt.Fprintf(&b, "|vehicle_type=%s", state.VehicleType)
		}
	}
	return b.String(), nil
}

// lruCache is a size-bounded, thread-safe LRU. Entries have no TTL because
// cached views never go stale.
type lruCache[V any] struct {
	mu         sync.Mutex
	maxEntries int
	items      map[string]*list.Element
	order      *list.List // front is most recently used
}

type lruItem[V any] struct {
	key   string
	value V
}

// newLRUCache creates a cache holding at least one entry.
func newLRUCache[V any](maxEntries int) *lruCache[V] {
	return &lruCache[V]{
		maxEntries: max(maxEntries, 1),
		items:      make(map[string]*list.Element),
		order:      list.New(),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*lruItem[V]).value, true
}

func (c *lruCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value.(*lruItem[V]).value = value
		c.order.MoveToFront(elem)
		return
	}

	c.items[key] = c.order.PushFront(&lruItem[V]{key: key, value: value})
	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		delete(c.items, oldest.Value.(*lruItem[V]).key)
		c.order.Remove(oldest)
	}
}

func (c *lruCache[V]) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
