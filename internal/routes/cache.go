// internal/routes/cache.go
//
// Bidirectional routes cache.
//
// Context
// -------
// The nice-URL finder maps route → node id and the default URL provider maps
// node id → route.  Both directions walk the content tree, so the results are
// memoised here.  The two maps are always updated together under one write
// lock: storing (id, route) evicts any stale partner on either side, so
// NodeID(Route(id)) == id and Route(NodeID(r)) == r hold until either side is
// cleared.
//
// Workflow
// --------
//  1. One *Cache is built at startup and injected into the finders and the
//     URL providers.
//  2. content.Snapshot calls Clear whenever the published tree is refreshed.
//     There is no partial invalidation; staleness lasts until the next
//     content change.
//
// Notes
// -----
// • Entries are scoped by culture because URL segments can vary by culture.
// • Readers never block each other (sync.RWMutex).
// • Oxford commas, two spaces after periods.
package routes

import (
	"sync"

	"github.com/yanizio/contentrouter/internal/metrics"
)

type idKey struct {
	id      int
	culture string
}

type routeKey struct {
	route   string
	culture string
}

// Cache stores id↔route pairs.  The zero value is unusable; construct with
// NewCache.
type Cache struct {
	mu      sync.RWMutex
	routes  map[idKey]string
	nodeIDs map[routeKey]int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		routes:  make(map[idKey]string),
		nodeIDs: make(map[routeKey]int),
	}
}

// Store records that node id is reachable through route for culture.
func (c *Cache) Store(id int, culture, route string) {
	if id <= 0 || route == "" {
		return
	}
	ik := idKey{id, culture}
	rk := routeKey{route, culture}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.routes[ik]; ok && old != route {
		delete(c.nodeIDs, routeKey{old, culture})
	}
	if oldID, ok := c.nodeIDs[rk]; ok && oldID != id {
		delete(c.routes, idKey{oldID, culture})
	}
	c.routes[ik] = route
	c.nodeIDs[rk] = id
}

// Route returns the cached route for id, or "" on a miss.
func (c *Cache) Route(id int, culture string) string {
	c.mu.RLock()
	r, ok := c.routes[idKey{id, culture}]
	c.mu.RUnlock()
	observe(ok)
	return r
}

// NodeID returns the cached node id for route, or 0 on a miss.
func (c *Cache) NodeID(route, culture string) int {
	c.mu.RLock()
	id, ok := c.nodeIDs[routeKey{route, culture}]
	c.mu.RUnlock()
	observe(ok)
	return id
}

// ClearNode drops every entry of node id, in every culture.
func (c *Cache) ClearNode(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, r := range c.routes {
		if k.id != id {
			continue
		}
		delete(c.nodeIDs, routeKey{r, k.culture})
		delete(c.routes, k)
	}
}

// Clear drops everything.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.routes = make(map[idKey]string)
	c.nodeIDs = make(map[routeKey]int)
	c.mu.Unlock()
	metrics.RoutesCacheClearsTotal.Inc()
}

// Len reports the number of id→route entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.routes)
}

func observe(hit bool) {
	if hit {
		metrics.RoutesCacheHitsTotal.Inc()
		return
	}
	metrics.RoutesCacheMissesTotal.Inc()
}
