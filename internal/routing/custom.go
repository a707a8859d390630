// internal/routing/custom.go
//
// Custom-route table and middleware.
//
// Context
// -------
// Some paths are bound to a node directly instead of being resolved by the
// finders: campaign URLs, vanity paths, or paths owned by another system
// that still render CMS content.  The table merges the custom_routes
// configuration list with the optional custom_route table, is reloaded
// after its TTL, and feeds the custom-route URL provider so those paths
// also become the nodes' URLs.
//
// Workflow
// --------
//  1. cmd/web builds the table with NewCustomRoutes and calls Load once.
//  2. Middleware runs early in the chi chain; on a hit it stores the node
//     id in the request context.
//  3. Handler pre-assigns that node, so the engine skips the finders.
//
// Notes
// -----
// • A missing custom_route table (not migrated yet) is not an error.
// • Oxford commas, two spaces after periods.
package routing

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/contentrouter/internal/urls"
)

const qCustomRoutes = `SELECT path, content_id FROM custom_route ORDER BY sort_order, path`

// -----------------------------------------------------------------------------
// CustomRoutes
// -----------------------------------------------------------------------------

// CustomRoutes stores path→node pairs plus TTL state.  Zero value is
// unusable; construct with NewCustomRoutes.
type CustomRoutes struct {
	mu       sync.RWMutex
	data     map[string]int
	loadedAt time.Time
	ttl      time.Duration

	static   []urls.CustomRoute
	db       *sql.DB
	provider *urls.CustomRouteProvider
}

// NewCustomRoutes returns an empty table.  db and provider may be nil.
func NewCustomRoutes(db *sql.DB, ttl time.Duration, static []urls.CustomRoute, provider *urls.CustomRouteProvider) *CustomRoutes {
	return &CustomRoutes{
		data:     map[string]int{},
		ttl:      ttl,
		static:   append([]urls.CustomRoute(nil), static...),
		db:       db,
		provider: provider,
	}
}

// Load rebuilds the table from configuration and custom_route.
func (c *CustomRoutes) Load(ctx context.Context) error {
	all := append([]urls.CustomRoute(nil), c.static...)
	if c.db != nil {
		rows, err := c.db.QueryContext(ctx, qCustomRoutes)
		switch {
		case isUnknownTable(err):
			zap.L().Debug("custom_route table missing, using configuration only")
		case err != nil:
			return err
		default:
			defer rows.Close()
			for rows.Next() {
				var r urls.CustomRoute
				if err := rows.Scan(&r.Path, &r.ContentID); err != nil {
					return err
				}
				all = append(all, r)
			}
			if err := rows.Err(); err != nil {
				return err
			}
		}
	}

	fresh := make(map[string]int, len(all))
	for _, r := range all {
		if r.ContentID <= 0 {
			continue
		}
		p := strings.ToLower(urls.CleanPath(r.Path))
		if _, dup := fresh[p]; !dup {
			fresh[p] = r.ContentID
		}
	}

	c.mu.Lock()
	c.data = fresh
	c.loadedAt = time.Now()
	c.mu.Unlock()

	if c.provider != nil {
		c.provider.Set(all)
	}
	zap.L().Debug("custom routes load", zap.Int("count", len(fresh)))
	return nil
}

// Lookup returns the node bound to path.
func (c *CustomRoutes) Lookup(path string) (int, bool) {
	c.mu.RLock()
	id, ok := c.data[strings.ToLower(urls.CleanPath(path))]
	c.mu.RUnlock()
	return id, ok
}

// Len reports the number of paths.
func (c *CustomRoutes) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *CustomRoutes) needsRefresh() bool {
	if c.ttl <= 0 {
		return false
	}
	c.mu.RLock()
	stale := time.Since(c.loadedAt) > c.ttl
	c.mu.RUnlock()
	return stale
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

type contentIDKey struct{}

// WithContentID returns ctx carrying a pre-assigned node id.
func WithContentID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, contentIDKey{}, id)
}

// ContentIDFrom returns the pre-assigned node id, or 0.
func ContentIDFrom(ctx context.Context) int {
	id, _ := ctx.Value(contentIDKey{}).(int)
	return id
}

// Middleware tags requests for custom paths with their node id.
func Middleware(c *CustomRoutes) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c.needsRefresh() {
				if err := c.Load(r.Context()); err != nil {
					zap.L().Warn("custom routes reload failed", zap.Error(err))
				}
			}

			if id, ok := c.Lookup(r.URL.Path); ok {
				zap.L().Debug("custom route",
					zap.String("path", r.URL.Path),
					zap.Int("node", id))
				r = r.WithContext(WithContentID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// isUnknownTable recognises MariaDB (error 1146) and Postgres (42P01)
// "table does not exist" errors without importing driver-specific types.
func isUnknownTable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "1146") || strings.Contains(msg, "42P01")
}
