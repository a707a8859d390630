// internal/acl/rules.go
//
// Public-access rules consulted by the router.
//
// A node is protected when it, or any ancestor, carries an Entry; the
// deepest entry on the path wins.  A logged-in member has access when one
// of its roles, or its username, is listed by that entry.
package acl

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/contentrouter/internal/auth"
)

// Entry protects one node and its descendants.
type Entry struct {
	NodeID         int
	LoginNodeID    int
	NoAccessNodeID int
	Roles          []string
	Members        []string
}

// Rules holds the current entries.  Safe for concurrent use.
type Rules struct {
	mu     sync.RWMutex
	byNode map[int]Entry
}

// NewRules returns Rules over entries.
func NewRules(entries ...Entry) *Rules {
	r := &Rules{}
	r.Set(entries)
	return r
}

// Set replaces every entry.
func (r *Rules) Set(entries []Entry) {
	m := make(map[int]Entry, len(entries))
	for _, e := range entries {
		m[e.NodeID] = e
	}
	r.mu.Lock()
	r.byNode = m
	r.mu.Unlock()
}

// Reload replaces the entries with those stored in db.
func (r *Rules) Reload(ctx context.Context, db *sqlx.DB) error {
	entries, err := LoadEntries(ctx, db)
	if err != nil {
		return err
	}
	r.Set(entries)
	zap.L().Debug("public access load", zap.Int("entries", len(entries)))
	return nil
}

// IsProtected returns the deepest entry on path ("-1,1000,1007,1008").
func (r *Rules) IsProtected(path string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	parts := strings.Split(path, ",")
	for i := len(parts) - 1; i >= 0; i-- {
		id, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || id <= 0 {
			continue
		}
		if e, ok := r.byNode[id]; ok {
			return e, true
		}
	}
	return Entry{}, false
}

// HasAccess reports whether m may see the node at path.  Unprotected paths
// are always accessible.
func (r *Rules) HasAccess(path string, m auth.Member) bool {
	e, ok := r.IsProtected(path)
	if !ok {
		return true
	}
	for _, role := range e.Roles {
		if m.HasRole(role) {
			return true
		}
	}
	for _, name := range e.Members {
		if m.Username != "" && strings.EqualFold(name, m.Username) {
			return true
		}
	}
	return false
}
