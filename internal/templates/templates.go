// internal/templates/templates.go
//
// Template lookup.
//
// Context
// -------
// The router never renders; it only needs to know which template ids and
// aliases exist so it can honour a trailing template segment, an
// ?altTemplate= parameter, or a node's default template.  Store is that
// read-only surface.  SQLStore reads the template table and memoises hits
// in two LRUs (by alias, by id); misses are not memoised so a freshly
// created template is visible on the next request.
//
// Notes
// -----
// • Aliases compare case-insensitively.
// • Oxford commas, two spaces after periods.
package templates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/contentrouter/internal/cache"
)

// ErrNotFound is returned for unknown aliases and ids.
var ErrNotFound = errors.New("templates: not found")

// Template identifies one renderable template.
type Template struct {
	ID    int    `db:"id"`
	Alias string `db:"alias"`
	Name  string `db:"name"`
}

// Store resolves templates by alias or id.
type Store interface {
	ByAlias(ctx context.Context, alias string) (*Template, error)
	ByID(ctx context.Context, id int) (*Template, error)
}

//
// Static store
//

// Static is an in-memory Store.
type Static struct {
	byAlias map[string]*Template
	byID    map[int]*Template
}

// NewStatic builds a Static store over ts.
func NewStatic(ts ...Template) *Static {
	s := &Static{byAlias: make(map[string]*Template), byID: make(map[int]*Template)}
	for i := range ts {
		t := ts[i]
		s.byAlias[strings.ToLower(t.Alias)] = &t
		s.byID[t.ID] = &t
	}
	return s
}

func (s *Static) ByAlias(_ context.Context, alias string) (*Template, error) {
	if t, ok := s.byAlias[strings.ToLower(strings.TrimSpace(alias))]; ok {
		return t, nil
	}
	return nil, ErrNotFound
}

func (s *Static) ByID(_ context.Context, id int) (*Template, error) {
	if t, ok := s.byID[id]; ok {
		return t, nil
	}
	return nil, ErrNotFound
}

//
// SQL store
//

const (
	qByAlias = `SELECT id, alias, name FROM template WHERE LOWER(alias) = ? LIMIT 1`
	qByID    = `SELECT id, alias, name FROM template WHERE id = ? LIMIT 1`
)

// SQLStore reads the template table.  Safe for concurrent use.
type SQLStore struct {
	db      *sqlx.DB
	byAlias *cache.LRU[string, *Template]
	byID    *cache.LRU[int, *Template]
}

// NewSQLStore returns a store memoising up to size templates per index.
func NewSQLStore(db *sqlx.DB, size int) *SQLStore {
	if size < 1 {
		size = 256
	}
	return &SQLStore{
		db:      db,
		byAlias: cache.New[string, *Template](size),
		byID:    cache.New[int, *Template](size),
	}
}

// ByAlias returns the template with alias.
func (s *SQLStore) ByAlias(ctx context.Context, alias string) (*Template, error) {
	key := strings.ToLower(strings.TrimSpace(alias))
	if key == "" {
		return nil, ErrNotFound
	}
	if t, ok := s.byAlias.Get(key); ok {
		return t, nil
	}
	return s.load(ctx, qByAlias, key)
}

// ByID returns the template with id.
func (s *SQLStore) ByID(ctx context.Context, id int) (*Template, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	if t, ok := s.byID.Get(id); ok {
		return t, nil
	}
	return s.load(ctx, qByID, id)
}

func (s *SQLStore) load(ctx context.Context, q string, arg any) (*Template, error) {
	var t Template
	if err := s.db.GetContext(ctx, &t, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("template lookup: %w", err)
	}
	s.byAlias.Add(strings.ToLower(t.Alias), &t)
	s.byID.Add(t.ID, &t)
	return &t, nil
}

// Purge drops every memoised template.
func (s *SQLStore) Purge() {
	s.byAlias.Purge()
	s.byID.Purge()
}
