// internal/redirects/redirects.go
//
// Redirect-URL history.
//
// Context
// -------
// When a node is renamed or moved its old route is recorded against the
// node key.  The redirect finder later turns a request for the old route
// into a permanent redirect to the node's current URL.  Routes use the
// same "{rootId}/path" format as the routes cache, so history survives
// domain changes as long as the root stays the same.
//
// Schema
// ------
//
//	redirect_url (id CHAR(36) PK, content_key CHAR(36), culture VARCHAR,
//	              url VARCHAR, create_date DATETIME)
//
// An entry with an empty culture matches every culture.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package redirects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/contentrouter/internal/culture"
)

// RedirectURL is one recorded old route of a node.
type RedirectURL struct {
	ID         uuid.UUID
	ContentKey uuid.UUID
	ContentID  int
	Culture    string
	Route      string
	CreatedAt  time.Time
}

// Store is the redirect history collaborator.
type Store interface {
	// MostRecent returns the newest entry for route and culture, or nil.
	MostRecent(ctx context.Context, route, culture string) (*RedirectURL, error)
	// Register records route as an old route of contentKey.
	Register(ctx context.Context, route string, contentKey uuid.UUID, culture string) error
	// DeleteContentRedirects forgets every entry of contentKey.
	DeleteContentRedirects(ctx context.Context, contentKey uuid.UUID) error
}

//
// SQL store
//

type row struct {
	ID         string    `db:"id"`
	ContentKey string    `db:"content_key"`
	ContentID  int       `db:"content_id"`
	Culture    string    `db:"culture"`
	Route      string    `db:"url"`
	CreatedAt  time.Time `db:"create_date"`
}

const (
	qMostRecent = `
        SELECT r.id, r.content_key, n.id AS content_id, r.culture, r.url, r.create_date
        FROM   redirect_url r
        JOIN   content_node n ON n.unique_key = r.content_key
        WHERE  r.url = ? AND (r.culture = ? OR r.culture = '')
        ORDER  BY r.create_date DESC
        LIMIT  1`
	qTouch = `
        UPDATE redirect_url SET create_date = ?
        WHERE  url = ? AND content_key = ? AND culture = ?`
	qInsert = `
        INSERT INTO redirect_url (id, content_key, culture, url, create_date)
        VALUES (?, ?, ?, ?, ?)`
	qDeleteContent = `DELETE FROM redirect_url WHERE content_key = ?`
)

// SQLStore implements Store over redirect_url.
type SQLStore struct {
	db       *sqlx.DB
	tracking bool
	now      func() time.Time
}

// NewSQLStore returns a store.  With tracking off Register is a no-op;
// existing history still resolves.
func NewSQLStore(db *sqlx.DB, tracking bool) *SQLStore {
	return &SQLStore{db: db, tracking: tracking, now: time.Now}
}

func (s *SQLStore) MostRecent(ctx context.Context, route, c string) (*RedirectURL, error) {
	var r row
	err := s.db.GetContext(ctx, &r, qMostRecent, route, strings.ToLower(culture.Canonical(c)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redirect most recent: %w", err)
	}
	out := &RedirectURL{
		ContentID: r.ContentID,
		Culture:   culture.Canonical(r.Culture),
		Route:     r.Route,
		CreatedAt: r.CreatedAt,
	}
	out.ID, _ = uuid.Parse(r.ID)
	out.ContentKey, _ = uuid.Parse(r.ContentKey)
	return out, nil
}

func (s *SQLStore) Register(ctx context.Context, route string, contentKey uuid.UUID, c string) error {
	if !s.tracking {
		return nil
	}
	c = strings.ToLower(culture.Canonical(c))
	now := s.now().UTC()

	res, err := s.db.ExecContext(ctx, qTouch, now, route, contentKey.String(), c)
	if err != nil {
		return fmt.Errorf("redirect touch: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, qInsert, uuid.NewString(), contentKey.String(), c, route, now); err != nil {
		return fmt.Errorf("redirect insert: %w", err)
	}
	return nil
}

func (s *SQLStore) DeleteContentRedirects(ctx context.Context, contentKey uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, qDeleteContent, contentKey.String()); err != nil {
		return fmt.Errorf("redirect delete: %w", err)
	}
	return nil
}

//
// Memory store
//

// KeyResolver maps a node key to its id.
type KeyResolver func(key uuid.UUID) int

// Memory is an in-process Store for tests and database-less hosts.
type Memory struct {
	mu      sync.Mutex
	entries []RedirectURL
	resolve KeyResolver
	now     func() time.Time
}

// NewMemory returns an empty store.  resolve fills ContentID on lookups.
func NewMemory(resolve KeyResolver) *Memory {
	return &Memory{resolve: resolve, now: time.Now}
}

func (m *Memory) MostRecent(_ context.Context, route, c string) (*RedirectURL, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var best *RedirectURL
	for i := range m.entries {
		e := &m.entries[i]
		if e.Route != route || (e.Culture != "" && !culture.Equal(e.Culture, c)) {
			continue
		}
		if best == nil || !e.CreatedAt.Before(best.CreatedAt) {
			best = e
		}
	}
	if best == nil {
		return nil, nil
	}
	out := *best
	if m.resolve != nil {
		out.ContentID = m.resolve(out.ContentKey)
	}
	if out.ContentID <= 0 {
		return nil, nil
	}
	return &out, nil
}

func (m *Memory) Register(_ context.Context, route string, contentKey uuid.UUID, c string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c = culture.Canonical(c)
	now := m.now()
	for i := range m.entries {
		e := &m.entries[i]
		if e.Route == route && e.ContentKey == contentKey && e.Culture == c {
			e.CreatedAt = now
			return nil
		}
	}
	m.entries = append(m.entries, RedirectURL{
		ID:         uuid.New(),
		ContentKey: contentKey,
		Culture:    c,
		Route:      route,
		CreatedAt:  now,
	})
	return nil
}

func (m *Memory) DeleteContentRedirects(_ context.Context, contentKey uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.ContentKey != contentKey {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	return nil
}

// Len reports the number of entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
