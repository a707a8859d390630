// internal/domain/cache.go
//
// Domain cache with TTL reload.
//
// Context
// -------
// The router reads the domain set on every request, while domains change
// only when an editor edits a binding.  Cache keeps the whole set in an
// immutable snapshot and reloads it from SQL when the snapshot is older
// than the TTL.  Concurrent reloads collapse through singleflight; a failed
// reload keeps serving the previous set.
//
// Schema
// ------
//
//	domain    (id, name, content_id, culture, sort_order)
//	language  (iso_code, is_default)
//
// Notes
// -----
// • NewStatic builds a cache that never reloads (tests, config-only hosts).
// • Oxford commas, two spaces after periods.
package domain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/contentrouter/internal/culture"
	"github.com/yanizio/contentrouter/internal/metrics"
)

// Source is the read surface of the domain cache.
type Source interface {
	GetAll(includeWildcards bool) []Domain
	GetAssigned(contentID int, includeWildcards bool) []Domain
	HasAssigned(contentID int, includeWildcards bool) bool
	DefaultCulture() string
}

type domainSet struct {
	all            []Domain
	byContent      map[int][]Domain
	defaultCulture string
	loadedAt       time.Time
}

func newSet(domains []Domain, defaultCulture string) *domainSet {
	sorted := append([]Domain(nil), domains...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].SortOrder != sorted[j].SortOrder {
			return sorted[i].SortOrder < sorted[j].SortOrder
		}
		return sorted[i].ID < sorted[j].ID
	})
	s := &domainSet{
		all:            sorted,
		byContent:      make(map[int][]Domain),
		defaultCulture: culture.Canonical(defaultCulture),
		loadedAt:       time.Now(),
	}
	for _, d := range sorted {
		s.byContent[d.ContentID] = append(s.byContent[d.ContentID], d)
	}
	return s
}

// Cache implements Source.  Zero value is unusable; construct with NewCache
// or NewStatic.
type Cache struct {
	db              *sqlx.DB
	ttl             time.Duration
	fallbackCulture string
	sfg             singleflight.Group
	cur             atomic.Pointer[domainSet]
}

// NewCache returns an empty cache reading from db.  Call Load before
// serving; MaybeReload keeps it fresh afterwards.
func NewCache(db *sqlx.DB, ttl time.Duration, fallbackCulture string) *Cache {
	c := &Cache{db: db, ttl: ttl, fallbackCulture: fallbackCulture}
	c.cur.Store(newSet(nil, fallbackCulture))
	return c
}

// NewStatic returns a cache over a fixed domain set.
func NewStatic(domains []Domain, defaultCulture string) *Cache {
	c := &Cache{fallbackCulture: defaultCulture}
	c.cur.Store(newSet(domains, defaultCulture))
	return c
}

type domainRow struct {
	ID        int    `db:"id"`
	Name      string `db:"name"`
	ContentID int    `db:"content_id"`
	Culture   string `db:"culture"`
	SortOrder int    `db:"sort_order"`
}

const (
	qDomains = `
        SELECT id, name, content_id, culture, sort_order
        FROM   domain
        ORDER  BY sort_order, id`
	qDefaultLanguage = `SELECT iso_code FROM language WHERE is_default = 1 LIMIT 1`
)

// Load reads the domain set and the default culture.  Concurrent calls
// share one query.
func (c *Cache) Load(ctx context.Context) error {
	if c.db == nil {
		return nil
	}
	_, err, _ := c.sfg.Do("domains", func() (any, error) {
		var rows []domainRow
		if err := c.db.SelectContext(ctx, &rows, qDomains); err != nil {
			return nil, fmt.Errorf("load domains: %w", err)
		}

		def := c.fallbackCulture
		var iso string
		err := c.db.GetContext(ctx, &iso, qDefaultLanguage)
		switch {
		case err == nil && iso != "":
			def = iso
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("load default language: %w", err)
		}

		domains := make([]Domain, 0, len(rows))
		for _, r := range rows {
			domains = append(domains, New(r.ID, r.Name, r.ContentID, r.Culture, r.SortOrder))
		}
		c.cur.Store(newSet(domains, def))
		metrics.DomainReloadsTotal.Inc()
		zap.L().Debug("domain cache load",
			zap.Int("count", len(domains)),
			zap.String("default_culture", def))
		return nil, nil
	})
	return err
}

// MaybeReload reloads when the snapshot is older than the TTL.  Failures
// are logged and the previous snapshot stays in place.
func (c *Cache) MaybeReload(ctx context.Context) {
	if c.db == nil || c.ttl <= 0 {
		return
	}
	if time.Since(c.cur.Load().loadedAt) <= c.ttl {
		return
	}
	if err := c.Load(ctx); err != nil {
		zap.L().Warn("domain cache reload failed", zap.Error(err))
	}
}

// GetAll returns every domain in sort order.
func (c *Cache) GetAll(includeWildcards bool) []Domain {
	return filterWildcards(c.cur.Load().all, includeWildcards)
}

// GetAssigned returns the domains bound to contentID.
func (c *Cache) GetAssigned(contentID int, includeWildcards bool) []Domain {
	return filterWildcards(c.cur.Load().byContent[contentID], includeWildcards)
}

// HasAssigned reports whether contentID has at least one domain.
func (c *Cache) HasAssigned(contentID int, includeWildcards bool) bool {
	for _, d := range c.cur.Load().byContent[contentID] {
		if includeWildcards || !d.IsWildcard {
			return true
		}
	}
	return false
}

// DefaultCulture returns the default language of the installation.
func (c *Cache) DefaultCulture() string { return c.cur.Load().defaultCulture }

func filterWildcards(in []Domain, includeWildcards bool) []Domain {
	if includeWildcards {
		return append([]Domain(nil), in...)
	}
	out := make([]Domain, 0, len(in))
	for _, d := range in {
		if !d.IsWildcard {
			out = append(out, d)
		}
	}
	return out
}
