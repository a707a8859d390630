// Package notfound picks the configured 404 page for a culture.
//
// Entries come from the error404 configuration list.  With a single entry
// that entry always applies.  With several, the entry whose culture matches
// wins, else the entry with culture "default".  An entry names its page by
// id or by key.
package notfound

import (
	"github.com/google/uuid"

	"github.com/yanizio/contentrouter/internal/content"
	"github.com/yanizio/contentrouter/internal/culture"
)

// DefaultCulture marks the fallback entry.
const DefaultCulture = "default"

// Entry is one configured 404 page.
type Entry struct {
	Culture    string
	ContentID  int
	ContentKey uuid.UUID
}

// Resolver is immutable and safe for concurrent use.
type Resolver struct {
	entries []Entry
}

// New returns a Resolver over entries.
func New(entries ...Entry) *Resolver {
	return &Resolver{entries: append([]Entry(nil), entries...)}
}

// PageID returns the id of the 404 page for cultureName, or 0.
func (r *Resolver) PageID(store content.Store, cultureName string) int {
	e, ok := r.entry(cultureName)
	if !ok {
		return 0
	}
	if e.ContentID > 0 {
		return e.ContentID
	}
	if e.ContentKey != uuid.Nil {
		if n := store.GetByKey(e.ContentKey); n != nil {
			return n.ID
		}
	}
	return 0
}

func (r *Resolver) entry(cultureName string) (Entry, bool) {
	switch len(r.entries) {
	case 0:
		return Entry{}, false
	case 1:
		return r.entries[0], true
	}
	if cultureName != "" {
		for _, e := range r.entries {
			if e.Culture != DefaultCulture && culture.Equal(e.Culture, cultureName) {
				return e, true
			}
		}
	}
	for _, e := range r.entries {
		if e.Culture == DefaultCulture {
			return e, true
		}
	}
	return Entry{}, false
}
