// internal/redirects/tracker.go
//
// Route-change tracking.
//
// Context
// -------
// Tracker is subscribed to content.Snapshot swaps.  For every node present
// in both trees it computes the route before and after the swap, per
// culture, and registers the old route when it changed.  The redirect
// finder then serves the old route as a 301 to the new URL.
//
// Notes
// -----
// • Nodes that disappear keep their history; unpublishing is not deleting.
// • Invariant nodes are tracked under the empty culture, which matches
//   every culture on lookup.
// • Oxford commas, two spaces after periods.
package redirects

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yanizio/contentrouter/internal/content"
	"github.com/yanizio/contentrouter/internal/culture"
	"github.com/yanizio/contentrouter/internal/domain"
	"github.com/yanizio/contentrouter/internal/urls"
)

// Tracker registers old routes into a Store.
type Tracker struct {
	store   Store
	domains domain.Source
}

// NewTracker returns a Tracker writing to store.
func NewTracker(store Store, domains domain.Source) *Tracker {
	return &Tracker{store: store, domains: domains}
}

// Track compares prev and next and registers every changed route.
func (t *Tracker) Track(ctx context.Context, prev, next content.Store) error {
	if prev == nil || next == nil {
		return nil
	}
	var errs []error
	registered := 0
	for _, root := range prev.GetAtRoot() {
		root.DescendantsOrSelf(func(old *content.Node) bool {
			if old.Key == uuid.Nil {
				return true
			}
			cur := next.GetByKey(old.Key)
			if cur == nil {
				return true
			}
			for _, c := range cultures(old) {
				before := urls.ComputeRoute(prev, t.domains, old, c)
				after := urls.ComputeRoute(next, t.domains, cur, c)
				if before == "" || before == after {
					continue
				}
				if err := t.store.Register(ctx, before, old.Key, c); err != nil {
					errs = append(errs, err)
					continue
				}
				registered++
				zap.L().Debug("route changed",
					zap.Int("node", old.ID), zap.String("culture", c),
					zap.String("from", before), zap.String("to", after))
			}
			return true
		})
	}
	if registered > 0 {
		zap.L().Info("redirect history updated", zap.Int("routes", registered))
	}
	return errors.Join(errs...)
}

// Subscribe hooks t onto s.  Failures are logged; the swap itself always
// goes through.
func (t *Tracker) Subscribe(s *content.Snapshot) {
	s.OnSwap(func(prev, next *content.Tree) {
		if err := t.Track(context.Background(), prev, next); err != nil {
			zap.L().Warn("redirect tracking failed", zap.Error(err))
		}
	})
}

func cultures(n *content.Node) []string {
	if !n.Varies {
		return []string{culture.Invariant}
	}
	out := make([]string, 0, len(n.Cultures))
	for c := range n.Cultures {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
