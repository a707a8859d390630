// internal/content/snapshot.go
//
// Current published snapshot plus refresh notifications.
//
// Context
// -------
// Snapshot implements Store by delegating to the Tree it currently holds,
// so finders and providers keep one stable dependency while the tree under
// them is swapped atomically on every refresh.  Concurrent Refresh calls
// collapse into one load (singleflight).  After a successful swap every
// subscriber registered with OnRefresh runs; the routes cache uses this to
// clear itself in bulk.
package content

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/contentrouter/internal/metrics"
)

// Snapshot is safe for concurrent use.  Construct with NewSnapshot.
type Snapshot struct {
	load Loader
	opts TreeOptions
	sfg  singleflight.Group
	cur  atomic.Pointer[Tree]

	mu    sync.Mutex
	subs  []func()
	swaps []func(prev, next *Tree)
}

// NewSnapshot returns a Snapshot holding an empty tree until the first
// Refresh.
func NewSnapshot(load Loader, opts TreeOptions) *Snapshot {
	s := &Snapshot{load: load, opts: opts}
	empty, _ := NewTree(nil, opts)
	s.cur.Store(empty)
	return s
}

// OnRefresh registers fn to run after each swap.
func (s *Snapshot) OnRefresh(fn func()) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// OnSwap registers fn to run with the outgoing and incoming trees, before
// the OnRefresh subscribers.
func (s *Snapshot) OnSwap(fn func(prev, next *Tree)) {
	s.mu.Lock()
	s.swaps = append(s.swaps, fn)
	s.mu.Unlock()
}

// Refresh reloads the tree and notifies subscribers.
func (s *Snapshot) Refresh(ctx context.Context) error {
	_, err, _ := s.sfg.Do("refresh", func() (any, error) {
		nodes, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		t, err := NewTree(nodes, s.opts)
		if err != nil {
			return nil, err
		}
		s.Set(t)
		zap.L().Info("content snapshot refreshed", zap.Int("nodes", t.Len()))
		return nil, nil
	})
	if err != nil {
		zap.L().Error("content snapshot refresh failed", zap.Error(err))
	}
	return err
}

// Set swaps in t and notifies subscribers.
func (s *Snapshot) Set(t *Tree) {
	prev := s.cur.Swap(t)
	metrics.ContentRefreshTotal.Inc()

	s.mu.Lock()
	swaps := append([]func(prev, next *Tree){}, s.swaps...)
	subs := append([]func(){}, s.subs...)
	s.mu.Unlock()
	for _, fn := range swaps {
		fn(prev, t)
	}
	for _, fn := range subs {
		fn()
	}
}

// Tree returns the current tree.
func (s *Snapshot) Tree() *Tree { return s.cur.Load() }

func (s *Snapshot) GetByID(id int) *Node           { return s.Tree().GetByID(id) }
func (s *Snapshot) GetByKey(key uuid.UUID) *Node   { return s.Tree().GetByKey(key) }
func (s *Snapshot) GetAtRoot() []*Node             { return s.Tree().GetAtRoot() }
func (s *Snapshot) HideTopLevelNodeFromPath() bool { return s.opts.HideTopLevelNodeFromPath }

func (s *Snapshot) GetByRoute(route, c string) *Node {
	return s.Tree().GetByRoute(route, c)
}

func (s *Snapshot) GetByURLAlias(rootID int, c, alias string) *Node {
	return s.Tree().GetByURLAlias(rootID, c, alias)
}

//
// Preview flag
//

type previewKey struct{}

// WithPreview marks ctx as a preview (unpublished-aware) request.  Preview
// requests bypass the routes cache in both directions.
func WithPreview(ctx context.Context, preview bool) context.Context {
	return context.WithValue(ctx, previewKey{}, preview)
}

// IsPreview reports the flag set by WithPreview.
func IsPreview(ctx context.Context) bool {
	v, _ := ctx.Value(previewKey{}).(bool)
	return v
}
