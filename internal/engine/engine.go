// internal/engine/engine.go
//
// Request resolution engine.
//
// Context
// -------
// The engine drives one published.Request through the routing pipeline:
//
//  1. FindDomain picks the domain of the request URI and its culture.
//  2. The finder chain runs, unless content was assigned beforehand.
//  3. HandlePublishedContent applies the 404 fallback, internal redirects,
//     and public access inside a bounded loop.
//  4. FindTemplate picks the node template or the altTemplate override.
//  5. FollowExternalRedirect turns the redirect property into a 302.
//  6. HandleWildcardDomains lets wildcard domains override the culture.
//  7. Prepared hooks run, then the request is frozen.
//
// Loop bound
// ----------
// Internal redirects and access redirects can form cycles in a badly
// edited content graph.  Both the outer not-found loop and the inner
// redirect loop stop after MaxLoop iterations; the request then ends with
// no content (a 404), a warning, and a LoopBreakerTotal increment.
//
// Notes
// -----
// • One Engine serves every request; a Request is owned by one goroutine.
// • Oxford commas, two spaces after periods.
package engine

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/yanizio/contentrouter/internal/acl"
	"github.com/yanizio/contentrouter/internal/auth"
	"github.com/yanizio/contentrouter/internal/content"
	"github.com/yanizio/contentrouter/internal/domain"
	"github.com/yanizio/contentrouter/internal/finder"
	"github.com/yanizio/contentrouter/internal/metrics"
	"github.com/yanizio/contentrouter/internal/published"
	"github.com/yanizio/contentrouter/internal/templates"
	"github.com/yanizio/contentrouter/internal/urls"
)

// MaxLoop bounds the not-found loop and the internal redirect loop.
const MaxLoop = 8

// AltTemplateParam is the query parameter naming an alternative template.
const AltTemplateParam = "altTemplate"

// ErrMissingCollaborator is returned by New when a required dependency is
// nil.
var ErrMissingCollaborator = errors.New("engine: missing collaborator")

// Config holds the routing switches.
type Config struct {
	DisableAlternativeTemplates       bool
	ValidateAlternativeTemplates      bool
	InternalRedirectPreservesTemplate bool
}

// Access is the public-access collaborator.  *acl.Rules implements it.
type Access interface {
	IsProtected(path string) (acl.Entry, bool)
	HasAccess(path string, m auth.Member) bool
}

// Hook runs at a lifecycle point of Prepare.  Returning an error aborts
// the request.
type Hook func(ctx context.Context, req *published.Request) error

// Options wires an Engine.  Access and LastChance are optional.
type Options struct {
	Config     Config
	Content    content.Store
	Domains    domain.Source
	Finders    finder.Chain
	LastChance finder.Finder
	Templates  templates.Store
	URLs       *urls.Resolver
	Access     Access
}

// Engine is safe for concurrent use once built; register hooks before
// serving.
type Engine struct {
	cfg        Config
	store      content.Store
	domains    domain.Source
	finders    finder.Chain
	lastChance finder.Finder
	templates  templates.Store
	urls       *urls.Resolver
	access     Access

	preparing []Hook
	prepared  []Hook
}

// New validates opts and returns an Engine.
func New(opts Options) (*Engine, error) {
	switch {
	case opts.Content == nil:
		return nil, fmt.Errorf("%w: content store", ErrMissingCollaborator)
	case opts.Domains == nil:
		return nil, fmt.Errorf("%w: domain source", ErrMissingCollaborator)
	case len(opts.Finders) == 0:
		return nil, finder.ErrNoFinders
	case opts.Templates == nil:
		return nil, fmt.Errorf("%w: template store", ErrMissingCollaborator)
	case opts.URLs == nil:
		return nil, fmt.Errorf("%w: url resolver", ErrMissingCollaborator)
	}
	return &Engine{
		cfg:        opts.Config,
		store:      opts.Content,
		domains:    opts.Domains,
		finders:    opts.Finders,
		lastChance: opts.LastChance,
		templates:  opts.Templates,
		urls:       opts.URLs,
		access:     opts.Access,
	}, nil
}

// OnPreparing registers a hook that runs before anything else; the
// request is still writable.
func (e *Engine) OnPreparing(h Hook) { e.preparing = append(e.preparing, h) }

// OnPrepared registers a hook that runs after resolution, right before
// the request is frozen.
func (e *Engine) OnPrepared(h Hook) { e.prepared = append(e.prepared, h) }

// NewRequest returns a request for uri.
func (e *Engine) NewRequest(uri *url.URL) *published.Request { return published.New(uri) }

// Prepare runs the whole pipeline.  It reports whether the request ended
// with content to render; redirects and 404s report false.
func (e *Engine) Prepare(ctx context.Context, req *published.Request) (bool, error) {
	if err := runHooks(ctx, e.preparing, req); err != nil {
		return false, err
	}

	if _, err := e.FindDomain(ctx, req); err != nil {
		return false, err
	}
	if req.IsRedirect() {
		e.observe(req)
		return false, nil
	}

	if !req.HasPublishedContent() {
		if err := e.findContentAndTemplate(ctx, req); err != nil {
			return false, err
		}
	}
	if err := e.HandleWildcardDomains(ctx, req); err != nil {
		return false, err
	}

	if err := runHooks(ctx, e.prepared, req); err != nil {
		return false, err
	}
	if !req.HasPublishedContent() && !req.IsRedirect() {
		if err := req.SetIs404(true); err != nil {
			return false, err
		}
	}
	req.Freeze()

	e.observe(req)
	return !req.IsRedirect() && req.HasPublishedContent(), nil
}

// TryRoute resolves uri through the domain matcher and the finder chain
// only.  Used to check whether a URL routes back to its node.
func (e *Engine) TryRoute(ctx context.Context, uri *url.URL) (*published.Request, error) {
	req := published.New(uri)
	if _, err := e.FindDomain(ctx, req); err != nil {
		return nil, err
	}
	if req.IsRedirect() || req.HasPublishedContent() {
		return req, nil
	}
	if _, err := e.finders.TryFind(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// FindDomain selects the domain of the request and sets its culture, or
// the default culture when no domain applies.  Domains whose root is not
// published, or not published in the domain culture, are ignored.
func (e *Engine) FindDomain(_ context.Context, req *published.Request) (bool, error) {
	all := e.domains.GetAll(false)
	live := make([]domain.Domain, 0, len(all))
	for _, d := range all {
		n := e.store.GetByID(d.ContentID)
		if n == nil || (n.Varies && !n.HasCulture(d.Culture)) {
			continue
		}
		live = append(live, d)
	}

	def := e.domains.DefaultCulture()
	d, err := domain.SelectDomain(live, req.URI(), "", def, nil)
	if err != nil {
		return false, err
	}
	if d == nil {
		zap.L().Debug("find domain: no match", zap.String("uri", req.URI().String()))
		return false, req.SetCulture(def)
	}

	zap.L().Debug("find domain",
		zap.String("uri", req.URI().String()),
		zap.String("domain", d.String()),
		zap.Int("root", d.ContentID),
		zap.String("culture", d.Culture))
	if err := req.SetDomain(d); err != nil {
		return false, err
	}
	return true, req.SetCulture(d.Culture)
}

func (e *Engine) findContentAndTemplate(ctx context.Context, req *published.Request) error {
	if _, err := e.finders.TryFind(ctx, req); err != nil {
		return err
	}
	if err := req.SetIsInitialPublishedContent(); err != nil {
		return err
	}
	if req.IsRedirect() {
		return nil
	}

	if err := e.HandlePublishedContent(ctx, req); err != nil {
		return err
	}
	if err := e.FindTemplate(ctx, req); err != nil {
		return err
	}
	return e.FollowExternalRedirect(ctx, req)
}

// HandlePublishedContent resolves not-found, internal redirects, and
// public access until content is stable or the loop bound trips.
func (e *Engine) HandlePublishedContent(ctx context.Context, req *published.Request) error {
	runaway := false
	for i := 0; ; i++ {
		if i == MaxLoop {
			runaway = true
			break
		}

		if !req.HasPublishedContent() {
			if err := req.SetIs404(true); err != nil {
				return err
			}
			if e.lastChance != nil {
				if _, err := e.lastChance.TryFind(ctx, req); err != nil {
					return err
				}
			}
			if !req.HasPublishedContent() {
				break
			}
		}

		for j := 0; ; j++ {
			if j == MaxLoop {
				runaway = true
				break
			}
			ok, err := e.FollowInternalRedirects(ctx, req)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
		}
		if runaway {
			break
		}

		if req.HasPublishedContent() {
			if err := e.EnsureAccess(ctx, req); err != nil {
				return err
			}
		}
		if req.HasPublishedContent() {
			break
		}
	}

	if runaway {
		zap.L().Warn("routing loop bound reached, dropping content",
			zap.String("uri", req.URI().String()), zap.Int("bound", MaxLoop))
		metrics.LoopBreakerTotal.Inc()
		return req.SetPublishedContent(nil)
	}
	return nil
}

// FollowInternalRedirects replaces the content with the node named by its
// internal redirect property.  It reports whether the content changed.
func (e *Engine) FollowInternalRedirects(_ context.Context, req *published.Request) (bool, error) {
	n := req.PublishedContent()
	if n == nil {
		return false, published.ErrNoContent
	}
	if !n.HasProperty(content.PropInternalRedirectID) {
		return false, nil
	}

	raw := n.Value(content.PropInternalRedirectID, req.Culture())
	ref := content.ParseRef(raw)
	if !ref.Valid() {
		zap.L().Debug("internal redirect: not an id nor a key",
			zap.Int("node", n.ID), zap.String("value", raw))
		return false, nil
	}
	target := ref.Resolve(e.store)
	switch {
	case target == nil:
		zap.L().Debug("internal redirect: no such published node",
			zap.Int("node", n.ID), zap.String("value", raw))
		return false, nil
	case target.ID == n.ID:
		zap.L().Debug("internal redirect to self, ignored", zap.Int("node", n.ID))
		return false, nil
	}

	zap.L().Debug("internal redirect", zap.Int("from", n.ID), zap.Int("to", target.ID))
	if err := req.SetInternalRedirectPublishedContent(target, e.cfg.InternalRedirectPreservesTemplate); err != nil {
		return false, err
	}
	return true, nil
}

// EnsureAccess swaps protected content for the login or no-access page.
func (e *Engine) EnsureAccess(ctx context.Context, req *published.Request) error {
	n := req.PublishedContent()
	if n == nil {
		return published.ErrNoContent
	}
	if e.access == nil {
		return nil
	}
	entry, ok := e.access.IsProtected(n.Path())
	if !ok {
		return nil
	}

	m, loggedIn := auth.MemberFrom(ctx)
	switch {
	case !loggedIn:
		zap.L().Debug("not logged in, showing login page",
			zap.Int("node", n.ID), zap.Int("login", entry.LoginNodeID))
		if entry.LoginNodeID != n.ID {
			return req.SetPublishedContent(e.store.GetByID(entry.LoginNodeID))
		}
	case !e.access.HasAccess(n.Path(), m):
		zap.L().Debug("member has no access, showing error page",
			zap.Int("node", n.ID), zap.String("member", m.Username))
		if entry.NoAccessNodeID != n.ID {
			return req.SetPublishedContent(e.store.GetByID(entry.NoAccessNodeID))
		}
	}
	return nil
}

// HandleWildcardDomains sets the culture of the deepest wildcard domain
// between the node and the domain root.
func (e *Engine) HandleWildcardDomains(_ context.Context, req *published.Request) error {
	n := req.PublishedContent()
	if n == nil {
		return nil
	}
	rootID := 0
	if d := req.Domain(); d != nil {
		rootID = d.ContentID
	}
	wd, ok := domain.FindWildcardDomainInPath(e.domains.GetAll(true), n.Path(), rootID)
	if !ok || wd.Culture == "" {
		return nil
	}
	zap.L().Debug("wildcard domain culture",
		zap.Int("node", wd.ContentID), zap.String("culture", wd.Culture))
	return req.SetCulture(wd.Culture)
}

func (e *Engine) observe(req *published.Request) {
	outcome := "content"
	switch {
	case req.IsRedirect():
		outcome = "redirect"
	case req.Is404() || !req.HasPublishedContent():
		outcome = "notfound"
	}
	metrics.RequestsTotal.WithLabelValues(outcome).Inc()
}

func runHooks(ctx context.Context, hooks []Hook, req *published.Request) error {
	for _, h := range hooks {
		if err := h(ctx, req); err != nil {
			return err
		}
	}
	return nil
}
