// internal/published/request.go
//
// The request-in-flight of the routing pipeline.
//
// Context
// -------
// A Request is created per incoming URL, filled in by the domain matcher,
// the finders, and the engine, then frozen when the engine raises its
// Prepared event.  Every mutator returns ErrReadOnly once frozen.
//
// Content rules
// -------------
//   - Setting content clears the template and the internal-redirect flag.
//   - The initial content is captured once, right after the finders ran;
//     IsInitialPublishedContent reports whether the current content is
//     still that node.
//   - An internal redirect keeps the template when asked to.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package published

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/yanizio/contentrouter/internal/content"
	"github.com/yanizio/contentrouter/internal/domain"
	"github.com/yanizio/contentrouter/internal/templates"
)

var (
	// ErrReadOnly is returned by mutators after Freeze.
	ErrReadOnly = errors.New("published: request is read-only")
	// ErrNoContent is returned when an operation requires content.
	ErrNoContent = errors.New("published: request has no content")
	// ErrInvalidRedirectStatus is returned for non-redirect status codes.
	ErrInvalidRedirectStatus = errors.New("published: invalid redirect status")
)

// Request is not safe for concurrent use; one goroutine owns it.
type Request struct {
	uri      *url.URL
	readonly bool

	content            *content.Node
	initial            *content.Node
	isInternalRedirect bool

	domain   *domain.DomainAndURI
	culture  string
	template *templates.Template
	is404    bool

	redirectURL    string
	redirectStatus int

	statusCode        int
	statusDescription string
	cacheExtensions   []string
	headers           http.Header
}

// New returns a writable Request for uri.
func New(uri *url.URL) *Request {
	u := *uri
	return &Request{uri: &u, headers: make(http.Header)}
}

func (r *Request) writable() error {
	if r.readonly {
		return ErrReadOnly
	}
	return nil
}

// Freeze makes the request read-only.
func (r *Request) Freeze() { r.readonly = true }

// IsReadOnly reports whether Freeze was called.
func (r *Request) IsReadOnly() bool { return r.readonly }

//
// URI
//

// URI returns the cleaned request URI.
func (r *Request) URI() *url.URL { return r.uri }

// SetURI replaces the request URI.
func (r *Request) SetURI(u *url.URL) error {
	if err := r.writable(); err != nil {
		return err
	}
	c := *u
	r.uri = &c
	return nil
}

// Query returns the parsed query string of the URI.
func (r *Request) Query() url.Values { return r.uri.Query() }

//
// Content
//

// PublishedContent returns the resolved node or nil.
func (r *Request) PublishedContent() *content.Node { return r.content }

// HasPublishedContent reports whether a node is resolved.
func (r *Request) HasPublishedContent() bool { return r.content != nil }

// SetPublishedContent sets n (may be nil), clearing the template and the
// internal-redirect flag.
func (r *Request) SetPublishedContent(n *content.Node) error {
	if err := r.writable(); err != nil {
		return err
	}
	r.content = n
	r.template = nil
	r.isInternalRedirect = false
	return nil
}

// SetInternalRedirectPublishedContent replaces the content with n as the
// result of an internal redirect.  Redirecting to the current node only
// updates the flag.  With preserveTemplate the current template survives.
func (r *Request) SetInternalRedirectPublishedContent(n *content.Node, preserveTemplate bool) error {
	if n == nil || r.content == nil {
		return ErrNoContent
	}
	if err := r.writable(); err != nil {
		return err
	}

	isInternalRedirect := r.IsInitialPublishedContent() || r.isInternalRedirect
	if n.ID == r.content.ID {
		r.isInternalRedirect = isInternalRedirect
		return nil
	}

	tpl := r.template
	r.content = n
	r.template = nil
	r.isInternalRedirect = isInternalRedirect
	if isInternalRedirect && preserveTemplate {
		r.template = tpl
	}
	return nil
}

// SetIsInitialPublishedContent captures the current content as initial.
func (r *Request) SetIsInitialPublishedContent() error {
	if err := r.writable(); err != nil {
		return err
	}
	r.initial = r.content
	return nil
}

// InitialPublishedContent returns the captured initial node.
func (r *Request) InitialPublishedContent() *content.Node { return r.initial }

// IsInitialPublishedContent reports whether the content is still the node
// the finders resolved.
func (r *Request) IsInitialPublishedContent() bool {
	return r.initial != nil && r.initial == r.content
}

// IsInternalRedirectPublishedContent reports whether the content results
// from an internal redirect.
func (r *Request) IsInternalRedirectPublishedContent() bool { return r.isInternalRedirect }

//
// Domain, culture, template
//

// Domain returns the matched domain or nil.
func (r *Request) Domain() *domain.DomainAndURI { return r.domain }

// HasDomain reports whether a domain matched.
func (r *Request) HasDomain() bool { return r.domain != nil }

// SetDomain sets the matched domain.
func (r *Request) SetDomain(d *domain.DomainAndURI) error {
	if err := r.writable(); err != nil {
		return err
	}
	r.domain = d
	return nil
}

// Culture returns the request culture.
func (r *Request) Culture() string { return r.culture }

// SetCulture sets the request culture.
func (r *Request) SetCulture(c string) error {
	if err := r.writable(); err != nil {
		return err
	}
	r.culture = c
	return nil
}

// Template returns the resolved template or nil.
func (r *Request) Template() *templates.Template { return r.template }

// HasTemplate reports whether a template is set.
func (r *Request) HasTemplate() bool { return r.template != nil }

// TemplateAlias returns the template alias or "".
func (r *Request) TemplateAlias() string {
	if r.template == nil {
		return ""
	}
	return r.template.Alias
}

// SetTemplate sets t (may be nil).
func (r *Request) SetTemplate(t *templates.Template) error {
	if err := r.writable(); err != nil {
		return err
	}
	r.template = t
	return nil
}

//
// Not found and redirects
//

// Is404 reports the not-found flag.
func (r *Request) Is404() bool { return r.is404 }

// SetIs404 sets the not-found flag.
func (r *Request) SetIs404(v bool) error {
	if err := r.writable(); err != nil {
		return err
	}
	r.is404 = v
	return nil
}

// IsRedirect reports whether a redirect is pending.
func (r *Request) IsRedirect() bool { return r.redirectURL != "" }

// RedirectURL returns the pending redirect target.
func (r *Request) RedirectURL() string { return r.redirectURL }

// IsRedirectPermanent reports a 301 redirect.
func (r *Request) IsRedirectPermanent() bool { return r.redirectStatus == http.StatusMovedPermanently }

// RedirectStatus returns the redirect status code.
func (r *Request) RedirectStatus() int { return r.redirectStatus }

// SetRedirect sets a temporary (302) redirect.
func (r *Request) SetRedirect(u string) error {
	return r.SetRedirectStatus(u, http.StatusFound)
}

// SetRedirectPermanent sets a permanent (301) redirect.
func (r *Request) SetRedirectPermanent(u string) error {
	return r.SetRedirectStatus(u, http.StatusMovedPermanently)
}

// SetRedirectStatus sets a redirect with an explicit 301, 302, 307, or 308.
func (r *Request) SetRedirectStatus(u string, status int) error {
	if err := r.writable(); err != nil {
		return err
	}
	switch status {
	case http.StatusMovedPermanently, http.StatusFound,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
	default:
		return ErrInvalidRedirectStatus
	}
	r.redirectURL = u
	r.redirectStatus = status
	return nil
}

//
// Response hints
//

// ResponseStatus returns the status code and description set by the
// pipeline, or zero values.
func (r *Request) ResponseStatus() (int, string) { return r.statusCode, r.statusDescription }

// SetResponseStatus sets an explicit response status.
func (r *Request) SetResponseStatus(code int, description string) error {
	if err := r.writable(); err != nil {
		return err
	}
	r.statusCode, r.statusDescription = code, description
	return nil
}

// Headers returns a copy of the response headers to add.
func (r *Request) Headers() http.Header { return r.headers.Clone() }

// SetHeader sets one response header.
func (r *Request) SetHeader(key, value string) error {
	if err := r.writable(); err != nil {
		return err
	}
	r.headers.Set(key, value)
	return nil
}

// SetNoCacheHeaders marks the response as not cacheable.
func (r *Request) SetNoCacheHeaders() error {
	if err := r.writable(); err != nil {
		return err
	}
	r.headers.Set("Cache-Control", "no-store, must-revalidate")
	r.headers.Set("Pragma", "no-cache")
	r.headers.Set("Expires", "0")
	return nil
}

// CacheExtensions returns the cache-control extensions to add.
func (r *Request) CacheExtensions() []string {
	return append([]string(nil), r.cacheExtensions...)
}

// AddCacheExtension appends a cache-control extension.
func (r *Request) AddCacheExtension(ext string) error {
	if err := r.writable(); err != nil {
		return err
	}
	r.cacheExtensions = append(r.cacheExtensions, ext)
	return nil
}
