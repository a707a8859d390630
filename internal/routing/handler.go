// internal/routing/handler.go
//
// HTTP front of the routing engine.
//
// Context
// -------
// Handler turns an *http.Request into a published.Request, runs the engine,
// and writes the outcome: a redirect, or a JSON document naming the
// resolved node, template, culture, and domain with a 200 or 404 status.
// Rendering belongs to the host application, which reads that document
// (or embeds the engine directly).
//
// Workflow
// --------
//  1. Domains are reloaded when their TTL expired.
//  2. A node pre-assigned by the custom-route middleware is set on the
//     request before Prepare.
//  3. Response headers and cache extensions set by the pipeline are copied
//     to the response.
//
// Notes
// -----
// • The preview header switches off the routes cache for that request.
// • Oxford commas, two spaces after periods.
package routing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/contentrouter/internal/content"
	"github.com/yanizio/contentrouter/internal/engine"
	"github.com/yanizio/contentrouter/internal/middleware"
	"github.com/yanizio/contentrouter/internal/published"
)

// HeaderPreview marks preview requests when set to "1".
const HeaderPreview = "X-Content-Preview"

// Reloader refreshes domains when stale.  *domain.Cache implements it.
type Reloader interface {
	MaybeReload(ctx context.Context)
}

// Handler is safe for concurrent use.
type Handler struct {
	engine  *engine.Engine
	store   content.Store
	domains Reloader
}

// NewHandler wires the handler.  domains may be nil.
func NewHandler(e *engine.Engine, store content.Store, domains Reloader) *Handler {
	return &Handler{engine: e, store: store, domains: domains}
}

// Result is the JSON document written for non-redirect outcomes.
type Result struct {
	ContentID        int    `json:"content_id,omitempty"`
	ContentKey       string `json:"content_key,omitempty"`
	Name             string `json:"name,omitempty"`
	Template         string `json:"template,omitempty"`
	Culture          string `json:"culture"`
	Domain           string `json:"domain,omitempty"`
	Is404            bool   `json:"is_404"`
	InternalRedirect bool   `json:"internal_redirect,omitempty"`
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.domains != nil {
		h.domains.MaybeReload(ctx)
	}
	if r.Header.Get(HeaderPreview) == "1" {
		ctx = content.WithPreview(ctx, true)
	}

	req := h.engine.NewRequest(RequestURL(r))
	if id := ContentIDFrom(ctx); id > 0 {
		if n := h.store.GetByID(id); n != nil {
			_ = req.SetPublishedContent(n)
		} else {
			zap.L().Warn("custom route points to missing content", zap.Int("node", id))
		}
	}

	if _, err := h.engine.Prepare(ctx, req); err != nil {
		zap.L().Error("prepare request",
			zap.String("uri", req.URI().String()), zap.Error(err))
		http.Error(w, "routing error", http.StatusInternalServerError)
		return
	}

	writeHeaders(w, req)
	if req.IsRedirect() {
		http.Redirect(w, r, req.RedirectURL(), req.RedirectStatus())
		return
	}

	status := http.StatusOK
	if req.Is404() {
		status = http.StatusNotFound
	}
	if code, _ := req.ResponseStatus(); code > 0 {
		status = code
	}
	writeJSON(w, status, resultOf(req))
}

// ServeContentURLs lists the URLs of node {id} for editors.  Repeated
// ?culture= parameters restrict the cultures.
func (h *Handler) ServeContentURLs(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		http.Error(w, "invalid content id", http.StatusBadRequest)
		return
	}

	infos, err := h.engine.ContentURLs(r.Context(), id, RequestURL(r), r.URL.Query()["culture"])
	if err != nil {
		zap.L().Error("content urls", zap.Int("node", id), zap.Error(err))
		http.Error(w, "routing error", http.StatusInternalServerError)
		return
	}

	type urlInfo struct {
		Text    string `json:"text"`
		IsURL   bool   `json:"is_url"`
		Culture string `json:"culture,omitempty"`
	}
	out := make([]urlInfo, 0, len(infos))
	for _, i := range infos {
		out = append(out, urlInfo{Text: i.Text, IsURL: i.IsURL, Culture: i.Culture})
	}
	writeJSON(w, http.StatusOK, out)
}

// Router mounts the handler behind the security headers, the given
// middlewares, and the custom-route middleware.  custom may be nil.
func Router(h *Handler, custom *CustomRoutes, mws ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Security)
	r.Use(mws...)
	if custom != nil {
		r.Use(Middleware(custom))
	}

	r.Get("/_router/urls/{id}", h.ServeContentURLs)
	r.Get("/*", h.ServeHTTP)
	r.Head("/*", h.ServeHTTP)
	return r
}

// RequestURL rebuilds the absolute request URL, honouring TLS and
// X-Forwarded-Proto.
func RequestURL(r *http.Request) *url.URL {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	} else if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(p, ",")[0]))
	}
	return &url.URL{
		Scheme:   scheme,
		Host:     r.Host,
		Path:     r.URL.Path,
		RawPath:  r.URL.RawPath,
		RawQuery: r.URL.RawQuery,
	}
}

func resultOf(req *published.Request) Result {
	res := Result{
		Culture:          req.Culture(),
		Is404:            req.Is404(),
		Template:         req.TemplateAlias(),
		InternalRedirect: req.IsInternalRedirectPublishedContent(),
	}
	if n := req.PublishedContent(); n != nil {
		res.ContentID = n.ID
		res.ContentKey = n.Key.String()
		res.Name = n.Name
	}
	if d := req.Domain(); d != nil {
		res.Domain = d.String()
	}
	return res
}

func writeHeaders(w http.ResponseWriter, req *published.Request) {
	for k, vs := range req.Headers() {
		w.Header()[k] = vs
	}
	if ext := req.CacheExtensions(); len(ext) > 0 {
		parts := ext
		if cc := w.Header().Get("Cache-Control"); cc != "" {
			parts = append([]string{cc}, ext...)
		}
		w.Header().Set("Cache-Control", strings.Join(parts, ", "))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("write response", zap.Error(err))
	}
}
