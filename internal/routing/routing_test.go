// internal/routing/routing_test.go
//
// Tests for the HTTP front and the custom-route table.
//
// Context
// -------
// The engine is wired over the shared content fixture with no domains, so
// nice URLs look like "/home/about-us".  Requests go through Router, which
// mounts the security headers, the member middleware, and the custom-route
// middleware exactly as cmd/web does.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.

package routing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/yanizio/contentrouter/internal/acl"
	"github.com/yanizio/contentrouter/internal/auth"
	"github.com/yanizio/contentrouter/internal/content"
	"github.com/yanizio/contentrouter/internal/content/contenttest"
	"github.com/yanizio/contentrouter/internal/domain"
	"github.com/yanizio/contentrouter/internal/engine"
	"github.com/yanizio/contentrouter/internal/finder"
	"github.com/yanizio/contentrouter/internal/notfound"
	"github.com/yanizio/contentrouter/internal/redirects"
	"github.com/yanizio/contentrouter/internal/routes"
	"github.com/yanizio/contentrouter/internal/sitedomain"
	"github.com/yanizio/contentrouter/internal/templates"
	"github.com/yanizio/contentrouter/internal/urls"
)

type site struct {
	router    http.Handler
	redirects *redirects.Memory
	custom    *CustomRoutes
}

func newSite(t *testing.T) site {
	t.Helper()
	tree := contenttest.Tree(content.TreeOptions{})
	src := domain.NewStatic(nil, "en-US")
	mapper := sitedomain.New()
	cache := routes.NewCache()

	customURLs := urls.NewCustomRouteProvider(nil, urls.Options{})
	resolver := urls.NewResolver(tree, urls.Auto,
		customURLs,
		urls.NewDefaultProvider(tree, src, mapper, cache, urls.Options{}),
		urls.NewAliasProvider(src, mapper, urls.Options{}),
	)
	history := redirects.NewMemory(func(k uuid.UUID) int {
		if n := tree.GetByKey(k); n != nil {
			return n.ID
		}
		return 0
	})
	tpls := templates.NewStatic(
		templates.Template{ID: 1, Alias: "home"},
		templates.Template{ID: 2, Alias: "page"},
	)
	nice := finder.NewByNiceURL(tree, src, cache)

	e, err := engine.New(engine.Options{
		Content: tree,
		Domains: src,
		Finders: finder.Chain{
			finder.NewByIDPath(tree, false),
			nice,
			finder.NewByNiceURLAndTemplate(nice, tpls, false, false),
			finder.NewByURLAlias(tree),
			finder.NewByRedirectURL(tree, history, resolver),
		},
		LastChance: finder.NewConfigured404(tree, src, notfound.New(notfound.Entry{ContentID: contenttest.NotFound})),
		Templates:  tpls,
		URLs:       resolver,
		Access: acl.NewRules(acl.Entry{
			NodeID:         contenttest.Members,
			LoginNodeID:    contenttest.Login,
			NoAccessNodeID: contenttest.NoAccess,
			Roles:          []string{"gold"},
		}),
	})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	custom := NewCustomRoutes(nil, 0, []urls.CustomRoute{{Path: "/promo/", ContentID: contenttest.Widget}}, customURLs)
	if err := custom.Load(context.Background()); err != nil {
		t.Fatalf("custom routes: %v", err)
	}

	roles := func(_ context.Context, id int64) ([]string, error) {
		if id == 42 {
			return []string{"gold"}, nil
		}
		return nil, nil
	}
	h := NewHandler(e, tree, src)
	return site{
		router:    Router(h, custom, auth.FromHeader(roles)),
		redirects: history,
		custom:    custom,
	}
}

func get(t *testing.T, h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) Result {
	t.Helper()
	var res Result
	if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return res
}

func TestServeContent(t *testing.T) {
	s := newSite(t)
	rr := get(t, s.router, "http://example.com/home/about-us")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	res := decode(t, rr)
	if res.ContentID != contenttest.About || res.Template != "page" || res.Culture != "en-US" {
		t.Fatalf("unexpected result %+v", res)
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("security headers missing")
	}
}

func TestServeNotFound(t *testing.T) {
	s := newSite(t)
	rr := get(t, s.router, "http://example.com/about/contact")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	res := decode(t, rr)
	if res.ContentID != contenttest.NotFound || !res.Is404 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestServeExternalRedirect(t *testing.T) {
	s := newSite(t)
	rr := get(t, s.router, "http://example.com/home/go")

	if rr.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/home/products" {
		t.Fatalf("location = %q", loc)
	}
}

func TestServeRedirectHistory(t *testing.T) {
	s := newSite(t)
	if err := s.redirects.Register(context.Background(), "/old-products", contenttest.Key(contenttest.Products), "en-US"); err != nil {
		t.Fatal(err)
	}
	rr := get(t, s.router, "http://example.com/old-products?ref=mail")

	if rr.Code != http.StatusMovedPermanently {
		t.Fatalf("status = %d, want 301", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/home/products?ref=mail" {
		t.Fatalf("location = %q", loc)
	}
	if cc := rr.Header().Get("Cache-Control"); cc != "no-store, must-revalidate" {
		t.Fatalf("cache-control = %q", cc)
	}
}

func TestServeCustomRoute(t *testing.T) {
	s := newSite(t)
	rr := get(t, s.router, "http://example.com/Promo")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if res := decode(t, rr); res.ContentID != contenttest.Widget {
		t.Fatalf("content = %d, want widget", res.ContentID)
	}
}

func TestServeProtected(t *testing.T) {
	s := newSite(t)

	res := decode(t, get(t, s.router, "http://example.com/home/members/secret"))
	if res.ContentID != contenttest.Login {
		t.Fatalf("anonymous: content = %d, want login", res.ContentID)
	}

	res = decode(t, get(t, s.router, "http://example.com/home/members/secret",
		auth.HeaderMemberID, "7", auth.HeaderMemberName, "ann"))
	if res.ContentID != contenttest.NoAccess {
		t.Fatalf("no role: content = %d, want no-access", res.ContentID)
	}

	res = decode(t, get(t, s.router, "http://example.com/home/members/secret",
		auth.HeaderMemberID, "42", auth.HeaderMemberName, "bob"))
	if res.ContentID != contenttest.Secret {
		t.Fatalf("gold: content = %d, want secret", res.ContentID)
	}
}

func TestServeContentURLs(t *testing.T) {
	s := newSite(t)

	rr := get(t, s.router, "http://example.com/_router/urls/1004")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var infos []struct {
		Text  string `json:"text"`
		IsURL bool   `json:"is_url"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&infos); err != nil {
		t.Fatal(err)
	}
	// The custom route wins the main URL but does not route back through
	// the finders, so editors see a message.
	if len(infos) != 1 || infos[0].IsURL {
		t.Fatalf("unexpected infos %+v", infos)
	}

	if rr := get(t, s.router, "http://example.com/_router/urls/abc"); rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestRequestURL(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://Example.com:8080/a/b?c=1", nil)
	req.Header.Set("X-Forwarded-Proto", "HTTPS, http")

	u := RequestURL(req)
	if got := u.String(); got != "https://Example.com:8080/a/b?c=1" {
		t.Fatalf("url = %q", got)
	}
}

func TestCustomRoutesLoad(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT path, content_id FROM custom_route").
		WillReturnRows(sqlmock.NewRows([]string{"path", "content_id"}).
			AddRow("/deal", 1003).
			AddRow("/promo", 1001).
			AddRow("/broken", 0))

	provider := urls.NewCustomRouteProvider(nil, urls.Options{})
	c := NewCustomRoutes(db, time.Minute, []urls.CustomRoute{{Path: "promo", ContentID: 1004}}, provider)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	if id, ok := c.Lookup("/promo/"); !ok || id != 1004 {
		t.Fatalf("configuration must win: got %d", id)
	}
	if id, ok := c.Lookup("/DEAL"); !ok || id != 1003 {
		t.Fatalf("deal = %d", id)
	}
	if _, ok := c.Lookup("/broken"); ok {
		t.Fatalf("non-positive ids must be skipped")
	}
	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCustomRoutesMissingTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT path, content_id FROM custom_route").
		WillReturnError(errors.New("Error 1146 (42S02): Table 'cms.custom_route' doesn't exist"))

	c := NewCustomRoutes(db, 0, []urls.CustomRoute{{Path: "/promo", ContentID: 1004}}, nil)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("missing table must not fail: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("len = %d, want 1", c.Len())
	}

	mock.ExpectQuery("SELECT path, content_id FROM custom_route").
		WillReturnError(errors.New("connection refused"))
	if err := c.Load(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCustomRoutesMiddlewareReloads(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT path, content_id FROM custom_route").
		WillReturnRows(sqlmock.NewRows([]string{"path", "content_id"}).AddRow("/deal", 1003))

	c := NewCustomRoutes(db, time.Nanosecond, nil, nil)

	var got int
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ContentIDFrom(r.Context())
	})
	Middleware(c)(next).ServeHTTP(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodGet, "/deal", nil))

	if got != 1003 {
		t.Fatalf("content id = %d, want 1003", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
