package urls

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/contentrouter/internal/content"
	"github.com/yanizio/contentrouter/internal/content/contenttest"
	"github.com/yanizio/contentrouter/internal/domain"
	"github.com/yanizio/contentrouter/internal/routes"
	"github.com/yanizio/contentrouter/internal/sitedomain"
)

type fixture struct {
	resolver *Resolver
	cache    *routes.Cache
}

func setup(t *testing.T, opts Options, hide bool, custom []CustomRoute, ds ...domain.Domain) fixture {
	t.Helper()
	tree := contenttest.Tree(content.TreeOptions{HideTopLevelNodeFromPath: hide})
	src := domain.NewStatic(ds, "en-US")
	mapper := sitedomain.New()
	cache := routes.NewCache()
	r := NewResolver(tree, opts.Mode,
		NewCustomRouteProvider(custom, opts),
		NewDefaultProvider(tree, src, mapper, cache, opts),
		NewAliasProvider(src, mapper, opts),
	)
	return fixture{resolver: r, cache: cache}
}

func mustURL(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	require.NoError(t, err)
	return u
}

func urlOf(t *testing.T, f fixture, id int, mode Mode, culture, current string) string {
	t.Helper()
	s, err := f.resolver.URL(context.Background(), id, mode, culture, mustURL(t, current))
	require.NoError(t, err)
	return s
}

func TestURLWithoutDomains(t *testing.T) {
	f := setup(t, Options{}, false, nil)
	cur := "http://example.com/"

	assert.Equal(t, "/home/about-us", urlOf(t, f, contenttest.About, Default, "", cur))
	assert.Equal(t, "/home/about-us/contact", urlOf(t, f, contenttest.Contact, Default, "", cur))
	assert.Equal(t, "/site-deux/la-page", urlOf(t, f, contenttest.TwoPage, Default, "fr-FR", cur))
	assert.Equal(t, NoURL, urlOf(t, f, contenttest.TwoPage, Default, "de-DE", cur))
	assert.Equal(t, NoURL, urlOf(t, f, 9999, Default, "", cur))
	assert.Equal(t, "http://example.com/home/about-us", urlOf(t, f, contenttest.About, Absolute, "", cur))

	assert.Equal(t, "/home/about-us", f.cache.Route(contenttest.About, ""))
	assert.Equal(t, contenttest.About, f.cache.NodeID("/home/about-us", ""))
}

func TestURLHideTopLevel(t *testing.T) {
	f := setup(t, Options{}, true, nil)
	cur := "http://example.com/"

	assert.Equal(t, "/", urlOf(t, f, contenttest.Home, Default, "", cur))
	assert.Equal(t, "/about-us", urlOf(t, f, contenttest.About, Default, "", cur))
	assert.Equal(t, "/site-two", urlOf(t, f, contenttest.SiteTwo, Default, "en-US", cur),
		"a top-level node other than the default root keeps its segment")
	assert.Equal(t, "/page", urlOf(t, f, contenttest.TwoPage, Default, "en-US", cur))
}

func TestURLWithDomain(t *testing.T) {
	f := setup(t, Options{}, false, nil, domain.New(1, "example.com", contenttest.Home, "en-US", 0))

	assert.Equal(t, "/about-us", urlOf(t, f, contenttest.About, Default, "", "http://example.com/x"))
	assert.Equal(t, "/", urlOf(t, f, contenttest.Home, Default, "", "http://example.com/"))
	assert.Equal(t, "http://example.com/about-us", urlOf(t, f, contenttest.About, Default, "", "http://other.com/"))
	assert.Equal(t, "/about-us", urlOf(t, f, contenttest.About, Relative, "", "http://other.com/"))
	assert.Equal(t, "http://example.com/about-us", urlOf(t, f, contenttest.About, Absolute, "", "http://example.com/"))
	assert.Equal(t, "1000/about-us", f.cache.Route(contenttest.About, ""))
}

func TestURLWithDomainPath(t *testing.T) {
	f := setup(t, Options{}, false, nil, domain.New(1, "example.com/en", contenttest.Home, "en-US", 0))

	assert.Equal(t, "/en/about-us", urlOf(t, f, contenttest.About, Default, "", "http://example.com/"))
	assert.Equal(t, "/en", urlOf(t, f, contenttest.Home, Default, "", "http://example.com/"))
}

func TestURLVariantDomains(t *testing.T) {
	f := setup(t, Options{}, false, nil,
		domain.New(1, "two.com", contenttest.SiteTwo, "en-US", 0),
		domain.New(2, "two.fr", contenttest.SiteTwo, "fr-FR", 1),
	)
	cur := "http://two.com/"

	assert.Equal(t, "/page", urlOf(t, f, contenttest.TwoPage, Default, "en-US", cur))
	assert.Equal(t, "http://two.fr/la-page", urlOf(t, f, contenttest.TwoPage, Default, "fr-FR", cur))
}

func TestURLOptions(t *testing.T) {
	f := setup(t, Options{AddTrailingSlash: true}, false, nil)
	assert.Equal(t, "/home/about-us/", urlOf(t, f, contenttest.About, Default, "", "http://x.com/"))

	d := domain.New(1, "example.com", contenttest.Home, "en-US", 0)
	f = setup(t, Options{Mode: AutoLegacy, UseDomainPrefixes: true}, false, nil, d)
	assert.Equal(t, "http://example.com/about-us", urlOf(t, f, contenttest.About, Default, "", "http://example.com/"))

	f = setup(t, Options{Mode: AutoLegacy}, false, nil, d)
	assert.Equal(t, "/about-us", urlOf(t, f, contenttest.About, Default, "", "http://example.com/"))
}

func TestPreviewSkipsCache(t *testing.T) {
	f := setup(t, Options{}, false, nil)
	ctx := content.WithPreview(context.Background(), true)

	s, err := f.resolver.URL(ctx, contenttest.About, Default, "", mustURL(t, "http://x.com/"))
	require.NoError(t, err)
	assert.Equal(t, "/home/about-us", s)
	assert.Equal(t, 0, f.cache.Len())
}

func TestOtherURLs(t *testing.T) {
	f := setup(t, Options{}, false, nil,
		domain.New(1, "example.com", contenttest.Home, "en-US", 0),
		domain.New(2, "www.example.com", contenttest.Home, "en-US", 1),
	)
	cur := mustURL(t, "http://example.com/")
	ctx := context.Background()

	others, err := f.resolver.OtherURLs(ctx, contenttest.About, cur)
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.Equal(t, "http://www.example.com/about-us", others[0].Text)
	assert.Equal(t, "en-US", others[0].Culture)

	others, err = f.resolver.OtherURLs(ctx, contenttest.Contact, cur)
	require.NoError(t, err)
	assert.Len(t, others, 5)
	assert.Contains(t, others, URL("http://www.example.com/about-us/contact", "en-US"))
	assert.Contains(t, others, URL("http://example.com/contact-us", "en-US"))
	assert.Contains(t, others, URL("http://www.example.com/reach-us", "en-US"))

	others, err = f.resolver.OtherURLs(ctx, 9999, cur)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestAliasOtherURLsWithoutDomains(t *testing.T) {
	f := setup(t, Options{}, false, nil)

	others, err := f.resolver.OtherURLs(context.Background(), contenttest.Contact, mustURL(t, "http://x.com/"))
	require.NoError(t, err)
	assert.Equal(t, []Info{URL("/contact-us", ""), URL("/reach-us", "")}, others)
}

func TestCustomRoutes(t *testing.T) {
	f := setup(t, Options{}, false, []CustomRoute{
		{Path: "/promo", ContentID: contenttest.Widget},
		{Path: "deal/", ContentID: contenttest.Widget},
		{Path: "/nothing", ContentID: 0},
	})

	assert.Equal(t, "/promo", urlOf(t, f, contenttest.Widget, Default, "", "http://x.com/"))
	assert.Equal(t, "http://x.com/promo", urlOf(t, f, contenttest.Widget, Absolute, "", "http://x.com/"))

	others, err := f.resolver.OtherURLs(context.Background(), contenttest.Widget, mustURL(t, "http://x.com/"))
	require.NoError(t, err)
	assert.Contains(t, others, URL("/deal", ""))
}

func TestInfoAndMode(t *testing.T) {
	assert.True(t, URL("/Foo", "EN-us").Equal(URL("/foo", "en-US")))
	assert.False(t, URL("/foo", "").Equal(Message("/foo", "")))
	assert.Equal(t, URL("/Foo", "EN").Key(), URL("/foo", "en").Key())

	for in, want := range map[string]Mode{"": Default, "Auto": Auto, "relative": Relative, "ABSOLUTE": Absolute, "autolegacy": AutoLegacy} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("sideways")
	assert.Error(t, err)
}
