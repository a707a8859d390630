package sitedomain

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/contentrouter/internal/domain"
)

func mustURL(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	require.NoError(t, err)
	return u
}

func candidates(t *testing.T, current *url.URL, names ...string) []*domain.DomainAndURI {
	t.Helper()
	ds := make([]domain.Domain, 0, len(names))
	for i, n := range names {
		ds = append(ds, domain.New(i+1, n, 1000, "en-US", i))
	}
	out, err := domain.SelectDomains(ds, current)
	require.NoError(t, err)
	return out
}

func ids(ds []*domain.DomainAndURI) []int {
	out := make([]int, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.ID)
	}
	return out
}

func TestAddSiteValidation(t *testing.T) {
	h := New()
	require.NoError(t, h.AddSite("site1", "example.com", "https://www.example.com:8080/", "*"))
	assert.ErrorIs(t, h.AddSite("bad", "exa mple.com"), ErrInvalidSiteDomain)
	assert.ErrorIs(t, h.AddSite("bad", "example.com/path"), ErrInvalidSiteDomain)
	assert.True(t, h.HasSites())
}

func TestBindSitesIsTransitive(t *testing.T) {
	h := New()
	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, h.AddSite(k, k+".com"))
	}
	require.NoError(t, h.BindSites("a", "b"))
	require.NoError(t, h.BindSites("b", "c"))

	assert.ElementsMatch(t, []string{"b", "c"}, h.Bindings("a"))
	assert.ElementsMatch(t, []string{"a", "c"}, h.Bindings("b"))
	assert.ElementsMatch(t, []string{"a", "b"}, h.Bindings("c"))
	assert.Empty(t, h.Bindings("d"))

	assert.ErrorIs(t, h.BindSites("a", "zz"), ErrUnknownSite)

	h.RemoveSite("b")
	assert.ElementsMatch(t, []string{"c"}, h.Bindings("a"))
}

func TestMapDomainWithoutSites(t *testing.T) {
	h := New()
	cur := mustURL(t, "http://other.com/")
	ds := []domain.Domain{
		domain.New(1, "a.com", 1000, "en-US", 0),
		domain.New(2, "b.com", 1000, "fr-FR", 1),
	}
	cands, err := domain.SelectDomains(ds, cur)
	require.NoError(t, err)

	assert.Equal(t, 1, h.MapDomain(cands, cur, "en-US", "").ID)
	assert.Equal(t, 2, h.MapDomain(cands, cur, "", "fr-FR").ID)
	assert.Equal(t, 2, h.MapDomain(cands, cur, "", "").ID, "first candidate")
}

func TestMapDomainPrefersCurrentSiteThenBound(t *testing.T) {
	h := New()
	require.NoError(t, h.Configure([]Site{
		{Key: "one", Domains: []string{"one.com", "www.one.com"}},
		{Key: "two", Domains: []string{"two.com"}},
		{Key: "three", Domains: []string{"three.com"}},
	}, [][]string{{"one", "three"}}))

	cur := mustURL(t, "http://www.one.com/page")
	cands := candidates(t, cur, "two.com", "one.com", "three.com")
	assert.Equal(t, "http://one.com/", h.MapDomain(cands, cur, "", "").String())

	cands = candidates(t, cur, "two.com", "three.com")
	assert.Equal(t, "http://three.com/", h.MapDomain(cands, cur, "", "").String())

	cur = mustURL(t, "http://elsewhere.com/")
	cands = candidates(t, cur, "three.com", "two.com")
	assert.Equal(t, "http://two.com/", h.MapDomain(cands, cur, "", "").String(),
		"sites are tried in declaration order")
}

func TestMapDomainsFiltersToBoundSites(t *testing.T) {
	h := New()
	require.NoError(t, h.Configure([]Site{
		{Key: "one", Domains: []string{"one.com"}},
		{Key: "two", Domains: []string{"two.com"}},
		{Key: "three", Domains: []string{"three.com"}},
	}, [][]string{{"one", "three"}}))

	cur := mustURL(t, "http://one.com/")
	cands := candidates(t, cur, "one.com", "two.com", "three.com")

	got := h.MapDomains(cands, cur, false, "", "")
	assert.ElementsMatch(t, []int{1, 3}, ids(got))

	got = h.MapDomains(cands, cur, true, "", "")
	assert.Equal(t, []int{3}, ids(got), "current domain excluded")

	cur = mustURL(t, "http://nowhere.com/")
	got = h.MapDomains(cands, cur, false, "", "")
	assert.Len(t, got, 3)
}

func TestQualifiedPerScheme(t *testing.T) {
	h := New()
	require.NoError(t, h.AddSite("one", "one.com", "https://secure.one.com"))

	cur := mustURL(t, "https://secure.one.com/")
	cands := candidates(t, cur, "two.com", "secure.one.com")
	assert.Equal(t, "https://secure.one.com/", h.MapDomain(cands, cur, "", "").String())
}
