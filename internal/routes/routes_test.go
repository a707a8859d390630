// internal/routes/routes_test.go
//
// Unit-tests for route parsing and the bidirectional cache.
//
// Run: go test ./internal/routes -v

package routes

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteRoundTrip(t *testing.T) {
	for _, s := range []string{"/", "/foo", "/foo/bar", "1234/", "1234/foo/bar"} {
		r, err := Parse(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, r.String())
	}
}

func TestParse(t *testing.T) {
	r, err := Parse("1234/foo")
	require.NoError(t, err)
	assert.Equal(t, 1234, r.RootID)
	assert.Equal(t, "/foo", r.Path)
	assert.True(t, r.HasRoot())

	r, err = Parse("-1/foo")
	require.NoError(t, err)
	assert.False(t, r.HasRoot())
	assert.Equal(t, "/foo", r.String())

	for _, bad := range []string{"", "foo", "abc/foo", "0/foo", "-7/foo"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidRoute, bad)
	}
}

func TestSegments(t *testing.T) {
	assert.Empty(t, New(0, "/").Segments())
	assert.Equal(t, []string{"a", "b"}, New(5, "/a//b/").Segments())
	assert.Equal(t, "12/a/b", FromSegments(12, []string{"a", "b"}).String())
	assert.Equal(t, "/", FromSegments(0, nil).String())
}

func TestMakeSegment(t *testing.T) {
	assert.Equal(t, "about-us", MakeSegment("About Us!"))
	assert.Equal(t, "café-menu", MakeSegment("Café  Menu"))
	assert.Equal(t, "item", MakeSegment("!!!"))
}

func TestJoinPaths(t *testing.T) {
	assert.Equal(t, "/", JoinPaths("/", "/"))
	assert.Equal(t, "/fr/page", JoinPaths("/fr/", "/page"))
	assert.Equal(t, "/fr", JoinPaths("/fr", "/"))
	assert.Equal(t, "http://example.com/a", JoinPaths("http://example.com/", "/a"))
}

func TestCacheBidirectional(t *testing.T) {
	c := NewCache()
	c.Store(10, "", "/foo")
	c.Store(20, "", "1000/bar")

	assert.Equal(t, 10, c.NodeID(c.Route(10, ""), ""))
	assert.Equal(t, "1000/bar", c.Route(c.NodeID("1000/bar", ""), ""))

	// moving node 10 drops its old route
	c.Store(10, "", "/moved")
	assert.Equal(t, 0, c.NodeID("/foo", ""))
	assert.Equal(t, 10, c.NodeID("/moved", ""))

	// a route claimed by another node drops the previous owner
	c.Store(30, "", "/moved")
	assert.Equal(t, "", c.Route(10, ""))
	assert.Equal(t, 30, c.NodeID("/moved", ""))
}

func TestCacheCultureScoped(t *testing.T) {
	c := NewCache()
	c.Store(10, "en-US", "1000/about")
	c.Store(10, "fr-FR", "1000/a-propos")

	assert.Equal(t, "1000/about", c.Route(10, "en-US"))
	assert.Equal(t, "1000/a-propos", c.Route(10, "fr-FR"))
	assert.Equal(t, 0, c.NodeID("1000/about", "fr-FR"))

	c.ClearNode(10)
	assert.Equal(t, "", c.Route(10, "en-US"))
	assert.Equal(t, 0, c.NodeID("1000/a-propos", "fr-FR"))
	assert.Zero(t, c.Len())
}

func TestCacheClear(t *testing.T) {
	c := NewCache()
	c.Store(1, "", "/a")
	c.Store(2, "", "/b")
	c.Clear()
	assert.Zero(t, c.Len())
	assert.Equal(t, 0, c.NodeID("/a", ""))
}

func TestCacheIgnoresInvalid(t *testing.T) {
	c := NewCache()
	c.Store(0, "", "/a")
	c.Store(5, "", "")
	assert.Zero(t, c.Len())
}

func TestCacheConcurrent(t *testing.T) {
	c := NewCache()
	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			c.Store(id, "", FromSegments(0, []string{MakeSegment(string(rune('a' + id%26)))}).String())
		}(i)
		go func(id int) {
			defer wg.Done()
			_ = c.Route(id, "")
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 50)
}
