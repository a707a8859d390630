package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRUEvictsLeastRecent(t *testing.T) {
	c := New[string, int](2)
	c.Add("a", 1)
	c.Add("b", 2)
	_, _ = c.Get("a") // a is now MRU
	c.Add("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Len())
}

func TestLRUUpdateAndPurge(t *testing.T) {
	c := New[int, string](4)
	c.Add(1, "x")
	c.Add(1, "y")
	v, _ := c.Get(1)
	assert.Equal(t, "y", v)
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Zero(t, c.Len())
}

func TestLRUPanicsOnZeroCapacity(t *testing.T) {
	assert.Panics(t, func() { New[int, int](0) })
}
