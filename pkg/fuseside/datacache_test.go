package fuseside

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDataCacheInsertAndGet(t *testing.T) {
	c := NewDataCache(10, 1<<20, 1<<16)
	require.True(t, c.Insert(1, []byte("hello"), 1))
	v, ok := c.Get(1)
	require.True(t, ok)
	require.Equal(t, []byte("hello"), v)

	hits, misses := c.Stats()
	require.Equal(t, uint64(1), hits)
	require.Equal(t, uint64(0), misses)

	_, ok = c.Get(2)
	require.False(t, ok)
	_, misses = c.Stats()
	require.Equal(t, uint64(1), misses)
}

func TestDataCacheRejectsOversizedEntry(t *testing.T) {
	c := NewDataCache(10, 1<<20, 4)
	require.False(t, c.Insert(1, []byte("too big"), 1))

	c2 := NewDataCache(10, 4, 1<<20)
	require.False(t, c2.Insert(1, []byte("too big"), 1))
}

func TestDataCacheEvictsLRUUnderFileBound(t *testing.T) {
	c := NewDataCache(2, 1<<20, 1<<16)
	c.Insert(1, []byte("a"), 1)
	c.Insert(2, []byte("b"), 1)
	c.Insert(3, []byte("c"), 1)

	require.Equal(t, 2, c.Len())
	_, ok := c.Get(1)
	require.False(t, ok, "oldest entry evicted")
}

func TestDataCacheEvictsUnderByteBound(t *testing.T) {
	c := NewDataCache(10, 10, 10)
	c.Insert(1, []byte("12345"), 1)
	c.Insert(2, []byte("12345"), 1)
	c.Insert(3, []byte("12345"), 1)

	require.LessOrEqual(t, c.TotalBytes(), uint64(10))
}

func TestDataCacheReplaceSubtractsOldSize(t *testing.T) {
	c := NewDataCache(10, 10, 10)
	c.Insert(1, []byte("12345"), 1)
	c.Insert(1, []byte("123"), 2)
	require.Equal(t, uint64(3), c.TotalBytes())
}

func TestDataCacheGenerationRoundTripLaws(t *testing.T) {
	c := NewDataCache(10, 1<<20, 1<<16)
	c.Insert(1, []byte("v"), 7)
	c.InvalidateIfGeneration(1, 7)
	_, ok := c.Get(1)
	require.True(t, ok, "matching generation does not invalidate")

	c.Insert(1, []byte("v"), 7)
	c.InvalidateIfGeneration(1, 8)
	_, ok = c.Get(1)
	require.False(t, ok, "differing generation invalidates")
}

func TestDataCacheInvalidate(t *testing.T) {
	c := NewDataCache(10, 1<<20, 1<<16)
	c.Insert(1, []byte("v"), 1)
	c.Invalidate(1)
	_, ok := c.Get(1)
	require.False(t, ok)
}
