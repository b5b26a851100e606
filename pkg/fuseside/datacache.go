package fuseside

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

type cacheEntry struct {
	data       []byte
	generation uint64
}

// DataCache is an LRU page cache bounded by both file count and total
// bytes, with a per-entry size cap. The LRU ordering and file-count
// bound are delegated to hashicorp/golang-lru; the byte-budget bound
// is enforced on top by evicting additional oldest entries after
// insert.
type DataCache struct {
	mu sync.Mutex

	maxBytes    uint64
	maxFileSize uint64

	totalBytes uint64
	cache      *lru.Cache

	hits   uint64
	misses uint64
}

func NewDataCache(maxFiles int, maxBytes, maxFileSize uint64) *DataCache {
	c := &DataCache{maxBytes: maxBytes, maxFileSize: maxFileSize}
	cache, err := lru.NewWithEvict(maxFiles, func(key, value interface{}) {
		c.totalBytes -= uint64(len(value.(*cacheEntry).data))
	})
	if err != nil {
		// maxFiles <= 0 is the only failure mode; fall back to a
		// single-entry cache rather than propagate a constructor error.
		cache, _ = lru.New(1)
	}
	c.cache = cache
	return c
}

// Insert adds or replaces the entry for inode. Returns false without
// modifying the cache if the entry (on its own) violates max_file_size
// or max_bytes.
func (c *DataCache) Insert(inode uint64, data []byte, generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := uint64(len(data))
	if size > c.maxFileSize || size > c.maxBytes {
		return false
	}

	// Remove fires the evict callback, which subtracts the old size.
	c.cache.Remove(inode)

	for c.totalBytes+size > c.maxBytes && c.cache.Len() > 0 {
		c.cache.RemoveOldest()
	}

	c.cache.Add(inode, &cacheEntry{data: data, generation: generation})
	c.totalBytes += size
	return true
}

// Get returns the cached bytes for inode, touching LRU order and
// recording a hit or miss.
func (c *DataCache) Get(inode uint64) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.cache.Get(inode)
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	return v.(*cacheEntry).data, true
}

func (c *DataCache) Invalidate(inode uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Remove(inode)
}

// InvalidateIfGeneration removes the entry only if its stored
// generation differs from gen.
func (c *DataCache) InvalidateIfGeneration(inode uint64, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.cache.Peek(inode)
	if !ok || v.(*cacheEntry).generation == gen {
		return
	}
	c.cache.Remove(inode)
}

func (c *DataCache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *DataCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}

func (c *DataCache) TotalBytes() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalBytes
}
