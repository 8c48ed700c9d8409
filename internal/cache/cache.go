package cache

import (
	"container/list"
	"sync"
	"time"
)

// Status represents the cache lookup result.
type Status string

const (
	StatusHit     Status = "hit"
	StatusMiss    Status = "miss"
	StatusStale   Status = "stale"
	StatusExpired Status = "expired"
)

// File identifies the version of a source file an entry was built from.
type File struct {
	ModTime time.Time
	Size    int64
}

// Matches reports whether f and o describe the same file version.
func (f File) Matches(o File) bool {
	return f.Size == o.Size && f.ModTime.Equal(o.ModTime)
}

// Entry holds an enhanced page.
type Entry struct {
	HTML      []byte
	Source    string // content type of the source file
	Token     string // date token of the page, if any
	File      File
	Size      int64
	ExpiresAt time.Time
}

// Cache is a thread-safe, in-memory LRU cache of enhanced pages keyed by
// request path, with TTL and byte-counting eviction.
type Cache struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List
	ttl     time.Duration
	maxSize int64
	curSize int64
	now     func() time.Time // injectable for testing
}

type cacheItem struct {
	key   string
	entry Entry
}

// New creates a cache with the given TTL and max size in bytes.
func New(ttl time.Duration, maxSize int64) *Cache {
	return &Cache{
		items:   make(map[string]*list.Element),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get retrieves the entry for key if it was built from file. An entry built
// from another version of the file is dropped and reported stale; an entry
// past its TTL is dropped and reported expired.
func (c *Cache) Get(key string, file File) (*Entry, Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, StatusMiss
	}

	item := elem.Value.(*cacheItem)

	if !item.entry.File.Matches(file) {
		c.remove(elem)
		return nil, StatusStale
	}

	if c.now().After(item.entry.ExpiresAt) {
		c.remove(elem)
		return nil, StatusExpired
	}

	// Move to front (most recently used)
	c.order.MoveToFront(elem)
	return &item.entry, StatusHit
}

// Put stores an entry in the cache. Evicts LRU entries if necessary.
func (c *Cache) Put(key string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry.ExpiresAt = c.now().Add(c.ttl)

	// Update existing
	if elem, ok := c.items[key]; ok {
		old := elem.Value.(*cacheItem)
		c.curSize -= old.entry.Size
		old.entry = entry
		c.curSize += entry.Size
		c.order.MoveToFront(elem)
		c.evict()
		return
	}

	// Insert new
	item := &cacheItem{key: key, entry: entry}
	elem := c.order.PushFront(item)
	c.items[key] = elem
	c.curSize += entry.Size

	c.evict()
}

// Invalidate drops the entry for key, if any.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.remove(elem)
	}
}

// evict removes LRU entries until curSize <= maxSize. Must be called with mu held.
func (c *Cache) evict() {
	for c.curSize > c.maxSize && c.order.Len() > 0 {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.remove(oldest)
	}
}

// remove drops one element. Must be called with mu held.
func (c *Cache) remove(elem *list.Element) {
	item := elem.Value.(*cacheItem)
	c.curSize -= item.entry.Size
	delete(c.items, item.key)
	c.order.Remove(elem)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Size returns the current byte size of the cache.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.curSize
}
