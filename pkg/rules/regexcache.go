package rules

import (
	"container/list"
	"regexp"
	"sync"
)

// RegexCache is a bounded LRU cache of compiled regular expressions, keyed by
// pattern plus case sensitivity. It is owned by an Evaluator rather than
// being process-global: correctness never depends on cache state, only
// compile cost does.
type RegexCache struct {
	mu      sync.Mutex
	maxSize int
	order   *list.List
	entries map[string]*list.Element

	hits   int64
	misses int64
}

type cacheEntry struct {
	key string
	re  *regexp.Regexp
}

// NewRegexCache creates a cache bounded at maxSize compiled patterns.
func NewRegexCache(maxSize int) *RegexCache {
	if maxSize <= 0 {
		maxSize = 128
	}
	return &RegexCache{
		maxSize: maxSize,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

func cacheKey(pattern string, caseSensitive bool) string {
	if caseSensitive {
		return "cs:" + pattern
	}
	return "ci:" + pattern
}

// Get returns the compiled regex for a pattern, compiling and caching it on a
// miss. Case-insensitive patterns compile with the (?i) flag.
func (c *RegexCache) Get(pattern string, caseSensitive bool) (*regexp.Regexp, error) {
	key := cacheKey(pattern, caseSensitive)

	c.mu.Lock()
	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)
		c.hits++
		re := elem.Value.(*cacheEntry).re
		c.mu.Unlock()
		return re, nil
	}
	c.misses++
	c.mu.Unlock()

	source := pattern
	if !caseSensitive {
		source = "(?i)" + pattern
	}
	re, err := regexp.Compile(source)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[key]; ok {
		// Lost a compile race with another caller; keep theirs.
		c.order.MoveToFront(elem)
		return elem.Value.(*cacheEntry).re, nil
	}
	elem := c.order.PushFront(&cacheEntry{key: key, re: re})
	c.entries[key] = elem
	if c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}
	return re, nil
}

// Len returns the number of cached patterns.
func (c *RegexCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns hit and miss counters.
func (c *RegexCache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Clear empties the cache. Evaluation results must be identical before and
// after a clear.
func (c *RegexCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element)
}
