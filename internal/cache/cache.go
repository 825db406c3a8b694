// Package cache holds search results between writes. The store is
// best-effort by contract: a failed or missing cache only costs a
// recomputed query, never correctness of the underlying data.
package cache

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/iammorganparry/recall/internal/models"
)

// DefaultSize is the default number of cached result sets.
const DefaultSize = 512

// SearchCache is the injected cache handle used by the memory service.
// Invalidate drops every entry under a namespace; it must be idempotent.
type SearchCache interface {
	Get(namespace, key string) (models.SearchPage, bool)
	Set(namespace, key string, page models.SearchPage)
	Invalidate(namespace string) error
}

// LRU is an in-process SearchCache. Namespace invalidation uses a
// versioned-key scheme: every entry key embeds the namespace's current
// version counter, and invalidation bumps the counter, orphaning old
// entries without a pattern scan. Orphans age out of the LRU naturally.
type LRU struct {
	entries *lru.Cache[string, models.SearchPage]

	mu       sync.Mutex
	versions map[string]uint64
}

// NewLRU creates a cache holding at most size result sets.
func NewLRU(size int) (*LRU, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, models.SearchPage](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &LRU{
		entries:  entries,
		versions: make(map[string]uint64),
	}, nil
}

func (c *LRU) Get(namespace, key string) (models.SearchPage, bool) {
	return c.entries.Get(c.fullKey(namespace, key))
}

func (c *LRU) Set(namespace, key string, page models.SearchPage) {
	c.entries.Add(c.fullKey(namespace, key), page)
}

// Invalidate bumps the namespace version so no existing entry can be read
// again. Calling it repeatedly with no intervening writes is harmless.
func (c *LRU) Invalidate(namespace string) error {
	c.mu.Lock()
	c.versions[namespace]++
	c.mu.Unlock()
	return nil
}

func (c *LRU) fullKey(namespace, key string) string {
	c.mu.Lock()
	v := c.versions[namespace]
	c.mu.Unlock()
	return fmt.Sprintf("%s@%d:%s", namespace, v, key)
}
