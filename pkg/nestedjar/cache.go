// SPDX-License-Identifier: MPL-2.0

package nestedjar

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

type (
	// Observer receives read and cache events. Implementations must be safe
	// for concurrent use.
	Observer interface {
		IndexCacheHit()
		IndexCacheMiss()
		// ArchiveOpened is called each time an archive level is entered.
		// Inflated is true when the level had to be decompressed into memory.
		ArchiveOpened(inflated bool)
	}

	// IndexCache shares parsed central directories between reads.
	// A nil *IndexCache is valid and caches nothing.
	IndexCache struct {
		lru *lru.Cache[string, *Index]
	}

	nopObserver struct{}
)

// NewIndexCache creates a cache holding up to size archive indexes.
// A size of zero or less disables caching and returns a nil cache.
func NewIndexCache(size int) (*IndexCache, error) {
	if size <= 0 {
		return nil, nil
	}
	c, err := lru.New[string, *Index](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create index cache: %w", err)
	}
	return &IndexCache{lru: c}, nil
}

// Len returns the number of cached indexes.
func (c *IndexCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

// Purge drops every cached index.
func (c *IndexCache) Purge() {
	if c != nil {
		c.lru.Purge()
	}
}

func (c *IndexCache) get(key string) (*Index, bool) {
	if c == nil {
		return nil, false
	}
	return c.lru.Get(key)
}

func (c *IndexCache) add(key string, idx *Index) {
	if c != nil {
		c.lru.Add(key, idx)
	}
}

func (nopObserver) IndexCacheHit()     {}
func (nopObserver) IndexCacheMiss()    {}
func (nopObserver) ArchiveOpened(bool) {}
