package cache

import (
	"strconv"
	"time"

	"github.com/SadLabib/Spendit/internal/core"
)

// OptionsCache memoizes the category picker options per user. Entries
// are invalidated whenever the user's categories change.
type OptionsCache struct {
	lru *LRUCache[[]core.CategoryOption]
}

func NewOptionsCache(maxUsers int, ttl time.Duration) *OptionsCache {
	return &OptionsCache{
		lru: NewLRUCache[[]core.CategoryOption](maxUsers, ttl),
	}
}

func (c *OptionsCache) Get(userID int64) ([]core.CategoryOption, bool) {
	return c.lru.Get(key(userID))
}

func (c *OptionsCache) Set(userID int64, options []core.CategoryOption) {
	c.lru.Set(key(userID), options)
}

// Invalidate drops the user's cached options after a category create,
// edit or delete.
func (c *OptionsCache) Invalidate(userID int64) {
	c.lru.Delete(key(userID))
}

// CleanExpired implements the manager's Cleaner interface.
func (c *OptionsCache) CleanExpired() int {
	return c.lru.CleanExpired()
}

func (c *OptionsCache) Size() int {
	return c.lru.Size()
}

func key(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
