// Package cache holds decoded chunks in memory between reads and writes.
package cache

import (
	"container/list"
	"fmt"
	"sync"
	"sync/atomic"
)

// WriteBack persists a dirty chunk. It is called with the cache lock held
// and must not call back into the cache.
type WriteBack func(key uint64, data []byte) error

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits       int64
	Misses     int64
	Evictions  int64
	WriteBacks int64
	Size       int64
	Capacity   int64
}

// LRU is a byte-bounded least-recently-used chunk cache with write-back of
// dirty entries on eviction.
type LRU struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[uint64]*list.Element
	evictList *list.List
	writeBack WriteBack

	hits       atomic.Int64
	misses     atomic.Int64
	evictions  atomic.Int64
	writeBacks atomic.Int64
}

type entry struct {
	key   uint64
	value []byte
	dirty bool
}

// NewLRU creates a cache holding at most capacity bytes. writeBack may be
// nil for read-only use.
func NewLRU(capacity int64, writeBack WriteBack) *LRU {
	return &LRU{
		capacity:  max(capacity, 0),
		items:     make(map[uint64]*list.Element),
		evictList: list.New(),
		writeBack: writeBack,
	}
}

// Get returns a cached chunk. The slice is owned by the cache; callers that
// modify it must Put it back as dirty.
func (c *LRU) Get(key uint64) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(ent)
		return ent.Value.(*entry).value, true
	}
	c.misses.Add(1)
	return nil, false
}

// Put caches a chunk, evicting older entries to make room. A dirty chunk
// larger than the whole cache is written back immediately; a clean one is
// simply not cached.
func (c *LRU) Put(key uint64, data []byte, dirty bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		e := ent.Value.(*entry)
		c.size += int64(len(data)) - int64(len(e.value))
		e.value = data
		e.dirty = e.dirty || dirty
		c.evictList.MoveToFront(ent)
		return c.evictLocked(ent)
	}

	itemSize := int64(len(data))
	if itemSize > c.capacity {
		if dirty {
			return c.flushOne(key, data)
		}
		return nil
	}

	ent := c.evictList.PushFront(&entry{key: key, value: data, dirty: dirty})
	c.items[key] = ent
	c.size += itemSize
	return c.evictLocked(ent)
}

// Flush writes back every dirty chunk and keeps it cached as clean.
func (c *LRU) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ent := c.evictList.Back(); ent != nil; ent = ent.Prev() {
		e := ent.Value.(*entry)
		if !e.dirty {
			continue
		}
		if err := c.flushOne(e.key, e.value); err != nil {
			return err
		}
		e.dirty = false
	}
	return nil
}

// evictLocked drops least-recently-used entries until the cache fits,
// never evicting keep.
func (c *LRU) evictLocked(keep *list.Element) error {
	for c.size > c.capacity {
		ent := c.evictList.Back()
		if ent == keep {
			ent = ent.Prev()
		}
		if ent == nil {
			break
		}
		e := ent.Value.(*entry)
		if e.dirty {
			if err := c.flushOne(e.key, e.value); err != nil {
				return err
			}
		}
		c.evictList.Remove(ent)
		delete(c.items, e.key)
		c.size -= int64(len(e.value))
		c.evictions.Add(1)
	}
	return nil
}

func (c *LRU) flushOne(key uint64, data []byte) error {
	if c.writeBack == nil {
		return fmt.Errorf("cache: chunk %d is dirty but the cache has no write-back", key)
	}
	if err := c.writeBack(key, data); err != nil {
		return fmt.Errorf("writing back chunk %d: %w", key, err)
	}
	c.writeBacks.Add(1)
	return nil
}

// Stats returns the current counters.
func (c *LRU) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Evictions:  c.evictions.Load(),
		WriteBacks: c.writeBacks.Load(),
		Size:       c.size,
		Capacity:   c.capacity,
	}
}
