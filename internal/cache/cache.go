// Package cache provides the process-wide TTL store shared by the resolver
// stages. Entries expire lazily on read.
package cache

import (
	"container/list"
	"sync"
	"time"
)

type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	Delete(key string)
	Clear()
}

// Entry is a stored value and the moment it was written.
type Entry struct {
	Key      string
	Value    interface{}
	StoredAt time.Time
}

// TTLCache is a capacity-bounded LRU whose entries are reported absent once
// now - StoredAt >= ttl. A capacity <= 0 disables eviction.
type TTLCache struct {
	capacity  int
	ttl       time.Duration
	items     map[string]*list.Element
	evictList *list.List
	now       func() time.Time
	mu        sync.Mutex
}

func New(capacity int, ttl time.Duration) *TTLCache {
	return &TTLCache{
		capacity:  capacity,
		ttl:       ttl,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
		now:       time.Now,
	}
}

// WithClock replaces the time source. Tests use it to cross the TTL boundary.
func (c *TTLCache) WithClock(now func() time.Time) *TTLCache {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

// TTL returns the configured lifetime of an entry.
func (c *TTLCache) TTL() time.Duration {
	return c.ttl
}

func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*Entry)
	if c.expired(entry, c.now()) {
		c.removeElement(elem)
		return nil, false
	}
	c.evictList.MoveToFront(elem)
	return entry.Value, true
}

// Set stores value, replacing any previous entry for key. Concurrent writers
// race; the last write wins.
func (c *TTLCache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	storedAt := c.now()
	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*Entry)
		entry.Value = value
		entry.StoredAt = storedAt
		c.evictList.MoveToFront(elem)
		return
	}

	elem := c.evictList.PushFront(&Entry{Key: key, Value: value, StoredAt: storedAt})
	c.items[key] = elem

	if c.capacity > 0 && c.evictList.Len() > c.capacity {
		c.removeOldest()
	}
}

func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

func (c *TTLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.evictList.Init()
}

// Len counts stored entries, expired ones included.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

func (c *TTLCache) expired(e *Entry, now time.Time) bool {
	return c.ttl > 0 && now.Sub(e.StoredAt) >= c.ttl
}

func (c *TTLCache) removeOldest() {
	if elem := c.evictList.Back(); elem != nil {
		c.removeElement(elem)
	}
}

func (c *TTLCache) removeElement(elem *list.Element) {
	c.evictList.Remove(elem)
	delete(c.items, elem.Value.(*Entry).Key)
}

// CleanExpired drops every expired entry and returns how many were removed.
func (c *TTLCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var toRemove []*list.Element
	for elem := c.evictList.Back(); elem != nil; elem = elem.Prev() {
		if c.expired(elem.Value.(*Entry), now) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		c.removeElement(elem)
	}
	return len(toRemove)
}
