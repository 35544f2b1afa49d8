// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package cache

import (
	"strings"
	"sync"
	"time"
)

// lfuEntry is a node in a per-frequency doubly linked list.
type lfuEntry struct {
	key       string
	value     interface{}
	freq      int
	expiresAt time.Time
	prev      *lfuEntry
	next      *lfuEntry
}

// freqList holds entries sharing one access frequency, most recently used
// at the front.
type freqList struct {
	head *lfuEntry // sentinel
	tail *lfuEntry // sentinel
	size int
}

func newFreqList() *freqList {
	fl := &freqList{
		head: &lfuEntry{},
		tail: &lfuEntry{},
	}
	fl.head.next = fl.tail
	fl.tail.prev = fl.head
	return fl
}

func (fl *freqList) addToFront(entry *lfuEntry) {
	entry.prev = fl.head
	entry.next = fl.head.next
	fl.head.next.prev = entry
	fl.head.next = entry
	fl.size++
}

func (fl *freqList) remove(entry *lfuEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
	entry.prev = nil
	entry.next = nil
	fl.size--
}

func (fl *freqList) removeLast() *lfuEntry {
	if fl.size == 0 {
		return nil
	}
	entry := fl.tail.prev
	fl.remove(entry)
	return entry
}

// LFUCache is a bounded Least Frequently Used cache with per-entry TTL.
// Get, Set and eviction are O(1). Ties at the lowest frequency evict the
// least recently used entry.
//
// Recommendation traffic is skewed toward a few active users, which keeps
// their result sets resident while one-off lookups age out.
type LFUCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	keyMap   map[string]*lfuEntry
	freqMap  map[int]*freqList
	minFreq  int
	now      func() time.Time

	hits      int64
	misses    int64
	evictions int64
}

// NewLFUCache creates an LFU cache. Non-positive arguments fall back to
// 10000 entries and a 5 minute TTL.
func NewLFUCache(capacity int, ttl time.Duration) *LFUCache {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &LFUCache{
		capacity: capacity,
		ttl:      ttl,
		keyMap:   make(map[string]*lfuEntry, capacity),
		freqMap:  make(map[int]*freqList),
		now:      time.Now,
	}
}

// Get retrieves a value and bumps its frequency.
func (c *LFUCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.keyMap[key]
	if !exists {
		c.misses++
		return nil, false
	}

	if c.now().After(entry.expiresAt) {
		c.removeEntry(entry)
		c.misses++
		c.evictions++
		return nil, false
	}

	c.incrementFreq(entry)
	c.hits++
	return entry.value, true
}

// Set stores a value with the default TTL.
func (c *LFUCache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL. Updating an existing key
// counts as an access.
func (c *LFUCache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(ttl)

	if entry, exists := c.keyMap[key]; exists {
		entry.value = value
		entry.expiresAt = expiresAt
		c.incrementFreq(entry)
		return
	}

	if len(c.keyMap) >= c.capacity {
		c.evict()
	}

	entry := &lfuEntry{
		key:       key,
		value:     value,
		freq:      1,
		expiresAt: expiresAt,
	}
	if c.freqMap[1] == nil {
		c.freqMap[1] = newFreqList()
	}
	c.freqMap[1].addToFront(entry)
	c.keyMap[key] = entry
	c.minFreq = 1
}

// Delete removes a key.
func (c *LFUCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.keyMap[key]; exists {
		c.removeEntry(entry)
		c.evictions++
	}
}

// DeletePrefix removes every key starting with prefix.
func (c *LFUCache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.keyMap {
		if strings.HasPrefix(key, prefix) {
			c.removeEntry(entry)
			removed++
		}
	}
	c.evictions += int64(removed)
	return removed
}

// Clear removes all entries.
func (c *LFUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictions += int64(len(c.keyMap))
	c.keyMap = make(map[string]*lfuEntry, c.capacity)
	c.freqMap = make(map[int]*freqList)
	c.minFreq = 0
}

// Len returns the number of stored entries.
func (c *LFUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.keyMap)
}

// Frequency returns the access count of key, or 0 if absent.
func (c *LFUCache) Frequency(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.keyMap[key]; exists {
		return entry.freq
	}
	return 0
}

// GetStats returns a snapshot of cache statistics.
func (c *LFUCache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		TotalKeys: int64(len(c.keyMap)),
	}
}

// HitRate returns the cache hit rate as a percentage.
func (c *LFUCache) HitRate() float64 {
	return hitRate(c.GetStats())
}

// Close is a no-op; expired LFU entries are dropped lazily.
func (c *LFUCache) Close() {}

func (c *LFUCache) incrementFreq(entry *lfuEntry) {
	oldFreq := entry.freq
	if fl, exists := c.freqMap[oldFreq]; exists {
		fl.remove(entry)
		if fl.size == 0 {
			delete(c.freqMap, oldFreq)
			if c.minFreq == oldFreq {
				c.minFreq++
			}
		}
	}

	entry.freq++
	if c.freqMap[entry.freq] == nil {
		c.freqMap[entry.freq] = newFreqList()
	}
	c.freqMap[entry.freq].addToFront(entry)
}

// evict drops the least recently used entry at the lowest frequency.
func (c *LFUCache) evict() {
	fl := c.freqMap[c.minFreq]
	if fl == nil || fl.size == 0 {
		// minFreq can point at a list emptied by Delete.
		c.minFreq = 0
		for freq, list := range c.freqMap {
			if list.size > 0 && (c.minFreq == 0 || freq < c.minFreq) {
				c.minFreq = freq
			}
		}
		if fl = c.freqMap[c.minFreq]; fl == nil {
			return
		}
	}

	if entry := fl.removeLast(); entry != nil {
		delete(c.keyMap, entry.key)
		c.evictions++
		if fl.size == 0 {
			delete(c.freqMap, entry.freq)
		}
	}
}

func (c *LFUCache) removeEntry(entry *lfuEntry) {
	if fl, exists := c.freqMap[entry.freq]; exists {
		fl.remove(entry)
		if fl.size == 0 {
			delete(c.freqMap, entry.freq)
		}
	}
	delete(c.keyMap, entry.key)
}
