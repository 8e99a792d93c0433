package router

import (
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// Ring is a fixed-capacity cache with exactly one slot per key.
//
// A key lives in slot hash(key) mod capacity. There is no chaining or
// probing: Set overwrites whatever occupies the slot, and Get succeeds only
// if the occupant's key equals the requested key. Colliding keys evict each
// other, which keeps memory bounded and every operation O(1).
//
// Each slot has its own lock so a key and its value are always written and
// read together.
type Ring[K comparable, V any] struct {
	slots []ringSlot[K, V]
	hash  func(K) uint64

	size      atomic.Int64
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type ringSlot[K comparable, V any] struct {
	mu    sync.Mutex
	used  bool
	key   K
	value V
}

// RingStats is a point-in-time view of a Ring's counters.
type RingStats struct {
	Capacity  int    `json:"capacity"`
	Size      int    `json:"size"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// NewRing creates a cache with capacity slots. A capacity below 1 is
// raised to 1.
func NewRing[K comparable, V any](capacity int, hash func(K) uint64) *Ring[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[K, V]{
		slots: make([]ringSlot[K, V], capacity),
		hash:  hash,
	}
}

func (c *Ring[K, V]) slot(key K) *ringSlot[K, V] {
	return &c.slots[c.hash(key)%uint64(len(c.slots))]
}

// Get returns the value stored for key.
func (c *Ring[K, V]) Get(key K) (V, bool) {
	s := c.slot(key)
	s.mu.Lock()
	if s.used && s.key == key {
		v := s.value
		s.mu.Unlock()
		c.hits.Add(1)
		return v, true
	}
	s.mu.Unlock()

	c.misses.Add(1)
	var zero V
	return zero, false
}

// Set stores value for key, evicting any other key that shared the slot.
func (c *Ring[K, V]) Set(key K, value V) {
	s := c.slot(key)
	s.mu.Lock()
	switch {
	case !s.used:
		c.size.Add(1)
	case s.key != key:
		c.evictions.Add(1)
	}
	s.used, s.key, s.value = true, key, value
	s.mu.Unlock()
}

// Delete removes key if it is currently stored.
func (c *Ring[K, V]) Delete(key K) {
	s := c.slot(key)
	s.mu.Lock()
	if s.used && s.key == key {
		c.reset(s)
	}
	s.mu.Unlock()
}

// Clear empties every slot. Counters other than the size are kept.
func (c *Ring[K, V]) Clear() {
	for i := range c.slots {
		s := &c.slots[i]
		s.mu.Lock()
		if s.used {
			c.reset(s)
		}
		s.mu.Unlock()
	}
}

// reset empties an occupied slot. The slot lock must be held.
func (c *Ring[K, V]) reset(s *ringSlot[K, V]) {
	var (
		zeroK K
		zeroV V
	)
	s.used, s.key, s.value = false, zeroK, zeroV
	c.size.Add(-1)
}

// Len returns the number of occupied slots.
func (c *Ring[K, V]) Len() int {
	return int(c.size.Load())
}

// Cap returns the number of slots.
func (c *Ring[K, V]) Cap() int {
	return len(c.slots)
}

// Stats returns the current counters.
func (c *Ring[K, V]) Stats() RingStats {
	return RingStats{
		Capacity:  len(c.slots),
		Size:      c.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// matchKey is the result cache key.
type matchKey struct {
	method string
	path   string
}

// hashMatchKey combines the xxhash of both fields without concatenating them.
func hashMatchKey(k matchKey) uint64 {
	h := xxhash.Sum64String(k.path)
	return h ^ (xxhash.Sum64String(k.method) + 0x9e3779b97f4a7c15 + (h << 6) + (h >> 2))
}

// StringHash hashes string keys for a Ring.
func StringHash(s string) uint64 {
	return xxhash.Sum64String(s)
}
