package router

import (
	"strconv"
	"sync"
	"testing"
)

// constHash sends every key to slot 0.
func constHash(string) uint64 { return 0 }

func TestRing_GetSet(t *testing.T) {
	c := NewRing[string, int](8, StringHash)

	if _, ok := c.Get("a"); ok {
		t.Fatal("Get() on empty cache hit")
	}

	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %v, %v, want 1, true", v, ok)
	}

	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("Get(a) after overwrite = %v, want 2", v)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}

	stats := c.Stats()
	if stats.Hits != 2 || stats.Misses != 1 || stats.Evictions != 0 {
		t.Errorf("Stats() = %+v, want 2 hits, 1 miss, 0 evictions", stats)
	}
}

func TestRing_CollisionEvicts(t *testing.T) {
	c := NewRing[string, string](4, constHash)

	c.Set("first", "1")
	c.Set("second", "2")

	if v, ok := c.Get("first"); ok {
		t.Errorf("Get(first) = %q, true after collision, want miss", v)
	}
	if v, ok := c.Get("second"); !ok || v != "2" {
		t.Errorf("Get(second) = %q, %v, want 2, true", v, ok)
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Errorf("Evictions = %d, want 1", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestRing_Bounded(t *testing.T) {
	const capacity = 16
	c := NewRing[string, int](capacity, StringHash)

	for i := 0; i < 10*capacity; i++ {
		c.Set(strconv.Itoa(i), i)
	}
	if c.Len() > capacity {
		t.Errorf("Len() = %d, want <= %d", c.Len(), capacity)
	}
	if c.Cap() != capacity {
		t.Errorf("Cap() = %d, want %d", c.Cap(), capacity)
	}
	if c.Stats().Evictions == 0 {
		t.Error("Evictions = 0 after overfilling the cache")
	}
}

func TestRing_DeleteAndClear(t *testing.T) {
	c := NewRing[string, int](32, StringHash)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Get(a) hit after Delete")
	}

	// Deleting an absent key leaves the occupant alone.
	c.Delete("missing")

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	if _, ok := c.Get("b"); ok {
		t.Error("Get(b) hit after Clear")
	}
}

func TestRing_MinimumCapacity(t *testing.T) {
	c := NewRing[string, int](0, StringHash)
	if c.Cap() != 1 {
		t.Errorf("Cap() = %d, want 1", c.Cap())
	}
}

func TestRing_ConcurrentAccess(t *testing.T) {
	c := NewRing[string, string](4, StringHash)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				key := strconv.Itoa((w + i) % 16)
				c.Set(key, "v"+key)
				if v, ok := c.Get(key); ok && v != "v"+key {
					t.Errorf("Get(%s) = %q, torn slot", key, v)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	if c.Len() > c.Cap() {
		t.Errorf("Len() = %d exceeds Cap() = %d", c.Len(), c.Cap())
	}
}

func TestHashMatchKey_DistinguishesFields(t *testing.T) {
	a := hashMatchKey(matchKey{method: "GET", path: "/users"})
	b := hashMatchKey(matchKey{method: "POST", path: "/users"})
	c := hashMatchKey(matchKey{method: "GET", path: "/users"})

	if a == b {
		t.Error("hashMatchKey() equal for different methods")
	}
	if a != c {
		t.Error("hashMatchKey() not deterministic")
	}
}
