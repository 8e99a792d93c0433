package native

import (
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// DefaultCacheCapacity bounds the adapter's own result cache.
const DefaultCacheCapacity = 1000

// Options configures an Adapter.
type Options struct {
	// CacheCapacity is the maximum number of memoized match results.
	// Zero selects DefaultCacheCapacity; a negative value disables the cache.
	CacheCapacity int
}

// MatchData is the result of a successful Match.
type MatchData struct {
	Candidates []Candidate
}

// Stats describes the adapter's contents.
type Stats struct {
	MethodCount   int    `json:"method_count"`
	RouteCount    int    `json:"route_count"`
	CacheSize     int    `json:"cache_size"`
	CacheCapacity int    `json:"cache_capacity"`
	CacheHits     uint64 `json:"cache_hits"`
	CacheMisses   uint64 `json:"cache_misses"`
}

// BatchResult reports the outcome of BatchAddRoutes.
type BatchResult struct {
	Added int `json:"added"`
	Total int `json:"total"`
}

type batchRoute struct {
	Method  string `json:"method"`
	Path    string `json:"path"`
	Handler string `json:"handler"`
}

// Adapter is the accelerated matcher: one radix tree per HTTP method plus a
// bounded cache of match results.
type Adapter struct {
	mu     sync.RWMutex
	trees  map[string]*RadixTree
	seq    uint64
	routes int

	cacheMu  sync.Mutex
	cache    map[string]MatchData
	cacheCap int

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Available reports whether the accelerated matcher is part of this build.
func Available() bool {
	return compiledIn
}

// New creates an adapter. It reports StatusUnavailable when the matcher has
// been compiled out of the binary.
func New(opts Options) (*Adapter, Status) {
	if !compiledIn {
		return nil, StatusUnavailable
	}

	capacity := opts.CacheCapacity
	if capacity == 0 {
		capacity = DefaultCacheCapacity
	}
	if capacity < 0 {
		capacity = 0
	}

	return &Adapter{
		trees:    make(map[string]*RadixTree),
		cache:    make(map[string]MatchData, capacity),
		cacheCap: capacity,
	}, StatusOK
}

// AddRoute registers path under every method with the given handler id.
func (a *Adapter) AddRoute(methods []string, path, handlerID string) Status {
	if len(methods) == 0 {
		return StatusInvalidMethod
	}
	for _, m := range methods {
		if m == "" {
			return StatusInvalidMethod
		}
	}
	if path == "" || path[0] != '/' {
		return StatusInvalidPath
	}
	if handlerID == "" {
		return StatusInvalidHandler
	}
	if _, _, err := parsePattern(path); err != nil {
		log.Debug().
			Err(err).
			Str("component", "native").
			Str("path", path).
			Str("handler_id", handlerID).
			Msg("Route rejected by radix tree")
		return StatusInsertFailed
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.seq++
	for _, m := range methods {
		m = strings.ToUpper(m)
		tree, ok := a.trees[m]
		if !ok {
			tree = NewRadixTree()
			a.trees[m] = tree
		}
		if err := tree.Insert(path, handlerID, a.seq); err != nil {
			return StatusInsertFailed
		}
	}
	a.routes++

	a.ClearCache()
	return StatusOK
}

// BatchAddRoutes registers a JSON array of {"method","path","handler"}
// objects. Entries that fail to insert are skipped and not counted.
func (a *Adapter) BatchAddRoutes(data []byte) (BatchResult, Status) {
	var routes []batchRoute
	if err := json.Unmarshal(data, &routes); err != nil {
		return BatchResult{}, StatusInvalidInput
	}

	result := BatchResult{Total: len(routes)}
	for _, r := range routes {
		if a.AddRoute([]string{r.Method}, r.Path, r.Handler).OK() {
			result.Added++
		}
	}
	return result, StatusOK
}

// Match returns every route whose shape matches method and path.
func (a *Adapter) Match(method, path string) (MatchData, Status) {
	method = strings.ToUpper(method)
	key := method + " " + path

	if a.cacheCap > 0 {
		a.cacheMu.Lock()
		data, ok := a.cache[key]
		a.cacheMu.Unlock()
		if ok {
			a.hits.Add(1)
			return data, StatusOK
		}
		a.misses.Add(1)
	}

	a.mu.RLock()
	tree, ok := a.trees[method]
	a.mu.RUnlock()
	if !ok {
		return MatchData{}, StatusNotFound
	}

	candidates := tree.Search(path)
	if len(candidates) == 0 {
		return MatchData{}, StatusNotFound
	}

	data := MatchData{Candidates: candidates}
	if a.cacheCap > 0 {
		a.cacheMu.Lock()
		if len(a.cache) < a.cacheCap {
			a.cache[key] = data
		}
		a.cacheMu.Unlock()
	}
	return data, StatusOK
}

// ClearCache drops all memoized results.
func (a *Adapter) ClearCache() {
	a.cacheMu.Lock()
	clear(a.cache)
	a.cacheMu.Unlock()
}

// Stats returns a snapshot of the adapter's counters.
func (a *Adapter) Stats() Stats {
	a.mu.RLock()
	stats := Stats{
		MethodCount:   len(a.trees),
		RouteCount:    a.routes,
		CacheCapacity: a.cacheCap,
		CacheHits:     a.hits.Load(),
		CacheMisses:   a.misses.Load(),
	}
	a.mu.RUnlock()

	a.cacheMu.Lock()
	stats.CacheSize = len(a.cache)
	a.cacheMu.Unlock()

	return stats
}

// Capabilities reports the features this adapter supports.
func (a *Adapter) Capabilities() Capability {
	return CapRadixTree | CapCaching | CapBatchOperations | CapStatistics
}
