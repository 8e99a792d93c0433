// Package router resolves (HTTP method, URL path) pairs to registered routes.
//
// Routes are split at registration into static routes, resolved by a single
// map lookup, and dynamic routes containing {name} or {name:constraint}
// parameters. Dynamic routes are grouped by method and segment count so a
// request only ever scans routes of its own shape, in registration order.
//
// A fixed-capacity result cache sits in front of the matching engine, and
// the engine itself is pluggable: the primary in-process engine can be
// replaced by the accelerated matcher in package native without any change
// in results.
//
// Registration is not safe for concurrent use. Register every route before
// sharing the router; Match is safe for concurrent use afterwards.
package router

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/saidutt46/switchboard-router/internal/native"
)

// DefaultCacheCapacity is the number of result cache slots used when the
// configuration leaves it unset.
const DefaultCacheCapacity = 1024

// Config holds the options that affect matching.
type Config struct {
	Engine        EngineMode
	CacheCapacity int
	CacheEnabled  bool
}

// DefaultConfig returns the auto engine with an enabled cache.
func DefaultConfig() Config {
	return Config{
		Engine:        EngineAuto,
		CacheCapacity: DefaultCacheCapacity,
		CacheEnabled:  true,
	}
}

// Option customizes a Router.
type Option func(*Router)

// WithAlternateFactory replaces the factory used for the alternate engine.
func WithAlternateFactory(f AlternateFactory) Option {
	return func(r *Router) {
		r.factory = f
	}
}

// Router handles route registration and request resolution.
type Router struct {
	table   *Table
	mode    EngineMode
	factory AlternateFactory

	active atomic.Pointer[activeEngine]

	cache        *Ring[matchKey, *RouteMatch]
	cacheEnabled atomic.Bool

	// mu serializes compilation; compiledVersion is the table version the
	// active engine was loaded with.
	mu              sync.Mutex
	compiledVersion atomic.Uint64
	snap            atomic.Pointer[Snapshot]

	metrics   *routerMetrics
	cacheHit  prometheus.Counter
	cacheMiss prometheus.Counter
}

type activeEngine struct {
	engine   Engine
	fallback bool
	counters matchCounters
}

// New creates a router. It fails with a configuration error when the
// alternate engine is forced but cannot be created.
func New(cfg Config, opts ...Option) (*Router, error) {
	if cfg.Engine == "" {
		cfg.Engine = EngineAuto
	}

	r := &Router{
		table:   NewTable(),
		mode:    cfg.Engine,
		factory: NativeFactory(native.Options{}),
		metrics: getRouterMetrics(),
	}
	for _, opt := range opts {
		opt(r)
	}

	engine, err := selectEngine(cfg.Engine, r.factory)
	if err != nil {
		return nil, err
	}
	r.setActive(engine, false)

	capacity := cfg.CacheCapacity
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	r.cache = NewRing[matchKey, *RouteMatch](capacity, hashMatchKey)
	r.cacheEnabled.Store(cfg.CacheEnabled)
	r.cacheHit = r.metrics.cacheLookups.WithLabelValues("hit")
	r.cacheMiss = r.metrics.cacheLookups.WithLabelValues("miss")

	log.Info().
		Str("component", "router").
		Str("mode", string(cfg.Engine)).
		Str("engine", engine.Name()).
		Int("cache_capacity", capacity).
		Bool("cache_enabled", cfg.CacheEnabled).
		Msg("Router initialized")

	return r, nil
}

// MustNew is like New but panics on error.
func MustNew(cfg Config, opts ...Option) *Router {
	r, err := New(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Router) setActive(engine Engine, fallback bool) {
	r.active.Store(&activeEngine{
		engine:   engine,
		fallback: fallback,
		counters: r.metrics.matchCounters(engine.Name()),
	})
}

// Register adds a route for the given methods. It returns a pattern error
// for an empty path, a missing leading slash, unbalanced braces, or an
// invalid parameter name.
func (r *Router) Register(methods []string, pattern string, handler Handler) (*Route, error) {
	return r.table.Register(methods, pattern, handler)
}

// Get registers a GET route.
func (r *Router) Get(pattern string, handler Handler) (*Route, error) {
	return r.Register([]string{http.MethodGet}, pattern, handler)
}

// Post registers a POST route.
func (r *Router) Post(pattern string, handler Handler) (*Route, error) {
	return r.Register([]string{http.MethodPost}, pattern, handler)
}

// Put registers a PUT route.
func (r *Router) Put(pattern string, handler Handler) (*Route, error) {
	return r.Register([]string{http.MethodPut}, pattern, handler)
}

// Patch registers a PATCH route.
func (r *Router) Patch(pattern string, handler Handler) (*Route, error) {
	return r.Register([]string{http.MethodPatch}, pattern, handler)
}

// Delete registers a DELETE route.
func (r *Router) Delete(pattern string, handler Handler) (*Route, error) {
	return r.Register([]string{http.MethodDelete}, pattern, handler)
}

// Head registers a HEAD route.
func (r *Router) Head(pattern string, handler Handler) (*Route, error) {
	return r.Register([]string{http.MethodHead}, pattern, handler)
}

// Options registers an OPTIONS route.
func (r *Router) Options(pattern string, handler Handler) (*Route, error) {
	return r.Register([]string{http.MethodOptions}, pattern, handler)
}

// anyMethods are the methods registered by Any.
var anyMethods = []string{
	http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
	http.MethodDelete, http.MethodHead, http.MethodOptions,
}

// Any registers a route for every common method.
func (r *Router) Any(pattern string, handler Handler) (*Route, error) {
	return r.Register(anyMethods, pattern, handler)
}

// Compile compiles the route table and loads it into the engine. Matching
// compiles on demand, so calling Compile is only needed to move that cost
// to startup.
func (r *Router) Compile() {
	r.ensureCompiled()
}

func (r *Router) ensureCompiled() {
	if r.compiledVersion.Load() == r.table.Version() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	version := r.table.Version()
	if r.compiledVersion.Load() == version {
		return
	}

	start := time.Now()
	snap := r.table.Compile()

	active := r.active.Load()
	if err := active.engine.Load(snap); err != nil {
		log.Warn().
			Err(err).
			Str("component", "router").
			Str("engine", active.engine.Name()).
			Msg("Engine failed to load routes, falling back to primary engine")

		primary := newPrimaryEngine()
		_ = primary.Load(snap)
		r.setActive(primary, true)
		r.metrics.engineFallbacks.Inc()
	}

	r.cache.Clear()
	r.snap.Store(snap)
	r.compiledVersion.Store(version)

	r.metrics.compilations.Inc()
	r.metrics.compileDuration.Observe(time.Since(start).Seconds())
}

// Match resolves method and path. The second result is false when no route
// matches, including when a constraint rejects every candidate.
func (r *Router) Match(method, path string) (*RouteMatch, bool) {
	r.ensureCompiled()

	method = strings.ToUpper(method)
	active := r.active.Load()

	var (
		m  *RouteMatch
		ok bool
	)
	if r.cacheEnabled.Load() {
		key := matchKey{method: method, path: path}
		if cached, hit := r.cache.Get(key); hit {
			r.cacheHit.Inc()
			m, ok = cached, cached != nil
		} else {
			r.cacheMiss.Inc()
			m, ok = active.engine.Match(method, path)
			r.cache.Set(key, m)
		}
	} else {
		m, ok = active.engine.Match(method, path)
	}

	if ok {
		active.counters.found.Inc()
	} else {
		active.counters.notFound.Inc()
	}
	return m, ok
}

// MatchRequest resolves a host request.
func (r *Router) MatchRequest(req Request) (*RouteMatch, bool) {
	return r.Match(req.Method(), req.Path())
}

// MatchHTTP resolves an *http.Request by its method and URL path.
func (r *Router) MatchHTTP(req *http.Request) (*RouteMatch, bool) {
	return r.MatchRequest(FromHTTP(req))
}

// Routes returns the registered routes in registration order.
func (r *Router) Routes() []*Route {
	return r.table.Routes()
}

// Route returns the first route registered under name.
func (r *Router) Route(name string) (*Route, bool) {
	for _, route := range r.table.routes {
		if route.name == name {
			return route, true
		}
	}
	return nil, false
}

// URL builds the path of the named route, substituting params. Every
// parameter must be supplied and satisfy the route's constraints.
func (r *Router) URL(name string, params map[string]string) (string, error) {
	route, ok := r.Route(name)
	if !ok {
		return "", fmt.Errorf("route not found: %s", name)
	}

	var b strings.Builder
	for i, seg := range route.segments {
		if i > 0 || seg.Value != "" || seg.IsParam() {
			b.WriteByte('/')
		}
		if !seg.IsParam() {
			b.WriteString(seg.Value)
			continue
		}

		v, ok := params[seg.Value]
		if !ok {
			return "", fmt.Errorf("route %s: missing parameter %q", name, seg.Value)
		}
		if seg.Constraint != "" && !validateKeyword(v, seg.Constraint) {
			return "", fmt.Errorf("route %s: parameter %q value %q violates constraint %s", name, seg.Value, v, seg.Constraint)
		}
		if c, ok := route.constraints[seg.Value]; ok && !Validate(v, c) {
			return "", fmt.Errorf("route %s: parameter %q value %q violates constraint %s", name, seg.Value, v, c)
		}
		b.WriteString(url.PathEscape(v))
	}

	if b.Len() == 0 {
		return "/", nil
	}
	return b.String(), nil
}

// ClearCache empties the result cache and the alternate adapter's cache.
func (r *Router) ClearCache() {
	r.cache.Clear()
	if alt, ok := r.active.Load().engine.(*alternateEngine); ok {
		alt.clearCache()
	}
}

// SetCacheEnabled turns the result cache on or off.
func (r *Router) SetCacheEnabled(enabled bool) {
	r.cacheEnabled.Store(enabled)
}

// CacheEnabled reports whether the result cache is consulted.
func (r *Router) CacheEnabled() bool {
	return r.cacheEnabled.Load()
}

// EngineName returns the name of the engine currently serving matches.
func (r *Router) EngineName() string {
	return r.active.Load().engine.Name()
}

// Stats describes the compiled table, the active engine and the result
// cache.
type Stats struct {
	StaticRoutes   int    `json:"static_routes"`
	DynamicRoutes  int    `json:"dynamic_routes"`
	CacheSize      int    `json:"cache_size"`
	CacheCapacity  int    `json:"cache_capacity"`
	CacheEnabled   bool   `json:"cache_enabled"`
	CacheHits      uint64 `json:"cache_hits"`
	CacheMisses    uint64 `json:"cache_misses"`
	CacheEvictions uint64 `json:"cache_evictions"`
	Mode           string `json:"mode"`
	Engine         string `json:"engine"`
	Fallback       bool   `json:"fallback"`

	// Alternate is set when the alternate engine is serving matches.
	Alternate *AlternateStats `json:"alternate,omitempty"`
}

// AlternateStats are the statistics reported by the alternate adapter.
type AlternateStats struct {
	native.Stats
	Capabilities native.Capability `json:"capabilities"`
}

// Stats compiles the table if needed and reports its current state.
func (r *Router) Stats() Stats {
	r.ensureCompiled()

	snap := r.snap.Load()
	cache := r.cache.Stats()
	active := r.active.Load()

	stats := Stats{
		StaticRoutes:   snap.StaticCount(),
		DynamicRoutes:  snap.DynamicCount(),
		CacheSize:      cache.Size,
		CacheCapacity:  cache.Capacity,
		CacheEnabled:   r.cacheEnabled.Load(),
		CacheHits:      cache.Hits,
		CacheMisses:    cache.Misses,
		CacheEvictions: cache.Evictions,
		Mode:           string(r.mode),
		Engine:         active.engine.Name(),
		Fallback:       active.fallback,
	}
	if alt, ok := active.engine.(*alternateEngine); ok {
		if ns, caps, loaded := alt.adapterStats(); loaded {
			stats.Alternate = &AlternateStats{Stats: ns, Capabilities: caps}
		}
	}
	return stats
}
