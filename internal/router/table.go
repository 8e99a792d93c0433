package router

import (
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// routeKey addresses a static route. Path is the pattern with leading and
// trailing slashes trimmed, so the root is "".
type routeKey struct {
	method string
	path   string
}

// groupKey addresses the dynamic routes of one method with a given number
// of segments.
type groupKey struct {
	method string
	count  int
}

// paramSpec describes one parameter of a compiled dynamic route.
type paramSpec struct {
	index  int    // segment position
	name   string // parameter name
	inline string // inline constraint keyword, "" if none
}

// whereCheck is a route-level constraint bound to a parameter ordinal.
type whereCheck struct {
	ordinal    int
	constraint Constraint
}

// dynamicEntry is a compiled dynamic route.
type dynamicEntry struct {
	route      *Route
	segments   []Segment
	paramCount int

	// Compiled: parameter positions in pattern order, route-level checks in
	// pattern order, and the effective constraint per parameter (route-level
	// wins over inline).
	params      []paramSpec
	where       []whereCheck
	constraints map[string]Constraint
}

// Snapshot is an immutable compiled view of a Table.
type Snapshot struct {
	routes  []*Route
	static  map[routeKey]*RouteMatch
	dynamic map[groupKey][]*dynamicEntry
	entries map[uint64]*dynamicEntry

	staticRoutes  int
	dynamicRoutes int
}

// Routes returns the routes in registration order.
func (s *Snapshot) Routes() []*Route { return slices.Clone(s.routes) }

// StaticCount returns the number of static routes.
func (s *Snapshot) StaticCount() int { return s.staticRoutes }

// DynamicCount returns the number of dynamic routes.
func (s *Snapshot) DynamicCount() int { return s.dynamicRoutes }

// Table owns the registered routes and compiles them on demand.
//
// Table is not safe for concurrent mutation; Register and route builder
// calls must be serialized by the caller and must not overlap with Compile.
type Table struct {
	routes []*Route
	nextID uint64

	// version increases on every mutation.
	version atomic.Uint64

	compiled        *Snapshot
	compiledVersion uint64
}

// NewTable creates an empty route table.
func NewTable() *Table {
	t := &Table{}
	t.version.Store(1)
	return t
}

// Register validates pattern and adds a route for methods.
func (t *Table) Register(methods []string, pattern string, handler Handler) (*Route, error) {
	if err := validatePattern(pattern); err != nil {
		return nil, err
	}

	normalized, err := normalizeMethods(pattern, methods)
	if err != nil {
		return nil, err
	}

	segments := ParseSegments(pattern)
	paramCount := 0
	for _, s := range segments {
		if s.IsParam() {
			paramCount++
		}
	}

	t.nextID++
	route := &Route{
		id:         t.nextID,
		methods:    normalized,
		pattern:    pattern,
		handler:    handler,
		segments:   segments,
		paramCount: paramCount,
		static:     strings.IndexByte(pattern, '{') < 0,
		owner:      t,
	}
	t.routes = append(t.routes, route)
	t.invalidate()

	log.Debug().
		Str("component", "route_table").
		Uint64("route_id", route.id).
		Strs("methods", normalized).
		Str("pattern", pattern).
		Bool("static", route.static).
		Msg("Route registered")

	return route, nil
}

// Len returns the number of registered routes.
func (t *Table) Len() int {
	return len(t.routes)
}

// Routes returns the registered routes in registration order.
func (t *Table) Routes() []*Route {
	return slices.Clone(t.routes)
}

// Version returns the mutation counter.
func (t *Table) Version() uint64 {
	return t.version.Load()
}

func (t *Table) invalidate() {
	t.version.Add(1)
}

// Compile builds the snapshot used for matching. It is a no-op returning
// the previous snapshot when nothing changed since the last call.
func (t *Table) Compile() *Snapshot {
	version := t.version.Load()
	if t.compiled != nil && t.compiledVersion == version {
		return t.compiled
	}

	start := time.Now()
	snap := &Snapshot{
		routes:  slices.Clone(t.routes),
		static:  make(map[routeKey]*RouteMatch),
		dynamic: make(map[groupKey][]*dynamicEntry),
		entries: make(map[uint64]*dynamicEntry),
	}

	for _, route := range t.routes {
		if route.static {
			snap.staticRoutes++
			path := trimSlashes(route.pattern)
			for _, m := range route.methods {
				// Later registrations replace earlier ones for the same key.
				snap.static[routeKey{method: m, path: path}] = &RouteMatch{Route: route}
			}
			continue
		}

		snap.dynamicRoutes++
		entry := compileEntry(route)
		snap.entries[route.id] = entry
		key := groupKey{count: len(entry.segments)}
		for _, m := range route.methods {
			key.method = m
			snap.dynamic[key] = append(snap.dynamic[key], entry)
		}
	}

	t.compiled = snap
	t.compiledVersion = version

	log.Info().
		Str("component", "route_table").
		Int("static_routes", snap.staticRoutes).
		Int("dynamic_routes", snap.dynamicRoutes).
		Int("dynamic_groups", len(snap.dynamic)).
		Dur("duration", time.Since(start)).
		Msg("Route table compiled")

	return snap
}

func compileEntry(route *Route) *dynamicEntry {
	entry := &dynamicEntry{
		route:       route,
		segments:    route.segments,
		paramCount:  route.paramCount,
		params:      make([]paramSpec, 0, route.paramCount),
		constraints: make(map[string]Constraint, route.paramCount),
	}

	for i, s := range route.segments {
		if !s.IsParam() {
			continue
		}
		ordinal := len(entry.params)
		entry.params = append(entry.params, paramSpec{index: i, name: s.Value, inline: s.Constraint})
		if s.Constraint != "" {
			entry.constraints[s.Value] = Keyword(s.Constraint)
		}
		if c, ok := route.constraints[s.Value]; ok && !c.IsZero() {
			entry.where = append(entry.where, whereCheck{ordinal: ordinal, constraint: c})
			entry.constraints[s.Value] = c
		}
	}
	return entry
}

// match walks the entry's segments against a trimmed request path with the
// same segment count. Inline constraints are checked as parameters are
// captured; route-level constraints run after a full pass. A parameter
// never binds an empty segment.
func (e *dynamicEntry) match(trimmed string) (*RouteMatch, bool) {
	var buf [8]string
	values := buf[:0]
	if e.paramCount > len(buf) {
		values = make([]string, 0, e.paramCount)
	}

	pos := 0
	for _, seg := range e.segments {
		var tok string
		tok, pos = nextToken(trimmed, pos)
		if seg.Kind == SegmentLiteral {
			if tok != seg.Value {
				return nil, false
			}
			continue
		}
		if tok == "" || (seg.Constraint != "" && !validateKeyword(tok, seg.Constraint)) {
			return nil, false
		}
		values = append(values, tok)
	}

	if !e.checkWhere(values) {
		return nil, false
	}
	return e.result(values), true
}

// accept applies inline then route-level constraints to values given in
// parameter order. It is used when another engine did the segment walk.
func (e *dynamicEntry) accept(values []string) bool {
	for i, p := range e.params {
		if p.inline != "" && !validateKeyword(values[i], p.inline) {
			return false
		}
	}
	return e.checkWhere(values)
}

func (e *dynamicEntry) checkWhere(values []string) bool {
	for _, w := range e.where {
		if !Validate(values[w.ordinal], w.constraint) {
			return false
		}
	}
	return true
}

func (e *dynamicEntry) result(values []string) *RouteMatch {
	params := make(map[string]string, len(e.params))
	for i, p := range e.params {
		params[p.name] = values[i]
	}
	return &RouteMatch{Route: e.route, Params: params}
}

func normalizeMethods(pattern string, methods []string) ([]string, error) {
	if len(methods) == 0 {
		return nil, patternError(pattern, "at least one HTTP method is required")
	}

	out := make([]string, 0, len(methods))
	for _, m := range methods {
		if m == "" {
			return nil, patternError(pattern, "empty HTTP method")
		}
		m = strings.ToUpper(m)
		if !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	return out, nil
}
