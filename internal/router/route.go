package router

import (
	"maps"
	"slices"
)

// Handler is an opaque handler reference. The router stores it at
// registration and hands it back in a RouteMatch without inspecting it.
type Handler any

// Route is a registered route. Builder methods may be chained after
// registration; each call invalidates the owning table so the next match
// sees the change.
type Route struct {
	id          uint64
	methods     []string
	pattern     string
	handler     Handler
	middleware  []any
	constraints map[string]Constraint
	name        string

	segments   []Segment
	paramCount int
	static     bool

	owner *Table
}

// ID returns the identifier assigned at registration. IDs start at 1 and
// increase in registration order.
func (r *Route) ID() uint64 { return r.id }

// Methods returns the uppercased HTTP methods of the route.
func (r *Route) Methods() []string { return slices.Clone(r.methods) }

// Pattern returns the path pattern as registered.
func (r *Route) Pattern() string { return r.pattern }

// Path returns the normalized pattern (no trailing slash, "/" for the root).
func (r *Route) Path() string { return normalizePath(r.pattern) }

// Handler returns the opaque handler reference.
func (r *Route) Handler() Handler { return r.handler }

// Name returns the route name, or "" if none was set.
func (r *Route) Name() string { return r.name }

// IsStatic reports whether the pattern has no parameters.
func (r *Route) IsStatic() bool { return r.static }

// Segments returns the parsed pattern segments.
func (r *Route) Segments() []Segment { return slices.Clone(r.segments) }

// ParamNames returns parameter names in pattern order.
func (r *Route) ParamNames() []string {
	names := make([]string, 0, r.paramCount)
	for _, s := range r.segments {
		if s.IsParam() {
			names = append(names, s.Value)
		}
	}
	return names
}

// Middlewares returns the middleware references in registration order.
func (r *Route) Middlewares() []any { return slices.Clone(r.middleware) }

// Constraints returns the route-level constraints declared with Where.
// Inline constraints from the pattern are not included.
func (r *Route) Constraints() map[string]Constraint { return maps.Clone(r.constraints) }

// Middleware appends middleware references.
func (r *Route) Middleware(mw ...any) *Route {
	r.middleware = append(r.middleware, mw...)
	r.invalidate()
	return r
}

// Where constrains a parameter. Route-level constraints are checked after
// the inline constraint of the same parameter.
func (r *Route) Where(param string, c Constraint) *Route {
	if r.constraints == nil {
		r.constraints = make(map[string]Constraint)
	}
	r.constraints[param] = c
	r.invalidate()
	return r
}

// WhereFunc constrains a parameter with a predicate.
func (r *Route) WhereFunc(param string, fn func(string) bool) *Route {
	return r.Where(param, Predicate(fn))
}

// Named sets the route name used by Router.Route and Router.URL.
func (r *Route) Named(name string) *Route {
	r.name = name
	r.invalidate()
	return r
}

func (r *Route) invalidate() {
	if r.owner != nil {
		r.owner.invalidate()
	}
}

// QueryKey is the attribute key under which downstream query validation
// stores its result. The router never reads it.
const QueryKey = "__query"

// RouteMatch is a successful resolution. Matches are shared between callers
// through the result cache and must be treated as read-only; use WithQuery
// to attach per-request data.
type RouteMatch struct {
	Route *Route

	// Params is nil for static routes, which are resolved from one
	// precomputed match per method and path.
	Params map[string]string

	attrs map[string]any
}

// Handler returns the handler reference of the matched route.
func (m *RouteMatch) Handler() Handler {
	return m.Route.handler
}

// Param returns the value of a path parameter, or "" if absent.
func (m *RouteMatch) Param(name string) string {
	return m.Params[name]
}

// WithQuery returns a copy of the match carrying v under QueryKey.
func (m *RouteMatch) WithQuery(v any) *RouteMatch {
	cp := *m
	cp.attrs = maps.Clone(m.attrs)
	if cp.attrs == nil {
		cp.attrs = make(map[string]any, 1)
	}
	cp.attrs[QueryKey] = v
	return &cp
}

// Query returns the value stored by WithQuery.
func (m *RouteMatch) Query() (any, bool) {
	v, ok := m.attrs[QueryKey]
	return v, ok
}
