package router

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/saidutt46/switchboard-router/internal/native"
)

// Adapter is the boundary of an alternate matcher. It exchanges string
// handler ids instead of routes and reports outcomes as statuses.
type Adapter interface {
	AddRoute(methods []string, path, handlerID string) native.Status
	Match(method, path string) (native.MatchData, native.Status)
	ClearCache()
	Stats() native.Stats
	Capabilities() native.Capability
}

// AlternateFactory creates an empty adapter, or reports why none is
// available.
type AlternateFactory func() (Adapter, native.Status)

// NativeFactory returns a factory for the in-tree accelerated matcher.
func NativeFactory(opts native.Options) AlternateFactory {
	return func() (Adapter, native.Status) {
		a, status := native.New(opts)
		if !status.OK() {
			return nil, status
		}
		return a, status
	}
}

// AdapterError reports a non-OK status returned by an alternate adapter.
type AdapterError struct {
	Op      string
	Pattern string
	Status  native.Status
}

func (e *AdapterError) Error() string {
	if e.Pattern != "" {
		return fmt.Sprintf("alternate engine %s %q: %s", e.Op, e.Pattern, e.Status)
	}
	return fmt.Sprintf("alternate engine %s: %s", e.Op, e.Status)
}

// alternateEngine loads every snapshot into a fresh adapter and converts
// the adapter's candidates back into routes. Constraints are enforced here,
// in the same order as the primary engine, so both engines agree.
type alternateEngine struct {
	factory AlternateFactory
	state   atomic.Pointer[alternateState]
}

type alternateState struct {
	adapter   Adapter
	snap      *Snapshot
	byHandler map[string]*dynamicEntry
}

func newAlternateEngine(factory AlternateFactory) *alternateEngine {
	return &alternateEngine{factory: factory}
}

func (e *alternateEngine) Name() string { return EngineAlternateName }

func (e *alternateEngine) Load(snap *Snapshot) error {
	adapter, status := e.factory()
	if !status.OK() || adapter == nil {
		if status.OK() {
			status = native.StatusUnavailable
		}
		return &AdapterError{Op: "create", Status: status}
	}

	state := &alternateState{
		adapter:   adapter,
		snap:      snap,
		byHandler: make(map[string]*dynamicEntry, len(snap.entries)),
	}
	for _, route := range snap.routes {
		id := handlerID(route)
		if status := adapter.AddRoute(route.methods, route.pattern, id); !status.OK() {
			return &AdapterError{Op: "add route", Pattern: route.pattern, Status: status}
		}
		if entry, ok := snap.entries[route.id]; ok {
			state.byHandler[id] = entry
		}
	}

	e.state.Store(state)
	return nil
}

func (e *alternateEngine) Match(method, path string) (*RouteMatch, bool) {
	state := e.state.Load()
	if state == nil {
		return nil, false
	}

	data, status := state.adapter.Match(method, path)
	if !status.OK() {
		return nil, false
	}

	for _, c := range data.Candidates {
		if c.Static {
			if m, ok := state.snap.static[routeKey{method: method, path: trimSlashes(path)}]; ok {
				return m, true
			}
			continue
		}

		entry, ok := state.byHandler[c.HandlerID]
		if !ok {
			continue
		}
		values := make([]string, len(entry.params))
		complete := true
		for i, p := range entry.params {
			v, found := c.Params[p.name]
			if !found {
				complete = false
				break
			}
			values[i] = v
		}
		if complete && entry.accept(values) {
			return entry.result(values), true
		}
	}
	return nil, false
}

// clearCache drops the adapter's own memoized results.
func (e *alternateEngine) clearCache() {
	if state := e.state.Load(); state != nil {
		state.adapter.ClearCache()
	}
}

// adapterStats returns the adapter statistics, if an adapter is loaded.
func (e *alternateEngine) adapterStats() (native.Stats, native.Capability, bool) {
	state := e.state.Load()
	if state == nil {
		return native.Stats{}, 0, false
	}
	return state.adapter.Stats(), state.adapter.Capabilities(), true
}

func handlerID(r *Route) string {
	return strconv.FormatUint(r.id, 10)
}
