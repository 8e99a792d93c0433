package router

import "sync/atomic"

// Engine names reported in Stats.
const (
	EnginePrimaryName   = "primary"
	EngineAlternateName = "alternate"
)

// Engine resolves (method, path) pairs against a compiled snapshot.
//
// Load is called with every new snapshot before the engine serves matches
// from it. Match must be safe for concurrent use once loaded. A missing
// route is reported as (nil, false).
type Engine interface {
	Name() string
	Load(snap *Snapshot) error
	Match(method, path string) (*RouteMatch, bool)
}

// primaryEngine matches directly against the snapshot: an O(1) static probe
// followed by a scan of the dynamic routes sharing the request's method and
// segment count.
type primaryEngine struct {
	snap atomic.Pointer[Snapshot]
}

func newPrimaryEngine() *primaryEngine {
	return &primaryEngine{}
}

func (e *primaryEngine) Name() string { return EnginePrimaryName }

func (e *primaryEngine) Load(snap *Snapshot) error {
	e.snap.Store(snap)
	return nil
}

func (e *primaryEngine) Match(method, path string) (*RouteMatch, bool) {
	snap := e.snap.Load()
	if snap == nil {
		return nil, false
	}

	trimmed := trimSlashes(path)
	if m, ok := snap.static[routeKey{method: method, path: trimmed}]; ok {
		return m, true
	}

	candidates := snap.dynamic[groupKey{method: method, count: countSegments(trimmed)}]
	for _, entry := range candidates {
		if m, ok := entry.match(trimmed); ok {
			return m, true
		}
	}
	return nil, false
}
