// Package gateway resolves requests against the route definitions stored in
// the database and reloads them on configuration changes.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/saidutt46/switchboard-router/internal/config"
	"github.com/saidutt46/switchboard-router/internal/database"
	"github.com/saidutt46/switchboard-router/internal/router"
)

// reloadTimeout bounds a reload triggered by a change event.
const reloadTimeout = 30 * time.Second

// ErrNotLoaded is returned before the first successful reload.
var ErrNotLoaded = errors.New("routes not loaded")

// DefinitionSource supplies route definitions in registration order.
type DefinitionSource interface {
	GetRouteDefinitions(ctx context.Context, includeDisabled bool) ([]*database.RouteDefinition, error)
}

// Target is the handler reference registered for each definition.
type Target struct {
	DefinitionID string
	Handler      string
}

// LoadResult summarizes one reload.
type LoadResult struct {
	Definitions int           `json:"definitions"`
	Registered  int           `json:"registered"`
	Skipped     int           `json:"skipped"`
	Duration    time.Duration `json:"duration"`
	LoadedAt    time.Time     `json:"loaded_at"`
}

// Dispatcher owns the live router. Reloads build a complete new router and
// swap it in, so requests never observe a partially registered table.
type Dispatcher struct {
	source DefinitionSource
	cfg    router.Config
	opts   []router.Option

	current  atomic.Pointer[router.Router]
	lastLoad atomic.Pointer[LoadResult]

	reloadMu sync.Mutex
}

// New creates a dispatcher. Call Reload before serving traffic.
func New(source DefinitionSource, cfg router.Config, opts ...router.Option) *Dispatcher {
	return &Dispatcher{
		source: source,
		cfg:    cfg,
		opts:   opts,
	}
}

// Reload fetches the definitions and replaces the live router. The previous
// router stays live if loading fails.
func (d *Dispatcher) Reload(ctx context.Context) (LoadResult, error) {
	d.reloadMu.Lock()
	defer d.reloadMu.Unlock()

	start := time.Now()

	defs, err := d.source.GetRouteDefinitions(ctx, false)
	if err != nil {
		return LoadResult{}, fmt.Errorf("failed to load route definitions: %w", err)
	}

	r, result, err := BuildRouter(d.cfg, defs, d.opts...)
	if err != nil {
		return LoadResult{}, err
	}
	result.Duration = time.Since(start)
	result.LoadedAt = time.Now()

	d.current.Store(r)
	d.lastLoad.Store(&result)

	log.Info().
		Str("component", "dispatcher").
		Int("definitions", result.Definitions).
		Int("registered", result.Registered).
		Int("skipped", result.Skipped).
		Str("engine", r.EngineName()).
		Dur("duration", result.Duration).
		Msg("Routes loaded")

	return result, nil
}

// BuildRouter creates a router and registers defs in order. Definitions
// with an invalid pattern are logged and skipped; an error is returned only
// when the router itself cannot be created.
func BuildRouter(cfg router.Config, defs []*database.RouteDefinition, opts ...router.Option) (*router.Router, LoadResult, error) {
	r, err := router.New(cfg, opts...)
	if err != nil {
		return nil, LoadResult{}, fmt.Errorf("failed to create router: %w", err)
	}

	result := LoadResult{Definitions: len(defs)}
	for _, def := range defs {
		route, err := r.Register(def.Methods, def.Path, Target{DefinitionID: def.ID, Handler: def.Handler})
		if err != nil {
			result.Skipped++
			log.Warn().
				Err(err).
				Str("component", "dispatcher").
				Str("definition_id", def.ID).
				Str("path", def.Path).
				Msg("Skipping invalid route definition")
			continue
		}

		for param, keyword := range def.Constraints {
			route.Where(param, router.Keyword(keyword))
		}
		for _, mw := range def.Middleware {
			route.Middleware(mw)
		}
		if name := def.RouteName(); name != "" {
			route.Named(name)
		}
		result.Registered++
	}

	r.Compile()
	return r, result, nil
}

// Router returns the live router, or nil before the first reload.
func (d *Dispatcher) Router() *router.Router {
	return d.current.Load()
}

// Ready reports whether routes have been loaded.
func (d *Dispatcher) Ready() bool {
	return d.current.Load() != nil
}

// RouteCounts returns the live router's static and dynamic route counts.
func (d *Dispatcher) RouteCounts() (static, dynamic int, ok bool) {
	stats, err := d.Stats()
	if err != nil {
		return 0, 0, false
	}
	return stats.StaticRoutes, stats.DynamicRoutes, true
}

// LastLoad returns the result of the most recent successful reload.
func (d *Dispatcher) LastLoad() (LoadResult, bool) {
	if res := d.lastLoad.Load(); res != nil {
		return *res, true
	}
	return LoadResult{}, false
}

// Stats returns the live router's statistics.
func (d *Dispatcher) Stats() (router.Stats, error) {
	r := d.current.Load()
	if r == nil {
		return router.Stats{}, ErrNotLoaded
	}
	return r.Stats(), nil
}

// HandleConfigChange reloads routes on route change events.
// This implements the config.ConfigChangeHandler interface.
func (d *Dispatcher) HandleConfigChange(event config.ConfigChangeEvent) error {
	if !event.AffectsRoutes() {
		log.Debug().
			Str("component", "dispatcher").
			Str("entity_type", event.EntityType).
			Msg("Ignoring non-route config change")
		return nil
	}

	log.Info().
		Str("component", "dispatcher").
		Str("action", event.Action).
		Str("route_id", event.EntityID).
		Msg("Route change detected - reloading routes")

	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()

	if _, err := d.Reload(ctx); err != nil {
		return fmt.Errorf("failed to reload routes: %w", err)
	}
	return nil
}
