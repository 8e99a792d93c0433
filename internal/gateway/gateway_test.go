package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"sync"
	"testing"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/saidutt46/switchboard-router/internal/config"
	"github.com/saidutt46/switchboard-router/internal/database"
	"github.com/saidutt46/switchboard-router/internal/native"
	"github.com/saidutt46/switchboard-router/internal/router"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

// memorySource serves definitions from memory.
type memorySource struct {
	mu    sync.Mutex
	defs  []*database.RouteDefinition
	err   error
	calls int
}

func (s *memorySource) GetRouteDefinitions(context.Context, bool) ([]*database.RouteDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.defs, s.err
}

func (s *memorySource) set(defs ...*database.RouteDefinition) {
	s.mu.Lock()
	s.defs = defs
	s.mu.Unlock()
}

func def(id, path, handler string, methods ...string) *database.RouteDefinition {
	return &database.RouteDefinition{
		ID:      id,
		Methods: pq.StringArray(methods),
		Path:    path,
		Handler: handler,
		Enabled: true,
	}
}

func TestBuildRouter(t *testing.T) {
	user := def("d1", "/users/{id}", "users.show", "GET")
	user.Constraints = map[string]string{"id": "int"}
	user.Name = sql.NullString{String: "users.show", Valid: true}
	user.Middleware = pq.StringArray{"auth"}

	defs := []*database.RouteDefinition{
		user,
		def("d2", "users", "broken", "GET"),
		def("d3", "/users/{name}", "users.byName", "GET"),
		def("d4", "/health", "health", "GET", "HEAD"),
	}

	r, result, err := BuildRouter(router.DefaultConfig(), defs)
	if err != nil {
		t.Fatalf("BuildRouter() error = %v", err)
	}
	if result.Definitions != 4 || result.Registered != 3 || result.Skipped != 1 {
		t.Errorf("BuildRouter() result = %+v, want 3 registered, 1 skipped", result)
	}

	m, ok := r.Match("GET", "/users/42")
	if !ok || m.Handler() != (Target{DefinitionID: "d1", Handler: "users.show"}) {
		t.Errorf("Match(/users/42) = %v", m)
	}
	m, ok = r.Match("GET", "/users/bob")
	if !ok || m.Handler().(Target).DefinitionID != "d3" {
		t.Errorf("Match(/users/bob) = %v, want d3", m)
	}
	if _, ok := r.Match("HEAD", "/health"); !ok {
		t.Error("Match(HEAD /health) found no route")
	}
	if got, err := r.URL("users.show", map[string]string{"id": "7"}); err != nil || got != "/users/7" {
		t.Errorf("URL(users.show) = %q, %v", got, err)
	}
}

func TestBuildRouter_ConfigError(t *testing.T) {
	unavailable := func() (router.Adapter, native.Status) { return nil, native.StatusUnavailable }
	_, _, err := BuildRouter(router.Config{Engine: router.EngineAlternate}, nil, router.WithAlternateFactory(unavailable))
	if !errors.Is(err, router.ErrConfig) {
		t.Errorf("BuildRouter() error = %v, want ErrConfig", err)
	}
}

func TestDispatcher_Reload(t *testing.T) {
	src := &memorySource{}
	src.set(def("d1", "/a", "a", "GET"))

	d := New(src, router.DefaultConfig())
	if d.Ready() {
		t.Fatal("Ready() = true before Reload")
	}
	if _, err := d.Stats(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Stats() error = %v, want ErrNotLoaded", err)
	}

	if _, err := d.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	first := d.Router()
	if !d.Ready() || first == nil {
		t.Fatal("Ready() = false after Reload")
	}

	src.set(def("d1", "/a", "a", "GET"), def("d2", "/b/{id}", "b", "GET"))
	if err := d.HandleConfigChange(config.ConfigChangeEvent{EntityType: config.EntityRoute, Action: "create"}); err != nil {
		t.Fatalf("HandleConfigChange() error = %v", err)
	}
	if d.Router() == first {
		t.Error("HandleConfigChange() did not swap the router")
	}
	if _, ok := d.Router().Match("GET", "/b/1"); !ok {
		t.Error("Match(/b/1) found no route after reload")
	}

	res, ok := d.LastLoad()
	if !ok || res.Registered != 2 {
		t.Errorf("LastLoad() = %+v, %v", res, ok)
	}
	stats, err := d.Stats()
	if err != nil || stats.StaticRoutes != 1 || stats.DynamicRoutes != 1 {
		t.Errorf("Stats() = %+v, %v", stats, err)
	}
}

func TestDispatcher_ReloadFailureKeepsRouter(t *testing.T) {
	src := &memorySource{}
	src.set(def("d1", "/a", "a", "GET"))
	d := New(src, router.DefaultConfig())
	if _, err := d.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	live := d.Router()

	src.err = errors.New("connection refused")
	if _, err := d.Reload(context.Background()); err == nil {
		t.Fatal("Reload() = nil error with failing source")
	}
	if d.Router() != live {
		t.Error("failed Reload() replaced the live router")
	}
}

func TestDispatcher_IgnoresOtherEntities(t *testing.T) {
	src := &memorySource{}
	d := New(src, router.DefaultConfig())

	if err := d.HandleConfigChange(config.ConfigChangeEvent{EntityType: "consumer"}); err != nil {
		t.Fatalf("HandleConfigChange() error = %v", err)
	}
	if src.calls != 0 {
		t.Errorf("source called %d times for a non-route event", src.calls)
	}
}

func TestDispatcher_ServeHTTP(t *testing.T) {
	user := def("d1", "/users/{id:int}", "users.show", "GET")
	user.Name = sql.NullString{String: "users.show", Valid: true}
	user.Middleware = pq.StringArray{"auth", "audit"}

	src := &memorySource{}
	src.set(user, def("d2", "/status", "status", "GET"))
	d := New(src, router.DefaultConfig())

	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, httptest.NewRequest("GET", "/users/1", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status before load = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	if _, err := d.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		want       *Resolution
	}{
		{
			name:       "match",
			method:     "GET",
			target:     "/users/42?expand=true",
			wantStatus: http.StatusOK,
			want: &Resolution{
				RouteID:    "d1",
				Name:       "users.show",
				Pattern:    "/users/{id:int}",
				Handler:    "users.show",
				Methods:    []string{"GET"},
				Middleware: []string{"auth", "audit"},
				Params:     map[string]string{"id": "42"},
			},
		},
		{
			name:       "static match",
			method:     "GET",
			target:     "/status",
			wantStatus: http.StatusOK,
			want: &Resolution{
				RouteID: "d2",
				Pattern: "/status",
				Handler: "status",
				Methods: []string{"GET"},
				Params:  map[string]string{},
			},
		},
		{name: "constraint rejects", method: "GET", target: "/users/abc", wantStatus: http.StatusNotFound},
		{name: "wrong method", method: "DELETE", target: "/users/42", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			d.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			if tt.want == nil {
				return
			}
			var got Resolution
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !reflect.DeepEqual(&got, tt.want) {
				t.Errorf("body = %+v, want %+v", got, *tt.want)
			}
		})
	}
}

func TestDispatcher_StatsHandler(t *testing.T) {
	src := &memorySource{}
	src.set(def("d1", "/a", "a", "GET"), def("d2", "/b/{id}", "b", "GET"))
	d := New(src, router.DefaultConfig())

	rec := httptest.NewRecorder()
	d.StatsHandler(rec, httptest.NewRequest("GET", "/stats", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status before load = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	if _, err := d.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	rec = httptest.NewRecorder()
	d.StatsHandler(rec, httptest.NewRequest("GET", "/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Router   router.Stats `json:"router"`
		LastLoad LoadResult   `json:"last_load"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Router.StaticRoutes != 1 || body.Router.DynamicRoutes != 1 || body.Router.Engine != router.EnginePrimaryName {
		t.Errorf("router stats = %+v", body.Router)
	}
	if body.LastLoad.Registered != 2 {
		t.Errorf("last load = %+v", body.LastLoad)
	}
}
