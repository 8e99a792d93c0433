package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/saidutt46/switchboard-router/internal/logging"
)

// Resolution is the response body for a matched request.
type Resolution struct {
	RouteID    string            `json:"route_id"`
	Name       string            `json:"name,omitempty"`
	Pattern    string            `json:"pattern"`
	Handler    string            `json:"handler"`
	Methods    []string          `json:"methods"`
	Middleware []string          `json:"middleware,omitempty"`
	Params     map[string]string `json:"params"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Method string `json:"method,omitempty"`
	Path   string `json:"path,omitempty"`
}

// ServeHTTP resolves the request method and path against the live router.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := d.resolve(w, r)
	logging.LogRequest(r.Method, r.URL.Path, status, time.Since(start).Milliseconds())
}

func (d *Dispatcher) resolve(w http.ResponseWriter, r *http.Request) int {
	rt := d.current.Load()
	if rt == nil {
		return writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: ErrNotLoaded.Error()})
	}

	m, ok := rt.MatchHTTP(r)
	if !ok {
		return writeJSON(w, http.StatusNotFound, errorResponse{
			Error:  "no route matches",
			Method: r.Method,
			Path:   r.URL.Path,
		})
	}

	target, _ := m.Handler().(Target)
	res := Resolution{
		RouteID: target.DefinitionID,
		Name:    m.Route.Name(),
		Pattern: m.Route.Pattern(),
		Handler: target.Handler,
		Methods: m.Route.Methods(),
		Params:  m.Params,
	}
	if res.Params == nil {
		res.Params = map[string]string{}
	}
	for _, mw := range m.Route.Middlewares() {
		if s, ok := mw.(string); ok {
			res.Middleware = append(res.Middleware, s)
		}
	}
	return writeJSON(w, http.StatusOK, res)
}

// StatsHandler serves the live router's statistics together with the last
// load summary.
func (d *Dispatcher) StatsHandler(w http.ResponseWriter, _ *http.Request) {
	stats, err := d.Stats()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}

	body := struct {
		Router   any         `json:"router"`
		LastLoad *LoadResult `json:"last_load,omitempty"`
	}{Router: stats}
	if res, ok := d.LastLoad(); ok {
		body.LastLoad = &res
	}
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) int {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Str("component", "dispatcher").Msg("Failed to encode response")
	}
	return status
}
