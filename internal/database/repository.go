// Package database - Repository layer
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ErrRouteNotFound is returned when a route definition does not exist.
var ErrRouteNotFound = errors.New("route definition not found")

const routeDefinitionColumns = `
	id, name, methods, path, handler, middleware, constraints,
	position, enabled, created_at, updated_at`

// Repository provides read access to route definitions.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// GetRouteDefinitions returns route definitions in registration order.
//
// Only returns enabled definitions unless includeDisabled is true.
func (r *Repository) GetRouteDefinitions(ctx context.Context, includeDisabled bool) ([]*RouteDefinition, error) {
	query := `SELECT` + routeDefinitionColumns + `
		FROM route_definitions
		WHERE enabled = true OR $1 = true
		ORDER BY position ASC, created_at ASC
	`

	rows, err := r.db.pool.QueryContext(ctx, query, includeDisabled)
	if err != nil {
		return nil, fmt.Errorf("failed to query route definitions: %w", err)
	}
	defer rows.Close()

	var defs []*RouteDefinition
	for rows.Next() {
		def, err := scanRouteDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan route definition: %w", err)
		}
		defs = append(defs, def)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating route definitions: %w", err)
	}

	log.Debug().
		Str("component", "repository").
		Int("count", len(defs)).
		Bool("include_disabled", includeDisabled).
		Msg("Retrieved route definitions")

	return defs, nil
}

// GetRouteDefinitionByID returns a single route definition.
func (r *Repository) GetRouteDefinitionByID(ctx context.Context, id string) (*RouteDefinition, error) {
	query := `SELECT` + routeDefinitionColumns + `
		FROM route_definitions
		WHERE id = $1
	`

	def, err := scanRouteDefinition(r.db.pool.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRouteNotFound, id)
		}
		return nil, fmt.Errorf("failed to get route definition: %w", err)
	}
	return def, nil
}
