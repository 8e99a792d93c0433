// Package database - Data models
package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Schema is the DDL for the route_definitions table.
//
// position orders registration: definitions are registered by ascending
// position, then creation time, and the router gives earlier registrations
// priority between dynamic routes of the same shape.
const Schema = `
CREATE TABLE IF NOT EXISTS route_definitions (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name        TEXT UNIQUE,
	methods     TEXT[] NOT NULL,
	path        TEXT NOT NULL,
	handler     TEXT NOT NULL,
	middleware  TEXT[] NOT NULL DEFAULT '{}',
	constraints JSONB NOT NULL DEFAULT '{}',
	position    INTEGER NOT NULL DEFAULT 0,
	enabled     BOOLEAN NOT NULL DEFAULT true,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// RouteDefinition is a route as stored in the 'route_definitions' table.
type RouteDefinition struct {
	ID   string         `json:"id" db:"id"`
	Name sql.NullString `json:"name,omitempty" db:"name"`

	Methods pq.StringArray `json:"methods" db:"methods"` // e.g., ["GET", "POST"]
	Path    string         `json:"path" db:"path"`       // e.g., "/users/{id:int}"
	Handler string         `json:"handler" db:"handler"` // opaque handler name

	Middleware pq.StringArray `json:"middleware,omitempty" db:"middleware"`

	// Constraints maps a parameter name to a constraint keyword.
	Constraints map[string]string `json:"constraints,omitempty" db:"constraints"`

	Position  int       `json:"position" db:"position"`
	Enabled   bool      `json:"enabled" db:"enabled"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RouteName returns the route name, or "" when unset.
func (d *RouteDefinition) RouteName() string {
	if d.Name.Valid {
		return d.Name.String
	}
	return ""
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRouteDefinition reads one row selected with routeDefinitionColumns.
func scanRouteDefinition(row rowScanner) (*RouteDefinition, error) {
	var (
		def         RouteDefinition
		constraints []byte
	)
	err := row.Scan(
		&def.ID, &def.Name, &def.Methods, &def.Path, &def.Handler,
		&def.Middleware, &constraints, &def.Position, &def.Enabled,
		&def.CreatedAt, &def.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(constraints) > 0 {
		if err := json.Unmarshal(constraints, &def.Constraints); err != nil {
			return nil, fmt.Errorf("failed to parse constraints of route %s: %w", def.ID, err)
		}
	}
	return &def, nil
}
