// Package migrate tracks the persisted schema version and applies ordered,
// transactional data migrations against the record store.
package migrate

import (
	"database/sql"
	"fmt"
)

// Migration is a registered unit of data transformation. Identity is the ID;
// Version is the semantic app version that introduced it. Down is optional:
// a migration without it cannot be rolled back.
type Migration struct {
	ID          string
	Version     string
	Description string
	Up          func(tx *sql.Tx) error
	Down        func(tx *sql.Tx) error
}

// Registry is the fixed, ordered migration list, built once at startup.
// Migrations are totally ordered by registration order; version strings are
// informational and never used for ordering or skipping.
type Registry struct {
	migrations []Migration
}

// NewRegistry builds a registry from the given migrations in order.
// A duplicate ID is a fatal configuration error.
func NewRegistry(migs ...Migration) (*Registry, error) {
	seen := make(map[string]struct{}, len(migs))
	for _, m := range migs {
		if m.ID == "" {
			return nil, fmt.Errorf("migrate: migration with empty id (version %q)", m.Version)
		}
		if m.Up == nil {
			return nil, fmt.Errorf("migrate: migration %s has no up step", m.ID)
		}
		if _, dup := seen[m.ID]; dup {
			return nil, fmt.Errorf("migrate: duplicate migration id %q", m.ID)
		}
		seen[m.ID] = struct{}{}
	}
	out := make([]Migration, len(migs))
	copy(out, migs)
	return &Registry{migrations: out}, nil
}

// All returns the registered migrations in registration order.
func (r *Registry) All() []Migration {
	out := make([]Migration, len(r.migrations))
	copy(out, r.migrations)
	return out
}

// Find returns the migration with the given id, if registered.
func (r *Registry) Find(id string) (Migration, bool) {
	for _, m := range r.migrations {
		if m.ID == id {
			return m, true
		}
	}
	return Migration{}, false
}
