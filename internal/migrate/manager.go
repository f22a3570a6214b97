package migrate

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/minato/gyotaku/internal/apperr"
	"github.com/minato/gyotaku/internal/models"
	"github.com/minato/gyotaku/internal/storage"
	"github.com/minato/gyotaku/internal/store"
	"github.com/minato/gyotaku/internal/validate"
)

// versionKey is the settings key holding the serialized DataVersion singleton.
const versionKey = "dataVersion"

// Manager orchestrates schema-version tracking and migration execution.
// At most one Run or Rollback is in flight at a time, enforced by mu plus the
// single enclosing store transaction. There is no cancellation once a
// transaction begins: it commits or rolls back atomically.
type Manager struct {
	db         store.RecordStore
	registry   *Registry
	validator  *validate.Validator
	blobs      storage.Provider
	logger     *slog.Logger
	appVersion string
	target     int

	mu sync.Mutex
}

// NewManager creates a migration manager. validator is used by the integrity
// check; blobs, when non-nil, lets orphan cleanup remove blob files alongside
// metadata rows.
func NewManager(db store.RecordStore, registry *Registry, validator *validate.Validator,
	blobs storage.Provider, appVersion string, logger *slog.Logger) *Manager {
	return &Manager{
		db:         db,
		registry:   registry,
		validator:  validator,
		blobs:      blobs,
		logger:     logger,
		appVersion: appVersion,
		target:     TargetSchemaVersion,
	}
}

// Version returns the persisted DataVersion, or the zero-state default when
// none has been written yet.
func (m *Manager) Version() (*models.DataVersion, error) {
	raw, err := m.db.GetSetting(versionKey)
	if errors.Is(err, apperr.ErrNotFound) {
		return &models.DataVersion{
			Version:           m.appVersion,
			SchemaVersion:     0,
			MigrationsApplied: []string{},
		}, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeVersionGetFailed, "read data version", err)
	}
	var v models.DataVersion
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, apperr.Wrap(apperr.CodeVersionGetFailed, "parse data version", err)
	}
	if v.MigrationsApplied == nil {
		v.MigrationsApplied = []string{}
	}
	return &v, nil
}

// writeVersion persists v through the settings sub-store, outside any
// migration transaction (seeding, rollback bookkeeping retries).
func (m *Manager) writeVersion(v *models.DataVersion) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return apperr.Wrap(apperr.CodeVersionUpdateFailed, "encode data version", err)
	}
	if err := m.db.PutSetting(versionKey, string(raw), "json"); err != nil {
		return apperr.Wrap(apperr.CodeVersionUpdateFailed, "write data version", err)
	}
	return nil
}

// writeVersionTx persists v inside the migration transaction so the version
// bump commits or rolls back together with the data changes.
func writeVersionTx(tx *sql.Tx, v *models.DataVersion) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode data version: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO settings (key, value, type, updated_at)
		VALUES (?, ?, 'json', ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			type       = excluded.type,
			updated_at = excluded.updated_at
	`, versionKey, string(raw), time.Now())
	if err != nil {
		return fmt.Errorf("write data version: %w", err)
	}
	return nil
}

// CheckCompatibility fails when the persisted schema is newer than this
// build understands; startup must not proceed on such a database.
func (m *Manager) CheckCompatibility() error {
	v, err := m.Version()
	if err != nil {
		return apperr.Wrap(apperr.CodeSchemaCompatibility, "read schema version", err)
	}
	if v.SchemaVersion > m.target {
		return apperr.New(apperr.CodeSchemaCompatibility,
			fmt.Sprintf("database schema version %d is newer than supported version %d",
				v.SchemaVersion, m.target))
	}
	return nil
}

// Pending returns registered migrations not yet recorded in the persisted
// applied list, in registration order. The applied list is the sole source
// of truth; version strings are never consulted.
func (m *Manager) Pending() ([]Migration, error) {
	v, err := m.Version()
	if err != nil {
		return nil, err
	}
	var out []Migration
	for _, mig := range m.registry.All() {
		if !v.Applied(mig.ID) {
			out = append(out, mig)
		}
	}
	return out, nil
}

// RunOptions control a migration run.
type RunOptions struct {
	DryRun bool
}

// RunResult reports the outcome of a migration run.
type RunResult struct {
	Success    bool     `json:"success"`
	Applied    []string `json:"applied_migrations"`
	Skipped    []string `json:"skipped_migrations"`
	Errors     []string `json:"errors"`
	SchemaFrom int      `json:"schema_from"`
	SchemaTo   int      `json:"schema_to"`
}

// Run applies all pending migrations in one transaction. The first failure
// aborts the whole run: no migration from this run is applied or recorded.
// On success the DataVersion bump (schema version, applied ids, migration
// date) commits as part of the same transaction.
func (m *Manager) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, err := m.Version()
	if err != nil {
		return nil, err
	}
	pending, err := m.Pending()
	if err != nil {
		return nil, err
	}

	res := &RunResult{
		Applied:    []string{},
		Skipped:    []string{},
		Errors:     []string{},
		SchemaFrom: v.SchemaVersion,
		SchemaTo:   v.SchemaVersion,
	}

	if len(pending) == 0 {
		res.Success = true
		return res, nil
	}

	pendingIDs := make([]string, len(pending))
	for i, mig := range pending {
		pendingIDs[i] = mig.ID
	}

	if opts.DryRun {
		res.Success = true
		res.Skipped = pendingIDs
		return res, nil
	}

	err = m.db.Transaction(func(tx *sql.Tx) error {
		for _, mig := range pending {
			m.logger.Info("migration: applying",
				slog.String("id", mig.ID),
				slog.String("description", mig.Description))
			if upErr := mig.Up(tx); upErr != nil {
				res.Errors = append(res.Errors, mig.ID)
				return fmt.Errorf("migration %s: %w", mig.ID, upErr)
			}
		}

		next := &models.DataVersion{
			Version:           m.appVersion,
			SchemaVersion:     m.target,
			MigrationsApplied: append(append([]string{}, v.MigrationsApplied...), pendingIDs...),
		}
		now := time.Now()
		next.LastMigrationDate = &now
		return writeVersionTx(tx, next)
	})
	if err != nil {
		m.logger.Error("migration run failed, transaction rolled back",
			slog.String("severity", "critical"),
			slog.Any("would_have_applied", pendingIDs),
			slog.String("error", err.Error()))
		return res, apperr.Wrap(apperr.CodeMigrationExecutionFailed, "migration run aborted", err).
			WithDetails(map[string]any{"pending": pendingIDs, "failed": res.Errors})
	}

	res.Success = true
	res.Applied = pendingIDs
	res.SchemaTo = m.target
	m.logger.Info("migrations applied",
		slog.Int("count", len(pendingIDs)),
		slog.Int("schema_version", m.target))
	return res, nil
}

// Rollback reverts a single applied migration via its down step and removes
// exactly its id from the applied list, all in one transaction.
func (m *Manager) Rollback(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mig, ok := m.registry.Find(id)
	if !ok {
		return apperr.New(apperr.CodeMigrationNotFound, fmt.Sprintf("migration %q is not registered", id))
	}
	if mig.Down == nil {
		return apperr.New(apperr.CodeRollbackNotSupported,
			fmt.Sprintf("migration %q has no down step", id))
	}

	v, err := m.Version()
	if err != nil {
		return err
	}
	if !v.Applied(id) {
		return apperr.New(apperr.CodeMigrationNotFound, fmt.Sprintf("migration %q is not applied", id))
	}

	err = m.db.Transaction(func(tx *sql.Tx) error {
		if downErr := mig.Down(tx); downErr != nil {
			return fmt.Errorf("migration %s down: %w", id, downErr)
		}
		remaining := make([]string, 0, len(v.MigrationsApplied)-1)
		for _, applied := range v.MigrationsApplied {
			if applied != id {
				remaining = append(remaining, applied)
			}
		}
		next := &models.DataVersion{
			Version:           m.appVersion,
			SchemaVersion:     v.SchemaVersion,
			MigrationsApplied: remaining,
			LastMigrationDate: v.LastMigrationDate,
		}
		return writeVersionTx(tx, next)
	})
	if err != nil {
		m.logger.Error("rollback failed, transaction rolled back",
			slog.String("severity", "critical"),
			slog.String("id", id),
			slog.String("error", err.Error()))
		return apperr.Wrap(apperr.CodeRollbackFailed, fmt.Sprintf("rollback of %s aborted", id), err)
	}

	m.logger.Info("migration rolled back", slog.String("id", id))
	return nil
}
