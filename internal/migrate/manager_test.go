package migrate

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/minato/gyotaku/internal/apperr"
	"github.com/minato/gyotaku/internal/models"
	"github.com/minato/gyotaku/internal/store"
	"github.com/minato/gyotaku/internal/validate"
)

func testStore(t *testing.T) *store.DB {
	t.Helper()
	f, err := os.CreateTemp("", "gyotaku-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := store.Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testManager(t *testing.T, db *store.DB, migs ...Migration) *Manager {
	t.Helper()
	registry, err := NewRegistry(migs...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(db, registry, validate.New(db, validate.DefaultRegion), nil, "test", logger)
}

func TestRegistry_DuplicateIDFatal(t *testing.T) {
	up := func(*sql.Tx) error { return nil }
	_, err := NewRegistry(
		Migration{ID: "001_x", Up: up},
		Migration{ID: "001_x", Up: up},
	)
	if err == nil {
		t.Fatal("duplicate id must be a configuration error")
	}
}

func TestRegistry_RejectsMissingUp(t *testing.T) {
	if _, err := NewRegistry(Migration{ID: "001_x"}); err == nil {
		t.Fatal("migration without up must be rejected")
	}
}

func TestVersion_DefaultZeroState(t *testing.T) {
	mgr := testManager(t, testStore(t), Builtin()...)
	v, err := mgr.Version()
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if v.SchemaVersion != 0 || len(v.MigrationsApplied) != 0 {
		t.Errorf("zero state = %+v", v)
	}
}

func TestRun_AppliesBuiltin(t *testing.T) {
	db := testStore(t)
	mgr := testManager(t, db, Builtin()...)

	res, err := mgr.Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Success || len(res.Applied) != 3 {
		t.Fatalf("result = %+v", res)
	}
	if res.SchemaFrom != 0 || res.SchemaTo != TargetSchemaVersion {
		t.Errorf("schema %d -> %d, want 0 -> %d", res.SchemaFrom, res.SchemaTo, TargetSchemaVersion)
	}

	v, err := mgr.Version()
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if v.SchemaVersion != TargetSchemaVersion {
		t.Errorf("persisted schema = %d", v.SchemaVersion)
	}
	if v.LastMigrationDate == nil {
		t.Error("lastMigrationDate not set")
	}

	// The migrated schema accepts records with the added columns.
	rec := &models.Record{ID: "r1", Weather: "cloudy"}
	if err := db.PutRecord(rec); err != nil {
		t.Fatalf("PutRecord on migrated schema: %v", err)
	}
}

func TestRun_DryRunTouchesNothing(t *testing.T) {
	mgr := testManager(t, testStore(t), Builtin()...)

	res, err := mgr.Run(context.Background(), RunOptions{DryRun: true})
	if err != nil {
		t.Fatalf("Run dry: %v", err)
	}
	if !res.Success || len(res.Applied) != 0 || len(res.Skipped) != 3 {
		t.Fatalf("dry-run result = %+v", res)
	}

	pending, err := mgr.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 3 {
		t.Errorf("pending after dry-run = %d, want 3", len(pending))
	}
}

func TestRun_SecondRunIsEmpty(t *testing.T) {
	mgr := testManager(t, testStore(t), Builtin()...)
	ctx := context.Background()

	if _, err := mgr.Run(ctx, RunOptions{}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	res, err := mgr.Run(ctx, RunOptions{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !res.Success || len(res.Applied) != 0 {
		t.Errorf("second run result = %+v, want no-op success", res)
	}
}

func TestRun_FailureRollsBackEverything(t *testing.T) {
	db := testStore(t)
	ok := func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO settings (key, value) VALUES ('probe', 'x')`)
		return err
	}
	boom := func(*sql.Tx) error { return errors.New("boom") }
	mgr := testManager(t, db,
		Migration{ID: "001_ok", Up: ok},
		Migration{ID: "002_boom", Up: boom},
		Migration{ID: "003_never", Up: ok},
	)

	res, err := mgr.Run(context.Background(), RunOptions{})
	if err == nil {
		t.Fatal("expected run to fail")
	}
	if apperr.CodeOf(err) != apperr.CodeMigrationExecutionFailed {
		t.Errorf("code = %q", apperr.CodeOf(err))
	}
	if len(res.Applied) != 0 {
		t.Errorf("applied = %v, want none", res.Applied)
	}
	if len(res.Errors) != 1 || res.Errors[0] != "002_boom" {
		t.Errorf("errors = %v, want exactly the failing id", res.Errors)
	}

	// Transaction fully rolled back: probe write gone, all still pending.
	if _, getErr := db.GetSetting("probe"); !errors.Is(getErr, apperr.ErrNotFound) {
		t.Errorf("probe setting survived the rollback: %v", getErr)
	}
	pending, perr := mgr.Pending()
	if perr != nil {
		t.Fatalf("Pending: %v", perr)
	}
	if len(pending) != 3 {
		t.Errorf("pending = %d, want all 3", len(pending))
	}
}

func TestRollback_RemovesSingleID(t *testing.T) {
	db := testStore(t)
	mgr := testManager(t, db, Builtin()...)
	ctx := context.Background()

	if _, err := mgr.Run(ctx, RunOptions{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := mgr.Rollback(ctx, "002_gps_accuracy"); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	v, err := mgr.Version()
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if v.Applied("002_gps_accuracy") {
		t.Error("rolled-back id still recorded")
	}
	if !v.Applied("001_weather_column") || !v.Applied("003_trim_text_fields") {
		t.Errorf("other ids must survive: %v", v.MigrationsApplied)
	}

	pending, _ := mgr.Pending()
	if len(pending) != 1 || pending[0].ID != "002_gps_accuracy" {
		t.Errorf("pending = %v, want just the rolled-back migration", pending)
	}
}

func TestRollback_NotRegistered(t *testing.T) {
	mgr := testManager(t, testStore(t), Builtin()...)
	err := mgr.Rollback(context.Background(), "999_phantom")
	if apperr.CodeOf(err) != apperr.CodeMigrationNotFound {
		t.Errorf("code = %q, want MIGRATION_NOT_FOUND", apperr.CodeOf(err))
	}
}

func TestRollback_NotSupported(t *testing.T) {
	mgr := testManager(t, testStore(t), Builtin()...)
	ctx := context.Background()
	if _, err := mgr.Run(ctx, RunOptions{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	before, _ := mgr.Version()
	err := mgr.Rollback(ctx, "003_trim_text_fields")
	if apperr.CodeOf(err) != apperr.CodeRollbackNotSupported {
		t.Fatalf("code = %q, want ROLLBACK_NOT_SUPPORTED", apperr.CodeOf(err))
	}
	after, _ := mgr.Version()
	if len(after.MigrationsApplied) != len(before.MigrationsApplied) {
		t.Error("migrationsApplied changed on a refused rollback")
	}
}

func TestRollback_NotApplied(t *testing.T) {
	mgr := testManager(t, testStore(t), Builtin()...)
	err := mgr.Rollback(context.Background(), "001_weather_column")
	if apperr.CodeOf(err) != apperr.CodeMigrationNotFound {
		t.Errorf("code = %q, want MIGRATION_NOT_FOUND for unapplied migration", apperr.CodeOf(err))
	}
}

func TestCheckCompatibility_NewerSchemaRefused(t *testing.T) {
	db := testStore(t)
	mgr := testManager(t, db, Builtin()...)

	future := &models.DataVersion{Version: "9.0.0", SchemaVersion: TargetSchemaVersion + 1, MigrationsApplied: []string{}}
	if err := mgr.writeVersion(future); err != nil {
		t.Fatalf("writeVersion: %v", err)
	}

	err := mgr.CheckCompatibility()
	if apperr.CodeOf(err) != apperr.CodeSchemaCompatibility {
		t.Errorf("code = %q, want SCHEMA_COMPATIBILITY_CHECK_FAILED", apperr.CodeOf(err))
	}
}

func TestCheckCompatibility_CurrentSchemaOK(t *testing.T) {
	mgr := testManager(t, testStore(t), Builtin()...)
	if _, err := mgr.Run(context.Background(), RunOptions{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := mgr.CheckCompatibility(); err != nil {
		t.Errorf("CheckCompatibility: %v", err)
	}
}
