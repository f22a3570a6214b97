// Package testutil provides shared test helpers for setting up databases and
// photo directories.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/minato/gyotaku/internal/migrate"
	"github.com/minato/gyotaku/internal/storage"
	"github.com/minato/gyotaku/internal/store"
	"github.com/minato/gyotaku/internal/validate"
)

// TestDB creates a temporary SQLite database, migrated to the current schema,
// that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "gyotaku-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	registry, err := migrate.NewRegistry(migrate.Builtin()...)
	if err != nil {
		t.Fatal(err)
	}
	mgr := migrate.NewManager(db, registry, validate.New(db, validate.DefaultRegion),
		nil, "test", DiscardLogger())
	if _, err := mgr.Run(context.Background(), migrate.RunOptions{}); err != nil {
		t.Fatal(err)
	}
	return db
}

// TestPhotoDir creates a temporary photo directory with a storage.Provider.
func TestPhotoDir(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	blobs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, blobs
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
