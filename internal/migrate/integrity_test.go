package migrate

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/minato/gyotaku/internal/models"
	"github.com/minato/gyotaku/internal/store"
)

func migratedStore(t *testing.T) (*store.DB, *Manager) {
	t.Helper()
	db := testStore(t)
	mgr := testManager(t, db, Builtin()...)
	if _, err := mgr.Run(context.Background(), RunOptions{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return db, mgr
}

func seedPhoto(t *testing.T, db *store.DB, id string) {
	t.Helper()
	p := &models.Photo{ID: id, Mime: "image/jpeg", SizeBytes: 10, UploadedAt: time.Now()}
	if err := db.PutPhoto(p); err != nil {
		t.Fatalf("PutPhoto: %v", err)
	}
}

func seedRecord(t *testing.T, db *store.DB, id, photoID string) {
	t.Helper()
	r := &models.Record{
		ID:       id,
		CaughtAt: time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC),
		Location: "lake",
		Species:  "bass",
		PhotoID:  photoID,
	}
	if err := db.PutRecord(r); err != nil {
		t.Fatalf("PutRecord: %v", err)
	}
}

func TestFindOrphanedPhotos(t *testing.T) {
	db, mgr := migratedStore(t)
	seedPhoto(t, db, "p1")
	seedPhoto(t, db, "p2")
	seedPhoto(t, db, "p3")
	seedRecord(t, db, "r1", "p1")

	orphans, err := mgr.FindOrphanedPhotos()
	if err != nil {
		t.Fatalf("FindOrphanedPhotos: %v", err)
	}
	ids := make(map[string]bool)
	for _, p := range orphans {
		ids[p.ID] = true
	}
	if len(orphans) != 2 || !ids["p2"] || !ids["p3"] {
		t.Errorf("orphans = %v, want p2 and p3", ids)
	}
}

func TestCheckIntegrity_CleanState(t *testing.T) {
	db, mgr := migratedStore(t)
	seedPhoto(t, db, "p1")
	seedRecord(t, db, "r1", "p1")

	report, err := mgr.CheckIntegrity(context.Background())
	if err != nil {
		t.Fatalf("CheckIntegrity: %v", err)
	}
	if !report.IsValid || len(report.Issues) != 0 {
		t.Errorf("report = %+v, want clean", report)
	}
}

func TestCheckIntegrity_ReportsProblems(t *testing.T) {
	db, mgr := migratedStore(t)
	seedPhoto(t, db, "orphan")
	seedRecord(t, db, "dangling", "ghost") // references a photo that does not exist

	report, err := mgr.CheckIntegrity(context.Background())
	if err != nil {
		t.Fatalf("CheckIntegrity: %v", err)
	}
	if report.IsValid {
		t.Error("report should not be valid")
	}
	if report.OrphanedPhotos != 1 {
		t.Errorf("orphaned = %d, want 1", report.OrphanedPhotos)
	}
	if report.InvalidRecords != 1 {
		t.Errorf("invalid records = %d, want 1", report.InvalidRecords)
	}
	found := false
	for _, issue := range report.Issues {
		if strings.Contains(issue, "ghost") && strings.Contains(issue, "does not exist") {
			found = true
		}
	}
	if !found {
		t.Errorf("issues = %v, want a missing-reference entry", report.Issues)
	}
}

func TestCleanupOrphanedPhotos_DryRun(t *testing.T) {
	db, mgr := migratedStore(t)
	seedPhoto(t, db, "p1")
	seedPhoto(t, db, "p2")
	seedRecord(t, db, "r1", "p1")

	res, err := mgr.CleanupOrphanedPhotos(context.Background(), true)
	if err != nil {
		t.Fatalf("CleanupOrphanedPhotos: %v", err)
	}
	if res.DeletedCount != 1 || res.DeletedIDs[0] != "p2" {
		t.Errorf("dry-run result = %+v", res)
	}
	if n, _ := db.CountPhotos(); n != 2 {
		t.Errorf("photos after dry-run = %d, want 2 (nothing deleted)", n)
	}
}

func TestCleanupOrphanedPhotos_Deletes(t *testing.T) {
	db, mgr := migratedStore(t)
	seedPhoto(t, db, "p1")
	seedPhoto(t, db, "p2")
	seedRecord(t, db, "r1", "p1")

	res, err := mgr.CleanupOrphanedPhotos(context.Background(), false)
	if err != nil {
		t.Fatalf("CleanupOrphanedPhotos: %v", err)
	}
	if res.DeletedCount != 1 {
		t.Errorf("result = %+v", res)
	}
	if n, _ := db.CountPhotos(); n != 1 {
		t.Errorf("photos remaining = %d, want 1", n)
	}
	if _, err := db.GetPhoto("p1"); err != nil {
		t.Errorf("referenced photo removed: %v", err)
	}
}
