package migrate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/minato/gyotaku/internal/apperr"
	"github.com/minato/gyotaku/internal/models"
	"github.com/minato/gyotaku/internal/validate"
)

// IntegrityReport is the outcome of a full data integrity scan.
type IntegrityReport struct {
	IsValid        bool     `json:"is_valid"`
	OrphanedPhotos int      `json:"orphaned_photos"`
	InvalidRecords int      `json:"invalid_records"`
	Issues         []string `json:"issues"`
}

// CleanupResult reports an orphaned-photo cleanup.
type CleanupResult struct {
	DeletedCount int      `json:"deleted_count"`
	DeletedIDs   []string `json:"deleted_ids"`
}

// FindOrphanedPhotos returns every stored photo no record references.
func (m *Manager) FindOrphanedPhotos() ([]models.Photo, error) {
	photos, err := m.db.AllPhotos()
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeOrphanedPhotosCheck, "list photos", err)
	}
	records, err := m.db.AllRecords()
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeOrphanedPhotosCheck, "list records", err)
	}

	referenced := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.PhotoID != "" {
			referenced[r.PhotoID] = struct{}{}
		}
	}

	var orphans []models.Photo
	for _, p := range photos {
		if _, ok := referenced[p.ID]; !ok {
			orphans = append(orphans, p)
		}
	}
	return orphans, nil
}

// CheckIntegrity scans all photos for orphans and validates every record in
// strict, reference-checking mode. It is read-only and safe to run from a
// background task; failures are recoverable, never destructive.
func (m *Manager) CheckIntegrity(ctx context.Context) (*IntegrityReport, error) {
	report := &IntegrityReport{Issues: []string{}}

	orphans, err := m.FindOrphanedPhotos()
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeIntegrityCheckFailed, "orphan scan", err)
	}
	report.OrphanedPhotos = len(orphans)
	for _, p := range orphans {
		report.Issues = append(report.Issues, fmt.Sprintf("photo %s is not referenced by any record", p.ID))
	}

	records, err := m.db.AllRecords()
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeIntegrityCheckFailed, "list records", err)
	}
	for i := range records {
		r := &records[i]
		res := m.validator.ValidateRecord(r, validate.Options{CheckReferences: true, Strict: true})
		if res.Valid {
			continue
		}
		report.InvalidRecords++
		for _, f := range res.Fields {
			if !f.Valid {
				report.Issues = append(report.Issues, fmt.Sprintf("record %s: %s", r.ID, f.Error))
			}
		}
		for _, re := range res.ReferenceErrors {
			report.Issues = append(report.Issues, fmt.Sprintf("record %s: %s", r.ID, re))
		}
	}

	report.IsValid = report.OrphanedPhotos == 0 && report.InvalidRecords == 0
	return report, nil
}

// CleanupOrphanedPhotos deletes (or, when dryRun, merely reports) every photo
// not referenced by any record. Metadata rows go first; blob file removal is
// best-effort and logged, since a stray file is harmless and the next sync
// pass reconciles it.
func (m *Manager) CleanupOrphanedPhotos(ctx context.Context, dryRun bool) (*CleanupResult, error) {
	orphans, err := m.FindOrphanedPhotos()
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeCleanupFailed, "orphan scan", err)
	}

	res := &CleanupResult{DeletedIDs: []string{}}
	for _, p := range orphans {
		res.DeletedIDs = append(res.DeletedIDs, p.ID)
	}
	res.DeletedCount = len(res.DeletedIDs)

	if dryRun || res.DeletedCount == 0 {
		return res, nil
	}

	if err := m.db.BulkDeletePhotos(res.DeletedIDs); err != nil {
		return nil, apperr.Wrap(apperr.CodeCleanupFailed, "delete photo rows", err)
	}
	if m.blobs != nil {
		for _, p := range orphans {
			if delErr := m.blobs.Delete(p.BlobName()); delErr != nil {
				m.logger.Warn("cleanup: blob delete failed",
					slog.String("photo", p.ID),
					slog.String("error", delErr.Error()))
			}
		}
	}

	m.logger.Info("orphaned photos removed", slog.Int("count", res.DeletedCount))
	return res, nil
}
