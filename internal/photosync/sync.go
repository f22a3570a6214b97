// Package photosync reconciles the photos directory with the photo metadata
// table: blobs dropped into the directory out-of-band get registered, rows
// whose blob vanished get removed. Scans may be long-running on large sets
// and are intended to run from background goroutines.
package photosync

import (
	"log/slog"
	"path/filepath"

	"github.com/minato/gyotaku/internal/models"
	"github.com/minato/gyotaku/internal/storage"
	"github.com/minato/gyotaku/internal/store"
)

// Sync walks the photos directory and brings the photos table up to date:
//   - new/changed blobs are registered (mime sniffed from the extension)
//   - rows whose blob no longer exists on disk are removed
func Sync(db store.RecordStore, blobs storage.Provider, logger *slog.Logger) error {
	infos, err := blobs.List()
	if err != nil {
		return err
	}

	existing, err := db.AllPhotos()
	if err != nil {
		return err
	}
	byID := make(map[string]models.Photo, len(existing))
	for _, p := range existing {
		byID[p.ID] = p
	}

	disk := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		id := models.PhotoIDFromBlobName(info.Name)
		disk[id] = struct{}{}

		if row, ok := byID[id]; ok && row.Checksum == info.Checksum {
			continue
		}
		if err := registerBlob(db, info); err != nil {
			logger.Warn("sync: register failed", slog.String("blob", info.Name), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: registered", slog.String("blob", info.Name))
		}
	}

	// Remove stale rows.
	for id := range byID {
		if _, ok := disk[id]; !ok {
			if err := db.DeletePhoto(id); err != nil {
				logger.Warn("sync: delete failed", slog.String("photo", id), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("photo", id))
			}
		}
	}

	return nil
}

// registerBlob upserts a metadata row for a blob found on disk.
func registerBlob(db store.RecordStore, info storage.BlobInfo) error {
	return db.PutPhoto(&models.Photo{
		ID:         models.PhotoIDFromBlobName(info.Name),
		Mime:       models.MimeForExt(filepath.Ext(info.Name)),
		SizeBytes:  info.SizeBytes,
		Checksum:   info.Checksum,
		UploadedAt: info.ModTime,
	})
}
