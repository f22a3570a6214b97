package photosync

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/minato/gyotaku/internal/checksum"
	"github.com/minato/gyotaku/internal/models"
	"github.com/minato/gyotaku/internal/storage"
	"github.com/minato/gyotaku/internal/store"
)

// EventCallback is called after a watcher-driven photo table change.
// kind is one of "created", "updated", "deleted"; id is the photo id.
type EventCallback func(kind string, id string)

// Watch starts an fsnotify watcher on the photos directory and processes
// blob change events until ctx is cancelled. It calls cb (if non-nil) after
// each successful table mutation.
//
// Rename events fire on the old path only; the new path arrives as a
// separate Create event. A short debounced reconciliation pass catches any
// stragglers.
func Watch(ctx context.Context, db store.RecordStore, blobs storage.Provider, photosDir string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(photosDir); err != nil {
		return err
	}

	logger.Info("photo watcher: started", slog.String("dir", photosDir))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("photo watcher: stopped")
			return nil

		case <-reconcileCh:
			if err := Sync(db, blobs, logger); err != nil {
				logger.Warn("photo watcher: reconcile failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			name := filepath.Base(ev.Name)
			if models.MimeForExt(filepath.Ext(name)) == "" {
				continue // tmp files, sidecars
			}
			id := models.PhotoIDFromBlobName(name)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				info, statErr := os.Stat(ev.Name)
				if statErr != nil || info.IsDir() {
					continue
				}
				data, readErr := blobs.Read(name)
				if readErr != nil {
					logger.Warn("photo watcher: read failed", slog.String("blob", name), slog.String("error", readErr.Error()))
					continue
				}
				kind := "updated"
				if ev.Op&fsnotify.Create != 0 {
					kind = "created"
				}
				err := registerBlob(db, storage.BlobInfo{
					Name:      name,
					SizeBytes: info.Size(),
					Checksum:  checksum.Sum(data),
					ModTime:   info.ModTime(),
				})
				if err != nil {
					logger.Warn("photo watcher: register failed", slog.String("blob", name), slog.String("error", err.Error()))
					continue
				}
				logger.Debug("photo watcher: registered", slog.String("blob", name), slog.String("op", kind))
				if cb != nil {
					cb(kind, id)
				}

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeletePhoto(id); delErr != nil {
					logger.Warn("photo watcher: delete failed", slog.String("photo", id), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("photo watcher: deleted", slog.String("photo", id))
				if cb != nil {
					cb("deleted", id)
				}

			case ev.Op&fsnotify.Rename != 0:
				if delErr := db.DeletePhoto(id); delErr == nil {
					logger.Debug("photo watcher: rename old deleted", slog.String("photo", id))
					if cb != nil {
						cb("deleted", id)
					}
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("photo watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
