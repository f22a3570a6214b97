package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/minato/gyotaku/internal/migrate"
)

// AdminHandler exposes migration and integrity operations.
type AdminHandler struct {
	mgr *migrate.Manager
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(mgr *migrate.Manager) *AdminHandler {
	return &AdminHandler{mgr: mgr}
}

// Version handles GET /api/admin/version: the persisted DataVersion plus the
// ids of migrations still pending.
func (h *AdminHandler) Version(w http.ResponseWriter, r *http.Request) {
	v, err := h.mgr.Version()
	if err != nil {
		writeAppError(w, err)
		return
	}
	pending, err := h.mgr.Pending()
	if err != nil {
		writeAppError(w, err)
		return
	}
	pendingIDs := []string{}
	for _, m := range pending {
		pendingIDs = append(pendingIDs, m.ID)
	}
	writeData(w, http.StatusOK, map[string]any{
		"version": v,
		"pending": pendingIDs,
	})
}

// RunMigrations handles POST /api/admin/migrations/run.
func (h *AdminHandler) RunMigrations(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DryRun bool `json:"dry_run"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
			return
		}
	}
	res, err := h.mgr.Run(r.Context(), migrate.RunOptions{DryRun: req.DryRun})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

// RollbackMigration handles POST /api/admin/migrations/{id}/rollback.
func (h *AdminHandler) RollbackMigration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.mgr.Rollback(r.Context(), id); err != nil {
		writeAppError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"rolled_back": id})
}

// Integrity handles GET /api/admin/integrity.
func (h *AdminHandler) Integrity(w http.ResponseWriter, r *http.Request) {
	report, err := h.mgr.CheckIntegrity(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeData(w, http.StatusOK, report)
}

// CleanupPhotos handles POST /api/admin/photos/cleanup.
func (h *AdminHandler) CleanupPhotos(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DryRun bool `json:"dry_run"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
			return
		}
	}
	res, err := h.mgr.CleanupOrphanedPhotos(r.Context(), req.DryRun)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeData(w, http.StatusOK, res)
}
