package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/minato/gyotaku/internal/models"
	"github.com/minato/gyotaku/internal/recordservice"
)

// Events is the change-notification sink the handlers publish into.
type Events interface {
	PublishRecordEvent(kind, id string)
	PublishPhotoEvent(kind, id string)
}

// Handler holds API route handlers.
type Handler struct {
	svc    *recordservice.Service
	events Events
}

// NewHandler creates a new Handler. events may be nil.
func NewHandler(svc *recordservice.Service, events Events) *Handler {
	return &Handler{svc: svc, events: events}
}

func (h *Handler) publishRecord(kind, id string) {
	if h.events != nil {
		h.events.PublishRecordEvent(kind, id)
	}
}

func (h *Handler) publishPhoto(kind, id string) {
	if h.events != nil {
		h.events.PublishPhotoEvent(kind, id)
	}
}

// ListRecords handles GET /api/records.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	species := q.Get("species")
	sort := q.Get("sort")

	items, total, err := h.svc.ListRecords(r.Context(), limit, offset, species, sort)
	if err != nil {
		slog.Error("list records failed", slog.String("error", err.Error()))
		writeAppError(w, err)
		return
	}
	if items == nil {
		items = []models.Record{}
	}
	writeData(w, http.StatusOK, map[string]any{
		"records": items,
		"total":   total,
	})
}

// GetRecord handles GET /api/records/{id}.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.svc.GetRecord(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeData(w, http.StatusOK, rec)
}

// CreateRecord handles POST /api/records.
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var rec models.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	created, err := h.svc.CreateRecord(r.Context(), &rec)
	if err != nil {
		writeAppError(w, err)
		return
	}
	h.publishRecord("created", created.ID)
	writeData(w, http.StatusCreated, created)
}

// UpdateRecord handles PUT /api/records/{id}.
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	id := chi.URLParam(r, "id")
	var rec models.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	updated, err := h.svc.UpdateRecord(r.Context(), id, &rec)
	if err != nil {
		writeAppError(w, err)
		return
	}
	h.publishRecord("updated", id)
	writeData(w, http.StatusOK, updated)
}

// DeleteRecord handles DELETE /api/records/{id}.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteRecord(r.Context(), id); err != nil {
		writeAppError(w, err)
		return
	}
	h.publishRecord("deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// SearchRecords handles GET /api/records/search.
func (h *Handler) SearchRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "query parameter 'q' is required", nil)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeAppError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"results": results})
}

// UploadPhoto handles POST /api/photos (multipart/form-data, field "file").
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 11<<20) // validation enforces the 10 MiB rule

	if err := r.ParseMultipartForm(11 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "file too large or invalid multipart", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "missing 'file' field in multipart form", nil)
		return
	}
	defer file.Close()

	blob, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "failed to read file", nil)
		return
	}

	mime := header.Header.Get("Content-Type")
	photo, err := h.svc.UploadPhoto(r.Context(), mime, blob)
	if err != nil {
		writeAppError(w, err)
		return
	}
	h.publishPhoto("created", photo.ID)
	writeData(w, http.StatusCreated, photo)
}

// ServePhoto handles GET /api/photos/{id}.
func (h *Handler) ServePhoto(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	photo, blob, err := h.svc.GetPhoto(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	w.Header().Set("Content-Type", photo.Mime)
	w.Header().Set("Content-Length", strconv.FormatInt(int64(len(blob)), 10))
	_, _ = w.Write(blob)
}

// DeletePhoto handles DELETE /api/photos/{id}.
func (h *Handler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.DeletePhoto(r.Context(), id); err != nil {
		writeAppError(w, err)
		return
	}
	h.publishPhoto("deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// Overall handles GET /api/stats/overall.
func (h *Handler) Overall(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Overall(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeData(w, http.StatusOK, s)
}

// TimeAnalysis handles GET /api/stats/time.
func (h *Handler) TimeAnalysis(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.TimeAnalysis(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeData(w, http.StatusOK, s)
}

// SizeDistribution handles GET /api/stats/size-distribution.
func (h *Handler) SizeDistribution(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.SizeDistribution(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeData(w, http.StatusOK, s)
}

// GroupStats returns a handler for one group-by aggregation kind.
func (h *Handler) GroupStats(kind recordservice.GroupKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := h.svc.GroupStats(r.Context(), kind)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeData(w, http.StatusOK, s)
	}
}
