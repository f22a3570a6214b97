package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/minato/gyotaku/internal/migrate"
	"github.com/minato/gyotaku/internal/recordservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *recordservice.Service, mgr *migrate.Manager, events Events,
	authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, events)
	ah := NewAdminHandler(mgr)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Records CRUD.
	r.Get("/records", h.ListRecords)
	r.Post("/records", h.CreateRecord)
	r.Get("/records/search", h.SearchRecords)
	r.Get("/records/{id}", h.GetRecord)
	r.Put("/records/{id}", h.UpdateRecord)
	r.Delete("/records/{id}", h.DeleteRecord)

	// Photos.
	r.Post("/photos", h.UploadPhoto)
	r.Get("/photos/{id}", h.ServePhoto)
	r.Delete("/photos/{id}", h.DeletePhoto)

	// Statistics.
	r.Get("/stats/overall", h.Overall)
	r.Get("/stats/time", h.TimeAnalysis)
	r.Get("/stats/size-distribution", h.SizeDistribution)
	r.Get("/stats/species", h.GroupStats(recordservice.GroupBySpecies))
	r.Get("/stats/locations", h.GroupStats(recordservice.GroupByLocation))
	r.Get("/stats/weather", h.GroupStats(recordservice.GroupByWeather))

	// Admin: schema version, migrations, integrity, cleanup.
	r.Get("/admin/version", ah.Version)
	r.Post("/admin/migrations/run", ah.RunMigrations)
	r.Post("/admin/migrations/{id}/rollback", ah.RollbackMigration)
	r.Get("/admin/integrity", ah.Integrity)
	r.Post("/admin/photos/cleanup", ah.CleanupPhotos)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
