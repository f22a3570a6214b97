// Package recordservice coordinates the store, photo storage, and the
// validation engine behind every record mutation.
package recordservice

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/minato/gyotaku/internal/apperr"
	"github.com/minato/gyotaku/internal/checksum"
	"github.com/minato/gyotaku/internal/models"
	"github.com/minato/gyotaku/internal/stats"
	"github.com/minato/gyotaku/internal/storage"
	"github.com/minato/gyotaku/internal/store"
	"github.com/minato/gyotaku/internal/validate"
)

// Service is the CRUD and analytics facade over the record store.
type Service struct {
	db        store.RecordStore
	blobs     storage.Provider
	validator *validate.Validator
	strict    bool
}

// NewService creates a record service. strict controls whether reference
// errors block writes.
func NewService(db store.RecordStore, blobs storage.Provider, validator *validate.Validator, strict bool) *Service {
	return &Service{db: db, blobs: blobs, validator: validator, strict: strict}
}

// Validate runs the validation engine without persisting anything.
func (s *Service) Validate(_ context.Context, rec *models.Record, opts validate.Options) *validate.Result {
	return s.validator.ValidateRecord(rec, opts)
}

// GetRecord returns a single record by id.
func (s *Service) GetRecord(_ context.Context, id string) (*models.Record, error) {
	return s.db.GetRecord(id)
}

// CreateRecord validates and persists a new record. Validation runs before
// every create; an invalid record is rejected with the full result attached.
func (s *Service) CreateRecord(_ context.Context, rec *models.Record) (*models.Record, error) {
	res := s.validator.ValidateRecord(rec, validate.Options{CheckReferences: true, Strict: s.strict})
	if !res.Valid {
		return nil, apperr.New(apperr.CodeValidation, "record failed validation").WithDetails(res)
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	if err := s.db.PutRecord(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateRecord validates and persists changes to an existing record.
func (s *Service) UpdateRecord(_ context.Context, id string, rec *models.Record) (*models.Record, error) {
	existing, err := s.db.GetRecord(id)
	if err != nil {
		return nil, err
	}

	rec.ID = id
	res := s.validator.ValidateRecord(rec, validate.Options{CheckReferences: true, Strict: s.strict})
	if !res.Valid {
		return nil, apperr.New(apperr.CodeValidation, "record failed validation").WithDetails(res)
	}

	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = time.Now()
	if err := s.db.PutRecord(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// DeleteRecord removes a record. The referenced photo, if any, stays and is
// picked up later by the orphan scan.
func (s *Service) DeleteRecord(_ context.Context, id string) error {
	return s.db.DeleteRecord(id)
}

// ListRecords returns a page of records with an optional species filter.
func (s *Service) ListRecords(_ context.Context, limit, offset int, species, sort string) ([]models.Record, int, error) {
	return s.db.ListRecords(limit, offset, species, sort)
}

// Search delegates full-text search to the store.
func (s *Service) Search(_ context.Context, query string, limit int) ([]store.SearchResult, error) {
	return s.db.Search(query, limit)
}

// UploadPhoto validates and stores a photo blob plus its metadata row.
func (s *Service) UploadPhoto(_ context.Context, mime string, blob []byte) (*models.Photo, error) {
	res := s.validator.ValidatePhoto(mime, blob)
	if !res.Valid {
		return nil, apperr.New(apperr.CodeValidation, "photo failed validation").WithDetails(res)
	}

	p := &models.Photo{
		ID:         uuid.NewString(),
		Mime:       mime,
		SizeBytes:  int64(len(blob)),
		Checksum:   checksum.Sum(blob),
		UploadedAt: time.Now(),
	}
	if err := s.blobs.Write(p.BlobName(), blob); err != nil {
		return nil, err
	}
	if err := s.db.PutPhoto(p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPhoto returns photo metadata together with its blob bytes.
func (s *Service) GetPhoto(_ context.Context, id string) (*models.Photo, []byte, error) {
	p, err := s.db.GetPhoto(id)
	if err != nil {
		return nil, nil, err
	}
	blob, err := s.blobs.Read(p.BlobName())
	if err != nil {
		return nil, nil, err
	}
	return p, blob, nil
}

// DeletePhoto removes a photo's metadata row and blob.
func (s *Service) DeletePhoto(_ context.Context, id string) error {
	p, err := s.db.GetPhoto(id)
	if err != nil {
		return err
	}
	if err := s.db.DeletePhoto(id); err != nil {
		return err
	}
	// Blob removal is best-effort; a leftover file is reconciled by sync.
	_ = s.blobs.Delete(p.BlobName())
	return nil
}

// Overall recomputes the overall statistics from the full record set.
func (s *Service) Overall(_ context.Context) (stats.OverallStats, error) {
	records, err := s.db.AllRecords()
	if err != nil {
		return stats.OverallStats{}, err
	}
	return stats.Overall(records), nil
}

// TimeAnalysis recomputes monthly, seasonal, and yearly buckets.
func (s *Service) TimeAnalysis(_ context.Context) (stats.TimeAnalysis, error) {
	records, err := s.db.AllRecords()
	if err != nil {
		return stats.TimeAnalysis{}, err
	}
	return stats.Analyze(records), nil
}

// SizeDistribution recomputes the size histogram and percentiles.
func (s *Service) SizeDistribution(_ context.Context) (stats.SizeDistribution, error) {
	records, err := s.db.AllRecords()
	if err != nil {
		return stats.SizeDistribution{}, err
	}
	return stats.Distribution(records), nil
}

// GroupKind selects a group-by aggregation.
type GroupKind string

const (
	GroupBySpecies  GroupKind = "species"
	GroupByLocation GroupKind = "location"
	GroupByWeather  GroupKind = "weather"
)

// GroupStats recomputes a group-by aggregation of the given kind.
func (s *Service) GroupStats(_ context.Context, kind GroupKind) ([]stats.GroupStats, error) {
	records, err := s.db.AllRecords()
	if err != nil {
		return nil, err
	}
	switch kind {
	case GroupByLocation:
		return stats.ByLocation(records), nil
	case GroupByWeather:
		return stats.ByWeather(records), nil
	default:
		return stats.BySpecies(records), nil
	}
}
