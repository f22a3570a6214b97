package store

import (
	"database/sql"

	"github.com/minato/gyotaku/internal/models"
)

// RecordStore defines the persistence contract consumed by the engine.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with fakes.
type RecordStore interface {
	PutRecord(r *models.Record) error
	GetRecord(id string) (*models.Record, error)
	DeleteRecord(id string) error
	ListRecords(limit, offset int, species, sort string) ([]models.Record, int, error)
	AllRecords() ([]models.Record, error)
	CountRecords() (int, error)
	Search(query string, limit int) ([]SearchResult, error)

	PutPhoto(p *models.Photo) error
	GetPhoto(id string) (*models.Photo, error)
	DeletePhoto(id string) error
	BulkDeletePhotos(ids []string) error
	AllPhotos() ([]models.Photo, error)
	CountPhotos() (int, error)

	GetSetting(key string) (string, error)
	PutSetting(key, value, typ string) error

	Transaction(fn func(tx *sql.Tx) error) error
	Close() error
}

// Verify *DB satisfies RecordStore at compile time.
var _ RecordStore = (*DB)(nil)
