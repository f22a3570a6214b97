// Package models defines the domain types for Gyotaku.
package models

import "time"

// Coordinate is an optional GPS fix attached to a record.
type Coordinate struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"` // metres, non-negative when present
}

// Record represents a single logged catch.
//
// Optional numeric measurements are pointers so that "absent" and "zero"
// stay distinguishable: a present zero is a legal value for all of them.
type Record struct {
	ID          string      `json:"id"`
	CaughtAt    time.Time   `json:"caught_at"`
	Location    string      `json:"location"`
	Species     string      `json:"species"`
	Size        *float64    `json:"size,omitempty"`        // cm, 0–999
	Weight      *float64    `json:"weight,omitempty"`      // grams, 0–99999
	Temperature *float64    `json:"temperature,omitempty"` // water °C, 0–50
	Coordinate  *Coordinate `json:"coordinate,omitempty"`
	Weather     string      `json:"weather,omitempty"`
	Notes       string      `json:"notes,omitempty"`
	PhotoID     string      `json:"photo_id,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Photo is the metadata row for a stored photo blob. Blob bytes live in the
// photo storage provider; a Photo with no record pointing at it is orphaned.
type Photo struct {
	ID         string    `json:"id"`
	Mime       string    `json:"mime"`
	SizeBytes  int64     `json:"size_bytes"`
	Checksum   string    `json:"checksum,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// DataVersion is the persisted schema-version singleton, stored as JSON in
// the settings table. SchemaVersion never decreases and MigrationsApplied
// never contains duplicates.
type DataVersion struct {
	Version           string     `json:"version"`
	SchemaVersion     int        `json:"schema_version"`
	MigrationsApplied []string   `json:"migrations_applied"`
	LastMigrationDate *time.Time `json:"last_migration_date,omitempty"`
}

// Applied reports whether the migration id is already recorded.
func (v *DataVersion) Applied(id string) bool {
	for _, m := range v.MigrationsApplied {
		if m == id {
			return true
		}
	}
	return false
}
