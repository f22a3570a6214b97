package store

import (
	"database/sql"
	"fmt"

	"github.com/minato/gyotaku/internal/apperr"
	"github.com/minato/gyotaku/internal/models"
)

const recordColumns = `id, caught_at, location, species, size, weight, temperature,
	latitude, longitude, accuracy, weather, notes, photo_id, created_at, updated_at`

// SearchResult represents one search hit.
type SearchResult struct {
	ID       string `json:"id"`
	Species  string `json:"species"`
	Location string `json:"location"`
	Snippet  string `json:"snippet"`
}

// PutRecord inserts or replaces a record and its FTS entry within a transaction.
func (db *DB) PutRecord(r *models.Record) error {
	return db.Transaction(func(tx *sql.Tx) error {
		var size, weight, temp, lat, lon, acc sql.NullFloat64
		if r.Size != nil {
			size = sql.NullFloat64{Float64: *r.Size, Valid: true}
		}
		if r.Weight != nil {
			weight = sql.NullFloat64{Float64: *r.Weight, Valid: true}
		}
		if r.Temperature != nil {
			temp = sql.NullFloat64{Float64: *r.Temperature, Valid: true}
		}
		if c := r.Coordinate; c != nil {
			lat = sql.NullFloat64{Float64: c.Latitude, Valid: true}
			lon = sql.NullFloat64{Float64: c.Longitude, Valid: true}
			if c.Accuracy != nil {
				acc = sql.NullFloat64{Float64: *c.Accuracy, Valid: true}
			}
		}

		_, err := tx.Exec(`
			INSERT INTO records (id, caught_at, location, species, size, weight, temperature,
				latitude, longitude, accuracy, weather, notes, photo_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				caught_at   = excluded.caught_at,
				location    = excluded.location,
				species     = excluded.species,
				size        = excluded.size,
				weight      = excluded.weight,
				temperature = excluded.temperature,
				latitude    = excluded.latitude,
				longitude   = excluded.longitude,
				accuracy    = excluded.accuracy,
				weather     = excluded.weather,
				notes       = excluded.notes,
				photo_id    = excluded.photo_id,
				updated_at  = excluded.updated_at
		`, r.ID, r.CaughtAt, r.Location, r.Species, size, weight, temp,
			lat, lon, acc, r.Weather, r.Notes, r.PhotoID, r.CreatedAt, r.UpdatedAt)
		if err != nil {
			return fmt.Errorf("store: put record: %w", err)
		}

		// FTS upsert (no-op when the fts5 tag is absent).
		return ftsUpsert(tx, r.ID, r.Species, r.Location, r.Notes)
	})
}

// GetRecord returns the record with the given id, or apperr.ErrNotFound.
func (db *DB) GetRecord(id string) (*models.Record, error) {
	row := db.conn.QueryRow(`SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get record: %w", err)
	}
	return r, nil
}

// DeleteRecord removes a record and its FTS entry.
func (db *DB) DeleteRecord(id string) error {
	return db.Transaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM records WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("store: delete record: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.ErrNotFound
		}
		ftsDelete(tx, id)
		return nil
	})
}

// ListRecords returns a page of records with an optional species filter.
// sort is one of "caught_at" (default, newest first), "species", "size".
func (db *DB) ListRecords(limit, offset int, species, sort string) ([]models.Record, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	orderBy := "caught_at DESC"
	switch sort {
	case "species":
		orderBy = "species ASC, caught_at DESC"
	case "size":
		orderBy = "size DESC"
	}

	where := ""
	args := []any{}
	if species != "" {
		where = "WHERE species = ?"
		args = append(args, species)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM records `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count records: %w", err)
	}

	args = append(args, limit, offset)
	rows, err := db.conn.Query(`SELECT `+recordColumns+` FROM records `+where+
		` ORDER BY `+orderBy+` LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list records: %w", err)
	}
	defer rows.Close()

	out, err := collectRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// AllRecords returns every record, for statistics and integrity scans.
func (db *DB) AllRecords() ([]models.Record, error) {
	rows, err := db.conn.Query(`SELECT ` + recordColumns + ` FROM records ORDER BY caught_at`)
	if err != nil {
		return nil, fmt.Errorf("store: all records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// CountRecords returns the total number of records.
func (db *DB) CountRecords() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count records: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(s rowScanner) (*models.Record, error) {
	var r models.Record
	var size, weight, temp, lat, lon, acc sql.NullFloat64
	err := s.Scan(&r.ID, &r.CaughtAt, &r.Location, &r.Species, &size, &weight, &temp,
		&lat, &lon, &acc, &r.Weather, &r.Notes, &r.PhotoID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if size.Valid {
		r.Size = &size.Float64
	}
	if weight.Valid {
		r.Weight = &weight.Float64
	}
	if temp.Valid {
		r.Temperature = &temp.Float64
	}
	if lat.Valid && lon.Valid {
		c := &models.Coordinate{Latitude: lat.Float64, Longitude: lon.Float64}
		if acc.Valid {
			c.Accuracy = &acc.Float64
		}
		r.Coordinate = c
	}
	return &r, nil
}

func collectRecords(rows *sql.Rows) ([]models.Record, error) {
	var out []models.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
