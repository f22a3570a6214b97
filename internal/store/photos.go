package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/minato/gyotaku/internal/apperr"
	"github.com/minato/gyotaku/internal/models"
)

// PutPhoto inserts or replaces a photo metadata row.
func (db *DB) PutPhoto(p *models.Photo) error {
	_, err := db.conn.Exec(`
		INSERT INTO photos (id, mime, size_bytes, checksum, uploaded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			mime        = excluded.mime,
			size_bytes  = excluded.size_bytes,
			checksum    = excluded.checksum,
			uploaded_at = excluded.uploaded_at
	`, p.ID, p.Mime, p.SizeBytes, p.Checksum, p.UploadedAt)
	if err != nil {
		return fmt.Errorf("store: put photo: %w", err)
	}
	return nil
}

// GetPhoto returns the photo with the given id, or apperr.ErrNotFound.
func (db *DB) GetPhoto(id string) (*models.Photo, error) {
	var p models.Photo
	err := db.conn.QueryRow(`SELECT id, mime, size_bytes, checksum, uploaded_at FROM photos WHERE id = ?`, id).
		Scan(&p.ID, &p.Mime, &p.SizeBytes, &p.Checksum, &p.UploadedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get photo: %w", err)
	}
	return &p, nil
}

// DeletePhoto removes a photo metadata row.
func (db *DB) DeletePhoto(id string) error {
	res, err := db.conn.Exec(`DELETE FROM photos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete photo: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// BulkDeletePhotos removes all given photo rows in one statement.
func (db *DB) BulkDeletePhotos(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	if _, err := db.conn.Exec(`DELETE FROM photos WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("store: bulk delete photos: %w", err)
	}
	return nil
}

// AllPhotos returns every photo metadata row.
func (db *DB) AllPhotos() ([]models.Photo, error) {
	rows, err := db.conn.Query(`SELECT id, mime, size_bytes, checksum, uploaded_at FROM photos ORDER BY uploaded_at`)
	if err != nil {
		return nil, fmt.Errorf("store: all photos: %w", err)
	}
	defer rows.Close()

	var out []models.Photo
	for rows.Next() {
		var p models.Photo
		if err := rows.Scan(&p.ID, &p.Mime, &p.SizeBytes, &p.Checksum, &p.UploadedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountPhotos returns the total number of photo rows.
func (db *DB) CountPhotos() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM photos`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count photos: %w", err)
	}
	return n, nil
}
