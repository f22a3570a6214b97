package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/minato/gyotaku/internal/apperr"
)

// GetSetting returns the value stored under key, or apperr.ErrNotFound.
func (db *DB) GetSetting(key string) (string, error) {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", apperr.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("store: get setting %q: %w", key, err)
	}
	return value, nil
}

// PutSetting upserts a settings row.
func (db *DB) PutSetting(key, value, typ string) error {
	_, err := db.conn.Exec(`
		INSERT INTO settings (key, value, type, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			type       = excluded.type,
			updated_at = excluded.updated_at
	`, key, value, typ, time.Now())
	if err != nil {
		return fmt.Errorf("store: put setting %q: %w", key, err)
	}
	return nil
}
