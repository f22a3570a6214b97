package migrate

import "database/sql"

// TargetSchemaVersion is the schema version this build of the engine expects
// after all built-in migrations have applied.
const TargetSchemaVersion = 3

// Builtin returns the migrations that evolve the base (v0) schema to the
// current shape, in the order they must run.
func Builtin() []Migration {
	return []Migration{
		{
			ID:          "001_weather_column",
			Version:     "1.1.0",
			Description: "add weather condition column to records",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`ALTER TABLE records ADD COLUMN weather TEXT NOT NULL DEFAULT ''`)
				return err
			},
			Down: func(tx *sql.Tx) error {
				_, err := tx.Exec(`ALTER TABLE records DROP COLUMN weather`)
				return err
			},
		},
		{
			ID:          "002_gps_accuracy",
			Version:     "1.2.0",
			Description: "add GPS accuracy column to records",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`ALTER TABLE records ADD COLUMN accuracy REAL`)
				return err
			},
			Down: func(tx *sql.Tx) error {
				_, err := tx.Exec(`ALTER TABLE records DROP COLUMN accuracy`)
				return err
			},
		},
		{
			// Data-only cleanup; irreversible, so no down step.
			ID:          "003_trim_text_fields",
			Version:     "1.3.0",
			Description: "trim surrounding whitespace from location and species",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`UPDATE records SET location = TRIM(location), species = TRIM(species)`)
				return err
			},
		},
	}
}
