package metrics

import (
	"database/sql"

	"codeberg.org/mutker/rangefinder/internal/errors"
	"codeberg.org/mutker/rangefinder/internal/logger"
)

const (
	SchemaVersion = 1

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS samples (
	       id          INTEGER PRIMARY KEY AUTOINCREMENT,
	       timestamp   INTEGER NOT NULL,
	       source      TEXT NOT NULL CHECK (source IN ('range', 'battery')),
	       raw         INTEGER NOT NULL CHECK (typeof(raw) = 'integer'),
	       value       INTEGER NOT NULL CHECK (typeof(value) = 'integer'),
	       notified    INTEGER NOT NULL CHECK (notified IN (0, 1))
	   );
	   CREATE INDEX IF NOT EXISTS samples_source_timestamp ON samples (source, timestamp);`

	insertSampleSQL = `
    INSERT INTO samples (
        timestamp, source, raw, value, notified
    ) VALUES (?, ?, ?, ?, ?)`

	recordVersionSQL = `INSERT INTO schema_versions (version, applied_at) VALUES (?, datetime('now'))`
)

// InitSchema creates the samples table and records SchemaVersion.
func InitSchema(db *sql.DB, log logger.Logger) error {
	log.Debug().Msg("Creating database...")

	err := inTx(db, log, ErrSchemaInitFailed, func(tx *sql.Tx) error {
		if _, err := tx.Exec(createTablesSQL); err != nil {
			return stageError(ErrSchemaInitFailed, "create_tables", err)
		}
		if _, err := tx.Exec(recordVersionSQL, SchemaVersion); err != nil {
			return stageError(ErrSchemaInitFailed, "record_version", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().
		Int("version", SchemaVersion).
		Msg("Schema initialized")

	return nil
}

// GetSchemaVersion returns the current schema version
func GetSchemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	exists, err := TableExists(db, "schema_versions")
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}
	if !exists {
		return 0, nil
	}

	var version int
	err = db.QueryRow(`
        SELECT version
        FROM schema_versions
        ORDER BY version DESC
        LIMIT 1
    `).Scan(&version)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Error string
		}{
			Phase: "get_version",
			Error: err.Error(),
		})
	}

	return version, nil
}

// TableExists checks if a table exists
func TableExists(db *sql.DB, tableName string) (bool, error) {
	errFactory := errors.New()
	var exists bool
	err := db.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name=?
        )
    `, tableName).Scan(&exists)
	if err != nil {
		return false, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Table string
			Error string
		}{
			Phase: "check_table_exists",
			Table: tableName,
			Error: err.Error(),
		})
	}
	return exists, nil
}
