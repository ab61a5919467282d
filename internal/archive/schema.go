package archive

import (
	"database/sql"

	"codeberg.org/mutker/laserlog/internal/errors"
	"codeberg.org/mutker/laserlog/internal/logger"
)

const (
	SchemaVersion = 1

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS sessions (
	       id          TEXT PRIMARY KEY,
	       started_at  TEXT NOT NULL,
	       header      TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS datapoints (
	       session_id  TEXT NOT NULL REFERENCES sessions(id),
	       seq         INTEGER NOT NULL CHECK (seq > 0),
	       logged_at   TEXT NOT NULL,
	       payload     TEXT NOT NULL,
	       PRIMARY KEY (session_id, seq)
	   );`

	insertSessionSQL = `
    INSERT OR IGNORE INTO sessions (id, started_at, header)
    VALUES (?, ?, ?)`

	insertDataPointSQL = `
    INSERT OR REPLACE INTO datapoints (session_id, seq, logged_at, payload)
    VALUES (?, ?, ?, ?)`
)

var archiveTables = []string{"datapoints", "sessions", "schema_versions"}

// InitSchema creates the archive tables and records the schema version.
func InitSchema(db *sql.DB, log logger.Logger) error {
	errFactory := errors.New()

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				log.Debug().Err(err).Msg("Failed to rollback schema creation")
			}
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Phase string
			Error string
		}{
			Phase: "create_tables",
			Error: err.Error(),
		})
	}

	if _, err := tx.Exec(`
        INSERT INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Phase string
			Error string
		}{
			Phase: "record_version",
			Error: err.Error(),
		})
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	log.Info().
		Int("version", SchemaVersion).
		Msg("Archive schema initialized")

	return nil
}

// GetSchemaVersion returns the recorded schema version, 0 for an empty
// database.
func GetSchemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	exists, err := TableExists(db, "schema_versions")
	if err != nil {
		return 0, err
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
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}

	return version, nil
}

// TableExists reports whether tableName exists.
func TableExists(db *sql.DB, tableName string) (bool, error) {
	var exists bool
	err := db.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name=?
        )
    `, tableName).Scan(&exists)
	if err != nil {
		return false, errors.New().WithData(ErrSchemaValidationFailed, struct {
			Table string
			Error string
		}{
			Table: tableName,
			Error: err.Error(),
		})
	}
	return exists, nil
}
