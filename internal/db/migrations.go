package db

import (
	"database/sql"
	"fmt"
)

// migration is one schema step; statements run in a single transaction
type migration struct {
	version    int
	statements []string
}

// migrations are applied in order; append, never edit
var migrations = []migration{
	{version: 1, statements: []string{holdersTable, certificatesTable, certificatesIndexes}},
	{version: 2, statements: []string{stampsTable, stampsIndexes}},
}

// RunMigrations executes all pending database migrations
func RunMigrations(db *DB) error {
	// Check if schema_version table exists
	var tableExists bool
	err := db.QueryRow(`
		SELECT COUNT(*) > 0
		FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("failed to check schema_version table: %w", err)
	}

	currentVersion := 0
	if !tableExists {
		if _, err := db.Exec(schemaVersionTable); err != nil {
			return fmt.Errorf("failed to create schema_version table: %w", err)
		}
	} else {
		err = db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&currentVersion)
		if err != nil {
			return fmt.Errorf("failed to get current schema version: %w", err)
		}
	}

	latest := migrations[len(migrations)-1].version
	if currentVersion > latest {
		return fmt.Errorf("database schema version %d is newer than supported version %d", currentVersion, latest)
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.version, err)
		}
	}

	return nil
}

// SchemaVersion returns the applied schema version
func SchemaVersion(db *DB) (int, error) {
	var version int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

func applyMigration(db *DB, m migration) error {
	tx, err := db.BeginTx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.statements {
		if err := execSQL(tx, stmt); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, m.version); err != nil {
		return err
	}

	return tx.Commit()
}

// execSQL executes a SQL statement
func execSQL(tx *sql.Tx, query string) error {
	_, err := tx.Exec(query)
	return err
}

// Schema definitions
const (
	schemaVersionTable = `
CREATE TABLE schema_version (
    version INTEGER NOT NULL,
    applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

	holdersTable = `
CREATE TABLE holders (
    holder_id   TEXT PRIMARY KEY,
    name        TEXT NOT NULL DEFAULT '',
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

	certificatesTable = `
CREATE TABLE certificates (
    holder_id         TEXT NOT NULL,
    certificate_id    TEXT NOT NULL,
    title             TEXT NOT NULL DEFAULT '',
    document_location TEXT NOT NULL DEFAULT '',
    position          INTEGER NOT NULL,

    PRIMARY KEY (holder_id, certificate_id),
    FOREIGN KEY (holder_id) REFERENCES holders(holder_id) ON DELETE CASCADE
)`

	certificatesIndexes = `
CREATE INDEX idx_certs_holder_position ON certificates(holder_id, position)`

	stampsTable = `
CREATE TABLE stamps (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    holder_id       TEXT NOT NULL,
    certificate_id  TEXT NOT NULL,
    sign_date       TEXT NOT NULL,
    token           TEXT NOT NULL,
    output_name     TEXT NOT NULL,
    stamped_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

	stampsIndexes = `
CREATE INDEX idx_stamps_cert ON stamps(holder_id, certificate_id, id)`
)
