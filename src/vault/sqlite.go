package vault

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"signalscan/src/logger"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

// SQLiteVault stores each document as one row in a documents table; a save
// upserts the whole payload in a single statement, which gives the same
// document-granularity atomicity as the file backend's rename.
type SQLiteVault struct {
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteVault(dbPath string, log *logger.Logger) (*SQLiteVault, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Single writer; WAL allows concurrent readers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		log.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		log.Warning("Failed to set synchronous mode: %v", err)
	}

	v := &SQLiteVault{DB: db, Logger: log}
	if err := v.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return v, nil
}

// -----------------------------------------------------------------------------

func (v *SQLiteVault) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS documents (
			name TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`
	_, err := v.DB.Exec(query)
	return err
}

// -----------------------------------------------------------------------------

func (v *SQLiteVault) Load(doc string, out interface{}) error {
	var payload string
	err := v.DB.QueryRow("SELECT payload FROM documents WHERE name = ?", doc).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load document %s: %w", doc, err)
	}

	if err := json.Unmarshal([]byte(payload), out); err != nil {
		v.Logger.Warning("Document %s is corrupt, loading as empty: %v", doc, err)
		return nil
	}
	return nil
}

// -----------------------------------------------------------------------------

func (v *SQLiteVault) Save(doc string, in interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", doc, err)
	}

	query := `
		INSERT INTO documents (name, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`
	if _, err := v.DB.Exec(query, doc, string(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save document %s: %w", doc, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (v *SQLiteVault) Close() error {
	if v.DB != nil {
		return v.DB.Close()
	}
	return nil
}
