package vault

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"signalscan/src/logger"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

// PostgresVault is the Postgres counterpart of SQLiteVault, for deployments
// where several monitor hosts share one vault.
type PostgresVault struct {
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresVault(dsn string, log *logger.Logger) (*PostgresVault, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	v := &PostgresVault{DB: db, Logger: log}
	if err := v.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return v, nil
}

// -----------------------------------------------------------------------------

func (v *PostgresVault) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS documents (
			name TEXT PRIMARY KEY,
			payload JSONB NOT NULL,
			updated_at TIMESTAMPTZ DEFAULT NOW()
		);
	`
	_, err := v.DB.Exec(query)
	return err
}

// -----------------------------------------------------------------------------

func (v *PostgresVault) Load(doc string, out interface{}) error {
	var payload []byte
	err := v.DB.QueryRow("SELECT payload FROM documents WHERE name = $1", doc).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load document %s: %w", doc, err)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		v.Logger.Warning("Document %s is corrupt, loading as empty: %v", doc, err)
		return nil
	}
	return nil
}

// -----------------------------------------------------------------------------

func (v *PostgresVault) Save(doc string, in interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", doc, err)
	}

	query := `
		INSERT INTO documents (name, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`
	if _, err := v.DB.Exec(query, doc, payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save document %s: %w", doc, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (v *PostgresVault) Close() error {
	if v.DB != nil {
		return v.DB.Close()
	}
	return nil
}
