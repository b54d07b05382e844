package vault

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"signalscan/src/logger"
)

// -----------------------------------------------------------------------------

// FileVault keeps each document as one JSON file under a data directory.
// Saves write to a temp file and rename it into place, so readers never see
// a partially written document.
type FileVault struct {
	dir    string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewFileVault(dir string, log *logger.Logger) (*FileVault, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileVault{dir: dir, Logger: log}, nil
}

// -----------------------------------------------------------------------------

func (f *FileVault) path(doc string) string {
	return filepath.Join(f.dir, doc+".json")
}

// -----------------------------------------------------------------------------

// Load reads the named document into v. Missing or unparseable documents
// load as empty: v is left untouched and no error is returned.
func (f *FileVault) Load(doc string, v interface{}) error {
	data, err := os.ReadFile(f.path(doc))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read document %s: %w", doc, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		f.Logger.Warning("Document %s is corrupt, loading as empty: %v", doc, err)
		return nil
	}
	return nil
}

// -----------------------------------------------------------------------------

// Save atomically replaces the named document.
func (f *FileVault) Save(doc string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", doc, err)
	}

	tmp, err := os.CreateTemp(f.dir, doc+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", doc, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write document %s: %w", doc, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file for %s: %w", doc, err)
	}

	if err := os.Rename(tmp.Name(), f.path(doc)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace document %s: %w", doc, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (f *FileVault) Close() error {
	return nil
}

// -----------------------------------------------------------------------------

// Backup copies every existing document into a timestamped subdirectory.
func (f *FileVault) Backup(reason string) (string, error) {
	stamp := time.Now().Format("20060102_150405")
	dest := filepath.Join(f.dir, "backups", stamp+"_"+reason)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	copied := 0
	for _, doc := range AllDocuments {
		src := f.path(doc)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := copyFile(src, filepath.Join(dest, doc+".json")); err != nil {
			f.Logger.Warning("Backup of %s failed: %v", doc, err)
			continue
		}
		copied++
	}

	f.Logger.Info("Backup created: %s (%d documents)", dest, copied)
	return dest, nil
}

// -----------------------------------------------------------------------------

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
