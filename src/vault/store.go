package vault

import (
	"fmt"

	"signalscan/src/interfaces"
	"signalscan/src/logger"
	"signalscan/src/models"
)

// Document names. Every persisted unit of state lives in one of these.
const (
	DocPrefilter   = "prefilter"
	DocValidated   = "validated"
	DocActiveHalts = "active_halts"
	DocHaltHistory = "halts"
	DocBreaking    = "bkgnews"
	DocNews        = "news"
)

// AllDocuments lists every known document name, in backup order.
var AllDocuments = []string{
	DocPrefilter, DocValidated, DocActiveHalts, DocHaltHistory, DocBreaking, DocNews,
}

// -----------------------------------------------------------------------------

// Store wraps a Vault backend with typed accessors for each document, so
// scanners never deal with raw serialization.
type Store struct {
	backend interfaces.Vault
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

// NewStore selects and opens the configured backend.
func NewStore(cfg *models.Config, log *logger.Logger) (*Store, error) {
	var backend interfaces.Vault
	var err error

	switch cfg.Storage.Backend {
	case "sqlite":
		backend, err = NewSQLiteVault(cfg.Storage.DBPath, log)
	case "postgres":
		backend, err = NewPostgresVault(cfg.Storage.DBConnectionString, log)
	case "file":
		backend, err = NewFileVault(cfg.Storage.DataDir, log)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}

	return &Store{backend: backend, Logger: log}, nil
}

// -----------------------------------------------------------------------------

// NewStoreWith wraps an already opened backend. Used by tests.
func NewStoreWith(backend interfaces.Vault, log *logger.Logger) *Store {
	return &Store{backend: backend, Logger: log}
}

// -----------------------------------------------------------------------------

func (s *Store) Close() error {
	return s.backend.Close()
}

// -----------------------------------------------------------------------------
// Typed accessors
// -----------------------------------------------------------------------------

func (s *Store) LoadPrefilter() []string {
	var symbols []string
	if err := s.backend.Load(DocPrefilter, &symbols); err != nil {
		s.Logger.Warning("Failed to load prefilter: %v", err)
	}
	return symbols
}

func (s *Store) SavePrefilter(symbols []string) error {
	if symbols == nil {
		symbols = []string{}
	}
	return s.backend.Save(DocPrefilter, symbols)
}

// -----------------------------------------------------------------------------

func (s *Store) LoadValidated() map[string]models.Snapshot {
	out := make(map[string]models.Snapshot)
	if err := s.backend.Load(DocValidated, &out); err != nil {
		s.Logger.Warning("Failed to load validated snapshots: %v", err)
	}
	return out
}

func (s *Store) SaveValidated(snapshots map[string]models.Snapshot) error {
	return s.backend.Save(DocValidated, snapshots)
}

// -----------------------------------------------------------------------------

func (s *Store) LoadActiveHalts() map[string]models.HaltRecord {
	out := make(map[string]models.HaltRecord)
	if err := s.backend.Load(DocActiveHalts, &out); err != nil {
		s.Logger.Warning("Failed to load active halts: %v", err)
	}
	return out
}

func (s *Store) SaveActiveHalts(halts map[string]models.HaltRecord) error {
	return s.backend.Save(DocActiveHalts, halts)
}

// -----------------------------------------------------------------------------

func (s *Store) LoadHaltHistory() map[string]models.HaltRecord {
	out := make(map[string]models.HaltRecord)
	if err := s.backend.Load(DocHaltHistory, &out); err != nil {
		s.Logger.Warning("Failed to load halt history: %v", err)
	}
	return out
}

func (s *Store) SaveHaltHistory(halts map[string]models.HaltRecord) error {
	return s.backend.Save(DocHaltHistory, halts)
}

// -----------------------------------------------------------------------------

func (s *Store) LoadBreakingNews() map[string]models.NewsItem {
	out := make(map[string]models.NewsItem)
	if err := s.backend.Load(DocBreaking, &out); err != nil {
		s.Logger.Warning("Failed to load breaking news: %v", err)
	}
	return out
}

func (s *Store) SaveBreakingNews(items map[string]models.NewsItem) error {
	return s.backend.Save(DocBreaking, items)
}

// -----------------------------------------------------------------------------

func (s *Store) LoadGeneralNews() map[string]models.NewsItem {
	out := make(map[string]models.NewsItem)
	if err := s.backend.Load(DocNews, &out); err != nil {
		s.Logger.Warning("Failed to load general news: %v", err)
	}
	return out
}

func (s *Store) SaveGeneralNews(items map[string]models.NewsItem) error {
	return s.backend.Save(DocNews, items)
}

// -----------------------------------------------------------------------------

// ResetDaily clears the documents that roll over at midnight: breaking news
// and halt history. Active halts, general news, snapshots, and the prefilter
// set persist across days. A file-backed vault is backed up first.
func (s *Store) ResetDaily() error {
	if fv, ok := s.backend.(*FileVault); ok {
		if _, err := fv.Backup("pre_midnight_reset"); err != nil {
			s.Logger.Warning("Pre-reset backup failed: %v", err)
		}
	}

	if err := s.backend.Save(DocBreaking, map[string]models.NewsItem{}); err != nil {
		return err
	}
	if err := s.backend.Save(DocHaltHistory, map[string]models.HaltRecord{}); err != nil {
		return err
	}

	s.Logger.Info("Daily reset complete: cleared %s and %s", DocBreaking, DocHaltHistory)
	return nil
}
