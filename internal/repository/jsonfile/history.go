package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
)

// FormatVersion tags the on-disk envelope.
const FormatVersion = 1

type envelope struct {
	Version int                        `json:"version"`
	Records []models.TransactionRecord `json:"records"`
}

// HistoryStore keeps the transaction history in a single JSON file.
// Unreadable files are moved aside instead of being overwritten.
type HistoryStore struct {
	mu      sync.Mutex
	path    string
	records []models.TransactionRecord
	logger  *zap.Logger
	now     func() time.Time
}

// NewHistoryStore loads path, creating its directory when needed.
func NewHistoryStore(path string, logger *zap.Logger) (*HistoryStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		return nil, errors.New("history file path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	s := &HistoryStore{path: path, logger: logger, now: time.Now}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *HistoryStore) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read history file: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return s.quarantine(fmt.Errorf("decode: %w", err))
	}
	if env.Version != FormatVersion {
		return s.quarantine(fmt.Errorf("unsupported version %d", env.Version))
	}

	s.records = env.Records
	return nil
}

func (s *HistoryStore) quarantine(cause error) error {
	target := fmt.Sprintf("%s.corrupt-%d", s.path, s.now().Unix())
	if err := os.Rename(s.path, target); err != nil {
		return fmt.Errorf("quarantine unreadable history (%v): %w", cause, err)
	}
	s.logger.Warn("history file unreadable, starting empty",
		zap.String("path", s.path),
		zap.String("moved_to", target),
		zap.Error(cause),
	)
	s.records = nil
	return nil
}

// AppendRecord persists one more paid transaction.
func (s *HistoryStore) AppendRecord(_ context.Context, record models.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(append([]models.TransactionRecord(nil), s.records...), record)
	if err := s.persist(next); err != nil {
		return err
	}
	s.records = next
	return nil
}

// ListRecords returns a copy of the history in append order.
func (s *HistoryStore) ListRecords(_ context.Context) ([]models.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]models.TransactionRecord{}, s.records...), nil
}

// ClearHistory empties the history file.
func (s *HistoryStore) ClearHistory(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(nil); err != nil {
		return err
	}
	s.records = nil
	return nil
}

// persist writes through a temp file and renames it over the target.
func (s *HistoryStore) persist(records []models.TransactionRecord) error {
	if records == nil {
		records = []models.TransactionRecord{}
	}
	data, err := json.MarshalIndent(envelope{Version: FormatVersion, Records: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp history file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp history file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}
