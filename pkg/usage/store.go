package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"veriscope/pkg/logger"
)

// Store persists the full usage record set. Save always rewrites every
// record; the set is small (one entry per provider).
type Store interface {
	Load(ctx context.Context) (map[string]Record, error)
	Save(ctx context.Context, records map[string]Record) error
	Close() error
}

// FileStore keeps the record set in a single JSON file, written
// atomically via a temp file.
type FileStore struct {
	log      *logger.Logger
	filePath string
	mu       sync.Mutex
}

// NewFileStore creates a file-backed usage store.
func NewFileStore(log *logger.Logger, filePath string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("creating usage directory: %w", err)
	}
	return &FileStore{log: log, filePath: filePath}, nil
}

// Load reads the record set from disk. A missing file yields an empty
// set, not an error.
func (s *FileStore) Load(ctx context.Context) (map[string]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return map[string]Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading usage file: %w", err)
	}

	records := make(map[string]Record)
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshaling usage records: %w", err)
	}

	s.log.Debug("Loaded usage records",
		zap.String("file", s.filePath),
		zap.Int("providers", len(records)))
	return records, nil
}

// Save rewrites the record set on disk.
func (s *FileStore) Save(ctx context.Context, records map[string]Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling usage records: %w", err)
	}

	// Write to temp file first for atomic save.
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("writing usage temp file: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("replacing usage file: %w", err)
	}
	return nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}
