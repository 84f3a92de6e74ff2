package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tasneem33355/digitopia-gas-project/internal/domain"
	"github.com/tasneem33355/digitopia-gas-project/internal/ports"
)

// FileStore persists the current StateRecord as one JSON file. Every write
// fully replaces the previous content via a temp file and rename, so readers
// never observe a partial record. This tier is the non-negotiable fallback:
// the facade writes it on every save regardless of remote health.
type FileStore struct {
	path string
}

func New(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Name() string { return "local-file" }

func (s *FileStore) Write(_ context.Context, rec *domain.StateRecord) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("local store mkdir: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("local store marshal: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("local store temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("local store write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("local store close: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("local store rename: %w", err)
	}
	return nil
}

func (s *FileStore) Read(_ context.Context) (*domain.StateRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("local store %s: %w", s.path, ports.ErrAbsent)
		}
		return nil, fmt.Errorf("local store read: %w", err)
	}

	var rec domain.StateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("local store decode: %w", ports.ErrParse)
	}
	return &rec, nil
}

var _ ports.StateStore = (*FileStore)(nil)
