// Package store persists polar tables to JSON files so per-regatta
// aggregates survive between runs and can be merged across regattas later.
// Writes are atomic: data lands in a temp file first and is renamed over
// the target, so a crashed run never leaves a half-written table.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/windward/internal/domain/polar"
)

// Default file system permissions for persisted tables.
const (
	defaultFilePerm os.FileMode = 0o644
	defaultDirPerm  os.FileMode = 0o755
	fileVersion                 = "1"
)

// file is the on-disk envelope around a polar snapshot.
type file struct {
	Version string         `json:"version"`
	SavedAt time.Time      `json:"saved_at"`
	Table   polar.Snapshot `json:"table"`
}

// Store reads and writes polar tables under one path.
type Store struct {
	path     string
	filePerm os.FileMode
	dirPerm  os.FileMode
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithPermissions overrides the file and directory modes.
func WithPermissions(filePerm, dirPerm os.FileMode) Option {
	return func(s *Store) {
		if filePerm != 0 {
			s.filePerm = filePerm
		}
		if dirPerm != 0 {
			s.dirPerm = dirPerm
		}
	}
}

// New constructs a Store writing to path.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:     path,
		filePerm: defaultFilePerm,
		dirPerm:  defaultDirPerm,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes the table atomically, creating parent directories as needed.
func (s *Store) Save(ctx context.Context, t *polar.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), s.dirPerm); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	data, err := json.MarshalIndent(file{
		Version: fileVersion,
		SavedAt: time.Now().UTC(),
		Table:   t.Snapshot(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode polar table: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, s.filePerm); err != nil {
		return fmt.Errorf("write polar table: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace polar table: %w", err)
	}
	return nil
}

// Load reads a previously saved table. A missing file surfaces as
// ErrNotFound so callers can distinguish first runs from corruption.
func (s *Store) Load(ctx context.Context) (*polar.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read polar table: %w", err)
	}
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode polar table %s: %w", s.path, err)
	}
	return polar.FromSnapshot(f.Table), nil
}
