package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// BlobStore is the durability port for database snapshots. The engine
// serializes itself to a single opaque blob; only the engine reads or
// writes it. A file-backed store is used in production and an in-memory
// store in tests.
type BlobStore interface {
	Save(ctx context.Context, blob []byte) error
	Load(ctx context.Context) ([]byte, bool, error)
	Clear(ctx context.Context) error
}

// FileStore persists snapshots as a single file on disk
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed snapshot store
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save writes the snapshot blob, replacing any previous one
func (s *FileStore) Save(_ context.Context, blob []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot blob, or ok=false when none exists
func (s *FileStore) Load(_ context.Context) ([]byte, bool, error) {
	blob, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return blob, true, nil
}

// Clear removes the stored snapshot
func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove snapshot: %w", err)
	}
	return nil
}

// MemoryStore is an in-memory BlobStore for tests
type MemoryStore struct {
	mu   sync.Mutex
	blob []byte
	has  bool
}

// NewMemoryStore creates an empty in-memory snapshot store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save keeps a copy of the snapshot blob
func (s *MemoryStore) Save(_ context.Context, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = append([]byte(nil), blob...)
	s.has = true
	return nil
}

// Load returns the stored snapshot blob, or ok=false when none exists
func (s *MemoryStore) Load(_ context.Context) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.has {
		return nil, false, nil
	}
	return append([]byte(nil), s.blob...), true, nil
}

// Clear drops the stored snapshot
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = nil
	s.has = false
	return nil
}
