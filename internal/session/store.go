// Package session holds the client-side authentication state: who is logged
// in, until when, and which jobs are cooling down. All of it persists through
// a narrow key-value store, the terminal counterpart of the web client's
// localStorage.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Keys persisted in the store. Names match the web client's localStorage keys
// so the two surfaces stay recognizably the same product.
const (
	KeyToken          = "token"
	KeyTokenExpiresAt = "tokenExpiresAt"
	KeyUser           = "user"
	KeyJobCooldowns   = "jobCooldowns"
)

// Store is the persistence port. Implementations must be safe for use from
// multiple goroutines.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// FileStore persists keys as a JSON object in a single file. Every write
// rewrites the file; reads are served from memory.
type FileStore struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

// NewFileStore opens or creates the store at path. A missing file starts
// empty; an unreadable or corrupt one also starts empty rather than locking
// the user out of their own client.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	data := map[string]string{}
	if raw, err := os.ReadFile(path); err == nil {
		if jsonErr := json.Unmarshal(raw, &data); jsonErr != nil {
			data = map[string]string{}
		}
	}
	return &FileStore{path: path, data: data}, nil
}

// Get returns the value for key and whether it was present.
func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

// Set stores key=value and persists.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return s.flushLocked()
}

// Remove deletes key and persists. Removing an absent key is a no-op.
func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.flushLocked()
}

func (s *FileStore) flushLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	// Tokens live in this file; keep it private to the user.
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: map[string]string{}}
}

// Get returns the value for key and whether it was present.
func (s *MemStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

// Set stores key=value.
func (s *MemStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// Remove deletes key.
func (s *MemStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// tokenSource adapts a Store to the API client's needs: read the current
// token per request, purge the session keys on 401.
type tokenSource struct {
	store Store
}

// TokenSource returns an adapter suitable for api.NewClient.
func TokenSource(s Store) interface {
	Token() string
	Purge()
} {
	return &tokenSource{store: s}
}

func (t *tokenSource) Token() string {
	v, _ := t.store.Get(KeyToken)
	return v
}

func (t *tokenSource) Purge() {
	_ = t.store.Remove(KeyToken)
	_ = t.store.Remove(KeyTokenExpiresAt)
	_ = t.store.Remove(KeyUser)
}
