package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Session is the client-held record of the authenticated identity and its
// bearer credential. The JSON field names match the server's auth response,
// which is persisted verbatim.
type Session struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
}

// Valid reports whether the record can be used to authenticate a request.
// It says nothing about whether the server still accepts the credential;
// a 401 from the API is the only authority on that.
func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != ""
}

// Store is the single authoritative holder of "who is logged in".
type Store interface {
	// Current returns the in-memory session, or nil when logged out.
	Current() *Session
	// Set overwrites the in-memory and persisted copies.
	Set(s *Session) error
	// Clear removes both copies. Clearing an absent session is a no-op.
	Clear() error
}

// FileStore persists the session as a single JSON file, the CLI analog of
// the browser's localStorage "user" record.
type FileStore struct {
	mu      sync.Mutex
	path    string
	current *Session
	logger  *zap.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store backed by the given file and eagerly loads
// whatever is persisted there. Loading never fails: a missing or malformed
// file is logged and treated as logged-out.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	fs := &FileStore{path: path, logger: logger}
	fs.current = fs.load()
	return fs
}

func (f *FileStore) load() *Session {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			f.logger.Warn("Failed to read session file, treating as logged out",
				zap.String("path", f.path), zap.Error(err))
		}
		return nil
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		f.logger.Warn("Session file is malformed, treating as logged out",
			zap.String("path", f.path), zap.Error(err))
		return nil
	}
	if !s.Valid() {
		f.logger.Warn("Session file has no credential, treating as logged out",
			zap.String("path", f.path))
		return nil
	}
	return &s
}

// Current returns the in-memory session, or nil when logged out.
func (f *FileStore) Current() *Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return nil
	}
	s := *f.current
	return &s
}

// Set overwrites the in-memory and persisted copies. The file is written
// atomically (temp file + rename) with owner-only permissions since it
// holds a live credential.
func (f *FileStore) Set(s *Session) error {
	if s == nil {
		return fmt.Errorf("cannot set a nil session, use Clear")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}

	copied := *s
	f.current = &copied
	return nil
}

// Clear removes the in-memory and persisted copies.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.current = nil
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
