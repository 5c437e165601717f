package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoSession is returned when no usable session is stored.
var ErrNoSession = errors.New("no active session")

// FileStore keeps the raw token in a single file readable only by the owner.
type FileStore struct {
	path string
	now  func() time.Time
}

// NewFileStore creates a store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Save writes the session token.
func (f *FileStore) Save(s *Session) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.path, []byte(s.Token), 0o600)
}

// Load reads the stored session. An expired session is removed and reported
// as ErrNoSession.
func (f *FileStore) Load() (*Session, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	s, err := NewSession(strings.TrimSpace(string(raw)))
	if err != nil {
		_ = f.Clear()
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	if s.Expired(f.now()) {
		_ = f.Clear()
		return nil, ErrNoSession
	}
	return s, nil
}

// Clear removes the stored session. Clearing an empty store is not an error.
func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
