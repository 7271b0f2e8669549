package navstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// lockRetryInterval is how often a busy lock file is retried.
const lockRetryInterval = 25 * time.Millisecond

// FileStore keeps the navigation state in a JSON file. Reads and writes
// take an exclusive lock on "<path>.lock" so two terminal clients sharing
// the file never interleave.
type FileStore struct {
	path string
	lock *flock.Flock
}

// NewFileStore creates a store backed by path. The parent directory is
// created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the state file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the state file. Returns ErrNoState if it does not exist.
func (s *FileStore) Load(ctx context.Context) (State, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return Default(), ErrNoState
	}

	if err := s.acquire(ctx); err != nil {
		return Default(), err
	}
	defer s.lock.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), ErrNoState
		}
		return Default(), fmt.Errorf("read navigation state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return Default(), fmt.Errorf("decode navigation state: %w", err)
	}
	return state.Normalize(), nil
}

// Save writes the state file atomically.
func (s *FileStore) Save(ctx context.Context, state State) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.lock.Unlock()

	data, err := json.Marshal(state.Normalize())
	if err != nil {
		return fmt.Errorf("encode navigation state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write navigation state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace navigation state: %w", err)
	}
	return nil
}

func (s *FileStore) acquire(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	locked, err := s.lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return fmt.Errorf("lock navigation state: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock navigation state: %s is busy", s.lock.Path())
	}
	return nil
}
