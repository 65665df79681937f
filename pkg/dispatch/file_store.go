package dispatch

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
)

const (
	// EventsFileName is the JSON document holding every event ever enqueued.
	EventsFileName = "events.json"
	// PauseFileName is the sentinel whose presence means the queue is paused.
	PauseFileName = "queue.paused"
	// LockFileName is flocked by every writer of the events document.
	LockFileName = ".events.lock"
)

// FileStore keeps the queue in a directory on local disk.
// The directory is created lazily on the first write.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the data directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) eventsPath() string { return filepath.Join(s.dir, EventsFileName) }
func (s *FileStore) pausePath() string { return filepath.Join(s.dir, PauseFileName) }
func (s *FileStore) lockPath() string { return filepath.Join(s.dir, LockFileName) }

// Load reads the event list. A missing file is an empty queue, not an error.
func (s *FileStore) Load(ctx context.Context) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load()
}

// Save rewrites the whole document through a temp file and rename.
func (s *FileStore) Save(ctx context.Context, events []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(events)
}

// Update holds an exclusive flock on the data directory's lock file for the
// whole read-modify-write, so processes sharing the directory never lose
// each other's writes.
func (s *FileStore) Update(ctx context.Context, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Join(ErrStoreWrite, fmt.Errorf("create data dir: %w", err))
	}
	unlock, err := lockFile(ctx, s.lockPath())
	if err != nil {
		return errors.Join(ErrStoreWrite, fmt.Errorf("lock %s: %w", s.lockPath(), err))
	}
	defer unlock()

	events, err := s.load()
	if err != nil {
		return err
	}
	next, err := fn(events)
	if err != nil {
		return err
	}
	return s.save(next)
}

func (s *FileStore) load() ([]Event, error) {
	data, err := os.ReadFile(s.eventsPath())
	if errors.Is(err, fs.ErrNotExist) {
		return []Event{}, nil
	}
	if err != nil {
		return nil, errors.Join(ErrStoreRead, err)
	}
	if len(data) == 0 {
		return []Event{}, nil
	}

	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, errors.Join(ErrStoreRead, fmt.Errorf("decode %s: %w", s.eventsPath(), err))
	}
	return events, nil
}

func (s *FileStore) save(events []Event) error {
	if events == nil {
		events = []Event{}
	}
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return errors.Join(ErrStoreWrite, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Join(ErrStoreWrite, fmt.Errorf("create data dir: %w", err))
	}
	if err := writeFileAtomic(s.dir, s.eventsPath(), data); err != nil {
		return errors.Join(ErrStoreWrite, err)
	}
	return nil
}

// Paused reports whether the pause sentinel exists.
func (s *FileStore) Paused(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.pausePath())
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, errors.Join(ErrStoreRead, err)
	}
}

// SetPaused creates or removes the pause sentinel.
func (s *FileStore) SetPaused(ctx context.Context, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !paused {
		if err := os.Remove(s.pausePath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errors.Join(ErrStoreWrite, err)
		}
		return nil
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Join(ErrStoreWrite, fmt.Errorf("create data dir: %w", err))
	}
	stamp := []byte(time.Now().UTC().Format(time.RFC3339))
	if err := writeFileAtomic(s.dir, s.pausePath(), stamp); err != nil {
		return errors.Join(ErrStoreWrite, err)
	}
	return nil
}

func writeFileAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
