package backup

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
)

// maxRecordSize bounds a single encoded snapshot line. Save codes for
// long-running games reach hundreds of KB; 4MB leaves ample headroom.
const maxRecordSize = 4 * 1024 * 1024

var (
	// ErrEmptySaveCode rejects snapshots without a resumable code.
	ErrEmptySaveCode = errors.New("save code is empty")
)

// Store is a capacity-bounded, durable log of Snapshots, oldest first.
type Store struct {
	mu       sync.Mutex
	path     string
	capacity int
	entries  []Snapshot
}

// Load reads the snapshot log at path, creating an empty store when the
// file does not exist yet. A file that cannot be decoded is an error, not
// an empty store: silently discarding an operator's backups is worse than
// refusing to start.
func Load(path string, capacity int) (*Store, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("invalid backup capacity %d", capacity)
	}

	s := &Store{path: path, capacity: capacity}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open backup store: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxRecordSize)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var snap Snapshot
		if err := sonic.Unmarshal(raw, &snap); err != nil {
			return nil, fmt.Errorf("failed to decode backup record %d: %w", line, err)
		}
		if snap.SaveCode == "" {
			return nil, fmt.Errorf("backup record %d: %w", line, ErrEmptySaveCode)
		}

		s.entries = append(s.entries, snap)
		if len(s.entries) > capacity {
			s.entries = s.entries[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read backup store: %w", err)
	}

	return s, nil
}

// Push appends a snapshot, evicting the oldest entry when the store is at
// capacity, and persists before returning. A snapshot reported as pushed
// survives an immediate crash.
func (s *Store) Push(snap Snapshot) error {
	if snap.SaveCode == "" {
		return ErrEmptySaveCode
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := false
	s.entries = append(s.entries, snap)
	if len(s.entries) > s.capacity {
		// Copy instead of reslicing so the evicted snapshot does not pin
		// the backing array.
		trimmed := make([]Snapshot, s.capacity)
		copy(trimmed, s.entries[1:])
		s.entries = trimmed
		evicted = true
	}

	var err error
	if evicted {
		err = s.rewrite()
	} else {
		err = s.append(snap)
	}
	if err != nil {
		// Keep memory and disk consistent: the caller was told the push
		// failed, so the entry must not be observable afterwards.
		s.entries = s.entries[:len(s.entries)-1]
		return err
	}

	return nil
}

// Latest returns the most recently pushed snapshot.
func (s *Store) Latest() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == 0 {
		return Snapshot{}, false
	}
	return s.entries[len(s.entries)-1], true
}

// Len returns the number of stored snapshots.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Capacity returns the retention bound.
func (s *Store) Capacity() int {
	return s.capacity
}

// Path returns the durable log location.
func (s *Store) Path() string {
	return s.path
}

// Entries returns a copy of the stored snapshots, oldest first.
func (s *Store) Entries() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Snapshot, len(s.entries))
	copy(out, s.entries)
	return out
}

// append writes one encoded record to the end of the log and syncs it.
func (s *Store) append(snap Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open backup store: %w", err)
	}
	defer f.Close()

	data, err := sonic.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append snapshot: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync backup store: %w", err)
	}

	return nil
}

// rewrite persists the full entry list to a temp file and renames it over
// the log, so readers never observe a partially written store.
func (s *Store) rewrite() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp store: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	w := bufio.NewWriter(tmp)
	for _, snap := range s.entries {
		data, err := sonic.Marshal(snap)
		if err != nil {
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("failed to write temp store: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush temp store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp store: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace backup store: %w", err)
	}

	return nil
}
