package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// checkpointFileName is the per-destination record holding the epoch
// seconds of the last successful incremental backup into that destination.
const checkpointFileName = ".treesafe_checkpoint"

// CheckpointStore persists the last-successful-backup instant per
// destination directory. The store is advisory: it scopes incremental
// change detection and is not a source of truth for data integrity.
// Callers must serialize jobs per destination; access is not locked.
type CheckpointStore interface {
	// Get returns the checkpoint instant for a destination, with ok=false
	// when no checkpoint exists yet.
	Get(destination string) (instant time.Time, ok bool, err error)
	// Set overwrites the checkpoint for a destination. Called only after
	// a job reaches a successful terminal state.
	Set(destination string, instant time.Time) error
	// Clear removes the checkpoint for a destination, if any.
	Clear(destination string) error
}

// FileCheckpointStore keeps one plain-text record inside each destination
// directory, readable by any later invocation against that destination.
type FileCheckpointStore struct{}

// NewFileCheckpointStore creates a file-backed checkpoint store.
func NewFileCheckpointStore() *FileCheckpointStore {
	return &FileCheckpointStore{}
}

func (s *FileCheckpointStore) recordPath(destination string) string {
	return filepath.Join(destination, checkpointFileName)
}

// Get reads the checkpoint record for destination.
func (s *FileCheckpointStore) Get(destination string) (time.Time, bool, error) {
	data, err := os.ReadFile(s.recordPath(destination))
	if os.IsNotExist(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, NewCheckpointError("failed to read checkpoint record", err).
			WithContext("destination", destination)
	}

	epoch, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return time.Time{}, false, NewCheckpointError("malformed checkpoint record", err).
			WithContext("destination", destination)
	}
	return time.Unix(epoch, 0), true, nil
}

// Set writes the checkpoint record for destination as plain epoch seconds.
func (s *FileCheckpointStore) Set(destination string, instant time.Time) error {
	record := fmt.Sprintf("%d\n", instant.Unix())
	if err := os.WriteFile(s.recordPath(destination), []byte(record), 0o644); err != nil {
		return NewCheckpointError("failed to write checkpoint record", err).
			WithContext("destination", destination)
	}
	return nil
}

// Clear removes the checkpoint record for destination.
func (s *FileCheckpointStore) Clear(destination string) error {
	err := os.Remove(s.recordPath(destination))
	if err != nil && !os.IsNotExist(err) {
		return NewCheckpointError("failed to remove checkpoint record", err).
			WithContext("destination", destination)
	}
	return nil
}
