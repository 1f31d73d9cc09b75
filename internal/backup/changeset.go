package backup

import (
	"io/fs"
	"path/filepath"
	"sort"
	"time"
)

// ChangeSetDetector computes the set of regular files in a source tree
// modified strictly after a checkpoint instant.
type ChangeSetDetector struct{}

// NewChangeSetDetector creates a new detector.
func NewChangeSetDetector() *ChangeSetDetector {
	return &ChangeSetDetector{}
}

// Detect walks the source tree and returns the absolute paths of regular
// files whose modification time is strictly after since. Directories are
// never members of the result; an empty or unchanged tree yields an empty
// ChangeSet. The zero time means "no checkpoint" and selects every file.
func (d *ChangeSetDetector) Detect(source string, since time.Time) (ChangeSet, error) {
	var changed ChangeSet

	err := filepath.WalkDir(source, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(since) {
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			changed = append(changed, abs)
		}
		return nil
	})
	if err != nil {
		return nil, NewValidationError("failed to read source tree", err).
			WithContext("source", source)
	}

	sort.Strings(changed)
	return changed, nil
}
