package poster

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// Sweep removes files in dir whose name starts with prefix and whose
// modification time is older than maxAge relative to now. It returns the number
// of removed files. A missing directory is not an error.
func Sweep(afs afero.Fs, dir, prefix string, maxAge time.Duration, now time.Time) (int, error) {
	entries, err := afero.ReadDir(afs, dir)
	if err != nil {
		if isNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("could not list %s: %w", dir, err)
	}

	removed := 0
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		if now.Sub(entry.ModTime()) <= maxAge {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := afs.Remove(path); err != nil {
			if !isNotExist(err) {
				errs = append(errs, err)
			}
			continue
		}
		slog.Debug("removed stale poster", "path", path, "age", now.Sub(entry.ModTime()).Round(time.Second))
		removed++
	}
	return removed, errors.Join(errs...)
}
