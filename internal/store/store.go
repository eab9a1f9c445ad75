// Package store persists finished animations. Files are written to a
// temporary name and renamed into place, so a failed run never leaves a
// partial artifact behind.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/setanarut/radarloop"
)

const lockName = ".radarloop.lock"

// ErrLocked is returned when another process is writing to the same directory.
var ErrLocked = errors.New("store: output directory is locked by another run")

func withLock(dir string, fn func() error) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	lock := flock.New(filepath.Join(dir, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	defer lock.Unlock()
	return fn()
}

func writeAtomic(path string, write func(*os.File) error) error {
	dir := filepath.Dir(path)
	return withLock(dir, func() error {
		tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
		if err != nil {
			return fmt.Errorf("create temp file: %w", err)
		}
		tmpName := tmp.Name()
		committed := false
		defer func() {
			if !committed {
				tmp.Close()
				os.Remove(tmpName)
			}
		}()

		if err := write(tmp); err != nil {
			return err
		}
		if err := tmp.Sync(); err != nil {
			return fmt.Errorf("sync %s: %w", tmpName, err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("close %s: %w", tmpName, err)
		}
		if err := os.Rename(tmpName, path); err != nil {
			return fmt.Errorf("rename into %s: %w", path, err)
		}
		committed = true
		return nil
	})
}

// WriteAnimation encodes a as a GIF at path.
func WriteAnimation(path string, a *radarloop.Animation) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return writeAtomic(path, func(f *os.File) error {
		if err := radarloop.EncodeGIF(f, a); err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		return nil
	})
}

// ReadAnimation decodes the GIF at path.
func ReadAnimation(path string) (*radarloop.Animation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	a, err := radarloop.DecodeGIF(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// TimestampPath is the sidecar path next to an artifact.
func TimestampPath(artifact string) string {
	return strings.TrimSuffix(artifact, filepath.Ext(artifact)) + ".timestamp.txt"
}

// WriteTimestamp records the source's last-modified time beside artifact.
func WriteTimestamp(artifact string, t time.Time) error {
	line := t.UTC().Format(time.RFC1123) + "\n"
	return writeAtomic(TimestampPath(artifact), func(f *os.File) error {
		_, err := f.WriteString(line)
		return err
	})
}
