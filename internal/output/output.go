// Package output writes generated files so that a failed run never leaves a
// partial file at the destination.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFile calls fill with a writer on a temporary file in the destination
// directory and renames it over dest only if fill and every flush succeed.
// On failure the temporary file is removed and dest is left untouched.
func WriteFile(dest string, perm os.FileMode, fill func(w io.Writer) error) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, perm)

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("syncing %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", dest, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", dest, err)
	}
	return nil
}

// IsFresh reports whether dest exists and is newer than every file in deps.
// A dependency that cannot be stat'ed makes dest stale.
func IsFresh(dest string, deps []string) bool {
	info, err := os.Stat(dest)
	if err != nil {
		return false
	}
	mtime := info.ModTime()

	for _, p := range deps {
		fi, err := os.Stat(p)
		if err != nil {
			return false
		}
		if !fi.ModTime().Before(mtime) {
			return false
		}
	}
	return true
}
