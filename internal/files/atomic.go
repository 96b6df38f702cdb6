package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oukeidos/potrans/internal/logger"
)

// AtomicWrite replaces path with data. Readers see either the old file or
// the complete new one, never a partial catalog.
func AtomicWrite(path string, data []byte, perm os.FileMode) error {
	if err := RejectSymlinkPath(path); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".potrans-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	if err := fill(tmp, data, perm); err != nil {
		return err
	}
	if err := renameAtomic(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("move %s into place: %w", path, err)
	}
	flushDir(dir)
	return nil
}

// AtomicWriteExclusive is AtomicWrite for files that must never replace an
// existing one, such as recovery logs. When path is taken it tries the
// numbered siblings and returns the name it actually wrote.
func AtomicWriteExclusive(path string, data []byte, perm os.FileMode) (string, error) {
	if err := RejectSymlinkPath(path); err != nil {
		return "", err
	}
	dir := filepath.Dir(path)

	for n := 0; n <= maxNumbered; n++ {
		target := path
		if n > 0 {
			target = numbered(path, n)
		}
		if _, err := os.Lstat(target); err == nil {
			continue
		}

		// O_EXCL on the temp name reserves the slot against a concurrent run.
		tmp, err := os.OpenFile(target+".tmp", os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if err := fill(tmp, data, 0); err != nil {
			return "", err
		}
		if err := renameAtomic(tmp.Name(), target); err != nil {
			os.Remove(tmp.Name())
			return "", err
		}
		flushDir(dir)
		return target, nil
	}
	return "", fmt.Errorf("no free name for %s: %w", path, os.ErrExist)
}

// fill writes data to f, syncs and closes it. On failure f is removed.
// A zero perm leaves the mode set at creation.
func fill(f *os.File, data []byte, perm os.FileMode) (err error) {
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()
	if perm != 0 {
		if err := f.Chmod(perm); err != nil {
			return fmt.Errorf("chmod %s: %w", f.Name(), err)
		}
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", f.Name(), err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", f.Name(), err)
	}
	return f.Close()
}

// flushDir persists the rename. Failure only costs durability, so it is
// logged rather than returned.
func flushDir(dir string) {
	if err := syncDir(dir); err != nil {
		logger.Debug("Directory sync skipped", "path", dir, "error", err)
	}
}
