// Package files holds the filesystem primitives potrans uses for catalogs,
// recovery logs and settings: crash-safe writes, collision-free output
// names and symlink refusal.
package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// maxNumbered is the highest _N suffix tried before falling back to a UUID.
const maxNumbered = 9

var errEmptyPath = errors.New("path is empty")

// numbered returns path with "_n" inserted before the extension:
// numbered("a/b.po", 2) == "a/b_2.po".
func numbered(path string, n int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(path, ext), n, ext)
}

// SafePath picks a name that does not exist yet. An unused path comes back
// unchanged; otherwise the first free sibling in _1.._9 is returned, and a
// UUID-suffixed name after that. The bool reports whether path was changed.
func SafePath(path string) (string, bool, error) {
	if path == "" {
		return "", false, errEmptyPath
	}
	free, err := absent(path)
	if err != nil || free {
		return path, false, err
	}
	for n := 1; n <= maxNumbered; n++ {
		candidate := numbered(path, n)
		free, err := absent(candidate)
		if err != nil {
			return "", false, err
		}
		if free {
			return candidate, true, nil
		}
	}

	suffix := uuid.NewString()
	if id, err := uuid.NewV7(); err == nil {
		suffix = id.String()
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + suffix + ext, true, nil
}

func absent(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, os.ErrNotExist):
		return true, nil
	default:
		return false, err
	}
}

// RejectSymlinkPath fails when path, or any directory above it, is a
// symlink or a Windows reparse point. Components that do not exist yet end
// the walk, since nothing past them can be a link.
func RejectSymlinkPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errEmptyPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	vol := filepath.VolumeName(abs)
	current := vol + string(os.PathSeparator)
	for _, part := range strings.Split(strings.TrimLeft(abs[len(vol):], string(os.PathSeparator)), string(os.PathSeparator)) {
		if part == "" {
			continue
		}
		current = filepath.Join(current, part)

		info, err := os.Lstat(current)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("inspect %s: %w", current, err)
		}
		link := info.Mode()&os.ModeSymlink != 0
		if !link {
			if link, err = isReparsePoint(current); err != nil {
				return fmt.Errorf("inspect %s: %w", current, err)
			}
		}
		if link {
			return fmt.Errorf("refusing to write through a link: %s resolves via %s", abs, current)
		}
	}
	return nil
}
