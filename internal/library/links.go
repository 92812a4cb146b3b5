package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"cadence/internal/fileutil"
)

// sameDevice reports whether two existing paths live on the same filesystem.
// Errors count as different; the caller falls back to a symlink, which works
// across devices.
func sameDevice(a, b string) bool {
	var sa, sb unix.Stat_t
	if err := unix.Stat(a, &sa); err != nil {
		return false
	}
	if err := unix.Stat(b, &sb); err != nil {
		return false
	}
	return sa.Dev == sb.Dev
}

// linkFile materializes src at dst, hard link when both sides share a
// filesystem, symlink otherwise. An existing dst that already resolves to src
// is left alone; one that points elsewhere is stale and gets replaced.
func linkFile(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source %s: %w", src, err)
	}
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create link directory: %w", err)
	}

	if existing, err := os.Lstat(dst); err == nil {
		if existing.Mode()&os.ModeSymlink != 0 {
			if target, err := os.Readlink(dst); err == nil && target == src {
				return nil
			}
		} else if os.SameFile(srcInfo, existing) {
			return nil
		}
		if err := os.Remove(dst); err != nil {
			return fmt.Errorf("replace stale link %s: %w", dst, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("inspect link target %s: %w", dst, err)
	}

	if sameDevice(src, dir) {
		if err := os.Link(src, dst); err == nil {
			return nil
		}
		// Hard link refused (permissions, filesystem quirks); the symlink
		// fallback still gives the consumer a working view.
	}
	if err := os.Symlink(src, dst); err != nil {
		return fmt.Errorf("symlink %s: %w", dst, err)
	}
	return nil
}

// unlinkFile removes the consumer's link at dst. A missing link is fine; a
// removal that leaves the entry behind is not.
func unlinkFile(dst string) error {
	if _, err := os.Lstat(dst); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := os.Remove(dst); err != nil {
		if _, statErr := os.Lstat(dst); statErr == nil {
			return fmt.Errorf("unlink %s: %w", dst, err)
		}
	}
	return nil
}

// pruneEmptyAncestors removes empty directories from start up to, but never
// including, root. It stops at the first non-empty directory.
func pruneEmptyAncestors(start, root string) {
	root = filepath.Clean(root)
	for dir := filepath.Clean(start); dir != root && strings.HasPrefix(dir, root+string(filepath.Separator)); dir = filepath.Dir(dir) {
		removed, err := fileutil.RemoveDirIfEmpty(dir)
		if err != nil || !removed {
			return
		}
	}
}
