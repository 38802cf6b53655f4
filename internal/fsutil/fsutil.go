// Package fsutil provides the small set of filesystem operations the build
// pipeline needs: recursive copies (optionally filtered) and directory
// removal with backoff for transient errors.
package fsutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/retry"
)

// CopyDir recursively copies a directory tree, handling cross-device scenarios.
func CopyDir(src, dst string) error {
	return CopyDirFiltered(src, dst, nil)
}

// CopyDirFiltered copies src into dst, skipping entries for which keep
// returns false. keep receives the path relative to src; a nil keep copies
// everything. Directories are always descended into so a filter can keep
// nested files without listing their parents.
func CopyDirFiltered(src, dst string, keep func(rel string, entry os.DirEntry) bool) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dst, srcInfo.Mode()); err != nil {
		return err
	}

	return copyTree(src, dst, "", keep)
}

func copyTree(src, dst, rel string, keep func(rel string, entry os.DirEntry) bool) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		entryRel := filepath.Join(rel, entry.Name())

		if entry.IsDir() {
			info, err := entry.Info()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dstPath, info.Mode()); err != nil {
				return err
			}
			if err := copyTree(srcPath, dstPath, entryRel, keep); err != nil {
				return err
			}
			continue
		}

		if keep != nil && !keep(entryRel, entry) {
			continue
		}
		if err := CopyFile(srcPath, dstPath); err != nil {
			return err
		}
	}

	return nil
}

// CopyFile copies a single file from src to dst, creating dst's parent
// directory and preserving the source file mode.
func CopyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		_ = dstFile.Close()
	}()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}

	// Preserve file permissions
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, srcInfo.Mode())
}

// RemoveAllRetry removes path recursively, retrying per the policy.
// Deleting a directory a bundler or editor still holds open fails
// transiently on some platforms; a short backoff usually clears it.
func RemoveAllRetry(path string, pol retry.Policy) error {
	var lastErr error
	for attempt := 0; attempt <= pol.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.Debug("retrying removal", logfields.Path(path), slog.Int("attempt", attempt))
		}
		if err := os.RemoveAll(path); err == nil {
			return nil
		} else {
			lastErr = err
		}
		if attempt == pol.MaxRetries {
			break
		}
		time.Sleep(pol.Delay(attempt + 1))
	}
	return lastErr
}
