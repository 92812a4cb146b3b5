package sources

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"cadence/internal/config"
	"cadence/internal/fileutil"
)

// LocalAcquirer stages audio from a directory already on disk. It backs the
// manual `cadence import PATH` flow: files are copied into a fresh staging
// directory so the import pipeline never mutates the operator's originals.
type LocalAcquirer struct {
	cfg *config.Config
}

// NewLocalAcquirer builds the local-directory acquirer.
func NewLocalAcquirer(cfg *config.Config) *LocalAcquirer {
	return &LocalAcquirer{cfg: cfg}
}

// Name implements Acquirer.
func (a *LocalAcquirer) Name() string { return "local" }

// Acquire copies the request's source directory into staging, reporting
// bytes-based progress. SourceURL carries the directory path.
func (a *LocalAcquirer) Acquire(ctx context.Context, req Request, progress Progress) (string, error) {
	sourceDir := req.SourceURL
	info, err := os.Stat(sourceDir)
	if err != nil {
		return "", fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("source %s is not a directory", sourceDir)
	}

	var files []string
	var totalBytes int64
	err = filepath.WalkDir(sourceDir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		if !a.cfg.IsAudioPath(path) {
			return nil
		}
		fi, err := entry.Info()
		if err != nil {
			return err
		}
		files = append(files, path)
		totalBytes += fi.Size()
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scan source directory: %w", err)
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no audio files under %s", sourceDir)
	}

	stagedDir := filepath.Join(a.cfg.Paths.StagingDir, uuid.NewString())
	if err := os.MkdirAll(stagedDir, 0o755); err != nil {
		return "", fmt.Errorf("create staging directory: %w", err)
	}

	var copied int64
	for _, src := range files {
		if err := ctx.Err(); err != nil {
			_ = os.RemoveAll(stagedDir)
			return "", err
		}
		rel, err := filepath.Rel(sourceDir, src)
		if err != nil {
			rel = filepath.Base(src)
		}
		dst := filepath.Join(stagedDir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			_ = os.RemoveAll(stagedDir)
			return "", fmt.Errorf("create staging subdirectory: %w", err)
		}
		if err := fileutil.CopyFileVerified(src, dst); err != nil {
			_ = os.RemoveAll(stagedDir)
			return "", fmt.Errorf("stage %s: %w", rel, err)
		}
		if fi, statErr := os.Stat(dst); statErr == nil {
			copied += fi.Size()
		}
		if progress != nil && totalBytes > 0 {
			progress(float64(copied)/float64(totalBytes)*100, "", "")
		}
	}
	return stagedDir, nil
}
