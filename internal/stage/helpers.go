package stage

import (
	"os"
	"strings"

	"cadence/internal/downloads"
	"cadence/internal/services"
)

// RequireStagedPath verifies the download carries a staged directory that
// exists on disk. On failure it returns a services.ErrValidation suitable for
// stage Execute methods.
func RequireStagedPath(d *downloads.Download) (string, error) {
	path := strings.TrimSpace(d.StagedPath)
	if path == "" {
		return "", services.Wrap(
			services.ErrValidation, "stage", "resolve staged path",
			"download has no staged files; rerun acquisition", nil)
	}
	if _, err := os.Stat(path); err != nil {
		return "", services.Wrap(
			services.ErrValidation, "stage", "resolve staged path",
			"staged files are missing; rerun acquisition", err)
	}
	return path, nil
}
