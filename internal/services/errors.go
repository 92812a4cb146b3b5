package services

import (
	"errors"
	"fmt"
	"strings"

	"cadence/internal/downloads"
)

var (
	// ErrValidation marks bad or placeholder metadata; routed to review.
	ErrValidation = errors.New("validation error")
	// ErrIntegrity marks a corrupt or incomplete audio stream; routed to review.
	ErrIntegrity = errors.New("integrity error")
	// ErrCommitFailed marks a persistence failure after files were already
	// moved out of staging. The mover is responsible for quarantining.
	ErrCommitFailed = errors.New("commit failed")
	// ErrLinkOperation marks a filesystem link or unlink failure during
	// materialization.
	ErrLinkOperation = errors.New("link operation failed")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrExternalTool  = errors.New("external collaborator error")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a stage error to the download status the workflow manager
// should persist after the stage fails. Validation and integrity problems need
// an operator decision; everything else is retryable.
func FailureStatus(err error) downloads.Status {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrIntegrity):
		return downloads.StatusPendingReview
	default:
		return downloads.StatusFailed
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
