package review

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"cadence/internal/logging"
)

// Correction carries operator-supplied metadata for an approved item.
type Correction struct {
	Artist string
	Album  string
}

// Committer re-runs the import pipeline for an approved item with corrected
// metadata. It is satisfied by the import orchestrator.
type Committer interface {
	CommitReviewed(ctx context.Context, stagedPath string, correction Correction) error
}

// Queue applies operator decisions to review items. Approval hands the item
// back to the committer; a failure after that point is terminal because the
// item's files have already been moved out of their staged location.
type Queue struct {
	store     *Store
	committer Committer
	logger    *slog.Logger
}

// NewQueue wires a review queue over its store and committer.
func NewQueue(store *Store, committer Committer, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Queue{store: store, committer: committer, logger: logger}
}

// Approve resolves a pending item by re-running the import with corrected
// metadata. When the commit fails the item transitions to failed, never back
// to pending, and the error message is retained for the operator.
func (q *Queue) Approve(ctx context.Context, id int64, correction Correction) error {
	item, err := q.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if item.Status != StatusPending {
		return fmt.Errorf("%w: item %d is %s", ErrNotPending, id, item.Status)
	}
	if correction.Artist == "" {
		correction.Artist = item.SuggestedArtist
	}
	if correction.Album == "" {
		correction.Album = item.SuggestedAlbum
	}

	if commitErr := q.committer.CommitReviewed(ctx, item.StagedPath, correction); commitErr != nil {
		q.logger.Error("approved import failed",
			logging.Int64("review_id", id),
			logging.String(logging.FieldErrorHint, "item requires fresh acquisition or manual re-staging"),
			logging.Error(commitErr))
		if resolveErr := q.store.resolve(ctx, id, StatusFailed, commitErr.Error()); resolveErr != nil {
			return fmt.Errorf("record failed approval: %w", resolveErr)
		}
		return fmt.Errorf("approve review item %d: %w", id, commitErr)
	}

	if err := q.store.resolve(ctx, id, StatusApproved, ""); err != nil {
		return fmt.Errorf("record approval: %w", err)
	}
	q.logger.Info("review item approved", logging.Int64("review_id", id))
	return nil
}

// Reject resolves a pending item without importing it. With deleteFiles set
// the staged directory is removed first; if files remain on disk after a
// failed removal the item stays pending and the failure is surfaced.
func (q *Queue) Reject(ctx context.Context, id int64, deleteFiles bool) error {
	item, err := q.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if item.Status != StatusPending {
		return fmt.Errorf("%w: item %d is %s", ErrNotPending, id, item.Status)
	}

	if deleteFiles && item.StagedPath != "" {
		if err := os.RemoveAll(item.StagedPath); err != nil {
			if _, statErr := os.Stat(item.StagedPath); statErr == nil {
				return fmt.Errorf("reject review item %d: staged files still present: %w", id, err)
			}
		}
	}

	if err := q.store.resolve(ctx, id, StatusRejected, ""); err != nil {
		return fmt.Errorf("record rejection: %w", err)
	}
	q.logger.Info("review item rejected",
		logging.Int64("review_id", id),
		logging.Bool("deleted_files", deleteFiles))
	return nil
}
