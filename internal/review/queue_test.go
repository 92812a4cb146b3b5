package review_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cadence/internal/review"
	"cadence/internal/testsupport"
)

type fakeCommitter struct {
	err        error
	calls      int
	lastPath   string
	lastArtist string
	lastAlbum  string
}

func (f *fakeCommitter) CommitReviewed(_ context.Context, stagedPath string, correction review.Correction) error {
	f.calls++
	f.lastPath = stagedPath
	f.lastArtist = correction.Artist
	f.lastAlbum = correction.Album
	return f.err
}

func newQueue(t *testing.T, committer *fakeCommitter) (*review.Queue, *review.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenReviews(t, cfg)
	return review.NewQueue(store, committer, nil), store
}

func createItem(t *testing.T, store *review.Store, stagedPath string) *review.Item {
	t.Helper()
	item := &review.Item{
		StagedPath:      stagedPath,
		SuggestedArtist: "Guessed Artist",
		SuggestedAlbum:  "Guessed Album",
		Confidence:      0.42,
		TrackCount:      10,
		Reason:          "identification confidence below threshold",
	}
	if err := store.Create(context.Background(), item); err != nil {
		t.Fatalf("create review item: %v", err)
	}
	return item
}

func TestApproveRunsCommitterWithCorrection(t *testing.T) {
	committer := &fakeCommitter{}
	queue, store := newQueue(t, committer)
	item := createItem(t, store, "/staging/item")

	err := queue.Approve(context.Background(), item.ID, review.Correction{Artist: "Real Artist", Album: "Real Album"})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if committer.calls != 1 || committer.lastArtist != "Real Artist" || committer.lastAlbum != "Real Album" {
		t.Fatalf("unexpected committer invocation: %+v", committer)
	}
	got, err := store.Get(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != review.StatusApproved {
		t.Fatalf("expected approved, got %s", got.Status)
	}
}

func TestApproveFallsBackToSuggestedMetadata(t *testing.T) {
	committer := &fakeCommitter{}
	queue, store := newQueue(t, committer)
	item := createItem(t, store, "/staging/item")

	if err := queue.Approve(context.Background(), item.ID, review.Correction{}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if committer.lastArtist != "Guessed Artist" || committer.lastAlbum != "Guessed Album" {
		t.Fatalf("expected suggested metadata, got %+v", committer)
	}
}

func TestFailedApprovalIsTerminal(t *testing.T) {
	committer := &fakeCommitter{err: errors.New("commit failed: file relocation raced")}
	queue, store := newQueue(t, committer)
	item := createItem(t, store, "/staging/item")
	ctx := context.Background()

	if err := queue.Approve(ctx, item.ID, review.Correction{}); err == nil {
		t.Fatal("expected approval error")
	}
	got, err := store.Get(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != review.StatusFailed {
		t.Fatalf("expected failed, got %s", got.Status)
	}
	if got.ErrorMessage == "" {
		t.Fatal("expected error message retained")
	}

	// A failed item is never retryable in place.
	committer.err = nil
	err = queue.Approve(ctx, item.ID, review.Correction{})
	if !errors.Is(err, review.ErrNotPending) {
		t.Fatalf("expected second approval refused, got %v", err)
	}
	if committer.calls != 1 {
		t.Fatalf("expected committer not re-invoked, got %d calls", committer.calls)
	}
}

func TestRejectDeletesStagedFiles(t *testing.T) {
	committer := &fakeCommitter{}
	queue, store := newQueue(t, committer)

	staged := filepath.Join(t.TempDir(), "item")
	testsupport.WriteAudio(t, filepath.Join(staged, "01 Track.flac"), 1024, 1)
	item := createItem(t, store, staged)

	if err := queue.Reject(context.Background(), item.ID, true); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Fatalf("expected staged dir removed, stat err: %v", err)
	}
	got, err := store.Get(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != review.StatusRejected {
		t.Fatalf("expected rejected, got %s", got.Status)
	}
}

func TestRejectKeepsFilesWhenAsked(t *testing.T) {
	committer := &fakeCommitter{}
	queue, store := newQueue(t, committer)

	staged := filepath.Join(t.TempDir(), "item")
	testsupport.WriteAudio(t, filepath.Join(staged, "01 Track.flac"), 1024, 1)
	item := createItem(t, store, staged)

	if err := queue.Reject(context.Background(), item.ID, false); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := os.Stat(staged); err != nil {
		t.Fatalf("expected staged dir untouched: %v", err)
	}
}

func TestDecisionsRequirePending(t *testing.T) {
	committer := &fakeCommitter{}
	queue, store := newQueue(t, committer)
	item := createItem(t, store, "/staging/item")
	ctx := context.Background()

	if err := queue.Reject(ctx, item.ID, false); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if err := queue.Approve(ctx, item.ID, review.Correction{}); !errors.Is(err, review.ErrNotPending) {
		t.Fatalf("expected refusal on resolved item, got %v", err)
	}
	if err := queue.Reject(ctx, item.ID, false); !errors.Is(err, review.ErrNotPending) {
		t.Fatalf("expected refusal on resolved item, got %v", err)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	committer := &fakeCommitter{}
	queue, store := newQueue(t, committer)
	ctx := context.Background()

	first := createItem(t, store, "/staging/a")
	createItem(t, store, "/staging/b")
	if err := queue.Reject(ctx, first.ID, false); err != nil {
		t.Fatalf("reject: %v", err)
	}

	pending, err := store.List(ctx, review.StatusPending)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 1 || pending[0].StagedPath != "/staging/b" {
		t.Fatalf("unexpected pending items: %+v", pending)
	}
}
