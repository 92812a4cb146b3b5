package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cadence/internal/catalog"
	"cadence/internal/downloads"
	"cadence/internal/logging"
	"cadence/internal/stage"
)

// Stage adapts the orchestrator to the workflow stage contract. Execute maps
// the import disposition onto the download's terminal status; routing to
// review is a normal outcome here, not a failure.
type Stage struct {
	orch   *Orchestrator
	queue  *downloads.Store
	logger *slog.Logger
}

// NewStage wires the import stage. queue may be nil, which disables the
// supplementary acquisition for incomplete albums.
func NewStage(orch *Orchestrator, queue *downloads.Store) *Stage {
	return &Stage{orch: orch, queue: queue, logger: logging.NewComponentLogger(orch.logger, "import-stage")}
}

// SetLogger swaps in a request-scoped logger for the current item.
func (s *Stage) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

func (s *Stage) Prepare(_ context.Context, d *downloads.Download) error {
	_, err := stage.RequireStagedPath(d)
	return err
}

func (s *Stage) Execute(ctx context.Context, d *downloads.Download) error {
	staged, err := stage.RequireStagedPath(d)
	if err != nil {
		return err
	}
	result, err := s.orch.Import(ctx, staged, catalog.Provenance{
		Source:    d.Source,
		SourceURL: d.SourceURL,
	})
	if err != nil {
		return err
	}

	switch result.Disposition {
	case DuplicateOnly:
		d.Status = downloads.StatusDuplicate
		d.ErrorMessage = ""
	case RoutedToReview:
		d.Status = downloads.StatusPendingReview
		d.ErrorMessage = result.Reason
	default:
		d.Status = downloads.StatusComplete
		d.ErrorMessage = ""
		s.requestSupplement(ctx, d, result)
	}
	return nil
}

// requestSupplement enqueues one follow-up acquisition scoped to the unfilled
// positions of an album that committed incomplete. A download that was itself
// a supplementary search (SearchQuery set) never spawns another, so one chain
// makes at most one extra attempt.
func (s *Stage) requestSupplement(ctx context.Context, d *downloads.Download, result *Result) {
	if s.queue == nil || result.Album == nil || result.Artist == nil {
		return
	}
	if result.Album.Status != catalog.AlbumIncomplete || d.SearchQuery != "" {
		return
	}
	supplement := &downloads.Download{
		Consumer: d.Consumer,
		Source:   d.Source,
		SearchQuery: fmt.Sprintf("%s %s positions %s",
			result.Artist.Name, result.Album.Title, strings.Join(result.Album.MissingTracks, " ")),
		Status: downloads.StatusPending,
	}
	if err := s.queue.Create(ctx, supplement); err != nil {
		s.logger.Warn("supplementary acquisition not queued",
			logging.Int64("album_id", result.Album.ID), logging.Error(err))
		return
	}
	s.logger.Info("supplementary acquisition queued",
		logging.Int64("album_id", result.Album.ID),
		logging.Int64(logging.FieldDownloadID, supplement.ID),
		logging.Int("missing", len(result.Album.MissingTracks)))
}

func (s *Stage) HealthCheck(context.Context) stage.Health {
	libraryDir := s.orch.cfg.Paths.LibraryDir
	if info, err := os.Stat(libraryDir); err != nil || !info.IsDir() {
		return stage.Unhealthy("import", "library directory unavailable: "+libraryDir)
	}
	return stage.Healthy("import")
}
