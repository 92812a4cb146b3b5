package library

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"log/slog"

	"cadence/internal/catalog"
	"cadence/internal/config"
	"cadence/internal/logging"
	"cadence/internal/services"
	"cadence/internal/textutil"
)

// Materializer is the only actor that touches per-consumer filesystem trees.
// Links are a projection of membership rows; membership is written only after
// the links it claims exist, and removed only after they are gone.
type Materializer struct {
	cfg    *config.Config
	store  *catalog.Store
	logger *slog.Logger
}

func New(cfg *config.Config, store *catalog.Store, logger *slog.Logger) *Materializer {
	return &Materializer{cfg: cfg, store: store, logger: logging.NewComponentLogger(logger, "library")}
}

// AlbumResult reports one album's outcome inside an artist-level cascade.
type AlbumResult struct {
	AlbumID int64
	Title   string
	Err     error
}

func (m *Materializer) consumerRoot(consumer string) (string, error) {
	consumer = strings.TrimSpace(consumer)
	if consumer == "" {
		return "", services.Wrap(services.ErrValidation, "library", "resolve consumer", "consumer name is empty", nil)
	}
	return filepath.Join(m.cfg.Paths.ConsumersDir, textutil.SanitizePathComponent(consumer)), nil
}

// mirrorPath maps a canonical track path into the consumer's tree, preserving
// the artist/album layout.
func (m *Materializer) mirrorPath(root, trackPath string) (string, error) {
	rel, err := filepath.Rel(m.cfg.Paths.LibraryDir, trackPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", services.Wrap(services.ErrLinkOperation, "library", "mirror path",
			fmt.Sprintf("track path %s is outside the library", trackPath), err)
	}
	return filepath.Join(root, rel), nil
}

// HeartAlbum links every track of the album into the consumer's tree, then
// writes the album membership row. Re-hearting an already-linked album is a
// no-op. On a link failure the membership write is withheld; links already
// created stay, a retry resumes where it stopped.
func (m *Materializer) HeartAlbum(ctx context.Context, consumer string, albumID int64) error {
	root, err := m.consumerRoot(consumer)
	if err != nil {
		return err
	}
	if err := m.linkAlbumTracks(ctx, root, albumID); err != nil {
		return err
	}
	if err := m.store.AddAlbumMembership(ctx, consumer, albumID); err != nil {
		return services.Wrap(services.ErrCommitFailed, "library", "record album membership", "", err)
	}
	m.logger.Info("album hearted",
		logging.String(logging.FieldConsumer, consumer),
		logging.Int64("album_id", albumID))
	return nil
}

// UnheartAlbum removes the consumer's links for the album, prunes emptied
// directories up to the consumer root, and only then drops the membership row.
// A link that cannot be removed keeps the membership row in place.
func (m *Materializer) UnheartAlbum(ctx context.Context, consumer string, albumID int64) error {
	root, err := m.consumerRoot(consumer)
	if err != nil {
		return err
	}
	tracks, err := m.store.TracksByAlbum(ctx, albumID)
	if err != nil {
		return services.Wrap(services.ErrCommitFailed, "library", "load album tracks", "", err)
	}
	for _, track := range tracks {
		dst, err := m.mirrorPath(root, track.Path)
		if err != nil {
			return err
		}
		if err := unlinkFile(dst); err != nil {
			return services.Wrap(services.ErrLinkOperation, "library", "unheart album", "", err)
		}
		pruneEmptyAncestors(filepath.Dir(dst), root)
	}
	if err := m.store.RemoveAlbumMembership(ctx, consumer, albumID); err != nil {
		return services.Wrap(services.ErrCommitFailed, "library", "remove album membership", "", err)
	}
	m.logger.Info("album unhearted",
		logging.String(logging.FieldConsumer, consumer),
		logging.Int64("album_id", albumID))
	return nil
}

// HeartTrack links one track and records its membership. When the consumer's
// hearted-track count reaches the album's track count, the whole album is
// promoted: remaining links are completed idempotently and album membership is
// written.
func (m *Materializer) HeartTrack(ctx context.Context, consumer string, trackID int64) error {
	root, err := m.consumerRoot(consumer)
	if err != nil {
		return err
	}
	track, err := m.store.GetTrack(ctx, trackID)
	if err != nil {
		return services.Wrap(services.ErrCommitFailed, "library", "load track", "", err)
	}
	if track == nil {
		return services.Wrap(services.ErrNotFound, "library", "heart track", fmt.Sprintf("track %d", trackID), nil)
	}
	dst, err := m.mirrorPath(root, track.Path)
	if err != nil {
		return err
	}
	if err := linkFile(track.Path, dst); err != nil {
		return services.Wrap(services.ErrLinkOperation, "library", "heart track", "", err)
	}
	if err := m.store.AddTrackMembership(ctx, consumer, trackID); err != nil {
		return services.Wrap(services.ErrCommitFailed, "library", "record track membership", "", err)
	}
	m.logger.Info("track hearted",
		logging.String(logging.FieldConsumer, consumer),
		logging.Int64("track_id", trackID))
	return m.cascadeAlbumParity(ctx, root, consumer, track.AlbumID)
}

// cascadeAlbumParity promotes track-level hearts to an album heart once every
// track of the album is individually hearted.
func (m *Materializer) cascadeAlbumParity(ctx context.Context, root, consumer string, albumID int64) error {
	hearted, err := m.store.CountHeartedTracksForAlbum(ctx, consumer, albumID)
	if err != nil {
		return services.Wrap(services.ErrCommitFailed, "library", "count hearted tracks", "", err)
	}
	total, err := m.store.CountTracksByAlbum(ctx, albumID)
	if err != nil {
		return services.Wrap(services.ErrCommitFailed, "library", "count album tracks", "", err)
	}
	if total == 0 || hearted < total {
		return nil
	}
	already, err := m.store.HasAlbumMembership(ctx, consumer, albumID)
	if err != nil {
		return services.Wrap(services.ErrCommitFailed, "library", "check album membership", "", err)
	}
	if already {
		return nil
	}
	if err := m.linkAlbumTracks(ctx, root, albumID); err != nil {
		return err
	}
	if err := m.store.AddAlbumMembership(ctx, consumer, albumID); err != nil {
		return services.Wrap(services.ErrCommitFailed, "library", "record album membership", "", err)
	}
	m.logger.Info("album auto-hearted on track parity",
		logging.String(logging.FieldConsumer, consumer),
		logging.Int64("album_id", albumID))
	return nil
}

// UnheartTrack drops the track membership. The link is removed only when no
// album membership still claims it.
func (m *Materializer) UnheartTrack(ctx context.Context, consumer string, trackID int64) error {
	root, err := m.consumerRoot(consumer)
	if err != nil {
		return err
	}
	track, err := m.store.GetTrack(ctx, trackID)
	if err != nil {
		return services.Wrap(services.ErrCommitFailed, "library", "load track", "", err)
	}
	if track == nil {
		return services.Wrap(services.ErrNotFound, "library", "unheart track", fmt.Sprintf("track %d", trackID), nil)
	}
	albumHearted, err := m.store.HasAlbumMembership(ctx, consumer, track.AlbumID)
	if err != nil {
		return services.Wrap(services.ErrCommitFailed, "library", "check album membership", "", err)
	}
	if !albumHearted {
		dst, err := m.mirrorPath(root, track.Path)
		if err != nil {
			return err
		}
		if err := unlinkFile(dst); err != nil {
			return services.Wrap(services.ErrLinkOperation, "library", "unheart track", "", err)
		}
		pruneEmptyAncestors(filepath.Dir(dst), root)
	}
	if err := m.store.RemoveTrackMembership(ctx, consumer, trackID); err != nil {
		return services.Wrap(services.ErrCommitFailed, "library", "remove track membership", "", err)
	}
	m.logger.Info("track unhearted",
		logging.String(logging.FieldConsumer, consumer),
		logging.Int64("track_id", trackID))
	return nil
}

// HeartArtist hearts every album by the artist. A failed album does not stop
// the cascade or roll back earlier albums; linking is idempotent, so a retry
// resumes cleanly. The per-album report tells the caller what stuck.
func (m *Materializer) HeartArtist(ctx context.Context, consumer string, artistID int64) ([]AlbumResult, error) {
	return m.cascadeArtist(ctx, consumer, artistID, m.HeartAlbum)
}

// UnheartArtist removes every album by the artist from the consumer's tree,
// with the same resumable, per-album reporting as HeartArtist.
func (m *Materializer) UnheartArtist(ctx context.Context, consumer string, artistID int64) ([]AlbumResult, error) {
	return m.cascadeArtist(ctx, consumer, artistID, m.UnheartAlbum)
}

func (m *Materializer) cascadeArtist(ctx context.Context, consumer string, artistID int64, op func(context.Context, string, int64) error) ([]AlbumResult, error) {
	albums, err := m.store.AlbumsByArtist(ctx, artistID)
	if err != nil {
		return nil, services.Wrap(services.ErrCommitFailed, "library", "load artist albums", "", err)
	}
	results := make([]AlbumResult, 0, len(albums))
	for _, album := range albums {
		result := AlbumResult{AlbumID: album.ID, Title: album.Title}
		result.Err = op(ctx, consumer, album.ID)
		if result.Err != nil {
			m.logger.Warn("artist cascade album failed",
				logging.String(logging.FieldConsumer, consumer),
				logging.Int64("album_id", album.ID),
				logging.Error(result.Err))
		}
		results = append(results, result)
	}
	return results, nil
}

// Repair regenerates the consumer's links purely from membership rows. It
// never writes membership; a membership row whose canonical file is gone is
// reported, not deleted, so an operator can decide.
func (m *Materializer) Repair(ctx context.Context, consumer string) error {
	root, err := m.consumerRoot(consumer)
	if err != nil {
		return err
	}
	albumIDs, err := m.store.AlbumMemberships(ctx, consumer)
	if err != nil {
		return services.Wrap(services.ErrCommitFailed, "library", "load album memberships", "", err)
	}
	var failed int
	for _, albumID := range albumIDs {
		if err := m.linkAlbumTracks(ctx, root, albumID); err != nil {
			failed++
			m.logger.Warn("repair could not relink album",
				logging.String(logging.FieldConsumer, consumer),
				logging.Int64("album_id", albumID),
				logging.Error(err))
		}
	}
	trackIDs, err := m.store.TrackMemberships(ctx, consumer)
	if err != nil {
		return services.Wrap(services.ErrCommitFailed, "library", "load track memberships", "", err)
	}
	for _, trackID := range trackIDs {
		track, err := m.store.GetTrack(ctx, trackID)
		if err != nil || track == nil {
			failed++
			m.logger.Warn("repair could not load hearted track",
				logging.String(logging.FieldConsumer, consumer),
				logging.Int64("track_id", trackID),
				logging.Error(err))
			continue
		}
		dst, err := m.mirrorPath(root, track.Path)
		if err == nil {
			err = linkFile(track.Path, dst)
		}
		if err != nil {
			failed++
			m.logger.Warn("repair could not relink track",
				logging.String(logging.FieldConsumer, consumer),
				logging.Int64("track_id", trackID),
				logging.Error(err))
		}
	}
	if failed > 0 {
		return services.Wrap(services.ErrLinkOperation, "library", "repair",
			fmt.Sprintf("%d memberships could not be relinked for %s", failed, consumer), nil)
	}
	m.logger.Info("consumer tree repaired", logging.String(logging.FieldConsumer, consumer))
	return nil
}

// RepairAll runs Repair for every consumer known to the membership tables.
func (m *Materializer) RepairAll(ctx context.Context) error {
	consumers, err := m.store.Consumers(ctx)
	if err != nil {
		return services.Wrap(services.ErrCommitFailed, "library", "list consumers", "", err)
	}
	var firstErr error
	for _, consumer := range consumers {
		if err := m.Repair(ctx, consumer); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *Materializer) linkAlbumTracks(ctx context.Context, root string, albumID int64) error {
	tracks, err := m.store.TracksByAlbum(ctx, albumID)
	if err != nil {
		return services.Wrap(services.ErrCommitFailed, "library", "load album tracks", "", err)
	}
	for _, track := range tracks {
		dst, err := m.mirrorPath(root, track.Path)
		if err != nil {
			return err
		}
		if err := linkFile(track.Path, dst); err != nil {
			return services.Wrap(services.ErrLinkOperation, "library", "link album tracks", "", err)
		}
	}
	return nil
}
