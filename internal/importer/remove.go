package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cadence/internal/fileutil"
	"cadence/internal/logging"
	"cadence/internal/services"
)

// RemoveAlbum deletes an album's files and then its catalog rows. Files are
// confirmed gone before any row is touched: a file that survives its removal
// attempt aborts the whole deletion with the rows intact, so the catalog never
// claims less than what is on disk.
func (o *Orchestrator) RemoveAlbum(ctx context.Context, albumID int64) error {
	logger := logging.WithContext(ctx, o.logger)

	album, err := o.store.GetAlbum(ctx, albumID)
	if err != nil {
		return services.Wrap(services.ErrCommitFailed, "remove", "load album", "", err)
	}
	if album == nil {
		return services.Wrap(services.ErrNotFound, "remove", "load album", fmt.Sprintf("album %d", albumID), nil)
	}
	tracks, err := o.store.TracksByAlbum(ctx, albumID)
	if err != nil {
		return services.Wrap(services.ErrCommitFailed, "remove", "load album tracks", "", err)
	}

	for _, track := range tracks {
		if err := removeFileConfirmed(track.Path); err != nil {
			return services.Wrap(services.ErrCommitFailed, "remove", "delete track file",
				"catalog row retained", err)
		}
	}
	if album.ArtworkPath != "" {
		if err := removeFileConfirmed(album.ArtworkPath); err != nil {
			return services.Wrap(services.ErrCommitFailed, "remove", "delete artwork",
				"catalog row retained", err)
		}
	}
	if album.Path != "" {
		if _, err := fileutil.RemoveDirIfEmpty(album.Path); err != nil {
			logger.Warn("album directory not removed", logging.String("path", album.Path), logging.Error(err))
		} else {
			_, _ = fileutil.RemoveDirIfEmpty(filepath.Dir(album.Path))
		}
	}

	if err := o.store.DeleteAlbum(ctx, albumID); err != nil {
		return services.Wrap(services.ErrCommitFailed, "remove", "delete album rows", "", err)
	}
	logger.Info("album removed",
		logging.Int64("album_id", albumID),
		logging.Int("track_count", len(tracks)))
	return nil
}

// RemoveTrack deletes one track's file and then its row, with the same
// files-before-rows discipline as RemoveAlbum.
func (o *Orchestrator) RemoveTrack(ctx context.Context, trackID int64) error {
	logger := logging.WithContext(ctx, o.logger)

	track, err := o.store.GetTrack(ctx, trackID)
	if err != nil {
		return services.Wrap(services.ErrCommitFailed, "remove", "load track", "", err)
	}
	if track == nil {
		return services.Wrap(services.ErrNotFound, "remove", "load track", fmt.Sprintf("track %d", trackID), nil)
	}
	if err := removeFileConfirmed(track.Path); err != nil {
		return services.Wrap(services.ErrCommitFailed, "remove", "delete track file",
			"catalog row retained", err)
	}
	if err := o.store.DeleteTrack(ctx, trackID); err != nil {
		return services.Wrap(services.ErrCommitFailed, "remove", "delete track row", "", err)
	}
	logger.Info("track removed", logging.Int64("track_id", trackID))
	return nil
}

// removeFileConfirmed deletes path and verifies it is actually gone. A missing
// file counts as removed.
func removeFileConfirmed(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if _, statErr := os.Lstat(path); statErr == nil {
		return fmt.Errorf("file still present after removal attempt: %w", err)
	}
	return nil
}
