package catalog

import (
	"context"
	"fmt"
)

// AddAlbumMembership records a consumer's hearted state for an album.
// Idempotent: re-adding an existing membership is a no-op.
func (s *Store) AddAlbumMembership(ctx context.Context, consumer string, albumID int64) error {
	_, err := s.execWithRetry(ctx,
		`INSERT OR IGNORE INTO album_memberships (consumer, album_id, created_at) VALUES (?, ?, ?)`,
		consumer, albumID, timestamp(),
	)
	if err != nil {
		return fmt.Errorf("add album membership: %w", err)
	}
	return nil
}

// RemoveAlbumMembership deletes a consumer's album membership.
func (s *Store) RemoveAlbumMembership(ctx context.Context, consumer string, albumID int64) error {
	_, err := s.execWithRetry(ctx,
		`DELETE FROM album_memberships WHERE consumer = ? AND album_id = ?`, consumer, albumID)
	if err != nil {
		return fmt.Errorf("remove album membership: %w", err)
	}
	return nil
}

// HasAlbumMembership reports whether a consumer has hearted an album.
func (s *Store) HasAlbumMembership(ctx context.Context, consumer string, albumID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM album_memberships WHERE consumer = ? AND album_id = ?`,
		consumer, albumID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check album membership: %w", err)
	}
	return count > 0, nil
}

// AddTrackMembership records a consumer's hearted state for a single track.
func (s *Store) AddTrackMembership(ctx context.Context, consumer string, trackID int64) error {
	_, err := s.execWithRetry(ctx,
		`INSERT OR IGNORE INTO track_memberships (consumer, track_id, created_at) VALUES (?, ?, ?)`,
		consumer, trackID, timestamp(),
	)
	if err != nil {
		return fmt.Errorf("add track membership: %w", err)
	}
	return nil
}

// RemoveTrackMembership deletes a consumer's track membership.
func (s *Store) RemoveTrackMembership(ctx context.Context, consumer string, trackID int64) error {
	_, err := s.execWithRetry(ctx,
		`DELETE FROM track_memberships WHERE consumer = ? AND track_id = ?`, consumer, trackID)
	if err != nil {
		return fmt.Errorf("remove track membership: %w", err)
	}
	return nil
}

// HasTrackMembership reports whether a consumer has hearted a track.
func (s *Store) HasTrackMembership(ctx context.Context, consumer string, trackID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM track_memberships WHERE consumer = ? AND track_id = ?`,
		consumer, trackID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check track membership: %w", err)
	}
	return count > 0, nil
}

// CountHeartedTracksForAlbum counts how many of an album's tracks the
// consumer has individually hearted. This drives the auto-heart cascade.
func (s *Store) CountHeartedTracksForAlbum(ctx context.Context, consumer string, albumID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM track_memberships tm
         JOIN tracks t ON t.id = tm.track_id
         WHERE tm.consumer = ? AND t.album_id = ?`,
		consumer, albumID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count hearted tracks: %w", err)
	}
	return count, nil
}

// AlbumMemberships returns the album ids a consumer has hearted.
func (s *Store) AlbumMemberships(ctx context.Context, consumer string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT album_id FROM album_memberships WHERE consumer = ? ORDER BY album_id`, consumer)
	if err != nil {
		return nil, fmt.Errorf("list album memberships: %w", err)
	}
	defer rows.Close()
	return collectIDs(rows)
}

// TrackMemberships returns the track ids a consumer has hearted individually.
func (s *Store) TrackMemberships(ctx context.Context, consumer string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT track_id FROM track_memberships WHERE consumer = ? ORDER BY track_id`, consumer)
	if err != nil {
		return nil, fmt.Errorf("list track memberships: %w", err)
	}
	defer rows.Close()
	return collectIDs(rows)
}

// Consumers returns every consumer with at least one membership row.
func (s *Store) Consumers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT consumer FROM album_memberships
         UNION SELECT consumer FROM track_memberships ORDER BY consumer`)
	if err != nil {
		return nil, fmt.Errorf("list consumers: %w", err)
	}
	defer rows.Close()

	var consumers []string
	for rows.Next() {
		var consumer string
		if err := rows.Scan(&consumer); err != nil {
			return nil, err
		}
		consumers = append(consumers, consumer)
	}
	return consumers, rows.Err()
}

func collectIDs(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]int64, error) {
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
