package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const trackColumns = `id, album_id, title, track_number, disc_number, duration_secs, path,
    sample_rate, bit_depth, bitrate, file_size, format, lossy,
    source, source_url, checksum, composer, isrc, lyrics, explicit, catalog_ids,
    created_at, updated_at`

// InsertTrack persists a new track row. The checksum and position constraints
// are the content- and metadata-dedup race backstops; a losing concurrent
// writer receives ErrConstraint and must quarantine its already-moved file.
func (s *Store) InsertTrack(ctx context.Context, track *Track) error {
	if track == nil {
		return errors.New("track is nil")
	}
	if track.Checksum == "" {
		return errors.New("track checksum is required before any catalog write")
	}
	if track.DiscNumber <= 0 {
		track.DiscNumber = 1
	}
	now := timestamp()

	catalogIDs, err := marshalStringMap(track.CatalogIDs)
	if err != nil {
		return err
	}

	res, err := s.execWithRetry(ctx,
		`INSERT INTO tracks (
            album_id, title, track_number, disc_number, duration_secs, path,
            sample_rate, bit_depth, bitrate, file_size, format, lossy,
            source, source_url, checksum, composer, isrc, lyrics, explicit, catalog_ids,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		track.AlbumID,
		track.Title,
		track.TrackNumber,
		track.DiscNumber,
		track.DurationSecs,
		track.Path,
		track.Quality.SampleRate,
		track.Quality.BitDepth,
		track.Quality.Bitrate,
		track.Quality.FileSize,
		nullableString(track.Quality.Format),
		boolToInt(track.Quality.Lossy),
		nullableString(track.Provenance.Source),
		nullableString(track.Provenance.SourceURL),
		track.Checksum,
		nullableString(track.Composer),
		nullableString(track.ISRC),
		nullableString(track.Lyrics),
		boolToInt(track.Explicit),
		catalogIDs,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("insert track: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	track.ID = id
	return nil
}

// UpdateTrack persists changes to an existing track row.
func (s *Store) UpdateTrack(ctx context.Context, track *Track) error {
	if track == nil {
		return errors.New("track is nil")
	}
	catalogIDs, err := marshalStringMap(track.CatalogIDs)
	if err != nil {
		return err
	}
	_, err = s.execWithRetry(ctx,
		`UPDATE tracks
         SET album_id = ?, title = ?, track_number = ?, disc_number = ?, duration_secs = ?, path = ?,
             sample_rate = ?, bit_depth = ?, bitrate = ?, file_size = ?, format = ?, lossy = ?,
             source = ?, source_url = ?, checksum = ?, composer = ?, isrc = ?, lyrics = ?,
             explicit = ?, catalog_ids = ?, updated_at = ?
         WHERE id = ?`,
		track.AlbumID,
		track.Title,
		track.TrackNumber,
		track.DiscNumber,
		track.DurationSecs,
		track.Path,
		track.Quality.SampleRate,
		track.Quality.BitDepth,
		track.Quality.Bitrate,
		track.Quality.FileSize,
		nullableString(track.Quality.Format),
		boolToInt(track.Quality.Lossy),
		nullableString(track.Provenance.Source),
		nullableString(track.Provenance.SourceURL),
		track.Checksum,
		nullableString(track.Composer),
		nullableString(track.ISRC),
		nullableString(track.Lyrics),
		boolToInt(track.Explicit),
		catalogIDs,
		timestamp(),
		track.ID,
	)
	if err != nil {
		return fmt.Errorf("update track: %w", err)
	}
	return nil
}

// GetTrack fetches a track by identifier, returning nil when absent.
func (s *Store) GetTrack(ctx context.Context, id int64) (*Track, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE id = ?`, id)
	return scanTrack(row)
}

// FindTrackByChecksum fetches the track owning a content checksum.
func (s *Store) FindTrackByChecksum(ctx context.Context, sum string) (*Track, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE checksum = ?`, sum)
	return scanTrack(row)
}

// FindTrackByPosition fetches the track occupying a declared album position.
func (s *Store) FindTrackByPosition(ctx context.Context, albumID int64, discNumber, trackNumber int) (*Track, error) {
	if discNumber <= 0 {
		discNumber = 1
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+trackColumns+` FROM tracks WHERE album_id = ? AND disc_number = ? AND track_number = ?`,
		albumID, discNumber, trackNumber,
	)
	return scanTrack(row)
}

// TracksByAlbum returns an album's tracks in position order.
func (s *Store) TracksByAlbum(ctx context.Context, albumID int64) ([]*Track, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+trackColumns+` FROM tracks WHERE album_id = ? ORDER BY disc_number, track_number`,
		albumID,
	)
	if err != nil {
		return nil, fmt.Errorf("tracks by album: %w", err)
	}
	defer rows.Close()

	var tracks []*Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}

// CountTracksByAlbum returns the number of committed tracks for an album.
func (s *Store) CountTracksByAlbum(ctx context.Context, albumID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM tracks WHERE album_id = ?`, albumID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tracks: %w", err)
	}
	return count, nil
}

// DeleteTrack removes a track row and its membership rows. Callers must only
// invoke this after confirming the file is gone from disk.
func (s *Store) DeleteTrack(ctx context.Context, id int64) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin delete tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM track_memberships WHERE track_id = ?`, id); err != nil {
			return fmt.Errorf("delete track memberships: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete track: %w", err)
		}
		return tx.Commit()
	})
}

func scanTrack(scanner interface{ Scan(dest ...any) error }) (*Track, error) {
	var (
		track      Track
		format     sql.NullString
		lossy      int
		source     sql.NullString
		sourceURL  sql.NullString
		composer   sql.NullString
		isrc       sql.NullString
		lyrics     sql.NullString
		explicit   int
		catalogIDs sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&track.ID,
		&track.AlbumID,
		&track.Title,
		&track.TrackNumber,
		&track.DiscNumber,
		&track.DurationSecs,
		&track.Path,
		&track.Quality.SampleRate,
		&track.Quality.BitDepth,
		&track.Quality.Bitrate,
		&track.Quality.FileSize,
		&format,
		&lossy,
		&source,
		&sourceURL,
		&track.Checksum,
		&composer,
		&isrc,
		&lyrics,
		&explicit,
		&catalogIDs,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan track: %w", err)
	}
	track.Quality.Format = format.String
	track.Quality.Lossy = lossy != 0
	track.Provenance = Provenance{Source: source.String, SourceURL: sourceURL.String}
	track.Composer = composer.String
	track.ISRC = isrc.String
	track.Lyrics = lyrics.String
	track.Explicit = explicit != 0
	track.CatalogIDs = unmarshalStringMap(catalogIDs)
	if created, err := parseTimeString(createdRaw); err == nil {
		track.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		track.UpdatedAt = updated
	}
	return &track, nil
}
