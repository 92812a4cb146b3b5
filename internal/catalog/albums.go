package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cadence/internal/textutil"
)

const albumColumns = `id, artist_id, title, norm_title, year, path, artwork_path,
    total_tracks, available_tracks, status, missing_tracks, created_at, updated_at`

// CreateAlbum inserts a new album row. The (artist_id, norm_title) constraint
// is the metadata-dedup race backstop; losers receive ErrConstraint.
func (s *Store) CreateAlbum(ctx context.Context, album *Album) error {
	if album == nil {
		return errors.New("album is nil")
	}
	if album.NormTitle == "" {
		album.NormTitle = textutil.NormalizeKey(album.Title)
	}
	if album.Status == "" {
		album.Status = AlbumPending
	}
	now := timestamp()

	missing, err := marshalStrings(album.MissingTracks)
	if err != nil {
		return err
	}

	res, err := s.execWithRetry(ctx,
		`INSERT INTO albums (
            artist_id, title, norm_title, year, path, artwork_path,
            total_tracks, available_tracks, status, missing_tracks,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		album.ArtistID,
		album.Title,
		album.NormTitle,
		album.Year,
		album.Path,
		nullableString(album.ArtworkPath),
		album.TotalTracks,
		album.AvailableTracks,
		album.Status,
		missing,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("insert album: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	album.ID = id
	return nil
}

// UpdateAlbum persists changes to an existing album row.
func (s *Store) UpdateAlbum(ctx context.Context, album *Album) error {
	if album == nil {
		return errors.New("album is nil")
	}
	missing, err := marshalStrings(album.MissingTracks)
	if err != nil {
		return err
	}
	_, err = s.execWithRetry(ctx,
		`UPDATE albums
         SET title = ?, norm_title = ?, year = ?, path = ?, artwork_path = ?,
             total_tracks = ?, available_tracks = ?, status = ?, missing_tracks = ?,
             updated_at = ?
         WHERE id = ?`,
		album.Title,
		album.NormTitle,
		album.Year,
		album.Path,
		nullableString(album.ArtworkPath),
		album.TotalTracks,
		album.AvailableTracks,
		album.Status,
		missing,
		timestamp(),
		album.ID,
	)
	if err != nil {
		return fmt.Errorf("update album: %w", err)
	}
	return nil
}

// GetAlbum fetches an album by identifier, returning nil when absent.
func (s *Store) GetAlbum(ctx context.Context, id int64) (*Album, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+albumColumns+` FROM albums WHERE id = ?`, id)
	return scanAlbum(row)
}

// FindAlbumByKey fetches an album by its metadata dedup key.
func (s *Store) FindAlbumByKey(ctx context.Context, artistID int64, title string) (*Album, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+albumColumns+` FROM albums WHERE artist_id = ? AND norm_title = ?`,
		artistID, textutil.NormalizeKey(title),
	)
	return scanAlbum(row)
}

// AlbumsByArtist returns an artist's albums ordered by year then title.
func (s *Store) AlbumsByArtist(ctx context.Context, artistID int64) ([]*Album, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+albumColumns+` FROM albums WHERE artist_id = ? ORDER BY year, title`, artistID)
	if err != nil {
		return nil, fmt.Errorf("albums by artist: %w", err)
	}
	defer rows.Close()
	return collectAlbums(rows)
}

// ListAlbums returns every album ordered by artist then title.
func (s *Store) ListAlbums(ctx context.Context) ([]*Album, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+albumColumns+` FROM albums ORDER BY artist_id, title`)
	if err != nil {
		return nil, fmt.Errorf("list albums: %w", err)
	}
	defer rows.Close()
	return collectAlbums(rows)
}

// DeleteAlbum removes an album row together with its track rows and
// membership rows in one transaction. Callers must only invoke this after
// confirming the album's files are gone from disk; the row is the record
// that bytes still exist.
func (s *Store) DeleteAlbum(ctx context.Context, id int64) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin delete tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM track_memberships WHERE track_id IN (SELECT id FROM tracks WHERE album_id = ?)`, id); err != nil {
			return fmt.Errorf("delete track memberships: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM album_memberships WHERE album_id = ?`, id); err != nil {
			return fmt.Errorf("delete album memberships: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM tracks WHERE album_id = ?`, id); err != nil {
			return fmt.Errorf("delete tracks: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM albums WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete album: %w", err)
		}
		return tx.Commit()
	})
}

func collectAlbums(rows *sql.Rows) ([]*Album, error) {
	var albums []*Album
	for rows.Next() {
		album, err := scanAlbum(rows)
		if err != nil {
			return nil, err
		}
		albums = append(albums, album)
	}
	return albums, rows.Err()
}

func scanAlbum(scanner interface{ Scan(dest ...any) error }) (*Album, error) {
	var (
		album      Album
		artwork    sql.NullString
		missing    sql.NullString
		status     string
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&album.ID,
		&album.ArtistID,
		&album.Title,
		&album.NormTitle,
		&album.Year,
		&album.Path,
		&artwork,
		&album.TotalTracks,
		&album.AvailableTracks,
		&status,
		&missing,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan album: %w", err)
	}
	album.ArtworkPath = artwork.String
	album.Status = AlbumStatus(status)
	album.MissingTracks = unmarshalStrings(missing)
	if created, err := parseTimeString(createdRaw); err == nil {
		album.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		album.UpdatedAt = updated
	}
	return &album, nil
}
