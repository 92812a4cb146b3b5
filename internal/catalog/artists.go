package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cadence/internal/textutil"
)

// GetOrCreateArtist finds an artist by normalized name, inserting a new row
// when none exists. A concurrent insert losing on the norm_name constraint
// falls back to the winner's row.
func (s *Store) GetOrCreateArtist(ctx context.Context, name, path string) (*Artist, error) {
	norm := textutil.NormalizeKey(name)
	if norm == "" {
		return nil, errors.New("artist name normalizes to empty")
	}

	artist, err := s.FindArtistByNormName(ctx, norm)
	if err != nil {
		return nil, err
	}
	if artist != nil {
		return artist, nil
	}

	res, err := s.execWithRetry(ctx,
		`INSERT INTO artists (name, norm_name, path) VALUES (?, ?, ?)`,
		name, norm, path,
	)
	if err != nil {
		if IsConstraintViolation(err) {
			return s.FindArtistByNormName(ctx, norm)
		}
		return nil, fmt.Errorf("insert artist: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &Artist{ID: id, Name: name, NormName: norm, Path: path}, nil
}

// GetArtist fetches an artist by identifier, returning nil when absent.
func (s *Store) GetArtist(ctx context.Context, id int64) (*Artist, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, norm_name, path FROM artists WHERE id = ?`, id)
	return scanArtist(row)
}

// FindArtistByNormName fetches an artist by dedup key, returning nil when absent.
func (s *Store) FindArtistByNormName(ctx context.Context, norm string) (*Artist, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, norm_name, path FROM artists WHERE norm_name = ?`, norm)
	return scanArtist(row)
}

// FindArtistByName fetches an artist by the dedup key derived from name.
func (s *Store) FindArtistByName(ctx context.Context, name string) (*Artist, error) {
	return s.FindArtistByNormName(ctx, textutil.NormalizeKey(name))
}

// ListArtists returns all artists ordered by name.
func (s *Store) ListArtists(ctx context.Context) ([]*Artist, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, norm_name, path FROM artists ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list artists: %w", err)
	}
	defer rows.Close()

	var artists []*Artist
	for rows.Next() {
		artist, err := scanArtist(rows)
		if err != nil {
			return nil, err
		}
		artists = append(artists, artist)
	}
	return artists, rows.Err()
}

func scanArtist(scanner interface{ Scan(dest ...any) error }) (*Artist, error) {
	var (
		artist Artist
		path   sql.NullString
	)
	if err := scanner.Scan(&artist.ID, &artist.Name, &artist.NormName, &path); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan artist: %w", err)
	}
	artist.Path = path.String
	return &artist, nil
}
