package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// LogDuplicate appends an audit record for a discarded duplicate candidate.
func (s *Store) LogDuplicate(ctx context.Context, record *DuplicateRecord) error {
	res, err := s.execWithRetry(ctx,
		`INSERT INTO duplicate_log (checksum, existing_track_id, decision, source, source_url, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		record.Checksum,
		record.ExistingTrackID,
		record.Decision,
		nullableString(record.Source),
		nullableString(record.SourceURL),
		timestamp(),
	)
	if err != nil {
		return fmt.Errorf("log duplicate: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		record.ID = id
	}
	return nil
}

// DuplicatesByChecksum returns audit records for one content checksum.
func (s *Store) DuplicatesByChecksum(ctx context.Context, sum string) ([]*DuplicateRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, checksum, existing_track_id, decision, source, source_url, created_at
         FROM duplicate_log WHERE checksum = ? ORDER BY id`, sum)
	if err != nil {
		return nil, fmt.Errorf("duplicates by checksum: %w", err)
	}
	defer rows.Close()

	var records []*DuplicateRecord
	for rows.Next() {
		var (
			record     DuplicateRecord
			source     sql.NullString
			sourceURL  sql.NullString
			createdRaw string
		)
		if err := rows.Scan(&record.ID, &record.Checksum, &record.ExistingTrackID,
			&record.Decision, &source, &sourceURL, &createdRaw); err != nil {
			return nil, err
		}
		record.Source = source.String
		record.SourceURL = sourceURL.String
		if created, err := parseTimeString(createdRaw); err == nil {
			record.CreatedAt = created
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}
