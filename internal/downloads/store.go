package downloads

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"cadence/internal/config"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

var (
	// ErrNotFound reports a lookup for a download id that does not exist.
	ErrNotFound = errors.New("download not found")
	// ErrIllegalTransition reports a refused status change, either because
	// the transition table forbids it or because the row moved on first.
	ErrIllegalTransition = errors.New("illegal status transition")
	// ErrNotCancellable reports a cancellation attempt past the boundary.
	ErrNotCancellable = errors.New("download is not cancellable")
	// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
	ErrSchemaMismatch = errors.New("schema version mismatch")
)

// Store persists downloads in SQLite and guards every status change against
// the transition table.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the downloads database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.LogDir, "downloads.db"))
}

// OpenPath opens the downloads database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

const downloadColumns = `id, consumer, source, source_url, search_query, status,
	progress, speed, eta, error_message, staged_path, last_heartbeat, created_at, updated_at`

// Create inserts a new download in pending state and fills in its id.
func (s *Store) Create(ctx context.Context, d *Download) error {
	if d.Status == "" {
		d.Status = StatusPending
	}
	now := timestamp()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO downloads (consumer, source, source_url, search_query, status,
			progress, speed, eta, error_message, staged_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Consumer,
		d.Source,
		nullableString(d.SourceURL),
		nullableString(d.SearchQuery),
		string(d.Status),
		d.Progress,
		nullableString(d.Speed),
		nullableString(d.Eta),
		nullableString(d.ErrorMessage),
		nullableString(d.StagedPath),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("insert download: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("download id: %w", err)
	}
	d.ID = id
	return nil
}

// Get fetches a download by identifier.
func (s *Store) Get(ctx context.Context, id int64) (*Download, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+downloadColumns+` FROM downloads WHERE id = ?`, id)
	d, err := scanDownload(row)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return d, nil
}

// List returns downloads filtered by status, oldest first. With no statuses
// it returns everything.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Download, error) {
	query := `SELECT ` + downloadColumns + ` FROM downloads`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		query += ` WHERE status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list downloads: %w", err)
	}
	defer rows.Close()

	var result []*Download
	for rows.Next() {
		d, err := scanDownload(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// NextForStatus returns the oldest download in the given status, or nil.
func (s *Store) NextForStatus(ctx context.Context, status Status) (*Download, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+downloadColumns+` FROM downloads WHERE status = ? ORDER BY created_at, id LIMIT 1`,
		string(status),
	)
	return scanDownload(row)
}

// Transition moves a download from one status to another, refusing anything
// the transition table does not allow. The status check and the update are a
// single conditional statement, so a concurrent writer that moved the row
// first causes this call to fail rather than clobber.
func (s *Store) Transition(ctx context.Context, id int64, from, to Status) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE downloads SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), timestamp(), id, string(from),
	)
	if err != nil {
		return fmt.Errorf("transition download %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition download %d: %w", id, err)
	}
	if affected == 0 {
		return s.transitionConflict(ctx, id, from, to)
	}
	return nil
}

func (s *Store) transitionConflict(ctx context.Context, id int64, from, to Status) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s -> %s, download %d is %s", ErrIllegalTransition, from, to, id, current.Status)
}

// UpdateProgress records advisory progress fields. It never changes status.
func (s *Store) UpdateProgress(ctx context.Context, id int64, percent float64, speed, eta string) error {
	if _, err := s.execWithRetry(ctx,
		`UPDATE downloads SET progress = ?, speed = ?, eta = ?, updated_at = ? WHERE id = ?`,
		percent, nullableString(speed), nullableString(eta), timestamp(), id,
	); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// SetStagedPath records where the acquirer left the files.
func (s *Store) SetStagedPath(ctx context.Context, id int64, stagedPath string) error {
	if _, err := s.execWithRetry(ctx,
		`UPDATE downloads SET staged_path = ?, updated_at = ? WHERE id = ?`,
		nullableString(stagedPath), timestamp(), id,
	); err != nil {
		return fmt.Errorf("set staged path: %w", err)
	}
	return nil
}

// Fail transitions a download to the given failure-side status with a
// user-visible message. Only failed and pending_review are accepted.
func (s *Store) Fail(ctx context.Context, id int64, from, to Status, message string) error {
	if to != StatusFailed && to != StatusPendingReview {
		return fmt.Errorf("%w: %s is not a failure status", ErrIllegalTransition, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE downloads SET status = ?, error_message = ?, last_heartbeat = NULL, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(to), nullableString(message), timestamp(), id, string(from),
	)
	if err != nil {
		return fmt.Errorf("fail download %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("fail download %d: %w", id, err)
	}
	if affected == 0 {
		return s.transitionConflict(ctx, id, from, to)
	}
	return nil
}

// Cancel honors cancellation only before importing begins. Past that boundary
// the operation must reach a terminal state on its own.
func (s *Store) Cancel(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE downloads SET status = ?, last_heartbeat = NULL, updated_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		string(StatusCancelled), timestamp(), id,
		string(StatusPending), string(StatusDownloading),
	)
	if err != nil {
		return fmt.Errorf("cancel download %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancel download %d: %w", id, err)
	}
	if affected == 0 {
		current, getErr := s.Get(ctx, id)
		if getErr != nil {
			return getErr
		}
		return fmt.Errorf("%w: download %d is %s", ErrNotCancellable, id, current.Status)
	}
	return nil
}

// Retry moves a failed download back to pending. The stale staged path and
// error message are discarded so the retry re-enters the front of the
// pipeline rather than reusing files a collaborator may have cleaned up.
func (s *Store) Retry(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE downloads SET status = ?, progress = 0, speed = NULL, eta = NULL,
			error_message = NULL, staged_path = NULL, last_heartbeat = NULL, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(StatusPending), timestamp(), id, string(StatusFailed),
	)
	if err != nil {
		return fmt.Errorf("retry download %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("retry download %d: %w", id, err)
	}
	if affected == 0 {
		return s.transitionConflict(ctx, id, StatusFailed, StatusPending)
	}
	return nil
}

// Dismiss hides a failed download from the queue without retrying it.
func (s *Store) Dismiss(ctx context.Context, id int64) error {
	return s.Transition(ctx, id, StatusFailed, StatusDismissed)
}

// UpdateHeartbeat records liveness for an in-flight download.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := timestamp()
	if _, err := s.execWithRetry(ctx,
		`UPDATE downloads SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		now, now, id,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ReclaimStale recovers downloads abandoned by a dead worker. Stale
// downloading rows go back to pending for a clean retry; stale importing rows
// are failed instead, because files may already have moved and the import
// must not silently restart.
func (s *Store) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	now := timestamp()
	cut := cutoff.UTC().Format(time.RFC3339Nano)
	total := int64(0)

	res, err := s.execWithRetry(ctx,
		`UPDATE downloads SET status = ?, progress = 0, speed = NULL, eta = NULL,
			staged_path = NULL, last_heartbeat = NULL, updated_at = ?
		WHERE status = ? AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
		string(StatusPending), now, string(StatusDownloading), cut,
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale downloading: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil {
		total += affected
	}

	res, err = s.execWithRetry(ctx,
		`UPDATE downloads SET status = ?, error_message = ?, last_heartbeat = NULL, updated_at = ?
		WHERE status = ? AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
		string(StatusFailed), "worker lost during import", now, string(StatusImporting), cut,
	)
	if err != nil {
		return total, fmt.Errorf("reclaim stale importing: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil {
		total += affected
	}
	return total, nil
}

// Clear deletes downloads in the given terminal statuses and returns how many
// rows were removed.
func (s *Store) Clear(ctx context.Context, statuses ...Status) (int64, error) {
	if len(statuses) == 0 {
		statuses = []Status{StatusComplete, StatusDuplicate, StatusCancelled, StatusDismissed}
	}
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		if !IsTerminal(status) && status != StatusFailed {
			return 0, fmt.Errorf("refusing to clear non-terminal status %s", status)
		}
		placeholders[i] = "?"
		args[i] = string(status)
	}
	res, err := s.execWithRetry(ctx,
		`DELETE FROM downloads WHERE status IN (`+strings.Join(placeholders, ", ")+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("clear downloads: %w", err)
	}
	return res.RowsAffected()
}

// CountByStatus returns download counts keyed by status.
func (s *Store) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM downloads GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count downloads: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[Status(status)] = count
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDownload(row rowScanner) (*Download, error) {
	var (
		d             Download
		status        string
		sourceURL     sql.NullString
		searchQuery   sql.NullString
		speed         sql.NullString
		eta           sql.NullString
		errorMessage  sql.NullString
		stagedPath    sql.NullString
		lastHeartbeat sql.NullString
		createdAt     string
		updatedAt     string
	)
	err := row.Scan(
		&d.ID, &d.Consumer, &d.Source, &sourceURL, &searchQuery, &status,
		&d.Progress, &speed, &eta, &errorMessage, &stagedPath, &lastHeartbeat,
		&createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan download: %w", err)
	}
	d.Status = Status(status)
	d.SourceURL = sourceURL.String
	d.SearchQuery = searchQuery.String
	d.Speed = speed.String
	d.Eta = eta.String
	d.ErrorMessage = errorMessage.String
	d.StagedPath = stagedPath.String
	if lastHeartbeat.Valid {
		if t, parseErr := parseTimeString(lastHeartbeat.String); parseErr == nil {
			d.LastHeartbeat = &t
		}
	}
	if t, parseErr := parseTimeString(createdAt); parseErr == nil {
		d.CreatedAt = t
	}
	if t, parseErr := parseTimeString(updatedAt); parseErr == nil {
		d.UpdatedAt = t
	}
	return &d, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
