package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"credence/internal/config"
	"credence/internal/credential"
)

// Store manages scan-history persistence backed by SQLite. A file lock next
// to the database serializes writers across concurrent CLI invocations.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open initializes or connects to the history database and verifies its
// schema.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("history requires configuration")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := strings.TrimSpace(cfg.History.Path)
	if dbPath == "" {
		dbPath = filepath.Join(cfg.Paths.CacheDir, "history.db")
	}

	lock := flock.New(dbPath + ".lock")
	lockCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ok, err := lock.TryLockContext(lockCtx, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("acquire history lock: %w", err)
	}
	if !ok {
		return nil, errors.New("history database is locked by another credence process")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
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
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, lock: lock}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}

	return store, nil
}

// Close releases the database connection and the writer lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var closeErr error
	if s.db != nil {
		closeErr = s.db.Close()
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil && closeErr == nil {
			closeErr = err
		}
	}
	return closeErr
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Record persists one completed detection.
func (s *Store) Record(ctx context.Context, detection *credential.Detection) error {
	if detection == nil {
		return errors.New("detection is nil")
	}

	detectionJSON, err := json.Marshal(detection)
	if err != nil {
		return fmt.Errorf("marshal detection: %w", err)
	}

	identifier := ""
	schema := ""
	if detection.Watermark != nil {
		identifier = detection.Watermark.Identifier
		schema = string(detection.Watermark.Schema)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO scans (
            scan_id, source, outcome, mime_type, identifier, schema,
            trust_warning, decoder_note, detection_json,
            started_at, finished_at, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		detection.Diagnostics.ScanID,
		detection.Diagnostics.Source,
		string(detection.Outcome),
		nullableString(detection.Diagnostics.MIME),
		nullableString(identifier),
		nullableString(schema),
		nullableString(detection.Diagnostics.TrustWarning),
		nullableString(detection.Diagnostics.DecoderNote),
		string(detectionJSON),
		detection.Diagnostics.StartedAt.UTC().Format(time.RFC3339Nano),
		detection.Diagnostics.FinishedAt.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}
	return nil
}

// GetByScanID fetches one recorded scan. Returns nil when no row matches.
func (s *Store) GetByScanID(ctx context.Context, scanID string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM scans WHERE scan_id = ?`, scanID)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get scan: %w", err)
	}
	return entry, nil
}

// List returns recorded scans, newest first, capped at limit. A zero limit
// returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM scans ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Stats returns a count of recorded scans grouped by outcome.
func (s *Store) Stats(ctx context.Context) (map[credential.Outcome]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT outcome, COUNT(1) FROM scans GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("history stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[credential.Outcome]int)
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, err
		}
		stats[credential.Outcome(outcome)] = count
	}
	return stats, rows.Err()
}

// Clear removes all recorded scans.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scans`)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

const entryColumns = "id, scan_id, source, outcome, mime_type, identifier, schema, trust_warning, decoder_note, detection_json, started_at, finished_at, created_at"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		id           int64
		scanID       string
		source       string
		outcome      string
		mimeType     sql.NullString
		identifier   sql.NullString
		schema       sql.NullString
		trustWarning sql.NullString
		decoderNote  sql.NullString
		detection    string
		startedRaw   string
		finishedRaw  string
		createdRaw   string
	)

	if err := scanner.Scan(
		&id,
		&scanID,
		&source,
		&outcome,
		&mimeType,
		&identifier,
		&schema,
		&trustWarning,
		&decoderNote,
		&detection,
		&startedRaw,
		&finishedRaw,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:            id,
		ScanID:        scanID,
		Source:        source,
		Outcome:       credential.Outcome(outcome),
		MIME:          mimeType.String,
		Identifier:    identifier.String,
		Schema:        schema.String,
		TrustWarning:  trustWarning.String,
		DecoderNote:   decoderNote.String,
		DetectionJSON: detection,
	}

	if started, err := parseTimeString(startedRaw); err == nil {
		entry.StartedAt = started
	}
	if finished, err := parseTimeString(finishedRaw); err == nil {
		entry.FinishedAt = finished
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		entry.CreatedAt = created
	}
	return entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
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
