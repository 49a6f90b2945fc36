package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"aplib-go/internal/aplib"
	"aplib-go/internal/audit"
	"aplib-go/internal/database/migrations"
)

// Outcomes stored in audit_files.outcome and audit_keys.outcome.
const (
	OutcomeParsed  = "parsed"
	OutcomeSkipped = "skipped"
	OutcomeIgnored = "ignored"
)

// Run is one saved audit of a library.
type Run struct {
	ID             string
	LibraryPath    string
	LibraryVersion string
	StartedAt      time.Time
	FinishedAt     time.Time
	ParsedFiles    int
	SkippedFiles   int
	IgnoredFiles   int
}

// FileEntry is the outcome of one file within a run.
type FileEntry struct {
	Path    string
	Outcome string
	Reason  string
}

// KeyEntry is the outcome of one key within a parsed file.
type KeyEntry struct {
	Key     string
	Outcome string
	Reason  string
}

// KeyCount is how many files of a run had key with the given outcome.
type KeyCount struct {
	Key     string
	Outcome string
	Count   int
}

// AuditStore persists audit.Reporter runs so drift across libraries and
// releases can be compared.
type AuditStore struct {
	db    *sql.DB
	path  string
	clock aplib.Clock
	ids   aplib.IDGenerator
}

// NewAuditStore opens the store at path (or ":memory:") and applies
// pending migrations. Nil clock and ids use the real implementations.
func NewAuditStore(path string, clock aplib.Clock, ids aplib.IDGenerator) (*AuditStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating audit store: %w", err)
	}
	return NewAuditStoreFromDB(db, clock, ids), nil
}

// NewAuditStoreFromDB wraps an already migrated connection.
func NewAuditStoreFromDB(db *sql.DB, clock aplib.Clock, ids aplib.IDGenerator) *AuditStore {
	if clock == nil {
		clock = aplib.RealClock{}
	}
	if ids == nil {
		ids = aplib.UUIDGenerator{}
	}
	return &AuditStore{db: db, clock: clock, ids: ids}
}

// CheckMigrations reports whether the schema is current.
func (s *AuditStore) CheckMigrations() error {
	return migrations.CheckStatus(s.db)
}

// SaveRun stores every file and key outcome of reporter as a new run and
// returns its id. The run finishes at the store's current time.
func (s *AuditStore) SaveRun(ctx context.Context, libraryPath, libraryVersion string, startedAt time.Time, reporter *audit.Reporter) (string, error) {
	id := s.ids.New()
	finishedAt := s.clock.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO audit_runs (id, library_path, library_version, started_at, finished_at, parsed_files, skipped_files, ignored_files)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, libraryPath, nullIfEmpty(libraryVersion), startedAt.UTC(), finishedAt.UTC(),
		reporter.ParsedCount(), reporter.SkippedCount(), reporter.IgnoredCount())
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	for _, path := range reporter.ParsedKeys() {
		fileID, err := insertFile(ctx, tx, id, path, OutcomeParsed, "")
		if err != nil {
			return "", err
		}
		report, _ := reporter.Report(path)
		if err := insertKeys(ctx, tx, fileID, report); err != nil {
			return "", err
		}
	}
	for _, path := range reporter.SkippedKeys() {
		reason, _ := reporter.SkipReasonFor(path)
		if _, err := insertFile(ctx, tx, id, path, OutcomeSkipped, reason.String()); err != nil {
			return "", err
		}
	}
	for _, path := range reporter.IgnoredKeys() {
		if _, err := insertFile(ctx, tx, id, path, OutcomeIgnored, ""); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

func insertFile(ctx context.Context, tx *sql.Tx, runID, path, outcome, reason string) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO audit_files (run_id, path, outcome, reason) VALUES (?, ?, ?, ?)`,
		runID, path, outcome, nullIfEmpty(reason))
	if err != nil {
		return 0, fmt.Errorf("inserting file %s: %w", path, err)
	}
	return res.LastInsertId()
}

func insertKeys(ctx context.Context, tx *sql.Tx, fileID int64, report *audit.Report) error {
	if report == nil {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO audit_keys (file_id, key, outcome, reason) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing key insert: %w", err)
	}
	defer stmt.Close()

	for _, k := range report.ParsedKeys() {
		if _, err := stmt.ExecContext(ctx, fileID, k, OutcomeParsed, nil); err != nil {
			return fmt.Errorf("inserting key %s: %w", k, err)
		}
	}
	skipped := report.Skipped()
	for _, k := range report.SkippedKeys() {
		if _, err := stmt.ExecContext(ctx, fileID, k, OutcomeSkipped, skipped[k].String()); err != nil {
			return fmt.Errorf("inserting key %s: %w", k, err)
		}
	}
	for _, k := range report.IgnoredKeys() {
		if _, err := stmt.ExecContext(ctx, fileID, k, OutcomeIgnored, nil); err != nil {
			return fmt.Errorf("inserting key %s: %w", k, err)
		}
	}
	return nil
}

// ListRuns returns the runs saved for libraryPath, newest first. An empty
// libraryPath lists every run.
func (s *AuditStore) ListRuns(ctx context.Context, libraryPath string) ([]Run, error) {
	query := `SELECT id, library_path, library_version, started_at, finished_at, parsed_files, skipped_files, ignored_files
		FROM audit_runs`
	var args []any
	if libraryPath != "" {
		query += ` WHERE library_path = ?`
		args = append(args, libraryPath)
	}
	query += ` ORDER BY started_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			version sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.LibraryPath, &version, &r.StartedAt, &r.FinishedAt,
			&r.ParsedFiles, &r.SkippedFiles, &r.IgnoredFiles); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.LibraryVersion = version.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunFiles returns the file outcomes of a run, sorted by path.
func (s *AuditStore) RunFiles(ctx context.Context, runID string) ([]FileEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, outcome, reason FROM audit_files WHERE run_id = ? ORDER BY path`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing run files: %w", err)
	}
	defer rows.Close()

	var files []FileEntry
	for rows.Next() {
		var (
			f      FileEntry
			reason sql.NullString
		)
		if err := rows.Scan(&f.Path, &f.Outcome, &reason); err != nil {
			return nil, fmt.Errorf("scanning run file: %w", err)
		}
		f.Reason = reason.String
		files = append(files, f)
	}
	return files, rows.Err()
}

// FileKeys returns the key outcomes recorded for path within a run.
func (s *AuditStore) FileKeys(ctx context.Context, runID, path string) ([]KeyEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT k.key, k.outcome, k.reason
		 FROM audit_keys k JOIN audit_files f ON f.id = k.file_id
		 WHERE f.run_id = ? AND f.path = ?
		 ORDER BY k.key`, runID, path)
	if err != nil {
		return nil, fmt.Errorf("listing file keys: %w", err)
	}
	defer rows.Close()

	var keys []KeyEntry
	for rows.Next() {
		var (
			k      KeyEntry
			reason sql.NullString
		)
		if err := rows.Scan(&k.Key, &k.Outcome, &reason); err != nil {
			return nil, fmt.Errorf("scanning file key: %w", err)
		}
		k.Reason = reason.String
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// KeyCounts folds the key outcomes of a run across files, for keys that
// were not parsed.
func (s *AuditStore) KeyCounts(ctx context.Context, runID string) ([]KeyCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT k.key, k.outcome, COUNT(*)
		 FROM audit_keys k JOIN audit_files f ON f.id = k.file_id
		 WHERE f.run_id = ? AND k.outcome != 'parsed'
		 GROUP BY k.key, k.outcome
		 ORDER BY k.key, k.outcome`, runID)
	if err != nil {
		return nil, fmt.Errorf("counting keys: %w", err)
	}
	defer rows.Close()

	var counts []KeyCount
	for rows.Next() {
		var c KeyCount
		if err := rows.Scan(&c.Key, &c.Outcome, &c.Count); err != nil {
			return nil, fmt.Errorf("scanning key count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (s *AuditStore) Close() error {
	return s.db.Close()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
