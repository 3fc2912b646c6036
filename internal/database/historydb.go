package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/passkeydir/internal/model"
)

// FileName is the name of the history database inside its directory.
const FileName = "history.db"

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("not found")

// HistoryDB stores the records produced by each crawl run.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// With CreateIfNotExists unset, a missing database is an error.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s: %w", dbPath, err)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a new file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

func (hdb *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		total INTEGER NOT NULL,
		enriched INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS records (
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		domain TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		icon TEXT NOT NULL,
		enroll TEXT NOT NULL,
		manage TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_records_domain ON records(domain);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// Run is the metadata of one stored crawl run.
type Run struct {
	// ID increases with every saved run.
	ID int64

	StartedAt  time.Time
	FinishedAt time.Time

	// Total is the number of records in the run.
	Total int

	// Enriched is the number of records that carry any enrichment.
	Enriched int
}

// Entry is one domain's record as stored in a run.
type Entry struct {
	RunID     int64
	StartedAt time.Time
	Record    model.DomainRecord
}

// SaveRun stores the records of one crawl run in a single transaction and
// returns the new run ID.
func (hdb *HistoryDB) SaveRun(ctx context.Context, startedAt, finishedAt time.Time, records []model.DomainRecord) (int64, error) {
	enriched := 0
	for _, r := range records {
		if !r.IsDegraded() {
			enriched++
		}
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // Rollback after Commit is a no-op

	result, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, finished_at, total, enriched) VALUES (?, ?, ?, ?)`,
		formatTimestamp(startedAt),
		formatTimestamp(finishedAt),
		len(records),
		enriched,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO records (run_id, position, domain, name, description, icon, enroll, manage)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx,
			runID,
			i,
			r.Domain,
			r.Name,
			r.Description,
			r.Icon,
			r.Endpoints.Enroll,
			r.Endpoints.Manage,
		); err != nil {
			return 0, fmt.Errorf("failed to insert record %q: %w", r.Domain, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// ListRuns returns stored runs, newest first. A limit of 0 or less returns
// every run.
func (hdb *HistoryDB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, started_at, finished_at, total, enriched FROM runs ORDER BY id DESC`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished string
		if err := rows.Scan(&run.ID, &started, &finished, &run.Total, &run.Enriched); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt = parseTimestamp(started)
		run.FinishedAt = parseTimestamp(finished)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunRecords returns the records of one run in their original order.
// It returns ErrNotFound when the run does not exist.
func (hdb *HistoryDB) RunRecords(ctx context.Context, runID int64) ([]model.DomainRecord, error) {
	var exists int
	err := hdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to look up run %d: %w", runID, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}

	rows, err := hdb.db.QueryContext(ctx, `
	SELECT domain, name, description, icon, enroll, manage
	FROM records
	WHERE run_id = ?
	ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run records: %w", err)
	}
	defer rows.Close()

	records := make([]model.DomainRecord, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// LatestRecords returns the records of the most recent run keyed by domain,
// keeping the first record of a domain listed more than once. It returns an
// empty map and run ID 0 when no run has been stored yet.
func (hdb *HistoryDB) LatestRecords(ctx context.Context) (map[string]model.DomainRecord, int64, error) {
	var runID int64
	err := hdb.db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY id DESC LIMIT 1`).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return map[string]model.DomainRecord{}, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get latest run: %w", err)
	}

	records, err := hdb.RunRecords(ctx, runID)
	if err != nil {
		return nil, 0, err
	}

	byDomain := make(map[string]model.DomainRecord, len(records))
	for _, r := range records {
		if _, ok := byDomain[r.Domain]; !ok {
			byDomain[r.Domain] = r
		}
	}
	return byDomain, runID, nil
}

// DomainHistory returns every stored record of a domain, newest run first.
func (hdb *HistoryDB) DomainHistory(ctx context.Context, domain string) ([]Entry, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT r.run_id, runs.started_at, r.domain, r.name, r.description, r.icon, r.enroll, r.manage
	FROM records r
	JOIN runs ON runs.id = r.run_id
	WHERE r.domain = ?
	ORDER BY r.run_id DESC, r.position
	`, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to get domain history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	var lastRun int64 = -1
	for rows.Next() {
		var e Entry
		var started string
		if err := rows.Scan(
			&e.RunID,
			&started,
			&e.Record.Domain,
			&e.Record.Name,
			&e.Record.Description,
			&e.Record.Icon,
			&e.Record.Endpoints.Enroll,
			&e.Record.Endpoints.Manage,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		// One entry per run even when the domain was listed twice.
		if e.RunID == lastRun {
			continue
		}
		lastRun = e.RunID
		e.StartedAt = parseTimestamp(started)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Changes compares the latest record of every domain in records against
// the latest stored run. Domains that are new or unchanged are omitted.
func (hdb *HistoryDB) Changes(ctx context.Context, records []model.DomainRecord) (map[string][]model.RecordChange, error) {
	previous, _, err := hdb.LatestRecords(ctx)
	if err != nil {
		return nil, err
	}

	changes := make(map[string][]model.RecordChange)
	for _, r := range records {
		prev, ok := previous[r.Domain]
		if !ok {
			continue
		}
		if _, done := changes[r.Domain]; done {
			continue
		}
		if diff := model.DiffRecords(prev, r); len(diff) > 0 {
			changes[r.Domain] = diff
		}
	}
	return changes, nil
}

func scanRecord(rows *sql.Rows) (model.DomainRecord, error) {
	var r model.DomainRecord
	if err := rows.Scan(
		&r.Domain,
		&r.Name,
		&r.Description,
		&r.Icon,
		&r.Endpoints.Enroll,
		&r.Endpoints.Manage,
	); err != nil {
		return model.DomainRecord{}, fmt.Errorf("failed to scan record: %w", err)
	}
	return r, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats are tried in order when reading timestamps back.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
