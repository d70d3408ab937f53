package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dshills/sift/internal/classify"
	"github.com/dshills/sift/internal/finding"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

// timeLayout is fixed width so stored timestamps order correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one persisted review.
type Run struct {
	ID         string             `json:"runId"`
	Repo       string             `json:"repo,omitempty"`
	PR         int                `json:"pr,omitempty"`
	Ref        string             `json:"ref,omitempty"`
	Status     string             `json:"status"`
	Reason     string             `json:"reason,omitempty"`
	StartedAt  time.Time          `json:"startedAt"`
	FinishedAt time.Time          `json:"finishedAt"`
	Model      string             `json:"model,omitempty"`
	Tier       string             `json:"tier,omitempty"`
	Stats      classify.Stats     `json:"stats"`
	Findings   []*finding.Finding `json:"findings"`
}

// RunRow is the summary shown in run listings.
type RunRow struct {
	ID        string
	Repo      string
	PR        int
	Status    string
	StartedAt time.Time
	Findings  int
	Active    int
}

// DB is the SQLite-backed store.
type DB struct {
	conn *sql.DB
}

// Open opens or creates the database at path and ensures the schema exists.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	db := &DB{conn: conn}
	if err := db.CreateSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the connection.
func (db *DB) Close() error { return db.conn.Close() }

// CreateSchema creates missing tables and indexes.
func (db *DB) CreateSchema() error {
	_, err := db.conn.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  id         TEXT PRIMARY KEY,
  repo       TEXT NOT NULL DEFAULT '',
  pr         INTEGER NOT NULL DEFAULT 0,
  status     TEXT NOT NULL,
  started_at TEXT NOT NULL,
  run_json   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS findings (
  fingerprint TEXT NOT NULL,
  run_id      TEXT NOT NULL,
  repo        TEXT NOT NULL DEFAULT '',
  pr          INTEGER NOT NULL DEFAULT 0,
  file_path   TEXT NOT NULL,
  line_start  INTEGER,
  source      TEXT NOT NULL,
  rule_id     TEXT,
  severity    TEXT NOT NULL,
  title       TEXT NOT NULL,
  suppressed  INTEGER NOT NULL DEFAULT 0,
  reason      TEXT,
  PRIMARY KEY (fingerprint, run_id),
  FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_findings_scope ON findings(repo, pr);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// SaveRun upserts run and rewrites its findings.
func (db *DB) SaveRun(ctx context.Context, run *Run) error {
	b, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshaling run: %w", err)
	}
	ts := run.StartedAt.UTC().Format(timeLayout)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, repo, pr, status, started_at, run_json)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET repo=excluded.repo, pr=excluded.pr, status=excluded.status,
           started_at=excluded.started_at, run_json=excluded.run_json`,
		run.ID, run.Repo, run.PR, run.Status, ts, string(b),
	); err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM findings WHERE run_id = ?`, run.ID); err != nil {
		return err
	}
	if len(run.Findings) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO findings
			(fingerprint, run_id, repo, pr, file_path, line_start, source, rule_id, severity, title, suppressed, reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, f := range run.Findings {
			var line sql.NullInt64
			if f.LineStart != nil {
				line = sql.NullInt64{Int64: int64(*f.LineStart), Valid: true}
			}
			if _, err := stmt.ExecContext(ctx,
				f.Fingerprint,
				run.ID,
				run.Repo,
				run.PR,
				f.FilePath,
				line,
				string(f.Source),
				nullString(f.RuleID),
				string(f.Severity),
				f.Title,
				f.Suppressed,
				nullString(f.SuppressionReason),
			); err != nil {
				return fmt.Errorf("saving finding: %w", err)
			}
		}
	}
	return tx.Commit()
}

// LoadRun returns the stored run with id.
func (db *DB) LoadRun(ctx context.Context, id string) (*Run, error) {
	var s string
	err := db.conn.QueryRowContext(ctx, `SELECT run_json FROM runs WHERE id = ?`, id).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var run Run
	if err := json.Unmarshal([]byte(s), &run); err != nil {
		return nil, fmt.Errorf("decoding run %s: %w", id, err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs, newest first. An empty repo lists
// every repository.
func (db *DB) ListRuns(ctx context.Context, repo string, limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
		SELECT r.id, r.repo, r.pr, r.status, r.started_at,
		       (SELECT COUNT(1) FROM findings f WHERE f.run_id = r.id),
		       (SELECT COUNT(1) FROM findings f WHERE f.run_id = r.id AND f.suppressed = 0)
		  FROM runs r
		 WHERE (? = '' OR r.repo = ?)
		 ORDER BY r.started_at DESC, r.id DESC
		 LIMIT ?`
	rows, err := db.conn.QueryContext(ctx, q, repo, repo, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var rr RunRow
		var startedAt string
		if err := rows.Scan(&rr.ID, &rr.Repo, &rr.PR, &rr.Status, &startedAt, &rr.Findings, &rr.Active); err != nil {
			return nil, err
		}
		if t, err := time.Parse(timeLayout, startedAt); err == nil {
			rr.StartedAt = t
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}

// PriorFingerprints returns the fingerprints of findings that were surfaced
// (not suppressed) by earlier runs on repo and pr. The run excludeRunID is
// ignored so a re-saved run does not dedupe against itself.
func (db *DB) PriorFingerprints(ctx context.Context, repo string, pr int, excludeRunID string) (classify.FingerprintSet, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT DISTINCT fingerprint FROM findings
		 WHERE repo = ? AND pr = ? AND run_id <> ? AND suppressed = 0`,
		repo, pr, excludeRunID)
	if err != nil {
		return nil, fmt.Errorf("querying fingerprints: %w", err)
	}
	defer rows.Close()

	set := classify.NewFingerprintSet()
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, err
		}
		set[fp] = struct{}{}
	}
	return set, rows.Err()
}

// DeleteRunsBefore removes runs started before cutoff and returns how many
// were deleted.
func (db *DB) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`,
		cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("pruning runs: %w", err)
	}
	return res.RowsAffected()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
