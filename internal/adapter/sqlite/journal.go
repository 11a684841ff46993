// Package sqlite keeps the submission journal in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"worklog-sync/internal/domain"
)

// Journal implements ports.Journal on a SQLite database.
type Journal struct {
	db  *sql.DB
	log *slog.Logger
}

// Open creates the database file and its directory if needed and ensures
// the schema exists.
func Open(path string, log *slog.Logger) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	j := &Journal{db: db, log: log}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return j, nil
}

func (j *Journal) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS submissions (
		run_id TEXT NOT NULL,
		spent_on TEXT NOT NULL,
		entry_index INTEGER NOT NULL,
		attempt INTEGER NOT NULL,
		project TEXT NOT NULL,
		subject TEXT NOT NULL,
		activity TEXT NOT NULL,
		hours REAL NOT NULL,
		task_id INTEGER,
		disposition TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		recorded_at DATETIME NOT NULL,
		PRIMARY KEY (run_id, spent_on, entry_index, attempt)
	);

	CREATE INDEX IF NOT EXISTS idx_submissions_recorded_at ON submissions(recorded_at);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Record upserts outcomes in one transaction.
func (j *Journal) Record(ctx context.Context, outcomes []domain.Outcome) error {
	if len(outcomes) == 0 {
		return nil
	}
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO submissions
  (run_id, spent_on, entry_index, attempt, project, subject, activity, hours, task_id, disposition, status, error, recorded_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id, spent_on, entry_index, attempt) DO UPDATE SET
  project=excluded.project,
  subject=excluded.subject,
  activity=excluded.activity,
  hours=excluded.hours,
  task_id=excluded.task_id,
  disposition=excluded.disposition,
  status=excluded.status,
  error=excluded.error,
  recorded_at=excluded.recorded_at`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, o := range outcomes {
		r := o.Row()
		var task any
		if r.TaskID != nil {
			task = *r.TaskID
		}
		at := r.RecordedAt
		if at.IsZero() {
			at = time.Now()
		}
		if _, err := stmt.ExecContext(ctx,
			r.RunID, r.SpentOn, r.Index, r.Attempt,
			r.Project, r.Subject, r.Activity, r.Hours,
			task, r.Disposition, r.Status, r.Error, at.UTC(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record entry %d of %s: %w", r.Index, r.SpentOn, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	j.log.Debug("journal recorded outcomes", slog.Int("count", len(outcomes)))
	return nil
}

// Recent returns up to limit rows, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]domain.JournalRow, error) {
	rows, err := j.db.QueryContext(ctx, `
SELECT run_id, spent_on, entry_index, attempt, project, subject, activity, hours, task_id, disposition, status, error, recorded_at
FROM submissions
ORDER BY recorded_at DESC, run_id, spent_on, entry_index, attempt DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var out []domain.JournalRow
	for rows.Next() {
		var r domain.JournalRow
		var task sql.NullInt64
		if err := rows.Scan(&r.RunID, &r.SpentOn, &r.Index, &r.Attempt, &r.Project, &r.Subject, &r.Activity,
			&r.Hours, &task, &r.Disposition, &r.Status, &r.Error, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		if task.Valid {
			id := task.Int64
			r.TaskID = &id
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (j *Journal) Close() error { return j.db.Close() }
