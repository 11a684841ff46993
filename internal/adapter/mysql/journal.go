package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"worklog-sync/internal/domain"
)

// Journal implements ports.Journal on the worklog_submissions table.
type Journal struct {
	db  *sql.DB
	log *slog.Logger
}

// Open connects using dsn. The schema comes from migrate.Run.
// Example DSN: user:pass@tcp(host:3306)/dbname?parseTime=true&multiStatements=true
func Open(ctx context.Context, dsn string, log *slog.Logger) (*Journal, error) {
	if dsn == "" {
		return nil, errors.New("mysql: DSN is required")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(c); err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db, log: log}, nil
}

// Record upserts outcomes keyed by run, date, entry index and attempt.
func (j *Journal) Record(ctx context.Context, outcomes []domain.Outcome) error {
	if len(outcomes) == 0 {
		return nil
	}
	tx, err := j.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	const q = `
INSERT INTO worklog_submissions
  (run_id, spent_on, entry_index, attempt, project, subject, activity, hours, task_id, disposition, status, error, recorded_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  project=VALUES(project),
  subject=VALUES(subject),
  activity=VALUES(activity),
  hours=VALUES(hours),
  task_id=VALUES(task_id),
  disposition=VALUES(disposition),
  status=VALUES(status),
  error=VALUES(error),
  recorded_at=VALUES(recorded_at);
`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, o := range outcomes {
		r := o.Row()
		var task interface{}
		if r.TaskID != nil {
			task = *r.TaskID
		}
		at := r.RecordedAt
		if at.IsZero() {
			at = time.Now()
		}
		if _, err := stmt.ExecContext(
			ctx,
			r.RunID,
			r.SpentOn,
			r.Index,
			r.Attempt,
			r.Project,
			r.Subject,
			r.Activity,
			r.Hours,
			task,
			r.Disposition,
			r.Status,
			r.Error,
			at.UTC(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record entry %d of %s: %w", r.Index, r.SpentOn, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	j.log.Info("mysql journal upserted outcomes", slog.Int("count", len(outcomes)))
	return nil
}

// Recent returns up to limit rows, newest first. The DSN must set
// parseTime=true.
func (j *Journal) Recent(ctx context.Context, limit int) ([]domain.JournalRow, error) {
	rows, err := j.db.QueryContext(ctx, `
SELECT run_id, DATE_FORMAT(spent_on, '%Y-%m-%d'), entry_index, attempt, project, subject, activity, hours,
       task_id, disposition, status, error, recorded_at
FROM worklog_submissions
ORDER BY recorded_at DESC, entry_index, attempt DESC
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

// Close closes the underlying DB.
func (j *Journal) Close() error { return j.db.Close() }
