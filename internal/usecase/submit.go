package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"worklog-sync/internal/domain"
	"worklog-sync/internal/ports"
)

// Stages at which an entry can fail.
const (
	StageReconcile = "reconcile"
	StageDuplicate = "duplicate-check"
	StageSubmit    = "create-time-entry"
)

// SubmissionError is the failure of one entry.
type SubmissionError struct {
	Stage string
	Entry domain.ScheduledEntry
	Err   error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s [%s] %s: %v", e.Stage, e.Entry.Project, e.Entry.Subject, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// Messages returns the server's validation messages, one per line when
// displayed, or the error text when the server gave none.
func (e *SubmissionError) Messages() []string {
	var re *domain.RemoteError
	if errors.As(e.Err, &re) && len(re.Messages) > 0 {
		return re.Messages
	}
	return []string{e.Err.Error()}
}

// DayResult collects the outcomes of one day's batch.
type DayResult struct {
	Date      domain.Date
	Submitted []domain.Outcome
	Skipped   []domain.Outcome
	Failed    []domain.Outcome
}

// All returns every outcome in processing order groups.
func (r DayResult) All() []domain.Outcome {
	out := make([]domain.Outcome, 0, len(r.Submitted)+len(r.Skipped)+len(r.Failed))
	out = append(out, r.Submitted...)
	out = append(out, r.Skipped...)
	return append(out, r.Failed...)
}

// Driver reconciles and submits scheduled entries one at a time.
type Driver struct {
	Log        *slog.Logger
	Remote     ports.TaskService
	Reconciler *Reconciler
	Catalog    domain.Catalog
	Retry      RetryPolicy
	RunID      string
	Now        func() time.Time
}

func (d *Driver) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

// Submit creates the time record for e, whose TaskID must be resolved.
func (d *Driver) Submit(ctx context.Context, e domain.ScheduledEntry) (domain.TimeRecord, error) {
	if e.TaskID == 0 {
		return domain.TimeRecord{}, &SubmissionError{Stage: StageSubmit, Entry: e, Err: domain.ErrNoTask}
	}
	activityID, ok := d.Catalog.ActivityID(e.Activity)
	if !ok {
		activityID, _ = d.Catalog.ActivityID("Development")
	}
	rec, err := d.Remote.CreateTimeRecord(ctx, domain.NewTimeRecord{
		TaskID:     e.TaskID,
		SpentOn:    e.Date,
		Hours:      e.Hours,
		ActivityID: activityID,
		Comment:    e.Comment(),
	})
	if err != nil {
		return domain.TimeRecord{}, &SubmissionError{Stage: StageSubmit, Entry: e, Err: err}
	}
	return rec, nil
}

// ProcessDay runs reconcile, duplicate check and submit for every entry of
// day in order. One entry failing never stops the others. opts holds the
// operator's choices for new tasks, keyed by entry index.
func (d *Driver) ProcessDay(ctx context.Context, day domain.DaySchedule, opts map[int]TaskOptions) DayResult {
	res := DayResult{Date: day.Date}
	total := len(day.Entries)
	for i, e := range day.Entries {
		d.Log.Info("processing entry",
			slog.Int("n", i+1), slog.Int("of", total),
			slog.String("project", e.Project), slog.String("subject", e.Subject),
			slog.String("start", e.Start.Format("15:04")), slog.String("end", e.End.Format("15:04")),
			slog.Float64("hours", e.Hours), slog.String("activity", e.Activity))

		out := d.processEntry(ctx, e, opts[e.Index])
		switch out.Status {
		case domain.StatusSubmitted:
			d.Log.Info("created time entry", slog.Int64("id", out.RecordID), slog.Int64("task_id", out.Entry.TaskID))
			res.Submitted = append(res.Submitted, out)
		case domain.StatusSkipped:
			d.Log.Info("time entry already exists, skipping", slog.String("date", day.Date.String()), slog.Int64("task_id", out.Entry.TaskID))
			res.Skipped = append(res.Skipped, out)
		case domain.StatusFailed:
			d.Log.Error("entry failed", slog.String("error", out.ErrText()))
			res.Failed = append(res.Failed, out)
		}
	}
	d.Log.Info("day processed",
		slog.String("date", day.Date.String()),
		slog.Int("submitted", len(res.Submitted)),
		slog.Int("skipped", len(res.Skipped)),
		slog.Int("failed", len(res.Failed)))
	return res
}

func (d *Driver) processEntry(ctx context.Context, e domain.ScheduledEntry, opts TaskOptions) domain.Outcome {
	out := domain.Outcome{RunID: d.RunID, Entry: e, Attempt: 1}
	fail := func(stage string, err error) domain.Outcome {
		out.Status = domain.StatusFailed
		var se *SubmissionError
		if errors.As(err, &se) {
			out.Err = err
		} else {
			out.Err = &SubmissionError{Stage: stage, Entry: out.Entry, Err: err}
		}
		out.At = d.now()
		return out
	}

	ref, err := d.Reconciler.Reconcile(ctx, e, opts)
	if err != nil {
		return fail(StageReconcile, err)
	}
	out.Task = &ref
	out.Entry.TaskID = ref.ID

	dups, err := d.Reconciler.DuplicateRecords(ctx, ref.ID, e.Date, e.Activity)
	if err != nil {
		return fail(StageDuplicate, err)
	}
	if len(dups) > 0 {
		skipped := ref
		skipped.Disposition = domain.DispositionSkippedDuplicate
		out.Task = &skipped
		out.Status = domain.StatusSkipped
		out.At = d.now()
		return out
	}

	rec, err := d.Submit(ctx, out.Entry)
	if err != nil {
		return fail(StageSubmit, err)
	}
	out.Status = domain.StatusSubmitted
	out.RecordID = rec.ID
	out.At = d.now()
	return out
}

// RetryFailed resubmits failed outcomes under the driver's retry policy.
// Reconciliation is not repeated: each retry reuses the task resolved in
// the batch pass, and an entry without one fails again at once.
func (d *Driver) RetryFailed(ctx context.Context, failed []domain.Outcome) []domain.Outcome {
	policy := d.Retry
	if policy.Attempts <= 0 {
		policy = RetryOnce()
	}
	out := make([]domain.Outcome, 0, len(failed))
	for _, f := range failed {
		d.Log.Info("retrying entry", slog.String("subject", f.Entry.Subject))
		res := f
		for attempt := 1; attempt <= policy.Attempts; attempt++ {
			if attempt > 1 {
				if err := policy.wait(ctx, attempt-1); err != nil {
					res.Err = err
					break
				}
			}
			res = d.retryOnce(ctx, f, f.Attempt+attempt)
			if res.Status == domain.StatusSubmitted {
				break
			}
		}
		if res.Status == domain.StatusSubmitted {
			d.Log.Info("success on retry", slog.String("subject", f.Entry.Subject), slog.Int64("id", res.RecordID))
		} else {
			d.Log.Error("failed again", slog.String("subject", f.Entry.Subject), slog.String("error", res.ErrText()))
		}
		out = append(out, res)
	}
	return out
}

func (d *Driver) retryOnce(ctx context.Context, f domain.Outcome, attempt int) domain.Outcome {
	res := domain.Outcome{RunID: f.RunID, Entry: f.Entry, Task: f.Task, Attempt: attempt}
	rec, err := d.Submit(ctx, f.Entry)
	res.At = d.now()
	if err != nil {
		res.Status = domain.StatusFailed
		res.Err = err
		return res
	}
	res.Status = domain.StatusSubmitted
	res.RecordID = rec.ID
	return res
}
