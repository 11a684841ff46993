package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"worklog-sync/internal/domain"
	"worklog-sync/internal/ports"
	"worklog-sync/internal/worklog"
)

// Reporter shows progress to the operator.
type Reporter interface {
	Plan(p Plan)
	Preview(day domain.DaySchedule)
	DayResult(r DayResult)
	Retried(outcomes []domain.Outcome)
	Summary(s Summary)
}

// Summary totals one run. Failed counts entries still failed after retry.
type Summary struct {
	Days      int
	Declined  int
	Rejected  int
	Submitted int
	Skipped   int
	Failed    int
}

// ErrEntriesFailed is returned by Run when some entries could not be logged.
var ErrEntriesFailed = errors.New("some entries failed")

// WorkLogUseCase processes a parsed batch date by date with the operator in
// the loop.
type WorkLogUseCase struct {
	Log       *slog.Logger
	Scheduler *worklog.Scheduler
	Planner   *Planner
	Driver    *Driver
	Prompter  ports.Prompter
	Reporter  Reporter
	Journal   ports.Journal
}

// Run processes every day of batch in order. Declined days are skipped; a
// prompt or context failure aborts the run. When entries remain failed the
// summary is returned together with ErrEntriesFailed.
func (uc *WorkLogUseCase) Run(ctx context.Context, batch worklog.Batch) (Summary, error) {
	if uc.Scheduler == nil || uc.Planner == nil || uc.Driver == nil || uc.Prompter == nil || uc.Reporter == nil {
		return Summary{}, errors.New("usecase not initialized: missing dependencies")
	}
	sum := Summary{Rejected: len(batch.Rejected)}
	for _, day := range batch.Days {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		uc.Log.Info("processing date", slog.String("date", day.Date.String()), slog.Int("entries", len(day.Entries)))
		sum.Days++
		if err := uc.runDay(ctx, day, &sum); err != nil {
			return sum, err
		}
	}
	uc.Reporter.Summary(sum)
	if sum.Failed > 0 {
		return sum, fmt.Errorf("%w: %d", ErrEntriesFailed, sum.Failed)
	}
	return sum, nil
}

func (uc *WorkLogUseCase) runDay(ctx context.Context, day domain.DaySchedule, sum *Summary) error {
	if day.HasOrdinary() {
		start, ok, err := uc.Prompter.StartTime(ctx, day.Date)
		if err != nil {
			return err
		}
		if ok {
			day = uc.Scheduler.Reanchor(day, start)
			uc.Log.Info("re-anchored day", slog.String("date", day.Date.String()), slog.String("start", start.String()))
		}
	}

	plan, err := uc.Planner.Plan(ctx, day)
	if err != nil {
		return err
	}
	for i, it := range plan.Items {
		if it.Kind != PlanCreate {
			continue
		}
		comment, err := uc.Prompter.TaskComment(ctx, it.Entry)
		if err != nil {
			return err
		}
		status, err := uc.Prompter.TaskStatus(ctx, it.Entry)
		if err != nil {
			return err
		}
		plan.Items[i].Options = TaskOptions{Comment: comment, Status: status}
	}
	uc.Reporter.Plan(plan)

	ok, err := uc.Prompter.Confirm(ctx, fmt.Sprintf("Proceed with processing entries for %s?", day.Date))
	if err != nil {
		return err
	}
	if !ok {
		uc.Log.Info("processing cancelled", slog.String("date", day.Date.String()))
		sum.Declined++
		return nil
	}

	uc.Reporter.Preview(day)
	ok, err = uc.Prompter.Confirm(ctx, fmt.Sprintf("Process all entries for %s?", day.Date))
	if err != nil {
		return err
	}
	if !ok {
		uc.Log.Info("processing cancelled", slog.String("date", day.Date.String()))
		sum.Declined++
		return nil
	}

	res := uc.Driver.ProcessDay(ctx, day, plan.Options())
	uc.Reporter.DayResult(res)
	outcomes := res.All()
	sum.Submitted += len(res.Submitted)
	sum.Skipped += len(res.Skipped)

	stillFailed := len(res.Failed)
	if stillFailed > 0 {
		retry, err := uc.Prompter.Confirm(ctx, fmt.Sprintf("%d entries failed for %s. Retry failed entries?", stillFailed, day.Date))
		if err != nil {
			return err
		}
		if retry {
			retried := uc.Driver.RetryFailed(ctx, res.Failed)
			uc.Reporter.Retried(retried)
			outcomes = append(outcomes, retried...)
			for _, o := range retried {
				if o.Status == domain.StatusSubmitted {
					sum.Submitted++
					stillFailed--
				}
			}
		}
	}
	sum.Failed += stillFailed
	uc.record(ctx, outcomes)
	return nil
}

func (uc *WorkLogUseCase) record(ctx context.Context, outcomes []domain.Outcome) {
	if uc.Journal == nil || len(outcomes) == 0 {
		return
	}
	if err := uc.Journal.Record(ctx, outcomes); err != nil {
		uc.Log.Warn("could not write journal", slog.String("error", err.Error()))
	}
}

// DryRun plans every day of batch without prompting or writing.
func (uc *WorkLogUseCase) DryRun(ctx context.Context, batch worklog.Batch) ([]Plan, error) {
	plans := make([]Plan, 0, len(batch.Days))
	for _, day := range batch.Days {
		plan, err := uc.Planner.Plan(ctx, day)
		if err != nil {
			return plans, err
		}
		if uc.Reporter != nil {
			uc.Reporter.Plan(plan)
		}
		plans = append(plans, plan)
	}
	return plans, nil
}
