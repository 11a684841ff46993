package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"worklog-sync/internal/domain"
)

// PlanKind classifies what processing will do with an entry.
type PlanKind string

const (
	PlanFixedSlot    PlanKind = "fixed-slot"
	PlanExistingTask PlanKind = "existing-task" // task id given in the input
	PlanReuse        PlanKind = "reuse"         // a work package with the same subject exists
	PlanCreate       PlanKind = "create"
	PlanNoProject    PlanKind = "no-project"
	PlanMissingTask  PlanKind = "missing-task" // task id given but not found remotely
)

// PlanItem is one entry of a dry-run analysis.
type PlanItem struct {
	Entry    domain.ScheduledEntry
	Kind     PlanKind
	Existing *domain.RemoteTask
	Options  TaskOptions
}

// Plan is the dry-run analysis of one day. It performs lookups only.
type Plan struct {
	Date  domain.Date
	Items []PlanItem
}

// Count returns the number of items of kind k.
func (p Plan) Count(k PlanKind) int {
	n := 0
	for _, it := range p.Items {
		if it.Kind == k {
			n++
		}
	}
	return n
}

// Options returns the operator's task choices keyed by entry index.
func (p Plan) Options() map[int]TaskOptions {
	out := make(map[int]TaskOptions)
	for _, it := range p.Items {
		if it.Kind == PlanCreate {
			out[it.Entry.Index] = it.Options
		}
	}
	return out
}

// Planner builds dry-run analyses.
type Planner struct {
	Log        *slog.Logger
	Reconciler *Reconciler
	// VerifyTasks fetches every supplied work package id.
	VerifyTasks bool
}

// Plan classifies every entry of day. A failed subject lookup is logged and
// the entry is planned as a creation; processing looks again before writing.
func (p *Planner) Plan(ctx context.Context, day domain.DaySchedule) (Plan, error) {
	plan := Plan{Date: day.Date}
	for _, e := range day.Entries {
		item := PlanItem{Entry: e}
		switch {
		case e.Kind == domain.KindFixedSlot:
			item.Kind = PlanFixedSlot
			if err := p.verify(ctx, &item); err != nil {
				return Plan{}, err
			}
		case !e.NeedsNewTask:
			item.Kind = PlanExistingTask
			if err := p.verify(ctx, &item); err != nil {
				return Plan{}, err
			}
		case e.ProjectID == nil:
			p.Log.Warn("no project id found", slog.String("project", e.Project), slog.String("subject", e.Subject))
			item.Kind = PlanNoProject
		default:
			existing, err := p.Reconciler.FindTask(ctx, *e.ProjectID, e.Subject)
			if err != nil {
				if ctx.Err() != nil {
					return Plan{}, ctx.Err()
				}
				p.Log.Warn("work package lookup failed", slog.String("subject", e.Subject), slog.String("error", err.Error()))
			}
			if existing != nil {
				item.Kind = PlanReuse
				item.Existing = existing
			} else {
				item.Kind = PlanCreate
				item.Options = TaskOptions{Status: domain.DefaultStatus}
			}
		}
		plan.Items = append(plan.Items, item)
	}
	return plan, nil
}

// verify looks up the item's supplied task id. A 404 marks the item as
// PlanMissingTask; other failures are logged and leave it unchanged.
func (p *Planner) verify(ctx context.Context, item *PlanItem) error {
	if !p.VerifyTasks || item.Entry.TaskID == 0 {
		return nil
	}
	task, err := p.Reconciler.Remote.GetTask(ctx, item.Entry.TaskID)
	if err == nil {
		item.Existing = &task
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var re *domain.RemoteError
	if errors.As(err, &re) && re.StatusCode == http.StatusNotFound {
		item.Kind = PlanMissingTask
		return nil
	}
	p.Log.Warn("work package check failed", slog.Int64("task_id", item.Entry.TaskID), slog.String("error", err.Error()))
	return nil
}
