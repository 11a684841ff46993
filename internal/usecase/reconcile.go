package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"worklog-sync/internal/domain"
	"worklog-sync/internal/ports"
)

const defaultPageSize = 100

// TaskOptions are the operator's choices for a task that may be created.
type TaskOptions struct {
	Comment string
	Status  domain.Status
}

// Reconciler decides, before anything is written, whether an entry reuses
// an existing work package, needs a new one, or is already logged.
type Reconciler struct {
	Log     *slog.Logger
	Remote  ports.TaskService
	Catalog domain.Catalog
	// PageSize of work package listings; 0 means 100.
	PageSize int
	// FailClosed turns query failures into errors instead of "no match".
	FailClosed    bool
	TaskTypeID    int64
	ResponsibleID int64
	AssigneeID    int64
}

// FindTask returns the first work package of the project whose subject
// equals subject after trimming and lower-casing, or nil.
func (r *Reconciler) FindTask(ctx context.Context, projectID int64, subject string) (*domain.RemoteTask, error) {
	tasks, err := r.listProjectTasks(ctx, projectID)
	if err != nil {
		if r.FailClosed {
			return nil, fmt.Errorf("check existing work packages: %w", err)
		}
		r.Log.Warn("could not check existing work packages", slog.Int64("project_id", projectID), slog.String("error", err.Error()))
		return nil, nil
	}
	want := normalizeSubject(subject)
	for i := range tasks {
		if normalizeSubject(tasks[i].Subject) == want {
			return &tasks[i], nil
		}
	}
	return nil, nil
}

func (r *Reconciler) listProjectTasks(ctx context.Context, projectID int64) ([]domain.RemoteTask, error) {
	size := r.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	var all []domain.RemoteTask
	for page := 1; ; page++ {
		p, err := r.Remote.ListProjectTasks(ctx, projectID, page, size)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Tasks...)
		if len(p.Tasks) == 0 || len(all) >= p.Total {
			return all, nil
		}
	}
}

// Reconcile resolves the remote task of e. Entries that came with a task id
// resolve to it without a lookup. Otherwise a work package with the same
// subject is reused, and only when none exists is one created.
func (r *Reconciler) Reconcile(ctx context.Context, e domain.ScheduledEntry, opts TaskOptions) (domain.RemoteTaskRef, error) {
	if !e.NeedsNewTask {
		return domain.RemoteTaskRef{ID: e.TaskID, Subject: e.Subject, Disposition: domain.DispositionExisting}, nil
	}
	if e.ProjectID == nil {
		return domain.RemoteTaskRef{}, fmt.Errorf("project %q: %w", e.Project, domain.ErrNoProject)
	}
	existing, err := r.FindTask(ctx, *e.ProjectID, e.Subject)
	if err != nil {
		return domain.RemoteTaskRef{}, err
	}
	if existing != nil {
		r.Log.Info("found existing work package with same subject", slog.Int64("id", existing.ID), slog.String("subject", existing.Subject))
		return domain.RemoteTaskRef{ID: existing.ID, Subject: existing.Subject, Disposition: domain.DispositionReused}, nil
	}

	status := opts.Status
	if status.ID == 0 {
		status = domain.DefaultStatus
	}
	typeID := r.TaskTypeID
	if typeID == 0 {
		typeID = 1
	}
	created, err := r.Remote.CreateTask(ctx, domain.NewTask{
		ProjectID:     *e.ProjectID,
		Subject:       e.Subject,
		TypeID:        typeID,
		StatusID:      status.ID,
		Description:   opts.Comment,
		ResponsibleID: r.ResponsibleID,
		AssigneeID:    r.AssigneeID,
	})
	if err != nil {
		return domain.RemoteTaskRef{}, err
	}
	r.Log.Info("created work package", slog.Int64("id", created.ID), slog.String("subject", e.Subject), slog.String("status", status.Name))
	return domain.RemoteTaskRef{ID: created.ID, Subject: e.Subject, Disposition: domain.DispositionCreated}, nil
}

// DuplicateRecords returns the remote time records already logged on taskID
// for date, narrowed to activity when it resolves to a known id.
func (r *Reconciler) DuplicateRecords(ctx context.Context, taskID int64, date domain.Date, activity string) ([]domain.TimeRecord, error) {
	recs, err := r.Remote.ListTimeRecords(ctx)
	if err != nil {
		if r.FailClosed {
			return nil, fmt.Errorf("check existing time entries: %w", err)
		}
		r.Log.Warn("could not check existing time entries", slog.Int64("task_id", taskID), slog.String("error", err.Error()))
		return nil, nil
	}
	activityID, filterActivity := r.Catalog.ActivityID(activity)
	day := date.String()
	var out []domain.TimeRecord
	for _, rec := range recs {
		if rec.TaskID != taskID || rec.SpentOn != day {
			continue
		}
		if filterActivity && activity != "" && rec.ActivityID != activityID {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func normalizeSubject(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
