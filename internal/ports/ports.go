package ports

import (
	"context"

	"worklog-sync/internal/domain"
)

// TaskService is the remote project-management API the engine reconciles
// against and writes to.
type TaskService interface {
	GetTask(ctx context.Context, id int64) (domain.RemoteTask, error)
	CurrentUser(ctx context.Context) (domain.User, error)
	// ListProjectTasks returns one page; page numbers start at 1.
	ListProjectTasks(ctx context.Context, projectID int64, page, pageSize int) (domain.TaskPage, error)
	ListTimeRecords(ctx context.Context) ([]domain.TimeRecord, error)
	CreateTask(ctx context.Context, t domain.NewTask) (domain.RemoteTask, error)
	CreateTimeRecord(ctx context.Context, r domain.NewTimeRecord) (domain.TimeRecord, error)
}

// Directory exposes the read-only lookups used by the connectivity check.
type Directory interface {
	CurrentUser(ctx context.Context) (domain.User, error)
	GetUser(ctx context.Context, id int64) (domain.User, error)
	GetProject(ctx context.Context, id int64) (domain.Project, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
	// ProbeForm reports whether the token may create resources at a form
	// endpoint, without creating anything.
	ProbeForm(ctx context.Context, path string) (bool, error)
}

// Prompter supplies the operator's decisions. Implementations must not be
// called concurrently.
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
	// StartTime asks for an optional day start; ok is false when the
	// operator keeps the default.
	StartTime(ctx context.Context, date domain.Date) (c domain.Clock, ok bool, err error)
	TaskComment(ctx context.Context, e domain.ScheduledEntry) (string, error)
	TaskStatus(ctx context.Context, e domain.ScheduledEntry) (domain.Status, error)
}

// Journal persists per-entry outcomes across runs.
type Journal interface {
	Record(ctx context.Context, outcomes []domain.Outcome) error
	Recent(ctx context.Context, limit int) ([]domain.JournalRow, error)
}
