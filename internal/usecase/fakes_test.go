package usecase

import (
	"context"
	"io"
	"log/slog"
	"time"

	"worklog-sync/internal/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var dhaka = time.FixedZone("Asia/Dhaka", 6*60*60)

var sept7 = domain.Date{Year: 2025, Month: time.September, Day: 7}

func testCatalog() domain.Catalog {
	return domain.NewCatalog(map[string]int64{"HRIS": 63, "CBL": 66}, domain.DefaultActivities())
}

// fakeRemote is an in-memory OpenProject.
type fakeRemote struct {
	tasks map[int64][]domain.RemoteTask
	// totals overrides the reported total per project.
	totals  map[int64]int
	records []domain.TimeRecord

	listTasksErr   error
	listRecordsErr error
	createTaskErr  error
	// createRecordErrs is consumed one per CreateTimeRecord call.
	createRecordErrs []error

	nextID         int64
	listTaskCalls  int
	createdTasks   []domain.NewTask
	createdRecords []domain.NewTimeRecord
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{tasks: map[int64][]domain.RemoteTask{}, totals: map[int64]int{}, nextID: 1000}
}

func (f *fakeRemote) GetTask(ctx context.Context, id int64) (domain.RemoteTask, error) {
	for _, ts := range f.tasks {
		for _, t := range ts {
			if t.ID == id {
				return t, nil
			}
		}
	}
	return domain.RemoteTask{}, &domain.RemoteError{Op: "get work package", StatusCode: 404}
}

func (f *fakeRemote) CurrentUser(ctx context.Context) (domain.User, error) {
	return domain.User{ID: 83, Name: "Operator"}, nil
}

func (f *fakeRemote) ListProjectTasks(ctx context.Context, projectID int64, page, pageSize int) (domain.TaskPage, error) {
	f.listTaskCalls++
	if f.listTasksErr != nil {
		return domain.TaskPage{}, f.listTasksErr
	}
	all := f.tasks[projectID]
	total, ok := f.totals[projectID]
	if !ok {
		total = len(all)
	}
	lo := (page - 1) * pageSize
	if lo > len(all) {
		lo = len(all)
	}
	hi := lo + pageSize
	if hi > len(all) {
		hi = len(all)
	}
	return domain.TaskPage{Tasks: append([]domain.RemoteTask(nil), all[lo:hi]...), Total: total}, nil
}

func (f *fakeRemote) ListTimeRecords(ctx context.Context) ([]domain.TimeRecord, error) {
	if f.listRecordsErr != nil {
		return nil, f.listRecordsErr
	}
	return append([]domain.TimeRecord(nil), f.records...), nil
}

func (f *fakeRemote) CreateTask(ctx context.Context, t domain.NewTask) (domain.RemoteTask, error) {
	if f.createTaskErr != nil {
		return domain.RemoteTask{}, f.createTaskErr
	}
	f.nextID++
	f.createdTasks = append(f.createdTasks, t)
	task := domain.RemoteTask{ID: f.nextID, Subject: t.Subject}
	f.tasks[t.ProjectID] = append(f.tasks[t.ProjectID], task)
	return task, nil
}

func (f *fakeRemote) CreateTimeRecord(ctx context.Context, r domain.NewTimeRecord) (domain.TimeRecord, error) {
	if len(f.createRecordErrs) > 0 {
		err := f.createRecordErrs[0]
		f.createRecordErrs = f.createRecordErrs[1:]
		if err != nil {
			return domain.TimeRecord{}, err
		}
	}
	f.nextID++
	f.createdRecords = append(f.createdRecords, r)
	rec := domain.TimeRecord{ID: f.nextID, TaskID: r.TaskID, ActivityID: r.ActivityID, SpentOn: r.SpentOn.String(), Comment: r.Comment}
	f.records = append(f.records, rec)
	return rec, nil
}

func newReconciler(remote *fakeRemote) *Reconciler {
	return &Reconciler{Log: quietLogger(), Remote: remote, Catalog: testCatalog(), ResponsibleID: 83, AssigneeID: 84}
}

func newDriver(remote *fakeRemote) *Driver {
	return &Driver{
		Log:        quietLogger(),
		Remote:     remote,
		Reconciler: newReconciler(remote),
		Catalog:    testCatalog(),
		Retry:      RetryOnce(),
		RunID:      "run-1",
	}
}

func ordinary(index int, subject string, taskID int64) domain.ScheduledEntry {
	pid := int64(63)
	start := sept7.At(domain.Clock{Hour: 9}, dhaka)
	return domain.ScheduledEntry{
		Index:        index,
		Kind:         domain.KindOrdinary,
		Date:         sept7,
		Project:      "HRIS",
		ProjectID:    &pid,
		Subject:      subject,
		Activity:     "Development",
		Hours:        1,
		Duration:     time.Hour,
		Start:        start,
		End:          start.Add(time.Hour),
		TaskID:       taskID,
		NeedsNewTask: taskID == 0,
	}
}

func standup(index int, taskID int64) domain.ScheduledEntry {
	pid := int64(63)
	start := sept7.At(domain.FixedSlot, dhaka)
	return domain.ScheduledEntry{
		Index:     index,
		Kind:      domain.KindFixedSlot,
		Date:      sept7,
		Project:   "HRIS",
		ProjectID: &pid,
		Subject:   "Standup",
		Activity:  "Meeting",
		Hours:     0.5,
		Duration:  30 * time.Minute,
		Start:     start,
		End:       start.Add(30 * time.Minute),
		TaskID:    taskID,
	}
}
