package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"worklog-sync/internal/domain"
)

func TestReconcile_ReusesSubjectMatch(t *testing.T) {
	remote := newFakeRemote()
	remote.tasks[63] = []domain.RemoteTask{{ID: 41, Subject: "Other"}, {ID: 42, Subject: "Fix login bug"}, {ID: 43, Subject: "fix login bug"}}
	r := newReconciler(remote)

	ref, err := r.Reconcile(context.Background(), ordinary(1, " fix login bug ", 0), TaskOptions{})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if ref.Disposition != domain.DispositionReused || ref.ID != 42 {
		t.Fatalf("unexpected ref %+v", ref)
	}
	if len(remote.createdTasks) != 0 {
		t.Fatal("reuse must not create a task")
	}
}

func TestReconcile_CreatesWhenMissing(t *testing.T) {
	remote := newFakeRemote()
	remote.tasks[63] = []domain.RemoteTask{{ID: 41, Subject: "Other"}}
	r := newReconciler(remote)

	status := domain.Statuses[0]
	ref, err := r.Reconcile(context.Background(), ordinary(1, "New work", 0), TaskOptions{Comment: "why", Status: status})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if ref.Disposition != domain.DispositionCreated || ref.ID == 0 {
		t.Fatalf("unexpected ref %+v", ref)
	}
	if len(remote.createdTasks) != 1 {
		t.Fatalf("expected one created task, got %d", len(remote.createdTasks))
	}
	got := remote.createdTasks[0]
	want := domain.NewTask{ProjectID: 63, Subject: "New work", TypeID: 1, StatusID: 1, Description: "why", ResponsibleID: 83, AssigneeID: 84}
	if got != want {
		t.Fatalf("created %+v, want %+v", got, want)
	}
}

func TestReconcile_DefaultStatusInProgress(t *testing.T) {
	remote := newFakeRemote()
	r := newReconciler(remote)
	if _, err := r.Reconcile(context.Background(), ordinary(1, "New work", 0), TaskOptions{}); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if remote.createdTasks[0].StatusID != 7 {
		t.Fatalf("status = %d", remote.createdTasks[0].StatusID)
	}
}

func TestReconcile_ExistingTaskSkipsLookup(t *testing.T) {
	remote := newFakeRemote()
	r := newReconciler(remote)
	ref, err := r.Reconcile(context.Background(), ordinary(1, "Known", 55), TaskOptions{})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if ref.ID != 55 || ref.Disposition != domain.DispositionExisting || remote.listTaskCalls != 0 {
		t.Fatalf("unexpected ref %+v (calls %d)", ref, remote.listTaskCalls)
	}
}

func TestReconcile_NoProject(t *testing.T) {
	r := newReconciler(newFakeRemote())
	e := ordinary(1, "x", 0)
	e.ProjectID = nil
	if _, err := r.Reconcile(context.Background(), e, TaskOptions{}); !errors.Is(err, domain.ErrNoProject) {
		t.Fatalf("expected ErrNoProject, got %v", err)
	}
}

func TestFindTask_PaginatesAndStopsOnEmptyPage(t *testing.T) {
	remote := newFakeRemote()
	for i := 0; i < 250; i++ {
		remote.tasks[63] = append(remote.tasks[63], domain.RemoteTask{ID: int64(i + 1), Subject: fmt.Sprintf("task %d", i+1)})
	}
	remote.totals[63] = 10_000 // server overstates the total
	r := newReconciler(remote)

	found, err := r.FindTask(context.Background(), 63, "TASK 250")
	if err != nil {
		t.Fatalf("FindTask: %v", err)
	}
	if found == nil || found.ID != 250 {
		t.Fatalf("unexpected match %+v", found)
	}
	// Pages of 100, 100, 50, then an empty page ends the loop.
	if remote.listTaskCalls != 4 {
		t.Fatalf("expected 4 page requests, got %d", remote.listTaskCalls)
	}
}

func TestFindTask_StopsAtReportedTotal(t *testing.T) {
	remote := newFakeRemote()
	for i := 0; i < 150; i++ {
		remote.tasks[63] = append(remote.tasks[63], domain.RemoteTask{ID: int64(i + 1), Subject: "t"})
	}
	r := newReconciler(remote)
	if _, err := r.FindTask(context.Background(), 63, "none"); err != nil {
		t.Fatalf("FindTask: %v", err)
	}
	if remote.listTaskCalls != 2 {
		t.Fatalf("expected 2 page requests, got %d", remote.listTaskCalls)
	}
}

func TestFindTask_FailOpenAndFailClosed(t *testing.T) {
	remote := newFakeRemote()
	remote.listTasksErr = errors.New("connection refused")
	r := newReconciler(remote)

	found, err := r.FindTask(context.Background(), 63, "x")
	if err != nil || found != nil {
		t.Fatalf("fail-open should report no match: %v %v", found, err)
	}

	r.FailClosed = true
	if _, err := r.FindTask(context.Background(), 63, "x"); err == nil {
		t.Fatal("fail-closed should return the query error")
	}
}

func TestDuplicateRecords(t *testing.T) {
	remote := newFakeRemote()
	remote.records = []domain.TimeRecord{
		{ID: 1, TaskID: 42, ActivityID: 3, SpentOn: "2025-09-07"},
		{ID: 2, TaskID: 42, ActivityID: 14, SpentOn: "2025-09-07"},
		{ID: 3, TaskID: 42, ActivityID: 3, SpentOn: "2025-09-08"},
		{ID: 4, TaskID: 420, ActivityID: 3, SpentOn: "2025-09-07"},
	}
	r := newReconciler(remote)

	dups, err := r.DuplicateRecords(context.Background(), 42, sept7, "Development")
	if err != nil {
		t.Fatalf("DuplicateRecords: %v", err)
	}
	if len(dups) != 1 || dups[0].ID != 1 {
		t.Fatalf("unexpected duplicates %+v", dups)
	}

	dups, _ = r.DuplicateRecords(context.Background(), 42, sept7, "")
	if len(dups) != 2 {
		t.Fatalf("without activity filter expected 2, got %+v", dups)
	}

	dups, _ = r.DuplicateRecords(context.Background(), 42, sept7, "Testing")
	if len(dups) != 0 {
		t.Fatalf("different activity should not match: %+v", dups)
	}
}
