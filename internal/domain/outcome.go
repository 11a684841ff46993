package domain

import (
	"strconv"
	"time"
)

// Disposition records how reconciliation resolved an entry's task.
type Disposition string

const (
	DispositionExisting         Disposition = "existing" // task id came with the input
	DispositionReused           Disposition = "reused"
	DispositionCreated          Disposition = "created"
	DispositionSkippedDuplicate Disposition = "skipped-duplicate"
)

// RemoteTaskRef is the result of one reconciliation. It lives for one run.
type RemoteTaskRef struct {
	ID          int64
	Subject     string
	Disposition Disposition
}

// OutcomeStatus is the final state of one entry in a run.
type OutcomeStatus string

const (
	StatusSubmitted OutcomeStatus = "submitted"
	StatusSkipped   OutcomeStatus = "skipped"
	StatusFailed    OutcomeStatus = "failed"
)

// Outcome is what happened to one scheduled entry.
type Outcome struct {
	RunID    string
	Entry    ScheduledEntry
	Task     *RemoteTaskRef
	Status   OutcomeStatus
	RecordID int64
	Err      error
	Attempt  int // 1 for the batch pass, 2+ for retries
	At       time.Time
}

// ErrText returns the error message or "".
func (o Outcome) ErrText() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// JournalRow is an outcome as stored by a journal.
type JournalRow struct {
	RunID       string
	SpentOn     string
	Index       int
	Attempt     int
	Project     string
	Subject     string
	Activity    string
	Hours       float64
	TaskID      *int64
	Disposition string
	Status      string
	Error       string
	RecordedAt  time.Time
}

// Row flattens an outcome for storage.
func (o Outcome) Row() JournalRow {
	r := JournalRow{
		RunID:      o.RunID,
		SpentOn:    o.Entry.Date.String(),
		Index:      o.Entry.Index,
		Attempt:    o.Attempt,
		Project:    o.Entry.Project,
		Subject:    o.Entry.Subject,
		Activity:   o.Entry.Activity,
		Hours:      o.Entry.Hours,
		Status:     string(o.Status),
		Error:      o.ErrText(),
		RecordedAt: o.At,
	}
	if o.Task != nil {
		r.Disposition = string(o.Task.Disposition)
		if o.Task.ID != 0 {
			id := o.Task.ID
			r.TaskID = &id
		}
	} else if o.Entry.TaskID != 0 {
		id := o.Entry.TaskID
		r.TaskID = &id
	}
	return r
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
