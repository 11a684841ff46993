package domain

import "time"

// EntryKind separates the two scheduling rules.
type EntryKind int

const (
	// KindOrdinary entries consume day capacity and advance the cursor.
	KindOrdinary EntryKind = iota
	// KindFixedSlot entries (standups) are pinned to FixedSlot and never move the cursor.
	KindFixedSlot
)

func (k EntryKind) String() string {
	switch k {
	case KindOrdinary:
		return "ordinary"
	case KindFixedSlot:
		return "fixed-slot"
	}
	return "unknown"
}

// RawEntry is one validated task description from the input batch.
type RawEntry struct {
	Index      int // 1-based position within the day's batch
	Project    string
	Subject    string
	Hours      float64
	Activity   string
	FixedSlot  bool
	TaskID     int64 // 0 when absent
	BreakHours float64
}

// ScheduledEntry is a RawEntry placed on the day's timeline.
type ScheduledEntry struct {
	Index     int
	Kind      EntryKind
	Date      Date
	Project   string
	ProjectID *int64 // nil when the project is not in the catalog
	Subject   string
	Activity  string
	Hours     float64
	Duration  time.Duration
	Break     time.Duration
	Start     time.Time
	End       time.Time
	// TaskID is the remote task. Reconciliation may backfill it once.
	TaskID       int64
	NeedsNewTask bool
}

// NeedsUserChoice reports whether the operator still has to decide how the
// entry's task is created.
func (e ScheduledEntry) NeedsUserChoice() bool {
	return e.NeedsNewTask && e.TaskID == 0
}

// Comment is the text attached to the remote time record.
func (e ScheduledEntry) Comment() string {
	return "[" + e.Project + "] " + e.Subject
}

// DaySchedule is the ordered timeline for one date.
type DaySchedule struct {
	Date    Date
	Entries []ScheduledEntry
}

// TotalHours sums the hours of every entry, fixed-slot ones included.
func (d DaySchedule) TotalHours() float64 {
	var total float64
	for _, e := range d.Entries {
		total += e.Hours
	}
	return total
}

// HasOrdinary reports whether any entry follows the cursor.
func (d DaySchedule) HasOrdinary() bool {
	for _, e := range d.Entries {
		if e.Kind == KindOrdinary {
			return true
		}
	}
	return false
}
