package worklog

import (
	"log/slog"
	"math"
	"time"

	"worklog-sync/internal/domain"
)

// Scheduler places a day's entries on a timeline. Ordinary entries run
// back to back from DayStart, each preceded by its break. Fixed-slot entries
// sit at FixedSlot and leave the cursor where it was.
type Scheduler struct {
	Catalog   domain.Catalog
	Location  *time.Location
	DayStart  domain.Clock
	FixedSlot domain.Clock
	Log       *slog.Logger
}

func NewScheduler(catalog domain.Catalog, loc *time.Location, log *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		Catalog:   catalog,
		Location:  loc,
		DayStart:  domain.DayStart,
		FixedSlot: domain.FixedSlot,
		Log:       log,
	}
}

// Schedule builds the timeline for date in input order.
func (s *Scheduler) Schedule(date domain.Date, entries []domain.RawEntry) domain.DaySchedule {
	day := domain.DaySchedule{Date: date}
	cursor := date.At(s.DayStart, s.Location)
	for _, raw := range entries {
		if raw.Hours <= 0 || raw.Hours > MaxEntryHours {
			s.Log.Warn("dropping entry with out-of-range duration",
				slog.String("date", date.String()), slog.Int("index", raw.Index), slog.Float64("hours", raw.Hours))
			continue
		}
		e := domain.ScheduledEntry{
			Index:    raw.Index,
			Date:     date,
			Project:  raw.Project,
			Subject:  raw.Subject,
			Activity: raw.Activity,
			Hours:    raw.Hours,
			Duration: hoursToDuration(raw.Hours),
			TaskID:   raw.TaskID,
		}
		if id, ok := s.Catalog.ProjectID(raw.Project); ok {
			e.ProjectID = &id
		}

		switch {
		case raw.FixedSlot:
			if raw.TaskID == 0 {
				s.Log.Warn("fixed-slot entry has no work package id, skipping",
					slog.String("date", date.String()), slog.Int("index", raw.Index))
				continue
			}
			e.Kind = domain.KindFixedSlot
			e.Start = date.At(s.FixedSlot, s.Location)
			e.End = e.Start.Add(e.Duration)
		default:
			e.Kind = domain.KindOrdinary
			e.Break = breakToDuration(raw.BreakHours)
			e.Start = cursor.Add(e.Break)
			e.End = e.Start.Add(e.Duration)
			e.NeedsNewTask = raw.TaskID == 0
			cursor = e.End
		}
		day.Entries = append(day.Entries, e)
	}
	return day
}

// Reanchor recomputes every ordinary entry of day from a new start time,
// keeping order, breaks and durations. Fixed-slot entries are untouched.
func (s *Scheduler) Reanchor(day domain.DaySchedule, start domain.Clock) domain.DaySchedule {
	out := domain.DaySchedule{Date: day.Date, Entries: make([]domain.ScheduledEntry, len(day.Entries))}
	cursor := day.Date.At(start, s.Location)
	for i, e := range day.Entries {
		switch e.Kind {
		case domain.KindOrdinary:
			e.Start = cursor.Add(e.Break)
			e.End = e.Start.Add(e.Duration)
			cursor = e.End
		case domain.KindFixedSlot:
		}
		out.Entries[i] = e
	}
	return out
}

func hoursToDuration(h float64) time.Duration {
	return time.Duration(math.Round(h * float64(time.Hour)))
}

// Breaks are kept in whole minutes; fractions are truncated.
func breakToDuration(h float64) time.Duration {
	if h <= 0 {
		return 0
	}
	h = math.Min(h, MaxEntryHours)
	return time.Duration(int64(h*60)) * time.Minute
}
