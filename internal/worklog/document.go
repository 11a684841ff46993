package worklog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"worklog-sync/internal/domain"
)

// ErrInvalidDocument is returned when the top-level document cannot be used.
var ErrInvalidDocument = errors.New("invalid work log document")

// Rejected is an input entry excluded by validation.
type Rejected struct {
	Date   string                   `json:"date"`
	Index  int                      `json:"index"`
	Errors []domain.ValidationError `json:"errors"`
}

// Batch is a parsed input file: one schedule per usable date, in input order.
type Batch struct {
	Days     []domain.DaySchedule
	Rejected []Rejected
}

// Loader turns an input document into day schedules.
type Loader struct {
	Validator Validator
	Scheduler *Scheduler
	Log       *slog.Logger
}

func NewLoader(scheduler *Scheduler, log *slog.Logger) *Loader {
	return &Loader{
		Validator: Validator{Catalog: scheduler.Catalog},
		Scheduler: scheduler,
		Log:       log,
	}
}

// LoadFile reads a .json work log from disk.
func (l *Loader) LoadFile(path string) (Batch, error) {
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return Batch{}, fmt.Errorf("%w: only .json work logs are supported, got %q", ErrInvalidDocument, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return Batch{}, err
	}
	defer f.Close()
	return l.Load(f)
}

type document struct {
	Logs json.RawMessage `json:"logs"`
}

type dayLog struct {
	Date    *string         `json:"date"`
	Entries json.RawMessage `json:"entries"`
}

// Load decodes and schedules a whole document. Problems with single days or
// entries are logged and skipped; only a broken top level is an error.
func (l *Loader) Load(r io.Reader) (Batch, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Batch{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if len(doc.Logs) == 0 || bytes.Equal(doc.Logs, []byte("null")) {
		return Batch{}, fmt.Errorf("%w: missing 'logs' array", ErrInvalidDocument)
	}
	var logs []json.RawMessage
	if err := json.Unmarshal(doc.Logs, &logs); err != nil {
		return Batch{}, fmt.Errorf("%w: 'logs' must be an array", ErrInvalidDocument)
	}
	if len(logs) == 0 {
		return Batch{}, fmt.Errorf("%w: no log entries found in 'logs' array", ErrInvalidDocument)
	}

	var batch Batch
	for i, raw := range logs {
		pos := i + 1
		var dl dayLog
		if err := json.Unmarshal(raw, &dl); err != nil {
			l.Log.Warn("log entry is not an object, skipping", slog.Int("log", pos))
			continue
		}
		if dl.Date == nil {
			l.Log.Warn("log entry missing 'date' field, skipping", slog.Int("log", pos))
			continue
		}
		date, err := ParseDate(*dl.Date)
		if err != nil {
			l.Log.Warn("log entry has invalid date, skipping", slog.Int("log", pos), slog.String("error", err.Error()))
			continue
		}
		entries, ok := decodeEntries(dl.Entries)
		if !ok {
			l.Log.Warn("log entry 'entries' must be an array, skipping", slog.Int("log", pos))
			continue
		}

		var raws []domain.RawEntry
		for j, e := range entries {
			idx := j + 1
			if e == nil {
				err := domain.ValidationError{Field: "entry", Message: "entry must be an object", Index: idx}
				batch.Rejected = append(batch.Rejected, l.reject(*dl.Date, idx, []domain.ValidationError{err}))
				continue
			}
			if errs := l.Validator.Validate(e, idx); len(errs) > 0 {
				batch.Rejected = append(batch.Rejected, l.reject(*dl.Date, idx, errs))
				continue
			}
			raws = append(raws, l.Validator.Raw(e, idx))
		}

		day := l.Scheduler.Schedule(date, raws)
		if len(day.Entries) == 0 {
			l.Log.Info("no schedulable entries for date", slog.String("date", date.String()))
			continue
		}
		batch.Days = append(batch.Days, day)
	}
	return batch, nil
}

func (l *Loader) reject(date string, idx int, errs []domain.ValidationError) Rejected {
	l.Log.Warn("skipping entry due to validation errors", slog.String("date", date), slog.Int("entry", idx))
	for _, e := range errs {
		l.Log.Warn("validation error", slog.String("date", date), slog.Int("entry", idx), slog.String("field", e.Field), slog.String("message", e.Message))
	}
	return Rejected{Date: date, Index: idx, Errors: errs}
}

// decodeEntries returns one map per element; non-object elements are nil.
// A missing or null entries field is an empty day.
func decodeEntries(raw json.RawMessage) ([]map[string]any, bool) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, true
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, false
	}
	out := make([]map[string]any, len(elems))
	for i, el := range elems {
		dec := json.NewDecoder(bytes.NewReader(el))
		dec.UseNumber()
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			continue
		}
		out[i] = m
	}
	return out, true
}
