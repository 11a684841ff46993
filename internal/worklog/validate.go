package worklog

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"worklog-sync/internal/domain"
)

// Field names of an input entry.
const (
	fieldProject     = "project"
	fieldSubject     = "subject"
	fieldDescription = "description"
	fieldDuration    = "duration_hours"
	fieldActivity    = "activity"
	fieldFixedSlot   = "is_scrum"
	fieldBreak       = "break_hours"
	fieldTaskID      = "work_package_id"
)

// MaxEntryHours bounds duration_hours and break_hours.
const MaxEntryHours = 24

var requiredFields = []string{fieldProject, fieldSubject, fieldDuration, fieldActivity, fieldFixedSlot}

// Validator checks decoded entries against the catalog.
type Validator struct {
	Catalog domain.Catalog
}

// Validate reports every problem with entry. index is 1-based. Numbers in
// entry are expected as json.Number (decoder with UseNumber), float64 or
// strings.
func (v Validator) Validate(entry map[string]any, index int) []domain.ValidationError {
	var errs []domain.ValidationError
	add := func(field, format string, args ...any) {
		errs = append(errs, domain.ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Index: index})
	}

	entry = withSubjectFallback(entry)

	for _, f := range requiredFields {
		val, ok := entry[f]
		switch {
		case !ok:
			add(f, "missing required field '%s'", f)
		case val == nil:
			add(f, "field '%s' cannot be null", f)
		}
	}

	if p, ok := entry[fieldProject]; ok && p != nil {
		name, isString := p.(string)
		if _, known := v.Catalog.ProjectID(name); !isString || !known {
			add(fieldProject, "invalid project '%v'. Allowed values: %s", p, quoteList(v.Catalog.ProjectNames()))
		}
	}

	if s, ok := entry[fieldSubject]; ok && s != nil {
		if str, isString := s.(string); !isString || strings.TrimSpace(str) == "" {
			add(fieldSubject, "field 'subject' must be a non-empty string")
		}
	}

	if d, ok := entry[fieldDuration]; ok && d != nil {
		hours, err := coerceHours(d)
		switch {
		case err != nil:
			add(fieldDuration, "field 'duration_hours' must be a number (integer or float)")
		case hours <= 0:
			add(fieldDuration, "field 'duration_hours' must be greater than 0")
		case hours > MaxEntryHours:
			add(fieldDuration, "field 'duration_hours' must be at most %d", MaxEntryHours)
		}
	}

	if a, ok := entry[fieldActivity]; ok && a != nil {
		name, isString := a.(string)
		if _, known := v.Catalog.ActivityID(name); !isString || !known {
			add(fieldActivity, "invalid activity '%v'. Allowed values: %s", a, quoteList(v.Catalog.ActivityNames()))
		}
	}

	if f, ok := entry[fieldFixedSlot]; ok && f != nil {
		if _, isBool := f.(bool); !isBool {
			add(fieldFixedSlot, "field 'is_scrum' must be a boolean (true or false)")
		}
	}

	if b, ok := entry[fieldBreak]; ok && b != nil {
		hours, err := coerceHours(b)
		switch {
		case err != nil:
			add(fieldBreak, "field 'break_hours' must be a number (integer or float) or null")
		case hours < 0:
			add(fieldBreak, "field 'break_hours' must be 0 or greater")
		case hours > MaxEntryHours:
			add(fieldBreak, "field 'break_hours' must be at most %d", MaxEntryHours)
		}
	}

	if w, ok := entry[fieldTaskID]; ok && w != nil {
		id, err := coerceID(w)
		switch {
		case err != nil:
			add(fieldTaskID, "field 'work_package_id' must be an integer or null")
		case id <= 0:
			add(fieldTaskID, "field 'work_package_id' must be a positive integer")
		}
	}

	return errs
}

// Raw converts an entry that passed Validate.
func (v Validator) Raw(entry map[string]any, index int) domain.RawEntry {
	entry = withSubjectFallback(entry)
	r := domain.RawEntry{Index: index}
	r.Project, _ = entry[fieldProject].(string)
	r.Subject, _ = entry[fieldSubject].(string)
	r.Activity, _ = entry[fieldActivity].(string)
	r.FixedSlot, _ = entry[fieldFixedSlot].(bool)
	if d, ok := entry[fieldDuration]; ok && d != nil {
		r.Hours, _ = coerceHours(d)
	}
	if b, ok := entry[fieldBreak]; ok && b != nil {
		r.BreakHours, _ = coerceHours(b)
	}
	if w, ok := entry[fieldTaskID]; ok && w != nil {
		r.TaskID, _ = coerceID(w)
	}
	return r
}

func withSubjectFallback(entry map[string]any) map[string]any {
	if _, ok := entry[fieldSubject]; ok {
		return entry
	}
	desc, ok := entry[fieldDescription]
	if !ok {
		return entry
	}
	out := make(map[string]any, len(entry)+1)
	for k, v := range entry {
		out[k] = v
	}
	out[fieldSubject] = desc
	return out
}

// coerceHours accepts numbers and numeric strings; a trailing "h" unit is stripped.
func coerceHours(v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, err
		}
		f = n
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		s := strings.TrimSpace(x)
		s = strings.TrimSuffix(strings.TrimSuffix(s, "h"), "H")
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, err
		}
		f = n
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %v", f)
	}
	return f, nil
}

// coerceID accepts integers, integral floats and digit strings.
func coerceID(v any) (int64, error) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, nil
		}
		f, err := x.Float64()
		if err != nil {
			return 0, err
		}
		return integral(f)
	case float64:
		return integral(x)
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(x), 10, 64)
	}
	return 0, fmt.Errorf("not an integer: %T", v)
}

func integral(f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("not an integer: %v", f)
	}
	return int64(f), nil
}

func quoteList(names []string) string {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = strconv.Quote(n)
	}
	return "[" + strings.Join(q, ", ") + "]"
}
