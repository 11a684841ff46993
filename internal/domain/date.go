package domain

import (
	"fmt"
	"time"
)

// Date is a calendar day without a time zone. Times derived from it are
// interpreted in one process-wide location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns the date and reports whether the triple is a real calendar day.
func NewDate(year int, month time.Month, day int) (Date, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, false
	}
	return Date{Year: year, Month: month, Day: day}, true
}

// At returns the wall-clock time c on d in loc.
func (d Date) At(c Clock, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, 0, 0, loc)
}

// String formats the date as YYYY-MM-DD, the form OpenProject uses for spentOn.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Long is the human form used in prompts, e.g. "Sunday, September 07, 2025".
func (d Date) Long() string {
	return d.At(Clock{}, time.UTC).Format("Monday, January 02, 2006")
}

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	v, err := ParseISODate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ParseISODate parses YYYY-MM-DD.
func ParseISODate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// Clock is a time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

var (
	DayStart  = Clock{Hour: 9}
	FixedSlot = Clock{Hour: 10}
)

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }
