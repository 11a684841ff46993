package worklog

import (
	"errors"
	"strings"
	"testing"
	"time"

	"worklog-sync/internal/domain"
)

func TestParseDate_AcceptsMonthForms(t *testing.T) {
	cases := map[string]domain.Date{
		"sept-07-2025":      {Year: 2025, Month: time.September, Day: 7},
		"Sep-7-2025":        {Year: 2025, Month: time.September, Day: 7},
		"SEPTEMBER-30-2025": {Year: 2025, Month: time.September, Day: 30},
		"jan-01-2024":       {Year: 2024, Month: time.January, Day: 1},
		"may-15-2025":       {Year: 2025, Month: time.May, Day: 15},
		"feb-29-2024":       {Year: 2024, Month: time.February, Day: 29},
	}
	for token, want := range cases {
		got, err := ParseDate(token)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", token, err)
		}
		if got != want {
			t.Fatalf("ParseDate(%q) = %v, want %v", token, got, want)
		}
	}
}

func TestParseDate_InvalidMonthNamesToken(t *testing.T) {
	_, err := ParseDate("foo-07-2025")
	if err == nil {
		t.Fatal("expected error")
	}
	var mde *domain.MalformedDateError
	if !errors.As(err, &mde) {
		t.Fatalf("expected MalformedDateError, got %T", err)
	}
	if !strings.Contains(err.Error(), `"foo"`) {
		t.Fatalf("error should name the month token: %v", err)
	}
}

func TestParseDate_Rejects(t *testing.T) {
	for _, token := range []string{
		"2025-09-07",
		"sept-7-25",
		"sept-007-2025",
		"sept-07-2025-x",
		"feb-29-2025",
		"apr-31-2025",
		"",
	} {
		if _, err := ParseDate(token); err == nil {
			t.Fatalf("ParseDate(%q) should fail", token)
		}
	}
}

func TestParseClock(t *testing.T) {
	cases := map[string]domain.Clock{
		"9:00 AM":  {Hour: 9},
		"9:30 pm":  {Hour: 21, Minute: 30},
		"12:15 AM": {Hour: 0, Minute: 15},
		"09:00":    {Hour: 9},
		"14:30":    {Hour: 14, Minute: 30},
		"14":       {Hour: 14},
		" 8 ":      {Hour: 8},
	}
	for in, want := range cases {
		got, err := ParseClock(in)
		if err != nil {
			t.Fatalf("ParseClock(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseClock(%q) = %v, want %v", in, got, want)
		}
	}
	for _, bad := range []string{"", "25:00", "noon", "9:75"} {
		if _, err := ParseClock(bad); err == nil {
			t.Fatalf("ParseClock(%q) should fail", bad)
		}
	}
}

func TestFormatClock(t *testing.T) {
	if got := FormatClock(domain.Clock{Hour: 9}); got != "9:00 AM" {
		t.Fatalf("got %q", got)
	}
	if got := FormatClock(domain.Clock{Hour: 14, Minute: 30}); got != "2:30 PM" {
		t.Fatalf("got %q", got)
	}
}
