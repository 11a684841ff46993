package worklog

import (
	"fmt"
	"strings"
	"time"

	"worklog-sync/internal/domain"
)

// ParseClock parses a day start time typed by the operator. Accepted forms
// are "9:00 AM", "09:30", "14:30" and a bare hour such as "14".
func ParseClock(s string) (domain.Clock, error) {
	s = strings.TrimSpace(s)
	upper := strings.ToUpper(s)
	layouts := []string{"15:04", "15"}
	if strings.Contains(upper, "AM") || strings.Contains(upper, "PM") {
		layouts = []string{"3:04 PM", "3:04PM", "3 PM", "3PM"}
		s = upper
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return domain.Clock{}, fmt.Errorf("invalid time format: %q", s)
}

// FormatClock renders c in 12-hour form without a leading zero, e.g. "9:00 AM".
func FormatClock(c domain.Clock) string {
	return time.Date(0, 1, 1, c.Hour, c.Minute, 0, 0, time.UTC).Format("3:04 PM")
}
