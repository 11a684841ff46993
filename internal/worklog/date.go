package worklog

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"worklog-sync/internal/domain"
)

var dateToken = regexp.MustCompile(`^(\w+)-(\d{1,2})-(\d{4})$`)

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// ParseDate parses a day label such as "sept-07-2025".
func ParseDate(token string) (domain.Date, error) {
	m := dateToken.FindStringSubmatch(strings.ToLower(token))
	if m == nil {
		return domain.Date{}, &domain.MalformedDateError{
			Token:  token,
			Reason: "expected month-day-year, e.g. sept-07-2025",
		}
	}
	month, ok := months[m[1]]
	if !ok {
		return domain.Date{}, &domain.MalformedDateError{
			Token:  token,
			Reason: "invalid month " + strconv.Quote(m[1]),
		}
	}
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	d, ok := domain.NewDate(year, month, day)
	if !ok {
		return domain.Date{}, &domain.MalformedDateError{
			Token:  token,
			Reason: "no such calendar day",
		}
	}
	return d, nil
}
