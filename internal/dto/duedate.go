package dto

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	dateOnlyLayout = "2006-01-02"
	// ISO-8601 datetime without an offset; read as UTC.
	localDateTimeLayout = "2006-01-02T15:04:05.999999999"
)

var (
	dateOnlyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dateTimePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`)

	ErrDateFormat = errors.New("invalid date format, use YYYY-MM-DD or an ISO-8601 datetime")
)

// ParseDueDate accepts either a date ("2025-01-01", start of that day in UTC)
// or an ISO-8601 datetime ("2025-01-01T10:30:00+02:00"). The result is always UTC.
func ParseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	switch {
	case dateOnlyPattern.MatchString(s):
		return parseDateOnly(s)
	case dateTimePattern.MatchString(s):
		return parseDateTime(s)
	}
	return time.Time{}, ErrDateFormat
}

func parseDateOnly(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateOnlyLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, ErrDateFormat
	}
	return t, nil
}

func parseDateTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(localDateTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, ErrDateFormat
	}
	return t, nil
}
