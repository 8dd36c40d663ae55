package model

import (
	"errors"
	"strings"
	"time"
)

const (
	calendarDateLayout = "2006-01-02"
	// isoInstantLayout always renders milliseconds and a Z suffix for UTC,
	// e.g. 2025-12-31T00:00:00.000Z.
	isoInstantLayout = "2006-01-02T15:04:05.000Z07:00"
)

// NormalizeDate converts a form date into a full ISO-8601 instant in UTC.
//
// A bare calendar date ("2025-12-31") is taken as midnight UTC. Values that
// already carry a time (RFC 3339) are converted to UTC and re-rendered with
// millisecond precision.
func NormalizeDate(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", errors.New("date is empty")
	}

	if t, err := time.Parse(calendarDateLayout, v); err == nil {
		return t.UTC().Format(isoInstantLayout), nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return "", err
	}
	return t.UTC().Format(isoInstantLayout), nil
}

// DisplayDate returns the calendar-date portion of an ISO timestamp: its
// leading 10 characters. Shorter values are returned unchanged. Characters
// are counted as runes, so malformed input is never cut inside a UTF-8
// sequence.
func DisplayDate(ts string) string {
	n := 0
	for i := range ts {
		if n == len(calendarDateLayout) {
			return ts[:i]
		}
		n++
	}
	return ts
}

// CalendarDay parses the leading calendar date of an ISO timestamp.
func CalendarDay(ts string) (time.Time, error) {
	return time.Parse(calendarDateLayout, DisplayDate(ts))
}
