package util

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts are the calendar forms seen in price exports, tried in order
// after RFC3339. Slash dates are month-first (US exports), dotted dates are
// day-first (European exports).
var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	"2006/01/02",
	"02.01.2006",
	"01/02/2006",
}

// unix timestamps at or above this are milliseconds (year 2001 in ms).
const unixMillisFloor = 1_000_000_000_000

// ParseTime accepts RFC3339, the calendar layouts above, and unix seconds or
// milliseconds. Calendar dates without a zone are UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ts <= 0 {
		return time.Time{}, false
	}
	if ts >= unixMillisFloor {
		return time.UnixMilli(ts).UTC(), true
	}
	return time.Unix(ts, 0).UTC(), true
}

// ParseDay parses s and truncates it to its UTC calendar day.
func ParseDay(s string) (time.Time, bool) {
	t, ok := ParseTime(s)
	if !ok {
		return time.Time{}, false
	}
	return TruncateDay(t), true
}

// TruncateDay returns UTC midnight of the calendar day of t in UTC.
func TruncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last nanosecond of the UTC calendar day of t.
func EndOfDay(t time.Time) time.Time {
	return TruncateDay(t).Add(24*time.Hour - time.Nanosecond)
}
