package models

import "time"

// Period is a resampling granularity.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

func IsValidPeriod(p Period) bool {
	switch p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return true
	default:
		return false
	}
}

// End returns the last calendar day (UTC midnight) of the period containing t.
// Weeks end on Sunday.
func (p Period) End(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch p {
	case PeriodWeek:
		offset := (7 - int(day.Weekday())) % 7
		return day.AddDate(0, 0, offset)
	case PeriodMonth:
		return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	case PeriodYear:
		return time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}
