// utils/dates.go
package utils

import "time"

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// DaysBetween counts calendar days from start to end. Both are truncated to
// midnight first, and the result is rounded so that a DST shift between the
// two days does not lose a day.
func DaysBetween(start, end time.Time) int {
	start = BeginningOfDay(start)
	end = BeginningOfDay(end)
	hours := end.Sub(start).Hours()
	if hours < 0 {
		return -int((-hours + 12) / 24)
	}
	return int((hours + 12) / 24)
}

// AddMonthsClamped moves t forward by months calendar months. When the day
// of month does not exist in the target month the last day is used instead
// of overflowing into the following month.
func AddMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, months, 0)
	if last := DaysIn(target.Year(), target.Month()); day > last {
		day = last
	}
	return target.AddDate(0, 0, day-1)
}

func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
