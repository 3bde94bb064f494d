// utils/dates.go
package utils

import "time"

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func DaysBetween(start, end time.Time) int {
	start = BeginningOfDay(start)
	end = BeginningOfDay(end)
	ys, ms, ds := start.Date()
	ye, me, de := end.Date()
	// Compare as UTC calendar dates so DST shifts do not skew the count.
	a := time.Date(ys, ms, ds, 0, 0, 0, 0, time.UTC)
	b := time.Date(ye, me, de, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return DaysBetween(a.In(loc), b.In(loc)) == 0
}
