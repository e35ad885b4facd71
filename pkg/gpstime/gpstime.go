// Package gpstime converts between civil time and the GPS week numbering
// scheme that partitions the product archives.
package gpstime

import "time"

// Epoch is the start of the GPS time scale: 1980-01-06 00:00:00 UTC, a Sunday.
var Epoch = time.Date(1980, 1, 6, 0, 0, 0, 0, time.UTC)

const weekDur = 7 * 24 * time.Hour

// Week returns the GPS week number containing t.
func Week(t time.Time) int {
	return int(t.Sub(Epoch) / weekDur)
}

// WeekStart returns the first instant of the given GPS week.
func WeekStart(week int) time.Time {
	return Epoch.Add(time.Duration(week) * weekDur)
}

// FromWeekDay returns the UTC date for a GPS week and a day offset within it.
// Day 0 is the Sunday the week begins with.
func FromWeekDay(week, day int) time.Time {
	return WeekStart(week).Add(time.Duration(day) * 24 * time.Hour)
}

// DayOfWeek returns the day offset of t within its GPS week, 0..6.
func DayOfWeek(t time.Time) int {
	return int(t.Sub(WeekStart(Week(t))) / (24 * time.Hour))
}

// Weeks returns the GPS weeks overlapping [start, end], ascending.
// An end before start yields an empty slice.
func Weeks(start, end time.Time) []int {
	if end.Before(start) {
		return nil
	}
	first, last := Week(start), Week(end)
	weeks := make([]int, 0, last-first+1)
	for w := first; w <= last; w++ {
		weeks = append(weeks, w)
	}
	return weeks
}

// FromDoy returns the UTC time for a 4-digit year and a day of year.
func FromDoy(year, doy int) time.Time {
	t := time.Date(year, 1, 0, 0, 0, 0, 0, time.UTC)
	return t.Add(time.Duration(doy) * time.Hour * 24)
}
