package utils

import (
	"errors"
	"regexp"
	"time"
)

// DateLayout is the canonical date-only layout used across the service.
const DateLayout = "2006-01-02"

var datePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// ErrNoDate is returned when no calendar date can be extracted from a value.
var ErrNoDate = errors.New("no calendar date found")

// ExtractDate pulls the first YYYY-MM-DD substring out of a raw upstream
// value. Upstream feeds mix bare dates, datetimes and timestamps with noise
// around them.
func ExtractDate(raw string) (string, bool) {
	match := datePattern.FindString(raw)
	return match, match != ""
}

// ParseDate extracts and parses a calendar date from a raw value. The result
// is timezone-naive: midnight UTC on the extracted day.
func ParseDate(raw string) (time.Time, error) {
	text, ok := ExtractDate(raw)
	if !ok {
		return time.Time{}, ErrNoDate
	}
	return time.Parse(DateLayout, text)
}

// DateOnly truncates a time to its calendar date at midnight UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddMonths returns the (year, month) pair offset months after the given one.
func AddMonths(year int, month time.Month, offset int) (int, time.Month) {
	total := year*12 + int(month) - 1 + offset
	return total / 12, time.Month(total%12 + 1)
}

// AdjustBusinessDay moves a date off the weekend, forward or backward.
func AdjustBusinessDay(day time.Time, forward bool) time.Time {
	step := 24 * time.Hour
	if !forward {
		step = -step
	}
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.Add(step)
	}
	return day
}

// FirstBusinessDay returns the first weekday of the given month.
func FirstBusinessDay(year int, month time.Month) time.Time {
	return AdjustBusinessDay(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), true)
}

// LastBusinessDay returns the last weekday of the given month.
func LastBusinessDay(year int, month time.Month) time.Time {
	nextYear, nextMonth := AddMonths(year, month, 1)
	last := time.Date(nextYear, nextMonth, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return AdjustBusinessDay(last, false)
}

// NthWeekdayOfMonth returns the nth occurrence of a weekday in a month,
// e.g. the first Friday.
func NthWeekdayOfMonth(year int, month time.Month, weekday time.Weekday, nth int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	shift := (int(weekday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, shift+7*(nth-1))
}
