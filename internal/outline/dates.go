package outline

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const isoDate = "2006-01-02"

// ResolveMonthDay resolves a recurring "M/D" annotation into a concrete ISO
// date without the user naming the year. The same month/day is considered in
// the current, previous, and next year: a candidate on or before today and at
// most 31 days in the past wins (so a just-passed deadline does not jump a
// year forward); otherwise the current-year date is used if it is still ahead,
// else the next-year date.
func ResolveMonthDay(monthDay string, today time.Time) (string, error) {
	parts := strings.Split(monthDay, "/")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid month/day %q", monthDay)
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", fmt.Errorf("invalid month/day %q", monthDay)
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", fmt.Errorf("invalid month/day %q", monthDay)
	}

	todayDate := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	thisYear, ok := makeDate(todayDate.Year(), month, day)
	if !ok {
		return "", fmt.Errorf("invalid month/day %q", monthDay)
	}
	lastYear, ok := makeDate(todayDate.Year()-1, month, day)
	if !ok {
		return "", fmt.Errorf("invalid month/day %q", monthDay)
	}
	nextYear, ok := makeDate(todayDate.Year()+1, month, day)
	if !ok {
		return "", fmt.Errorf("invalid month/day %q", monthDay)
	}

	// Nearest past candidate within a month wins.
	var nearestPast time.Time
	for _, d := range []time.Time{thisYear, lastYear} {
		if !d.After(todayDate) && d.After(nearestPast) {
			nearestPast = d
		}
	}
	if !nearestPast.IsZero() {
		if days := int(todayDate.Sub(nearestPast).Hours() / 24); days <= 31 {
			return nearestPast.Format(isoDate), nil
		}
	}

	if thisYear.After(todayDate) {
		return thisYear.Format(isoDate), nil
	}
	return nextYear.Format(isoDate), nil
}

// makeDate builds a date and rejects month/day pairs that do not exist in the
// given year (time.Date would silently normalize them).
func makeDate(year, month, day int) (time.Time, bool) {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if int(d.Month()) != month || d.Day() != day || d.Year() != year {
		return time.Time{}, false
	}
	return d, true
}
