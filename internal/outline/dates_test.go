package outline

import (
	"testing"
	"time"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestResolveMonthDay(t *testing.T) {
	cases := []struct {
		monthDay string
		today    time.Time
		want     string
	}{
		// Future date in the current year.
		{"9/15", day(2026, 9, 1), "2026-09-15"},
		// Today resolves to today.
		{"9/1", day(2026, 9, 1), "2026-09-01"},
		// Recently passed stays in the past.
		{"8/20", day(2026, 9, 1), "2026-08-20"},
		// Passed more than a month ago jumps to next year.
		{"7/1", day(2026, 9, 1), "2027-07-01"},
		// Year boundary: a late-December date seen in early January is the
		// previous year's, not eleven months ahead.
		{"12/31", day(2027, 1, 5), "2026-12-31"},
		// And an early-January date seen in late December is next year's.
		{"1/10", day(2026, 12, 20), "2027-01-10"},
	}

	for _, c := range cases {
		got, err := ResolveMonthDay(c.monthDay, c.today)
		if err != nil {
			t.Errorf("ResolveMonthDay(%q, %s) failed: %v", c.monthDay, c.today.Format("2006-01-02"), err)
			continue
		}
		if got != c.want {
			t.Errorf("ResolveMonthDay(%q, %s) = %s, want %s", c.monthDay, c.today.Format("2006-01-02"), got, c.want)
		}
	}
}

func TestResolveMonthDayInvalid(t *testing.T) {
	today := day(2026, 9, 1)
	for _, s := range []string{"", "9", "9/15/2026", "a/b", "13/1", "2/30", "2/29"} {
		if _, err := ResolveMonthDay(s, today); err == nil {
			t.Errorf("Expected error for %q", s)
		}
	}
}
