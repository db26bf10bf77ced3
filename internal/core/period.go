package core

import (
	"fmt"
	"time"
)

// Period identifies a calendar month. Month is zero based (0 = January) to
// match the stored budget records and the backup format.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// PeriodOf returns the period containing t, in t's location.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month()) - 1}
}

func (p Period) Validate() error {
	if p.Month < 0 || p.Month > 11 {
		return fmt.Errorf("%w: %d (expected 0-11)", ErrInvalidMonth, p.Month)
	}
	return nil
}

// Start returns the first instant of the month in loc.
func (p Period) Start(loc *time.Location) time.Time {
	return time.Date(p.Year, time.Month(p.Month+1), 1, 0, 0, 0, 0, loc)
}

// End returns the last instant of the month in loc.
func (p Period) End(loc *time.Location) time.Time {
	return p.Next().Start(loc).Add(-time.Nanosecond)
}

// Contains reports whether t falls within [Start, End] of the month in loc.
func (p Period) Contains(t time.Time, loc *time.Location) bool {
	return !t.Before(p.Start(loc)) && !t.After(p.End(loc))
}

// Days returns the number of days in the month.
func (p Period) Days() int {
	return time.Date(p.Year, time.Month(p.Month+2), 0, 0, 0, 0, 0, time.UTC).Day()
}

func (p Period) Prev() Period {
	if p.Month == 0 {
		return Period{Year: p.Year - 1, Month: 11}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

func (p Period) Next() Period {
	if p.Month == 11 {
		return Period{Year: p.Year + 1, Month: 0}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month+1)
}
