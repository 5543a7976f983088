package core

import "time"

// Clock abstracts "now" so due-ness and summaries stay deterministic under
// test. Production code uses SystemClock; tests pin a fixed date.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Today returns the current calendar day of the given clock.
func Today(c Clock) Date {
	return DateOf(c.Now())
}

// SameDay reports whether two dates fall on the same calendar day.
func SameDay(a, b Date) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// SameMonth reports whether two dates share calendar month and year.
func SameMonth(a, b Date) bool {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return ay == by && am == bm
}

// StartOfWeek returns the most recent Sunday at or before d.
func StartOfWeek(d Date) Date {
	return d.AddDays(-int(d.Weekday()))
}

// StartOfMonth returns the first day of d's month.
func StartOfMonth(d Date) Date {
	y, m, _ := d.Date()
	return NewDate(y, int(m), 1)
}

// LastDayOfMonth returns the number of days in d's month.
func LastDayOfMonth(d Date) int {
	y, m, _ := d.Date()
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysBetween returns the whole calendar days from a to b, negative when b
// precedes a.
func DaysBetween(a, b Date) int {
	return int(b.Time.Sub(a.Time).Hours() / 24)
}

// AddDays returns the date n calendar days after d.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// BeforeDay reports whether d falls on an earlier calendar day than other.
func (d Date) BeforeDay(other Date) bool {
	return d.Time.Before(other.Time) && !SameDay(d, other)
}
