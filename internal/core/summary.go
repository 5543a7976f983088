package core

import "sort"

// CategoryAmount is a normalized expense total for one category.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// ActivityDuration is a logged-time total for one activity.
type ActivityDuration struct {
	Name    string
	Seconds int64
}

// Summary is the derived view of the ledger for an evaluation date. All
// windows are calendar-based: today is the same calendar day, the week runs
// from the most recent Sunday up to the evaluation date, the month is the
// whole calendar month regardless of where the evaluation date falls in it.
type Summary struct {
	Date Date

	TodayCents Money
	WeekCents  Money
	MonthCents Money
	ByCategory []CategoryAmount

	TodaySeconds int64
	WeekSeconds  int64
	MonthSeconds int64
	ByActivity   []ActivityDuration
}

// Summarize recomputes the full summary from the given entries. It is a pure
// function of its inputs; entries outside every window are ignored, so
// callers may pass the whole ledger or a pre-filtered slice.
func Summarize(entries []Entry, eval Date) Summary {
	weekStart := StartOfWeek(eval)
	s := Summary{Date: eval}

	byCategory := make(map[string]int64)
	byActivity := make(map[string]int64)

	for _, e := range entries {
		d := e.OccurredAt
		today := SameDay(d, eval)
		inWeek := !d.Time.Before(weekStart.Time) && !eval.BeforeDay(d)
		inMonth := SameMonth(d, eval)

		switch e.Kind {
		case Expense:
			if today {
				s.TodayCents.Cents += e.Normalized.Cents
			}
			if inWeek {
				s.WeekCents.Cents += e.Normalized.Cents
			}
			if inMonth {
				s.MonthCents.Cents += e.Normalized.Cents
				byCategory[e.Category] += e.Normalized.Cents
			}
		case TimeLog:
			if today {
				s.TodaySeconds += e.DurationSeconds
			}
			if inWeek {
				s.WeekSeconds += e.DurationSeconds
			}
			if inMonth {
				s.MonthSeconds += e.DurationSeconds
				byActivity[e.Activity] += e.DurationSeconds
			}
		}
	}

	for name, cents := range byCategory {
		s.ByCategory = append(s.ByCategory, CategoryAmount{Name: name, Amount: Money{Cents: cents}})
	}
	sort.Slice(s.ByCategory, func(i, j int) bool { return s.ByCategory[i].Name < s.ByCategory[j].Name })

	for name, secs := range byActivity {
		s.ByActivity = append(s.ByActivity, ActivityDuration{Name: name, Seconds: secs})
	}
	sort.Slice(s.ByActivity, func(i, j int) bool { return s.ByActivity[i].Name < s.ByActivity[j].Name })

	return s
}
