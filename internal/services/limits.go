package services

import (
	"fmt"
	"sort"

	"kudi/internal/core"
)

// CheckLimits compares the calendar-month totals of a summary against budget
// thresholds and returns one warning per exceeded limit. A zero threshold
// means no limit is set.
func CheckLimits(s core.Summary, l core.Limits) []string {
	var warnings []string

	if l.MonthlyCents > 0 && s.MonthCents.Cents > l.MonthlyCents {
		warnings = append(warnings, fmt.Sprintf(
			"monthly budget of %.2f exceeded: spent %.2f",
			core.Money{Cents: l.MonthlyCents}.Units(),
			s.MonthCents.Units()))
	}

	spentByCategory := make(map[string]int64, len(s.ByCategory))
	for _, c := range s.ByCategory {
		spentByCategory[c.Name] = c.Amount.Cents
	}

	categories := make([]string, 0, len(l.CategoryCents))
	for name := range l.CategoryCents {
		categories = append(categories, name)
	}
	sort.Strings(categories)

	for _, name := range categories {
		limit := l.CategoryCents[name]
		if limit <= 0 {
			continue
		}
		if spent := spentByCategory[name]; spent > limit {
			warnings = append(warnings, fmt.Sprintf(
				"%s budget of %.2f exceeded: spent %.2f",
				name,
				core.Money{Cents: limit}.Units(),
				core.Money{Cents: spent}.Units()))
		}
	}

	return warnings
}
