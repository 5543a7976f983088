// Package services provides the orchestration layer: recurring-expense
// scheduling, the shared entry-creation funnel, summary aggregation and
// budget-limit checks.
//
// This file implements the dueness strategies. Each frequency has its own
// checker; the shared preconditions (nothing before the start date, nothing
// twice on the same day) live in IsDue.
package services

import (
	"fmt"

	"kudi/internal/core"
)

// DuenessChecker decides whether a rule's cadence lands on the evaluation
// date. Implementations are pure functions of the rule and the date.
type DuenessChecker interface {
	IsDue(r core.Rule, eval core.Date) bool
}

// DailyChecker fires on every evaluation date.
type DailyChecker struct{}

func (DailyChecker) IsDue(core.Rule, core.Date) bool { return true }

// WeeklyChecker fires on dates an exact multiple of seven days after the
// start date, never in between.
type WeeklyChecker struct{}

func (WeeklyChecker) IsDue(r core.Rule, eval core.Date) bool {
	return core.DaysBetween(r.StartDate, eval)%7 == 0
}

// MonthlyChecker fires when the day of month matches the start date's day.
// When the evaluation month is too short the occurrence moves to the last day
// of that month; skipping the month entirely would silently drop a recurring
// obligation.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(r core.Rule, eval core.Date) bool {
	target := r.StartDate.Day()
	if last := core.LastDayOfMonth(eval); target > last {
		target = last
	}
	return eval.Day() == target
}

var duenessStrategies = map[core.Frequency]DuenessChecker{
	core.Daily:   DailyChecker{},
	core.Weekly:  WeeklyChecker{},
	core.Monthly: MonthlyChecker{},
}

// GetDuenessChecker returns the checker for a frequency.
func GetDuenessChecker(f core.Frequency) (DuenessChecker, error) {
	checker, ok := duenessStrategies[f]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownFrequency, f)
	}
	return checker, nil
}

// IsDue evaluates a rule against a calendar date. It is pure: no clock, no
// storage. A rule is never due before its start date, and never due twice on
// the same day (the LastMaterialized guard makes scheduler runs idempotent).
func IsDue(r core.Rule, eval core.Date) (bool, error) {
	checker, err := GetDuenessChecker(r.Frequency)
	if err != nil {
		return false, err
	}
	if eval.Time.Before(r.StartDate.Time) {
		return false, nil
	}
	if !r.LastMaterialized.IsZero() && core.SameDay(r.LastMaterialized, eval) {
		return false, nil
	}
	return checker.IsDue(r, eval), nil
}
