package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kudi/internal/core"
	"kudi/internal/ledger"
)

// ExpenseCreator is the slice of EntryService the scheduler needs.
// Materialized occurrences go through the same funnel as manual entries.
type ExpenseCreator interface {
	CreateExpense(ctx context.Context, in ExpenseInput) (core.Entry, error)
}

// RuleIssue reports a rule that could not be processed during a run.
type RuleIssue struct {
	RuleID string
	Err    error
}

// RunResult is the outcome of one scheduler pass.
type RunResult struct {
	Materialized []core.Entry
	Updated      []core.Rule
	Issues       []RuleIssue
}

// Scheduler materializes due recurring rules into ledger entries, exactly
// once per due date. Running it again for the same date is a no-op.
type Scheduler struct {
	rules   ledger.RuleRepository
	entries ExpenseCreator
}

func NewScheduler(rules ledger.RuleRepository, entries ExpenseCreator) *Scheduler {
	return &Scheduler{rules: rules, entries: entries}
}

// Run evaluates every active rule against the evaluation date. A malformed
// rule is skipped and reported; it never blocks the other rules.
func (s *Scheduler) Run(ctx context.Context, eval core.Date) (RunResult, error) {
	started := time.Now()
	schedulerRunsTotal.Inc()

	rules, err := s.rules.Active(ctx)
	if err != nil {
		return RunResult{}, fmt.Errorf("load active rules: %w", err)
	}

	slog.InfoContext(ctx, "Evaluating recurring rules",
		"total_active", len(rules),
		"evaluation_date", eval.String())

	var res RunResult
	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			s.report(ctx, &res, rule.ID, fmt.Errorf("invalid rule: %w", err))
			continue
		}

		due, err := IsDue(rule, eval)
		if err != nil {
			s.report(ctx, &res, rule.ID, err)
			continue
		}
		if !due {
			continue
		}

		entry, err := s.entries.CreateExpense(ctx, ExpenseInput{
			Name:         rule.Name,
			Amount:       rule.Amount,
			Currency:     rule.Currency,
			Category:     rule.Category,
			OccurredAt:   eval,
			OriginRuleID: rule.ID,
		})
		if err != nil {
			if errors.Is(err, core.ErrAlreadyLogged) {
				// The occurrence exists but the marker never advanced
				// (e.g. a crash between append and update). Repair the
				// marker so the rule stops re-firing.
				s.advance(ctx, &res, rule, eval)
				continue
			}
			s.report(ctx, &res, rule.ID, fmt.Errorf("materialize: %w", err))
			continue
		}

		res.Materialized = append(res.Materialized, entry)
		materializedTotal.Inc()
		s.advance(ctx, &res, rule, eval)

		slog.InfoContext(ctx, "Materialized recurring expense",
			"rule_id", rule.ID,
			"entry_id", entry.ID,
			"name", rule.Name,
			"amount_cents", rule.Amount.Cents,
			"frequency", rule.Frequency)
	}

	runDurationSeconds.Observe(time.Since(started).Seconds())
	slog.InfoContext(ctx, "Recurring run complete",
		"materialized", len(res.Materialized),
		"issues", len(res.Issues),
		"total_checked", len(rules))

	return res, nil
}

func (s *Scheduler) advance(ctx context.Context, res *RunResult, rule core.Rule, eval core.Date) {
	if err := s.rules.SetLastMaterialized(ctx, rule.ID, eval); err != nil {
		// The entry exists; only the marker failed. The duplicate guard on
		// the ledger keeps the next run from double-logging.
		s.report(ctx, res, rule.ID, fmt.Errorf("advance marker: %w", err))
		return
	}
	rule.LastMaterialized = eval
	res.Updated = append(res.Updated, rule)
}

func (s *Scheduler) report(ctx context.Context, res *RunResult, ruleID string, err error) {
	res.Issues = append(res.Issues, RuleIssue{RuleID: ruleID, Err: err})
	ruleIssuesTotal.Inc()
	slog.ErrorContext(ctx, "Skipping recurring rule", "rule_id", ruleID, "error", err)
}
