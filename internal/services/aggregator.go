package services

import (
	"context"
	"fmt"

	"kudi/internal/core"
	"kudi/internal/ledger"
)

// Aggregator derives the summary view from the ledger. It queries the widest
// window a summary needs (the week can start in the previous month, the month
// runs to its last day) and hands the entries to the pure core.Summarize.
type Aggregator struct {
	ledger ledger.Ledger
}

func NewAggregator(l ledger.Ledger) *Aggregator {
	return &Aggregator{ledger: l}
}

func (a *Aggregator) Summarize(ctx context.Context, eval core.Date) (core.Summary, error) {
	from := core.StartOfMonth(eval)
	if ws := core.StartOfWeek(eval); ws.Time.Before(from.Time) {
		from = ws
	}

	// First day of the next month; the month total covers the whole month,
	// not just the days up to the evaluation date.
	to := core.StartOfMonth(eval).AddDays(core.LastDayOfMonth(eval))

	entries, err := a.ledger.QueryRange(ctx, from, to)
	if err != nil {
		return core.Summary{}, fmt.Errorf("query summary window: %w", err)
	}

	return core.Summarize(entries, eval), nil
}
