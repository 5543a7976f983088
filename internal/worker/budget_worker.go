// Package worker consumes ledger change events and keeps derived views
// current on the consumer side of the event stream.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"kudi/internal/amqp"
	"kudi/internal/core"
	"kudi/internal/ledger"
	"kudi/internal/services"
)

// EventStream delivers entry events until the context is cancelled.
type EventStream interface {
	ConsumeEntryEvents(ctx context.Context, handler func(*amqp.EntryEventMessage) error) error
}

// Summarizer is the slice of services.Aggregator the worker needs.
type Summarizer interface {
	Summarize(ctx context.Context, eval core.Date) (core.Summary, error)
}

// BudgetWorker recomputes the month summary after every ledger change and
// logs the budget limits it finds exceeded.
type BudgetWorker struct {
	stream    EventStream
	summaries Summarizer
	limits    ledger.LimitsStore
	clock     core.Clock
}

func NewBudgetWorker(stream EventStream, summaries Summarizer, limits ledger.LimitsStore, clock core.Clock) *BudgetWorker {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &BudgetWorker{
		stream:    stream,
		summaries: summaries,
		limits:    limits,
		clock:     clock,
	}
}

// Run consumes entry events until the context is cancelled.
func (w *BudgetWorker) Run(ctx context.Context) error {
	return w.stream.ConsumeEntryEvents(ctx, func(msg *amqp.EntryEventMessage) error {
		return w.handle(ctx, msg)
	})
}

func (w *BudgetWorker) handle(ctx context.Context, msg *amqp.EntryEventMessage) error {
	warnings, err := w.check(ctx)
	if err != nil {
		return fmt.Errorf("recheck budget after %s event for %s: %w", msg.Action, msg.ID, err)
	}

	if len(warnings) == 0 {
		slog.DebugContext(ctx, "Budget within limits",
			"entry_id", msg.ID,
			"action", msg.Action)
		return nil
	}
	for _, warning := range warnings {
		slog.WarnContext(ctx, "Budget limit exceeded",
			"entry_id", msg.ID,
			"action", msg.Action,
			"warning", warning)
	}
	return nil
}

// check recomputes the warnings for the month containing the current day.
func (w *BudgetWorker) check(ctx context.Context) ([]string, error) {
	eval := core.Today(w.clock)

	summary, err := w.summaries.Summarize(ctx, eval)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	l, err := w.limits.Limits(ctx)
	if err != nil {
		return nil, fmt.Errorf("load limits: %w", err)
	}
	return services.CheckLimits(summary, l), nil
}
