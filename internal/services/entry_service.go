package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"kudi/internal/core"
	"kudi/internal/ledger"
	"kudi/internal/rates"
)

// Publisher notifies downstream consumers (renderers, exporters) of ledger
// changes. A nil publisher disables the event stream.
type Publisher interface {
	PublishEntryCreated(ctx context.Context, id string) error
	PublishEntryDeleted(ctx context.Context, id string) error
}

// ExpenseInput carries a new expense through the shared creation funnel.
type ExpenseInput struct {
	Name         string
	Amount       core.Money
	Currency     string
	Category     string
	OccurredAt   core.Date
	OriginRuleID string
}

// ExpenseUpdate carries a user edit to an existing expense. A zero OccurredAt
// keeps the stored date; an empty Currency keeps the stored currency.
type ExpenseUpdate struct {
	Name       string
	Amount     core.Money
	Currency   string
	Category   string
	OccurredAt core.Date
}

// TimeLogInput carries a new logged block of time.
type TimeLogInput struct {
	Activity   string
	Duration   int64 // seconds
	OccurredAt core.Date
}

// EntryService is the single path into the ledger for both manual
// submissions and scheduler materializations: one validation contract, one
// normalization step, one event stream.
type EntryService struct {
	ledger    ledger.Ledger
	converter rates.Converter
	pub       Publisher
	newID     func() string
}

func NewEntryService(l ledger.Ledger, converter rates.Converter, pub Publisher) *EntryService {
	return &EntryService{
		ledger:    l,
		converter: converter,
		pub:       pub,
		newID:     uuid.NewString,
	}
}

// CreateExpense normalizes the amount into the base currency and appends the
// entry. When rates are unavailable the raw amount is stored and the entry is
// flagged for later reconciliation instead of being rejected.
func (s *EntryService) CreateExpense(ctx context.Context, in ExpenseInput) (core.Entry, error) {
	e := core.Entry{
		ID:           s.newID(),
		Kind:         core.Expense,
		Name:         in.Name,
		Amount:       in.Amount,
		Currency:     in.Currency,
		Category:     in.Category,
		OccurredAt:   in.OccurredAt,
		OriginRuleID: in.OriginRuleID,
	}

	normalized, err := s.converter.Convert(ctx, in.Amount, in.Currency)
	switch {
	case err == nil:
		e.Normalized = normalized
	case errors.Is(err, rates.ErrUnavailable) || errors.Is(err, rates.ErrUnknownCurrency):
		e.Normalized = in.Amount
		e.ConversionPending = true
		slog.WarnContext(ctx, "Conversion unavailable, storing raw amount",
			"currency", in.Currency,
			"amount_cents", in.Amount.Cents,
			"error", err)
	default:
		return core.Entry{}, fmt.Errorf("normalize amount: %w", err)
	}

	if _, err := s.ledger.Append(ctx, e); err != nil {
		return core.Entry{}, err
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"name", e.Name,
		"amount_cents", e.Amount.Cents,
		"normalized_cents", e.Normalized.Cents,
		"category", e.Category,
		"date", e.OccurredAt.String(),
		"recurring", e.OriginRuleID != "")

	s.publishCreated(ctx, e.ID)
	return e, nil
}

// CreateTimeLog appends a logged block of time.
func (s *EntryService) CreateTimeLog(ctx context.Context, in TimeLogInput) (core.Entry, error) {
	e := core.Entry{
		ID:              s.newID(),
		Kind:            core.TimeLog,
		Activity:        in.Activity,
		DurationSeconds: in.Duration,
		OccurredAt:      in.OccurredAt,
	}

	if _, err := s.ledger.Append(ctx, e); err != nil {
		return core.Entry{}, err
	}

	slog.InfoContext(ctx, "Time entry saved",
		"id", e.ID,
		"activity", e.Activity,
		"duration_seconds", e.DurationSeconds,
		"date", e.OccurredAt.String())

	s.publishCreated(ctx, e.ID)
	return e, nil
}

// UpdateExpense applies a user edit to name, amount, category, currency and
// date. The normalized amount is recomputed because the raw amount or the
// currency may have changed; this is a user edit, not a retroactive rate
// adjustment.
func (s *EntryService) UpdateExpense(ctx context.Context, id string, in ExpenseUpdate) (core.Entry, error) {
	e, err := s.ledger.Get(ctx, id)
	if err != nil {
		return core.Entry{}, err
	}
	if e.Kind != core.Expense {
		return core.Entry{}, fmt.Errorf("%w: entry %s is not an expense", core.ErrUnknownKind, id)
	}

	e.Name = in.Name
	e.Amount = in.Amount
	e.Category = in.Category
	if in.Currency != "" {
		e.Currency = in.Currency
	}
	if !in.OccurredAt.IsZero() {
		e.OccurredAt = in.OccurredAt
	}

	normalized, err := s.converter.Convert(ctx, e.Amount, e.Currency)
	switch {
	case err == nil:
		e.Normalized = normalized
		e.ConversionPending = false
	case errors.Is(err, rates.ErrUnavailable) || errors.Is(err, rates.ErrUnknownCurrency):
		e.Normalized = e.Amount
		e.ConversionPending = true
	default:
		return core.Entry{}, fmt.Errorf("normalize amount: %w", err)
	}

	if err := s.ledger.Update(ctx, e); err != nil {
		return core.Entry{}, err
	}
	return e, nil
}

// Delete removes an entry. Deleting an unknown id reports false rather than
// failing.
func (s *EntryService) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := s.ledger.Remove(ctx, id)
	if err != nil {
		return false, fmt.Errorf("remove entry: %w", err)
	}
	if !removed {
		slog.InfoContext(ctx, "Delete of unknown entry ignored", "id", id)
		return false, nil
	}
	if s.pub != nil {
		if err := s.pub.PublishEntryDeleted(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish delete event", "id", id, "error", err)
		}
	}
	return true, nil
}

func (s *EntryService) publishCreated(ctx context.Context, id string) {
	if s.pub == nil {
		return
	}
	if err := s.pub.PublishEntryCreated(ctx, id); err != nil {
		// The entry is already stored; the event stream is best-effort.
		slog.ErrorContext(ctx, "Failed to publish create event", "id", id, "error", err)
	}
}
