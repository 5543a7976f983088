// Package ledger defines the storage ports the engine depends on. The SQLite
// repository and the in-memory store both satisfy them, so services never see
// a concrete backend.
package ledger

import (
	"context"

	"kudi/internal/core"
)

type (
	// Ledger is the append-only store of materialized entries.
	Ledger interface {
		// Append validates and stores the entry. The entry is visible to
		// queries as soon as Append returns.
		Append(ctx context.Context, e core.Entry) (string, error)

		// QueryRange returns entries with start <= occurredAt < end, ordered
		// by occurredAt ascending, ties broken by insertion order.
		QueryRange(ctx context.Context, start, end core.Date) ([]core.Entry, error)

		// Get returns a single entry by id.
		Get(ctx context.Context, id string) (core.Entry, error)

		// Update replaces the mutable fields of an existing entry.
		Update(ctx context.Context, e core.Entry) error

		// Remove deletes an entry, reporting false when the id is unknown.
		// A missing id is a no-op signal, not a fault.
		Remove(ctx context.Context, id string) (bool, error)
	}

	// RuleRepository stores recurring-expense rules. Inserts reject a
	// duplicate (name, category, frequency, startDate) tuple; the scheduler
	// advances LastMaterialized only forward.
	RuleRepository interface {
		Insert(ctx context.Context, r core.Rule) error
		Active(ctx context.Context) ([]core.Rule, error)
		GetRule(ctx context.Context, id string) (core.Rule, error)
		UpdateRule(ctx context.Context, r core.Rule) error
		DeleteRule(ctx context.Context, id string) (bool, error)

		// SetLastMaterialized advances the rule's materialization marker.
		// Moving it backwards is an error.
		SetLastMaterialized(ctx context.Context, id string, d core.Date) error
	}

	// LimitsStore persists budget thresholds.
	LimitsStore interface {
		Limits(ctx context.Context) (core.Limits, error)
		SetLimits(ctx context.Context, l core.Limits) error
	}
)
