// Package rates normalizes expense amounts into the base currency. The live
// provider fetches a rate table over HTTP; the static provider serves fixed
// rates for tests and offline use. When no rate is available the caller keeps
// the raw amount and flags the entry for later reconciliation.
package rates

import (
	"context"
	"errors"
	"fmt"

	"github.com/govalues/decimal"
	"github.com/govalues/money"

	"kudi/internal/core"
)

var (
	// ErrUnavailable means no rate table could be obtained at all.
	ErrUnavailable = errors.New("conversion rates unavailable")
	// ErrUnknownCurrency means the table has no rate for the given code.
	ErrUnknownCurrency = errors.New("no rate for currency")
)

// Converter turns an amount in a foreign currency into the base currency.
type Converter interface {
	Convert(ctx context.Context, m core.Money, from string) (core.Money, error)
}

// convertToBase divides the amount by the base->from rate, i.e. the table
// maps one unit of the base currency to `rate` units of `from`.
func convertToBase(m core.Money, from string, rate float64) (core.Money, error) {
	if _, err := money.ParseCurr(from); err != nil {
		return core.Money{}, fmt.Errorf("%w: %s", core.ErrInvalidCurrency, from)
	}
	if rate <= 0 {
		return core.Money{}, fmt.Errorf("%w: %s", ErrUnknownCurrency, from)
	}

	amt, err := decimal.New(m.Cents, 2)
	if err != nil {
		return core.Money{}, fmt.Errorf("amount out of range: %w", err)
	}
	r, err := decimal.NewFromFloat64(rate)
	if err != nil {
		return core.Money{}, fmt.Errorf("bad rate %v: %w", rate, err)
	}
	q, err := amt.Quo(r)
	if err != nil {
		return core.Money{}, fmt.Errorf("convert %s: %w", from, err)
	}
	whole, frac, ok := q.Round(2).Int64(2)
	if !ok {
		return core.Money{}, fmt.Errorf("converted amount out of range for %s", from)
	}
	return core.Money{Cents: whole*100 + frac}, nil
}

// Static serves a fixed rate table. Rates map currency codes to units per one
// unit of the base currency.
type Static struct {
	Base  string
	Rates map[string]float64
}

func (s Static) Convert(_ context.Context, m core.Money, from string) (core.Money, error) {
	if from == s.Base {
		return m, nil
	}
	rate, ok := s.Rates[from]
	if !ok {
		return core.Money{}, fmt.Errorf("%w: %s", ErrUnknownCurrency, from)
	}
	return convertToBase(m, from, rate)
}

// Unavailable always fails conversion. It models the degraded mode where the
// rate service cannot be reached.
type Unavailable struct{}

func (Unavailable) Convert(context.Context, core.Money, string) (core.Money, error) {
	return core.Money{}, ErrUnavailable
}
