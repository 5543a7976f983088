package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Expense EntryKind = "expense"
	TimeLog EntryKind = "time"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

type (
	EntryKind string

	Frequency string

	// Date is a calendar day. The time-of-day portion is always midnight UTC.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Entry is a materialized ledger record: either an expense or a logged
	// block of time. Entries are immutable after creation except through
	// explicit user edits.
	Entry struct {
		ID   string
		Kind EntryKind

		// Expense fields
		Name              string
		Amount            Money
		Currency          string
		Normalized        Money // amount converted to the base currency at creation time
		ConversionPending bool  // true when rates were unavailable and Normalized is the raw amount
		Category          string

		// TimeLog fields
		Activity        string
		DurationSeconds int64

		OccurredAt   Date
		OriginRuleID string // set when created by the scheduler, empty for manual entries
	}

	// Rule is a recurring-expense template. Only LastMaterialized is mutated
	// over its lifetime, and only by the scheduler, and only forward.
	Rule struct {
		ID               string
		Name             string
		Amount           Money
		Currency         string
		Category         string
		Frequency        Frequency
		StartDate        Date
		LastMaterialized Date // zero value means never materialized
	}

	// Limits holds budget thresholds consumed by the warning checker.
	Limits struct {
		MonthlyCents  int64
		CategoryCents map[string]int64
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDuration  = errors.New("invalid duration")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidCurrency  = errors.New("invalid currency code")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyActivity    = errors.New("empty activity")
	ErrEmptyID          = errors.New("empty id")
	ErrUnknownFrequency = errors.New("unknown frequency")
	ErrUnknownKind      = errors.New("unknown entry kind")

	ErrDuplicateID   = errors.New("duplicate entry id")
	ErrAlreadyLogged = errors.New("rule already materialized for this date")
	ErrDuplicateRule = errors.New("recurring rule already exists")
	ErrNotFound      = errors.New("not found")
	ErrRuleRewind    = errors.New("last materialized date cannot move backwards")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (k EntryKind) Validate() error {
	switch k {
	case Expense, TimeLog:
		return nil
	}
	return ErrUnknownKind
}

func (f Frequency) Validate() error {
	switch f {
	case Daily, Weekly, Monthly:
		return nil
	}
	return ErrUnknownFrequency
}

func (e Entry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyID
	}
	if err := e.Kind.Validate(); err != nil {
		return err
	}
	if err := e.OccurredAt.Validate(); err != nil {
		return err
	}

	switch e.Kind {
	case Expense:
		if len(strings.TrimSpace(e.Name)) == 0 {
			return ErrEmptyName
		}
		if err := e.Amount.Validate(); err != nil {
			return err
		}
		if !validCurrencyCode(e.Currency) {
			return ErrInvalidCurrency
		}
		if e.Normalized.Cents < 0 {
			return ErrInvalidAmount
		}
		if strings.TrimSpace(e.Category) == "" {
			return ErrEmptyCategory
		}
	case TimeLog:
		if e.DurationSeconds <= 0 {
			return ErrInvalidDuration
		}
		if strings.TrimSpace(e.Activity) == "" {
			return ErrEmptyActivity
		}
	}
	return nil
}

func (r Rule) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrEmptyID
	}
	if len(strings.TrimSpace(r.Name)) == 0 {
		return ErrEmptyName
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if !validCurrencyCode(r.Currency) {
		return ErrInvalidCurrency
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	if err := r.Frequency.Validate(); err != nil {
		return err
	}
	if err := r.StartDate.Validate(); err != nil {
		return err
	}
	if !r.LastMaterialized.IsZero() && r.LastMaterialized.Before(r.StartDate.Time) {
		return ErrInvalidDate
	}
	return nil
}

// validCurrencyCode checks the ISO 4217 shape. Whether the code is actually
// convertible is decided by the rate provider.
func validCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
