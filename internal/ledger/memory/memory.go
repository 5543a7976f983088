// Package memory provides an in-memory implementation of the ledger ports.
// It backs tests and the zero-configuration development mode.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"kudi/internal/core"
)

type Store struct {
	mu      sync.Mutex
	entries []core.Entry
	rules   []core.Rule
	limits  core.Limits
}

func New() *Store {
	return &Store{}
}

// Append validates and stores the entry, enforcing id uniqueness and the
// one-materialization-per-rule-per-date invariant.
func (s *Store) Append(_ context.Context, e core.Entry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.entries {
		if existing.ID == e.ID {
			return "", fmt.Errorf("%w: %s", core.ErrDuplicateID, e.ID)
		}
		if e.OriginRuleID != "" && existing.OriginRuleID == e.OriginRuleID &&
			core.SameDay(existing.OccurredAt, e.OccurredAt) {
			return "", fmt.Errorf("%w: rule %s on %s", core.ErrAlreadyLogged, e.OriginRuleID, e.OccurredAt)
		}
	}
	s.entries = append(s.entries, e)
	return e.ID, nil
}

func (s *Store) QueryRange(_ context.Context, start, end core.Date) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Entry
	for _, e := range s.entries {
		if e.OccurredAt.Time.Before(start.Time) || !e.OccurredAt.Time.Before(end.Time) {
			continue
		}
		out = append(out, e)
	}
	// Entries are held in insertion order, so a stable sort on the date
	// preserves the tie-break.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.Time.Before(out[j].OccurredAt.Time)
	})
	return out, nil
}

func (s *Store) Get(_ context.Context, id string) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Entry{}, fmt.Errorf("%w: entry %s", core.ErrNotFound, id)
}

func (s *Store) Update(_ context.Context, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.entries {
		if existing.ID == e.ID {
			s.entries[i] = e
			return nil
		}
	}
	return fmt.Errorf("%w: entry %s", core.ErrNotFound, e.ID)
}

func (s *Store) Remove(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) Insert(_ context.Context, r core.Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rules {
		if existing.ID == r.ID {
			return fmt.Errorf("%w: %s", core.ErrDuplicateID, r.ID)
		}
		if existing.Name == r.Name && existing.Category == r.Category &&
			existing.Frequency == r.Frequency && core.SameDay(existing.StartDate, r.StartDate) {
			return fmt.Errorf("%w: %s", core.ErrDuplicateRule, r.Name)
		}
	}
	s.rules = append(s.rules, r)
	return nil
}

func (s *Store) Active(_ context.Context) ([]core.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Rule, len(s.rules))
	copy(out, s.rules)
	return out, nil
}

func (s *Store) GetRule(_ context.Context, id string) (core.Rule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rules {
		if r.ID == id {
			return r, nil
		}
	}
	return core.Rule{}, fmt.Errorf("%w: rule %s", core.ErrNotFound, id)
}

func (s *Store) UpdateRule(_ context.Context, r core.Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.rules {
		if existing.ID == r.ID {
			// User edits never touch the materialization marker.
			r.LastMaterialized = existing.LastMaterialized
			s.rules[i] = r
			return nil
		}
	}
	return fmt.Errorf("%w: rule %s", core.ErrNotFound, r.ID)
}

func (s *Store) DeleteRule(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rules {
		if r.ID == id {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) SetLastMaterialized(_ context.Context, id string, d core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rules {
		if r.ID != id {
			continue
		}
		if !r.LastMaterialized.IsZero() && d.Time.Before(r.LastMaterialized.Time) {
			return fmt.Errorf("%w: rule %s", core.ErrRuleRewind, id)
		}
		s.rules[i].LastMaterialized = d
		return nil
	}
	return fmt.Errorf("%w: rule %s", core.ErrNotFound, id)
}

func (s *Store) Limits(_ context.Context) (core.Limits, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := core.Limits{MonthlyCents: s.limits.MonthlyCents}
	if s.limits.CategoryCents != nil {
		out.CategoryCents = make(map[string]int64, len(s.limits.CategoryCents))
		for k, v := range s.limits.CategoryCents {
			out.CategoryCents[k] = v
		}
	}
	return out, nil
}

func (s *Store) SetLimits(_ context.Context, l core.Limits) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits = l
	return nil
}
