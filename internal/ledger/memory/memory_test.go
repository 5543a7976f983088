package memory

import (
	"context"
	"errors"
	"testing"

	"kudi/internal/core"
)

func expense(id string, d core.Date, cents int64) core.Entry {
	return core.Entry{
		ID:         id,
		Kind:       core.Expense,
		Name:       id,
		Amount:     core.Money{Cents: cents},
		Currency:   "GHS",
		Normalized: core.Money{Cents: cents},
		Category:   "Food",
		OccurredAt: d,
	}
}

func TestAppendRejectsInvalid(t *testing.T) {
	s := New()
	ctx := context.Background()

	bad := expense("e1", core.NewDate(2024, 1, 1), -500)
	if _, err := s.Append(ctx, bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("Append(negative) error = %v, want ErrInvalidAmount", err)
	}

	got, err := s.QueryRange(ctx, core.NewDate(2024, 1, 1), core.NewDate(2025, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("ledger length after rejected append = %d, want 0", len(got))
	}
}

func TestAppendRejectsDuplicateID(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.Append(ctx, expense("e1", core.NewDate(2024, 1, 1), 100)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Append(ctx, expense("e1", core.NewDate(2024, 1, 2), 200)); !errors.Is(err, core.ErrDuplicateID) {
		t.Errorf("Append(dup id) error = %v, want ErrDuplicateID", err)
	}
}

func TestAppendRejectsDuplicateMaterialization(t *testing.T) {
	s := New()
	ctx := context.Background()

	e1 := expense("e1", core.NewDate(2024, 1, 5), 100)
	e1.OriginRuleID = "r1"
	e2 := expense("e2", core.NewDate(2024, 1, 5), 100)
	e2.OriginRuleID = "r1"

	if _, err := s.Append(ctx, e1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Append(ctx, e2); !errors.Is(err, core.ErrAlreadyLogged) {
		t.Errorf("Append(same rule+date) error = %v, want ErrAlreadyLogged", err)
	}
}

func TestQueryRangeOrderingAndBounds(t *testing.T) {
	s := New()
	ctx := context.Background()

	// Appended out of date order; b and c share a day to exercise the
	// insertion-order tie-break.
	for _, e := range []core.Entry{
		expense("b", core.NewDate(2024, 1, 10), 100),
		expense("c", core.NewDate(2024, 1, 10), 200),
		expense("a", core.NewDate(2024, 1, 5), 300),
		expense("excluded-end", core.NewDate(2024, 1, 20), 400),
		expense("excluded-before", core.NewDate(2024, 1, 1), 500),
	} {
		if _, err := s.Append(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.QueryRange(ctx, core.NewDate(2024, 1, 5), core.NewDate(2024, 1, 20))
	if err != nil {
		t.Fatal(err)
	}

	wantIDs := []string{"a", "b", "c"}
	if len(got) != len(wantIDs) {
		t.Fatalf("QueryRange len = %d, want %d", len(got), len(wantIDs))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("QueryRange[%d].ID = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestRemoveIsNoOpSignal(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.Append(ctx, expense("e1", core.NewDate(2024, 1, 1), 100)); err != nil {
		t.Fatal(err)
	}

	removed, err := s.Remove(ctx, "e1")
	if err != nil || !removed {
		t.Fatalf("Remove(existing) = %v, %v", removed, err)
	}
	removed, err = s.Remove(ctx, "e1")
	if err != nil || removed {
		t.Fatalf("Remove(absent) = %v, %v; want false, nil", removed, err)
	}
}

func TestInsertRejectsDuplicateRule(t *testing.T) {
	s := New()
	ctx := context.Background()

	r := core.Rule{
		ID:        "r1",
		Name:      "Netflix",
		Amount:    core.Money{Cents: 6500},
		Currency:  "GHS",
		Category:  "Entertainment",
		Frequency: core.Monthly,
		StartDate: core.NewDate(2024, 1, 10),
	}
	if err := s.Insert(ctx, r); err != nil {
		t.Fatal(err)
	}

	dup := r
	dup.ID = "r2"
	if err := s.Insert(ctx, dup); !errors.Is(err, core.ErrDuplicateRule) {
		t.Errorf("Insert(duplicate tuple) error = %v, want ErrDuplicateRule", err)
	}

	// Same name on a different start date is a distinct rule.
	other := r
	other.ID = "r3"
	other.StartDate = core.NewDate(2024, 2, 10)
	if err := s.Insert(ctx, other); err != nil {
		t.Errorf("Insert(different start date) error = %v", err)
	}
}

func TestSetLastMaterializedMonotonic(t *testing.T) {
	s := New()
	ctx := context.Background()

	r := core.Rule{
		ID:        "r1",
		Name:      "Rent",
		Amount:    core.Money{Cents: 50000},
		Currency:  "GHS",
		Category:  "Housing",
		Frequency: core.Monthly,
		StartDate: core.NewDate(2024, 1, 1),
	}
	if err := s.Insert(ctx, r); err != nil {
		t.Fatal(err)
	}

	if err := s.SetLastMaterialized(ctx, "r1", core.NewDate(2024, 2, 1)); err != nil {
		t.Fatal(err)
	}
	if err := s.SetLastMaterialized(ctx, "r1", core.NewDate(2024, 1, 15)); !errors.Is(err, core.ErrRuleRewind) {
		t.Errorf("SetLastMaterialized(backwards) error = %v, want ErrRuleRewind", err)
	}
	// Same date again is allowed (idempotent re-run).
	if err := s.SetLastMaterialized(ctx, "r1", core.NewDate(2024, 2, 1)); err != nil {
		t.Errorf("SetLastMaterialized(same date) error = %v", err)
	}
}

func TestUpdateRulePreservesMarker(t *testing.T) {
	s := New()
	ctx := context.Background()

	r := core.Rule{
		ID:        "r1",
		Name:      "Gym",
		Amount:    core.Money{Cents: 2000},
		Currency:  "GHS",
		Category:  "Health",
		Frequency: core.Weekly,
		StartDate: core.NewDate(2024, 1, 3),
	}
	if err := s.Insert(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := s.SetLastMaterialized(ctx, "r1", core.NewDate(2024, 1, 10)); err != nil {
		t.Fatal(err)
	}

	edited := r
	edited.Name = "Gym membership"
	if err := s.UpdateRule(ctx, edited); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetRule(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Gym membership" {
		t.Errorf("rule name = %s, want edited name", got.Name)
	}
	if !core.SameDay(got.LastMaterialized, core.NewDate(2024, 1, 10)) {
		t.Errorf("rename dropped materialization marker: %v", got.LastMaterialized)
	}
}
