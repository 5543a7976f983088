package services

import (
	"context"
	"fmt"
	"testing"

	"kudi/internal/core"
	"kudi/internal/ledger"
	"kudi/internal/ledger/memory"
	"kudi/internal/rates"
)

func testConverter() rates.Converter {
	return rates.Static{Base: "GHS", Rates: map[string]float64{"USD": 0.08}}
}

func newTestEntryService(store *memory.Store, conv rates.Converter) *EntryService {
	svc := NewEntryService(store, conv, nil)
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("entry-%03d", seq)
	}
	return svc
}

func newTestScheduler(store *memory.Store) *Scheduler {
	return NewScheduler(store, newTestEntryService(store, testConverter()))
}

// fakeRules serves arbitrary rules from Active, including ones the validating
// store would refuse to hold. Only the methods the scheduler touches are
// implemented.
type fakeRules struct {
	ledger.RuleRepository
	rules []core.Rule
	marks map[string]core.Date
}

func (f *fakeRules) Active(_ context.Context) ([]core.Rule, error) {
	return f.rules, nil
}

func (f *fakeRules) SetLastMaterialized(_ context.Context, id string, d core.Date) error {
	if f.marks == nil {
		f.marks = map[string]core.Date{}
	}
	f.marks[id] = d
	return nil
}

func mustInsert(t *testing.T, store *memory.Store, r core.Rule) {
	t.Helper()
	if err := store.Insert(context.Background(), r); err != nil {
		t.Fatal(err)
	}
}

func TestRunMaterializesDueRules(t *testing.T) {
	store := memory.New()
	s := newTestScheduler(store)
	ctx := context.Background()

	mustInsert(t, store, core.Rule{
		ID: "daily", Name: "Coffee", Amount: core.Money{Cents: 500},
		Currency: "GHS", Category: "Food",
		Frequency: core.Daily, StartDate: core.NewDate(2024, 1, 1),
	})
	mustInsert(t, store, core.Rule{
		ID: "weekly", Name: "Gym", Amount: core.Money{Cents: 2000},
		Currency: "GHS", Category: "Health",
		Frequency: core.Weekly, StartDate: core.NewDate(2024, 1, 3),
	})

	// 2024-01-10 is exactly one week after the weekly start.
	eval := core.NewDate(2024, 1, 10)
	res, err := s.Run(ctx, eval)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Materialized) != 2 {
		t.Fatalf("materialized %d entries, want 2", len(res.Materialized))
	}
	if len(res.Issues) != 0 {
		t.Errorf("issues = %v, want none", res.Issues)
	}
	for _, e := range res.Materialized {
		if e.OriginRuleID == "" {
			t.Errorf("materialized entry %s missing origin rule", e.ID)
		}
		if !core.SameDay(e.OccurredAt, eval) {
			t.Errorf("entry %s occurred at %s, want evaluation date", e.ID, e.OccurredAt)
		}
	}
	if len(res.Updated) != 2 {
		t.Fatalf("updated %d rules, want 2", len(res.Updated))
	}
	for _, r := range res.Updated {
		if !core.SameDay(r.LastMaterialized, eval) {
			t.Errorf("rule %s marker = %s, want evaluation date", r.ID, r.LastMaterialized)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	store := memory.New()
	s := newTestScheduler(store)
	ctx := context.Background()
	eval := core.NewDate(2024, 1, 10)

	mustInsert(t, store, core.Rule{
		ID: "daily", Name: "Coffee", Amount: core.Money{Cents: 500},
		Currency: "GHS", Category: "Food",
		Frequency: core.Daily, StartDate: core.NewDate(2024, 1, 1),
	})

	first, err := s.Run(ctx, eval)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Materialized) != 1 {
		t.Fatalf("first run materialized %d, want 1", len(first.Materialized))
	}

	second, err := s.Run(ctx, eval)
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Materialized) != 0 {
		t.Errorf("second run materialized %d, want 0", len(second.Materialized))
	}
	if len(second.Issues) != 0 {
		t.Errorf("second run issues = %v, want none", second.Issues)
	}

	entries, err := store.QueryRange(ctx, eval, eval.AddDays(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("ledger holds %d entries for the date, want 1", len(entries))
	}
}

func TestRunSkipsBadRulesAndContinues(t *testing.T) {
	store := memory.New()
	rules := &fakeRules{rules: []core.Rule{
		{
			ID: "negative", Name: "Broken", Amount: core.Money{Cents: -100},
			Currency: "GHS", Category: "Food",
			Frequency: core.Daily, StartDate: core.NewDate(2024, 1, 1),
		},
		{
			ID: "fortnight", Name: "Odd cadence", Amount: core.Money{Cents: 100},
			Currency: "GHS", Category: "Food",
			Frequency: "fortnightly", StartDate: core.NewDate(2024, 1, 1),
		},
		{
			ID: "good", Name: "Coffee", Amount: core.Money{Cents: 500},
			Currency: "GHS", Category: "Food",
			Frequency: core.Daily, StartDate: core.NewDate(2024, 1, 1),
		},
	}}
	s := NewScheduler(rules, newTestEntryService(store, testConverter()))

	res, err := s.Run(context.Background(), core.NewDate(2024, 1, 10))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Materialized) != 1 {
		t.Fatalf("materialized %d, want 1", len(res.Materialized))
	}
	if res.Materialized[0].OriginRuleID != "good" {
		t.Errorf("materialized rule %s, want good", res.Materialized[0].OriginRuleID)
	}
	if len(res.Issues) != 2 {
		t.Fatalf("issues = %v, want 2", res.Issues)
	}
	for _, issue := range res.Issues {
		if issue.RuleID != "negative" && issue.RuleID != "fortnight" {
			t.Errorf("unexpected issue for rule %s: %v", issue.RuleID, issue.Err)
		}
	}
}

func TestRunFlagsConversionPending(t *testing.T) {
	store := memory.New()
	s := NewScheduler(store, newTestEntryService(store, rates.Unavailable{}))
	ctx := context.Background()

	mustInsert(t, store, core.Rule{
		ID: "usd", Name: "Hosting", Amount: core.Money{Cents: 1200},
		Currency: "USD", Category: "Tech",
		Frequency: core.Daily, StartDate: core.NewDate(2024, 1, 1),
	})

	res, err := s.Run(ctx, core.NewDate(2024, 1, 10))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Materialized) != 1 {
		t.Fatalf("materialized %d, want 1", len(res.Materialized))
	}
	e := res.Materialized[0]
	if !e.ConversionPending {
		t.Error("entry not flagged ConversionPending")
	}
	if e.Normalized.Cents != 1200 {
		t.Errorf("normalized = %d, want raw amount 1200", e.Normalized.Cents)
	}
}

func TestRunNoDuplicatePerRuleAndDate(t *testing.T) {
	store := memory.New()
	s := newTestScheduler(store)
	ctx := context.Background()

	mustInsert(t, store, core.Rule{
		ID: "daily", Name: "Coffee", Amount: core.Money{Cents: 500},
		Currency: "GHS", Category: "Food",
		Frequency: core.Daily, StartDate: core.NewDate(2024, 1, 1),
	})

	for day := 10; day <= 12; day++ {
		eval := core.NewDate(2024, 1, day)
		// Two passes per day, as a jittery host timer would produce.
		for i := 0; i < 2; i++ {
			if _, err := s.Run(ctx, eval); err != nil {
				t.Fatal(err)
			}
		}
	}

	entries, err := store.QueryRange(ctx, core.NewDate(2024, 1, 10), core.NewDate(2024, 1, 13))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("ledger holds %d entries, want 3 (one per day)", len(entries))
	}
	seen := map[string]bool{}
	for _, e := range entries {
		key := e.OriginRuleID + "|" + e.OccurredAt.String()
		if seen[key] {
			t.Errorf("duplicate materialization %s", key)
		}
		seen[key] = true
	}
}

func TestRunRepairsMarkerAfterPartialFailure(t *testing.T) {
	store := memory.New()
	s := newTestScheduler(store)
	ctx := context.Background()
	eval := core.NewDate(2024, 1, 10)

	mustInsert(t, store, core.Rule{
		ID: "daily", Name: "Coffee", Amount: core.Money{Cents: 500},
		Currency: "GHS", Category: "Food",
		Frequency: core.Daily, StartDate: core.NewDate(2024, 1, 1),
	})

	// Simulate a crash after the append but before the marker advanced:
	// the entry exists, the rule still looks due.
	if _, err := store.Append(ctx, core.Entry{
		ID: "orphan", Kind: core.Expense, Name: "Coffee",
		Amount: core.Money{Cents: 500}, Currency: "GHS",
		Normalized: core.Money{Cents: 500}, Category: "Food",
		OccurredAt: eval, OriginRuleID: "daily",
	}); err != nil {
		t.Fatal(err)
	}

	res, err := s.Run(ctx, eval)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Materialized) != 0 {
		t.Errorf("materialized %d, want 0 (occurrence already exists)", len(res.Materialized))
	}
	if len(res.Issues) != 0 {
		t.Errorf("issues = %v, want none", res.Issues)
	}

	r, err := store.GetRule(ctx, "daily")
	if err != nil {
		t.Fatal(err)
	}
	if !core.SameDay(r.LastMaterialized, eval) {
		t.Errorf("marker = %v, want repaired to %s", r.LastMaterialized, eval)
	}
}
