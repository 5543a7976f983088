package services

import (
	"context"
	"testing"

	"kudi/internal/core"
	"kudi/internal/ledger/memory"
)

func appendExpense(t *testing.T, store *memory.Store, id string, cents int64, category string, d core.Date) {
	t.Helper()
	_, err := store.Append(context.Background(), core.Entry{
		ID: id, Kind: core.Expense, Name: "e-" + id,
		Amount: core.Money{Cents: cents}, Currency: "GHS",
		Normalized: core.Money{Cents: cents}, Category: category,
		OccurredAt: d,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestAggregatorSummarize(t *testing.T) {
	store := memory.New()
	a := NewAggregator(store)
	ctx := context.Background()

	// Evaluation date 2024-01-10 is a Wednesday; the week starts Sunday
	// 2024-01-07.
	eval := core.NewDate(2024, 1, 10)

	appendExpense(t, store, "a", 1000, "Food", core.NewDate(2024, 1, 10))
	appendExpense(t, store, "b", 2000, "Food", core.NewDate(2024, 1, 8))
	appendExpense(t, store, "c", 3000, "Transport", core.NewDate(2024, 1, 2))
	appendExpense(t, store, "d", 4000, "Food", core.NewDate(2023, 12, 28))

	s, err := a.Summarize(ctx, eval)
	if err != nil {
		t.Fatal(err)
	}
	if s.TodayCents.Cents != 1000 {
		t.Errorf("today = %d, want 1000", s.TodayCents.Cents)
	}
	if s.WeekCents.Cents != 3000 {
		t.Errorf("week = %d, want 3000 (since Sunday)", s.WeekCents.Cents)
	}
	if s.MonthCents.Cents != 6000 {
		t.Errorf("month = %d, want 6000 (january only)", s.MonthCents.Cents)
	}
	want := []core.CategoryAmount{
		{Name: "Food", Amount: core.Money{Cents: 3000}},
		{Name: "Transport", Amount: core.Money{Cents: 3000}},
	}
	if len(s.ByCategory) != len(want) {
		t.Fatalf("byCategory = %v, want %v", s.ByCategory, want)
	}
	for i, c := range want {
		if s.ByCategory[i] != c {
			t.Errorf("byCategory[%d] = %v, want %v", i, s.ByCategory[i], c)
		}
	}
}

func TestAggregatorWeekSpansMonthBoundary(t *testing.T) {
	store := memory.New()
	a := NewAggregator(store)
	ctx := context.Background()

	// 2024-02-01 is a Thursday; the week starts Sunday 2024-01-28, in the
	// previous month. The window must reach back far enough to include it.
	eval := core.NewDate(2024, 2, 1)

	appendExpense(t, store, "jan", 1500, "Food", core.NewDate(2024, 1, 29))
	appendExpense(t, store, "feb", 500, "Food", core.NewDate(2024, 2, 1))

	s, err := a.Summarize(ctx, eval)
	if err != nil {
		t.Fatal(err)
	}
	if s.WeekCents.Cents != 2000 {
		t.Errorf("week = %d, want 2000 including the january entry", s.WeekCents.Cents)
	}
	if s.MonthCents.Cents != 500 {
		t.Errorf("month = %d, want 500 (february only)", s.MonthCents.Cents)
	}
}

func TestAggregatorMonthIncludesLaterEntries(t *testing.T) {
	store := memory.New()
	a := NewAggregator(store)
	ctx := context.Background()

	// 2024-01-15 is a Monday; the week starts Sunday 2024-01-14.
	eval := core.NewDate(2024, 1, 15)

	appendExpense(t, store, "early", 1000, "Food", core.NewDate(2024, 1, 10))
	appendExpense(t, store, "late", 2000, "Food", core.NewDate(2024, 1, 20))
	appendExpense(t, store, "eom", 500, "Food", core.NewDate(2024, 1, 31))

	s, err := a.Summarize(ctx, eval)
	if err != nil {
		t.Fatal(err)
	}
	if s.MonthCents.Cents != 3500 {
		t.Errorf("month = %d, want 3500 (the whole month)", s.MonthCents.Cents)
	}
	if s.WeekCents.Cents != 0 {
		t.Errorf("week = %d, want 0 (nothing between sunday and the evaluation date)", s.WeekCents.Cents)
	}
	if s.TodayCents.Cents != 0 {
		t.Errorf("today = %d, want 0", s.TodayCents.Cents)
	}
}

func TestAggregatorIncludesTimeEntries(t *testing.T) {
	store := memory.New()
	a := NewAggregator(store)
	ctx := context.Background()
	eval := core.NewDate(2024, 1, 10)

	for i, d := range []core.Date{
		core.NewDate(2024, 1, 10),
		core.NewDate(2024, 1, 8),
		core.NewDate(2024, 1, 2),
	} {
		_, err := store.Append(ctx, core.Entry{
			ID: string(rune('x' + i)), Kind: core.TimeLog,
			Activity: "Reading", DurationSeconds: 1800, OccurredAt: d,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	s, err := a.Summarize(ctx, eval)
	if err != nil {
		t.Fatal(err)
	}
	if s.TodaySeconds != 1800 {
		t.Errorf("today = %ds, want 1800", s.TodaySeconds)
	}
	if s.WeekSeconds != 3600 {
		t.Errorf("week = %ds, want 3600", s.WeekSeconds)
	}
	if s.MonthSeconds != 5400 {
		t.Errorf("month = %ds, want 5400", s.MonthSeconds)
	}
	if len(s.ByActivity) != 1 || s.ByActivity[0].Seconds != 5400 {
		t.Errorf("byActivity = %v, want Reading 5400s", s.ByActivity)
	}
}

func TestAggregatorEmptyLedger(t *testing.T) {
	a := NewAggregator(memory.New())
	s, err := a.Summarize(context.Background(), core.NewDate(2024, 1, 10))
	if err != nil {
		t.Fatal(err)
	}
	if s.MonthCents.Cents != 0 || len(s.ByCategory) != 0 {
		t.Errorf("empty ledger summary = %+v, want zeroes", s)
	}
}
