package services

import (
	"context"
	"testing"
	"time"

	"gastos/internal/core"
	"gastos/internal/dashboard"
)

func TestLiveOverviewRecomputesAfterWrites(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLedger(t)
	cat := mustAddCategory(t, l, "Food", core.Variable)

	var updates []dashboard.Overview
	march := core.Period{Year: 2024, Month: 2}
	lo, err := NewLiveOverview(ctx, l, march, func(ov dashboard.Overview) { updates = append(updates, ov) })
	if err != nil {
		t.Fatalf("live overview: %v", err)
	}
	defer lo.Close()

	if ov, _ := lo.Current(); !ov.MonthTotal.IsZero() {
		t.Fatalf("expected empty month, got %v", ov.MonthTotal)
	}

	id := mustAddExpense(t, l, "Lunch", 1500, cat, time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC))
	if ov, _ := lo.Current(); ov.MonthTotal.Cents != 1500 {
		t.Fatalf("expected 15.00 after add, got %v", ov.MonthTotal)
	}

	if err := l.DeleteExpense(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ov, _ := lo.Current(); !ov.MonthTotal.IsZero() {
		t.Fatalf("expected 0 after delete, got %v", ov.MonthTotal)
	}
	if len(updates) != 3 {
		t.Fatalf("expected initial plus two updates, got %d", len(updates))
	}

	lo.Close()
	mustAddExpense(t, l, "Dinner", 2000, cat, time.Date(2024, 3, 5, 20, 0, 0, 0, time.UTC))
	if len(updates) != 3 {
		t.Fatalf("closed overview kept recomputing")
	}
}

func TestLiveOverviewSetPeriod(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLedger(t)
	cat := mustAddCategory(t, l, "Food", core.Variable)
	mustAddExpense(t, l, "Feb", 700, cat, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))

	lo, err := NewLiveOverview(ctx, l, core.Period{Year: 2024, Month: 2}, nil)
	if err != nil {
		t.Fatalf("live overview: %v", err)
	}
	defer lo.Close()

	if err := lo.SetPeriod(ctx, core.Period{Year: 2024, Month: 1}); err != nil {
		t.Fatalf("set period: %v", err)
	}
	if ov, _ := lo.Current(); ov.MonthTotal.Cents != 700 {
		t.Fatalf("expected february total 7.00, got %v", ov.MonthTotal)
	}
	if err := lo.SetPeriod(ctx, core.Period{Year: 2024, Month: 12}); err == nil {
		t.Fatalf("expected invalid month to be rejected")
	}
}
