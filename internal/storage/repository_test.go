package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gastos/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 12, 0, 0, 0, time.UTC)
}

func TestSetBudgetUpserts(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	first, err := repo.SetBudget(ctx, 2024, 2, core.Money{Cents: 100000})
	if err != nil {
		t.Fatalf("set budget: %v", err)
	}
	second, err := repo.SetBudget(ctx, 2024, 2, core.Money{Cents: 120000})
	if err != nil {
		t.Fatalf("set budget again: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same record, got ids %d and %d", first.ID, second.ID)
	}

	all, err := repo.ListBudgets(ctx)
	if err != nil {
		t.Fatalf("list budgets: %v", err)
	}
	if len(all) != 1 || all[0].TotalBudget.Cents != 120000 {
		t.Fatalf("expected one budget of 1200.00, got %+v", all)
	}

	if _, ok, _ := repo.GetBudget(ctx, 2024, 3); ok {
		t.Fatalf("april should have no budget")
	}
}

func TestUpdateExpenseKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	id, err := repo.AddExpense(ctx, core.Expense{
		Title: "Coffee", Amount: core.Money{Cents: 350}, CategoryID: 1,
		Date: d(2024, 3, 1), CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}

	title := "Espresso"
	ok, err := repo.UpdateExpense(ctx, id, core.ExpensePatch{Title: &title})
	if err != nil || !ok {
		t.Fatalf("update expense: ok=%v err=%v", ok, err)
	}

	got, found, err := repo.GetExpense(ctx, id)
	if err != nil || !found {
		t.Fatalf("get expense: found=%v err=%v", found, err)
	}
	if got.Title != "Espresso" || got.Amount.Cents != 350 {
		t.Fatalf("unexpected expense after update: %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("createdAt changed: %v != %v", got.CreatedAt, created)
	}
}

func TestUpdateMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	name := "x"
	ok, err := repo.UpdateCategory(ctx, 42, core.CategoryPatch{Name: &name})
	if err != nil || ok {
		t.Fatalf("expected no-op, got ok=%v err=%v", ok, err)
	}
	title := "x"
	ok, err = repo.UpdateExpense(ctx, 42, core.ExpensePatch{Title: &title})
	if err != nil || ok {
		t.Fatalf("expected no-op, got ok=%v err=%v", ok, err)
	}
	ok, err = repo.DeleteExpense(ctx, 42)
	if err != nil || ok {
		t.Fatalf("expected no-op delete, got ok=%v err=%v", ok, err)
	}
	if n, _ := repo.CountCategories(ctx); n != 0 {
		t.Fatalf("store should still be empty, got %d categories", n)
	}
}

func TestListExpensesOrder(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, e := range []core.Expense{
		{Title: "old", Amount: core.Money{Cents: 1}, CategoryID: 1, Date: d(2024, 1, 5)},
		{Title: "new", Amount: core.Money{Cents: 1}, CategoryID: 1, Date: d(2024, 3, 5)},
		{Title: "mid", Amount: core.Money{Cents: 1}, CategoryID: 1, Date: d(2024, 2, 5)},
	} {
		if _, err := repo.AddExpense(ctx, e); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	list, err := repo.ListExpenses(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"new", "mid", "old"}
	for i, w := range want {
		if list[i].Title != w {
			t.Fatalf("position %d: got %q want %q", i, list[i].Title, w)
		}
	}
}

func TestSoftDeletedCategoryStaysListed(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	id, err := repo.AddCategory(ctx, core.Category{Name: "Gym", Type: core.Fixed, Color: "#000"})
	if err != nil {
		t.Fatalf("add category: %v", err)
	}
	deleted := true
	if ok, err := repo.UpdateCategory(ctx, id, core.CategoryPatch{IsDeleted: &deleted}); err != nil || !ok {
		t.Fatalf("soft delete: ok=%v err=%v", ok, err)
	}

	all, err := repo.ListCategories(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 || !all[0].IsDeleted || all[0].Name != "Gym" {
		t.Fatalf("unexpected categories: %+v", all)
	}
}

func TestReplaceAllKeepsIDs(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, err := repo.AddCategory(ctx, core.Category{Name: "Gone", Type: core.Fixed}); err != nil {
		t.Fatalf("add: %v", err)
	}

	ds := core.Dataset{
		Categories: []core.Category{{ID: 7, Name: "Food", Type: core.Variable, Color: "#22c55e"}},
		Expenses: []core.Expense{{
			ID: 11, Title: "Lunch", Amount: core.Money{Cents: 1250}, CategoryID: 7,
			Date: d(2024, 3, 3), CreatedAt: d(2024, 3, 3),
		}},
		MonthlyBudgets: []core.MonthlyBudget{{ID: 3, Year: 2024, Month: 2, TotalBudget: core.Money{Cents: 50000}}},
	}
	if err := repo.ReplaceAll(ctx, ds); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err := repo.ReadAll(ctx)
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(got.Categories) != 1 || got.Categories[0].ID != 7 {
		t.Fatalf("unexpected categories: %+v", got.Categories)
	}
	if len(got.Expenses) != 1 || got.Expenses[0].ID != 11 || got.Expenses[0].CategoryID != 7 {
		t.Fatalf("unexpected expenses: %+v", got.Expenses)
	}
	if len(got.MonthlyBudgets) != 1 || got.MonthlyBudgets[0].ID != 3 {
		t.Fatalf("unexpected budgets: %+v", got.MonthlyBudgets)
	}
}

func TestReplaceAllRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, err := repo.AddCategory(ctx, core.Category{Name: "Keep", Type: core.Fixed}); err != nil {
		t.Fatalf("add: %v", err)
	}

	// The second category violates the type CHECK constraint.
	bad := core.Dataset{
		Categories: []core.Category{
			{ID: 1, Name: "A", Type: core.Fixed},
			{ID: 2, Name: "B", Type: "weekly"},
		},
	}
	if err := repo.ReplaceAll(ctx, bad); err == nil {
		t.Fatalf("expected replace to fail")
	}

	all, err := repo.ListCategories(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 || all[0].Name != "Keep" {
		t.Fatalf("prior state not restored: %+v", all)
	}
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, ok, err := repo.GetSetting(ctx, "theme"); err != nil || ok {
		t.Fatalf("expected missing setting, ok=%v err=%v", ok, err)
	}
	if err := repo.PutSetting(ctx, "theme", "dark"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.PutSetting(ctx, "theme", "light"); err != nil {
		t.Fatalf("put again: %v", err)
	}
	v, ok, err := repo.GetSetting(ctx, "theme")
	if err != nil || !ok || v != "light" {
		t.Fatalf("got %q ok=%v err=%v", v, ok, err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "data.db")

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := repo.AddCategory(ctx, core.Category{Name: "Rent", Type: core.Fixed}); err != nil {
		t.Fatalf("add: %v", err)
	}
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	if n, err := repo.CountCategories(ctx); err != nil || n != 1 {
		t.Fatalf("expected 1 category after reopen, got %d err=%v", n, err)
	}
}
