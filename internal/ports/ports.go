package ports

import (
	"context"

	"gastos/internal/core"
)

// Ports implemented by the persistent store backends.
//
// Update and delete report whether a record matched; a missing id is not an
// error.
type (
	CategoryStore interface {
		AddCategory(ctx context.Context, c core.Category) (int64, error)
		UpdateCategory(ctx context.Context, id int64, p core.CategoryPatch) (bool, error)
		GetCategory(ctx context.Context, id int64) (core.Category, bool, error)
		// ListCategories returns every category, deleted ones included, in id order.
		ListCategories(ctx context.Context) ([]core.Category, error)
		CountCategories(ctx context.Context) (int, error)
	}

	ExpenseStore interface {
		AddExpense(ctx context.Context, e core.Expense) (int64, error)
		UpdateExpense(ctx context.Context, id int64, p core.ExpensePatch) (bool, error)
		DeleteExpense(ctx context.Context, id int64) (bool, error)
		GetExpense(ctx context.Context, id int64) (core.Expense, bool, error)
		// ListExpenses returns every expense, most recent date first.
		ListExpenses(ctx context.Context) ([]core.Expense, error)
	}

	BudgetStore interface {
		// SetBudget updates the record for (year, month) or inserts one.
		SetBudget(ctx context.Context, year, month int, total core.Money) (core.MonthlyBudget, error)
		GetBudget(ctx context.Context, year, month int) (core.MonthlyBudget, bool, error)
		ListBudgets(ctx context.Context) ([]core.MonthlyBudget, error)
	}

	// SnapshotStore reads and replaces all three collections at once.
	SnapshotStore interface {
		ReadAll(ctx context.Context) (core.Dataset, error)
		// ReplaceAll clears the collections and writes ds back, keeping ids.
		// It either applies fully or leaves the prior state in place.
		ReplaceAll(ctx context.Context, ds core.Dataset) error
	}

	SettingsStore interface {
		GetSetting(ctx context.Context, key string) (string, bool, error)
		PutSetting(ctx context.Context, key, value string) error
	}

	Store interface {
		CategoryStore
		ExpenseStore
		BudgetStore
		SnapshotStore
		SettingsStore
		Close() error
	}
)
