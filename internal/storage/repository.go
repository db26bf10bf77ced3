package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gastos/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the persistent store backed by a local SQLite file.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	path    string
}

// DSN returns the modernc connection string for dbPath with the pragmas the
// repository relies on.
func DSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	if _, err := RunMigrations(dsn); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// A single connection serializes writes and keeps transactions simple.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		path:    dbPath,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (r *SQLiteRepository) Path() string {
	return r.path
}

// Ping is used by the readiness check.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// AddCategory implements ports.CategoryStore
func (r *SQLiteRepository) AddCategory(ctx context.Context, c core.Category) (int64, error) {
	id, err := r.queries.CreateCategory(ctx, categoryRow(c))
	if err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}

	slog.InfoContext(ctx, "Category saved to SQLite", "id", id, "name", c.Name, "type", c.Type)
	return id, nil
}

// UpdateCategory implements ports.CategoryStore
func (r *SQLiteRepository) UpdateCategory(ctx context.Context, id int64, p core.CategoryPatch) (bool, error) {
	found := false
	err := r.withTx(ctx, func(q *Queries) error {
		row, err := q.GetCategory(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get category: %w", err)
		}
		c := categoryFromRow(row)
		p.Apply(&c)
		if err := q.UpdateCategory(ctx, categoryRow(c)); err != nil {
			return fmt.Errorf("update category: %w", err)
		}
		found = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if found {
		slog.InfoContext(ctx, "Category updated in SQLite", "id", id)
	}
	return found, nil
}

// GetCategory implements ports.CategoryStore
func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, bool, error) {
	row, err := r.queries.GetCategory(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, false, nil
	}
	if err != nil {
		return core.Category{}, false, fmt.Errorf("get category by id: %w", err)
	}
	return categoryFromRow(row), true, nil
}

// ListCategories implements ports.CategoryStore
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, len(rows))
	for i, row := range rows {
		out[i] = categoryFromRow(row)
	}
	return out, nil
}

// CountCategories implements ports.CategoryStore
func (r *SQLiteRepository) CountCategories(ctx context.Context) (int, error) {
	n, err := r.queries.CountCategories(ctx)
	if err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return int(n), nil
}

// AddExpense implements ports.ExpenseStore
func (r *SQLiteRepository) AddExpense(ctx context.Context, e core.Expense) (int64, error) {
	id, err := r.queries.CreateExpense(ctx, expenseRow(e))
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"title", e.Title,
		"amount_cents", e.Amount.Cents,
		"category_id", e.CategoryID,
		"date", e.Date.Format(time.DateOnly))
	return id, nil
}

// UpdateExpense implements ports.ExpenseStore
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, id int64, p core.ExpensePatch) (bool, error) {
	found := false
	err := r.withTx(ctx, func(q *Queries) error {
		row, err := q.GetExpense(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get expense: %w", err)
		}
		e := expenseFromRow(row)
		p.Apply(&e)
		if err := q.UpdateExpense(ctx, expenseRow(e)); err != nil {
			return fmt.Errorf("update expense: %w", err)
		}
		found = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if found {
		slog.InfoContext(ctx, "Expense updated in SQLite", "id", id)
	}
	return found, nil
}

// DeleteExpense implements ports.ExpenseStore
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) (bool, error) {
	n, err := r.queries.DeleteExpense(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete expense: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Expense deleted from SQLite", "id", id)
	}
	return n > 0, nil
}

// GetExpense implements ports.ExpenseStore
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, bool, error) {
	row, err := r.queries.GetExpense(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, false, nil
	}
	if err != nil {
		return core.Expense{}, false, fmt.Errorf("get expense by id: %w", err)
	}
	return expenseFromRow(row), true, nil
}

// ListExpenses implements ports.ExpenseStore
func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.queries.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.Expense, len(rows))
	for i, row := range rows {
		out[i] = expenseFromRow(row)
	}
	return out, nil
}

// SetBudget implements ports.BudgetStore. The lookup and the write share a
// transaction so two calls for the same period cannot both insert.
func (r *SQLiteRepository) SetBudget(ctx context.Context, year, month int, total core.Money) (core.MonthlyBudget, error) {
	b := core.MonthlyBudget{Year: year, Month: month, TotalBudget: total}
	err := r.withTx(ctx, func(q *Queries) error {
		existing, err := q.GetBudgetByPeriod(ctx, int64(year), int64(month))
		switch {
		case err == nil:
			b.ID = existing.ID
			if err := q.UpdateBudgetAmount(ctx, existing.ID, total.Cents); err != nil {
				return fmt.Errorf("update budget: %w", err)
			}
			return nil
		case errors.Is(err, sql.ErrNoRows):
			id, err := q.CreateBudget(ctx, budgetRow(b))
			if err != nil {
				return fmt.Errorf("create budget: %w", err)
			}
			b.ID = id
			return nil
		default:
			return fmt.Errorf("get budget: %w", err)
		}
	})
	if err != nil {
		return core.MonthlyBudget{}, err
	}

	slog.InfoContext(ctx, "Budget saved to SQLite",
		"id", b.ID, "year", year, "month", month, "amount_cents", total.Cents)
	return b, nil
}

// GetBudget implements ports.BudgetStore
func (r *SQLiteRepository) GetBudget(ctx context.Context, year, month int) (core.MonthlyBudget, bool, error) {
	row, err := r.queries.GetBudgetByPeriod(ctx, int64(year), int64(month))
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthlyBudget{}, false, nil
	}
	if err != nil {
		return core.MonthlyBudget{}, false, fmt.Errorf("get budget: %w", err)
	}
	return budgetFromRow(row), true, nil
}

// ListBudgets implements ports.BudgetStore
func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.MonthlyBudget, error) {
	rows, err := r.queries.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	out := make([]core.MonthlyBudget, len(rows))
	for i, row := range rows {
		out[i] = budgetFromRow(row)
	}
	return out, nil
}

// ReadAll implements ports.SnapshotStore. The three reads share one
// transaction so the snapshot is consistent.
func (r *SQLiteRepository) ReadAll(ctx context.Context) (core.Dataset, error) {
	var ds core.Dataset
	err := r.withTx(ctx, func(q *Queries) error {
		cats, err := q.ListCategories(ctx)
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		exps, err := q.ListExpenses(ctx)
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		budgets, err := q.ListBudgets(ctx)
		if err != nil {
			return fmt.Errorf("list budgets: %w", err)
		}

		ds.Categories = make([]core.Category, len(cats))
		for i, row := range cats {
			ds.Categories[i] = categoryFromRow(row)
		}
		ds.Expenses = make([]core.Expense, len(exps))
		for i, row := range exps {
			ds.Expenses[i] = expenseFromRow(row)
		}
		ds.MonthlyBudgets = make([]core.MonthlyBudget, len(budgets))
		for i, row := range budgets {
			ds.MonthlyBudgets[i] = budgetFromRow(row)
		}
		return nil
	})
	return ds, err
}

// ReplaceAll implements ports.SnapshotStore. Clearing and rewriting happen in
// one transaction; any failure rolls back to the previous content.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, ds core.Dataset) error {
	err := r.withTx(ctx, func(q *Queries) error {
		if err := q.ClearAll(ctx); err != nil {
			return fmt.Errorf("clear collections: %w", err)
		}
		for _, c := range ds.Categories {
			var err error
			if c.ID > 0 {
				err = q.UpsertCategory(ctx, categoryRow(c))
			} else {
				_, err = q.CreateCategory(ctx, categoryRow(c))
			}
			if err != nil {
				return fmt.Errorf("write category %d: %w", c.ID, err)
			}
		}
		for _, e := range ds.Expenses {
			var err error
			if e.ID > 0 {
				err = q.UpsertExpense(ctx, expenseRow(e))
			} else {
				_, err = q.CreateExpense(ctx, expenseRow(e))
			}
			if err != nil {
				return fmt.Errorf("write expense %d: %w", e.ID, err)
			}
		}
		for _, b := range ds.MonthlyBudgets {
			var err error
			if b.ID > 0 {
				err = q.UpsertBudget(ctx, budgetRow(b))
			} else {
				_, err = q.CreateBudget(ctx, budgetRow(b))
			}
			if err != nil {
				return fmt.Errorf("write budget %d: %w", b.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Collections replaced in SQLite",
		"categories", len(ds.Categories),
		"expenses", len(ds.Expenses),
		"monthly_budgets", len(ds.MonthlyBudgets))
	return nil
}

// GetSetting implements ports.SettingsStore
func (r *SQLiteRepository) GetSetting(ctx context.Context, key string) (string, bool, error) {
	v, err := r.queries.GetSetting(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return v, true, nil
}

// PutSetting implements ports.SettingsStore
func (r *SQLiteRepository) PutSetting(ctx context.Context, key, value string) error {
	if err := r.queries.PutSetting(ctx, key, value); err != nil {
		return fmt.Errorf("put setting %s: %w", key, err)
	}
	return nil
}

func categoryRow(c core.Category) Category {
	return Category{ID: c.ID, Name: c.Name, Type: string(c.Type), Color: c.Color, IsDeleted: c.IsDeleted}
}

func categoryFromRow(row Category) core.Category {
	return core.Category{
		ID:        row.ID,
		Name:      row.Name,
		Type:      core.CategoryType(row.Type),
		Color:     row.Color,
		IsDeleted: row.IsDeleted,
	}
}

func expenseRow(e core.Expense) Expense {
	return Expense{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		AmountCents: e.Amount.Cents,
		CategoryID:  e.CategoryID,
		DateMs:      e.Date.UnixMilli(),
		CreatedAtMs: e.CreatedAt.UnixMilli(),
	}
}

func expenseFromRow(row Expense) core.Expense {
	return core.Expense{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Amount:      core.Money{Cents: row.AmountCents},
		CategoryID:  row.CategoryID,
		Date:        time.UnixMilli(row.DateMs),
		CreatedAt:   time.UnixMilli(row.CreatedAtMs),
	}
}

func budgetRow(b core.MonthlyBudget) MonthlyBudget {
	return MonthlyBudget{
		ID:               b.ID,
		Year:             int64(b.Year),
		Month:            int64(b.Month),
		TotalBudgetCents: b.TotalBudget.Cents,
	}
}

func budgetFromRow(row MonthlyBudget) core.MonthlyBudget {
	return core.MonthlyBudget{
		ID:          row.ID,
		Year:        int(row.Year),
		Month:       int(row.Month),
		TotalBudget: core.Money{Cents: row.TotalBudgetCents},
	}
}
