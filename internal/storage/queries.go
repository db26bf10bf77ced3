package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Row types mirror the table columns.
type (
	Category struct {
		ID        int64
		Name      string
		Type      string
		Color     string
		IsDeleted bool
	}

	Expense struct {
		ID          int64
		Title       string
		Description string
		AmountCents int64
		CategoryID  int64
		DateMs      int64
		CreatedAtMs int64
	}

	MonthlyBudget struct {
		ID               int64
		Year             int64
		Month            int64
		TotalBudgetCents int64
	}
)

const createCategory = `INSERT INTO categories (name, type, color, is_deleted) VALUES (?, ?, ?, ?)`

func (q *Queries) CreateCategory(ctx context.Context, c Category) (int64, error) {
	res, err := q.db.ExecContext(ctx, createCategory, c.Name, c.Type, c.Color, c.IsDeleted)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const upsertCategory = `
INSERT INTO categories (id, name, type, color, is_deleted) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    type = excluded.type,
    color = excluded.color,
    is_deleted = excluded.is_deleted`

func (q *Queries) UpsertCategory(ctx context.Context, c Category) error {
	_, err := q.db.ExecContext(ctx, upsertCategory, c.ID, c.Name, c.Type, c.Color, c.IsDeleted)
	return err
}

const getCategory = `SELECT id, name, type, color, is_deleted FROM categories WHERE id = ?`

func (q *Queries) GetCategory(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := q.db.QueryRowContext(ctx, getCategory, id).Scan(&c.ID, &c.Name, &c.Type, &c.Color, &c.IsDeleted)
	return c, err
}

const listCategories = `SELECT id, name, type, color, is_deleted FROM categories ORDER BY id`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.Color, &c.IsDeleted); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const updateCategory = `UPDATE categories SET name = ?, type = ?, color = ?, is_deleted = ? WHERE id = ?`

func (q *Queries) UpdateCategory(ctx context.Context, c Category) error {
	_, err := q.db.ExecContext(ctx, updateCategory, c.Name, c.Type, c.Color, c.IsDeleted, c.ID)
	return err
}

const countCategories = `SELECT COUNT(*) FROM categories`

func (q *Queries) CountCategories(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countCategories).Scan(&n)
	return n, err
}

const createExpense = `
INSERT INTO expenses (title, description, amount_cents, category_id, date_ms, created_at_ms)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateExpense(ctx context.Context, e Expense) (int64, error) {
	res, err := q.db.ExecContext(ctx, createExpense, e.Title, e.Description, e.AmountCents, e.CategoryID, e.DateMs, e.CreatedAtMs)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const upsertExpense = `
INSERT INTO expenses (id, title, description, amount_cents, category_id, date_ms, created_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    title = excluded.title,
    description = excluded.description,
    amount_cents = excluded.amount_cents,
    category_id = excluded.category_id,
    date_ms = excluded.date_ms,
    created_at_ms = excluded.created_at_ms`

func (q *Queries) UpsertExpense(ctx context.Context, e Expense) error {
	_, err := q.db.ExecContext(ctx, upsertExpense, e.ID, e.Title, e.Description, e.AmountCents, e.CategoryID, e.DateMs, e.CreatedAtMs)
	return err
}

const getExpense = `
SELECT id, title, description, amount_cents, category_id, date_ms, created_at_ms
FROM expenses WHERE id = ?`

func (q *Queries) GetExpense(ctx context.Context, id int64) (Expense, error) {
	var e Expense
	err := q.db.QueryRowContext(ctx, getExpense, id).Scan(
		&e.ID, &e.Title, &e.Description, &e.AmountCents, &e.CategoryID, &e.DateMs, &e.CreatedAtMs,
	)
	return e, err
}

const listExpenses = `
SELECT id, title, description, amount_cents, category_id, date_ms, created_at_ms
FROM expenses ORDER BY date_ms DESC, id DESC`

func (q *Queries) ListExpenses(ctx context.Context) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpenses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.AmountCents, &e.CategoryID, &e.DateMs, &e.CreatedAtMs); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// updateExpense leaves created_at_ms alone.
const updateExpense = `
UPDATE expenses SET title = ?, description = ?, amount_cents = ?, category_id = ?, date_ms = ?
WHERE id = ?`

func (q *Queries) UpdateExpense(ctx context.Context, e Expense) error {
	_, err := q.db.ExecContext(ctx, updateExpense, e.Title, e.Description, e.AmountCents, e.CategoryID, e.DateMs, e.ID)
	return err
}

const deleteExpense = `DELETE FROM expenses WHERE id = ?`

func (q *Queries) DeleteExpense(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpense, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getBudgetByPeriod = `
SELECT id, year, month, total_budget_cents FROM monthly_budgets
WHERE year = ? AND month = ? ORDER BY id LIMIT 1`

func (q *Queries) GetBudgetByPeriod(ctx context.Context, year, month int64) (MonthlyBudget, error) {
	var b MonthlyBudget
	err := q.db.QueryRowContext(ctx, getBudgetByPeriod, year, month).Scan(&b.ID, &b.Year, &b.Month, &b.TotalBudgetCents)
	return b, err
}

const createBudget = `INSERT INTO monthly_budgets (year, month, total_budget_cents) VALUES (?, ?, ?)`

func (q *Queries) CreateBudget(ctx context.Context, b MonthlyBudget) (int64, error) {
	res, err := q.db.ExecContext(ctx, createBudget, b.Year, b.Month, b.TotalBudgetCents)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const updateBudgetAmount = `UPDATE monthly_budgets SET total_budget_cents = ? WHERE id = ?`

func (q *Queries) UpdateBudgetAmount(ctx context.Context, id, cents int64) error {
	_, err := q.db.ExecContext(ctx, updateBudgetAmount, cents, id)
	return err
}

const upsertBudget = `
INSERT INTO monthly_budgets (id, year, month, total_budget_cents) VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    year = excluded.year,
    month = excluded.month,
    total_budget_cents = excluded.total_budget_cents`

func (q *Queries) UpsertBudget(ctx context.Context, b MonthlyBudget) error {
	_, err := q.db.ExecContext(ctx, upsertBudget, b.ID, b.Year, b.Month, b.TotalBudgetCents)
	return err
}

const listBudgets = `SELECT id, year, month, total_budget_cents FROM monthly_budgets ORDER BY id`

func (q *Queries) ListBudgets(ctx context.Context) ([]MonthlyBudget, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MonthlyBudget
	for rows.Next() {
		var b MonthlyBudget
		if err := rows.Scan(&b.ID, &b.Year, &b.Month, &b.TotalBudgetCents); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

func (q *Queries) ClearAll(ctx context.Context) error {
	for _, stmt := range []string{
		`DELETE FROM categories`,
		`DELETE FROM expenses`,
		`DELETE FROM monthly_budgets`,
	} {
		if _, err := q.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

const getSetting = `SELECT value FROM settings WHERE key = ?`

func (q *Queries) GetSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := q.db.QueryRowContext(ctx, getSetting, key).Scan(&v)
	return v, err
}

const putSetting = `
INSERT INTO settings (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`

func (q *Queries) PutSetting(ctx context.Context, key, value string) error {
	_, err := q.db.ExecContext(ctx, putSetting, key, value)
	return err
}
