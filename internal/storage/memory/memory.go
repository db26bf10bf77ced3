// Package memory is an in-process store used for tests and the "memory"
// data backend. Nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gastos/internal/core"
)

type Store struct {
	mu       sync.Mutex
	cats     []core.Category
	items    []core.Expense
	budgets  []core.MonthlyBudget
	settings map[string]string

	nextCat, nextExp, nextBudget int64
}

func New() *Store {
	return &Store{
		settings:   map[string]string{},
		nextCat:    1,
		nextExp:    1,
		nextBudget: 1,
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) AddCategory(_ context.Context, c core.Category) (int64, error) {
	if err := c.Type.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.nextCat
	s.nextCat++
	s.cats = append(s.cats, c)
	return c.ID, nil
}

func (s *Store) UpdateCategory(_ context.Context, id int64, p core.CategoryPatch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cats {
		if s.cats[i].ID == id {
			p.Apply(&s.cats[i])
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (core.Category, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := core.Categories(s.cats).Find(id)
	return c, ok, nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.cats...), nil
}

func (s *Store) CountCategories(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cats), nil
}

func (s *Store) AddExpense(_ context.Context, e core.Expense) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextExp
	s.nextExp++
	s.items = append(s.items, e)
	return e.ID, nil
}

func (s *Store) UpdateExpense(_ context.Context, id int64, p core.ExpensePatch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			p.Apply(&s.items[i])
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) DeleteExpense(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.items {
		if e.ID == id {
			return e, true, nil
		}
	}
	return core.Expense{}, false, nil
}

// ListExpenses orders by date descending, newest id first on ties.
func (s *Store) ListExpenses(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	out := append([]core.Expense(nil), s.items...)
	s.mu.Unlock()
	sortExpenses(out)
	return out, nil
}

func (s *Store) SetBudget(_ context.Context, year, month int, total core.Money) (core.MonthlyBudget, error) {
	if err := (core.Period{Year: year, Month: month}).Validate(); err != nil {
		return core.MonthlyBudget{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.budgets {
		if s.budgets[i].Year == year && s.budgets[i].Month == month {
			s.budgets[i].TotalBudget = total
			return s.budgets[i], nil
		}
	}
	b := core.MonthlyBudget{ID: s.nextBudget, Year: year, Month: month, TotalBudget: total}
	s.nextBudget++
	s.budgets = append(s.budgets, b)
	return b, nil
}

func (s *Store) GetBudget(_ context.Context, year, month int) (core.MonthlyBudget, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.budgets {
		if b.Year == year && b.Month == month {
			return b, true, nil
		}
	}
	return core.MonthlyBudget{}, false, nil
}

func (s *Store) ListBudgets(_ context.Context) ([]core.MonthlyBudget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.MonthlyBudget(nil), s.budgets...), nil
}

func (s *Store) ReadAll(ctx context.Context) (core.Dataset, error) {
	s.mu.Lock()
	ds := core.Dataset{
		Categories:     append([]core.Category{}, s.cats...),
		Expenses:       append([]core.Expense{}, s.items...),
		MonthlyBudgets: append([]core.MonthlyBudget{}, s.budgets...),
	}
	s.mu.Unlock()
	sortExpenses(ds.Expenses)
	return ds, nil
}

// ReplaceAll builds the new state aside and swaps it in only when every
// record is acceptable, so a failure leaves the store untouched.
func (s *Store) ReplaceAll(_ context.Context, ds core.Dataset) error {
	var (
		cats    = make([]core.Category, 0, len(ds.Categories))
		items   = make([]core.Expense, 0, len(ds.Expenses))
		budgets = make([]core.MonthlyBudget, 0, len(ds.MonthlyBudgets))
		maxCat  int64
		maxExp  int64
		maxBud  int64
	)

	// A repeated id overwrites the earlier record, as an upsert would.
	slot := map[int64]int{}
	for _, c := range ds.Categories {
		if err := c.Type.Validate(); err != nil {
			return fmt.Errorf("write category %d: %w", c.ID, err)
		}
		if i, ok := slot[c.ID]; ok && c.ID > 0 {
			cats[i] = c
			continue
		}
		slot[c.ID] = len(cats)
		cats = append(cats, c)
		maxCat = max(maxCat, c.ID)
	}
	for i := range cats {
		if cats[i].ID == 0 {
			maxCat++
			cats[i].ID = maxCat
		}
	}

	slot = map[int64]int{}
	for _, e := range ds.Expenses {
		if i, ok := slot[e.ID]; ok && e.ID > 0 {
			items[i] = e
			continue
		}
		slot[e.ID] = len(items)
		items = append(items, e)
		maxExp = max(maxExp, e.ID)
	}
	for i := range items {
		if items[i].ID == 0 {
			maxExp++
			items[i].ID = maxExp
		}
	}

	slot = map[int64]int{}
	for _, b := range ds.MonthlyBudgets {
		if err := (core.Period{Year: b.Year, Month: b.Month}).Validate(); err != nil {
			return fmt.Errorf("write budget %d: %w", b.ID, err)
		}
		if i, ok := slot[b.ID]; ok && b.ID > 0 {
			budgets[i] = b
			continue
		}
		slot[b.ID] = len(budgets)
		budgets = append(budgets, b)
		maxBud = max(maxBud, b.ID)
	}
	for i := range budgets {
		if budgets[i].ID == 0 {
			maxBud++
			budgets[i].ID = maxBud
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cats, s.items, s.budgets = cats, items, budgets
	s.nextCat, s.nextExp, s.nextBudget = maxCat+1, maxExp+1, maxBud+1
	return nil
}

func (s *Store) GetSetting(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.settings[key]
	return v, ok, nil
}

func (s *Store) PutSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}

func sortExpenses(items []core.Expense) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.After(items[j].Date)
		}
		return items[i].ID > items[j].ID
	})
}
