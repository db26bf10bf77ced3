package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gastos/internal/backup"
	"gastos/internal/cache"
	"gastos/internal/core"
	"gastos/internal/dashboard"
	"gastos/internal/events"
	"gastos/internal/ports"
)

// Ledger is the data access layer used by every outer surface. Input is
// validated before it reaches the store and each committed mutation is
// announced on the bus.
type Ledger struct {
	store ports.Store
	bus   *events.Bus
	clock    func() time.Time
	loc      *time.Location
	currency string

	overviews *cache.LRU[dashboard.Overview]
	cacheMu   sync.Mutex
	// generation counts committed changes; an overview computed across a
	// change is not cached.
	generation uint64
}

type Option func(*Ledger)

// WithClock replaces time.Now, mostly for tests.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) { l.clock = clock }
}

// WithLocation sets the zone month boundaries are computed in.
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// WithCurrency sets the ISO code dashboard amounts are displayed in.
func WithCurrency(code string) Option {
	return func(l *Ledger) {
		if code != "" {
			l.currency = code
		}
	}
}

// WithDashboardCache keeps up to size computed overviews for ttl. Every
// committed change purges it.
func WithDashboardCache(size int, ttl time.Duration) Option {
	return func(l *Ledger) { l.overviews = cache.NewLRU[dashboard.Overview](size, ttl) }
}

func NewLedger(store ports.Store, bus *events.Bus, opts ...Option) *Ledger {
	l := &Ledger{
		store: store,
		bus:   bus,
		clock:    time.Now,
		loc:      time.Local,
		currency: core.DefaultCurrency,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.bus == nil {
		l.bus = events.NewBus()
	}
	return l
}

// Now returns the ledger's current time in its location.
func (l *Ledger) Now() time.Time {
	return l.clock().In(l.loc)
}

func (l *Ledger) Location() *time.Location { return l.loc }

func (l *Ledger) Bus() *events.Bus { return l.bus }

func (l *Ledger) Currency() string { return l.currency }

// publish purges cached overviews before subscribers run, so a recompute
// triggered by the change reads fresh data.
func (l *Ledger) publish(c events.Collection, op events.Op, id int64) {
	if l.overviews != nil {
		l.cacheMu.Lock()
		l.generation++
		l.overviews.Purge()
		l.cacheMu.Unlock()
	}
	l.bus.Publish(events.Change{Collection: c, Op: op, ID: id, At: l.clock()})
}

// AddCategory stores c as an active category.
func (l *Ledger) AddCategory(ctx context.Context, c core.Category) (int64, error) {
	c.IsDeleted = false
	if err := c.Validate(); err != nil {
		return 0, fmt.Errorf("add category: %w", err)
	}
	id, err := l.store.AddCategory(ctx, c)
	if err != nil {
		return 0, fmt.Errorf("add category: %w", err)
	}
	l.publish(events.Categories, events.OpAdd, id)
	return id, nil
}

// UpdateCategory merges p into category id. A missing id is not an error.
func (l *Ledger) UpdateCategory(ctx context.Context, id int64, p core.CategoryPatch) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	ok, err := l.store.UpdateCategory(ctx, id, p)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if !ok {
		slog.DebugContext(ctx, "Category update matched nothing", "id", id)
		return nil
	}
	l.publish(events.Categories, events.OpUpdate, id)
	return nil
}

// DeleteCategory flags the category as deleted. Its expenses are untouched.
func (l *Ledger) DeleteCategory(ctx context.Context, id int64) error {
	deleted := true
	return l.UpdateCategory(ctx, id, core.CategoryPatch{IsDeleted: &deleted})
}

// ActiveCategories is the view used by pickers and forms.
func (l *Ledger) ActiveCategories(ctx context.Context) (core.Categories, error) {
	all, err := l.AllCategories(ctx)
	if err != nil {
		return nil, err
	}
	return all.Active(), nil
}

// AllCategories includes soft-deleted records, for resolving history.
func (l *Ledger) AllCategories(ctx context.Context) (core.Categories, error) {
	cats, err := l.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return core.Categories(cats), nil
}

// AddExpense stamps createdAt and stores e. categoryId is not checked
// against existing categories.
func (l *Ledger) AddExpense(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, fmt.Errorf("add expense: %w", err)
	}
	e.CreatedAt = l.clock()
	id, err := l.store.AddExpense(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("add expense: %w", err)
	}
	l.publish(events.Expenses, events.OpAdd, id)
	return id, nil
}

func (l *Ledger) UpdateExpense(ctx context.Context, id int64, p core.ExpensePatch) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	ok, err := l.store.UpdateExpense(ctx, id, p)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if !ok {
		slog.DebugContext(ctx, "Expense update matched nothing", "id", id)
		return nil
	}
	l.publish(events.Expenses, events.OpUpdate, id)
	return nil
}

// DeleteExpense removes the record permanently.
func (l *Ledger) DeleteExpense(ctx context.Context, id int64) error {
	ok, err := l.store.DeleteExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if !ok {
		slog.DebugContext(ctx, "Expense delete matched nothing", "id", id)
		return nil
	}
	l.publish(events.Expenses, events.OpDelete, id)
	return nil
}

// RepeatExpense copies expense id to a new record dated date.
func (l *Ledger) RepeatExpense(ctx context.Context, id int64, date time.Time) (int64, error) {
	src, ok, err := l.store.GetExpense(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("repeat expense: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("repeat expense %d: %w", id, core.ErrNotFound)
	}
	if date.IsZero() {
		date = l.Now()
	}
	return l.AddExpense(ctx, core.Expense{
		Title:       src.Title,
		Description: src.Description,
		Amount:      src.Amount,
		CategoryID:  src.CategoryID,
		Date:        date,
	})
}

func (l *Ledger) GetExpense(ctx context.Context, id int64) (core.Expense, bool, error) {
	return l.store.GetExpense(ctx, id)
}

// ListExpenses returns every expense, most recent first.
func (l *Ledger) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	items, err := l.store.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return items, nil
}

// MonthExpenses lists the expenses dated inside p.
func (l *Ledger) MonthExpenses(ctx context.Context, p core.Period) ([]core.Expense, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	items, err := l.ListExpenses(ctx)
	if err != nil {
		return nil, err
	}
	return dashboard.MonthExpenses(items, p, l.loc), nil
}

// SetBudget updates the budget for (year, month) or creates it.
func (l *Ledger) SetBudget(ctx context.Context, year, month int, total core.Money) (core.MonthlyBudget, error) {
	candidate := core.MonthlyBudget{Year: year, Month: month, TotalBudget: total}
	if err := candidate.Validate(); err != nil {
		return core.MonthlyBudget{}, fmt.Errorf("set budget: %w", err)
	}
	b, err := l.store.SetBudget(ctx, year, month, total)
	if err != nil {
		return core.MonthlyBudget{}, fmt.Errorf("set budget: %w", err)
	}
	l.publish(events.MonthlyBudgets, events.OpUpdate, b.ID)
	return b, nil
}

// Budget returns nil when no budget is set for the period.
func (l *Ledger) Budget(ctx context.Context, year, month int) (*core.MonthlyBudget, error) {
	b, ok, err := l.store.GetBudget(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &b, nil
}

// Dashboard computes the metrics for p. With a dashboard cache an overview is
// reused until the next committed change or the end of the day.
func (l *Ledger) Dashboard(ctx context.Context, p core.Period) (dashboard.Overview, error) {
	if err := p.Validate(); err != nil {
		return dashboard.Overview{}, err
	}
	now := l.Now()
	// Elapsed days depend on today's date.
	key := fmt.Sprintf("%s@%s", p, now.Format(time.DateOnly))
	var gen uint64
	if l.overviews != nil {
		if ov, ok := l.overviews.Get(key); ok {
			return ov, nil
		}
		l.cacheMu.Lock()
		gen = l.generation
		l.cacheMu.Unlock()
	}
	ds, err := l.store.ReadAll(ctx)
	if err != nil {
		return dashboard.Overview{}, fmt.Errorf("read collections: %w", err)
	}
	budget, err := l.Budget(ctx, p.Year, p.Month)
	if err != nil {
		return dashboard.Overview{}, err
	}
	ov := dashboard.Compute(dashboard.Input{
		Expenses:   ds.Expenses,
		Categories: core.Categories(ds.Categories),
		Budget:     budget,
		Period:     p,
		Now:        now,
		Currency:   l.currency,
	})
	if l.overviews != nil {
		l.cacheMu.Lock()
		if l.generation == gen {
			l.overviews.Set(key, ov)
		}
		l.cacheMu.Unlock()
	}
	return ov, nil
}

// ExportSnapshot captures every collection in one consistent read.
func (l *Ledger) ExportSnapshot(ctx context.Context) (backup.Snapshot, error) {
	ds, err := l.store.ReadAll(ctx)
	if err != nil {
		return backup.Snapshot{}, fmt.Errorf("export snapshot: %w", err)
	}
	snap := backup.FromDataset(ds, l.clock())
	slog.InfoContext(ctx, "Snapshot exported",
		"categories", len(ds.Categories),
		"expenses", len(ds.Expenses),
		"monthly_budgets", len(ds.MonthlyBudgets))
	return snap, nil
}

// ImportSnapshot replaces the whole store with the snapshot in data. A
// format problem returns backup.ErrInvalidFormat before anything is
// touched; a failed replace returns backup.ErrImportFailed.
func (l *Ledger) ImportSnapshot(ctx context.Context, data []byte) error {
	snap, err := backup.Decode(data)
	if err != nil {
		return err
	}
	return l.RestoreSnapshot(ctx, snap)
}

func (l *Ledger) RestoreSnapshot(ctx context.Context, snap backup.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	ds := snap.Dataset()
	if err := l.store.ReplaceAll(ctx, ds); err != nil {
		slog.ErrorContext(ctx, "Snapshot import rolled back", "error", err)
		return fmt.Errorf("%w: %v", backup.ErrImportFailed, err)
	}
	for _, c := range events.AllCollections {
		l.publish(c, events.OpReplace, 0)
	}
	slog.InfoContext(ctx, "Snapshot imported",
		"categories", len(ds.Categories),
		"expenses", len(ds.Expenses),
		"monthly_budgets", len(ds.MonthlyBudgets))
	return nil
}

// SeedDefaults inserts the default categories when none exist yet and
// returns how many were added.
func (l *Ledger) SeedDefaults(ctx context.Context) (int, error) {
	n, err := l.store.CountCategories(ctx)
	if err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	added := 0
	for _, c := range core.DefaultCategories() {
		if _, err := l.AddCategory(ctx, c); err != nil {
			return added, fmt.Errorf("seed categories: %w", err)
		}
		added++
	}
	slog.InfoContext(ctx, "Default categories seeded", "count", added)
	return added, nil
}

func (l *Ledger) Close() error {
	if l.store == nil {
		return nil
	}
	if err := l.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}
