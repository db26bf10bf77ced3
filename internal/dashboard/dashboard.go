// Package dashboard computes the derived monthly spending metrics.
//
// Compute is pure: it reads only its Input and keeps no state between calls.
package dashboard

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"gastos/internal/core"
)

// RecentLimit is how many of the month's latest expenses Overview carries.
const RecentLimit = 3

type BudgetStatus string

const (
	StatusNone    BudgetStatus = "none"
	StatusOK      BudgetStatus = "ok"
	StatusWarning BudgetStatus = "warning"
	StatusOver    BudgetStatus = "over"
)

// Input is a point-in-time snapshot. Categories must be the full view,
// soft-deleted records included. Now supplies both the current date and the
// location month boundaries are computed in.
type Input struct {
	Expenses   []core.Expense
	Categories core.Categories
	Budget     *core.MonthlyBudget
	Period     core.Period
	Now        time.Time
	// Currency is the ISO code amounts are displayed in; empty means
	// core.DefaultCurrency.
	Currency string
}

type CategoryTotal struct {
	Category core.Category `json:"category"`
	Total    core.Money    `json:"total"`
	Percent  int           `json:"percent"`
}

type RecentExpense struct {
	Expense  core.Expense       `json:"expense"`
	Category core.CategoryLabel `json:"category"`
}

type Overview struct {
	Period core.Period `json:"period"`

	MonthTotal     core.Money `json:"monthTotal"`
	PrevMonthTotal core.Money `json:"prevMonthTotal"`
	YearTotal      core.Money `json:"yearTotal"`
	// MonthChange is nil when the previous month has no spending.
	MonthChange  *int `json:"monthChange"`
	ExpenseCount int  `json:"expenseCount"`

	DaysInMonth  int        `json:"daysInMonth"`
	DaysElapsed  int        `json:"daysElapsed"`
	DailyAverage core.Money `json:"dailyAverage"`
	Projected    core.Money `json:"projected"`

	HasBudget           bool         `json:"hasBudget"`
	BudgetAmount        core.Money   `json:"budgetAmount"`
	UsagePercent        int          `json:"usagePercent"`
	Remaining           core.Money   `json:"remaining"`
	Exceeded            bool         `json:"exceeded"`
	BudgetStatus        BudgetStatus `json:"budgetStatus"`
	ProjectedOverBudget bool         `json:"projectedOverBudget"`

	Fixed           core.Money `json:"fixed"`
	Variable        core.Money `json:"variable"`
	FixedPercent    int        `json:"fixedPercent"`
	VariablePercent int        `json:"variablePercent"`

	Ranking []CategoryTotal `json:"ranking"`
	Recent  []RecentExpense `json:"recent"`

	Display Display `json:"display"`
}

// Display carries the headline amounts formatted for the ledger currency.
// Budget fields are empty without a budget; only one of Remaining and
// ExceededBy is set.
type Display struct {
	Currency     string `json:"currency"`
	MonthTotal   string `json:"monthTotal"`
	YearTotal    string `json:"yearTotal"`
	DailyAverage string `json:"dailyAverage"`
	Projected    string `json:"projected"`
	Fixed        string `json:"fixed"`
	Variable     string `json:"variable"`
	Budget       string `json:"budget,omitempty"`
	Remaining    string `json:"remaining,omitempty"`
	ExceededBy   string `json:"exceededBy,omitempty"`
}

var hundred = decimal.NewFromInt(100)

// Compute derives every dashboard metric for in.Period.
func Compute(in Input) Overview {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	loc := now.Location()

	month := MonthExpenses(in.Expenses, in.Period, loc)
	prev := MonthExpenses(in.Expenses, in.Period.Prev(), loc)

	ov := Overview{
		Period:         in.Period,
		MonthTotal:     Total(month),
		PrevMonthTotal: Total(prev),
		YearTotal:      YearTotal(in.Expenses, in.Period.Year, loc),
		ExpenseCount:   len(month),
		DaysInMonth:    in.Period.Days(),
		DaysElapsed:    DaysElapsed(in.Period, now),
		Ranking:        []CategoryTotal{},
		Recent:         []RecentExpense{},
	}

	ov.MonthChange = MonthChange(ov.MonthTotal, ov.PrevMonthTotal)

	total := ov.MonthTotal.Decimal()
	daily := total.Div(decimal.NewFromInt(int64(ov.DaysElapsed)))
	projected := total.Mul(decimal.NewFromInt(int64(ov.DaysInMonth))).
		Div(decimal.NewFromInt(int64(ov.DaysElapsed)))
	ov.DailyAverage = core.FromDecimal(daily)
	ov.Projected = core.FromDecimal(projected)

	ov.BudgetStatus = StatusNone
	if in.Budget != nil && in.Budget.TotalBudget.Cents > 0 {
		budget := in.Budget.TotalBudget
		ov.HasBudget = true
		ov.BudgetAmount = budget
		ov.UsagePercent = percent(ov.MonthTotal, budget)
		ov.Remaining = budget.Sub(ov.MonthTotal)
		ov.Exceeded = ov.Remaining.Cents < 0
		ov.BudgetStatus = statusFor(ov.UsagePercent)
		ov.ProjectedOverBudget = projected.GreaterThan(budget.Decimal())
	}

	ov.Fixed, ov.Variable = Split(month, in.Categories)
	ov.FixedPercent = percent(ov.Fixed, ov.MonthTotal)
	ov.VariablePercent = percent(ov.Variable, ov.MonthTotal)

	for _, ct := range Ranking(month, in.Categories) {
		ct.Percent = percent(ct.Total, ov.MonthTotal)
		ov.Ranking = append(ov.Ranking, ct)
	}

	for i, e := range month {
		if i == RecentLimit {
			break
		}
		ov.Recent = append(ov.Recent, RecentExpense{Expense: e, Category: in.Categories.Resolve(e.CategoryID)})
	}

	ov.Display = FormatDisplay(ov, in.Currency)
	return ov
}

// FormatDisplay renders the amounts of ov in currency.
func FormatDisplay(ov Overview, currency string) Display {
	if currency == "" {
		currency = core.DefaultCurrency
	}
	d := Display{
		Currency:     currency,
		MonthTotal:   ov.MonthTotal.Format(currency),
		YearTotal:    ov.YearTotal.Format(currency),
		DailyAverage: ov.DailyAverage.Format(currency),
		Projected:    ov.Projected.Format(currency),
		Fixed:        ov.Fixed.Format(currency),
		Variable:     ov.Variable.Format(currency),
	}
	if !ov.HasBudget {
		return d
	}
	d.Budget = ov.BudgetAmount.Format(currency)
	if ov.Exceeded {
		d.ExceededBy = ov.Remaining.Abs().Format(currency)
	} else {
		d.Remaining = ov.Remaining.Format(currency)
	}
	return d
}

// MonthExpenses keeps the expenses dated inside p, preserving input order.
func MonthExpenses(items []core.Expense, p core.Period, loc *time.Location) []core.Expense {
	out := make([]core.Expense, 0, len(items))
	for _, e := range items {
		if p.Contains(e.Date, loc) {
			out = append(out, e)
		}
	}
	return out
}

func Total(items []core.Expense) core.Money {
	var sum core.Money
	for _, e := range items {
		sum = sum.Add(e.Amount)
	}
	return sum
}

// YearTotal sums the expenses whose date falls in year, in loc.
func YearTotal(items []core.Expense, year int, loc *time.Location) core.Money {
	var sum core.Money
	for _, e := range items {
		if e.Date.In(loc).Year() == year {
			sum = sum.Add(e.Amount)
		}
	}
	return sum
}

// MonthChange returns the rounded percentage change from prev to cur, or nil
// when prev is not positive.
func MonthChange(cur, prev core.Money) *int {
	if prev.Cents <= 0 {
		return nil
	}
	ratio := cur.Sub(prev).Decimal().Div(prev.Decimal()).Mul(hundred)
	v := Round(ratio)
	return &v
}

// DaysElapsed is today's day of month when p is the current month and the
// full month length otherwise.
func DaysElapsed(p core.Period, now time.Time) int {
	if core.PeriodOf(now) == p {
		return now.Day()
	}
	return p.Days()
}

// Split partitions by category type. Unresolved categories count as
// variable.
func Split(month []core.Expense, cats core.Categories) (fixed, variable core.Money) {
	var total core.Money
	for _, e := range month {
		total = total.Add(e.Amount)
		if cats.Resolve(e.CategoryID).Type == core.Fixed {
			fixed = fixed.Add(e.Amount)
		}
	}
	return fixed, total.Sub(fixed)
}

// Ranking totals the month per active category, drops empty ones and sorts
// by total descending. Ties keep category order.
func Ranking(month []core.Expense, cats core.Categories) []CategoryTotal {
	sums := make(map[int64]core.Money, len(cats))
	for _, e := range month {
		sums[e.CategoryID] = sums[e.CategoryID].Add(e.Amount)
	}

	out := []CategoryTotal{}
	for _, c := range cats.Active() {
		if t := sums[c.ID]; t.Cents > 0 {
			out = append(out, CategoryTotal{Category: c, Total: t})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.Cents > out[j].Total.Cents
	})
	return out
}

// Round rounds half up, toward positive infinity.
func Round(d decimal.Decimal) int {
	return int(d.Add(decimal.NewFromFloat(0.5)).Floor().IntPart())
}

func percent(part, whole core.Money) int {
	if whole.Cents <= 0 {
		return 0
	}
	return Round(part.Decimal().Div(whole.Decimal()).Mul(hundred))
}

func statusFor(usage int) BudgetStatus {
	switch {
	case usage > 100:
		return StatusOver
	case usage > 80:
		return StatusWarning
	default:
		return StatusOK
	}
}
