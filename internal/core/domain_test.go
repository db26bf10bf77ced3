package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Title:      "ok",
		Amount:     Money{Cents: 100},
		CategoryID: 1,
		Date:       time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		e    Expense
		want error
	}{
		{Expense{Title: " ", Amount: Money{Cents: 1}, CategoryID: 1, Date: good.Date}, ErrEmptyTitle},
		{Expense{Title: "a", Amount: Money{Cents: 0}, CategoryID: 1, Date: good.Date}, ErrInvalidAmount},
		{Expense{Title: "a", Amount: Money{Cents: -5}, CategoryID: 1, Date: good.Date}, ErrInvalidAmount},
		{Expense{Title: "a", Amount: Money{Cents: 1}, CategoryID: 0, Date: good.Date}, ErrMissingCategory},
		{Expense{Title: "a", Amount: Money{Cents: 1}, CategoryID: 1}, ErrInvalidDate},
	}
	for i, tc := range bads {
		err := tc.e.Validate()
		if !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
		if !IsValidation(err) {
			t.Fatalf("case %d: %v should be a validation error", i, err)
		}
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{Name: "Rent", Type: Fixed}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Category{Name: "", Type: Fixed}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if err := (Category{Name: "x", Type: "monthly"}).Validate(); !errors.Is(err, ErrInvalidCategoryType) {
		t.Fatalf("expected ErrInvalidCategoryType, got %v", err)
	}
}

func TestLengthLimits(t *testing.T) {
	long := strings.Repeat("n", MaxNameLength+1)
	longTitle := strings.Repeat("t", MaxTitleLength+1)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		err  error
		want error
	}{
		{"category", (Category{Name: long, Type: Fixed}).Validate(), ErrNameTooLong},
		{"category patch", (CategoryPatch{Name: &long}).Validate(), ErrNameTooLong},
		{"expense", (Expense{Title: longTitle, Amount: Money{Cents: 1}, CategoryID: 1, Date: day}).Validate(), ErrTitleTooLong},
		{"expense patch", (ExpensePatch{Title: &longTitle}).Validate(), ErrTitleTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, tc.err)
			}
			if !IsValidation(tc.err) {
				t.Fatalf("%v should count as a validation error", tc.err)
			}
		})
	}

	atLimit := strings.Repeat("n", MaxNameLength)
	if err := (Category{Name: atLimit, Type: Fixed}).Validate(); err != nil {
		t.Fatalf("name at the limit should pass, got %v", err)
	}
}

func TestBudgetValidate(t *testing.T) {
	if err := (MonthlyBudget{Year: 2024, Month: 11, TotalBudget: Money{Cents: 1}}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (MonthlyBudget{Year: 2024, Month: 12, TotalBudget: Money{Cents: 1}}).Validate(); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
	if err := (MonthlyBudget{Year: 2024, Month: 0}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestExpensePatchApply(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	e := Expense{ID: 7, Title: "old", Amount: Money{Cents: 100}, CategoryID: 1, CreatedAt: created}

	title := "new"
	amount := Money{Cents: 250}
	ExpensePatch{Title: &title, Amount: &amount}.Apply(&e)

	if e.Title != "new" || e.Amount.Cents != 250 || e.CategoryID != 1 {
		t.Fatalf("unexpected patched expense: %+v", e)
	}
	if !e.CreatedAt.Equal(created) || e.ID != 7 {
		t.Fatalf("patch must not touch id or createdAt: %+v", e)
	}

	empty := ""
	if err := (ExpensePatch{Title: &empty}).Validate(); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
	zero := Money{}
	if err := (ExpensePatch{Amount: &zero}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestCategoriesResolve(t *testing.T) {
	cs := Categories{
		{ID: 1, Name: "Rent", Type: Fixed, Color: "#ef4444"},
		{ID: 2, Name: "Old", Type: Fixed, Color: "#000000", IsDeleted: true},
	}

	if got := cs.Active(); len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("unexpected active view: %+v", got)
	}

	deleted := cs.Resolve(2)
	if !deleted.Found || !deleted.Deleted || deleted.Name != "Old" || deleted.Color != "#000000" {
		t.Fatalf("soft-deleted category should still resolve: %+v", deleted)
	}

	missing := cs.Resolve(99)
	if missing.Found || missing.Name != UncategorizedLabel || missing.Color != UncategorizedColor || missing.Type != Variable {
		t.Fatalf("unexpected fallback: %+v", missing)
	}
}

func TestPeriod(t *testing.T) {
	p := Period{Year: 2024, Month: 1}
	if p.Days() != 29 {
		t.Fatalf("feb 2024 should have 29 days, got %d", p.Days())
	}
	if got := (Period{Year: 2024, Month: 0}).Prev(); got != (Period{Year: 2023, Month: 11}) {
		t.Fatalf("unexpected prev: %v", got)
	}
	if got := (Period{Year: 2024, Month: 11}).Next(); got != (Period{Year: 2025, Month: 0}) {
		t.Fatalf("unexpected next: %v", got)
	}

	loc := time.UTC
	march := Period{Year: 2024, Month: 2}
	cases := []struct {
		t  time.Time
		ok bool
	}{
		{time.Date(2024, 3, 1, 0, 0, 0, 0, loc), true},
		{time.Date(2024, 3, 31, 23, 59, 59, 999_000_000, loc), true},
		{time.Date(2024, 4, 1, 0, 0, 0, 0, loc), false},
		{time.Date(2024, 2, 29, 23, 59, 59, 0, loc), false},
	}
	for i, tc := range cases {
		if got := march.Contains(tc.t, loc); got != tc.ok {
			t.Fatalf("case %d: Contains(%v)=%v, want %v", i, tc.t, got, tc.ok)
		}
	}
	if err := (Period{Year: 2024, Month: -1}).Validate(); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}
