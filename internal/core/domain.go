package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Fixed    CategoryType = "fixed"
	Variable CategoryType = "variable"
)

type (
	CategoryType string

	Category struct {
		ID        int64        `json:"id,omitempty"`
		Name      string       `json:"name"`
		Type      CategoryType `json:"type"`
		Color     string       `json:"color"`
		IsDeleted bool         `json:"isDeleted"`
	}

	Expense struct {
		ID          int64     `json:"id,omitempty"`
		Title       string    `json:"title"`
		Description string    `json:"description,omitempty"`
		Amount      Money     `json:"amount"`
		CategoryID  int64     `json:"categoryId"`
		Date        time.Time `json:"date"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	MonthlyBudget struct {
		ID          int64 `json:"id,omitempty"`
		Year        int   `json:"year"`
		Month       int   `json:"month"` // 0-11
		TotalBudget Money `json:"totalBudget"`
	}

	// Dataset is the full content of the three collections.
	Dataset struct {
		Categories     []Category
		Expenses       []Expense
		MonthlyBudgets []MonthlyBudget
	}
)

// Partial updates. A nil field is left untouched.
type (
	CategoryPatch struct {
		Name      *string       `json:"name,omitempty"`
		Type      *CategoryType `json:"type,omitempty"`
		Color     *string       `json:"color,omitempty"`
		IsDeleted *bool         `json:"isDeleted,omitempty"`
	}

	// ExpensePatch has no CreatedAt: it is stamped once on insert.
	ExpensePatch struct {
		Title       *string    `json:"title,omitempty"`
		Description *string    `json:"description,omitempty"`
		Amount      *Money     `json:"amount,omitempty"`
		CategoryID  *int64     `json:"categoryId,omitempty"`
		Date        *time.Time `json:"date,omitempty"`
	}
)

var (
	ErrNotFound            = errors.New("not found")
	ErrEmptyTitle          = errors.New("empty title")
	ErrEmptyName           = errors.New("empty category name")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrMissingCategory     = errors.New("no category selected")
	ErrInvalidCategoryType = errors.New("invalid category type")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidDate         = errors.New("invalid date")
	ErrNameTooLong         = errors.New("category name too long")
	ErrTitleTooLong        = errors.New("title too long")
)

const (
	MaxNameLength  = 100
	MaxTitleLength = 200
)

var validationErrors = []error{
	ErrEmptyTitle, ErrEmptyName, ErrInvalidAmount, ErrMissingCategory,
	ErrInvalidCategoryType, ErrInvalidMonth, ErrInvalidDate,
	ErrNameTooLong, ErrTitleTooLong,
}

// IsValidation reports whether err is one of the input validation sentinels.
func IsValidation(err error) bool {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

func (t CategoryType) Validate() error {
	switch t {
	case Fixed, Variable:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCategoryType, string(t))
	}
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w (max %d characters)", ErrNameTooLong, MaxNameLength)
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	if len(title) > MaxTitleLength {
		return fmt.Errorf("%w (max %d characters)", ErrTitleTooLong, MaxTitleLength)
	}
	return nil
}

func (c Category) Validate() error {
	if err := validateName(c.Name); err != nil {
		return err
	}
	return c.Type.Validate()
}

func (e Expense) Validate() error {
	if err := validateTitle(e.Title); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (b MonthlyBudget) Validate() error {
	if err := (Period{Year: b.Year, Month: b.Month}).Validate(); err != nil {
		return err
	}
	return b.TotalBudget.Validate()
}

// Validate checks only the fields that are set.
func (p CategoryPatch) Validate() error {
	if p.Name != nil {
		if err := validateName(*p.Name); err != nil {
			return err
		}
	}
	if p.Type != nil {
		return p.Type.Validate()
	}
	return nil
}

// Apply merges the set fields into c.
func (p CategoryPatch) Apply(c *Category) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.IsDeleted != nil {
		c.IsDeleted = *p.IsDeleted
	}
}

// Validate checks only the fields that are set.
func (p ExpensePatch) Validate() error {
	if p.Title != nil {
		if err := validateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return err
		}
	}
	if p.CategoryID != nil && *p.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if p.Date != nil && p.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Apply merges the set fields into e. CreatedAt is never touched.
func (p ExpensePatch) Apply(e *Expense) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.CategoryID != nil {
		e.CategoryID = *p.CategoryID
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
}
