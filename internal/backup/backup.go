// Package backup encodes and decodes the full-store JSON snapshot.
package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gastos/internal/core"
)

// Version is written into every exported snapshot.
const Version = 1

var (
	// ErrInvalidFormat means the document is not a usable snapshot. Nothing
	// has been changed when it is returned.
	ErrInvalidFormat = errors.New("invalid backup format")
	// ErrImportFailed means the replace itself failed and was rolled back.
	ErrImportFailed = errors.New("import failed")
)

// Snapshot is the export document. The collection fields are pointers so a
// missing field can be told apart from an empty array on import.
type Snapshot struct {
	Version        int                   `json:"version"`
	ExportedAt     time.Time             `json:"exportedAt"`
	Categories     *[]core.Category      `json:"categories"`
	Expenses       *[]core.Expense       `json:"expenses"`
	MonthlyBudgets *[]core.MonthlyBudget `json:"monthlyBudgets,omitempty"`
}

// FromDataset wraps ds in a snapshot stamped with now.
func FromDataset(ds core.Dataset, now time.Time) Snapshot {
	cats := nonNil(ds.Categories)
	items := nonNil(ds.Expenses)
	budgets := nonNil(ds.MonthlyBudgets)
	return Snapshot{
		Version:        Version,
		ExportedAt:     now.UTC(),
		Categories:     &cats,
		Expenses:       &items,
		MonthlyBudgets: &budgets,
	}
}

// Dataset returns the collections held by s. Absent monthlyBudgets yield an
// empty slice.
func (s Snapshot) Dataset() core.Dataset {
	var ds core.Dataset
	if s.Categories != nil {
		ds.Categories = *s.Categories
	}
	if s.Expenses != nil {
		ds.Expenses = *s.Expenses
	}
	if s.MonthlyBudgets != nil {
		ds.MonthlyBudgets = *s.MonthlyBudgets
	}
	return ds
}

// Validate checks the required top-level fields.
func (s Snapshot) Validate() error {
	switch {
	case s.Version == 0:
		return fmt.Errorf("%w: missing version", ErrInvalidFormat)
	case s.Categories == nil:
		return fmt.Errorf("%w: missing categories", ErrInvalidFormat)
	case s.Expenses == nil:
		return fmt.Errorf("%w: missing expenses", ErrInvalidFormat)
	}
	return nil
}

// Encode writes s as indented JSON.
func Encode(s Snapshot) ([]byte, error) {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return append(b, '\n'), nil
}

// Decode parses and validates data. Every failure wraps ErrInvalidFormat.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if len(bytes.TrimSpace(data)) == 0 {
		return s, fmt.Errorf("%w: empty document", ErrInvalidFormat)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// Filename is the date-stamped download name for an export made at now.
func Filename(now time.Time) string {
	return "expense-tracker-backup-" + now.Format(time.DateOnly) + ".json"
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
