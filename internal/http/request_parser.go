// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request
// data: path ids, period query parameters, dates and JSON bodies.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gastos/internal/core"
)

const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 32 << 20
)

var (
	// errBadRequest marks malformed input: bad JSON, bad ids, bad dates.
	errBadRequest = errors.New("bad request")
	errEmptyBody  = fmt.Errorf("%w: empty body", errBadRequest)
)

// ParsePeriod reads year and month (0-11) from the query, defaulting to the
// period containing now. A non-numeric value is a bad request; a month
// outside 0-11 is core.ErrInvalidMonth.
func ParsePeriod(query url.Values, now time.Time) (core.Period, error) {
	p := core.PeriodOf(now)

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return core.Period{}, fmt.Errorf("%w: year %q is not a number", errBadRequest, v)
		}
		p.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return core.Period{}, fmt.Errorf("%w: month %q is not a number", errBadRequest, v)
		}
		p.Month = m
	}

	if err := p.Validate(); err != nil {
		return core.Period{}, err
	}
	return p, nil
}

// hasPeriod reports whether the query selects a period explicitly.
func hasPeriod(query url.Values) bool {
	return query.Has("year") || query.Has("month")
}

// ParseID reads the positive {id} path value.
func ParseID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, raw)
	}
	return id, nil
}

// ParseDate accepts YYYY-MM-DD, read as midnight in loc, or RFC 3339.
// An empty string gives the zero time.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q is neither YYYY-MM-DD nor RFC 3339", errBadRequest, s)
	}
	return t, nil
}

// DecodeJSON reads one JSON value from the body into dst. Unknown fields are
// rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		if core.IsValidation(err) {
			return err
		}
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON body", errBadRequest)
	}
	return nil
}

// DecodeOptionalJSON is DecodeJSON for endpoints whose body may be omitted.
func DecodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := DecodeJSON(w, r, dst); err != nil && !errors.Is(err, errEmptyBody) {
		return err
	}
	return nil
}

// ReadImportBody reads a snapshot upload, up to maxImportBytes.
func ReadImportBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", errBadRequest, err)
	}
	return data, nil
}

type categoryRequest struct {
	Name  string            `json:"name"`
	Type  core.CategoryType `json:"type"`
	Color string            `json:"color"`
}

func (c categoryRequest) category() core.Category {
	return core.Category{
		Name:  sanitizeInput(c.Name),
		Type:  core.CategoryType(sanitizeInput(string(c.Type))),
		Color: sanitizeInput(c.Color),
	}
}

type expenseRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	CategoryID  int64      `json:"categoryId"`
	Date        string     `json:"date"`
}

func (e expenseRequest) expense(loc *time.Location) (core.Expense, error) {
	date, err := ParseDate(e.Date, loc)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		Title:       sanitizeInput(e.Title),
		Description: sanitizeInput(e.Description),
		Amount:      e.Amount,
		CategoryID:  e.CategoryID,
		Date:        date,
	}, nil
}

type expensePatchRequest struct {
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	Amount      *core.Money `json:"amount"`
	CategoryID  *int64      `json:"categoryId"`
	Date        *string     `json:"date"`
}

func (p expensePatchRequest) patch(loc *time.Location) (core.ExpensePatch, error) {
	sanitizePtr(p.Title)
	sanitizePtr(p.Description)
	out := core.ExpensePatch{
		Title:       p.Title,
		Description: p.Description,
		Amount:      p.Amount,
		CategoryID:  p.CategoryID,
	}
	if p.Date != nil {
		d, err := ParseDate(*p.Date, loc)
		if err != nil {
			return core.ExpensePatch{}, err
		}
		if d.IsZero() {
			return core.ExpensePatch{}, core.ErrInvalidDate
		}
		out.Date = &d
	}
	return out, nil
}

type repeatRequest struct {
	Date string `json:"date"`
}

type budgetRequest struct {
	Year        int        `json:"year"`
	Month       *int       `json:"month"`
	TotalBudget core.Money `json:"totalBudget"`
}

type themeBody struct {
	Theme string `json:"theme"`
}
