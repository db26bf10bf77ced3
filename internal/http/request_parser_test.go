package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"gastos/internal/core"
)

func TestParsePeriod(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		query   url.Values
		want    core.Period
		wantErr error
	}{
		{"defaults to now", url.Values{}, core.Period{Year: 2024, Month: 2}, nil},
		{"explicit", url.Values{"year": {"2023"}, "month": {"11"}}, core.Period{Year: 2023, Month: 11}, nil},
		{"january is zero", url.Values{"month": {"0"}}, core.Period{Year: 2024, Month: 0}, nil},
		{"blank ignored", url.Values{"year": {" "}, "month": {""}}, core.Period{Year: 2024, Month: 2}, nil},
		{"non-numeric year", url.Values{"year": {"abc"}}, core.Period{}, errBadRequest},
		{"non-numeric month", url.Values{"month": {"x"}}, core.Period{}, errBadRequest},
		{"month out of range", url.Values{"month": {"12"}}, core.Period{}, core.ErrInvalidMonth},
		{"negative month", url.Values{"month": {"-1"}}, core.Period{}, core.ErrInvalidMonth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePeriod(tt.query, now)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParsePeriod() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	loc := time.FixedZone("CET", 3600)

	d, err := ParseDate("2024-03-05", loc)
	if err != nil {
		t.Fatalf("parse day: %v", err)
	}
	if !d.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, loc)) {
		t.Errorf("day parsed as %v", d)
	}

	d, err = ParseDate("2024-03-05T10:30:00Z", loc)
	if err != nil {
		t.Fatalf("parse rfc3339: %v", err)
	}
	if !d.Equal(time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)) {
		t.Errorf("timestamp parsed as %v", d)
	}

	if d, err := ParseDate("  ", loc); err != nil || !d.IsZero() {
		t.Errorf("blank should give zero time, got %v err=%v", d, err)
	}
	if _, err := ParseDate("05/03/2024", loc); !errors.Is(err, errBadRequest) {
		t.Errorf("expected bad request, got %v", err)
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		raw string
		ok  bool
	}{
		{"1", true},
		{"42", true},
		{"0", false},
		{"-3", false},
		{"abc", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetPathValue("id", tt.raw)
		_, err := ParseID(req)
		if (err == nil) != tt.ok {
			t.Errorf("ParseID(%q) err=%v, want ok=%v", tt.raw, err, tt.ok)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}
	decode := func(raw string) error {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(raw))
		var b body
		return DecodeJSON(httptest.NewRecorder(), req, &b)
	}

	if err := decode(`{"name":"ok"}`); err != nil {
		t.Fatalf("valid body: %v", err)
	}
	for _, raw := range []string{``, `{`, `{"name":"a","extra":1}`, `{"name":"a"}{"name":"b"}`} {
		if err := decode(raw); !errors.Is(err, errBadRequest) {
			t.Errorf("decode(%q) = %v, want bad request", raw, err)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	var b body
	if err := DecodeOptionalJSON(httptest.NewRecorder(), req, &b); err != nil {
		t.Errorf("optional body should accept no body: %v", err)
	}
}

func TestExpensePatchRequest(t *testing.T) {
	title := "  Lunch\x00 "
	date := "2024-03-01"
	p, err := expensePatchRequest{Title: &title, Date: &date}.patch(time.UTC)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if *p.Title != "Lunch" {
		t.Errorf("title not sanitized: %q", *p.Title)
	}
	if p.Date == nil || p.Date.Day() != 1 {
		t.Errorf("unexpected date: %v", p.Date)
	}
	if p.Amount != nil || p.CategoryID != nil {
		t.Errorf("unset fields must stay nil: %+v", p)
	}

	blank := ""
	if _, err := (expensePatchRequest{Date: &blank}).patch(time.UTC); !errors.Is(err, core.ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate for blank date, got %v", err)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput(" a\x01b\tc\n "); got != "ab\tc" {
		t.Errorf("sanitizeInput() = %q", got)
	}
}
