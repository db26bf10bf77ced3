package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{".5", 50, true},
		{"1.005", 101, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"1e3", 0, false},
		{"0", 0, false},
		{"0.001", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"92233720368547758.07", 9223372036854775807, true},
		{"92233720368547758.08", 0, false},
		{"184467440737095517.16", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(Money{Cents: 1250})
	if err != nil || string(b) != "12.5" {
		t.Fatalf("marshal: got %s err=%v", b, err)
	}

	cases := map[string]int64{
		`50`:      5000,
		`12.5`:    1250,
		`"7.25"`:  725,
		`"7,25"`:  725,
		`19.999`:  2000,
		`0.004`:   0,
		`1234.56`: 123456,
	}
	for in, want := range cases {
		var m Money
		if err := json.Unmarshal([]byte(in), &m); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if m.Cents != want {
			t.Fatalf("%s: expected %d cents, got %d", in, want, m.Cents)
		}
	}

	var m Money
	if err := json.Unmarshal([]byte(`"abc"`), &m); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for non-numeric amount, got %v", err)
	}
}

func TestMoneyJSONOutOfRange(t *testing.T) {
	for _, in := range []string{
		`184467440737095517.16`,
		`"184467440737095517.16"`,
		`1e30`,
		`-92233720368547758.09`,
	} {
		var m Money
		if err := json.Unmarshal([]byte(in), &m); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%s: expected ErrInvalidAmount, got %v (cents=%d)", in, err, m.Cents)
		}
	}

	var m Money
	if err := json.Unmarshal([]byte(`92233720368547758.07`), &m); err != nil || m.Cents != 9223372036854775807 {
		t.Fatalf("largest amount: got %d err=%v", m.Cents, err)
	}
}

func TestMoneyFormat(t *testing.T) {
	if got := (Money{Cents: 123456}).Format("USD"); got != "$1,234.56" {
		t.Fatalf("USD format: got %q", got)
	}
	if got := (Money{Cents: 500}).Format(""); got != "$5.00" {
		t.Fatalf("default currency format: got %q", got)
	}
	if got := (Money{Cents: -2000}).Abs(); got.Cents != 2000 {
		t.Fatalf("abs: got %d", got.Cents)
	}
}
