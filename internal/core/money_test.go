package core

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
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
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{".5", 50, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseBudgetCentsAcceptsZero(t *testing.T) {
	got, err := ParseBudgetCents("0")
	if err != nil || got != 0 {
		t.Fatalf("expected 0, got %d (err=%v)", got, err)
	}
	if _, err := ParseBudgetCents("-5"); err == nil {
		t.Fatalf("expected error for negative budget")
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Cents(1050)
	b := Cents(300)
	if got := a.Add(b); got.Cents != 1350 {
		t.Fatalf("add = %d", got.Cents)
	}
	if got := b.Sub(a); got.Cents != -750 {
		t.Fatalf("sub = %d", got.Cents)
	}
	if got := Cents(1000).DivRound(12); got.Cents != 83 {
		t.Fatalf("div = %d", got.Cents)
	}
	if got := Cents(1000).MulDivRound(52, 12); got.Cents != 4333 {
		t.Fatalf("muldiv = %d", got.Cents)
	}
}

func TestMoneyFromDecimalRoundsHalfAwayFromZero(t *testing.T) {
	cases := map[string]int64{
		"1.005":  101,
		"1.004":  100,
		"-1.005": -101,
		"149.5":  14950,
	}
	for in, want := range cases {
		got := MoneyFromDecimal(decimal.RequireFromString(in))
		if got.Cents != want {
			t.Fatalf("%s: got %d want %d", in, got.Cents, want)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{Cents(1234)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"amount":12.34}` {
		t.Fatalf("unexpected json %s", b)
	}

	var in struct {
		Amount Money `json:"amount"`
	}
	if err := json.Unmarshal([]byte(`{"amount":"7.5"}`), &in); err != nil {
		t.Fatalf("unmarshal quoted: %v", err)
	}
	if in.Amount.Cents != 750 {
		t.Fatalf("got %d", in.Amount.Cents)
	}
	if err := json.Unmarshal([]byte(`{"amount":"seven"}`), &in); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
}
