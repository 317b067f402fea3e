package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseMonthKey(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2025-11", true},
		{"2025-01", true},
		{"2025-13", false},
		{"2025-1", false},
		{"25-11", false},
		{"", false},
		{"2025-11-01", false},
	}
	for _, tc := range cases {
		_, err := ParseMonthKey(tc.in)
		if tc.ok != (err == nil) {
			t.Fatalf("%q ok=%v err=%v", tc.in, tc.ok, err)
		}
	}
}

func TestMonthKeyBounds(t *testing.T) {
	cases := []struct {
		key         MonthKey
		first, last Date
	}{
		{"2025-11", NewDate(2025, 11, 1), NewDate(2025, 11, 30)},
		{"2024-02", NewDate(2024, 2, 1), NewDate(2024, 2, 29)},
		{"2025-02", NewDate(2025, 2, 1), NewDate(2025, 2, 28)},
		{"2025-12", NewDate(2025, 12, 1), NewDate(2025, 12, 31)},
	}
	for _, tc := range cases {
		if !tc.key.FirstDay().Equal(tc.first.Time) {
			t.Fatalf("%s first = %s", tc.key, tc.key.FirstDay())
		}
		if !tc.key.LastDay().Equal(tc.last.Time) {
			t.Fatalf("%s last = %s", tc.key, tc.key.LastDay())
		}
	}
}

func TestMonthKeyArithmeticAcrossYears(t *testing.T) {
	if got := MonthKey("2025-01").Previous(); got != "2024-12" {
		t.Fatalf("previous = %s", got)
	}
	if got := MonthKey("2024-12").Next(); got != "2025-01" {
		t.Fatalf("next = %s", got)
	}
	if got := MonthKey("2025-03").AddMonths(-11); got != "2024-04" {
		t.Fatalf("add -11 = %s", got)
	}
	if got := MonthKey("2025-03").Label(); got != "Mar" {
		t.Fatalf("label = %s", got)
	}
}

func TestMonthKeyOf(t *testing.T) {
	if got := MonthKeyOf(NewDate(2025, 3, 10)); got != "2025-03" {
		t.Fatalf("got %s", got)
	}
	loc := time.FixedZone("UTC+10", 10*3600)
	// 2025-03-31T20:00Z is already April 1st ten hours east.
	ts := time.Date(2025, 3, 31, 20, 0, 0, 0, time.UTC).In(loc)
	if got := MonthKeyFromTime(ts); got != "2025-04" {
		t.Fatalf("got %s", got)
	}
}

func TestDateJSONAndBetween(t *testing.T) {
	d := NewDate(2025, 11, 5)
	b, _ := json.Marshal(d)
	if string(b) != `"2025-11-05"` {
		t.Fatalf("json = %s", b)
	}
	var back Date
	if err := json.Unmarshal(b, &back); err != nil || !back.Equal(d.Time) {
		t.Fatalf("unmarshal: %v %s", err, back)
	}
	if err := json.Unmarshal([]byte(`"05/11/2025"`), &back); err == nil {
		t.Fatalf("expected error for bad layout")
	}

	start, end := NewDate(2025, 11, 1), NewDate(2025, 11, 30)
	for _, in := range []Date{start, end, d} {
		if !in.Between(start, end) {
			t.Fatalf("%s should be within window", in)
		}
	}
	if NewDate(2025, 12, 1).Between(start, end) {
		t.Fatalf("december is outside november")
	}
	if got := DaysBetween(start, end); got != 29 {
		t.Fatalf("days between = %d", got)
	}
}
