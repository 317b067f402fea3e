// Package analytics computes the read-side views of a user's finances:
// period summaries, chart series, per-category spending and budget alerts.
//
// Every function here is pure. Inputs are never mutated and the current time
// is always passed in explicitly.
package analytics

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

// ParsePeriod accepts the four supported period names; empty means Monthly.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case Daily, Weekly, Monthly, Yearly:
		return p, nil
	case "":
		return Monthly, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

// Summary is the income/expense/balance triple for a window.
type Summary struct {
	Income   core.Money `json:"income"`
	Expenses core.Money `json:"expenses"`
	Balance  core.Money `json:"balance"`
}

// Window is an inclusive range of calendar days.
type Window struct {
	Start core.Date `json:"start"`
	End   core.Date `json:"end"`
}

func (w Window) Contains(d core.Date) bool {
	return d.Between(w.Start, w.End)
}

// WindowFor resolves the window of a period relative to now. A non-empty
// anchor selects that whole calendar month regardless of period and of now.
func WindowFor(period Period, anchor core.MonthKey, now time.Time) Window {
	if anchor != "" {
		return Window{Start: anchor.FirstDay(), End: anchor.LastDay()}
	}
	today := core.DateOf(now)
	switch period {
	case Daily:
		return Window{Start: today, End: today}
	case Weekly:
		return Window{Start: today.AddDays(-7), End: today}
	case Yearly:
		return Window{Start: core.NewDate(today.Year(), 1, 1), End: today}
	default:
		return Window{Start: core.NewDate(today.Year(), today.Month(), 1), End: today}
	}
}

// Summarize totals every transaction regardless of date.
func Summarize(txs []core.Transaction) Summary {
	var s Summary
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			s.Income = s.Income.Add(tx.Amount)
		case core.Expense:
			s.Expenses = s.Expenses.Add(tx.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expenses)
	return s
}

// Aggregate totals the transactions dated inside the window of period.
func Aggregate(txs []core.Transaction, period Period, anchor core.MonthKey, now time.Time) Summary {
	return AggregateWindow(txs, WindowFor(period, anchor, now))
}

func AggregateWindow(txs []core.Transaction, w Window) Summary {
	var s Summary
	for _, tx := range txs {
		if !w.Contains(tx.Date) {
			continue
		}
		switch tx.Type {
		case core.Income:
			s.Income = s.Income.Add(tx.Amount)
		case core.Expense:
			s.Expenses = s.Expenses.Add(tx.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expenses)
	return s
}
