package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityOK       Severity = "ok"
)

// Status is the per-category budget state shown next to every category,
// including the states that never raise an alert.
type Status string

const (
	StatusUnset   Status = "unset"
	StatusGood    Status = "good"
	StatusWarning Status = "warning"
	StatusOver    Status = "over"
)

// BudgetEntry is one category's budget and spending for a month. Zero values
// stand in for anything missing.
type BudgetEntry struct {
	CategoryID string     `json:"category_id"`
	Name       string     `json:"name"`
	Icon       string     `json:"icon"`
	Budget     core.Money `json:"budget"`
	Spent      core.Money `json:"spent"`
}

type Alert struct {
	CategoryID string     `json:"category_id"`
	Name       string     `json:"name"`
	Icon       string     `json:"icon"`
	Spent      core.Money `json:"spent"`
	Budget     core.Money `json:"budget"`
	Percentage float64    `json:"percentage"`
	Remaining  core.Money `json:"remaining"`
	Severity   Severity   `json:"severity"`
}

// severityOf compares in cents: spent >= budget is critical and
// 4*spent >= 3*budget is warning.
func severityOf(spent, budget core.Money) Severity {
	switch {
	case spent.Cents >= budget.Cents:
		return SeverityCritical
	case 4*spent.Cents >= 3*budget.Cents:
		return SeverityWarning
	default:
		return SeverityOK
	}
}

// Classify returns the budget status of a category.
func Classify(spent, budget core.Money) Status {
	if budget.Cents <= 0 {
		return StatusUnset
	}
	switch severityOf(spent, budget) {
	case SeverityCritical:
		return StatusOver
	case SeverityWarning:
		return StatusWarning
	default:
		return StatusGood
	}
}

// Percentage returns spent as a percentage of budget rounded to two places,
// or 0 when there is no budget.
func Percentage(spent, budget core.Money) float64 {
	if budget.Cents <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(spent.Cents).Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(budget.Cents), 2)
	f, _ := pct.Float64()
	return f
}

// Evaluate turns budget entries into alerts. Entries without a positive
// budget and entries under 75% are dropped. Critical alerts come first; the
// relative order of entries with the same severity is preserved.
func Evaluate(entries []BudgetEntry) []Alert {
	alerts := make([]Alert, 0, len(entries))
	for _, e := range entries {
		if e.Budget.Cents <= 0 {
			continue
		}
		sev := severityOf(e.Spent, e.Budget)
		if sev == SeverityOK {
			continue
		}
		remaining := e.Budget.Sub(e.Spent)
		if remaining.Cents < 0 {
			remaining = core.Money{}
		}
		alerts = append(alerts, Alert{
			CategoryID: e.CategoryID,
			Name:       e.Name,
			Icon:       e.Icon,
			Spent:      e.Spent,
			Budget:     e.Budget,
			Percentage: Percentage(e.Spent, e.Budget),
			Remaining:  remaining,
			Severity:   sev,
		})
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Severity == SeverityCritical && alerts[j].Severity != SeverityCritical
	})
	return alerts
}

// EntriesForMonth builds one entry per category with the month's budget and
// the expenses attributed to it in that month.
func EntriesForMonth(categories []core.Category, txs []core.Transaction, month core.MonthKey) []BudgetEntry {
	spent := make(map[string]core.Money, len(categories))
	for _, tx := range txs {
		if tx.Type != core.Expense || tx.CategoryID == "" || tx.Month() != month {
			continue
		}
		spent[tx.CategoryID] = spent[tx.CategoryID].Add(tx.Amount)
	}
	entries := make([]BudgetEntry, 0, len(categories))
	for _, c := range categories {
		entries = append(entries, BudgetEntry{
			CategoryID: c.ID,
			Name:       c.Name,
			Icon:       c.Icon,
			Budget:     c.BudgetFor(month),
			Spent:      spent[c.ID],
		})
	}
	return entries
}

// AlertCounts tallies alerts by severity.
type AlertCounts struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
}

func CountAlerts(alerts []Alert) AlertCounts {
	var c AlertCounts
	for _, a := range alerts {
		switch a.Severity {
		case SeverityCritical:
			c.Critical++
		case SeverityWarning:
			c.Warning++
		}
	}
	return c
}
