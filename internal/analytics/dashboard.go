package analytics

import (
	"sort"
	"time"

	"fintrack/internal/core"
)

const recentLimit = 10

// DashboardInput is everything BuildDashboard needs; it performs no I/O.
type DashboardInput struct {
	Transactions []core.Transaction
	Categories   []core.Category
	Currency     string
	Period       Period
	Anchor       core.MonthKey
	Now          time.Time
}

// CategoryView is a category with its figures for a single month.
type CategoryView struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Icon         string     `json:"icon"`
	Color        string     `json:"color,omitempty"`
	Budget       core.Money `json:"budget"`
	Spent        core.Money `json:"spent"`
	Transactions int        `json:"transactions"`
	Remaining    core.Money `json:"remaining"`
	Percentage   float64    `json:"percentage"`
	Status       Status     `json:"status"`
}

// Dashboard is an immutable snapshot recomputed on every request.
type Dashboard struct {
	Period       Period             `json:"period"`
	Month        core.MonthKey      `json:"month"`
	Window       Window             `json:"window"`
	Currency     string             `json:"currency"`
	Summary      Summary            `json:"summary"`
	Alerts       []Alert            `json:"alerts"`
	AlertCounts  AlertCounts        `json:"alert_counts"`
	Last12Months []MonthPoint       `json:"last_12_months"`
	Last30Days   []DayPoint         `json:"last_30_days"`
	Categories   []CategoryView     `json:"categories"`
	Recent       []core.Transaction `json:"recent"`
	GeneratedAt  time.Time          `json:"generated_at"`
}

// BuildDashboard derives the full dashboard view. Category figures and alerts
// are for the anchor month when one is given, otherwise for the month
// containing Now.
func BuildDashboard(in DashboardInput) Dashboard {
	month := in.Anchor
	if month == "" {
		month = core.MonthKeyFromTime(in.Now)
	}
	window := WindowFor(in.Period, in.Anchor, in.Now)
	alerts := Evaluate(EntriesForMonth(in.Categories, in.Transactions, month))

	return Dashboard{
		Period:       in.Period,
		Month:        month,
		Window:       window,
		Currency:     in.Currency,
		Summary:      AggregateWindow(in.Transactions, window),
		Alerts:       alerts,
		AlertCounts:  CountAlerts(alerts),
		Last12Months: Last12Months(in.Transactions, in.Now),
		Last30Days:   Last30Days(in.Transactions, in.Now),
		Categories:   CategoryViews(Rollup(in.Transactions, in.Categories), month),
		Recent:       Recent(in.Transactions, recentLimit),
		GeneratedAt:  in.Now,
	}
}

// CategoryViews projects rolled-up categories onto a single month.
func CategoryViews(categories []core.Category, month core.MonthKey) []CategoryView {
	views := make([]CategoryView, 0, len(categories))
	for _, c := range categories {
		budget := c.BudgetFor(month)
		spending := c.SpendingFor(month)
		remaining := budget.Sub(spending.Spent)
		if remaining.Cents < 0 {
			remaining = core.Money{}
		}
		views = append(views, CategoryView{
			ID:           c.ID,
			Name:         c.Name,
			Icon:         c.Icon,
			Color:        c.Color,
			Budget:       budget,
			Spent:        spending.Spent,
			Transactions: spending.Transactions,
			Remaining:    remaining,
			Percentage:   Percentage(spending.Spent, budget),
			Status:       Classify(spending.Spent, budget),
		})
	}
	return views
}

// Recent returns up to limit transactions, newest date first. Ties are broken
// by creation time, newest first.
func Recent(txs []core.Transaction, limit int) []core.Transaction {
	out := append([]core.Transaction(nil), txs...)
	SortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SortNewestFirst orders txs in place by date then creation time, descending.
func SortNewestFirst(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date.Time) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
}
