package analytics

import (
	"time"

	"fintrack/internal/core"
)

// MonthPoint is one bar of the income-versus-expense chart.
type MonthPoint struct {
	Label   string        `json:"label"`
	Month   core.MonthKey `json:"month"`
	Income  core.Money    `json:"income"`
	Expense core.Money    `json:"expense"`
}

// DayPoint is one bar of the daily expense chart.
type DayPoint struct {
	Day     int        `json:"day"`
	Date    core.Date  `json:"date"`
	Expense core.Money `json:"expense"`
}

const (
	seriesMonths = 12
	seriesDays   = 30
)

// Last12Months returns twelve points, oldest first, ending with the month
// containing now.
func Last12Months(txs []core.Transaction, now time.Time) []MonthPoint {
	current := core.MonthKeyFromTime(now)
	points := make([]MonthPoint, seriesMonths)
	index := make(map[core.MonthKey]int, seriesMonths)
	for i := range points {
		m := current.AddMonths(i - (seriesMonths - 1))
		points[i] = MonthPoint{Label: m.Label(), Month: m}
		index[m] = i
	}
	for _, tx := range txs {
		i, ok := index[tx.Month()]
		if !ok {
			continue
		}
		switch tx.Type {
		case core.Income:
			points[i].Income = points[i].Income.Add(tx.Amount)
		case core.Expense:
			points[i].Expense = points[i].Expense.Add(tx.Amount)
		}
	}
	return points
}

// Last30Days returns thirty points of summed expenses, oldest first, the last
// one being today. Income is ignored.
func Last30Days(txs []core.Transaction, now time.Time) []DayPoint {
	today := core.DateOf(now)
	points := make([]DayPoint, seriesDays)
	index := make(map[string]int, seriesDays)
	for i := range points {
		d := today.AddDays(i - (seriesDays - 1))
		points[i] = DayPoint{Day: d.Day(), Date: d}
		index[d.String()] = i
	}
	for _, tx := range txs {
		if tx.Type != core.Expense {
			continue
		}
		i, ok := index[tx.Date.String()]
		if !ok {
			continue
		}
		points[i].Expense = points[i].Expense.Add(tx.Amount)
	}
	return points
}
