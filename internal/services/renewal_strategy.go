package services

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// RenewalStrategy computes the renewal date that follows the current one.
// anchorDay is the subscription's billing day; calendar-based strategies aim
// for it so a clamped month does not shift later renewals.
type RenewalStrategy interface {
	Next(current core.Date, anchorDay int) core.Date
}

type DailyRenewal struct{}

func (DailyRenewal) Next(current core.Date, _ int) core.Date {
	return current.AddDays(1)
}

type WeeklyRenewal struct{}

func (WeeklyRenewal) Next(current core.Date, _ int) core.Date {
	return current.AddDays(7)
}

// MonthlyRenewal moves to the anchor day next month, clamped to the last day
// when the next month is shorter.
type MonthlyRenewal struct{}

func (MonthlyRenewal) Next(current core.Date, anchorDay int) core.Date {
	return addMonthsClamped(current, 1, anchorDay)
}

// YearlyRenewal moves to the anchor day next year; Feb 29 becomes Feb 28.
type YearlyRenewal struct{}

func (YearlyRenewal) Next(current core.Date, anchorDay int) core.Date {
	return addMonthsClamped(current, 12, anchorDay)
}

func addMonthsClamped(d core.Date, n, anchorDay int) core.Date {
	first := time.Date(d.Year(), time.Month(d.Month())+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	lastDay := first.AddDate(0, 1, -1).Day()
	day := anchorDay
	if day < 1 {
		day = d.Day()
	}
	if day > lastDay {
		day = lastDay
	}
	return core.NewDate(first.Year(), int(first.Month()), day)
}

// renewalStrategies maps subscription frequencies to their strategy.
var renewalStrategies = map[core.Frequency]RenewalStrategy{
	core.Daily:   DailyRenewal{},
	core.Weekly:  WeeklyRenewal{},
	core.Monthly: MonthlyRenewal{},
	core.Yearly:  YearlyRenewal{},
}

// GetRenewalStrategy returns the strategy registered for a frequency.
func GetRenewalStrategy(frequency core.Frequency) (RenewalStrategy, error) {
	s, ok := renewalStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return s, nil
}

// RegisterRenewalStrategy adds or replaces the strategy for a frequency.
// It is not safe to call concurrently with GetRenewalStrategy.
func RegisterRenewalStrategy(frequency core.Frequency, s RenewalStrategy) {
	renewalStrategies[frequency] = s
}
