package services

import (
	"testing"

	"fintrack/internal/core"
)

func TestRenewalStrategy_Next(t *testing.T) {
	tests := []struct {
		name      string
		frequency core.Frequency
		current   core.Date
		anchor    int
		want      string
	}{
		{"daily - next day", core.Daily, core.NewDate(2024, 1, 31), 31, "2024-02-01"},
		{"daily - year rollover", core.Daily, core.NewDate(2024, 12, 31), 31, "2025-01-01"},
		{"weekly - seven days", core.Weekly, core.NewDate(2024, 2, 26), 26, "2024-03-04"},
		{"monthly - same day", core.Monthly, core.NewDate(2024, 3, 15), 15, "2024-04-15"},
		{"monthly - clamps to leap february", core.Monthly, core.NewDate(2024, 1, 31), 31, "2024-02-29"},
		{"monthly - clamps to february", core.Monthly, core.NewDate(2025, 1, 31), 31, "2025-02-28"},
		{"monthly - clamps to 30-day month", core.Monthly, core.NewDate(2025, 3, 31), 31, "2025-04-30"},
		{"monthly - december to january", core.Monthly, core.NewDate(2025, 12, 10), 10, "2026-01-10"},
		{"yearly - same day", core.Yearly, core.NewDate(2024, 6, 1), 1, "2025-06-01"},
		{"yearly - leap day clamps", core.Yearly, core.NewDate(2024, 2, 29), 29, "2025-02-28"},
		{"yearly - leap day returns", core.Yearly, core.NewDate(2027, 2, 28), 29, "2028-02-29"},
		{"monthly - anchor restored after february", core.Monthly, core.NewDate(2025, 2, 28), 31, "2025-03-31"},
		{"monthly - anchor 30 after february", core.Monthly, core.NewDate(2025, 2, 28), 30, "2025-03-30"},
		{"monthly - missing anchor uses current day", core.Monthly, core.NewDate(2025, 2, 28), 0, "2025-03-28"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := GetRenewalStrategy(tt.frequency)
			if err != nil {
				t.Fatalf("GetRenewalStrategy(%s) error: %v", tt.frequency, err)
			}
			if got := s.Next(tt.current, tt.anchor).String(); got != tt.want {
				t.Errorf("Next(%s) = %s, want %s", tt.current, got, tt.want)
			}
		})
	}
}

func TestGetRenewalStrategy_Unknown(t *testing.T) {
	if _, err := GetRenewalStrategy("fortnightly"); err == nil {
		t.Error("expected error for unknown frequency")
	}
}

type fortnightly struct{}

func (fortnightly) Next(d core.Date, _ int) core.Date { return d.AddDays(14) }

func TestRegisterRenewalStrategy(t *testing.T) {
	const freq core.Frequency = "fortnightly"
	RegisterRenewalStrategy(freq, fortnightly{})
	t.Cleanup(func() { delete(renewalStrategies, freq) })

	s, err := GetRenewalStrategy(freq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Next(core.NewDate(2025, 1, 1), 1).String(); got != "2025-01-15" {
		t.Errorf("Next = %s", got)
	}
}
