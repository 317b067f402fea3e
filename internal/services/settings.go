package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fintrack/internal/core"
)

var themes = map[string]bool{"light": true, "dark": true, "system": true}

type SettingsPatch struct {
	Currency      *string             `json:"currency,omitempty"`
	Theme         *string             `json:"theme,omitempty"`
	Notifications *core.Notifications `json:"notifications,omitempty"`
	MonthlyIncome *core.Money         `json:"monthly_income,omitempty"`
	MonthlyBudget *core.Money         `json:"monthly_budget,omitempty"`
	DisplayName   *string             `json:"display_name,omitempty"`
}

// GetSettings returns the user's settings, creating the defaults on first read.
func (s *FinanceService) GetSettings(ctx context.Context, userID string) (core.UserSettings, error) {
	if err := requireUser(userID); err != nil {
		return core.UserSettings{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	return s.settings(ctx, userID)
}

func (s *FinanceService) settings(ctx context.Context, userID string) (core.UserSettings, error) {
	st, err := s.store.GetSettings(ctx, userID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.UserSettings{}, fmt.Errorf("get settings: %w", err)
	}
	st = core.DefaultSettings(userID, s.now())
	if err := s.store.PutSettings(ctx, st); err != nil {
		return core.UserSettings{}, fmt.Errorf("create default settings: %w", err)
	}
	return st, nil
}

func (s *FinanceService) UpdateSettings(ctx context.Context, userID string, p SettingsPatch) (core.UserSettings, error) {
	if err := requireUser(userID); err != nil {
		return core.UserSettings{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	st, err := s.settings(ctx, userID)
	if err != nil {
		return core.UserSettings{}, err
	}
	if p.Currency != nil {
		code := strings.ToUpper(strings.TrimSpace(*p.Currency))
		if !s.currencies.Supported(code) {
			return core.UserSettings{}, fmt.Errorf("%w: %q", core.ErrUnknownCurrency, *p.Currency)
		}
		st.Currency = code
	}
	if p.Theme != nil {
		if !themes[*p.Theme] {
			return core.UserSettings{}, fmt.Errorf("%w: %q", ErrInvalidTheme, *p.Theme)
		}
		st.Theme = *p.Theme
	}
	if p.Notifications != nil {
		st.Notifications = *p.Notifications
	}
	if p.MonthlyIncome != nil {
		if p.MonthlyIncome.Cents < 0 {
			return core.UserSettings{}, core.ErrInvalidAmount
		}
		st.MonthlyIncome = *p.MonthlyIncome
	}
	if p.MonthlyBudget != nil {
		if p.MonthlyBudget.Cents < 0 {
			return core.UserSettings{}, core.ErrInvalidAmount
		}
		st.MonthlyBudget = *p.MonthlyBudget
	}
	if p.DisplayName != nil {
		st.DisplayName = strings.TrimSpace(*p.DisplayName)
	}
	st.UpdatedAt = s.now()

	if err := s.store.PutSettings(ctx, st); err != nil {
		return core.UserSettings{}, fmt.Errorf("save settings: %w", err)
	}
	s.invalidate(userID)
	return st, nil
}
