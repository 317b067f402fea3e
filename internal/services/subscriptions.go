package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"fintrack/internal/core"
)

// UpcomingWindow is the default look-ahead for upcoming renewals, in days.
const UpcomingWindow = 7

type SubscriptionPatch struct {
	Name        *string                  `json:"name,omitempty"`
	Provider    *string                  `json:"provider,omitempty"`
	Amount      *core.Money              `json:"amount,omitempty"`
	Frequency   *core.Frequency          `json:"frequency,omitempty"`
	RenewalDate *core.Date               `json:"renewal_date,omitempty"`
	Status      *core.SubscriptionStatus `json:"status,omitempty"`
	CategoryID  *string                  `json:"category_id,omitempty"`
}

type UpcomingRenewal struct {
	core.Subscription
	DaysUntilRenewal int `json:"days_until_renewal"`
}

// SubscriptionOverview lists every subscription and totals the active ones
// as a monthly cost.
type SubscriptionOverview struct {
	Subscriptions []core.Subscription `json:"subscriptions"`
	Active        int                 `json:"active"`
	MonthlyTotal  core.Money          `json:"monthly_total"`
}

func (s *FinanceService) ListSubscriptions(ctx context.Context, userID string) (SubscriptionOverview, error) {
	if err := requireUser(userID); err != nil {
		return SubscriptionOverview{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	subs, err := s.store.ListSubscriptions(ctx, userID)
	if err != nil {
		return SubscriptionOverview{}, fmt.Errorf("list subscriptions: %w", err)
	}
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].RenewalDate.Before(subs[j].RenewalDate)
	})

	out := SubscriptionOverview{Subscriptions: subs}
	for _, sub := range subs {
		if sub.Status != core.SubscriptionActive {
			continue
		}
		out.Active++
		out.MonthlyTotal = out.MonthlyTotal.Add(sub.MonthlyCost())
	}
	return out, nil
}

// Upcoming returns active subscriptions renewing within the next days,
// soonest first. Overdue renewals are left to the renewal processor.
func (s *FinanceService) Upcoming(ctx context.Context, userID string, days int) ([]UpcomingRenewal, error) {
	if days <= 0 {
		days = UpcomingWindow
	}
	overview, err := s.ListSubscriptions(ctx, userID)
	if err != nil {
		return nil, err
	}
	today := core.DateOf(s.now())
	out := make([]UpcomingRenewal, 0)
	for _, sub := range overview.Subscriptions {
		if sub.Status != core.SubscriptionActive {
			continue
		}
		d := sub.DaysUntilRenewal(today)
		if d < 0 || d > days {
			continue
		}
		out = append(out, UpcomingRenewal{Subscription: sub, DaysUntilRenewal: d})
	}
	return out, nil
}

func (s *FinanceService) AddSubscription(ctx context.Context, userID string, sub core.Subscription) (core.Subscription, error) {
	if err := requireUser(userID); err != nil {
		return core.Subscription{}, err
	}
	now := s.now()
	sub.ID = ""
	sub.UserID = userID
	sub.Name = strings.TrimSpace(sub.Name)
	sub.Provider = strings.TrimSpace(sub.Provider)
	sub.LastBooked = core.Date{}
	sub.BillingDay = sub.RenewalDate.Day()
	if sub.Status == "" {
		sub.Status = core.SubscriptionActive
	}
	sub.CreatedAt, sub.UpdatedAt = now, now
	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.checkCategory(ctx, userID, sub.CategoryID); err != nil {
		return core.Subscription{}, err
	}
	saved, err := s.store.AddSubscription(ctx, sub)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("save subscription: %w", err)
	}
	return saved, nil
}

func (s *FinanceService) UpdateSubscription(ctx context.Context, userID, id string, p SubscriptionPatch) (core.Subscription, error) {
	if err := requireUser(userID); err != nil {
		return core.Subscription{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	sub, err := s.store.GetSubscription(ctx, userID, id)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("get subscription %s: %w", id, err)
	}
	if p.Name != nil {
		sub.Name = strings.TrimSpace(*p.Name)
	}
	if p.Provider != nil {
		sub.Provider = strings.TrimSpace(*p.Provider)
	}
	if p.Amount != nil {
		sub.Amount = *p.Amount
	}
	if p.Frequency != nil {
		sub.Frequency = *p.Frequency
	}
	if p.RenewalDate != nil {
		sub.RenewalDate = *p.RenewalDate
		sub.BillingDay = sub.RenewalDate.Day()
	}
	if p.Status != nil {
		sub.Status = *p.Status
	}
	if p.CategoryID != nil {
		sub.CategoryID = *p.CategoryID
		if err := s.checkCategory(ctx, userID, sub.CategoryID); err != nil {
			return core.Subscription{}, err
		}
	}
	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}
	sub.UpdatedAt = s.now()
	if err := s.store.UpdateSubscription(ctx, sub); err != nil {
		return core.Subscription{}, fmt.Errorf("update subscription %s: %w", id, err)
	}
	return sub, nil
}

func (s *FinanceService) DeleteSubscription(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.store.DeleteSubscription(ctx, userID, id); err != nil {
		return fmt.Errorf("delete subscription %s: %w", id, err)
	}
	return nil
}

func (s *FinanceService) checkCategory(ctx context.Context, userID, categoryID string) error {
	if categoryID == "" {
		return nil
	}
	if _, err := s.store.GetCategory(ctx, userID, categoryID); err != nil {
		return fmt.Errorf("category %s: %w", categoryID, err)
	}
	return nil
}
