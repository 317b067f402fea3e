package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// maxCatchUp bounds how many missed renewals one run books per subscription.
const maxCatchUp = 400

// RenewalProcessor books subscription renewals as expense transactions.
type RenewalProcessor struct {
	subscriptions ports.SubscriptionStore
	finance       *FinanceService
}

func NewRenewalProcessor(subscriptions ports.SubscriptionStore, finance *FinanceService) *RenewalProcessor {
	return &RenewalProcessor{
		subscriptions: subscriptions,
		finance:       finance,
	}
}

// ProcessDue books every active subscription whose renewal date is on or
// before now's date, one expense per missed renewal, and advances each
// renewal date. A renewal already claimed in LastBooked is not booked again.
// It returns the number of transactions booked.
func (p *RenewalProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.subscriptions == nil || p.finance == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}
	today := core.DateOf(now)

	due, err := p.subscriptions.ListDueSubscriptions(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("failed to list due subscriptions: %w", err)
	}

	slog.InfoContext(ctx, "Processing subscription renewals",
		"due", len(due),
		"processing_date", today.String())

	booked := 0
	var errs []error
	for _, sub := range due {
		n, err := p.processOne(ctx, sub, today, now)
		booked += n
		if err != nil {
			slog.ErrorContext(ctx, "Failed to process subscription renewal",
				"subscription_id", sub.ID,
				"user_id", sub.UserID,
				"error", err)
			errs = append(errs, err)
		}
	}

	slog.InfoContext(ctx, "Completed subscription renewals",
		"booked", booked,
		"failed", len(errs))
	return booked, errors.Join(errs...)
}

func (p *RenewalProcessor) processOne(ctx context.Context, sub core.Subscription, today core.Date, now time.Time) (int, error) {
	strategy, err := GetRenewalStrategy(sub.Frequency)
	if err != nil {
		return 0, fmt.Errorf("subscription %s: %w", sub.ID, err)
	}

	booked := 0
	for i := 0; !sub.RenewalDate.After(today) && i < maxCatchUp; i++ {
		if !sub.LastBooked.Equal(sub.RenewalDate.Time) {
			if err := p.claimAndBook(ctx, &sub, now); err != nil {
				return booked, err
			}
			booked++
		}
		sub.RenewalDate = strategy.Next(sub.RenewalDate, sub.AnchorDay())
		sub.UpdatedAt = now
		if err := p.subscriptions.UpdateSubscription(ctx, sub); err != nil {
			return booked, fmt.Errorf("advance subscription %s: %w", sub.ID, err)
		}
	}

	slog.InfoContext(ctx, "Subscription renewed",
		"subscription_id", sub.ID,
		"user_id", sub.UserID,
		"booked", booked,
		"next_renewal", sub.RenewalDate.String())
	return booked, nil
}

// claimAndBook persists the renewal date as LastBooked before booking it, so
// a failure to advance afterwards never books the same renewal twice. The
// claim is released when booking fails.
func (p *RenewalProcessor) claimAndBook(ctx context.Context, sub *core.Subscription, now time.Time) error {
	prev := sub.LastBooked
	sub.LastBooked = sub.RenewalDate
	sub.UpdatedAt = now
	if err := p.subscriptions.UpdateSubscription(ctx, *sub); err != nil {
		sub.LastBooked = prev
		return fmt.Errorf("claim subscription %s for %s: %w", sub.ID, sub.RenewalDate, err)
	}

	if err := p.book(ctx, *sub); err != nil {
		sub.LastBooked = prev
		if rerr := p.subscriptions.UpdateSubscription(ctx, *sub); rerr != nil {
			slog.ErrorContext(ctx, "Failed to release subscription claim",
				"subscription_id", sub.ID,
				"renewal_date", sub.RenewalDate.String(),
				"error", rerr)
		}
		return fmt.Errorf("book subscription %s for %s: %w", sub.ID, sub.RenewalDate, err)
	}
	return nil
}

// book records the renewal as an expense. A category that no longer exists is
// dropped rather than blocking the booking.
func (p *RenewalProcessor) book(ctx context.Context, sub core.Subscription) error {
	tx := core.Transaction{
		Type:        core.Expense,
		Amount:      sub.Amount,
		Description: sub.Name,
		CategoryID:  sub.CategoryID,
		Date:        sub.RenewalDate,
	}
	_, err := p.finance.AddTransaction(ctx, sub.UserID, tx)
	if err != nil && tx.CategoryID != "" && errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Subscription category missing, booking without category",
			"subscription_id", sub.ID,
			"category_id", tx.CategoryID)
		tx.CategoryID = ""
		_, err = p.finance.AddTransaction(ctx, sub.UserID, tx)
	}
	return err
}
