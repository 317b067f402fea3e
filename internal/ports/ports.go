// Package ports declares the outbound interfaces the services depend on.
// Every store method is scoped by user id; a record owned by another user is
// reported as core.ErrNotFound.
package ports

import (
	"context"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
)

type (
	TransactionStore interface {
		ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
		// AddTransaction assigns an id when tx.ID is empty and returns the stored record.
		AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, tx core.Transaction) error
		DeleteTransaction(ctx context.Context, userID, id string) error
	}

	CategoryStore interface {
		ListCategories(ctx context.Context, userID string) ([]core.Category, error)
		GetCategory(ctx context.Context, userID, id string) (core.Category, error)
		AddCategory(ctx context.Context, c core.Category) (core.Category, error)
		// UpdateCategory replaces name, icon and color. Budgets are only changed
		// through SetCategoryBudget.
		UpdateCategory(ctx context.Context, c core.Category) error
		// SetCategoryBudget merges a single month into the budget map, leaving
		// every other month untouched.
		SetCategoryBudget(ctx context.Context, userID, id string, month core.MonthKey, amount core.Money, at time.Time) error
		DeleteCategory(ctx context.Context, userID, id string) error
	}

	SettingsStore interface {
		// GetSettings returns core.ErrNotFound when the user has none yet.
		GetSettings(ctx context.Context, userID string) (core.UserSettings, error)
		PutSettings(ctx context.Context, s core.UserSettings) error
	}

	ShareStore interface {
		AddShare(ctx context.Context, s core.Share) (core.Share, error)
		GetShare(ctx context.Context, ownerID, id string) (core.Share, error)
		ListShares(ctx context.Context, ownerID string) ([]core.Share, error)
		RevokeShare(ctx context.Context, ownerID, id string, at time.Time) error
	}

	SubscriptionStore interface {
		ListSubscriptions(ctx context.Context, userID string) ([]core.Subscription, error)
		// ListDueSubscriptions returns active subscriptions of every user whose
		// renewal date is on or before the given day.
		ListDueSubscriptions(ctx context.Context, onOrBefore core.Date) ([]core.Subscription, error)
		GetSubscription(ctx context.Context, userID, id string) (core.Subscription, error)
		AddSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error)
		UpdateSubscription(ctx context.Context, s core.Subscription) error
		DeleteSubscription(ctx context.Context, userID, id string) error
	}

	// Store is the full document store a backend provides.
	Store interface {
		TransactionStore
		CategoryStore
		SettingsStore
		ShareStore
		SubscriptionStore
		Ping(ctx context.Context) error
	}

	// EventPublisher announces transaction writes to downstream consumers.
	EventPublisher interface {
		PublishTransactionEvent(ctx context.Context, evt core.TransactionEvent) error
	}

	// ReportWriter exports a month's dashboard for a user to an external sink.
	ReportWriter interface {
		WriteMonthlyReport(ctx context.Context, userID string, d analytics.Dashboard) (ref string, err error)
	}
)
