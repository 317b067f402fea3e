package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/storage/memory"
)

func TestRenewalProcessor_BooksMissedRenewals(t *testing.T) {
	ctx := context.Background()
	svc, store, pub := newTestService(t)
	seedCategory(t, store, "c1", "u1", "Media", nil)

	sub := subscription("Music", 999, core.Monthly, core.NewDate(2025, 1, 31))
	sub.CategoryID = "c1"
	sub, err := svc.AddSubscription(ctx, "u1", sub)
	require.NoError(t, err)

	p := NewRenewalProcessor(store, svc)
	booked, err := p.ProcessDue(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, booked)

	txs, err := svc.ListTransactions(ctx, "u1", TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "2025-02-28", txs[0].Date.String())
	assert.Equal(t, "2025-01-31", txs[1].Date.String())
	assert.Equal(t, core.Expense, txs[0].Type)
	assert.Equal(t, "Music", txs[0].Description)
	assert.Equal(t, "Media", txs[0].CategoryName)
	assert.Len(t, pub.events, 2)

	got, err := store.GetSubscription(ctx, "u1", sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-31", got.RenewalDate.String())
	assert.Equal(t, 31, got.BillingDay)
	assert.Equal(t, "2025-02-28", got.LastBooked.String())

	again, err := p.ProcessDue(ctx, testNow)
	require.NoError(t, err)
	assert.Zero(t, again)
}

type failingAdvanceStore struct {
	*memory.Store
	failOn core.Date
	failed bool
}

// UpdateSubscription fails once, on the first write that moves the renewal
// date past failOn.
func (s *failingAdvanceStore) UpdateSubscription(ctx context.Context, sub core.Subscription) error {
	if !s.failed && sub.RenewalDate.After(s.failOn) {
		s.failed = true
		return errors.New("disk full")
	}
	return s.Store.UpdateSubscription(ctx, sub)
}

func TestRenewalProcessor_FailedAdvanceDoesNotDoubleBook(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	sub, err := svc.AddSubscription(ctx, "u1", subscription("Video", 1500, core.Weekly, core.NewDate(2025, 3, 18)))
	require.NoError(t, err)

	flaky := &failingAdvanceStore{Store: store, failOn: core.NewDate(2025, 3, 18)}
	p := NewRenewalProcessor(flaky, svc)

	booked, err := p.ProcessDue(ctx, testNow)
	require.Error(t, err)
	assert.Equal(t, 1, booked)

	got, err := store.GetSubscription(ctx, "u1", sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-18", got.RenewalDate.String())
	assert.Equal(t, "2025-03-18", got.LastBooked.String())

	booked, err = p.ProcessDue(ctx, testNow)
	require.NoError(t, err)
	assert.Zero(t, booked)

	txs, err := svc.ListTransactions(ctx, "u1", TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "2025-03-18", txs[0].Date.String())

	got, err = store.GetSubscription(ctx, "u1", sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-25", got.RenewalDate.String())
}

func TestRenewalProcessor_FailedBookingReleasesClaim(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	sub, err := store.AddSubscription(ctx, core.Subscription{
		UserID:      "u1",
		Name:        "Broken",
		Amount:      core.Cents(-5),
		Frequency:   core.Monthly,
		RenewalDate: core.NewDate(2025, 3, 10),
		Status:      core.SubscriptionActive,
	})
	require.NoError(t, err)

	booked, err := NewRenewalProcessor(store, svc).ProcessDue(ctx, testNow)
	require.Error(t, err)
	assert.Zero(t, booked)

	got, err := store.GetSubscription(ctx, "u1", sub.ID)
	require.NoError(t, err)
	assert.True(t, got.LastBooked.IsZero())
	assert.Equal(t, "2025-03-10", got.RenewalDate.String())
}

func TestRenewalProcessor_SkipsAlreadyBookedRenewal(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	sub, err := store.AddSubscription(ctx, core.Subscription{
		UserID:      "u1",
		Name:        "Video",
		Amount:      core.Cents(1500),
		Frequency:   core.Weekly,
		RenewalDate: core.NewDate(2025, 3, 18),
		LastBooked:  core.NewDate(2025, 3, 18),
		Status:      core.SubscriptionActive,
	})
	require.NoError(t, err)

	booked, err := NewRenewalProcessor(store, svc).ProcessDue(ctx, testNow)
	require.NoError(t, err)
	assert.Zero(t, booked)

	got, err := store.GetSubscription(ctx, "u1", sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-25", got.RenewalDate.String())
}

func TestRenewalProcessor_MissingCategoryStillBooks(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	_, err := store.AddSubscription(ctx, core.Subscription{
		UserID:      "u1",
		Name:        "Gym",
		Amount:      core.Cents(4000),
		Frequency:   core.Monthly,
		RenewalDate: core.NewDate(2025, 3, 20),
		Status:      core.SubscriptionActive,
		CategoryID:  "deleted",
	})
	require.NoError(t, err)

	booked, err := NewRenewalProcessor(store, svc).ProcessDue(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, booked)

	txs, err := svc.ListTransactions(ctx, "u1", TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Empty(t, txs[0].CategoryID)
}

func TestRenewalProcessor_IgnoresCancelledAndFuture(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	cancelled := subscription("Old", 100, core.Monthly, core.NewDate(2025, 1, 1))
	cancelled.Status = core.SubscriptionCancelled
	_, err := svc.AddSubscription(ctx, "u1", cancelled)
	require.NoError(t, err)
	_, err = svc.AddSubscription(ctx, "u1", subscription("Soon", 100, core.Monthly, core.NewDate(2025, 3, 21)))
	require.NoError(t, err)

	booked, err := NewRenewalProcessor(store, svc).ProcessDue(ctx, testNow)
	require.NoError(t, err)
	assert.Zero(t, booked)
}

func TestRenewalProcessor_NotInitialized(t *testing.T) {
	_, err := (&RenewalProcessor{}).ProcessDue(context.Background(), testNow)
	assert.Error(t, err)
}
