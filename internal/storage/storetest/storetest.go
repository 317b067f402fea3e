// Package storetest holds the behavioral contract every ports.Store backend
// must satisfy. Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) ports.Store

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func Run(t *testing.T, newStore Factory) {
	t.Run("transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
	t.Run("categories", func(t *testing.T) { testCategories(t, newStore(t)) })
	t.Run("settings", func(t *testing.T) { testSettings(t, newStore(t)) })
	t.Run("shares", func(t *testing.T) { testShares(t, newStore(t)) })
	t.Run("subscriptions", func(t *testing.T) { testSubscriptions(t, newStore(t)) })
}

func testTransactions(t *testing.T, s ports.Store) {
	ctx := context.Background()
	require.NoError(t, s.Ping(ctx))

	in := core.Transaction{
		UserID:       "u1",
		Type:         core.Expense,
		Amount:       core.Cents(1234),
		Description:  "groceries",
		CategoryID:   "c1",
		CategoryName: "Food",
		Date:         core.NewDate(2025, 3, 10),
		CreatedAt:    t0,
		UpdatedAt:    t0,
	}
	added, err := s.AddTransaction(ctx, in)
	require.NoError(t, err)
	require.NotEmpty(t, added.ID)

	got, err := s.GetTransaction(ctx, "u1", added.ID)
	require.NoError(t, err)
	assert.Equal(t, in.Amount, got.Amount)
	assert.Equal(t, in.Description, got.Description)
	assert.Equal(t, "2025-03-10", got.Date.String())
	assert.Equal(t, "Food", got.CategoryName)
	assert.True(t, got.CreatedAt.Equal(t0))

	_, err = s.GetTransaction(ctx, "u2", added.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound), "foreign record must look missing")

	_, err = s.AddTransaction(ctx, core.Transaction{UserID: "u2", Type: core.Income, Amount: core.Cents(1), Description: "x", Date: core.NewDate(2025, 1, 1)})
	require.NoError(t, err)

	list, err := s.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	got.Amount = core.Cents(999)
	got.Type = core.Income
	require.NoError(t, s.UpdateTransaction(ctx, got))
	again, err := s.GetTransaction(ctx, "u1", added.ID)
	require.NoError(t, err)
	assert.Equal(t, core.Cents(999), again.Amount)
	assert.Equal(t, core.Income, again.Type)

	got.UserID = "u2"
	assert.True(t, errors.Is(s.UpdateTransaction(ctx, got), core.ErrNotFound))

	assert.True(t, errors.Is(s.DeleteTransaction(ctx, "u2", added.ID), core.ErrNotFound))
	require.NoError(t, s.DeleteTransaction(ctx, "u1", added.ID))
	_, err = s.GetTransaction(ctx, "u1", added.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))

	empty, err := s.ListTransactions(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func testCategories(t *testing.T, s ports.Store) {
	ctx := context.Background()

	added, err := s.AddCategory(ctx, core.Category{
		UserID:         "u1",
		Name:           "Food",
		Icon:           "Coffee",
		Color:          "#ff0000",
		MonthlyBudgets: map[core.MonthKey]core.Money{"2025-03": core.Cents(50000)},
		CreatedAt:      t0,
		UpdatedAt:      t0,
	})
	require.NoError(t, err)
	require.NotEmpty(t, added.ID)

	require.NoError(t, s.SetCategoryBudget(ctx, "u1", added.ID, "2025-04", core.Cents(20000), t0.Add(time.Hour)))
	require.NoError(t, s.SetCategoryBudget(ctx, "u1", added.ID, "2025-03", core.Cents(45000), t0.Add(time.Hour)))

	got, err := s.GetCategory(ctx, "u1", added.ID)
	require.NoError(t, err)
	assert.Equal(t, map[core.MonthKey]core.Money{
		"2025-03": core.Cents(45000),
		"2025-04": core.Cents(20000),
	}, got.MonthlyBudgets)
	assert.NotNil(t, got.MonthlySpending)

	got.Name = "Groceries"
	got.Icon = "ShoppingBag"
	got.MonthlyBudgets = nil
	require.NoError(t, s.UpdateCategory(ctx, got))

	again, err := s.GetCategory(ctx, "u1", added.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", again.Name)
	assert.Equal(t, "ShoppingBag", again.Icon)
	assert.Len(t, again.MonthlyBudgets, 2, "update must not touch budgets")

	assert.True(t, errors.Is(s.SetCategoryBudget(ctx, "u2", added.ID, "2025-04", core.Cents(1), t0), core.ErrNotFound))
	_, err = s.GetCategory(ctx, "u2", added.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))

	_, err = s.AddCategory(ctx, core.Category{UserID: "u1", Name: "Car", Icon: "Car", CreatedAt: t0.Add(time.Minute), UpdatedAt: t0})
	require.NoError(t, err)
	list, err := s.ListCategories(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Groceries", list[0].Name)
	assert.Equal(t, "Car", list[1].Name)

	require.NoError(t, s.DeleteCategory(ctx, "u1", added.ID))
	assert.True(t, errors.Is(s.DeleteCategory(ctx, "u1", added.ID), core.ErrNotFound))
}

func testSettings(t *testing.T, s ports.Store) {
	ctx := context.Background()
	_, err := s.GetSettings(ctx, "u1")
	assert.True(t, errors.Is(err, core.ErrNotFound))

	st := core.DefaultSettings("u1", t0)
	st.Currency = "EUR"
	st.MonthlyIncome = core.Cents(300000)
	require.NoError(t, s.PutSettings(ctx, st))

	got, err := s.GetSettings(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "EUR", got.Currency)
	assert.Equal(t, core.Cents(300000), got.MonthlyIncome)
	assert.Equal(t, st.Notifications, got.Notifications)

	st.Theme = "dark"
	require.NoError(t, s.PutSettings(ctx, st))
	got, err = s.GetSettings(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "dark", got.Theme)
}

func testShares(t *testing.T, s ports.Store) {
	ctx := context.Background()
	sh, err := s.AddShare(ctx, core.Share{OwnerID: "u1", Email: "a@example.com", AccessLevel: core.ReadOnly, CreatedAt: t0})
	require.NoError(t, err)
	require.NotEmpty(t, sh.ID)

	got, err := s.GetShare(ctx, "u1", sh.ID)
	require.NoError(t, err)
	assert.True(t, got.Active())
	assert.Equal(t, core.ReadOnly, got.AccessLevel)

	_, err = s.GetShare(ctx, "u2", sh.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))

	require.NoError(t, s.RevokeShare(ctx, "u1", sh.ID, t0.Add(time.Hour)))
	got, err = s.GetShare(ctx, "u1", sh.ID)
	require.NoError(t, err)
	require.False(t, got.Active())
	assert.True(t, got.RevokedAt.Equal(t0.Add(time.Hour)))

	list, err := s.ListShares(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.True(t, errors.Is(s.RevokeShare(ctx, "u2", sh.ID, t0), core.ErrNotFound))
}

func testSubscriptions(t *testing.T, s ports.Store) {
	ctx := context.Background()
	mk := func(user, name string, renewal core.Date, status core.SubscriptionStatus) core.Subscription {
		sub, err := s.AddSubscription(ctx, core.Subscription{
			UserID:      user,
			Name:        name,
			Amount:      core.Cents(999),
			Frequency:   core.Monthly,
			RenewalDate: renewal,
			Status:      status,
			CreatedAt:   t0,
			UpdatedAt:   t0,
		})
		require.NoError(t, err)
		return sub
	}
	a := mk("u1", "Music", core.NewDate(2025, 3, 5), core.SubscriptionActive)
	mk("u2", "Video", core.NewDate(2025, 3, 1), core.SubscriptionActive)
	mk("u1", "Old", core.NewDate(2025, 2, 1), core.SubscriptionCancelled)
	mk("u1", "Later", core.NewDate(2025, 4, 1), core.SubscriptionActive)

	due, err := s.ListDueSubscriptions(ctx, core.NewDate(2025, 3, 5))
	require.NoError(t, err)
	names := make([]string, len(due))
	for i, d := range due {
		names[i] = d.Name
	}
	assert.Equal(t, []string{"Video", "Music"}, names)

	a.RenewalDate = core.NewDate(2025, 4, 5)
	a.LastBooked = core.NewDate(2025, 3, 5)
	a.BillingDay = 31
	require.NoError(t, s.UpdateSubscription(ctx, a))
	got, err := s.GetSubscription(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-04-05", got.RenewalDate.String())
	assert.Equal(t, "2025-03-05", got.LastBooked.String())
	assert.Equal(t, 31, got.BillingDay)
	assert.Equal(t, 31, got.AnchorDay())

	list, err := s.ListSubscriptions(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 3)

	assert.True(t, errors.Is(s.DeleteSubscription(ctx, "u2", a.ID), core.ErrNotFound))
	require.NoError(t, s.DeleteSubscription(ctx, "u1", a.ID))
}
