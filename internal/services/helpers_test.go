package services

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/storage/memory"
)

var testNow = time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []core.TransactionEvent
	err    error
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, evt core.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) kinds() []core.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.EventKind, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}

// failingBudgetStore fails SetCategoryBudget for the listed category ids.
type failingBudgetStore struct {
	*memory.Store
	failIDs []string
}

func (s *failingBudgetStore) SetCategoryBudget(ctx context.Context, userID, id string, month core.MonthKey, amount core.Money, at time.Time) error {
	if slices.Contains(s.failIDs, id) {
		return errors.New("disk full")
	}
	return s.Store.SetCategoryBudget(ctx, userID, id, month, amount, at)
}

func newTestService(t *testing.T, opts ...Option) (*FinanceService, *memory.Store, *recordingPublisher) {
	t.Helper()
	store := memory.New()
	pub := &recordingPublisher{}
	opts = append([]Option{WithEvents(pub), WithClock(func() time.Time { return testNow })}, opts...)
	return NewFinanceService(store, opts...), store, pub
}

func seedCategory(t *testing.T, store *memory.Store, id, userID, name string, budgets map[core.MonthKey]core.Money) core.Category {
	t.Helper()
	c, err := store.AddCategory(context.Background(), core.Category{
		ID:             id,
		UserID:         userID,
		Name:           name,
		Icon:           core.DefaultIcon,
		MonthlyBudgets: budgets,
		CreatedAt:      testNow,
		UpdatedAt:      testNow,
	})
	require.NoError(t, err)
	return c
}

func expense(cents int64, date core.Date, categoryID string) core.Transaction {
	return core.Transaction{
		Type:        core.Expense,
		Amount:      core.Cents(cents),
		Description: "expense",
		CategoryID:  categoryID,
		Date:        date,
	}
}

func income(cents int64, date core.Date) core.Transaction {
	return core.Transaction{
		Type:        core.Income,
		Amount:      core.Cents(cents),
		Description: "salary",
		Date:        date,
	}
}
