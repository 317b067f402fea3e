package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
)

// TransactionFilter narrows ListTransactions. Zero fields match everything.
type TransactionFilter struct {
	Month      core.MonthKey
	Type       core.TransactionType
	CategoryID string
	Limit      int
}

func (f TransactionFilter) match(tx core.Transaction) bool {
	if f.Month != "" && tx.Month() != f.Month {
		return false
	}
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if f.CategoryID != "" && tx.CategoryID != f.CategoryID {
		return false
	}
	return true
}

// TransactionPatch holds the fields to change; nil fields are left alone.
// An empty CategoryID clears the category.
type TransactionPatch struct {
	Type        *core.TransactionType `json:"type,omitempty"`
	Amount      *core.Money           `json:"amount,omitempty"`
	Description *string               `json:"description,omitempty"`
	CategoryID  *string               `json:"category_id,omitempty"`
	Date        *core.Date            `json:"date,omitempty"`
}

// ListTransactions returns the user's transactions newest date first.
func (s *FinanceService) ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]core.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if f.Month != "" && !f.Month.Valid() {
		return nil, core.ErrInvalidMonthKey
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, core.ErrInvalidType
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	all, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	out := make([]core.Transaction, 0, len(all))
	for _, tx := range all {
		if f.match(tx) {
			out = append(out, tx)
		}
	}
	analytics.SortNewestFirst(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// AddTransaction validates and stores a new transaction for userID.
func (s *FinanceService) AddTransaction(ctx context.Context, userID string, tx core.Transaction) (core.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return core.Transaction{}, err
	}
	tx.ID = ""
	tx.UserID = userID
	tx.Description = strings.TrimSpace(tx.Description)
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.denormalizeCategory(ctx, &tx); err != nil {
		return core.Transaction{}, err
	}
	now := s.now()
	tx.CreatedAt, tx.UpdatedAt = now, now

	saved, err := s.store.AddTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.invalidate(userID)
	slog.InfoContext(ctx, "Transaction added",
		"user_id", userID,
		"transaction_id", saved.ID,
		"type", saved.Type,
		"month", saved.Month())

	s.publish(ctx, core.EventCreated, saved)
	return saved, nil
}

// UpdateTransaction applies a partial patch to one of the user's transactions.
func (s *FinanceService) UpdateTransaction(ctx context.Context, userID, id string, p TransactionPatch) (core.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return core.Transaction{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	tx, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	prevMonth := tx.Month()

	categoryChanged := false
	if p.Type != nil {
		tx.Type = *p.Type
	}
	if p.Amount != nil {
		tx.Amount = *p.Amount
	}
	if p.Description != nil {
		tx.Description = strings.TrimSpace(*p.Description)
	}
	if p.Date != nil {
		tx.Date = *p.Date
	}
	if p.CategoryID != nil && *p.CategoryID != tx.CategoryID {
		tx.CategoryID = *p.CategoryID
		categoryChanged = true
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if categoryChanged {
		if err := s.denormalizeCategory(ctx, &tx); err != nil {
			return core.Transaction{}, err
		}
	}
	tx.UpdatedAt = s.now()

	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}
	s.invalidate(userID)
	evt := core.NewTransactionEvent(core.EventUpdated, tx, s.now())
	if prevMonth != evt.Month {
		evt.PreviousMonth = prevMonth
	}
	s.publishEvent(ctx, evt)
	return tx, nil
}

func (s *FinanceService) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	tx, err := s.store.GetTransaction(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("get transaction %s: %w", id, err)
	}
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	s.invalidate(userID)
	s.publish(ctx, core.EventDeleted, tx)
	return nil
}

// denormalizeCategory copies the category name onto tx. An unknown category
// id is reported as core.ErrNotFound.
func (s *FinanceService) denormalizeCategory(ctx context.Context, tx *core.Transaction) error {
	if tx.CategoryID == "" {
		tx.CategoryName = ""
		return nil
	}
	c, err := s.store.GetCategory(ctx, tx.UserID, tx.CategoryID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("category %s: %w", tx.CategoryID, core.ErrNotFound)
		}
		return fmt.Errorf("get category: %w", err)
	}
	tx.CategoryName = c.Name
	return nil
}
