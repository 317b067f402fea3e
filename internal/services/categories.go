package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
)

// NewCategory is the input to AddCategory. When BudgetMonth is set the
// category starts with Budget for that month.
type NewCategory struct {
	Name        string        `json:"name"`
	Icon        string        `json:"icon"`
	Color       string        `json:"color"`
	Budget      core.Money    `json:"budget"`
	BudgetMonth core.MonthKey `json:"budget_month"`
}

type CategoryPatch struct {
	Name  *string `json:"name,omitempty"`
	Icon  *string `json:"icon,omitempty"`
	Color *string `json:"color,omitempty"`
}

// CopyResult reports a best-effort budget copy. Skipped categories had no
// positive budget in the source month.
type CopyResult struct {
	From    core.MonthKey `json:"from"`
	To      core.MonthKey `json:"to"`
	Copied  []string      `json:"copied"`
	Skipped []string      `json:"skipped"`
	Failed  []string      `json:"failed"`
}

// ListCategories returns the user's categories with spending rebuilt from
// their transactions.
func (s *FinanceService) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	txs, cats, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return analytics.Rollup(txs, cats), nil
}

func (s *FinanceService) AddCategory(ctx context.Context, userID string, in NewCategory) (core.Category, error) {
	if err := requireUser(userID); err != nil {
		return core.Category{}, err
	}
	now := s.now()
	c := core.Category{
		UserID:          userID,
		Name:            strings.TrimSpace(in.Name),
		Icon:            core.NormalizeIcon(in.Icon),
		Color:           strings.TrimSpace(in.Color),
		MonthlyBudgets:  map[core.MonthKey]core.Money{},
		MonthlySpending: map[core.MonthKey]core.MonthSpending{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if in.BudgetMonth != "" {
		if !in.BudgetMonth.Valid() {
			return core.Category{}, core.ErrInvalidMonthKey
		}
		if in.Budget.Cents < 0 {
			return core.Category{}, core.ErrInvalidAmount
		}
		c.MonthlyBudgets[in.BudgetMonth] = in.Budget
		c.MonthlySpending[in.BudgetMonth] = core.MonthSpending{}
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	saved, err := s.store.AddCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	s.invalidate(userID)
	slog.InfoContext(ctx, "Category added", "user_id", userID, "category_id", saved.ID, "name", saved.Name)
	return saved, nil
}

// UpdateCategory changes name, icon or color. A rename is carried over to the
// category name stored on the user's transactions.
func (s *FinanceService) UpdateCategory(ctx context.Context, userID, id string, p CategoryPatch) (core.Category, error) {
	if err := requireUser(userID); err != nil {
		return core.Category{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	c, err := s.store.GetCategory(ctx, userID, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, err)
	}
	oldName := c.Name
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Icon != nil {
		c.Icon = core.NormalizeIcon(*p.Icon)
	}
	if p.Color != nil {
		c.Color = strings.TrimSpace(*p.Color)
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	c.UpdatedAt = s.now()
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("update category %s: %w", id, err)
	}
	s.invalidate(userID)

	if c.Name != oldName {
		if err := s.renameOnTransactions(ctx, userID, id, c.Name); err != nil {
			return c, err
		}
	}
	return c, nil
}

func (s *FinanceService) renameOnTransactions(ctx context.Context, userID, categoryID, name string) error {
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	var errs []error
	for _, tx := range txs {
		if tx.CategoryID != categoryID || tx.CategoryName == name {
			continue
		}
		tx.CategoryName = name
		if err := s.store.UpdateTransaction(ctx, tx); err != nil {
			errs = append(errs, fmt.Errorf("rename on transaction %s: %w", tx.ID, err))
		}
	}
	return errors.Join(errs...)
}

// DeleteCategory removes the category. Its transactions keep their category
// id and name and drop out of the category rollup.
func (s *FinanceService) DeleteCategory(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.store.DeleteCategory(ctx, userID, id); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	s.invalidate(userID)
	return nil
}

// SetMonthlyBudget sets one month's budget; other months are untouched.
// A zero amount leaves the month without a budget.
func (s *FinanceService) SetMonthlyBudget(ctx context.Context, userID, categoryID string, month core.MonthKey, amount core.Money) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if !month.Valid() {
		return core.ErrInvalidMonthKey
	}
	if amount.Cents < 0 {
		return core.ErrInvalidAmount
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	if err := s.store.SetCategoryBudget(ctx, userID, categoryID, month, amount, s.now()); err != nil {
		return fmt.Errorf("set budget %s/%s: %w", categoryID, month, err)
	}
	s.invalidate(userID)
	return nil
}

// CopyBudgetsFromPreviousMonth copies every positive budget of the month
// before into month, overwriting what is there. Categories are updated
// independently; the result lists what succeeded and the error joins every
// failure.
func (s *FinanceService) CopyBudgetsFromPreviousMonth(ctx context.Context, userID string, month core.MonthKey) (CopyResult, error) {
	if err := requireUser(userID); err != nil {
		return CopyResult{}, err
	}
	if !month.Valid() {
		return CopyResult{}, core.ErrInvalidMonthKey
	}
	res := CopyResult{From: month.Previous(), To: month, Copied: []string{}, Skipped: []string{}, Failed: []string{}}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	cats, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return res, fmt.Errorf("list categories: %w", err)
	}

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(copyConcurrency)
	at := s.now()
	for _, c := range cats {
		budget := c.BudgetFor(res.From)
		if budget.Cents <= 0 {
			res.Skipped = append(res.Skipped, c.ID)
			continue
		}
		g.Go(func() error {
			err := s.store.SetCategoryBudget(ctx, userID, c.ID, month, budget, at)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				err = fmt.Errorf("copy budget for %s: %w", c.ID, err)
				res.Failed = append(res.Failed, c.ID)
				errs = append(errs, err)
				return err
			}
			res.Copied = append(res.Copied, c.ID)
			return nil
		})
	}
	// Wait reports only the first failure; errs keeps every one of them.
	waitErr := g.Wait()

	sort.Strings(res.Copied)
	sort.Strings(res.Failed)
	if len(res.Copied) > 0 {
		s.invalidate(userID)
	}
	slog.InfoContext(ctx, "Copied budgets from previous month",
		"user_id", userID,
		"from", res.From,
		"to", res.To,
		"copied", len(res.Copied),
		"skipped", len(res.Skipped),
		"failed", len(res.Failed))
	if waitErr == nil {
		return res, nil
	}
	return res, errors.Join(errs...)
}
