package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/importer/ofx"
)

type ImportResult struct {
	Imported     int                `json:"imported"`
	Failed       int                `json:"failed"`
	Transactions []core.Transaction `json:"transactions"`
}

// ImportOFX parses an OFX/QFX statement and books every entry for userID.
// When categoryName is set, expenses are filed under the user's category with
// that name.
func (s *FinanceService) ImportOFX(ctx context.Context, userID string, r io.Reader, categoryName string) (ImportResult, error) {
	if err := requireUser(userID); err != nil {
		return ImportResult{}, err
	}
	entries, err := ofx.Parse(ctx, r)
	if err != nil {
		return ImportResult{}, err
	}
	return s.ImportEntries(ctx, userID, entries, categoryName, nil)
}

// ImportEntries books already parsed statement entries. progress, if set, is
// called once per entry.
func (s *FinanceService) ImportEntries(ctx context.Context, userID string, entries []ofx.Entry, categoryName string, progress func()) (ImportResult, error) {
	if err := requireUser(userID); err != nil {
		return ImportResult{}, err
	}
	categoryID, err := s.categoryIDByName(ctx, userID, categoryName)
	if err != nil {
		return ImportResult{}, err
	}

	res := ImportResult{Transactions: make([]core.Transaction, 0, len(entries))}
	var errs []error
	for _, e := range entries {
		tx := core.Transaction{
			Type:        e.Type,
			Amount:      e.Amount,
			Description: e.Description,
			Date:        e.Date,
		}
		if e.Type == core.Expense {
			tx.CategoryID = categoryID
		}
		saved, err := s.AddTransaction(ctx, userID, tx)
		if err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("import %s: %w", e.FITID, err))
		} else {
			res.Imported++
			res.Transactions = append(res.Transactions, saved)
		}
		if progress != nil {
			progress()
		}
	}

	slog.InfoContext(ctx, "Statement imported",
		"user_id", userID,
		"imported", res.Imported,
		"failed", res.Failed)
	return res, errors.Join(errs...)
}

func (s *FinanceService) categoryIDByName(ctx context.Context, userID, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	cats, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("list categories: %w", err)
	}
	for _, c := range cats {
		if strings.EqualFold(c.Name, name) {
			return c.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnknownCategoryName, name)
}
