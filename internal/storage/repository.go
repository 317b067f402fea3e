package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/ports"

	_ "modernc.org/sqlite"
)

var _ ports.Store = (*SQLiteRepository)(nil)

// timeLayout keeps fractional seconds at a fixed width so timestamps sort
// lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// sqlite allows a single writer at a time
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if v, dirty, err := SchemaVersion(dbPath); err == nil {
		slog.Info("SQLite schema ready", "path", dbPath, "version", v, "dirty", dirty)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ---- transactions ----

const txColumns = `id, user_id, type, amount_cents, description, category_id, category_name, date, created_at, updated_at`

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return tx, nil
}

func (r *SQLiteRepository) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+txColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, string(tx.Type), tx.Amount.Cents, tx.Description,
		tx.CategoryID, tx.CategoryName, tx.Date.String(),
		formatTime(tx.CreatedAt), formatTime(tx.UpdatedAt))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"user_id", tx.UserID,
		"type", tx.Type,
		"amount_cents", tx.Amount.Cents,
		"date", tx.Date.String())

	return tx, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET type = ?, amount_cents = ?, description = ?, category_id = ?, category_name = ?, date = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		string(tx.Type), tx.Amount.Cents, tx.Description, tx.CategoryID, tx.CategoryName,
		tx.Date.String(), formatTime(tx.UpdatedAt), tx.ID, tx.UserID)
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", tx.ID, err)
	}
	return requireOneRow(res)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return requireOneRow(res)
}

// ---- categories ----

const categoryColumns = `id, user_id, name, icon, color, monthly_budgets, created_at, updated_at`

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]core.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, userID, id string) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, err)
	}
	return c, nil
}

func (r *SQLiteRepository) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c = c.Clone()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	budgets, err := encodeBudgets(c.MonthlyBudgets)
	if err != nil {
		return core.Category{}, err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.Icon, c.Color, budgets,
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, icon = ?, color = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		c.Name, c.Icon, c.Color, formatTime(c.UpdatedAt), c.ID, c.UserID)
	if err != nil {
		return fmt.Errorf("update category %s: %w", c.ID, err)
	}
	return requireOneRow(res)
}

func (r *SQLiteRepository) SetCategoryBudget(ctx context.Context, userID, id string, month core.MonthKey, amount core.Money, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories
		 SET monthly_budgets = json_set(monthly_budgets, '$."' || ? || '"', ?), updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		string(month), amount.Cents, formatTime(at), id, userID)
	if err != nil {
		return fmt.Errorf("set budget %s for category %s: %w", month, id, err)
	}
	return requireOneRow(res)
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	return requireOneRow(res)
}

// ---- settings ----

func (r *SQLiteRepository) GetSettings(ctx context.Context, userID string) (core.UserSettings, error) {
	var (
		st                    core.UserSettings
		email, alerts, weekly bool
		income, budget        int64
		createdAt, updatedAt  string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, currency, theme, notify_email, notify_budget_alerts, notify_weekly_report,
		        monthly_income_cents, monthly_budget_cents, display_name, created_at, updated_at
		 FROM user_settings WHERE user_id = ?`, userID).
		Scan(&st.UserID, &st.Currency, &st.Theme, &email, &alerts, &weekly,
			&income, &budget, &st.DisplayName, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserSettings{}, core.ErrNotFound
	}
	if err != nil {
		return core.UserSettings{}, fmt.Errorf("get settings: %w", err)
	}
	st.Notifications = core.Notifications{Email: email, BudgetAlerts: alerts, WeeklyReport: weekly}
	st.MonthlyIncome = core.Cents(income)
	st.MonthlyBudget = core.Cents(budget)
	if st.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.UserSettings{}, err
	}
	if st.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.UserSettings{}, err
	}
	return st, nil
}

func (r *SQLiteRepository) PutSettings(ctx context.Context, st core.UserSettings) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_settings (user_id, currency, theme, notify_email, notify_budget_alerts, notify_weekly_report,
		                            monthly_income_cents, monthly_budget_cents, display_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		    currency = excluded.currency,
		    theme = excluded.theme,
		    notify_email = excluded.notify_email,
		    notify_budget_alerts = excluded.notify_budget_alerts,
		    notify_weekly_report = excluded.notify_weekly_report,
		    monthly_income_cents = excluded.monthly_income_cents,
		    monthly_budget_cents = excluded.monthly_budget_cents,
		    display_name = excluded.display_name,
		    updated_at = excluded.updated_at`,
		st.UserID, st.Currency, st.Theme, st.Notifications.Email, st.Notifications.BudgetAlerts,
		st.Notifications.WeeklyReport, st.MonthlyIncome.Cents, st.MonthlyBudget.Cents, st.DisplayName,
		formatTime(st.CreatedAt), formatTime(st.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// ---- shares ----

const shareColumns = `id, owner_id, email, access_level, created_at, revoked_at`

func (r *SQLiteRepository) AddShare(ctx context.Context, sh core.Share) (core.Share, error) {
	if sh.ID == "" {
		sh.ID = uuid.NewString()
	}
	var revoked sql.NullString
	if sh.RevokedAt != nil {
		revoked = sql.NullString{String: formatTime(*sh.RevokedAt), Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shares (`+shareColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		sh.ID, sh.OwnerID, sh.Email, string(sh.AccessLevel), formatTime(sh.CreatedAt), revoked)
	if err != nil {
		return core.Share{}, fmt.Errorf("create share: %w", err)
	}
	return sh, nil
}

func (r *SQLiteRepository) GetShare(ctx context.Context, ownerID, id string) (core.Share, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+shareColumns+` FROM shares WHERE id = ? AND owner_id = ?`, id, ownerID)
	sh, err := scanShare(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Share{}, core.ErrNotFound
	}
	if err != nil {
		return core.Share{}, fmt.Errorf("get share %s: %w", id, err)
	}
	return sh, nil
}

func (r *SQLiteRepository) ListShares(ctx context.Context, ownerID string) ([]core.Share, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+shareColumns+` FROM shares WHERE owner_id = ? ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	defer rows.Close()

	out := make([]core.Share, 0)
	for rows.Next() {
		sh, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) RevokeShare(ctx context.Context, ownerID, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE shares SET revoked_at = COALESCE(revoked_at, ?) WHERE id = ? AND owner_id = ?`,
		formatTime(at), id, ownerID)
	if err != nil {
		return fmt.Errorf("revoke share %s: %w", id, err)
	}
	return requireOneRow(res)
}

// ---- subscriptions ----

const subscriptionColumns = `id, user_id, name, provider, amount_cents, frequency, renewal_date, status, category_id, last_booked, billing_day, created_at, updated_at`

func (r *SQLiteRepository) ListSubscriptions(ctx context.Context, userID string) ([]core.Subscription, error) {
	return r.querySubscriptions(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = ? ORDER BY renewal_date, id`, userID)
}

func (r *SQLiteRepository) ListDueSubscriptions(ctx context.Context, onOrBefore core.Date) ([]core.Subscription, error) {
	return r.querySubscriptions(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE status = ? AND renewal_date <= ? ORDER BY renewal_date, id`,
		string(core.SubscriptionActive), onOrBefore.String())
}

func (r *SQLiteRepository) querySubscriptions(ctx context.Context, query string, args ...any) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetSubscription(ctx context.Context, userID, id string) (core.Subscription, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ? AND user_id = ?`, id, userID)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Subscription{}, core.ErrNotFound
	}
	if err != nil {
		return core.Subscription{}, fmt.Errorf("get subscription %s: %w", id, err)
	}
	return sub, nil
}

func (r *SQLiteRepository) AddSubscription(ctx context.Context, sub core.Subscription) (core.Subscription, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscriptions (`+subscriptionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.UserID, sub.Name, sub.Provider, sub.Amount.Cents, string(sub.Frequency),
		sub.RenewalDate.String(), string(sub.Status), sub.CategoryID, sub.LastBooked.String(), sub.BillingDay,
		formatTime(sub.CreatedAt), formatTime(sub.UpdatedAt))
	if err != nil {
		return core.Subscription{}, fmt.Errorf("create subscription: %w", err)
	}
	return sub, nil
}

func (r *SQLiteRepository) UpdateSubscription(ctx context.Context, sub core.Subscription) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions
		 SET name = ?, provider = ?, amount_cents = ?, frequency = ?, renewal_date = ?, status = ?,
		     category_id = ?, last_booked = ?, billing_day = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		sub.Name, sub.Provider, sub.Amount.Cents, string(sub.Frequency), sub.RenewalDate.String(),
		string(sub.Status), sub.CategoryID, sub.LastBooked.String(), sub.BillingDay, formatTime(sub.UpdatedAt),
		sub.ID, sub.UserID)
	if err != nil {
		return fmt.Errorf("update subscription %s: %w", sub.ID, err)
	}
	return requireOneRow(res)
}

func (r *SQLiteRepository) DeleteSubscription(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete subscription %s: %w", id, err)
	}
	return requireOneRow(res)
}

// ---- scanning helpers ----

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		tx                   core.Transaction
		typ, date            string
		cents                int64
		createdAt, updatedAt string
	)
	if err := s.Scan(&tx.ID, &tx.UserID, &typ, &cents, &tx.Description, &tx.CategoryID,
		&tx.CategoryName, &date, &createdAt, &updatedAt); err != nil {
		return core.Transaction{}, err
	}
	tx.Type = core.TransactionType(typ)
	tx.Amount = core.Cents(cents)
	var err error
	if tx.Date, err = parseDate(date); err != nil {
		return core.Transaction{}, err
	}
	if tx.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Transaction{}, err
	}
	if tx.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func scanCategory(s scanner) (core.Category, error) {
	var (
		c                    core.Category
		budgets              string
		createdAt, updatedAt string
	)
	if err := s.Scan(&c.ID, &c.UserID, &c.Name, &c.Icon, &c.Color, &budgets, &createdAt, &updatedAt); err != nil {
		return core.Category{}, err
	}
	var err error
	if c.MonthlyBudgets, err = decodeBudgets(budgets); err != nil {
		return core.Category{}, err
	}
	c.MonthlySpending = make(map[core.MonthKey]core.MonthSpending)
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Category{}, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func scanShare(s scanner) (core.Share, error) {
	var (
		sh        core.Share
		level     string
		createdAt string
		revoked   sql.NullString
	)
	if err := s.Scan(&sh.ID, &sh.OwnerID, &sh.Email, &level, &createdAt, &revoked); err != nil {
		return core.Share{}, err
	}
	sh.AccessLevel = core.AccessLevel(level)
	var err error
	if sh.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Share{}, err
	}
	if revoked.Valid {
		at, err := parseTime(revoked.String)
		if err != nil {
			return core.Share{}, err
		}
		sh.RevokedAt = &at
	}
	return sh, nil
}

func scanSubscription(s scanner) (core.Subscription, error) {
	var (
		sub                               core.Subscription
		cents                             int64
		freq, renewal, status, lastBooked string
		createdAt, updatedAt              string
	)
	if err := s.Scan(&sub.ID, &sub.UserID, &sub.Name, &sub.Provider, &cents, &freq, &renewal,
		&status, &sub.CategoryID, &lastBooked, &sub.BillingDay, &createdAt, &updatedAt); err != nil {
		return core.Subscription{}, err
	}
	sub.Amount = core.Cents(cents)
	sub.Frequency = core.Frequency(freq)
	sub.Status = core.SubscriptionStatus(status)
	var err error
	if sub.RenewalDate, err = parseDate(renewal); err != nil {
		return core.Subscription{}, err
	}
	if sub.LastBooked, err = parseDate(lastBooked); err != nil {
		return core.Subscription{}, err
	}
	if sub.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Subscription{}, err
	}
	if sub.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.Subscription{}, err
	}
	return sub, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// parseDate maps the empty string to the zero Date.
func parseDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d, nil
}

func encodeBudgets(m map[core.MonthKey]core.Money) (string, error) {
	raw := make(map[string]int64, len(m))
	for k, v := range m {
		raw[string(k)] = v.Cents
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("encode budgets: %w", err)
	}
	return string(b), nil
}

func decodeBudgets(s string) (map[core.MonthKey]core.Money, error) {
	raw := map[string]int64{}
	if s != "" {
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			return nil, fmt.Errorf("decode budgets: %w", err)
		}
	}
	out := make(map[core.MonthKey]core.Money, len(raw))
	for k, v := range raw {
		out[core.MonthKey(k)] = core.Cents(v)
	}
	return out, nil
}
