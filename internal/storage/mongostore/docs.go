package mongostore

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// Amounts are stored in integer cents and dates as YYYY-MM-DD strings so
// range filters compare lexically.

type transactionDoc struct {
	ID           string    `bson:"_id"`
	UserID       string    `bson:"user_id"`
	Type         string    `bson:"type"`
	AmountCents  int64     `bson:"amount_cents"`
	Description  string    `bson:"description"`
	CategoryID   string    `bson:"category_id,omitempty"`
	CategoryName string    `bson:"category_name,omitempty"`
	Date         string    `bson:"date"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

type categoryDoc struct {
	ID             string           `bson:"_id"`
	UserID         string           `bson:"user_id"`
	Name           string           `bson:"name"`
	Icon           string           `bson:"icon"`
	Color          string           `bson:"color,omitempty"`
	MonthlyBudgets map[string]int64 `bson:"monthly_budgets"`
	CreatedAt      time.Time        `bson:"created_at"`
	UpdatedAt      time.Time        `bson:"updated_at"`
}

type settingsDoc struct {
	UserID       string    `bson:"_id"`
	Currency     string    `bson:"currency"`
	Theme        string    `bson:"theme"`
	NotifyEmail  bool      `bson:"notify_email"`
	NotifyBudget bool      `bson:"notify_budget_alerts"`
	NotifyWeekly bool      `bson:"notify_weekly_report"`
	IncomeCents  int64     `bson:"monthly_income_cents"`
	BudgetCents  int64     `bson:"monthly_budget_cents"`
	DisplayName  string    `bson:"display_name,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

type shareDoc struct {
	ID          string     `bson:"_id"`
	OwnerID     string     `bson:"owner_id"`
	Email       string     `bson:"email"`
	AccessLevel string     `bson:"access_level"`
	CreatedAt   time.Time  `bson:"created_at"`
	RevokedAt   *time.Time `bson:"revoked_at"`
}

type subscriptionDoc struct {
	ID          string    `bson:"_id"`
	UserID      string    `bson:"user_id"`
	Name        string    `bson:"name"`
	Provider    string    `bson:"provider,omitempty"`
	AmountCents int64     `bson:"amount_cents"`
	Frequency   string    `bson:"frequency"`
	RenewalDate string    `bson:"renewal_date"`
	Status      string    `bson:"status"`
	CategoryID  string    `bson:"category_id,omitempty"`
	LastBooked  string    `bson:"last_booked,omitempty"`
	BillingDay  int       `bson:"billing_day,omitempty"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func transactionToDoc(tx core.Transaction) transactionDoc {
	return transactionDoc{
		ID:           tx.ID,
		UserID:       tx.UserID,
		Type:         string(tx.Type),
		AmountCents:  tx.Amount.Cents,
		Description:  tx.Description,
		CategoryID:   tx.CategoryID,
		CategoryName: tx.CategoryName,
		Date:         tx.Date.String(),
		CreatedAt:    tx.CreatedAt,
		UpdatedAt:    tx.UpdatedAt,
	}
}

func (d transactionDoc) toCore() (core.Transaction, error) {
	date, err := parseDate(d.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:           d.ID,
		UserID:       d.UserID,
		Type:         core.TransactionType(d.Type),
		Amount:       core.Cents(d.AmountCents),
		Description:  d.Description,
		CategoryID:   d.CategoryID,
		CategoryName: d.CategoryName,
		Date:         date,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

func categoryToDoc(c core.Category) categoryDoc {
	budgets := make(map[string]int64, len(c.MonthlyBudgets))
	for k, v := range c.MonthlyBudgets {
		budgets[string(k)] = v.Cents
	}
	return categoryDoc{
		ID:             c.ID,
		UserID:         c.UserID,
		Name:           c.Name,
		Icon:           c.Icon,
		Color:          c.Color,
		MonthlyBudgets: budgets,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func (d categoryDoc) toCore() core.Category {
	budgets := make(map[core.MonthKey]core.Money, len(d.MonthlyBudgets))
	for k, v := range d.MonthlyBudgets {
		budgets[core.MonthKey(k)] = core.Cents(v)
	}
	return core.Category{
		ID:              d.ID,
		UserID:          d.UserID,
		Name:            d.Name,
		Icon:            d.Icon,
		Color:           d.Color,
		MonthlyBudgets:  budgets,
		MonthlySpending: make(map[core.MonthKey]core.MonthSpending),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func settingsToDoc(s core.UserSettings) settingsDoc {
	return settingsDoc{
		UserID:       s.UserID,
		Currency:     s.Currency,
		Theme:        s.Theme,
		NotifyEmail:  s.Notifications.Email,
		NotifyBudget: s.Notifications.BudgetAlerts,
		NotifyWeekly: s.Notifications.WeeklyReport,
		IncomeCents:  s.MonthlyIncome.Cents,
		BudgetCents:  s.MonthlyBudget.Cents,
		DisplayName:  s.DisplayName,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func (d settingsDoc) toCore() core.UserSettings {
	return core.UserSettings{
		UserID:   d.UserID,
		Currency: d.Currency,
		Theme:    d.Theme,
		Notifications: core.Notifications{
			Email:        d.NotifyEmail,
			BudgetAlerts: d.NotifyBudget,
			WeeklyReport: d.NotifyWeekly,
		},
		MonthlyIncome: core.Cents(d.IncomeCents),
		MonthlyBudget: core.Cents(d.BudgetCents),
		DisplayName:   d.DisplayName,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func shareToDoc(s core.Share) shareDoc {
	return shareDoc{
		ID:          s.ID,
		OwnerID:     s.OwnerID,
		Email:       s.Email,
		AccessLevel: string(s.AccessLevel),
		CreatedAt:   s.CreatedAt,
		RevokedAt:   s.RevokedAt,
	}
}

func (d shareDoc) toCore() core.Share {
	return core.Share{
		ID:          d.ID,
		OwnerID:     d.OwnerID,
		Email:       d.Email,
		AccessLevel: core.AccessLevel(d.AccessLevel),
		CreatedAt:   d.CreatedAt,
		RevokedAt:   d.RevokedAt,
	}
}

func subscriptionToDoc(s core.Subscription) subscriptionDoc {
	return subscriptionDoc{
		ID:          s.ID,
		UserID:      s.UserID,
		Name:        s.Name,
		Provider:    s.Provider,
		AmountCents: s.Amount.Cents,
		Frequency:   string(s.Frequency),
		RenewalDate: s.RenewalDate.String(),
		Status:      string(s.Status),
		CategoryID:  s.CategoryID,
		LastBooked:  s.LastBooked.String(),
		BillingDay:  s.BillingDay,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func (d subscriptionDoc) toCore() (core.Subscription, error) {
	renewal, err := parseDate(d.RenewalDate)
	if err != nil {
		return core.Subscription{}, err
	}
	booked, err := parseDate(d.LastBooked)
	if err != nil {
		return core.Subscription{}, err
	}
	return core.Subscription{
		ID:          d.ID,
		UserID:      d.UserID,
		Name:        d.Name,
		Provider:    d.Provider,
		Amount:      core.Cents(d.AmountCents),
		Frequency:   core.Frequency(d.Frequency),
		RenewalDate: renewal,
		Status:      core.SubscriptionStatus(d.Status),
		CategoryID:  d.CategoryID,
		LastBooked:  booked,
		BillingDay:  d.BillingDay,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

func parseDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, fmt.Errorf("stored date %q: %w", s, err)
	}
	return d, nil
}
