package core

import (
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// ReadOnly is the only access level a dashboard share can grant.
const ReadOnly AccessLevel = "read-only"

const (
	maxDescriptionLen = 200
	maxNameLen        = 60
)

type (
	TransactionType    string
	Frequency          string
	SubscriptionStatus string
	AccessLevel        string

	Transaction struct {
		ID           string          `json:"id"`
		UserID       string          `json:"user_id"`
		Type         TransactionType `json:"type"`
		Amount       Money           `json:"amount"`
		Description  string          `json:"description"`
		CategoryID   string          `json:"category_id,omitempty"`
		CategoryName string          `json:"category_name,omitempty"`
		Date         Date            `json:"date"`
		CreatedAt    time.Time       `json:"created_at"`
		UpdatedAt    time.Time       `json:"updated_at"`
	}

	// MonthSpending is the derived per-month accumulator stored on a category.
	MonthSpending struct {
		Spent        Money `json:"spent"`
		Transactions int   `json:"transactions"`
	}

	Category struct {
		ID              string                     `json:"id"`
		UserID          string                     `json:"user_id"`
		Name            string                     `json:"name"`
		Icon            string                     `json:"icon"`
		Color           string                     `json:"color,omitempty"`
		MonthlyBudgets  map[MonthKey]Money         `json:"monthly_budgets"`
		MonthlySpending map[MonthKey]MonthSpending `json:"monthly_spending"`
		CreatedAt       time.Time                  `json:"created_at"`
		UpdatedAt       time.Time                  `json:"updated_at"`
	}

	Notifications struct {
		Email        bool `json:"email"`
		BudgetAlerts bool `json:"budget_alerts"`
		WeeklyReport bool `json:"weekly_report"`
	}

	UserSettings struct {
		UserID        string        `json:"user_id"`
		Currency      string        `json:"currency"`
		Theme         string        `json:"theme"`
		Notifications Notifications `json:"notifications"`
		MonthlyIncome Money         `json:"monthly_income"`
		MonthlyBudget Money         `json:"monthly_budget"`
		DisplayName   string        `json:"display_name,omitempty"`
		CreatedAt     time.Time     `json:"created_at"`
		UpdatedAt     time.Time     `json:"updated_at"`
	}

	// Share grants a read-only view of the owner's dashboard to an email address.
	Share struct {
		ID          string      `json:"id"`
		OwnerID     string      `json:"owner_id"`
		Email       string      `json:"email"`
		AccessLevel AccessLevel `json:"access_level"`
		CreatedAt   time.Time   `json:"created_at"`
		RevokedAt   *time.Time  `json:"revoked_at,omitempty"`
	}

	Subscription struct {
		ID          string             `json:"id"`
		UserID      string             `json:"user_id"`
		Name        string             `json:"name"`
		Provider    string             `json:"provider,omitempty"`
		Amount      Money              `json:"amount"`
		Frequency   Frequency          `json:"frequency"`
		RenewalDate Date               `json:"renewal_date"`
		Status      SubscriptionStatus `json:"status"`
		CategoryID  string             `json:"category_id,omitempty"`
		// LastBooked is the renewal date most recently claimed for booking.
		LastBooked Date `json:"last_booked,omitempty"`
		// BillingDay is the day of month monthly and yearly renewals aim for.
		BillingDay int       `json:"billing_day,omitempty"`
		CreatedAt  time.Time `json:"created_at"`
		UpdatedAt  time.Time `json:"updated_at"`
	}
)

var (
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyDescription    = errors.New("empty description")
	ErrDescriptionTooLong  = errors.New("description too long (max 200 characters)")
	ErrInvalidDate         = errors.New("invalid date")
	ErrEmptyName           = errors.New("empty name")
	ErrNameTooLong         = errors.New("name too long (max 60 characters)")
	ErrInvalidMonthKey     = errors.New("invalid month key")
	ErrInvalidFrequency    = errors.New("invalid frequency")
	ErrInvalidStatus       = errors.New("invalid subscription status")
	ErrInvalidEmail        = errors.New("invalid email")
	ErrUnknownCurrency     = errors.New("unknown currency")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrShareRevoked        = errors.New("share revoked")
	ErrInvalidShareToken   = errors.New("invalid share token")
	ErrMissingUser         = errors.New("missing user id")
	ErrUnknownCategoryName = errors.New("unknown category")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := validateText(t.Description, maxDescriptionLen, ErrEmptyDescription, ErrDescriptionTooLong); err != nil {
		return err
	}
	return t.Date.Validate()
}

// Month returns the month the transaction is attributed to.
func (t Transaction) Month() MonthKey {
	return MonthKeyOf(t.Date)
}

func (c Category) Validate() error {
	return validateText(c.Name, maxNameLen, ErrEmptyName, ErrNameTooLong)
}

// BudgetFor returns the budget set for the month. Months without an explicit
// entry have no budget; nothing is carried over from other months.
func (c Category) BudgetFor(m MonthKey) Money {
	return c.MonthlyBudgets[m]
}

// SpendingFor returns the stored spending accumulator for the month.
func (c Category) SpendingFor(m MonthKey) MonthSpending {
	return c.MonthlySpending[m]
}

// Clone returns a deep copy so callers can mutate the maps freely.
func (c Category) Clone() Category {
	out := c
	out.MonthlyBudgets = make(map[MonthKey]Money, len(c.MonthlyBudgets))
	for k, v := range c.MonthlyBudgets {
		out.MonthlyBudgets[k] = v
	}
	out.MonthlySpending = make(map[MonthKey]MonthSpending, len(c.MonthlySpending))
	for k, v := range c.MonthlySpending {
		out.MonthlySpending[k] = v
	}
	return out
}

// DefaultSettings returns the settings created on a user's first read.
func DefaultSettings(userID string, now time.Time) UserSettings {
	return UserSettings{
		UserID:   userID,
		Currency: "USD",
		Theme:    "system",
		Notifications: Notifications{
			Email:        true,
			BudgetAlerts: true,
			WeeklyReport: false,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s Share) Active() bool {
	return s.RevokedAt == nil
}

func (s Share) Validate() error {
	addr, err := mail.ParseAddress(strings.TrimSpace(s.Email))
	if err != nil || addr.Address != strings.TrimSpace(s.Email) {
		return ErrInvalidEmail
	}
	return nil
}

func (s Subscription) Validate() error {
	if err := validateText(s.Name, maxNameLen, ErrEmptyName, ErrNameTooLong); err != nil {
		return err
	}
	if err := s.Amount.Validate(); err != nil {
		return err
	}
	if !s.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if s.Status != SubscriptionActive && s.Status != SubscriptionCancelled {
		return ErrInvalidStatus
	}
	return s.RenewalDate.Validate()
}

// AnchorDay falls back to the renewal date's day for subscriptions stored
// before the billing day was tracked.
func (s Subscription) AnchorDay() int {
	if s.BillingDay >= 1 && s.BillingDay <= 31 {
		return s.BillingDay
	}
	return s.RenewalDate.Day()
}

// DaysUntilRenewal is negative when the renewal date is already past.
func (s Subscription) DaysUntilRenewal(today Date) int {
	return DaysBetween(today, s.RenewalDate)
}

// MonthlyCost normalizes the subscription amount to a per-month figure.
func (s Subscription) MonthlyCost() Money {
	switch s.Frequency {
	case Yearly:
		return s.Amount.DivRound(12)
	case Weekly:
		return s.Amount.MulDivRound(52, 12)
	case Daily:
		return s.Amount.MulDivRound(365, 12)
	default:
		return s.Amount
	}
}

func validateText(s string, max int, empty, tooLong error) error {
	if strings.TrimSpace(s) == "" {
		return empty
	}
	if utf8.RuneCountInString(s) > max {
		return tooLong
	}
	return nil
}
