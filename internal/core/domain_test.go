package core

import (
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Type:        Expense,
		Amount:      Cents(100),
		Description: "groceries",
		Date:        NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		tx   Transaction
		want error
	}{
		{Transaction{Type: "transfer", Amount: Cents(1), Description: "a", Date: NewDate(2025, 1, 1)}, ErrInvalidType},
		{Transaction{Type: Income, Amount: Cents(0), Description: "a", Date: NewDate(2025, 1, 1)}, ErrInvalidAmount},
		{Transaction{Type: Income, Amount: Cents(1), Description: "  ", Date: NewDate(2025, 1, 1)}, ErrEmptyDescription},
		{Transaction{Type: Income, Amount: Cents(1), Description: strings.Repeat("x", 201), Date: NewDate(2025, 1, 1)}, ErrDescriptionTooLong},
		{Transaction{Type: Income, Amount: Cents(1), Description: "a"}, ErrInvalidDate},
	}
	for i, tc := range bads {
		if err := tc.tx.Validate(); err != tc.want {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestValidateTextCountsCharacters(t *testing.T) {
	tx := Transaction{Type: Expense, Amount: Cents(1), Description: strings.Repeat("è", 200), Date: NewDate(2025, 1, 1)}
	if err := tx.Validate(); err != nil {
		t.Fatalf("200 accented characters should be accepted, got %v", err)
	}
	tx.Description += "è"
	if err := tx.Validate(); err != ErrDescriptionTooLong {
		t.Fatalf("expected ErrDescriptionTooLong, got %v", err)
	}

	s := Subscription{
		Name:        strings.Repeat("日", 60),
		Amount:      Cents(100),
		Frequency:   Monthly,
		RenewalDate: NewDate(2025, 1, 1),
		Status:      SubscriptionActive,
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("60 CJK characters should be accepted, got %v", err)
	}
}

func TestSubscriptionAnchorDay(t *testing.T) {
	s := Subscription{RenewalDate: NewDate(2025, 2, 28)}
	if got := s.AnchorDay(); got != 28 {
		t.Fatalf("anchor without billing day = %d", got)
	}
	s.BillingDay = 31
	if got := s.AnchorDay(); got != 31 {
		t.Fatalf("anchor = %d", got)
	}
}

func TestCategoryBudgetForIsNotInherited(t *testing.T) {
	c := Category{
		Name:           "Food",
		MonthlyBudgets: map[MonthKey]Money{"2025-03": Cents(50000)},
	}
	if got := c.BudgetFor("2025-03"); got.Cents != 50000 {
		t.Fatalf("march budget = %d", got.Cents)
	}
	if got := c.BudgetFor("2025-04"); !got.IsZero() {
		t.Fatalf("april should have no budget, got %d", got.Cents)
	}
	if got := c.BudgetFor("2025-02"); !got.IsZero() {
		t.Fatalf("february should have no budget, got %d", got.Cents)
	}
}

func TestCategoryCloneIsDeep(t *testing.T) {
	c := Category{
		MonthlyBudgets:  map[MonthKey]Money{"2025-03": Cents(100)},
		MonthlySpending: map[MonthKey]MonthSpending{"2025-03": {Spent: Cents(10), Transactions: 1}},
	}
	cp := c.Clone()
	cp.MonthlyBudgets["2025-03"] = Cents(999)
	cp.MonthlySpending["2025-04"] = MonthSpending{}
	if c.MonthlyBudgets["2025-03"].Cents != 100 {
		t.Fatalf("clone shares budget map")
	}
	if _, ok := c.MonthlySpending["2025-04"]; ok {
		t.Fatalf("clone shares spending map")
	}
}

func TestDefaultSettings(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s := DefaultSettings("u1", now)
	if s.Currency != "USD" || s.UserID != "u1" || !s.Notifications.BudgetAlerts {
		t.Fatalf("unexpected defaults: %+v", s)
	}
}

func TestShareValidate(t *testing.T) {
	if err := (Share{Email: "friend@example.com"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, bad := range []string{"", "not-an-email", "Friend <friend@example.com>"} {
		if err := (Share{Email: bad}).Validate(); err != ErrInvalidEmail {
			t.Fatalf("%q expected ErrInvalidEmail, got %v", bad, err)
		}
	}
}

func TestSubscriptionValidateAndCost(t *testing.T) {
	s := Subscription{
		Name:        "Streaming",
		Amount:      Cents(12000),
		Frequency:   Yearly,
		RenewalDate: NewDate(2025, 7, 1),
		Status:      SubscriptionActive,
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if got := s.MonthlyCost(); got.Cents != 1000 {
		t.Fatalf("monthly cost = %d", got.Cents)
	}
	if got := s.DaysUntilRenewal(NewDate(2025, 6, 24)); got != 7 {
		t.Fatalf("days until renewal = %d", got)
	}

	s.Frequency = "fortnightly"
	if err := s.Validate(); err != ErrInvalidFrequency {
		t.Fatalf("expected ErrInvalidFrequency, got %v", err)
	}
	s.Frequency = Monthly
	s.Status = "paused"
	if err := s.Validate(); err != ErrInvalidStatus {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestNormalizeIcon(t *testing.T) {
	if got := NormalizeIcon("Coffee"); got != "Coffee" {
		t.Fatalf("got %s", got)
	}
	if got := NormalizeIcon("Rocket"); got != DefaultIcon {
		t.Fatalf("got %s", got)
	}
}
