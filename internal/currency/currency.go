// Package currency holds the static table of supported currencies and their
// exchange rates against the US dollar.
package currency

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Base is the currency every rate in the table is expressed against.
const Base = "USD"

type Currency struct {
	Code   string          `json:"code"`
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
}

// Table is an immutable code -> currency lookup.
type Table struct {
	byCode map[string]Currency
	order  []string
}

func NewTable(currencies ...Currency) *Table {
	t := &Table{byCode: make(map[string]Currency, len(currencies))}
	for _, c := range currencies {
		if _, dup := t.byCode[c.Code]; !dup {
			t.order = append(t.order, c.Code)
		}
		t.byCode[c.Code] = c
	}
	return t
}

// Default is the table the application ships with.
var Default = NewTable(
	Currency{Code: "USD", Symbol: "$", Name: "US Dollar", Rate: decimal.NewFromInt(1)},
	Currency{Code: "EUR", Symbol: "€", Name: "Euro", Rate: decimal.RequireFromString("0.92")},
	Currency{Code: "GBP", Symbol: "£", Name: "British Pound", Rate: decimal.RequireFromString("0.79")},
	Currency{Code: "JPY", Symbol: "¥", Name: "Japanese Yen", Rate: decimal.RequireFromString("149.5")},
	Currency{Code: "CAD", Symbol: "C$", Name: "Canadian Dollar", Rate: decimal.RequireFromString("1.36")},
	Currency{Code: "AUD", Symbol: "A$", Name: "Australian Dollar", Rate: decimal.RequireFromString("1.53")},
	Currency{Code: "CHF", Symbol: "CHF", Name: "Swiss Franc", Rate: decimal.RequireFromString("0.88")},
	Currency{Code: "INR", Symbol: "₹", Name: "Indian Rupee", Rate: decimal.RequireFromString("83.2")},
	Currency{Code: "MXN", Symbol: "$", Name: "Mexican Peso", Rate: decimal.RequireFromString("17.05")},
	Currency{Code: "SGD", Symbol: "S$", Name: "Singapore Dollar", Rate: decimal.RequireFromString("1.35")},
)

func (t *Table) Lookup(code string) (Currency, bool) {
	c, ok := t.byCode[code]
	return c, ok
}

// Supported reports whether code is in the table.
func (t *Table) Supported(code string) bool {
	_, ok := t.byCode[code]
	return ok
}

// Codes returns the currency codes in table order.
func (t *Table) Codes() []string {
	return append([]string(nil), t.order...)
}

// All returns the currencies in table order.
func (t *Table) All() []Currency {
	out := make([]Currency, 0, len(t.order))
	for _, code := range t.order {
		out = append(out, t.byCode[code])
	}
	return out
}

func (t *Table) Symbol(code string) string {
	return t.byCode[code].Symbol
}

func (t *Table) Name(code string) string {
	return t.byCode[code].Name
}

// Convert goes through the base currency: amount / from.rate * to.rate.
func (t *Table) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	src, ok := t.byCode[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("convert from %q: %w", from, core.ErrUnknownCurrency)
	}
	dst, ok := t.byCode[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("convert to %q: %w", to, core.ErrUnknownCurrency)
	}
	if from == to {
		return amount, nil
	}
	return amount.DivRound(src.Rate, 16).Mul(dst.Rate), nil
}

// ConvertMoney converts and rounds the result to whole cents.
func (t *Table) ConvertMoney(m core.Money, from, to string) (core.Money, error) {
	d, err := t.Convert(m.Decimal(), from, to)
	if err != nil {
		return core.Money{}, err
	}
	return core.MoneyFromDecimal(d), nil
}
