package currency

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"fintrack/internal/core"
)

// Format renders symbol followed by the amount with exactly two decimals and
// no grouping, e.g. "€12.50". Unknown codes render without a symbol.
func (t *Table) Format(m core.Money, code string) string {
	return t.Symbol(code) + m.String()
}

// FormatLocalized renders the amount with the grouping and decimal separators
// of tag, e.g. "$1,234.50" for English or "€1.234,50" for German.
func (t *Table) FormatLocalized(m core.Money, code string, tag language.Tag) string {
	p := message.NewPrinter(tag)
	return t.Symbol(code) + p.Sprint(number.Decimal(m.Float(), number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}
