// Package ofx turns OFX/QFX bank and credit card statements into
// transaction drafts.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	fallbackDescription = "Imported transaction"
	maxDescriptionBytes = 200
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)

	descriptionPrefixes = []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	genericNames = map[string]bool{
		"DEBIT":           true,
		"CREDIT":          true,
		"PURCHASE":        true,
		"PAYMENT":         true,
		"POS TRANSACTION": true,
		"CARD PURCHASE":   true,
	}
)

// Entry is one statement line mapped onto fintrack's transaction fields.
// Credits become income and debits expenses; Amount is always positive.
type Entry struct {
	FITID       string
	Account     string
	Type        core.TransactionType
	Amount      core.Money
	Description string
	Date        core.Date
}

// Parse reads a statement, skipping zero-amount lines and keeping only the
// first line for each FITID.
func Parse(ctx context.Context, r io.Reader) ([]Entry, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("parse OFX file: %w", err)
	}

	var (
		entries []Entry
		seen    = map[string]bool{}
		dupes   int
	)
	add := func(account string, list *ofxgo.TransactionList) {
		if list == nil {
			return
		}
		for _, t := range list.Transactions {
			e, ok := convert(t, account)
			if !ok {
				continue
			}
			if e.FITID != "" {
				if seen[e.FITID] {
					dupes++
					continue
				}
				seen[e.FITID] = true
			}
			entries = append(entries, e)
		}
	}

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			add(string(stmt.BankAcctFrom.AcctID), stmt.BankTranList)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			add(string(stmt.CCAcctFrom.AcctID), stmt.BankTranList)
		}
	}

	slog.InfoContext(ctx, "Parsed OFX statement",
		"entries", len(entries),
		"duplicates", dupes)
	return entries, nil
}

func preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

func convert(t ofxgo.Transaction, account string) (Entry, bool) {
	amt, err := decimal.NewFromString(t.TrnAmt.FloatString(2))
	if err != nil || amt.IsZero() {
		return Entry{}, false
	}
	typ := core.Income
	if amt.IsNegative() {
		typ = core.Expense
	}
	return Entry{
		FITID:       string(t.FiTID),
		Account:     account,
		Type:        typ,
		Amount:      core.MoneyFromDecimal(amt.Abs()),
		Description: description(t),
		Date:        core.DateOf(t.DtPosted.Time),
	}, true
}

// description prefers the payee, then NAME, then MEMO when NAME is generic.
func description(t ofxgo.Transaction) string {
	name := ""
	if t.Payee != nil && t.Payee.Name != "" {
		name = string(t.Payee.Name)
	} else {
		name = string(t.Name)
		if t.Memo != "" && (name == "" || genericNames[strings.ToUpper(strings.TrimSpace(name))]) {
			name = string(t.Memo)
		}
	}
	name = strings.TrimSpace(name)

	for _, prefix := range descriptionPrefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}
	// leading MM/DD
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	if name == "" {
		return fallbackDescription
	}
	for len(name) > maxDescriptionBytes {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}
	return name
}
