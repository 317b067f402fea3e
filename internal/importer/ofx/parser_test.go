package ofx

import (
	"context"
	"strings"
	"testing"

	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

const header = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
`

const sampleBankOFX = header + `<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>POS PURCHASE STARBUCKS #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>STARBUCKS #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240131120000[0:GMT]
<TRNAMT>3000.00
<FITID>2024013101
<NAME>CREDIT
<MEMO>ACME PAYROLL
</STMTTRN>
<STMTTRN>
<TRNTYPE>OTHER
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>0.00
<FITID>2024012001
<NAME>Zero adjustment
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = header + `<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-45.99
<FITID>CC2024011001
<NAME>AMAZON.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParse(t *testing.T) {
	tests := []struct {
		name          string
		data          string
		expectedCount int
		expectedError bool
	}{
		{"bank statement", sampleBankOFX, 2, false},
		{"credit card statement", sampleCreditCardOFX, 1, false},
		{"leading blank lines", "\n\n  " + sampleCreditCardOFX, 1, false},
		{"invalid OFX data", "not valid OFX", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := Parse(context.Background(), strings.NewReader(tt.data))
			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, entries, tt.expectedCount)
		})
	}
}

func TestParseMapsBankEntries(t *testing.T) {
	entries, err := Parse(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	coffee := entries[0]
	assert.Equal(t, "2024011501", coffee.FITID)
	assert.Equal(t, "1234567890", coffee.Account)
	assert.Equal(t, core.Expense, coffee.Type)
	assert.Equal(t, core.Cents(2550), coffee.Amount)
	assert.Equal(t, "STARBUCKS #1234", coffee.Description)
	assert.Equal(t, "2024-01-15", coffee.Date.String())

	salary := entries[1]
	assert.Equal(t, core.Income, salary.Type)
	assert.Equal(t, core.Cents(300000), salary.Amount)
	assert.Equal(t, "ACME PAYROLL", salary.Description, "generic NAME falls back to MEMO")
}

func TestDescription(t *testing.T) {
	tests := []struct {
		name string
		tx   ofxgo.Transaction
		want string
	}{
		{"payee wins", ofxgo.Transaction{Payee: &ofxgo.Payee{Name: "Corner Shop"}, Name: "DEBIT"}, "Corner Shop"},
		{"prefix stripped", ofxgo.Transaction{Name: "CHECK CARD Gas Station"}, "Gas Station"},
		{"leading date stripped", ofxgo.Transaction{Name: "03/14 Bakery"}, "Bakery"},
		{"empty falls back", ofxgo.Transaction{}, fallbackDescription},
		{"long truncated", ofxgo.Transaction{Name: ofxgo.String(strings.Repeat("é", 150))}, strings.Repeat("é", 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, description(tt.tx))
		})
	}
}

func TestPreprocess(t *testing.T) {
	in := "\n\n<SEVERITY>Warn</SEVERITY>\n<CODE\n"
	out := preprocess(in)
	assert.Equal(t, "<SEVERITY>WARN</SEVERITY>\n<CODE>\n", out)
}
