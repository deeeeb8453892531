package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TaxRate is the consumption tax rate column of a journal leg.
type TaxRate int

const (
	TaxRateZero TaxRate = iota
	TaxRateReduced8
	TaxRateStandard10
)

// Label returns the import-format text for the rate.
func (r TaxRate) Label() (string, error) {
	switch r {
	case TaxRateZero:
		return "0%", nil
	case TaxRateReduced8:
		return "8%軽", nil
	case TaxRateStandard10:
		return "10%", nil
	}
	return "", fmt.Errorf("%w: %d", ErrTaxRate, int(r))
}

// ParseTaxRate is the inverse of Label.
func ParseTaxRate(s string) (TaxRate, error) {
	switch s {
	case "0%":
		return TaxRateZero, nil
	case "8%軽":
		return TaxRateReduced8, nil
	case "10%":
		return TaxRateStandard10, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrTaxRate, s)
}

// JournalLeg is one side (借方 or 貸方) of a journal entry.
type JournalLeg struct {
	AccountCode       string
	AccountName       string
	SupplementaryCode string
	SupplementaryName string
	DepartmentCode    string
	DepartmentName    string
	TaxClass          string
	BusinessCategory  string
	TaxMethod         string
	TaxRate           TaxRate
	Amount            decimal.Decimal
	TaxAmount         decimal.Decimal
}

// JournalEntry is one 会計王 journal line. Lines sharing a SlipNumber
// form one slip.
type JournalEntry struct {
	SlipNumber           int
	LineNumber           int
	Date                 time.Time
	Debit                JournalLeg
	Credit               JournalLeg
	Summary              string
	SupplementarySummary string
	Memo                 string
	Tag1                 string
	Tag2                 string
	SlipType             string

	// TransactionID is the ledger transaction the entry came from. It is not
	// part of the import format.
	TransactionID string
}
