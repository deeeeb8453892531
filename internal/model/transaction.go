package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a ledger transaction header.
type Transaction struct {
	ID          string
	Date        time.Time
	Description string
}

// LedgerSplit is a split row as read from the ledger, before its account
// and transaction are resolved.
type LedgerSplit struct {
	ID            string
	TransactionID string
	AccountID     string
	Memo          string
	Value         decimal.Decimal
}

// Split is one signed leg of a transaction. Positive values are debits,
// negative values are credits.
type Split struct {
	ID          string
	Account     *Account
	Transaction *Transaction
	Memo        string
	Value       decimal.Decimal
}

// IsDebit reports whether the split is on the debit side.
func (s Split) IsDebit() bool { return s.Value.IsPositive() }

// IsCredit reports whether the split is on the credit side.
func (s Split) IsCredit() bool { return s.Value.IsNegative() }
