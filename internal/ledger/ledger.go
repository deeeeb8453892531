// Package ledger describes the read-only view of a double-entry book that
// the journal export consumes.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/gntoka/gntoka/internal/model"
)

// Period is an inclusive date range. A zero bound is open.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls inside the period. Only the calendar
// date of d is compared.
func (p Period) Contains(d time.Time) bool {
	day := truncateDay(d)
	if !p.Start.IsZero() && day.Before(truncateDay(p.Start)) {
		return false
	}
	if !p.End.IsZero() && day.After(truncateDay(p.End)) {
		return false
	}
	return true
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Tables holds the three record sets read from a ledger.
type Tables struct {
	Accounts     []model.LedgerAccount
	Transactions []model.Transaction
	Splits       []model.LedgerSplit
}

// Source reads a ledger.
type Source interface {
	Accounts(ctx context.Context) ([]model.LedgerAccount, error)
	Transactions(ctx context.Context) ([]model.Transaction, error)
	Splits(ctx context.Context) ([]model.LedgerSplit, error)
}

// Load reads all three tables from src.
func Load(ctx context.Context, src Source) (Tables, error) {
	var t Tables
	var err error
	if t.Accounts, err = src.Accounts(ctx); err != nil {
		return Tables{}, fmt.Errorf("reading accounts: %w", err)
	}
	if t.Transactions, err = src.Transactions(ctx); err != nil {
		return Tables{}, fmt.Errorf("reading transactions: %w", err)
	}
	if t.Splits, err = src.Splits(ctx); err != nil {
		return Tables{}, fmt.Errorf("reading splits: %w", err)
	}
	return t, nil
}

// AccountLookup finds linked accounts by ledger id.
type AccountLookup interface {
	Get(id string) (*model.Account, bool)
}

// Resolve attaches accounts and transactions to the split rows, keeping
// only splits whose transaction falls inside period. Order is preserved.
// A split naming an account or transaction that does not exist is a data
// integrity error.
func Resolve(t Tables, accounts AccountLookup, period Period) ([]model.Split, error) {
	txByID := make(map[string]*model.Transaction, len(t.Transactions))
	for i := range t.Transactions {
		tx := &t.Transactions[i]
		txByID[tx.ID] = tx
	}

	var splits []model.Split
	for _, raw := range t.Splits {
		acct, ok := accounts.Get(raw.AccountID)
		if !ok {
			return nil, fmt.Errorf("split %s: account %s: %w", raw.ID, raw.AccountID, model.ErrUnknownAccount)
		}
		tx, ok := txByID[raw.TransactionID]
		if !ok {
			return nil, fmt.Errorf("split %s: transaction %s: %w", raw.ID, raw.TransactionID, model.ErrUnknownTransaction)
		}
		if !period.Contains(tx.Date) {
			continue
		}
		splits = append(splits, model.Split{
			ID:          raw.ID,
			Account:     acct,
			Transaction: tx,
			Memo:        raw.Memo,
			Value:       raw.Value,
		})
	}
	return splits, nil
}

// Static is a Source over tables already in memory.
type Static struct {
	Tables Tables
}

// Accounts implements Source.
func (s *Static) Accounts(context.Context) ([]model.LedgerAccount, error) {
	return s.Tables.Accounts, nil
}

// Transactions implements Source.
func (s *Static) Transactions(context.Context) ([]model.Transaction, error) {
	return s.Tables.Transactions, nil
}

// Splits implements Source.
func (s *Static) Splits(context.Context) ([]model.LedgerSplit, error) {
	return s.Tables.Splits, nil
}
