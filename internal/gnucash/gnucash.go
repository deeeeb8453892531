// Package gnucash reads accounts, transactions and splits from a GnuCash
// book saved in the SQLite backend.
package gnucash

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/shopspring/decimal"

	"github.com/gntoka/gntoka/internal/model"
)

const (
	selectAccounts = `
		SELECT guid, name, COALESCE(parent_guid, '')
		FROM accounts`

	selectTransactions = `
		SELECT guid, COALESCE(post_date, ''), COALESCE(description, '')
		FROM transactions
		ORDER BY post_date, guid`

	selectSplits = `
		SELECT guid, tx_guid, account_guid, COALESCE(memo, ''), value_num, value_denom
		FROM splits
		ORDER BY rowid`
)

// postDateLayout matches the date part of transactions.post_date
// ("2024-01-05 10:59:00").
const postDateLayout = "2006-01-02"

// Book is a read-only connection to a GnuCash SQLite file.
type Book struct {
	db   *sql.DB
	path string
}

// Open opens the GnuCash book at path read-only.
func Open(path string) (*Book, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening gnucash book: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?mode=ro", path)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Book{db: db, path: path}, nil
}

// Close closes the database connection.
func (b *Book) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

// Path returns the book file path.
func (b *Book) Path() string {
	return b.path
}

// Accounts returns every account in the book.
func (b *Book) Accounts(ctx context.Context) ([]model.LedgerAccount, error) {
	rows, err := b.db.QueryContext(ctx, selectAccounts)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.LedgerAccount
	for rows.Next() {
		var a model.LedgerAccount
		if err := rows.Scan(&a.ID, &a.Name, &a.ParentID); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Transactions returns every transaction in the book ordered by post date.
func (b *Book) Transactions(ctx context.Context) ([]model.Transaction, error) {
	rows, err := b.db.QueryContext(ctx, selectTransactions)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		var tx model.Transaction
		var postDate string
		if err := rows.Scan(&tx.ID, &postDate, &tx.Description); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Date, err = ParsePostDate(postDate)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// Splits returns every split in the book in storage order.
func (b *Book) Splits(ctx context.Context) ([]model.LedgerSplit, error) {
	rows, err := b.db.QueryContext(ctx, selectSplits)
	if err != nil {
		return nil, fmt.Errorf("failed to query splits: %w", err)
	}
	defer rows.Close()

	var splits []model.LedgerSplit
	for rows.Next() {
		var s model.LedgerSplit
		var num, denom int64
		if err := rows.Scan(&s.ID, &s.TransactionID, &s.AccountID, &s.Memo, &num, &denom); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		s.Value, err = Rational(num, denom)
		if err != nil {
			return nil, fmt.Errorf("split %s: %w", s.ID, err)
		}
		splits = append(splits, s)
	}
	return splits, rows.Err()
}

// ParsePostDate parses the date part of a GnuCash post_date column.
func ParsePostDate(s string) (time.Time, error) {
	if len(s) < len(postDateLayout) {
		return time.Time{}, fmt.Errorf("invalid post date %q", s)
	}
	d, err := time.Parse(postDateLayout, s[:len(postDateLayout)])
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing post date %q: %w", s, err)
	}
	return d, nil
}

// Rational converts a GnuCash num/denom pair to a decimal. Pairs without
// a finite decimal value are rejected so that balance checks stay exact.
func Rational(num, denom int64) (decimal.Decimal, error) {
	if denom == 0 {
		return decimal.Decimal{}, errors.New("zero denominator")
	}
	exp := int32(0)
	d := denom
	for d > 1 && d%10 == 0 {
		d /= 10
		exp--
	}
	if d == 1 {
		return decimal.New(num, exp), nil
	}
	n, dn := decimal.NewFromInt(num), decimal.NewFromInt(denom)
	q := n.Div(dn)
	if !q.Mul(dn).Equal(n) {
		return decimal.Decimal{}, fmt.Errorf("amount %d/%d has no exact decimal value", num, denom)
	}
	return q, nil
}
