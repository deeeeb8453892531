package model

// NoAccount is the code 会計王 expects when a leg has no (supplementary) account.
const NoAccount = "0"

// RootAccountName is the name GnuCash gives the top of the account tree.
const RootAccountName = "Root Account"

// LedgerAccount is an account row as read from the ledger.
type LedgerAccount struct {
	ID       string
	Name     string
	ParentID string // "" = no parent
}

// Link maps a full ledger account name to its 会計王 representation.
type Link struct {
	Name              string // full ledger name, e.g. "Expenses:Travel"
	Code              string
	SupplementaryCode string
	AccountName       string
	SupplementaryName string
}

// Account is a ledger account joined with its 会計王 link.
type Account struct {
	ID       string
	Name     string
	ParentID string
	FullName string

	Code              string
	SupplementaryCode string
	AccountName       string
	SupplementaryName string
	Linked            bool
}

// NewAccount returns an unlinked Account. Codes start at NoAccount.
func NewAccount(raw LedgerAccount, fullName string) *Account {
	return &Account{
		ID:                raw.ID,
		Name:              raw.Name,
		ParentID:          raw.ParentID,
		FullName:          fullName,
		Code:              NoAccount,
		SupplementaryCode: NoAccount,
	}
}

// ApplyLink copies the 会計王 fields of l onto a. Empty codes keep the
// NoAccount sentinel.
func (a *Account) ApplyLink(l Link) {
	if l.Code != "" {
		a.Code = l.Code
	}
	if l.SupplementaryCode != "" {
		a.SupplementaryCode = l.SupplementaryCode
	}
	a.AccountName = l.AccountName
	a.SupplementaryName = l.SupplementaryName
	a.Linked = true
}

// AsLink returns the account's current link, keyed by its full name.
func (a *Account) AsLink() Link {
	l := Link{Name: a.FullName}
	if a.Linked {
		l.Code = a.Code
		l.SupplementaryCode = a.SupplementaryCode
		l.AccountName = a.AccountName
		l.SupplementaryName = a.SupplementaryName
	}
	return l
}
