package accounts

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gntoka/gntoka/internal/model"
)

// Separator joins account names along the parent chain.
const Separator = ":"

// FullName derives the colon-joined name of an account by walking its
// parent chain. A top-level account named root is left out of the path.
func FullName(id string, byID map[string]model.LedgerAccount, root string) (string, error) {
	var parts []string
	seen := make(map[string]bool)
	for cur := id; cur != ""; {
		if seen[cur] {
			return "", fmt.Errorf("account %s: %w through %s", id, model.ErrAccountCycle, cur)
		}
		seen[cur] = true

		acct, ok := byID[cur]
		if !ok {
			return "", fmt.Errorf("account %s: parent %s: %w", id, cur, model.ErrUnknownAccount)
		}
		if acct.ParentID == "" && acct.Name == root && cur != id {
			break
		}
		parts = append(parts, acct.Name)
		cur = acct.ParentID
	}
	slices.Reverse(parts)
	return strings.Join(parts, Separator), nil
}

// Link derives full names for all ledger accounts and joins them with the
// mapping. Accounts without a mapping entry stay unlinked.
func Link(raw []model.LedgerAccount, links []model.Link, root string) (*Service, error) {
	byID := make(map[string]model.LedgerAccount, len(raw))
	for _, a := range raw {
		if _, dup := byID[a.ID]; dup {
			return nil, fmt.Errorf("duplicate account id %s", a.ID)
		}
		byID[a.ID] = a
	}

	byName := make(map[string]model.Link, len(links))
	for _, l := range links {
		if _, dup := byName[l.Name]; dup {
			return nil, fmt.Errorf("duplicate mapping for account %q", l.Name)
		}
		byName[l.Name] = l
	}

	accts := make([]*model.Account, 0, len(raw))
	for _, a := range raw {
		name, err := FullName(a.ID, byID, root)
		if err != nil {
			return nil, err
		}
		acct := model.NewAccount(a, name)
		if l, ok := byName[name]; ok {
			acct.ApplyLink(l)
		}
		accts = append(accts, acct)
	}
	return NewService(accts), nil
}
