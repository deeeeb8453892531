package journal

import (
	"slices"

	"github.com/gntoka/gntoka/internal/model"
)

// GroupByTransaction collects splits per transaction, keeping split order
// within a group, and orders the groups by transaction date. Groups with
// the same date keep the order in which their first split was seen.
// Transactions with fewer than two splits cannot form a double entry and
// are dropped.
func GroupByTransaction(splits []model.Split) [][]model.Split {
	index := make(map[string]int)
	var groups [][]model.Split
	for _, s := range splits {
		i, ok := index[s.Transaction.ID]
		if !ok {
			i = len(groups)
			index[s.Transaction.ID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], s)
	}

	slices.SortStableFunc(groups, func(a, b []model.Split) int {
		return a[0].Transaction.Date.Compare(b[0].Transaction.Date)
	})

	return slices.DeleteFunc(groups, func(g []model.Split) bool {
		return len(g) < 2
	})
}

// FilterAccounts keeps the groups that touch at least one of the given
// account ids.
func FilterAccounts(groups [][]model.Split, ids map[string]bool) [][]model.Split {
	var kept [][]model.Split
	for _, g := range groups {
		if slices.ContainsFunc(g, func(s model.Split) bool { return ids[s.Account.ID] }) {
			kept = append(kept, g)
		}
	}
	return kept
}

// Partition splits a group into debits (positive) and credits (negative),
// preserving order. Zero-value splits belong to neither side.
func Partition(group []model.Split) (debits, credits []model.Split) {
	for _, s := range group {
		switch {
		case s.IsDebit():
			debits = append(debits, s)
		case s.IsCredit():
			credits = append(credits, s)
		}
	}
	return debits, credits
}

// SortByDate orders entries by slip date. Entries on the same date keep
// their relative order.
func SortByDate(entries []model.JournalEntry) {
	slices.SortStableFunc(entries, func(a, b model.JournalEntry) int {
		return a.Date.Compare(b.Date)
	})
}
