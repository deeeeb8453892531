package journal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gntoka/gntoka/internal/model"
)

// ValidationError describes a journal entry that the import format cannot
// represent.
type ValidationError struct {
	SlipNumber  int
	LineNumber  int
	Field       string
	Description string
	Err         error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("slip %d line %d: %s: %s", e.SlipNumber, e.LineNumber, e.Field, e.Description)
}

func (e ValidationError) Unwrap() error { return e.Err }

// ValidateEntry checks the numeric bounds and enumerations of one entry.
func ValidateEntry(e model.JournalEntry) []ValidationError {
	var errs []ValidationError
	fail := func(field, desc string, err error) {
		errs = append(errs, ValidationError{
			SlipNumber:  e.SlipNumber,
			LineNumber:  e.LineNumber,
			Field:       field,
			Description: desc,
			Err:         err,
		})
	}

	if e.SlipNumber < 1 || e.SlipNumber > MaxSlipNumber {
		fail(ColSlipNumber, fmt.Sprintf("%d not in 1..%d", e.SlipNumber, MaxSlipNumber), model.ErrOutOfRange)
	}
	if e.LineNumber < 1 || e.LineNumber > MaxLineNumber {
		fail(ColLineNumber, fmt.Sprintf("%d not in 1..%d", e.LineNumber, MaxLineNumber), model.ErrOutOfRange)
	}

	amounts := []struct {
		field string
		value decimal.Decimal
	}{
		{ColDebitAmount, e.Debit.Amount},
		{ColDebitTaxAmount, e.Debit.TaxAmount},
		{ColCreditAmount, e.Credit.Amount},
		{ColCreditTaxAmount, e.Credit.TaxAmount},
	}
	for _, a := range amounts {
		if a.value.Abs().GreaterThan(MaxAmount) {
			fail(a.field, fmt.Sprintf("%s exceeds ±%s", a.value, MaxAmount), model.ErrOutOfRange)
		}
	}

	if _, err := e.Debit.TaxRate.Label(); err != nil {
		fail(ColDebitTaxRate, err.Error(), model.ErrTaxRate)
	}
	if _, err := e.Credit.TaxRate.Label(); err != nil {
		fail(ColCreditTaxRate, err.Error(), model.ErrTaxRate)
	}

	return errs
}

// ValidateEntries enforces the per-entry checks plus the invariants that
// span a journal: every slip balances, its lines run 1..N, and slip numbers
// are unique.
func ValidateEntries(entries []model.JournalEntry) []ValidationError {
	var errs []ValidationError

	type slipTotals struct {
		debit, credit decimal.Decimal
		lines         map[int]bool
		maxLine       int
	}
	slips := make(map[int]*slipTotals)
	var order []int
	owner := make(map[int]string)

	for _, e := range entries {
		errs = append(errs, ValidateEntry(e)...)

		st, ok := slips[e.SlipNumber]
		if !ok {
			st = &slipTotals{lines: make(map[int]bool)}
			slips[e.SlipNumber] = st
			order = append(order, e.SlipNumber)
			owner[e.SlipNumber] = e.TransactionID
		} else if owner[e.SlipNumber] != e.TransactionID {
			errs = append(errs, ValidationError{
				SlipNumber:  e.SlipNumber,
				LineNumber:  e.LineNumber,
				Field:       ColSlipNumber,
				Description: fmt.Sprintf("shared by transactions %s and %s", owner[e.SlipNumber], e.TransactionID),
				Err:         model.ErrOutOfRange,
			})
		}
		st.debit = st.debit.Add(e.Debit.Amount)
		st.credit = st.credit.Add(e.Credit.Amount)
		if st.lines[e.LineNumber] {
			errs = append(errs, ValidationError{
				SlipNumber:  e.SlipNumber,
				LineNumber:  e.LineNumber,
				Field:       ColLineNumber,
				Description: "duplicate line number",
				Err:         model.ErrOutOfRange,
			})
		}
		st.lines[e.LineNumber] = true
		st.maxLine = max(st.maxLine, e.LineNumber)
	}

	for _, n := range order {
		st := slips[n]
		if !st.debit.Equal(st.credit) {
			errs = append(errs, ValidationError{
				SlipNumber:  n,
				Field:       ColDebitAmount,
				Description: fmt.Sprintf("debits (%s) != credits (%s)", st.debit, st.credit),
				Err:         model.ErrUnbalanced,
			})
		}
		if len(st.lines) != st.maxLine {
			errs = append(errs, ValidationError{
				SlipNumber:  n,
				Field:       ColLineNumber,
				Description: fmt.Sprintf("%d distinct lines but highest line number is %d", len(st.lines), st.maxLine),
				Err:         model.ErrOutOfRange,
			})
		}
	}

	return errs
}
