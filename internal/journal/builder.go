package journal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gntoka/gntoka/internal/model"
	"github.com/gntoka/gntoka/internal/textenc"
)

// Field limits of the 会計王 import format, in Shift_JIS bytes for text.
const (
	MaxSlipNumber = 9_999_999
	MaxLineNumber = 999
	NameLimit     = 30
	MemoLimit     = 200
)

// MaxAmount bounds every amount column in both directions.
var MaxAmount = decimal.NewFromInt(9_999_999_999)

// Fixed column values shared by every entry. The import format leaves the
// credit tax class blank.
const (
	DepartmentCode   = "0"
	DebitTaxClass    = "0"
	CreditTaxClass   = ""
	BusinessCategory = "0"
	TaxMethod        = "3"
	Tag              = "0"
	SlipType         = "0"
)

// Builder turns balanced split groups into journal entries.
type Builder struct {
	counter *Counter
	text    textenc.Options
	logger  zerolog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithTextOptions sets the normalization applied to text columns.
func WithTextOptions(opts textenc.Options) Option {
	return func(b *Builder) { b.text = opts }
}

// WithLogger sets the logger used for memo truncation warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder creates a Builder drawing slip numbers from counter.
func NewBuilder(counter *Counter, opts ...Option) *Builder {
	b := &Builder{
		counter: counter,
		text:    textenc.DefaultOptions,
		logger:  zerolog.Nop(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// BuildAll builds every group in order. Slip numbers follow group order.
func (b *Builder) BuildAll(groups [][]model.Split) ([]model.JournalEntry, error) {
	var entries []model.JournalEntry
	for _, g := range groups {
		built, err := b.Build(g)
		if err != nil {
			return nil, err
		}
		entries = append(entries, built...)
	}
	return entries, nil
}

// Build converts the splits of one transaction into journal entries.
//
// One debit and one credit become a single entry. N debits funded by one
// credit (or N credits funded by one debit) become N entries sharing one
// slip number with lines 1..N in split order. Every other shape is
// rejected. A group with only zero-value splits yields nothing and
// consumes no slip number.
func (b *Builder) Build(group []model.Split) ([]model.JournalEntry, error) {
	if len(group) < 2 {
		return nil, fmt.Errorf("%w: %d split(s)", model.ErrUnsupportedShape, len(group))
	}
	tx := group[0].Transaction

	sum := decimal.Zero
	for _, s := range group {
		sum = sum.Add(s.Value)
	}
	if !sum.IsZero() {
		return nil, fmt.Errorf("transaction %s: %w: splits sum to %s", tx.ID, model.ErrUnbalanced, sum)
	}

	debits, credits := Partition(group)

	var larger []model.Split
	var single model.Split
	switch {
	case len(debits) == 0 && len(credits) == 0:
		return nil, nil
	case len(credits) == 1:
		larger, single = debits, credits[0]
	case len(debits) == 1:
		larger, single = credits, debits[0]
	default:
		return nil, fmt.Errorf("transaction %s: %w: %d debits and %d credits",
			tx.ID, model.ErrUnsupportedShape, len(debits), len(credits))
	}

	pos := make(map[string]int, len(group))
	for i, s := range group {
		pos[s.ID] = i
	}

	slip := b.counter.Next()
	entries := make([]model.JournalEntry, 0, len(larger))
	for i, s := range larger {
		debit, credit := s, single
		if s.IsCredit() {
			debit, credit = single, s
		}

		memos := []string{debit.Memo, credit.Memo}
		if pos[credit.ID] < pos[debit.ID] {
			memos[0], memos[1] = memos[1], memos[0]
		}

		e := b.entry(slip, i+1, tx, debit, credit, s.Value.Abs(), memos)
		if errs := ValidateEntry(e); len(errs) > 0 {
			return nil, fmt.Errorf("transaction %s: %w", tx.ID, joinValidation(errs))
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (b *Builder) entry(slip, line int, tx *model.Transaction, debit, credit model.Split, amount decimal.Decimal, memos []string) model.JournalEntry {
	e := model.JournalEntry{
		SlipNumber:    slip,
		LineNumber:    line,
		Date:          tx.Date,
		Debit:         b.leg(debit.Account, amount, DebitTaxClass),
		Credit:        b.leg(credit.Account, amount, CreditTaxClass),
		Tag1:          Tag,
		Tag2:          Tag,
		SlipType:      SlipType,
		TransactionID: tx.ID,
	}
	b.fitText(&e, joinNonEmpty(append([]string{tx.Description}, memos...)))
	return e
}

func (b *Builder) leg(acct *model.Account, amount decimal.Decimal, taxClass string) model.JournalLeg {
	return model.JournalLeg{
		AccountCode:       codeOrSentinel(b.normalize(acct.Code)),
		AccountName:       acct.AccountName,
		SupplementaryCode: codeOrSentinel(b.normalize(acct.SupplementaryCode)),
		SupplementaryName: acct.SupplementaryName,
		DepartmentCode:    DepartmentCode,
		TaxClass:          taxClass,
		BusinessCategory:  BusinessCategory,
		TaxMethod:         TaxMethod,
		TaxRate:           model.TaxRateZero,
		Amount:            amount,
		TaxAmount:         decimal.Zero,
	}
}

// fitText normalizes every text column and caps it. A capped column that
// overflows keeps its truncated prefix and its full text moves to the memo.
func (b *Builder) fitText(e *model.JournalEntry, memo string) {
	memo = b.normalize(memo)

	capped := []*string{
		&e.Debit.AccountName,
		&e.Debit.SupplementaryName,
		&e.Credit.AccountName,
		&e.Credit.SupplementaryName,
		&e.Summary,
		&e.SupplementarySummary,
	}
	var overflow []string
	for _, field := range capped {
		full := b.normalize(*field)
		fitted, cut := textenc.Fit(full, NameLimit)
		if cut && !strings.Contains(memo, full) {
			overflow = append(overflow, full)
		}
		*field = fitted
	}

	memo = joinNonEmpty(append([]string{memo}, overflow...))
	fitted, cut := textenc.Fit(memo, MemoLimit)
	if cut {
		b.logger.Warn().
			Str("transaction", e.TransactionID).
			Int("slip", e.SlipNumber).
			Int("line", e.LineNumber).
			Str("memo", memo).
			Msg("memo truncated")
	}
	e.Memo = fitted
}

func (b *Builder) normalize(s string) string {
	return textenc.Normalize(s, b.text)
}

func codeOrSentinel(code string) string {
	if code == "" {
		return model.NoAccount
	}
	return code
}

func joinNonEmpty(parts []string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

func joinValidation(verrs []ValidationError) error {
	errs := make([]error, len(verrs))
	for i, ve := range verrs {
		errs[i] = ve
	}
	return errors.Join(errs...)
}
