package journal

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gntoka/gntoka/internal/fileutil"
	"github.com/gntoka/gntoka/internal/model"
	"github.com/gntoka/gntoka/internal/textenc"
)

// Column names of the 会計王 journal import file, in wire order.
const (
	ColSlipNumber           = "伝票番号"
	ColLineNumber           = "行番号"
	ColDate                 = "伝票日付"
	ColDebitCode            = "借方科目コード"
	ColDebitName            = "借方科目名称"
	ColDebitSupCode         = "借方補助コード"
	ColDebitSupName         = "借方補助科目名称"
	ColDebitDeptCode        = "借方部門コード"
	ColDebitDeptName        = "借方部門名称"
	ColDebitTaxClass        = "借方課税区分"
	ColDebitBizCategory     = "借方事業分類"
	ColDebitTaxMethod       = "借方消費税処理方法"
	ColDebitTaxRate         = "借方消費税率"
	ColDebitAmount          = "借方金額"
	ColDebitTaxAmount       = "借方消費税額"
	ColCreditCode           = "貸方科目コード"
	ColCreditName           = "貸方科目名称"
	ColCreditSupCode        = "貸方補助コード"
	ColCreditSupName        = "貸方補助科目名称"
	ColCreditDeptCode       = "貸方部門コード"
	ColCreditDeptName       = "貸方部門名称"
	ColCreditTaxClass       = "貸方課税区分"
	ColCreditBizCategory    = "貸方事業分類"
	ColCreditTaxMethod      = "貸方消費税処理方法"
	ColCreditTaxRate        = "貸方消費税率"
	ColCreditAmount         = "貸方金額"
	ColCreditTaxAmount      = "貸方消費税額"
	ColSummary              = "摘要"
	ColSupplementarySummary = "補助摘要"
	ColMemo                 = "メモ"
	ColTag1                 = "付箋１"
	ColTag2                 = "付箋２"
	ColSlipType             = "伝票種別"
)

// Columns is the header row.
var Columns = []string{
	ColSlipNumber, ColLineNumber, ColDate,
	ColDebitCode, ColDebitName, ColDebitSupCode, ColDebitSupName,
	ColDebitDeptCode, ColDebitDeptName, ColDebitTaxClass, ColDebitBizCategory,
	ColDebitTaxMethod, ColDebitTaxRate, ColDebitAmount, ColDebitTaxAmount,
	ColCreditCode, ColCreditName, ColCreditSupCode, ColCreditSupName,
	ColCreditDeptCode, ColCreditDeptName, ColCreditTaxClass, ColCreditBizCategory,
	ColCreditTaxMethod, ColCreditTaxRate, ColCreditAmount, ColCreditTaxAmount,
	ColSummary, ColSupplementarySummary, ColMemo,
	ColTag1, ColTag2, ColSlipType,
}

const (
	numFields  = 33
	dateFormat = "2006/01/02"
	lineEnd    = "\r\n"

	colSlip     = 0
	colLine     = 1
	colDate     = 2
	colDebit    = 3  // first debit leg column
	colCredit   = 15 // first credit leg column
	colSummary  = 27
	colSupSum   = 28
	colMemo     = 29
	colTag1     = 30
	colTag2     = 31
	colSlipType = 32
	legFields   = 12
)

// Leg column offsets relative to colDebit / colCredit.
const (
	legCode = iota
	legName
	legSupCode
	legSupName
	legDeptCode
	legDeptName
	legTaxClass
	legBizCategory
	legTaxMethod
	legTaxRate
	legAmount
	legTaxAmount
)

// MarshalEntry converts a JournalEntry to a row in wire order.
func MarshalEntry(e model.JournalEntry) ([]string, error) {
	row := make([]string, numFields)
	row[colSlip] = strconv.Itoa(e.SlipNumber)
	row[colLine] = strconv.Itoa(e.LineNumber)
	row[colDate] = e.Date.Format(dateFormat)

	if err := marshalLeg(row[colDebit:colDebit+legFields], e.Debit); err != nil {
		return nil, fmt.Errorf("slip %d line %d debit: %w", e.SlipNumber, e.LineNumber, err)
	}
	if err := marshalLeg(row[colCredit:colCredit+legFields], e.Credit); err != nil {
		return nil, fmt.Errorf("slip %d line %d credit: %w", e.SlipNumber, e.LineNumber, err)
	}

	row[colSummary] = e.Summary
	row[colSupSum] = e.SupplementarySummary
	row[colMemo] = e.Memo
	row[colTag1] = e.Tag1
	row[colTag2] = e.Tag2
	row[colSlipType] = e.SlipType
	return row, nil
}

func marshalLeg(cols []string, leg model.JournalLeg) error {
	rate, err := leg.TaxRate.Label()
	if err != nil {
		return err
	}
	cols[legCode] = codeOrSentinel(leg.AccountCode)
	cols[legName] = leg.AccountName
	cols[legSupCode] = codeOrSentinel(leg.SupplementaryCode)
	cols[legSupName] = leg.SupplementaryName
	cols[legDeptCode] = leg.DepartmentCode
	cols[legDeptName] = leg.DepartmentName
	cols[legTaxClass] = leg.TaxClass
	cols[legBizCategory] = leg.BusinessCategory
	cols[legTaxMethod] = leg.TaxMethod
	cols[legTaxRate] = rate
	cols[legAmount] = leg.Amount.String()
	cols[legTaxAmount] = leg.TaxAmount.String()
	return nil
}

// UnmarshalEntry converts a row in wire order back to a JournalEntry.
func UnmarshalEntry(record []string) (model.JournalEntry, error) {
	if len(record) != numFields {
		return model.JournalEntry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	slip, err := strconv.Atoi(record[colSlip])
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("parsing %s %q: %w", ColSlipNumber, record[colSlip], err)
	}
	line, err := strconv.Atoi(record[colLine])
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("parsing %s %q: %w", ColLineNumber, record[colLine], err)
	}
	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("parsing %s %q: %w", ColDate, record[colDate], err)
	}

	debit, err := unmarshalLeg(record[colDebit : colDebit+legFields])
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("debit: %w", err)
	}
	credit, err := unmarshalLeg(record[colCredit : colCredit+legFields])
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("credit: %w", err)
	}

	return model.JournalEntry{
		SlipNumber:           slip,
		LineNumber:           line,
		Date:                 date,
		Debit:                debit,
		Credit:               credit,
		Summary:              record[colSummary],
		SupplementarySummary: record[colSupSum],
		Memo:                 record[colMemo],
		Tag1:                 record[colTag1],
		Tag2:                 record[colTag2],
		SlipType:             record[colSlipType],
	}, nil
}

func unmarshalLeg(cols []string) (model.JournalLeg, error) {
	rate, err := model.ParseTaxRate(cols[legTaxRate])
	if err != nil {
		return model.JournalLeg{}, err
	}
	amount, err := decimal.NewFromString(cols[legAmount])
	if err != nil {
		return model.JournalLeg{}, fmt.Errorf("parsing amount %q: %w", cols[legAmount], err)
	}
	tax, err := decimal.NewFromString(cols[legTaxAmount])
	if err != nil {
		return model.JournalLeg{}, fmt.Errorf("parsing tax amount %q: %w", cols[legTaxAmount], err)
	}
	return model.JournalLeg{
		AccountCode:       cols[legCode],
		AccountName:       cols[legName],
		SupplementaryCode: cols[legSupCode],
		SupplementaryName: cols[legSupName],
		DepartmentCode:    cols[legDeptCode],
		DepartmentName:    cols[legDeptName],
		TaxClass:          cols[legTaxClass],
		BusinessCategory:  cols[legBizCategory],
		TaxMethod:         cols[legTaxMethod],
		TaxRate:           rate,
		Amount:            amount,
		TaxAmount:         tax,
	}, nil
}

// Rows marshals entries, header first.
func Rows(entries []model.JournalEntry) ([][]string, error) {
	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, Columns)
	for _, e := range entries {
		row, err := MarshalEntry(e)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteEntries writes the import file: header plus one row per entry,
// every field quoted, CRLF line ends, Shift_JIS encoded.
func WriteEntries(w io.Writer, entries []model.JournalEntry) error {
	rows, err := Rows(entries)
	if err != nil {
		return err
	}

	enc := textenc.NewWriter(w)
	bw := bufio.NewWriter(enc)
	for i, row := range rows {
		if err := writeQuoted(bw, row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("encoding journal: %w", err)
	}
	return enc.Close()
}

func writeQuoted(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		w.WriteByte('"')
	}
	_, err := w.WriteString(lineEnd)
	return err
}

// ReadEntries reads an import file written by WriteEntries.
func ReadEntries(r io.Reader) ([]model.JournalEntry, error) {
	cr := csv.NewReader(textenc.NewReader(r))
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading journal CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var entries []model.JournalEntry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// WriteFile writes the import file to path. Output is staged in a
// temporary file next to path and renamed into place once complete, so a
// failed run never leaves a partial file behind.
func WriteFile(path string, entries []model.JournalEntry) error {
	return fileutil.Commit(path, func(w io.Writer) error {
		return WriteEntries(w, entries)
	})
}
