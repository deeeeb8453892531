package accounts

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/gntoka/gntoka/internal/model"
)

// Header is the CSV header of the account mapping file.
const Header = "name,account,account_supplementary,account_name,account_supplementary_name"

const (
	numFields   = 5
	colName     = 0
	colCode     = 1
	colSupCode  = 2
	colAcctName = 3
	colSupName  = 4
)

// ReadLinks reads an account mapping CSV.
func ReadLinks(r io.Reader) ([]model.Link, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading account mapping CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Spreadsheet tools like to prepend a BOM.
	records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	if got := strings.Join(records[0], ","); got != Header {
		return nil, fmt.Errorf("unexpected account mapping header %q", got)
	}

	var links []model.Link
	for i, rec := range records[1:] {
		link, err := UnmarshalLink(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		links = append(links, link)
	}
	return links, nil
}

// WriteLinks writes an account mapping CSV (including header).
func WriteLinks(w io.Writer, links []model.Link) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, link := range links {
		if err := cw.Write(MarshalLink(link)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalLink converts a Link to a CSV row.
func MarshalLink(link model.Link) []string {
	row := make([]string, numFields)
	row[colName] = link.Name
	row[colCode] = link.Code
	row[colSupCode] = link.SupplementaryCode
	row[colAcctName] = link.AccountName
	row[colSupName] = link.SupplementaryName
	return row
}

// UnmarshalLink converts a CSV row to a Link.
func UnmarshalLink(record []string) (model.Link, error) {
	if len(record) != numFields {
		return model.Link{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	if record[colName] == "" {
		return model.Link{}, fmt.Errorf("empty account name")
	}
	return model.Link{
		Name:              record[colName],
		Code:              record[colCode],
		SupplementaryCode: record[colSupCode],
		AccountName:       record[colAcctName],
		SupplementaryName: record[colSupName],
	}, nil
}

// ReadExportList reads full account names, one per line. Blank lines and
// lines starting with '#' are skipped.
func ReadExportList(r io.Reader) ([]string, error) {
	var names []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading export list: %w", err)
	}
	return names, nil
}
