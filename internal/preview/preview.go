// Package preview renders the journal rows as a spreadsheet for review
// before import.
package preview

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/gntoka/gntoka/internal/fileutil"
	"github.com/gntoka/gntoka/internal/journal"
	"github.com/gntoka/gntoka/internal/model"
)

// SheetName is the worksheet holding the journal rows.
const SheetName = "仕訳"

// WriteXLSX writes the same rows as the import file, header first, to a
// single-sheet workbook at path.
func WriteXLSX(path string, entries []model.JournalEntry) error {
	rows, err := journal.Rows(entries)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}

	return fileutil.Commit(path, func(w io.Writer) error {
		return f.Write(w)
	})
}
