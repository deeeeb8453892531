// Package runlog records completed exports so later runs can continue
// slip numbering where the previous one stopped.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Entry is one row in the run log.
type Entry struct {
	Timestamp time.Time
	RunID     string
	Output    string
	Entries   int
	FirstSlip int
	LastSlip  int
}

// Header is the CSV header of the run log.
const Header = "timestamp,run_id,output,entries,first_slip,last_slip"

const (
	numFields    = 6
	colTimestamp = 0
	colRunID     = 1
	colOutput    = 2
	colEntries   = 3
	colFirstSlip = 4
	colLastSlip  = 5
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colRunID] = e.RunID
	row[colOutput] = e.Output
	row[colEntries] = strconv.Itoa(e.Entries)
	row[colFirstSlip] = strconv.Itoa(e.FirstSlip)
	row[colLastSlip] = strconv.Itoa(e.LastSlip)
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	ints := make([]int, 3)
	for i, col := range []int{colEntries, colFirstSlip, colLastSlip} {
		n, err := strconv.Atoi(record[col])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing %s %q: %w", strings.Split(Header, ",")[col], record[col], err)
		}
		ints[i] = n
	}

	return Entry{
		Timestamp: ts,
		RunID:     record[colRunID],
		Output:    record[colOutput],
		Entries:   ints[0],
		FirstSlip: ints[1],
		LastSlip:  ints[2],
	}, nil
}

// Append writes entries to the log at path, creating the file and header if needed.
func Append(path string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating run log dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries of the log at path.
// Returns an empty slice if the file does not exist.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// NextSlip returns the slip number following the highest one recorded in
// the log at path, or 0 when no run has produced entries yet.
func NextSlip(path string) (int, error) {
	entries, err := Read(path)
	if err != nil {
		return 0, err
	}
	last := 0
	for _, e := range entries {
		if e.Entries > 0 {
			last = max(last, e.LastSlip)
		}
	}
	if last == 0 {
		return 0, nil
	}
	return last + 1, nil
}
