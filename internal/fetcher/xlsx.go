// Package fetcher reads the uploaded Excel exports into plain in-memory
// tables. All sheet access goes through here; the pipeline stages never touch
// the workbook format.
package fetcher

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Table is one sheet read as strings: a trimmed header row plus data rows.
type Table struct {
	Source  string // file path, used in error messages
	Headers []string
	Rows    [][]string
}

// XLSXOptions selects which sheet of a workbook to read.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
	SkipRows   int    // extra rows above the header row
}

// ReadTable reads one sheet into a Table. The first row after SkipRows is the
// header; everything below is data. Fully empty rows are dropped.
func ReadTable(path string, opts XLSXOptions) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open %s", path)
	}

	sheet, err := getSheet(f, path, opts)
	if err != nil {
		return nil, err
	}

	t := &Table{Source: path}
	for i, row := range sheet.Rows {
		if i < opts.SkipRows {
			continue
		}

		cells := rowToStrings(row)
		if t.Headers == nil {
			for j := range cells {
				cells[j] = strings.TrimSpace(cells[j])
			}
			t.Headers = cells
			continue
		}
		if isEmptyRow(cells) {
			continue
		}
		t.Rows = append(t.Rows, cells)
	}

	if t.Headers == nil {
		return nil, eris.Errorf("xlsx: %s: sheet has no header row", path)
	}
	return t, nil
}

// SheetNames lists the sheets of a workbook in file order.
func SheetNames(path string) ([]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open %s", path)
	}
	names := make([]string, len(f.Sheets))
	for i, s := range f.Sheets {
		names[i] = s.Name
	}
	return names, nil
}

func getSheet(f *xlsx.File, path string, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: %s: sheet %q not found", path, opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: %s: sheet index %d out of range (file has %d sheets)", path, opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func isEmptyRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
