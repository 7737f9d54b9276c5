// Package sheet reads and writes the case and reference tables as CSV, TSV
// or XLSX files and binds their columns to caselink records.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is one sheet: a header row and data rows padded to the header width.
// Cells beyond the header row get generated "Unnamed: N" headers.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Workbook is the ordered set of sheets read from one file.
type Workbook struct {
	Path   string
	Sheets []*Table
}

// ErrUnsupportedFormat is returned for file extensions other than csv, tsv
// and xlsx.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Read loads path. Delimited files yield a single sheet named after the file.
func Read(path string) (*Workbook, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return readDelimited(path, ',')
	case ".tsv":
		return readDelimited(path, '\t')
	case ".xlsx", ".xlsm":
		return readExcel(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
}

// Pick returns the first preferred sheet present, else the first sheet.
func (w *Workbook) Pick(preferred []string) *Table {
	if w == nil || len(w.Sheets) == 0 {
		return nil
	}
	for _, name := range preferred {
		for _, t := range w.Sheets {
			if t.Name == name {
				return t
			}
		}
	}
	return w.Sheets[0]
}

func readDelimited(path string, comma rune) (*Workbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &Workbook{Path: path, Sheets: []*Table{newTable(name, rows)}}, nil
}

func readExcel(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	wb := &Workbook{Path: path}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", name, err)
		}
		wb.Sheets = append(wb.Sheets, newTable(name, rows))
	}
	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("no sheets in %s", filepath.Base(path))
	}
	return wb, nil
}

func newTable(name string, rows [][]string) *Table {
	t := &Table{Name: name}
	if len(rows) == 0 {
		return t
	}
	width := len(rows[0])
	for _, row := range rows[1:] {
		width = max(width, len(row))
	}
	t.Header = make([]string, width)
	for i := range t.Header {
		if i < len(rows[0]) {
			t.Header[i] = cleanHeader(rows[0][i])
		}
		if t.Header[i] == "" {
			t.Header[i] = unnamedColumn(i)
		}
	}
	for _, row := range rows[1:] {
		t.Rows = append(t.Rows, pad(row, width))
	}
	return t
}

// unnamedColumn names a column that has cells but no header.
func unnamedColumn(i int) string {
	return fmt.Sprintf("Unnamed: %d", i)
}

func pad(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}

// AddColumn appends an empty column and returns its index.
func (t *Table) AddColumn(name string) int {
	t.Header = append(t.Header, name)
	for i := range t.Rows {
		t.Rows[i] = pad(t.Rows[i], len(t.Header))
	}
	return len(t.Header) - 1
}

// Cell returns the value at row r, column c, or "" when out of range.
func (t *Table) Cell(r, c int) string {
	if c < 0 || r < 0 || r >= len(t.Rows) || c >= len(t.Rows[r]) {
		return ""
	}
	return t.Rows[r][c]
}

// SetCell writes v at row r, column c, growing the row when needed.
func (t *Table) SetCell(r, c int, v string) {
	if c < 0 || r < 0 || r >= len(t.Rows) {
		return
	}
	if c >= len(t.Rows[r]) {
		t.Rows[r] = pad(t.Rows[r], c+1)
	}
	t.Rows[r][c] = v
}

// Clean applies CleanCell to every header and cell.
func (t *Table) Clean() {
	for i, h := range t.Header {
		t.Header[i] = CleanCell(h)
	}
	for _, row := range t.Rows {
		for i, v := range row {
			row[i] = CleanCell(v)
		}
	}
}

// Write saves the workbook to path. XLSX output keeps every sheet; delimited
// output holds only the active sheet.
func Write(path string, wb *Workbook, active *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return writeDelimited(path, ',', active)
	case ".tsv":
		return writeDelimited(path, '\t', active)
	case ".xlsx", ".xlsm":
		return writeExcel(path, wb, active)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
}

func writeDelimited(path string, comma rune, t *Table) error {
	if t == nil {
		return errors.New("no sheet to write")
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = comma
	if err := w.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return writeFileAtomic(path, buf.Bytes())
}

func writeExcel(path string, wb *Workbook, active *Table) error {
	if wb == nil || len(wb.Sheets) == 0 {
		return errors.New("no sheets to write")
	}
	f := excelize.NewFile()
	defer f.Close()
	const initial = "Sheet1"
	activeIdx := 0
	for i, t := range wb.Sheets {
		name := sheetName(t.Name)
		if i == 0 {
			if err := f.SetSheetName(initial, name); err != nil {
				return fmt.Errorf("name sheet %s: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
		if t == active {
			activeIdx = i
		}
		if err := writeSheetRow(f, name, 1, t.Header); err != nil {
			return err
		}
		for r, row := range t.Rows {
			if err := writeSheetRow(f, name, r+2, row); err != nil {
				return err
			}
		}
	}
	f.SetActiveSheet(activeIdx)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(path), err)
	}
	return nil
}

// sheetName trims a name to the 31 characters a worksheet name may hold.
func sheetName(name string) string {
	if r := []rune(name); len(r) > 31 {
		return string(r[:31])
	}
	if name == "" {
		return "Sheet1"
	}
	return name
}

func writeSheetRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
