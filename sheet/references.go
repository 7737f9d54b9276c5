package sheet

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"yashubustudio/caselink/caselink"
)

// Organizations extracts organization reference rows. The id and name
// columns fall back to the first and second column when no header matches.
func Organizations(t *Table, cols caselink.ColumnCandidates) ([]caselink.ReferenceRow, error) {
	if t == nil || len(t.Header) == 0 {
		return nil, nil
	}
	idCol := columnOr(t.Header, cols.OrgRefID, 0)
	nameCol := columnOr(t.Header, cols.OrgRefName, 1)
	if nameCol < 0 {
		return nil, fmt.Errorf("%s: no organization name column", t.Name)
	}
	out := make([]caselink.ReferenceRow, 0, len(t.Rows))
	for r := range t.Rows {
		row := caselink.ReferenceRow{
			ID:   CleanCell(t.Cell(r, idCol)),
			Name: CleanCell(t.Cell(r, nameCol)),
		}
		if row.ID == "" || row.Name == "" {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// People extracts person reference rows. The display name comes from a full
// name column or, failing that, from first and last name columns.
func People(t *Table, cols caselink.ColumnCandidates) ([]caselink.ReferenceRow, error) {
	if t == nil || len(t.Header) == 0 {
		return nil, nil
	}
	idCol := columnOr(t.Header, cols.PersonRefID, 0)
	nameCol := FindColumn(t.Header, cols.PersonRefName)
	firstCol := FindColumn(t.Header, cols.PersonRefFirst)
	lastCol := FindColumn(t.Header, cols.PersonRefLast)
	parentCol := FindColumn(t.Header, cols.PersonRefOrgID)
	if parentCol == idCol {
		parentCol = -1
	}
	if nameCol < 0 && firstCol < 0 && lastCol < 0 {
		return nil, fmt.Errorf("%s: no person name columns", t.Name)
	}
	out := make([]caselink.ReferenceRow, 0, len(t.Rows))
	for r := range t.Rows {
		name := ""
		if nameCol >= 0 {
			name = CleanCell(t.Cell(r, nameCol))
		}
		if name == "" {
			name = strings.TrimSpace(CleanCell(t.Cell(r, firstCol)) + " " + CleanCell(t.Cell(r, lastCol)))
		}
		row := caselink.ReferenceRow{
			ID:       CleanCell(t.Cell(r, idCol)),
			Name:     name,
			ParentID: CleanCell(t.Cell(r, parentCol)),
		}
		if row.ID == "" || row.Name == "" {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// ReferenceReader extracts reference rows from a table.
type ReferenceReader func(*Table, caselink.ColumnCandidates) ([]caselink.ReferenceRow, error)

// LoadReferences reads every file with read and merges the results. Missing
// files are skipped and reported in the returned list; any other error aborts.
func LoadReferences(paths []string, cols caselink.ColumnCandidates, read ReferenceReader) ([]caselink.ReferenceRow, []string, error) {
	var (
		tables  [][]caselink.ReferenceRow
		missing []string
	)
	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		wb, err := Read(path)
		if errors.Is(err, os.ErrNotExist) {
			missing = append(missing, path)
			continue
		}
		if err != nil {
			return nil, missing, err
		}
		rows, err := read(wb.Sheets[0], cols)
		if err != nil {
			return nil, missing, err
		}
		tables = append(tables, rows)
	}
	return caselink.MergeReferenceRows(tables...), missing, nil
}

func columnOr(header []string, candidates []string, fallback int) int {
	if idx := FindColumn(header, candidates); idx >= 0 {
		return idx
	}
	if fallback < len(header) {
		return fallback
	}
	return -1
}
