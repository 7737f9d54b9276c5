package sheet

import (
	"yashubustudio/caselink/caselink"
)

// CaseBinding maps the columns of a case table onto caselink records.
type CaseBinding struct {
	table        *Table
	organization int
	person       int
	summary      int
	subject      int
	description  int
	orgID        int
	contactID    int
	types        []int
	subTypes     []int
	categories   []int
}

// BindCases resolves the case columns of t. The id and label columns are
// added when absent, under the first candidate name.
func BindCases(t *Table, cols caselink.ColumnCandidates) *CaseBinding {
	b := &CaseBinding{
		table:        t,
		organization: FindColumn(t.Header, cols.OrganizationName),
		person:       FindColumn(t.Header, cols.PersonName),
		summary:      FindColumn(t.Header, cols.Summary),
		subject:      FindColumn(t.Header, cols.Subject),
		description:  FindColumn(t.Header, cols.Description),
	}
	b.orgID = ensureColumn(t, cols.OrganizationID)
	b.contactID = ensureColumn(t, cols.ContactID)
	b.types = ensureColumns(t, cols.Type)
	b.subTypes = ensureColumns(t, cols.SubType)
	b.categories = ensureColumns(t, cols.Category)
	return b
}

// Records builds one record per data row. Row numbers are 1-based sheet rows,
// so the first data row is row 2.
func (b *CaseBinding) Records() []*caselink.CaseRecord {
	t := b.table
	out := make([]*caselink.CaseRecord, len(t.Rows))
	for r := range t.Rows {
		out[r] = &caselink.CaseRecord{
			Row:              r + 2,
			OrganizationID:   CleanCell(t.Cell(r, b.orgID)),
			ContactID:        CleanCell(t.Cell(r, b.contactID)),
			Type:             firstValue(t, r, b.types),
			SubType:          firstValue(t, r, b.subTypes),
			Category:         firstValue(t, r, b.categories),
			Summary:          CleanCell(t.Cell(r, b.summary)),
			Subject:          CleanCell(t.Cell(r, b.subject)),
			Description:      CleanCell(t.Cell(r, b.description)),
			OrganizationText: CleanCell(t.Cell(r, b.organization)),
			PersonText:       CleanCell(t.Cell(r, b.person)),
		}
	}
	return out
}

// Apply writes the records back into the table: ids, every alias of each
// label column and the cleaned free-text cells.
func (b *CaseBinding) Apply(records []*caselink.CaseRecord) {
	t := b.table
	for _, rec := range records {
		if rec == nil {
			continue
		}
		r := rec.Row - 2
		if r < 0 || r >= len(t.Rows) {
			continue
		}
		t.SetCell(r, b.orgID, rec.OrganizationID)
		t.SetCell(r, b.contactID, rec.ContactID)
		setAll(t, r, b.types, rec.Type)
		setAll(t, r, b.subTypes, rec.SubType)
		setAll(t, r, b.categories, rec.Category)
		t.SetCell(r, b.summary, rec.Summary)
		t.SetCell(r, b.subject, rec.Subject)
		t.SetCell(r, b.description, rec.Description)
	}
}

func ensureColumn(t *Table, candidates []string) int {
	if idx := FindColumn(t.Header, candidates); idx >= 0 {
		return idx
	}
	if len(candidates) == 0 {
		return -1
	}
	return t.AddColumn(candidates[0])
}

func ensureColumns(t *Table, candidates []string) []int {
	if found := findColumns(t.Header, candidates); len(found) > 0 {
		return found
	}
	if len(candidates) == 0 {
		return nil
	}
	return []int{t.AddColumn(candidates[0])}
}

func firstValue(t *Table, r int, cols []int) string {
	for _, c := range cols {
		if v := CleanCell(t.Cell(r, c)); v != "" {
			return v
		}
	}
	return ""
}

func setAll(t *Table, r int, cols []int, v string) {
	for _, c := range cols {
		t.SetCell(r, c, v)
	}
}
