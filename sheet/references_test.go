package sheet

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yashubustudio/caselink/caselink"
)

func TestOrganizationsByHeader(t *testing.T) {
	tbl := &Table{
		Name:   "accounts",
		Header: []string{"Industry", "Account Name", "Id"},
		Rows:   [][]string{{"Tech", "Acme", "001"}, {"Retail", "", "002"}, {"Energy", "Globex", ""}},
	}
	rows, err := Organizations(tbl, caselink.DefaultColumnCandidates())
	require.NoError(t, err)
	assert.Equal(t, []caselink.ReferenceRow{{ID: "001", Name: "Acme"}}, rows)
}

func TestOrganizationsPositionalFallback(t *testing.T) {
	tbl := &Table{Header: []string{"Key", "Label"}, Rows: [][]string{{"001", "Acme"}}}
	rows, err := Organizations(tbl, caselink.DefaultColumnCandidates())
	require.NoError(t, err)
	assert.Equal(t, []caselink.ReferenceRow{{ID: "001", Name: "Acme"}}, rows)

	_, err = Organizations(&Table{Name: "narrow", Header: []string{"Key"}}, caselink.DefaultColumnCandidates())
	assert.Error(t, err)
}

func TestPeopleNameSources(t *testing.T) {
	tbl := &Table{
		Header: []string{"Id", "FullName", "FirstName", "LastName", "AccountId"},
		Rows: [][]string{
			{"003", "John Smith", "", "", "001"},
			{"004", "", "Jane", "Doe", ""},
			{"005", "", "", "", "001"},
		},
	}
	rows, err := People(tbl, caselink.DefaultColumnCandidates())
	require.NoError(t, err)
	assert.Equal(t, []caselink.ReferenceRow{
		{ID: "003", Name: "John Smith", ParentID: "001"},
		{ID: "004", Name: "Jane Doe"},
	}, rows)
}

func TestPeopleWithoutNameColumns(t *testing.T) {
	_, err := People(&Table{Name: "contacts", Header: []string{"Id", "Email"}}, caselink.DefaultColumnCandidates())
	assert.Error(t, err)
}

func TestLoadReferencesMergesAndReportsMissing(t *testing.T) {
	a := writeFile(t, "a.csv", "Id,Name\n001,Acme\n002,Globex\n")
	b := writeFile(t, "b.csv", "Id,Name\n001,Acme\n003,Initech\n")
	missing := filepath.Join(t.TempDir(), "absent.csv")

	rows, skipped, err := LoadReferences([]string{a, missing, "", b}, caselink.DefaultColumnCandidates(), Organizations)
	require.NoError(t, err)
	assert.Equal(t, []string{missing}, skipped)
	assert.Equal(t, []caselink.ReferenceRow{
		{ID: "001", Name: "Acme"},
		{ID: "002", Name: "Globex"},
		{ID: "003", Name: "Initech"},
	}, rows)
}

func TestLoadReferencesPropagatesErrors(t *testing.T) {
	bad := writeFile(t, "a.json", "{}")
	_, _, err := LoadReferences([]string{bad}, caselink.DefaultColumnCandidates(), Organizations)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
