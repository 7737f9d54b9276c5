package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yashubustudio/caselink/caselink"
	"yashubustudio/caselink/sheet"
)

const casesCSV = `Account Name,Contact Name,Email Summary,Subject,Description,AccountId,ContactId
Acme Inc,,CPQ quote pricing error,,,,
,"Smith, John",,,,,
Akme,,hello there,,,,
`

type fixture struct {
	dir    string
	cases  string
	orgs   string
	people string
	config string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:    dir,
		cases:  filepath.Join(dir, "cases.csv"),
		orgs:   filepath.Join(dir, "accounts.csv"),
		people: filepath.Join(dir, "contacts.csv"),
		config: filepath.Join(dir, "caselink.yaml"),
	}
	require.NoError(t, os.WriteFile(f.cases, []byte(casesCSV), 0o644))
	require.NoError(t, os.WriteFile(f.orgs, []byte("Id,Name\n001,Acme\n"), 0o644))
	require.NoError(t, os.WriteFile(f.people, []byte("Id,FullName,AccountId\n003,John Smith,001\n"), 0o644))
	return f
}

func column(t *testing.T, tbl *sheet.Table, name string) int {
	t.Helper()
	idx := sheet.FindColumn(tbl.Header, []string{name})
	require.GreaterOrEqual(t, idx, 0, "column %s", name)
	return idx
}

func TestRunLinksAndLabelsCases(t *testing.T) {
	f := newFixture(t)
	res, err := Run(context.Background(), Options{
		ConfigPath:    f.config,
		CasesPath:     f.cases,
		Organizations: []string{f.orgs},
		People:        []string{f.people},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Report.Processed)
	assert.Equal(t, 1, res.Report.OrganizationsFilled)
	assert.Equal(t, 1, res.Report.ContactsFilled)
	assert.Equal(t, 1, res.Report.BackFilled)
	assert.False(t, res.Semantic)
	assert.Empty(t, res.MissingReferences)
	assert.Equal(t, filepath.Join(f.dir, "cases_linked.csv"), res.OutputPath)
	assert.Equal(t, filepath.Join(f.dir, "cases_linked_cleaned.csv"), res.CleanedPath)
	assert.Empty(t, res.CSVPath)

	wb, err := sheet.Read(res.OutputPath)
	require.NoError(t, err)
	tbl := wb.Sheets[0]
	require.Len(t, tbl.Rows, 3)
	orgID := column(t, tbl, "AccountId")
	contactID := column(t, tbl, "ContactId")
	typeCol := column(t, tbl, "Type")
	column(t, tbl, "Sub_Type__c")
	column(t, tbl, "Category__c")

	assert.Equal(t, "001", tbl.Cell(0, orgID))
	assert.Equal(t, "CPQ Issues", tbl.Cell(0, typeCol))
	assert.Equal(t, "003", tbl.Cell(1, contactID))
	assert.Equal(t, "001", tbl.Cell(1, orgID))
	assert.Empty(t, tbl.Cell(1, typeCol))
	assert.Empty(t, tbl.Cell(2, orgID))

	diags, err := os.ReadFile(res.DiagnosticsPath)
	require.NoError(t, err)
	assert.Contains(t, string(diags), "4,organization,Akme,acme,75.0")

	_, err = os.Stat(res.CleanedPath)
	assert.NoError(t, err)
}

func TestRunToleratesMissingReferenceFiles(t *testing.T) {
	f := newFixture(t)
	missing := filepath.Join(f.dir, "absent.csv")
	res, err := Run(context.Background(), Options{
		ConfigPath:    f.config,
		CasesPath:     f.cases,
		Organizations: []string{missing},
		OutputPath:    filepath.Join(f.dir, "out", "linked.csv"),
		CleanedPath:   skipOutput,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{missing}, res.MissingReferences)
	assert.Equal(t, 0, res.Report.OrganizationsFilled)
	assert.Equal(t, 2, res.Report.Labeled)
	assert.Empty(t, res.CleanedPath)
	assert.Equal(t, filepath.Join(f.dir, "out", diagnosticsFile), res.DiagnosticsPath)
}

func TestRunWritesWorkbookOutputs(t *testing.T) {
	f := newFixture(t)
	out := filepath.Join(f.dir, "linked.xlsx")
	res, err := Run(context.Background(), Options{
		ConfigPath:    f.config,
		CasesPath:     f.cases,
		Organizations: []string{f.orgs},
		OutputPath:    out,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.dir, "linked.csv"), res.CSVPath)
	assert.Equal(t, filepath.Join(f.dir, "linked_cleaned.xlsx"), res.CleanedPath)

	wb, err := sheet.Read(out)
	require.NoError(t, err)
	tbl := wb.Sheets[0]
	assert.Equal(t, "cases", tbl.Name)
	assert.Equal(t, "001", tbl.Cell(0, column(t, tbl, "AccountId")))
}

func TestRunCSVExportIsCleaned(t *testing.T) {
	f := newFixture(t)
	cases := filepath.Join(f.dir, "cases.xlsx")
	tbl := &sheet.Table{
		Name:   "Full Acc and Contact",
		Header: []string{"Account Name", "Notes"},
		Rows:   [][]string{{"Acme", "line one_x000D_\nline two"}},
	}
	require.NoError(t, sheet.Write(cases, &sheet.Workbook{Sheets: []*sheet.Table{tbl}}, tbl))

	res, err := Run(context.Background(), Options{
		ConfigPath:    f.config,
		CasesPath:     cases,
		Organizations: []string{f.orgs},
		CleanedPath:   skipOutput,
	}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, res.CSVPath)
	assert.Empty(t, res.CleanedPath)

	data, err := os.ReadFile(res.CSVPath)
	require.NoError(t, err)
	body := string(data)
	assert.NotContains(t, body, "\r")
	assert.NotContains(t, body, "_x000D_")
	assert.Equal(t, 2, strings.Count(body, "\n"))
	assert.Contains(t, body, "line one  line two")

	wb, err := sheet.Read(res.OutputPath)
	require.NoError(t, err)
	raw := wb.Sheets[0]
	assert.Contains(t, raw.Cell(0, column(t, raw, "Notes")), "\n")
}

func TestRunErrors(t *testing.T) {
	f := newFixture(t)

	_, err := Run(context.Background(), Options{}, nil)
	assert.Error(t, err)

	_, err = Run(context.Background(), Options{ConfigPath: f.config, CasesPath: filepath.Join(f.dir, "nope.csv")}, nil)
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(f.dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("thresholds:\n  fuzzyStrict: 150\n"), 0o644))
	_, err = Run(context.Background(), Options{ConfigPath: bad, CasesPath: f.cases}, nil)
	assert.ErrorIs(t, err, caselink.ErrInvalidConfig)

	rules := filepath.Join(f.dir, "rules.yaml")
	require.NoError(t, os.WriteFile(rules, []byte("type:\n  default: Nonexistent\n"), 0o644))
	_, err = Run(context.Background(), Options{ConfigPath: f.config, RulesPath: rules, CasesPath: f.cases}, nil)
	assert.ErrorIs(t, err, caselink.ErrInvalidRuleTable)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, Result{
		Report: caselink.Report{
			RunID:     "run-1",
			Processed: 2,
			StageHits: map[caselink.Stage]int{caselink.StageExact: 1, caselink.StageFuzzy: 2},
			Diagnostics: []caselink.Diagnostic{
				{Row: 2, Kind: caselink.KindOrganization, Query: "Akme", Candidate: "acme", Score: 75},
			},
		},
		Sheet:             "cases",
		OutputPath:        "out.csv",
		DiagnosticsPath:   "ambiguous_matches.csv",
		MissingReferences: []string{"contacts.csv"},
	})
	out := buf.String()
	assert.Contains(t, out, "caselink run run-1")
	assert.Contains(t, out, "exact=1 fuzzy=2")
	assert.Contains(t, out, "ambiguous_matches.csv")
	assert.Contains(t, out, "contacts.csv")
	assert.Contains(t, out, "out.csv")
}
