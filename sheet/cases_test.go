package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yashubustudio/caselink/caselink"
)

func TestBindCasesAddsMissingColumns(t *testing.T) {
	tbl := &Table{
		Header: []string{"Account Name", "Contact Name", "Email Summary", "Subject", "Description", "Sub-Type"},
		Rows:   [][]string{{"Acme Inc", "Smith, John", "quote_x000D_\nerror", "Help", "", "Other"}},
	}
	b := BindCases(tbl, caselink.DefaultColumnCandidates())
	assert.Equal(t, []string{
		"Account Name", "Contact Name", "Email Summary", "Subject", "Description", "Sub-Type",
		"AccountId", "ContactId", "Type", "Category__c",
	}, tbl.Header)

	records := b.Records()
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, 2, rec.Row)
	assert.Equal(t, "Acme Inc", rec.OrganizationText)
	assert.Equal(t, "Smith, John", rec.PersonText)
	assert.Equal(t, "quote  error", rec.Summary)
	assert.Equal(t, "Other", rec.SubType)
	assert.Empty(t, rec.OrganizationID)
}

func TestApplyWritesEveryLabelAlias(t *testing.T) {
	tbl := &Table{
		Header: []string{"AccountId", "ContactId", "Type", "Sub_Type__c", "Sub-Type", "Category__c", "Category", "Summary"},
		Rows:   [][]string{{"", "", "", "", "", "", "", "cpq_x000D_ quote"}},
	}
	b := BindCases(tbl, caselink.DefaultColumnCandidates())
	assert.Len(t, tbl.Header, 8)

	records := b.Records()
	records[0].OrganizationID = "001"
	records[0].ContactID = "003"
	records[0].Type = "CPQ Issues"
	records[0].SubType = "Other"
	records[0].Category = "Case Management"
	b.Apply(append(records, nil, &caselink.CaseRecord{Row: 40}))

	assert.Equal(t, []string{"001", "003", "CPQ Issues", "Other", "Other", "Case Management", "Case Management", "cpq  quote"}, tbl.Rows[0])
}

func TestRecordsReadFirstNonEmptyAlias(t *testing.T) {
	tbl := &Table{
		Header: []string{"Category__c", "Category"},
		Rows:   [][]string{{"", "Billing"}},
	}
	records := BindCases(tbl, caselink.DefaultColumnCandidates()).Records()
	assert.Equal(t, "Billing", records[0].Category)
}
