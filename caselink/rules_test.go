package caselink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRuleSetIsValid(t *testing.T) {
	set := DefaultRuleSet()
	assert.Equal(t, "Miscellaneous Type", set.Type.Default)
	assert.Equal(t, "Miscellaneous SubType", set.SubType.Default)
	assert.Equal(t, "Case Management", set.Category.Default)
	assert.Len(t, set.Type.Labels, 15)
	assert.Len(t, set.SubType.Labels, 6)
	assert.Len(t, set.Category.Labels, 19)
	for _, table := range []*RuleTable{set.Type, set.SubType, set.Category} {
		for _, r := range table.Rules {
			assert.True(t, table.Allows(r.Label), "%s: %s", table.Name, r.Label)
		}
	}
}

func TestNewRuleTableValidation(t *testing.T) {
	labels := []string{"A", "B"}

	_, err := NewRuleTable("t", nil, "", nil)
	assert.ErrorIs(t, err, ErrInvalidRuleTable)

	_, err = NewRuleTable("t", []string{"A", "A"}, "", nil)
	assert.ErrorIs(t, err, ErrInvalidRuleTable)

	_, err = NewRuleTable("t", labels, "C", nil)
	assert.ErrorIs(t, err, ErrInvalidRuleTable)

	_, err = NewRuleTable("t", labels, "", []Rule{{Label: "Typo", Keywords: []string{"x"}}})
	assert.ErrorIs(t, err, ErrInvalidRuleTable)

	_, err = NewRuleTable("t", labels, "", []Rule{{Label: "A"}, {Label: "A"}})
	assert.ErrorIs(t, err, ErrInvalidRuleTable)
}

func TestNewRuleTableDefaults(t *testing.T) {
	table, err := NewRuleTable("t", []string{"A", "Case Management"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "Case Management", table.Default)

	table, err = NewRuleTable("t", []string{"A", "B"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "A", table.Default)
}

func TestNewRuleTableCleansKeywords(t *testing.T) {
	table, err := NewRuleTable("t", []string{"A"}, "", []Rule{{Label: "A", Keywords: []string{" CPQ ", "cpq", "", "Quote"}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"cpq", "quote"}, table.Rules[0].Keywords)
}

func TestLoadRuleSetMergesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	body := `type:
  rules:
    - label: Problem
      keywords: [outage]
    - label: Marketing
      keywords: [newsletter]
category:
  default: Miscellaneous Category
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	set, loaded, err := LoadRuleSet(path)
	require.NoError(t, err)
	assert.True(t, loaded)

	var problem, marketing Rule
	for _, r := range set.Type.Rules {
		switch r.Label {
		case "Problem":
			problem = r
		case "Marketing":
			marketing = r
		}
	}
	assert.Equal(t, []string{"outage"}, problem.Keywords)
	assert.Equal(t, []string{"newsletter"}, marketing.Keywords)
	assert.Equal(t, "CPQ Issues", set.Type.Rules[0].Label)
	assert.Equal(t, "Miscellaneous Category", set.Category.Default)
	assert.Equal(t, DefaultRuleSet().SubType, set.SubType)
}

func TestLoadRuleSetRejectsUnknownLabel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"subType":{"rules":[{"label":"Credit Ap","keywords":["loan"]}]}}`), 0o644))

	_, loaded, err := LoadRuleSet(path)
	assert.False(t, loaded)
	assert.ErrorIs(t, err, ErrInvalidRuleTable)
}

func TestMergeRuleSetNarrowsEnumeration(t *testing.T) {
	set, err := MergeRuleSet(DefaultRuleSet(), RulesFile{
		SubType: &RuleTableFile{
			Labels:  []string{"Credit App", "Other"},
			Default: "Other",
			Rules:   []Rule{{Label: "Other", Keywords: []string{"misc"}}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Credit App", "Other"}, set.SubType.Labels)
	assert.Equal(t, "Other", set.SubType.Default)
	require.Len(t, set.SubType.Rules, 2)
	assert.Equal(t, "Credit App", set.SubType.Rules[0].Label)
	assert.Equal(t, "Other", set.SubType.Rules[1].Label)
	assert.Equal(t, DefaultRuleSet().Type, set.Type)
}

func TestLoadRuleSetEmptyPath(t *testing.T) {
	set, loaded, err := LoadRuleSet("")
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Equal(t, DefaultRuleSet(), set)
}

func TestWriteRulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules", "rules.yaml")
	require.NoError(t, WriteRulesFile(path, DefaultRuleSet(), false))
	assert.ErrorIs(t, WriteRulesFile(path, DefaultRuleSet(), false), os.ErrExist)
	require.NoError(t, WriteRulesFile(path, DefaultRuleSet(), true))

	set, loaded, err := LoadRuleSet(path)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, DefaultRuleSet(), set)
}
