package caselink

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func caseFields(summary, subject, description string) []WeightedField {
	return []WeightedField{
		{Text: summary, Weight: 3},
		{Text: subject, Weight: 2},
		{Text: description, Weight: 1},
	}
}

func TestClassifyKeywords(t *testing.T) {
	set := DefaultRuleSet()
	c := NewClassifier(context.Background(), set.Type, nil)

	label := c.Classify(context.Background(), caseFields("CPQ quote pricing error", "", ""))
	assert.Equal(t, "CPQ Issues", label.Value)
	assert.Equal(t, StageKeyword, label.Stage)
	assert.Equal(t, 18.0, label.Score)
}

func TestClassifyFavorsHeavierField(t *testing.T) {
	table, err := NewRuleTable("t", []string{"Bravo", "Alpha", "Other"}, "Other", []Rule{
		{Label: "Bravo", Keywords: []string{"bbbb"}},
		{Label: "Alpha", Keywords: []string{"aaaa"}},
	})
	require.NoError(t, err)
	c := NewClassifier(context.Background(), table, nil)

	label := c.Classify(context.Background(), caseFields("aaaa", "", "bbbb"))
	assert.Equal(t, "Alpha", label.Value)
	assert.Equal(t, 3.0, label.Score)

	label = c.Classify(context.Background(), caseFields("bbbb", "", "aaaa"))
	assert.Equal(t, "Bravo", label.Value)
}

func TestClassifyTieGoesToFirstRule(t *testing.T) {
	table, err := NewRuleTable("t", []string{"Alpha", "Bravo"}, "", []Rule{
		{Label: "Bravo", Keywords: []string{"bbbb"}},
		{Label: "Alpha", Keywords: []string{"aaaa"}},
	})
	require.NoError(t, err)
	c := NewClassifier(context.Background(), table, nil)

	label := c.Classify(context.Background(), caseFields("aaaa bbbb", "", ""))
	assert.Equal(t, "Bravo", label.Value)
}

func TestClassifyFuzzyFallback(t *testing.T) {
	table, err := NewRuleTable("t", []string{"Billing Dispute", "Other"}, "Other", nil)
	require.NoError(t, err)
	c := NewClassifier(context.Background(), table, nil)

	label := c.Classify(context.Background(), caseFields("", "", "dispute billing"))
	assert.Equal(t, "Billing Dispute", label.Value)
	assert.Equal(t, StageFuzzy, label.Stage)

	// the heaviest field is repeated, which dilutes the match
	label = c.Classify(context.Background(), caseFields("dispute billing", "", ""))
	assert.Equal(t, "Other", label.Value)
}

func TestClassifySemanticFallback(t *testing.T) {
	ctx := context.Background()
	table, err := NewRuleTable("t", []string{"Alpha", "Beta", "Other"}, "Other", nil)
	require.NoError(t, err)
	src := newFakeSource(map[string][]float32{
		"alpha":       {1, 0, 0, 0},
		"beta":        {0, 1, 0, 0},
		"other":       {0, 0, 1, 0},
		"zzz zzz zzz": {0.2, 0.9, 0, 0},
		"qqq qqq qqq": {0, 0, 0.1, 0.3},
	})
	c := NewClassifier(ctx, table, src)

	label := c.Classify(ctx, []WeightedField{{Text: "zzz", Weight: 3}})
	assert.Equal(t, "Beta", label.Value)
	assert.Equal(t, StageSemantic, label.Stage)

	label = c.Classify(ctx, []WeightedField{{Text: "qqq", Weight: 3}})
	assert.Equal(t, "Other", label.Value)
	assert.Equal(t, StageDefault, label.Stage)
}

func TestClassifyAlwaysReturnsAllowedLabel(t *testing.T) {
	set := DefaultRuleSet()
	inputs := [][]WeightedField{
		nil,
		caseFields("", "", ""),
		caseFields("hello there", "", ""),
		caseFields("ＳＳＯ login broken!!", "re: ticket", "_x000D_"),
		caseFields("Docusign template for the credit application", "", "need help"),
		caseFields("12345", "+++", "---"),
	}
	for _, table := range []*RuleTable{set.Type, set.SubType, set.Category} {
		c := NewClassifier(context.Background(), table, nil)
		for _, in := range inputs {
			label := c.Classify(context.Background(), in)
			assert.True(t, table.Allows(label.Value), "%s: %q", table.Name, label.Value)
		}
	}
}

func TestClassifyDefaults(t *testing.T) {
	set := DefaultRuleSet()
	fields := caseFields("hello there", "", "")
	for table, want := range map[*RuleTable]string{
		set.Type:     "Miscellaneous Type",
		set.SubType:  "Miscellaneous SubType",
		set.Category: "Case Management",
	} {
		label := NewClassifier(context.Background(), table, nil).Classify(context.Background(), fields)
		assert.Equal(t, want, label.Value)
		assert.Equal(t, StageDefault, label.Stage)
	}
}

func TestCombineWeighted(t *testing.T) {
	got := CombineWeighted([]WeightedField{
		{Text: "Bee", Weight: 2},
		{Text: "Ant", Weight: 3},
		{Text: "Cat", Weight: 1},
		{Text: "Dog", Weight: 1},
	})
	assert.Equal(t, "ant ant ant bee bee cat dog", got)
	assert.Equal(t, "", CombineWeighted(nil))
}
