package caselink

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RuleTableFile is the editable form of a RuleTable. Every field is optional
// in an override file.
type RuleTableFile struct {
	Labels  []string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Default string   `json:"default,omitempty" yaml:"default,omitempty"`
	Rules   []Rule   `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// RulesFile holds overrides for the three label families.
type RulesFile struct {
	Type     *RuleTableFile `json:"type,omitempty" yaml:"type,omitempty"`
	SubType  *RuleTableFile `json:"subType,omitempty" yaml:"subType,omitempty"`
	Category *RuleTableFile `json:"category,omitempty" yaml:"category,omitempty"`
}

// LoadRuleSet returns the built-in tables merged with the overrides in path.
// An empty path returns the defaults. The boolean reports whether a file was
// applied.
func LoadRuleSet(path string) (RuleSet, bool, error) {
	defaults := DefaultRuleSet()
	clean := strings.TrimSpace(path)
	if clean == "" {
		return defaults, false, nil
	}
	data, err := os.ReadFile(filepath.Clean(clean))
	if err != nil {
		return defaults, false, fmt.Errorf("read rules: %w", err)
	}
	var overrides RulesFile
	if err := unmarshalByExt(clean, data, &overrides); err != nil {
		return defaults, false, fmt.Errorf("decode rules: %w", err)
	}
	merged, err := MergeRuleSet(defaults, overrides)
	if err != nil {
		return defaults, false, err
	}
	return merged, true, nil
}

// MergeRuleSet applies overrides to base and validates the result.
func MergeRuleSet(base RuleSet, overrides RulesFile) (RuleSet, error) {
	var (
		out RuleSet
		err error
	)
	if out.Type, err = mergeRuleTable(base.Type, overrides.Type); err != nil {
		return base, err
	}
	if out.SubType, err = mergeRuleTable(base.SubType, overrides.SubType); err != nil {
		return base, err
	}
	if out.Category, err = mergeRuleTable(base.Category, overrides.Category); err != nil {
		return base, err
	}
	return out, nil
}

// mergeRuleTable replaces the enumeration and default when given, and
// replaces rules by label or appends new ones, keeping declared order. A new
// enumeration drops the base rules of labels it no longer allows.
func mergeRuleTable(base *RuleTable, override *RuleTableFile) (*RuleTable, error) {
	if override == nil {
		return base, nil
	}
	labels := base.Labels
	def := base.Default
	rules := make([]Rule, 0, len(base.Rules))
	if len(override.Labels) > 0 {
		labels = override.Labels
		def = ""
		allowed := make(map[string]struct{}, len(labels))
		for _, l := range labels {
			allowed[l] = struct{}{}
		}
		for _, r := range base.Rules {
			if _, ok := allowed[r.Label]; ok {
				rules = append(rules, r)
			}
		}
	} else {
		rules = append(rules, base.Rules...)
	}
	if override.Default != "" {
		def = override.Default
	}
	for _, r := range override.Rules {
		replaced := false
		for i := range rules {
			if rules[i].Label == r.Label {
				rules[i] = Rule{Label: r.Label, Keywords: cloneStrings(r.Keywords)}
				replaced = true
				break
			}
		}
		if !replaced {
			rules = append(rules, Rule{Label: r.Label, Keywords: cloneStrings(r.Keywords)})
		}
	}
	return NewRuleTable(base.Name, labels, def, rules)
}

// WriteRulesFile writes set to path as a starting point for edits. An
// existing file is only replaced when overwrite is set.
func WriteRulesFile(path string, set RuleSet, overwrite bool) error {
	clean := filepath.Clean(strings.TrimSpace(path))
	if !overwrite {
		if _, err := os.Stat(clean); err == nil {
			return fmt.Errorf("rules file %s: %w", clean, os.ErrExist)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("check rules file: %w", err)
		}
	}
	if dir := filepath.Dir(clean); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create rules dir: %w", err)
		}
	}
	data, err := marshalByExt(clean, RulesFile{
		Type:     tableFile(set.Type),
		SubType:  tableFile(set.SubType),
		Category: tableFile(set.Category),
	})
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	if err := os.WriteFile(clean, data, 0o644); err != nil {
		return fmt.Errorf("write rules: %w", err)
	}
	return nil
}

func tableFile(t *RuleTable) *RuleTableFile {
	if t == nil {
		return nil
	}
	rules := make([]Rule, len(t.Rules))
	for i, r := range t.Rules {
		rules[i] = Rule{Label: r.Label, Keywords: cloneStrings(r.Keywords)}
	}
	return &RuleTableFile{Labels: cloneStrings(t.Labels), Default: t.Default, Rules: rules}
}
