package caselink

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultLegalSuffixes are the organization name tokens dropped by
// NormalizeOrganizationName. Entries go through NormalizeText, so dotted
// forms like "l.l.c" match the token run "l l c".
var DefaultLegalSuffixes = []string{
	"inc", "inc.", "llc", "l.l.c", "ltd", "co", "co.", "corp",
	"corporation", "company", "incorporated", "plc", "llp",
}

const lineBreakArtifact = "_x000D_"

// NormalizeText folds s into the comparison form used for exact keys:
// lowercase, only [a-z0-9 -+] kept, whitespace collapsed.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, lineBreakArtifact, " ")
	s = strings.ToLower(s)
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '+':
			return r
		default:
			return ' '
		}
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// Normalizer carries the tunable parts of name normalization.
type Normalizer struct {
	suffixes [][]string
}

// NewNormalizer builds a Normalizer with the given legal suffix stop set.
// A nil slice selects DefaultLegalSuffixes.
func NewNormalizer(suffixes []string) *Normalizer {
	if suffixes == nil {
		suffixes = DefaultLegalSuffixes
	}
	seen := make(map[string]struct{}, len(suffixes))
	n := &Normalizer{}
	for _, s := range suffixes {
		key := NormalizeText(s)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		n.suffixes = append(n.suffixes, strings.Fields(key))
	}
	// longest phrases first
	sort.SliceStable(n.suffixes, func(i, j int) bool {
		return len(n.suffixes[i]) > len(n.suffixes[j])
	})
	return n
}

// Organization normalizes an organization name and drops legal suffix tokens.
func (n *Normalizer) Organization(s string) string {
	fields := strings.Fields(NormalizeText(s))
	kept := make([]string, 0, len(fields))
	for i := 0; i < len(fields); {
		if k := n.suffixAt(fields[i:]); k > 0 {
			i += k
			continue
		}
		kept = append(kept, fields[i])
		i++
	}
	return strings.Join(kept, " ")
}

// suffixAt returns the token length of the suffix phrase starting fields, or 0.
func (n *Normalizer) suffixAt(fields []string) int {
	for _, phrase := range n.suffixes {
		if len(phrase) > len(fields) {
			continue
		}
		match := true
		for i, tok := range phrase {
			if fields[i] != tok {
				match = false
				break
			}
		}
		if match {
			return len(phrase)
		}
	}
	return 0
}

// Person normalizes a person name. "Last, First" becomes "first last";
// segments after the second comma part are dropped.
func (n *Normalizer) Person(s string) string {
	return NormalizePersonName(s)
}

var defaultNormalizer = NewNormalizer(nil)

// NormalizeOrganizationName uses the default legal suffix set.
func NormalizeOrganizationName(s string) string {
	return defaultNormalizer.Organization(s)
}

// NormalizePersonName reorders "Last, First" and normalizes the result.
func NormalizePersonName(s string) string {
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		if len(parts) >= 2 {
			s = strings.TrimSpace(parts[1]) + " " + strings.TrimSpace(parts[0])
		}
	}
	return NormalizeText(s)
}
