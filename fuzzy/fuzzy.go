// Package fuzzy implements the token based string similarity scorers used by
// the resolver and the label classifier. Scores are on a 0-100 scale.
package fuzzy

import (
	"sort"
	"strings"
	"unicode"
)

// Scorer compares two strings and returns a similarity between 0 and 100.
type Scorer func(a, b string) float64

// Match is the best choice returned by ExtractOne.
type Match struct {
	Choice string
	Index  int
	Score  float64
}

// DefaultProcess lowercases s, turns every non alphanumeric rune into a space
// and collapses the result.
func DefaultProcess(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// Processed wraps a scorer so both inputs pass through DefaultProcess first.
func Processed(scorer Scorer) Scorer {
	return func(a, b string) float64 {
		return scorer(DefaultProcess(a), DefaultProcess(b))
	}
}

// Ratio is the normalized indel similarity of a and b.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	return ratioRunes(ra, rb)
}

func ratioRunes(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	return 200 * float64(lcsLength(a, b)) / float64(total)
}

// lcsLength returns the length of the longest common subsequence.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	row := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		row[0] = 0
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				row[j] = prev[j-1] + 1
			case prev[j] >= row[j-1]:
				row[j] = prev[j]
			default:
				row[j] = row[j-1]
			}
		}
		row, prev = prev, row
	}
	return prev[len(b)]
}

// PartialRatio aligns the shorter string against every window of the longer
// one, partial windows at both edges included, and keeps the best Ratio.
func PartialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		if len(long) == 0 {
			return 100
		}
		return 0
	}
	m, n := len(short), len(long)
	best := 0.0
	for start := -(m - 1); start < n; start++ {
		lo := max(start, 0)
		hi := min(start+m, n)
		score := ratioRunes(short, long[lo:hi])
		if score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

// TokenSortRatio compares the whitespace tokens of a and b after sorting them.
func TokenSortRatio(a, b string) float64 {
	return Ratio(sortedTokens(strings.Fields(a)), sortedTokens(strings.Fields(b)))
}

// PartialTokenSetRatio returns 100 as soon as a and b share a token and falls
// back to PartialRatio over the sorted distinct tokens otherwise.
func PartialTokenSetRatio(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			return 100
		}
	}
	return PartialRatio(sortedTokens(keys(setA)), sortedTokens(keys(setB)))
}

// ExtractOne scores query against every choice and returns the best one.
// Ties keep the earliest choice. It reports false when there is nothing to
// compare.
func ExtractOne(query string, choices []string, scorer Scorer) (Match, bool) {
	if strings.TrimSpace(query) == "" || len(choices) == 0 {
		return Match{}, false
	}
	best := Match{Index: -1, Score: -1}
	for i, choice := range choices {
		score := scorer(query, choice)
		if score > best.Score {
			best = Match{Choice: choice, Index: i, Score: score}
		}
	}
	return best, best.Index >= 0
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func sortedTokens(tokens []string) string {
	sorted := append([]string(nil), tokens...)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}
