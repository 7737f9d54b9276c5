package sheet

import "strings"

var cellReplacer = strings.NewReplacer("_x000D_", " ", "\r", " ", "\n", " ", "\t", " ")

// CleanCell strips a leading byte order mark, turns spreadsheet line breaks
// and tabs into spaces and trims the result.
func CleanCell(v string) string {
	v = strings.TrimPrefix(v, "\ufeff")
	return strings.TrimSpace(cellReplacer.Replace(v))
}

func cleanHeader(v string) string {
	return strings.TrimSpace(strings.TrimPrefix(v, "\ufeff"))
}

// FindColumn returns the index of the first candidate present in header. An
// exact match on any candidate wins over a case-insensitive one.
func FindColumn(header []string, candidates []string) int {
	for _, cand := range candidates {
		for i, col := range header {
			if col == cand {
				return i
			}
		}
	}
	for _, cand := range candidates {
		for i, col := range header {
			if strings.EqualFold(col, cand) {
				return i
			}
		}
	}
	return -1
}

// findColumns returns the indexes of every header matching a candidate, in
// header order.
func findColumns(header []string, candidates []string) []int {
	var out []int
	for i, col := range header {
		for _, cand := range candidates {
			if strings.EqualFold(col, cand) {
				out = append(out, i)
				break
			}
		}
	}
	return out
}
