package caselink

import (
	"context"
	"fmt"
)

// ReferenceRow is one raw row of an organization or person reference table.
type ReferenceRow struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
}

// Entry is an indexed reference row together with its normalized key.
type Entry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Key      string `json:"key"`
	ParentID string `json:"parentId,omitempty"`
}

// KeyFunc derives the exact-match key of a raw name.
type KeyFunc func(string) string

// ReferenceIndex maps normalized keys to their entries and keeps the distinct
// keys in first-seen order. It is not modified after BuildIndex returns,
// apart from the optional vectors attached by AttachVectors.
type ReferenceIndex struct {
	normalize KeyFunc
	entries   map[string][]Entry
	keys      []string
	vectors   *InMemoryIndex
}

// BuildIndex indexes rows under normalize(row.Name). Rows whose key is empty
// are skipped.
func BuildIndex(rows []ReferenceRow, normalize KeyFunc) *ReferenceIndex {
	if normalize == nil {
		normalize = NormalizeText
	}
	idx := &ReferenceIndex{
		normalize: normalize,
		entries:   make(map[string][]Entry),
	}
	for _, row := range rows {
		key := normalize(row.Name)
		if key == "" {
			continue
		}
		if _, seen := idx.entries[key]; !seen {
			idx.keys = append(idx.keys, key)
		}
		idx.entries[key] = append(idx.entries[key], Entry{
			ID:       row.ID,
			Name:     row.Name,
			Key:      key,
			ParentID: row.ParentID,
		})
	}
	return idx
}

// Normalize applies the key function the index was built with.
func (idx *ReferenceIndex) Normalize(s string) string {
	return idx.normalize(s)
}

// Lookup returns the first entry inserted under key.
func (idx *ReferenceIndex) Lookup(key string) (Entry, bool) {
	if idx == nil || key == "" {
		return Entry{}, false
	}
	list := idx.entries[key]
	if len(list) == 0 {
		return Entry{}, false
	}
	return list[0], true
}

// Entries returns every entry stored under key in insertion order.
func (idx *ReferenceIndex) Entries(key string) []Entry {
	if idx == nil {
		return nil
	}
	return append([]Entry(nil), idx.entries[key]...)
}

// Keys returns the distinct keys in first-seen order.
func (idx *ReferenceIndex) Keys() []string {
	if idx == nil {
		return nil
	}
	return cloneStrings(idx.keys)
}

// Len reports the number of distinct keys.
func (idx *ReferenceIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.keys)
}

// AttachVectors embeds every key once so the semantic stage can search them.
// On failure the index keeps no vectors and the error is returned for logging.
func (idx *ReferenceIndex) AttachVectors(ctx context.Context, source SimilaritySource) error {
	if idx == nil || len(idx.keys) == 0 || source == nil || !source.Available() {
		return nil
	}
	vecs, err := source.EmbedAll(ctx, idx.keys)
	if err != nil {
		idx.vectors = nil
		return fmt.Errorf("embed reference keys: %w", err)
	}
	items := make([]VectorItem, len(idx.keys))
	for i, key := range idx.keys {
		items[i] = VectorItem{Label: key, Vector: vecs[i]}
	}
	vi := NewInMemoryIndex()
	vi.Replace(items)
	idx.vectors = vi
	return nil
}

// HasVectors reports whether AttachVectors succeeded.
func (idx *ReferenceIndex) HasVectors() bool {
	return idx != nil && idx.vectors != nil && idx.vectors.Size() > 0
}

// MergeReferenceRows concatenates several tables and drops rows that are exact
// duplicates of an earlier row.
func MergeReferenceRows(tables ...[]ReferenceRow) []ReferenceRow {
	var out []ReferenceRow
	seen := make(map[ReferenceRow]struct{})
	for _, table := range tables {
		for _, row := range table {
			if _, dup := seen[row]; dup {
				continue
			}
			seen[row] = struct{}{}
			out = append(out, row)
		}
	}
	return out
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
