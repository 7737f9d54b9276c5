package caselink

import (
	"math"
	"sort"
)

// VectorItem is a labelled vector stored in an InMemoryIndex.
type VectorItem struct {
	Label  string
	Vector []float32
}

// Hit is one search result.
type Hit struct {
	Label    string
	Position int
	Score    float64
}

// InMemoryIndex is a brute-force cosine index. Search keeps insertion order
// among equal scores.
type InMemoryIndex struct {
	items []VectorItem
}

// NewInMemoryIndex constructs an empty index.
func NewInMemoryIndex() *InMemoryIndex {
	return &InMemoryIndex{}
}

// Replace swaps the stored items.
func (idx *InMemoryIndex) Replace(items []VectorItem) {
	idx.items = make([]VectorItem, len(items))
	for i, it := range items {
		idx.items[i] = VectorItem{Label: it.Label, Vector: cloneVector(it.Vector)}
	}
}

// Size returns the number of stored vectors.
func (idx *InMemoryIndex) Size() int {
	return len(idx.items)
}

// Search returns the top-k items by cosine similarity to vec.
func (idx *InMemoryIndex) Search(vec []float32, k int) []Hit {
	if len(idx.items) == 0 || len(vec) == 0 || k <= 0 {
		return nil
	}
	hits := make([]Hit, 0, len(idx.items))
	for i, it := range idx.items {
		hits = append(hits, Hit{Label: it.Label, Position: i, Score: Cosine(vec, it.Vector)})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// Nearest returns the single best hit.
func (idx *InMemoryIndex) Nearest(vec []float32) (Hit, bool) {
	hits := idx.Search(vec, 1)
	if len(hits) == 0 {
		return Hit{}, false
	}
	return hits[0], true
}

// Cosine returns the cosine similarity of a and b over their common prefix.
func Cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		fa := float64(a[i])
		fb := float64(b[i])
		dot += fa * fb
		na += fa * fa
		nb += fb * fb
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func cloneVector(vec []float32) []float32 {
	if vec == nil {
		return nil
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}
