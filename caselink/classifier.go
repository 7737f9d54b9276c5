package caselink

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"yashubustudio/caselink/fuzzy"
)

// WeightedField is one text input of the classifier.
type WeightedField struct {
	Text   string
	Weight float64
}

// Label is a classification result. Value is always a member of the
// table's enumeration.
type Label struct {
	Value string
	Stage Stage
	Score float64
}

// Classifier picks a label from one RuleTable.
type Classifier struct {
	table    *RuleTable
	source   SimilaritySource
	vectors  *InMemoryIndex
	semantic float64
	fuzzyMin float64
	scorer   fuzzy.Scorer
	logger   *zap.Logger
}

// ClassifierOption customizes a Classifier.
type ClassifierOption func(*Classifier)

// WithLabelThresholds sets the semantic (cosine) and fuzzy (0-100) limits.
func WithLabelThresholds(semantic, fuzzyScore float64) ClassifierOption {
	return func(c *Classifier) {
		c.semantic = semantic
		c.fuzzyMin = fuzzyScore
	}
}

// WithClassifierLogger sets the logger.
func WithClassifierLogger(logger *zap.Logger) ClassifierOption {
	return func(c *Classifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClassifier builds a classifier for table. When source is available the
// enumeration is embedded once; a failure only disables the semantic step.
func NewClassifier(ctx context.Context, table *RuleTable, source SimilaritySource, opts ...ClassifierOption) *Classifier {
	if source == nil {
		source = Unavailable{}
	}
	c := &Classifier{
		table:    table,
		source:   source,
		semantic: 0.55,
		fuzzyMin: 75,
		scorer:   fuzzy.Processed(fuzzy.TokenSortRatio),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if source.Available() {
		vecs, err := source.EmbedAll(ctx, table.Labels)
		if err != nil {
			c.logger.Warn("label embeddings unavailable", zap.String("table", table.Name), zap.Error(err))
		} else {
			items := make([]VectorItem, len(vecs))
			for i, v := range vecs {
				items[i] = VectorItem{Label: table.Labels[i], Vector: v}
			}
			c.vectors = NewInMemoryIndex()
			c.vectors.Replace(items)
		}
	}
	return c
}

// Classify scores the keyword rules over fields, then falls back to semantic
// and fuzzy matching of the combined text against the labels, then to the
// table default.
func (c *Classifier) Classify(ctx context.Context, fields []WeightedField) Label {
	if label, ok := c.keywordStage(fields); ok {
		return label
	}
	combined := CombineWeighted(fields)
	if combined != "" {
		if label, ok := c.semanticStage(ctx, combined); ok {
			return label
		}
		if m, ok := fuzzy.ExtractOne(combined, c.table.Labels, c.scorer); ok && m.Score >= c.fuzzyMin {
			return Label{Value: m.Choice, Stage: StageFuzzy, Score: m.Score}
		}
	}
	return Label{Value: c.table.Default, Stage: StageDefault}
}

// keywordStage adds weight*max(1, len(phrase)/4) to a rule for every field
// containing one of its phrases. Ties go to the rule declared first.
func (c *Classifier) keywordStage(fields []WeightedField) (Label, bool) {
	texts := make([]string, len(fields))
	for i, f := range fields {
		texts[i] = NormalizeText(f.Text)
	}
	bestIdx := -1
	bestScore := 0.0
	for i, rule := range c.table.Rules {
		var score float64
		for _, kw := range rule.Keywords {
			specificity := float64(max(1, utf8.RuneCountInString(kw)/4))
			for j, text := range texts {
				if text != "" && strings.Contains(text, kw) {
					score += fields[j].Weight * specificity
				}
			}
		}
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return Label{}, false
	}
	return Label{Value: c.table.Rules[bestIdx].Label, Stage: StageKeyword, Score: bestScore}, true
}

func (c *Classifier) semanticStage(ctx context.Context, text string) (Label, bool) {
	if c.vectors == nil || !c.source.Available() {
		return Label{}, false
	}
	vec, err := c.source.Embed(ctx, text)
	if err != nil {
		c.logger.Debug("semantic label stage skipped", zap.String("table", c.table.Name), zap.Error(err))
		return Label{}, false
	}
	hit, ok := c.vectors.Nearest(vec)
	if !ok || hit.Score < c.semantic {
		return Label{}, false
	}
	return Label{Value: hit.Label, Stage: StageSemantic, Score: hit.Score}, true
}

// CombineWeighted repeats the heaviest field three times and the next one
// twice, appends the rest once and normalizes the result.
func CombineWeighted(fields []WeightedField) string {
	ordered := make([]WeightedField, len(fields))
	copy(ordered, fields)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Weight > ordered[j].Weight
	})
	parts := make([]string, 0, len(ordered)+3)
	for i, f := range ordered {
		repeat := 1
		switch i {
		case 0:
			repeat = 3
		case 1:
			repeat = 2
		}
		for k := 0; k < repeat; k++ {
			parts = append(parts, f.Text)
		}
	}
	return NormalizeText(strings.Join(parts, " "))
}
