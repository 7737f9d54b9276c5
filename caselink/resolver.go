package caselink

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"yashubustudio/caselink/fuzzy"
)

// Stage names the cascade step that produced a result.
type Stage string

const (
	StageNone             Stage = "none"
	StageExact            Stage = "exact"
	StageFuzzy            Stage = "fuzzy"
	StageSemantic         Stage = "semantic"
	StageFallbackFuzzy    Stage = "fallback_fuzzy"
	StageFallbackSemantic Stage = "fallback_semantic"
	StageKeyword          Stage = "keyword"
	StageDefault          Stage = "default"
)

// NearMiss is the best candidate a fuzzy stage scored but rejected.
type NearMiss struct {
	Query     string
	Candidate string
	Score     float64
	Stage     Stage
}

// Resolution is the outcome of Resolver.Resolve. Entry.ParentID carries the
// organization of a matched person for back-fill.
type Resolution struct {
	Entry    Entry
	Matched  bool
	Stage    Stage
	Score    float64
	NearMiss *NearMiss
}

// Resolver matches free-text references against a ReferenceIndex through the
// exact, fuzzy and semantic stages.
type Resolver struct {
	index    *ReferenceIndex
	source   SimilaritySource
	scorer   fuzzy.Scorer
	strict   float64
	loose    float64
	semantic float64
	logger   *zap.Logger
}

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithScorer replaces the fuzzy scorer.
func WithScorer(scorer fuzzy.Scorer) ResolverOption {
	return func(r *Resolver) {
		if scorer != nil {
			r.scorer = scorer
		}
	}
}

// WithResolverThresholds sets the strict and loose fuzzy limits (0-100) and
// the semantic limit (cosine).
func WithResolverThresholds(strict, loose, semantic float64) ResolverOption {
	return func(r *Resolver) {
		r.strict = strict
		r.loose = loose
		r.semantic = semantic
	}
}

// WithSimilarity enables the semantic stages.
func WithSimilarity(source SimilaritySource) ResolverOption {
	return func(r *Resolver) {
		if source != nil {
			r.source = source
		}
	}
}

// WithResolverLogger sets the logger.
func WithResolverLogger(logger *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver builds a resolver over index.
func NewResolver(index *ReferenceIndex, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		index:    index,
		source:   Unavailable{},
		scorer:   fuzzy.Processed(fuzzy.PartialTokenSetRatio),
		strict:   90,
		loose:    85,
		semantic: 0.80,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs the cascade on primary, then on fallback when primary does
// not match. The first accepting stage wins.
func (r *Resolver) Resolve(ctx context.Context, primary, fallback string) Resolution {
	var res Resolution
	res.Stage = StageNone
	if r.index.Len() == 0 {
		return res
	}
	primary = strings.TrimSpace(primary)
	if primary != "" {
		if e, ok := r.index.Lookup(r.index.Normalize(primary)); ok {
			return matched(e, StageExact, 100, res.NearMiss)
		}
		if out, ok := r.fuzzyStage(primary, r.strict, StageFuzzy, &res); ok {
			return out
		}
		if out, ok := r.semanticStage(ctx, primary, StageSemantic, res.NearMiss); ok {
			return out
		}
	}
	fallback = strings.TrimSpace(fallback)
	if fallback != "" {
		if out, ok := r.fuzzyStage(fallback, r.loose, StageFallbackFuzzy, &res); ok {
			return out
		}
		if out, ok := r.semanticStage(ctx, fallback, StageFallbackSemantic, res.NearMiss); ok {
			return out
		}
	}
	return res
}

func (r *Resolver) fuzzyStage(query string, threshold float64, stage Stage, res *Resolution) (Resolution, bool) {
	m, ok := fuzzy.ExtractOne(query, r.index.keys, r.scorer)
	if !ok {
		return Resolution{}, false
	}
	if m.Score >= threshold {
		if e, found := r.index.Lookup(m.Choice); found {
			return matched(e, stage, m.Score, res.NearMiss), true
		}
		return Resolution{}, false
	}
	if m.Score > 0 && (res.NearMiss == nil || m.Score > res.NearMiss.Score) {
		res.NearMiss = &NearMiss{Query: query, Candidate: m.Choice, Score: m.Score, Stage: stage}
	}
	return Resolution{}, false
}

func (r *Resolver) semanticStage(ctx context.Context, query string, stage Stage, near *NearMiss) (Resolution, bool) {
	if !r.index.HasVectors() || !r.source.Available() {
		return Resolution{}, false
	}
	vec, err := r.source.Embed(ctx, query)
	if err != nil {
		r.logger.Debug("semantic stage skipped", zap.String("stage", string(stage)), zap.Error(err))
		return Resolution{}, false
	}
	hit, ok := r.index.vectors.Nearest(vec)
	if !ok || hit.Score < r.semantic {
		return Resolution{}, false
	}
	e, found := r.index.Lookup(hit.Label)
	if !found {
		return Resolution{}, false
	}
	return matched(e, stage, hit.Score, near), true
}

func matched(e Entry, stage Stage, score float64, near *NearMiss) Resolution {
	return Resolution{Entry: e, Matched: true, Stage: stage, Score: score, NearMiss: near}
}
