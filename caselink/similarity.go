package caselink

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const probeText = "similarity probe"

// SimilaritySource is the optional semantic capability. Call sites never
// check for its presence: an unavailable source answers every call with
// ErrUnavailable and the caller moves on to the next stage.
type SimilaritySource interface {
	Available() bool
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedAll(ctx context.Context, texts []string) ([][]float32, error)
	Close() error
}

// Unavailable is the SimilaritySource used when no embedding model could be loaded.
type Unavailable struct{}

func (Unavailable) Available() bool { return false }

func (Unavailable) Embed(context.Context, string) ([]float32, error) { return nil, ErrUnavailable }

func (Unavailable) EmbedAll(context.Context, []string) ([][]float32, error) {
	return nil, ErrUnavailable
}

func (Unavailable) Close() error { return nil }

// EmbeddingSource serves embeddings from an Embedder behind a circuit breaker.
// The breaker opens on the first failure and the source reports itself
// unavailable for the rest of the run.
type EmbeddingSource struct {
	embedder Embedder
	breaker  *gobreaker.CircuitBreaker
	tripped  atomic.Bool
	logger   *zap.Logger
}

// NewEmbeddingSource wraps embedder. A nil logger discards output.
func NewEmbeddingSource(embedder Embedder, logger *zap.Logger) *EmbeddingSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &EmbeddingSource{embedder: embedder, logger: logger}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "embedding",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     24 * time.Hour,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				s.tripped.Store(true)
				s.logger.Warn("semantic matching disabled for the rest of the run",
					zap.String("breaker", name),
					zap.String("from", from.String()))
			}
		},
	})
	return s
}

// Available reports whether the breaker is still closed.
func (s *EmbeddingSource) Available() bool {
	return !s.tripped.Load()
}

// Embed embeds one text.
func (s *EmbeddingSource) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.tripped.Load() {
		return nil, ErrUnavailable
	}
	res, err := s.breaker.Execute(func() (interface{}, error) {
		return s.embedder.EmbedText(ctx, text)
	})
	if err != nil {
		return nil, s.wrap(err)
	}
	return res.([]float32), nil
}

// EmbedAll embeds texts in order. A failure on any text fails the batch.
func (s *EmbeddingSource) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	if s.tripped.Load() {
		return nil, ErrUnavailable
	}
	res, err := s.breaker.Execute(func() (interface{}, error) {
		return s.embedder.EmbedTexts(ctx, texts)
	})
	if err != nil {
		return nil, s.wrap(err)
	}
	return res.([][]float32), nil
}

// Close releases the embedder.
func (s *EmbeddingSource) Close() error {
	return s.embedder.Close()
}

func (s *EmbeddingSource) wrap(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrUnavailable
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// NewSimilaritySource probes the configured provider once. Any failure is
// logged and yields Unavailable, so the caller never has to handle an error.
func NewSimilaritySource(ctx context.Context, cfg EmbedderConfig, logger *zap.Logger) SimilaritySource {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		embedder Embedder
		err      error
	)
	switch cfg.Provider {
	case "", ProviderNone:
		logger.Info("semantic matching disabled", zap.String("provider", ProviderNone))
		return Unavailable{}
	case ProviderONNX:
		embedder, err = NewOrtEmbedder(cfg)
	case ProviderOllama:
		o := NewOllamaEmbedder(cfg)
		if err = o.HealthCheck(ctx); err == nil {
			embedder = o
		}
	default:
		err = fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	if err != nil {
		logger.Warn("semantic matching unavailable, continuing with fuzzy matching",
			zap.String("provider", cfg.Provider), zap.Error(err))
		return Unavailable{}
	}
	return probe(ctx, embedder, cfg, logger)
}

func probe(ctx context.Context, embedder Embedder, cfg EmbedderConfig, logger *zap.Logger) SimilaritySource {
	cache, err := NewVectorCache(cfg.MemoryCacheSize, cfg.CacheDir)
	if err != nil {
		logger.Warn("embedding cache disabled", zap.Error(err))
		cache, _ = NewVectorCache(cfg.MemoryCacheSize, "")
	}
	cached := NewCachedEmbedder(embedder, cache)
	if _, err := cached.EmbedText(ctx, probeText); err != nil {
		logger.Warn("semantic matching unavailable, continuing with fuzzy matching",
			zap.String("provider", cfg.Provider), zap.Error(err))
		_ = cached.Close()
		return Unavailable{}
	}
	logger.Info("semantic matching enabled",
		zap.String("provider", cfg.Provider),
		zap.String("model", cached.ModelID()))
	return NewEmbeddingSource(cached, logger)
}
