package caselink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"yashubustudio/caselink/emb"
)

// Embedder turns text into vectors.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Close() error
	ModelID() string
}

// OrtEmbedder is a thin wrapper over emb.Encoder.
type OrtEmbedder struct {
	enc     *emb.Encoder
	modelID string
}

// NewOrtEmbedder loads the ONNX model and tokenizer named by cfg.
func NewOrtEmbedder(cfg EmbedderConfig) (*OrtEmbedder, error) {
	modelID := cfg.ModelID
	if modelID == "" && cfg.ModelPath != "" {
		modelID = filepath.Base(cfg.ModelPath)
	}
	encoder := &emb.Encoder{}
	if err := encoder.Init(emb.Config{
		OrtDLL:        cfg.OrtDLL,
		ModelPath:     cfg.ModelPath,
		TokenizerPath: cfg.TokenizerPath,
		MaxSeqLen:     cfg.MaxSeqLen,
		Dimension:     cfg.Dimension,
	}); err != nil {
		return nil, err
	}
	return &OrtEmbedder{enc: encoder, modelID: modelID}, nil
}

// Close releases ORT resources.
func (o *OrtEmbedder) Close() error {
	if o == nil || o.enc == nil {
		return nil
	}
	o.enc.Close()
	o.enc = nil
	return nil
}

// ModelID returns the identifier used for cache keys.
func (o *OrtEmbedder) ModelID() string {
	return o.modelID
}

// EmbedText embeds a single string.
func (o *OrtEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	if o == nil || o.enc == nil {
		return nil, errors.New("embedder is not initialized")
	}
	return o.enc.Encode(text)
}

// EmbedTexts embeds a slice of strings sequentially.
func (o *OrtEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, o, texts)
}

// OllamaEmbedder calls the embed endpoint of an Ollama server.
type OllamaEmbedder struct {
	baseURL string
	model   string
	client  *http.Client
	timeout time.Duration
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewOllamaEmbedder builds a client for cfg.OllamaURL.
func NewOllamaEmbedder(cfg EmbedderConfig) *OllamaEmbedder {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OllamaEmbedder{
		baseURL: strings.TrimRight(cfg.OllamaURL, "/"),
		model:   cfg.OllamaModel,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// ModelID returns the Ollama model name.
func (o *OllamaEmbedder) ModelID() string {
	return "ollama:" + o.model
}

// Close is a no-op.
func (o *OllamaEmbedder) Close() error {
	return nil
}

// HealthCheck verifies the server answers.
func (o *OllamaEmbedder) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/version", nil)
	if err != nil {
		return fmt.Errorf("create health check request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("health check returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// EmbedText embeds a single string.
func (o *OllamaEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	payload, err := json.Marshal(ollamaEmbedRequest{Model: o.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(body))
	}
	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Embeddings) == 0 || len(out.Embeddings[0]) == 0 {
		return nil, errors.New("ollama returned empty embedding vector")
	}
	return out.Embeddings[0], nil
}

// EmbedTexts embeds a slice of strings sequentially.
func (o *OllamaEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, o, texts)
}

// CachedEmbedder normalizes text and serves repeated inputs from a VectorCache.
type CachedEmbedder struct {
	inner Embedder
	cache *VectorCache
}

// NewCachedEmbedder wraps inner with cache. The cache is closed with the embedder.
func NewCachedEmbedder(inner Embedder, cache *VectorCache) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: cache}
}

// ModelID returns the wrapped model id.
func (c *CachedEmbedder) ModelID() string {
	return c.inner.ModelID()
}

// EmbedText embeds text, consulting the cache first.
func (c *CachedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	normalized := NormalizeText(text)
	key := CacheKey(c.inner.ModelID(), normalized)
	if vec, ok := c.cache.Get(key); ok {
		return vec, nil
	}
	vec, err := c.inner.EmbedText(ctx, normalized)
	if err != nil {
		return nil, err
	}
	_ = c.cache.Put(key, c.inner.ModelID(), vec)
	return cloneVector(vec), nil
}

// EmbedTexts embeds a slice of strings sequentially.
func (c *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, c, texts)
}

// Close releases the wrapped embedder and the cache.
func (c *CachedEmbedder) Close() error {
	return errors.Join(c.inner.Close(), c.cache.Close())
}

func embedEach(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.EmbedText(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}
