package caselink

import (
	"context"
	"errors"
	"strings"
)

// fakeSource maps normalized texts to fixed vectors. Unknown texts get a
// vector orthogonal to every known one.
type fakeSource struct {
	vectors map[string][]float32
	calls   int
}

func newFakeSource(vectors map[string][]float32) *fakeSource {
	return &fakeSource{vectors: vectors}
}

func (f *fakeSource) Available() bool { return true }

func (f *fakeSource) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if vec, ok := f.vectors[NormalizeText(text)]; ok {
		return vec, nil
	}
	return []float32{0, 0, 0, 1}, nil
}

func (f *fakeSource) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, _ := f.Embed(ctx, t)
		out[i] = vec
	}
	return out, nil
}

func (f *fakeSource) Close() error { return nil }

// fakeEmbedder fails every call once failAfter successful calls were served.
type fakeEmbedder struct {
	failAfter int
	calls     int
}

func (f *fakeEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.failAfter >= 0 && f.calls > f.failAfter {
		return nil, errors.New("model crashed")
	}
	return []float32{float32(len(strings.TrimSpace(text))), 1}, nil
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, f, texts)
}

func (f *fakeEmbedder) Close() error { return nil }

func (f *fakeEmbedder) ModelID() string { return "fake" }
