// Package emb wraps an ONNX sentence-transformer model behind a small
// encoder that turns text into a mean pooled, L2 normalized vector.
package emb

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

// Config points the encoder at the runtime library, the model and its tokenizer.
type Config struct {
	OrtDLL        string
	ModelPath     string
	TokenizerPath string
	MaxSeqLen     int
	Dimension     int
}

// Encoder runs a sentence embedding model through onnxruntime.
// It is safe for sequential use; Encode serializes calls.
type Encoder struct {
	mu          sync.Mutex
	tk          *tokenizer.Tokenizer
	session     *ort.DynamicAdvancedSession
	inputNames  []string
	outputName  string
	maxSeqLen   int
	dim         int
	initialized bool
}

var (
	envMu   sync.Mutex
	envRefs int
)

// Init loads the tokenizer, the runtime and the model.
func (e *Encoder) Init(cfg Config) error {
	if cfg.ModelPath == "" || cfg.TokenizerPath == "" {
		return errors.New("emb: model and tokenizer paths are required")
	}
	if cfg.MaxSeqLen <= 0 {
		cfg.MaxSeqLen = 256
	}
	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return fmt.Errorf("emb: load tokenizer: %w", err)
	}
	if err := acquireEnvironment(cfg.OrtDLL); err != nil {
		return err
	}
	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		releaseEnvironment()
		return fmt.Errorf("emb: inspect model: %w", err)
	}
	if len(outputs) == 0 {
		releaseEnvironment()
		return errors.New("emb: model has no outputs")
	}
	inputNames := make([]string, 0, len(inputs))
	for _, in := range inputs {
		inputNames = append(inputNames, in.Name)
	}
	dim := cfg.Dimension
	if dims := outputs[0].Dimensions; len(dims) == 3 && dims[2] > 0 {
		dim = int(dims[2])
	}
	if dim <= 0 {
		releaseEnvironment()
		return errors.New("emb: embedding dimension is unknown; set it in the config")
	}
	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, inputNames, []string{outputs[0].Name}, nil)
	if err != nil {
		releaseEnvironment()
		return fmt.Errorf("emb: create session: %w", err)
	}
	e.tk = tk
	e.session = session
	e.inputNames = inputNames
	e.outputName = outputs[0].Name
	e.maxSeqLen = cfg.MaxSeqLen
	e.dim = dim
	e.initialized = true
	return nil
}

// Encode embeds a single text.
func (e *Encoder) Encode(text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return nil, errors.New("emb: encoder is not initialized")
	}
	enc, err := e.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("emb: tokenize: %w", err)
	}
	ids, mask, typeIDs := truncate(enc.Ids, enc.AttentionMask, enc.TypeIds, e.maxSeqLen)
	seqLen := int64(len(ids))
	if seqLen == 0 {
		return nil, errors.New("emb: empty token sequence")
	}
	shape := ort.NewShape(1, seqLen)

	values := make([]ort.Value, 0, len(e.inputNames))
	defer func() {
		for _, v := range values {
			_ = v.Destroy()
		}
	}()
	for _, name := range e.inputNames {
		var data []int64
		switch name {
		case "attention_mask":
			data = mask
		case "token_type_ids":
			data = typeIDs
		default:
			data = ids
		}
		t, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, fmt.Errorf("emb: input %s: %w", name, err)
		}
		values = append(values, t)
	}
	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, seqLen, int64(e.dim)))
	if err != nil {
		return nil, fmt.Errorf("emb: output tensor: %w", err)
	}
	defer out.Destroy()
	if err := e.session.Run(values, []ort.Value{out}); err != nil {
		return nil, fmt.Errorf("emb: run: %w", err)
	}
	vec := MeanPool(out.GetData(), mask, e.dim)
	Normalize(vec)
	return vec, nil
}

// Close releases the session and the runtime environment.
func (e *Encoder) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return
	}
	if e.session != nil {
		_ = e.session.Destroy()
		e.session = nil
	}
	e.initialized = false
	releaseEnvironment()
}

func acquireEnvironment(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()
	if envRefs == 0 {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("emb: initialize onnxruntime: %w", err)
		}
	}
	envRefs++
	return nil
}

func releaseEnvironment() {
	envMu.Lock()
	defer envMu.Unlock()
	if envRefs == 0 {
		return
	}
	envRefs--
	if envRefs == 0 {
		_ = ort.DestroyEnvironment()
	}
}

func truncate(ids, mask, typeIDs []int, maxLen int) ([]int64, []int64, []int64) {
	n := len(ids)
	keepLast := false
	if maxLen > 1 && n > maxLen {
		// keep the trailing [SEP] token
		n = maxLen
		keepLast = true
	}
	out := func(src []int, fill int) []int64 {
		dst := make([]int64, n)
		for i := 0; i < n; i++ {
			v := fill
			if i < len(src) {
				v = src[i]
			}
			dst[i] = int64(v)
		}
		if keepLast && len(src) > 0 {
			dst[n-1] = int64(src[len(src)-1])
		}
		return dst
	}
	return out(ids, 0), out(mask, 1), out(typeIDs, 0)
}
