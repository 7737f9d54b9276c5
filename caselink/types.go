package caselink

// Embedding providers.
const (
	ProviderNone   = "none"
	ProviderONNX   = "onnx"
	ProviderOllama = "ollama"
)

// Thresholds holds the acceptance limits of every matching stage. Fuzzy
// scores are on a 0-100 scale, semantic ones are cosine similarities.
type Thresholds struct {
	FuzzyStrict    float64 `json:"fuzzyStrict" yaml:"fuzzyStrict" validate:"gte=0,lte=100"`
	FuzzyLoose     float64 `json:"fuzzyLoose" yaml:"fuzzyLoose" validate:"gte=0,lte=100"`
	EntitySemantic float64 `json:"entitySemantic" yaml:"entitySemantic" validate:"gte=0,lte=1"`
	LabelSemantic  float64 `json:"labelSemantic" yaml:"labelSemantic" validate:"gte=0,lte=1"`
	LabelFuzzy     float64 `json:"labelFuzzy" yaml:"labelFuzzy" validate:"gte=0,lte=100"`
	NearMiss       float64 `json:"nearMiss" yaml:"nearMiss" validate:"gte=0,lte=100"`
}

// FieldWeights weights the case text fields for keyword scoring.
type FieldWeights struct {
	Summary     float64 `json:"summary" yaml:"summary" validate:"gte=0"`
	Subject     float64 `json:"subject" yaml:"subject" validate:"gte=0"`
	Description float64 `json:"description" yaml:"description" validate:"gte=0"`
}

// EmbedderConfig selects and configures the optional embedding provider.
type EmbedderConfig struct {
	Provider        string `json:"provider" yaml:"provider" validate:"oneof=none onnx ollama"`
	OrtDLL          string `json:"ortDll" yaml:"ortDll"`
	ModelPath       string `json:"modelPath" yaml:"modelPath" validate:"required_if=Provider onnx"`
	TokenizerPath   string `json:"tokenizerPath" yaml:"tokenizerPath" validate:"required_if=Provider onnx"`
	MaxSeqLen       int    `json:"maxSeqLen" yaml:"maxSeqLen" validate:"gte=0"`
	Dimension       int    `json:"dimension" yaml:"dimension" validate:"gte=0"`
	ModelID         string `json:"modelId" yaml:"modelId"`
	OllamaURL       string `json:"ollamaUrl" yaml:"ollamaUrl" validate:"omitempty,url"`
	OllamaModel     string `json:"ollamaModel" yaml:"ollamaModel"`
	TimeoutSeconds  int    `json:"timeoutSeconds" yaml:"timeoutSeconds" validate:"gte=0"`
	CacheDir        string `json:"cacheDir" yaml:"cacheDir"`
	MemoryCacheSize int    `json:"memoryCacheSize" yaml:"memoryCacheSize" validate:"gte=0"`
}

// Config aggregates the runtime settings of a linking run.
type Config struct {
	Thresholds      Thresholds       `json:"thresholds" yaml:"thresholds"`
	Weights         FieldWeights     `json:"weights" yaml:"weights"`
	OverwriteLabels bool             `json:"overwriteLabels" yaml:"overwriteLabels"`
	LegalSuffixes   []string         `json:"legalSuffixes" yaml:"legalSuffixes"`
	RulesPath       string           `json:"rulesPath,omitempty" yaml:"rulesPath,omitempty"`
	Embedder        EmbedderConfig   `json:"embedder" yaml:"embedder"`
	PreferredSheets []string         `json:"preferredSheets" yaml:"preferredSheets"`
	Columns         ColumnCandidates `json:"columns" yaml:"columns"`
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() Config {
	cfg := Config{OverwriteLabels: true}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults populates zero values with the stock settings.
func (c *Config) ApplyDefaults() {
	if c.Thresholds.FuzzyStrict == 0 {
		c.Thresholds.FuzzyStrict = 90
	}
	if c.Thresholds.FuzzyLoose == 0 {
		c.Thresholds.FuzzyLoose = 85
	}
	if c.Thresholds.EntitySemantic == 0 {
		c.Thresholds.EntitySemantic = 0.80
	}
	if c.Thresholds.LabelSemantic == 0 {
		c.Thresholds.LabelSemantic = 0.55
	}
	if c.Thresholds.LabelFuzzy == 0 {
		c.Thresholds.LabelFuzzy = 75
	}
	if c.Thresholds.NearMiss == 0 {
		c.Thresholds.NearMiss = 60
	}
	if c.Weights == (FieldWeights{}) {
		c.Weights = FieldWeights{Summary: 3, Subject: 2, Description: 1}
	}
	if c.LegalSuffixes == nil {
		c.LegalSuffixes = cloneStrings(DefaultLegalSuffixes)
	}
	if c.Embedder.Provider == "" {
		c.Embedder.Provider = ProviderNone
	}
	if c.Embedder.MaxSeqLen == 0 {
		c.Embedder.MaxSeqLen = 256
	}
	if c.Embedder.OllamaURL == "" {
		c.Embedder.OllamaURL = "http://localhost:11434"
	}
	if c.Embedder.OllamaModel == "" {
		c.Embedder.OllamaModel = "all-minilm"
	}
	if c.Embedder.TimeoutSeconds == 0 {
		c.Embedder.TimeoutSeconds = 30
	}
	if c.Embedder.MemoryCacheSize == 0 {
		c.Embedder.MemoryCacheSize = 4096
	}
	if c.PreferredSheets == nil {
		c.PreferredSheets = []string{"Full Acc and Contact"}
	}
	c.Columns = c.Columns.withDefaults()
}
