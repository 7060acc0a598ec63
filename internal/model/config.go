package model

import "time"

// Config is the process-wide configuration. It is read-only during
// evaluation; per-call state never lives here.
type Config struct {
	Detect      DetectConfig      `yaml:"detect" json:"detect"`
	Scoring     ScoringConfig     `yaml:"scoring" json:"scoring"`
	Provider    ProviderConfig    `yaml:"provider" json:"provider"`
	HTTP        HTTPConfig        `yaml:"http" json:"http"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	Output      OutputConfig      `yaml:"output" json:"output"`
}

// DetectConfig controls the individual detectors.
type DetectConfig struct {
	KSamples                int     `yaml:"k_samples" json:"k_samples"`
	Temperature             float64 `yaml:"temperature" json:"temperature"`
	MaxNewTokens            int     `yaml:"max_new_tokens" json:"max_new_tokens"`
	Seed                    int64   `yaml:"seed" json:"seed"`
	EnableRetrievalSupport  bool    `yaml:"enable_retrieval_support" json:"enable_retrieval_support"`
	EnableJailbreak         bool    `yaml:"enable_jailbreak_heuristics" json:"enable_jailbreak_heuristics"`
	NumericTolerance        float64 `yaml:"numeric_tolerance" json:"numeric_tolerance"`
	EntailmentThreshold     float64 `yaml:"nli_entailment_threshold" json:"nli_entailment_threshold"`
	RetrievalSimThreshold   float64 `yaml:"retrieval_similarity_threshold" json:"retrieval_similarity_threshold"`
	ChunkSize               int     `yaml:"chunk_size" json:"chunk_size"`
	ContextDocsInPremise    int     `yaml:"context_docs_in_premise" json:"context_docs_in_premise"`
}

// ScoringConfig holds the weight map and classification thresholds.
type ScoringConfig struct {
	Weights    map[string]float64 `yaml:"weights" json:"weights"`
	Thresholds Thresholds         `yaml:"thresholds" json:"thresholds"`
}

// Thresholds are the ordered risk-level boundaries. A score equal to a
// boundary classifies into the higher category.
type Thresholds struct {
	High   float64 `yaml:"high" json:"high"`
	Medium float64 `yaml:"medium" json:"medium"`
}

// ProviderConfig selects and configures the similarity/entailment backend.
type ProviderConfig struct {
	Name           string  `yaml:"name" json:"name"` // "", "openai", "ollama"
	Model          string  `yaml:"model" json:"model"`
	EmbeddingModel string  `yaml:"embedding_model" json:"embedding_model"`
	APIKey         string  `yaml:"-" json:"-"` // from env, never serialized
	BaseURL        string  `yaml:"base_url" json:"base_url"`
	Timeout        int     `yaml:"timeout" json:"timeout"` // seconds
	RatePerSecond  float64 `yaml:"rate_per_second" json:"rate_per_second"`
	Burst          int     `yaml:"burst" json:"burst"`
}

// HTTPConfig controls context-document fetching.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy" json:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" json:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy" json:"no_proxy"`
	RespectRobots bool         `yaml:"respect_robots" json:"respect_robots"`
}

// CacheConfig controls the provider/document cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled"`
	Dir       string        `yaml:"dir" json:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" json:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" json:"disk_ttl"`
}

// ConcurrencyConfig controls batch evaluation.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" json:"workers"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Verbose       bool   `yaml:"verbose" json:"verbose"`
	IncludeFooter bool   `yaml:"include_footer" json:"include_footer"`
	ReportDir     string `yaml:"report_dir" json:"report_dir"`
	HTMLReport    bool   `yaml:"html_report" json:"html_report"`
}

// DefaultWeights mirror the relative importance of the five signals.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		SignalNLIFaithfulness:    0.35,
		SignalSelfConsistency:    0.25,
		SignalRetrievalSupport:   0.20,
		SignalNumericSanity:      0.15,
		SignalJailbreakHeuristic: 0.05,
	}
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Detect: DetectConfig{
			KSamples:               5,
			Temperature:            0.7,
			MaxNewTokens:           512,
			Seed:                   42,
			EnableRetrievalSupport: true,
			EnableJailbreak:        true,
			NumericTolerance:       0.01,
			EntailmentThreshold:    0.5,
			RetrievalSimThreshold:  0.75,
			ChunkSize:              512,
			ContextDocsInPremise:   3,
		},
		Scoring: ScoringConfig{
			Weights: DefaultWeights(),
			Thresholds: Thresholds{
				High:   0.7,
				Medium: 0.4,
			},
		},
		Provider: ProviderConfig{
			Name:           "",
			Model:          "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
			Timeout:        30,
			RatePerSecond:  5,
			Burst:          5,
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Halluscan/0.1 (+https://github.com/halluscan/halluscan)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "",
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Output: OutputConfig{
			Verbose:       false,
			IncludeFooter: true,
			ReportDir:     "runs",
			HTMLReport:    false,
		},
	}
}
