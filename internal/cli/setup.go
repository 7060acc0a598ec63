package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/halluscan/halluscan/internal/cache"
	"github.com/halluscan/halluscan/internal/model"
	"github.com/halluscan/halluscan/internal/pipeline"
	"github.com/halluscan/halluscan/internal/provider"
)

// loadConfig builds the effective configuration: defaults overridden by
// the config file and HALLUSCAN_* environment variables. Flag overrides
// are applied afterwards by each command.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	setString := func(key string, dst *string) {
		if viper.IsSet(key) {
			*dst = viper.GetString(key)
		}
	}
	setInt := func(key string, dst *int) {
		if viper.IsSet(key) {
			*dst = viper.GetInt(key)
		}
	}
	setFloat := func(key string, dst *float64) {
		if viper.IsSet(key) {
			*dst = viper.GetFloat64(key)
		}
	}
	setBool := func(key string, dst *bool) {
		if viper.IsSet(key) {
			*dst = viper.GetBool(key)
		}
	}

	setInt("detect.k_samples", &cfg.Detect.KSamples)
	setFloat("detect.temperature", &cfg.Detect.Temperature)
	setInt("detect.max_new_tokens", &cfg.Detect.MaxNewTokens)
	if viper.IsSet("detect.seed") {
		cfg.Detect.Seed = viper.GetInt64("detect.seed")
	}
	setBool("detect.enable_retrieval_support", &cfg.Detect.EnableRetrievalSupport)
	setBool("detect.enable_jailbreak_heuristics", &cfg.Detect.EnableJailbreak)
	setFloat("detect.numeric_tolerance", &cfg.Detect.NumericTolerance)
	setFloat("detect.nli_entailment_threshold", &cfg.Detect.EntailmentThreshold)
	setFloat("detect.retrieval_similarity_threshold", &cfg.Detect.RetrievalSimThreshold)
	setInt("detect.chunk_size", &cfg.Detect.ChunkSize)

	setFloat("scoring.thresholds.high", &cfg.Scoring.Thresholds.High)
	setFloat("scoring.thresholds.medium", &cfg.Scoring.Thresholds.Medium)
	if viper.IsSet("scoring.weights") {
		weights := make(map[string]float64)
		for name := range viper.GetStringMap("scoring.weights") {
			weights[name] = viper.GetFloat64("scoring.weights." + name)
		}
		if len(weights) > 0 {
			cfg.Scoring.Weights = weights
		}
	}

	setString("provider.name", &cfg.Provider.Name)
	setString("provider.model", &cfg.Provider.Model)
	setString("provider.embedding_model", &cfg.Provider.EmbeddingModel)
	setString("provider.base_url", &cfg.Provider.BaseURL)
	setInt("provider.timeout", &cfg.Provider.Timeout)
	setFloat("provider.rate_per_second", &cfg.Provider.RatePerSecond)
	setInt("provider.burst", &cfg.Provider.Burst)

	setString("http.user_agent", &cfg.HTTP.UserAgent)
	setBool("http.respect_robots", &cfg.HTTP.RespectRobots)
	setString("http.http_proxy", &cfg.HTTP.HTTPProxy)
	setString("http.https_proxy", &cfg.HTTP.HTTPSProxy)
	setString("http.no_proxy", &cfg.HTTP.NoProxy)

	setBool("cache.enabled", &cfg.Cache.Enabled)
	setString("cache.dir", &cfg.Cache.Dir)

	setInt("concurrency.workers", &cfg.Concurrency.Workers)

	setBool("output.verbose", &cfg.Output.Verbose)
	setString("output.report_dir", &cfg.Output.ReportDir)

	return cfg
}

// newStore creates the layered cache, or nil when caching is disabled.
func newStore(cfg *model.Config) cache.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		dir = cache.DefaultDir()
	}
	return cache.NewLayeredCache(cfg.Cache.MemoryTTL, dir, cfg.Cache.DiskTTL)
}

// newMonitor wires the backend stack and the evaluation pipeline. Remote
// backends are wrapped in caching and rate limiting; the lexical backend
// runs bare.
func newMonitor(cfg *model.Config, store cache.Cache) (*pipeline.Monitor, error) {
	name := strings.ToLower(cfg.Provider.Name)
	if name == "openai" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.Provider.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}
	if name == "ollama" && cfg.Provider.BaseURL == "" {
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.Provider.BaseURL = baseURL
		}
	}

	backend, err := provider.New(cfg.Provider, cfg.HTTP)
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}

	if name != "" && name != "lexical" {
		if store != nil {
			backend = provider.NewCached(backend, store, cfg.Cache.MemoryTTL)
		}
		backend = provider.NewLimited(backend, cfg.Provider.RatePerSecond, cfg.Provider.Burst)
	}

	return pipeline.NewMonitor(cfg, backend), nil
}
