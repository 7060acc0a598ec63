package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/halluscan/halluscan/internal/model"
	"github.com/halluscan/halluscan/internal/util"
)

// Ollama scores through a local Ollama instance: /api/embeddings for
// similarity, /api/generate for entailment judgments and samples. No API key
// required.
type Ollama struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	System  string        `json:"system,omitempty"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
	Seed        int64   `json:"seed,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllama creates an Ollama backend.
func NewOllama(cfg model.ProviderConfig, httpCfg model.HTTPConfig) (*Ollama, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second // local models can be slow
	}

	name := cfg.Model
	if name == "" {
		name = "llama3.2"
	}

	return &Ollama{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   name,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
			},
		},
	}, nil
}

// Name returns the backend name.
func (p *Ollama) Name() string {
	return "ollama"
}

// Score embeds both strings locally and returns their cosine similarity,
// clamped to [0,1].
func (p *Ollama) Score(ctx context.Context, a, b string) (float64, error) {
	if a == b {
		return 1.0, nil
	}

	embA, err := p.embed(ctx, a)
	if err != nil {
		return 0, err
	}
	embB, err := p.embed(ctx, b)
	if err != nil {
		return 0, err
	}

	sim := cosine64(embA, embB)
	if sim < 0 {
		sim = 0
	}
	if sim > 1 {
		sim = 1
	}
	return sim, nil
}

// Entail asks the local model for an entailment probability.
func (p *Ollama) Entail(ctx context.Context, premise, hypothesis string) (float64, error) {
	reply, err := p.generate(ctx, ollamaGenerateRequest{
		Model:   p.model,
		System:  entailSystemPrompt,
		Prompt:  fmt.Sprintf("Premise: %s\nHypothesis: %s", premise, hypothesis),
		Stream:  false,
		Options: ollamaOptions{Temperature: 0, NumPredict: 8},
	})
	if err != nil {
		return 0, err
	}
	return parseProbability(reply)
}

// Generate draws one sample with an explicit seed.
func (p *Ollama) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	reply, err := p.generate(ctx, ollamaGenerateRequest{
		Model:  p.model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: opts.Temperature,
			NumPredict:  opts.MaxTokens,
			Seed:        opts.Seed,
		},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

func (p *Ollama) embed(ctx context.Context, text string) ([]float64, error) {
	body, err := p.post(ctx, "/api/embeddings", ollamaEmbeddingRequest{
		Model:  p.model,
		Prompt: text,
	})
	if err != nil {
		return nil, err
	}

	var resp ollamaEmbeddingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode embedding: %v", ErrUnavailable, err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", ErrUnavailable)
	}
	return resp.Embedding, nil
}

func (p *Ollama) generate(ctx context.Context, req ollamaGenerateRequest) (string, error) {
	body, err := p.post(ctx, "/api/generate", req)
	if err != nil {
		return "", err
	}

	var resp ollamaGenerateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return resp.Response, nil
}

func (p *Ollama) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d from %s", ErrUnavailable, resp.StatusCode, p.baseURL+path)
	}
	return body, nil
}

func cosine64(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
