package provider

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/halluscan/halluscan/internal/model"
)

// OpenAI scores through the OpenAI API: the embeddings endpoint for cosine
// similarity and chat completions for entailment probability and sample
// generation.
type OpenAI struct {
	client         *openai.Client
	chatModel      string
	embeddingModel string
	timeout        time.Duration
}

// NewOpenAI creates an OpenAI backend.
func NewOpenAI(cfg model.ProviderConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	chatModel := cfg.Model
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}
	embeddingModel := cfg.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = string(openai.SmallEmbedding3)
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &OpenAI{
		client:         openai.NewClientWithConfig(clientConfig),
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
		timeout:        timeout,
	}, nil
}

// Name returns the backend name.
func (p *OpenAI) Name() string {
	return "openai"
}

// Score embeds both strings and returns their cosine similarity, clamped to
// [0,1].
func (p *OpenAI) Score(ctx context.Context, a, b string) (float64, error) {
	if a == b {
		return 1.0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{a, b},
		Model: openai.EmbeddingModel(p.embeddingModel),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: embeddings: %v", ErrUnavailable, err)
	}
	if len(resp.Data) < 2 {
		return 0, fmt.Errorf("%w: embeddings: got %d vectors, want 2", ErrUnavailable, len(resp.Data))
	}

	sim := cosine(resp.Data[0].Embedding, resp.Data[1].Embedding)
	if sim < 0 {
		sim = 0
	}
	if sim > 1 {
		sim = 1
	}
	return sim, nil
}

const entailSystemPrompt = `You judge natural language inference. Given a premise and a hypothesis, respond with only a single number between 0 and 1: the probability that the premise entails the hypothesis. No explanation.`

// Entail asks the chat model for an entailment probability and parses the
// numeric answer.
func (p *OpenAI) Entail(ctx context.Context, premise, hypothesis string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: entailSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Premise: %s\nHypothesis: %s", premise, hypothesis)},
		},
		MaxTokens:   8,
		Temperature: 0,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: entailment: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return 0, fmt.Errorf("%w: entailment: empty response", ErrUnavailable)
	}

	return parseProbability(resp.Choices[0].Message.Content)
}

// Generate draws one sample from the chat model with an explicit seed.
func (p *OpenAI) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	seed := int(opts.Seed)
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   opts.MaxTokens,
		Temperature: float32(opts.Temperature),
		Seed:        &seed,
	})
	if err != nil {
		return "", fmt.Errorf("%w: generate: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: generate: empty response", ErrUnavailable)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

var probabilityRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// parseProbability pulls the first numeric literal out of a model reply and
// clamps it to [0,1].
func parseProbability(reply string) (float64, error) {
	match := probabilityRe.FindString(reply)
	if match == "" {
		return 0, fmt.Errorf("%w: no probability in reply %q", ErrUnavailable, reply)
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: parse probability %q: %v", ErrUnavailable, match, err)
	}
	if v > 1 {
		v = 1
	}
	if v < 0 {
		v = 0
	}
	return v, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
