package detect

import (
	"context"
	"fmt"

	"github.com/halluscan/halluscan/internal/provider"
)

// ConsistencyResult carries the self-consistency score with the samples and
// pairwise similarity matrix that produced it.
type ConsistencyResult struct {
	Score   float64     `json:"score"`
	Samples []string    `json:"samples"`
	Matrix  [][]float64 `json:"similarity_matrix"`
}

// ConsistencyDetector measures agreement among k independent generations
// for the same prompt. High agreement suggests the model is answering from
// knowledge rather than confabulating.
type ConsistencyDetector struct {
	generator  provider.Generator
	similarity provider.Similarity
	fallback   provider.Similarity
	k          int
}

// NewConsistencyDetector creates the detector. The generator may be nil;
// Detect then reports ErrNoGenerator and the pipeline substitutes the
// neutral default.
func NewConsistencyDetector(generator provider.Generator, similarity provider.Similarity, k int) *ConsistencyDetector {
	if k < 2 {
		k = 2
	}
	return &ConsistencyDetector{
		generator:  generator,
		similarity: similarity,
		fallback:   provider.NewLexical(),
		k:          k,
	}
}

// ErrNoGenerator reports that no generation backend is configured.
var ErrNoGenerator = fmt.Errorf("self-consistency: %w", provider.ErrUnavailable)

// Detect draws k samples with deterministic per-sample seeds derived from
// the explicit base seed, then scores their mean pairwise similarity over
// the upper triangle of the similarity matrix.
func (d *ConsistencyDetector) Detect(ctx context.Context, prompt string, temperature float64, maxTokens int, seed int64) (ConsistencyResult, error) {
	if d.generator == nil {
		return ConsistencyResult{}, ErrNoGenerator
	}

	samples := make([]string, 0, d.k)
	for i := 0; i < d.k; i++ {
		sample, err := d.generator.Generate(ctx, prompt, provider.GenerateOptions{
			Temperature: temperature,
			MaxTokens:   maxTokens,
			Seed:        seed + int64(i),
		})
		if err != nil {
			return ConsistencyResult{}, fmt.Errorf("generate sample %d: %w", i, err)
		}
		samples = append(samples, sample)
	}

	matrix := d.similarityMatrix(ctx, samples)

	// Mean of the upper triangle, diagonal excluded.
	total, count := 0.0, 0
	for i := 0; i < len(samples); i++ {
		for j := i + 1; j < len(samples); j++ {
			total += matrix[i][j]
			count++
		}
	}

	score := 1.0
	if count > 0 {
		score = total / float64(count)
	}

	return ConsistencyResult{Score: score, Samples: samples, Matrix: matrix}, nil
}

func (d *ConsistencyDetector) similarityMatrix(ctx context.Context, samples []string) [][]float64 {
	matrix := make([][]float64, len(samples))
	for i := range matrix {
		matrix[i] = make([]float64, len(samples))
		matrix[i][i] = 1.0
	}

	for i := 0; i < len(samples); i++ {
		for j := i + 1; j < len(samples); j++ {
			sim := d.score(ctx, samples[i], samples[j])
			matrix[i][j] = sim
			matrix[j][i] = sim
		}
	}
	return matrix
}

func (d *ConsistencyDetector) score(ctx context.Context, a, b string) float64 {
	if d.similarity != nil {
		if sim, err := d.similarity.Score(ctx, a, b); err == nil {
			return sim
		}
	}
	sim, _ := d.fallback.Score(ctx, a, b)
	return sim
}
