package detect

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/halluscan/halluscan/internal/provider"
)

// scriptedGenerator returns canned samples in order.
type scriptedGenerator struct {
	samples []string
	calls   int
	seeds   []int64
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string, opts provider.GenerateOptions) (string, error) {
	g.seeds = append(g.seeds, opts.Seed)
	if g.calls >= len(g.samples) {
		return "", fmt.Errorf("no sample %d", g.calls)
	}
	sample := g.samples[g.calls]
	g.calls++
	return sample, nil
}

func TestConsistencyDetector_IdenticalSamples(t *testing.T) {
	gen := &scriptedGenerator{samples: []string{
		"Paris is the capital of France.",
		"Paris is the capital of France.",
		"Paris is the capital of France.",
	}}
	detector := NewConsistencyDetector(gen, provider.NewLexical(), 3)

	result, err := detector.Detect(context.Background(), "Capital of France?", 0.7, 64, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score != 1.0 {
		t.Errorf("expected score 1.0 for identical samples, got %v", result.Score)
	}
	if len(result.Samples) != 3 {
		t.Errorf("expected 3 samples, got %d", len(result.Samples))
	}
}

func TestConsistencyDetector_DivergentSamples(t *testing.T) {
	gen := &scriptedGenerator{samples: []string{
		"Paris is the capital of France.",
		"Berlin hosts the federal government of Germany.",
	}}
	detector := NewConsistencyDetector(gen, provider.NewLexical(), 2)

	result, err := detector.Detect(context.Background(), "Capital of France?", 0.7, 64, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score >= 0.5 {
		t.Errorf("expected low score for divergent samples, got %v", result.Score)
	}
}

func TestConsistencyDetector_SeedsAreDeterministic(t *testing.T) {
	gen := &scriptedGenerator{samples: []string{"a", "b", "c"}}
	detector := NewConsistencyDetector(gen, provider.NewLexical(), 3)

	_, err := detector.Detect(context.Background(), "prompt", 0.7, 64, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int64{100, 101, 102}
	for i, seed := range gen.seeds {
		if seed != want[i] {
			t.Errorf("sample %d: expected seed %d, got %d", i, want[i], seed)
		}
	}
}

func TestConsistencyDetector_NoGenerator(t *testing.T) {
	detector := NewConsistencyDetector(nil, provider.NewLexical(), 3)

	_, err := detector.Detect(context.Background(), "prompt", 0.7, 64, 42)
	if !errors.Is(err, ErrNoGenerator) {
		t.Errorf("expected ErrNoGenerator, got %v", err)
	}
	if !errors.Is(err, provider.ErrUnavailable) {
		t.Error("ErrNoGenerator should wrap provider.ErrUnavailable")
	}
}

func TestConsistencyDetector_MatrixIsSymmetric(t *testing.T) {
	gen := &scriptedGenerator{samples: []string{
		"the cat sat on the mat",
		"a dog ran in the park",
		"the cat sat on a mat",
	}}
	detector := NewConsistencyDetector(gen, provider.NewLexical(), 3)

	result, err := detector.Detect(context.Background(), "prompt", 0.7, 64, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range result.Matrix {
		if result.Matrix[i][i] != 1.0 {
			t.Errorf("diagonal [%d][%d] should be 1.0, got %v", i, i, result.Matrix[i][i])
		}
		for j := range result.Matrix[i] {
			if result.Matrix[i][j] != result.Matrix[j][i] {
				t.Errorf("matrix not symmetric at [%d][%d]", i, j)
			}
		}
	}
}
