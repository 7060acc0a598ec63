package provider

import (
	"context"
	"errors"
)

// ErrUnavailable reports that a scoring backend is missing or unreachable.
// Detectors convert it into their documented neutral defaults; it never
// aborts an evaluation.
var ErrUnavailable = errors.New("provider unavailable")

// Similarity scores the semantic similarity of two strings in [0,1].
// Implementations must be symmetric and return 1.0 for identical inputs.
type Similarity interface {
	Score(ctx context.Context, a, b string) (float64, error)
}

// Entailment returns P(premise entails hypothesis) in [0,1].
type Entailment interface {
	Entail(ctx context.Context, premise, hypothesis string) (float64, error)
}

// GenerateOptions controls sample generation. Seed is explicit so that
// concurrent engines never share a global random state.
type GenerateOptions struct {
	Temperature float64
	MaxTokens   int
	Seed        int64
}

// Generator draws one completion for a prompt. Used by the self-consistency
// detector; optional, backends without generation simply don't implement it.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}

// Backend bundles the scoring capabilities every provider must offer.
// Backends that can also generate additionally satisfy Generator.
type Backend interface {
	Similarity
	Entailment
	Name() string
}

// CanGenerate reports whether b ultimately supports sample generation,
// seeing through decorators that forward Generate regardless.
func CanGenerate(b Backend) bool {
	if probe, ok := b.(interface{ CanGenerate() bool }); ok {
		return probe.CanGenerate()
	}
	_, ok := b.(Generator)
	return ok
}
