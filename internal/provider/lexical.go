package provider

import (
	"context"

	"github.com/halluscan/halluscan/internal/segment"
)

// Lexical is the model-free fallback backend: Jaccard word overlap for
// similarity and hypothesis-word coverage for entailment. Always available;
// it is also what detectors degrade to when a remote backend errors.
type Lexical struct{}

// NewLexical creates the fallback backend.
func NewLexical() *Lexical {
	return &Lexical{}
}

// Name returns the backend name.
func (l *Lexical) Name() string {
	return "lexical"
}

// Score computes Jaccard overlap of the two word sets.
func (l *Lexical) Score(_ context.Context, a, b string) (float64, error) {
	wordsA := segment.Words(a)
	wordsB := segment.Words(b)

	if len(wordsA) == 0 && len(wordsB) == 0 {
		return 1.0, nil // identical (empty) inputs
	}
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0.0, nil
	}

	intersection := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection

	return float64(intersection) / float64(union), nil
}

// Entail approximates entailment as the fraction of hypothesis words present
// in the premise.
func (l *Lexical) Entail(_ context.Context, premise, hypothesis string) (float64, error) {
	premiseWords := segment.Words(premise)
	hypothesisWords := segment.Words(hypothesis)

	if len(hypothesisWords) == 0 {
		return 0.0, nil
	}

	overlap := 0
	for w := range hypothesisWords {
		if _, ok := premiseWords[w]; ok {
			overlap++
		}
	}

	score := float64(overlap) / float64(len(hypothesisWords))
	if score > 1.0 {
		score = 1.0
	}
	return score, nil
}
