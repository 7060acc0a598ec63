package detect

import (
	"context"
	"fmt"
	"strings"

	"github.com/halluscan/halluscan/internal/provider"
	"github.com/halluscan/halluscan/internal/segment"
)

// SentenceAnalysis is one sentence's entailment verdict.
type SentenceAnalysis struct {
	Sentence string  `json:"sentence"`
	Index    int     `json:"sentence_index"`
	Score    float64 `json:"entailment_score"`
	Faithful bool    `json:"is_faithful"`
	Reason   string  `json:"reason"`
	Fallback bool    `json:"fallback,omitempty"` // scored by the lexical heuristic, not the backend
}

// FaithfulnessDetector checks sentence-level entailment of the completion
// against the prompt plus context documents.
type FaithfulnessDetector struct {
	entailment provider.Entailment
	fallback   provider.Entailment
	threshold  float64
	topDocs    int
}

// NewFaithfulnessDetector creates the detector. A backend entailment error
// is recovered per sentence by the lexical heuristic; it never aborts the
// evaluation.
func NewFaithfulnessDetector(entailment provider.Entailment, threshold float64, topDocs int) *FaithfulnessDetector {
	if topDocs <= 0 {
		topDocs = 3
	}
	return &FaithfulnessDetector{
		entailment: entailment,
		fallback:   provider.NewLexical(),
		threshold:  threshold,
		topDocs:    topDocs,
	}
}

// Detect returns the mean entailment score over completion sentences with
// the per-sentence analyses. An empty completion scores 1.0.
func (d *FaithfulnessDetector) Detect(ctx context.Context, prompt, completion string, contextDocs []string) (float64, []SentenceAnalysis) {
	sentences := segment.Split(completion)
	if len(sentences) == 0 {
		return 1.0, []SentenceAnalysis{}
	}

	premise := d.buildPremise(prompt, contextDocs)

	analyses := make([]SentenceAnalysis, 0, len(sentences))
	total := 0.0

	for i, sentence := range sentences {
		score, usedFallback := d.entail(ctx, premise, sentence)
		total += score

		faithful := score >= d.threshold
		reason := "NLI: entailment"
		if !faithful {
			reason = "NLI: neutral/contradiction"
		}

		analyses = append(analyses, SentenceAnalysis{
			Sentence: sentence,
			Index:    i,
			Score:    score,
			Faithful: faithful,
			Reason:   reason,
			Fallback: usedFallback,
		})
	}

	return total / float64(len(sentences)), analyses
}

// entail scores one sentence, degrading to the lexical heuristic on backend
// failure. The bool reports whether the fallback was used.
func (d *FaithfulnessDetector) entail(ctx context.Context, premise, hypothesis string) (float64, bool) {
	if d.entailment != nil {
		score, err := d.entailment.Entail(ctx, premise, hypothesis)
		if err == nil {
			return score, false
		}
	}
	score, _ := d.fallback.Entail(ctx, premise, hypothesis)
	return score, true
}

// buildPremise joins the prompt with the leading context documents.
func (d *FaithfulnessDetector) buildPremise(prompt string, contextDocs []string) string {
	parts := []string{prompt}
	for i, doc := range contextDocs {
		if i >= d.topDocs {
			break
		}
		parts = append(parts, fmt.Sprintf("Context %d: %s", i+1, doc))
	}
	return strings.Join(parts, " ")
}
