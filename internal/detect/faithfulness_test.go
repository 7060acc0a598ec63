package detect

import (
	"context"
	"errors"
	"testing"
)

// fixedEntailment returns a canned score, or an error when failing is set.
type fixedEntailment struct {
	score   float64
	failing bool
}

func (e *fixedEntailment) Entail(ctx context.Context, premise, hypothesis string) (float64, error) {
	if e.failing {
		return 0, errors.New("backend down")
	}
	return e.score, nil
}

func TestFaithfulnessDetector_EmptyCompletion(t *testing.T) {
	detector := NewFaithfulnessDetector(&fixedEntailment{score: 0.9}, 0.5, 3)

	score, analyses := detector.Detect(context.Background(), "prompt", "", nil)
	if score != 1.0 {
		t.Errorf("expected score 1.0 for empty completion, got %v", score)
	}
	if len(analyses) != 0 {
		t.Errorf("expected no analyses, got %d", len(analyses))
	}
}

func TestFaithfulnessDetector_EntailedSentences(t *testing.T) {
	detector := NewFaithfulnessDetector(&fixedEntailment{score: 0.9}, 0.5, 3)

	score, analyses := detector.Detect(context.Background(),
		"Paris is the capital of France.",
		"Paris is the capital. France is in Europe.", nil)
	if score != 0.9 {
		t.Errorf("expected mean score 0.9, got %v", score)
	}
	if len(analyses) != 2 {
		t.Fatalf("expected 2 analyses, got %d", len(analyses))
	}
	for _, a := range analyses {
		if !a.Faithful {
			t.Errorf("sentence %d: expected faithful at 0.9 >= 0.5", a.Index)
		}
		if a.Reason != "NLI: entailment" {
			t.Errorf("expected entailment reason, got %q", a.Reason)
		}
		if a.Fallback {
			t.Error("backend succeeded, fallback should be false")
		}
	}
}

func TestFaithfulnessDetector_UnfaithfulSentence(t *testing.T) {
	detector := NewFaithfulnessDetector(&fixedEntailment{score: 0.2}, 0.5, 3)

	_, analyses := detector.Detect(context.Background(), "prompt", "The moon is cheese.", nil)
	if len(analyses) != 1 {
		t.Fatalf("expected 1 analysis, got %d", len(analyses))
	}
	if analyses[0].Faithful {
		t.Error("expected unfaithful at 0.2 < 0.5")
	}
	if analyses[0].Reason != "NLI: neutral/contradiction" {
		t.Errorf("expected neutral/contradiction reason, got %q", analyses[0].Reason)
	}
}

func TestFaithfulnessDetector_FallbackOnBackendFailure(t *testing.T) {
	detector := NewFaithfulnessDetector(&fixedEntailment{failing: true}, 0.5, 3)

	// Hypothesis words all appear in the premise, so the lexical
	// heuristic scores full coverage.
	score, analyses := detector.Detect(context.Background(),
		"the quick brown fox jumps", "the quick fox.", nil)
	if len(analyses) != 1 {
		t.Fatalf("expected 1 analysis, got %d", len(analyses))
	}
	if !analyses[0].Fallback {
		t.Error("expected fallback marker when the backend fails")
	}
	if score != 1.0 {
		t.Errorf("expected lexical coverage 1.0, got %v", score)
	}
}

func TestFaithfulnessDetector_PremiseIncludesContextDocs(t *testing.T) {
	detector := NewFaithfulnessDetector(nil, 0.5, 2)

	// The completion's words appear only in the context doc, so a
	// passing score proves the doc reached the premise.
	score, _ := detector.Detect(context.Background(),
		"question", "zebras graze savannas.",
		[]string{"zebras graze on open savannas in africa"})
	if score < 0.5 {
		t.Errorf("expected context doc to support the sentence, score %v", score)
	}

	// Docs beyond topDocs are ignored.
	score, _ = detector.Detect(context.Background(),
		"question", "zebras graze savannas.",
		[]string{"first filler doc", "second filler doc", "zebras graze on open savannas in africa"})
	if score >= 0.5 {
		t.Errorf("expected third doc past topDocs=2 to be ignored, score %v", score)
	}
}
