package highlight

import (
	"strings"
	"testing"

	"github.com/halluscan/halluscan/internal/model"
)

func TestAligner_Locate_ExactMatches(t *testing.T) {
	completion := "Paris is the capital. It has two million people."
	aligner := NewAligner(completion)

	spans := aligner.Locate([]string{"Paris is the capital", "It has two million people"})
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	for i, span := range spans {
		if span.Match != model.MatchExact {
			t.Errorf("span %d: expected exact match, got %s", i, span.Match)
		}
		if completion[span.Start:span.End] != span.Text {
			t.Errorf("span %d: offsets do not recover the text", i)
		}
	}
	if spans[0].End > spans[1].Start {
		t.Error("spans must not overlap for distinct sentences")
	}
}

func TestAligner_Locate_MonotonicCursor(t *testing.T) {
	// The same sentence twice must locate two distinct occurrences.
	completion := "Yes. No. Yes."
	aligner := NewAligner(completion)

	spans := aligner.Locate([]string{"Yes", "No", "Yes"})
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}
	if spans[0].Start == spans[2].Start {
		t.Error("second occurrence of a repeated sentence must locate past the first")
	}
	if spans[2].Start != strings.LastIndex(completion, "Yes") {
		t.Errorf("expected second Yes at %d, got %d", strings.LastIndex(completion, "Yes"), spans[2].Start)
	}
}

func TestAligner_Locate_ApproximateFallback(t *testing.T) {
	aligner := NewAligner("The original text here.")

	spans := aligner.Locate([]string{"completely different sentence"})
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Match != model.MatchApproximate {
		t.Errorf("expected approximate match, got %s", spans[0].Match)
	}
	if spans[0].Start != 0 {
		t.Errorf("approximate span should start at the cursor, got %d", spans[0].Start)
	}
	if spans[0].End-spans[0].Start != len("completely different sentence") {
		t.Error("approximate span length should equal the sentence length")
	}
}

func TestAligner_Locate_Idempotent(t *testing.T) {
	aligner := NewAligner("One. Two. Three.")
	sentences := []string{"One", "Two", "Three"}

	first := aligner.Locate(sentences)
	second := aligner.Locate(sentences)
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("span %d differs between identical calls", i)
		}
	}
}

func TestClassifyReason_Table(t *testing.T) {
	cases := []struct {
		reason   string
		color    model.SpanColor
		severity model.SpanSeverity
	}{
		{"NLI: entailment", model.ColorGreen, model.SeverityLow},
		{"NLI: neutral/contradiction", model.ColorYellow, model.SeverityMedium},
		{"NLI: contradiction", model.ColorRed, model.SeverityHigh},
		{"RS: unsupported", model.ColorRed, model.SeverityHigh},
		{"JB: high_risk", model.ColorPurple, model.SeverityCritical},
		{"something else entirely", model.ColorBlue, model.SeverityInfo},
	}
	for _, tc := range cases {
		color, severity := classifyReason(tc.reason)
		if color != tc.color || severity != tc.severity {
			t.Errorf("classifyReason(%q) = (%s, %s), want (%s, %s)",
				tc.reason, color, severity, tc.color, tc.severity)
		}
	}
}

func TestAligner_Classify_PreservesOrderAndSpans(t *testing.T) {
	aligner := NewAligner("First claim. Second claim.")
	located := aligner.Locate([]string{"First claim", "Second claim"})

	findings := []model.Finding{
		{Sentence: located[1], Reason: "RS: unsupported", Score: 0.1},
		{Sentence: located[0], Reason: "NLI: entailment", Score: 0.9},
	}
	spans := aligner.Classify(findings)
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Reason != "RS: unsupported" || spans[1].Reason != "NLI: entailment" {
		t.Error("Classify must preserve finding order")
	}
	if spans[0].Start != located[1].Start || spans[1].Start != located[0].Start {
		t.Error("Classify must carry sentence offsets through")
	}
	if spans[0].Color != model.ColorRed || spans[1].Color != model.ColorGreen {
		t.Error("Classify must map reasons to colors")
	}
}
