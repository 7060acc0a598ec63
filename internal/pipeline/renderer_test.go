package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/halluscan/halluscan/internal/model"
)

func sampleResult() *model.RiskResult {
	return &model.RiskResult{
		RiskScore:  0.72,
		RiskLevel:  model.RiskHigh,
		Signals:    map[string]float64{model.SignalNumericSanity: 0.0, model.SignalNLIFaithfulness: 0.4},
		Details: map[string]model.SignalDetail{
			model.SignalNLIFaithfulness: {Score: 0.4, Fallback: true, Reason: "entailment backend unavailable, lexical heuristic used"},
		},
		Spans: []model.HighlightedSpan{
			{Text: "15 + 27 = 45", Start: 14, End: 26, Match: model.MatchExact, Reason: "NLI: neutral/contradiction", Color: model.ColorYellow, Severity: model.SeverityMedium},
		},
		Prompt:      "What is 15 plus 27?",
		Completion:  "The answer is 15 + 27 = 45.",
		EvaluatedAt: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
	}
}

func TestRenderer_RenderJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	renderer := NewRenderer(true)

	if err := renderer.RenderJSON(sampleResult(), path); err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var decoded model.RiskResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if decoded.RiskScore != 0.72 || decoded.RiskLevel != model.RiskHigh {
		t.Errorf("round trip lost fields: %+v", decoded)
	}
	if len(decoded.Spans) != 1 {
		t.Errorf("expected 1 span, got %d", len(decoded.Spans))
	}
}

func TestRenderer_RenderMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	renderer := NewRenderer(true)

	if err := renderer.RenderMarkdown(sampleResult(), path); err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		"# Hallucination Risk Report",
		"0.720",
		"high",
		"numeric_sanity",
		"entailment backend unavailable",
		"15 + 27 = 45",
		"Generated by halluscan",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown report missing %q", want)
		}
	}
}

func TestRenderer_MarkdownFooterOptional(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	renderer := NewRenderer(false)

	if err := renderer.RenderMarkdown(sampleResult(), path); err != nil {
		t.Fatalf("RenderMarkdown: %v", err)
	}
	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "Generated by halluscan") {
		t.Error("footer must be omitted when disabled")
	}
}
