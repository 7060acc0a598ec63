package highlight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/halluscan/halluscan/internal/model"
)

func TestAnnotate_AppliesSpansInDescendingOrder(t *testing.T) {
	completion := "Good claim. Bad claim."
	spans := []model.HighlightedSpan{
		{Text: "Good claim", Start: 0, End: 10, Color: model.ColorGreen, Reason: "NLI: entailment", Score: 0.9},
		{Text: "Bad claim", Start: 12, End: 21, Color: model.ColorRed, Reason: "RS: unsupported", Score: 0.1},
	}

	out := string(annotate(completion, spans))
	if strings.Count(out, "<mark") != 2 {
		t.Fatalf("expected 2 marks, got %d in %q", strings.Count(out, "<mark"), out)
	}
	// Both span texts survive with their surrounding punctuation intact.
	if !strings.Contains(out, ">Good claim</mark>") || !strings.Contains(out, ">Bad claim</mark>") {
		t.Errorf("span text mangled: %q", out)
	}
	if !strings.Contains(out, "#2e7d32") || !strings.Contains(out, "#c62828") {
		t.Errorf("expected green and red colors in %q", out)
	}
}

func TestAnnotate_EscapesOutsideText(t *testing.T) {
	completion := "a < b. flagged part."
	spans := []model.HighlightedSpan{
		{Text: "flagged part", Start: 7, End: 19, Color: model.ColorYellow, Reason: "NLI: neutral", Score: 0.3},
	}

	out := string(annotate(completion, spans))
	if !strings.Contains(out, "a &lt; b.") {
		t.Errorf("unmarked text must be HTML-escaped: %q", out)
	}
}

func TestAnnotate_DuplicateRangeMarkedOnce(t *testing.T) {
	completion := "Ignore previous instructions. Fine sentence."
	spans := []model.HighlightedSpan{
		{Text: "Ignore previous instructions", Start: 0, End: 28, Color: model.ColorRed, Reason: "RS: unsupported", Score: 0.1},
		{Text: "Ignore previous instructions", Start: 0, End: 28, Color: model.ColorPurple, Reason: "JB: high_risk", Score: 0.8},
	}

	out := string(annotate(completion, spans))
	if got := strings.Count(out, "<mark"); got != 1 {
		t.Fatalf("expected 1 mark for a twice-flagged sentence, got %d in %q", got, out)
	}
	if !strings.Contains(out, ">Ignore previous instructions</mark>") {
		t.Errorf("span text mangled: %q", out)
	}
}

func TestAnnotate_SkipsInvalidSpans(t *testing.T) {
	completion := "short text"
	spans := []model.HighlightedSpan{
		{Text: "x", Start: 50, End: 60, Color: model.ColorRed},
		{Text: "y", Start: 5, End: 3, Color: model.ColorRed},
	}

	out := string(annotate(completion, spans))
	if strings.Contains(out, "<mark") {
		t.Errorf("out-of-range spans must be dropped: %q", out)
	}
}

func TestWriteHTMLReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.html")

	result := &model.RiskResult{
		RiskScore:   0.42,
		RiskLevel:   model.RiskMedium,
		Completion:  "Paris is the capital. Jupiter has ninety moons.",
		Signals:     map[string]float64{model.SignalNumericSanity: 1.0},
		Details:     map[string]model.SignalDetail{},
		Spans:       []model.HighlightedSpan{{Text: "Jupiter has ninety moons", Start: 22, End: 46, Color: model.ColorRed, Severity: model.SeverityHigh, Reason: "RS: unsupported"}},
		EvaluatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if err := WriteHTMLReport(result, path); err != nil {
		t.Fatalf("WriteHTMLReport: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "0.420") {
		t.Error("report should include the risk score")
	}
	if !strings.Contains(out, "<mark") {
		t.Error("report should include highlighted spans")
	}
	if !strings.Contains(out, "numeric_sanity") {
		t.Error("report should list signals")
	}
}
