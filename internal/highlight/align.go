package highlight

import (
	"strings"

	"github.com/halluscan/halluscan/internal/model"
)

// Aligner maps detector sentences back onto exact character offsets in the
// completion and classifies findings for display.
type Aligner struct {
	completion string
}

// NewAligner creates an aligner over one completion.
func NewAligner(completion string) *Aligner {
	return &Aligner{completion: completion}
}

// Locate finds each sentence's offsets in the completion. The search cursor
// only moves forward: each sentence is looked for from the end of the
// previous successfully located one. When no exact match exists, the span is
// a best-effort approximation starting at the cursor and is marked as such.
// Repeated calls with the same inputs return identical offsets.
func (a *Aligner) Locate(sentences []string) []model.SentenceSpan {
	spans := make([]model.SentenceSpan, 0, len(sentences))
	cursor := 0

	for _, sentence := range sentences {
		idx := -1
		if cursor <= len(a.completion) {
			idx = strings.Index(a.completion[cursor:], sentence)
		}

		if idx >= 0 {
			start := cursor + idx
			end := start + len(sentence)
			spans = append(spans, model.SentenceSpan{
				Text:  sentence,
				Start: start,
				End:   end,
				Match: model.MatchExact,
			})
			cursor = end
		} else {
			spans = append(spans, model.SentenceSpan{
				Text:  sentence,
				Start: cursor,
				End:   cursor + len(sentence),
				Match: model.MatchApproximate,
			})
			cursor += len(sentence)
		}
	}

	return spans
}

// reasonRule maps a reason-code substring to its display classification.
// Rules are ordered; the first match wins.
type reasonRule struct {
	token    string
	color    model.SpanColor
	severity model.SpanSeverity
}

var reasonRules = []reasonRule{
	{"entailment", model.ColorGreen, model.SeverityLow},
	{"neutral", model.ColorYellow, model.SeverityMedium},
	{"contradiction", model.ColorRed, model.SeverityHigh},
	{"unsupported", model.ColorRed, model.SeverityHigh},
	{"high_risk", model.ColorPurple, model.SeverityCritical},
}

// Classify enriches findings with deterministic color and severity from
// their reason codes. Findings come out in detector order; overlapping spans
// are emitted as found, never merged.
func (a *Aligner) Classify(findings []model.Finding) []model.HighlightedSpan {
	spans := make([]model.HighlightedSpan, 0, len(findings))

	for _, f := range findings {
		color, severity := classifyReason(f.Reason)
		spans = append(spans, model.HighlightedSpan{
			Text:     f.Sentence.Text,
			Start:    f.Sentence.Start,
			End:      f.Sentence.End,
			Match:    f.Sentence.Match,
			Reason:   f.Reason,
			Score:    f.Score,
			Color:    color,
			Severity: severity,
		})
	}

	return spans
}

func classifyReason(reason string) (model.SpanColor, model.SpanSeverity) {
	for _, rule := range reasonRules {
		if strings.Contains(reason, rule.token) {
			return rule.color, rule.severity
		}
	}
	return model.ColorBlue, model.SeverityInfo
}
