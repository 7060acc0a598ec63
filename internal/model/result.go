package model

import "time"

// Signal names form a fixed, closed set. Every evaluation produces a score
// for each of the five, whether a detector ran or fell back to its default.
const (
	SignalSelfConsistency    = "self_consistency"
	SignalNLIFaithfulness    = "nli_faithfulness"
	SignalNumericSanity      = "numeric_sanity"
	SignalRetrievalSupport   = "retrieval_support"
	SignalJailbreakHeuristic = "jailbreak_heuristics"
)

// KnownSignals lists every valid signal name.
var KnownSignals = []string{
	SignalSelfConsistency,
	SignalNLIFaithfulness,
	SignalNumericSanity,
	SignalRetrievalSupport,
	SignalJailbreakHeuristic,
}

// RiskLevel is the discrete classification of a risk score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// MatchConfidence distinguishes exact sentence-to-offset matches from
// best-effort approximations where the sentence text could not be found
// verbatim in the completion.
type MatchConfidence string

const (
	MatchExact       MatchConfidence = "exact"
	MatchApproximate MatchConfidence = "approximate"
)

// SentenceSpan is one sentence's location in the completion. When Match is
// MatchExact, completion[Start:End] equals Text. Approximate spans carry
// plausible offsets that were never verified against content.
type SentenceSpan struct {
	Text  string          `json:"text"`
	Start int             `json:"start"`
	End   int             `json:"end"`
	Match MatchConfidence `json:"match"`
}

// SpanColor is the display color assigned to a highlighted span.
type SpanColor string

const (
	ColorGreen  SpanColor = "green"
	ColorYellow SpanColor = "yellow"
	ColorRed    SpanColor = "red"
	ColorPurple SpanColor = "purple"
	ColorBlue   SpanColor = "blue"
)

// SpanSeverity ranks how serious a highlighted span is.
type SpanSeverity string

const (
	SeverityLow      SpanSeverity = "low"
	SeverityMedium   SpanSeverity = "medium"
	SeverityHigh     SpanSeverity = "high"
	SeverityCritical SpanSeverity = "critical"
	SeverityInfo     SpanSeverity = "info"
)

// Finding is the unit handed from a per-sentence detector to the span
// aligner: a sentence, the detector's reason code, and its raw score.
type Finding struct {
	Sentence SentenceSpan `json:"sentence"`
	Reason   string       `json:"reason"`
	Score    float64      `json:"score"`
}

// HighlightedSpan is a Finding enriched with deterministic color and
// severity derived from its reason code.
type HighlightedSpan struct {
	Text     string          `json:"text"`
	Start    int             `json:"start"`
	End      int             `json:"end"`
	Match    MatchConfidence `json:"match"`
	Reason   string          `json:"reason"`
	Score    float64         `json:"score"`
	Color    SpanColor       `json:"color"`
	Severity SpanSeverity    `json:"severity"`
}

// SignalDetail carries per-signal diagnostics alongside the bare score, so
// downstream consumers can tell "verified low risk" from "detector fell back
// to its neutral default".
type SignalDetail struct {
	Score    float64                `json:"score"`
	Fallback bool                   `json:"fallback"`           // detector substituted its neutral default
	Reason   string                 `json:"reason,omitempty"`   // why the fallback happened, if it did
	Data     map[string]interface{} `json:"data,omitempty"`     // transparent scoring inputs
}

// RiskResult is the terminal artifact of one evaluation. Immutable once
// returned; every field is allocated fresh per call.
type RiskResult struct {
	RiskScore float64                 `json:"risk_score"`
	RiskLevel RiskLevel               `json:"risk_level"`
	Signals   map[string]float64      `json:"signals"`
	Details   map[string]SignalDetail `json:"details,omitempty"`
	Spans     []HighlightedSpan       `json:"spans"`

	Prompt      string    `json:"prompt,omitempty"`
	Completion  string    `json:"completion,omitempty"`
	ContextDocs []string  `json:"context_docs,omitempty"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}
