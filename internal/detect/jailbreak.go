package detect

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/halluscan/halluscan/internal/segment"
)

// jailbreakPatterns is the fixed catalogue of manipulation/safety-risk
// expressions. Each matched pattern counts once regardless of how many times
// it occurs.
var jailbreakPatterns = []*regexp.Regexp{
	// Role-playing and character instructions
	regexp.MustCompile(`(?i)\b(act as|pretend to be|you are now|roleplay|character)\b`),
	regexp.MustCompile(`(?i)\b(ignore|forget|disregard|override)\s+(previous|earlier|above)\s+(instructions|rules|guidelines)\b`),
	regexp.MustCompile(`(?i)\b(do\s+not\s+follow|don't\s+follow|ignore\s+all)\s+(safety|ethical|moral)\s+(guidelines|rules|restrictions)\b`),

	// System prompt manipulation
	regexp.MustCompile(`(?i)\b(system\s+prompt|initial\s+instructions|base\s+instructions)\b`),
	regexp.MustCompile(`(?i)\b(developer\s+mode|debug\s+mode|test\s+mode)\b`),

	// Harmful content requests
	regexp.MustCompile(`(?i)\b(harmful|dangerous|illegal|unethical|inappropriate)\s+(content|information|instructions)\b`),
	regexp.MustCompile(`(?i)\b(how\s+to\s+(harm|hurt|kill|injure|damage))\b`),
	regexp.MustCompile(`(?i)\b(explosive|weapon|bomb|poison)\s+(recipe|formula|instructions)\b`),

	// Privacy and data requests
	regexp.MustCompile(`(?i)\b(personal\s+data|private\s+information|user\s+data|training\s+data)\b`),
	regexp.MustCompile(`(?i)\b(access\s+to|retrieve|extract)\s+(files|documents|databases)\b`),

	// Model manipulation
	regexp.MustCompile(`(?i)\b(change\s+your|modify\s+your|update\s+your)\s+(behavior|personality|responses)\b`),
	regexp.MustCompile(`(?i)\b(bypass|circumvent|work\s+around)\s+(restrictions|safeguards|filters)\b`),

	// Suspicious formatting
	regexp.MustCompile(`[A-Z]{3,}`),
	regexp.MustCompile(`[!]{2,}`),
	regexp.MustCompile(`[?]{2,}`),
}

var highRiskKeywords = setOf(
	"jailbreak", "bypass", "override", "ignore", "disregard", "circumvent",
	"harmful", "dangerous", "illegal", "unethical", "inappropriate",
	"weapon", "explosive", "poison", "harm", "hurt", "kill",
	"personal", "private", "confidential", "secret",
	"system", "developer", "debug", "test",
)

var mediumRiskKeywords = setOf(
	"roleplay", "character", "pretend", "act", "simulate",
	"forget", "change", "modify", "update", "alter",
	"restriction", "safeguard", "filter", "block",
)

var overrideIndicators = []string{
	"ignore previous", "forget earlier", "disregard above",
	"new instructions", "updated rules", "changed guidelines",
}

var roleIndicators = []string{
	"act as", "pretend to be", "you are now", "roleplay",
	"character", "persona", "identity",
}

// hasRepeatedRun reports whether text contains a run of 3 or more identical
// characters. Spelled out because RE2 has no backreferences.
func hasRepeatedRun(text string) bool {
	run := 0
	var prev rune
	for i, r := range text {
		if i > 0 && r == prev {
			run++
			if run >= 2 {
				return true
			}
		} else {
			run = 0
		}
		prev = r
	}
	return false
}

// RiskBreakdown is the contributing-factor breakdown behind a safety-risk
// score.
type RiskBreakdown struct {
	PatternMatches     int     `json:"pattern_matches"`
	HighRiskKeywords   int     `json:"high_risk_keywords"`
	MediumRiskKeywords int     `json:"medium_risk_keywords"`
	FormattingScore    float64 `json:"formatting_score"`
	ManipulationScore  float64 `json:"manipulation_score"`
	PatternWeight      float64 `json:"pattern_weight"`
	KeywordWeight      float64 `json:"keyword_weight"`
	FormattingWeight   float64 `json:"formatting_weight"`
	ManipulationWeight float64 `json:"manipulation_weight"`
	Reason             string  `json:"reason"`
}

// RiskScanner detects manipulation attempts, risky keywords, and suspicious
// formatting. Pure regex/keyword heuristics; no learned model.
type RiskScanner struct{}

// NewRiskScanner creates a new scanner.
func NewRiskScanner() *RiskScanner {
	return &RiskScanner{}
}

// Scan returns the safety-risk score in [0,1] (higher is riskier) with the
// factor breakdown. Empty input scores 0.
func (s *RiskScanner) Scan(text string) (float64, RiskBreakdown) {
	if text == "" {
		return 0.0, RiskBreakdown{Reason: "JB: safe"}
	}

	patternMatches := 0
	for _, p := range jailbreakPatterns {
		if p.MatchString(text) {
			patternMatches++
		}
	}

	highHits, mediumHits := s.countRiskKeywords(text)
	formattingScore := s.formattingScore(text)
	manipulationScore := s.manipulationScore(text)

	patternWeight := minF(0.4, float64(patternMatches)*0.1)
	keywordWeight := minF(0.3, float64(highHits)*0.15+float64(mediumHits)*0.05)
	formattingWeight := formattingScore * 0.2
	manipulationWeight := manipulationScore * 0.1

	score := minF(1.0, patternWeight+keywordWeight+formattingWeight+manipulationWeight)

	reason := "JB: safe"
	switch {
	case score >= 0.7:
		reason = "JB: high_risk"
	case score >= 0.3:
		reason = "JB: suspicious"
	}

	return score, RiskBreakdown{
		PatternMatches:     patternMatches,
		HighRiskKeywords:   highHits,
		MediumRiskKeywords: mediumHits,
		FormattingScore:    formattingScore,
		ManipulationScore:  manipulationScore,
		PatternWeight:      patternWeight,
		KeywordWeight:      keywordWeight,
		FormattingWeight:   formattingWeight,
		ManipulationWeight: manipulationWeight,
		Reason:             reason,
	}
}

// countRiskKeywords counts distinct high- and medium-risk keywords present
// among the whitespace-tokenized, lower-cased words of the text.
func (s *RiskScanner) countRiskKeywords(text string) (int, int) {
	words := segment.Words(text)

	high, medium := 0, 0
	for w := range words {
		if _, ok := highRiskKeywords[w]; ok {
			high++
		}
		if _, ok := mediumRiskKeywords[w]; ok {
			medium++
		}
	}
	return high, medium
}

// formattingScore accumulates up to 1.0 from caps ratio, punctuation excess,
// and repeated character runs.
func (s *RiskScanner) formattingScore(text string) float64 {
	score := 0.0

	upper := 0
	runes := []rune(text)
	for _, r := range runes {
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if len(runes) > 0 && float64(upper)/float64(len(runes)) > 0.3 {
		score += 0.3
	}

	if strings.Count(text, "!") > 3 || strings.Count(text, "?") > 3 {
		score += 0.2
	}

	if hasRepeatedRun(text) {
		score += 0.1
	}

	return minF(1.0, score)
}

// manipulationScore accumulates from instruction-override and
// role-assumption phrases, capped at 1.0.
func (s *RiskScanner) manipulationScore(text string) float64 {
	lower := strings.ToLower(text)
	score := 0.0

	for _, phrase := range overrideIndicators {
		if strings.Contains(lower, phrase) {
			score += 0.4
		}
	}
	for _, phrase := range roleIndicators {
		if strings.Contains(lower, phrase) {
			score += 0.3
		}
	}

	return minF(1.0, score)
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
