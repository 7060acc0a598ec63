package score

import (
	"github.com/halluscan/halluscan/internal/model"
)

// Polarity states which direction of a raw signal score means risk.
type Polarity int

const (
	// HigherIsSafer: the signal measures support, so risk is its complement.
	HigherIsSafer Polarity = iota
	// HigherIsRiskier: the signal measures risk directly.
	HigherIsRiskier
)

// signalPolarity encodes per-signal polarity as data rather than a
// special-cased name comparison. Four of the five signals measure support;
// only the jailbreak signal measures risk directly. Adding a signal without
// an entry here makes Aggregate ignore it, not misread it.
var signalPolarity = map[string]Polarity{
	model.SignalSelfConsistency:    HigherIsSafer,
	model.SignalNLIFaithfulness:    HigherIsSafer,
	model.SignalNumericSanity:      HigherIsSafer,
	model.SignalRetrievalSupport:   HigherIsSafer,
	model.SignalJailbreakHeuristic: HigherIsRiskier,
}

// Aggregator combines named signal scores with configured weights into one
// risk score. It never mutates the supplied weights; renormalization happens
// on a local copy.
type Aggregator struct {
	weights map[string]float64
}

// NewAggregator creates an aggregator with the given weight map. A nil map
// falls back to the defaults.
func NewAggregator(weights map[string]float64) *Aggregator {
	if weights == nil {
		weights = model.DefaultWeights()
	}
	return &Aggregator{weights: weights}
}

// Aggregate returns the combined risk score in [0,1]. Weights are
// renormalized to sum to 1; an all-zero weight map is used as-is so the
// result degrades to zero instead of dividing by zero. Signals with no
// weight entry, and signals with no polarity entry, contribute nothing.
func (a *Aggregator) Aggregate(signals map[string]float64) float64 {
	total := 0.0
	for _, w := range a.weights {
		total += w
	}

	normalized := make(map[string]float64, len(a.weights))
	for name, w := range a.weights {
		if total > 0 {
			normalized[name] = w / total
		} else {
			normalized[name] = w
		}
	}

	risk := 0.0
	for name, raw := range signals {
		w, ok := normalized[name]
		if !ok {
			continue
		}
		polarity, ok := signalPolarity[name]
		if !ok {
			continue
		}
		switch polarity {
		case HigherIsRiskier:
			risk += w * raw
		case HigherIsSafer:
			risk += w * (1.0 - raw)
		}
	}

	return clamp01(risk)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
