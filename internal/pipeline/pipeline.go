package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/halluscan/halluscan/internal/detect"
	"github.com/halluscan/halluscan/internal/highlight"
	"github.com/halluscan/halluscan/internal/model"
	"github.com/halluscan/halluscan/internal/provider"
	"github.com/halluscan/halluscan/internal/score"
	"github.com/halluscan/halluscan/internal/segment"
)

// ErrInvalidInput reports a malformed prompt or completion. It is the only
// error Evaluate returns; every detector failure is recovered into the
// detector's documented neutral default.
var ErrInvalidInput = errors.New("invalid input")

// Monitor runs the full evaluation: segment, detect, align, aggregate,
// classify. It holds no per-call state, so one Monitor is safe for
// concurrent Evaluate calls.
type Monitor struct {
	cfg     *model.Config
	backend provider.Backend

	numeric      *detect.NumericChecker
	scanner      *detect.RiskScanner
	faithfulness *detect.FaithfulnessDetector
	consistency  *detect.ConsistencyDetector
	retrieval    *detect.RetrievalDetector
	aggregator   *score.Aggregator
}

// NewMonitor creates a monitor around the given scoring backend. A nil
// backend selects the lexical fallback.
func NewMonitor(cfg *model.Config, backend provider.Backend) *Monitor {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if backend == nil {
		backend = provider.NewLexical()
	}

	var generator provider.Generator
	if provider.CanGenerate(backend) {
		if gen, ok := backend.(provider.Generator); ok {
			generator = gen
		}
	}

	return &Monitor{
		cfg:          cfg,
		backend:      backend,
		numeric:      detect.NewNumericChecker(cfg.Detect.NumericTolerance),
		scanner:      detect.NewRiskScanner(),
		faithfulness: detect.NewFaithfulnessDetector(backend, cfg.Detect.EntailmentThreshold, cfg.Detect.ContextDocsInPremise),
		consistency:  detect.NewConsistencyDetector(generator, backend, cfg.Detect.KSamples),
		retrieval:    detect.NewRetrievalDetector(backend, cfg.Detect.RetrievalSimThreshold, cfg.Detect.ChunkSize),
		aggregator:   score.NewAggregator(cfg.Scoring.Weights),
	}
}

// Evaluate assesses the hallucination risk of completion relative to prompt
// and optional context documents. All result entities are allocated fresh;
// nothing is cached on the monitor.
func (m *Monitor) Evaluate(ctx context.Context, prompt, completion string, contextDocs []string) (*model.RiskResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is empty", ErrInvalidInput)
	}
	if strings.TrimSpace(completion) == "" {
		return nil, fmt.Errorf("%w: completion is empty", ErrInvalidInput)
	}

	// SEGMENT: one sentence list shared by every sentence-level detector
	// and the aligner, so sentence indexes line up.
	sentences := segment.Split(completion)
	aligner := highlight.NewAligner(completion)
	located := aligner.Locate(sentences)

	signals := make(map[string]float64, len(model.KnownSignals))
	details := make(map[string]model.SignalDetail, len(model.KnownSignals))
	var findings []model.Finding

	// DETECT: self-consistency.
	m.detectConsistency(ctx, prompt, signals, details)

	// DETECT: NLI faithfulness.
	nliScore, nliAnalyses := m.faithfulness.Detect(ctx, prompt, completion, contextDocs)
	signals[model.SignalNLIFaithfulness] = nliScore
	details[model.SignalNLIFaithfulness] = faithfulnessDetail(nliScore, nliAnalyses)
	for _, a := range nliAnalyses {
		if !a.Faithful && a.Index < len(located) {
			findings = append(findings, model.Finding{Sentence: located[a.Index], Reason: a.Reason, Score: a.Score})
		}
	}

	// DETECT: numeric sanity (pure, cannot fail).
	numScore, numFindings := m.numeric.Check(completion)
	signals[model.SignalNumericSanity] = numScore
	details[model.SignalNumericSanity] = model.SignalDetail{
		Score: numScore,
		Data:  map[string]interface{}{"findings": numFindings},
	}

	// DETECT: retrieval support.
	m.detectRetrieval(ctx, completion, contextDocs, located, signals, details, &findings)

	// DETECT: jailbreak heuristics.
	m.detectJailbreak(completion, located, signals, details, &findings)

	// ALIGN: enrich findings with deterministic color/severity.
	spans := aligner.Classify(findings)

	// AGGREGATE + CLASSIFY.
	riskScore := m.aggregator.Aggregate(signals)
	riskLevel := score.Classify(riskScore, m.cfg.Scoring.Thresholds)

	return &model.RiskResult{
		RiskScore:   riskScore,
		RiskLevel:   riskLevel,
		Signals:     signals,
		Details:     details,
		Spans:       spans,
		Prompt:      prompt,
		Completion:  completion,
		ContextDocs: contextDocs,
		EvaluatedAt: time.Now().UTC(),
	}, nil
}

func (m *Monitor) detectConsistency(ctx context.Context, prompt string, signals map[string]float64, details map[string]model.SignalDetail) {
	result, err := m.consistency.Detect(ctx, prompt, m.cfg.Detect.Temperature, m.cfg.Detect.MaxNewTokens, m.cfg.Detect.Seed)
	if err != nil {
		// No generation backend, or generation failed: assume consistent.
		signals[model.SignalSelfConsistency] = 1.0
		details[model.SignalSelfConsistency] = model.SignalDetail{
			Score:    1.0,
			Fallback: true,
			Reason:   fallbackReason(err),
		}
		return
	}

	signals[model.SignalSelfConsistency] = result.Score
	details[model.SignalSelfConsistency] = model.SignalDetail{
		Score: result.Score,
		Data: map[string]interface{}{
			"samples":           result.Samples,
			"similarity_matrix": result.Matrix,
		},
	}
}

func (m *Monitor) detectRetrieval(ctx context.Context, completion string, contextDocs []string, located []model.SentenceSpan, signals map[string]float64, details map[string]model.SignalDetail, findings *[]model.Finding) {
	if !m.cfg.Detect.EnableRetrievalSupport || len(contextDocs) == 0 {
		reason := "no context documents"
		if !m.cfg.Detect.EnableRetrievalSupport {
			reason = "disabled"
		}
		signals[model.SignalRetrievalSupport] = 1.0
		details[model.SignalRetrievalSupport] = model.SignalDetail{Score: 1.0, Fallback: true, Reason: reason}
		return
	}

	rsScore, rsAnalyses := m.retrieval.Detect(ctx, completion, contextDocs)
	signals[model.SignalRetrievalSupport] = rsScore
	details[model.SignalRetrievalSupport] = model.SignalDetail{
		Score: rsScore,
		Data:  map[string]interface{}{"sentence_analyses": rsAnalyses},
	}
	for _, a := range rsAnalyses {
		if !a.Supported && a.Index < len(located) {
			*findings = append(*findings, model.Finding{Sentence: located[a.Index], Reason: a.Reason, Score: a.BestSimilarity})
		}
	}
}

func (m *Monitor) detectJailbreak(completion string, located []model.SentenceSpan, signals map[string]float64, details map[string]model.SignalDetail, findings *[]model.Finding) {
	if !m.cfg.Detect.EnableJailbreak {
		signals[model.SignalJailbreakHeuristic] = 0.0
		details[model.SignalJailbreakHeuristic] = model.SignalDetail{Score: 0.0, Fallback: true, Reason: "disabled"}
		return
	}

	jbScore, breakdown := m.scanner.Scan(completion)
	signals[model.SignalJailbreakHeuristic] = jbScore
	details[model.SignalJailbreakHeuristic] = model.SignalDetail{
		Score: jbScore,
		Data:  map[string]interface{}{"breakdown": breakdown},
	}

	// The scanner works on the whole completion, so a high-risk verdict
	// flags every sentence rather than singling one out.
	if breakdown.Reason == "JB: high_risk" {
		for _, span := range located {
			*findings = append(*findings, model.Finding{Sentence: span, Reason: breakdown.Reason, Score: jbScore})
		}
	}
}

func faithfulnessDetail(nliScore float64, analyses []detect.SentenceAnalysis) model.SignalDetail {
	usedFallback := len(analyses) > 0
	for _, a := range analyses {
		if !a.Fallback {
			usedFallback = false
			break
		}
	}

	detail := model.SignalDetail{
		Score: nliScore,
		Data:  map[string]interface{}{"sentence_analyses": analyses},
	}
	if usedFallback {
		detail.Fallback = true
		detail.Reason = "entailment backend unavailable, lexical heuristic used"
	}
	return detail
}

func fallbackReason(err error) string {
	if errors.Is(err, detect.ErrNoGenerator) {
		return "no generation backend configured"
	}
	return err.Error()
}
