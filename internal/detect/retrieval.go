package detect

import (
	"context"
	"strings"

	"github.com/halluscan/halluscan/internal/provider"
	"github.com/halluscan/halluscan/internal/segment"
)

// ChunkMatch is one context chunk found similar enough to support a
// sentence.
type ChunkMatch struct {
	ChunkIndex int     `json:"chunk_index"`
	Chunk      string  `json:"chunk_text"`
	Similarity float64 `json:"similarity"`
}

// SupportAnalysis is one sentence's retrieval-support verdict.
type SupportAnalysis struct {
	Sentence       string       `json:"sentence"`
	Index          int          `json:"sentence_index"`
	Supported      bool         `json:"is_supported"`
	Chunks         []ChunkMatch `json:"supporting_chunks,omitempty"`
	BestSimilarity float64      `json:"best_similarity"`
	BestOverlap    float64      `json:"best_lexical_overlap"`
	Reason         string       `json:"reason"`
}

// RetrievalDetector measures what fraction of completion sentences have a
// sufficiently similar chunk among the context documents.
type RetrievalDetector struct {
	similarity provider.Similarity
	fallback   provider.Similarity
	threshold  float64
	chunkSize  int
}

// NewRetrievalDetector creates the detector.
func NewRetrievalDetector(similarity provider.Similarity, threshold float64, chunkSize int) *RetrievalDetector {
	if chunkSize <= 0 {
		chunkSize = 512
	}
	return &RetrievalDetector{
		similarity: similarity,
		fallback:   provider.NewLexical(),
		threshold:  threshold,
		chunkSize:  chunkSize,
	}
}

// Detect returns the support rate over completion sentences. Callers that
// have no context documents skip the detector entirely; documents that chunk
// to nothing score 0 because nothing could be verified against them.
func (d *RetrievalDetector) Detect(ctx context.Context, completion string, contextDocs []string) (float64, []SupportAnalysis) {
	sentences := segment.Split(completion)
	if len(sentences) == 0 {
		return 1.0, []SupportAnalysis{}
	}

	chunks := d.chunkDocuments(contextDocs)
	if len(chunks) == 0 {
		return 0.0, []SupportAnalysis{}
	}

	analyses := make([]SupportAnalysis, 0, len(sentences))
	supported := 0

	for i, sentence := range sentences {
		matches, bestSim := d.supportingChunks(ctx, sentence, chunks)
		isSupported := len(matches) > 0
		if isSupported {
			supported++
		}

		bestOverlap := 0.0
		for _, chunk := range chunks {
			if overlap, err := d.fallback.Score(ctx, sentence, chunk); err == nil && overlap > bestOverlap {
				bestOverlap = overlap
			}
		}

		reason := "RS: supported"
		if !isSupported {
			reason = "RS: unsupported"
		}

		analyses = append(analyses, SupportAnalysis{
			Sentence:       sentence,
			Index:          i,
			Supported:      isSupported,
			Chunks:         matches,
			BestSimilarity: bestSim,
			BestOverlap:    bestOverlap,
			Reason:         reason,
		})
	}

	return float64(supported) / float64(len(sentences)), analyses
}

// chunkDocuments splits documents into fixed-size character chunks.
func (d *RetrievalDetector) chunkDocuments(docs []string) []string {
	var chunks []string
	for _, doc := range docs {
		for start := 0; start < len(doc); start += d.chunkSize {
			end := start + d.chunkSize
			if end > len(doc) {
				end = len(doc)
			}
			chunk := strings.TrimSpace(doc[start:end])
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
		}
	}
	return chunks
}

// supportingChunks finds chunks at or above the similarity threshold, best
// first.
func (d *RetrievalDetector) supportingChunks(ctx context.Context, sentence string, chunks []string) ([]ChunkMatch, float64) {
	var matches []ChunkMatch
	best := 0.0

	for i, chunk := range chunks {
		sim := d.score(ctx, sentence, chunk)
		if sim > best {
			best = sim
		}
		if sim >= d.threshold {
			matches = append(matches, ChunkMatch{ChunkIndex: i, Chunk: chunk, Similarity: sim})
		}
	}

	// Insertion sort by descending similarity; match lists are short.
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].Similarity > matches[j-1].Similarity; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}

	return matches, best
}

func (d *RetrievalDetector) score(ctx context.Context, a, b string) float64 {
	if d.similarity != nil {
		if sim, err := d.similarity.Score(ctx, a, b); err == nil {
			return sim
		}
	}
	sim, _ := d.fallback.Score(ctx, a, b)
	return sim
}
