package detect

import (
	"context"
	"testing"

	"github.com/halluscan/halluscan/internal/provider"
)

func TestRetrievalDetector_EmptyCompletion(t *testing.T) {
	detector := NewRetrievalDetector(provider.NewLexical(), 0.5, 512)

	score, analyses := detector.Detect(context.Background(), "", []string{"some document"})
	if score != 1.0 {
		t.Errorf("expected score 1.0 for empty completion, got %v", score)
	}
	if len(analyses) != 0 {
		t.Errorf("expected no analyses, got %d", len(analyses))
	}
}

func TestRetrievalDetector_NoChunks(t *testing.T) {
	detector := NewRetrievalDetector(provider.NewLexical(), 0.5, 512)

	score, _ := detector.Detect(context.Background(), "Some claim.", []string{"", "   "})
	if score != 0.0 {
		t.Errorf("expected score 0.0 when documents chunk to nothing, got %v", score)
	}
}

func TestRetrievalDetector_SupportedAndUnsupported(t *testing.T) {
	detector := NewRetrievalDetector(provider.NewLexical(), 0.5, 512)

	doc := "paris is the capital of france"
	score, analyses := detector.Detect(context.Background(),
		"paris is the capital of france. jupiter has ninety moons.",
		[]string{doc})

	if len(analyses) != 2 {
		t.Fatalf("expected 2 analyses, got %d", len(analyses))
	}
	if !analyses[0].Supported {
		t.Error("expected first sentence to be supported")
	}
	if analyses[0].Reason != "RS: supported" {
		t.Errorf("expected supported reason, got %q", analyses[0].Reason)
	}
	if analyses[1].Supported {
		t.Error("expected second sentence to be unsupported")
	}
	if analyses[1].Reason != "RS: unsupported" {
		t.Errorf("expected unsupported reason, got %q", analyses[1].Reason)
	}
	if score != 0.5 {
		t.Errorf("expected support rate 0.5, got %v", score)
	}
}

func TestRetrievalDetector_ChunkingSplitsLongDocs(t *testing.T) {
	detector := NewRetrievalDetector(provider.NewLexical(), 0.9, 10)

	chunks := detector.chunkDocuments([]string{"aaaaaaaaaabbbbbbbbbbcc"})
	if len(chunks) != 3 {
		t.Errorf("expected 3 chunks of size 10, got %d", len(chunks))
	}
}

func TestRetrievalDetector_MatchesSortedBySimilarity(t *testing.T) {
	detector := NewRetrievalDetector(provider.NewLexical(), 0.1, 512)

	_, analyses := detector.Detect(context.Background(),
		"the red fox runs fast.",
		[]string{"the red fox runs fast", "the fox"})

	if len(analyses) != 1 {
		t.Fatalf("expected 1 analysis, got %d", len(analyses))
	}
	matches := analyses[0].Chunks
	if len(matches) < 2 {
		t.Fatalf("expected both chunks above threshold, got %d", len(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Similarity > matches[i-1].Similarity {
			t.Error("matches must be ordered best first")
		}
	}
}
