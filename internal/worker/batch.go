package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/halluscan/halluscan/internal/model"
)

// EvalRecord is one line of a batch JSONL input file.
type EvalRecord struct {
	ID          string   `json:"id,omitempty"`
	Prompt      string   `json:"prompt"`
	Completion  string   `json:"completion"`
	ContextDocs []string `json:"context_docs,omitempty"`
}

// Evaluator scores one prompt/completion pair.
type Evaluator interface {
	EvaluateRecord(ctx context.Context, rec EvalRecord) (*model.RiskResult, error)
}

// EvalJob evaluates a single record.
type EvalJob struct {
	Index     int
	Record    EvalRecord
	Evaluator Evaluator
}

// Execute runs the evaluation.
func (j *EvalJob) Execute(ctx context.Context) Result {
	result, err := j.Evaluator.EvaluateRecord(ctx, j.Record)
	return &EvalResult{
		Index:  j.Index,
		Record: j.Record,
		Result: result,
		Err:    err,
	}
}

// EvalResult is the outcome of one record.
type EvalResult struct {
	Index  int
	Record EvalRecord
	Result *model.RiskResult
	Err    error
}

// GetError returns the evaluation error, if any.
func (r *EvalResult) GetError() error {
	return r.Err
}

// BatchProcessor evaluates many records concurrently.
type BatchProcessor struct {
	evaluator   Evaluator
	concurrency int
}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor(evaluator Evaluator, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		evaluator:   evaluator,
		concurrency: concurrency,
	}
}

// ProcessRecords evaluates records on a pool and returns results in
// input order.
func (b *BatchProcessor) ProcessRecords(ctx context.Context, records []EvalRecord) []*EvalResult {
	if len(records) == 0 {
		return []*EvalResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	// Submission and result draining run concurrently: the bounded job
	// and result channels would otherwise deadlock on batches larger
	// than their buffers. The producer closes the queue once every
	// record is submitted, so Wait never races with Submit.
	go func() {
		defer pool.Close()
		for i, rec := range records {
			select {
			case <-ctx.Done():
				pool.Shutdown()
				return
			default:
			}
			pool.Submit(&EvalJob{Index: i, Record: rec, Evaluator: b.evaluator})
		}
	}()

	raw := pool.Wait()

	results := make([]*EvalResult, 0, len(raw))
	for _, r := range raw {
		results = append(results, r.(*EvalResult))
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	return results
}

// ProcessFile reads a JSONL file and evaluates every record.
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string) ([]*EvalResult, error) {
	records, err := ReadRecords(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return b.ProcessRecords(ctx, records), nil
}

// ReadRecords parses a JSONL file, one record per line. Blank lines and
// lines starting with '#' are skipped.
func ReadRecords(path string) ([]EvalRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var records []EvalRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var rec EvalRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if rec.ID == "" {
			rec.ID = fmt.Sprintf("line-%d", lineNo)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return records, nil
}
