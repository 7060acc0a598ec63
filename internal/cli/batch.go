package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/halluscan/halluscan/internal/docs"
	"github.com/halluscan/halluscan/internal/model"
	"github.com/halluscan/halluscan/internal/pipeline"
	"github.com/halluscan/halluscan/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	batchHTML    bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file.jsonl>",
	Short: "Evaluate many prompt/completion records from a JSONL file",
	Long: `Batch evaluates records concurrently. Each input line is a JSON
object with "prompt", "completion" and optional "id" and "context_docs"
fields. Reports are written per record into the output directory.

Example:
  halluscan batch records.jsonl
  halluscan batch records.jsonl --concurrency 8 --output-dir ./runs
  halluscan batch records.jsonl --provider ollama --html`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "", "output directory for reports (default: config report_dir)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&batchHTML, "html", false, "also write HTML reports")

	batchCmd.Flags().StringVar(&evalProvider, "provider", "", "scoring backend (lexical, openai, ollama)")
	batchCmd.Flags().StringVar(&evalModel, "model", "", "model name for the scoring backend")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

// batchEvaluator loads each record's context docs and runs the monitor.
type batchEvaluator struct {
	monitor *pipeline.Monitor
	loader  *docs.Loader
}

func (e *batchEvaluator) EvaluateRecord(ctx context.Context, rec worker.EvalRecord) (*model.RiskResult, error) {
	contextDocs, err := e.loader.Load(ctx, rec.ContextDocs)
	if err != nil {
		return nil, fmt.Errorf("load context docs: %w", err)
	}
	return e.monitor.Evaluate(ctx, rec.Prompt, rec.Completion, contextDocs)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg := loadConfig()
	cfg.Cache.Enabled = !noCache
	cfg.Concurrency.Workers = concurrency
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter
	cfg.Output.HTMLReport = batchHTML
	if evalProvider != "" {
		cfg.Provider.Name = evalProvider
	}
	if evalModel != "" {
		cfg.Provider.Model = evalModel
	}
	if outputDir == "" {
		outputDir = cfg.Output.ReportDir
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Halluscan Batch Evaluation\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Provider:     %s\n", providerLabel(cfg.Provider.Name))
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	store := newStore(cfg)
	monitor, err := newMonitor(cfg, store)
	if err != nil {
		return err
	}
	evaluator := &batchEvaluator{
		monitor: monitor,
		loader:  docs.NewLoader(cfg.HTTP, store, cfg.Cache.DiskTTL, verbose),
	}

	processor := worker.NewBatchProcessor(evaluator, concurrency)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Record.ID, result.Err)
			continue
		}
		successCount++

		slug := sanitizeFilename(result.Record.ID)
		if err := renderer.RenderJSON(result.Result, filepath.Join(outputDir, slug+".json")); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Record.ID, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Result, filepath.Join(outputDir, slug+".md")); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Record.ID, err)
			continue
		}
		if cfg.Output.HTMLReport {
			if err := renderer.RenderHTML(result.Result, filepath.Join(outputDir, slug+".html")); err != nil {
				fmt.Fprintf(os.Stderr, "✗ %s: failed to write HTML: %v\n", result.Record.ID, err)
				continue
			}
		}

		fmt.Fprintf(os.Stderr, "✓ %s (risk: %.3f %s)\n", result.Record.ID, result.Result.RiskScore, result.Result.RiskLevel)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d records\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// sanitizeFilename maps a record ID to a safe file name.
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "-",
	)
	s = replacer.Replace(s)
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "record"
	}
	return s
}
