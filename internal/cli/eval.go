package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/halluscan/halluscan/internal/docs"
	"github.com/halluscan/halluscan/internal/pipeline"
)

var (
	evalPrompt         string
	evalPromptFile     string
	evalCompletion     string
	evalCompletionFile string
	evalContextRefs    []string
	evalProvider       string
	evalModel          string
	evalSeed           int64
	evalKSamples       int
	evalNoRetrieval    bool
	evalNoJailbreak    bool
	outJSON            string
	outMD              string
	outHTML            string
	evalTimeout        time.Duration
	noCache            bool
	noFooter           bool
)

// evalCmd represents the eval command
var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate one completion and report its hallucination risk",
	Long: `Eval scores a single prompt/completion pair:
- Samples alternative completions and measures self-agreement
- Checks each sentence for entailment against the prompt and context
- Verifies numeric claims and unit conversions
- Measures support from retrieved context documents
- Scans the completion for prompt-injection markers

Context documents may be local files or http(s) URLs.

Example:
  halluscan eval --prompt "Capital of France?" --completion "Paris is the capital of France."
  halluscan eval --prompt-file q.txt --completion-file a.txt --context notes.md --json report.json
  halluscan eval --prompt "..." --completion "..." --provider openai --model gpt-4o-mini`,
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVar(&evalPrompt, "prompt", "", "prompt text")
	evalCmd.Flags().StringVar(&evalPromptFile, "prompt-file", "", "read prompt from file")
	evalCmd.Flags().StringVar(&evalCompletion, "completion", "", "completion text")
	evalCmd.Flags().StringVar(&evalCompletionFile, "completion-file", "", "read completion from file")
	evalCmd.Flags().StringArrayVar(&evalContextRefs, "context", nil, "context document (file path or URL, repeatable)")

	evalCmd.Flags().StringVar(&evalProvider, "provider", "", "scoring backend (lexical, openai, ollama)")
	evalCmd.Flags().StringVar(&evalModel, "model", "", "model name for the scoring backend")
	evalCmd.Flags().Int64Var(&evalSeed, "seed", -1, "base seed for consistency sampling (-1: use config)")
	evalCmd.Flags().IntVar(&evalKSamples, "k-samples", 0, "consistency sample count (0: use config)")
	evalCmd.Flags().BoolVar(&evalNoRetrieval, "no-retrieval", false, "disable the retrieval support signal")
	evalCmd.Flags().BoolVar(&evalNoJailbreak, "no-jailbreak", false, "disable the jailbreak heuristics signal")

	evalCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path")
	evalCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path")
	evalCmd.Flags().StringVar(&outHTML, "html", "", "output HTML report path")
	evalCmd.Flags().DurationVar(&evalTimeout, "timeout", 2*time.Minute, "overall evaluation timeout")
	evalCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache")
	evalCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

func runEval(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	prompt, err := readTextArg(evalPrompt, evalPromptFile, "prompt")
	if err != nil {
		return err
	}
	completion, err := readTextArg(evalCompletion, evalCompletionFile, "completion")
	if err != nil {
		return err
	}

	cfg := loadConfig()
	cfg.Cache.Enabled = !noCache
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter
	if evalProvider != "" {
		cfg.Provider.Name = evalProvider
	}
	if evalModel != "" {
		cfg.Provider.Model = evalModel
	}
	if evalSeed >= 0 {
		cfg.Detect.Seed = evalSeed
	}
	if evalKSamples > 0 {
		cfg.Detect.KSamples = evalKSamples
	}
	if evalNoRetrieval {
		cfg.Detect.EnableRetrievalSupport = false
	}
	if evalNoJailbreak {
		cfg.Detect.EnableJailbreak = false
	}

	store := newStore(cfg)
	monitor, err := newMonitor(cfg, store)
	if err != nil {
		return err
	}

	loader := docs.NewLoader(cfg.HTTP, store, cfg.Cache.DiskTTL, verbose)
	contextDocs, err := loader.Load(ctx, evalContextRefs)
	if err != nil {
		return fmt.Errorf("load context docs: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Provider: %s\n", providerLabel(cfg.Provider.Name))
		fmt.Fprintf(os.Stderr, "Context docs: %d\n", len(contextDocs))
		fmt.Fprintln(os.Stderr)
	}

	result, err := monitor.Evaluate(ctx, prompt, completion, contextDocs)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	if outJSON != "" {
		if err := renderer.RenderJSON(result, outJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(result, outMD); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}
	if outHTML != "" {
		if err := renderer.RenderHTML(result, outHTML); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}
	renderer.RenderSummary(result)

	return nil
}

// readTextArg resolves an inline value or a file path, requiring exactly
// one of the two.
func readTextArg(inline, file, name string) (string, error) {
	switch {
	case inline != "" && file != "":
		return "", fmt.Errorf("use either --%s or --%s-file, not both", name, name)
	case inline != "":
		return inline, nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read %s file: %w", name, err)
		}
		return strings.TrimSpace(string(data)), nil
	default:
		return "", fmt.Errorf("--%s or --%s-file is required", name, name)
	}
}

func providerLabel(name string) string {
	if name == "" {
		return "lexical"
	}
	return name
}
