package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/halluscan/halluscan/internal/highlight"
	"github.com/halluscan/halluscan/internal/model"
)

// Renderer writes evaluation results as JSON, Markdown, or HTML files and
// prints the stdout summary. Rendering consumes a finished RiskResult; it
// never feeds back into scoring.
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer.
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the full result record.
func (r *Renderer) RenderJSON(result *model.RiskResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write JSON: %w", err)
	}
	return nil
}

// RenderMarkdown writes a human-readable report.
func (r *Renderer) RenderMarkdown(result *model.RiskResult, path string) error {
	var b strings.Builder

	b.WriteString("# Hallucination Risk Report\n\n")
	fmt.Fprintf(&b, "**Risk score:** %.3f\n\n", result.RiskScore)
	fmt.Fprintf(&b, "**Risk level:** %s\n\n", result.RiskLevel)

	b.WriteString("## Signals\n\n")
	b.WriteString("| Signal | Score | Fallback |\n")
	b.WriteString("|---|---|---|\n")
	for _, name := range sortedSignalNames(result.Signals) {
		fallback := ""
		if detail, ok := result.Details[name]; ok && detail.Fallback {
			fallback = detail.Reason
		}
		fmt.Fprintf(&b, "| %s | %.3f | %s |\n", name, result.Signals[name], fallback)
	}
	b.WriteString("\n")

	if len(result.Spans) > 0 {
		b.WriteString("## Flagged spans\n\n")
		for _, span := range result.Spans {
			fmt.Fprintf(&b, "- [%s/%s] chars %d-%d (%s): %q — %s\n",
				span.Severity, span.Color, span.Start, span.End, span.Match, span.Text, span.Reason)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Completion\n\n")
	fmt.Fprintf(&b, "> %s\n\n", strings.ReplaceAll(result.Completion, "\n", "\n> "))

	if r.includeFooter {
		b.WriteString("---\n")
		fmt.Fprintf(&b, "Generated by halluscan at %s. Scores describe detector agreement, not truth.\n",
			result.EvaluatedAt.Format("2006-01-02 15:04:05 UTC"))
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

// RenderHTML writes the standalone highlighted report.
func (r *Renderer) RenderHTML(result *model.RiskResult, path string) error {
	return highlight.WriteHTMLReport(result, path)
}

// RenderSummary prints the result summary to stdout.
func (r *Renderer) RenderSummary(result *model.RiskResult) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  Risk: %.3f (%s)\n", result.RiskScore, result.RiskLevel)
	fmt.Println("═══════════════════════════════════════════════════════════")
	for _, name := range sortedSignalNames(result.Signals) {
		marker := ""
		if detail, ok := result.Details[name]; ok && detail.Fallback {
			marker = " (fallback: " + detail.Reason + ")"
		}
		fmt.Printf("  %-22s %.3f%s\n", name, result.Signals[name], marker)
	}
	if len(result.Spans) > 0 {
		fmt.Printf("  flagged spans: %d\n", len(result.Spans))
	}
	fmt.Println()
}

func sortedSignalNames(signals map[string]float64) []string {
	names := make([]string, 0, len(signals))
	for name := range signals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
