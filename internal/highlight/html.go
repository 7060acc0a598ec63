package highlight

import (
	"fmt"
	"html"
	"html/template"
	"os"
	"sort"
	"strings"

	"github.com/halluscan/halluscan/internal/model"
)

var spanColors = map[model.SpanColor]string{
	model.ColorGreen:  "#2e7d32",
	model.ColorYellow: "#f9a825",
	model.ColorRed:    "#c62828",
	model.ColorPurple: "#6a1b9a",
	model.ColorBlue:   "#1565c0",
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Hallucination Risk Report</title>
<style>
body { font-family: Georgia, serif; max-width: 860px; margin: 2em auto; padding: 0 1em; color: #222; }
.score { font-size: 1.4em; margin-bottom: 0.5em; }
.level-high { color: #c62828; }
.level-medium { color: #f9a825; }
.level-low { color: #2e7d32; }
.completion { background: #fafafa; border: 1px solid #ddd; border-radius: 4px; padding: 1em 1.2em; line-height: 1.7; white-space: pre-wrap; }
.completion mark { border-radius: 3px; padding: 0 2px; color: #fff; }
table { border-collapse: collapse; margin-top: 1em; }
th, td { border: 1px solid #ccc; padding: 0.35em 0.8em; text-align: left; }
.footer { margin-top: 2em; color: #888; font-size: 0.85em; }
</style>
</head>
<body>
<h1>Hallucination Risk Report</h1>
<div class="score">Risk: <strong class="level-{{.Result.RiskLevel}}">{{printf "%.3f" .Result.RiskScore}} ({{.Result.RiskLevel}})</strong></div>
<h2>Completion</h2>
<div class="completion">{{.Annotated}}</div>
<h2>Signals</h2>
<table>
<tr><th>Signal</th><th>Score</th><th>Note</th></tr>
{{range .Signals}}<tr><td>{{.Name}}</td><td>{{printf "%.3f" .Score}}</td><td>{{.Note}}</td></tr>
{{end}}</table>
{{if .Result.Spans}}<h2>Flagged spans</h2>
<table>
<tr><th>Severity</th><th>Range</th><th>Match</th><th>Reason</th></tr>
{{range .Result.Spans}}<tr><td>{{.Severity}}</td><td>{{.Start}}&ndash;{{.End}}</td><td>{{.Match}}</td><td>{{.Reason}}</td></tr>
{{end}}</table>{{end}}
<div class="footer">Generated by halluscan at {{.Result.EvaluatedAt.Format "2006-01-02 15:04:05 UTC"}}. Scores describe detector agreement, not truth.</div>
</body>
</html>
`))

type signalRow struct {
	Name  string
	Score float64
	Note  string
}

type reportData struct {
	Result    *model.RiskResult
	Annotated template.HTML
	Signals   []signalRow
}

// WriteHTMLReport renders the result as a standalone HTML page with the
// completion text annotated by span color.
func WriteHTMLReport(result *model.RiskResult, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create HTML report: %w", err)
	}
	defer f.Close()

	data := reportData{
		Result:    result,
		Annotated: annotate(result.Completion, result.Spans),
	}
	names := make([]string, 0, len(result.Signals))
	for name := range result.Signals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		row := signalRow{Name: name, Score: result.Signals[name]}
		if detail, ok := result.Details[name]; ok && detail.Fallback {
			row.Note = "fallback: " + detail.Reason
		}
		data.Signals = append(data.Signals, row)
	}

	if err := reportTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("render HTML report: %w", err)
	}
	return nil
}

// annotate splices <mark> tags into the completion. Spans are applied in
// descending start order so earlier offsets stay valid as text grows.
func annotate(completion string, spans []model.HighlightedSpan) template.HTML {
	ordered := make([]model.HighlightedSpan, len(spans))
	copy(ordered, spans)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start > ordered[j].Start })

	text := completion
	applied := make(map[[2]int]bool, len(ordered))
	for _, span := range ordered {
		if span.Start < 0 || span.End > len(text) || span.Start >= span.End {
			continue
		}
		// Several signals can flag the same sentence; a second mark over
		// the identical range would splice into the first one's markup.
		if applied[[2]int{span.Start, span.End}] {
			continue
		}
		applied[[2]int{span.Start, span.End}] = true
		color, ok := spanColors[span.Color]
		if !ok {
			color = spanColors[model.ColorBlue]
		}
		marked := fmt.Sprintf(`<mark style="background:%s" title="%s">%s</mark>`,
			color,
			html.EscapeString(fmt.Sprintf("%s (%.2f)", span.Reason, span.Score)),
			html.EscapeString(text[span.Start:span.End]))
		text = text[:span.Start] + marked + text[span.End:]
	}

	// Escape the stretches outside marks without touching the tags we added.
	var b strings.Builder
	for len(text) > 0 {
		open := strings.Index(text, "<mark")
		if open < 0 {
			b.WriteString(html.EscapeString(text))
			break
		}
		b.WriteString(html.EscapeString(text[:open]))
		closeIdx := strings.Index(text[open:], "</mark>")
		if closeIdx < 0 {
			b.WriteString(text[open:])
			break
		}
		end := open + closeIdx + len("</mark>")
		b.WriteString(text[open:end])
		text = text[end:]
	}
	return template.HTML(b.String())
}
