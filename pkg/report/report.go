// Package report renders the outcome of a login-test run as Markdown, HTML
// or styled terminal text.
package report

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/randalmurphal/uitestgen/pkg/flowgraph/trace"
	"github.com/randalmurphal/uitestgen/pkg/testrunner"
)

// Artifact is a generated file worth listing.
type Artifact struct {
	Label string
	Path  string
}

// Data is everything a report shows.
type Data struct {
	Title     string
	RunID     string
	Generated time.Time

	LoginURL string
	Status   string
	Error    string

	RetryCount   int
	ReflectCount int

	Artifacts  []Artifact
	TestOutput string
	Summary    testrunner.Summary

	// Trace lists the executed steps; Graph is a Mermaid diagram.
	Trace []trace.Entry
	Graph string
}

// Markdown renders the report as GitHub-flavored Markdown.
func Markdown(d Data) string {
	var b strings.Builder

	title := d.Title
	if title == "" {
		title = "Login test report"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	b.WriteString("| Field | Value |\n|---|---|\n")
	row(&b, "Status", statusBadge(d.Status))
	row(&b, "Login URL", d.LoginURL)
	row(&b, "Run", d.RunID)
	if !d.Generated.IsZero() {
		row(&b, "Generated", d.Generated.UTC().Format(time.RFC3339))
	}
	row(&b, "Test retries", fmt.Sprint(d.RetryCount))
	row(&b, "Code reflections", fmt.Sprint(d.ReflectCount))
	if d.Summary.Tests > 0 {
		row(&b, "Tests", fmt.Sprintf("%d run, %d failed, %d errors, %d skipped",
			d.Summary.Tests, d.Summary.Failures, d.Summary.Errors, d.Summary.Skipped))
	}
	b.WriteString("\n")

	if d.Error != "" {
		fmt.Fprintf(&b, "## Last error\n\n```\n%s\n```\n\n", strings.TrimSpace(d.Error))
	}

	if len(d.Artifacts) > 0 {
		b.WriteString("## Artifacts\n\n")
		for _, a := range d.Artifacts {
			if a.Path == "" {
				continue
			}
			fmt.Fprintf(&b, "- %s: `%s`\n", a.Label, a.Path)
		}
		b.WriteString("\n")
	}

	if d.TestOutput != "" {
		fmt.Fprintf(&b, "## Test output\n\n```\n%s\n```\n\n", strings.TrimSpace(d.TestOutput))
	}

	if len(d.Trace) > 0 {
		b.WriteString("## Steps\n\n| # | Step | Duration | Route | Error |\n|---|---|---|---|---|\n")
		for _, e := range d.Trace {
			route := e.Next
			if e.Outcome != "" {
				route = e.Outcome + " → " + e.Next
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
				e.Sequence, e.NodeID, e.Duration.Round(time.Millisecond), cell(route), cell(e.Error))
		}
		b.WriteString("\n")
	}

	if d.Graph != "" {
		fmt.Fprintf(&b, "## Graph\n\n```mermaid\n%s\n```\n", strings.TrimSpace(d.Graph))
	}

	return b.String()
}

func row(b *strings.Builder, k, v string) {
	if v == "" {
		return
	}
	fmt.Fprintf(b, "| %s | %s |\n", k, cell(v))
}

// cell keeps a value on one table row.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 120 {
		s = s[:117] + "..."
	}
	return s
}

func statusBadge(status string) string {
	switch status {
	case "success":
		return "**success**"
	case "":
		return ""
	default:
		return "**" + status + "**"
	}
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTML renders the report as a standalone HTML page.
func HTML(d Data) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(Markdown(d)), &body); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	title := d.Title
	if title == "" {
		title = "Login test report"
	}

	var page bytes.Buffer
	fmt.Fprintf(&page, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n%s</head>\n<body>\n",
		html.EscapeString(title), stylesheet)
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

const stylesheet = `<style>
body { font-family: sans-serif; max-width: 60rem; margin: 2rem auto; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 0.25rem 0.5rem; }
pre { background: #f6f8fa; padding: 0.75rem; overflow-x: auto; }
</style>
`

// Terminal renders the report for a terminal using style ("auto", "dark",
// "light", "notty", ...) and wraps at width columns.
func Terminal(d Data, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create terminal renderer: %w", err)
	}
	out, err := r.Render(Markdown(d))
	if err != nil {
		return "", fmt.Errorf("render terminal: %w", err)
	}
	return out, nil
}

// Write saves report.md and report.html into dir and returns their paths.
func Write(dir string, d Data) (mdPath, htmlPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("report dir: %w", err)
	}

	mdPath = filepath.Join(dir, "report.md")
	if err := os.WriteFile(mdPath, []byte(Markdown(d)), 0o644); err != nil {
		return "", "", fmt.Errorf("write markdown report: %w", err)
	}

	page, err := HTML(d)
	if err != nil {
		return "", "", err
	}
	htmlPath = filepath.Join(dir, "report.html")
	if err := os.WriteFile(htmlPath, page, 0o644); err != nil {
		return "", "", fmt.Errorf("write html report: %w", err)
	}
	return mdPath, htmlPath, nil
}
