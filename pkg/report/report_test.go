package report_test

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/uitestgen/pkg/flowgraph/trace"
	"github.com/randalmurphal/uitestgen/pkg/report"
	"github.com/randalmurphal/uitestgen/pkg/testrunner"
)

func sample() report.Data {
	return report.Data{
		RunID:        "run-1",
		Generated:    time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		LoginURL:     "http://127.0.0.1:4000/login",
		Status:       "fail",
		Error:        "AssertionError: 'Dashboard' not in title | Sign in",
		RetryCount:   3,
		ReflectCount: 1,
		Artifacts: []report.Artifact{
			{Label: "Selenium code", Path: "generated_code/selenium_code_1.py"},
			{Label: "Screenshot", Path: ""},
		},
		TestOutput: "Ran 1 test in 0.4s\n\nFAILED (failures=1)",
		Summary:    testrunner.Summary{Tests: 1, Failures: 1},
		Trace: []trace.Entry{
			{NodeID: "check_authentication_required", Sequence: 1, Duration: 1500 * time.Microsecond, Outcome: "skip_auth", Next: "load_page"},
			{NodeID: "load_page", Sequence: 2, Next: "generate_selenium_code"},
			{NodeID: "generate_test_case_with_report", Sequence: 3, Error: "test failed\nline 2", Outcome: "done", Next: "__end__"},
		},
		Graph: "graph TD\n    a --> b",
	}
}

func TestMarkdown(t *testing.T) {
	md := report.Markdown(sample())

	assert.True(t, strings.HasPrefix(md, "# Login test report\n"))
	assert.Contains(t, md, "| Status | **fail** |")
	assert.Contains(t, md, "| Generated | 2025-03-01T09:30:00Z |")
	assert.Contains(t, md, "| Test retries | 3 |")
	assert.Contains(t, md, "| Tests | 1 run, 1 failed, 0 errors, 0 skipped |")
	assert.Contains(t, md, "## Last error")
	assert.Contains(t, md, "- Selenium code: `generated_code/selenium_code_1.py`")
	assert.NotContains(t, md, "Screenshot", "artifacts without a path are omitted")
	assert.Contains(t, md, "| 1 | check_authentication_required | 2ms | skip_auth → load_page |  |")
	assert.Contains(t, md, "| 3 | generate_test_case_with_report | 0s | done → __end__ | test failed line 2 |")
	assert.Contains(t, md, "```mermaid\ngraph TD")
}

func TestMarkdown_Minimal(t *testing.T) {
	md := report.Markdown(report.Data{Title: "Spec", Status: "success"})

	assert.Contains(t, md, "# Spec")
	assert.Contains(t, md, "| Status | **success** |")
	assert.NotContains(t, md, "## Last error")
	assert.NotContains(t, md, "## Steps")
	assert.NotContains(t, md, "| Run |")
}

func TestHTML(t *testing.T) {
	page, err := report.HTML(sample())
	require.NoError(t, err)

	out := string(page)
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>Login test report</title>")
	assert.Contains(t, out, "<h1>Login test report</h1>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<strong>fail</strong>")
	assert.Contains(t, out, `class="language-mermaid"`)
}

func TestHTML_EscapesTitle(t *testing.T) {
	page, err := report.HTML(report.Data{Title: "<script>"})
	require.NoError(t, err)
	assert.Contains(t, string(page), "<title>&lt;script&gt;</title>")
}

func TestTerminal(t *testing.T) {
	out, err := report.Terminal(sample(), "notty", 100)
	require.NoError(t, err)

	assert.Contains(t, out, "Login test report")
	assert.Contains(t, out, "generated_code/selenium_code_1.py")
}

func TestWrite(t *testing.T) {
	dir := t.TempDir() + "/out"

	mdPath, htmlPath, err := report.Write(dir, sample())
	require.NoError(t, err)

	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Equal(t, report.Markdown(sample()), string(md))

	page, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(page), "<h1>")
}
