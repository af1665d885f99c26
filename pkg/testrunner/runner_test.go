package testrunner_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/uitestgen/pkg/testrunner"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "test_case.sh")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func shRunner(opts ...testrunner.Option) *testrunner.ExecRunner {
	return testrunner.NewExecRunner(append([]testrunner.Option{testrunner.WithCommand("sh", "{path}")}, opts...)...)
}

func TestExecRunner_Args(t *testing.T) {
	tests := []struct {
		name    string
		command []string
		want    []string
	}{
		{
			name: "default",
			want: []string{"python3", "-m", "unittest", "-v", "gen/test_case_1.py"},
		},
		{
			name:    "appends path without placeholder",
			command: []string{"pytest", "-q"},
			want:    []string{"pytest", "-q", "gen/test_case_1.py"},
		},
		{
			name:    "placeholder inside argument",
			command: []string{"python3", "--file={path}"},
			want:    []string{"python3", "--file=gen/test_case_1.py"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testrunner.NewExecRunner(testrunner.WithCommand(tt.command...))
			assert.Equal(t, tt.want, r.Args("gen/test_case_1.py"))
		})
	}
}

func TestExecRunner_Passing(t *testing.T) {
	path := writeScript(t, `echo "test_login (test_case.LoginTest) ... ok" >&2
echo "Ran 1 test in 0.5s" >&2
echo "" >&2
echo "OK" >&2
`)

	res, err := shRunner().Run(context.Background(), path)

	require.NoError(t, err)
	assert.True(t, res.Passed)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, testrunner.Summary{Tests: 1}, res.Summary)
	assert.Contains(t, res.Output, "Ran 1 test")
}

func TestExecRunner_Failing(t *testing.T) {
	path := writeScript(t, `echo "AssertionError: 'Dashboard' not found in 'Sign in'"
echo "Ran 2 tests in 1.0s"
echo "FAILED (failures=1, errors=1)"
exit 1
`)

	res, err := shRunner().Run(context.Background(), path)

	require.NoError(t, err, "a failing test is a result, not an error")
	assert.False(t, res.Passed)
	assert.Equal(t, 1, res.ExitCode)
	assert.Equal(t, testrunner.Summary{Tests: 2, Failures: 1, Errors: 1}, res.Summary)
	assert.Contains(t, res.FailureText(0), "AssertionError")
}

func TestExecRunner_Env(t *testing.T) {
	path := writeScript(t, `echo "url=$LOGIN_URL"`)

	res, err := shRunner(testrunner.WithEnv("LOGIN_URL=http://localhost:4000/login")).Run(context.Background(), path)

	require.NoError(t, err)
	assert.Contains(t, res.Output, "url=http://localhost:4000/login")
}

func TestExecRunner_Workdir(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, "pwd")

	res, err := shRunner(testrunner.WithWorkdir(dir)).Run(context.Background(), path)

	require.NoError(t, err)
	want, _ := filepath.EvalSymlinks(dir)
	got, _ := filepath.EvalSymlinks(strings.TrimSpace(res.Output))
	assert.Equal(t, want, got)
}

func TestExecRunner_Timeout(t *testing.T) {
	path := writeScript(t, "exec sleep 5")

	_, err := shRunner(testrunner.WithTimeout(50*time.Millisecond)).Run(context.Background(), path)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecRunner_MissingArtifact(t *testing.T) {
	_, err := shRunner().Run(context.Background(), filepath.Join(t.TempDir(), "missing.py"))
	assert.ErrorContains(t, err, "test artifact")
}

func TestExecRunner_MissingInterpreter(t *testing.T) {
	path := writeScript(t, "true")
	r := testrunner.NewExecRunner(testrunner.WithCommand("definitely-not-a-python"))

	_, err := r.Run(context.Background(), path)
	require.Error(t, err)
}

func TestParseSummary(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   testrunner.Summary
	}{
		{"unittest ok", "Ran 3 tests in 0.1s\n\nOK\n", testrunner.Summary{Tests: 3}},
		{"unittest skipped", "Ran 2 tests in 0.1s\n\nOK (skipped=1)\n", testrunner.Summary{Tests: 2, Skipped: 1}},
		{"unittest failures", "Ran 4 tests in 2s\n\nFAILED (failures=2)\n", testrunner.Summary{Tests: 4, Failures: 2}},
		{"pytest", "==== 3 passed, 1 failed in 0.5s ====", testrunner.Summary{Tests: 4, Failures: 1}},
		{"pytest errors", "==== 1 error in 0.1s ====", testrunner.Summary{Tests: 1, Errors: 1}},
		{"unknown", "Traceback (most recent call last):", testrunner.Summary{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, testrunner.ParseSummary(tt.output))
		})
	}
}

func TestResult_FailureText(t *testing.T) {
	res := &testrunner.Result{Output: "  0123456789  ", ExitCode: 1}
	assert.Equal(t, "6789", res.FailureText(4))
	assert.Equal(t, "0123456789", res.FailureText(0))

	empty := &testrunner.Result{ExitCode: 2}
	assert.Equal(t, "test process exited with code 2 and no output", empty.FailureText(100))
}
