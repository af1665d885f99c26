// Package testrunner executes generated test files and captures their output.
package testrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Result is the outcome of one test run.
type Result struct {
	// Output is the combined stdout and stderr of the run.
	Output   string        `json:"output"`
	ExitCode int           `json:"exit_code"`
	Passed   bool          `json:"passed"`
	Duration time.Duration `json:"duration"`
	Summary  Summary       `json:"summary"`
}

// Runner executes a test artifact.
//
// A test that runs and fails is a Result with Passed false, not an error.
// Errors mean the test could not be run at all.
type Runner interface {
	Run(ctx context.Context, artifactPath string) (*Result, error)
}

// PathPlaceholder in a command argument is replaced by the artifact path.
// A command without it gets the path appended.
const PathPlaceholder = "{path}"

// DefaultCommand runs a unittest file with the system Python.
var DefaultCommand = []string{"python3", "-m", "unittest", "-v", PathPlaceholder}

// ExecRunner runs tests as a subprocess.
type ExecRunner struct {
	command []string
	workdir string
	env     []string
	timeout time.Duration
}

// Compile-time interface check.
var _ Runner = (*ExecRunner)(nil)

// Option configures an ExecRunner.
type Option func(*ExecRunner)

// WithCommand sets the command line. An empty command keeps DefaultCommand.
func WithCommand(argv ...string) Option {
	return func(r *ExecRunner) {
		if len(argv) > 0 {
			r.command = argv
		}
	}
}

// WithWorkdir sets the working directory of the test process.
func WithWorkdir(dir string) Option {
	return func(r *ExecRunner) { r.workdir = dir }
}

// WithEnv adds KEY=VALUE pairs to the test process environment.
func WithEnv(env ...string) Option {
	return func(r *ExecRunner) { r.env = append(r.env, env...) }
}

// WithTimeout bounds a single run. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *ExecRunner) { r.timeout = d }
}

// DefaultTimeout bounds a run when no WithTimeout option is given.
const DefaultTimeout = 5 * time.Minute

// NewExecRunner creates a runner.
func NewExecRunner(opts ...Option) *ExecRunner {
	r := &ExecRunner{command: DefaultCommand, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Args returns the command line for an artifact.
func (r *ExecRunner) Args(artifactPath string) []string {
	args := make([]string, 0, len(r.command)+1)
	replaced := false
	for _, a := range r.command {
		if strings.Contains(a, PathPlaceholder) {
			a = strings.ReplaceAll(a, PathPlaceholder, artifactPath)
			replaced = true
		}
		args = append(args, a)
	}
	if !replaced {
		args = append(args, artifactPath)
	}
	return args
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, artifactPath string) (*Result, error) {
	if _, err := os.Stat(artifactPath); err != nil {
		return nil, fmt.Errorf("test artifact: %w", err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := r.Args(artifactPath)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = r.workdir
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}
	cmd.WaitDelay = time.Second

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	err := cmd.Run()
	res := &Result{Output: out.String(), Duration: time.Since(start)}

	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		return res, fmt.Errorf("run %s: %w", artifactPath, ctx.Err())
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	case err != nil:
		return nil, fmt.Errorf("run %s: %w", artifactPath, err)
	}

	res.Passed = res.ExitCode == 0
	res.Summary = ParseSummary(res.Output)
	return res, nil
}

// Summary holds the counts printed by unittest and pytest.
type Summary struct {
	Tests    int `json:"tests"`
	Failures int `json:"failures"`
	Errors   int `json:"errors"`
	Skipped  int `json:"skipped"`
}

var (
	ranRe     = regexp.MustCompile(`(?m)^Ran (\d+) tests? in`)
	failedRe  = regexp.MustCompile(`(?m)^FAILED \(([^)]*)\)`)
	okSkipRe  = regexp.MustCompile(`(?m)^OK \(skipped=(\d+)\)`)
	pytestRe  = regexp.MustCompile(`(\d+) (passed|failed|error|errors|skipped)`)
	countPart = regexp.MustCompile(`(failures|errors|skipped)=(\d+)`)
)

// ParseSummary extracts test counts from runner output.
// Unrecognized output yields a zero Summary.
func ParseSummary(output string) Summary {
	var s Summary

	if m := ranRe.FindStringSubmatch(output); m != nil {
		s.Tests, _ = strconv.Atoi(m[1])
		if f := failedRe.FindStringSubmatch(output); f != nil {
			for _, p := range countPart.FindAllStringSubmatch(f[1], -1) {
				n, _ := strconv.Atoi(p[2])
				switch p[1] {
				case "failures":
					s.Failures = n
				case "errors":
					s.Errors = n
				case "skipped":
					s.Skipped = n
				}
			}
		}
		if k := okSkipRe.FindStringSubmatch(output); k != nil {
			s.Skipped, _ = strconv.Atoi(k[1])
		}
		return s
	}

	for _, m := range pytestRe.FindAllStringSubmatch(output, -1) {
		n, _ := strconv.Atoi(m[1])
		switch m[2] {
		case "passed":
			s.Tests += n
		case "failed":
			s.Tests += n
			s.Failures += n
		case "error", "errors":
			s.Tests += n
			s.Errors += n
		case "skipped":
			s.Tests += n
			s.Skipped += n
		}
	}
	return s
}

// FailureText condenses a failed run into the text fed back to the repair
// step: the output tail, which holds the traceback and assertion.
func (r *Result) FailureText(limit int) string {
	out := strings.TrimSpace(r.Output)
	if out == "" {
		return fmt.Sprintf("test process exited with code %d and no output", r.ExitCode)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
