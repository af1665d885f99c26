package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/randalmurphal/uitestgen/pkg/report"
	"github.com/randalmurphal/uitestgen/pkg/workflow"
)

type runFlags struct {
	seedFile    string
	loginURL    string
	specFile    string
	specificURL string
	redirectURL string
	email       string
	password    string
	style       string
	noReport    bool
}

func newRunCmd(a *app) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate, review, test and repair a login test",
		Example: `  uitestgen run --login-url http://localhost:3000/login --spec-file spec.md
  uitestgen run -c uitestgen.yaml --seed seed.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			seed, err := f.seed()
			if err != nil {
				return err
			}
			if seed.LoginURL == "" && seed.SpecificURL == "" {
				return fmt.Errorf("--login-url or --specific-url is required")
			}
			return a.run(cmd, seed, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.seedFile, "seed", "", "JSON file with the initial state; flags override its fields")
	fl.StringVar(&f.loginURL, "login-url", "", "URL of the login page")
	fl.StringVar(&f.specFile, "spec-file", "", "Markdown spec of the login page")
	fl.StringVar(&f.specificURL, "specific-url", "", "protected page to open with cached session tokens")
	fl.StringVar(&f.redirectURL, "redirect-url", "", "URL whose domain receives the session cookies")
	fl.StringVar(&f.email, "email", "", "username or email to log in with")
	fl.StringVar(&f.password, "password", "", "password to log in with")
	fl.StringVar(&f.style, "style", "", "terminal report style: auto, dark, light or notty (default: auto on a terminal)")
	fl.BoolVar(&f.noReport, "no-report", false, "skip printing the report")
	return cmd
}

func (f runFlags) seed() (workflow.State, error) {
	var st workflow.State
	if f.seedFile != "" {
		data, err := os.ReadFile(f.seedFile)
		if err != nil {
			return st, err
		}
		if err := json.Unmarshal(data, &st); err != nil {
			return st, fmt.Errorf("parse seed %s: %w", f.seedFile, err)
		}
	}
	if f.specFile != "" {
		data, err := os.ReadFile(f.specFile)
		if err != nil {
			return st, err
		}
		st.LoginSpec = string(data)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&st.LoginURL, f.loginURL)
	set(&st.SpecificURL, f.specificURL)
	set(&st.RedirectURL, f.redirectURL)
	set(&st.Email, f.email)
	set(&st.Password, f.password)
	return st, nil
}

func (a *app) run(cmd *cobra.Command, seed workflow.State, f runFlags) error {
	ctx := cmd.Context()
	deps, closeDeps, err := a.deps(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeDeps(); err != nil {
			a.logger.Warn("close token store", "error", err.Error())
		}
	}()

	graph, err := workflow.NewLoginTestGraph(deps)
	if err != nil {
		return err
	}
	runner := workflow.NewLoginTestRunner(graph, a.settings, workflow.WithRunnerLogger(a.logger))

	res, runErr := runner.Execute(ctx, seed)
	data := runner.Report(res)

	mdPath, htmlPath, err := report.Write(a.settings.OutputDir, data)
	if err != nil {
		a.logger.Warn("write report", "error", err.Error())
	} else {
		a.logger.Info("report written", "markdown", mdPath, "html", htmlPath)
	}

	out := cmd.OutOrStdout()
	if !f.noReport {
		printReport(out, data, f.style)
	}
	fmt.Fprintf(out, "status: %s\n", res.State.Status)
	if res.State.Error != "" {
		fmt.Fprintf(out, "error: %s\n", res.State.Error)
	}

	if runErr != nil {
		return runErr
	}
	if !res.State.Succeeded() {
		return errRunFailed
	}
	return nil
}

// printReport renders d to out, falling back to plain Markdown when the
// renderer fails.
func printReport(out io.Writer, d report.Data, style string) {
	width := 100
	if style == "" {
		style = "notty"
		if fd := int(os.Stdout.Fd()); out == os.Stdout && term.IsTerminal(fd) {
			style = "auto"
			if w, _, err := term.GetSize(fd); err == nil && w > 20 {
				width = w - 2
			}
		}
	}

	text, err := report.Terminal(d, style, width)
	if err != nil {
		text = report.Markdown(d)
	}
	fmt.Fprint(out, text)
}
