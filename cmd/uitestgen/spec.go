package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/uitestgen/pkg/workflow"
)

func newSpecCmd(a *app) *cobra.Command {
	var githubURL, out string

	cmd := &cobra.Command{
		Use:     "spec",
		Short:   "Write a login page spec from a GitHub repository's README",
		Example: `  uitestgen spec --github-url https://github.com/acme/shop --out spec.md`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := a.specDeps(cmd.Context())
			if err != nil {
				return err
			}
			graph, err := workflow.NewSpecGraph(deps)
			if err != nil {
				return err
			}
			runner := workflow.NewSpecRunner(graph, a.settings, workflow.WithRunnerLogger(a.logger))

			final, err := runner.Run(cmd.Context(), workflow.State{GithubURL: githubURL})
			if err != nil {
				return err
			}
			if !final.Succeeded() {
				return fmt.Errorf("%w: %s", errRunFailed, final.Error)
			}

			if out == "" || out == "-" {
				fmt.Fprintln(cmd.OutOrStdout(), final.SpecMD)
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(out, []byte(final.SpecMD+"\n"), 0o644); err != nil {
				return err
			}
			a.logger.Info("spec written", "path", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&githubURL, "github-url", "", "GitHub repository URL")
	cmd.Flags().StringVarP(&out, "out", "o", "spec.md", "output file, - for stdout")
	_ = cmd.MarkFlagRequired("github-url")
	return cmd
}
