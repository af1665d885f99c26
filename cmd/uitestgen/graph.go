package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/uitestgen/pkg/browser"
	"github.com/randalmurphal/uitestgen/pkg/flowgraph"
	"github.com/randalmurphal/uitestgen/pkg/llm"
	"github.com/randalmurphal/uitestgen/pkg/testrunner"
	"github.com/randalmurphal/uitestgen/pkg/workflow"
)

func newGraphCmd(a *app) *cobra.Command {
	var spec bool

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the workflow graph as a Mermaid diagram",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			graph, err := a.topology(spec)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), graph.Mermaid(nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&spec, "spec", false, "print the spec graph instead of the login-test graph")
	return cmd
}

// topology compiles a graph with offline collaborators. Nothing is called;
// only the structure and the configured loop budgets matter.
func (a *app) topology(spec bool) (*flowgraph.CompiledGraph[workflow.State, workflow.Update], error) {
	offline := llm.NewMockClient("")
	deps := workflow.Deps{
		Generator: offline,
		Critic:    offline,
		Loader:    browser.NewRodLoader(),
		Tests:     testrunner.NewExecRunner(),
		Settings:  a.settings,
	}
	if spec {
		return workflow.NewSpecGraph(deps)
	}
	return workflow.NewLoginTestGraph(deps)
}
