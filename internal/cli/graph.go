package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/quench/internal/workflow"
)

// GraphOptions holds flags for the graph command.
type GraphOptions struct {
	*RootOptions
	Structures string
	Style      string
}

// GraphResult is the JSON payload of the graph command.
type GraphResult struct {
	Name  string `json:"name"`
	Style string `json:"style"`
	Graph string `json:"graph"`
}

var graphRenderers = map[string]func(*workflow.Workflow) string{
	"mermaid": workflow.RenderMermaid,
	"dot":     workflow.RenderDOT,
	"stages":  workflow.RenderStages,
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GraphOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "graph <protocol-dir>",
		Short: "Render the step graph of a protocol",
		Long: `Plan a protocol and render its step graph.

Styles:
  mermaid - Mermaid flowchart (default)
  dot     - Graphviz digraph
  stages  - parallel levels as plain text`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Structures, "structures", "", "structures file overriding the protocol's")
	cmd.Flags().StringVar(&opts.Style, "style", "mermaid", "graph style (mermaid|dot|stages)")

	return cmd
}

func runGraph(opts *GraphOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	render, ok := graphRenderers[opts.Style]
	if !ok {
		msg := fmt.Sprintf("invalid style %q: must be one of mermaid, dot, stages", opts.Style)
		_ = formatter.Error(ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	cfg, err := opts.Config()
	if err != nil {
		return reportPlanError(formatter, err)
	}
	wf, err := PlanDir(dir, opts.Structures, cfg)
	if err != nil {
		return reportPlanError(formatter, err)
	}

	graph := render(wf)
	if formatter.Format == "json" {
		return formatter.Success(GraphResult{Name: wf.Name(), Style: opts.Style, Graph: graph})
	}
	fmt.Fprint(formatter.Writer, graph)
	return nil
}
