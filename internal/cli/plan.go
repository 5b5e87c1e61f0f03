package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/quench/internal/workflow"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	Structures string
	Output     string
}

// PlanResult is the JSON payload of the plan command.
type PlanResult struct {
	Name      string          `json:"name"`
	Hash      string          `json:"hash"`
	StepCount int             `json:"step_count"`
	Roots     []string        `json:"roots"`
	Leaves    []string        `json:"leaves"`
	Output    string          `json:"output,omitempty"`
	Workflow  json.RawMessage `json:"workflow,omitempty"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan <protocol-dir>",
		Short: "Build the quench workflow of a protocol",
		Long: `Compile a CUE quench protocol, load its structures and build the
workflow without recording it.

With --output the canonical workflow JSON is written to a file.

Examples:
  quench plan ./protocols/glass
  quench plan ./protocols/glass --structures snapshots.yaml
  quench plan ./protocols/glass -o glass.json --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Structures, "structures", "", "structures file overriding the protocol's")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write canonical workflow JSON to this file")

	return cmd
}

func runPlan(opts *PlanOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.Config()
	if err != nil {
		return reportPlanError(formatter, err)
	}

	wf, err := PlanDir(dir, opts.Structures, cfg)
	if err != nil {
		return reportPlanError(formatter, err)
	}
	formatter.VerboseLog("Planned %s with %d step(s)", wf.Name(), wf.Len())

	data, err := wf.MarshalCanonical()
	if err != nil {
		return reportPlanError(formatter, &LoadError{Code: ErrCodePlanFailed, Message: err.Error()})
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0644); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("failed to write %s: %v", opts.Output, err), nil)
			return WrapExitError(ExitCommandError, "write failed", err)
		}
		formatter.VerboseLog("Wrote %s", opts.Output)
	}

	if formatter.Format == "json" {
		result := PlanResult{
			Name:      wf.Name(),
			Hash:      wf.Hash(),
			StepCount: wf.Len(),
			Roots:     stepNames(wf.Roots()),
			Leaves:    stepNames(wf.Leaves()),
			Output:    opts.Output,
		}
		if opts.Output == "" {
			result.Workflow = data
		}
		return formatter.Success(result)
	}

	printPlan(formatter, wf)
	if opts.Output != "" {
		fmt.Fprintf(formatter.Writer, "Wrote %s\n", opts.Output)
	}
	return nil
}

// printPlan writes a text summary of a workflow.
func printPlan(f *OutputFormatter, wf *workflow.Workflow) {
	f.Check(true, "Planned %s (%d steps, %d stages)", color.CyanString(wf.Name()), wf.Len(), len(wf.Stages()))
	fmt.Fprintf(f.Writer, "  hash: %s\n", wf.Hash())
	for _, s := range wf.Steps() {
		fmt.Fprintf(f.Writer, "  %-10s %s\n", "["+string(s.Kind)+"]", s.Name)
	}
}

func stepNames(steps []*workflow.Step) []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return names
}
