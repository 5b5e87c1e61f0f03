package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/quench/internal/store"
)

// SubmitOptions holds flags for the submit command.
type SubmitOptions struct {
	*RootOptions
	DB         string
	Structures string
}

// SubmitResult is the JSON payload of the submit command.
type SubmitResult struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Hash      string `json:"hash"`
	StepCount int    `json:"step_count"`
	Inserted  bool   `json:"inserted"`
}

// NewSubmitCommand creates the submit command.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SubmitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "submit <protocol-dir>",
		Short: "Plan a protocol and record it on the launchpad",
		Long: `Plan a CUE quench protocol and record the workflow in the launchpad
database.

Submission is idempotent: an identical workflow returns the ID it was
first recorded under.

Examples:
  quench submit ./protocols/glass
  quench submit ./protocols/glass --db /data/launchpad.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "launchpad database path (default from config)")
	cmd.Flags().StringVar(&opts.Structures, "structures", "", "structures file overriding the protocol's")

	return cmd
}

func runSubmit(opts *SubmitOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.Config()
	if err != nil {
		return reportPlanError(formatter, err)
	}

	wf, err := PlanDir(dir, opts.Structures, cfg)
	if err != nil {
		return reportPlanError(formatter, err)
	}

	st, err := openLaunchpad(formatter, dbPath(opts.DB, cfg))
	if err != nil {
		return err
	}
	defer st.Close()

	id, inserted, err := st.SubmitWorkflow(cmd.Context(), wf)
	if err != nil {
		_ = formatter.Error(ErrCodeLaunchpad, err.Error(), nil)
		return WrapExitError(ExitCommandError, "submit failed", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(SubmitResult{
			ID:        id,
			Name:      wf.Name(),
			Hash:      wf.Hash(),
			StepCount: wf.Len(),
			Inserted:  inserted,
		})
	}

	if inserted {
		formatter.Check(true, "Submitted %s as %s (%d steps)", color.CyanString(wf.Name()), id, wf.Len())
	} else {
		formatter.Check(true, "%s already submitted as %s", color.CyanString(wf.Name()), id)
	}
	return nil
}

// dbPath picks the --db flag over the configured path.
func dbPath(flag string, cfg *Config) string {
	if flag != "" {
		return flag
	}
	return cfg.DB
}

// openLaunchpad opens the store, reporting failures as E009.
func openLaunchpad(f *OutputFormatter, path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		msg := fmt.Sprintf("cannot open launchpad %s: %v", path, err)
		_ = f.Error(ErrCodeLaunchpad, msg, nil)
		return nil, WrapExitError(ExitCommandError, "cannot open launchpad", err)
	}
	f.VerboseLog("Opened launchpad %s", path)
	return st, nil
}
