package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/quench/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	DB string
}

// ShowResult is the JSON payload of `show <id>`.
type ShowResult struct {
	Submission store.Submission   `json:"submission"`
	Steps      []store.StoredStep `json:"steps"`
	Links      []store.Link       `json:"links"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show [submission-id]",
		Short: "List submissions or show one",
		Long: `Without an argument, list every submission on the launchpad in
submission order. With a submission ID, show its steps and links.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runShow(opts, id, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "launchpad database path (default from config)")

	return cmd
}

func runShow(opts *ShowOptions, id string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.Config()
	if err != nil {
		return reportPlanError(formatter, err)
	}

	path := dbPath(opts.DB, cfg)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		msg := fmt.Sprintf("launchpad not found: %s", path)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	st, err := openLaunchpad(formatter, path)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	if id == "" {
		subs, err := st.ListWorkflows(ctx)
		if err != nil {
			return launchpadError(formatter, err)
		}
		if formatter.Format == "json" {
			return formatter.Success(subs)
		}
		if len(subs) == 0 {
			fmt.Fprintln(formatter.Writer, "No submissions.")
			return nil
		}
		for _, s := range subs {
			fmt.Fprintf(formatter.Writer, "%4d  %s  %s  (%d steps)\n", s.Seq, s.ID, color.CyanString(s.Name), s.StepCount)
		}
		return nil
	}

	sub, err := st.ReadWorkflow(ctx, id)
	if err != nil {
		return launchpadError(formatter, err)
	}
	steps, err := st.ReadSteps(ctx, id)
	if err != nil {
		return launchpadError(formatter, err)
	}
	links, err := st.ReadLinks(ctx, id)
	if err != nil {
		return launchpadError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(ShowResult{Submission: sub, Steps: steps, Links: links})
	}

	parents := make(map[string][]string)
	names := make(map[string]string, len(steps))
	for _, s := range steps {
		names[s.StepID] = s.Name
	}
	for _, l := range links {
		parents[l.ChildID] = append(parents[l.ChildID], names[l.ParentID])
	}

	w := formatter.Writer
	fmt.Fprintf(w, "%s  %s\n", color.CyanString(sub.Name), sub.ID)
	fmt.Fprintf(w, "  seq: %d\n  hash: %s\n  builder: %s (ir %s)\n", sub.Seq, sub.Hash, sub.BuilderVersion, sub.IRVersion)
	for _, s := range steps {
		fmt.Fprintf(w, "  %3d %-10s %s", s.Position, "["+s.Kind+"]", s.Name)
		if p := parents[s.StepID]; len(p) > 0 {
			fmt.Fprintf(w, "  <- %s", strings.Join(p, ", "))
		}
		fmt.Fprintln(w)
	}
	return nil
}

func launchpadError(f *OutputFormatter, err error) error {
	code := ErrCodeLaunchpad
	if errors.Is(err, store.ErrNotFound) {
		code = ErrCodeNotFound
	}
	_ = f.Error(code, err.Error(), nil)
	return WrapExitError(ExitCommandError, "launchpad read failed", err)
}
