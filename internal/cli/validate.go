package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/quench/internal/protocol"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid          bool                       `json:"valid"`
	Strategy       string                     `json:"strategy,omitempty"`
	StructuresFile string                     `json:"structures_file,omitempty"`
	Errors         []protocol.ValidationError `json:"errors,omitempty"`
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Structures string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <protocol-dir>",
		Short: "Validate a quench protocol without planning it",
		Long: `Validate a CUE quench protocol.

Checks the strategy, the structures reference, MD step counts, the
descriptor and every override layer. The referenced structures file is
read but no workflow is assembled.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Structures, "structures", "", "structures file overriding the protocol's")

	return cmd
}

func runValidate(opts *ValidateOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.Config()
	if err != nil {
		return outputValidateError(formatter, ErrCodeGeneric, err.Error(), nil)
	}

	p, err := LoadProtocol(dir, opts.Structures, cfg)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputValidateError(formatter, ErrCodeGeneric, err.Error(), nil)
	}
	formatter.VerboseLog("Compiled protocol in %s (strategy %s)", dir, p.Request.Strategy)

	errs := protocol.Validate(p)
	if len(errs) == 0 {
		if err := p.LoadStructures(); err != nil {
			errs = append(errs, protocol.ValidationError{
				Field:   "structures",
				Message: err.Error(),
				Code:    ErrCodeStructuresFailed,
			})
		} else {
			formatter.VerboseLog("Loaded %d structure(s)", len(p.Request.Structures))
		}
	}

	if len(errs) > 0 {
		return outputValidationErrors(formatter, errs)
	}

	return outputValidateSuccess(formatter, p)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, p *protocol.Protocol) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{
			Valid:          true,
			Strategy:       string(p.Request.Strategy),
			StructuresFile: p.StructuresFile,
		})
	}

	formatter.Check(true, "Protocol valid (%d structure(s))", len(p.Request.Structures))
	return nil
}

// outputValidateError outputs a single load error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Load errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []protocol.ValidationError) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:  false,
			Errors: errs,
		}
		if err := formatter.Failure(errs[0].Code, errs[0].Message, result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	_ = formatter.Failure(errs[0].Code, "Validation failed", nil)
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
