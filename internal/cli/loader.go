package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/token"

	"github.com/roach88/quench/internal/protocol"
	"github.com/roach88/quench/internal/quench"
	"github.com/roach88/quench/internal/workflow"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric          = "E001" // Generic/unknown error
	ErrCodeScanError        = "E002" // Directory scan error
	ErrCodeNoFiles          = "E003" // No CUE files found
	ErrCodeLoadFailed       = "E004" // CUE load failed
	ErrCodeNotFound         = "E005" // Path not found
	ErrCodeCompileFailed    = "E006" // Protocol failed to compile
	ErrCodeWriteFailed      = "E007" // File write error
	ErrCodeStructuresFailed = "E008" // Structures file failed to load
	ErrCodeLaunchpad        = "E009" // Launchpad database error
	ErrCodePlanFailed       = "E010" // Workflow assembly failed
)

// LoadError represents an error that occurred while loading a protocol.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ValidationFailure carries every validation error of a protocol.
type ValidationFailure struct {
	Errors []protocol.ValidationError
}

func (e *ValidationFailure) Error() string {
	return fmt.Sprintf("validation failed with %d error(s)", len(e.Errors))
}

// LoadProtocol loads and compiles the protocol in dir. A non-empty
// structuresFile replaces the file the protocol references.
func LoadProtocol(dir, structuresFile string, cfg *Config) (*protocol.Protocol, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("protocol directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing protocol directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}
	slog.Debug("loading protocol", "dir", dir, "files", len(cueFiles))

	p, err := protocol.LoadDir(dir)
	if err != nil {
		return nil, convertCompileError(err)
	}

	if structuresFile != "" {
		p.StructuresFile = structuresFile
	}
	if cfg != nil {
		p.Request.Run = cfg.applyRun(p.Request.Run)
	}
	return p, nil
}

// PlanProtocol validates a loaded protocol, reads its structures and
// builds the workflow.
func PlanProtocol(p *protocol.Protocol) (*workflow.Workflow, error) {
	if errs := protocol.Validate(p); len(errs) > 0 {
		return nil, &ValidationFailure{Errors: errs}
	}

	if err := p.LoadStructures(); err != nil {
		return nil, &LoadError{Code: ErrCodeStructuresFailed, Message: err.Error()}
	}

	wf, err := quench.BuildQuenchWorkflow(p.Request)
	if err != nil {
		return nil, &LoadError{Code: ErrCodePlanFailed, Message: err.Error()}
	}
	slog.Debug("planned workflow", "name", wf.Name(), "steps", wf.Len(), "hash", wf.Hash())
	return wf, nil
}

// PlanDir loads the protocol in dir and plans its workflow.
func PlanDir(dir, structuresFile string, cfg *Config) (*workflow.Workflow, error) {
	p, err := LoadProtocol(dir, structuresFile, cfg)
	if err != nil {
		return nil, err
	}
	return PlanProtocol(p)
}

// convertCompileError converts a protocol error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *protocol.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeCompileFailed,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
}

// reportPlanError writes a planning error through the formatter and
// returns the matching exit error. Validation failures exit 1, everything
// else exits 2.
func reportPlanError(f *OutputFormatter, err error) error {
	var vf *ValidationFailure
	if errors.As(err, &vf) {
		return outputValidationErrors(f, vf.Errors)
	}

	code, message := ErrCodeGeneric, err.Error()
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		code, message = loadErr.Code, loadErr.Message
		if loadErr.Pos.IsValid() {
			message = fmt.Sprintf("%s:%d: %s", loadErr.Pos.Filename(), loadErr.Pos.Line(), message)
		}
	}
	_ = f.Error(code, message, nil)
	return WrapExitError(ExitCommandError, "planning failed", err)
}
