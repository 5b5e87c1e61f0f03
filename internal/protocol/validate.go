package protocol

import (
	"fmt"
	"regexp"

	"github.com/roach88/quench/internal/ir"
	"github.com/roach88/quench/internal/quench"
	"github.com/roach88/quench/internal/structure"
)

// Validation error codes (E100-E199)
const (
	ErrUnknownStrategy   = "E101" // strategy is not slow_quench or mp_quench
	ErrNoStructures      = "E102" // no structures given or referenced
	ErrNegativeSteps     = "E103" // md_params.nsteps below zero
	ErrInvalidDescriptor = "E104" // descriptor has characters unsafe in step names
	ErrInvalidLayer      = "E105" // override layer fails to merge or decode
	ErrInvalidSchedule   = "E106" // negative temperature or too many checkpoints
)

// ValidationError represents a protocol validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

var descriptorPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]*$`)

// Validate checks a compiled protocol. Returns all errors found (does not
// fail-fast). When the protocol references no structures file, the request
// itself must carry structures.
func Validate(p *Protocol) []ValidationError {
	var errs []ValidationError
	req := &p.Request

	// E101: strategy
	if _, err := quench.ParseStrategy(string(req.Strategy)); err != nil {
		errs = append(errs, ValidationError{
			Field:   "strategy",
			Message: err.Error(),
			Code:    ErrUnknownStrategy,
		})
	}

	// E102: structures
	if len(req.Structures) == 0 && p.StructuresFile == "" {
		errs = append(errs, ValidationError{
			Field:   "structures",
			Message: "no structures given and no structures file referenced",
			Code:    ErrNoStructures,
		})
	}

	// E106: schedule bounds
	if req.Schedule != nil {
		if err := req.Schedule.Validate(); err != nil {
			errs = append(errs, ValidationError{
				Field:   "schedule",
				Message: err.Error(),
				Code:    ErrInvalidSchedule,
			})
		}
	}

	// E103: negative step counts
	for _, layer := range []struct {
		field string
		obj   ir.IRObject
	}{
		{"cool_args", req.CoolArgs},
		{"hold_args", req.HoldArgs},
	} {
		if n, ok := layer.obj.Object(quench.KeyMDParams).Int(quench.KeyNSteps); ok && n < 0 {
			errs = append(errs, ValidationError{
				Field:   layer.field + ".md_params.nsteps",
				Message: fmt.Sprintf("must not be negative, got %d", n),
				Code:    ErrNegativeSteps,
			})
		}
	}

	// E104: descriptor
	if !descriptorPattern.MatchString(req.Descriptor) {
		errs = append(errs, ValidationError{
			Field:   "descriptor",
			Message: fmt.Sprintf("%q may only contain letters, digits, '_', '-' and '.'", req.Descriptor),
			Code:    ErrInvalidDescriptor,
		})
	}

	// E105: dry-run every layer through the factory
	errs = append(errs, dryRun(req)...)

	return errs
}

// dryRun builds one step of each kind against a placeholder structure so
// layer errors surface before any structures are loaded.
func dryRun(req *quench.Request) []ValidationError {
	var errs []ValidationError
	placeholder := &structure.Structure{
		Lattice: [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Sites:   []structure.Site{{Species: "H"}},
	}

	coolArgs, holdArgs := req.CoolArgs, req.HoldArgs
	if coolArgs == nil {
		coolArgs = quench.CoolDefaults()
	}
	if holdArgs == nil {
		holdArgs = quench.HoldDefaults()
	}

	for _, layer := range []struct {
		field string
		args  ir.IRObject
	}{
		{"cool_args", coolArgs},
		{"hold_args", holdArgs},
	} {
		_, err := quench.BuildMDStep(placeholder, 0, 1000, 500, quench.StepOptions{
			Name:     layer.field,
			Priority: req.Priority,
			Args:     layer.args,
			Params:   req.Params,
			Run:      req.Run,
		})
		if err != nil {
			errs = append(errs, ValidationError{Field: layer.field, Message: err.Error(), Code: ErrInvalidLayer})
		}
	}

	_, err := quench.BuildOptimizeStep(placeholder, 0, quench.RelaxOptions{
		Name:     "quench_args",
		Priority: req.Priority,
		Args:     req.QuenchArgs,
		Run:      req.Run,
	})
	if err != nil {
		errs = append(errs, ValidationError{Field: "quench_args", Message: err.Error(), Code: ErrInvalidLayer})
	}
	return errs
}
