package quench

import (
	"errors"
	"fmt"

	"github.com/roach88/quench/internal/ir"
	"github.com/roach88/quench/internal/structure"
	"github.com/roach88/quench/internal/workflow"
)

// DefaultMDName is the step name used when StepOptions.Name is empty.
const DefaultMDName = "molecular dynamics"

// StepOptions configures BuildMDStep.
type StepOptions struct {
	Name     string
	Priority *int64
	// Args is merged recursively over the MD defaults; caller values win.
	Args ir.IRObject
	// Parent is the step this one runs after, or nil.
	Parent *workflow.Step
	// PreviousStructure makes the step start from its parent's final
	// structure instead of the input structure.
	PreviousStructure bool
	InsertDB          bool
	// Params are forwarded verbatim to the execution service.
	Params ir.IRObject
	Run    RunDefaults
}

// RelaxOptions configures BuildOptimizeStep and BuildStaticStep.
type RelaxOptions struct {
	Name     string
	Priority *int64
	// Args is merged recursively over the relax defaults.
	Args   ir.IRObject
	Parent *workflow.Step
	Run    RunDefaults
}

// BuildMDStep returns one MD step that runs s from start to end Kelvin.
// The defaults are 500 MD steps and the solver overrides ISIF=1,
// LWAVE=false, PREC=Low; opts.Args overrides any of them.
func BuildMDStep(s *structure.Structure, index int, start, end int64, opts StepOptions) (*workflow.Step, error) {
	name := opts.Name
	if name == "" {
		name = DefaultMDName
	}

	merged, err := ir.Merge(MDBaseLayer(start, end, opts.Run), opts.Args)
	if err != nil {
		return nil, fmt.Errorf("step %q: %w", name, configErr(err))
	}
	cfg, err := DecodeMDConfig(merged)
	if err != nil {
		return nil, fmt.Errorf("step %q: %w", name, err)
	}

	params := cfg.Params
	step := &workflow.Step{
		Name:                 name,
		Kind:                 workflow.KindMD,
		StructureIndex:       index,
		Structure:            s,
		Parents:              parents(opts.Parent),
		MD:                   &params,
		Run:                  cfg.Run,
		Overrides:            cfg.Overrides,
		Spec:                 withPriority(cfg.Spec, opts.Priority),
		Params:               opts.Params.Clone(),
		Priority:             clonePriority(opts.Priority),
		ContinueFromPrevious: opts.PreviousStructure,
		PassStructure:        true,
		InsertDB:             opts.InsertDB,
	}
	return step, nil
}

// BuildOptimizeStep returns a relaxation of s with ISIF=2 and the force
// convergence check disabled. It continues from its parent's structure when
// it has one.
func BuildOptimizeStep(s *structure.Structure, index int, opts RelaxOptions) (*workflow.Step, error) {
	step, err := buildRelaxStep(s, index, workflow.KindOptimize, opts)
	if err != nil {
		return nil, err
	}
	step.ContinueFromPrevious = opts.Parent != nil
	step.CheckForces = false
	return step, nil
}

// BuildStaticStep returns a static calculation on the structure produced by
// opts.Parent, which is required.
func BuildStaticStep(s *structure.Structure, index int, opts RelaxOptions) (*workflow.Step, error) {
	if opts.Parent == nil {
		return nil, fmt.Errorf("step %q: static step requires a parent", opts.Name)
	}
	step, err := buildRelaxStep(s, index, workflow.KindStatic, opts)
	if err != nil {
		return nil, err
	}
	step.ContinueFromPrevious = true
	return step, nil
}

func buildRelaxStep(s *structure.Structure, index int, kind workflow.Kind, opts RelaxOptions) (*workflow.Step, error) {
	merged, err := ir.Merge(RelaxBaseLayer(opts.Priority, opts.Run), opts.Args)
	if err != nil {
		return nil, fmt.Errorf("step %q: %w", opts.Name, configErr(err))
	}
	cfg, err := DecodeRelaxConfig(merged)
	if err != nil {
		return nil, fmt.Errorf("step %q: %w", opts.Name, err)
	}

	return &workflow.Step{
		Name:           opts.Name,
		Kind:           kind,
		StructureIndex: index,
		Structure:      s,
		Parents:        parents(opts.Parent),
		Run:            cfg.Run,
		Overrides:      cfg.Overrides,
		Spec:           cfg.Spec,
		Priority:       clonePriority(opts.Priority),
		PassStructure:  true,
	}, nil
}

// configErr tags merge failures as configuration errors while keeping the
// merge conflict detail reachable through errors.As.
func configErr(err error) error {
	if errors.Is(err, ErrInvalidConfiguration) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
}

func parents(p *workflow.Step) []*workflow.Step {
	if p == nil {
		return nil
	}
	return []*workflow.Step{p}
}

// withPriority adds _priority to an MD spec unless the caller set one.
func withPriority(spec ir.IRObject, priority *int64) ir.IRObject {
	if priority == nil {
		return spec
	}
	if _, ok := spec[KeyPriority]; ok {
		return spec
	}
	out := spec.Clone()
	if out == nil {
		out = ir.IRObject{}
	}
	out[KeyPriority] = ir.IRInt(*priority)
	return out
}

func clonePriority(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
