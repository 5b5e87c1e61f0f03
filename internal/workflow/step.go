package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/quench/internal/ir"
	"github.com/roach88/quench/internal/structure"
)

// ErrUnsealedParent is returned by Seal when a parent has no ID yet.
var ErrUnsealedParent = errors.New("parent step is not sealed")

// Kind is the calculation a step performs.
type Kind string

const (
	KindMD       Kind = "md"
	KindOptimize Kind = "optimize"
	KindStatic   Kind = "static"
)

// DeferredRef names a value that the execution service substitutes at run
// time, such as the solver command or the results database. It renders as
// ">>key<<".
type DeferredRef string

// String returns the placeholder form, e.g. ">>vasp_cmd<<".
func (r DeferredRef) String() string {
	return ">>" + string(r) + "<<"
}

// ParseDeferredRef extracts the key from a ">>key<<" placeholder.
func ParseDeferredRef(s string) (DeferredRef, bool) {
	if !strings.HasPrefix(s, ">>") || !strings.HasSuffix(s, "<<") || len(s) <= 4 {
		return "", false
	}
	return DeferredRef(s[2 : len(s)-2]), true
}

// MDParams are the physical parameters of a molecular dynamics run.
// Temperatures are in Kelvin.
type MDParams struct {
	StartTemp int64
	EndTemp   int64
	NSteps    int64
}

// RunSpecs are the runtime parameters of a step.
type RunSpecs struct {
	// InputSet names a solver input set. Empty means the service default.
	InputSet string
	Command  DeferredRef
	DBFile   DeferredRef
}

// Step is one node of the workflow graph.
type Step struct {
	// ID is the content-addressed identity, set by Seal.
	ID             string
	Name           string
	Kind           Kind
	StructureIndex int
	Structure      *structure.Structure
	Parents        []*Step

	// MD is set for KindMD steps only.
	MD  *MDParams
	Run RunSpecs

	// Overrides are solver setting overrides (override_default_vasp_params).
	Overrides ir.IRObject
	// Spec is the firework spec forwarded verbatim.
	Spec ir.IRObject
	// Params are pass-through keyword parameters.
	Params ir.IRObject

	Priority *int64

	ContinueFromPrevious bool
	PassStructure        bool
	InsertDB             bool
	CheckForces          bool
}

// ParentNames returns the names of the step's parents in order.
func (s *Step) ParentNames() []string {
	names := make([]string, len(s.Parents))
	for i, p := range s.Parents {
		names[i] = p.Name
	}
	return names
}

// Descriptor returns the canonical description of the step. Parents appear
// by ID, so every parent must be sealed.
func (s *Step) Descriptor() (ir.IRObject, error) {
	parents := make(ir.IRArray, len(s.Parents))
	for i, p := range s.Parents {
		if p.ID == "" {
			return nil, fmt.Errorf("step %q: %w: %q", s.Name, ErrUnsealedParent, p.Name)
		}
		parents[i] = ir.IRString(p.ID)
	}

	run := ir.IRObject{
		"vasp_cmd": ir.IRString(s.Run.Command.String()),
		"db_file":  ir.IRString(s.Run.DBFile.String()),
	}
	if s.Run.InputSet != "" {
		run["vasp_input_set"] = ir.IRString(s.Run.InputSet)
	}

	d := ir.IRObject{
		"name":                         ir.IRString(s.Name),
		"kind":                         ir.IRString(s.Kind),
		"structure_index":              ir.IRInt(s.StructureIndex),
		"parents":                      parents,
		"run_specs":                    run,
		"override_default_vasp_params": nonNil(s.Overrides),
		"spec":                         nonNil(s.Spec),
		"previous_structure":           ir.IRBool(s.ContinueFromPrevious),
		"pass_structure":               ir.IRBool(s.PassStructure),
		"insert_db":                    ir.IRBool(s.InsertDB),
		"check_forces":                 ir.IRBool(s.CheckForces),
	}
	if s.MD != nil {
		d["md_params"] = ir.IRObject{
			"start_temp": ir.IRInt(s.MD.StartTemp),
			"end_temp":   ir.IRInt(s.MD.EndTemp),
			"nsteps":     ir.IRInt(s.MD.NSteps),
		}
	}
	if len(s.Params) > 0 {
		d["params"] = s.Params
	}
	if s.Priority != nil {
		d["priority"] = ir.IRInt(*s.Priority)
	}
	if s.Structure != nil {
		fp, err := s.Structure.Fingerprint()
		if err != nil {
			return nil, fmt.Errorf("step %q: structure: %w", s.Name, err)
		}
		d["structure"] = ir.IRString(fp)
	}
	return d, nil
}

// Seal computes and stores the step ID. Parents must be sealed first.
func (s *Step) Seal() error {
	d, err := s.Descriptor()
	if err != nil {
		return err
	}
	id, err := ir.StepID(d)
	if err != nil {
		return fmt.Errorf("step %q: %w", s.Name, err)
	}
	s.ID = id
	return nil
}

func nonNil(obj ir.IRObject) ir.IRObject {
	if obj == nil {
		return ir.IRObject{}
	}
	return obj
}
