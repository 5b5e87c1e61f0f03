package quench

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/quench/internal/ir"
	"github.com/roach88/quench/internal/structure"
	"github.com/roach88/quench/internal/workflow"
)

// ErrNoStructures is returned when a request has no input structures.
var ErrNoStructures = errors.New("no structures to quench")

// Request describes one quench workflow.
type Request struct {
	Structures []*structure.Structure

	// Schedule defaults to DefaultSchedule.
	Schedule *Schedule
	Priority *int64
	// Strategy defaults to SlowQuench.
	Strategy Strategy

	// CoolArgs and HoldArgs replace CoolDefaults and HoldDefaults when set.
	CoolArgs ir.IRObject
	HoldArgs ir.IRObject
	// QuenchArgs is merged over the optimize/static defaults.
	QuenchArgs ir.IRObject
	// Params are forwarded to every MD step.
	Params ir.IRObject

	// Descriptor is inserted into the optimize, static and workflow names.
	Descriptor string
	// Name overrides the derived "<formula><descriptor>_quench" name.
	Name string

	Run RunDefaults
}

// EffectiveSchedule returns the request schedule or DefaultSchedule.
func (r *Request) EffectiveSchedule() Schedule {
	if r.Schedule == nil {
		return DefaultSchedule
	}
	return *r.Schedule
}

// WorkflowName returns the name BuildQuenchWorkflow will use. Without an
// explicit Name it is derived from the last structure.
func (r *Request) WorkflowName() string {
	if r.Name != "" {
		return r.Name
	}
	if len(r.Structures) == 0 || r.Structures[len(r.Structures)-1] == nil {
		return ""
	}
	last := r.Structures[len(r.Structures)-1]
	return last.ReducedFormula() + r.Descriptor + "_quench"
}

// BuildQuenchWorkflow builds the step chain of every structure in input
// order and assembles them into one workflow. Chains of different
// structures are independent.
func BuildQuenchWorkflow(req Request) (*workflow.Workflow, error) {
	strategy, err := ParseStrategy(string(req.Strategy))
	if err != nil {
		return nil, err
	}
	if len(req.Structures) == 0 {
		return nil, ErrNoStructures
	}

	sched := req.EffectiveSchedule()
	if err := sched.Validate(); err != nil {
		return nil, err
	}
	coolArgs := req.CoolArgs
	if coolArgs == nil {
		coolArgs = CoolDefaults()
	}
	holdArgs := req.HoldArgs
	if holdArgs == nil {
		holdArgs = HoldDefaults()
	}

	var steps []*workflow.Step
	for i, s := range req.Structures {
		if s == nil {
			return nil, fmt.Errorf("structure %d is nil", i)
		}
		slog.Debug("planning structure",
			"structure", i,
			"formula", s.ReducedFormula(),
			"checkpoints", sched.Len())

		chain, err := buildChain(req, strategy, sched, i, s, coolArgs, holdArgs)
		if err != nil {
			return nil, fmt.Errorf("structure %d: %w", i, err)
		}
		steps = append(steps, chain...)
	}

	name := req.WorkflowName()
	wf, err := workflow.New(name, steps, requestMetadata(req, strategy, sched))
	if err != nil {
		return nil, err
	}

	slog.Info("workflow assembled",
		"workflow", wf.Name(),
		"steps", wf.Len(),
		"strategy", strategy)
	return wf, nil
}

// buildChain returns the steps of one structure in order: cool/hold pairs,
// then optimize and static. Each step's only parent is the one before it.
func buildChain(req Request, strategy Strategy, sched Schedule, i int, s *structure.Structure, coolArgs, holdArgs ir.IRObject) ([]*workflow.Step, error) {
	var chain []*workflow.Step
	last := func() *workflow.Step {
		if len(chain) == 0 {
			return nil
		}
		return chain[len(chain)-1]
	}

	if strategy.Cools() {
		for _, t := range sched.Checkpoints() {
			next := t - sched.Step
			prev := last()

			cool, err := BuildMDStep(s, i, t, next, StepOptions{
				Name:              fmt.Sprintf("snap_%d_cool_%d", i, next),
				Priority:          req.Priority,
				Args:              coolArgs,
				Parent:            prev,
				PreviousStructure: prev != nil,
				InsertDB:          true,
				Params:            req.Params,
				Run:               req.Run,
			})
			if err != nil {
				return nil, err
			}
			chain = append(chain, cool)

			hold, err := BuildMDStep(s, i, next, next, StepOptions{
				Name:              fmt.Sprintf("snap_%d_hold_%d", i, next),
				Priority:          req.Priority,
				Args:              holdArgs,
				Parent:            cool,
				PreviousStructure: true,
				InsertDB:          true,
				Params:            req.Params,
				Run:               req.Run,
			})
			if err != nil {
				return nil, err
			}
			chain = append(chain, hold)
		}
	}

	if strategy.Relaxes() {
		prefix := fmt.Sprintf("snap_%d%s", i, req.Descriptor)

		opt, err := BuildOptimizeStep(s, i, RelaxOptions{
			Name:     prefix + "_optimize",
			Priority: req.Priority,
			Args:     req.QuenchArgs,
			Parent:   last(),
			Run:      req.Run,
		})
		if err != nil {
			return nil, err
		}
		chain = append(chain, opt)

		static, err := BuildStaticStep(s, i, RelaxOptions{
			Name:     prefix + "_static",
			Priority: req.Priority,
			Args:     req.QuenchArgs,
			Parent:   opt,
			Run:      req.Run,
		})
		if err != nil {
			return nil, err
		}
		chain = append(chain, static)
	}

	return chain, nil
}

func requestMetadata(req Request, strategy Strategy, sched Schedule) ir.IRObject {
	formulas := make(ir.IRArray, len(req.Structures))
	for i, s := range req.Structures {
		formulas[i] = ir.IRString(s.ReducedFormula())
	}

	md := ir.IRObject{
		"strategy": ir.IRString(strategy),
		"schedule": ir.IRObject{
			"start": ir.IRInt(sched.Start),
			"end":   ir.IRInt(sched.End),
			"step":  ir.IRInt(sched.Step),
		},
		"structures":      ir.IRInt(len(req.Structures)),
		"formulas":        formulas,
		"builder_version": ir.IRString(ir.BuilderVersion),
	}
	if req.Descriptor != "" {
		md["descriptor"] = ir.IRString(req.Descriptor)
	}
	if req.Priority != nil {
		md["priority"] = ir.IRInt(*req.Priority)
	}
	return md
}
