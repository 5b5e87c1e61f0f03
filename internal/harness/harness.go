package harness

import (
	"context"
	"errors"
	"fmt"

	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/quench/internal/protocol"
	"github.com/roach88/quench/internal/quench"
	"github.com/roach88/quench/internal/store"
	"github.com/roach88/quench/internal/testutil"
	"github.com/roach88/quench/internal/workflow"
)

// Run plans a scenario and evaluates its assertions.
//
// Each scenario runs against a fresh in-memory launchpad with sequential
// submission IDs, so results are reproducible.
//
// Execution flow:
//  1. Compile the protocol (inline or directory)
//  2. Attach structures (inline, scenario file or protocol file)
//  3. Validate the protocol and build the workflow
//  4. Submit the workflow to the launchpad
//  5. Evaluate assertions
//
// Planning failures are recorded in Result.BuildError, not returned; the
// returned error is reserved for harness failures.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:", store.WithIDGenerator(testutil.NewSequentialIDGenerator("")))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	result := NewResult()

	wf, buildErr := Plan(scenario)
	if buildErr != nil {
		result.BuildError = buildErr.Error()
	} else {
		result.Workflow = wf
		result.WorkflowName = wf.Name()
		result.StepCount = wf.Len()
		result.Hash = wf.Hash()

		id, _, err := st.SubmitWorkflow(ctx, wf)
		if err != nil {
			return nil, fmt.Errorf("failed to submit workflow: %w", err)
		}
		result.SubmissionID = id
	}

	if buildErr != nil && !expectsBuildError(scenario.Assertions) {
		result.AddError(fmt.Sprintf("planning failed: %v", buildErr))
		return result, nil
	}

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// Plan compiles the scenario's protocol, attaches its structures, validates
// the protocol and builds the workflow.
func Plan(scenario *Scenario) (*workflow.Workflow, error) {
	p, err := compileProtocol(scenario)
	if err != nil {
		return nil, err
	}

	switch {
	case len(scenario.Structures) > 0:
		for i, s := range scenario.Structures {
			if s == nil {
				return nil, fmt.Errorf("structures[%d]: empty entry", i)
			}
			if err := s.Validate(); err != nil {
				return nil, fmt.Errorf("structures[%d]: %w", i, err)
			}
		}
		p.Request.Structures = scenario.Structures
	case scenario.StructuresFile != "":
		p.StructuresFile = scenario.resolve(scenario.StructuresFile)
	}

	if errs := protocol.Validate(p); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return nil, errors.Join(joined...)
	}

	if len(p.Request.Structures) == 0 {
		if err := p.LoadStructures(); err != nil {
			return nil, err
		}
	}

	return quench.BuildQuenchWorkflow(p.Request)
}

func compileProtocol(scenario *Scenario) (*protocol.Protocol, error) {
	switch {
	case scenario.ProtocolDir != "":
		return protocol.LoadDir(scenario.resolve(scenario.ProtocolDir))
	case scenario.Protocol != nil:
		v := cuecontext.New().Encode(scenario.Protocol)
		p, err := protocol.Compile(v)
		if err != nil {
			return nil, err
		}
		p.StructuresFile = scenario.resolve(p.StructuresFile)
		return p, nil
	default:
		return &protocol.Protocol{}, nil
	}
}

func expectsBuildError(assertions []Assertion) bool {
	for _, a := range assertions {
		if a.Type == AssertBuildError {
			return true
		}
	}
	return false
}
