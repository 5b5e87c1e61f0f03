package harness

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/quench/internal/ir"
	"github.com/roach88/quench/internal/store"
	"github.com/roach88/quench/internal/workflow"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Steps    []string // Planned step names for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Steps) > 0 {
		fmt.Fprintf(&buf, "\nPlanned steps:\n")
		for i, name := range e.Steps {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, name)
		}
	}

	return buf.String()
}

// AssertionContext carries what store-backed assertions need.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions runs every assertion against the result and returns
// the failure messages in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	if a.Type == AssertBuildError {
		return assertBuildError(result, a)
	}
	if result.Workflow == nil {
		return &AssertionError{
			Type:     a.Type,
			Expected: "a planned workflow",
			Actual:   "planning failed: " + result.BuildError,
		}
	}

	switch a.Type {
	case AssertStepCount:
		return assertStepCount(result, a)
	case AssertWorkflowName:
		return assertWorkflowName(result, a)
	case AssertStepOrder:
		return assertStepOrder(result, a)
	case AssertStepParents:
		return assertStepParents(result, a)
	case AssertRoots:
		return assertRoots(result, a)
	case AssertStepField:
		return assertStepField(result, a)
	case AssertStoredSteps:
		return assertStoredSteps(result, a, actx)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertBuildError(result *Result, a Assertion) error {
	if result.BuildError == "" {
		return &AssertionError{
			Type:     AssertBuildError,
			Expected: fmt.Sprintf("planning error containing %q", a.Contains),
			Actual:   fmt.Sprintf("workflow %q with %d steps", result.WorkflowName, result.StepCount),
			Steps:    result.stepNames(),
		}
	}
	if !strings.Contains(result.BuildError, a.Contains) {
		return &AssertionError{
			Type:     AssertBuildError,
			Expected: fmt.Sprintf("planning error containing %q", a.Contains),
			Actual:   result.BuildError,
		}
	}
	return nil
}

func assertStepCount(result *Result, a Assertion) error {
	count := countKind(result.Workflow.Steps(), a.Kind)
	if count != a.Count {
		return &AssertionError{
			Type:     AssertStepCount,
			Expected: fmt.Sprintf("%d %s", a.Count, describeKind(a.Kind)),
			Actual:   fmt.Sprintf("%d %s", count, describeKind(a.Kind)),
			Steps:    result.stepNames(),
		}
	}
	return nil
}

func assertWorkflowName(result *Result, a Assertion) error {
	want, _ := a.Value.(string)
	if result.WorkflowName != want {
		return &AssertionError{
			Type:     AssertWorkflowName,
			Expected: want,
			Actual:   result.WorkflowName,
		}
	}
	return nil
}

func assertStepOrder(result *Result, a Assertion) error {
	names := result.stepNames()
	if !slices.Equal(names, a.Steps) {
		return &AssertionError{
			Type:     AssertStepOrder,
			Expected: fmt.Sprintf("%v", a.Steps),
			Actual:   fmt.Sprintf("%v", names),
		}
	}
	return nil
}

func assertStepParents(result *Result, a Assertion) error {
	step, err := lookupStep(result, a)
	if err != nil {
		return err
	}
	parents := step.ParentNames()
	if !slices.Equal(parents, a.Steps) {
		return &AssertionError{
			Type:     AssertStepParents,
			Expected: fmt.Sprintf("%s after %v", a.Step, a.Steps),
			Actual:   fmt.Sprintf("%s after %v", a.Step, parents),
		}
	}
	return nil
}

func assertRoots(result *Result, a Assertion) error {
	roots := result.Workflow.Roots()
	names := make([]string, len(roots))
	for i, r := range roots {
		names[i] = r.Name
	}
	if !slices.Equal(names, a.Steps) {
		return &AssertionError{
			Type:     AssertRoots,
			Expected: fmt.Sprintf("%v", a.Steps),
			Actual:   fmt.Sprintf("%v", names),
			Steps:    result.stepNames(),
		}
	}
	return nil
}

// assertStepField compares the value at a dotted descriptor path. Values
// compare by canonical JSON, so 3 and 3.0 differ.
func assertStepField(result *Result, a Assertion) error {
	step, err := lookupStep(result, a)
	if err != nil {
		return err
	}
	desc, err := step.ToIR()
	if err != nil {
		return fmt.Errorf("step %q: %w", a.Step, err)
	}

	actual, ok := desc.Path(strings.Split(a.Path, ".")...)
	if !ok {
		return &AssertionError{
			Type:     AssertStepField,
			Expected: fmt.Sprintf("%s.%s = %v", a.Step, a.Path, a.Value),
			Actual:   "path not present",
		}
	}

	want, err := ir.FromGo(a.Value)
	if err != nil {
		return fmt.Errorf("value: %w", err)
	}
	wantJSON, err := ir.MarshalIRValue(want)
	if err != nil {
		return fmt.Errorf("value: %w", err)
	}
	actualJSON, err := ir.MarshalIRValue(actual)
	if err != nil {
		return fmt.Errorf("step %q: %w", a.Step, err)
	}

	if !bytes.Equal(wantJSON, actualJSON) {
		return &AssertionError{
			Type:     AssertStepField,
			Expected: fmt.Sprintf("%s.%s = %s", a.Step, a.Path, wantJSON),
			Actual:   string(actualJSON),
		}
	}
	return nil
}

// assertStoredSteps counts the step rows the launchpad holds for the
// scenario's submission.
func assertStoredSteps(result *Result, a Assertion, actx *AssertionContext) error {
	if actx == nil || actx.Store == nil {
		return fmt.Errorf("stored_steps assertion requires a store")
	}
	steps, err := actx.Store.ReadSteps(actx.Ctx, result.SubmissionID)
	if err != nil {
		return &AssertionError{
			Type:     AssertStoredSteps,
			Expected: fmt.Sprintf("submission %q", result.SubmissionID),
			Actual:   err.Error(),
		}
	}

	count := 0
	for _, s := range steps {
		if a.Kind == "" || s.Kind == a.Kind {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertStoredSteps,
			Expected: fmt.Sprintf("%d stored %s", a.Count, describeKind(a.Kind)),
			Actual:   fmt.Sprintf("%d stored %s", count, describeKind(a.Kind)),
		}
	}
	return nil
}

func lookupStep(result *Result, a Assertion) (*workflow.Step, error) {
	step, ok := result.Workflow.Step(a.Step)
	if !ok {
		return nil, &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("step %q", a.Step),
			Actual:   "step not found",
			Steps:    result.stepNames(),
		}
	}
	return step, nil
}

func countKind(steps []*workflow.Step, kind string) int {
	if kind == "" {
		return len(steps)
	}
	n := 0
	for _, s := range steps {
		if string(s.Kind) == kind {
			n++
		}
	}
	return n
}

func describeKind(kind string) string {
	if kind == "" {
		return "steps"
	}
	return kind + " steps"
}
