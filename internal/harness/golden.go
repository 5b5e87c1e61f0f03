package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/quench/internal/ir"
	"github.com/roach88/quench/internal/workflow"
)

// Snapshot returns the golden form of a planned workflow: the workflow name
// and, per step, its name, kind, parents, structure index, chaining flag and
// MD temperatures. Content hashes are left out.
func Snapshot(scenarioName string, wf *workflow.Workflow) ir.IRObject {
	steps := wf.Steps()
	list := make(ir.IRArray, len(steps))
	for i, s := range steps {
		parents := make(ir.IRArray, len(s.Parents))
		for j, n := range s.ParentNames() {
			parents[j] = ir.IRString(n)
		}
		obj := ir.IRObject{
			"name":               ir.IRString(s.Name),
			"kind":               ir.IRString(s.Kind),
			"parents":            parents,
			"structure_index":    ir.IRInt(s.StructureIndex),
			"previous_structure": ir.IRBool(s.ContinueFromPrevious),
		}
		if s.MD != nil {
			obj["md_params"] = ir.IRObject{
				"start_temp": ir.IRInt(s.MD.StartTemp),
				"end_temp":   ir.IRInt(s.MD.EndTemp),
				"nsteps":     ir.IRInt(s.MD.NSteps),
			}
		}
		list[i] = obj
	}

	return ir.IRObject{
		"scenario_name": ir.IRString(scenarioName),
		"workflow_name": ir.IRString(wf.Name()),
		"steps":         list,
	}
}

// RunWithGolden runs a scenario and compares its plan snapshot against a
// golden file in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario cannot run or planning fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return result, err
	}
	return result, nil
}

// AssertGolden compares an existing result's snapshot against a golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	if result.Workflow == nil {
		return fmt.Errorf("scenario %q planned no workflow: %s", name, result.BuildError)
	}

	data, err := ir.MarshalCanonical(Snapshot(name, result.Workflow))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)

	return nil
}
