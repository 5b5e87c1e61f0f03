// Package harness runs planning scenarios for quench workflows.
//
// A scenario names a protocol and a set of structures, plans the workflow
// they describe, stores it on a throwaway in-memory launchpad and checks
// assertions about the result.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: silicon_short
//	description: "Two checkpoints, default stage layers"
//	protocol:
//	  schedule: {start: 1500, end: 500, step: 500}
//	structures_file: ../structures/si.yaml
//	assertions:
//	  - type: step_count
//	    count: 6
//	  - type: step_parents
//	    step: snap_0_optimize
//	    steps: [snap_0_hold_500]
//	  - type: step_field
//	    step: snap_0_cool_1000
//	    path: md_params.nsteps
//	    value: 200
//
// protocol may be replaced by protocol_dir, a directory of CUE files. Paths
// resolve against the scenario file.
//
// # Golden Files
//
// RunWithGolden compares a hash-free snapshot of the plan with
// testdata/golden/{name}.golden using goldie. Regenerate with -update.
package harness
