// Package protocol compiles quench protocols written in CUE.
//
// A protocol directory holds one or more .cue files that together define a
// single top-level "quench" value:
//
//	quench: {
//		strategy: "slow_quench"
//		schedule: {start: 3000, end: 500, step: 500}
//		priority: 5
//		descriptor: "_amorphous"
//		cool_args: md_params: nsteps: 200
//		structures: "structures.yaml"
//	}
//
// The value is checked against an embedded #Quench schema, converted into a
// quench.Request and validated with error codes E101-E105.
package protocol
