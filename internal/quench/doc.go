// Package quench builds slow-quench workflows.
//
// A slow quench cools each input structure from a high temperature to a low
// one in fixed decrements. Every decrement is a cool MD step followed by a
// hold MD step at the new temperature. After the last hold the structure is
// relaxed (optimize) and evaluated (static). The mp_quench strategy skips
// the MD chain and only relaxes.
//
// BuildMDStep creates one MD step from layered configuration.
// BuildQuenchWorkflow drives the schedule over every structure and assembles
// the result into a workflow.Workflow. Nothing here performs I/O.
package quench
