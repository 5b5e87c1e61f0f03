// Package workflow holds the step graph handed to the execution service.
//
// A Step describes one firework: an MD run, a relaxation or a static
// calculation on one structure. Steps reference their parents by pointer and
// are identified by a content hash over their descriptor, which includes the
// IDs of their parents. A Workflow is a named, validated DAG of steps that is
// not modified after New returns.
package workflow
