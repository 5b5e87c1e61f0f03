package harness

import "github.com/roach88/quench/internal/workflow"

// Result is the outcome of a scenario run.
type Result struct {
	// Pass indicates overall success: every assertion held.
	Pass bool `json:"pass"`

	// WorkflowName, StepCount and Hash describe the planned workflow.
	// They are empty when planning failed.
	WorkflowName string `json:"workflow_name,omitempty"`
	StepCount    int    `json:"step_count"`
	Hash         string `json:"hash,omitempty"`

	// SubmissionID is the launchpad ID the workflow was stored under.
	SubmissionID string `json:"submission_id,omitempty"`

	// BuildError holds the planning error, if any.
	BuildError string `json:"build_error,omitempty"`

	// Errors contains failed assertion messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Workflow is the planned workflow, nil when planning failed.
	Workflow *workflow.Workflow `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// stepNames returns the names of the planned steps, for error context.
func (r *Result) stepNames() []string {
	if r.Workflow == nil {
		return nil
	}
	steps := r.Workflow.Steps()
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return names
}
