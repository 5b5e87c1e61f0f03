package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/quench/internal/structure"
)

// Scenario defines a planning scenario: a protocol, the structures to quench
// and assertions about the workflow that results.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// ProtocolDir is a directory of CUE files defining a "quench" value.
	// Relative paths are resolved against the scenario file location.
	ProtocolDir string `yaml:"protocol_dir,omitempty"`

	// Protocol is an inline protocol with the same fields as the CUE
	// #Quench definition.
	Protocol map[string]any `yaml:"protocol,omitempty"`

	// StructuresFile is a YAML or JSON structures file, relative to the
	// scenario file location.
	StructuresFile string `yaml:"structures_file,omitempty"`

	// Structures are inline structures. They take precedence over a
	// structures file named by the protocol.
	Structures []*structure.Structure `yaml:"structures,omitempty"`

	// Assertions validate the planned workflow.
	Assertions []Assertion `yaml:"assertions"`

	// BaseDir is the directory relative paths are resolved against.
	BaseDir string `yaml:"-"`
}

// Assertion validates one property of the planned workflow.
type Assertion struct {
	// Type specifies the assertion type:
	// - "step_count": number of steps, optionally of one kind
	// - "workflow_name": the workflow name equals value
	// - "step_order": step names in exactly this order
	// - "step_parents": the parents of step, in order
	// - "roots": the steps without parents, in order
	// - "step_field": the descriptor value at path of step
	// - "stored_steps": step rows on the launchpad, optionally of one kind
	// - "build_error": planning fails with a message containing contains
	Type string `yaml:"type"`

	// Step names the step under test (step_parents, step_field).
	Step string `yaml:"step,omitempty"`

	// Steps is an ordered list of step names (step_order, step_parents, roots).
	Steps []string `yaml:"steps,omitempty"`

	// Count is the expected number (step_count, stored_steps).
	Count int `yaml:"count,omitempty"`

	// Kind filters counted steps by kind (step_count, stored_steps).
	Kind string `yaml:"kind,omitempty"`

	// Path is a dotted descriptor path (step_field).
	Path string `yaml:"path,omitempty"`

	// Value is the expected value (workflow_name, step_field).
	Value any `yaml:"value,omitempty"`

	// Contains is an expected error substring (build_error).
	Contains string `yaml:"contains,omitempty"`
}

// Assertion type constants.
const (
	AssertStepCount    = "step_count"
	AssertWorkflowName = "workflow_name"
	AssertStepOrder    = "step_order"
	AssertStepParents  = "step_parents"
	AssertRoots        = "roots"
	AssertStepField    = "step_field"
	AssertStoredSteps  = "stored_steps"
	AssertBuildError   = "build_error"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Relative paths in the scenario resolve against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	scenario.BaseDir = filepath.Dir(path)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml scenario in dir, in file name order.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// resolve returns p joined to the scenario's base directory unless it is
// absolute or empty.
func (s *Scenario) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || s.BaseDir == "" {
		return p
	}
	return filepath.Join(s.BaseDir, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.ProtocolDir != "" && s.Protocol != nil {
		return fmt.Errorf("protocol and protocol_dir are mutually exclusive")
	}

	if s.StructuresFile != "" && len(s.Structures) > 0 {
		return fmt.Errorf("structures and structures_file are mutually exclusive")
	}

	if s.ProtocolDir != "" {
		if info, err := os.Stat(s.resolve(s.ProtocolDir)); err != nil || !info.IsDir() {
			return fmt.Errorf("protocol directory not found: %s", s.ProtocolDir)
		}
	}

	if s.StructuresFile != "" {
		if _, err := os.Stat(s.resolve(s.StructuresFile)); os.IsNotExist(err) {
			return fmt.Errorf("structures file not found: %s", s.StructuresFile)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertStepCount, AssertStoredSteps:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertWorkflowName:
		if _, ok := a.Value.(string); !ok {
			return fmt.Errorf("assertions[%d]: value must be a string for workflow_name", index)
		}
	case AssertStepOrder, AssertRoots:
		if len(a.Steps) == 0 {
			return fmt.Errorf("assertions[%d]: steps list is required for %s", index, a.Type)
		}
	case AssertStepParents:
		if a.Step == "" {
			return fmt.Errorf("assertions[%d]: step is required for step_parents", index)
		}
	case AssertStepField:
		if a.Step == "" || a.Path == "" {
			return fmt.Errorf("assertions[%d]: step and path are required for step_field", index)
		}
	case AssertBuildError:
		if a.Contains == "" {
			return fmt.Errorf("assertions[%d]: contains is required for build_error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
