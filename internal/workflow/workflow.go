package workflow

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/quench/internal/ir"
)

var (
	// ErrDuplicateStep is returned when two steps share a name or a step
	// appears twice.
	ErrDuplicateStep = errors.New("duplicate step")

	// ErrUnknownParent is returned when a parent is not part of the workflow.
	ErrUnknownParent = errors.New("unknown parent")

	// ErrCycle is returned when parent links form a cycle.
	ErrCycle = errors.New("cycle in step graph")
)

// Workflow is a named DAG of steps. It is read-only after New.
type Workflow struct {
	name     string
	steps    []*Step
	byName   map[string]*Step
	children map[*Step][]*Step
	metadata ir.IRObject
	hash     string
}

// New validates steps and assembles them into a workflow. Step order is
// preserved. Every step is sealed in dependency order so IDs reflect the
// final parent wiring.
func New(name string, steps []*Step, metadata ir.IRObject) (*Workflow, error) {
	if name == "" {
		return nil, fmt.Errorf("workflow name is required")
	}

	w := &Workflow{
		name:     name,
		steps:    slices.Clone(steps),
		byName:   make(map[string]*Step, len(steps)),
		children: make(map[*Step][]*Step, len(steps)),
		metadata: metadata.Clone(),
	}
	if w.metadata == nil {
		w.metadata = ir.IRObject{}
	}

	members := make(map[*Step]bool, len(steps))
	for _, s := range w.steps {
		if s == nil {
			return nil, fmt.Errorf("workflow %q: nil step", name)
		}
		if members[s] {
			return nil, fmt.Errorf("%w: step %q appears twice", ErrDuplicateStep, s.Name)
		}
		if _, dup := w.byName[s.Name]; dup {
			return nil, fmt.Errorf("%w: name %q", ErrDuplicateStep, s.Name)
		}
		members[s] = true
		w.byName[s.Name] = s
	}

	for _, s := range w.steps {
		for _, p := range s.Parents {
			if p == nil || !members[p] {
				parent := "<nil>"
				if p != nil {
					parent = p.Name
				}
				return nil, fmt.Errorf("%w: step %q references %q", ErrUnknownParent, s.Name, parent)
			}
			w.children[p] = append(w.children[p], s)
		}
	}

	if cycles := findCycles(w.steps); len(cycles) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(cycles[0], " -> "))
	}

	for _, s := range w.topoOrder() {
		if err := s.Seal(); err != nil {
			return nil, fmt.Errorf("workflow %q: %w", name, err)
		}
	}

	ids := make([]string, len(w.steps))
	for i, s := range w.steps {
		ids[i] = s.ID
	}
	hash, err := ir.WorkflowHash(name, ids, w.metadata)
	if err != nil {
		return nil, fmt.Errorf("workflow %q: %w", name, err)
	}
	w.hash = hash

	return w, nil
}

// Name returns the workflow name.
func (w *Workflow) Name() string { return w.name }

// Len returns the number of steps.
func (w *Workflow) Len() int { return len(w.steps) }

// Hash returns the content hash over the name, the ordered step IDs and
// the metadata.
func (w *Workflow) Hash() string { return w.hash }

// Metadata returns a copy of the workflow metadata.
func (w *Workflow) Metadata() ir.IRObject { return w.metadata.Clone() }

// Steps returns the steps in construction order. The slice is a copy.
func (w *Workflow) Steps() []*Step {
	return slices.Clone(w.steps)
}

// Step returns the step with the given name.
func (w *Workflow) Step(name string) (*Step, bool) {
	s, ok := w.byName[name]
	return s, ok
}

// Children returns the steps that list s as a parent, in construction order.
func (w *Workflow) Children(s *Step) []*Step {
	return slices.Clone(w.children[s])
}

// Roots returns the steps without parents.
func (w *Workflow) Roots() []*Step {
	var roots []*Step
	for _, s := range w.steps {
		if len(s.Parents) == 0 {
			roots = append(roots, s)
		}
	}
	return roots
}

// Leaves returns the steps without children.
func (w *Workflow) Leaves() []*Step {
	var leaves []*Step
	for _, s := range w.steps {
		if len(w.children[s]) == 0 {
			leaves = append(leaves, s)
		}
	}
	return leaves
}

// Links returns the parent ID to child IDs adjacency used by the execution
// service. Steps without children map to an empty list.
func (w *Workflow) Links() map[string][]string {
	links := make(map[string][]string, len(w.steps))
	for _, s := range w.steps {
		kids := make([]string, 0, len(w.children[s]))
		for _, c := range w.children[s] {
			kids = append(kids, c.ID)
		}
		links[s.ID] = kids
	}
	return links
}

// Stages groups steps into levels that can run in parallel: a step's level
// is one more than the deepest of its parents.
func (w *Workflow) Stages() [][]*Step {
	level := make(map[*Step]int, len(w.steps))
	maxLevel := -1
	for _, s := range w.topoOrder() {
		l := 0
		for _, p := range s.Parents {
			l = max(l, level[p]+1)
		}
		level[s] = l
		maxLevel = max(maxLevel, l)
	}

	stages := make([][]*Step, maxLevel+1)
	for _, s := range w.steps {
		stages[level[s]] = append(stages[level[s]], s)
	}
	return stages
}

// topoOrder returns steps with every parent before its children, keeping
// construction order among ready steps (Kahn's algorithm).
func (w *Workflow) topoOrder() []*Step {
	indegree := make(map[*Step]int, len(w.steps))
	for _, s := range w.steps {
		indegree[s] = len(s.Parents)
	}

	order := make([]*Step, 0, len(w.steps))
	done := make(map[*Step]bool, len(w.steps))
	for len(order) < len(w.steps) {
		progressed := false
		for _, s := range w.steps {
			if done[s] || indegree[s] > 0 {
				continue
			}
			done[s] = true
			order = append(order, s)
			progressed = true
			for _, c := range w.children[s] {
				indegree[c]--
			}
		}
		if !progressed {
			break
		}
	}
	return order
}

// findCycles returns every cycle in the parent graph as a list of step names.
func findCycles(steps []*Step) [][]string {
	graph := make(map[string][]string, len(steps))
	for _, s := range steps {
		graph[s.Name] = s.ParentNames()
	}

	var cycles [][]string
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || slices.Contains(graph[scc[0]], scc[0]) {
			cycles = append(cycles, scc)
		}
	}
	return cycles
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order so results are deterministic.
func tarjanSCC(graph map[string][]string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Reverse(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for v := range graph {
		nodes = append(nodes, v)
	}
	slices.Sort(nodes)
	for _, v := range nodes {
		if _, visited := indices[v]; !visited {
			strongConnect(v)
		}
	}
	return sccs
}
