package workflow

import (
	"fmt"

	"github.com/roach88/quench/internal/ir"
)

// ToIR returns the step descriptor with its ID and parent names added.
func (s *Step) ToIR() (ir.IRObject, error) {
	d, err := s.Descriptor()
	if err != nil {
		return nil, err
	}
	names := make(ir.IRArray, len(s.Parents))
	for i, n := range s.ParentNames() {
		names[i] = ir.IRString(n)
	}
	d["id"] = ir.IRString(s.ID)
	d["parent_names"] = names
	return d, nil
}

// ToIR returns the export form of the workflow: name, hash, metadata, the
// ordered step descriptors and the parent to children links.
func (w *Workflow) ToIR() (ir.IRObject, error) {
	steps := make(ir.IRArray, len(w.steps))
	for i, s := range w.steps {
		obj, err := s.ToIR()
		if err != nil {
			return nil, fmt.Errorf("workflow %q: %w", w.name, err)
		}
		steps[i] = obj
	}

	links := ir.IRObject{}
	for parent, kids := range w.Links() {
		arr := make(ir.IRArray, len(kids))
		for i, k := range kids {
			arr[i] = ir.IRString(k)
		}
		links[parent] = arr
	}

	return ir.IRObject{
		"name":     ir.IRString(w.name),
		"hash":     ir.IRString(w.hash),
		"metadata": w.metadata.Clone(),
		"steps":    steps,
		"links":    links,
		"version":  ir.IRString(ir.IRVersion),
	}, nil
}

// MarshalCanonical returns the RFC 8785 canonical JSON of ToIR.
func (w *Workflow) MarshalCanonical() ([]byte, error) {
	obj, err := w.ToIR()
	if err != nil {
		return nil, err
	}
	return ir.MarshalCanonical(obj)
}

// MarshalJSON implements json.Marshaler with content equivalent to
// MarshalCanonical. encoding/json may HTML-escape the bytes, so only
// MarshalCanonical output is byte-stable.
func (w *Workflow) MarshalJSON() ([]byte, error) {
	return w.MarshalCanonical()
}
