package ir

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMergeConflict is the category of errors returned when an override layer
// supplies a non-object value where the base layer holds an object.
var ErrMergeConflict = errors.New("merge conflict")

// MergeConflictError reports the dotted path at which a merge was undefined.
type MergeConflictError struct {
	Path     string  // dotted key path, e.g. "md_params"
	Default  IRValue // the object held by the base layer
	Override IRValue // the offending override value
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("%s at %q: cannot replace object with %s", ErrMergeConflict, e.Path, kindName(e.Override))
}

func (e *MergeConflictError) Unwrap() error {
	return ErrMergeConflict
}

// Merge returns a new object holding override recursively merged onto base.
// Neither argument is modified.
//
// Rules, applied key by key:
//   - key only in base: kept
//   - key only in override: copied, with nested IRNull keys dropped
//   - both objects: merged recursively
//   - override is IRNull: key removed
//   - base is an object, override is not: *MergeConflictError
//   - otherwise the override value replaces the base value
func Merge(base, override IRObject) (IRObject, error) {
	return mergeAt(nil, base, override)
}

// MergeAll folds Merge over layers from left to right; later layers win.
func MergeAll(layers ...IRObject) (IRObject, error) {
	out := IRObject{}
	for i, layer := range layers {
		merged, err := Merge(out, layer)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		out = merged
	}
	return out, nil
}

func mergeAt(path []string, base, override IRObject) (IRObject, error) {
	out := base.Clone()
	if out == nil {
		out = IRObject{}
	}

	for _, k := range override.SortedKeys() {
		ov := override[k]
		if _, isNull := ov.(IRNull); isNull {
			delete(out, k)
			continue
		}

		bv, exists := out[k]
		baseObj, baseIsObj := bv.(IRObject)
		overObj, overIsObj := ov.(IRObject)

		switch {
		case !exists && overIsObj:
			merged, err := mergeAt(append(path, k), IRObject{}, overObj)
			if err != nil {
				return nil, err
			}
			out[k] = merged
		case !exists:
			out[k] = Clone(ov)
		case baseIsObj && overIsObj:
			merged, err := mergeAt(append(path, k), baseObj, overObj)
			if err != nil {
				return nil, err
			}
			out[k] = merged
		case baseIsObj:
			return nil, &MergeConflictError{
				Path:     strings.Join(append(path, k), "."),
				Default:  bv,
				Override: ov,
			}
		default:
			out[k] = Clone(ov)
		}
	}
	return out, nil
}

// Clone returns a deep copy of v. Scalars are returned as is.
func Clone(v IRValue) IRValue {
	switch val := v.(type) {
	case IRObject:
		return val.Clone()
	case IRArray:
		if val == nil {
			return val
		}
		out := make(IRArray, len(val))
		for i, elem := range val {
			out[i] = Clone(elem)
		}
		return out
	default:
		return v
	}
}

// Clone returns a deep copy of the object. A nil object clones to nil.
func (obj IRObject) Clone() IRObject {
	if obj == nil {
		return nil
	}
	out := make(IRObject, len(obj))
	for k, v := range obj {
		out[k] = Clone(v)
	}
	return out
}

func kindName(v IRValue) string {
	switch v.(type) {
	case IRNull:
		return "null"
	case IRString:
		return "string"
	case IRInt:
		return "int"
	case IRFloat:
		return "float"
	case IRBool:
		return "bool"
	case IRArray:
		return "array"
	case IRObject:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
