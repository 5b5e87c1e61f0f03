package protocol

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/quench/internal/ir"
)

// ToIR converts a concrete CUE value into an IR value. Integers stay IRInt,
// other numbers become IRFloat and null becomes IRNull.
func ToIR(v cue.Value) (ir.IRValue, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	switch v.Kind() {
	case cue.StructKind:
		obj := ir.IRObject{}
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			elem, err := ToIR(iter.Value())
			if err != nil {
				return nil, err
			}
			obj[iter.Label()] = elem
		}
		return obj, nil

	case cue.ListKind:
		arr := ir.IRArray{}
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			elem, err := ToIR(iter.Value())
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil

	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRInt(n), nil

	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.NewIRFloat(f)

	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRString(s), nil

	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRBool(b), nil

	case cue.NullKind:
		return ir.IRNull{}, nil

	default:
		return nil, &CompileError{
			Field:   v.Path().String(),
			Message: fmt.Sprintf("value must be concrete, got %s", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// toIRObject converts a CUE struct into an IRObject.
func toIRObject(v cue.Value, field string) (ir.IRObject, error) {
	val, err := ToIR(v)
	if err != nil {
		return nil, err
	}
	obj, ok := val.(ir.IRObject)
	if !ok {
		return nil, &CompileError{Field: field, Message: "must be a struct", Pos: v.Pos()}
	}
	return obj, nil
}
