package protocol

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/quench/internal/quench"
	"github.com/roach88/quench/internal/workflow"
)

//go:embed schema.cue
var schemaCUE string

// Protocol is a compiled quench protocol. Request.Structures is left empty;
// StructuresFile names where to load them from, if the protocol says.
type Protocol struct {
	Request        quench.Request
	StructuresFile string
}

// Compile checks a "quench" CUE value against #Quench and converts it.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`quench: {strategy: "mp_quench"}`)
//	p, err := Compile(v.LookupPath(cue.ParsePath("quench")))
func Compile(v cue.Value) (*Protocol, error) {
	if !v.Exists() {
		return nil, &CompileError{Field: "quench", Message: "quench is required"}
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schema := v.Context().CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	v = schema.LookupPath(cue.ParsePath("#Quench")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	p := &Protocol{}
	req := &p.Request

	if s, ok, err := lookupString(v, "strategy"); err != nil {
		return nil, err
	} else if ok {
		req.Strategy = quench.Strategy(s)
	}

	if sv := v.LookupPath(cue.ParsePath("schedule")); sv.Exists() {
		sched, err := compileSchedule(sv)
		if err != nil {
			return nil, err
		}
		req.Schedule = &sched
	}

	if pv := v.LookupPath(cue.ParsePath("priority")); pv.Exists() {
		n, err := pv.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		req.Priority = &n
	}

	var err error
	if req.Descriptor, _, err = lookupString(v, "descriptor"); err != nil {
		return nil, err
	}
	if req.Name, _, err = lookupString(v, "name"); err != nil {
		return nil, err
	}
	if p.StructuresFile, _, err = lookupString(v, "structures"); err != nil {
		return nil, err
	}

	if lv := v.LookupPath(cue.ParsePath("cool_args")); lv.Exists() {
		if req.CoolArgs, err = toIRObject(lv, "cool_args"); err != nil {
			return nil, err
		}
	}
	if lv := v.LookupPath(cue.ParsePath("hold_args")); lv.Exists() {
		if req.HoldArgs, err = toIRObject(lv, "hold_args"); err != nil {
			return nil, err
		}
	}
	if lv := v.LookupPath(cue.ParsePath("quench_args")); lv.Exists() {
		if req.QuenchArgs, err = toIRObject(lv, "quench_args"); err != nil {
			return nil, err
		}
	}
	if lv := v.LookupPath(cue.ParsePath("params")); lv.Exists() {
		if req.Params, err = toIRObject(lv, "params"); err != nil {
			return nil, err
		}
	}

	if rv := v.LookupPath(cue.ParsePath("run")); rv.Exists() {
		if req.Run, err = compileRun(rv); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func compileSchedule(v cue.Value) (quench.Schedule, error) {
	var sched quench.Schedule
	fields := []struct {
		name string
		dst  *int64
	}{
		{"start", &sched.Start},
		{"end", &sched.End},
		{"step", &sched.Step},
	}
	for _, f := range fields {
		n, err := v.LookupPath(cue.ParsePath(f.name)).Int64()
		if err != nil {
			return sched, formatCUEError(err)
		}
		*f.dst = n
	}
	return sched, nil
}

// compileRun accepts either a bare key ("vasp_cmd") or a placeholder
// (">>vasp_cmd<<") for the command and database references.
func compileRun(v cue.Value) (quench.RunDefaults, error) {
	var run quench.RunDefaults

	cmd, _, err := lookupString(v, "vasp_cmd")
	if err != nil {
		return run, err
	}
	run.Command = toRef(cmd)

	db, _, err := lookupString(v, "db_file")
	if err != nil {
		return run, err
	}
	run.DBFile = toRef(db)

	if run.InputSet, _, err = lookupString(v, "vasp_input_set"); err != nil {
		return run, err
	}
	return run, nil
}

func toRef(s string) workflow.DeferredRef {
	if ref, ok := workflow.ParseDeferredRef(s); ok {
		return ref
	}
	return workflow.DeferredRef(s)
}

func lookupString(v cue.Value, field string) (string, bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", false, nil
	}
	s, err := fv.String()
	if err != nil {
		return "", false, formatCUEError(err)
	}
	return s, true, nil
}
