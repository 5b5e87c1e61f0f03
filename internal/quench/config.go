package quench

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/quench/internal/ir"
	"github.com/roach88/quench/internal/workflow"
)

// ErrInvalidConfiguration is returned when a configuration layer cannot be
// merged or decoded.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ConfigError reports a decoding failure at a dotted key path.
type ConfigError struct {
	Path    string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfiguration, e.Path, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

// Layer keys.
const (
	KeyMDParams         = "md_params"
	KeyRunSpecs         = "run_specs"
	KeyOptionalFWParams = "optional_fw_params"
	KeyOverrides        = "override_default_vasp_params"
	KeySpec             = "spec"
	KeyIncar            = "user_incar_settings"
	KeyNSteps           = "nsteps"
	KeyStartTemp        = "start_temp"
	KeyEndTemp          = "end_temp"
	KeyInputSet         = "vasp_input_set"
	KeyCommand          = "vasp_cmd"
	KeyDBFile           = "db_file"
	KeyPriority         = "_priority"
)

// Defaults for the MD stages.
const (
	DefaultMDSteps   = 500
	DefaultCoolSteps = 200
	DefaultHoldSteps = 500
)

// RunDefaults are the runtime settings shared by every step of a request.
type RunDefaults struct {
	// InputSet names a solver input set. Empty leaves it to the service.
	InputSet string
	Command  workflow.DeferredRef
	DBFile   workflow.DeferredRef
}

// DefaultRun uses the >>vasp_cmd<< and >>db_file<< placeholders.
var DefaultRun = RunDefaults{Command: "vasp_cmd", DBFile: "db_file"}

func (r RunDefaults) withDefaults() RunDefaults {
	if r.Command == "" {
		r.Command = DefaultRun.Command
	}
	if r.DBFile == "" {
		r.DBFile = DefaultRun.DBFile
	}
	return r
}

func (r RunDefaults) layer() ir.IRObject {
	r = r.withDefaults()
	run := ir.IRObject{
		KeyCommand: ir.IRString(r.Command.String()),
		KeyDBFile:  ir.IRString(r.DBFile.String()),
	}
	if r.InputSet != "" {
		run[KeyInputSet] = ir.IRString(r.InputSet)
	}
	return run
}

// CoolDefaults is the cool-stage layer used when a request has no CoolArgs.
func CoolDefaults() ir.IRObject {
	return ir.IRObject{KeyMDParams: ir.IRObject{KeyNSteps: ir.IRInt(DefaultCoolSteps)}}
}

// HoldDefaults is the hold-stage layer used when a request has no HoldArgs.
func HoldDefaults() ir.IRObject {
	return ir.IRObject{KeyMDParams: ir.IRObject{KeyNSteps: ir.IRInt(DefaultHoldSteps)}}
}

// MDBaseLayer is the default layer of an MD step between two temperatures.
func MDBaseLayer(start, end int64, run RunDefaults) ir.IRObject {
	return ir.IRObject{
		KeyMDParams: ir.IRObject{
			KeyNSteps:    ir.IRInt(DefaultMDSteps),
			KeyStartTemp: ir.IRInt(start),
			KeyEndTemp:   ir.IRInt(end),
		},
		KeyRunSpecs: run.layer(),
		KeyOptionalFWParams: ir.IRObject{
			KeyOverrides: ir.IRObject{
				KeyIncar: ir.IRObject{
					"ISIF":  ir.IRInt(1),
					"LWAVE": ir.IRBool(false),
					"PREC":  ir.IRString("Low"),
				},
			},
			KeySpec: ir.IRObject{},
		},
	}
}

// RelaxBaseLayer is the default layer of the optimize and static steps.
func RelaxBaseLayer(priority *int64, run RunDefaults) ir.IRObject {
	runSpecs := run.layer()
	spec := ir.IRObject{}
	if priority != nil {
		spec[KeyPriority] = ir.IRInt(*priority)
	}
	runSpecs[KeySpec] = spec

	return ir.IRObject{
		KeyRunSpecs: runSpecs,
		KeyOptionalFWParams: ir.IRObject{
			KeyOverrides: ir.IRObject{
				KeyIncar: ir.IRObject{"ISIF": ir.IRInt(2)},
			},
		},
	}
}

// MDConfig is the closed, typed view of a merged MD layer.
type MDConfig struct {
	Params    workflow.MDParams
	Run       workflow.RunSpecs
	Overrides ir.IRObject
	Spec      ir.IRObject
}

// RelaxConfig is the closed, typed view of a merged optimize/static layer.
type RelaxConfig struct {
	Run       workflow.RunSpecs
	Overrides ir.IRObject
	Spec      ir.IRObject
}

// DecodeMDConfig decodes a merged MD layer. Unknown keys are rejected.
func DecodeMDConfig(layer ir.IRObject) (MDConfig, error) {
	var cfg MDConfig
	if err := checkKeys(layer, "", KeyMDParams, KeyRunSpecs, KeyOptionalFWParams); err != nil {
		return cfg, err
	}

	md, err := objectAt(layer, "", KeyMDParams)
	if err != nil {
		return cfg, err
	}
	if err := checkKeys(md, KeyMDParams, KeyNSteps, KeyStartTemp, KeyEndTemp); err != nil {
		return cfg, err
	}
	if cfg.Params.NSteps, err = intAt(md, KeyMDParams, KeyNSteps); err != nil {
		return cfg, err
	}
	if cfg.Params.NSteps < 0 {
		return cfg, &ConfigError{Path: KeyMDParams + "." + KeyNSteps, Message: "must not be negative"}
	}
	if cfg.Params.StartTemp, err = intAt(md, KeyMDParams, KeyStartTemp); err != nil {
		return cfg, err
	}
	if cfg.Params.EndTemp, err = intAt(md, KeyMDParams, KeyEndTemp); err != nil {
		return cfg, err
	}

	run, err := objectAt(layer, "", KeyRunSpecs)
	if err != nil {
		return cfg, err
	}
	if err := checkKeys(run, KeyRunSpecs, KeyInputSet, KeyCommand, KeyDBFile); err != nil {
		return cfg, err
	}
	if cfg.Run, err = decodeRunSpecs(run); err != nil {
		return cfg, err
	}

	opt, err := objectAt(layer, "", KeyOptionalFWParams)
	if err != nil {
		return cfg, err
	}
	if err := checkKeys(opt, KeyOptionalFWParams, KeyOverrides, KeySpec); err != nil {
		return cfg, err
	}
	if cfg.Overrides, err = optionalObjectAt(opt, KeyOptionalFWParams, KeyOverrides); err != nil {
		return cfg, err
	}
	if cfg.Spec, err = optionalObjectAt(opt, KeyOptionalFWParams, KeySpec); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// DecodeRelaxConfig decodes a merged optimize/static layer. Unknown keys are
// rejected.
func DecodeRelaxConfig(layer ir.IRObject) (RelaxConfig, error) {
	var cfg RelaxConfig
	if err := checkKeys(layer, "", KeyRunSpecs, KeyOptionalFWParams); err != nil {
		return cfg, err
	}

	run, err := objectAt(layer, "", KeyRunSpecs)
	if err != nil {
		return cfg, err
	}
	if err := checkKeys(run, KeyRunSpecs, KeyInputSet, KeyCommand, KeyDBFile, KeySpec); err != nil {
		return cfg, err
	}
	if cfg.Run, err = decodeRunSpecs(run); err != nil {
		return cfg, err
	}
	if cfg.Spec, err = optionalObjectAt(run, KeyRunSpecs, KeySpec); err != nil {
		return cfg, err
	}

	opt, err := optionalObjectAt(layer, "", KeyOptionalFWParams)
	if err != nil {
		return cfg, err
	}
	if err := checkKeys(opt, KeyOptionalFWParams, KeyOverrides); err != nil {
		return cfg, err
	}
	if cfg.Overrides, err = optionalObjectAt(opt, KeyOptionalFWParams, KeyOverrides); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decodeRunSpecs(run ir.IRObject) (workflow.RunSpecs, error) {
	var spec workflow.RunSpecs
	if v, ok := run[KeyInputSet]; ok {
		s, isStr := v.(ir.IRString)
		if !isStr {
			return spec, &ConfigError{Path: KeyRunSpecs + "." + KeyInputSet, Message: "must be a string"}
		}
		spec.InputSet = string(s)
	}

	var err error
	if spec.Command, err = refAt(run, KeyCommand); err != nil {
		return spec, err
	}
	if spec.DBFile, err = refAt(run, KeyDBFile); err != nil {
		return spec, err
	}
	return spec, nil
}

func refAt(run ir.IRObject, key string) (workflow.DeferredRef, error) {
	path := KeyRunSpecs + "." + key
	s, ok := run.String(key)
	if !ok {
		return "", &ConfigError{Path: path, Message: "must be a string"}
	}
	ref, ok := workflow.ParseDeferredRef(s)
	if !ok {
		return "", &ConfigError{Path: path, Message: fmt.Sprintf("%q is not a >>name<< placeholder", s)}
	}
	return ref, nil
}

func checkKeys(obj ir.IRObject, path string, allowed ...string) error {
	for _, k := range obj.SortedKeys() {
		if !slices.Contains(allowed, k) {
			return &ConfigError{Path: joinPath(path, k), Message: "unknown key"}
		}
	}
	return nil
}

func objectAt(obj ir.IRObject, path, key string) (ir.IRObject, error) {
	v, ok := obj[key]
	if !ok {
		return nil, &ConfigError{Path: joinPath(path, key), Message: "is required"}
	}
	o, ok := v.(ir.IRObject)
	if !ok {
		return nil, &ConfigError{Path: joinPath(path, key), Message: "must be an object"}
	}
	return o, nil
}

func optionalObjectAt(obj ir.IRObject, path, key string) (ir.IRObject, error) {
	if _, ok := obj[key]; !ok {
		return ir.IRObject{}, nil
	}
	return objectAt(obj, path, key)
}

func intAt(obj ir.IRObject, path, key string) (int64, error) {
	if _, ok := obj[key]; !ok {
		return 0, &ConfigError{Path: joinPath(path, key), Message: "is required"}
	}
	n, ok := obj.Int(key)
	if !ok {
		return 0, &ConfigError{Path: joinPath(path, key), Message: "must be an integer"}
	}
	return n, nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
