package protocol

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/quench/internal/structure"
)

// LoadDir loads every .cue file in dir as one instance and compiles its
// "quench" value. A relative StructuresFile is resolved against dir.
func LoadDir(dir string) (*Protocol, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("protocol directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	cueFiles, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(cueFiles) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	p, err := Compile(value.LookupPath(cue.ParsePath("quench")))
	if err != nil {
		return nil, err
	}
	if p.StructuresFile != "" && !filepath.IsAbs(p.StructuresFile) {
		p.StructuresFile = filepath.Join(dir, p.StructuresFile)
	}
	return p, nil
}

// LoadStructures reads StructuresFile into Request.Structures. It is a no-op
// when the protocol names no file.
func (p *Protocol) LoadStructures() error {
	if p.StructuresFile == "" {
		return nil
	}
	structs, err := structure.Load(p.StructuresFile)
	if err != nil {
		return err
	}
	p.Request.Structures = structs
	return nil
}
