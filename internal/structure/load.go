package structure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a structures file.
type File struct {
	Structures []*Structure `json:"structures" yaml:"structures"`
}

// Load reads structures from a YAML (.yaml, .yml) or JSON (.json) file.
func Load(path string) ([]*Structure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read structures file: %w", err)
	}
	structs, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return structs, nil
}

// Parse decodes structures from data. format is a file extension; anything
// other than ".json" is decoded as YAML. Unknown fields are rejected and every
// structure is validated.
func Parse(data []byte, format string) ([]*Structure, error) {
	var f File
	switch strings.ToLower(format) {
	case ".json", "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if len(f.Structures) == 0 {
		return nil, fmt.Errorf("structures list is required and must be non-empty")
	}
	for i, s := range f.Structures {
		if s == nil {
			return nil, fmt.Errorf("structures[%d]: empty entry", i)
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("structures[%d]: %w", i, err)
		}
	}
	return f.Structures, nil
}
