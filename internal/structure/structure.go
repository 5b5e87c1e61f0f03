package structure

import (
	"errors"
	"fmt"
	"math"

	"github.com/roach88/quench/internal/ir"
)

// ErrInvalidStructure is returned by Validate for malformed structures.
var ErrInvalidStructure = errors.New("invalid structure")

// Site is one atom: its element symbol and fractional coordinates.
type Site struct {
	Species string     `json:"species" yaml:"species"`
	Coords  [3]float64 `json:"coords" yaml:"coords"`
}

// Structure is a periodic atomic configuration. Lattice rows are the three
// lattice vectors in Angstrom.
type Structure struct {
	Label   string        `json:"label,omitempty" yaml:"label,omitempty"`
	Lattice [3][3]float64 `json:"lattice" yaml:"lattice"`
	Sites   []Site        `json:"sites" yaml:"sites"`
}

// Validate checks that the structure has at least one site, known element
// symbols and a non-degenerate lattice.
func (s *Structure) Validate() error {
	if len(s.Sites) == 0 {
		return fmt.Errorf("%w: no sites", ErrInvalidStructure)
	}
	for i, site := range s.Sites {
		if _, ok := elements[site.Species]; !ok {
			return fmt.Errorf("%w: site %d: unknown element %q", ErrInvalidStructure, i, site.Species)
		}
		for _, c := range site.Coords {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return fmt.Errorf("%w: site %d: non-finite coordinate", ErrInvalidStructure, i)
			}
		}
	}
	if math.Abs(s.Volume()) < 1e-8 {
		return fmt.Errorf("%w: lattice vectors are linearly dependent", ErrInvalidStructure)
	}
	return nil
}

// Volume returns the signed cell volume (determinant of the lattice).
func (s *Structure) Volume() float64 {
	a, b, c := s.Lattice[0], s.Lattice[1], s.Lattice[2]
	return a[0]*(b[1]*c[2]-b[2]*c[1]) -
		a[1]*(b[0]*c[2]-b[2]*c[0]) +
		a[2]*(b[0]*c[1]-b[1]*c[0])
}

// NumSites returns the number of atoms in the cell.
func (s *Structure) NumSites() int {
	return len(s.Sites)
}

// ToIR returns the structure as a canonical IR tree.
func (s *Structure) ToIR() (ir.IRObject, error) {
	obj, err := s.geometryIR()
	if err != nil {
		return nil, err
	}
	if s.Label != "" {
		obj["label"] = ir.IRString(s.Label)
	}
	return obj, nil
}

// Fingerprint is the content hash of the geometry. The label is not part of
// it, so relabelled copies of one configuration share a fingerprint.
func (s *Structure) Fingerprint() (string, error) {
	obj, err := s.geometryIR()
	if err != nil {
		return "", err
	}
	return ir.StructureHash(obj)
}

func (s *Structure) geometryIR() (ir.IRObject, error) {
	lattice := make(ir.IRArray, 3)
	for i, row := range s.Lattice {
		vec, err := vectorIR(row)
		if err != nil {
			return nil, fmt.Errorf("lattice[%d]: %w", i, err)
		}
		lattice[i] = vec
	}

	sites := make(ir.IRArray, len(s.Sites))
	for i, site := range s.Sites {
		coords, err := vectorIR(site.Coords)
		if err != nil {
			return nil, fmt.Errorf("sites[%d]: %w", i, err)
		}
		sites[i] = ir.IRObject{
			"species": ir.IRString(site.Species),
			"coords":  coords,
		}
	}

	return ir.IRObject{
		"formula": ir.IRString(s.Formula()),
		"lattice": lattice,
		"sites":   sites,
	}, nil
}

func vectorIR(v [3]float64) (ir.IRArray, error) {
	out := make(ir.IRArray, 3)
	for i, x := range v {
		f, err := ir.NewIRFloat(x)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}
