package testutil

import "github.com/roach88/quench/internal/structure"

// Silicon returns a two-atom diamond silicon cell (reduced formula "Si").
func Silicon() *structure.Structure {
	return &structure.Structure{
		Label: "si-diamond",
		Lattice: [3][3]float64{
			{0, 2.715, 2.715},
			{2.715, 0, 2.715},
			{2.715, 2.715, 0},
		},
		Sites: []structure.Site{
			{Species: "Si", Coords: [3]float64{0, 0, 0}},
			{Species: "Si", Coords: [3]float64{0.25, 0.25, 0.25}},
		},
	}
}

// RockSalt returns a conventional eight-atom NaCl cell (reduced formula "NaCl").
func RockSalt() *structure.Structure {
	s := &structure.Structure{
		Label:   "rock-salt",
		Lattice: [3][3]float64{{5.64, 0, 0}, {0, 5.64, 0}, {0, 0, 5.64}},
	}
	for _, c := range [][3]float64{{0, 0, 0}, {0.5, 0.5, 0}, {0.5, 0, 0.5}, {0, 0.5, 0.5}} {
		s.Sites = append(s.Sites, structure.Site{Species: "Na", Coords: c})
		s.Sites = append(s.Sites, structure.Site{Species: "Cl", Coords: [3]float64{c[0] + 0.5, c[1], c[2]}})
	}
	return s
}

// Silica returns a simplified SiO2 cell (reduced formula "SiO2").
func Silica() *structure.Structure {
	return &structure.Structure{
		Label:   "silica",
		Lattice: [3][3]float64{{4.9, 0, 0}, {-2.45, 4.24, 0}, {0, 0, 5.4}},
		Sites: []structure.Site{
			{Species: "Si", Coords: [3]float64{0.47, 0, 0}},
			{Species: "O", Coords: [3]float64{0.41, 0.27, 0.12}},
			{Species: "O", Coords: [3]float64{0.27, 0.41, 0.88}},
		},
	}
}
