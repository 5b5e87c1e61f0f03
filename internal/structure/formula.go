package structure

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// elements maps element symbols to Pauling electronegativity. Zero means the
// element has no tabulated value; such elements sort after all others.
var elements = map[string]float64{
	"H": 2.20, "He": 0, "Li": 0.98, "Be": 1.57, "B": 2.04, "C": 2.55, "N": 3.04,
	"O": 3.44, "F": 3.98, "Ne": 0, "Na": 0.93, "Mg": 1.31, "Al": 1.61, "Si": 1.90,
	"P": 2.19, "S": 2.58, "Cl": 3.16, "Ar": 0, "K": 0.82, "Ca": 1.00, "Sc": 1.36,
	"Ti": 1.54, "V": 1.63, "Cr": 1.66, "Mn": 1.55, "Fe": 1.83, "Co": 1.88,
	"Ni": 1.91, "Cu": 1.90, "Zn": 1.65, "Ga": 1.81, "Ge": 2.01, "As": 2.18,
	"Se": 2.55, "Br": 2.96, "Kr": 3.00, "Rb": 0.82, "Sr": 0.95, "Y": 1.22,
	"Zr": 1.33, "Nb": 1.6, "Mo": 2.16, "Tc": 1.9, "Ru": 2.2, "Rh": 2.28,
	"Pd": 2.20, "Ag": 1.93, "Cd": 1.69, "In": 1.78, "Sn": 1.96, "Sb": 2.05,
	"Te": 2.1, "I": 2.66, "Xe": 2.6, "Cs": 0.79, "Ba": 0.89, "La": 1.10,
	"Ce": 1.12, "Pr": 1.13, "Nd": 1.14, "Pm": 1.13, "Sm": 1.17, "Eu": 1.2,
	"Gd": 1.2, "Tb": 1.1, "Dy": 1.22, "Ho": 1.23, "Er": 1.24, "Tm": 1.25,
	"Yb": 1.1, "Lu": 1.27, "Hf": 1.3, "Ta": 1.5, "W": 2.36, "Re": 1.9, "Os": 2.2,
	"Ir": 2.20, "Pt": 2.28, "Au": 2.54, "Hg": 2.00, "Tl": 1.62, "Pb": 2.33,
	"Bi": 2.02, "Po": 2.0, "At": 2.2, "Rn": 2.2, "Fr": 0.7, "Ra": 0.9, "Ac": 1.1,
	"Th": 1.3, "Pa": 1.5, "U": 1.38, "Np": 1.36, "Pu": 1.28, "Am": 1.3,
	"Cm": 1.3, "Bk": 1.3, "Cf": 1.3, "Es": 1.3, "Fm": 1.3, "Md": 1.3, "No": 1.3,
	"Lr": 1.3,
}

// specialFormulas rewrites reduced formulas of common molecular species.
var specialFormulas = map[string]string{
	"LiO": "LiO2",
	"NaO": "NaO2",
	"KO":  "KO2",
	"HO":  "H2O2",
	"CsO": "CsO2",
	"RbO": "RbO2",
	"O":   "O2",
	"N":   "N2",
	"F":   "F2",
	"Cl":  "Cl2",
	"H":   "H2",
}

// polyanionGap is the electronegativity difference under which the two most
// electronegative elements are grouped as a polyanion, e.g. Ca3(PO4)2.
const polyanionGap = 1.65

// IsElement reports whether sym is a known element symbol.
func IsElement(sym string) bool {
	_, ok := elements[sym]
	return ok
}

// Electronegativity returns the Pauling electronegativity of sym, or +Inf
// when the element has none.
func Electronegativity(sym string) float64 {
	x, ok := elements[sym]
	if !ok || x == 0 {
		return math.Inf(1)
	}
	return x
}

// Composition returns the number of atoms of each element in the cell.
func (s *Structure) Composition() map[string]int {
	comp := make(map[string]int)
	for _, site := range s.Sites {
		comp[site.Species]++
	}
	return comp
}

// Formula returns the unreduced formula, e.g. "Na4Cl4".
func (s *Structure) Formula() string {
	comp := s.Composition()
	var b strings.Builder
	for _, sym := range sortedSymbols(comp) {
		b.WriteString(sym)
		b.WriteString(formatAmount(comp[sym]))
	}
	return b.String()
}

// ReducedFormula returns the formula divided by the greatest common divisor
// of its amounts, e.g. "NaCl" for Na4Cl4 or "O2" for O8.
func (s *Structure) ReducedFormula() string {
	formula, _ := ReduceFormula(s.Composition())
	return formula
}

// ReduceFormula reduces a composition to its formula unit and returns the
// formula together with the number of formula units.
func ReduceFormula(comp map[string]int) (string, int) {
	formula, factor := reduceFormula(comp)
	if special, ok := specialFormulas[formula]; ok {
		return special, factor / 2
	}
	return formula, factor
}

func reduceFormula(comp map[string]int) (string, int) {
	syms := sortedSymbols(comp)
	if len(syms) == 0 {
		return "", 0
	}

	factor := 0
	for _, sym := range syms {
		factor = gcd(factor, comp[sym])
	}

	var poly string
	if n := len(syms); n >= 3 && Electronegativity(syms[n-1])-Electronegativity(syms[n-2]) < polyanionGap {
		sub := map[string]int{
			syms[n-2]: comp[syms[n-2]] / factor,
			syms[n-1]: comp[syms[n-1]] / factor,
		}
		subForm, subFactor := reduceFormula(sub)
		if subFactor != 1 {
			poly = "(" + subForm + ")" + strconv.Itoa(subFactor)
			syms = syms[:n-2]
		}
	}

	var b strings.Builder
	for _, sym := range syms {
		b.WriteString(sym)
		b.WriteString(formatAmount(comp[sym] / factor))
	}
	b.WriteString(poly)
	return b.String(), factor
}

// sortedSymbols orders elements by electronegativity, then by symbol.
func sortedSymbols(comp map[string]int) []string {
	syms := make([]string, 0, len(comp))
	for sym, n := range comp {
		if n > 0 {
			syms = append(syms, sym)
		}
	}
	slices.SortFunc(syms, func(a, b string) int {
		xa, xb := Electronegativity(a), Electronegativity(b)
		switch {
		case xa < xb:
			return -1
		case xa > xb:
			return 1
		}
		return strings.Compare(a, b)
	})
	return syms
}

func formatAmount(n int) string {
	if n == 1 {
		return ""
	}
	return strconv.Itoa(n)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}
