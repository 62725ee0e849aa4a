// Package thermo predicts melting temperatures of primer duplexes,
// hairpins and primer dimers with the SantaLucia nearest-neighbor model.
// It has no dependencies on the rest of the pipeline.
package thermo

import (
	"errors"
	"math"
	"strings"
)

// gas constant in cal/(K*mol)
const rCal = 1.9872

// Conditions are the PCR solution parameters that the melting temperature
// predictions depend on. Units follow primer3 conventions.
type Conditions struct {
	// monovalent cation concentration (mM)
	MvConc float64

	// divalent cation concentration (mM)
	DvConc float64

	// dNTP concentration (mM)
	DNTPConc float64

	// total primer/DNA concentration (nM)
	DNAConc float64
}

// nearest-neighbor propagation energies for Watson-Crick stacks at 1 M NaCl.
// SantaLucia & Hicks (2004), Table 1. dH in kcal/mol, dS in cal/(K*mol).
var nnDH = map[string]float64{
	"AA": -7.6, "TT": -7.6,
	"AT": -7.2,
	"TA": -7.2,
	"CA": -8.5, "TG": -8.5,
	"GT": -8.4, "AC": -8.4,
	"CT": -7.8, "AG": -7.8,
	"GA": -8.2, "TC": -8.2,
	"CG": -10.6,
	"GC": -9.8,
	"GG": -8.0, "CC": -8.0,
}

var nnDS = map[string]float64{
	"AA": -21.3, "TT": -21.3,
	"AT": -20.4,
	"TA": -21.3,
	"CA": -22.7, "TG": -22.7,
	"GT": -22.4, "AC": -22.4,
	"CT": -21.0, "AG": -21.0,
	"GA": -22.2, "TC": -22.2,
	"CG": -27.2,
	"GC": -24.4,
	"GG": -19.9, "CC": -19.9,
}

// duplex initiation and terminal A/T corrections
const (
	initDH   = 0.2
	initDS   = -5.7
	termATDH = 2.2
	termATDS = 6.9
	symmDS   = -1.4
)

// ErrBadSequence is returned when a sequence holds a base outside A/C/G/T
// or is too short for the nearest-neighbor model.
var ErrBadSequence = errors.New("thermo: sequence must be >= 2 bases of A/C/G/T")

// effectiveMonovalent folds the divalent cation concentration into a
// monovalent equivalent (mM), the same transform primer3 applies:
// free Mg2+ is what remains after dNTP chelation.
func effectiveMonovalent(cond Conditions) float64 {
	dv := cond.DvConc - cond.DNTPConc
	if dv < 0 {
		dv = 0
	}
	return cond.MvConc + 120.0*math.Sqrt(dv)
}

// Tm returns the melting temperature (deg C) of seq annealed to its perfect
// complement, salt-corrected for the given conditions.
func Tm(seq string, cond Conditions) (float64, error) {
	s := strings.ToUpper(strings.TrimSpace(seq))
	if len(s) < 2 {
		return 0, ErrBadSequence
	}

	dH := initDH
	dS := initDS
	for i := 0; i < len(s)-1; i++ {
		stack := s[i : i+2]
		dh, okH := nnDH[stack]
		ds, okS := nnDS[stack]
		if !okH || !okS {
			return 0, ErrBadSequence
		}
		dH += dh
		dS += ds
	}

	if s[0] == 'A' || s[0] == 'T' {
		dH += termATDH
		dS += termATDS
	}
	if s[len(s)-1] == 'A' || s[len(s)-1] == 'T' {
		dH += termATDH
		dS += termATDS
	}

	selfComp := isSelfComplementary(s)
	if selfComp {
		dS += symmDS
	}

	return tmFromEnergies(dH, dS, len(s), selfComp, cond), nil
}

// tmFromEnergies applies the salt correction and the two-state transition
// formula. n is the duplex length in base pairs.
func tmFromEnergies(dH, dS float64, n int, selfComp bool, cond Conditions) float64 {
	naEff := effectiveMonovalent(cond) / 1000.0 // mM -> M
	if naEff <= 0 {
		naEff = 1e-6
	}
	dS += 0.368 * float64(n-1) * math.Log(naEff)

	ct := cond.DNAConc * 1e-9 // nM -> M
	if ct <= 0 {
		ct = 1e-12
	}
	x := 4.0
	if selfComp {
		x = 1.0
	}

	tmK := (dH * 1000.0) / (dS + rCal*math.Log(ct/x))
	return tmK - 273.15
}

func isSelfComplementary(s string) bool {
	if len(s)%2 != 0 {
		return false
	}
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		if !isWC(s[i], s[j]) {
			return false
		}
	}
	return true
}

func isWC(a, b byte) bool {
	switch a {
	case 'A':
		return b == 'T'
	case 'T':
		return b == 'A'
	case 'C':
		return b == 'G'
	case 'G':
		return b == 'C'
	}
	return false
}
