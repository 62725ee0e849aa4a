package thermo

import (
	"math"
	"strings"
)

// minimum paired bases before a hairpin stem or dimer duplex is considered
const minStem = 3

// minimum unpaired bases in a hairpin loop
const minLoop = 3

// Hairpin returns the melting temperature (deg C) of the most stable
// hairpin a primer can fold into, or 0 if no stem of at least minStem
// Watson-Crick pairs closes a loop. The prediction is unimolecular: the
// stem is scored with the nearest-neighbor stacks and the loop with a
// Jacobson-Stockmayer style entropy cost.
func Hairpin(seq string, cond Conditions) float64 {
	s := strings.ToUpper(strings.TrimSpace(seq))
	n := len(s)
	best := 0.0

	for i := 0; i < n; i++ {
		for j := n - 1; j > i+minLoop; j-- {
			// extend the stem inward from the (i, j) closing pair
			k := 0
			for i+k < j-k-minLoop && isWC(s[i+k], s[j-k]) {
				k++
			}
			if k < minStem {
				continue
			}
			loop := (j - k) - (i + k) + 1
			tm := hairpinTm(s[i:i+k], loop, cond)
			if tm > best {
				best = tm
			}
		}
	}

	return best
}

// hairpinTm melts a stem of paired bases closing a loop of the given size.
func hairpinTm(stem string, loop int, cond Conditions) float64 {
	var dH, dS float64
	for i := 0; i < len(stem)-1; i++ {
		dH += nnDH[stem[i:i+2]]
		dS += nnDS[stem[i:i+2]]
	}

	naEff := effectiveMonovalent(cond) / 1000.0
	if naEff <= 0 {
		naEff = 1e-6
	}
	dS += 0.368 * float64(len(stem)-1) * math.Log(naEff)

	// loop closure entropy, anchored at the minimum loop size
	dGLoop := 3.2 + 1.75*(rCal/1000.0)*310.15*math.Log(float64(loop)/float64(minLoop))
	dS += -dGLoop * 1000.0 / 310.15

	if dS >= 0 {
		return 0
	}
	return (dH*1000.0)/dS - 273.15
}

// Dimer returns the melting temperature (deg C) of the most stable
// ungapped antiparallel duplex between two primers, or 0 when fewer than
// minStem contiguous Watson-Crick pairs form at any alignment offset.
// Dimer(seq, seq) predicts homodimers.
func Dimer(a, b string, cond Conditions) float64 {
	top := strings.ToUpper(strings.TrimSpace(a))
	bot := reverse(strings.ToUpper(strings.TrimSpace(b)))
	if len(top) == 0 || len(bot) == 0 {
		return 0
	}

	best := 0.0
	found := false
	for shift := -(len(bot) - 1); shift < len(top); shift++ {
		runStart, runLen := 0, 0
		flush := func(start, length int) {
			if length < minStem {
				return
			}
			tm := duplexTm(top[start:start+length], cond)
			if !found || tm > best {
				best = tm
				found = true
			}
		}
		for i := 0; i < len(top); i++ {
			j := i - shift
			if j < 0 || j >= len(bot) || !isWC(top[i], bot[j]) {
				flush(runStart, runLen)
				runLen = 0
				continue
			}
			if runLen == 0 {
				runStart = i
			}
			runLen++
		}
		flush(runStart, runLen)
	}

	if !found {
		return 0
	}
	return best
}

// duplexTm melts a fully paired bimolecular duplex.
func duplexTm(s string, cond Conditions) float64 {
	dH := initDH
	dS := initDS
	for i := 0; i < len(s)-1; i++ {
		dH += nnDH[s[i:i+2]]
		dS += nnDS[s[i:i+2]]
	}
	if s[0] == 'A' || s[0] == 'T' {
		dH += termATDH
		dS += termATDS
	}
	if s[len(s)-1] == 'A' || s[len(s)-1] == 'T' {
		dH += termATDH
		dS += termATDS
	}
	return tmFromEnergies(dH, dS, len(s), false, cond)
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}
