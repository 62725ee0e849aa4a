package varvamp

import (
	"sort"
	"strconv"

	"github.com/bebop/poly/transform"

	"github.com/hoelzer/varVAMP/config"
	"github.com/hoelzer/varVAMP/internal/thermo"
)

// primer strand names, following primer3's LEFT/RIGHT convention
const (
	strandForward = "LEFT"
	strandReverse = "RIGHT"
)

// Primer is a scored primer candidate. It is immutable after scoring:
// the filter either retains or discards it, never mutates it.
type Primer struct {
	Name   string `json:"name,omitempty"`
	Strand string `json:"strand"`

	// half-open interval on the plus strand of the consensus
	Start int `json:"start"`
	End   int `json:"end"`

	// Seq is the majority-consensus sequence, AmbSeq the degenerate one;
	// both are 5'->3' in primer orientation, so RIGHT primers carry the
	// reverse complement of the consensus slice.
	Seq    string `json:"seq"`
	AmbSeq string `json:"ambSeq"`

	// concrete sequences the degenerate primer stands for, capped at the
	// configured maximum; PermutationCount is always the true count
	Permutations     []string `json:"permutations"`
	PermutationCount int      `json:"permutationCount"`

	// melting temperature and GC ranges across all evaluated permutations
	TmMin float64 `json:"tmMin"`
	TmMax float64 `json:"tmMax"`
	GCMin float64 `json:"gcMin"`
	GCMax float64 `json:"gcMax"`

	// hairpin melting temperature in primer orientation
	HairpinTm float64 `json:"hairpinTm"`

	// Penalty is the total score, lower is better. The components are
	// kept so the total can be reproduced from the stored properties.
	Penalty            float64 `json:"penalty"`
	BasePenalty        float64 `json:"basePenalty"`
	PermutationPenalty float64 `json:"permutationPenalty"`
	ThreePrimePenalty  float64 `json:"threePrimePenalty"`
}

// gcPercent returns the GC content of a sequence in percent.
func gcPercent(seq string) float64 {
	if len(seq) == 0 {
		return 0
	}
	gc := 0
	for i := 0; i < len(seq); i++ {
		if seq[i] == 'G' || seq[i] == 'C' {
			gc++
		}
	}
	return 100 * float64(gc) / float64(len(seq))
}

// maxPolyX returns the length of the longest homopolymer run.
func maxPolyX(seq string) int {
	longest, run := 0, 0
	for i := 0; i < len(seq); i++ {
		if i > 0 && seq[i] == seq[i-1] {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// maxDinucRepeats returns the most copies of any dinucleotide motif
// repeated back to back, checked at both frames.
func maxDinucRepeats(seq string) int {
	longest := 0
	for frame := 0; frame < 2 && frame < len(seq); frame++ {
		run := 0
		for i := frame; i+2 <= len(seq); i += 2 {
			if i >= frame+2 && seq[i:i+2] == seq[i-2:i] {
				run++
			} else {
				run = 1
			}
			if run > longest {
				longest = run
			}
		}
	}
	return longest
}

// endGC counts G/C bases within the last 5 bases of the 3' end.
func endGC(seq string) int {
	start := len(seq) - 5
	if start < 0 {
		start = 0
	}
	gc := 0
	for i := start; i < len(seq); i++ {
		if seq[i] == 'G' || seq[i] == 'C' {
			gc++
		}
	}
	return gc
}

// gcClampPresent reports whether the last n bases are all G or C.
func gcClampPresent(seq string, n int) bool {
	if n <= 0 {
		return true
	}
	if n > len(seq) {
		return false
	}
	for i := len(seq) - n; i < len(seq); i++ {
		if seq[i] != 'G' && seq[i] != 'C' {
			return false
		}
	}
	return true
}

// threePrimeAmbiguous reports whether the last n bases of an oriented
// degenerate sequence hold any ambiguity code. 3' mismatches abolish
// amplification, so this is a hard filter.
func threePrimeAmbiguous(ambSeq string, n int) bool {
	if n > len(ambSeq) {
		n = len(ambSeq)
	}
	return countAmbiguous(ambSeq[len(ambSeq)-n:]) > 0
}

// basePenalty scores the deviation of a primer's melting temperature, GC
// content and size from their optimums, each weighted by its configured
// penalty.
func basePenalty(tm, gc float64, size int, conf *config.Config) float64 {
	p := conf.Primer.TmPenalty * abs(tm-conf.Primer.Tm.Opt)
	p += conf.Primer.GCPenalty * abs(gc-conf.Primer.GC.Opt)
	p += conf.Primer.SizePenalty * abs(float64(size)-float64(conf.Primer.Sizes.Opt))
	return p
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// perBaseMismatches returns, per kmer position 5'->3' on the plus strand,
// the fraction of alignment sequences whose base cannot be bound by the
// degenerate consensus symbol at that position.
func perBaseMismatches(k kmer, aln *Alignment) []float64 {
	mismatches := make([]float64, len(k.ambSeq))
	for _, row := range aln.Seqs {
		slice := row.Seq[k.start:k.end]
		for i := 0; i < len(slice); i++ {
			consensusSet := iupacBases[k.ambSeq[i]]
			rowSet, ok := iupacBases[slice[i]]
			if !ok {
				// gaps and unknown symbols can never be bound
				mismatches[i]++
				continue
			}
			if !setsOverlap(consensusSet, rowSet) {
				mismatches[i]++
			}
		}
	}
	for i := range mismatches {
		mismatches[i] /= float64(len(aln.Seqs))
	}
	return mismatches
}

func setsOverlap(a, b string) bool {
	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			if a[i] == b[j] {
				return true
			}
		}
	}
	return false
}

// threePrimePenalty weights per-base mismatch fractions by the 3' penalty
// vector: the first weight applies to the 3'-terminal base, the next to
// the one before it, and so on. mismatches are in plus-strand order, so
// LEFT primers read them from the end and RIGHT primers from the start.
func threePrimePenalty(strand string, mismatches []float64, weights []float64) float64 {
	p := 0.0
	for i, w := range weights {
		if i >= len(mismatches) {
			break
		}
		if strand == strandForward {
			p += w * mismatches[len(mismatches)-1-i]
		} else {
			p += w * mismatches[i]
		}
	}
	return p
}

// findPrimers evaluates every kmer against the thermodynamic and
// compositional constraints and scores the survivors, returning forward
// and reverse candidates ordered by position. Rejection is filtering, not
// an error: empty results are legal here and judged by the caller.
func findPrimers(kmers []kmer, aln *Alignment, conf *config.Config) (fw, rv []Primer) {
	cond := conditions(conf)

	for _, k := range kmers {
		if countAmbiguous(k.ambSeq) > conf.AllowedAmbiguous {
			continue
		}
		if maxPolyX(k.seq) > conf.Primer.MaxPolyX {
			continue
		}
		if maxDinucRepeats(k.seq) > conf.Primer.MaxDinucRepeats {
			continue
		}
		if thermo.Dimer(k.seq, k.seq, cond) > conf.Primer.MaxDimerTm {
			continue
		}

		permCount := permutationCount(k.ambSeq)
		perms := expandPermutations(k.ambSeq, conf.Primer.MaxPermutations)

		tmMin, tmMax, gcMin, gcMax, ok := permutationRanges(perms, cond)
		if !ok {
			continue
		}
		// reject only when the whole range misses the bounds; partially
		// out-of-range permutations are tolerated and already penalized
		// through the optimum deviation
		if tmMax < conf.Primer.Tm.Min || tmMin > conf.Primer.Tm.Max {
			continue
		}
		if gcMax < conf.Primer.GC.Min || gcMin > conf.Primer.GC.Max {
			continue
		}

		// the majority sequence is the representative for scoring
		tm, err := thermo.Tm(k.seq, cond)
		if err != nil {
			continue
		}
		base := basePenalty(tm, gcPercent(k.seq), len(k.seq), conf)
		permPenalty := float64(permCount) * conf.Primer.PermutationPenalty
		mismatches := perBaseMismatches(k, aln)

		for _, strand := range []string{strandForward, strandReverse} {
			seq, ambSeq := k.seq, k.ambSeq
			if strand == strandReverse {
				seq = transform.ReverseComplement(seq)
				ambSeq = reverseComplementAmbiguous(k.ambSeq)
			}

			if threePrimeAmbiguous(ambSeq, conf.Primer.Min3WithoutAmb) {
				continue
			}
			hairpin := thermo.Hairpin(seq, cond)
			if hairpin > conf.Primer.MaxHairpinTm {
				continue
			}
			if endGC(seq) > conf.Primer.MaxGCEnd {
				continue
			}
			if !gcClampPresent(seq, conf.Primer.GCClamp) {
				continue
			}

			threePrime := threePrimePenalty(strand, mismatches, conf.Primer.ThreePrimePenalty)
			total := base + permPenalty + threePrime
			if total > conf.Primer.MaxBasePenalty {
				continue
			}

			oriented := perms
			if strand == strandReverse {
				oriented = make([]string, len(perms))
				for i, p := range perms {
					oriented[i] = transform.ReverseComplement(p)
				}
			}

			p := Primer{
				Strand:             strand,
				Start:              k.start,
				End:                k.end,
				Seq:                seq,
				AmbSeq:             ambSeq,
				Permutations:       oriented,
				PermutationCount:   permCount,
				TmMin:              tmMin,
				TmMax:              tmMax,
				GCMin:              gcMin,
				GCMax:              gcMax,
				HairpinTm:          hairpin,
				Penalty:            total,
				BasePenalty:        base,
				PermutationPenalty: permPenalty,
				ThreePrimePenalty:  threePrime,
			}
			if strand == strandForward {
				fw = append(fw, p)
			} else {
				rv = append(rv, p)
			}
		}
	}

	sort.SliceStable(fw, func(i, j int) bool { return fw[i].Start < fw[j].Start })
	sort.SliceStable(rv, func(i, j int) bool { return rv[i].Start < rv[j].Start })
	return fw, rv
}

// permutationRanges computes the (min, max) melting temperature and GC
// ranges across permutations. ok is false when any permutation cannot be
// evaluated, e.g. an N from an all-gap consensus column.
func permutationRanges(perms []string, cond thermo.Conditions) (tmMin, tmMax, gcMin, gcMax float64, ok bool) {
	if len(perms) == 0 {
		return 0, 0, 0, 0, false
	}
	for i, p := range perms {
		tm, err := thermo.Tm(p, cond)
		if err != nil {
			return 0, 0, 0, 0, false
		}
		gc := gcPercent(p)
		if i == 0 || tm < tmMin {
			tmMin = tm
		}
		if i == 0 || tm > tmMax {
			tmMax = tm
		}
		if i == 0 || gc < gcMin {
			gcMin = gc
		}
		if i == 0 || gc > gcMax {
			gcMax = gc
		}
	}
	return tmMin, tmMax, gcMin, gcMax, true
}

// conditions converts the PCR config into thermodynamic conditions.
func conditions(conf *config.Config) thermo.Conditions {
	return thermo.Conditions{
		MvConc:   conf.PCR.MvConc,
		DvConc:   conf.PCR.DvConc,
		DNTPConc: conf.PCR.DNTPConc,
		DNAConc:  conf.PCR.DNAConc,
	}
}

// findBestPrimers bounds the downstream combinatorics. Per strand,
// candidates are walked best penalty first and retained only if they do
// not overlap an already retained, better scoring candidate, with at most
// maxRetained survivors per conserved region. Results come back ordered
// by position with stable LEFT_n / RIGHT_n names.
func findBestPrimers(fw, rv []Primer, regions []Region, conf *config.Config) (bestFw, bestRv []Primer) {
	retain := func(candidates []Primer, strand string) []Primer {
		byPenalty := make([]Primer, len(candidates))
		copy(byPenalty, candidates)
		sort.SliceStable(byPenalty, func(i, j int) bool {
			return byPenalty[i].Penalty < byPenalty[j].Penalty
		})

		var retained []Primer
		perRegion := make(map[int]int)
		for _, cand := range byPenalty {
			region := regionIndex(regions, cand.Start)
			if perRegion[region] >= conf.Primer.MaxRetained {
				continue
			}
			overlaps := false
			for _, kept := range retained {
				if cand.Start < kept.End && kept.Start < cand.End {
					overlaps = true
					break
				}
			}
			if overlaps {
				continue
			}
			retained = append(retained, cand)
			perRegion[region]++
		}

		sort.SliceStable(retained, func(i, j int) bool {
			return retained[i].Start < retained[j].Start
		})
		for i := range retained {
			retained[i].Name = primerName(strand, i)
		}
		return retained
	}

	return retain(fw, strandForward), retain(rv, strandReverse)
}

// regionIndex returns the index of the region containing pos, or -1.
func regionIndex(regions []Region, pos int) int {
	i := sort.Search(len(regions), func(i int) bool { return regions[i].End > pos })
	if i < len(regions) && regions[i].Start <= pos {
		return i
	}
	return -1
}

func primerName(strand string, idx int) string {
	return strand + "_" + strconv.Itoa(idx)
}
