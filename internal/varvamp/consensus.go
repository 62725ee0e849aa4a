package varvamp

import (
	"sort"
	"strings"
)

// nucleotide priority order used for deterministic tie-breaks
const nucleotides = "ACGT"

// iupac maps a sorted set of nucleotides to the minimal ambiguity code
// covering it.
var iupac = map[string]byte{
	"A":    'A',
	"C":    'C',
	"G":    'G',
	"T":    'T',
	"AC":   'M',
	"AG":   'R',
	"AT":   'W',
	"CG":   'S',
	"CT":   'Y',
	"GT":   'K',
	"ACG":  'V',
	"ACT":  'H',
	"AGT":  'D',
	"CGT":  'B',
	"ACGT": 'N',
}

// iupacBases is the inverse of iupac: ambiguity code to the nucleotides
// it stands for.
var iupacBases = map[byte]string{
	'A': "A",
	'C': "C",
	'G': "G",
	'T': "T",
	'M': "AC",
	'R': "AG",
	'W': "AT",
	'S': "CG",
	'Y': "CT",
	'K': "GT",
	'V': "ACG",
	'H': "ACT",
	'D': "AGT",
	'B': "CGT",
	'N': "ACGT",
}

// iupacComplement complements every ambiguity code so degenerate primer
// sequences can be reverse complemented.
var iupacComplement = map[byte]byte{
	'A': 'T',
	'C': 'G',
	'G': 'C',
	'T': 'A',
	'M': 'K',
	'R': 'Y',
	'W': 'W',
	'S': 'S',
	'Y': 'R',
	'K': 'M',
	'V': 'B',
	'H': 'D',
	'D': 'H',
	'B': 'V',
	'N': 'N',
}

// isAmbiguous reports whether a consensus symbol is an ambiguity code
// rather than a plain nucleotide.
func isAmbiguous(c byte) bool {
	return strings.IndexByte(nucleotides, c) < 0
}

// countAmbiguous returns the number of ambiguity codes in seq.
func countAmbiguous(seq string) int {
	n := 0
	for i := 0; i < len(seq); i++ {
		if isAmbiguous(seq[i]) {
			n++
		}
	}
	return n
}

// permutationCount is the number of concrete sequences a degenerate
// sequence stands for: the product of each code's cardinality.
func permutationCount(seq string) int {
	n := 1
	for i := 0; i < len(seq); i++ {
		if bases, ok := iupacBases[seq[i]]; ok {
			n *= len(bases)
		}
	}
	return n
}

// expandPermutations resolves a degenerate sequence into concrete
// sequences in lexicographic order, returning at most limit of them.
// The order is deterministic so capped expansions stay reproducible.
func expandPermutations(seq string, limit int) []string {
	perms := []string{""}
	for i := 0; i < len(seq); i++ {
		bases, ok := iupacBases[seq[i]]
		if !ok {
			bases = string(seq[i])
		}
		next := make([]string, 0, len(perms)*len(bases))
		for _, p := range perms {
			for _, b := range bases {
				next = append(next, p+string(b))
			}
		}
		// the first limit prefixes are enough to produce the first
		// limit full sequences, so capping per position is lossless
		if len(next) > limit {
			next = next[:limit]
		}
		perms = next
	}
	return perms
}

// reverseComplementAmbiguous reverse complements a sequence that may hold
// ambiguity codes. Unknown symbols map to N.
func reverseComplementAmbiguous(seq string) string {
	out := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		c, ok := iupacComplement[seq[i]]
		if !ok {
			c = 'N'
		}
		out[len(seq)-1-i] = c
	}
	return string(out)
}

// createConsensus builds the majority and the ambiguity-aware consensus
// from a cleaned alignment. Both share the alignment's column indexing.
//
// Per column, nucleotide frequencies are counted with gaps excluded from
// the denominator. The majority consensus takes the most frequent
// nucleotide, ties broken alphabetically. The ambiguous consensus
// accumulates nucleotides by descending frequency until their cumulative
// mass reaches threshold and emits the minimal ambiguity code covering the
// accumulated set. A column of only gaps yields N in both.
func createConsensus(aln *Alignment, threshold float64) (majority, ambiguous string) {
	cols := aln.Columns()
	maj := make([]byte, cols)
	amb := make([]byte, cols)

	for col := 0; col < cols; col++ {
		counts := [4]int{}
		total := 0
		for _, row := range aln.Seqs {
			idx := strings.IndexByte(nucleotides, row.Seq[col])
			if idx < 0 {
				continue // gap or non-nucleotide
			}
			counts[idx]++
			total++
		}

		if total == 0 {
			maj[col] = 'N'
			amb[col] = 'N'
			continue
		}

		// order nucleotides by descending count, alphabetical on ties
		order := []int{0, 1, 2, 3}
		sort.SliceStable(order, func(i, j int) bool {
			return counts[order[i]] > counts[order[j]]
		})

		maj[col] = nucleotides[order[0]]

		mass := 0
		set := make([]byte, 0, 4)
		for _, idx := range order {
			if counts[idx] == 0 {
				break
			}
			set = append(set, nucleotides[idx])
			mass += counts[idx]
			if float64(mass)/float64(total) >= threshold {
				break
			}
		}
		sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })
		amb[col] = iupac[string(set)]
	}

	return string(maj), string(amb)
}
