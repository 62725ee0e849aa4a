package varvamp

import (
	"fmt"
	"strings"
)

// gap symbols tolerated in input alignments
const gapSymbols = "-."

// Sequence is a single aligned genome.
type Sequence struct {
	ID  string `json:"id"`
	Seq string `json:"seq"`
}

// Region is a half-open interval [Start, End) over consensus coordinates.
type Region struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bases the region spans.
func (r Region) Len() int { return r.End - r.Start }

// Alignment is an ordered collection of equal-length sequences. Once
// cleaned it is immutable: every later stage only reads from it.
type Alignment struct {
	Seqs []Sequence

	// MaskedGaps are the columns (in original alignment coordinates)
	// removed during cleaning, merged into half-open intervals. They are
	// coordinate metadata for reporting only.
	MaskedGaps []Region
}

// Columns returns the alignment's column count.
func (a *Alignment) Columns() int {
	if len(a.Seqs) == 0 {
		return 0
	}
	return len(a.Seqs[0].Seq)
}

// MaskedBases returns the total number of columns removed by cleaning.
func (a *Alignment) MaskedBases() int {
	n := 0
	for _, g := range a.MaskedGaps {
		n += g.Len()
	}
	return n
}

// NewAlignment validates raw aligned sequences and normalizes them:
// uppercase, RNA mapped to DNA. All sequences must share one length.
func NewAlignment(seqs []Sequence) (*Alignment, error) {
	if len(seqs) == 0 {
		return nil, fmt.Errorf("%w: alignment is empty", ErrConfig)
	}

	cols := len(seqs[0].Seq)
	norm := make([]Sequence, len(seqs))
	for i, s := range seqs {
		if len(s.Seq) != cols {
			return nil, fmt.Errorf(
				"%w: alignment rows differ in length: %q is %d bp, %q is %d bp",
				ErrConfig, seqs[0].ID, cols, s.ID, len(s.Seq),
			)
		}
		seq := strings.ToUpper(s.Seq)
		seq = strings.ReplaceAll(seq, "U", "T")
		norm[i] = Sequence{ID: s.ID, Seq: seq}
	}

	return &Alignment{Seqs: norm}, nil
}

// Clean drops alignment columns dominated by gaps and records them as
// masked intervals. A column is masked when its gap fraction exceeds
// 1 - threshold, meaning too few genomes carry a base there for the
// column to inform a consensus.
func (a *Alignment) Clean(threshold float64) *Alignment {
	cols := a.Columns()
	rows := len(a.Seqs)
	keep := make([]bool, cols)
	var masked []Region

	for col := 0; col < cols; col++ {
		gaps := 0
		for _, s := range a.Seqs {
			if strings.IndexByte(gapSymbols, s.Seq[col]) >= 0 {
				gaps++
			}
		}
		keep[col] = float64(gaps)/float64(rows) <= 1-threshold
		if !keep[col] {
			if n := len(masked); n > 0 && masked[n-1].End == col {
				masked[n-1].End = col + 1
			} else {
				masked = append(masked, Region{Start: col, End: col + 1})
			}
		}
	}

	cleaned := make([]Sequence, rows)
	for i, s := range a.Seqs {
		var b strings.Builder
		b.Grow(cols)
		for col := 0; col < cols; col++ {
			if keep[col] {
				b.WriteByte(s.Seq[col])
			}
		}
		cleaned[i] = Sequence{ID: s.ID, Seq: b.String()}
	}

	return &Alignment{Seqs: cleaned, MaskedGaps: masked}
}
