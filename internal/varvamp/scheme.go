package varvamp

import (
	"sort"
	"strconv"

	"github.com/hoelzer/varVAMP/config"
	"github.com/hoelzer/varVAMP/internal/thermo"
)

// Amplicon is the genomic span amplified between a forward and a reverse
// primer. Built once, read-only afterwards.
type Amplicon struct {
	Name string `json:"name"`

	// half-open interval from forward primer start to reverse primer end
	Start int `json:"start"`
	End   int `json:"end"`

	// combined penalty of both primers, lower is better
	Penalty float64 `json:"penalty"`

	Forward Primer `json:"forward"`
	Reverse Primer `json:"reverse"`
}

// Len returns the amplicon's length in bases.
func (a Amplicon) Len() int { return a.End - a.Start }

// Scheme is the ordered set of amplicons chosen to tile the genome.
type Scheme struct {
	Amplicons []Amplicon `json:"amplicons"`

	// Coverage is the union of the amplicon intervals in bases,
	// Percent the same relative to the consensus length.
	Coverage int     `json:"coverage"`
	Percent  float64 `json:"percentCoverage"`
}

// findAmplicons pairs every compatible forward and reverse primer. The
// reverse primer must start past the forward primer plus the configured
// gap, and the span is hard-capped at the maximum amplicon length and
// floored at the smallest span two primers can physically produce. The
// preferred length is not enforced here: dropping short pairs could
// delete the only amplicons a sparse stretch supports, so length
// preference is left to the optimizer's tie-break. Amplicons come back
// sorted by start with stable names.
func findAmplicons(fw, rv []Primer, conf *config.Config) []Amplicon {
	minLength := 2*conf.Primer.Sizes.Min + conf.Amplicon.MinPrimerGap

	var amplicons []Amplicon
	for _, f := range fw {
		for _, r := range rv {
			if r.Start <= f.End+conf.Amplicon.MinPrimerGap {
				continue
			}
			length := r.End - f.Start
			if length > conf.Amplicon.MaxLength || length < minLength {
				continue
			}
			amplicons = append(amplicons, Amplicon{
				Start:   f.Start,
				End:     r.End,
				Penalty: f.Penalty + r.Penalty,
				Forward: f,
				Reverse: r,
			})
		}
	}

	sort.SliceStable(amplicons, func(i, j int) bool {
		if amplicons[i].Start != amplicons[j].Start {
			return amplicons[i].Start < amplicons[j].Start
		}
		return amplicons[i].End < amplicons[j].End
	})
	for i := range amplicons {
		amplicons[i].Name = "AMPLICON_" + strconv.Itoa(i)
	}
	return amplicons
}

// ampliconGraph is a DAG over start-sorted amplicons: successors[i] holds
// the indexes of amplicons reachable from i. Edges only point rightwards
// in genomic order.
type ampliconGraph struct {
	successors [][]int
	edges      int
}

// buildAmpliconGraph connects amplicon A to B when B starts after A's
// forward primer, the two overlap by at least the minimum overlap, and no
// primer of A forms a cross dimer with a primer of B above the dimer
// ceiling. The overlap keeps the tiling gapless; the dimer check keeps
// neighboring amplicons safe in multiplexed pools.
func buildAmpliconGraph(amplicons []Amplicon, conf *config.Config) ampliconGraph {
	cond := conditions(conf)
	g := ampliconGraph{successors: make([][]int, len(amplicons))}

	for i, a := range amplicons {
		for j := i + 1; j < len(amplicons); j++ {
			b := amplicons[j]
			if b.Forward.Start > a.Reverse.End-conf.Amplicon.MinOverlap {
				// sorted by start: every later amplicon overlaps less
				break
			}
			if b.Forward.Start <= a.Forward.End {
				continue
			}
			if crossDimer(a, b, cond, conf.Primer.MaxDimerTm) {
				continue
			}
			g.successors[i] = append(g.successors[i], j)
			g.edges++
		}
	}
	return g
}

// crossDimer reports whether any primer of a dimerizes with any primer
// of b above the ceiling, on their majority-resolved sequences.
func crossDimer(a, b Amplicon, cond thermo.Conditions, ceiling float64) bool {
	for _, p := range []Primer{a.Forward, a.Reverse} {
		for _, q := range []Primer{b.Forward, b.Reverse} {
			if thermo.Dimer(p.Seq, q.Seq, cond) > ceiling {
				return true
			}
		}
	}
	return false
}

// pathState is the best result ending at one amplicon: the covered bases,
// the summed penalty, the amplicon count, the total deviation from the
// preferred amplicon length, and the furthest genomic end the path has
// reached. The furthest end, not the last amplicon's end, is what new
// coverage is measured against, so a nested amplicon on the path never
// counts the same bases twice.
type pathState struct {
	coverage int
	penalty  float64
	count    int
	dev      float64
	end      int
}

// findBestCoveringScheme runs dynamic programming over the start-sorted
// amplicon arena. For each amplicon the best coverage ending there is the
// best predecessor coverage plus the span past the predecessor path's
// furthest end; ties break by the configured rule, then by deviation from
// the preferred amplicon length. The winning path is rebuilt through
// integer predecessor links. Isolated amplicons are their own one-element
// candidate path, so the degenerate single-amplicon scheme falls out of
// the same recurrence.
func findBestCoveringScheme(amplicons []Amplicon, g ampliconGraph, consensusLen int, conf *config.Config) Scheme {
	n := len(amplicons)
	if n == 0 {
		return Scheme{}
	}

	lengthDev := func(a Amplicon) float64 {
		return abs(float64(a.Len() - conf.Amplicon.OptLength))
	}

	states := make([]pathState, n)
	pred := make([]int, n)
	for i, a := range amplicons {
		states[i] = pathState{
			coverage: a.Len(),
			penalty:  a.Penalty,
			count:    1,
			dev:      lengthDev(a),
			end:      a.End,
		}
		pred[i] = -1
	}

	// prefer higher coverage; on equal coverage apply the tie-break rule;
	// the preferred amplicon length decides only full ties
	better := func(a, b pathState) bool {
		if a.coverage != b.coverage {
			return a.coverage > b.coverage
		}
		if conf.TieBreak == config.TieBreakCount {
			if a.count != b.count {
				return a.count < b.count
			}
			if a.penalty != b.penalty {
				return a.penalty < b.penalty
			}
		} else {
			if a.penalty != b.penalty {
				return a.penalty < b.penalty
			}
			if a.count != b.count {
				return a.count < b.count
			}
		}
		return a.dev < b.dev
	}

	for i := 0; i < n; i++ {
		for _, j := range g.successors[i] {
			incremental := amplicons[j].End - states[i].end
			if incremental < 0 {
				incremental = 0
			}
			end := states[i].end
			if amplicons[j].End > end {
				end = amplicons[j].End
			}
			cand := pathState{
				coverage: states[i].coverage + incremental,
				penalty:  states[i].penalty + amplicons[j].Penalty,
				count:    states[i].count + 1,
				dev:      states[i].dev + lengthDev(amplicons[j]),
				end:      end,
			}
			if better(cand, states[j]) {
				states[j] = cand
				pred[j] = i
			}
		}
	}

	best := 0
	for i := 1; i < n; i++ {
		if better(states[i], states[best]) {
			best = i
		}
		// equal on every rule: prefer the path reaching closest to the
		// genome end
		if states[i].coverage == states[best].coverage &&
			states[i].penalty == states[best].penalty &&
			states[i].count == states[best].count &&
			states[i].dev == states[best].dev &&
			states[i].end > states[best].end {
			best = i
		}
	}

	var path []Amplicon
	for i := best; i >= 0; i = pred[i] {
		path = append(path, amplicons[i])
	}
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}

	scheme := Scheme{
		Amplicons: path,
		Coverage:  states[best].coverage,
	}
	if consensusLen > 0 {
		scheme.Percent = 100 * float64(scheme.Coverage) / float64(consensusLen)
	}
	return scheme
}

// unionLength returns the number of distinct bases covered by start-sorted
// amplicons. Used to cross-check the optimizer's coverage bookkeeping.
func unionLength(amplicons []Amplicon) int {
	covered, end := 0, -1
	for _, a := range amplicons {
		if a.Start > end {
			covered += a.Len()
			end = a.End
		} else if a.End > end {
			covered += a.End - end
			end = a.End
		}
	}
	return covered
}
