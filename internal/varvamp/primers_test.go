package varvamp

import (
	"testing"

	"github.com/hoelzer/varVAMP/config"
)

// relaxedConfig widens every thermodynamic and compositional bound so
// tests can exercise one filter at a time.
func relaxedConfig() *config.Config {
	conf := config.Default()
	conf.Primer.Tm = config.FloatRange{Min: 0, Max: 120, Opt: 60}
	conf.Primer.GC = config.FloatRange{Min: 0, Max: 100, Opt: 50}
	conf.Primer.MaxHairpinTm = 200
	conf.Primer.MaxDimerTm = 200
	conf.Primer.MaxBasePenalty = 1e6
	conf.Primer.MaxPolyX = 100
	conf.Primer.MaxDinucRepeats = 100
	conf.Primer.Min3WithoutAmb = 0
	conf.Primer.MaxGCEnd = 5
	return conf
}

func TestGCPercent(t *testing.T) {
	tests := []struct {
		seq  string
		want float64
	}{
		{"GGCC", 100},
		{"ATAT", 0},
		{"GATC", 50},
		{"", 0},
	}
	for _, tt := range tests {
		if got := gcPercent(tt.seq); got != tt.want {
			t.Errorf("gcPercent(%q) = %v, want %v", tt.seq, got, tt.want)
		}
	}
}

func TestMaxPolyX(t *testing.T) {
	tests := []struct {
		seq  string
		want int
	}{
		{"ACGT", 1},
		{"AAAA", 4},
		{"AATTTT", 4},
		{"GACCCCCT", 5},
	}
	for _, tt := range tests {
		if got := maxPolyX(tt.seq); got != tt.want {
			t.Errorf("maxPolyX(%q) = %d, want %d", tt.seq, got, tt.want)
		}
	}
}

func TestMaxDinucRepeats(t *testing.T) {
	tests := []struct {
		seq  string
		want int
	}{
		{"ATATAT", 3},
		{"ACACACAC", 4},
		{"GATCGATC", 1},
		{"AACACA", 2},
	}
	for _, tt := range tests {
		if got := maxDinucRepeats(tt.seq); got != tt.want {
			t.Errorf("maxDinucRepeats(%q) = %d, want %d", tt.seq, got, tt.want)
		}
	}
}

func TestEndGC(t *testing.T) {
	tests := []struct {
		seq  string
		want int
	}{
		{"AAAAAGCGCG", 5},
		{"GCGCGAAAAA", 0},
		{"AAAAAGATAC", 2},
		{"GC", 2},
	}
	for _, tt := range tests {
		if got := endGC(tt.seq); got != tt.want {
			t.Errorf("endGC(%q) = %d, want %d", tt.seq, got, tt.want)
		}
	}
}

func TestGCClampPresent(t *testing.T) {
	tests := []struct {
		seq  string
		n    int
		want bool
	}{
		{"ATGC", 1, true},
		{"ATGA", 1, false},
		{"ATGC", 2, true},
		{"ATAC", 2, false},
		{"ATGC", 0, true},
	}
	for _, tt := range tests {
		if got := gcClampPresent(tt.seq, tt.n); got != tt.want {
			t.Errorf("gcClampPresent(%q, %d) = %v, want %v", tt.seq, tt.n, got, tt.want)
		}
	}
}

func TestThreePrimeAmbiguous(t *testing.T) {
	tests := []struct {
		ambSeq string
		n      int
		want   bool
	}{
		{"ACGTR", 3, true},
		{"ACRGT", 2, false},
		{"ACRGT", 3, true},
		{"ACGT", 4, false},
	}
	for _, tt := range tests {
		if got := threePrimeAmbiguous(tt.ambSeq, tt.n); got != tt.want {
			t.Errorf("threePrimeAmbiguous(%q, %d) = %v, want %v", tt.ambSeq, tt.n, got, tt.want)
		}
	}
}

func TestBasePenalty(t *testing.T) {
	conf := config.Default()
	if got := basePenalty(conf.Primer.Tm.Opt, conf.Primer.GC.Opt, conf.Primer.Sizes.Opt, conf); got != 0 {
		t.Errorf("basePenalty() at the optimum = %v, want 0", got)
	}
	// each deviation contributes its weighted absolute distance
	got := basePenalty(conf.Primer.Tm.Opt+2, conf.Primer.GC.Opt+5, conf.Primer.Sizes.Opt+2, conf)
	want := 2*conf.Primer.TmPenalty + 5*conf.Primer.GCPenalty + 2*conf.Primer.SizePenalty
	if abs(got-want) > 1e-9 {
		t.Errorf("basePenalty() = %v, want %v", got, want)
	}
}

func TestThreePrimePenalty(t *testing.T) {
	mismatches := []float64{0.5, 0, 0, 0, 0.25}
	weights := []float64{32, 16}

	if got := threePrimePenalty(strandForward, mismatches, weights); got != 32*0.25 {
		t.Errorf("threePrimePenalty(LEFT) = %v, want %v", got, 32*0.25)
	}
	if got := threePrimePenalty(strandReverse, mismatches, weights); got != 32*0.5 {
		t.Errorf("threePrimePenalty(RIGHT) = %v, want %v", got, 32*0.5)
	}
	if got := threePrimePenalty(strandForward, mismatches[:1], weights); got != 32*0.5 {
		t.Errorf("threePrimePenalty() on a short primer = %v, want %v", got, 32*0.5)
	}
}

func TestPerBaseMismatches(t *testing.T) {
	aln := &Alignment{Seqs: []Sequence{
		{ID: "s1", Seq: "AAAA"},
		{ID: "s2", Seq: "AAAA"},
		{ID: "s3", Seq: "AATA"},
	}}

	t.Run("plain consensus counts the variant base", func(t *testing.T) {
		got := perBaseMismatches(kmer{seq: "AAAA", ambSeq: "AAAA", start: 0, end: 4}, aln)
		want := []float64{0, 0, 1.0 / 3, 0}
		for i := range want {
			if abs(got[i]-want[i]) > 1e-9 {
				t.Fatalf("perBaseMismatches() = %v, want %v", got, want)
			}
		}
	})

	t.Run("a covering code binds the variant", func(t *testing.T) {
		got := perBaseMismatches(kmer{seq: "AAAA", ambSeq: "AAWA", start: 0, end: 4}, aln)
		for i, m := range got {
			if m != 0 {
				t.Fatalf("perBaseMismatches() position %d = %v, want 0", i, m)
			}
		}
	})

	t.Run("gaps never bind", func(t *testing.T) {
		gapped := &Alignment{Seqs: []Sequence{
			{ID: "s1", Seq: "AAAA"},
			{ID: "s2", Seq: "AA-A"},
		}}
		got := perBaseMismatches(kmer{seq: "AAAA", ambSeq: "AANA", start: 0, end: 4}, gapped)
		if got[2] != 0.5 {
			t.Errorf("perBaseMismatches() gap position = %v, want 0.5", got[2])
		}
	})
}

func TestFindPrimers(t *testing.T) {
	seq := "ACGTTGCAAGGCATCGATCA"
	aln := &Alignment{Seqs: []Sequence{
		{ID: "s1", Seq: seq},
		{ID: "s2", Seq: seq},
		{ID: "s3", Seq: seq},
		{ID: "s4", Seq: seq},
	}}
	clean := []kmer{{seq: seq, ambSeq: seq, start: 0, end: len(seq)}}

	t.Run("a clean kmer yields both strands", func(t *testing.T) {
		fw, rv := findPrimers(clean, aln, relaxedConfig())
		if len(fw) != 1 || len(rv) != 1 {
			t.Fatalf("findPrimers() = %d fw, %d rv, want 1, 1", len(fw), len(rv))
		}
		if fw[0].Seq != seq {
			t.Errorf("forward Seq = %q, want %q", fw[0].Seq, seq)
		}
		if rv[0].Seq != "TGATCGATGCCTTGCAACGT" {
			t.Errorf("reverse Seq = %q, want the reverse complement", rv[0].Seq)
		}
		for _, p := range []Primer{fw[0], rv[0]} {
			if p.Start != 0 || p.End != len(seq) {
				t.Errorf("%s interval = [%d, %d), want [0, %d)", p.Strand, p.Start, p.End, len(seq))
			}
			sum := p.BasePenalty + p.PermutationPenalty + p.ThreePrimePenalty
			if abs(p.Penalty-sum) > 1e-9 {
				t.Errorf("%s Penalty = %v, want component sum %v", p.Strand, p.Penalty, sum)
			}
			if p.TmMin != p.TmMax || p.GCMin != p.GCMax {
				t.Errorf("%s ranges differ for a single permutation", p.Strand)
			}
			if p.PermutationCount != 1 || len(p.Permutations) != 1 {
				t.Errorf("%s permutations = %d (%d listed), want 1", p.Strand, p.PermutationCount, len(p.Permutations))
			}
		}
	})

	t.Run("too many ambiguity codes are rejected", func(t *testing.T) {
		conf := relaxedConfig()
		amb := "ACGTTGCRARGCATCGRTCA"
		fw, rv := findPrimers([]kmer{{seq: seq, ambSeq: amb, start: 0, end: len(seq)}}, aln, conf)
		if len(fw) != 0 || len(rv) != 0 {
			t.Errorf("findPrimers() = %d fw, %d rv, want none", len(fw), len(rv))
		}
	})

	t.Run("unreachable melting bounds reject everything", func(t *testing.T) {
		conf := relaxedConfig()
		conf.Primer.Tm = config.FloatRange{Min: 500, Max: 600, Opt: 550}
		fw, rv := findPrimers(clean, aln, conf)
		if len(fw) != 0 || len(rv) != 0 {
			t.Errorf("findPrimers() = %d fw, %d rv, want none", len(fw), len(rv))
		}
	})

	t.Run("ambiguity at the 3 prime end is strand specific", func(t *testing.T) {
		conf := relaxedConfig()
		conf.Primer.Min3WithoutAmb = 3
		// code at the plus-strand 3' end: bad for LEFT, fine for RIGHT
		amb := "ACGTTGCAAGGCATCGATRA"
		fw, rv := findPrimers([]kmer{{seq: seq, ambSeq: amb, start: 0, end: len(seq)}}, aln, conf)
		if len(fw) != 0 {
			t.Errorf("findPrimers() fw = %d, want 0", len(fw))
		}
		if len(rv) != 1 {
			t.Errorf("findPrimers() rv = %d, want 1", len(rv))
		}
	})
}

func TestFindBestPrimers(t *testing.T) {
	fw := []Primer{
		{Strand: strandForward, Start: 0, End: 20, Penalty: 1},
		{Strand: strandForward, Start: 10, End: 30, Penalty: 2},
		{Strand: strandForward, Start: 40, End: 60, Penalty: 3},
	}
	regions := []Region{{Start: 0, End: 100}}

	t.Run("overlapping worse candidates are dropped", func(t *testing.T) {
		conf := config.Default()
		best, rv := findBestPrimers(fw, nil, regions, conf)
		if len(best) != 2 {
			t.Fatalf("findBestPrimers() retained %d, want 2", len(best))
		}
		if best[0].Start != 0 || best[1].Start != 40 {
			t.Errorf("retained starts = %d, %d, want 0, 40", best[0].Start, best[1].Start)
		}
		if best[0].Name != "LEFT_0" || best[1].Name != "LEFT_1" {
			t.Errorf("names = %q, %q, want LEFT_0, LEFT_1", best[0].Name, best[1].Name)
		}
		if len(rv) != 0 {
			t.Errorf("findBestPrimers() reverse = %d, want 0", len(rv))
		}
	})

	t.Run("per region cap keeps the best scorer", func(t *testing.T) {
		conf := config.Default()
		conf.Primer.MaxRetained = 1
		best, _ := findBestPrimers(fw, nil, regions, conf)
		if len(best) != 1 || best[0].Penalty != 1 {
			t.Fatalf("findBestPrimers() = %v, want only the penalty-1 candidate", best)
		}
	})
}

func TestRegionIndex(t *testing.T) {
	regions := []Region{{Start: 0, End: 50}, {Start: 100, End: 150}}
	tests := []struct {
		pos  int
		want int
	}{
		{0, 0},
		{49, 0},
		{50, -1},
		{100, 1},
		{149, 1},
		{200, -1},
	}
	for _, tt := range tests {
		if got := regionIndex(regions, tt.pos); got != tt.want {
			t.Errorf("regionIndex(%d) = %d, want %d", tt.pos, got, tt.want)
		}
	}
}
