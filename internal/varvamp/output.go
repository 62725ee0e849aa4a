package varvamp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bebop/poly/io/fasta"
)

// output filenames inside the results directory
const (
	majorityFasta  = "majority_consensus.fasta"
	ambiguousFasta = "ambiguous_consensus.fasta"
	schemeJSON     = "scheme.json"
	primerTSV      = "primers.tsv"
)

// WriteResult persists a run's outputs into dir: both consensus sequences
// as FASTA records, the scheme with all primer details as JSON, and a
// flat per-primer TSV table.
func WriteResult(dir string, res *Result) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create results dir: %w", err)
	}

	consensus := []struct {
		file string
		name string
		seq  string
	}{
		{majorityFasta, "majority_consensus", res.MajorityConsensus},
		{ambiguousFasta, "ambiguous_consensus", res.AmbiguousConsensus},
	}
	for _, c := range consensus {
		record := []fasta.Fasta{{Name: c.name, Sequence: c.seq}}
		if err := fasta.Write(record, filepath.Join(dir, c.file)); err != nil {
			return fmt.Errorf("failed to write %s: %w", c.file, err)
		}
	}

	scheme, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, schemeJSON), scheme, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", schemeJSON, err)
	}

	if err := os.WriteFile(filepath.Join(dir, primerTSV), []byte(primerTable(res.Scheme)), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", primerTSV, err)
	}

	return nil
}

// primerTable renders the scheme's primers as a TSV table, one primer
// per row in genomic order.
func primerTable(scheme Scheme) string {
	var b strings.Builder
	b.WriteString("amplicon\tprimer\tstrand\tstart\tend\tseq\tambiguous_seq\ttm_min\ttm_max\tgc_min\tgc_max\tpenalty\n")
	for _, a := range scheme.Amplicons {
		for _, p := range []Primer{a.Forward, a.Reverse} {
			fmt.Fprintf(&b, "%s\t%s\t%s\t%d\t%d\t%s\t%s\t%.1f\t%.1f\t%.1f\t%.1f\t%.2f\n",
				a.Name, p.Name, p.Strand, p.Start, p.End, p.Seq, p.AmbSeq,
				p.TmMin, p.TmMax, p.GCMin, p.GCMax, p.Penalty,
			)
		}
	}
	return b.String()
}
