package cmd

import (
	"github.com/bebop/poly/io/fasta"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hoelzer/varVAMP/config"
	"github.com/hoelzer/varVAMP/internal/varvamp"
)

var (
	alignmentPath string
	resultsDir    string
)

// designCmd represents the design command
var designCmd = &cobra.Command{
	Use:   "design",
	Short: "Design an amplicon scheme from a multiple sequence alignment",
	Long: `Design a tiled amplicon scheme from a multiple sequence alignment.

The alignment is cleaned of gap-dominated columns and collapsed into a
majority and an ambiguity-aware consensus. Conserved stretches of the
ambiguous consensus are digested into kmers and evaluated as degenerate
primers with a nearest-neighbor thermodynamic model. Compatible primer
pairs become amplicon candidates, connected into a graph whenever two
amplicons overlap enough to tile and their primers do not cross-dimerize,
and the best covering path through that graph is the reported scheme.`,
	Run: runDesign,
}

func init() {
	rootCmd.AddCommand(designCmd)

	designCmd.Flags().StringVarP(&alignmentPath, "alignment", "a", "", "path to the alignment FASTA to design primers on")
	designCmd.Flags().StringVarP(&resultsDir, "out", "o", "results", "path for the results dir")
	designCmd.Flags().Float64P("threshold", "t", 0.9, "consensus frequency threshold (0-1)")
	designCmd.Flags().IntP("allowed-ambiguous", "n", 2, "ambiguous bases allowed within a primer")
	designCmd.Flags().Int("opt-length", 1000, "optimal amplicon length")
	designCmd.Flags().Int("max-length", 2000, "maximum amplicon length")
	designCmd.Flags().Int("overlap", 100, "minimum overlap between neighboring amplicons")

	designCmd.MarkFlagRequired("alignment")

	viper.BindPFlag("threshold", designCmd.Flags().Lookup("threshold"))
	viper.BindPFlag("allowed-ambiguous", designCmd.Flags().Lookup("allowed-ambiguous"))
	viper.BindPFlag("amplicon.opt-length", designCmd.Flags().Lookup("opt-length"))
	viper.BindPFlag("amplicon.max-length", designCmd.Flags().Lookup("max-length"))
	viper.BindPFlag("amplicon.overlap", designCmd.Flags().Lookup("overlap"))
}

// runDesign validates the config, runs the pipeline and writes results.
// Only this orchestration layer decides which failures are fatal.
func runDesign(cmd *cobra.Command, args []string) {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	conf, err := config.New()
	if err != nil {
		log.Fatal(err)
	}
	warnings, err := conf.Validate()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	for _, w := range warnings {
		log.Warn(w)
	}

	records, err := fasta.Read(alignmentPath)
	if err != nil {
		log.Fatalf("failed to read alignment %s: %v", alignmentPath, err)
	}
	seqs := make([]varvamp.Sequence, len(records))
	for i, r := range records {
		seqs[i] = varvamp.Sequence{ID: r.Name, Seq: r.Sequence}
	}

	result, err := varvamp.NewDesigner(conf, log).Run(seqs)
	if err != nil {
		log.Fatal(err)
	}
	for _, w := range result.Warnings {
		log.Warn(w)
	}

	if err := varvamp.WriteResult(resultsDir, result); err != nil {
		log.Fatal(err)
	}

	log.WithFields(logrus.Fields{
		"amplicons": result.Stats.SchemeAmplicons,
		"coverage":  result.Stats.PercentCoverage,
		"out":       resultsDir,
	}).Info("amplicon scheme written")
}
