// Package varvamp designs tiled PCR amplicon schemes for highly variable
// viral genomes from a multiple sequence alignment. The pipeline runs
// strictly forward: consensus building, conserved region finding, primer
// candidate generation and scoring, amplicon construction, amplicon graph
// building and scheme optimization.
package varvamp

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/hoelzer/varVAMP/config"
)

// Fatal input-insufficiency conditions: every stage depends on a
// non-empty result from the one before, so these abort the run.
var (
	ErrConfig             = errors.New("invalid input")
	ErrNoConservedRegions = errors.New("no conserved regions found")
	ErrNoPrimers          = errors.New("no primers found")
	ErrNoAmplicons        = errors.New("no amplicons found")
)

// Stats holds the diagnostic counters of every stage. The core returns
// them as values; presentation is the caller's concern.
type Stats struct {
	GapsMasked       int     `json:"gapsMasked"`
	BasesMasked      int     `json:"basesMasked"`
	ConsensusLength  int     `json:"consensusLength"`
	Regions          int     `json:"regions"`
	PercentConserved float64 `json:"percentConserved"`
	Kmers            int     `json:"kmers"`
	ForwardFound     int     `json:"forwardFound"`
	ReverseFound     int     `json:"reverseFound"`
	ForwardRetained  int     `json:"forwardRetained"`
	ReverseRetained  int     `json:"reverseRetained"`
	Amplicons        int     `json:"amplicons"`
	GraphEdges       int     `json:"graphEdges"`
	SchemeAmplicons  int     `json:"schemeAmplicons"`
	Coverage         int     `json:"coverage"`
	PercentCoverage  float64 `json:"percentCoverage"`
}

// Result is everything a run produces for downstream persistence.
type Result struct {
	MajorityConsensus  string   `json:"majorityConsensus"`
	AmbiguousConsensus string   `json:"ambiguousConsensus"`
	Regions            []Region `json:"conservedRegions"`
	Scheme             Scheme   `json:"scheme"`
	Stats              Stats    `json:"stats"`

	// non-fatal, actionable warnings raised during the run
	Warnings []string `json:"warnings,omitempty"`
}

// Designer runs the amplicon design pipeline with one validated,
// immutable config. The zero logger means silent.
type Designer struct {
	conf *config.Config
	log  *logrus.Logger
}

// NewDesigner returns a Designer for a validated config. A nil logger
// disables progress logging.
func NewDesigner(conf *config.Config, log *logrus.Logger) *Designer {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel)
	}
	return &Designer{conf: conf, log: log}
}

// Run executes the full pipeline against a raw alignment. Stage failures
// surface as wrapped sentinel errors; coverage-quality problems are
// returned as warnings on the Result, never as errors.
func (d *Designer) Run(raw []Sequence) (*Result, error) {
	aln, err := NewAlignment(raw)
	if err != nil {
		return nil, err
	}

	cleaned := aln.Clean(d.conf.Threshold)
	res := &Result{}
	res.Stats.GapsMasked = len(cleaned.MaskedGaps)
	res.Stats.BasesMasked = cleaned.MaskedBases()
	d.log.WithFields(logrus.Fields{
		"gaps":  res.Stats.GapsMasked,
		"bases": res.Stats.BasesMasked,
	}).Info("cleaned alignment gaps")

	res.MajorityConsensus, res.AmbiguousConsensus = createConsensus(cleaned, d.conf.Threshold)
	res.Stats.ConsensusLength = len(res.MajorityConsensus)
	d.log.WithField("length", res.Stats.ConsensusLength).Info("created consensus sequences")

	res.Regions = findConservedRegions(
		res.AmbiguousConsensus,
		d.conf.AllowedAmbiguous,
		d.conf.Primer.Sizes.Min,
	)
	if len(res.Regions) == 0 {
		return nil, fmt.Errorf("%w: lower the threshold or allow more ambiguous bases", ErrNoConservedRegions)
	}
	res.Stats.Regions = len(res.Regions)
	res.Stats.PercentConserved = percentConserved(res.Regions, res.Stats.ConsensusLength)
	d.log.WithFields(logrus.Fields{
		"regions":   res.Stats.Regions,
		"conserved": fmt.Sprintf("%.1f%%", res.Stats.PercentConserved),
	}).Info("found conserved regions")

	kmers := digestKmers(
		res.Regions,
		res.MajorityConsensus,
		res.AmbiguousConsensus,
		d.conf.Primer.Sizes.Min,
		d.conf.Primer.Sizes.Max,
	)
	res.Stats.Kmers = len(kmers)
	d.log.WithField("kmers", res.Stats.Kmers).Info("digested regions into kmers")

	fw, rv := findPrimers(kmers, cleaned, d.conf)
	res.Stats.ForwardFound = len(fw)
	res.Stats.ReverseFound = len(rv)
	if len(fw) == 0 {
		return nil, fmt.Errorf("%w: no forward primers passed the filters", ErrNoPrimers)
	}
	if len(rv) == 0 {
		return nil, fmt.Errorf("%w: no reverse primers passed the filters", ErrNoPrimers)
	}
	d.log.WithFields(logrus.Fields{
		"forward": len(fw),
		"reverse": len(rv),
	}).Info("found primer candidates")

	fw, rv = findBestPrimers(fw, rv, res.Regions, d.conf)
	res.Stats.ForwardRetained = len(fw)
	res.Stats.ReverseRetained = len(rv)
	d.log.WithFields(logrus.Fields{
		"forward": len(fw),
		"reverse": len(rv),
	}).Info("retained best scoring primers")

	amplicons := findAmplicons(fw, rv, d.conf)
	if len(amplicons) == 0 {
		return nil, fmt.Errorf("%w: increase the max amplicon length or lower the threshold", ErrNoAmplicons)
	}
	res.Stats.Amplicons = len(amplicons)

	graph := buildAmpliconGraph(amplicons, d.conf)
	res.Stats.GraphEdges = graph.edges
	d.log.WithFields(logrus.Fields{
		"amplicons": len(amplicons),
		"edges":     graph.edges,
	}).Info("built amplicon graph")

	res.Scheme = findBestCoveringScheme(amplicons, graph, res.Stats.ConsensusLength, d.conf)
	res.Stats.SchemeAmplicons = len(res.Scheme.Amplicons)
	res.Stats.Coverage = res.Scheme.Coverage
	res.Stats.PercentCoverage = res.Scheme.Percent
	d.log.WithFields(logrus.Fields{
		"amplicons": res.Stats.SchemeAmplicons,
		"coverage":  fmt.Sprintf("%.1f%%", res.Scheme.Percent),
	}).Info("created amplicon scheme")

	if res.Scheme.Percent < d.conf.CoverageWarn {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"coverage is below %.0f%%: consider lowering the threshold, "+
				"increasing the amplicon length, or allowing more ambiguous bases",
			d.conf.CoverageWarn,
		))
	}

	return res, nil
}
