// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// tie-break policies for schemes with equal coverage
const (
	// TieBreakPenalty prefers the lower summed primer penalty, then the
	// fewer amplicons
	TieBreakPenalty = "penalty"

	// TieBreakCount prefers the fewer amplicons, then the lower penalty
	TieBreakCount = "count"
)

// IntRange is a (min, max, opt) triple for integer settings.
type IntRange struct {
	Min int `mapstructure:"min"`
	Max int `mapstructure:"max"`
	Opt int `mapstructure:"opt"`
}

// FloatRange is a (min, max, opt) triple for float settings.
type FloatRange struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
	Opt float64 `mapstructure:"opt"`
}

// PrimerConfig holds every per-primer constraint and penalty weight.
type PrimerConfig struct {
	// primer length range
	Sizes IntRange `mapstructure:"sizes"`

	// melting temperature range (deg C)
	Tm FloatRange `mapstructure:"tm"`

	// GC content range (percent)
	GC FloatRange `mapstructure:"gc"`

	// hairpin melting temperature ceiling (deg C)
	MaxHairpinTm float64 `mapstructure:"max-hairpin-tm"`

	// longest tolerated homopolymer run
	MaxPolyX int `mapstructure:"max-polyx"`

	// most tolerated back-to-back dinucleotide repeats
	MaxDinucRepeats int `mapstructure:"max-dinuc-repeats"`

	// primer dimer melting temperature ceiling (deg C), for homodimers
	// and cross dimers between neighboring amplicons
	MaxDimerTm float64 `mapstructure:"max-dimer-tm"`

	// number of 3' bases that must be free of ambiguity codes
	Min3WithoutAmb int `mapstructure:"min-three-without-amb"`

	// number of 3' bases that must all be G/C, 0 disables the clamp
	GCClamp int `mapstructure:"gc-clamp"`

	// most G/C bases tolerated within the last 5 bases of the 3' end
	MaxGCEnd int `mapstructure:"max-gc-end"`

	// penalty weights for deviation from the optimum
	TmPenalty   float64 `mapstructure:"tm-penalty"`
	GCPenalty   float64 `mapstructure:"gc-penalty"`
	SizePenalty float64 `mapstructure:"size-penalty"`

	// hard cap on a candidate's total penalty
	MaxBasePenalty float64 `mapstructure:"max-base-penalty"`

	// per-base 3' mismatch weights, 3'-terminal base first
	ThreePrimePenalty []float64 `mapstructure:"three-prime-penalty"`

	// penalty per concrete permutation of a degenerate primer
	PermutationPenalty float64 `mapstructure:"permutation-penalty"`

	// cap on evaluated permutations; the count above the cap is still
	// penalized, never silently truncated away
	MaxPermutations int `mapstructure:"max-permutations"`

	// best scoring candidates retained per conserved region and strand
	MaxRetained int `mapstructure:"max-retained"`
}

// PCRConfig is settings for the PCR solution, primer3 units.
type PCRConfig struct {
	// monovalent cation concentration (mM)
	MvConc float64 `mapstructure:"mv-conc"`

	// divalent cation concentration (mM)
	DvConc float64 `mapstructure:"dv-conc"`

	// dNTP concentration (mM)
	DNTPConc float64 `mapstructure:"dntp-conc"`

	// primer concentration (nM)
	DNAConc float64 `mapstructure:"dna-conc"`
}

// AmpliconConfig bounds the amplicons and their tiling.
type AmpliconConfig struct {
	// preferred amplicon length
	OptLength int `mapstructure:"opt-length"`

	// hard maximum amplicon length
	MaxLength int `mapstructure:"max-length"`

	// minimum overlap between neighboring amplicons
	MinOverlap int `mapstructure:"overlap"`

	// minimum gap between a forward primer's end and a reverse
	// primer's start
	MinPrimerGap int `mapstructure:"min-primer-gap"`
}

// Config is the root-level settings struct, a mix of settings available
// in the settings file and those set on the command line. It is validated
// once at startup and passed read-only into every stage.
type Config struct {
	// consensus frequency threshold, 0-1
	Threshold float64 `mapstructure:"threshold"`

	// ambiguity codes allowed within one primer
	AllowedAmbiguous int `mapstructure:"allowed-ambiguous"`

	Primer   PrimerConfig   `mapstructure:"primer"`
	PCR      PCRConfig      `mapstructure:"pcr"`
	Amplicon AmpliconConfig `mapstructure:"amplicon"`

	// warn when the scheme covers less than this percent of the genome
	CoverageWarn float64 `mapstructure:"coverage-warn"`

	// tie-break rule for equal-coverage schemes
	TieBreak string `mapstructure:"tie-break"`
}

// Default returns the stock settings.
func Default() *Config {
	return &Config{
		Threshold:        0.9,
		AllowedAmbiguous: 2,
		Primer: PrimerConfig{
			Sizes:              IntRange{Min: 18, Max: 24, Opt: 21},
			Tm:                 FloatRange{Min: 56, Max: 63, Opt: 60},
			GC:                 FloatRange{Min: 35, Max: 65, Opt: 50},
			MaxHairpinTm:       47,
			MaxPolyX:           5,
			MaxDinucRepeats:    4,
			MaxDimerTm:         21,
			Min3WithoutAmb:     3,
			GCClamp:            0,
			MaxGCEnd:           4,
			TmPenalty:          2,
			GCPenalty:          0.2,
			SizePenalty:        0.5,
			MaxBasePenalty:     10,
			ThreePrimePenalty:  []float64{32, 16, 8, 4, 2},
			PermutationPenalty: 0.1,
			MaxPermutations:    128,
			MaxRetained:        25,
		},
		PCR: PCRConfig{
			MvConc:   100,
			DvConc:   2,
			DNTPConc: 0.8,
			DNAConc:  50,
		},
		Amplicon: AmpliconConfig{
			OptLength:    1000,
			MaxLength:    2000,
			MinOverlap:   100,
			MinPrimerGap: 100,
		},
		CoverageWarn: 70,
		TieBreak:     TieBreakPenalty,
	}
}

// New returns a Config populated by Viper settings (the settings file
// and/or command line arguments) layered over the defaults.
func New() (*Config, error) {
	c := Default()
	if err := viper.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return c, nil
}

// Validate checks the settings for internal consistency. It returns a
// fatal error for parameters the pipeline cannot run with and a list of
// advisory warnings for values that are valid but risky.
func (c *Config) Validate() (warnings []string, err error) {
	if c.Threshold < 0 || c.Threshold > 1 {
		return nil, fmt.Errorf("threshold must be between 0 and 1, got %v", c.Threshold)
	}
	if c.AllowedAmbiguous < 0 {
		return nil, fmt.Errorf("allowed ambiguous bases cannot be negative, got %d", c.AllowedAmbiguous)
	}

	if err := c.Primer.Sizes.validate("primer size"); err != nil {
		return nil, err
	}
	if err := floatRangeValid("primer tm", c.Primer.Tm); err != nil {
		return nil, err
	}
	if err := floatRangeValid("primer gc", c.Primer.GC); err != nil {
		return nil, err
	}
	if c.Primer.Sizes.Min < 2 {
		return nil, fmt.Errorf("minimum primer size must be at least 2, got %d", c.Primer.Sizes.Min)
	}

	nonNegative := []struct {
		name  string
		value float64
	}{
		{"max polyx", float64(c.Primer.MaxPolyX)},
		{"max dinucleotide repeats", float64(c.Primer.MaxDinucRepeats)},
		{"min 3' bases without ambiguity", float64(c.Primer.Min3WithoutAmb)},
		{"gc clamp", float64(c.Primer.GCClamp)},
		{"max 3' gc", float64(c.Primer.MaxGCEnd)},
		{"tm penalty", c.Primer.TmPenalty},
		{"gc penalty", c.Primer.GCPenalty},
		{"size penalty", c.Primer.SizePenalty},
		{"max base penalty", c.Primer.MaxBasePenalty},
		{"permutation penalty", c.Primer.PermutationPenalty},
		{"monovalent cation concentration", c.PCR.MvConc},
		{"divalent cation concentration", c.PCR.DvConc},
		{"dNTP concentration", c.PCR.DNTPConc},
		{"min primer gap", float64(c.Amplicon.MinPrimerGap)},
	}
	for _, v := range nonNegative {
		if v.value < 0 {
			return nil, fmt.Errorf("%s cannot be negative, got %v", v.name, v.value)
		}
	}
	for _, p := range c.Primer.ThreePrimePenalty {
		if p < 0 {
			return nil, fmt.Errorf("3' penalties cannot be negative, got %v", p)
		}
	}
	if c.PCR.DNAConc <= 0 {
		return nil, fmt.Errorf("primer concentration must be positive, got %v", c.PCR.DNAConc)
	}
	if c.Primer.MaxPermutations < 1 {
		return nil, fmt.Errorf("max permutations must be at least 1, got %d", c.Primer.MaxPermutations)
	}
	if c.Primer.MaxRetained < 1 {
		return nil, fmt.Errorf("max retained primers must be at least 1, got %d", c.Primer.MaxRetained)
	}

	if c.Amplicon.OptLength <= 0 || c.Amplicon.MaxLength <= 0 {
		return nil, fmt.Errorf("amplicon lengths must be positive")
	}
	if c.Amplicon.OptLength > c.Amplicon.MaxLength {
		return nil, fmt.Errorf(
			"optimal amplicon length %d cannot exceed the maximum %d",
			c.Amplicon.OptLength, c.Amplicon.MaxLength,
		)
	}
	if c.Amplicon.MinOverlap < 0 {
		return nil, fmt.Errorf("overlap cannot be negative, got %d", c.Amplicon.MinOverlap)
	}
	if c.Amplicon.MinOverlap > c.Amplicon.OptLength {
		return nil, fmt.Errorf(
			"overlap %d cannot exceed the optimal amplicon length %d",
			c.Amplicon.MinOverlap, c.Amplicon.OptLength,
		)
	}
	if c.TieBreak != TieBreakPenalty && c.TieBreak != TieBreakCount {
		return nil, fmt.Errorf("tie-break must be %q or %q, got %q", TieBreakPenalty, TieBreakCount, c.TieBreak)
	}

	// valid but risky
	if c.AllowedAmbiguous > 4 {
		warnings = append(warnings, "many ambiguous bases per primer lead to high degeneracy, consider reducing")
	}
	if c.Amplicon.OptLength < 200 || c.Amplicon.MaxLength < 200 {
		warnings = append(warnings, "amplicon lengths below 200 bp might be too small, consider increasing")
	}
	if c.Amplicon.MinOverlap < 50 {
		warnings = append(warnings, "small overlaps might hinder downstream analyses, consider increasing")
	}
	if c.Primer.MaxHairpinTm < 0 {
		warnings = append(warnings, "a negative hairpin ceiling will reject most primers")
	}
	if c.Primer.MaxDimerTm < 0 {
		warnings = append(warnings, "there is no need to set the dimer ceiling below 0")
	}
	if c.Primer.MaxBasePenalty < 8 {
		warnings = append(warnings, "a low max base penalty hard-filters more primers")
	}

	return warnings, nil
}

func (r IntRange) validate(name string) error {
	return floatRangeValid(name, FloatRange{
		Min: float64(r.Min),
		Max: float64(r.Max),
		Opt: float64(r.Opt),
	})
}

func floatRangeValid(name string, r FloatRange) error {
	if r.Min < 0 || r.Max < 0 || r.Opt < 0 {
		return fmt.Errorf("%s range cannot contain negative values", name)
	}
	if r.Min > r.Max {
		return fmt.Errorf("min %s %v cannot exceed max %v", name, r.Min, r.Max)
	}
	if r.Opt < r.Min || r.Opt > r.Max {
		return fmt.Errorf("opt %s %v must lie within [%v, %v]", name, r.Opt, r.Min, r.Max)
	}
	return nil
}
