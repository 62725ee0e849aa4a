package config

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "threshold above 1",
			mutate:  func(c *Config) { c.Threshold = 1.5 },
			wantErr: "threshold",
		},
		{
			name:    "negative allowed ambiguous",
			mutate:  func(c *Config) { c.AllowedAmbiguous = -1 },
			wantErr: "ambiguous",
		},
		{
			name:    "inverted primer size range",
			mutate:  func(c *Config) { c.Primer.Sizes = IntRange{Min: 24, Max: 18, Opt: 21} },
			wantErr: "primer size",
		},
		{
			name:    "optimum outside the tm range",
			mutate:  func(c *Config) { c.Primer.Tm = FloatRange{Min: 56, Max: 63, Opt: 70} },
			wantErr: "primer tm",
		},
		{
			name:    "primer too short to pair",
			mutate:  func(c *Config) { c.Primer.Sizes = IntRange{Min: 1, Max: 24, Opt: 21} },
			wantErr: "at least 2",
		},
		{
			name:    "negative penalty weight",
			mutate:  func(c *Config) { c.Primer.TmPenalty = -1 },
			wantErr: "tm penalty",
		},
		{
			name:    "negative 3' penalty",
			mutate:  func(c *Config) { c.Primer.ThreePrimePenalty = []float64{32, -1} },
			wantErr: "3' penalties",
		},
		{
			name:    "zero primer concentration",
			mutate:  func(c *Config) { c.PCR.DNAConc = 0 },
			wantErr: "primer concentration",
		},
		{
			name:    "zero max permutations",
			mutate:  func(c *Config) { c.Primer.MaxPermutations = 0 },
			wantErr: "max permutations",
		},
		{
			name:    "zero retained primers",
			mutate:  func(c *Config) { c.Primer.MaxRetained = 0 },
			wantErr: "max retained",
		},
		{
			name:    "optimal amplicon longer than the maximum",
			mutate:  func(c *Config) { c.Amplicon.OptLength = 3000 },
			wantErr: "cannot exceed the maximum",
		},
		{
			name: "overlap longer than the optimal amplicon",
			mutate: func(c *Config) {
				c.Amplicon.OptLength = 200
				c.Amplicon.MinOverlap = 300
			},
			wantErr: "overlap",
		},
		{
			name:    "unknown tie-break rule",
			mutate:  func(c *Config) { c.TieBreak = "chance" },
			wantErr: "tie-break",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			_, err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want one mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateWarnings(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantWarn string
	}{
		{
			name:     "high degeneracy",
			mutate:   func(c *Config) { c.AllowedAmbiguous = 6 },
			wantWarn: "degeneracy",
		},
		{
			name: "tiny amplicons",
			mutate: func(c *Config) {
				c.Amplicon.OptLength = 150
				c.Amplicon.MaxLength = 180
				c.Amplicon.MinOverlap = 60
			},
			wantWarn: "too small",
		},
		{
			name:     "small overlap",
			mutate:   func(c *Config) { c.Amplicon.MinOverlap = 20 },
			wantWarn: "overlaps",
		},
		{
			name:     "harsh base penalty cap",
			mutate:   func(c *Config) { c.Primer.MaxBasePenalty = 5 },
			wantWarn: "max base penalty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			warnings, err := c.Validate()
			if err != nil {
				t.Fatalf("Validate() error = %v, want warnings only", err)
			}
			for _, w := range warnings {
				if strings.Contains(w, tt.wantWarn) {
					return
				}
			}
			t.Fatalf("Validate() warnings = %v, want one mentioning %q", warnings, tt.wantWarn)
		})
	}
}

func TestDefaultIsSelfConsistent(t *testing.T) {
	c := Default()
	warnings, err := c.Validate()
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("Validate() warnings = %v, want none for the defaults", warnings)
	}
}
