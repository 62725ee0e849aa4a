// Package cmd is for command line interactions with the varVAMP application
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var log = logrus.New()

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "varvamp",
	Short: `Design tiled PCR amplicon schemes for highly variable virus genomes.
Degenerate primers are picked on conserved regions of an alignment consensus
and assembled into a minimal set of overlapping amplicons`,
	Version: "0.2.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func init() {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log each pipeline stage")
}
