// Package cli wires the engine's operator-facing verbs: artifact
// bootstrap, proof verification, stealth key generation and payment
// scanning.
package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	flagArtifactDir string
	flagVerbose     bool
)

var rootCmd = &cobra.Command{
	Use:           "nightjar",
	Short:         "Privacy-pool cryptographic engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagArtifactDir, "artifacts", "artifacts", "directory holding circuit artifacts")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

func logger() zerolog.Logger {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}
