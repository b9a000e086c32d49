package cli

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/nightjar-zk/nightjar/circuits"
	"github.com/nightjar-zk/nightjar/prover"
)

var flagWorkers int

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Compile the circuit family and run a development trusted setup",
	Long: "Compiles the deposit and withdrawal circuits and runs an in-process Groth16 setup,\n" +
		"writing the constraint system, proving key, verifying key and a JSON verifying key\n" +
		"per circuit under the artifacts directory.\n" +
		"Development only: production keys come from an external ceremony.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := prover.New(prover.WithLogger(logger()), prover.WithWorkers(flagWorkers))
		for _, name := range []circuits.Name{circuits.Deposit, circuits.Withdraw} {
			if err := svc.Bootstrap(name, flagArtifactDir); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	setupCmd.Flags().IntVar(&flagWorkers, "workers", runtime.NumCPU(), "proving worker bound")
	rootCmd.AddCommand(setupCmd)
}
