package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nightjar-zk/nightjar/prover"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [path/to/proof.json]",
	Short: "Verify a serialized proof against its embedded public signals",
	Long: "Reads a proof envelope (circuit name, Groth16 proof bytes, ordered public signals)\n" +
		"and verifies it with the verifying key loaded from the artifacts directory.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		proof, err := prover.ReadProof(f)
		if err != nil {
			return err
		}
		svc := prover.New(prover.WithLogger(logger()))
		if err := svc.Load(proof.Circuit, prover.DefaultArtifactPaths(flagArtifactDir, proof.Circuit)); err != nil {
			return err
		}
		if !svc.Verify(proof.Circuit, proof, proof.PublicSignals) {
			return fmt.Errorf("proof verification failed")
		}
		fmt.Println("proof verified")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
