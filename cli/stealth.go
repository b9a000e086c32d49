package cli

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/spf13/cobra"

	"github.com/nightjar-zk/nightjar/stealth"
)

var stealthKeygenCmd = &cobra.Command{
	Use:   "stealth-keygen",
	Short: "Generate a scanning key pair and print the meta-address",
	Long: "Generates a long-term scanning key pair on Baby Jubjub. The meta-address is what\n" +
		"senders derive stealth addresses from; the private scalar stays with the recipient.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine := stealth.New(stealth.WithLogger(logger()))
		kp, err := engine.GenerateKeyPair()
		if err != nil {
			return err
		}
		fmt.Printf("meta-address: %s\n", stealth.EncodePoint(&kp.Public))
		fmt.Printf("private scalar: %s\n", kp.Private.Text(16))
		return nil
	},
}

var flagScanKey string

var scanCmd = &cobra.Command{
	Use:   "scan [path/to/metadata.json]",
	Short: "Scan broadcast payment metadata for payments to a scanning key",
	Long: "Reads a JSON array of payment metadata entries and yields every entry addressed to\n" +
		"the given scanning key, with decrypted amounts. Scanning mutates nothing.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		priv, ok := new(big.Int).SetString(flagScanKey, 16)
		if !ok {
			return fmt.Errorf("malformed scanning key")
		}
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var metas []stealth.Metadata
		if err := json.Unmarshal(raw, &metas); err != nil {
			return fmt.Errorf("parse metadata list: %w", err)
		}
		engine := stealth.New(stealth.WithLogger(logger()))
		found := 0
		for received := range engine.Scan(priv, metas) {
			found++
			fmt.Printf("entry %d: amount %s to %s\n",
				received.Index, received.Amount.Dec(), received.Address)
		}
		fmt.Printf("%d of %d entries matched\n", found, len(metas))
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVar(&flagScanKey, "key", "", "scanning private scalar, hex")
	_ = scanCmd.MarkFlagRequired("key")
	rootCmd.AddCommand(stealthKeygenCmd)
	rootCmd.AddCommand(scanCmd)
}
