package prover

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark/backend/groth16"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
)

// VerifyingKeyJSON is the portable verifying-key layout consumed by
// external verifiers: alpha/beta/gamma/delta curve points plus the IC
// array, coordinates as decimal strings. G1 points are [x, y, 1] and G2
// points [[x0, x1], [y0, y1], [1, 0]].
type VerifyingKeyJSON struct {
	Protocol string       `json:"protocol"`
	Curve    string       `json:"curve"`
	NPublic  int          `json:"nPublic"`
	Alpha1   [3]string    `json:"vk_alpha_1"`
	Beta2    [3][2]string `json:"vk_beta_2"`
	Gamma2   [3][2]string `json:"vk_gamma_2"`
	Delta2   [3][2]string `json:"vk_delta_2"`
	IC       [][3]string  `json:"IC"`
}

func g1JSON(p *curve.G1Affine) [3]string {
	return [3]string{
		p.X.BigInt(new(big.Int)).String(),
		p.Y.BigInt(new(big.Int)).String(),
		"1",
	}
}

func g2JSON(p *curve.G2Affine) [3][2]string {
	return [3][2]string{
		{p.X.A0.BigInt(new(big.Int)).String(), p.X.A1.BigInt(new(big.Int)).String()},
		{p.Y.A0.BigInt(new(big.Int)).String(), p.Y.A1.BigInt(new(big.Int)).String()},
		{"1", "0"},
	}
}

// ExportVerifyingKey writes the verifying key in the JSON layout.
func ExportVerifyingKey(vk groth16.VerifyingKey, w io.Writer) error {
	bvk, ok := vk.(*groth16_bn254.VerifyingKey)
	if !ok {
		return fmt.Errorf("prover: export verifying key: not a bn254 key")
	}
	out := VerifyingKeyJSON{
		Protocol: "groth16",
		Curve:    "bn128",
		NPublic:  len(bvk.G1.K) - 1,
		Alpha1:   g1JSON(&bvk.G1.Alpha),
		Beta2:    g2JSON(&bvk.G2.Beta),
		Gamma2:   g2JSON(&bvk.G2.Gamma),
		Delta2:   g2JSON(&bvk.G2.Delta),
	}
	out.IC = make([][3]string, len(bvk.G1.K))
	for i := range bvk.G1.K {
		out.IC[i] = g1JSON(&bvk.G1.K[i])
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("prover: export verifying key: %w", err)
	}
	return nil
}

// ParseVerifyingKeyJSON reads the JSON layout back. The result is meant
// for handing to external verifiers, not for in-process verification;
// Load consumes the binary verifying key for that.
func ParseVerifyingKeyJSON(r io.Reader) (*VerifyingKeyJSON, error) {
	var vk VerifyingKeyJSON
	if err := json.NewDecoder(r).Decode(&vk); err != nil {
		return nil, fmt.Errorf("prover: parse verifying key json: %w", err)
	}
	if vk.Protocol != "groth16" {
		return nil, fmt.Errorf("prover: parse verifying key json: unsupported protocol %q", vk.Protocol)
	}
	return &vk, nil
}
