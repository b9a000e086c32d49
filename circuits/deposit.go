package circuits

import (
	"github.com/consensys/gnark/frontend"

	"github.com/nightjar-zk/nightjar/config"
)

// DepositCircuit proves knowledge of a commitment opening:
// Commitment = Poseidon(Secret, Nullifier, Amount, RecipientBinding),
// with the amount range-checked to config.AmountBits.
//
// Public signal order: [Root, Commitment, Amount].
type DepositCircuit struct {
	Root       frontend.Variable `gnark:",public"`
	Commitment frontend.Variable `gnark:",public"`
	Amount     frontend.Variable `gnark:",public"`

	Secret           frontend.Variable
	Nullifier        frontend.Variable
	RecipientBinding frontend.Variable
}

// Define implements frontend.Circuit.
func (c *DepositCircuit) Define(api frontend.API) error {
	h, err := newHasher(api)
	if err != nil {
		return err
	}
	h.Write(c.Secret, c.Nullifier, c.Amount, c.RecipientBinding)
	api.AssertIsEqual(c.Commitment, h.Sum())

	// Amount must fit the declared bit width. Bit decomposition keeps
	// the proof free of commitments, which the calldata layout requires.
	api.ToBinary(c.Amount, config.AmountBits)

	// Bind the root into the constraint system so the proof commits to
	// the tree state it was generated against.
	api.Mul(c.Root, c.Root)
	return nil
}
