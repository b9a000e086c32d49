package circuits

import (
	"github.com/consensys/gnark/frontend"

	"github.com/nightjar-zk/nightjar/config"
)

// WithdrawCircuit proves a valid spend: the prover knows the opening of
// a commitment included in the tree under Root, and NullifierHash is
// the nullifier hash of that commitment's nullifier.
//
// Public signal order: [Root, NullifierHash, Recipient, Relayer, Fee,
// Refund]. Recipient and relayer are squared into the system so a
// relayer cannot swap them after proof generation.
type WithdrawCircuit struct {
	Root          frontend.Variable `gnark:",public"`
	NullifierHash frontend.Variable `gnark:",public"`
	Recipient     frontend.Variable `gnark:",public"`
	Relayer       frontend.Variable `gnark:",public"`
	Fee           frontend.Variable `gnark:",public"`
	Refund        frontend.Variable `gnark:",public"`

	Secret           frontend.Variable
	Nullifier        frontend.Variable
	Amount           frontend.Variable
	RecipientBinding frontend.Variable
	PathElements     [config.TreeDepth]frontend.Variable
	PathIndices      [config.TreeDepth]frontend.Variable
}

// Define implements frontend.Circuit.
func (c *WithdrawCircuit) Define(api frontend.API) error {
	h, err := newHasher(api)
	if err != nil {
		return err
	}

	// Commitment opening.
	h.Write(c.Secret, c.Nullifier, c.Amount, c.RecipientBinding)
	commitment := h.Sum()

	// Nullifier hash.
	h.Reset()
	h.Write(c.Nullifier, c.Secret)
	api.AssertIsEqual(c.NullifierHash, h.Sum())

	// Merkle path replay: parent = Poseidon(left, right), order chosen
	// by the path index bit. Must stay bit-exact with the native tree.
	cur := commitment
	for l := 0; l < config.TreeDepth; l++ {
		bit := c.PathIndices[l]
		api.AssertIsBoolean(bit)
		sib := c.PathElements[l]
		left := api.Select(bit, sib, cur)
		right := api.Select(bit, cur, sib)
		h.Reset()
		h.Write(left, right)
		cur = h.Sum()
	}
	api.AssertIsEqual(c.Root, cur)

	// Range checks, matching the witness builder's local caps.
	api.ToBinary(c.Amount, config.AmountBits)
	api.ToBinary(c.Fee, config.AmountBits)
	api.ToBinary(c.Refund, config.AmountBits)

	// Anti-malleability binding of the remaining public inputs.
	api.Mul(c.Recipient, c.Recipient)
	api.Mul(c.Relayer, c.Relayer)
	return nil
}
