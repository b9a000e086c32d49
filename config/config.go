// Package config holds the protocol constants shared by the commitment
// tree, the circuits and the witness builder. Changing any of these
// invalidates previously generated proving/verifying keys.
package config

const (
	// TreeDepth is the fixed depth of the commitment Merkle tree.
	// The withdrawal circuit is compiled against this depth.
	TreeDepth = 20

	// RootHistory is how many past roots the tree manager retains for
	// withdrawal root checks, in addition to the current root.
	RootHistory = 50

	// AmountBits bounds note amounts and the fee/refund public inputs.
	// The circuits range-check against the same width.
	AmountBits = 64

	// Circuit names. These double as artifact file basenames.
	CircuitDeposit  = "deposit"
	CircuitWithdraw = "withdraw"

	// Artifact file extensions, per circuit name.
	ExtConstraintSystem = ".r1cs"
	ExtProvingKey       = ".pk"
	ExtVerifyingKey     = ".vk"
	ExtVerifyingKeyJSON = ".vk.json"
)
