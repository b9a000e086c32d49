package witness

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/nightjar-zk/nightjar/circuits"
	"github.com/nightjar-zk/nightjar/config"
	"github.com/nightjar-zk/nightjar/field"
	"github.com/nightjar-zk/nightjar/merkle"
	"github.com/nightjar-zk/nightjar/poseidon"
)

// WithdrawalParams are the inputs to a withdrawal witness.
type WithdrawalParams struct {
	Secret           field.Element
	Nullifier        field.Element
	Amount           *uint256.Int
	RecipientBinding field.Element

	Proof     merkle.Proof
	Recipient common.Address
	Relayer   common.Address
	Fee       *uint256.Int
	Refund    *uint256.Int
}

// Withdrawal is an assembled withdrawal witness: the private assignment
// plus the ordered public signals
// [merkleRoot, nullifierHash, recipient, relayer, fee, refund].
type Withdrawal struct {
	NullifierHash field.Element

	assignment *circuits.WithdrawCircuit
	signals    []field.Element
}

// BuildWithdrawal recomputes the commitment from the note opening,
// asserts it equals the Merkle proof's leaf, computes the nullifier
// hash and packages everything in circuit order. Every check here
// mirrors a circuit constraint so an unprovable witness is rejected
// before proving time is spent.
func BuildWithdrawal(p WithdrawalParams) (*Withdrawal, error) {
	if p.Secret.IsZero() {
		return nil, fmt.Errorf("%w: secret", ErrMissingField)
	}
	if p.Nullifier.IsZero() {
		return nil, fmt.Errorf("%w: nullifier", ErrMissingField)
	}
	if p.Amount == nil {
		return nil, fmt.Errorf("%w: amount", ErrMissingField)
	}
	if p.Fee == nil {
		return nil, fmt.Errorf("%w: fee", ErrMissingField)
	}
	if p.Refund == nil {
		return nil, fmt.Errorf("%w: refund", ErrMissingField)
	}
	if len(p.Proof.PathElements) != config.TreeDepth || len(p.Proof.PathIndices) != config.TreeDepth {
		return nil, fmt.Errorf("%w: merkle proof depth %d, circuit expects %d",
			ErrPathMismatch, len(p.Proof.PathElements), config.TreeDepth)
	}
	amount, err := amountElement(p.Amount, "amount")
	if err != nil {
		return nil, err
	}
	fee, err := amountElement(p.Fee, "fee")
	if err != nil {
		return nil, err
	}
	refund, err := amountElement(p.Refund, "refund")
	if err != nil {
		return nil, err
	}

	commitment := poseidon.Hash(p.Secret, p.Nullifier, amount, p.RecipientBinding)
	if !commitment.Equal(p.Proof.Leaf) {
		return nil, fmt.Errorf("%w: computed %s, leaf %s",
			ErrCommitmentMismatch, commitment.Hex(), p.Proof.Leaf.Hex())
	}
	if !p.Proof.Verify() {
		return nil, ErrPathMismatch
	}
	nullifierHash := poseidon.Hash(p.Nullifier, p.Secret)

	recipient := field.FromAddress(p.Recipient)
	relayer := field.FromAddress(p.Relayer)

	assignment := &circuits.WithdrawCircuit{
		Root:             p.Proof.Root.Big(),
		NullifierHash:    nullifierHash.Big(),
		Recipient:        recipient.Big(),
		Relayer:          relayer.Big(),
		Fee:              fee.Big(),
		Refund:           refund.Big(),
		Secret:           p.Secret.Big(),
		Nullifier:        p.Nullifier.Big(),
		Amount:           amount.Big(),
		RecipientBinding: p.RecipientBinding.Big(),
	}
	for l := 0; l < config.TreeDepth; l++ {
		assignment.PathElements[l] = p.Proof.PathElements[l].Big()
		assignment.PathIndices[l] = uint64(p.Proof.PathIndices[l])
	}

	return &Withdrawal{
		NullifierHash: nullifierHash,
		assignment:    assignment,
		signals: []field.Element{
			p.Proof.Root, nullifierHash, recipient, relayer, fee, refund,
		},
	}, nil
}

// CircuitName returns the circuit this witness targets.
func (w *Withdrawal) CircuitName() circuits.Name {
	return circuits.Withdraw
}

// Assignment returns the full circuit assignment.
func (w *Withdrawal) Assignment() frontend.Circuit {
	return w.assignment
}

// PublicSignals returns the ordered public signal vector.
func (w *Withdrawal) PublicSignals() []field.Element {
	return w.signals
}
