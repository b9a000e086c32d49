package witness

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/holiman/uint256"

	"github.com/nightjar-zk/nightjar/circuits"
	"github.com/nightjar-zk/nightjar/config"
	"github.com/nightjar-zk/nightjar/field"
	"github.com/nightjar-zk/nightjar/poseidon"
)

// DepositParams are the inputs to a deposit witness.
type DepositParams struct {
	Secret           field.Element
	Nullifier        field.Element
	Amount           *uint256.Int
	RecipientBinding field.Element
	// Root is the tree root after appending the commitment.
	Root field.Element
}

// Deposit is an assembled deposit witness: the private assignment plus
// the ordered public signals [root, commitment, amount].
type Deposit struct {
	Commitment field.Element

	assignment *circuits.DepositCircuit
	signals    []field.Element
}

// BuildDeposit computes the commitment and packages the assignment.
// Fails fast on absent inputs and out-of-range amounts. A zero
// RecipientBinding is valid: it denotes a note not tied to a
// particular recipient, and the zero value still enters the
// commitment hash.
func BuildDeposit(p DepositParams) (*Deposit, error) {
	if p.Secret.IsZero() {
		return nil, fmt.Errorf("%w: secret", ErrMissingField)
	}
	if p.Nullifier.IsZero() {
		return nil, fmt.Errorf("%w: nullifier", ErrMissingField)
	}
	if p.Amount == nil {
		return nil, fmt.Errorf("%w: amount", ErrMissingField)
	}
	if p.Root.IsZero() {
		return nil, fmt.Errorf("%w: root", ErrMissingField)
	}
	amount, err := amountElement(p.Amount, "amount")
	if err != nil {
		return nil, err
	}

	commitment := poseidon.Hash(p.Secret, p.Nullifier, amount, p.RecipientBinding)
	return &Deposit{
		Commitment: commitment,
		assignment: &circuits.DepositCircuit{
			Root:             p.Root.Big(),
			Commitment:       commitment.Big(),
			Amount:           amount.Big(),
			Secret:           p.Secret.Big(),
			Nullifier:        p.Nullifier.Big(),
			RecipientBinding: p.RecipientBinding.Big(),
		},
		signals: []field.Element{p.Root, commitment, amount},
	}, nil
}

// CircuitName returns the circuit this witness targets.
func (d *Deposit) CircuitName() circuits.Name {
	return circuits.Deposit
}

// Assignment returns the full circuit assignment.
func (d *Deposit) Assignment() frontend.Circuit {
	return d.assignment
}

// PublicSignals returns the ordered public signal vector.
func (d *Deposit) PublicSignals() []field.Element {
	return d.signals
}

// amountElement converts a value after enforcing the circuit's bit cap.
func amountElement(v *uint256.Int, name string) (field.Element, error) {
	if v.BitLen() > config.AmountBits {
		return field.Element{}, fmt.Errorf("%w: %s %s exceeds %d bits", ErrValueRange, name, v.Dec(), config.AmountBits)
	}
	return field.FromUint64(v.Uint64()), nil
}
