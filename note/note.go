// Package note holds the domain objects a depositor creates: the secret
// note and its public commitment, plus the encrypted payload format a
// sender ships to the recipient alongside a deposit.
package note

import (
	"errors"
	"fmt"
	"io"

	"github.com/holiman/uint256"

	"github.com/nightjar-zk/nightjar/config"
	"github.com/nightjar-zk/nightjar/field"
	"github.com/nightjar-zk/nightjar/poseidon"
)

// ErrAmountRange is returned when an amount does not fit the circuit's
// declared bit width.
var ErrAmountRange = errors.New("note: amount out of range")

// Note is a private note. Secret and Nullifier are chosen by the owner;
// RecipientBinding ties the note to its intended recipient.
type Note struct {
	Secret           field.Element
	Nullifier        field.Element
	Amount           *uint256.Int
	RecipientBinding field.Element
}

// New draws a fresh secret and nullifier from r and returns the note.
// A nullifier must never be reused across notes.
func New(r io.Reader, amount *uint256.Int, recipientBinding field.Element) (*Note, error) {
	if amount == nil || amount.BitLen() > config.AmountBits {
		return nil, fmt.Errorf("%w: %v", ErrAmountRange, amount)
	}
	secret, err := field.Random(r)
	if err != nil {
		return nil, err
	}
	nul, err := field.Random(r)
	if err != nil {
		return nil, err
	}
	return &Note{
		Secret:           secret,
		Nullifier:        nul,
		Amount:           amount,
		RecipientBinding: recipientBinding,
	}, nil
}

// AmountElement returns the amount as a field element.
func (n *Note) AmountElement() (field.Element, error) {
	if n.Amount == nil || n.Amount.BitLen() > config.AmountBits {
		return field.Element{}, fmt.Errorf("%w: %v", ErrAmountRange, n.Amount)
	}
	return field.FromUint64(n.Amount.Uint64()), nil
}

// Commitment returns Poseidon(secret, nullifier, amount, binding) — the
// tree leaf. Mirrors the in-circuit commitment opening bit-exactly.
func (n *Note) Commitment() (field.Element, error) {
	amt, err := n.AmountElement()
	if err != nil {
		return field.Element{}, err
	}
	return poseidon.Hash(n.Secret, n.Nullifier, amt, n.RecipientBinding), nil
}

// NullifierHash returns Poseidon(nullifier, secret) — the public
// spend-once identifier stored by the registry.
func (n *Note) NullifierHash() field.Element {
	return poseidon.Hash(n.Nullifier, n.Secret)
}
