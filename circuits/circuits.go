// Package circuits defines the fixed circuit family: the deposit
// circuit (commitment opening) and the withdrawal circuit (commitment
// opening + Merkle inclusion + nullifier hash).
//
// Both circuits hash with Poseidon2 over BN254 using explicit
// parameters (width 2, 6 full rounds, 50 partial rounds) wrapped in a
// Merkle-Damgard construction. These are the gnark-crypto native BN254
// defaults; the native poseidon package must produce identical digests
// or every proof fails verification.
package circuits

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	stdhash "github.com/consensys/gnark/std/hash"
	"github.com/consensys/gnark/std/permutation/poseidon2"

	"github.com/nightjar-zk/nightjar/config"
	"github.com/nightjar-zk/nightjar/field"
)

// ErrUnknownCircuit is returned for circuit names outside the fixed
// family.
var ErrUnknownCircuit = errors.New("circuits: unknown circuit")

// Name identifies a circuit in the fixed family.
type Name string

const (
	Deposit  Name = config.CircuitDeposit
	Withdraw Name = config.CircuitWithdraw
)

// ParseName validates a circuit name string.
func ParseName(s string) (Name, error) {
	switch Name(s) {
	case Deposit, Withdraw:
		return Name(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCircuit, s)
}

// NumPublicSignals returns the length of the circuit's ordered public
// signal vector.
func (n Name) NumPublicSignals() (int, error) {
	switch n {
	case Deposit:
		return 3, nil
	case Withdraw:
		return 6, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCircuit, n)
}

// newHasher builds the in-circuit Poseidon2 hasher. Parameters are
// pinned explicitly rather than taken from the std defaults, which for
// BN254 do not match the native gnark-crypto hasher.
func newHasher(api frontend.API) (stdhash.FieldHasher, error) {
	perm, err := poseidon2.NewPoseidon2FromParameters(api, 2, 6, 50)
	if err != nil {
		return nil, err
	}
	return stdhash.NewMerkleDamgardHasher(api, perm, 0), nil
}

// blank returns an unassigned circuit instance for compilation.
func blank(name Name) (frontend.Circuit, error) {
	switch name {
	case Deposit:
		return &DepositCircuit{}, nil
	case Withdraw:
		return &WithdrawCircuit{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCircuit, name)
}

// Compile builds the R1CS constraint system for the named circuit. In
// gnark the compiled system doubles as the witness-generation program:
// the solver derives the full witness from it.
func Compile(name Name) (constraint.ConstraintSystem, error) {
	c, err := blank(name)
	if err != nil {
		return nil, err
	}
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, c)
	if err != nil {
		return nil, fmt.Errorf("circuits: compile %s: %w", name, err)
	}
	return ccs, nil
}

// PublicAssignment maps an ordered public-signal vector back into a
// circuit assignment holding only public values, for verification.
// The ordering is part of the protocol: a proof is meaningless without
// the exact vector it was generated against.
func PublicAssignment(name Name, signals []field.Element) (frontend.Circuit, error) {
	want, err := name.NumPublicSignals()
	if err != nil {
		return nil, err
	}
	if len(signals) != want {
		return nil, fmt.Errorf("circuits: %s expects %d public signals, got %d", name, want, len(signals))
	}
	switch name {
	case Deposit:
		return &DepositCircuit{
			Root:       signals[0].Big(),
			Commitment: signals[1].Big(),
			Amount:     signals[2].Big(),
		}, nil
	case Withdraw:
		return &WithdrawCircuit{
			Root:          signals[0].Big(),
			NullifierHash: signals[1].Big(),
			Recipient:     signals[2].Big(),
			Relayer:       signals[3].Big(),
			Fee:           signals[4].Big(),
			Refund:        signals[5].Big(),
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCircuit, name)
}
