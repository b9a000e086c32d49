// Package pool wires the commitment tree, nullifier registry and proof
// service into the deposit and withdrawal control flows. Witness
// capture is the only section that touches tree or registry state;
// proving runs outside all locks on an already-captured witness.
package pool

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"github.com/nightjar-zk/nightjar/circuits"
	"github.com/nightjar-zk/nightjar/field"
	"github.com/nightjar-zk/nightjar/merkle"
	"github.com/nightjar-zk/nightjar/note"
	"github.com/nightjar-zk/nightjar/nullifier"
	"github.com/nightjar-zk/nightjar/prover"
	"github.com/nightjar-zk/nightjar/witness"
)

// ErrProofInvalid marks a withdrawal proof that fails verification.
var ErrProofInvalid = errors.New("pool: proof verification failed")

// Engine is the privacy-pool facade. Construct with New; all
// dependencies are injected, so tests run isolated instances.
type Engine struct {
	tree   *merkle.Tree
	spent  *nullifier.Registry
	prover *prover.Service
	log    zerolog.Logger
}

// New wires an engine from its parts.
func New(tree *merkle.Tree, spent *nullifier.Registry, prv *prover.Service, opts ...Option) *Engine {
	e := &Engine{
		tree:   tree,
		spent:  spent,
		prover: prv,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// Tree exposes the commitment tree (read paths).
func (e *Engine) Tree() *merkle.Tree {
	return e.tree
}

// Nullifiers exposes the spent-nullifier registry.
func (e *Engine) Nullifiers() *nullifier.Registry {
	return e.spent
}

// DepositReceipt is the outcome of a deposit: the appended leaf, the
// new root and the proof binding the commitment opening to that root.
type DepositReceipt struct {
	LeafIndex  uint64
	Root       field.Element
	Commitment field.Element
	Proof      *prover.Proof
}

// Deposit appends the note's commitment to the tree and proves the
// opening against the new root. The append is the only mutation; a
// failed or abandoned proof does not roll it back (the commitment is
// valid tree state regardless).
func (e *Engine) Deposit(ctx context.Context, n *note.Note) (*DepositReceipt, error) {
	commitment, err := n.Commitment()
	if err != nil {
		return nil, err
	}
	index, root, err := e.tree.Append(commitment)
	if err != nil {
		return nil, err
	}
	w, err := witness.BuildDeposit(witness.DepositParams{
		Secret:           n.Secret,
		Nullifier:        n.Nullifier,
		Amount:           n.Amount,
		RecipientBinding: n.RecipientBinding,
		Root:             root,
	})
	if err != nil {
		return nil, err
	}
	proof, err := e.prover.Prove(ctx, w)
	if err != nil {
		return nil, err
	}
	e.log.Info().Uint64("leaf", index).Str("root", root.Hex()).Msg("deposit proved")
	return &DepositReceipt{
		LeafIndex:  index,
		Root:       root,
		Commitment: commitment,
		Proof:      proof,
	}, nil
}

// WithdrawRequest describes a withdrawal to prove.
type WithdrawRequest struct {
	Note      *note.Note
	LeafIndex uint64
	Recipient common.Address
	Relayer   common.Address
	Fee       *uint256.Int
	Refund    *uint256.Int
}

// WithdrawReceipt is a proved withdrawal, ready for submission.
type WithdrawReceipt struct {
	Root          field.Element
	NullifierHash field.Element
	Proof         *prover.Proof
}

// Withdraw builds and proves a withdrawal. The local nullifier check
// runs first, mirroring the verifier, so no proving time is spent on a
// note that is already spent. The registry is not updated here — that
// happens on acceptance, via ApplyWithdrawal.
func (e *Engine) Withdraw(ctx context.Context, req WithdrawRequest) (*WithdrawReceipt, error) {
	nh := req.Note.NullifierHash()
	if e.spent.IsSpent(nh) {
		return nil, fmt.Errorf("%w: %s", nullifier.ErrNullifierReplayed, nh.Hex())
	}
	mproof, err := e.tree.Prove(req.LeafIndex)
	if err != nil {
		return nil, err
	}
	w, err := witness.BuildWithdrawal(witness.WithdrawalParams{
		Secret:           req.Note.Secret,
		Nullifier:        req.Note.Nullifier,
		Amount:           req.Note.Amount,
		RecipientBinding: req.Note.RecipientBinding,
		Proof:            mproof,
		Recipient:        req.Recipient,
		Relayer:          req.Relayer,
		Fee:              req.Fee,
		Refund:           req.Refund,
	})
	if err != nil {
		return nil, err
	}
	proof, err := e.prover.Prove(ctx, w)
	if err != nil {
		return nil, err
	}
	e.log.Info().Str("nullifierHash", nh.Hex()).Msg("withdrawal proved")
	return &WithdrawReceipt{
		Root:          mproof.Root,
		NullifierHash: nh,
		Proof:         proof,
	}, nil
}

// ApplyWithdrawal is the acceptance path a verifier runs: check the
// proof against its public signals, check the referenced root is (or
// was) a valid tree root, then atomically mark the nullifier spent.
// Two concurrent applications of the same withdrawal end with exactly
// one success.
func (e *Engine) ApplyWithdrawal(p *prover.Proof) error {
	if p == nil || p.Circuit != circuits.Withdraw {
		return ErrProofInvalid
	}
	want, err := circuits.Withdraw.NumPublicSignals()
	if err != nil {
		return err
	}
	if len(p.PublicSignals) != want {
		return fmt.Errorf("%w: expected %d public signals, got %d", ErrProofInvalid, want, len(p.PublicSignals))
	}
	root := p.PublicSignals[0]
	nh := p.PublicSignals[1]
	if !e.tree.KnownRoot(root) {
		return fmt.Errorf("%w: %s", merkle.ErrUnknownRoot, root.Hex())
	}
	if !e.prover.Verify(circuits.Withdraw, p, p.PublicSignals) {
		return ErrProofInvalid
	}
	if err := e.spent.MarkSpent(nh); err != nil {
		return err
	}
	e.log.Info().Str("nullifierHash", nh.Hex()).Msg("withdrawal applied")
	return nil
}
