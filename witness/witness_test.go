package witness

import (
	crand "crypto/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/nightjar-zk/nightjar/field"
	"github.com/nightjar-zk/nightjar/merkle"
	"github.com/nightjar-zk/nightjar/note"
	"github.com/nightjar-zk/nightjar/poseidon"
)

var (
	recipient = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	relayer   = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func testNote(t *testing.T, amount uint64) *note.Note {
	t.Helper()
	n, err := note.New(crand.Reader, uint256.NewInt(amount), field.FromUint64(1))
	require.NoError(t, err)
	return n
}

func depositParams(t *testing.T, n *note.Note) DepositParams {
	t.Helper()
	return DepositParams{
		Secret:           n.Secret,
		Nullifier:        n.Nullifier,
		Amount:           n.Amount,
		RecipientBinding: n.RecipientBinding,
		Root:             field.FromUint64(99),
	}
}

func TestBuildDeposit(t *testing.T) {
	n := testNote(t, 100)
	p := depositParams(t, n)

	d, err := BuildDeposit(p)
	require.NoError(t, err)

	want, err := n.Commitment()
	require.NoError(t, err)
	require.True(t, d.Commitment.Equal(want))

	signals := d.PublicSignals()
	require.Len(t, signals, 3)
	require.True(t, signals[0].Equal(p.Root))
	require.True(t, signals[1].Equal(d.Commitment))
	require.True(t, signals[2].Equal(field.FromUint64(100)))
}

func TestBuildDepositMissingFields(t *testing.T) {
	n := testNote(t, 1)

	p := depositParams(t, n)
	p.Secret = field.Zero()
	_, err := BuildDeposit(p)
	require.ErrorIs(t, err, ErrMissingField)

	p = depositParams(t, n)
	p.Nullifier = field.Zero()
	_, err = BuildDeposit(p)
	require.ErrorIs(t, err, ErrMissingField)

	p = depositParams(t, n)
	p.Amount = nil
	_, err = BuildDeposit(p)
	require.ErrorIs(t, err, ErrMissingField)

	p = depositParams(t, n)
	p.Root = field.Zero()
	_, err = BuildDeposit(p)
	require.ErrorIs(t, err, ErrMissingField)
}

func TestBuildDepositUnboundNote(t *testing.T) {
	// A zero recipient binding is a valid unbound note, not a missing
	// field, and it still contributes to the commitment.
	n := testNote(t, 25)
	p := depositParams(t, n)
	p.RecipientBinding = field.Zero()

	d, err := BuildDeposit(p)
	require.NoError(t, err)
	require.True(t, d.Commitment.Equal(
		poseidon.Hash(n.Secret, n.Nullifier, field.FromUint64(25), field.Zero())))

	bound, err := BuildDeposit(depositParams(t, n))
	require.NoError(t, err)
	require.False(t, d.Commitment.Equal(bound.Commitment))
}

func TestBuildDepositAmountRange(t *testing.T) {
	n := testNote(t, 1)
	p := depositParams(t, n)
	p.Amount = new(uint256.Int).Lsh(uint256.NewInt(1), 64)
	_, err := BuildDeposit(p)
	require.ErrorIs(t, err, ErrValueRange)
}

func withdrawalSetup(t *testing.T, n *note.Note) merkle.Proof {
	t.Helper()
	tr := merkle.New()
	c, err := n.Commitment()
	require.NoError(t, err)
	idx, _, err := tr.Append(c)
	require.NoError(t, err)
	mp, err := tr.Prove(idx)
	require.NoError(t, err)
	return mp
}

func withdrawalParams(t *testing.T, n *note.Note, mp merkle.Proof) WithdrawalParams {
	t.Helper()
	return WithdrawalParams{
		Secret:           n.Secret,
		Nullifier:        n.Nullifier,
		Amount:           n.Amount,
		RecipientBinding: n.RecipientBinding,
		Proof:            mp,
		Recipient:        recipient,
		Relayer:          relayer,
		Fee:              uint256.NewInt(3),
		Refund:           uint256.NewInt(0),
	}
}

func TestBuildWithdrawal(t *testing.T) {
	n := testNote(t, 50)
	mp := withdrawalSetup(t, n)

	w, err := BuildWithdrawal(withdrawalParams(t, n, mp))
	require.NoError(t, err)
	require.True(t, w.NullifierHash.Equal(poseidon.Hash(n.Nullifier, n.Secret)))

	signals := w.PublicSignals()
	require.Len(t, signals, 6)
	require.True(t, signals[0].Equal(mp.Root))
	require.True(t, signals[1].Equal(w.NullifierHash))
	require.True(t, signals[2].Equal(field.FromAddress(recipient)))
	require.True(t, signals[3].Equal(field.FromAddress(relayer)))
	require.True(t, signals[4].Equal(field.FromUint64(3)))
	require.True(t, signals[5].Equal(field.FromUint64(0)))
}

func TestBuildWithdrawalCommitmentMismatch(t *testing.T) {
	// A Merkle proof for someone else's leaf must not be spendable
	// with our secret/nullifier.
	n := testNote(t, 50)
	other := testNote(t, 50)
	mp := withdrawalSetup(t, other)

	_, err := BuildWithdrawal(withdrawalParams(t, n, mp))
	require.ErrorIs(t, err, ErrCommitmentMismatch)
}

func TestBuildWithdrawalPathMismatch(t *testing.T) {
	n := testNote(t, 50)
	mp := withdrawalSetup(t, n)
	mp.Root = mp.Root.Add(field.One())

	_, err := BuildWithdrawal(withdrawalParams(t, n, mp))
	require.ErrorIs(t, err, ErrPathMismatch)
}

func TestBuildWithdrawalWrongDepth(t *testing.T) {
	n := testNote(t, 50)
	tr := merkle.New(merkle.WithDepth(4))
	c, err := n.Commitment()
	require.NoError(t, err)
	idx, _, err := tr.Append(c)
	require.NoError(t, err)
	mp, err := tr.Prove(idx)
	require.NoError(t, err)

	_, err = BuildWithdrawal(withdrawalParams(t, n, mp))
	require.ErrorIs(t, err, ErrPathMismatch)
}

func TestBuildWithdrawalFeeRange(t *testing.T) {
	n := testNote(t, 50)
	mp := withdrawalSetup(t, n)

	p := withdrawalParams(t, n, mp)
	p.Fee = new(uint256.Int).Lsh(uint256.NewInt(1), 64)
	_, err := BuildWithdrawal(p)
	require.ErrorIs(t, err, ErrValueRange)

	p = withdrawalParams(t, n, mp)
	p.Refund = new(uint256.Int).Lsh(uint256.NewInt(1), 65)
	_, err = BuildWithdrawal(p)
	require.ErrorIs(t, err, ErrValueRange)

	p = withdrawalParams(t, n, mp)
	p.Fee = nil
	_, err = BuildWithdrawal(p)
	require.ErrorIs(t, err, ErrMissingField)
}
