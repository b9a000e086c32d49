package prover_test

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/nightjar-zk/nightjar/circuits"
	"github.com/nightjar-zk/nightjar/config"
	"github.com/nightjar-zk/nightjar/field"
	"github.com/nightjar-zk/nightjar/note"
	"github.com/nightjar-zk/nightjar/prover"
	"github.com/nightjar-zk/nightjar/witness"
)

// The deposit circuit is bootstrapped once and shared across the suite;
// Groth16 setup is too slow to repeat per test.
var (
	depositOnce sync.Once
	depositDir  string
	depositSvc  *prover.Service
	depositErr  error
)

func depositService(t *testing.T) (*prover.Service, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("groth16 setup is slow")
	}
	depositOnce.Do(func() {
		depositDir, depositErr = os.MkdirTemp("", "nightjar-artifacts-")
		if depositErr != nil {
			return
		}
		depositSvc = prover.New(prover.WithWorkers(2))
		depositErr = depositSvc.Bootstrap(circuits.Deposit, depositDir)
	})
	require.NoError(t, depositErr)
	return depositSvc, depositDir
}

func depositWitness(t *testing.T) *witness.Deposit {
	t.Helper()
	n, err := note.New(crand.Reader, uint256.NewInt(1000), field.FromUint64(3))
	require.NoError(t, err)
	d, err := witness.BuildDeposit(witness.DepositParams{
		Secret:           n.Secret,
		Nullifier:        n.Nullifier,
		Amount:           n.Amount,
		RecipientBinding: n.RecipientBinding,
		Root:             field.FromUint64(5),
	})
	require.NoError(t, err)
	return d
}

func TestLoadMissingArtifacts(t *testing.T) {
	s := prover.New()
	err := s.Load(circuits.Deposit, prover.DefaultArtifactPaths(t.TempDir(), circuits.Deposit))
	require.ErrorIs(t, err, prover.ErrArtifactMissing)
	require.False(t, s.Loaded(circuits.Deposit))
}

func TestLoadCorruptArtifact(t *testing.T) {
	dir := t.TempDir()
	paths := prover.DefaultArtifactPaths(dir, circuits.Deposit)
	require.NoError(t, os.WriteFile(paths.ConstraintSystem, []byte("not a constraint system"), 0o644))

	s := prover.New()
	err := s.Load(circuits.Deposit, paths)
	require.ErrorIs(t, err, prover.ErrArtifactCorrupt)
}

func TestProveUnloadedCircuit(t *testing.T) {
	s := prover.New()
	_, err := s.Prove(context.Background(), depositWitness(t))
	require.ErrorIs(t, err, prover.ErrCircuitNotLoaded)
}

func TestProveAndVerify(t *testing.T) {
	s, _ := depositService(t)
	w := depositWitness(t)

	p, err := s.Prove(context.Background(), w)
	require.NoError(t, err)
	require.Equal(t, circuits.Deposit, p.Circuit)
	require.Len(t, p.PublicSignals, 3)

	require.True(t, s.Verify(circuits.Deposit, p, p.PublicSignals))

	// Any mutation of the public vector invalidates the proof.
	mutated := make([]field.Element, len(p.PublicSignals))
	copy(mutated, p.PublicSignals)
	mutated[1] = mutated[1].Add(field.One())
	require.False(t, s.Verify(circuits.Deposit, p, mutated))

	require.False(t, s.Verify(circuits.Deposit, p, p.PublicSignals[:2]))
	require.False(t, s.Verify(circuits.Withdraw, p, p.PublicSignals))
	require.False(t, s.Verify(circuits.Deposit, nil, p.PublicSignals))
}

func TestProveCancelledContext(t *testing.T) {
	s, _ := depositService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Prove(ctx, depositWitness(t))
	require.ErrorIs(t, err, context.Canceled)
}

func TestProveDeadline(t *testing.T) {
	s, _ := depositService(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()

	_, err := s.Prove(ctx, depositWitness(t))
	require.ErrorIs(t, err, prover.ErrTimeout)
}

func TestLoadFromBootstrappedDir(t *testing.T) {
	_, dir := depositService(t)

	fresh := prover.New()
	require.NoError(t, fresh.Load(circuits.Deposit, prover.DefaultArtifactPaths(dir, circuits.Deposit)))
	require.True(t, fresh.Loaded(circuits.Deposit))

	p, err := fresh.Prove(context.Background(), depositWitness(t))
	require.NoError(t, err)
	require.True(t, fresh.Verify(circuits.Deposit, p, p.PublicSignals))
}

func TestCalldataRoundTrip(t *testing.T) {
	s, _ := depositService(t)
	p, err := s.Prove(context.Background(), depositWitness(t))
	require.NoError(t, err)

	words, err := prover.EncodeCalldata(p)
	require.NoError(t, err)
	for i, w := range words {
		require.NotNil(t, w, "word %d", i)
	}

	decoded, err := prover.DecodeCalldata(words)
	require.NoError(t, err)
	restored := &prover.Proof{Circuit: p.Circuit, Proof: decoded, PublicSignals: p.PublicSignals}
	require.True(t, s.Verify(circuits.Deposit, restored, p.PublicSignals))

	hexWords := words.Hex()
	back, err := prover.CalldataFromHex(hexWords)
	require.NoError(t, err)
	for i := range words {
		require.Zero(t, words[i].Cmp(back[i]), "word %d", i)
	}
}

func TestDecodeCalldataRejectsBadWords(t *testing.T) {
	s, _ := depositService(t)
	p, err := s.Prove(context.Background(), depositWitness(t))
	require.NoError(t, err)
	words, err := prover.EncodeCalldata(p)
	require.NoError(t, err)

	// Out of field range.
	tampered := words
	tampered[0] = new(big.Int).Lsh(big.NewInt(1), 256)
	_, err = prover.DecodeCalldata(tampered)
	require.ErrorIs(t, err, prover.ErrMalformedProof)

	// In range but off the curve.
	tampered = words
	tampered[0] = new(big.Int).Add(words[1], big.NewInt(1))
	_, err = prover.DecodeCalldata(tampered)
	require.ErrorIs(t, err, prover.ErrMalformedProof)
}

func TestProofRoundTrip(t *testing.T) {
	s, _ := depositService(t)
	p, err := s.Prove(context.Background(), depositWitness(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, prover.WriteProof(&buf, p))

	back, err := prover.ReadProof(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, p.Circuit, back.Circuit)
	require.True(t, s.Verify(circuits.Deposit, back, back.PublicSignals))
}

func TestReadProofRejectsGarbage(t *testing.T) {
	_, err := prover.ReadProof(bytes.NewReader([]byte("{not json")))
	require.ErrorIs(t, err, prover.ErrMalformedProof)

	_, err = prover.ReadProof(bytes.NewReader([]byte(`{"circuit":"deposit","proof":"0x00","publicSignals":[]}`)))
	require.ErrorIs(t, err, prover.ErrMalformedProof)
}

func TestJobSubmitWait(t *testing.T) {
	s, _ := depositService(t)
	j := s.Submit(context.Background(), depositWitness(t))
	require.NotEqual(t, "00000000-0000-0000-0000-000000000000", j.ID.String())

	p, err := j.Wait(context.Background())
	require.NoError(t, err)
	require.True(t, s.Verify(circuits.Deposit, p, p.PublicSignals))

	<-j.Done()
}

func TestVerifyingKeyJSONExport(t *testing.T) {
	_, dir := depositService(t)

	f, err := os.Open(filepath.Join(dir, string(circuits.Deposit)+config.ExtVerifyingKeyJSON))
	require.NoError(t, err)
	defer f.Close()

	vk, err := prover.ParseVerifyingKeyJSON(f)
	require.NoError(t, err)
	require.Equal(t, "groth16", vk.Protocol)
	require.Equal(t, "bn128", vk.Curve)
	require.Equal(t, 3, vk.NPublic)
	require.Len(t, vk.IC, 4)
}
