// Package prover loads circuit artifacts and produces and verifies
// Groth16 proofs. Proving is CPU-bound and runs on a bounded worker
// pool; verification is read-only and safe for unbounded concurrency.
package prover

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/constraint/solver"
	"github.com/consensys/gnark/frontend"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/nightjar-zk/nightjar/circuits"
	"github.com/nightjar-zk/nightjar/config"
	"github.com/nightjar-zk/nightjar/field"
)

var (
	ErrCircuitNotLoaded = errors.New("prover: circuit not loaded")
	ErrArtifactMissing  = errors.New("prover: artifact file missing")
	ErrArtifactCorrupt  = errors.New("prover: artifact file corrupt")
	ErrUnsatisfied      = errors.New("prover: witness does not satisfy constraints")
	ErrTimeout          = errors.New("prover: operation timed out")
	ErrMalformedProof   = errors.New("prover: malformed proof")
)

// Witness is an assembled circuit witness, as built by the witness
// package.
type Witness interface {
	CircuitName() circuits.Name
	Assignment() frontend.Circuit
	PublicSignals() []field.Element
}

// Proof is a Groth16 proof together with the ordered public signal
// vector it was generated against. The proof is meaningless without
// that exact vector.
type Proof struct {
	Circuit       circuits.Name
	Proof         groth16.Proof
	PublicSignals []field.Element
}

// artifact bundles the per-circuit trusted-setup outputs. Immutable
// after loading; shared read-only across proof generations.
type artifact struct {
	cs constraint.ConstraintSystem
	pk groth16.ProvingKey
	vk groth16.VerifyingKey
}

// Service produces and verifies proofs. Construct one with New and
// pass it by reference; there is no package-level instance.
type Service struct {
	log      zerolog.Logger
	gnarkLog zerolog.Logger
	sem      *semaphore.Weighted

	mu   sync.RWMutex
	arts map[circuits.Name]*artifact
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger. The gnark solver logs through the
// same sink at debug level.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) {
		s.log = log
		s.gnarkLog = log.Level(zerolog.InfoLevel)
	}
}

// WithWorkers bounds how many proofs run concurrently.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n < 1 {
			n = 1
		}
		s.sem = semaphore.NewWeighted(int64(n))
	}
}

// New returns a Service with no circuits loaded.
func New(opts ...Option) *Service {
	s := &Service{
		log:      zerolog.Nop(),
		gnarkLog: zerolog.Nop(),
		sem:      semaphore.NewWeighted(int64(runtime.NumCPU())),
		arts:     make(map[circuits.Name]*artifact),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ArtifactPaths locates the three files of a circuit artifact.
type ArtifactPaths struct {
	ConstraintSystem string
	ProvingKey       string
	VerifyingKey     string
}

// DefaultArtifactPaths returns the conventional paths under dir for the
// named circuit.
func DefaultArtifactPaths(dir string, name circuits.Name) ArtifactPaths {
	base := filepath.Join(dir, string(name))
	return ArtifactPaths{
		ConstraintSystem: base + config.ExtConstraintSystem,
		ProvingKey:       base + config.ExtProvingKey,
		VerifyingKey:     base + config.ExtVerifyingKey,
	}
}

// Load reads a circuit's constraint system and keys from disk.
// Idempotent: loading an already-loaded circuit is a no-op. Missing
// files fail with ErrArtifactMissing, unreadable blobs with
// ErrArtifactCorrupt; neither leaves a partially-loaded circuit behind.
func (s *Service) Load(name circuits.Name, paths ArtifactPaths) error {
	if _, err := circuits.ParseName(string(name)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.arts[name]; ok {
		return nil
	}

	cs := groth16.NewCS(ecc.BN254)
	if err := readArtifact(paths.ConstraintSystem, cs); err != nil {
		return err
	}
	pk := groth16.NewProvingKey(ecc.BN254)
	if err := readArtifact(paths.ProvingKey, pk); err != nil {
		return err
	}
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if err := readArtifact(paths.VerifyingKey, vk); err != nil {
		return err
	}

	s.arts[name] = &artifact{cs: cs, pk: pk, vk: vk}
	s.log.Info().Str("circuit", string(name)).Msg("loaded circuit artifacts")
	return nil
}

func readArtifact(path string, dst io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrArtifactMissing, path)
		}
		return fmt.Errorf("prover: open artifact %s: %w", path, err)
	}
	defer f.Close()
	if _, err := dst.ReadFrom(bufio.NewReader(f)); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrArtifactCorrupt, path, err)
	}
	return nil
}

// Loaded reports whether the named circuit has artifacts in memory.
func (s *Service) Loaded(name circuits.Name) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.arts[name]
	return ok
}

func (s *Service) artifact(name circuits.Name) (*artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	art, ok := s.arts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCircuitNotLoaded, name)
	}
	return art, nil
}

// Prove solves the witness and produces a Groth16 proof on a worker
// slot. The caller bounds the operation through ctx: on timeout the
// call fails with ErrTimeout, on cancellation with the context error.
// An abandoned proof is discarded and leaves no state behind.
func (s *Service) Prove(ctx context.Context, w Witness) (*Proof, error) {
	name := w.CircuitName()
	art, err := s.artifact(name)
	if err != nil {
		return nil, err
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, ctxError(err)
	}
	defer s.sem.Release(1)

	full, err := frontend.NewWitness(w.Assignment(), ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsatisfied, err)
	}

	type result struct {
		proof groth16.Proof
		err   error
	}
	ch := make(chan result, 1)
	start := time.Now()
	go func() {
		proof, err := groth16.Prove(art.cs, art.pk, full,
			backend.WithSolverOptions(solver.WithLogger(s.gnarkLog)))
		ch <- result{proof, err}
	}()

	select {
	case <-ctx.Done():
		// The goroutine finishes on its own and its result is dropped;
		// no partial proof becomes visible.
		return nil, ctxError(ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsatisfied, r.err)
		}
		s.log.Info().
			Str("circuit", string(name)).
			Dur("took", time.Since(start)).
			Msg("generated proof")
		signals := make([]field.Element, len(w.PublicSignals()))
		copy(signals, w.PublicSignals())
		return &Proof{Circuit: name, Proof: r.proof, PublicSignals: signals}, nil
	}
}

// Verify checks a proof against the ordered public signals. Pure and
// side-effect-free; malformed input returns false, never a panic.
func (s *Service) Verify(name circuits.Name, proof *Proof, publicSignals []field.Element) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	if proof == nil || proof.Proof == nil {
		return false
	}
	art, err := s.artifact(name)
	if err != nil {
		return false
	}
	pub, err := circuits.PublicAssignment(name, publicSignals)
	if err != nil {
		return false
	}
	pw, err := frontend.NewWitness(pub, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false
	}
	return groth16.Verify(proof.Proof, art.vk, pw) == nil
}

func ctxError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
