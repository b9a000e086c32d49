// Package stealth derives one-time unlinkable recipient addresses via
// ECDH on the BN254 twisted Edwards curve (Baby Jubjub), encrypts
// payment metadata to them, and scans broadcast metadata on the
// recipient side.
//
// The engine is stateless apart from its entropy source; all operations
// are safe for concurrent use.
package stealth

import (
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	tedwards "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2s"
)

var (
	// ErrRngFailure means the entropy source failed. Key generation
	// aborts; there is no fallback to weak randomness.
	ErrRngFailure = errors.New("stealth: entropy source failure")
	// ErrInvalidPoint marks a public point that is not on the curve.
	ErrInvalidPoint = errors.New("stealth: point not on curve")
)

// Domain-separation keys for the keyed BLAKE2s derivations. At most 32
// bytes each.
var (
	addrDomain = []byte("nightjar/stealth-addr")
	tagDomain  = []byte("nightjar/stealth-tag")
)

// Engine performs stealth-address operations. The zero Option set uses
// crypto/rand and the wall clock; tests inject deterministic
// substitutes.
type Engine struct {
	rand  io.Reader
	now   func() time.Time
	log   zerolog.Logger
	curve tedwards.CurveParams
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand injects the entropy source.
func WithRand(r io.Reader) Option {
	return func(e *Engine) { e.rand = r }
}

// WithClock injects the time source used for manifest validation.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the engine's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New returns a ready Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		rand:  crand.Reader,
		now:   time.Now,
		log:   zerolog.Nop(),
		curve: tedwards.GetEdwardsCurve(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// KeyPair is an ephemeral scalar/point pair, generated per transaction
// and discarded afterwards.
type KeyPair struct {
	Private *big.Int
	Public  tedwards.PointAffine
}

// StealthAddress is a derived one-time recipient point.
type StealthAddress struct {
	Point tedwards.PointAffine
}

// String returns the base58check encoding of the address point.
func (a StealthAddress) String() string {
	return EncodePoint(&a.Point)
}

// GenerateKeyPair draws a scalar from the engine's entropy source and
// returns the pair. Also used for long-term scanning keys in tests and
// tooling; ephemeral use is the common case.
func (e *Engine) GenerateKeyPair() (*KeyPair, error) {
	for {
		s, err := crand.Int(e.rand, &e.curve.Order)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRngFailure, err)
		}
		if s.Sign() == 0 {
			continue
		}
		kp := &KeyPair{Private: s}
		kp.Public.ScalarMultiplication(&e.curve.Base, s)
		return kp, nil
	}
}

// GenerateEphemeralKeyPair is GenerateKeyPair under its protocol role:
// one fresh pair per payment, never persisted.
func (e *Engine) GenerateEphemeralKeyPair() (*KeyPair, error) {
	return e.GenerateKeyPair()
}

// sharedSecret computes ECDH(priv, pub) and hashes both coordinates of
// the resulting point into a 32-byte secret.
func (e *Engine) sharedSecret(priv *big.Int, pub *tedwards.PointAffine) ([]byte, error) {
	if !pub.IsOnCurve() {
		return nil, ErrInvalidPoint
	}
	var p tedwards.PointAffine
	p.ScalarMultiplication(pub, priv)
	if !p.IsOnCurve() {
		return nil, ErrInvalidPoint
	}
	h, err := blake2s.New256(nil)
	if err != nil {
		return nil, fmt.Errorf("stealth: blake2s: %w", err)
	}
	x := p.X.Bytes()
	y := p.Y.Bytes()
	h.Write(x[:])
	h.Write(y[:])
	return h.Sum(nil), nil
}

// tweakScalar maps a shared secret to a nonzero curve scalar with a
// keyed hash. Sender and recipient compute the same tweak from the same
// secret.
func (e *Engine) tweakScalar(shared []byte) (*big.Int, error) {
	h, err := blake2s.New256(addrDomain)
	if err != nil {
		return nil, fmt.Errorf("stealth: blake2s: %w", err)
	}
	h.Write(shared)
	t := new(big.Int).SetBytes(h.Sum(nil))
	t.Mod(t, &e.curve.Order)
	if t.Sign() == 0 {
		t.SetUint64(1)
	}
	return t, nil
}

// DeriveStealthAddress is the sender side: given the recipient's base
// (scanning) point and a fresh ephemeral private scalar, it returns the
// one-time address and the ECDH shared secret. Only the recipient's
// corresponding private scalar can recompute the same point.
func (e *Engine) DeriveStealthAddress(recipientBase *tedwards.PointAffine, ephemeralPriv *big.Int) (StealthAddress, []byte, error) {
	shared, err := e.sharedSecret(ephemeralPriv, recipientBase)
	if err != nil {
		return StealthAddress{}, nil, err
	}
	t, err := e.tweakScalar(shared)
	if err != nil {
		return StealthAddress{}, nil, err
	}
	var tweakPoint, addr tedwards.PointAffine
	tweakPoint.ScalarMultiplication(&e.curve.Base, t)
	addr.Add(recipientBase, &tweakPoint)
	return StealthAddress{Point: addr}, shared, nil
}

// RecoverStealthAddress is the recipient side: with the scanning
// private scalar and the sender's embedded ephemeral public key it
// recomputes the same address and shared secret the sender derived.
func (e *Engine) RecoverStealthAddress(recipientPriv *big.Int, ephemeralPub *tedwards.PointAffine) (StealthAddress, []byte, error) {
	shared, err := e.sharedSecret(recipientPriv, ephemeralPub)
	if err != nil {
		return StealthAddress{}, nil, err
	}
	t, err := e.tweakScalar(shared)
	if err != nil {
		return StealthAddress{}, nil, err
	}
	var base, tweakPoint, addr tedwards.PointAffine
	base.ScalarMultiplication(&e.curve.Base, recipientPriv)
	tweakPoint.ScalarMultiplication(&e.curve.Base, t)
	addr.Add(&base, &tweakPoint)
	return StealthAddress{Point: addr}, shared, nil
}

// DeriveStealthPrivateKey returns the private scalar controlling the
// stealth address: (recipientPriv + tweak) mod order.
func (e *Engine) DeriveStealthPrivateKey(recipientPriv *big.Int, ephemeralPub *tedwards.PointAffine) (*big.Int, error) {
	shared, err := e.sharedSecret(recipientPriv, ephemeralPub)
	if err != nil {
		return nil, err
	}
	t, err := e.tweakScalar(shared)
	if err != nil {
		return nil, err
	}
	s := new(big.Int).Add(recipientPriv, t)
	s.Mod(s, &e.curve.Order)
	return s, nil
}
