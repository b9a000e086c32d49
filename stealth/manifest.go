package stealth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	_ "github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc" // registers MIMC_BN254
	tedwards "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards"
	"github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	gnarkhash "github.com/consensys/gnark-crypto/hash"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/blake2s"
)

var (
	// ErrManifestExpired means updated+ttl is in the past. An expired
	// manifest is invalid; there is no fallback to stale configuration.
	ErrManifestExpired = errors.New("stealth: manifest expired")
	// ErrManifestScheme marks an unsupported scheme, curve or version.
	ErrManifestScheme = errors.New("stealth: unsupported manifest scheme")
	// ErrManifestSignature marks a missing or invalid signature.
	ErrManifestSignature = errors.New("stealth: bad manifest signature")
)

// Supported manifest generator values.
const (
	ManifestVersion = 1
	SchemeECDHv1    = "ecdh-v1"
	CurveBabyJubjub = "bn254-twistededwards"
)

// Generator describes the stealth derivation parameters a recipient
// publishes.
type Generator struct {
	Curve     string `json:"curve"`
	BasePoint string `json:"base_point"` // hex, compressed point
	Scheme    string `json:"scheme"`
}

// Receiving is the receiving section of a manifest.
type Receiving struct {
	Subdomain string    `json:"subdomain"`
	Generator Generator `json:"stealth_generator"`
}

// Manifest is the signed, versioned privacy descriptor consumed for
// subdomain-rotation privacy. Updated is unix milliseconds; TTL is
// milliseconds from Updated.
type Manifest struct {
	Version   int           `json:"version"`
	Receiving Receiving     `json:"receiving"`
	Updated   int64         `json:"updated"`
	TTL       int64         `json:"ttl"`
	Signature hexutil.Bytes `json:"signature,omitempty"`
}

// ParseManifest decodes a manifest without validating it. Call
// Validate (or use Engine.ReceivingPoint) before deriving from it.
func ParseManifest(raw []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("stealth: parse manifest: %w", err)
	}
	return &m, nil
}

// Validate checks the manifest's version, scheme, curve and freshness
// at the given instant.
func (m *Manifest) Validate(now time.Time) error {
	if m.Version != ManifestVersion {
		return fmt.Errorf("%w: version %d", ErrManifestScheme, m.Version)
	}
	if m.Receiving.Generator.Scheme != SchemeECDHv1 {
		return fmt.Errorf("%w: scheme %q", ErrManifestScheme, m.Receiving.Generator.Scheme)
	}
	if m.Receiving.Generator.Curve != CurveBabyJubjub {
		return fmt.Errorf("%w: curve %q", ErrManifestScheme, m.Receiving.Generator.Curve)
	}
	if m.TTL <= 0 {
		return fmt.Errorf("%w: non-positive ttl", ErrManifestExpired)
	}
	expiry := time.UnixMilli(m.Updated + m.TTL)
	if !now.Before(expiry) {
		return fmt.Errorf("%w: at %s", ErrManifestExpired, expiry.UTC().Format(time.RFC3339))
	}
	return nil
}

// BasePoint decodes the published generator point.
func (m *Manifest) BasePoint() (tedwards.PointAffine, error) {
	var p tedwards.PointAffine
	b, err := hexutil.Decode(m.Receiving.Generator.BasePoint)
	if err != nil {
		return p, fmt.Errorf("stealth: manifest base point: %w", err)
	}
	if _, err := p.SetBytes(b); err != nil {
		return p, fmt.Errorf("stealth: manifest base point: %w", err)
	}
	if !p.IsOnCurve() {
		return p, ErrInvalidPoint
	}
	return p, nil
}

// digest reduces the unsigned manifest encoding to a canonical field
// element for EdDSA, which hashes with MiMC and needs canonical blocks.
func (m *Manifest) digest() ([]byte, error) {
	unsigned := *m
	unsigned.Signature = nil
	payload, err := json.Marshal(&unsigned)
	if err != nil {
		return nil, fmt.Errorf("stealth: manifest digest: %w", err)
	}
	sum := blake2s.Sum256(payload)
	var e fr.Element
	e.SetBytes(sum[:])
	return e.Marshal(), nil
}

// Sign signs the manifest in place with the publisher's EdDSA key.
func (m *Manifest) Sign(priv *eddsa.PrivateKey) error {
	msg, err := m.digest()
	if err != nil {
		return err
	}
	sig, err := priv.Sign(msg, gnarkhash.MIMC_BN254.New())
	if err != nil {
		return fmt.Errorf("stealth: sign manifest: %w", err)
	}
	m.Signature = sig
	return nil
}

// VerifySignature checks the manifest signature against the trusted
// publisher key.
func (m *Manifest) VerifySignature(pub *eddsa.PublicKey) error {
	if len(m.Signature) == 0 {
		return fmt.Errorf("%w: unsigned", ErrManifestSignature)
	}
	msg, err := m.digest()
	if err != nil {
		return err
	}
	ok, err := pub.Verify(m.Signature, msg, gnarkhash.MIMC_BN254.New())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrManifestSignature, err)
	}
	if !ok {
		return ErrManifestSignature
	}
	return nil
}

// ReceivingPoint validates the manifest against the engine clock (and
// the trusted key, when supplied) and returns the generator point to
// derive stealth addresses from. An expired or malformed manifest never
// yields a point.
func (e *Engine) ReceivingPoint(m *Manifest, trusted *eddsa.PublicKey) (tedwards.PointAffine, error) {
	if trusted != nil {
		if err := m.VerifySignature(trusted); err != nil {
			return tedwards.PointAffine{}, err
		}
	}
	if err := m.Validate(e.now()); err != nil {
		return tedwards.PointAffine{}, err
	}
	return m.BasePoint()
}
