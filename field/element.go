// Package field provides the scalar field element all commitment and
// hashing math is defined over: the BN254 scalar field Fr.
//
// Wire decoding is strict: byte and hex constructors reject non-canonical
// encodings (values >= the field modulus) instead of silently reducing
// them. Arithmetic is modular by construction.
package field

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// Size is the byte length of an encoded element.
const Size = fr.Bytes

var (
	ErrNonCanonical = errors.New("non-canonical field element encoding")
	ErrOutOfRange   = errors.New("value out of field range")
)

// Element is a BN254 scalar field element.
type Element fr.Element

// Zero returns the additive identity.
func Zero() Element {
	return Element{}
}

// One returns the multiplicative identity.
func One() Element {
	var e fr.Element
	e.SetOne()
	return Element(e)
}

// Modulus returns a copy of the field modulus.
func Modulus() *big.Int {
	return fr.Modulus()
}

// FromBytes decodes a big-endian byte slice of at most Size bytes.
// Returns ErrNonCanonical if the value is not strictly below the modulus.
func FromBytes(b []byte) (Element, error) {
	if len(b) > Size {
		return Element{}, fmt.Errorf("%w: %d bytes", ErrNonCanonical, len(b))
	}
	var buf [Size]byte
	copy(buf[Size-len(b):], b)
	var e fr.Element
	if err := e.SetBytesCanonical(buf[:]); err != nil {
		return Element{}, fmt.Errorf("%w: %v", ErrNonCanonical, err)
	}
	return Element(e), nil
}

// FromHex decodes a 0x-prefixed hex string.
func FromHex(s string) (Element, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return Element{}, fmt.Errorf("%w: %v", ErrNonCanonical, err)
	}
	return FromBytes(b)
}

// FromBig converts a non-negative big integer below the modulus.
func FromBig(v *big.Int) (Element, error) {
	if v == nil {
		return Element{}, fmt.Errorf("%w: nil", ErrOutOfRange)
	}
	if v.Sign() < 0 || v.Cmp(fr.Modulus()) >= 0 {
		return Element{}, fmt.Errorf("%w: %s", ErrOutOfRange, v)
	}
	var e fr.Element
	e.SetBigInt(v)
	return Element(e), nil
}

// FromUint64 converts a machine integer. Always canonical.
func FromUint64(v uint64) Element {
	var e fr.Element
	e.SetUint64(v)
	return Element(e)
}

// FromUint256 converts a uint256 value below the modulus.
func FromUint256(v *uint256.Int) (Element, error) {
	if v == nil {
		return Element{}, fmt.Errorf("%w: nil", ErrOutOfRange)
	}
	return FromBig(v.ToBig())
}

// FromAddress maps a 20-byte address into the field. Addresses are
// always below the modulus, so this cannot fail.
func FromAddress(a common.Address) Element {
	var e fr.Element
	e.SetBytes(a.Bytes())
	return Element(e)
}

// Random draws a uniformly distributed element from r.
func Random(r io.Reader) (Element, error) {
	v, err := rand.Int(r, fr.Modulus())
	if err != nil {
		return Element{}, fmt.Errorf("field: random element: %w", err)
	}
	var e fr.Element
	e.SetBigInt(v)
	return Element(e), nil
}

// Bytes returns the canonical big-endian encoding.
func (e Element) Bytes() [Size]byte {
	v := fr.Element(e)
	return v.Bytes()
}

// Big returns the element as a big integer.
func (e Element) Big() *big.Int {
	v := fr.Element(e)
	return v.BigInt(new(big.Int))
}

// Hex returns the 0x-prefixed 32-byte encoding.
func (e Element) Hex() string {
	b := e.Bytes()
	return hexutil.Encode(b[:])
}

func (e Element) String() string {
	return e.Hex()
}

// Equal reports whether two elements are identical.
func (e Element) Equal(o Element) bool {
	a, b := fr.Element(e), fr.Element(o)
	return a.Equal(&b)
}

// IsZero reports whether the element is the additive identity.
func (e Element) IsZero() bool {
	v := fr.Element(e)
	return v.IsZero()
}

// Add returns e + o mod r.
func (e Element) Add(o Element) Element {
	var out fr.Element
	a, b := fr.Element(e), fr.Element(o)
	out.Add(&a, &b)
	return Element(out)
}

// Sub returns e - o mod r.
func (e Element) Sub(o Element) Element {
	var out fr.Element
	a, b := fr.Element(e), fr.Element(o)
	out.Sub(&a, &b)
	return Element(out)
}

// Mul returns e * o mod r.
func (e Element) Mul(o Element) Element {
	var out fr.Element
	a, b := fr.Element(e), fr.Element(o)
	out.Mul(&a, &b)
	return Element(out)
}

// MarshalText encodes the element as 0x-prefixed hex.
func (e Element) MarshalText() ([]byte, error) {
	return []byte(e.Hex()), nil
}

// UnmarshalText decodes 0x-prefixed hex, rejecting non-canonical values.
func (e *Element) UnmarshalText(text []byte) error {
	v, err := FromHex(string(text))
	if err != nil {
		return err
	}
	*e = v
	return nil
}
