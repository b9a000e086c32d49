package field

import (
	crand "crypto/rand"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestFromBytesCanonical(t *testing.T) {
	e, err := FromBytes([]byte{0x2a})
	require.NoError(t, err)
	require.Equal(t, FromUint64(42), e)

	// The modulus itself is the smallest non-canonical value.
	mod := Modulus()
	_, err = FromBytes(mod.Bytes())
	require.ErrorIs(t, err, ErrNonCanonical)

	_, err = FromBytes(make([]byte, Size+1))
	require.ErrorIs(t, err, ErrNonCanonical)
}

func TestFromBig(t *testing.T) {
	_, err := FromBig(Modulus())
	require.ErrorIs(t, err, ErrOutOfRange)

	one, err := FromBig(big.NewInt(1))
	require.NoError(t, err)
	require.Equal(t, One(), one)

	_, err = FromBig(big.NewInt(-1))
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestFromUint256(t *testing.T) {
	v := uint256.NewInt(0).SetAllOne()
	_, err := FromUint256(v)
	require.ErrorIs(t, err, ErrOutOfRange, "max uint256 exceeds the field modulus")

	e, err := FromUint256(uint256.NewInt(7))
	require.NoError(t, err)
	require.Equal(t, FromUint64(7), e)
}

func TestHexRoundTrip(t *testing.T) {
	e, err := Random(crand.Reader)
	require.NoError(t, err)

	back, err := FromHex(e.Hex())
	require.NoError(t, err)
	require.True(t, e.Equal(back))
}

func TestJSONRoundTrip(t *testing.T) {
	e, err := Random(crand.Reader)
	require.NoError(t, err)

	b, err := json.Marshal(e)
	require.NoError(t, err)

	var back Element
	require.NoError(t, json.Unmarshal(b, &back))
	require.True(t, e.Equal(back))

	// Non-canonical wire values must be rejected, not reduced.
	require.Error(t, json.Unmarshal([]byte(`"0x30644e72e131a029b85045b68181585d2833e84879b9709143e1f593f0000001"`), &back))
}

// fixedReader yields a repeating byte, standing in for an injected RNG.
type fixedReader byte

func (f fixedReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(f)
	}
	return len(p), nil
}

func TestRandomUsesInjectedReader(t *testing.T) {
	a, err := Random(fixedReader(0x5a))
	require.NoError(t, err)
	b, err := Random(fixedReader(0x5a))
	require.NoError(t, err)
	require.True(t, a.Equal(b), "same entropy stream must give the same element")
	require.False(t, a.IsZero())

	c, err := Random(fixedReader(0x17))
	require.NoError(t, err)
	require.False(t, a.Equal(c))

	// Output stays canonical regardless of the stream.
	raw := a.Bytes()
	_, err = FromBytes(raw[:])
	require.NoError(t, err)
}

func TestFromAddress(t *testing.T) {
	addr := common.HexToAddress("0x1111111111111111111111111111111111111111")
	e := FromAddress(addr)
	require.Equal(t, addr.Big().String(), e.Big().String())
}

func TestArithmetic(t *testing.T) {
	a := FromUint64(10)
	b := FromUint64(4)
	require.Equal(t, FromUint64(14), a.Add(b))
	require.Equal(t, FromUint64(6), a.Sub(b))
	require.Equal(t, FromUint64(40), a.Mul(b))

	// Wrap-around stays in the field.
	require.Equal(t, Zero().Sub(One()).Add(One()), Zero())
}
