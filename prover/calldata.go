package prover

import (
	"fmt"
	"math/big"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/consensys/gnark/backend/groth16"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// CalldataWords is the number of base-field words in the on-chain proof
// encoding.
const CalldataWords = 8

// Calldata is the verifier contract's proof layout:
//
//	[A.x, A.y, B.x1, B.x0, B.y1, B.y0, C.x, C.y]
//
// The B point's coordinate pairs are swapped (x1 before x0) — that
// ordering is mandated by the contract ABI and preserved exactly in
// both directions.
type Calldata [CalldataWords]*big.Int

// EncodeCalldata flattens a Groth16 proof to the contract layout.
// Only commitment-free proofs fit the 8-word layout; our circuit family
// produces no commitments.
func EncodeCalldata(p *Proof) (Calldata, error) {
	var out Calldata
	if p == nil {
		return out, fmt.Errorf("%w: nil proof", ErrMalformedProof)
	}
	bp, ok := p.Proof.(*groth16_bn254.Proof)
	if !ok {
		return out, fmt.Errorf("%w: not a bn254 groth16 proof", ErrMalformedProof)
	}
	if len(bp.Commitments) != 0 {
		return out, fmt.Errorf("%w: proof carries commitments", ErrMalformedProof)
	}
	out[0] = bp.Ar.X.BigInt(new(big.Int))
	out[1] = bp.Ar.Y.BigInt(new(big.Int))
	out[2] = bp.Bs.X.A1.BigInt(new(big.Int))
	out[3] = bp.Bs.X.A0.BigInt(new(big.Int))
	out[4] = bp.Bs.Y.A1.BigInt(new(big.Int))
	out[5] = bp.Bs.Y.A0.BigInt(new(big.Int))
	out[6] = bp.Krs.X.BigInt(new(big.Int))
	out[7] = bp.Krs.Y.BigInt(new(big.Int))
	return out, nil
}

// DecodeCalldata is the exact inverse of EncodeCalldata. Words outside
// the base field or points off the curve fail with ErrMalformedProof.
func DecodeCalldata(words Calldata) (groth16.Proof, error) {
	var coords [CalldataWords]fp.Element
	for i, w := range words {
		if w == nil || w.Sign() < 0 || w.Cmp(fp.Modulus()) >= 0 {
			return nil, fmt.Errorf("%w: word %d out of field range", ErrMalformedProof, i)
		}
		coords[i].SetBigInt(w)
	}
	bp := &groth16_bn254.Proof{}
	bp.Ar.X, bp.Ar.Y = coords[0], coords[1]
	bp.Bs.X.A1, bp.Bs.X.A0 = coords[2], coords[3]
	bp.Bs.Y.A1, bp.Bs.Y.A0 = coords[4], coords[5]
	bp.Krs.X, bp.Krs.Y = coords[6], coords[7]

	if !pointOnG1(&bp.Ar) || !pointOnG1(&bp.Krs) {
		return nil, fmt.Errorf("%w: G1 point not on curve", ErrMalformedProof)
	}
	if !bp.Bs.IsOnCurve() || !bp.Bs.IsInSubGroup() {
		return nil, fmt.Errorf("%w: G2 point not in subgroup", ErrMalformedProof)
	}
	return bp, nil
}

func pointOnG1(p *curve.G1Affine) bool {
	return p.IsOnCurve() && p.IsInSubGroup()
}

// Hex returns the calldata as 0x-prefixed 32-byte words.
func (c Calldata) Hex() [CalldataWords]string {
	var out [CalldataWords]string
	for i, w := range c {
		out[i] = hexutil.Encode(w.FillBytes(make([]byte, 32)))
	}
	return out
}

// CalldataFromHex parses the hex form produced by Hex.
func CalldataFromHex(words [CalldataWords]string) (Calldata, error) {
	var out Calldata
	for i, s := range words {
		b, err := hexutil.Decode(s)
		if err != nil {
			return out, fmt.Errorf("%w: word %d: %v", ErrMalformedProof, i, err)
		}
		out[i] = new(big.Int).SetBytes(b)
	}
	return out, nil
}
