// Package poseidon is the native side of the in-circuit hash. It wraps
// the gnark-crypto Poseidon2 permutation over BN254 Fr in a
// Merkle-Damgard construction, matching the hasher the circuits build
// with NewPoseidon2FromParameters(2, 6, 50). The two must stay
// parameter-identical or proofs fail verification with no diagnostic.
package poseidon

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"

	"github.com/nightjar-zk/nightjar/field"
)

// Hash absorbs the inputs in order and returns the digest. Inputs are
// written as canonical 32-byte blocks, one per element, exactly like the
// in-circuit hasher consumes its variables.
func Hash(inputs ...field.Element) field.Element {
	h := poseidon2.NewMerkleDamgardHasher()
	for _, in := range inputs {
		b := in.Bytes()
		if _, err := h.Write(b[:]); err != nil {
			// Canonical bytes cannot be rejected; anything else is a bug.
			panic("poseidon: write: " + err.Error())
		}
	}
	out, err := field.FromBytes(h.Sum(nil))
	if err != nil {
		panic("poseidon: non-canonical digest: " + err.Error())
	}
	return out
}

// HashPair hashes an ordered (left, right) node pair. The caller decides
// the order from the Merkle path index bit.
func HashPair(left, right field.Element) field.Element {
	return Hash(left, right)
}
