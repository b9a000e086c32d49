package stealth

import (
	"iter"
	"math/big"

	tedwards "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards"
	"github.com/holiman/uint256"
)

// Received is a payment recovered by scanning.
type Received struct {
	// Index is the position of the matched entry in the scanned list.
	Index int
	// Amount is the decrypted payment amount.
	Amount *uint256.Int
	// Address is the stealth address the payment was sent to.
	Address StealthAddress
	// SharedSecret is the recomputed ECDH secret, needed to spend.
	SharedSecret []byte
}

// Scan lazily walks candidate metadata and yields the entries addressed
// to the scanning key. For each entry the candidate shared secret is
// recomputed from the embedded ephemeral public key, matched against
// the stealth tag, and only then decrypted. Entries with malformed
// points, mismatched tags or failing authentication are skipped.
//
// Scanning mutates nothing: re-scanning the same inputs yields the same
// matches, and the sequence can be restarted or abandoned freely.
func (e *Engine) Scan(scanningPriv *big.Int, metas []Metadata) iter.Seq[Received] {
	return func(yield func(Received) bool) {
		matched := 0
		for i := range metas {
			m := &metas[i]
			var eph tedwards.PointAffine
			if _, err := eph.SetBytes(m.EphemeralPublicKey); err != nil {
				continue
			}
			shared, err := e.sharedSecret(scanningPriv, &eph)
			if err != nil {
				continue
			}
			if !matchesTag(shared, m.StealthTag) {
				continue
			}
			amount, err := OpenPaymentMetadata(shared, m)
			if err != nil {
				// Tag collision or tampered ciphertext; authenticated
				// decryption is the final arbiter.
				continue
			}
			addr, _, err := e.RecoverStealthAddress(scanningPriv, &eph)
			if err != nil {
				continue
			}
			matched++
			if !yield(Received{Index: i, Amount: amount, Address: addr, SharedSecret: shared}) {
				return
			}
		}
		e.log.Debug().Int("candidates", len(metas)).Int("matched", matched).Msg("scanned payment metadata")
	}
}
