package stealth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	tedwards "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/chacha20poly1305"
)

// ErrDecrypt marks an AEAD open failure: wrong key or tampered
// metadata.
var ErrDecrypt = errors.New("stealth: metadata decryption failed")

// expandKey is the personalization key of the PRF^expand-style KDF,
// after the Zcash Sapling construction. Exactly 16 bytes.
var expandKey = []byte("NightjarExpandKD")

// Metadata is the public, broadcastable payment descriptor. It carries
// no information without the recipient's scanning key.
type Metadata struct {
	EphemeralPublicKey hexutil.Bytes `json:"ephemeralPublicKey"`
	EncryptedAmount    hexutil.Bytes `json:"encryptedAmount"`
	StealthTag         hexutil.Bytes `json:"stealthTag"`
}

// expand derives outputLen bytes from a 32-byte shared secret using
// keyed BLAKE2s with an incrementing counter, PRF^expand style.
func expand(shared []byte, outputLen int) ([]byte, error) {
	if len(shared) != blake2s.Size {
		return nil, fmt.Errorf("stealth: shared secret must be %d bytes", blake2s.Size)
	}
	var stream []byte
	for counter := byte(1); len(stream) < outputLen; counter++ {
		h, err := blake2s.New256(expandKey)
		if err != nil {
			return nil, fmt.Errorf("stealth: blake2s: %w", err)
		}
		h.Write(shared)
		h.Write([]byte{counter})
		stream = h.Sum(stream)
		if counter == 0xff {
			return nil, errors.New("stealth: kdf counter exhausted")
		}
	}
	return stream[:outputLen], nil
}

// paymentCipher derives the AEAD and nonce for a shared secret.
func paymentCipher(shared []byte) (aead interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}, nonce []byte, err error) {
	stream, err := expand(shared, chacha20poly1305.KeySize+chacha20poly1305.NonceSize)
	if err != nil {
		return nil, nil, err
	}
	a, err := chacha20poly1305.New(stream[:chacha20poly1305.KeySize])
	if err != nil {
		return nil, nil, fmt.Errorf("stealth: chacha20poly1305: %w", err)
	}
	return a, stream[chacha20poly1305.KeySize:], nil
}

// tagFor computes the cheap match tag: keyed BLAKE2s of the shared
// secret. Recipients test it against candidate secrets without
// attempting decryption.
func tagFor(shared []byte) ([]byte, error) {
	h, err := blake2s.New256(tagDomain)
	if err != nil {
		return nil, fmt.Errorf("stealth: blake2s: %w", err)
	}
	h.Write(shared)
	return h.Sum(nil), nil
}

// BuildPaymentMetadata encrypts the amount under the shared secret and
// returns the broadcastable descriptor. The ephemeral public key is
// bound as AEAD associated data, so swapping it invalidates the
// ciphertext.
func (e *Engine) BuildPaymentMetadata(shared []byte, ephemeralPub *tedwards.PointAffine, amount *uint256.Int) (*Metadata, error) {
	if amount == nil {
		return nil, errors.New("stealth: nil amount")
	}
	aead, nonce, err := paymentCipher(shared)
	if err != nil {
		return nil, err
	}
	tag, err := tagFor(shared)
	if err != nil {
		return nil, err
	}
	ephBytes := ephemeralPub.Bytes()
	plaintext := amount.Bytes32()
	ct := aead.Seal(nil, nonce, plaintext[:], ephBytes[:])
	return &Metadata{
		EphemeralPublicKey: ephBytes[:],
		EncryptedAmount:    ct,
		StealthTag:         tag,
	}, nil
}

// OpenPaymentMetadata authenticates and decrypts the amount with the
// shared secret. Fails with ErrDecrypt on any tampering.
func OpenPaymentMetadata(shared []byte, m *Metadata) (*uint256.Int, error) {
	aead, nonce, err := paymentCipher(shared)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, nonce, m.EncryptedAmount, m.EphemeralPublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if len(pt) != 32 {
		return nil, fmt.Errorf("%w: bad plaintext length %d", ErrDecrypt, len(pt))
	}
	return new(uint256.Int).SetBytes(pt), nil
}

// matchesTag compares a candidate shared secret against a metadata tag
// in constant time.
func matchesTag(shared []byte, tag []byte) bool {
	candidate, err := tagFor(shared)
	if err != nil {
		return false
	}
	return len(tag) == len(candidate) && subtle.ConstantTimeCompare(candidate, tag) == 1
}
