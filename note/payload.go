package note

import (
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/nightjar-zk/nightjar/field"
)

// PayloadVersion is the current payload format version.
const PayloadVersion byte = 1

// Payload is the plaintext a sender encrypts to the recipient so they
// can later spend the note: the note opening plus an optional memo.
type Payload struct {
	Version   byte
	Amount    *uint256.Int
	Secret    field.Element
	Nullifier field.Element
	Memo      []byte
}

// PayloadFromNote builds the payload for a note.
func PayloadFromNote(n *Note, memo []byte) *Payload {
	return &Payload{
		Version:   PayloadVersion,
		Amount:    n.Amount,
		Secret:    n.Secret,
		Nullifier: n.Nullifier,
		Memo:      memo,
	}
}

// Bytes returns the RLP encoding. It panics on encoding failure, which
// can only happen on a malformed in-memory value.
func (p *Payload) Bytes() []byte {
	b, err := rlp.EncodeToBytes(p)
	if err != nil {
		panic(fmt.Sprintf("note: rlp encode payload: %v", err))
	}
	return b
}

// EncodeRLP implements rlp.Encoder.
func (p *Payload) EncodeRLP(w io.Writer) error {
	secret := p.Secret.Bytes()
	nul := p.Nullifier.Bytes()
	return rlp.Encode(w, []interface{}{
		p.Version,
		p.Amount.ToBig(),
		secret[:],
		nul[:],
		p.Memo,
	})
}

// DecodeRLP implements rlp.Decoder. Field elements are decoded
// canonically; a tampered payload fails here rather than producing a
// silently reduced value.
func (p *Payload) DecodeRLP(s *rlp.Stream) error {
	var tmp struct {
		Version   byte
		Amount    *big.Int
		Secret    []byte
		Nullifier []byte
		Memo      []byte
	}
	if err := s.Decode(&tmp); err != nil {
		return err
	}
	amount, overflow := uint256.FromBig(tmp.Amount)
	if overflow {
		return fmt.Errorf("note: payload amount overflows uint256")
	}
	secret, err := field.FromBytes(tmp.Secret)
	if err != nil {
		return fmt.Errorf("note: payload secret: %w", err)
	}
	nul, err := field.FromBytes(tmp.Nullifier)
	if err != nil {
		return fmt.Errorf("note: payload nullifier: %w", err)
	}
	p.Version = tmp.Version
	p.Amount = amount
	p.Secret = secret
	p.Nullifier = nul
	p.Memo = tmp.Memo
	return nil
}
