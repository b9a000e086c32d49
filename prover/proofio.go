package prover

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/nightjar-zk/nightjar/circuits"
	"github.com/nightjar-zk/nightjar/field"
)

// proofEnvelope is the storage/wire form of a Proof: the gnark binary
// proof wrapped in JSON alongside its circuit name and public signals.
type proofEnvelope struct {
	Circuit       string          `json:"circuit"`
	Proof         hexutil.Bytes   `json:"proof"`
	PublicSignals []field.Element `json:"publicSignals"`
}

// WriteProof serializes a proof to w.
func WriteProof(w io.Writer, p *Proof) error {
	if p == nil || p.Proof == nil {
		return fmt.Errorf("%w: nil proof", ErrMalformedProof)
	}
	var buf bytes.Buffer
	if _, err := p.Proof.WriteTo(&buf); err != nil {
		return fmt.Errorf("prover: serialize proof: %w", err)
	}
	env := proofEnvelope{
		Circuit:       string(p.Circuit),
		Proof:         buf.Bytes(),
		PublicSignals: p.PublicSignals,
	}
	if err := json.NewEncoder(w).Encode(&env); err != nil {
		return fmt.Errorf("prover: encode proof envelope: %w", err)
	}
	return nil
}

// ReadProof deserializes a proof written by WriteProof. Corrupt proof
// bytes fail with ErrMalformedProof; the public signal count is checked
// against the named circuit.
func ReadProof(r io.Reader) (*Proof, error) {
	var env proofEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	name, err := circuits.ParseName(env.Circuit)
	if err != nil {
		return nil, err
	}
	want, err := name.NumPublicSignals()
	if err != nil {
		return nil, err
	}
	if len(env.PublicSignals) != want {
		return nil, fmt.Errorf("%w: %s expects %d public signals, got %d",
			ErrMalformedProof, name, want, len(env.PublicSignals))
	}
	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(env.Proof)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	return &Proof{Circuit: name, Proof: proof, PublicSignals: env.PublicSignals}, nil
}
