package stealth

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/base58"
	tedwards "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards"
)

const (
	addressPrefix  = "nj"
	addressVersion = 0x01
)

// EncodePoint encodes a curve point as a prefixed base58check string.
// Used both for recipient meta-addresses (long-term scanning points)
// and derived stealth addresses.
func EncodePoint(p *tedwards.PointAffine) string {
	b := p.Bytes()
	return addressPrefix + base58.CheckEncode(b[:], addressVersion)
}

// DecodePoint parses a string produced by EncodePoint, checking the
// prefix, version, checksum and that the point lies on the curve.
func DecodePoint(s string) (tedwards.PointAffine, error) {
	var p tedwards.PointAffine
	if !strings.HasPrefix(s, addressPrefix) {
		return p, fmt.Errorf("stealth: wrong address prefix: %q", s)
	}
	payload, ver, err := base58.CheckDecode(s[len(addressPrefix):])
	if err != nil {
		return p, fmt.Errorf("stealth: decode address: %w", err)
	}
	if ver != addressVersion {
		return p, fmt.Errorf("stealth: wrong address version: expected %d, got %d", addressVersion, ver)
	}
	if _, err := p.SetBytes(payload); err != nil {
		return p, fmt.Errorf("stealth: decode point: %w", err)
	}
	if !p.IsOnCurve() {
		return p, ErrInvalidPoint
	}
	return p, nil
}
