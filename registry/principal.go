package registry

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// PrincipalSize is the width of a Principal in bytes.
const PrincipalSize = 20

// HashSize is the width of a certificate content hash in bytes.
const HashSize = 32

// Principal is an opaque fixed-width identifier for an actor (administrator,
// registrar, or student). The all-zero value is reserved and invalid as the
// target of any role or certificate field.
type Principal [PrincipalSize]byte

// Hash is a certificate content fingerprint and the record's permanent
// unique key. The all-zero value is reserved.
type Hash [HashSize]byte

// IsZero reports whether p is the reserved all-zero principal.
func (p Principal) IsZero() bool { return p == Principal{} }

// IsZero reports whether h is the reserved all-zero hash.
func (h Hash) IsZero() bool { return h == Hash{} }

// String renders p in the external text form: 0x followed by 40 hex digits.
func (p Principal) String() string {
	return "0x" + hex.EncodeToString(p[:])
}

// String renders h in the external text form: 0x followed by 64 hex digits.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// MarshalText renders p in the external 0x-hex form.
func (p Principal) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes the external 0x-hex form.
func (p *Principal) UnmarshalText(text []byte) error {
	parsed, err := ParsePrincipal(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalText renders h in the external 0x-hex form.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText decodes the external 0x-hex form.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParsePrincipal decodes the external 0x-hex text form of a Principal.
//
// Malformed inputs (wrong length, bad hex) are serialization errors, not
// registry errors: a well-formed all-zero principal parses successfully and
// is rejected by the operation that receives it.
func ParsePrincipal(s string) (Principal, error) {
	b, err := parseHexFixed(s, PrincipalSize)
	if err != nil {
		return Principal{}, fmt.Errorf("principal: %w", err)
	}
	var p Principal
	copy(p[:], b)
	return p, nil
}

// ParseHash decodes the external 0x-hex text form of a certificate hash.
func ParseHash(s string) (Hash, error) {
	b, err := parseHexFixed(s, HashSize)
	if err != nil {
		return Hash{}, fmt.Errorf("hash: %w", err)
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

func parseHexFixed(s string, size int) ([]byte, error) {
	raw, ok := strings.CutPrefix(s, "0x")
	if !ok {
		return nil, fmt.Errorf("missing 0x prefix in %q", s)
	}
	if len(raw) != size*2 {
		return nil, fmt.Errorf("expected %d hex digits, got %d", size*2, len(raw))
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid hex in %q: %w", s, err)
	}
	return b, nil
}
