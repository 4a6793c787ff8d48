package keys

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/sha3"

	"xdao.co/credreg/registry"
)

// PrincipalFromPublicKey derives the registry principal for a public key:
// the last 20 bytes of Keccak-256 over the raw key bytes. This matches the
// address derivation of the system the registry interoperates with.
func PrincipalFromPublicKey(pub ed25519.PublicKey) (registry.Principal, error) {
	if l := len(pub); l != ed25519.PublicKeySize {
		return registry.Principal{}, fmt.Errorf("ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, l)
	}
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(pub)
	sum := h.Sum(nil)

	var p registry.Principal
	copy(p[:], sum[len(sum)-registry.PrincipalSize:])
	return p, nil
}

// PrincipalFromSeed derives the registry principal for an Ed25519 seed.
func PrincipalFromSeed(seed []byte) (registry.Principal, error) {
	if len(seed) != ed25519.SeedSize {
		return registry.Principal{}, fmt.Errorf("seed must be %d bytes", ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return PrincipalFromPublicKey(priv.Public().(ed25519.PublicKey))
}

// SignerKeyFromSeed returns the signer key string for an Ed25519 seed.
//
// Format: "ed25519:" + base64(pubkey).
func SignerKeyFromSeed(seed []byte) string {
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return "ed25519:" + base64.StdEncoding.EncodeToString(pub)
}

// SignerKeyFromPublicKey encodes an Ed25519 public key into the signer key string.
func SignerKeyFromPublicKey(pub ed25519.PublicKey) (string, error) {
	if l := len(pub); l != ed25519.PublicKeySize {
		return "", fmt.Errorf("ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, l)
	}
	return "ed25519:" + base64.StdEncoding.EncodeToString(pub), nil
}

// DeriveRoleSeed deterministically derives a role-specific Ed25519 seed from
// a root seed, so one operator root key can back several registrar
// identities.
func DeriveRoleSeed(rootSeed []byte, role string) ([]byte, error) {
	if len(rootSeed) != ed25519.SeedSize {
		return nil, fmt.Errorf("root seed must be %d bytes", ed25519.SeedSize)
	}
	if err := CheckRole(role); err != nil {
		return nil, err
	}

	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(rootSeed)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("xdao-credreg-kms-lite-v1"))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("role:"))
	_, _ = h.Write([]byte(role))
	sum := h.Sum(nil)
	if len(sum) < ed25519.SeedSize {
		return nil, errors.New("kdf output too short")
	}
	out := make([]byte, ed25519.SeedSize)
	copy(out, sum[:ed25519.SeedSize])
	return out, nil
}
