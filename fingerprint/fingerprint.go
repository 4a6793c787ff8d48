// Package fingerprint computes the canonical content fingerprint of an
// artifact: SHA-256 over its raw bytes, rendered externally as a 0x-prefixed
// hex string. It also derives IPFS-compatible CIDv1 identifiers (raw +
// sha2-256) used to address archived registry snapshots.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Size is the fingerprint width in bytes.
const Size = sha256.Size

// Sum returns the SHA-256 fingerprint of data.
func Sum(data []byte) [Size]byte {
	return sha256.Sum256(data)
}

// SumReader returns the SHA-256 fingerprint of everything read from r.
func SumReader(r io.Reader) ([Size]byte, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return [Size]byte{}, err
	}
	var out [Size]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

// Hex renders a fingerprint in the external text form: 0x plus 64 hex digits.
func Hex(sum [Size]byte) string {
	return "0x" + hex.EncodeToString(sum[:])
}

// CIDv1RawSHA256 returns a CIDv1 string using the "raw" multicodec and a
// sha2-256 multihash.
func CIDv1RawSHA256(data []byte) string {
	id, err := CIDv1RawSHA256CID(data)
	if err != nil {
		// multihash.Sum only errors for invalid inputs; with SHA2_256 and -1
		// length, this should be unreachable.
		return ""
	}
	return id.String()
}

// CIDv1RawSHA256CID returns a CIDv1 (raw + sha2-256) derived from data.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}
