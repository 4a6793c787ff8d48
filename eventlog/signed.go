package eventlog

import (
	"crypto/ed25519"
	"sync"

	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"xdao.co/credreg/keys"
	"xdao.co/credreg/registry"
)

// EnvelopeSink accepts fully built envelopes. JSONL implements it.
type EnvelopeSink interface {
	EmitEnvelope(Envelope)
}

// Signed wraps an EnvelopeSink and attaches a receipt to every envelope
// before forwarding it. Consumers verify receipts offline with
// keys.VerifyEd25519SHA256 or keys.VerifyDilithium3.
type Signed struct {
	mu      sync.Mutex
	next    EnvelopeSink
	signer  string
	alg     string
	ed      ed25519.PrivateKey
	dil     *mode3.PrivateKey
	lastErr error
}

// NewSignedEd25519 signs envelopes with an ed25519 key over the sha-256
// digest of the canonical envelope bytes.
func NewSignedEd25519(next EnvelopeSink, priv ed25519.PrivateKey) (*Signed, error) {
	signer, err := keys.SignerKeyFromPublicKey(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &Signed{next: next, signer: signer, alg: "ed25519-sha256", ed: priv}, nil
}

// NewSignedDilithium3 signs envelopes with a dilithium3 key over the
// sha3-256 digest of the canonical envelope bytes.
func NewSignedDilithium3(next EnvelopeSink, signer string, priv *mode3.PrivateKey) *Signed {
	return &Signed{next: next, signer: signer, alg: "dilithium3-sha3-256", dil: priv}
}

func (s *Signed) Emit(ev registry.Event) {
	env, err := Encode(ev)
	if err != nil {
		s.record(err)
		return
	}
	msg, err := env.SigningBytes()
	if err != nil {
		s.record(err)
		return
	}
	env.Signer = s.signer
	env.Algorithm = s.alg
	switch {
	case s.ed != nil:
		env.Signature = keys.SignEd25519SHA256(msg, s.ed)
	case s.dil != nil:
		sig, err := keys.SignDilithium3(msg, "sha3-256", s.dil)
		if err != nil {
			s.record(err)
			return
		}
		env.Signature = sig
	}
	s.next.EmitEnvelope(env)
}

func (s *Signed) record(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

// Err returns the most recent signing failure, if any.
func (s *Signed) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
