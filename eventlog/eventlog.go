// Package eventlog provides registry.Sink implementations: an in-memory
// buffer, an append-only JSONL file, a fan-out to several sinks, and a
// signing wrapper that attaches a verifiable receipt to each event.
//
// Sinks receive events strictly after the registry has committed the
// corresponding mutation; none of them feed back into registry decisions.
package eventlog

import (
	"encoding/json"
	"fmt"

	"xdao.co/credreg/registry"
)

// Envelope is the serialized form of an emitted event: the stable event name
// plus the event payload. Receipts, when present, cover the canonical
// envelope bytes without the receipt fields.
type Envelope struct {
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload"`
	Signer    string          `json:"signer,omitempty"`
	Algorithm string          `json:"algorithm,omitempty"`
	Signature string          `json:"signature,omitempty"`
}

// Encode wraps ev into an unsigned envelope.
func Encode(ev registry.Event) (Envelope, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return Envelope{}, fmt.Errorf("eventlog: marshal %s: %w", ev.EventName(), err)
	}
	return Envelope{Event: ev.EventName(), Payload: payload}, nil
}

func marshalLine(e Envelope) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("eventlog: marshal envelope %s: %w", e.Event, err)
	}
	return append(b, '\n'), nil
}

// SigningBytes returns the canonical bytes a receipt signs: the envelope
// JSON with all receipt fields cleared. json.Marshal over a fixed struct is
// deterministic, so signer and verifier agree on the exact bytes.
func (e Envelope) SigningBytes() ([]byte, error) {
	unsigned := Envelope{Event: e.Event, Payload: e.Payload}
	return json.Marshal(unsigned)
}
