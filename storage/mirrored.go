package storage

import (
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/credreg/fingerprint"
)

// NamedCAS associates a CAS with a stable backend name for error reporting.
type NamedCAS struct {
	Name string
	CAS  CAS
}

// Mirrored writes every object to all configured backends.
//
// Reads fall back in slice order; the order is fixed by the caller, which
// keeps retrieval deterministic. Put requires every backend to return the
// canonical CID computed from the bytes.
type Mirrored struct {
	Backends []NamedCAS
}

var _ CAS = (*Mirrored)(nil)

func (m Mirrored) Put(data []byte) (cid.Cid, error) {
	if len(m.Backends) == 0 {
		return cid.Undef, fmt.Errorf("storage: Mirrored has no backends")
	}
	want, err := fingerprint.CIDv1RawSHA256CID(data)
	if err != nil {
		return cid.Undef, err
	}
	for _, b := range m.Backends {
		if b.CAS == nil {
			return cid.Undef, fmt.Errorf("storage: nil CAS for backend %q", b.Name)
		}
		got, err := b.CAS.Put(data)
		if err != nil {
			return cid.Undef, fmt.Errorf("storage: backend %q: %w", b.Name, err)
		}
		if got != want {
			return cid.Undef, fmt.Errorf("storage: backend %q: %w", b.Name, ErrCIDMismatch)
		}
	}
	return want, nil
}

func (m Mirrored) Get(id cid.Cid) ([]byte, error) {
	for _, b := range m.Backends {
		if b.CAS == nil {
			continue
		}
		out, err := b.CAS.Get(id)
		if err == nil {
			return out, nil
		}
		if !IsNotFound(err) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

func (m Mirrored) Has(id cid.Cid) bool {
	for _, b := range m.Backends {
		if b.CAS != nil && b.CAS.Has(id) {
			return true
		}
	}
	return false
}
