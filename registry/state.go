package registry

import (
	"bytes"
	"sort"
)

// State is a full, self-contained copy of a registry's contents, suitable
// for canonical serialization and restore. Registrars and Records are sorted
// by their byte representation so equal registries produce equal states.
type State struct {
	Admin      Principal
	Registrars []Principal
	Records    []CertificateRecord
	Count      uint64
}

// Snapshot returns a consistent copy of the registry state relative to the
// last applied mutation.
func (r *Registry) Snapshot() State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st := State{
		Admin:      r.admin,
		Registrars: make([]Principal, 0, len(r.registrars)),
		Records:    make([]CertificateRecord, 0, len(r.records)),
		Count:      r.count,
	}
	for p := range r.registrars {
		st.Registrars = append(st.Registrars, p)
	}
	for _, rec := range r.records {
		st.Records = append(st.Records, *rec)
	}
	sort.Slice(st.Registrars, func(i, j int) bool {
		return bytes.Compare(st.Registrars[i][:], st.Registrars[j][:]) < 0
	})
	sort.Slice(st.Records, func(i, j int) bool {
		return bytes.Compare(st.Records[i].Hash[:], st.Records[j].Hash[:]) < 0
	})
	return st
}

// Restore reconstructs a registry from a previously captured state,
// re-validating every reachable-state invariant. It rejects states that no
// sequence of operations could have produced.
func Restore(st State, opts ...Option) (*Registry, error) {
	r, err := New(st.Admin, opts...)
	if err != nil {
		return nil, err
	}
	for _, p := range st.Registrars {
		if p.IsZero() {
			return nil, newError(KindInvalidArgument, "Invalid address")
		}
		r.registrars[p] = struct{}{}
	}
	if !isMember(r.registrars, st.Admin) {
		return nil, newError(KindInvalidState, "Cannot remove admin")
	}
	for i := range st.Records {
		rec := st.Records[i]
		if rec.Hash.IsZero() {
			return nil, newError(KindInvalidArgument, "Invalid certificate hash")
		}
		if rec.Student.IsZero() {
			return nil, newError(KindInvalidArgument, "Invalid student address")
		}
		if rec.Issuer.IsZero() {
			return nil, newError(KindInvalidArgument, "Invalid address")
		}
		if rec.DriveLink == "" {
			return nil, newError(KindInvalidArgument, "Drive link required")
		}
		if !rec.Revoked && rec.RevokeDate != 0 {
			return nil, newError(KindInvalidState, "Revoke date on active certificate")
		}
		if _, exists := r.records[rec.Hash]; exists {
			return nil, newError(KindConflict, "Certificate already exists")
		}
		stored := rec
		r.records[rec.Hash] = &stored
	}
	if st.Count != uint64(len(st.Records)) {
		return nil, newError(KindInvalidState, "Certificate count mismatch")
	}
	r.count = st.Count
	return r, nil
}
