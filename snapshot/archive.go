package snapshot

import (
	"github.com/ipfs/go-cid"

	"xdao.co/credreg/registry"
	"xdao.co/credreg/storage"
)

// Archive stores canonical registry snapshots in a content-addressable
// store. Because snapshots are canonical bytes keyed by their own hash, the
// archive is an append-only, tamper-evident history: re-archiving an
// unchanged state is a no-op, and a modified store surfaces as a CID
// mismatch on load.
type Archive struct {
	CAS storage.CAS
}

// Save renders st canonically and stores it, returning the snapshot CID.
func (a Archive) Save(st registry.State) (cid.Cid, error) {
	b, err := Render(st)
	if err != nil {
		return cid.Undef, err
	}
	return a.CAS.Put(b)
}

// Load fetches and strictly parses the snapshot identified by id.
func (a Archive) Load(id cid.Cid) (registry.State, error) {
	b, err := a.CAS.Get(id)
	if err != nil {
		return registry.State{}, err
	}
	return Parse(b)
}
