package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ipfs/go-cid"
)

const headFile = "HEAD"

// WriteHead atomically points a state directory's HEAD at the given
// snapshot CID.
func WriteHead(dir string, id cid.Cid) error {
	if !id.Defined() {
		return fmt.Errorf("snapshot: undefined head CID")
	}
	tmp := filepath.Join(dir, headFile+".tmp")
	if err := os.WriteFile(tmp, []byte(id.String()+"\n"), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(dir, headFile))
}

// ReadHead returns the snapshot CID a state directory's HEAD points at.
// The second return is false when no HEAD exists yet.
func ReadHead(dir string) (cid.Cid, bool, error) {
	b, err := os.ReadFile(filepath.Join(dir, headFile))
	if os.IsNotExist(err) {
		return cid.Undef, false, nil
	}
	if err != nil {
		return cid.Undef, false, err
	}
	id, err := cid.Decode(strings.TrimSpace(string(b)))
	if err != nil {
		return cid.Undef, false, fmt.Errorf("snapshot: corrupt HEAD: %w", err)
	}
	return id, true, nil
}
