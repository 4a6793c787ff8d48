// Package bundle moves registry state between state directories as a single
// deterministic TAR file.
//
// A bundle carries content-addressed blocks plus an index.json naming the
// head snapshot. Bundle bytes are deterministic: entry order is fixed and
// TAR headers are normalized, so the same state always produces the same
// bundle.
package bundle

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/credreg/fingerprint"
	"xdao.co/credreg/storage"
)

// FormatVersion is the current bundle index schema version.
const FormatVersion = 1

var epoch0 = time.Unix(0, 0).UTC()

type indexJSON struct {
	Version   int          `json:"version"`
	CIDCodec  string       `json:"cidCodec"`
	Multihash string       `json:"multihash"`
	Head      string       `json:"head"`
	Blocks    []indexBlock `json:"blocks"`
}

type indexBlock struct {
	CID  string `json:"cid"`
	Size int    `json:"size"`
}

// Write exports the head snapshot block from cas into a bundle on w.
//
// The exported bytes are re-verified against the head CID before they leave
// the store.
func Write(w io.Writer, cas storage.CAS, head cid.Cid) error {
	if cas == nil {
		return fmt.Errorf("bundle: nil CAS")
	}
	if !head.Defined() {
		return storage.ErrInvalidCID
	}

	b, err := cas.Get(head)
	if err != nil {
		return err
	}
	got, err := fingerprint.CIDv1RawSHA256CID(b)
	if err != nil {
		return err
	}
	if got != head {
		return storage.ErrCIDMismatch
	}

	tw := tar.NewWriter(w)
	if err := writeEntry(tw, "blocks/"+head.String(), b); err != nil {
		_ = tw.Close()
		return err
	}

	idx := indexJSON{
		Version:   FormatVersion,
		CIDCodec:  "raw",
		Multihash: "sha2-256",
		Head:      head.String(),
		Blocks:    []indexBlock{{CID: head.String(), Size: len(b)}},
	}
	ib, err := json.Marshal(idx)
	if err != nil {
		_ = tw.Close()
		return err
	}
	if err := writeEntry(tw, "index.json", append(ib, '\n')); err != nil {
		_ = tw.Close()
		return err
	}
	return tw.Close()
}

// Read imports all blocks from a bundle into cas and returns the head CID
// named by the bundle's index.
//
// Read is fail-closed: unknown entries, path tricks, duplicate blocks, and
// bytes that do not match their CID all abort the import. The head must be
// among the imported blocks.
func Read(r io.Reader, cas storage.CAS) (cid.Cid, error) {
	if cas == nil {
		return cid.Undef, fmt.Errorf("bundle: nil CAS")
	}

	tr := tar.NewReader(r)
	seen := map[string]struct{}{}
	var head cid.Cid

	for {
		h, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return cid.Undef, err
		}
		name := cleanTarPath(h.Name)
		if name == "" {
			return cid.Undef, fmt.Errorf("bundle: invalid entry path: %q", h.Name)
		}
		if h.Typeflag != tar.TypeReg {
			return cid.Undef, fmt.Errorf("bundle: unexpected tar entry type: %v (%s)", h.Typeflag, name)
		}

		if name == "index.json" {
			ib, err := io.ReadAll(tr)
			if err != nil {
				return cid.Undef, err
			}
			var idx indexJSON
			if err := json.Unmarshal(ib, &idx); err != nil {
				return cid.Undef, fmt.Errorf("bundle: invalid index: %w", err)
			}
			if idx.Version != FormatVersion {
				return cid.Undef, fmt.Errorf("bundle: unsupported index version: %d", idx.Version)
			}
			head, err = cid.Decode(idx.Head)
			if err != nil || !head.Defined() {
				return cid.Undef, storage.ErrInvalidCID
			}
			continue
		}

		if !strings.HasPrefix(name, "blocks/") {
			return cid.Undef, fmt.Errorf("bundle: unknown entry: %s", name)
		}
		id, err := cid.Decode(strings.TrimPrefix(name, "blocks/"))
		if err != nil || !id.Defined() {
			return cid.Undef, storage.ErrInvalidCID
		}
		payload, err := io.ReadAll(tr)
		if err != nil {
			return cid.Undef, err
		}
		got, err := fingerprint.CIDv1RawSHA256CID(payload)
		if err != nil {
			return cid.Undef, err
		}
		if got != id {
			return cid.Undef, storage.ErrCIDMismatch
		}
		if _, ok := seen[id.String()]; ok {
			return cid.Undef, fmt.Errorf("bundle: duplicate block entry: %s", id)
		}
		seen[id.String()] = struct{}{}

		putID, err := cas.Put(payload)
		if err != nil {
			return cid.Undef, err
		}
		if putID != id {
			return cid.Undef, storage.ErrCIDMismatch
		}
	}

	if !head.Defined() {
		return cid.Undef, fmt.Errorf("bundle: missing index.json")
	}
	if _, ok := seen[head.String()]; !ok {
		return cid.Undef, fmt.Errorf("bundle: head block not in bundle: %s", head)
	}
	return head, nil
}

func writeEntry(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  epoch0,
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := io.Copy(tw, bytes.NewReader(content))
	return err
}

func cleanTarPath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return ""
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." {
			return ""
		}
	}
	return name
}
