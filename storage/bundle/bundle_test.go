package bundle_test

import (
	"bytes"
	"testing"

	"xdao.co/credreg/registry"
	"xdao.co/credreg/snapshot"
	"xdao.co/credreg/storage/bundle"
	"xdao.co/credreg/storage/localfs"
)

func snapshotState(t *testing.T) registry.State {
	t.Helper()
	var admin registry.Principal
	admin[registry.PrincipalSize-1] = 0x01
	reg, err := registry.New(admin, registry.WithClock(func() int64 { return 1700000000 }))
	if err != nil {
		t.Fatal(err)
	}
	var hash registry.Hash
	hash[registry.HashSize-1] = 0xAA
	var student registry.Principal
	student[registry.PrincipalSize-1] = 0x42
	if _, err := reg.IssueCertificate(admin, hash, student, "https://drive.example/doc/1"); err != nil {
		t.Fatal(err)
	}
	return reg.Snapshot()
}

func TestBundle_WriteIsDeterministic(t *testing.T) {
	cas, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	head, err := snapshot.Archive{CAS: cas}.Save(snapshotState(t))
	if err != nil {
		t.Fatal(err)
	}

	var outA, outB bytes.Buffer
	if err := bundle.Write(&outA, cas, head); err != nil {
		t.Fatal(err)
	}
	if err := bundle.Write(&outB, cas, head); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(outA.Bytes(), outB.Bytes()) {
		t.Fatal("expected deterministic bundle bytes")
	}
}

func TestBundle_ReadRoundTrip(t *testing.T) {
	src, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	st := snapshotState(t)
	head, err := snapshot.Archive{CAS: src}.Save(st)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := bundle.Write(&buf, src, head); err != nil {
		t.Fatal(err)
	}

	dst, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	gotHead, err := bundle.Read(&buf, dst)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if gotHead != head {
		t.Fatalf("head = %s, want %s", gotHead, head)
	}

	restored, err := snapshot.Archive{CAS: dst}.Load(gotHead)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if restored.Admin != st.Admin || restored.Count != st.Count || len(restored.Records) != len(st.Records) {
		t.Fatalf("restored state mismatch: %+v", restored)
	}
}

func TestBundle_ReadRejectsTamperedBlock(t *testing.T) {
	src, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	head, err := snapshot.Archive{CAS: src}.Save(snapshotState(t))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := bundle.Write(&buf, src, head); err != nil {
		t.Fatal(err)
	}

	raw := buf.Bytes()
	idx := bytes.Index(raw, []byte("CERTIFICATES"))
	if idx < 0 {
		t.Fatal("snapshot section not found in bundle")
	}
	raw[idx] = 'X'

	dst, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bundle.Read(bytes.NewReader(raw), dst); err == nil {
		t.Fatal("expected error for tampered block")
	}
}

func TestBundle_ReadRejectsMissingIndex(t *testing.T) {
	dst, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bundle.Read(bytes.NewReader(nil), dst); err == nil {
		t.Fatal("expected error for empty bundle")
	}
}
