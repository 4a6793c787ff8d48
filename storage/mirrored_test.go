package storage_test

import (
	"bytes"
	"testing"

	"xdao.co/credreg/storage"
	"xdao.co/credreg/storage/localfs"
	"xdao.co/credreg/storage/testkit"
)

func TestMirrored_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		t.Helper()
		primary, err := localfs.New(t.TempDir())
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		mirror, err := localfs.New(t.TempDir())
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		return storage.Mirrored{Backends: []storage.NamedCAS{
			{Name: "primary", CAS: primary},
			{Name: "mirror", CAS: mirror},
		}}
	})
}

func TestMirrored_PutWritesAllBackends(t *testing.T) {
	primary, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	mirror, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	m := storage.Mirrored{Backends: []storage.NamedCAS{
		{Name: "primary", CAS: primary},
		{Name: "mirror", CAS: mirror},
	}}

	payload := []byte("mirrored object")
	id, err := m.Put(payload)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !primary.Has(id) || !mirror.Has(id) {
		t.Fatalf("backends have = %v, %v", primary.Has(id), mirror.Has(id))
	}
}

func TestMirrored_GetFallsBack(t *testing.T) {
	primary, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	mirror, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	payload := []byte("only in the mirror")
	id, err := mirror.Put(payload)
	if err != nil {
		t.Fatal(err)
	}

	m := storage.Mirrored{Backends: []storage.NamedCAS{
		{Name: "primary", CAS: primary},
		{Name: "mirror", CAS: mirror},
	}}
	got, err := m.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("payload mismatch")
	}
	if !m.Has(id) {
		t.Fatal("Has: expected true")
	}
}

func TestMirrored_GetAbsent(t *testing.T) {
	cas, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	m := storage.Mirrored{Backends: []storage.NamedCAS{{Name: "only", CAS: cas}}}

	absent, err := m.Put([]byte("probe"))
	if err != nil {
		t.Fatal(err)
	}
	other, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	empty := storage.Mirrored{Backends: []storage.NamedCAS{{Name: "empty", CAS: other}}}
	if _, err := empty.Get(absent); !storage.IsNotFound(err) {
		t.Fatalf("Get absent = %v, want not found", err)
	}
}
