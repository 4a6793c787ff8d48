package registry

import (
	"reflect"
	"testing"
)

func populatedState(t *testing.T) State {
	t.Helper()
	admin := principal(0x01)
	reg := principal(0x02)
	r := newTestRegistry(t, admin, WithClock(func() int64 { return 100 }))
	if err := r.AddRegistrar(admin, reg); err != nil {
		t.Fatalf("AddRegistrar: %v", err)
	}
	if _, err := r.IssueCertificate(reg, certHash(0x0B), principal(0x10), testLink); err != nil {
		t.Fatalf("IssueCertificate: %v", err)
	}
	if _, err := r.IssueCertificate(reg, certHash(0x0A), principal(0x11), testLink); err != nil {
		t.Fatalf("IssueCertificate: %v", err)
	}
	if err := r.RevokeCertificate(reg, certHash(0x0B), "typo"); err != nil {
		t.Fatalf("RevokeCertificate: %v", err)
	}
	return r.Snapshot()
}

func TestSnapshot_SortedAndComplete(t *testing.T) {
	st := populatedState(t)
	if st.Admin != principal(0x01) {
		t.Fatalf("Admin: %s", st.Admin)
	}
	if len(st.Registrars) != 2 || st.Registrars[0] != principal(0x01) || st.Registrars[1] != principal(0x02) {
		t.Fatalf("Registrars not sorted/complete: %v", st.Registrars)
	}
	if len(st.Records) != 2 || st.Records[0].Hash != certHash(0x0A) || st.Records[1].Hash != certHash(0x0B) {
		t.Fatalf("Records not sorted by hash: %v", st.Records)
	}
	if !st.Records[1].Revoked || st.Records[0].Revoked {
		t.Fatalf("revocation flags wrong: %v", st.Records)
	}
	if st.Count != 2 {
		t.Fatalf("Count: got %d want 2", st.Count)
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	st := populatedState(t)
	r, err := Restore(st)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got := r.Snapshot()
	if !reflect.DeepEqual(st, got) {
		t.Fatalf("snapshot round trip mismatch:\n got %+v\nwant %+v", got, st)
	}

	// The restored registry keeps enforcing invariants.
	wantKind(t, r.RemoveRegistrar(st.Admin, st.Admin), KindInvalidState)
	_, err = r.IssueCertificate(st.Registrars[1], st.Records[0].Hash, principal(0x10), testLink)
	wantKind(t, err, KindConflict)
}

func TestRestore_RejectsUnreachableStates(t *testing.T) {
	base := populatedState(t)

	zeroAdmin := base
	zeroAdmin.Admin = Principal{}
	if _, err := Restore(zeroAdmin); err == nil {
		t.Fatal("expected error for zero admin")
	}

	noAdminRole := base
	noAdminRole.Registrars = []Principal{principal(0x02)}
	if _, err := Restore(noAdminRole); err == nil {
		t.Fatal("expected error for admin missing from registrar set")
	}

	badCount := base
	badCount.Count = 5
	if _, err := Restore(badCount); err == nil {
		t.Fatal("expected error for count mismatch")
	}

	dupHash := base
	dupHash.Records = append([]CertificateRecord(nil), base.Records...)
	dupHash.Records = append(dupHash.Records, base.Records[0])
	dupHash.Count = uint64(len(dupHash.Records))
	if _, err := Restore(dupHash); err == nil {
		t.Fatal("expected error for duplicate record hash")
	}

	phantomRevoke := base
	phantomRevoke.Records = append([]CertificateRecord(nil), base.Records...)
	phantomRevoke.Records[0].RevokeDate = 99 // active record with a revoke date
	if _, err := Restore(phantomRevoke); err == nil {
		t.Fatal("expected error for revoke date on active record")
	}
}

func TestPrincipalAndHash_TextForms(t *testing.T) {
	p := principal(0xAB)
	s := p.String()
	if len(s) != 42 || s[:2] != "0x" {
		t.Fatalf("unexpected principal text form: %s", s)
	}
	back, err := ParsePrincipal(s)
	if err != nil {
		t.Fatalf("ParsePrincipal: %v", err)
	}
	if back != p {
		t.Fatalf("principal round trip mismatch: %s != %s", back, p)
	}

	h := certHash(0xCD)
	hs := h.String()
	if len(hs) != 66 || hs[:2] != "0x" {
		t.Fatalf("unexpected hash text form: %s", hs)
	}
	hb, err := ParseHash(hs)
	if err != nil {
		t.Fatalf("ParseHash: %v", err)
	}
	if hb != h {
		t.Fatalf("hash round trip mismatch: %s != %s", hb, h)
	}

	// A well-formed all-zero value parses; zero-ness is for operations to judge.
	zero, err := ParseHash("0x" + "00000000000000000000000000000000000000000000000000000000000000" + "00")
	if err != nil {
		t.Fatalf("ParseHash(zero): %v", err)
	}
	if !zero.IsZero() {
		t.Fatal("expected zero hash")
	}

	// Malformed length and missing prefix are serialization errors.
	if _, err := ParseHash("0x1234"); err == nil {
		t.Fatal("expected length error")
	}
	if _, err := ParsePrincipal("1234"); err == nil {
		t.Fatal("expected prefix error")
	}
	if _, err := ParsePrincipal("0x" + "zz" + "00000000000000000000000000000000000000"); err == nil {
		t.Fatal("expected hex error")
	}
}
