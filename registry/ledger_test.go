package registry

import "testing"

const testLink = "https://drive.google.com/file/d/sample123"

// issueFixture returns a registry with one registrar added by the admin.
func issueFixture(t *testing.T, opts ...Option) (*Registry, Principal, Principal) {
	t.Helper()
	admin := principal(0x01)
	registrar := principal(0x02)
	r := newTestRegistry(t, admin, opts...)
	if err := r.AddRegistrar(admin, registrar); err != nil {
		t.Fatalf("AddRegistrar: %v", err)
	}
	return r, admin, registrar
}

func TestIssueCertificate(t *testing.T) {
	sink := &captureSink{}
	r, _, registrar := issueFixture(t, WithSink(sink), WithClock(func() int64 { return 1700 }))
	student := principal(0x10)
	hash := certHash(0xA1)

	rec, err := r.IssueCertificate(registrar, hash, student, testLink)
	if err != nil {
		t.Fatalf("IssueCertificate: %v", err)
	}
	if rec.Hash != hash || rec.Issuer != registrar || rec.Student != student {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.DriveLink != testLink || rec.IssueDate != 1700 || rec.Revoked {
		t.Fatalf("unexpected record fields: %+v", rec)
	}

	valid, got := r.VerifyCertificate(hash)
	if !valid {
		t.Fatal("expected valid certificate")
	}
	if got != rec {
		t.Fatalf("VerifyCertificate record mismatch: got %+v want %+v", got, rec)
	}
	if n := r.TotalCertificates(); n != 1 {
		t.Fatalf("TotalCertificates: got %d want 1", n)
	}

	last := sink.events[len(sink.events)-1]
	ev, ok := last.(CertificateIssued)
	if !ok {
		t.Fatalf("expected CertificateIssued, got %T", last)
	}
	if ev.Hash != hash || ev.Student != student || ev.Issuer != registrar || ev.DriveLink != testLink || ev.Timestamp != 1700 {
		t.Fatalf("unexpected event payload: %+v", ev)
	}
}

func TestIssueCertificate_NonRegistrar(t *testing.T) {
	r, _, _ := issueFixture(t)
	_, err := r.IssueCertificate(principal(0x09), certHash(0xA1), principal(0x10), testLink)
	wantKind(t, err, KindUnauthorized)
	if n := r.TotalCertificates(); n != 0 {
		t.Fatalf("failed issuance must not count: got %d", n)
	}
}

func TestIssueCertificate_ZeroHash(t *testing.T) {
	r, _, registrar := issueFixture(t)
	_, err := r.IssueCertificate(registrar, Hash{}, principal(0x10), testLink)
	wantKind(t, err, KindInvalidArgument)
}

func TestIssueCertificate_ZeroStudent(t *testing.T) {
	r, _, registrar := issueFixture(t)
	_, err := r.IssueCertificate(registrar, certHash(0xA1), Principal{}, testLink)
	wantKind(t, err, KindInvalidArgument)
}

func TestIssueCertificate_EmptyLink(t *testing.T) {
	r, _, registrar := issueFixture(t)
	_, err := r.IssueCertificate(registrar, certHash(0xA1), principal(0x10), "")
	wantKind(t, err, KindInvalidArgument)
}

func TestIssueCertificate_DuplicateHash(t *testing.T) {
	r, _, registrar := issueFixture(t)
	hash := certHash(0xA1)
	if _, err := r.IssueCertificate(registrar, hash, principal(0x10), testLink); err != nil {
		t.Fatalf("IssueCertificate: %v", err)
	}
	// Different student, link, and caller: the hash alone decides.
	_, err := r.IssueCertificate(r.Admin(), hash, principal(0x11), "https://example.org/other")
	wantKind(t, err, KindConflict)
	if n := r.TotalCertificates(); n != 1 {
		t.Fatalf("TotalCertificates: got %d want 1", n)
	}
}

func TestIssueCertificate_HashOccupiedAfterRevocation(t *testing.T) {
	r, _, registrar := issueFixture(t)
	hash := certHash(0xA1)
	if _, err := r.IssueCertificate(registrar, hash, principal(0x10), testLink); err != nil {
		t.Fatalf("IssueCertificate: %v", err)
	}
	if err := r.RevokeCertificate(registrar, hash, "typo"); err != nil {
		t.Fatalf("RevokeCertificate: %v", err)
	}
	_, err := r.IssueCertificate(registrar, hash, principal(0x10), testLink)
	wantKind(t, err, KindConflict)
}

func TestRevokeCertificate(t *testing.T) {
	now := int64(1000)
	sink := &captureSink{}
	r, _, registrar := issueFixture(t, WithSink(sink), WithClock(func() int64 { now++; return now }))
	hash := certHash(0xA1)
	if _, err := r.IssueCertificate(registrar, hash, principal(0x10), testLink); err != nil {
		t.Fatalf("IssueCertificate: %v", err)
	}

	if err := r.RevokeCertificate(registrar, hash, "Student request"); err != nil {
		t.Fatalf("RevokeCertificate: %v", err)
	}
	valid, rec := r.VerifyCertificate(hash)
	if valid {
		t.Fatal("revoked certificate must not verify")
	}
	if !rec.Revoked || rec.RevokeDate <= rec.IssueDate {
		t.Fatalf("unexpected revocation fields: %+v", rec)
	}

	last := sink.events[len(sink.events)-1]
	ev, ok := last.(CertificateRevoked)
	if !ok {
		t.Fatalf("expected CertificateRevoked, got %T", last)
	}
	if ev.Hash != hash || ev.Reason != "Student request" || ev.Timestamp != rec.RevokeDate {
		t.Fatalf("unexpected event payload: %+v", ev)
	}
}

func TestRevokeCertificate_OnlyIssuer(t *testing.T) {
	admin := principal(0x01)
	r := newTestRegistry(t, admin)
	r1, r2 := principal(0x02), principal(0x03)
	for _, p := range []Principal{r1, r2} {
		if err := r.AddRegistrar(admin, p); err != nil {
			t.Fatalf("AddRegistrar: %v", err)
		}
	}
	hash := certHash(0xA1)
	if _, err := r.IssueCertificate(r1, hash, principal(0x10), testLink); err != nil {
		t.Fatalf("IssueCertificate: %v", err)
	}
	// A valid registrar that did not issue the record cannot revoke it.
	wantKind(t, r.RevokeCertificate(r2, hash, "reason"), KindUnauthorized)
	if valid, _ := r.VerifyCertificate(hash); !valid {
		t.Fatal("failed revocation must not change state")
	}
}

func TestRevokeCertificate_NonRegistrar(t *testing.T) {
	r, _, registrar := issueFixture(t)
	hash := certHash(0xA1)
	if _, err := r.IssueCertificate(registrar, hash, principal(0x10), testLink); err != nil {
		t.Fatalf("IssueCertificate: %v", err)
	}
	wantKind(t, r.RevokeCertificate(principal(0x09), hash, "reason"), KindUnauthorized)
}

func TestRevokeCertificate_Unknown(t *testing.T) {
	r, _, registrar := issueFixture(t)
	wantKind(t, r.RevokeCertificate(registrar, certHash(0xFF), "reason"), KindNotFound)
}

func TestRevokeCertificate_UnknownHashBeforeRole(t *testing.T) {
	// Existence is checked before the caller's role: an unknown hash reports
	// NotFound even for a caller that is not a registrar.
	r, _, _ := issueFixture(t)
	wantKind(t, r.RevokeCertificate(principal(0x09), certHash(0xFF), "reason"), KindNotFound)
}

func TestRevokeCertificate_Twice(t *testing.T) {
	r, _, registrar := issueFixture(t)
	hash := certHash(0xA1)
	if _, err := r.IssueCertificate(registrar, hash, principal(0x10), testLink); err != nil {
		t.Fatalf("IssueCertificate: %v", err)
	}
	if err := r.RevokeCertificate(registrar, hash, "first"); err != nil {
		t.Fatalf("RevokeCertificate: %v", err)
	}
	wantKind(t, r.RevokeCertificate(registrar, hash, "second"), KindInvalidState)
}

func TestVerifyCertificate_Unknown(t *testing.T) {
	r, _, _ := issueFixture(t)
	valid, rec := r.VerifyCertificate(certHash(0xFF))
	if valid {
		t.Fatal("unknown hash must not verify")
	}
	if rec != (CertificateRecord{}) {
		t.Fatalf("expected zero record, got %+v", rec)
	}
}

func TestGetCertificate(t *testing.T) {
	r, _, registrar := issueFixture(t)
	hash := certHash(0xA1)
	issued, err := r.IssueCertificate(registrar, hash, principal(0x10), testLink)
	if err != nil {
		t.Fatalf("IssueCertificate: %v", err)
	}
	got, err := r.GetCertificate(hash)
	if err != nil {
		t.Fatalf("GetCertificate: %v", err)
	}
	if got != issued {
		t.Fatalf("GetCertificate mismatch: got %+v want %+v", got, issued)
	}

	// Revoked records are still returned in full.
	if err := r.RevokeCertificate(registrar, hash, "typo"); err != nil {
		t.Fatalf("RevokeCertificate: %v", err)
	}
	got, err = r.GetCertificate(hash)
	if err != nil {
		t.Fatalf("GetCertificate after revoke: %v", err)
	}
	if !got.Revoked {
		t.Fatal("expected revoked record")
	}

	_, err = r.GetCertificate(certHash(0xFF))
	wantKind(t, err, KindNotFound)
}

func TestTotalCertificates_CountsOnlySuccesses(t *testing.T) {
	r, _, registrar := issueFixture(t)
	for i := byte(1); i <= 3; i++ {
		if _, err := r.IssueCertificate(registrar, certHash(i), principal(0x10), testLink); err != nil {
			t.Fatalf("IssueCertificate(%d): %v", i, err)
		}
	}
	// Failed attempts and revocations leave the count untouched.
	if _, err := r.IssueCertificate(registrar, certHash(1), principal(0x10), testLink); err == nil {
		t.Fatal("expected duplicate to fail")
	}
	if err := r.RevokeCertificate(registrar, certHash(2), "reason"); err != nil {
		t.Fatalf("RevokeCertificate: %v", err)
	}
	if n := r.TotalCertificates(); n != 3 {
		t.Fatalf("TotalCertificates: got %d want 3", n)
	}
}
