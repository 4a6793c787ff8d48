package registry

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

// TestRegistry_EndToEnd walks the canonical lifecycle: deploy, delegate,
// issue, verify, revoke, re-verify.
func TestRegistry_EndToEnd(t *testing.T) {
	admin := principal(0xAA)
	reg := principal(0xBB)
	student := principal(0xCC)
	h1 := certHash(0x11)
	h2 := certHash(0x22)

	sink := &captureSink{}
	r := newTestRegistry(t, admin, WithSink(sink), WithClock(func() int64 { return 7 }))

	if err := r.AddRegistrar(admin, reg); err != nil {
		t.Fatalf("AddRegistrar: %v", err)
	}
	if _, err := r.IssueCertificate(reg, h1, student, testLink); err != nil {
		t.Fatalf("IssueCertificate: %v", err)
	}

	valid, rec := r.VerifyCertificate(h1)
	if !valid {
		t.Fatal("expected valid certificate")
	}
	if rec.Issuer != reg || rec.Student != student || rec.DriveLink != testLink || rec.Revoked {
		t.Fatalf("unexpected record: %+v", rec)
	}

	if err := r.RevokeCertificate(reg, h1, "typo"); err != nil {
		t.Fatalf("RevokeCertificate: %v", err)
	}
	valid, rec = r.VerifyCertificate(h1)
	if valid || !rec.Revoked {
		t.Fatalf("expected invalid, revoked record, got valid=%v %+v", valid, rec)
	}

	// getCertificate still returns the revoked record; an unused hash fails.
	if _, err := r.GetCertificate(h1); err != nil {
		t.Fatalf("GetCertificate(h1): %v", err)
	}
	_, err := r.GetCertificate(h2)
	wantKind(t, err, KindNotFound)

	wantEvents := []string{"RegistrarAdded", "CertificateIssued", "CertificateRevoked"}
	if len(sink.events) != len(wantEvents) {
		t.Fatalf("expected %d events, got %d", len(wantEvents), len(sink.events))
	}
	for i, name := range wantEvents {
		if sink.events[i].EventName() != name {
			t.Fatalf("event %d: got %s want %s", i, sink.events[i].EventName(), name)
		}
		if sink.events[i].EventTime() != 7 {
			t.Fatalf("event %d: timestamp %d want 7", i, sink.events[i].EventTime())
		}
	}
}

func TestErrorMessages_CompatibleSurface(t *testing.T) {
	admin := principal(0x01)
	r := newTestRegistry(t, admin)

	err := r.AddRegistrar(principal(0x09), principal(0x02))
	if err == nil || err.Error() != "Only admin can perform this action" {
		t.Fatalf("unexpected message: %v", err)
	}
	_, err = r.IssueCertificate(principal(0x09), certHash(1), principal(0x10), testLink)
	if err == nil || err.Error() != "Only registrar can perform this action" {
		t.Fatalf("unexpected message: %v", err)
	}
	err = r.RevokeCertificate(admin, certHash(1), "x")
	if err == nil || err.Error() != "Certificate does not exist" {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestError_UnwrapAndIsKind(t *testing.T) {
	r := newTestRegistry(t, principal(0x01))
	err := r.AddRegistrar(principal(0x09), principal(0x02))
	if !IsKind(err, KindUnauthorized) {
		t.Fatalf("IsKind(Unauthorized) = false for %v", err)
	}
	if IsKind(err, KindNotFound) {
		t.Fatal("IsKind must distinguish kinds")
	}
	wrapped := fmt.Errorf("rpc: %w", err)
	if !IsKind(wrapped, KindUnauthorized) {
		t.Fatal("IsKind must see through wrapping")
	}
	var e *Error
	if !errors.As(wrapped, &e) {
		t.Fatal("errors.As must extract *Error")
	}
	if IsKind(errors.New("plain"), KindUnauthorized) {
		t.Fatal("plain errors have no kind")
	}
}

func TestRegistry_ConcurrentIssuance(t *testing.T) {
	admin := principal(0x01)
	r := newTestRegistry(t, admin)

	const n = 32
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.IssueCertificate(admin, certHash(byte(i+1)), principal(0x10), testLink)
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("IssueCertificate(%d): %v", i, err)
		}
	}
	if got := r.TotalCertificates(); got != n {
		t.Fatalf("TotalCertificates: got %d want %d", got, n)
	}

	// Same hash from many goroutines: exactly one wins.
	conflicts := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, conflicts[i] = r.IssueCertificate(admin, certHash(0xEE), principal(0x10), testLink)
		}(i)
	}
	wg.Wait()
	won := 0
	for _, err := range conflicts {
		if err == nil {
			won++
		} else if !IsKind(err, KindConflict) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("expected exactly one winning issuance, got %d", won)
	}
}
