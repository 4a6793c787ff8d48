package registry

import "testing"

func principal(b byte) Principal {
	var p Principal
	for i := range p {
		p[i] = b
	}
	return p
}

func certHash(b byte) Hash {
	var h Hash
	for i := range h {
		h[i] = b
	}
	return h
}

func TestGuard_IsAdmin(t *testing.T) {
	admin := principal(0x01)
	if !isAdmin(admin, admin) {
		t.Fatal("admin must satisfy isAdmin")
	}
	if isAdmin(admin, principal(0x02)) {
		t.Fatal("non-admin must not satisfy isAdmin")
	}
	if isAdmin(admin, Principal{}) {
		t.Fatal("zero principal must not satisfy isAdmin")
	}
}

func TestGuard_IsMember(t *testing.T) {
	set := map[Principal]struct{}{principal(0x01): {}}
	if !isMember(set, principal(0x01)) {
		t.Fatal("expected membership")
	}
	if isMember(set, principal(0x02)) {
		t.Fatal("unexpected membership")
	}
	if isMember(nil, principal(0x01)) {
		t.Fatal("nil set has no members")
	}
}

func TestGuard_IsIssuerOf(t *testing.T) {
	issuer := principal(0x0A)
	rec := &CertificateRecord{Hash: certHash(0x01), Issuer: issuer}
	if !isIssuerOf(rec, issuer) {
		t.Fatal("issuer must satisfy isIssuerOf")
	}
	if isIssuerOf(rec, principal(0x0B)) {
		t.Fatal("non-issuer must not satisfy isIssuerOf")
	}
	if isIssuerOf(nil, issuer) {
		t.Fatal("nil record has no issuer")
	}
}
