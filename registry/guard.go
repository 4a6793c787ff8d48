package registry

// Access guard predicates. These are pure boolean functions over explicit
// inputs: no state, no errors. Every mutating operation composes them; a
// failed composition yields an Unauthorized error and no state change.

func isAdmin(admin, p Principal) bool {
	return p == admin
}

func isMember(set map[Principal]struct{}, p Principal) bool {
	_, ok := set[p]
	return ok
}

func isIssuerOf(rec *CertificateRecord, p Principal) bool {
	return rec != nil && rec.Issuer == p
}
