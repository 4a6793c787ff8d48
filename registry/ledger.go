package registry

// IssueCertificate creates a new certificate record keyed by hash.
//
// Preconditions are checked in order and the first violation wins: caller is
// a registrar, hash is non-zero, hash is unused, student is non-zero, link is
// non-empty. A hash, once used, is permanently occupied, even after
// revocation. On success the created record is returned and a
// CertificateIssued event is emitted.
func (r *Registry) IssueCertificate(caller Principal, hash Hash, student Principal, driveLink string) (CertificateRecord, error) {
	r.mu.Lock()
	if !isMember(r.registrars, caller) {
		r.mu.Unlock()
		return CertificateRecord{}, newError(KindUnauthorized, "Only registrar can perform this action")
	}
	if hash.IsZero() {
		r.mu.Unlock()
		return CertificateRecord{}, newError(KindInvalidArgument, "Invalid certificate hash")
	}
	if _, exists := r.records[hash]; exists {
		r.mu.Unlock()
		return CertificateRecord{}, newError(KindConflict, "Certificate already exists")
	}
	if student.IsZero() {
		r.mu.Unlock()
		return CertificateRecord{}, newError(KindInvalidArgument, "Invalid student address")
	}
	if driveLink == "" {
		r.mu.Unlock()
		return CertificateRecord{}, newError(KindInvalidArgument, "Drive link required")
	}

	rec := &CertificateRecord{
		Hash:      hash,
		Issuer:    caller,
		Student:   student,
		DriveLink: driveLink,
		IssueDate: r.now(),
	}
	r.records[hash] = rec
	r.count++
	out := *rec
	ev := CertificateIssued{
		Hash:      hash,
		Student:   student,
		Issuer:    caller,
		DriveLink: driveLink,
		Timestamp: rec.IssueDate,
	}
	r.mu.Unlock()

	r.emit(ev)
	return out, nil
}

// RevokeCertificate marks the record keyed by hash as revoked.
//
// Existence is checked before the caller's role, so revoking an unknown hash
// reports NotFound even for a non-registrar caller. Only the issuing
// registrar may revoke, and only once. The reason travels in the emitted
// CertificateRevoked event only.
func (r *Registry) RevokeCertificate(caller Principal, hash Hash, reason string) error {
	r.mu.Lock()
	rec, exists := r.records[hash]
	if !exists {
		r.mu.Unlock()
		return newError(KindNotFound, "Certificate does not exist")
	}
	if !isMember(r.registrars, caller) {
		r.mu.Unlock()
		return newError(KindUnauthorized, "Only registrar can perform this action")
	}
	if !isIssuerOf(rec, caller) {
		r.mu.Unlock()
		return newError(KindUnauthorized, "Only issuer can revoke")
	}
	if rec.Revoked {
		r.mu.Unlock()
		return newError(KindInvalidState, "Already revoked")
	}

	rec.Revoked = true
	rec.RevokeDate = r.now()
	ev := CertificateRevoked{Hash: hash, Reason: reason, Timestamp: rec.RevokeDate}
	r.mu.Unlock()

	r.emit(ev)
	return nil
}

// VerifyCertificate reports whether hash names a currently valid (issued and
// not revoked) certificate. Never fails.
//
// The returned record is the stored record if the hash is known, regardless
// of revocation, or a zero record otherwise. Callers must inspect valid, not
// record presence, to determine trust.
func (r *Registry) VerifyCertificate(hash Hash) (bool, CertificateRecord) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, exists := r.records[hash]
	if !exists {
		return false, CertificateRecord{}
	}
	return !rec.Revoked, *rec
}

// GetCertificate returns the full record for hash, including revoked ones.
// Unlike VerifyCertificate it distinguishes an unknown hash by failing with
// NotFound.
func (r *Registry) GetCertificate(hash Hash) (CertificateRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, exists := r.records[hash]
	if !exists {
		return CertificateRecord{}, newError(KindNotFound, "Certificate does not exist")
	}
	return *rec, nil
}

// TotalCertificates returns the number of records ever inserted. The count
// strictly increases by one per successful issuance and never decreases.
func (r *Registry) TotalCertificates() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}
