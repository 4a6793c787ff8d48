package registry

// CertificateRecord binds a content hash to its issuer, its student, and an
// opaque off-system link. All fields except the revocation pair are immutable
// once the record is created.
//
// IssueDate and RevokeDate are Unix seconds assigned by the registry clock at
// the moment the corresponding mutation commits. RevokeDate is zero until the
// record is revoked.
type CertificateRecord struct {
	Hash       Hash
	Issuer     Principal
	Student    Principal
	DriveLink  string
	IssueDate  int64
	Revoked    bool
	RevokeDate int64
}
