package grpcregistry

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"xdao.co/credreg/registry"
)

// Struct field names used by the Registry service messages.
const (
	fieldCaller    = "caller"
	fieldRegistrar = "registrar"
	fieldPrincipal = "principal"
	fieldCertHash  = "certHash"
	fieldStudent   = "student"
	fieldDriveLink = "driveLink"
	fieldReason    = "reason"
	fieldIssuer    = "issuer"
	fieldIssueDate = "issueDate"
	fieldRevoked   = "revoked"
	fieldRevoke    = "revokeDate"
	fieldValid     = "valid"
	fieldRecord    = "record"
)

func stringField(st *structpb.Struct, key string) (string, error) {
	if st == nil {
		return "", fmt.Errorf("missing field %q", key)
	}
	v, ok := st.GetFields()[key]
	if !ok {
		return "", fmt.Errorf("missing field %q", key)
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("field %q is not a string", key)
	}
	return s.StringValue, nil
}

func principalField(st *structpb.Struct, key string) (registry.Principal, error) {
	s, err := stringField(st, key)
	if err != nil {
		return registry.Principal{}, err
	}
	p, err := registry.ParsePrincipal(s)
	if err != nil {
		return registry.Principal{}, fmt.Errorf("field %q: %w", key, err)
	}
	return p, nil
}

func hashField(st *structpb.Struct, key string) (registry.Hash, error) {
	s, err := stringField(st, key)
	if err != nil {
		return registry.Hash{}, err
	}
	h, err := registry.ParseHash(s)
	if err != nil {
		return registry.Hash{}, fmt.Errorf("field %q: %w", key, err)
	}
	return h, nil
}

// recordStruct converts a certificate record into a Struct. Timestamps ride
// as JSON numbers; unix seconds stay well inside float64's exact range.
func recordStruct(rec registry.CertificateRecord) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		fieldCertHash:  rec.Hash.String(),
		fieldIssuer:    rec.Issuer.String(),
		fieldStudent:   rec.Student.String(),
		fieldDriveLink: rec.DriveLink,
		fieldIssueDate: rec.IssueDate,
		fieldRevoked:   rec.Revoked,
		fieldRevoke:    rec.RevokeDate,
	})
}

// RecordFromStruct is the inverse of the record encoding; clients use it to
// decode VerifyCertificate and GetCertificate replies.
func RecordFromStruct(st *structpb.Struct) (registry.CertificateRecord, error) {
	var rec registry.CertificateRecord
	var err error
	if rec.Hash, err = hashField(st, fieldCertHash); err != nil {
		return registry.CertificateRecord{}, err
	}
	if rec.Issuer, err = principalField(st, fieldIssuer); err != nil {
		return registry.CertificateRecord{}, err
	}
	if rec.Student, err = principalField(st, fieldStudent); err != nil {
		return registry.CertificateRecord{}, err
	}
	if rec.DriveLink, err = stringField(st, fieldDriveLink); err != nil {
		return registry.CertificateRecord{}, err
	}
	fields := st.GetFields()
	if v, ok := fields[fieldIssueDate]; ok {
		rec.IssueDate = int64(v.GetNumberValue())
	}
	if v, ok := fields[fieldRevoked]; ok {
		rec.Revoked = v.GetBoolValue()
	}
	if v, ok := fields[fieldRevoke]; ok {
		rec.RevokeDate = int64(v.GetNumberValue())
	}
	return rec, nil
}
