// Package snapshot serializes a full registry state as a canonical text
// document. Rendering is deterministic (fixed section order, lexicographic
// key order, exact spacing), so equal states always produce identical bytes
// and a snapshot's CID is a stable fingerprint of the registry's contents.
// Parse strictly rejects any non-canonical input.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"xdao.co/credreg/fingerprint"
	"xdao.co/credreg/registry"
)

const (
	Preamble  = "-----BEGIN CREDREG SNAPSHOT-----"
	Postamble = "-----END CREDREG SNAPSHOT-----"

	// Format names the serialization rules; bump on incompatible change.
	Format = "credreg-snapshot-1"
)

// SectionOrder defines the canonical order of snapshot sections.
var SectionOrder = []string{"META", "ROLES", "CERTIFICATES"}

// Render produces canonical snapshot bytes from a registry state.
//
// Registrars and records are emitted sorted by their 0x-hex keys regardless
// of input order. Values must not contain newlines; a drive link embedding
// one cannot be rendered and is reported as an error.
func Render(st registry.State) ([]byte, error) {
	if st.Admin.IsZero() {
		return nil, errors.New("snapshot: zero admin")
	}

	var sb strings.Builder
	sb.WriteString(Preamble)
	sb.WriteString("\n")

	sb.WriteString("META\n")
	sb.WriteString("Admin: " + st.Admin.String() + "\n")
	sb.WriteString("Count: " + strconv.FormatUint(st.Count, 10) + "\n")
	sb.WriteString("Format: " + Format + "\n")
	sb.WriteString("\n")

	sb.WriteString("ROLES\n")
	for _, line := range sortedLines(roleLines(st)) {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString("CERTIFICATES\n")
	certs, err := certificateLines(st)
	if err != nil {
		return nil, err
	}
	for _, line := range sortedLines(certs) {
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	sb.WriteString(Postamble)
	return []byte(sb.String()), nil
}

// Parse decodes canonical snapshot bytes into a registry state.
//
// Canonicality is enforced by re-rendering the decoded state and requiring
// byte identity with the input, so unsorted, reordered, or reformatted
// documents are rejected outright. Parse is structural only; restoring the
// state through registry.Restore re-validates every registry invariant.
func Parse(data []byte) (registry.State, error) {
	var st registry.State

	lines := strings.Split(string(data), "\n")
	if len(lines) < 2 || lines[0] != Preamble || lines[len(lines)-1] != Postamble {
		return st, errors.New("snapshot: missing preamble or postamble")
	}

	sections, err := splitSections(lines[1 : len(lines)-1])
	if err != nil {
		return st, err
	}

	meta := sections["META"]
	adminHex, err := singleValue(meta, "Admin")
	if err != nil {
		return st, err
	}
	st.Admin, err = registry.ParsePrincipal(adminHex)
	if err != nil {
		return st, fmt.Errorf("snapshot: META Admin: %w", err)
	}
	countStr, err := singleValue(meta, "Count")
	if err != nil {
		return st, err
	}
	st.Count, err = strconv.ParseUint(countStr, 10, 64)
	if err != nil {
		return st, fmt.Errorf("snapshot: META Count: %w", err)
	}
	format, err := singleValue(meta, "Format")
	if err != nil {
		return st, err
	}
	if format != Format {
		return st, fmt.Errorf("snapshot: unsupported format %q", format)
	}

	for _, kv := range sections["ROLES"] {
		if kv.value != "registrar" {
			return st, fmt.Errorf("snapshot: unknown role %q", kv.value)
		}
		p, err := registry.ParsePrincipal(kv.key)
		if err != nil {
			return st, fmt.Errorf("snapshot: ROLES key: %w", err)
		}
		st.Registrars = append(st.Registrars, p)
	}

	for _, kv := range sections["CERTIFICATES"] {
		rec, err := parseRecord(kv.key, kv.value)
		if err != nil {
			return st, err
		}
		st.Records = append(st.Records, rec)
	}

	canonical, err := Render(st)
	if err != nil {
		return st, err
	}
	if !bytes.Equal(data, canonical) {
		return st, errors.New("snapshot: non-canonical document")
	}
	return st, nil
}

// CID returns the CIDv1 (raw + sha2-256) of canonical snapshot bytes.
func CID(data []byte) string {
	return fingerprint.CIDv1RawSHA256(data)
}

type pair struct {
	key   string
	value string
}

func roleLines(st registry.State) []string {
	out := make([]string, 0, len(st.Registrars))
	for _, p := range st.Registrars {
		out = append(out, p.String()+": registrar")
	}
	return out
}

// certificateLines encodes each record as
// "<hash>: <issuer>|<student>|<issueDate>|<revoked>|<revokeDate>|<driveLink>".
// The drive link comes last because it is the only field that may contain
// the separator.
func certificateLines(st registry.State) ([]string, error) {
	out := make([]string, 0, len(st.Records))
	for _, rec := range st.Records {
		if strings.ContainsAny(rec.DriveLink, "\n\r") {
			return nil, fmt.Errorf("snapshot: drive link for %s contains newline", rec.Hash)
		}
		revoked := "0"
		if rec.Revoked {
			revoked = "1"
		}
		out = append(out, rec.Hash.String()+": "+strings.Join([]string{
			rec.Issuer.String(),
			rec.Student.String(),
			strconv.FormatInt(rec.IssueDate, 10),
			revoked,
			strconv.FormatInt(rec.RevokeDate, 10),
			rec.DriveLink,
		}, "|"))
	}
	return out, nil
}

func parseRecord(key, value string) (registry.CertificateRecord, error) {
	var rec registry.CertificateRecord
	var err error

	rec.Hash, err = registry.ParseHash(key)
	if err != nil {
		return rec, fmt.Errorf("snapshot: CERTIFICATES key: %w", err)
	}
	fields := strings.SplitN(value, "|", 6)
	if len(fields) != 6 {
		return rec, fmt.Errorf("snapshot: malformed record for %s", key)
	}
	rec.Issuer, err = registry.ParsePrincipal(fields[0])
	if err != nil {
		return rec, fmt.Errorf("snapshot: record issuer: %w", err)
	}
	rec.Student, err = registry.ParsePrincipal(fields[1])
	if err != nil {
		return rec, fmt.Errorf("snapshot: record student: %w", err)
	}
	rec.IssueDate, err = strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return rec, fmt.Errorf("snapshot: record issue date: %w", err)
	}
	switch fields[3] {
	case "0":
	case "1":
		rec.Revoked = true
	default:
		return rec, fmt.Errorf("snapshot: record revoked flag %q", fields[3])
	}
	rec.RevokeDate, err = strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return rec, fmt.Errorf("snapshot: record revoke date: %w", err)
	}
	if !rec.Revoked && rec.RevokeDate != 0 {
		return rec, fmt.Errorf("snapshot: revoke date on active record %s", key)
	}
	rec.DriveLink = fields[5]
	return rec, nil
}

func splitSections(lines []string) (map[string][]pair, error) {
	sections := make(map[string][]pair)
	idx := -1
	current := ""
	expectHeader := true
	seen := make(map[string]bool)
	for _, line := range lines {
		if expectHeader {
			idx++
			if idx >= len(SectionOrder) || SectionOrder[idx] != line {
				return nil, fmt.Errorf("snapshot: sections missing or out of order at %q", line)
			}
			current = line
			sections[current] = nil
			seen = make(map[string]bool)
			expectHeader = false
			continue
		}
		if line == "" {
			expectHeader = true
			continue
		}
		key, value, ok := strings.Cut(line, ": ")
		if !ok || key == "" {
			return nil, fmt.Errorf("snapshot: invalid key-value line %q", line)
		}
		if seen[key] {
			return nil, fmt.Errorf("snapshot: duplicate key %q in %s", key, current)
		}
		seen[key] = true
		sections[current] = append(sections[current], pair{key: key, value: value})
	}
	if idx != len(SectionOrder)-1 {
		return nil, errors.New("snapshot: sections missing or out of order")
	}
	return sections, nil
}

func singleValue(pairs []pair, key string) (string, error) {
	found := ""
	seen := false
	for _, kv := range pairs {
		if kv.key != key {
			continue
		}
		if seen {
			return "", fmt.Errorf("snapshot: duplicate META key %q", key)
		}
		found = kv.value
		seen = true
	}
	if !seen {
		return "", fmt.Errorf("snapshot: missing META key %q", key)
	}
	return found, nil
}

func sortedLines(lines []string) []string {
	out := append([]string(nil), lines...)
	// Keys are fixed-width 0x-hex, so plain string sort is byte order.
	sort.Strings(out)
	return out
}
