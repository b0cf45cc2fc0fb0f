package compile

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"golang.org/x/text/unicode/norm"
)

// DomainCompiledQuery prefixes fingerprint input. The version suffix allows
// the canonical form to change without colliding with older fingerprints.
const DomainCompiledQuery = "archq/compiled-query/v1"

// Fingerprint identifies the statement shape of a compiled query: its text
// and parameter names, not the bound values. Two compilations of the same
// tree against the same registry have the same fingerprint.
//
// Format: "sha256:" + hex(SHA256(domain + 0x00 + canonical JSON)).
func (q *CompiledQuery) Fingerprint() (string, error) {
	canonical, err := q.marshalCanonical()
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(DomainCompiledQuery))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}

// marshalCanonical writes {"parameters":[...],"text":"..."} with sorted keys,
// NFC-normalized strings and no HTML escaping.
func (q *CompiledQuery) marshalCanonical() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"parameters":[`)
	for i, p := range q.Parameters {
		if i > 0 {
			buf.WriteByte(',')
		}
		s, err := canonicalString(p.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(s)
	}
	buf.WriteString(`],"text":`)
	s, err := canonicalString(q.Text)
	if err != nil {
		return nil, err
	}
	buf.Write(s)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func canonicalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
