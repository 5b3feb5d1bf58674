package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// canonicalJSON marshals v and normalizes the result per RFC 8785 (JSON
// Canonicalization Scheme): lexicographically sorted keys, fixed number
// formatting, no insignificant whitespace. Audit tooling and the hash chain
// both depend on this encoding being byte-stable.
func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	return canonical, nil
}

// CanonicalPayload encodes a record for storage inside a ledger entry.
// Callers hand the resulting bytes to Service.Append; the same bytes are what
// the entry hash commits to.
func CanonicalPayload(record any) (json.RawMessage, error) {
	return canonicalJSON(record)
}
