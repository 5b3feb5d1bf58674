package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashEnvelope fixes the set and order of fields the entry hash commits to.
// EntryHash itself is excluded: it is derived, never an input.
type hashEnvelope struct {
	Sequence  uint64          `json:"sequence_number"`
	Timestamp int64           `json:"timestamp"`
	Type      EntryType       `json:"entry_type"`
	Payload   json.RawMessage `json:"payload"`
	AuthorID  string          `json:"author_id"`
	PrevHash  string          `json:"prev_hash"`
}

// Link computes the digest for an entry given the hash of its predecessor.
// Pure function: same inputs produce the same "sha256:<hex>" string on every
// platform, because the digest input is the canonical JSON of the envelope.
func Link(prevHash string, e Entry) (string, error) {
	env := hashEnvelope{
		Sequence:  e.Sequence,
		Timestamp: e.Timestamp,
		Type:      e.Type,
		Payload:   e.Payload,
		AuthorID:  e.AuthorID,
		PrevHash:  prevHash,
	}
	canonical, err := canonicalJSON(env)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}
