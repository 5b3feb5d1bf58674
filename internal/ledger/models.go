// Package ledger implements the append-only, hash-chained record of every
// loan decision, consent change, and administrative override. Entries commit
// to the digest of their predecessor, so any retroactive edit is detectable
// by re-walking the chain. Corrections are always new entries; nothing is
// ever updated or deleted.
package ledger

import "encoding/json"

// EntryType tags the payload variant carried by a ledger entry.
type EntryType string

const (
	EntryTypeDecision      EntryType = "decision"
	EntryTypeOverride      EntryType = "override"
	EntryTypeConsentChange EntryType = "consent_change"
)

func (t EntryType) IsValid() bool {
	switch t {
	case EntryTypeDecision, EntryTypeOverride, EntryTypeConsentChange:
		return true
	}
	return false
}

// GenesisHash is the prev-hash sentinel of the first entry.
const GenesisHash = "genesis"

// Entry is the atomic, immutable unit of the ledger.
//
// Sequence numbers are dense (no gaps) and assigned exactly once. Timestamp
// is epoch milliseconds and non-decreasing along the chain. Payload holds the
// canonical (RFC 8785) encoding of the type-specific record, so hashing the
// entry yields identical digests across processes and platforms.
type Entry struct {
	Sequence  uint64          `json:"sequence_number"`
	Timestamp int64           `json:"timestamp"`
	Type      EntryType       `json:"entry_type"`
	Payload   json.RawMessage `json:"payload"`
	AuthorID  string          `json:"author_id"`
	PrevHash  string          `json:"prev_hash"`
	EntryHash string          `json:"entry_hash"`
}
