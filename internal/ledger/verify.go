package ledger

// VerificationResult reports the outcome of a chain walk. BrokenAt is the
// sequence number of the first entry whose recomputed hash disagrees with the
// stored one, or whose prev-hash disagrees with its predecessor. Verification
// never attempts repair.
type VerificationResult struct {
	Valid    bool   `json:"valid"`
	BrokenAt uint64 `json:"broken_at,omitempty"`
}

// verifyEntries walks an ordered slice of entries recomputing every hash.
// Shared by live verification and exported-snapshot verification so the two
// can never drift apart.
func verifyEntries(entries []Entry) VerificationResult {
	prev := GenesisHash
	expectSeq := uint64(1)
	prevTimestamp := int64(0)

	for _, e := range entries {
		broken := VerificationResult{Valid: false, BrokenAt: e.Sequence}

		if e.Sequence != expectSeq {
			return broken
		}
		if e.PrevHash != prev {
			return broken
		}
		if e.Timestamp < prevTimestamp {
			return broken
		}
		computed, err := Link(e.PrevHash, e)
		if err != nil || computed != e.EntryHash {
			return broken
		}

		prev = e.EntryHash
		prevTimestamp = e.Timestamp
		expectSeq++
	}
	return VerificationResult{Valid: true}
}
