package handler

import (
	"encoding/json"

	"fairlend/internal/decision"
	"fairlend/internal/ledger"
)

// EntryResponse mirrors a ledger entry on the wire. Payload bytes go out
// exactly as hashed so auditors can recompute entry hashes client-side.
type EntryResponse struct {
	SequenceNumber uint64          `json:"sequence_number"`
	Timestamp      int64           `json:"timestamp"`
	EntryType      string          `json:"entry_type"`
	Payload        json.RawMessage `json:"payload"`
	AuthorID       string          `json:"author_id"`
	PrevHash       string          `json:"prev_hash"`
	EntryHash      string          `json:"entry_hash"`
}

func FromEntry(e ledger.Entry) EntryResponse {
	return EntryResponse{
		SequenceNumber: e.Sequence,
		Timestamp:      e.Timestamp,
		EntryType:      string(e.Type),
		Payload:        e.Payload,
		AuthorID:       e.AuthorID,
		PrevHash:       e.PrevHash,
		EntryHash:      e.EntryHash,
	}
}

func FromEntries(entries []ledger.Entry) []EntryResponse {
	out := make([]EntryResponse, len(entries))
	for i, e := range entries {
		out[i] = FromEntry(e)
	}
	return out
}

// TrailResponse is the per-application audit trail.
type TrailResponse struct {
	ApplicationID string          `json:"application_id"`
	Entries       []EntryResponse `json:"entries"`
}

// DispositionResponse is the effective state of one application.
type DispositionResponse struct {
	ApplicationID string `json:"application_id"`
	Disposition   string `json:"disposition"`
	Overridden    bool   `json:"overridden"`
}

func FromResolved(applicationID string, r decision.Resolved) DispositionResponse {
	return DispositionResponse{
		ApplicationID: applicationID,
		Disposition:   string(r.Disposition),
		Overridden:    r.Overridden,
	}
}
