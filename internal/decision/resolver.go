package decision

import (
	"encoding/json"
	"fmt"

	"fairlend/internal/domain"
	"fairlend/internal/ledger"
	id "fairlend/pkg/domain"
)

// Resolved is the effective state of one application after replaying its
// decision and override entries in ledger order. The ledger never stores
// current state; this fold is the only way to obtain it.
type Resolved struct {
	// Record is the original machine decision, untouched by overrides.
	Record domain.DecisionRecord

	// Disposition is the last-writer-wins outcome across the original
	// decision and every accepted override.
	Disposition domain.Disposition

	// Overridden is true once any override entry has been applied.
	Overridden bool

	// Sequence of the original decision entry.
	Sequence uint64

	// Timestamp of the original decision entry, epoch milliseconds. Windowed
	// readers scope by when the decision was made, not when it was overridden.
	Timestamp int64
}

// Replay folds a chain snapshot into per-application effective state. Entries
// of other types pass through untouched. A payload that fails to decode means
// the chain contains an entry that validation should have rejected, so the
// fold stops with an error rather than guessing.
func Replay(entries []ledger.Entry) (map[id.ApplicationID]Resolved, error) {
	state := make(map[id.ApplicationID]Resolved)
	for _, entry := range entries {
		switch entry.Type {
		case ledger.EntryTypeDecision:
			var record domain.DecisionRecord
			if err := json.Unmarshal(entry.Payload, &record); err != nil {
				return nil, fmt.Errorf("decode decision payload at sequence %d: %w", entry.Sequence, err)
			}
			state[record.ApplicationID] = Resolved{
				Record:      record,
				Disposition: record.Outcome,
				Sequence:    entry.Sequence,
				Timestamp:   entry.Timestamp,
			}
		case ledger.EntryTypeOverride:
			var record domain.OverrideRecord
			if err := json.Unmarshal(entry.Payload, &record); err != nil {
				return nil, fmt.Errorf("decode override payload at sequence %d: %w", entry.Sequence, err)
			}
			resolved, ok := state[record.ApplicationID]
			if !ok {
				// An override for an application with no decision entry cannot
				// happen through the service; treat it as corruption.
				return nil, fmt.Errorf("override at sequence %d references unknown application %s", entry.Sequence, record.ApplicationID)
			}
			resolved.Disposition = record.NewDisposition
			resolved.Overridden = true
			state[record.ApplicationID] = resolved
		}
	}
	return state, nil
}
