package ledger

import "context"

// Store persists the entry chain. Implementations are interface-driven so
// the in-memory store and PostgreSQL can be swapped without rewiring domain
// code.
//
// Append has compare-and-swap semantics: the candidate entry carries the
// sequence number and prev-hash the caller derived from the tail it observed.
// If another writer claimed that slot first, Append returns
// ErrConcurrentAppend and writes nothing. This is what keeps two concurrent
// appends from ever sharing a prev-hash.
type Store interface {
	Append(ctx context.Context, entry Entry) error

	// ReadRange returns entries with sequence in [start, end] inclusive.
	// end == 0 means "through the current tail". The result is a consistent
	// snapshot: it never contains a half-written entry.
	ReadRange(ctx context.Context, start, end uint64) ([]Entry, error)

	// Tail returns the last entry, or ok=false for an empty ledger.
	Tail(ctx context.Context) (Entry, bool, error)
}
