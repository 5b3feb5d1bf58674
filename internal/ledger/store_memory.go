package ledger

import (
	"context"
	"sync"
)

// MemoryStore keeps the chain in process memory. Used by tests and as the
// development backend when no DSN is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wantSeq := uint64(len(s.entries)) + 1
	wantPrev := GenesisHash
	if n := len(s.entries); n > 0 {
		wantPrev = s.entries[n-1].EntryHash
	}
	if entry.Sequence != wantSeq || entry.PrevHash != wantPrev {
		return ErrConcurrentAppend
	}

	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryStore) ReadRange(_ context.Context, start, end uint64) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := uint64(len(s.entries))
	if start == 0 {
		start = 1
	}
	if end == 0 || end > n {
		end = n
	}
	if start > end {
		return nil, nil
	}
	// Copy out, payload bytes included, so callers hold an immutable snapshot.
	out := make([]Entry, end-start+1)
	copy(out, s.entries[start-1:end])
	for i := range out {
		out[i].Payload = append([]byte(nil), out[i].Payload...)
	}
	return out, nil
}

func (s *MemoryStore) Tail(_ context.Context) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return Entry{}, false, nil
	}
	return s.entries[len(s.entries)-1], true, nil
}

// Tamper overwrites a stored payload in place. Only for tests that need to
// simulate post-append corruption; the public interface has no mutation path.
func (s *MemoryStore) Tamper(sequence uint64, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sequence == 0 || sequence > uint64(len(s.entries)) {
		return
	}
	s.entries[sequence-1].Payload = payload
}
