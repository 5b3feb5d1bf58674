package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"fairlend/internal/ledger/metrics"
)

// Service owns the append path: sequence assignment, chain linkage, conflict
// retries, and the compromised latch. Callers pass an explicit handle to this
// service; there is no ambient global ledger.
type Service struct {
	store     Store
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher Publisher

	// retries bounds how many times a lost tail race is retried before the
	// conflict surfaces to the caller.
	retries int

	clock func() time.Time

	// compromised latches after a failed verification. Sticky until an
	// operator acknowledges; reconciliation itself is a manual process.
	compromised atomic.Bool
}

func NewService(store Store, logger *slog.Logger, m *metrics.Metrics, publisher Publisher, retries int) *Service {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if retries < 0 {
		retries = 0
	}
	return &Service{
		store:     store,
		logger:    logger,
		metrics:   m,
		publisher: publisher,
		retries:   retries,
		clock:     time.Now,
	}
}

// WithClock overrides the clock for tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Append validates nothing about the payload itself - record services do that
// before calling - and appends one entry at the tail. On a lost tail race it
// re-reads the tail and retries up to the configured budget; exhausting the
// budget surfaces ErrConcurrentAppend to the caller instead of hanging.
func (s *Service) Append(ctx context.Context, entryType EntryType, payload json.RawMessage, authorID string) (Entry, error) {
	if s.compromised.Load() {
		return Entry{}, ErrLedgerCompromised
	}
	if !entryType.IsValid() {
		return Entry{}, fmt.Errorf("unknown entry type %q", entryType)
	}

	start := s.clock()
	for attempt := 0; attempt <= s.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return Entry{}, err
		}

		tail, ok, err := s.store.Tail(ctx)
		if err != nil {
			return Entry{}, err
		}

		entry := Entry{
			Sequence:  1,
			Timestamp: s.clock().UnixMilli(),
			Type:      entryType,
			Payload:   payload,
			AuthorID:  authorID,
			PrevHash:  GenesisHash,
		}
		if ok {
			entry.Sequence = tail.Sequence + 1
			entry.PrevHash = tail.EntryHash
			// Wall clocks can step backwards; chain timestamps may not.
			if entry.Timestamp < tail.Timestamp {
				entry.Timestamp = tail.Timestamp
			}
		}

		entry.EntryHash, err = Link(entry.PrevHash, entry)
		if err != nil {
			return Entry{}, err
		}

		err = s.store.Append(ctx, entry)
		if errors.Is(err, ErrConcurrentAppend) {
			s.metrics.IncAppendConflict()
			continue
		}
		if err != nil {
			return Entry{}, err
		}

		s.metrics.IncAppend(string(entryType))
		s.metrics.ObserveAppendLatency(s.clock().Sub(start))

		if err := s.publisher.Publish(ctx, entry); err != nil {
			s.logger.WarnContext(ctx, "ledger entry publish failed",
				"sequence", entry.Sequence,
				"error", err,
			)
		}
		return entry, nil
	}

	return Entry{}, fmt.Errorf("append retry budget exhausted after %d attempts: %w", s.retries+1, ErrConcurrentAppend)
}

// ReadRange returns entries with sequence in [start, end]; end == 0 means
// through the tail. Read-only, snapshot-consistent.
func (s *Service) ReadRange(ctx context.Context, start, end uint64) ([]Entry, error) {
	return s.store.ReadRange(ctx, start, end)
}

// Snapshot returns the whole chain as of now.
func (s *Service) Snapshot(ctx context.Context) ([]Entry, error) {
	return s.store.ReadRange(ctx, 1, 0)
}

// VerifyChain walks the whole ledger recomputing every hash. A broken chain
// flips the compromised latch: all subsequent appends fail until an operator
// acknowledges.
func (s *Service) VerifyChain(ctx context.Context) (VerificationResult, error) {
	entries, err := s.Snapshot(ctx)
	if err != nil {
		return VerificationResult{}, err
	}

	result := verifyEntries(entries)
	s.metrics.IncVerifyRun()

	if !result.Valid {
		s.compromised.Store(true)
		s.metrics.SetChainBroken(true)
		s.logger.ErrorContext(ctx, "ledger chain verification failed",
			"broken_at", result.BrokenAt,
		)
	}
	return result, nil
}

// Compromised reports whether the store is refusing writes.
func (s *Service) Compromised() bool {
	return s.compromised.Load()
}

// AcknowledgeCompromise clears the latch after manual reconciliation. The
// next VerifyChain re-latches immediately if the chain is still broken.
func (s *Service) AcknowledgeCompromise(ctx context.Context) {
	s.compromised.Store(false)
	s.metrics.SetChainBroken(false)
	s.logger.WarnContext(ctx, "ledger compromise acknowledged by operator")
}

// Close releases the publisher.
func (s *Service) Close() {
	s.publisher.Close()
}
