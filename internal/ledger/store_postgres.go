package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	txcontext "fairlend/pkg/platform/tx"
)

// PostgresStore persists the chain in a ledger_entries table. The primary key
// on sequence_number is the compare-and-swap: the losing writer of a tail
// race hits a unique violation, which surfaces as ErrConcurrentAppend.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the ledger table when it does not exist. Kept here
// rather than in migration tooling because the schema is a single append-only
// table owned entirely by this package.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ledger_entries (
			sequence_number BIGINT PRIMARY KEY,
			timestamp_ms    BIGINT NOT NULL,
			entry_type      TEXT   NOT NULL,
			-- TEXT, not JSONB: entry hashes commit to exact payload bytes and
			-- JSONB re-normalizes key order on the way in.
			payload         TEXT   NOT NULL,
			author_id       TEXT   NOT NULL,
			prev_hash       TEXT   NOT NULL,
			entry_hash      TEXT   NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO ledger_entries (
			sequence_number, timestamp_ms, entry_type, payload,
			author_id, prev_hash, entry_hash
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		int64(entry.Sequence),
		entry.Timestamp,
		string(entry.Type),
		string(entry.Payload),
		entry.AuthorID,
		entry.PrevHash,
		entry.EntryHash,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrConcurrentAppend
		}
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ReadRange(ctx context.Context, start, end uint64) ([]Entry, error) {
	if start == 0 {
		start = 1
	}

	query := `
		SELECT sequence_number, timestamp_ms, entry_type, payload,
		       author_id, prev_hash, entry_hash
		FROM ledger_entries
		WHERE sequence_number >= $1 AND ($2 = 0 OR sequence_number <= $2)
		ORDER BY sequence_number ASC
	`
	rows, err := s.db.QueryContext(ctx, query, int64(start), int64(end))
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry     Entry
			seq       int64
			entryType string
			payload   []byte
		)
		if err := rows.Scan(&seq, &entry.Timestamp, &entryType, &payload,
			&entry.AuthorID, &entry.PrevHash, &entry.EntryHash); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entry.Sequence = uint64(seq)
		entry.Type = EntryType(entryType)
		entry.Payload = payload
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) Tail(ctx context.Context) (Entry, bool, error) {
	query := `
		SELECT sequence_number, timestamp_ms, entry_type, payload,
		       author_id, prev_hash, entry_hash
		FROM ledger_entries
		ORDER BY sequence_number DESC
		LIMIT 1
	`
	var (
		entry     Entry
		seq       int64
		entryType string
		payload   []byte
	)
	err := s.db.QueryRowContext(ctx, query).Scan(&seq, &entry.Timestamp, &entryType,
		&payload, &entry.AuthorID, &entry.PrevHash, &entry.EntryHash)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("query ledger tail: %w", err)
	}
	entry.Sequence = uint64(seq)
	entry.Type = EntryType(entryType)
	entry.Payload = payload
	return entry, true, nil
}
