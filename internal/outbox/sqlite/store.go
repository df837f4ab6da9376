// Package sqlite provides the SQLite-backed implementation of outbox.Store.
//
// WAL mode is enabled on Open so that readers never block writers and vice
// versa — important because request handlers append rows while the dispatcher
// goroutine is sweeping for pending ones.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/onlinestore/shopping-service/internal/outbox"

	// Register the pure-Go SQLite driver. modernc.org/sqlite avoids CGO,
	// keeping Docker (Alpine) builds simple.
	_ "modernc.org/sqlite"
)

// schema is the DDL executed once on startup. One row per (event, channel)
// pair; rows flip from PENDING to SENT exactly once.
const schema = `
CREATE TABLE IF NOT EXISTS outbox_events (
    -- Event id assigned by the producer. One event may target several
    -- channels, hence the composite primary key.
    event_id     TEXT NOT NULL,

    -- Broker channel this row is bound for.
    channel      TEXT NOT NULL,

    -- Domain event type (e.g. "order.created") for observability queries.
    event_type   TEXT NOT NULL,

    -- JSON-serialised domain event, published verbatim.
    payload      TEXT NOT NULL,

    -- PENDING until the dispatcher publishes the row, then SENT.
    status       TEXT NOT NULL DEFAULT 'PENDING',

    -- Delivery attempts and the most recent failure, for inspection.
    attempts     INTEGER NOT NULL DEFAULT 0,
    last_error   TEXT NOT NULL DEFAULT '',

    -- RFC3339 timestamps stored as TEXT, SQLite idiom.
    created_at   TEXT NOT NULL,
    sent_at      TEXT,

    PRIMARY KEY (event_id, channel)
);

-- Index for the dispatcher's sweep: "oldest pending rows first".
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox_events(status, created_at);
`

const timeLayout = "2006-01-02T15:04:05.999999999Z"

var _ outbox.Store = (*Store)(nil)

// Store is the SQLite implementation of outbox.Store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at the given path and applies
// the schema. WAL mode is enabled for concurrent read/write.
func Open(path string) (*Store, error) {
	// The pure-Go driver takes _pragma query parameters for connection state.
	// busy_timeout waits for locks instead of failing immediately.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	// Use "sqlite", not "sqlite3", for the modernc driver.
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("outbox: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("outbox: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database connection. Call it with defer in main().
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Append(ctx context.Context, entry *outbox.Entry) error {
	const q = `
		INSERT INTO outbox_events (event_id, channel, event_type, payload, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, q,
		entry.ID,
		entry.Channel,
		entry.EventType,
		entry.Payload,
		string(outbox.StatusPending),
		entry.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("outbox: append event %q for %q: %w", entry.ID, entry.Channel, err)
	}
	return nil
}

func (s *Store) Pending(ctx context.Context, limit int) ([]*outbox.Entry, error) {
	const q = `
		SELECT event_id, channel, event_type, payload, status, attempts, last_error, created_at
		FROM   outbox_events
		WHERE  status = ?
		ORDER  BY created_at ASC
		LIMIT  ?`

	rows, err := s.db.QueryContext(ctx, q, string(outbox.StatusPending), limit)
	if err != nil {
		return nil, fmt.Errorf("outbox: query pending: %w", err)
	}
	defer rows.Close()

	var entries []*outbox.Entry
	for rows.Next() {
		var entry outbox.Entry
		var createdAt string
		if err := rows.Scan(
			&entry.ID,
			&entry.Channel,
			&entry.EventType,
			&entry.Payload,
			&entry.Status,
			&entry.Attempts,
			&entry.LastError,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("outbox: scan pending row: %w", err)
		}
		entry.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("outbox: parse created_at: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

func (s *Store) MarkSent(ctx context.Context, id, channel string) error {
	const q = `
		UPDATE outbox_events
		SET    status = ?, sent_at = ?, attempts = attempts + 1
		WHERE  event_id = ? AND channel = ?`

	_, err := s.db.ExecContext(ctx, q,
		string(outbox.StatusSent),
		time.Now().UTC().Format(timeLayout),
		id, channel,
	)
	if err != nil {
		return fmt.Errorf("outbox: mark %q sent: %w", id, err)
	}
	return nil
}

func (s *Store) MarkFailed(ctx context.Context, id, channel string, cause error) error {
	const q = `
		UPDATE outbox_events
		SET    attempts = attempts + 1, last_error = ?
		WHERE  event_id = ? AND channel = ?`

	_, err := s.db.ExecContext(ctx, q, cause.Error(), id, channel)
	if err != nil {
		return fmt.Errorf("outbox: mark %q failed: %w", id, err)
	}
	return nil
}
