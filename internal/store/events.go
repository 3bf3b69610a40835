// Package store persists the enforcement history in an encrypted database.
package store

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Ensure sqlcipher driver is registered.
	_ "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/eliteGoblin/focusd/night_mon/internal/domain"
)

const historyDBName = "history.db"

// EventStore implements domain.EventStore using a SQLCipher encrypted
// SQLite database. The history is what `nightmon status` shows and what
// survives the nightly shutdown.
type EventStore struct {
	db     *sql.DB
	dbPath string
}

// NewEventStore opens (or creates) the encrypted history database.
// The key is used as the SQLCipher passphrase via PRAGMA key.
func NewEventStore(dataDir string, key []byte) (*EventStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, historyDBName)
	keyHex := hex.EncodeToString(key)

	// Open with SQLCipher key as DSN parameter
	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", dbPath, keyHex)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open encrypted database: %w", err)
	}

	// Verify encryption works by running a query
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to encrypted database: %w", err)
	}

	s := &EventStore{db: db, dbPath: dbPath}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *EventStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		detail TEXT NOT NULL,
		at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_at ON events(at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends one event row.
func (s *EventStore) Record(kind domain.EventKind, detail string) error {
	_, err := s.db.Exec(
		`INSERT INTO events (kind, detail, at) VALUES (?, ?, ?)`,
		string(kind), detail, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *EventStore) Recent(limit int) ([]domain.Event, error) {
	rows, err := s.db.Query(
		`SELECT id, kind, detail, at FROM events ORDER BY at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var (
			e    domain.Event
			kind string
			at   int64
		)
		if err := rows.Scan(&e.ID, &kind, &e.Detail, &at); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Kind = domain.EventKind(kind)
		e.At = time.Unix(at, 0)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close closes the database.
func (s *EventStore) Close() error {
	return s.db.Close()
}

// Ensure EventStore implements domain.EventStore.
var _ domain.EventStore = (*EventStore)(nil)
