// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned when a record or chat does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDatabaseError wraps low-level database failures.
	ErrDatabaseError = errors.New("database error")
)

// =============================================================================
// RECORD KINDS
// =============================================================================

// Record kinds for the keyed record table.
const (
	RecordProfile  = "profile"
	RecordSettings = "settings"
	RecordHistory  = "history"
)

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS records (
	kind        TEXT NOT NULL,
	instance_id TEXT NOT NULL,
	payload     TEXT NOT NULL,
	updated_at  INTEGER NOT NULL,
	PRIMARY KEY (kind, instance_id)
);

CREATE TABLE IF NOT EXISTS chats (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	model      TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	payload    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chats_updated ON chats(updated_at DESC);
`

// =============================================================================
// STORE
// =============================================================================

// MaxChats limits stored chats; the oldest beyond the limit are pruned.
const MaxChats = 100

// Store is a SQLite-backed persistence layer.
type Store struct {
	db         *sql.DB
	instanceID string

	// MaxChats limits stored chats (0 = unlimited).
	MaxChats int
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{db: db, MaxChats: MaxChats}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := s.loadInstanceID(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(schema)
	return err
}

// loadInstanceID reads the stable install identifier, creating it on first
// run.
func (s *Store) loadInstanceID() error {
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = 'instance_id'").Scan(&s.instanceID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	s.instanceID = generateInstanceID()
	_, err = s.db.Exec("INSERT INTO metadata (key, value) VALUES ('instance_id', ?)", s.instanceID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// InstanceID returns the stable identifier for this install.
func (s *Store) InstanceID() string {
	return s.instanceID
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// =============================================================================
// KEYED RECORDS
// =============================================================================

// SaveRecord upserts a keyed record. The write is last-write-wins: it only
// lands if its timestamp is not older than the stored row.
func (s *Store) SaveRecord(kind string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s record: %w", kind, err)
	}
	now := time.Now().UnixMilli()
	_, err = s.db.Exec(`
		INSERT INTO records (kind, instance_id, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (kind, instance_id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
		WHERE excluded.updated_at >= records.updated_at
	`, kind, s.instanceID, string(data), now)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// LoadRecord decodes a keyed record into out.
func (s *Store) LoadRecord(kind string, out any) error {
	var payload string
	err := s.db.QueryRow(
		"SELECT payload FROM records WHERE kind = ? AND instance_id = ?",
		kind, s.instanceID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("failed to decode %s record: %w", kind, err)
	}
	return nil
}

// DeleteRecord removes a keyed record.
func (s *Store) DeleteRecord(kind string) error {
	_, err := s.db.Exec(
		"DELETE FROM records WHERE kind = ? AND instance_id = ?",
		kind, s.instanceID,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// generateInstanceID creates a unique install identifier.
func generateInstanceID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "inst_" + hex.EncodeToString(bytes)
}
