package vector

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

/*
SnapshotStore persists an embedded entry set to SQLite so a restart can
reload the index without re-embedding the whole knowledge base. The
ordinal column preserves insertion order, which Search relies on for
its tie-break.
*/
type SnapshotStore struct {
	db *sql.DB
}

func NewSnapshotStore(path string) (*SnapshotStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS knowledge_entries (
		ordinal   INTEGER PRIMARY KEY AUTOINCREMENT,
		id        TEXT NOT NULL,
		text      TEXT NOT NULL,
		embedding BLOB NOT NULL,
		metadata  TEXT
	);`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create snapshot schema: %w", err)
	}

	return &SnapshotStore{db: db}, nil
}

// Save replaces the snapshot with the given entries in one transaction.
func (s *SnapshotStore) Save(entries []Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM knowledge_entries`); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO knowledge_entries (id, text, embedding, metadata)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		embedding, err := json.Marshal(entry.Embedding)
		if err != nil {
			return fmt.Errorf("failed to encode embedding for %s: %w", entry.ID, err)
		}

		metadata, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata for %s: %w", entry.ID, err)
		}

		if _, err := stmt.Exec(entry.ID, entry.Text, embedding, string(metadata)); err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", entry.ID, err)
		}
	}

	return tx.Commit()
}

// Load returns the snapshotted entries in their original insertion order.
func (s *SnapshotStore) Load() ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, text, embedding, metadata
		FROM knowledge_entries
		ORDER BY ordinal`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer rows.Close()

	var entries []Entry

	for rows.Next() {
		var (
			entry    Entry
			blob     []byte
			metadata string
		)

		if err := rows.Scan(&entry.ID, &entry.Text, &blob, &metadata); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}

		if err := json.Unmarshal(blob, &entry.Embedding); err != nil {
			return nil, fmt.Errorf("failed to decode embedding for %s: %w", entry.ID, err)
		}

		if metadata != "" && metadata != "null" {
			if err := json.Unmarshal([]byte(metadata), &entry.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata for %s: %w", entry.ID, err)
			}
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (s *SnapshotStore) Close() error {
	return s.db.Close()
}
