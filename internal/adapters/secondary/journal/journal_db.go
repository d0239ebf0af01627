package journal

import (
	"context"
	"database/sql"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/takumi/line-bot/internal/core/domain"
)

// DB persists the append-only processing journal in SQLite. Entries are
// written after a reply is composed and are never read back into the
// pipeline.
type DB struct {
	db    *sql.DB
	mutex sync.RWMutex
}

// New opens the journal database at path, creating the file and its parent
// directory as needed.
func New(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db}, nil
}

// createSchema creates the journal table if it doesn't exist
func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS journal (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id TEXT NOT NULL,
			user_text TEXT NOT NULL,
			route TEXT NOT NULL,
			query TEXT NOT NULL DEFAULT '',
			result_count INTEGER NOT NULL DEFAULT 0,
			reply_chars INTEGER NOT NULL DEFAULT 0,
			latency_ms INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_journal_created_at
		ON journal(created_at)
	`)
	return err
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// Record appends one processed-message entry
func (d *DB) Record(ctx context.Context, entry domain.JournalEntry) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO journal
		(message_id, user_text, route, query, result_count, reply_chars, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.MessageID,
		entry.UserText,
		entry.Route,
		entry.Query,
		entry.ResultCount,
		entry.ReplyChars,
		entry.LatencyMS,
		entry.CreatedAt.Format(time.RFC3339),
	)
	return err
}

// Recent returns the most recent entries, newest first
func (d *DB) Recent(ctx context.Context, limit int) ([]domain.JournalEntry, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, message_id, user_text, route, query, result_count, reply_chars, latency_ms, created_at
		FROM journal
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.JournalEntry{}
	for rows.Next() {
		var entry domain.JournalEntry
		var createdAtStr string

		if err := rows.Scan(
			&entry.ID,
			&entry.MessageID,
			&entry.UserText,
			&entry.Route,
			&entry.Query,
			&entry.ResultCount,
			&entry.ReplyChars,
			&entry.LatencyMS,
			&createdAtStr,
		); err != nil {
			return nil, err
		}

		createdAt, parseErr := time.Parse(time.RFC3339, createdAtStr)
		if parseErr != nil {
			log.Printf("Error parsing created_at timestamp: %v", parseErr)
		}
		entry.CreatedAt = createdAt

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Count returns the total number of recorded entries
func (d *DB) Count(ctx context.Context) (int, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM journal").Scan(&count)
	return count, err
}
