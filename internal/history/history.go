// Package history persists the transition audit log.
//
// Every successful transition appends one record. The log is the place
// to investigate rule-table/executor drift: records where the executor
// reported a status other than the rule's computed target are flagged.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Record is one audit log entry.
type Record struct {
	ID             string `json:"id"`
	TaskID         string `json:"task_id"`
	Category       string `json:"category"`
	Command        string `json:"command"`
	FromStatus     string `json:"from_status"`
	ToStatus       string `json:"to_status"`
	ReportedStatus string `json:"reported_status"`
	Diverged       bool   `json:"diverged"`
	Seq            int64  `json:"seq"`
	RecordedAt     string `json:"recorded_at"`
}

// Log is the SQLite-backed audit log.
// Uses WAL mode for concurrent read access.
type Log struct {
	db *sql.DB
}

// Open creates or opens the audit database at path.
// Applies required pragmas and the schema automatically; idempotent.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Log{db: db}, nil
}

// Close closes the database connection.
func (l *Log) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Append inserts a record. Duplicate IDs are ignored so replayed
// appends stay idempotent.
func (l *Log) Append(ctx context.Context, rec Record) error {
	if rec.RecordedAt == "" {
		rec.RecordedAt = time.Now().UTC().Format(time.RFC3339)
	}
	diverged := 0
	if rec.Diverged {
		diverged = 1
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO transitions (id, task_id, category, command, from_status, to_status, reported_status, diverged, seq, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, rec.ID, rec.TaskID, rec.Category, rec.Command, rec.FromStatus, rec.ToStatus, rec.ReportedStatus, diverged, rec.Seq, rec.RecordedAt)
	if err != nil {
		return fmt.Errorf("append transition %s: %w", rec.ID, err)
	}
	return nil
}

// ForTask returns the records for a task ordered deterministically:
// ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice, not nil, when the task has no history.
func (l *Log) ForTask(ctx context.Context, taskID string) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, task_id, category, command, from_status, to_status, reported_status, diverged, seq, recorded_at
		FROM transitions
		WHERE task_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		var diverged int
		if err := rows.Scan(&rec.ID, &rec.TaskID, &rec.Category, &rec.Command, &rec.FromStatus, &rec.ToStatus, &rec.ReportedStatus, &diverged, &rec.Seq, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		rec.Diverged = diverged != 0
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}
	return records, nil
}

// Diverged returns every record where the executor reported a status
// other than the rule table's computed target, across all tasks.
func (l *Log) Diverged(ctx context.Context) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, task_id, category, command, from_status, to_status, reported_status, diverged, seq, recorded_at
		FROM transitions
		WHERE diverged = 1
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query diverged transitions: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		var diverged int
		if err := rows.Scan(&rec.ID, &rec.TaskID, &rec.Category, &rec.Command, &rec.FromStatus, &rec.ToStatus, &rec.ReportedStatus, &diverged, &rec.Seq, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		rec.Diverged = diverged != 0
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}
	return records, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}
