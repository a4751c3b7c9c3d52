package journal

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	corejournal "github.com/kilianp07/timetable/core/journal"
)

// SQLiteStore persists journal records to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS journal (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        ts INTEGER,
        event TEXT,
        payload TEXT,
        error TEXT
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the record to the database.
func (s *SQLiteStore) Append(ctx context.Context, rec corejournal.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO journal (ts, event, payload, error) VALUES (?, ?, ?, ?)`,
		rec.Timestamp.UnixNano(), rec.Event, string(rec.Payload), rec.Error)
	return err
}

// Query returns records matching q, oldest first.
func (s *SQLiteStore) Query(ctx context.Context, q corejournal.Query) ([]corejournal.Record, error) {
	var args []any
	query := `SELECT ts, event, payload, error FROM journal WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.End.UnixNano())
	}
	if q.Event != "" {
		query += ` AND event = ?`
		args = append(args, q.Event)
	}
	query += ` ORDER BY ts, id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []corejournal.Record
	for rows.Next() {
		var (
			ts      int64
			r       corejournal.Record
			payload string
		)
		if err := rows.Scan(&ts, &r.Event, &payload, &r.Error); err != nil {
			return nil, err
		}
		r.Timestamp = unixNano(ts)
		if payload != "" {
			r.Payload = []byte(payload)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return q.Tail(res), nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
