package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	sqliteTimeLayout = time.RFC3339Nano
	// MemoryDSN keeps the journal for the life of the process only.
	MemoryDSN = ":memory:"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLiteJournal(db *sql.DB) (*SQLiteJournal, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	return &SQLiteJournal{db: db}, nil
}

// OpenSQLite opens dsn and applies migrations. A single connection is used so
// that an in-memory database is shared by every query.
func OpenSQLite(dsn string) (*SQLiteJournal, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = MemoryDSN
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := MigrateUp(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	journal, err := NewSQLiteJournal(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return journal, nil
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

func (j *SQLiteJournal) Append(ctx context.Context, in Event) error {
	if strings.TrimSpace(in.SessionID) == "" || strings.TrimSpace(string(in.Kind)) == "" {
		return fmt.Errorf("%w: session and kind are required", ErrInvalidEvent)
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO journal_events (session_id, task_id, task_name, kind, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		in.SessionID, in.TaskID, in.TaskName, string(in.Kind), in.Detail, mustTime(in.CreatedAt),
	)
	return err
}

func (j *SQLiteJournal) List(ctx context.Context, filter EventFilter) ([]Event, error) {
	query := `SELECT id, session_id, task_id, task_name, kind, detail, created_at FROM journal_events`
	clauses := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if filter.SessionID != "" {
		clauses = append(clauses, "session_id = ?")
		args = append(args, filter.SessionID)
	}
	if filter.TaskID > 0 {
		clauses = append(clauses, "task_id = ?")
		args = append(args, filter.TaskID)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC`
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Event, 0)
	for rows.Next() {
		item, scanErr := scanEvent(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func applyPagination(args *[]any, limit, offset int) string {
	sql := ""
	if limit > 0 {
		sql += " LIMIT ?"
		*args = append(*args, limit)
	} else if offset > 0 {
		sql += " LIMIT -1"
	}
	if offset > 0 {
		sql += " OFFSET ?"
		*args = append(*args, offset)
	}
	return sql
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (Event, error) {
	var out Event
	var kind string
	var created string
	if err := s.Scan(&out.ID, &out.SessionID, &out.TaskID, &out.TaskName, &kind, &out.Detail, &created); err != nil {
		return Event{}, err
	}
	createdAt, err := time.Parse(sqliteTimeLayout, created)
	if err != nil {
		return Event{}, err
	}
	out.Kind = EventKind(kind)
	out.CreatedAt = createdAt
	return out, nil
}
