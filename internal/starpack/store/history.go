package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Result values recorded for a command.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Entry is one recorded CLI invocation.
type Entry struct {
	ID        int64
	Timestamp time.Time
	TraceID   string
	Command   string
	Target    string
	Endpoint  string
	Result    string
	ErrorKind string
	Error     string
	Duration  time.Duration
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Record appends e to the history. A zero Timestamp is set to now.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO command_history (ts, trace_id, command, target, endpoint, result, error_kind, error_message, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.Timestamp.UTC(), e.TraceID, e.Command, nullable(e.Target), nullable(e.Endpoint),
		e.Result, nullable(e.ErrorKind), nullable(e.Error), e.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, trace_id, command, target, endpoint, result, error_kind, error_message, duration_ms
		FROM command_history
		ORDER BY ts DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                                 Entry
			target, endpoint, errKind, errMsg sql.NullString
			durationMS                        int64
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.TraceID, &e.Command, &target, &endpoint,
			&e.Result, &errKind, &errMsg, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.Target = target.String
		e.Endpoint = endpoint.String
		e.ErrorKind = errKind.String
		e.Error = errMsg.String
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}
	return entries, nil
}
