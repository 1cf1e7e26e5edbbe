// Package history records launch sessions and their supervisor events.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Migui-6/Launcher-VRacing/internal/logging"
	"github.com/Migui-6/Launcher-VRacing/internal/supervisor"
)

// Session status values
const (
	StatusRunning = "running"
	StatusExited  = "exited"
	StatusKilled  = "killed"
	StatusFailed  = "failed"
)

// Session is one launch of a game
type Session struct {
	ID        string     `json:"id"`
	GameID    string     `json:"game_id"`
	GameName  string     `json:"game_name"`
	Mode      string     `json:"mode"`
	Status    string     `json:"status"`
	PID       int        `json:"pid,omitempty"`
	Image     string     `json:"image,omitempty"`
	ExitCode  *int       `json:"exit_code,omitempty"`
	Message   string     `json:"message,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// EventRecord is one stored supervisor event
type EventRecord struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Type      string    `json:"type"`
	PID       int       `json:"pid,omitempty"`
	Image     string    `json:"image,omitempty"`
	ExitCode  *int      `json:"exit_code,omitempty"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists sessions in sqlite and implements supervisor.EventSink.
type Store struct {
	db *sql.DB
}

// NewStore wraps an already migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Publish records evt, logging instead of failing so supervision never
// depends on the database.
func (s *Store) Publish(evt supervisor.Event) {
	if err := s.Record(context.Background(), evt); err != nil {
		logging.Component("history").Warn("failed to record supervisor event", "event", evt.Type, "session_id", evt.SessionID, "error", err)
	}
}

// Record stores evt and updates its session row in one transaction.
func (s *Store) Record(ctx context.Context, evt supervisor.Event) error {
	if evt.SessionID == "" {
		return fmt.Errorf("event %s has no session id", evt.Type)
	}
	at := evt.Time
	if at.IsZero() {
		at = time.Now().UTC()
	}
	ms := at.UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	switch evt.Type {
	case supervisor.EventLaunched, supervisor.EventLaunchFailed:
		status, ended := StatusRunning, sql.NullInt64{}
		if evt.Type == supervisor.EventLaunchFailed {
			status, ended = StatusFailed, sql.NullInt64{Int64: ms, Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO sessions (id, game_id, game_name, mode, status, pid, image, message, started_at, ended_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			evt.SessionID, evt.GameID, evt.GameName, string(evt.Mode), status, evt.PID, evt.Image, evt.Message, ms, ended)
	case supervisor.EventAttached:
		_, err = tx.ExecContext(ctx, `UPDATE sessions SET pid = ?, image = ? WHERE id = ?`,
			evt.PID, evt.Image, evt.SessionID)
	case supervisor.EventExited:
		_, err = tx.ExecContext(ctx, `
			UPDATE sessions SET status = ?, exit_code = ?, ended_at = ?
			WHERE id = ? AND status = ?`,
			StatusExited, exitCode(evt.ExitCode), ms, evt.SessionID, StatusRunning)
	case supervisor.EventKilled:
		_, err = tx.ExecContext(ctx, `
			UPDATE sessions SET status = ?, ended_at = ?
			WHERE id = ? AND status = ?`,
			StatusKilled, ms, evt.SessionID, StatusRunning)
	}
	if err != nil {
		return fmt.Errorf("failed to update session %s: %w", evt.SessionID, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO session_events (session_id, type, pid, image, exit_code, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		evt.SessionID, string(evt.Type), evt.PID, evt.Image, exitCode(evt.ExitCode), evt.Message, ms); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return tx.Commit()
}

// Recent returns the newest sessions first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, game_id, game_name, mode, status, pid, image, exit_code, message, started_at, ended_at
		FROM sessions ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// Get returns one session.
func (s *Store) Get(ctx context.Context, id string) (Session, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, game_id, game_name, mode, status, pid, image, exit_code, message, started_at, ended_at
		FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	return session, true, nil
}

// Events returns the events of one session in the order they happened.
func (s *Store) Events(ctx context.Context, sessionID string) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, type, pid, image, exit_code, message, created_at
		FROM session_events WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []EventRecord
	for rows.Next() {
		var (
			rec     EventRecord
			code    sql.NullInt64
			created int64
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Type, &rec.PID, &rec.Image, &code, &rec.Message, &created); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		rec.ExitCode = intPtr(code)
		rec.CreatedAt = time.UnixMilli(created).UTC()
		events = append(events, rec)
	}
	return events, rows.Err()
}

// Prune deletes finished sessions started before cutoff, with their events.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE started_at < ? AND status != ?`,
		cutoff.UnixMilli(), StatusRunning)
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var (
		session Session
		code    sql.NullInt64
		started int64
		ended   sql.NullInt64
	)
	if err := row.Scan(&session.ID, &session.GameID, &session.GameName, &session.Mode, &session.Status,
		&session.PID, &session.Image, &code, &session.Message, &started, &ended); err != nil {
		if err == sql.ErrNoRows {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("failed to scan session: %w", err)
	}
	session.ExitCode = intPtr(code)
	session.StartedAt = time.UnixMilli(started).UTC()
	if ended.Valid {
		t := time.UnixMilli(ended.Int64).UTC()
		session.EndedAt = &t
	}
	return session, nil
}

func exitCode(code *int) sql.NullInt64 {
	if code == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*code), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
