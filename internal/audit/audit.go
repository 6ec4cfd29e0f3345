package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"auth-client/internal/db"
)

// Action names the remote step an event describes.
type Action string

const (
	ActionSignup   Action = "signup"
	ActionLogin    Action = "login"
	ActionExchange Action = "exchange"
	ActionLogout   Action = "logout"
)

// Event is one attempt that reached the identity provider or the backend.
// Code is "ok" on success, otherwise the provider code or a backend status.
type Event struct {
	ID      uuid.UUID
	Action  Action
	Email   string
	Code    string
	Message string
	At      time.Time
}

const CodeOK = "ok"

// Recorder stores events. Failures to record never fail the attempt.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Record(context.Context, Event) error { return nil }

// SQLRecorder appends events to the auth_events table.
type SQLRecorder struct {
	db *db.DB
}

func NewSQLRecorder(database *db.DB) *SQLRecorder {
	return &SQLRecorder{db: database}
}

func (r *SQLRecorder) Record(ctx context.Context, e Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}

	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO auth_events (id, action, email, code, message, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`), e.ID.String(), string(e.Action), e.Email, e.Code, e.Message, e.At.UnixMilli())
	if err != nil {
		return fmt.Errorf("audit: record: %w", err)
	}
	return nil
}

// Recent returns the latest events for email, newest first.
func (r *SQLRecorder) Recent(ctx context.Context, email string, limit int) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`
		SELECT id, action, email, code, message, occurred_at
		FROM auth_events
		WHERE email = ?
		ORDER BY occurred_at DESC
		LIMIT ?
	`), email, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e      Event
			id     string
			action string
			at     int64
		)
		if err := rows.Scan(&id, &action, &e.Email, &e.Code, &e.Message, &at); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("audit: bad event id %q: %w", id, err)
		}
		e.ID = parsed
		e.Action = Action(action)
		e.At = time.UnixMilli(at)
		out = append(out, e)
	}
	return out, rows.Err()
}
