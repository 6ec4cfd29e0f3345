package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"auth-client/internal/db"
)

// SQLStore keeps records in the client_sessions table (see db.Migrate).
type SQLStore struct {
	db  *db.DB
	now func() time.Time
}

func NewSQLStore(database *db.DB) *SQLStore {
	return &SQLStore{db: database, now: time.Now}
}

func (s *SQLStore) Save(ctx context.Context, r Record) error {
	if err := validate(r, s.now()); err != nil {
		return err
	}

	cookies, err := json.Marshal(r.Cookies)
	if err != nil {
		return fmt.Errorf("session: failed to marshal cookies: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO client_sessions (profile, user_id, email, cookies, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (profile) DO UPDATE SET
			user_id = excluded.user_id,
			email = excluded.email,
			cookies = excluded.cookies,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`), r.Profile, r.UserID, r.Email, string(cookies), r.CreatedAt.UnixMilli(), r.ExpiresAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, profile string) (*Record, error) {
	var (
		r         Record
		cookies   string
		createdMs int64
		expiresMs int64
	)

	err := s.db.QueryRowContext(ctx, s.db.Rebind(`
		SELECT profile, user_id, email, cookies, created_at, expires_at
		FROM client_sessions
		WHERE profile = ?
	`), profile).Scan(&r.Profile, &r.UserID, &r.Email, &cookies, &createdMs, &expiresMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: get: %w", err)
	}

	r.CreatedAt = time.UnixMilli(createdMs)
	r.ExpiresAt = time.UnixMilli(expiresMs)

	if r.Expired(s.now()) {
		if err := s.Delete(ctx, profile); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if err := json.Unmarshal([]byte(cookies), &r.Cookies); err != nil {
		return nil, fmt.Errorf("session: failed to unmarshal cookies: %w", err)
	}
	return &r, nil
}

func (s *SQLStore) Delete(ctx context.Context, profile string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		DELETE FROM client_sessions WHERE profile = ?
	`), profile)
	if err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}
