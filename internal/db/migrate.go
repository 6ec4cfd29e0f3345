package db

import (
	"context"
	"fmt"
)

// Column types stay portable across postgres and sqlite; timestamps are
// unix milliseconds.
const schema = `
CREATE TABLE IF NOT EXISTS client_sessions (
    profile text PRIMARY KEY,
    user_id text NOT NULL,
    email text NOT NULL DEFAULT '',
    cookies text NOT NULL,
    created_at bigint NOT NULL,
    expires_at bigint NOT NULL
);

CREATE TABLE IF NOT EXISTS auth_events (
    id text PRIMARY KEY,
    action text NOT NULL,
    email text NOT NULL,
    code text NOT NULL,
    message text NOT NULL,
    occurred_at bigint NOT NULL
);

CREATE INDEX IF NOT EXISTS auth_events_email_idx
ON auth_events (email);
`

func Migrate(ctx context.Context, d *DB) error {
	if _, err := d.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	return nil
}
