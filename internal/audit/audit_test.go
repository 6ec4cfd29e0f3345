package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth-client/internal/db"
)

func TestSQLRecorder(t *testing.T) {
	ctx := context.Background()
	d, err := db.Open(ctx, db.DriverSQLite, "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	r := NewSQLRecorder(d)
	base := time.Now().Add(-time.Minute)

	require.NoError(t, r.Record(ctx, Event{Action: ActionLogin, Email: "a@example.com", Code: "wrong-password", Message: "Invalid email or password.", At: base}))
	require.NoError(t, r.Record(ctx, Event{Action: ActionLogin, Email: "a@example.com", Code: CodeOK, At: base.Add(time.Second)}))
	require.NoError(t, r.Record(ctx, Event{Action: ActionLogin, Email: "b@example.com", Code: CodeOK}))

	events, err := r.Recent(ctx, "a@example.com", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, CodeOK, events[0].Code)
	assert.Equal(t, "wrong-password", events[1].Code)
	assert.Equal(t, ActionLogin, events[1].Action)
	assert.NotEqual(t, events[0].ID, events[1].ID)

	events, err = r.Recent(ctx, "a@example.com", 1)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Record(context.Background(), Event{}))
}
