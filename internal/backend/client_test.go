package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth-client/internal/auth"
	"auth-client/internal/session"
	"auth-client/internal/sessiontest"
)

func newClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(Options{
		BaseURL:     baseURL,
		SessionPath: "/auth/authenticate-session",
		LogoutPath:  "/logout",
		Timeout:     2 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestNewRejectsBadOptions(t *testing.T) {
	_, err := New(Options{BaseURL: "localhost:8080", SessionPath: "/s", LogoutPath: "/l"})
	assert.Error(t, err)

	_, err = New(Options{BaseURL: "http://localhost:8080"})
	assert.Error(t, err)
}

func TestExchangeStoresSessionCookie(t *testing.T) {
	b := sessiontest.NewBackend("/auth/authenticate-session", "/logout")
	t.Cleanup(b.Close)
	c := newClient(t, b.URL)

	tok, err := sessiontest.MintToken("uid-1", "a@example.com", time.Hour)
	require.NoError(t, err)

	require.NoError(t, c.ExchangeSessionToken(context.Background(), tok))
	assert.Equal(t, []string{"Bearer " + string(tok)}, b.Bearers())
	assert.Equal(t, []string{"{}"}, b.ExchangeBodies())

	cookie, ok := session.SessionCookie(c.Cookies())
	require.True(t, ok)
	assert.NotEmpty(t, cookie.Value)
	assert.Equal(t, 1, b.ActiveSessions())

	// the jar sends the cookie back on later requests
	resp, err := c.http.Get(b.URL + "/auth/dashboard")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, c.Logout(context.Background()))
	assert.Zero(t, b.ActiveSessions())
	_, ok = session.SessionCookie(c.Cookies())
	assert.False(t, ok)
}

func TestExchangeErrors(t *testing.T) {
	b := sessiontest.NewBackend("/auth/authenticate-session", "/logout")
	t.Cleanup(b.Close)
	c := newClient(t, b.URL)
	ctx := context.Background()

	err := c.ExchangeSessionToken(ctx, "garbage")
	var ee *auth.ExchangeError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, http.StatusUnauthorized, ee.Status)
	assert.Equal(t, "Identity token verification failed.", ee.Message)

	b.FailExchange(http.StatusInternalServerError, "")
	err = c.ExchangeSessionToken(ctx, "garbage")
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, auth.MsgExchangeFailed, ee.Message)

	err = c.ExchangeSessionToken(ctx, "")
	require.ErrorAs(t, err, &ee)
	assert.Len(t, b.Bearers(), 2)
}

func TestNonJSONErrorBodyUsesDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "<html>bad gateway</html>", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	c := newClient(t, srv.URL)

	err := c.ExchangeSessionToken(context.Background(), "tok-123")
	var ee *auth.ExchangeError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, auth.MsgExchangeFailed, ee.Message)

	err = c.Logout(context.Background())
	var le *auth.LogoutError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, http.StatusBadGateway, le.Status)
	assert.Equal(t, auth.MsgLogoutFailed, le.Message)
}

func TestSetCookiesRestoresSession(t *testing.T) {
	b := sessiontest.NewBackend("/auth/authenticate-session", "/logout")
	t.Cleanup(b.Close)
	first := newClient(t, b.URL)

	tok, err := sessiontest.MintToken("uid-1", "a@example.com", time.Hour)
	require.NoError(t, err)
	require.NoError(t, first.ExchangeSessionToken(context.Background(), tok))

	rec := session.Record{Cookies: session.FromHTTP(first.Cookies())}

	second := newClient(t, b.URL)
	second.SetCookies(rec.HTTPCookies())
	require.NoError(t, second.Logout(context.Background()))
	assert.Zero(t, b.ActiveSessions())
}

func TestBaseURLPathIsKept(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c := newClient(t, srv.URL+"/app")
	require.NoError(t, c.ExchangeSessionToken(context.Background(), "tok-123"))
	require.NoError(t, c.Logout(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/app/auth/authenticate-session", "/app/logout"}, paths)
}

func TestUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newClient(t, url)
	err := c.ExchangeSessionToken(context.Background(), "tok-123")
	require.Error(t, err)
	var ee *auth.ExchangeError
	assert.False(t, errors.As(err, &ee))
}
