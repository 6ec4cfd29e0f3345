package identitytoolkit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth-client/internal/auth"
	"auth-client/internal/auth/provider"
)

type toolkitServer struct {
	*httptest.Server
	refreshes     atomic.Int32
	lastKey       atomic.Value
	revokeRefresh atomic.Bool
}

func newToolkitServer(t *testing.T) *toolkitServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &toolkitServer{}
	r := gin.New()

	r.POST("/v1/:method", func(c *gin.Context) {
		ts.lastKey.Store(c.Query("key"))

		var req passwordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": 400, "message": "INVALID_JSON"}})
			return
		}

		switch {
		case c.Param("method") == "accounts:signUp" && req.Email == "taken@example.com":
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": 400, "message": "EMAIL_EXISTS"}})
		case c.Param("method") == "accounts:signUp" && len(req.Password) < 6:
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": 400, "message": "WEAK_PASSWORD : Password should be at least 6 characters"}})
		case c.Param("method") == "accounts:signInWithPassword" && req.Password != "secret1":
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": 400, "message": "INVALID_LOGIN_CREDENTIALS"}})
		case c.Param("method") == "accounts:signInWithPassword" && req.Email == "busy@example.com":
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": 400, "message": "TOO_MANY_ATTEMPTS_TRY_LATER : Access temporarily disabled"}})
		default:
			c.JSON(http.StatusOK, gin.H{
				"idToken":      "tok-123",
				"email":        req.Email,
				"refreshToken": "refresh-1",
				"expiresIn":    "3600",
				"localId":      "uid-1",
			})
		}
	})

	r.POST("/securetoken/v1/token", func(c *gin.Context) {
		ts.refreshes.Add(1)
		if ts.revokeRefresh.Load() {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": 400, "message": "TOKEN_EXPIRED", "status": "INVALID_ARGUMENT"}})
			return
		}
		if c.PostForm("grant_type") != "refresh_token" || c.PostForm("refresh_token") != "refresh-1" {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": 400, "message": "INVALID_REFRESH_TOKEN"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"access_token":  "access-2",
			"token_type":    "Bearer",
			"expires_in":    3600,
			"refresh_token": "refresh-2",
			"id_token":      "tok-456",
			"user_id":       "uid-1",
		})
	})

	ts.Server = httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func newProvider(t *testing.T, ts *toolkitServer) *Provider {
	t.Helper()
	p, err := New(Config{
		APIKey:     "api-key",
		BaseURL:    ts.URL,
		RefreshURL: ts.URL + "/securetoken/v1/token",
		HTTPClient: ts.Client(),
	})
	require.NoError(t, err)
	return p
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(Config{APIKey: "k"})
	assert.Error(t, err)
}

func TestSignInReturnsUserAndToken(t *testing.T) {
	ts := newToolkitServer(t)
	p := newProvider(t, ts)

	var events []provider.StateKind
	p.OnAuthStateChanged(func(c provider.StateChange) { events = append(events, c.Kind) })

	user, err := p.SignIn(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", user.UID)
	assert.Equal(t, "a@example.com", user.Email)
	assert.Equal(t, "identitytoolkit", user.Provider)
	assert.Equal(t, "api-key", ts.lastKey.Load())

	tok, err := p.IDToken(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, auth.IDToken("tok-123"), tok)
	assert.Zero(t, ts.refreshes.Load())

	require.NoError(t, p.SignOut(context.Background()))
	_, err = p.IDToken(context.Background(), user)
	assert.ErrorIs(t, err, auth.ErrNoCurrentUser)

	assert.Equal(t, []provider.StateKind{provider.StateSignedIn, provider.StateSignedOut}, events)
}

func TestErrorCodesAreTranslated(t *testing.T) {
	ts := newToolkitServer(t)
	p := newProvider(t, ts)
	ctx := context.Background()

	_, err := p.CreateAccount(ctx, "taken@example.com", "secret1")
	assert.Equal(t, auth.CodeEmailAlreadyInUse, auth.CodeOf(err))

	_, err = p.CreateAccount(ctx, "new@example.com", "abc")
	assert.Equal(t, auth.CodeWeakPassword, auth.CodeOf(err))

	_, err = p.SignIn(ctx, "a@example.com", "wrong")
	assert.Equal(t, auth.CodeInvalidCredential, auth.CodeOf(err))
	assert.Equal(t, auth.MsgInvalidCredentials, auth.Message(err))

	_, err = p.SignIn(ctx, "busy@example.com", "secret1")
	assert.Equal(t, auth.Code("too-many-attempts-try-later"), auth.CodeOf(err))
	assert.Contains(t, auth.Message(err), "TOO_MANY_ATTEMPTS_TRY_LATER")
}

func TestIDTokenRefreshesWhenExpired(t *testing.T) {
	ts := newToolkitServer(t)
	p := newProvider(t, ts)

	user, err := p.SignIn(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)

	var refreshed atomic.Int32
	p.OnAuthStateChanged(func(c provider.StateChange) {
		if c.Kind == provider.StateTokenRefreshed {
			refreshed.Add(1)
		}
	})

	p.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	tok, err := p.IDToken(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, auth.IDToken("tok-456"), tok)
	assert.EqualValues(t, 1, ts.refreshes.Load())
	assert.EqualValues(t, 1, refreshed.Load())
}

func TestRefreshErrorIsTranslated(t *testing.T) {
	ts := newToolkitServer(t)
	p := newProvider(t, ts)

	user, err := p.SignIn(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)

	ts.revokeRefresh.Store(true)
	p.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = p.IDToken(context.Background(), user)
	require.Error(t, err)
	assert.Equal(t, auth.Code("token-expired"), auth.CodeOf(err))
	assert.Equal(t, "Something went wrong: TOKEN_EXPIRED", auth.Message(err))
	assert.EqualValues(t, 1, ts.refreshes.Load())
}

func TestTranslate(t *testing.T) {
	assert.Equal(t, auth.CodeUserNotFound, translate("EMAIL_NOT_FOUND").Code)
	assert.Equal(t, auth.CodeWrongPassword, translate("INVALID_PASSWORD").Code)
	assert.Equal(t, auth.CodeUserDisabled, translate("USER_DISABLED").Code)
	assert.Equal(t, auth.CodeOperationNotAllowed, translate("OPERATION_NOT_ALLOWED").Code)
	assert.Equal(t, auth.CodeInvalidEmail, translate("INVALID_EMAIL").Code)
	assert.Equal(t, auth.CodeUnknown, translate("").Code)
}
