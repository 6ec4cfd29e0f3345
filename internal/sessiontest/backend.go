package sessiontest

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"auth-client/internal/session"
)

// Backend is a fake first-party backend: it verifies identity tokens minted
// by MintToken, issues a session cookie, and clears it on logout.
type Backend struct {
	SessionPath   string
	LogoutPath    string
	DashboardPath string

	*httptest.Server

	mu             sync.Mutex
	verify         func(token string) (uid string, err error)
	exchangeFail   *failure
	logoutFail     *failure
	bearers        []string
	sessions       map[string]string // session id -> uid
	exchangeBodies []string
	logouts        int
}

type failure struct {
	status  int
	message string
}

// NewBackend starts a backend on a local listener. Call Close when done.
func NewBackend(sessionPath, logoutPath string) *Backend {
	b := &Backend{
		SessionPath:   sessionPath,
		LogoutPath:    logoutPath,
		DashboardPath: "/auth/dashboard",
		verify:        VerifyToken,
		sessions:      make(map[string]string),
	}
	b.Server = httptest.NewServer(b.router())
	return b
}

// FailExchange makes the session endpoint answer status with {error: message}.
// An empty message sends an empty body.
func (b *Backend) FailExchange(status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.exchangeFail = &failure{status: status, message: message}
}

// FailLogout makes the logout endpoint answer status with {error: message}.
func (b *Backend) FailLogout(status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logoutFail = &failure{status: status, message: message}
}

// SetVerify replaces the bearer check. The default accepts tokens from
// MintToken.
func (b *Backend) SetVerify(fn func(token string) (uid string, err error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.verify = fn
}

// Bearers returns the Authorization headers received by the session endpoint.
func (b *Backend) Bearers() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.bearers...)
}

// ExchangeBodies returns the raw request bodies received by the session endpoint.
func (b *Backend) ExchangeBodies() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.exchangeBodies...)
}

// Logouts is the number of calls to the logout endpoint.
func (b *Backend) Logouts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.logouts
}

// ActiveSessions is the number of sessions not yet logged out.
func (b *Backend) ActiveSessions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

func (b *Backend) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST(b.SessionPath, b.authenticateSession)
	r.POST(b.LogoutPath, b.logout)

	protected := r.Group("/")
	protected.Use(b.requireSession)
	protected.GET(b.DashboardPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("userID")})
	})

	return r
}

func (b *Backend) authenticateSession(c *gin.Context) {
	header := c.GetHeader("Authorization")
	body, _ := c.GetRawData()

	b.mu.Lock()
	b.bearers = append(b.bearers, header)
	b.exchangeBodies = append(b.exchangeBodies, string(body))
	fail := b.exchangeFail
	verify := b.verify
	b.mu.Unlock()

	if fail != nil {
		writeFailure(c, fail)
		return
	}

	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No identity token provided."})
		return
	}

	uid, err := verify(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identity token verification failed."})
		return
	}

	sessionID := uuid.NewString()

	b.mu.Lock()
	b.sessions[sessionID] = uid
	b.mu.Unlock()

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     session.CookieName,
		Value:    sessionID,
		Path:     "/",
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	c.JSON(http.StatusOK, gin.H{"message": "Session successfully established."})
}

func (b *Backend) logout(c *gin.Context) {
	b.mu.Lock()
	b.logouts++
	fail := b.logoutFail
	b.mu.Unlock()

	if fail != nil {
		writeFailure(c, fail)
		return
	}

	if cookie, err := c.Request.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		b.mu.Lock()
		delete(b.sessions, cookie.Value)
		b.mu.Unlock()
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	c.JSON(http.StatusOK, gin.H{"message": "Logged out."})
}

func (b *Backend) requireSession(c *gin.Context) {
	cookie, err := c.Request.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	b.mu.Lock()
	uid, ok := b.sessions[cookie.Value]
	b.mu.Unlock()
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.Set("userID", uid)
	c.Next()
}

func writeFailure(c *gin.Context, f *failure) {
	if f.message == "" {
		c.Status(f.status)
		return
	}
	c.JSON(f.status, gin.H{"error": f.message})
}

// VerifyToken checks a token minted by MintToken.
func VerifyToken(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return SigningKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", err
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("token missing subject")
	}
	return sub, nil
}
