package keycloak

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	realmPath = "/realms/app"
	clientID  = "auth-client"
	keyID     = "realm-key-1"
)

type realmUser struct {
	sub      string
	password string
	disabled bool
}

// fakeRealm serves the subset of a Keycloak realm the provider talks to:
// discovery, JWKS, the token endpoint and end-session.
type fakeRealm struct {
	*httptest.Server
	key *rsa.PrivateKey

	mu          sync.Mutex
	users       map[string]realmUser
	accessTTL   int
	grants      []string
	refreshSeen []string
	logouts     []map[string]string
}

func newFakeRealm(t *testing.T) *fakeRealm {
	t.Helper()
	gin.SetMode(gin.TestMode)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	fr := &fakeRealm{
		key:       key,
		accessTTL: 300,
		users: map[string]realmUser{
			"a@example.com":   {sub: "kc-uid-1", password: "secret1"},
			"off@example.com": {sub: "kc-uid-2", password: "secret1", disabled: true},
		},
	}

	r := gin.New()
	realm := r.Group(realmPath)
	realm.GET("/.well-known/openid-configuration", fr.discovery)
	realm.GET("/protocol/openid-connect/certs", fr.jwks)
	realm.POST("/protocol/openid-connect/token", fr.token)
	realm.POST("/protocol/openid-connect/logout", fr.logout)

	fr.Server = httptest.NewServer(r)
	t.Cleanup(fr.Close)
	return fr
}

func (fr *fakeRealm) issuer() string { return fr.URL + realmPath }

func (fr *fakeRealm) discovery(c *gin.Context) {
	base := fr.issuer() + "/protocol/openid-connect"
	c.JSON(http.StatusOK, gin.H{
		"issuer":                                fr.issuer(),
		"authorization_endpoint":                base + "/auth",
		"token_endpoint":                        base + "/token",
		"jwks_uri":                              base + "/certs",
		"end_session_endpoint":                  base + "/logout",
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}

func (fr *fakeRealm) jwks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"keys": []gin.H{{
		"kty": "RSA",
		"use": "sig",
		"alg": "RS256",
		"kid": keyID,
		"n":   base64.RawURLEncoding.EncodeToString(fr.key.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(fr.key.E)).Bytes()),
	}}})
}

func (fr *fakeRealm) token(c *gin.Context) {
	grant := c.PostForm("grant_type")

	fr.mu.Lock()
	fr.grants = append(fr.grants, grant)
	ttl := fr.accessTTL
	fr.mu.Unlock()

	var (
		email string
		user  realmUser
	)
	switch grant {
	case "password":
		email = c.PostForm("username")
		u, ok := fr.users[email]
		if !ok || u.password != c.PostForm("password") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_grant", "error_description": "Invalid user credentials"})
			return
		}
		if u.disabled {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_grant", "error_description": "Account disabled"})
			return
		}
		user = u
	case "refresh_token":
		rt := c.PostForm("refresh_token")
		fr.mu.Lock()
		fr.refreshSeen = append(fr.refreshSeen, rt)
		fr.mu.Unlock()
		if rt != "refresh-kc-uid-1" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_grant", "error_description": "Token is not active"})
			return
		}
		email, user = "a@example.com", fr.users["a@example.com"]
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported_grant_type"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  "access-" + user.sub,
		"token_type":    "Bearer",
		"expires_in":    ttl,
		"refresh_token": "refresh-" + user.sub,
		"id_token":      fr.signIDToken(user.sub, email),
	})
}

func (fr *fakeRealm) logout(c *gin.Context) {
	fr.mu.Lock()
	fr.logouts = append(fr.logouts, map[string]string{
		"client_id":     c.PostForm("client_id"),
		"refresh_token": c.PostForm("refresh_token"),
	})
	fr.mu.Unlock()
	c.Status(http.StatusNoContent)
}

func (fr *fakeRealm) signIDToken(sub, email string) string {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":            fr.issuer(),
		"sub":            sub,
		"aud":            clientID,
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
		"email":          email,
		"email_verified": true,
	})
	tok.Header["kid"] = keyID
	raw, err := tok.SignedString(fr.key)
	if err != nil {
		panic(err)
	}
	return raw
}

func (fr *fakeRealm) setAccessTTL(seconds int) {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	fr.accessTTL = seconds
}

func (fr *fakeRealm) refreshTokensSeen() []string {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return append([]string(nil), fr.refreshSeen...)
}

func (fr *fakeRealm) logoutForms() []map[string]string {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return append([]map[string]string(nil), fr.logouts...)
}
