package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"auth-client/internal/auth"
)

// Client calls the first-party backend's session endpoints. Cookies the
// backend sets are kept in the client's jar, which stands in for the
// browser's cookie store.
type Client struct {
	baseURL     *url.URL
	sessionPath string
	logoutPath  string
	http        *http.Client
}

type Options struct {
	BaseURL     string
	SessionPath string
	LogoutPath  string
	Timeout     time.Duration
	// Transport overrides the HTTP transport (tests use httptest's).
	Transport http.RoundTripper
}

func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("backend: invalid base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend: base url %q must be absolute", opts.BaseURL)
	}
	if opts.SessionPath == "" || opts.LogoutPath == "" {
		return nil, errors.New("backend: session and logout paths are required")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:     base,
		sessionPath: opts.SessionPath,
		logoutPath:  opts.LogoutPath,
		http: &http.Client{
			Jar:       jar,
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
	}, nil
}

// BaseURL is the origin the session cookies belong to.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Cookies returns the cookies currently held for the backend origin.
func (c *Client) Cookies() []*http.Cookie {
	return c.http.Jar.Cookies(c.baseURL)
}

// SetCookies loads previously persisted cookies into the jar.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	c.http.Jar.SetCookies(c.baseURL, cookies)
}

// ExchangeSessionToken posts the identity token as a bearer credential.
// Any non-2xx answer is an *auth.ExchangeError. The call is never retried.
func (c *Client) ExchangeSessionToken(ctx context.Context, token auth.IDToken) error {
	if token == "" {
		return &auth.ExchangeError{Status: 0, Message: "No identity token provided."}
	}

	status, msg, err := c.post(ctx, c.sessionPath, "Bearer "+string(token))
	if err != nil {
		return fmt.Errorf("session exchange: %w", err)
	}
	if status < 200 || status > 299 {
		if msg == "" {
			msg = auth.MsgExchangeFailed
		}
		return &auth.ExchangeError{Status: status, Message: msg}
	}
	return nil
}

// Logout asks the backend to clear the first-party session.
func (c *Client) Logout(ctx context.Context) error {
	status, msg, err := c.post(ctx, c.logoutPath, "")
	if err != nil {
		return fmt.Errorf("backend logout: %w", err)
	}
	if status < 200 || status > 299 {
		if msg == "" {
			msg = auth.MsgLogoutFailed
		}
		return &auth.LogoutError{Status: status, Message: msg}
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) post(ctx context.Context, path, authorization string) (int, string, error) {
	// JoinPath keeps a base path such as http://host/app.
	target := c.baseURL.JoinPath(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader([]byte("{}")))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, "", nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return resp.StatusCode, body.Error, nil
	}
	return resp.StatusCode, "", nil
}
