package mwapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Option configures a Client.
type Option func(*Client)

// WithUserAgent overrides the default User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.ua = ua
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if c.hc != nil && d > 0 {
			c.hc.Timeout = d
		}
	}
}

// WithCredentials supplies the bot username/password pair used by Login.
// Without credentials the client operates anonymously.
func WithCredentials(username, password string) Option {
	return func(c *Client) {
		c.creds = Credentials{Username: username, Password: password}
	}
}

// Credentials is an immutable username/password pair.
type Credentials struct {
	Username string
	Password string
}

func (cr Credentials) empty() bool {
	return cr.Username == "" || cr.Password == ""
}

// Client talks to one MediaWiki Action API endpoint and owns the session
// state for it: the cookie jar, login state, and the cached CSRF token.
//
// The cookie jar is deliberately simple: every Set-Cookie value received is
// appended verbatim and all of them are sent back joined with "; " on each
// subsequent request. Cookies are never replaced, expired, or deduplicated.
type Client struct {
	endpoint *url.URL
	hc       *http.Client
	ua       string
	creds    Credentials

	mu        sync.Mutex
	cookies   []string
	loggedIn  bool
	editToken string

	sf singleflight.Group
}

// NewClient validates the endpoint URL and builds a client for it.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint URL (expect full URL): %q", endpoint)
	}

	c := &Client{
		endpoint: u,
		hc:       &http.Client{Timeout: 30 * time.Second},
		ua:       "wiki-mcp-go/0.1",
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c, nil
}

// Get performs a GET call with p merged into the query string.
func (c *Client) Get(ctx context.Context, p any) (*Response, error) {
	return c.Do(ctx, http.MethodGet, p)
}

// Post performs a POST call with p form-urlencoded as the body.
func (c *Client) Post(ctx context.Context, p any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, p)
}

// Do is the single transport primitive every operation goes through.
// It sends the accumulated session cookies, parses the body as JSON,
// converts an embedded error object into *APIError, and appends any
// Set-Cookie response headers to the jar.
func (c *Client) Do(ctx context.Context, method string, p any) (*Response, error) {
	values, err := normalizeParams(p)
	if err != nil {
		return nil, err
	}

	req, err := c.buildRequest(ctx, method, values)
	if err != nil {
		return nil, err
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	const maxBody = 32 << 20 // 32MiB
	body, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, err
	}

	resp := &Response{
		StatusCode: res.StatusCode,
		Header:     res.Header.Clone(),
		Raw:        json.RawMessage(body),
	}
	if err := json.Unmarshal(body, &resp.Envelope); err != nil {
		return nil, fmt.Errorf("parsing API response: %w", err)
	}

	if resp.Error != nil {
		return resp, &APIError{
			Code:       resp.Error.Code,
			Info:       resp.Error.Info,
			HTTPStatus: res.StatusCode,
		}
	}

	c.appendCookies(res.Header.Values("Set-Cookie"))
	return resp, nil
}

func (c *Client) buildRequest(ctx context.Context, method string, values url.Values) (*http.Request, error) {
	base := *c.endpoint

	var body io.Reader
	if method == http.MethodGet {
		merged := base.Query()
		for k, vs := range values {
			if len(vs) > 0 {
				merged.Set(k, vs[0])
			}
		}
		base.RawQuery = merged.Encode()
	} else {
		body = strings.NewReader(values.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, base.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.ua)
	if method != http.MethodGet {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie := c.cookieHeader(); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	return req, nil
}

func (c *Client) appendCookies(setCookies []string) {
	if len(setCookies) == 0 {
		return
	}
	c.mu.Lock()
	c.cookies = append(c.cookies, setCookies...)
	c.mu.Unlock()
}

func (c *Client) cookieHeader() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.cookies, "; ")
}
