package mwapi

import (
	"context"
	"fmt"
	"strings"
)

// Login performs the two-step login handshake: fetch a login token, then
// submit the credentials with it. Both steps persist session cookies.
//
// It returns false without any network activity when no credentials were
// configured (anonymous mode) and true immediately when already logged in.
// Concurrent first calls share a single in-flight handshake.
func (c *Client) Login(ctx context.Context) (bool, error) {
	c.mu.Lock()
	loggedIn := c.loggedIn
	creds := c.creds
	c.mu.Unlock()

	if loggedIn {
		return true, nil
	}
	if creds.empty() {
		return false, nil
	}

	_, err, _ := c.sf.Do("login", func() (any, error) {
		c.mu.Lock()
		if c.loggedIn {
			c.mu.Unlock()
			return nil, nil
		}
		c.mu.Unlock()

		token, err := c.fetchToken(ctx, "login")
		if err != nil {
			return nil, err
		}

		resp, err := c.Post(ctx, map[string]any{
			"action":     "login",
			"lgname":     creds.Username,
			"lgpassword": creds.Password,
			"lgtoken":    token,
		})
		if err != nil {
			return nil, err
		}

		var out struct {
			Login LoginResult `json:"login"`
		}
		if err := resp.Into(&out); err != nil {
			return nil, err
		}
		if !strings.EqualFold(out.Login.Result, "success") {
			return nil, &AuthError{Result: out.Login.Result, Reason: out.Login.Reason}
		}

		c.mu.Lock()
		c.loggedIn = true
		c.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// LoggedIn reports whether a login handshake has completed successfully.
func (c *Client) LoggedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loggedIn
}

// EditToken returns the CSRF token required by mutating calls. The token is
// fetched at most once per process and reused for every subsequent write;
// concurrent first calls share a single in-flight fetch. It is never
// invalidated, not even on a later badtoken error.
func (c *Client) EditToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.editToken != "" {
		token := c.editToken
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	v, err, _ := c.sf.Do("token:csrf", func() (any, error) {
		c.mu.Lock()
		if c.editToken != "" {
			token := c.editToken
			c.mu.Unlock()
			return token, nil
		}
		c.mu.Unlock()

		token, err := c.fetchToken(ctx, "csrf")
		if err != nil {
			return "", err
		}

		c.mu.Lock()
		c.editToken = token
		c.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) fetchToken(ctx context.Context, typ string) (string, error) {
	resp, err := c.Post(ctx, map[string]any{
		"action": "query",
		"meta":   "tokens",
		"type":   typ,
	})
	if err != nil {
		return "", err
	}

	var out struct {
		Query struct {
			Tokens map[string]string `json:"tokens"`
		} `json:"query"`
	}
	if err := resp.Into(&out); err != nil {
		return "", err
	}

	token := out.Query.Tokens[typ+"token"]
	if token == "" {
		return "", fmt.Errorf("missing %s token in response", typ)
	}
	return token, nil
}
