package mwapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func tokenResponse(name, token string) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"tokens": map[string]any{
				name: token,
			},
		},
	}
}

func TestLogin_SingleHandshake(t *testing.T) {
	t.Parallel()

	var tokenCalls, loginCalls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}

		switch r.Form.Get("action") {
		case "query":
			if r.Form.Get("meta") == "tokens" && r.Form.Get("type") == "login" {
				tokenCalls.Add(1)
				writeJSON(t, w, tokenResponse("logintoken", "LOGIN_TOKEN"))
				return
			}
		case "login":
			loginCalls.Add(1)
			if r.Form.Get("lgname") != "Bot" || r.Form.Get("lgtoken") != "LOGIN_TOKEN" {
				writeJSON(t, w, map[string]any{
					"login": map[string]any{"result": "WrongToken"},
				})
				return
			}
			writeJSON(t, w, map[string]any{
				"login": map[string]any{
					"result":     "Success",
					"lguserid":   7,
					"lgusername": "Bot",
				},
			})
			return
		}
		writeJSON(t, w, map[string]any{
			"error": map[string]any{"code": "badtest", "info": "unhandled request"},
		})
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, WithCredentials("Bot", "hunter2"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)

	ok, err := c.Login(ctx)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !ok {
		t.Fatalf("Login = false, want true")
	}

	// Second call is a pure cache hit.
	ok, err = c.Login(ctx)
	if err != nil || !ok {
		t.Fatalf("second Login = (%v, %v), want (true, nil)", ok, err)
	}

	if got := tokenCalls.Load(); got != 1 {
		t.Fatalf("login token fetches = %d, want 1", got)
	}
	if got := loginCalls.Load(); got != 1 {
		t.Fatalf("login submits = %d, want 1", got)
	}
}

func TestLogin_AnonymousNoNetwork(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(t, w, map[string]any{})
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ok, err := c.Login(context.Background())
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if ok {
		t.Fatalf("Login = true without credentials")
	}
	if got := calls.Load(); got != 0 {
		t.Fatalf("network calls = %d, want 0", got)
	}
}

func TestLogin_RejectedCredentials(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		switch r.Form.Get("action") {
		case "query":
			writeJSON(t, w, tokenResponse("logintoken", "LOGIN_TOKEN"))
		case "login":
			writeJSON(t, w, map[string]any{
				"login": map[string]any{
					"result": "Failed",
					"reason": "Incorrect username or password entered.",
				},
			})
		}
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, WithCredentials("Bot", "wrong"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = c.Login(context.Background())
	if err == nil {
		t.Fatalf("Login succeeded with rejected credentials")
	}
	authErr, ok := AsAuthError(err)
	if !ok {
		t.Fatalf("error %T is not *AuthError", err)
	}
	if authErr.Result != "Failed" {
		t.Fatalf("Result = %q, want %q", authErr.Result, "Failed")
	}
	if c.LoggedIn() {
		t.Fatalf("client marked logged in after rejected login")
	}
}

func TestLogin_ConcurrentSingleFlight(t *testing.T) {
	t.Parallel()

	var tokenCalls, loginCalls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		switch r.Form.Get("action") {
		case "query":
			tokenCalls.Add(1)
			// Widen the race window so all goroutines pile up on one flight.
			time.Sleep(50 * time.Millisecond)
			writeJSON(t, w, tokenResponse("logintoken", "LOGIN_TOKEN"))
		case "login":
			loginCalls.Add(1)
			writeJSON(t, w, map[string]any{
				"login": map[string]any{"result": "Success", "lgusername": "Bot"},
			})
		}
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, WithCredentials("Bot", "hunter2"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	oks := make([]bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			oks[i], errs[i] = c.Login(ctx)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("Login[%d]: %v", i, errs[i])
		}
		if !oks[i] {
			t.Fatalf("Login[%d] = false, want true", i)
		}
	}
	if got := tokenCalls.Load(); got != 1 {
		t.Fatalf("login token fetches = %d, want 1", got)
	}
	if got := loginCalls.Load(); got != 1 {
		t.Fatalf("login submits = %d, want 1", got)
	}
}

func TestEditToken_MemoizedSingleFetch(t *testing.T) {
	t.Parallel()

	var tokenCalls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("meta") == "tokens" && r.Form.Get("type") == "csrf" {
			tokenCalls.Add(1)
			time.Sleep(20 * time.Millisecond)
			writeJSON(t, w, tokenResponse("csrftoken", "CSRF_TOKEN"))
			return
		}
		writeJSON(t, w, map[string]any{
			"error": map[string]any{"code": "badtest", "info": "unhandled request"},
		})
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	const n = 10
	var wg sync.WaitGroup
	tokens := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = c.EditToken(ctx)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("EditToken[%d]: %v", i, errs[i])
		}
		if tokens[i] != "CSRF_TOKEN" {
			t.Fatalf("token[%d] = %q, want %q", i, tokens[i], "CSRF_TOKEN")
		}
	}

	// And again after the flights have settled: still no new fetch.
	if _, err := c.EditToken(ctx); err != nil {
		t.Fatalf("EditToken: %v", err)
	}
	if got := tokenCalls.Load(); got != 1 {
		t.Fatalf("token fetches = %d, want 1", got)
	}
}

func TestCookieAccumulation(t *testing.T) {
	t.Parallel()

	var call atomic.Int32
	var lastCookie atomic.Value

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastCookie.Store(r.Header.Get("Cookie"))
		switch call.Add(1) {
		case 1:
			w.Header().Add("Set-Cookie", "a=1")
		case 2:
			w.Header().Add("Set-Cookie", "b=2")
		}
		writeJSON(t, w, map[string]any{"query": map[string]any{}})
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.Get(ctx, map[string]any{"action": "query"}); err != nil {
			t.Fatalf("Get #%d: %v", i+1, err)
		}
	}

	got, _ := lastCookie.Load().(string)
	if got != "a=1; b=2" {
		t.Fatalf("third request Cookie = %q, want %q", got, "a=1; b=2")
	}
}

func TestDo_APIErrorMessage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"error": map[string]any{"code": "badtoken", "info": "Invalid CSRF token."},
		})
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = c.Get(context.Background(), map[string]any{"action": "query"})
	if err == nil {
		t.Fatalf("Get succeeded on error response")
	}
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("error %T is not *APIError", err)
	}
	if apiErr.Code != "badtoken" {
		t.Fatalf("Code = %q, want %q", apiErr.Code, "badtoken")
	}
	want := "MediaWiki API error: badtoken - Invalid CSRF token."
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestDo_FixedFieldsInjected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("format") != "json" || r.Form.Get("formatversion") != "2" {
			writeJSON(t, w, map[string]any{
				"error": map[string]any{"code": "badtest", "info": "missing fixed fields"},
			})
			return
		}
		writeJSON(t, w, map[string]any{"query": map[string]any{}})
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.Get(context.Background(), map[string]any{"action": "query"}); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := c.Post(context.Background(), map[string]any{"action": "query"}); err != nil {
		t.Fatalf("Post: %v", err)
	}
}
