package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// newMeRequest builds a fresh GET /v1/me request against the test server.
func newMeRequest(t *testing.T, base string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, base+"/v1/me", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	return req
}

func TestSingleFlightRefresh(t *testing.T) {
	var refreshCalls int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/refresh":
			atomic.AddInt64(&refreshCalls, 1)
			// Hold the winner long enough for the losers to pile up.
			time.Sleep(100 * time.Millisecond)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"new"}`))
		case "/v1/me":
			if r.Header.Get("Authorization") != "Bearer new" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	s := New(srv.URL, nil)
	s.SetToken("stale")

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	codes := make([]int, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := s.Execute(newMeRequest(t, srv.URL))
			if err != nil {
				errs[i] = err
				return
			}
			codes[i] = resp.StatusCode
			drain(resp)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if codes[i] != http.StatusOK {
			t.Fatalf("caller %d: status = %d, want 200", i, codes[i])
		}
	}
	if n := atomic.LoadInt64(&refreshCalls); n != 1 {
		t.Fatalf("refresh calls = %d, want exactly 1", n)
	}
	if s.Token() != "new" {
		t.Fatalf("token = %q, want the rotated one", s.Token())
	}
}

func TestStragglerDoesNotRefreshAgain(t *testing.T) {
	var refreshCalls int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/refresh":
			atomic.AddInt64(&refreshCalls, 1)
			_, _ = w.Write([]byte(`{"access_token":"new"}`))
		case "/v1/me":
			if r.Header.Get("Authorization") != "Bearer new" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	s := New(srv.URL, nil)
	s.SetToken("stale")

	// First call rotates the token.
	resp, err := s.Execute(newMeRequest(t, srv.URL))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("first call: %v / %v", err, resp)
	}
	drain(resp)

	// A straggler that earned its 401 with the stale token must ride the
	// rotation that already happened instead of starting another one.
	if ok := s.awaitRefresh(context.Background(), "stale"); !ok {
		t.Fatal("straggler should observe the completed rotation")
	}
	if n := atomic.LoadInt64(&refreshCalls); n != 1 {
		t.Fatalf("refresh calls = %d, want exactly 1", n)
	}
}

func TestRefreshFailureEndsSessionOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/refresh":
			time.Sleep(50 * time.Millisecond)
			w.WriteHeader(http.StatusUnauthorized)
		case "/v1/me":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	var ends int64
	s := New(srv.URL, nil, OnSessionEnd(func() { atomic.AddInt64(&ends, 1) }))
	s.SetToken("stale")

	const callers = 6
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Execute(newMeRequest(t, srv.URL))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("caller %d: err = %v, want ErrSessionExpired", i, err)
		}
	}
	if n := atomic.LoadInt64(&ends); n != 1 {
		t.Fatalf("OnSessionEnd fired %d times, want exactly once", n)
	}

	// The session stays dead.
	if _, err := s.Execute(newMeRequest(t, srv.URL)); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("post-termination err = %v, want ErrSessionExpired", err)
	}
	if s.Token() != "" {
		t.Fatal("terminated session must not keep a token")
	}
}

func TestReplayExactlyOnce(t *testing.T) {
	var meCalls, refreshCalls int64

	// Rotation succeeds but the resource keeps rejecting; the second 401
	// must come back to the caller instead of looping.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/refresh":
			atomic.AddInt64(&refreshCalls, 1)
			_, _ = w.Write([]byte(`{"access_token":"new"}`))
		case "/v1/me":
			atomic.AddInt64(&meCalls, 1)
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	s := New(srv.URL, nil)
	s.SetToken("stale")

	resp, err := s.Execute(newMeRequest(t, srv.URL))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want the replayed 401 surfaced", resp.StatusCode)
	}
	if n := atomic.LoadInt64(&meCalls); n != 2 {
		t.Fatalf("resource calls = %d, want original plus one replay", n)
	}
	if n := atomic.LoadInt64(&refreshCalls); n != 1 {
		t.Fatalf("refresh calls = %d, want 1", n)
	}
}

func TestRefreshEndpoint401EndsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var ends int64
	s := New(srv.URL, nil, OnSessionEnd(func() { atomic.AddInt64(&ends, 1) }))
	s.SetToken("stale")

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/auth/refresh", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if _, err := s.Execute(req); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
	if n := atomic.LoadInt64(&ends); n != 1 {
		t.Fatalf("OnSessionEnd fired %d times, want exactly once", n)
	}
}

func TestUnreplayableBodyIsNotRefreshed(t *testing.T) {
	var refreshCalls int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/auth/refresh" {
			atomic.AddInt64(&refreshCalls, 1)
			_, _ = w.Write([]byte(`{"access_token":"new"}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := New(srv.URL, nil)
	s.SetToken("stale")

	// A one-shot reader leaves GetBody nil, so the body cannot be rebuilt
	// for a replay.
	body := io.Reader(struct{ io.Reader }{strings.NewReader(`{"content":"hi"}`)})
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/suggestions", body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	resp, err := s.Execute(req)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want the 401 handed back untouched", resp.StatusCode)
	}
	if n := atomic.LoadInt64(&refreshCalls); n != 0 {
		t.Fatalf("refresh calls = %d, want none", n)
	}
}

func TestLoginInstallsTokenAndRevivesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/login":
			http.SetCookie(w, &http.Cookie{
				Name: "refresh_token", Value: "opaque", Path: "/v1/auth", HttpOnly: true,
			})
			_, _ = w.Write([]byte(`{"access_token":"fresh"}`))
		case "/v1/auth/refresh":
			if ck, err := r.Cookie("refresh_token"); err != nil || ck.Value != "opaque" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"access_token":"rotated"}`))
		case "/v1/me":
			if r.Header.Get("Authorization") != "Bearer rotated" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	s := New(srv.URL, nil)

	// Simulate a dead session first; a successful login revives it.
	s.terminate()
	if err := s.Login(context.Background(), "alice", "correct"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if s.Token() != "fresh" {
		t.Fatalf("token = %q, want the login token", s.Token())
	}

	// The jar carries the refresh cookie, so an expired access token heals
	// through the normal refresh path.
	resp, err := s.Execute(newMeRequest(t, srv.URL))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	drain(resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 after cookie-backed refresh", resp.StatusCode)
	}
	if s.Token() != "rotated" {
		t.Fatalf("token = %q, want the rotated token", s.Token())
	}
}
