// Package client implements the API client session coordinator. It owns
// the access token for one client process and guarantees the single-flight
// refresh contract: however many concurrent requests hit an expired token,
// exactly one refresh call goes out, everyone else waits for its result,
// and a failed refresh tears the whole session down instead of leaving it
// half-authenticated.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"
)

const (
	loginPath   = "/v1/auth/login"
	refreshPath = "/v1/auth/refresh"
	logoutPath  = "/v1/auth/logout"
)

// ErrSessionExpired is returned for every call rejected because the
// session ended: the refresh attempt failed, the refresh endpoint itself
// answered 401, or Execute was called after either of those.
var ErrSessionExpired = errors.New("session expired")

// Coordinator coordinates outbound API calls for one client process.
// Construct it once and share it; all methods are safe for concurrent
// use. The zero value is not usable, call New.
type Coordinator struct {
	base string
	hc   *http.Client

	mu         sync.Mutex
	token      string
	refreshing bool
	pending    []*waiter
	terminated bool

	onSessionEnd func()
}

// waiter parks one caller while a refresh is in flight. ok is written
// before done is closed, and read only after.
type waiter struct {
	done chan struct{}
	ok   bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// OnSessionEnd registers a callback fired exactly once when the session
// terminates (failed refresh or a 401 from the refresh endpoint itself).
// It replaces the ambient "session expired" broadcast a browser client
// would use: the observer is passed in at construction instead.
func OnSessionEnd(fn func()) Option {
	return func(s *Coordinator) { s.onSessionEnd = fn }
}

// New builds a Coordinator for the API at baseURL. When hc is nil a
// client with a fresh cookie jar is created; the jar is what carries the
// refresh cookie between login and refresh calls.
func New(baseURL string, hc *http.Client, opts ...Option) *Coordinator {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	if hc.Jar == nil {
		jar, _ := cookiejar.New(nil)
		hc.Jar = jar
	}
	s := &Coordinator{
		base: strings.TrimRight(baseURL, "/"),
		hc:   hc,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token returns the current access token ("" when unauthenticated).
func (s *Coordinator) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SetToken restores a session from a previously obtained access token.
func (s *Coordinator) SetToken(tok string) {
	s.mu.Lock()
	s.token = tok
	s.terminated = false
	s.mu.Unlock()
}

// Execute sends the request with the current access token attached. On an
// unauthenticated response it joins (or starts) the single-flight refresh
// and then replays the request exactly once with the new token; the
// replayed call's outcome is returned as-is, so a second 401 surfaces to
// the caller instead of looping. Calls aimed at the refresh endpoint are
// never themselves refreshed: a 401 there ends the session.
func (s *Coordinator) Execute(req *http.Request) (*http.Response, error) {
	if req.URL.Path == refreshPath {
		resp, err := s.hc.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			drain(resp)
			s.terminate()
			return nil, ErrSessionExpired
		}
		return resp, nil
	}

	resp, used, err := s.send(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// A request whose body cannot be rebuilt cannot be replayed; hand the
	// 401 back rather than refreshing on its behalf.
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}
	drain(resp)

	if !s.awaitRefresh(req.Context(), used) {
		return nil, ErrSessionExpired
	}

	retry, err := cloneRequest(req)
	if err != nil {
		return nil, err
	}
	resp, _, err = s.send(retry)
	return resp, err
}

// send attaches the current token and performs the request. It returns
// the token it attached so a 401 can be matched against the token that
// actually earned it.
func (s *Coordinator) send(req *http.Request) (*http.Response, string, error) {
	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return nil, "", ErrSessionExpired
	}
	tok := s.token
	s.mu.Unlock()

	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := s.hc.Do(req)
	return resp, tok, err
}

// awaitRefresh implements the single-flight invariant. The check of the
// refreshing flag and the decision to park or start happen under one lock
// acquisition, so two callers can never both observe "not refreshing".
// Parked callers are released in arrival order after the winner finishes.
// A caller whose 401 was earned by a token that has since been replaced
// does not refresh again; the rotation it needed already happened.
func (s *Coordinator) awaitRefresh(ctx context.Context, used string) bool {
	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return false
	}
	if s.token != "" && s.token != used {
		s.mu.Unlock()
		return true
	}
	if s.refreshing {
		w := &waiter{done: make(chan struct{})}
		s.pending = append(s.pending, w)
		s.mu.Unlock()
		<-w.done
		return w.ok
	}
	s.refreshing = true
	s.mu.Unlock()

	tok, err := s.callRefresh(ctx)
	return s.finishRefresh(tok, err)
}

// finishRefresh publishes the refresh outcome: on success the new token is
// installed and the queue released in order; on failure the session moves
// to its single terminal state. Both a transport-level refresh failure and
// a 401 from the refresh endpoint funnel through the same transition, so
// there is exactly one way for a session to die.
func (s *Coordinator) finishRefresh(tok string, err error) bool {
	ok := err == nil

	s.mu.Lock()
	s.refreshing = false
	queue := s.pending
	s.pending = nil
	var cb func()
	if ok {
		s.token = tok
	} else if !s.terminated {
		s.terminated = true
		s.token = ""
		cb = s.onSessionEnd
	}
	s.mu.Unlock()

	// Release waiters in the order they were parked so replays start in
	// arrival order.
	for _, w := range queue {
		w.ok = ok
		close(w.done)
	}
	if cb != nil {
		cb()
	}
	return ok
}

// terminate moves the session to the terminal state outside the refresh
// path (used when the refresh endpoint itself returns 401). Queued calls
// are rejected and the callback fires at most once.
func (s *Coordinator) terminate() {
	s.mu.Lock()
	queue := s.pending
	s.pending = nil
	var cb func()
	if !s.terminated {
		s.terminated = true
		s.token = ""
		cb = s.onSessionEnd
	}
	s.mu.Unlock()

	for _, w := range queue {
		close(w.done) // ok stays false
	}
	if cb != nil {
		cb()
	}
}

// callRefresh performs the actual refresh call. No bearer token is
// attached; the cookie jar presents the refresh cookie and stores the
// rotated one from the response.
func (s *Coordinator) callRefresh(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.base+refreshPath, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("refresh rejected: %s", resp.Status)
	}
	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode refresh response: %w", err)
	}
	if body.AccessToken == "" {
		return "", errors.New("refresh response missing access token")
	}
	return body.AccessToken, nil
}

// Login authenticates and installs the returned access token. The refresh
// cookie lands in the jar as a side effect. A terminated coordinator
// becomes usable again after a successful login.
func (s *Coordinator) Login(ctx context.Context, username, password string) error {
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.base+loginPath, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.hc.Do(req)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login rejected: %s", resp.Status)
	}
	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	if body.AccessToken == "" {
		return errors.New("login response missing access token")
	}

	s.mu.Lock()
	s.token = body.AccessToken
	s.terminated = false
	s.mu.Unlock()
	return nil
}

// Logout clears the local session and best-effort tells the server to
// drop the stored refresh token.
func (s *Coordinator) Logout(ctx context.Context) {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.base+logoutPath, nil)
	if err != nil {
		return
	}
	if resp, err := s.hc.Do(req); err == nil {
		drain(resp)
	}
}

// cloneRequest builds the replay request, rebuilding the body from
// GetBody when one exists.
func cloneRequest(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	return retry, nil
}

// drain discards and closes a response body so the underlying connection
// can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
