package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sagility/billingctl/internal/api"
	"github.com/sagility/billingctl/internal/types"
)

// AuthAPI is the slice of the backend client the session manager needs.
type AuthAPI interface {
	Login(ctx context.Context, req types.LoginRequest) (*types.AuthResponse, error)
	Register(ctx context.Context, req types.RegisterRequest) (*types.AuthResponse, error)
}

// Result is what Login and Register hand back to callers. Errors are folded
// into it; the manager never makes its callers handle a raised error.
type Result struct {
	Success bool
	Error   string
	Message string
}

// Timer is the one-shot auto-logout timer handle.
type Timer interface {
	Stop() bool
}

// Options inject time for tests.
type Options struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
	// AfterFunc arms a one-shot timer. Defaults to time.AfterFunc.
	AfterFunc func(d time.Duration, f func()) Timer
}

// Manager is the single source of truth for "is a user logged in and who are
// they". The session has exactly two states, anonymous and authenticated;
// logout (explicit, 401-driven, or timer-driven expiry) is the only way back.
type Manager struct {
	api   AuthAPI
	store Store
	now   func() time.Time
	after func(time.Duration, func()) Timer

	mu        sync.Mutex
	token     string
	expiresAt *time.Time
	user      *types.User
	timer     Timer
}

// NewManager builds a manager over the given store and restores any persisted
// session: a still-valid token comes back with its auto-logout timer re-armed
// for the remaining duration, an expired one is cleared immediately.
func NewManager(authAPI AuthAPI, store Store, opts *Options) *Manager {
	m := &Manager{
		api:   authAPI,
		store: store,
		now:   time.Now,
		after: func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) },
	}
	if opts != nil {
		if opts.Now != nil {
			m.now = opts.Now
		}
		if opts.AfterFunc != nil {
			m.after = opts.AfterFunc
		}
	}
	m.restore()
	return m
}

// restore rebuilds in-memory state from the store at construction time.
func (m *Manager) restore() {
	token, ok := m.store.Get(KeyToken)
	if !ok || token == "" {
		return
	}

	var expiresAt *time.Time
	if raw, ok := m.store.Get(KeyTokenExpiresAt); ok && raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			expiresAt = &t
		}
	}

	if expiresAt != nil && !expiresAt.After(m.now()) {
		// Token already expired while the client was closed.
		m.Logout()
		return
	}

	m.mu.Lock()
	m.token = token
	m.expiresAt = expiresAt
	if raw, ok := m.store.Get(KeyUser); ok && raw != "" {
		var u types.User
		if err := json.Unmarshal([]byte(raw), &u); err == nil {
			m.user = &u
		}
	}
	m.mu.Unlock()

	if expiresAt != nil {
		m.armTimer(*expiresAt)
	}
}

// Login authenticates and, on success, persists the session and arms the
// auto-logout timer. Failures come back as a Result, never as an error.
func (m *Manager) Login(ctx context.Context, req types.LoginRequest) Result {
	resp, err := m.api.Login(ctx, req)
	if err != nil {
		return Result{Success: false, Error: api.Detail(err, "Login failed")}
	}
	return m.adopt(resp)
}

// Register creates an account. If the backend's response carries a token the
// session starts immediately; otherwise the account exists but the session
// stays anonymous and Result.Message explains what happened.
func (m *Manager) Register(ctx context.Context, req types.RegisterRequest) Result {
	resp, err := m.api.Register(ctx, req)
	if err != nil {
		return Result{Success: false, Error: api.Detail(err, "Registration failed")}
	}
	if resp.AccessToken == "" {
		msg := resp.Message
		if msg == "" {
			msg = "Account created, please log in"
		}
		return Result{Success: true, Message: msg}
	}
	return m.adopt(resp)
}

// adopt installs a token-bearing auth response as the current session.
func (m *Manager) adopt(resp *types.AuthResponse) Result {
	deadline := resp.ExpiresAt
	if deadline == nil {
		deadline = jwtExpiry(resp.AccessToken)
	}
	if deadline != nil && !deadline.After(m.now()) {
		// Server handed out an already-dead session; treat as failure.
		m.Logout()
		return Result{Success: false, Error: "Received an already-expired session"}
	}

	_ = m.store.Set(KeyToken, resp.AccessToken)
	if deadline != nil {
		_ = m.store.Set(KeyTokenExpiresAt, deadline.Format(time.RFC3339))
	} else {
		_ = m.store.Remove(KeyTokenExpiresAt)
	}
	if resp.User != nil {
		if raw, err := json.Marshal(resp.User); err == nil {
			_ = m.store.Set(KeyUser, string(raw))
		}
	} else {
		_ = m.store.Remove(KeyUser)
	}

	m.mu.Lock()
	m.token = resp.AccessToken
	m.expiresAt = deadline
	m.user = resp.User
	m.mu.Unlock()

	if deadline != nil {
		m.armTimer(*deadline)
	}
	return Result{Success: true}
}

// Logout clears the persisted and in-memory session. Safe to call in any
// state, any number of times.
func (m *Manager) Logout() {
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.token = ""
	m.expiresAt = nil
	m.user = nil
	m.mu.Unlock()

	_ = m.store.Remove(KeyToken)
	_ = m.store.Remove(KeyTokenExpiresAt)
	_ = m.store.Remove(KeyUser)
}

// armTimer schedules the one-shot auto-logout at the given wall-clock
// deadline, replacing any previously armed timer.
func (m *Manager) armTimer(deadline time.Time) {
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = m.after(deadline.Sub(m.now()), m.Logout)
	m.mu.Unlock()
}

// Authenticated reports whether a token is held.
func (m *Manager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token != ""
}

// Token returns the current bearer token, or empty.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// User returns the cached user, if the backend provided one at login.
func (m *Manager) User() *types.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// ExpiresAt returns the session deadline, or nil for tokens without one.
func (m *Manager) ExpiresAt() *time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiresAt
}

// jwtExpiry extracts the exp claim from a JWT without verifying it — the
// client holds no signing key, and the value only schedules a local logout.
// Opaque tokens yield nil.
func jwtExpiry(token string) *time.Time {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time
	return &t
}
