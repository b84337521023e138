// Package session owns the signed-in user: it restores a persisted token at
// startup, signs in and out, and exposes the current user's role.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/p-n-ai/pai-lms/internal/audit"
	"github.com/p-n-ai/pai-lms/internal/lmsapi"
)

var (
	// ErrExpired is returned by Init when the stored token has expired.
	ErrExpired = errors.New("session token expired")
	// ErrSignedOut is returned when an operation needs a signed-in user.
	ErrSignedOut = errors.New("not signed in")
)

// Authenticator talks to the backend's auth endpoints.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	Me(ctx context.Context, token string) (lmsapi.User, error)
	Logout(ctx context.Context, token string) error
}

// APIAuthenticator adapts an lmsapi.Client to Authenticator.
type APIAuthenticator struct {
	Client *lmsapi.Client
}

func (a APIAuthenticator) Login(ctx context.Context, email, password string) (string, error) {
	resp, err := a.Client.Login(ctx, email, password)
	if err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

func (a APIAuthenticator) Me(ctx context.Context, token string) (lmsapi.User, error) {
	return a.Client.WithToken(token).Me(ctx)
}

func (a APIAuthenticator) Logout(ctx context.Context, token string) error {
	return a.Client.WithToken(token).Logout(ctx)
}

// Manager is the process-wide session. It never refreshes in the background.
type Manager struct {
	store  TokenStore
	auth   Authenticator
	events audit.Logger
	now    func() time.Time

	mu    sync.RWMutex
	token string
	user  *lmsapi.User
}

// NewManager creates a signed-out session.
func NewManager(store TokenStore, auth Authenticator, events audit.Logger) *Manager {
	if events == nil {
		events = audit.NopLogger{}
	}
	return &Manager{store: store, auth: auth, events: events, now: time.Now}
}

// Init restores the persisted token. A token that is expired or rejected by
// the backend is removed and the session stays signed out. No stored token
// is not an error.
func (m *Manager) Init(ctx context.Context) error {
	tok, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	if tok == "" {
		return nil
	}
	if expired(tok, m.now()) {
		m.discard(ctx)
		return ErrExpired
	}
	user, err := m.auth.Me(ctx, tok)
	if err != nil {
		m.discard(ctx)
		return fmt.Errorf("restore session: %w", err)
	}

	m.mu.Lock()
	m.token = tok
	m.user = &user
	m.mu.Unlock()
	slog.Info("session restored", "employee_id", user.EmployeeID, "role", user.Role)
	return nil
}

// Login signs in, persists the token and loads the user.
func (m *Manager) Login(ctx context.Context, email, password string) (lmsapi.User, error) {
	tok, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return lmsapi.User{}, err
	}
	user, err := m.auth.Me(ctx, tok)
	if err != nil {
		return lmsapi.User{}, fmt.Errorf("load user: %w", err)
	}
	if err := m.store.Save(ctx, tok); err != nil {
		return lmsapi.User{}, err
	}

	m.mu.Lock()
	m.token = tok
	m.user = &user
	m.mu.Unlock()

	m.record(audit.ActionLogin, user.EmployeeID)
	return user, nil
}

// Teardown signs out. Backend errors are ignored; the local token and user
// are always cleared.
func (m *Manager) Teardown(ctx context.Context) error {
	m.mu.Lock()
	tok := m.token
	var actor string
	if m.user != nil {
		actor = m.user.EmployeeID
	}
	m.token = ""
	m.user = nil
	m.mu.Unlock()

	if tok != "" {
		if err := m.auth.Logout(ctx, tok); err != nil {
			slog.Debug("logout call failed", "error", err)
		}
		m.record(audit.ActionLogout, actor)
	}
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// Token returns the current access token.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// User returns the signed-in user.
func (m *Manager) User() (lmsapi.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return lmsapi.User{}, false
	}
	return *m.user, true
}

// Require returns the signed-in user or ErrSignedOut.
func (m *Manager) Require() (lmsapi.User, error) {
	u, ok := m.User()
	if !ok {
		return lmsapi.User{}, ErrSignedOut
	}
	return u, nil
}

// IsAdmin reports whether the signed-in user is an admin.
func (m *Manager) IsAdmin() bool {
	u, ok := m.User()
	return ok && u.Role == lmsapi.RoleAdmin
}

// IsEmployee reports whether the signed-in user is an employee.
func (m *Manager) IsEmployee() bool {
	u, ok := m.User()
	return ok && u.Role == lmsapi.RoleEmployee
}

func (m *Manager) discard(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		slog.Warn("failed to clear stale token", "error", err)
	}
}

func (m *Manager) record(action, actor string) {
	if err := m.events.LogEvent(audit.Event{Actor: actor, Action: action, SubjectID: actor}); err != nil {
		slog.Warn("failed to log audit event", "action", action, "error", err)
	}
}

// expired reports whether tok is a JWT whose exp claim is in the past.
// Tokens that are not JWTs are left for the backend to judge.
func expired(tok string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time)
}
