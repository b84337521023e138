package session_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/p-n-ai/pai-lms/internal/audit"
	"github.com/p-n-ai/pai-lms/internal/lmsapi"
	"github.com/p-n-ai/pai-lms/internal/platform/apierror"
	"github.com/p-n-ai/pai-lms/internal/session"
)

type fakeAuth struct {
	users     map[string]lmsapi.User
	meCalls   int
	logouts   int
	logoutErr error
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (string, error) {
	if password != "secret1" {
		return "", &apierror.Error{Status: 401, Detail: "Incorrect email or password"}
	}
	return "tok-" + email, nil
}

func (f *fakeAuth) Me(ctx context.Context, token string) (lmsapi.User, error) {
	f.meCalls++
	u, ok := f.users[token]
	if !ok {
		return lmsapi.User{}, &apierror.Error{Status: 401, Detail: "Could not validate credentials"}
	}
	return u, nil
}

func (f *fakeAuth) Logout(ctx context.Context, token string) error {
	f.logouts++
	return f.logoutErr
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "emp-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestInit_NoToken(t *testing.T) {
	m := session.NewManager(session.NewMemoryStore(), &fakeAuth{}, nil)
	if err := m.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if _, ok := m.User(); ok {
		t.Error("user set without a token")
	}
}

func TestInit_RestoresValidToken(t *testing.T) {
	ctx := context.Background()
	tok := signed(t, time.Now().Add(time.Hour))
	store := session.NewMemoryStore()
	_ = store.Save(ctx, tok)
	auth := &fakeAuth{users: map[string]lmsapi.User{tok: {EmployeeID: "emp-1", Role: lmsapi.RoleAdmin}}}

	m := session.NewManager(store, auth, nil)
	if err := m.Init(ctx); err != nil {
		t.Fatal(err)
	}
	if !m.IsAdmin() || m.IsEmployee() {
		t.Errorf("IsAdmin=%v IsEmployee=%v", m.IsAdmin(), m.IsEmployee())
	}
	if m.Token() != tok {
		t.Error("token not restored")
	}
}

func TestInit_ExpiredTokenClearedWithoutCall(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	_ = store.Save(ctx, signed(t, time.Now().Add(-time.Minute)))
	auth := &fakeAuth{}

	m := session.NewManager(store, auth, nil)
	if err := m.Init(ctx); !errors.Is(err, session.ErrExpired) {
		t.Fatalf("Init() error = %v, want ErrExpired", err)
	}
	if auth.meCalls != 0 {
		t.Error("expired token sent to backend")
	}
	if tok, _ := store.Load(ctx); tok != "" {
		t.Error("expired token not removed")
	}
}

func TestInit_RejectedTokenCleared(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	_ = store.Save(ctx, "opaque-token")

	m := session.NewManager(store, &fakeAuth{}, nil)
	if err := m.Init(ctx); err == nil {
		t.Fatal("expected error for rejected token")
	}
	if tok, _ := store.Load(ctx); tok != "" {
		t.Error("rejected token not removed")
	}
	if _, err := m.Require(); !errors.Is(err, session.ErrSignedOut) {
		t.Errorf("Require() error = %v", err)
	}
}

func TestLoginAndTeardown(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	auth := &fakeAuth{
		logoutErr: errors.New("backend down"),
		users: map[string]lmsapi.User{
			"tok-ana@example.com": {EmployeeID: "emp-2", Role: lmsapi.RoleEmployee},
		},
	}
	events := audit.NewMemoryLogger()
	m := session.NewManager(store, auth, events)

	if _, err := m.Login(ctx, "ana@example.com", "wrong"); apierror.Message(err, "") != "Incorrect email or password" {
		t.Fatalf("Login(wrong) error = %v", err)
	}
	u, err := m.Login(ctx, "ana@example.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}
	if u.EmployeeID != "emp-2" || !m.IsEmployee() {
		t.Errorf("user = %+v", u)
	}
	if tok, _ := store.Load(ctx); tok != "tok-ana@example.com" {
		t.Errorf("stored token = %q", tok)
	}

	if err := m.Teardown(ctx); err != nil {
		t.Fatalf("Teardown() error = %v", err)
	}
	if auth.logouts != 1 {
		t.Errorf("logouts = %d", auth.logouts)
	}
	if _, ok := m.User(); ok || m.Token() != "" {
		t.Error("session not cleared")
	}
	if tok, _ := store.Load(ctx); tok != "" {
		t.Error("stored token not cleared")
	}

	got := events.Events()
	if len(got) != 2 || got[0].Action != audit.ActionLogin || got[1].Action != audit.ActionLogout {
		t.Errorf("events = %+v", got)
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "token")
	s := session.NewFileStore(path)

	if tok, err := s.Load(ctx); err != nil || tok != "" {
		t.Fatalf("Load() on missing file = %q, %v", tok, err)
	}
	if err := s.Save(ctx, "abc"); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}
	if tok, _ := s.Load(ctx); tok != "abc" {
		t.Errorf("Load() = %q", tok)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Errorf("second Clear() error = %v", err)
	}
}
