package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"gudangku/internal/docstore"
	"gudangku/internal/domain"
	"gudangku/internal/users"
)

func newTestManager(t *testing.T) (*Manager, *users.Store, docstore.Store) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	docs, err := docstore.NewFileStore(t.TempDir(), log)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	us, err := users.New(context.Background(), docs, log)
	if err != nil {
		t.Fatalf("users.New: %v", err)
	}
	if _, err := us.Add(context.Background(), "alice", "secret", "Alice", "", domain.RoleAdmin); err != nil {
		t.Fatalf("Add user: %v", err)
	}
	m, err := NewManager(context.Background(), us, docs, "test-secret", time.Hour, log)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m, us, docs
}

func TestLoginSuccessIssuesToken(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	user, token, expiresAt, err := m.Login(ctx, "alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("user = %q, want alice", user.Username)
	}
	if token == "" || expiresAt.IsZero() {
		t.Fatal("no token issued")
	}

	actor, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if actor.Username != "alice" || actor.Role != domain.RoleAdmin {
		t.Fatalf("actor = %+v", actor)
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	m, _, _ := newTestManager(t)

	if _, err := m.ParseToken("not.a.token"); err == nil {
		t.Fatal("garbage token accepted")
	}
}

func TestFreezeAtThirdFailure(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	base := time.Now()
	m.now = func() time.Time { return base }

	for i := 0; i < 2; i++ {
		if _, _, _, err := m.Login(ctx, "alice", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("attempt %d err = %v, want ErrInvalidCredentials", i+1, err)
		}
	}
	if got := m.FailedAttempts(); got != 2 {
		t.Fatalf("failures = %d, want 2", got)
	}
	if !m.FrozenUntil().IsZero() {
		t.Fatal("frozen before third failure")
	}

	if _, _, _, err := m.Login(ctx, "alice", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("third attempt err = %v", err)
	}
	until := m.FrozenUntil()
	if want := base.Add(300 * time.Second); !until.Equal(want) {
		t.Fatalf("frozen until %v, want %v", until, want)
	}

	// Even valid credentials are rejected during the freeze, and the
	// counter stays where it was.
	if _, _, _, err := m.Login(ctx, "alice", "secret"); !errors.Is(err, domain.ErrLoginFrozen) {
		t.Fatalf("frozen login err = %v, want ErrLoginFrozen", err)
	}
	if got := m.FailedAttempts(); got != 3 {
		t.Fatalf("failures = %d during freeze, want 3", got)
	}
}

func TestEscalationAcrossFreezes(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	base := time.Now()
	current := base
	m.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		m.Login(ctx, "alice", "wrong")
	}
	// Step past the first freeze; the counter must still be at 3.
	current = base.Add(301 * time.Second)
	if !m.FrozenUntil().IsZero() {
		t.Fatal("still frozen after window passed")
	}

	m.Login(ctx, "alice", "wrong")
	if got := m.FailedAttempts(); got != 4 {
		t.Fatalf("failures = %d, want 4", got)
	}
	m.Login(ctx, "alice", "wrong")
	if want := current.Add(600 * time.Second); !m.FrozenUntil().Equal(want) {
		t.Fatalf("second freeze until %v, want %v", m.FrozenUntil(), want)
	}
}

func TestSuccessResetsCounter(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	m.Login(ctx, "alice", "wrong")
	m.Login(ctx, "alice", "wrong")
	if _, _, _, err := m.Login(ctx, "alice", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got := m.FailedAttempts(); got != 0 {
		t.Fatalf("failures = %d after success, want 0", got)
	}

	// The escalation starts over: two more failures do not freeze.
	m.Login(ctx, "alice", "wrong")
	m.Login(ctx, "alice", "wrong")
	if !m.FrozenUntil().IsZero() {
		t.Fatal("frozen after counter reset and two failures")
	}
}

func TestInactiveAccountDoesNotCountAsFailure(t *testing.T) {
	m, us, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := us.Edit(ctx, "alice", domain.UserUpdateRequest{Status: domain.StatusInactive}); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if _, _, _, err := m.Login(ctx, "alice", "secret"); !errors.Is(err, domain.ErrAccountInactive) {
		t.Fatalf("err = %v, want ErrAccountInactive", err)
	}
	if got := m.FailedAttempts(); got != 0 {
		t.Fatalf("inactive login counted as failure: %d", got)
	}
}

func TestLockoutSurvivesRestart(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	docs, err := docstore.NewFileStore(t.TempDir(), log)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()
	us, err := users.New(ctx, docs, log)
	if err != nil {
		t.Fatalf("users.New: %v", err)
	}
	if _, err := us.Add(ctx, "alice", "secret", "", "", ""); err != nil {
		t.Fatalf("Add: %v", err)
	}

	m, err := NewManager(ctx, us, docs, "test-secret", time.Hour, log)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	for i := 0; i < 3; i++ {
		m.Login(ctx, "alice", "wrong")
	}
	wantUntil := m.FrozenUntil()
	if wantUntil.IsZero() {
		t.Fatal("not frozen after three failures")
	}
	m.Close()

	restarted, err := NewManager(ctx, us, docs, "test-secret", time.Hour, log)
	if err != nil {
		t.Fatalf("NewManager after restart: %v", err)
	}
	defer restarted.Close()

	if _, _, _, err := restarted.Login(ctx, "alice", "secret"); !errors.Is(err, domain.ErrLoginFrozen) {
		t.Fatalf("err = %v after restart, want ErrLoginFrozen", err)
	}
	if got := restarted.FailedAttempts(); got != 3 {
		t.Fatalf("failures = %d after restart, want 3", got)
	}
}
