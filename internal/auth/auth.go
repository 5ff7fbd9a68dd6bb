// Package auth verifies logins, issues session tokens, and enforces the
// failed-login freeze.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gudangku/internal/docstore"
	"gudangku/internal/domain"
	"gudangku/internal/users"
)

const lockoutDoc = "lockout"

// Freeze durations keyed by the exact cumulative failure count that
// triggers them. The counter only resets on a successful login, so the
// escalation carries across freezes.
var freezeDurations = map[int]time.Duration{
	3:  300 * time.Second,
	5:  600 * time.Second,
	10: 900 * time.Second,
}

type lockoutState struct {
	FailedAttempts int       `json:"failedLoginAttempts"`
	UnfreezeTime   time.Time `json:"unfreezeTime"`
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Manager wraps the user store with token issuance and the global
// failed-login lockout. Lockout state is persisted so a restart does not
// clear an active freeze.
type Manager struct {
	usersStore *users.Store
	docs       docstore.Store
	log        *slog.Logger

	secret   []byte
	tokenTTL time.Duration

	mu       sync.Mutex
	state    lockoutState
	unfreeze *time.Timer
	onThaw   func()

	now func() time.Time
}

func NewManager(ctx context.Context, usersStore *users.Store, docs docstore.Store, secret string, tokenTTL time.Duration, log *slog.Logger) (*Manager, error) {
	m := &Manager{
		usersStore: usersStore,
		docs:       docs,
		log:        log,
		secret:     []byte(secret),
		tokenTTL:   tokenTTL,
		now:        time.Now,
	}
	if _, err := docs.Load(ctx, lockoutDoc, &m.state); err != nil {
		return nil, fmt.Errorf("load lockout state: %w", err)
	}
	// A freeze that survived a restart still needs its timer rearmed.
	if remaining := m.state.UnfreezeTime.Sub(m.now()); remaining > 0 {
		m.armTimerLocked(remaining)
	}
	return m, nil
}

// OnThaw registers a callback fired when a freeze window expires. Must
// be called before the manager is used.
func (m *Manager) OnThaw(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onThaw = fn
}

// Login verifies the credentials and issues a session token. While the
// freeze window is active every attempt fails with ErrLoginFrozen and
// does not touch the failure counter. Wrong credentials increment the
// counter; hitting a threshold opens a new freeze window. A successful
// login resets the counter and cancels any pending unfreeze timer.
func (m *Manager) Login(ctx context.Context, username, password string) (domain.User, string, time.Time, error) {
	m.mu.Lock()
	if until := m.state.UnfreezeTime; m.now().Before(until) {
		m.mu.Unlock()
		return domain.User{}, "", time.Time{}, fmt.Errorf("%w until %s",
			domain.ErrLoginFrozen, until.Format(time.RFC3339))
	}
	m.mu.Unlock()

	user, err := m.usersStore.VerifyPassword(ctx, username, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			m.recordFailure(ctx, username)
		}
		return domain.User{}, "", time.Time{}, err
	}

	m.mu.Lock()
	m.state = lockoutState{}
	m.stopTimerLocked()
	m.persistLocked(ctx)
	m.mu.Unlock()

	token, expiresAt, err := m.issueToken(user)
	if err != nil {
		return domain.User{}, "", time.Time{}, err
	}
	return user, token, expiresAt, nil
}

// FailedAttempts reports the current cumulative failure count.
func (m *Manager) FailedAttempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.FailedAttempts
}

// FrozenUntil reports the end of the active freeze window, or a zero
// time when logins are allowed.
func (m *Manager) FrozenUntil() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.now().Before(m.state.UnfreezeTime) {
		return m.state.UnfreezeTime
	}
	return time.Time{}
}

// ParseToken validates a session token and returns the actor it names.
func (m *Manager) ParseToken(tokenString string) (domain.Actor, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Actor{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return domain.Actor{}, errors.New("invalid token")
	}
	return domain.Actor{Username: claims.Subject, Role: claims.Role}, nil
}

// Close stops any pending unfreeze timer.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTimerLocked()
	return nil
}

func (m *Manager) recordFailure(ctx context.Context, username string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.FailedAttempts++
	if d, ok := freezeDurations[m.state.FailedAttempts]; ok {
		m.state.UnfreezeTime = m.now().Add(d)
		m.armTimerLocked(d)
		m.log.Warn("login frozen after repeated failures",
			"attempts", m.state.FailedAttempts,
			"until", m.state.UnfreezeTime,
			"username", username)
	}
	m.persistLocked(ctx)
}

func (m *Manager) issueToken(user domain.User) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.tokenTTL)
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			Issuer:    "gudangku",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: user.Role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (m *Manager) armTimerLocked(d time.Duration) {
	m.stopTimerLocked()
	m.unfreeze = time.AfterFunc(d, func() {
		m.mu.Lock()
		fn := m.onThaw
		m.mu.Unlock()
		m.log.Info("login freeze expired")
		if fn != nil {
			fn()
		}
	})
}

func (m *Manager) stopTimerLocked() {
	if m.unfreeze != nil {
		m.unfreeze.Stop()
		m.unfreeze = nil
	}
}

func (m *Manager) persistLocked(ctx context.Context) {
	if err := m.docs.Save(ctx, lockoutDoc, m.state); err != nil {
		m.log.Warn("persist lockout state failed", "error", err)
	}
}
