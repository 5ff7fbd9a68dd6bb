// Package users is the credential store. Passwords are bcrypt-hashed on
// the way in and never readable back out.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"gudangku/internal/docstore"
	"gudangku/internal/domain"
)

const usersDoc = "users"

// Store is the mutex-guarded account list. Like the ledger, every
// mutation persists before the lock is released.
type Store struct {
	mu    sync.Mutex
	users []domain.User

	docs docstore.Store
	log  *slog.Logger
	now  func() time.Time
}

func New(ctx context.Context, docs docstore.Store, log *slog.Logger) (*Store, error) {
	s := &Store{docs: docs, log: log, now: time.Now}
	if _, err := docs.Load(ctx, usersDoc, &s.users); err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return s, nil
}

// Add creates an account. The username must be unique; the password is
// hashed before storage. Role defaults to user, status to active.
func (s *Store) Add(ctx context.Context, username, password, name, email, role string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.ContainsAny(username, " \t") {
		return domain.User{}, fmt.Errorf("%w: username must be non-empty without spaces", domain.ErrValidation)
	}
	if password == "" {
		return domain.User{}, fmt.Errorf("%w: password is required", domain.ErrValidation)
	}
	if role == "" {
		role = domain.RoleUser
	}
	if role != domain.RoleAdmin && role != domain.RoleUser {
		return domain.User{}, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOfLocked(username) >= 0 {
		return domain.User{}, fmt.Errorf("%w: username %q", domain.ErrAlreadyExists, username)
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Password:     string(hash),
		Name:         name,
		Email:        email,
		Role:         role,
		CreationDate: s.now().UTC(),
		Status:       domain.StatusActive,
	}
	s.users = append(s.users, user)
	s.persistLocked(ctx)
	return user, nil
}

// Edit updates profile fields of an existing account. The password is
// re-hashed only when a non-empty replacement is supplied; a blank
// password keeps the stored hash. Empty role/status keep their values.
func (s *Store) Edit(ctx context.Context, username string, upd domain.UserUpdateRequest) (domain.User, error) {
	var hash string
	if upd.Password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return domain.User{}, fmt.Errorf("hash password: %w", err)
		}
		hash = string(h)
	}
	if upd.Role != "" && upd.Role != domain.RoleAdmin && upd.Role != domain.RoleUser {
		return domain.User{}, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, upd.Role)
	}
	if upd.Status != "" && upd.Status != domain.StatusActive && upd.Status != domain.StatusInactive {
		return domain.User{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, upd.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfLocked(username)
	if i < 0 {
		return domain.User{}, fmt.Errorf("%w: user %q", domain.ErrNotFound, username)
	}
	user := s.users[i]
	if upd.Name != "" {
		user.Name = upd.Name
	}
	if upd.Email != "" {
		user.Email = upd.Email
	}
	if upd.Role != "" {
		user.Role = upd.Role
	}
	if upd.Status != "" {
		user.Status = upd.Status
	}
	if hash != "" {
		user.Password = hash
	}
	s.users[i] = user
	s.persistLocked(ctx)
	return user, nil
}

func (s *Store) Remove(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfLocked(username)
	if i < 0 {
		return fmt.Errorf("%w: user %q", domain.ErrNotFound, username)
	}
	s.users = append(s.users[:i], s.users[i+1:]...)
	s.persistLocked(ctx)
	return nil
}

func (s *Store) GetByUsername(username string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfLocked(username)
	if i < 0 {
		return domain.User{}, fmt.Errorf("%w: user %q", domain.ErrNotFound, username)
	}
	return s.users[i], nil
}

func (s *Store) Role(username string) (string, error) {
	u, err := s.GetByUsername(username)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

func (s *Store) DisplayName(username string) (string, error) {
	u, err := s.GetByUsername(username)
	if err != nil {
		return "", err
	}
	return u.Name, nil
}

// List returns a snapshot copy of all accounts, hashes included; callers
// exposing them externally use domain.User.Public.
func (s *Store) List() []domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.User, len(s.users))
	copy(out, s.users)
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// VerifyPassword checks the credentials. A missing account and a wrong
// password both return ErrInvalidCredentials so callers cannot probe for
// usernames; inactive accounts are rejected. On success the account's
// lastLogin is stamped and persisted.
func (s *Store) VerifyPassword(ctx context.Context, username, password string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfLocked(username)
	if i < 0 {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	user := s.users[i]
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return domain.User{}, domain.ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("compare password: %w", err)
	}
	if user.Status != domain.StatusActive {
		return domain.User{}, domain.ErrAccountInactive
	}

	user.LastLogin = s.now().UTC()
	s.users[i] = user
	s.persistLocked(ctx)
	return user, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return nil
}

func (s *Store) indexOfLocked(username string) int {
	for i, u := range s.users {
		if u.Username == username {
			return i
		}
	}
	return -1
}

func (s *Store) persistLocked(ctx context.Context) {
	if err := s.docs.Save(ctx, usersDoc, s.users); err != nil {
		s.log.Warn("persist users failed", "error", err)
	}
}
