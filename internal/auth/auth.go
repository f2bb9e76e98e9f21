// Copyright (c) 2025 Opsdesk Authors
// Opsdesk - incident and ticket records store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package auth is the identity service. It wraps the users table with
// hashed-credential account creation and authentication. Passwords are
// bcrypt-hashed (salted, one-way) before they ever reach storage; there is no
// plaintext comparison path anywhere, including for seeded accounts.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/opsdesk/opsdesk/internal/db"
	"github.com/opsdesk/opsdesk/internal/model"
	"github.com/opsdesk/opsdesk/internal/session"
)

// ErrDuplicateUser is returned when creating an account whose username is taken.
var ErrDuplicateUser = errors.New("account already exists")

// ErrUnknownUser is returned when authenticating a username with no account.
var ErrUnknownUser = errors.New("unknown user")

// ErrInvalidCredentials is returned when the password does not match the
// stored hash. The presentation layer should collapse this and ErrUnknownUser
// into one generic sign-in failure to avoid username enumeration.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserStore is the subset of the relational store the identity service needs.
type UserStore interface {
	UserExists(username string) (bool, error)
	GetUser(username string) (*model.User, error)
	AddUser(u model.User) error
	DeleteUser(username string) (int, error)
}

// Service provides account existence checks, hashed-credential creation and
// authentication over a UserStore. It holds no per-call state.
type Service struct {
	users UserStore
}

// NewService returns an identity service over the given user store.
func NewService(users UserStore) *Service {
	return &Service{users: users}
}

// UserExists reports whether an account exists for username. A missing
// account is a state, never an error.
func (s *Service) UserExists(username string) (bool, error) {
	return s.users.UserExists(username)
}

// CreateAccount stores a new account with a freshly salted one-way hash of
// password. It fails with ErrDuplicateUser if the username is taken. The
// plaintext password is neither persisted nor logged.
func (s *Service) CreateAccount(username, password, role string) error {
	if username == "" {
		return errors.New("username must not be empty")
	}
	if password == "" {
		return errors.New("password must not be empty")
	}
	exists, err := s.users.UserExists(username)
	if err != nil {
		return fmt.Errorf("failed to check account existence: %w", err)
	}
	if exists {
		return ErrDuplicateUser
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.AddUser(model.User{Username: username, PasswordHash: string(hash), Role: role}); err != nil {
		// Races between the existence check and the insert surface as a
		// unique-constraint violation.
		if errors.Is(err, db.ErrDuplicate) {
			return ErrDuplicateUser
		}
		return err
	}
	return nil
}

// Authenticate verifies username/password against the stored hash and returns
// the caller's session on success. It fails with ErrUnknownUser when no
// account exists and ErrInvalidCredentials on a hash mismatch. Comparison is
// done by bcrypt over the stored hash; the stored secret is never compared to
// plaintext.
func (s *Service) Authenticate(username, password string) (*session.Session, error) {
	u, err := s.users.GetUser(username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if u == nil {
		return nil, ErrUnknownUser
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &session.Session{Username: u.Username, Role: u.Role}, nil
}

// RemoveAccount deletes an account by username and returns the rows removed.
// Removing a missing account is a no-op returning 0.
func (s *Service) RemoveAccount(username string) (int, error) {
	return s.users.DeleteUser(username)
}
