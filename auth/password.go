package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when authentication fails. It does not
// distinguish unknown users from wrong passwords.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// HashPassword returns a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", errors.New("auth: password minimum length is 8 characters")
	}
	if len(password) > 72 {
		return "", errors.New("auth: password maximum length is 72 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks a password against a bcrypt hash. Returns nil if they
// match.
func VerifyPassword(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// User is an account with hashed credentials and assigned roles.
type User struct {
	Username     string
	PasswordHash string
	Roles        []string
}

// UserStore is an in-memory account registry for token issuance.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewUserStore creates an empty store.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]User)}
}

// Add registers a user with a plaintext password, hashing it before storage.
func (s *UserStore) Add(username, password string, roles []string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = User{Username: username, PasswordHash: hash, Roles: roles}
	return nil
}

// Authenticate verifies credentials and returns the user's roles.
func (s *UserStore) Authenticate(username, password string) ([]string, error) {
	s.mu.RLock()
	user, ok := s.users[username]
	s.mu.RUnlock()
	if !ok {
		// Burn a compare so unknown users cost the same as bad passwords.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5B3eG/aV8lV7eGm0T1L2zVxMkzXhe"), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := VerifyPassword(password, user.PasswordHash); err != nil {
		return nil, err
	}
	return user.Roles, nil
}
