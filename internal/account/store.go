package account

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	// ErrUserNotFound indicates no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
)

// User is a registered storefront account.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	CompanyName  string    `json:"companyName"`
	JobTitle     string    `json:"jobTitle,omitempty"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Name returns the display name.
func (u User) Name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// MemoryStore keeps users in process, indexed by id and lowercased email.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]User), byEmail: make(map[string]string)}
}

// Create stores u, failing when the email is already registered.
func (s *MemoryStore) Create(_ context.Context, u User) error {
	key := emailKey(u.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[key]; taken {
		return ErrEmailTaken
	}
	s.byID[u.ID] = u
	s.byEmail[key] = u.ID
	return nil
}

// ByID looks a user up by id.
func (s *MemoryStore) ByID(_ context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

// ByEmail looks a user up by email, case-insensitively.
func (s *MemoryStore) ByEmail(_ context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[emailKey(email)]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return s.byID[id], nil
}

// Count returns the number of users with role, or all users when role is empty.
func (s *MemoryStore) Count(role string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if role == "" {
		return len(s.byID)
	}
	n := 0
	for _, u := range s.byID {
		if u.Role == role {
			n++
		}
	}
	return n
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
