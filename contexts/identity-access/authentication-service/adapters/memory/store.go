package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"crewdeck/contexts/identity-access/authentication-service/domain/entities"
	domainerrors "crewdeck/contexts/identity-access/authentication-service/domain/errors"
)

// Store is an in-memory adapter implementing repository/clock/id ports.
// It is intended for tests and local development wiring.
type Store struct {
	mu            sync.RWMutex
	usersByID     map[string]entities.User
	userIDByEmail map[string]string
}

// NewStore builds an in-memory adapter seeded with deterministic accounts.
// Seed passwords follow the "<user>-password" convention used in tests.
func NewStore() *Store {
	store := &Store{
		usersByID:     make(map[string]entities.User),
		userIDByEmail: make(map[string]string),
	}

	now := time.Now().UTC().Add(-30 * 24 * time.Hour)
	seeds := []struct {
		userID   string
		email    string
		name     string
		password string
	}{
		{"user_admin_1", "admin@example.com", "Ada Admin", "admin-password"},
		{"user_manager_1", "manager@example.com", "M. Manager", "manager-password"},
		{"user_member_1", "member@example.com", "Mel Member", "member-password"},
		{"user_member_2", "second@example.com", "Sam Second", "second-password"},
	}
	for _, seed := range seeds {
		hash, _ := bcrypt.GenerateFromPassword([]byte(seed.password), bcrypt.MinCost)
		store.usersByID[seed.userID] = entities.User{
			UserID:       seed.userID,
			Email:        seed.email,
			Name:         seed.name,
			PasswordHash: string(hash),
			Status:       entities.UserStatusActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		store.userIDByEmail[seed.email] = seed.userID
	}
	return store
}

func (s *Store) CreateUser(_ context.Context, user entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(user.Email))
	if _, exists := s.userIDByEmail[email]; exists {
		return domainerrors.ErrEmailTaken
	}
	s.usersByID[user.UserID] = user
	s.userIDByEmail[email] = user.UserID
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.userIDByEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return s.usersByID[userID], nil
}

func (s *Store) GetUserByID(_ context.Context, userID string) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.usersByID[userID]
	if !ok {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) UpdatePasswordHash(_ context.Context, userID string, hash string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.usersByID[userID]
	if !ok {
		return domainerrors.ErrUserNotFound
	}
	user.PasswordHash = hash
	user.UpdatedAt = updatedAt
	s.usersByID[userID] = user
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
