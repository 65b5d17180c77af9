package entities

import "time"

const (
	UserStatusActive      = "active"
	UserStatusDeactivated = "deactivated"
)

// User is an account that can authenticate against the API.
type User struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Claims is the decoded session identity attached to requests.
type Claims struct {
	UserID string
	Email  string
}
