package entities

import "time"

// UserGrant is a direct user-to-permission edge that bypasses roles.
// It covers the user-ID-based form of the permission matrix.
type UserGrant struct {
	GrantID    string     `json:"grant_id"`
	UserID     string     `json:"user_id"`
	Permission string     `json:"permission"`
	GrantedBy  string     `json:"granted_by"`
	Reason     string     `json:"reason"`
	GrantedAt  time.Time  `json:"granted_at"`
	IsActive   bool       `json:"is_active"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}
