package model

import "time"

// User represents an application user record as stored in the `users`
// table. Handlers never serialize it directly; the session keeps a trimmed
// Profile instead.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash (bcrypt)
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Profile is the cached user data kept in an authenticated session.
func (u User) Profile() map[string]any {
	return map[string]any{
		"id":    u.ID,
		"email": u.Email,
		"role":  u.Role,
	}
}

// RememberToken models a row of `remember_tokens`. Only the SHA-256 hash of
// the raw token is stored.
type RememberToken struct {
	ID        uint64    // remember_tokens.id
	UserID    uint64    // remember_tokens.user_id
	TokenHash string    // remember_tokens.token_hash
	ExpiresAt time.Time // remember_tokens.expires_at
	CreatedAt time.Time // remember_tokens.created_at
}
