package models

import (
	"time"

	"github.com/google/uuid"
)

// UserDB represents a user document in the store
type UserDB struct {
	UserID       uuid.UUID `json:"id"`                   // Primary key, immutable
	Email        string    `json:"email"`                // Unique email, stored lower-cased
	PasswordHash string    `json:"password_hash"`        // Bcrypt digest, never exposed outward
	IsActive     bool      `json:"is_active"`            // Inactive users cannot authenticate
	IsSuperuser  bool      `json:"is_superuser"`         // Grants access to /users/{id} routes
	IsVerified   bool      `json:"is_verified"`          // Set by the verification flow
	FirstName    *string   `json:"first_name,omitempty"` // Optional
	LastName     *string   `json:"last_name,omitempty"`  // Optional
	CreatedAt    time.Time `json:"created_at"`           // Creation timestamp
	UpdatedAt    time.Time `json:"updated_at"`           // Last update timestamp
}

// UserUpdate is a partial update payload. Nil fields are left untouched.
// The user id is immutable and never part of the payload.
type UserUpdate struct {
	Email       *string `json:"email,omitempty"`
	Password    *string `json:"password,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	IsSuperuser *bool   `json:"is_superuser,omitempty"`
	IsVerified  *bool   `json:"is_verified,omitempty"`
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
}
