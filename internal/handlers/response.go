package handlers

import "github.com/sbilibin2017/gw-users-auth/internal/models"

// UserResponse represents a user in API responses. The password digest
// is never part of it.
// swagger:model UserResponse
type UserResponse struct {
	// User id
	// example: 4f9c2a3e-0b60-4f2e-9a1e-6a4f82a6a7b1
	ID string `json:"id"`

	// Email
	// example: john@example.com
	Email string `json:"email"`

	// Active flag
	// example: true
	IsActive bool `json:"is_active"`

	// Superuser flag
	// example: false
	IsSuperuser bool `json:"is_superuser"`

	// Verified flag
	// example: false
	IsVerified bool `json:"is_verified"`

	// First name
	FirstName *string `json:"first_name,omitempty"`

	// Last name
	LastName *string `json:"last_name,omitempty"`
}

// ErrorResponse represents an error response body
// swagger:model ErrorResponse
type ErrorResponse struct {
	// Error message
	// example: Internal server error
	Error string `json:"error"`
}

// MessageResponse represents a plain message response body
// swagger:model MessageResponse
type MessageResponse struct {
	// Message
	// example: ok
	Message string `json:"message"`
}

func toUserResponse(user *models.UserDB) UserResponse {
	return UserResponse{
		ID:          user.UserID.String(),
		Email:       user.Email,
		IsActive:    user.IsActive,
		IsSuperuser: user.IsSuperuser,
		IsVerified:  user.IsVerified,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
	}
}
