package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-users-auth/internal/logger"
	"github.com/sbilibin2017/gw-users-auth/internal/models"
	"github.com/sbilibin2017/gw-users-auth/internal/services"
)

// Authenticator defines the interface that the login service must implement.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.UserDB, error)
}

// SessionBackend starts and ends a cookie session on the response.
type SessionBackend interface {
	Login(ctx context.Context, w http.ResponseWriter, userID uuid.UUID) error
	Logout(w http.ResponseWriter)
}

// LoginRequest represents the JSON body for user login
// swagger:model LoginRequest
type LoginRequest struct {
	// Email
	// required: true
	// example: john@example.com
	Email string `json:"email"`

	// Password
	// required: true
	// example: secret123
	Password string `json:"password"`
}

// NewLoginHandler returns an HTTP handler for user login.
// @Summary User login
// @Description Authenticate user and start a cookie session. Unknown email and wrong password are indistinguishable in the response.
// @Tags auth
// @Accept json
// @Produce json
// @Param loginRequest body handlers.LoginRequest true "Login request"
// @Success 204 "Session cookie set"
// @Failure 400 {object} handlers.ErrorResponse "Invalid request body"
// @Failure 401 {object} handlers.ErrorResponse "Invalid email or password"
// @Router /auth/jwt/login [post]
func NewLoginHandler(svc Authenticator, backend SessionBackend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		var req LoginRequest

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(ErrorResponse{
				Error: "Invalid request body",
			})
			return
		}

		user, err := svc.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrInvalidCredentials):
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(ErrorResponse{
					Error: "Invalid email or password",
				})
			default:
				logger.Log.Errorw("internal server error", "err", err)
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(ErrorResponse{
					Error: "Internal server error",
				})
			}
			return
		}

		if err := backend.Login(r.Context(), w, user.UserID); err != nil {
			logger.Log.Errorw("failed to start session", "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(ErrorResponse{
				Error: "Internal server error",
			})
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// NewLogoutHandler returns an HTTP handler for user logout.
// @Summary User logout
// @Description Clears the session cookie. Stateless: an already-issued token stays valid until expiry.
// @Tags auth
// @Produce json
// @Success 204 "Session cookie cleared"
// @Failure 401 "Not authenticated"
// @Router /auth/jwt/logout [post]
func NewLogoutHandler(backend SessionBackend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		backend.Logout(w)
		w.WriteHeader(http.StatusNoContent)
	}
}
