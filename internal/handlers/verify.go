package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sbilibin2017/gw-users-auth/internal/jwt"
	"github.com/sbilibin2017/gw-users-auth/internal/logger"
	"github.com/sbilibin2017/gw-users-auth/internal/models"
)

// VerificationRequester issues email-verification tokens.
type VerificationRequester interface {
	RequestVerification(ctx context.Context, email string) (string, error)
}

// Verifier consumes a verification token and marks the user verified.
type Verifier interface {
	Verify(ctx context.Context, token string) (*models.UserDB, error)
}

// RequestVerifyTokenRequest represents the JSON body for requesting a verification token
// swagger:model RequestVerifyTokenRequest
type RequestVerifyTokenRequest struct {
	// Email
	// required: true
	// example: john@example.com
	Email string `json:"email"`
}

// VerifyRequest represents the JSON body for the verify endpoint
// swagger:model VerifyRequest
type VerifyRequest struct {
	// Verification token
	// required: true
	Token string `json:"token"`
}

// NewRequestVerifyTokenHandler returns an HTTP handler that starts the verification flow.
// @Summary Request a verification token
// @Description Issues a verification token for the account if it exists and is not yet verified. Always answers 202.
// @Tags auth
// @Accept json
// @Produce json
// @Param requestVerifyTokenRequest body handlers.RequestVerifyTokenRequest true "Verification token request"
// @Success 202 {object} handlers.MessageResponse "Verification requested"
// @Failure 400 {object} handlers.ErrorResponse "Invalid request body"
// @Router /auth/request-verify-token [post]
func NewRequestVerifyTokenHandler(svc VerificationRequester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		var req RequestVerifyTokenRequest

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(ErrorResponse{
				Error: "Invalid request body",
			})
			return
		}

		token, err := svc.RequestVerification(r.Context(), req.Email)
		if err != nil {
			logger.Log.Errorw("internal server error", "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(ErrorResponse{
				Error: "Internal server error",
			})
			return
		}

		if token != "" {
			logger.Log.Debugw("verification token issued", "token", token)
		}

		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(MessageResponse{
			Message: "Verification requested",
		})
	}
}

// NewVerifyHandler returns an HTTP handler that completes the verification flow.
// @Summary Verify a user
// @Description Verifies the token and marks its subject as verified.
// @Tags auth
// @Accept json
// @Produce json
// @Param verifyRequest body handlers.VerifyRequest true "Verify request"
// @Success 200 {object} handlers.UserResponse "User verified"
// @Failure 400 {object} handlers.ErrorResponse "Invalid or expired token"
// @Router /auth/verify [post]
func NewVerifyHandler(svc Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		var req VerifyRequest

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(ErrorResponse{
				Error: "Invalid request body",
			})
			return
		}

		user, err := svc.Verify(r.Context(), req.Token)
		if err != nil {
			switch {
			case errors.Is(err, jwt.ErrInvalidToken), errors.Is(err, jwt.ErrExpiredToken):
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(ErrorResponse{
					Error: "Invalid or expired token",
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

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(toUserResponse(user))
	}
}
