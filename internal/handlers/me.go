package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sbilibin2017/gw-users-auth/internal/logger"
	"github.com/sbilibin2017/gw-users-auth/internal/middlewares"
	"github.com/sbilibin2017/gw-users-auth/internal/models"
	"github.com/sbilibin2017/gw-users-auth/internal/repositories"
	"github.com/sbilibin2017/gw-users-auth/internal/services"
)

// ProfileUpdater applies a partial update to a user with the privilege
// flags stripped.
type ProfileUpdater interface {
	UpdateSafe(ctx context.Context, user *models.UserDB, upd models.UserUpdate) (*models.UserDB, error)
}

var _ ProfileUpdater = (*services.UserService)(nil)

// NewGetMeHandler returns an HTTP handler for reading the current user's profile.
// @Summary Get current user
// @Tags users
// @Produce json
// @Success 200 {object} handlers.UserResponse "Current user"
// @Failure 401 "Not authenticated"
// @Router /users/me [get]
func NewGetMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		user := middlewares.CurrentUser(r.Context())
		if user == nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(toUserResponse(user))
	}
}

// NewUpdateMeHandler returns an HTTP handler for updating the current user's profile.
// @Summary Update current user
// @Description Applies a partial update. Omitted fields keep their stored values; the id cannot be changed and the is_active, is_superuser and is_verified flags are ignored on this route.
// @Tags users
// @Accept json
// @Produce json
// @Param userUpdate body models.UserUpdate true "Partial user update"
// @Success 200 {object} handlers.UserResponse "Updated user"
// @Failure 400 {object} handlers.ErrorResponse "Invalid request body"
// @Failure 401 "Not authenticated"
// @Failure 409 {object} handlers.ErrorResponse "Email already taken"
// @Router /users/me [patch]
func NewUpdateMeHandler(svc ProfileUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		user := middlewares.CurrentUser(r.Context())
		if user == nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var upd models.UserUpdate
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(ErrorResponse{
				Error: "Invalid request body",
			})
			return
		}

		updated, err := svc.UpdateSafe(r.Context(), user, upd)
		if err != nil {
			switch {
			case errors.Is(err, repositories.ErrUserAlreadyExists):
				w.WriteHeader(http.StatusConflict)
				json.NewEncoder(w).Encode(ErrorResponse{
					Error: "A user with this email already exists",
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
		json.NewEncoder(w).Encode(toUserResponse(updated))
	}
}
