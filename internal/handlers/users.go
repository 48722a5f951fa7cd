package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-users-auth/internal/logger"
	"github.com/sbilibin2017/gw-users-auth/internal/middlewares"
	"github.com/sbilibin2017/gw-users-auth/internal/models"
	"github.com/sbilibin2017/gw-users-auth/internal/repositories"
	"github.com/sbilibin2017/gw-users-auth/internal/services"
)

// UserProvider defines the user-management operations behind the /users/{id} routes.
type UserProvider interface {
	ParseID(s string) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (*models.UserDB, error)
	Update(ctx context.Context, user *models.UserDB, upd models.UserUpdate) (*models.UserDB, error)
	Delete(ctx context.Context, user *models.UserDB) error
}

// resolveUser gates on the superuser flag, parses {id} and loads the
// target user. It writes the error response itself and returns nil when
// the request is already answered.
func resolveUser(w http.ResponseWriter, r *http.Request, svc UserProvider) *models.UserDB {
	current := middlewares.CurrentUser(r.Context())
	if current == nil {
		w.WriteHeader(http.StatusUnauthorized)
		return nil
	}
	if !current.IsSuperuser {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(ErrorResponse{
			Error: "Forbidden",
		})
		return nil
	}

	id, err := svc.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{
			Error: "Malformed user id",
		})
		return nil
	}

	user, err := svc.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserNotFound):
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(ErrorResponse{
				Error: "User not found",
			})
		default:
			logger.Log.Errorw("internal server error", "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(ErrorResponse{
				Error: "Internal server error",
			})
		}
		return nil
	}

	return user
}

// NewGetUserHandler returns an HTTP handler for reading a user by id.
// @Summary Get a user by id
// @Tags users
// @Produce json
// @Param id path string true "User id"
// @Success 200 {object} handlers.UserResponse "User"
// @Failure 400 {object} handlers.ErrorResponse "Malformed user id"
// @Failure 403 {object} handlers.ErrorResponse "Not a superuser"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Router /users/{id} [get]
func NewGetUserHandler(svc UserProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		user := resolveUser(w, r, svc)
		if user == nil {
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(toUserResponse(user))
	}
}

// NewUpdateUserHandler returns an HTTP handler for updating a user by id.
// @Summary Update a user by id
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User id"
// @Param userUpdate body models.UserUpdate true "Partial user update"
// @Success 200 {object} handlers.UserResponse "Updated user"
// @Failure 400 {object} handlers.ErrorResponse "Malformed id or body"
// @Failure 403 {object} handlers.ErrorResponse "Not a superuser"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Failure 409 {object} handlers.ErrorResponse "Email already taken"
// @Router /users/{id} [patch]
func NewUpdateUserHandler(svc UserProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		user := resolveUser(w, r, svc)
		if user == nil {
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

		updated, err := svc.Update(r.Context(), user, upd)
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

// NewDeleteUserHandler returns an HTTP handler for deleting a user by id.
// @Summary Delete a user by id
// @Tags users
// @Produce json
// @Param id path string true "User id"
// @Success 204 "User deleted"
// @Failure 400 {object} handlers.ErrorResponse "Malformed user id"
// @Failure 403 {object} handlers.ErrorResponse "Not a superuser"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Router /users/{id} [delete]
func NewDeleteUserHandler(svc UserProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		user := resolveUser(w, r, svc)
		if user == nil {
			return
		}

		if err := svc.Delete(r.Context(), user); err != nil {
			logger.Log.Errorw("internal server error", "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(ErrorResponse{
				Error: "Internal server error",
			})
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// ensure the concrete service satisfies the handler contracts
var _ UserProvider = (*services.UserService)(nil)
