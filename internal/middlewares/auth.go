package middlewares

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-users-auth/internal/logger"
	"github.com/sbilibin2017/gw-users-auth/internal/models"
	"github.com/sbilibin2017/gw-users-auth/internal/repositories"
)

// TokenExtractor reads a session token from a request.
type TokenExtractor interface {
	Extract(r *http.Request) (string, bool)
}

// TokenVerifier verifies a session token and returns its subject.
type TokenVerifier interface {
	GetUserID(ctx context.Context, tokenString string) (uuid.UUID, error)
}

// UserGetter loads a user by id.
type UserGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*models.UserDB, error)
}

type contextKey struct{}

var currentUserKey = contextKey{}

// CurrentUser returns the authenticated user stored in ctx by
// AuthMiddleware, or nil outside a protected route.
func CurrentUser(ctx context.Context) *models.UserDB {
	user, _ := ctx.Value(currentUserKey).(*models.UserDB)
	return user
}

// WithCurrentUser stores user in ctx the same way AuthMiddleware does.
func WithCurrentUser(ctx context.Context, user *models.UserDB) context.Context {
	return context.WithValue(ctx, currentUserKey, user)
}

// AuthMiddleware resolves the current user from the session cookie.
// An absent, invalid or expired token, an unknown subject and an
// inactive user all yield the same 401; a storage fault yields 500.
func AuthMiddleware(extractor TokenExtractor, verifier TokenVerifier, users UserGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			tokenString, ok := extractor.Extract(r)
			if !ok {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			userID, err := verifier.GetUserID(ctx, tokenString)
			if err != nil {
				logger.Log.Infow("session token rejected", "err", err)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			user, err := users.Get(ctx, userID)
			if err != nil {
				if errors.Is(err, repositories.ErrUserNotFound) {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				logger.Log.Errorw("failed to load current user", "id", userID, "err", err)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			if !user.IsActive {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			ctx = context.WithValue(ctx, currentUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
