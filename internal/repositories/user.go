package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/gw-users-auth/internal/logger"
	"github.com/sbilibin2017/gw-users-auth/internal/models"
)

// Error variables
var (
	// ErrUserNotFound is returned by Get when no document exists for the id.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserAlreadyExists is returned by Create when the email index is taken.
	ErrUserAlreadyExists = errors.New("user already exists")
)

// Key layout: one JSON document per user under users:<id>, plus a
// secondary index users:email:<email> -> id. The index is written with
// SETNX so email uniqueness is enforced by the store itself rather than
// by a check-then-insert read, which would race under concurrent
// registrations for the same email.
const (
	userKeyPrefix  = "users:"
	emailKeyPrefix = "users:email:"
)

func userKey(id string) string       { return userKeyPrefix + id }
func emailKey(email string) string   { return emailKeyPrefix + email }
func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

type UserReadRepository struct {
	rdb *redis.Client
}

func NewUserReadRepository(rdb *redis.Client) *UserReadRepository {
	return &UserReadRepository{rdb: rdb}
}

// Get returns the user document for id, or ErrUserNotFound.
func (r *UserReadRepository) Get(ctx context.Context, id uuid.UUID) (*models.UserDB, error) {
	data, err := r.rdb.Get(ctx, userKey(id.String())).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		logger.Log.Errorw("failed to get user document", "id", id, "error", err)
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}

	var user models.UserDB
	if err := json.Unmarshal(data, &user); err != nil {
		logger.Log.Errorw("failed to decode user document", "id", id, "error", err)
		return nil, fmt.Errorf("decode user %s: %w", id, err)
	}
	return &user, nil
}

// GetByEmail returns the user for email (case-insensitive), or nil
// without error when no user matches. The nil result is the expected
// outcome during login-failure checks and is not a storage fault.
func (r *UserReadRepository) GetByEmail(ctx context.Context, email string) (*models.UserDB, error) {
	id, err := r.rdb.Get(ctx, emailKey(normalizeEmail(email))).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		logger.Log.Errorw("failed to resolve email index", "email", email, "error", err)
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	data, err := r.rdb.Get(ctx, userKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		// Dangling index entry; treat as absent.
		return nil, nil
	}
	if err != nil {
		logger.Log.Errorw("failed to get user document", "id", id, "error", err)
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	var user models.UserDB
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", id, err)
	}
	return &user, nil
}

type UserWriteRepository struct {
	rdb *redis.Client
}

func NewUserWriteRepository(rdb *redis.Client) *UserWriteRepository {
	return &UserWriteRepository{rdb: rdb}
}

// Create persists a new user document. The email index entry is
// reserved first; if it is already held, another user owns the email
// and ErrUserAlreadyExists is returned.
func (r *UserWriteRepository) Create(ctx context.Context, user *models.UserDB) error {
	user.Email = normalizeEmail(user.Email)

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	ok, err := r.rdb.SetNX(ctx, emailKey(user.Email), user.UserID.String(), 0).Result()
	if err != nil {
		logger.Log.Errorw("failed to reserve email index", "email", user.Email, "error", err)
		return fmt.Errorf("create user: %w", err)
	}
	if !ok {
		return ErrUserAlreadyExists
	}

	if err := r.rdb.Set(ctx, userKey(user.UserID.String()), data, 0).Err(); err != nil {
		// Release the reservation so the email is not locked by a half-written user.
		r.rdb.Del(ctx, emailKey(user.Email))
		logger.Log.Errorw("failed to write user document", "id", user.UserID, "error", err)
		return fmt.Errorf("create user: %w", err)
	}

	logger.Log.Infow("user document created", "id", user.UserID, "email", user.Email)
	return nil
}

// Update persists the merged user document. prevEmail is the email the
// document was stored under before the update; when it changed, the
// index is moved, keeping uniqueness enforced for the new address.
func (r *UserWriteRepository) Update(ctx context.Context, user *models.UserDB, prevEmail string) error {
	user.Email = normalizeEmail(user.Email)
	prevEmail = normalizeEmail(prevEmail)

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	if user.Email != prevEmail {
		ok, err := r.rdb.SetNX(ctx, emailKey(user.Email), user.UserID.String(), 0).Result()
		if err != nil {
			logger.Log.Errorw("failed to reserve email index", "email", user.Email, "error", err)
			return fmt.Errorf("update user: %w", err)
		}
		if !ok {
			return ErrUserAlreadyExists
		}
	}

	if err := r.rdb.Set(ctx, userKey(user.UserID.String()), data, 0).Err(); err != nil {
		if user.Email != prevEmail {
			r.rdb.Del(ctx, emailKey(user.Email))
		}
		logger.Log.Errorw("failed to write user document", "id", user.UserID, "error", err)
		return fmt.Errorf("update user: %w", err)
	}

	if user.Email != prevEmail {
		if err := r.rdb.Del(ctx, emailKey(prevEmail)).Err(); err != nil {
			logger.Log.Errorw("failed to release old email index", "email", prevEmail, "error", err)
			return fmt.Errorf("update user: %w", err)
		}
	}

	logger.Log.Infow("user document updated", "id", user.UserID)
	return nil
}

// Delete removes the user document and its email index. Deleting an
// already-absent id is not an error.
func (r *UserWriteRepository) Delete(ctx context.Context, user *models.UserDB) error {
	keys := []string{userKey(user.UserID.String()), emailKey(normalizeEmail(user.Email))}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		logger.Log.Errorw("failed to delete user document", "id", user.UserID, "error", err)
		return fmt.Errorf("delete user: %w", err)
	}

	logger.Log.Infow("user document deleted", "id", user.UserID)
	return nil
}
