package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	jwtpkg "github.com/sbilibin2017/gw-users-auth/internal/jwt"
	"github.com/sbilibin2017/gw-users-auth/internal/logger"
	"github.com/sbilibin2017/gw-users-auth/internal/models"
	"github.com/sbilibin2017/gw-users-auth/internal/repositories"
	"github.com/segmentio/kafka-go"
	"golang.org/x/crypto/bcrypt"
)

// Error variables
var (
	// ErrInvalidCredentials is returned for both unknown email and wrong
	// password, so a caller cannot tell the two apart.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrMalformedID is returned when an id string is not a valid UUID.
	ErrMalformedID = errors.New("malformed user id")
)

// dummyDigest is compared against when the email is unknown, so both
// authentication failure paths pay for a bcrypt comparison.
var dummyDigest = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// UserReader defines read operations on the user store.
type UserReader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.UserDB, error)
	GetByEmail(ctx context.Context, email string) (*models.UserDB, error)
}

// UserWriter defines write operations on the user store.
type UserWriter interface {
	Create(ctx context.Context, user *models.UserDB) error
	Update(ctx context.Context, user *models.UserDB, prevEmail string) error
	Delete(ctx context.Context, user *models.UserDB) error
}

// TokenIssuer issues and verifies purpose-scoped tokens.
type TokenIssuer interface {
	Generate(ctx context.Context, userID uuid.UUID) (string, error)
	GetUserID(ctx context.Context, tokenString string) (uuid.UUID, error)
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// UserService orchestrates registration, authentication, password reset,
// email verification and profile changes over the user store.
type UserService struct {
	reader      UserReader
	writer      UserWriter
	resetJWT    TokenIssuer
	verifyJWT   TokenIssuer
	kafkaWriter KafkaWriter
}

// NewUserService creates a new UserService instance.
func NewUserService(
	reader UserReader,
	writer UserWriter,
	resetJWT TokenIssuer,
	verifyJWT TokenIssuer,
	kafkaWriter KafkaWriter,
) *UserService {
	return &UserService{
		reader:      reader,
		writer:      writer,
		resetJWT:    resetJWT,
		verifyJWT:   verifyJWT,
		kafkaWriter: kafkaWriter,
	}
}

// Register creates a new user with a hashed password. The email is
// lower-cased before storage; a taken email surfaces the store's
// already-exists error.
func (svc *UserService) Register(ctx context.Context, email, password string, firstName, lastName *string) (*models.UserDB, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Errorw("failed to hash password", "err", err)
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.UserDB{
		UserID:       uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hashedPassword),
		IsActive:     true,
		FirstName:    firstName,
		LastName:     lastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := svc.writer.Create(ctx, user); err != nil {
		return nil, err
	}

	svc.onAfterRegister(ctx, user)
	return user, nil
}

// onAfterRegister publishes a registered-user event. It is best effort:
// a publish failure is logged and never fails the registration itself.
func (svc *UserService) onAfterRegister(ctx context.Context, user *models.UserDB) {
	logger.Log.Infow("user registered", "id", user.UserID, "email", user.Email)

	if svc.kafkaWriter == nil {
		logger.Log.Warnw("Kafka writer not configured, skipping publishing", "id", user.UserID)
		return
	}

	evt := models.RegisteredEvent{
		EventID:   uuid.NewString(),
		UserID:    user.UserID.String(),
		Email:     user.Email,
		Timestamp: time.Now().Unix(),
	}

	data, err := json.Marshal(evt)
	if err != nil {
		logger.Log.Errorw("failed to marshal registered event", "id", user.UserID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(evt.UserID),
		Value: data,
	}

	if err := svc.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("failed to publish registered event", "id", user.UserID, "error", err)
	}
}

// Authenticate verifies email and password. Unknown email, wrong
// password and an inactive account all return ErrInvalidCredentials;
// the unknown-email path still runs a bcrypt comparison so the
// failure paths cost about the same.
func (svc *UserService) Authenticate(ctx context.Context, email, password string) (*models.UserDB, error) {
	user, err := svc.reader.GetByEmail(ctx, email)
	if err != nil {
		logger.Log.Errorw("failed to get user by email", "err", err)
		return nil, err
	}
	if user == nil {
		bcrypt.CompareHashAndPassword(dummyDigest, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// RequestPasswordReset issues a reset-purpose token for email. It
// returns an empty token without error when the email is unknown or the
// user is inactive, so the endpoint never leaks account existence.
func (svc *UserService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := svc.reader.GetByEmail(ctx, email)
	if err != nil {
		logger.Log.Errorw("failed to get user by email", "err", err)
		return "", err
	}
	if user == nil || !user.IsActive {
		return "", nil
	}

	token, err := svc.resetJWT.Generate(ctx, user.UserID)
	if err != nil {
		logger.Log.Errorw("failed to generate reset token", "id", user.UserID, "err", err)
		return "", err
	}
	return token, nil
}

// ResetPassword verifies a reset-purpose token and stores a new
// password digest for its subject.
func (svc *UserService) ResetPassword(ctx context.Context, token, newPassword string) (*models.UserDB, error) {
	userID, err := svc.resetJWT.GetUserID(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := svc.reader.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			// Token subject no longer exists; do not reveal that.
			return nil, jwtpkg.ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		// Subject was deactivated after the token was issued.
		return nil, jwtpkg.ErrInvalidToken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Errorw("failed to hash password", "err", err)
		return nil, err
	}

	user.PasswordHash = string(hashedPassword)
	user.UpdatedAt = time.Now().UTC()
	if err := svc.writer.Update(ctx, user, user.Email); err != nil {
		return nil, err
	}

	logger.Log.Infow("password reset", "id", user.UserID)
	return user, nil
}

// RequestVerification issues a verification-purpose token for email.
// Unknown, inactive and already-verified users get an empty token
// without error.
func (svc *UserService) RequestVerification(ctx context.Context, email string) (string, error) {
	user, err := svc.reader.GetByEmail(ctx, email)
	if err != nil {
		logger.Log.Errorw("failed to get user by email", "err", err)
		return "", err
	}
	if user == nil || !user.IsActive || user.IsVerified {
		return "", nil
	}

	token, err := svc.verifyJWT.Generate(ctx, user.UserID)
	if err != nil {
		logger.Log.Errorw("failed to generate verification token", "id", user.UserID, "err", err)
		return "", err
	}
	return token, nil
}

// Verify consumes a verification-purpose token and marks its subject
// verified. Verifying an already-verified user is a no-op.
func (svc *UserService) Verify(ctx context.Context, token string) (*models.UserDB, error) {
	userID, err := svc.verifyJWT.GetUserID(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := svc.reader.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, jwtpkg.ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, jwtpkg.ErrInvalidToken
	}

	if user.IsVerified {
		return user, nil
	}

	user.IsVerified = true
	user.UpdatedAt = time.Now().UTC()
	if err := svc.writer.Update(ctx, user, user.Email); err != nil {
		return nil, err
	}

	logger.Log.Infow("user verified", "id", user.UserID)
	return user, nil
}

// ParseID parses a user id string.
func (svc *UserService) ParseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, ErrMalformedID
	}
	return id, nil
}

// Get returns the user with the given id.
func (svc *UserService) Get(ctx context.Context, id uuid.UUID) (*models.UserDB, error) {
	return svc.reader.Get(ctx, id)
}

// Update merges a partial update onto user and persists the result.
// The id is immutable; a password in the payload is re-hashed and an
// email is re-normalized before storage.
func (svc *UserService) Update(ctx context.Context, user *models.UserDB, upd models.UserUpdate) (*models.UserDB, error) {
	merged := *user
	prevEmail := user.Email

	if upd.Email != nil {
		merged.Email = strings.ToLower(strings.TrimSpace(*upd.Email))
	}
	if upd.Password != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Log.Errorw("failed to hash password", "err", err)
			return nil, err
		}
		merged.PasswordHash = string(hashedPassword)
	}
	if upd.IsActive != nil {
		merged.IsActive = *upd.IsActive
	}
	if upd.IsSuperuser != nil {
		merged.IsSuperuser = *upd.IsSuperuser
	}
	if upd.IsVerified != nil {
		merged.IsVerified = *upd.IsVerified
	}
	if upd.FirstName != nil {
		merged.FirstName = upd.FirstName
	}
	if upd.LastName != nil {
		merged.LastName = upd.LastName
	}

	merged.UpdatedAt = time.Now().UTC()
	if err := svc.writer.Update(ctx, &merged, prevEmail); err != nil {
		return nil, err
	}

	return &merged, nil
}

// UpdateSafe applies a partial update with the is_active, is_superuser
// and is_verified flags ignored. Self-service profile updates go
// through it, so a user cannot grant themselves privileges; only the
// superuser-gated by-id path uses the unrestricted Update.
func (svc *UserService) UpdateSafe(ctx context.Context, user *models.UserDB, upd models.UserUpdate) (*models.UserDB, error) {
	upd.IsActive = nil
	upd.IsSuperuser = nil
	upd.IsVerified = nil
	return svc.Update(ctx, user, upd)
}

// Delete removes the user. Deleting an already-absent user is not an error.
func (svc *UserService) Delete(ctx context.Context, user *models.UserDB) error {
	return svc.writer.Delete(ctx, user)
}
