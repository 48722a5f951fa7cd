package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-users-auth/internal/logger"
)

// TokenGenerator issues session tokens.
type TokenGenerator interface {
	Generate(ctx context.Context, userID uuid.UUID) (string, error)
}

// Transporter carries a token on HTTP responses.
type Transporter interface {
	Attach(w http.ResponseWriter, token string)
	Clear(w http.ResponseWriter)
}

// Backend binds one token strategy to one transport under a name.
// Login and logout are response mutations: a session token attached to
// or cleared from the transport. There is no server-side session state,
// so a captured token stays usable until its natural expiry.
type Backend struct {
	Name      string
	strategy  TokenGenerator
	transport Transporter
}

// New creates a new authentication Backend
func New(name string, strategy TokenGenerator, transport Transporter) *Backend {
	return &Backend{
		Name:      name,
		strategy:  strategy,
		transport: transport,
	}
}

// Login issues a session token for userID and attaches it to the response.
func (b *Backend) Login(ctx context.Context, w http.ResponseWriter, userID uuid.UUID) error {
	token, err := b.strategy.Generate(ctx, userID)
	if err != nil {
		logger.Log.Errorw("failed to generate session token", "backend", b.Name, "id", userID, "err", err)
		return err
	}
	b.transport.Attach(w, token)
	return nil
}

// Logout clears the transport-carried token from the response.
func (b *Backend) Logout(w http.ResponseWriter) {
	b.transport.Clear(w)
}
