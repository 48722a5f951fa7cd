package auth_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-users-auth/internal/auth"
	"github.com/sbilibin2017/gw-users-auth/internal/cookie"
	"github.com/sbilibin2017/gw-users-auth/internal/jwt"
	"github.com/stretchr/testify/assert"
)

func TestBackend_LoginAttachesVerifiableToken(t *testing.T) {
	strategy := jwt.New("session-secret", time.Hour)
	transport := cookie.New("bonds", 3600)
	backend := auth.New("jwt", strategy, transport)

	userID := uuid.New()
	rr := httptest.NewRecorder()

	err := backend.Login(context.Background(), rr, userID)
	assert.NoError(t, err)

	cookies := rr.Result().Cookies()
	assert.Len(t, cookies, 1)
	assert.Equal(t, "bonds", cookies[0].Name)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	got, err := strategy.GetUserID(context.Background(), cookies[0].Value)
	assert.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestBackend_LogoutClearsCookie(t *testing.T) {
	strategy := jwt.New("session-secret", time.Hour)
	transport := cookie.New("bonds", 3600)
	backend := auth.New("jwt", strategy, transport)

	rr := httptest.NewRecorder()
	backend.Logout(rr)

	cookies := rr.Result().Cookies()
	assert.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
