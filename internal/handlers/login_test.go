package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-users-auth/internal/models"
	"github.com/sbilibin2017/gw-users-auth/internal/services"
	"github.com/stretchr/testify/assert"
)

func TestLoginHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID := uuid.New()

	tests := []struct {
		name         string
		reqBody      LoginRequest
		mockSetup    func(svc *MockAuthenticator, backend *MockSessionBackend)
		expectedCode int
		expectedBody map[string]string
		rawBody      string
	}{
		{
			name: "success",
			reqBody: LoginRequest{
				Email:    "john@example.com",
				Password: "secret123",
			},
			mockSetup: func(svc *MockAuthenticator, backend *MockSessionBackend) {
				svc.EXPECT().
					Authenticate(gomock.Any(), "john@example.com", "secret123").
					Return(&models.UserDB{UserID: userID, Email: "john@example.com", IsActive: true}, nil)
				backend.EXPECT().
					Login(gomock.Any(), gomock.Any(), userID).
					Return(nil)
			},
			expectedCode: http.StatusNoContent,
		},
		{
			name: "wrong password",
			reqBody: LoginRequest{
				Email:    "john@example.com",
				Password: "wrong",
			},
			mockSetup: func(svc *MockAuthenticator, backend *MockSessionBackend) {
				svc.EXPECT().
					Authenticate(gomock.Any(), "john@example.com", "wrong").
					Return(nil, services.ErrInvalidCredentials)
			},
			expectedCode: http.StatusUnauthorized,
			expectedBody: map[string]string{"error": "Invalid email or password"},
		},
		{
			name: "unknown email",
			reqBody: LoginRequest{
				Email:    "nobody@example.com",
				Password: "secret123",
			},
			mockSetup: func(svc *MockAuthenticator, backend *MockSessionBackend) {
				svc.EXPECT().
					Authenticate(gomock.Any(), "nobody@example.com", "secret123").
					Return(nil, services.ErrInvalidCredentials)
			},
			expectedCode: http.StatusUnauthorized,
			expectedBody: map[string]string{"error": "Invalid email or password"},
		},
		{
			name: "internal server error",
			reqBody: LoginRequest{
				Email:    "john@example.com",
				Password: "secret123",
			},
			mockSetup: func(svc *MockAuthenticator, backend *MockSessionBackend) {
				svc.EXPECT().
					Authenticate(gomock.Any(), "john@example.com", "secret123").
					Return(nil, errors.New("storage failure"))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: map[string]string{"error": "Internal server error"},
		},
		{
			name: "session start failure",
			reqBody: LoginRequest{
				Email:    "john@example.com",
				Password: "secret123",
			},
			mockSetup: func(svc *MockAuthenticator, backend *MockSessionBackend) {
				svc.EXPECT().
					Authenticate(gomock.Any(), "john@example.com", "secret123").
					Return(&models.UserDB{UserID: userID, Email: "john@example.com", IsActive: true}, nil)
				backend.EXPECT().
					Login(gomock.Any(), gomock.Any(), userID).
					Return(errors.New("signing failure"))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: map[string]string{"error": "Internal server error"},
		},
		{
			name:         "invalid json",
			rawBody:      "{invalid json}",
			expectedCode: http.StatusBadRequest,
			expectedBody: map[string]string{"error": "Invalid request body"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := NewMockAuthenticator(ctrl)
			mockBackend := NewMockSessionBackend(ctrl)
			if tt.mockSetup != nil {
				tt.mockSetup(mockSvc, mockBackend)
			}

			handler := NewLoginHandler(mockSvc, mockBackend)

			var req *http.Request
			if tt.rawBody != "" {
				req = httptest.NewRequest(http.MethodPost, "/auth/jwt/login", bytes.NewBufferString(tt.rawBody))
			} else {
				bodyBytes, _ := json.Marshal(tt.reqBody)
				req = httptest.NewRequest(http.MethodPost, "/auth/jwt/login", bytes.NewReader(bodyBytes))
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)

			if tt.expectedBody != nil {
				var got map[string]string
				err := json.Unmarshal(rec.Body.Bytes(), &got)
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedBody, got)
			}
		})
	}
}

func TestLogoutHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockBackend := NewMockSessionBackend(ctrl)
	mockBackend.EXPECT().Logout(gomock.Any())

	req := httptest.NewRequest(http.MethodPost, "/auth/jwt/logout", nil)
	rec := httptest.NewRecorder()

	NewLogoutHandler(mockBackend).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
