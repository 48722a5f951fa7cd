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
	"github.com/sbilibin2017/gw-users-auth/internal/repositories"
	"github.com/stretchr/testify/assert"
)

func TestRegisterHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID := uuid.New()

	tests := []struct {
		name         string
		reqBody      RegisterRequest
		mockSetup    func(m *MockRegisterer)
		expectedCode int
		expectedBody map[string]string
		rawBody      string // if set, pass raw body (to simulate invalid JSON)
	}{
		{
			name: "success",
			reqBody: RegisterRequest{
				Email:    "john@example.com",
				Password: "secret123",
			},
			mockSetup: func(m *MockRegisterer) {
				m.EXPECT().
					Register(gomock.Any(), "john@example.com", "secret123", nil, nil).
					Return(&models.UserDB{
						UserID:   userID,
						Email:    "john@example.com",
						IsActive: true,
					}, nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name: "email already taken",
			reqBody: RegisterRequest{
				Email:    "alice@example.com",
				Password: "pass",
			},
			mockSetup: func(m *MockRegisterer) {
				m.EXPECT().
					Register(gomock.Any(), "alice@example.com", "pass", nil, nil).
					Return(nil, repositories.ErrUserAlreadyExists)
			},
			expectedCode: http.StatusConflict,
			expectedBody: map[string]string{"error": "A user with this email already exists"},
		},
		{
			name: "internal server error",
			reqBody: RegisterRequest{
				Email:    "bob@example.com",
				Password: "pass",
			},
			mockSetup: func(m *MockRegisterer) {
				m.EXPECT().
					Register(gomock.Any(), "bob@example.com", "pass", nil, nil).
					Return(nil, errors.New("storage failure"))
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
		{
			name: "missing password",
			reqBody: RegisterRequest{
				Email: "john@example.com",
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: map[string]string{"error": "Invalid request body"},
		},
		{
			name: "missing email",
			reqBody: RegisterRequest{
				Password: "secret123",
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: map[string]string{"error": "Invalid request body"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := NewMockRegisterer(ctrl)
			if tt.mockSetup != nil {
				tt.mockSetup(mockSvc)
			}

			handler := NewRegisterHandler(mockSvc)

			var req *http.Request
			if tt.rawBody != "" {
				req = httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(tt.rawBody))
			} else {
				bodyBytes, _ := json.Marshal(tt.reqBody)
				req = httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(bodyBytes))
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			if tt.expectedBody != nil {
				var got map[string]string
				err := json.Unmarshal(rec.Body.Bytes(), &got)
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedBody, got)
			}
		})
	}
}

func TestRegisterHandler_ResponseOmitsDigest(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := NewMockRegisterer(ctrl)
	mockSvc.EXPECT().
		Register(gomock.Any(), "john@example.com", "secret123", nil, nil).
		Return(&models.UserDB{
			UserID:       uuid.New(),
			Email:        "john@example.com",
			PasswordHash: "$2a$10$should-never-appear",
			IsActive:     true,
		}, nil)

	bodyBytes, _ := json.Marshal(RegisterRequest{Email: "john@example.com", Password: "secret123"})
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(bodyBytes))
	rec := httptest.NewRecorder()

	NewRegisterHandler(mockSvc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "should-never-appear")
	assert.NotContains(t, rec.Body.String(), "password")

	var resp UserResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "john@example.com", resp.Email)
	assert.True(t, resp.IsActive)
}
