package endpoints

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/doodlesbykumbi/keycustody/pkg/authenticator"
	"github.com/doodlesbykumbi/keycustody/pkg/server/store"
)

func TestHandleRegister(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(m *MockAccountService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "registered",
			body: `{"username":"bob","password":"pw123"}`,
			setup: func(m *MockAccountService) {
				m.On("Register", "bob", "pw123").Return(int64(1), nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"message":"User registered successfully"}`,
		},
		{
			name: "username taken",
			body: `{"username":"bob","password":"other"}`,
			setup: func(m *MockAccountService) {
				m.On("Register", "bob", "other").Return(int64(0), store.ErrDuplicateUsername)
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"detail":"Username already exists"}`,
		},
		{
			name:       "invalid json",
			body:       `{"username":`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "missing password",
			body:       `{"username":"bob"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"detail":"malformed request: field required: password"}`,
		},
		{
			name:       "wrong type",
			body:       `{"username":1,"password":"pw"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "empty username",
			body: `{"username":"","password":"pw"}`,
			setup: func(m *MockAccountService) {
				m.On("Register", "", "pw").Return(int64(0), authenticator.ErrInvalidInput)
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "password too long",
			body: `{"username":"bob","password":"` + strings.Repeat("p", 73) + `"}`,
			setup: func(m *MockAccountService) {
				m.On("Register", "bob", strings.Repeat("p", 73)).Return(int64(0), authenticator.ErrPasswordTooLong)
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"detail":"password must be at most 72 bytes"}`,
		},
		{
			name: "store failure",
			body: `{"username":"bob","password":"pw123"}`,
			setup: func(m *MockAccountService) {
				m.On("Register", "bob", "pw123").Return(int64(0), errors.New("pq: connection refused"))
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"detail":"Internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := &MockAccountService{}
			if tt.setup != nil {
				tt.setup(accounts)
			}

			req := httptest.NewRequest("POST", "/register", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			handleRegister(accounts)(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
			if tt.setup == nil {
				accounts.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestHandleToken(t *testing.T) {
	t.Run("issues a bearer token", func(t *testing.T) {
		accounts := &MockAccountService{}
		accounts.On("Authenticate", "bob", "pw123").Return(int64(1), nil)
		tokens := &MockTokenIssuer{}
		tokens.On("Issue", "bob").Return("signed.jwt.token", nil)

		form := url.Values{"username": {"bob"}, "password": {"pw123"}}
		req := httptest.NewRequest("POST", "/token", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		handleToken(accounts, tokens)(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"access_token":"signed.jwt.token","token_type":"bearer"}`, w.Body.String())
		accounts.AssertExpectations(t)
		tokens.AssertExpectations(t)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		accounts := &MockAccountService{}
		accounts.On("Authenticate", "bob", "wrong").Return(int64(0), authenticator.ErrInvalidCredentials)
		tokens := &MockTokenIssuer{}

		form := url.Values{"username": {"bob"}, "password": {"wrong"}}
		req := httptest.NewRequest("POST", "/token", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		handleToken(accounts, tokens)(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"detail":"Invalid credentials"}`, w.Body.String())
		tokens.AssertNotCalled(t, "Issue", mock.Anything)
	})

	t.Run("missing field", func(t *testing.T) {
		accounts := &MockAccountService{}
		tokens := &MockTokenIssuer{}

		req := httptest.NewRequest("POST", "/token", strings.NewReader("username=bob"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		handleToken(accounts, tokens)(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "password")
	})

	t.Run("json body is not a form", func(t *testing.T) {
		accounts := &MockAccountService{}
		tokens := &MockTokenIssuer{}

		req := httptest.NewRequest("POST", "/token", strings.NewReader(`{"username":"bob","password":"pw123"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		handleToken(accounts, tokens)(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("signing failure", func(t *testing.T) {
		accounts := &MockAccountService{}
		accounts.On("Authenticate", "bob", "pw123").Return(int64(1), nil)
		tokens := &MockTokenIssuer{}
		tokens.On("Issue", "bob").Return("", errors.New("key is invalid"))

		req := httptest.NewRequest("POST", "/token", strings.NewReader("username=bob&password=pw123"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		handleToken(accounts, tokens)(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "key is invalid")
	})
}
