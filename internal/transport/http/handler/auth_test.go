package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-otp-auth/internal/config"
	"github.com/go-otp-auth/internal/domain"
	jwtinfra "github.com/go-otp-auth/internal/infrastructure/jwt"
	"github.com/go-otp-auth/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) RequestOTP(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuthSvc) VerifyOTP(ctx context.Context, email, code string) (*domain.AuthResult, error) {
	args := m.Called(ctx, email, code)
	if r, _ := args.Get(0).(*domain.AuthResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthSvc) Signup(ctx context.Context, req domain.SignupRequest) (*domain.AuthResult, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*domain.AuthResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthSvc) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

var allowedDomains = []string{"gmail.com", "outlook.com", "yahoo.com"}

func newTestRouter(t *testing.T, svc *mockAuthSvc, provider *jwtinfra.Provider) http.Handler {
	t.Helper()
	h := NewAuthHandler(svc, allowedDomains)

	r := chi.NewRouter()
	r.Post("/request-otp", h.RequestOTP)
	r.Post("/verify-otp", h.VerifyOTP)
	r.Post("/signup", h.Signup)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(provider))
		r.Get("/verify-token", h.VerifyToken)
		r.Get("/protected-route", h.Protected)
	})
	return r
}

func newTestProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	p, err := jwtinfra.NewProvider(&config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour})
	require.NoError(t, err)
	return p
}

func postJSON(t *testing.T, h http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeAuthEnvelope(t *testing.T, rec *httptest.ResponseRecorder) AuthEnvelope {
	t.Helper()
	var env AuthEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

// --- /request-otp ---

func TestRequestOTP_Success(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("RequestOTP", mock.Anything, "a@gmail.com").Return(nil)

	rec := postJSON(t, newTestRouter(t, svc, newTestProvider(t)), "/request-otp", map[string]string{"email": "a@gmail.com"})

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestRequestOTP_MissingEmail(t *testing.T) {
	svc := &mockAuthSvc{}

	rec := postJSON(t, newTestRouter(t, svc, newTestProvider(t)), "/request-otp", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "RequestOTP", mock.Anything, mock.Anything)
}

func TestRequestOTP_DisallowedDomain(t *testing.T) {
	svc := &mockAuthSvc{}

	rec := postJSON(t, newTestRouter(t, svc, newTestProvider(t)), "/request-otp", map[string]string{"email": "b@hotmail.com"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "RequestOTP", mock.Anything, mock.Anything)
}

func TestRequestOTP_DeliveryFailure(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("RequestOTP", mock.Anything, "a@gmail.com").Return(domain.ErrDelivery)

	rec := postJSON(t, newTestRouter(t, svc, newTestProvider(t)), "/request-otp", map[string]string{"email": "a@gmail.com"})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

// --- /verify-otp ---

func TestVerifyOTP_NewUser(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("VerifyOTP", mock.Anything, "a@gmail.com", "4821").Return(&domain.AuthResult{UserExists: false}, nil)

	rec := postJSON(t, newTestRouter(t, svc, newTestProvider(t)), "/verify-otp", map[string]string{"email": "a@gmail.com", "otp": "4821"})

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeAuthEnvelope(t, rec)
	assert.False(t, env.UserExists)
	assert.Empty(t, env.Token)
	assert.Nil(t, env.User)
}

func TestVerifyOTP_ExistingUser(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("VerifyOTP", mock.Anything, "a@gmail.com", "4821").Return(&domain.AuthResult{
		UserExists: true,
		User:       &domain.User{UserID: "u1", Email: "a@gmail.com", Name: "Ana"},
		Token:      "signed-token",
	}, nil)

	rec := postJSON(t, newTestRouter(t, svc, newTestProvider(t)), "/verify-otp", map[string]string{"email": "a@gmail.com", "otp": "4821"})

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeAuthEnvelope(t, rec)
	assert.True(t, env.UserExists)
	assert.Equal(t, "signed-token", env.Token)
	require.NotNil(t, env.User)
	assert.Equal(t, "Ana", env.User.Name)
}

func TestVerifyOTP_AbsentOrExpiredIsBadRequest(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("VerifyOTP", mock.Anything, "a@gmail.com", "4821").Return(nil, domain.ErrNotFound)

	rec := postJSON(t, newTestRouter(t, svc, newTestProvider(t)), "/verify-otp", map[string]string{"email": "a@gmail.com", "otp": "4821"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyOTP_WrongCodeIsBadRequest(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("VerifyOTP", mock.Anything, "a@gmail.com", "0000").Return(nil, domain.ErrMismatch)

	rec := postJSON(t, newTestRouter(t, svc, newTestProvider(t)), "/verify-otp", map[string]string{"email": "a@gmail.com", "otp": "0000"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyOTP_NonNumericCodeRejected(t *testing.T) {
	svc := &mockAuthSvc{}

	rec := postJSON(t, newTestRouter(t, svc, newTestProvider(t)), "/verify-otp", map[string]string{"email": "a@gmail.com", "otp": "abcd"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "VerifyOTP", mock.Anything, mock.Anything, mock.Anything)
}

// --- /signup ---

func TestSignup_Created(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("Signup", mock.Anything, domain.SignupRequest{
		Email: "a@gmail.com", Name: "Ana", AgeRange: "25-34", Gender: "F",
	}).Return(&domain.AuthResult{
		UserExists: true,
		User:       &domain.User{UserID: "u1", Email: "a@gmail.com", Name: "Ana", AgeRange: "25-34", Gender: "F", EmailVerified: true},
		Token:      "signed-token",
	}, nil)

	rec := postJSON(t, newTestRouter(t, svc, newTestProvider(t)), "/signup", map[string]string{
		"email": "a@gmail.com", "name": "Ana", "ageRange": "25-34", "gender": "F",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	env := decodeAuthEnvelope(t, rec)
	assert.True(t, env.UserExists)
	assert.Equal(t, "signed-token", env.Token)
	require.NotNil(t, env.User)
	assert.True(t, env.User.EmailVerified)
}

func TestSignup_MissingFields(t *testing.T) {
	svc := &mockAuthSvc{}

	rec := postJSON(t, newTestRouter(t, svc, newTestProvider(t)), "/signup", map[string]string{
		"email": "a@gmail.com", "name": "Ana",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything)
}

func TestSignup_UnverifiedEmailForbidden(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("Signup", mock.Anything, mock.Anything).Return(nil, domain.ErrForbidden)

	rec := postJSON(t, newTestRouter(t, svc, newTestProvider(t)), "/signup", map[string]string{
		"email": "a@gmail.com", "name": "Ana", "ageRange": "25-34", "gender": "F",
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// --- /verify-token and /protected-route ---

func TestVerifyToken_ReturnsProfile(t *testing.T) {
	provider := newTestProvider(t)
	token, err := provider.Sign("u1", "a@gmail.com")
	require.NoError(t, err)

	svc := &mockAuthSvc{}
	svc.On("GetProfile", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Name: "Ana"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/verify-token", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	newTestRouter(t, svc, provider).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var env ProfileEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.NotNil(t, env.User)
	assert.Equal(t, "Ana", env.User.Name)
}

func TestVerifyToken_UserGoneIs404(t *testing.T) {
	provider := newTestProvider(t)
	token, err := provider.Sign("gone", "a@gmail.com")
	require.NoError(t, err)

	svc := &mockAuthSvc{}
	svc.On("GetProfile", mock.Anything, "gone").Return(nil, domain.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/verify-token", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	newTestRouter(t, svc, provider).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProtectedRoute_RequiresToken(t *testing.T) {
	svc := &mockAuthSvc{}

	req := httptest.NewRequest(http.MethodGet, "/protected-route", nil)
	rec := httptest.NewRecorder()
	newTestRouter(t, svc, newTestProvider(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	svc.AssertNotCalled(t, "GetProfile", mock.Anything, mock.Anything)
}

func TestProtectedRoute_WithToken(t *testing.T) {
	provider := newTestProvider(t)
	token, err := provider.Sign("u1", "a@gmail.com")
	require.NoError(t, err)

	svc := &mockAuthSvc{}
	svc.On("GetProfile", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/protected-route", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	newTestRouter(t, svc, provider).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
