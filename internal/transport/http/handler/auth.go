package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-otp-auth/internal/application/auth"
	"github.com/go-otp-auth/internal/domain"
	"github.com/go-otp-auth/internal/pkg/validate"
	"github.com/go-otp-auth/internal/transport/http/middleware"
)

// AuthHandler handles the OTP authentication flow endpoints.
type AuthHandler struct {
	svc            auth.Service
	allowedDomains []string
}

func NewAuthHandler(svc auth.Service, allowedDomains []string) *AuthHandler {
	return &AuthHandler{svc: svc, allowedDomains: allowedDomains}
}

func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.RequestOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.domainAllowed(req.Email) {
		writeError(w, http.StatusBadRequest, "email domain not allowed")
		return
	}
	if err := h.svc.RequestOTP(r.Context(), req.Email); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "OTP sent successfully"})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.svc.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		// A missing or already-expired code is a client error here, not a 404.
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "OTP expired or invalid")
			return
		}
		httpError(w, err)
		return
	}
	msg := "OTP verified successfully"
	if !result.UserExists {
		msg = "OTP verified, proceed to signup"
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{
		Message:    msg,
		UserExists: result.UserExists,
		User:       result.User,
		Token:      result.Token,
	})
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.svc.Signup(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthEnvelope{
		Message:    "signup successful",
		UserExists: result.UserExists,
		User:       result.User,
		Token:      result.Token,
	})
}

func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	u, err := h.svc.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileEnvelope{Message: "token valid", User: u})
}

func (h *AuthHandler) Protected(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	u, err := h.svc.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileEnvelope{Message: "access granted", User: u})
}

func (h *AuthHandler) domainAllowed(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	emailDomain := strings.ToLower(email[at+1:])
	for _, d := range h.allowedDomains {
		if emailDomain == strings.ToLower(strings.TrimSpace(d)) {
			return true
		}
	}
	return false
}
