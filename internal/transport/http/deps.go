package http

import (
	"github.com/go-otp-auth/internal/application/auth"
	jwtinfra "github.com/go-otp-auth/internal/infrastructure/jwt"
	"github.com/go-otp-auth/internal/infrastructure/smtp"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	OTPRepo          auth.OTPStore
	VerificationRepo auth.VerificationStore
	UserRepo         auth.UserStore
	Mailer           smtp.Mailer
	JWTProvider      *jwtinfra.Provider
}
