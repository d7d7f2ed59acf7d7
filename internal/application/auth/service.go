package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/go-otp-auth/internal/domain"
	"github.com/go-otp-auth/internal/pkg/id"
)

// OTPStore persists pending one-time codes, keyed by email.
type OTPStore interface {
	Put(ctx context.Context, o *domain.OTPRecord) error
	Get(ctx context.Context, email string) (*domain.OTPRecord, error)
	Delete(ctx context.Context, email string) error
}

// VerificationStore persists signup eligibility grants, keyed by email.
type VerificationStore interface {
	Put(ctx context.Context, v *domain.Verification) error
	Get(ctx context.Context, email string) (*domain.Verification, error)
	Delete(ctx context.Context, email string) error
}

// UserStore persists accounts.
type UserStore interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Mailer delivers one-time codes.
type Mailer interface {
	SendOTP(to, code string) error
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Sign(userID, email string) (string, error)
}

// Service orchestrates the request-OTP → verify-OTP → signup/login flow.
type Service interface {
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (*domain.AuthResult, error)
	Signup(ctx context.Context, req domain.SignupRequest) (*domain.AuthResult, error)
	GetProfile(ctx context.Context, userID string) (*domain.User, error)
}

type ServiceDeps struct {
	OTPRepo            OTPStore
	VerificationRepo   VerificationStore
	UserRepo           UserStore
	Mailer             Mailer
	TokenIssuer        TokenIssuer
	OTPExpiry          time.Duration
	VerificationExpiry time.Duration
}

type service struct {
	otpRepo          OTPStore
	verificationRepo VerificationStore
	userRepo         UserStore
	mailer           Mailer
	tokenIssuer      TokenIssuer
	otpExpiry        time.Duration
	verifExpiry      time.Duration
	now              func() time.Time
}

func NewService(deps ServiceDeps) Service {
	return &service{
		otpRepo:          deps.OTPRepo,
		verificationRepo: deps.VerificationRepo,
		userRepo:         deps.UserRepo,
		mailer:           deps.Mailer,
		tokenIssuer:      deps.TokenIssuer,
		otpExpiry:        deps.OTPExpiry,
		verifExpiry:      deps.VerificationExpiry,
		now:              time.Now,
	}
}

// RequestOTP generates a fresh 4-digit code for the email and mails it.
// Any prior pending code for the address is overwritten: re-requesting
// always invalidates the previous code. The code never appears in the
// response. If delivery fails the stored code is rolled back so the
// address is not left with a code its owner never received.
func (s *service) RequestOTP(ctx context.Context, email string) error {
	code, err := generateOTP()
	if err != nil {
		return err
	}

	now := s.now().UTC()
	o := &domain.OTPRecord{
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.otpExpiry).Unix(),
	}
	if err := s.otpRepo.Put(ctx, o); err != nil {
		return err
	}

	if err := s.mailer.SendOTP(email, code); err != nil {
		if delErr := s.otpRepo.Delete(ctx, email); delErr != nil {
			slog.Warn("failed to roll back OTP after delivery failure", "email", email, "err", delErr)
		}
		return fmt.Errorf("send OTP email: %w", domain.ErrDelivery)
	}
	return nil
}

// VerifyOTP checks the submitted code. A match consumes the code (single
// use). For an address with an account this is a login and returns a
// token; otherwise a signup grant is written and the caller should
// proceed to Signup.
func (s *service) VerifyOTP(ctx context.Context, email, code string) (*domain.AuthResult, error) {
	o, err := s.otpRepo.Get(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("OTP not found: %w", domain.ErrNotFound)
	}
	// An expired record the store has not evicted yet is indistinguishable
	// from one that was never requested.
	if o.Expired(s.now()) {
		return nil, fmt.Errorf("OTP expired: %w", domain.ErrNotFound)
	}
	if subtle.ConstantTimeCompare([]byte(o.Code), []byte(code)) != 1 {
		return nil, fmt.Errorf("incorrect OTP: %w", domain.ErrMismatch)
	}
	if err := s.otpRepo.Delete(ctx, email); err != nil {
		return nil, err
	}

	u, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		token, err := s.tokenIssuer.Sign(u.UserID, u.Email)
		if err != nil {
			return nil, err
		}
		return &domain.AuthResult{UserExists: true, User: u, Token: token}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := s.now().UTC()
	v := &domain.Verification{
		Email:      email,
		Verified:   true,
		VerifiedAt: now,
		ExpiresAt:  now.Add(s.verifExpiry).Unix(),
	}
	if err := s.verificationRepo.Put(ctx, v); err != nil {
		return nil, err
	}
	return &domain.AuthResult{UserExists: false}, nil
}

// Signup creates the account for a previously verified email. Calling it
// again for an existing account returns that account with a fresh token,
// so the operation is idempotent from the caller's perspective.
func (s *service) Signup(ctx context.Context, req domain.SignupRequest) (*domain.AuthResult, error) {
	if u, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		token, err := s.tokenIssuer.Sign(u.UserID, u.Email)
		if err != nil {
			return nil, err
		}
		return &domain.AuthResult{UserExists: true, User: u, Token: token}, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	v, err := s.verificationRepo.Get(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("email not verified: %w", domain.ErrForbidden)
	}
	if !v.Usable(s.now()) {
		return nil, fmt.Errorf("verification expired: %w", domain.ErrForbidden)
	}

	u := &domain.User{
		UserID:        id.New(),
		Email:         req.Email,
		Name:          req.Name,
		AgeRange:      req.AgeRange,
		Gender:        req.Gender,
		EmailVerified: true,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.userRepo.Put(ctx, u); err != nil {
		return nil, err
	}
	// The grant is single-use: consume it together with account creation.
	if err := s.verificationRepo.Delete(ctx, req.Email); err != nil {
		slog.Warn("failed to delete verification record", "email", req.Email, "err", err)
	}

	token, err := s.tokenIssuer.Sign(u.UserID, u.Email)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResult{UserExists: true, User: u, Token: token}, nil
}

// GetProfile resolves a token subject back to an account.
func (s *service) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return u, nil
}

// generateOTP returns a uniformly distributed 4-digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()+1000), nil
}
