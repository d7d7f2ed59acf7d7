package domain

import "time"

type User struct {
	UserID        string    `json:"id" dynamodbav:"user_id"`
	Email         string    `json:"email" dynamodbav:"email"`
	Name          string    `json:"name" dynamodbav:"name"`
	AgeRange      string    `json:"ageRange" dynamodbav:"age_range"`
	Gender        string    `json:"gender" dynamodbav:"gender"`
	EmailVerified bool      `json:"emailVerified" dynamodbav:"email_verified"`
	CreatedAt     time.Time `json:"createdAt" dynamodbav:"created_at"`
}

type RequestOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=4,numeric"`
}

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	AgeRange string `json:"ageRange" validate:"required"`
	Gender   string `json:"gender" validate:"required"`
}

// AuthResult is returned by flow operations that may establish identity.
// Token is empty when the email is verified but no account exists yet.
type AuthResult struct {
	UserExists bool
	User       *User
	Token      string
}
