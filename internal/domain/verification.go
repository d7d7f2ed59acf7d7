package domain

import "time"

// Verification marks an email as having passed OTP verification,
// allowing signup within a grace window.
// PK: email. ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type Verification struct {
	Email      string    `json:"email" dynamodbav:"email"`
	Verified   bool      `json:"verified" dynamodbav:"verified"`
	VerifiedAt time.Time `json:"verified_at" dynamodbav:"verified_at"`
	ExpiresAt  int64     `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}

// Usable reports whether the grant still authorizes signup at the given instant.
func (v *Verification) Usable(now time.Time) bool {
	return v.Verified && v.ExpiresAt >= now.Unix()
}
