package domain

import "time"

// OTPRecord stores the pending one-time code for an email address.
// PK: email — at most one live code per address; a new request overwrites it.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type OTPRecord struct {
	Email     string    `json:"email" dynamodbav:"email"`
	Code      string    `json:"-" dynamodbav:"code"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt int64     `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}

// Expired reports whether the record's lifetime has elapsed at the given
// instant. TTL eviction is best-effort, so reads must check this too.
func (o *OTPRecord) Expired(now time.Time) bool {
	return o.ExpiresAt < now.Unix()
}
