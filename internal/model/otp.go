package model

import "time"

// OTPChallenge is a pending signup awaiting email verification. The Payload
// holds the JSON-serialized PendingUser (password already hashed). Rows are
// deleted when consumed; expired rows are simply ignored by queries, no
// sweeper runs.
type OTPChallenge struct {
	ID        uint64
	Token     string // correlation token handed back to the client
	Code      string // 4-digit OTP sent by email, never returned over the API
	Payload   string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// PendingUser is the candidate account carried inside an OTPChallenge.
type PendingUser struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password"`
	PhoneNumber  string `json:"phoneNumber"`
	Address      string `json:"address"`
}
