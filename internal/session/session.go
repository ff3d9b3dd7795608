// Package session implements the server-side session manager. A session is
// an opaque random id handed to the client in a cookie; the identity claims
// live only on the server, so a session can be revoked the moment its user
// logs out or the account is deleted. Two stores exist: Redis for normal
// operation and an in-process store the server falls back to when Redis is
// unreachable (and which the tests use).
package session

import (
	"context"
	"errors"
	"time"
)

// TTL bounds every session's lifetime.
const TTL = 24 * time.Hour

// CookieName is the cookie carrying the opaque session id.
const CookieName = "prayatak_session"

// ErrNotFound is returned when a session id is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Claims is the identity cached for the lifetime of a login. It is the only
// place user identity lives outside the users table; whoever deletes a user
// must also destroy that user's sessions.
type Claims struct {
	UserID      uint64 `json:"user_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
	IsAdmin     bool   `json:"is_admin"`
	IsLogin     bool   `json:"is_login"`
}

// Store is the session backend.
type Store interface {
	// Create opens a session for the given claims and returns its opaque id.
	Create(ctx context.Context, c Claims) (string, error)
	// Get resolves an id into claims; ErrNotFound for unknown/expired ids.
	Get(ctx context.Context, id string) (Claims, error)
	// Update replaces the claims of an existing session, keeping its expiry.
	Update(ctx context.Context, id string, c Claims) error
	// Destroy removes one session. Destroying a missing session is a no-op.
	Destroy(ctx context.Context, id string) error
	// DestroyAllForUser removes every session belonging to a user. Called
	// by the account-deletion cascade.
	DestroyAllForUser(ctx context.Context, userID uint64) error
}
