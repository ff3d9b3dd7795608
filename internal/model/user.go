// Package model defines the row structs persisted by the repository layer.
// JSON tags are only present where a struct is returned to clients as-is;
// handlers otherwise define their own response types.
package model

import (
	"database/sql"
	"time"
)

// User represents a row in the `users` table. The password hash never
// leaves the repository/handler boundary. ResetToken and ResetExpires are
// set together by the forgot-password flow and cleared together by the
// reset-password flow; one without the other is an invalid state.
type User struct {
	ID           uint64
	Name         string
	Email        string // unique, stored lower-cased
	PasswordHash string
	PhoneNumber  string
	Address      string
	IsAdmin      bool
	ResetToken   sql.NullString
	ResetExpires sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
