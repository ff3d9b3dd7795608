// Package repository contains all data access logic, separated from HTTP
// handlers. It also owns referential integrity: the schema has no foreign
// keys, so every cross-collection edge (user<->blog, blog<->comment,
// user<->comment, liker sets, item<->claim) is maintained here, and the
// delete operations cascade through dependent rows inside a single
// transaction.
//
// This file defines sentinel error values shared across repositories so
// handlers can map failures to stable HTTP statuses.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts a mutating operation
// on a resource owned by someone else and is not an admin. Handlers
// translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrEmailExists is returned by signup when a user with the candidate
// email already exists. Handlers translate this into a conflict response.
var ErrEmailExists = errors.New("email already exists")

// ErrAlreadyLiked is returned when a user likes a blog or comment they
// have already liked. The liker set is the source of truth.
var ErrAlreadyLiked = errors.New("already liked")

// ErrNotLiked is returned when a user removes a like they never placed.
var ErrNotLiked = errors.New("not liked")

// ErrTokenInvalid is returned when a password-reset token does not match
// any user or has expired. The two cases are deliberately indistinguishable.
var ErrTokenInvalid = errors.New("reset token invalid or expired")

// Not-found sentinels, one per collection.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrOTPNotFound     = errors.New("otp challenge not found or expired")
	ErrBlogNotFound    = errors.New("blog post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrClaimNotFound   = errors.New("claim not found")
	ErrContactNotFound = errors.New("contact message not found")
)

// Requester identifies the caller of a mutating operation for ownership
// checks performed inside repository transactions.
type Requester struct {
	UserID  uint64
	IsAdmin bool
}

// allows reports whether the requester may act on a resource owned by ownerID.
func (r Requester) allows(ownerID uint64) bool {
	return r.IsAdmin || r.UserID == ownerID
}
