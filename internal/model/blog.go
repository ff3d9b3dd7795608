package model

import "time"

// Blog represents a row in the `blogs` table. AuthorName is denormalized
// from the owning user at creation time. Likes is a cached counter kept in
// lockstep with the `blog_likes` set by the repository; the set is the
// source of truth.
type Blog struct {
	ID         uint64    `json:"_id"`
	Title      string    `json:"title"`
	Place      string    `json:"place"`
	Body       string    `json:"body"`
	Image      string    `json:"image"`
	AuthorName string    `json:"author"`
	AuthorID   uint64    `json:"author_id"`
	Likes      uint32    `json:"likes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
