package model

import "time"

// Comment represents a row in the `comments` table. BlogID references the
// parent post; the same edge also lives in the `blog_comments` and
// `user_comments` link tables, which the repository keeps consistent.
type Comment struct {
	ID         uint64    `json:"_id"`
	Body       string    `json:"body"`
	AuthorName string    `json:"username"`
	AuthorID   uint64    `json:"user_id"`
	BlogID     uint64    `json:"parent_blog"`
	Likes      uint32    `json:"likes"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserComment is a comment joined with its parent blog's title and image,
// as served by the profile comments listing.
type UserComment struct {
	Comment
	BlogTitle string `json:"blog_title"`
	BlogImage string `json:"blog_image"`
}
