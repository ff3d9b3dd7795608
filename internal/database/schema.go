package database

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order on startup. Each statement is idempotent
// (CREATE TABLE IF NOT EXISTS), so re-running on every boot is safe.
//
// The link tables (user_blogs, user_comments, blog_comments, blog_likes,
// comment_likes) mirror the reference arrays of the previous document
// model. Both ends of an edge are written by the same transaction in the
// repository layer.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		phone_number VARCHAR(32) NOT NULL,
		address VARCHAR(512) NOT NULL,
		is_admin TINYINT(1) NOT NULL DEFAULT 0,
		reset_token VARCHAR(128) NULL,
		reset_expires DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_email (email),
		KEY idx_users_reset_token (reset_token)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS otp_challenges (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		token VARCHAR(128) NOT NULL,
		otp_code VARCHAR(8) NOT NULL,
		payload TEXT NOT NULL,
		expires_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_otp_token (token)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS blogs (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		place VARCHAR(255) NOT NULL,
		body TEXT NOT NULL,
		image VARCHAR(512) NOT NULL DEFAULT '/default.png',
		author_name VARCHAR(255) NOT NULL,
		author_id BIGINT UNSIGNED NOT NULL,
		likes INT UNSIGNED NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_blogs_author (author_id),
		KEY idx_blogs_place (place)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS comments (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		body TEXT NOT NULL,
		author_name VARCHAR(255) NOT NULL,
		author_id BIGINT UNSIGNED NOT NULL,
		blog_id BIGINT UNSIGNED NOT NULL,
		likes INT UNSIGNED NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_comments_author (author_id),
		KEY idx_comments_blog (blog_id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS user_blogs (
		user_id BIGINT UNSIGNED NOT NULL,
		blog_id BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (user_id, blog_id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS user_comments (
		user_id BIGINT UNSIGNED NOT NULL,
		comment_id BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (user_id, comment_id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS blog_comments (
		blog_id BIGINT UNSIGNED NOT NULL,
		comment_id BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (blog_id, comment_id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS blog_likes (
		blog_id BIGINT UNSIGNED NOT NULL,
		user_id BIGINT UNSIGNED NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (blog_id, user_id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS comment_likes (
		comment_id BIGINT UNSIGNED NOT NULL,
		user_id BIGINT UNSIGNED NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (comment_id, user_id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS items (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		landf VARCHAR(16) NOT NULL,
		title VARCHAR(255) NOT NULL,
		type VARCHAR(128) NOT NULL,
		description TEXT NOT NULL,
		location VARCHAR(255) NOT NULL,
		happened_on DATETIME NULL,
		photo VARCHAR(512) NOT NULL DEFAULT '/default.png',
		contact VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_items_email (email),
		KEY idx_items_landf (landf)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS claims (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		item_id VARCHAR(64) NOT NULL,
		email VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		phone VARCHAR(32) NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_claims_item (item_id),
		KEY idx_claims_email (email)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS lf_comments (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(255) NOT NULL,
		comment_text TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS contact_messages (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		phone_number VARCHAR(32) NOT NULL,
		message TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
