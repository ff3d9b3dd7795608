package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/rachitkansal-dev/prayatak-backend/internal/model"
)

// BlogRepo persists blog posts, their liker sets and the user_blogs edge.
// Creation and deletion touch both ends of every reference inside one
// transaction.
type BlogRepo struct{ DB *sql.DB }

func NewBlogRepo(db *sql.DB) *BlogRepo { return &BlogRepo{DB: db} }

const blogColumns = "id, title, place, body, image, author_name, author_id, likes, created_at, updated_at"

func scanBlogs(rows *sql.Rows) ([]model.Blog, error) {
	defer rows.Close()
	var out []model.Blog
	for rows.Next() {
		var b model.Blog
		if err := rows.Scan(&b.ID, &b.Title, &b.Place, &b.Body, &b.Image,
			&b.AuthorName, &b.AuthorID, &b.Likes, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Create inserts a blog post and the owning user's reference edge in one
// transaction, so a post never exists without its user_blogs entry.
func (r *BlogRepo) Create(ctx context.Context, b *model.Blog) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO blogs (title, place, body, image, author_name, author_id) VALUES (?,?,?,?,?,?)",
		b.Title, b.Place, b.Body, b.Image, b.AuthorName, b.AuthorID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	_, err = tx.ExecContext(ctx,
		"INSERT INTO user_blogs (user_id, blog_id) VALUES (?,?)", b.AuthorID, b.ID)
	return err
}

// GetByID fetches a single post. Returns ErrBlogNotFound when absent.
func (r *BlogRepo) GetByID(ctx context.Context, id uint64) (model.Blog, error) {
	var b model.Blog
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+blogColumns+" FROM blogs WHERE id=? LIMIT 1", id).
		Scan(&b.ID, &b.Title, &b.Place, &b.Body, &b.Image,
			&b.AuthorName, &b.AuthorID, &b.Likes, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrBlogNotFound
	}
	return b, err
}

// List returns posts sorted by like count, optionally filtered by a
// case-insensitive substring match on place.
func (r *BlogRepo) List(ctx context.Context, placeQuery string) ([]model.Blog, error) {
	q := "SELECT " + blogColumns + " FROM blogs"
	var args []any
	if placeQuery != "" {
		q += " WHERE LOWER(place) LIKE ?"
		args = append(args, "%"+strings.ToLower(placeQuery)+"%")
	}
	q += " ORDER BY likes DESC, id DESC"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanBlogs(rows)
}

// ListByUser returns the posts referenced by a user's blog set, resolved
// through the user_blogs edge table.
func (r *BlogRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Blog, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT b.id, b.title, b.place, b.body, b.image, b.author_name, b.author_id, b.likes, b.created_at, b.updated_at
		 FROM blogs b
		 JOIN user_blogs ub ON ub.blog_id = b.id
		 WHERE ub.user_id = ?
		 ORDER BY b.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	return scanBlogs(rows)
}

// Update edits title, body and optionally the image of a post owned by the
// requester (admins may edit any post).
func (r *BlogRepo) Update(ctx context.Context, id uint64, req Requester, title, body, image string) error {
	var authorID uint64
	err := r.DB.QueryRowContext(ctx, "SELECT author_id FROM blogs WHERE id=?", id).Scan(&authorID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBlogNotFound
	}
	if err != nil {
		return err
	}
	if !req.allows(authorID) {
		return ErrForbidden
	}
	if image != "" {
		_, err = r.DB.ExecContext(ctx,
			"UPDATE blogs SET title=?, body=?, image=? WHERE id=?", title, body, image, id)
	} else {
		_, err = r.DB.ExecContext(ctx,
			"UPDATE blogs SET title=?, body=? WHERE id=?", title, body, id)
	}
	return err
}

// DeleteCascade removes a post, every comment under it (with both of each
// comment's reference edges and its likes), the post's liker set and the
// owner's user_blogs edge, all in one transaction. Afterwards no user's
// comment set references a comment of this post and the owner's blog set
// no longer contains the post id.
func (r *BlogRepo) DeleteCascade(ctx context.Context, id uint64, req Requester) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var authorID uint64
	if err = tx.QueryRowContext(ctx, "SELECT author_id FROM blogs WHERE id=?", id).Scan(&authorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrBlogNotFound
		}
		return err
	}
	if !req.allows(authorID) {
		return ErrForbidden
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE cl FROM comment_likes cl JOIN comments c ON c.id = cl.comment_id WHERE c.blog_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE uc FROM user_comments uc JOIN comments c ON c.id = uc.comment_id WHERE c.blog_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM blog_comments WHERE blog_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM comments WHERE blog_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM blog_likes WHERE blog_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM user_blogs WHERE blog_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM blogs WHERE id = ?`, id); err != nil {
		return err
	}
	return nil
}

// Like adds userID to the post's liker set and bumps the counter in the
// same transaction. The primary key on (blog_id, user_id) makes the set
// insert fail for a second like, so counter and set cannot diverge.
func (r *BlogRepo) Like(ctx context.Context, blogID, userID uint64) (likes uint32, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if err = tx.QueryRowContext(ctx, "SELECT likes FROM blogs WHERE id=?", blogID).Scan(&likes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrBlogNotFound
		}
		return 0, err
	}
	if _, err = tx.ExecContext(ctx,
		"INSERT INTO blog_likes (blog_id, user_id) VALUES (?,?)", blogID, userID); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			err = ErrAlreadyLiked
		}
		return 0, err
	}
	if _, err = tx.ExecContext(ctx,
		"UPDATE blogs SET likes = likes + 1 WHERE id=?", blogID); err != nil {
		return 0, err
	}
	return likes + 1, nil
}

// Dislike removes userID from the liker set and decrements the counter.
// Removing a like that was never placed is ErrNotLiked.
func (r *BlogRepo) Dislike(ctx context.Context, blogID, userID uint64) (likes uint32, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if err = tx.QueryRowContext(ctx, "SELECT likes FROM blogs WHERE id=?", blogID).Scan(&likes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrBlogNotFound
		}
		return 0, err
	}
	res, err := tx.ExecContext(ctx,
		"DELETE FROM blog_likes WHERE blog_id=? AND user_id=?", blogID, userID)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrNotLiked
		return 0, err
	}
	if _, err = tx.ExecContext(ctx,
		"UPDATE blogs SET likes = likes - 1 WHERE id=? AND likes > 0", blogID); err != nil {
		return 0, err
	}
	return likes - 1, nil
}
