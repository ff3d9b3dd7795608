package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/rachitkansal-dev/prayatak-backend/internal/model"
)

// CommentRepo persists comments, their liker sets and both reference edges
// (blog_comments and user_comments). Every mutation updates all ends of
// the graph in one transaction.
type CommentRepo struct{ DB *sql.DB }

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{DB: db} }

// Create inserts a comment against an existing post together with the
// parent's blog_comments edge and the author's user_comments edge.
// Returns ErrBlogNotFound when the parent post does not exist.
func (r *CommentRepo) Create(ctx context.Context, cm *model.Comment) (err error) {
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

	var exists uint64
	if err = tx.QueryRowContext(ctx, "SELECT id FROM blogs WHERE id=?", cm.BlogID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrBlogNotFound
		}
		return err
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO comments (body, author_name, author_id, blog_id) VALUES (?,?,?,?)",
		cm.Body, cm.AuthorName, cm.AuthorID, cm.BlogID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	cm.ID = uint64(id)

	if _, err = tx.ExecContext(ctx,
		"INSERT INTO blog_comments (blog_id, comment_id) VALUES (?,?)", cm.BlogID, cm.ID); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO user_comments (user_id, comment_id) VALUES (?,?)", cm.AuthorID, cm.ID)
	return err
}

// GetByID fetches a single comment. Returns ErrCommentNotFound when absent.
func (r *CommentRepo) GetByID(ctx context.Context, id uint64) (model.Comment, error) {
	var cm model.Comment
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, body, author_name, author_id, blog_id, likes, created_at FROM comments WHERE id=? LIMIT 1", id).
		Scan(&cm.ID, &cm.Body, &cm.AuthorName, &cm.AuthorID, &cm.BlogID, &cm.Likes, &cm.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return cm, ErrCommentNotFound
	}
	return cm, err
}

// ListByBlog returns a post's comments resolved through the blog_comments
// edge, oldest first.
func (r *CommentRepo) ListByBlog(ctx context.Context, blogID uint64) ([]model.Comment, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT c.id, c.body, c.author_name, c.author_id, c.blog_id, c.likes, c.created_at
		 FROM comments c
		 JOIN blog_comments bc ON bc.comment_id = c.id
		 WHERE bc.blog_id = ?
		 ORDER BY c.id`, blogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Comment
	for rows.Next() {
		var cm model.Comment
		if err := rows.Scan(&cm.ID, &cm.Body, &cm.AuthorName, &cm.AuthorID, &cm.BlogID, &cm.Likes, &cm.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, cm)
	}
	return out, rows.Err()
}

// ListByUser returns a user's comment set joined with each parent blog's
// title and image, as the profile page displays them.
func (r *CommentRepo) ListByUser(ctx context.Context, userID uint64) ([]model.UserComment, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT c.id, c.body, c.author_name, c.author_id, c.blog_id, c.likes, c.created_at, b.title, b.image
		 FROM comments c
		 JOIN user_comments uc ON uc.comment_id = c.id
		 JOIN blogs b ON b.id = c.blog_id
		 WHERE uc.user_id = ?
		 ORDER BY c.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.UserComment
	for rows.Next() {
		var uc model.UserComment
		if err := rows.Scan(&uc.ID, &uc.Body, &uc.AuthorName, &uc.AuthorID, &uc.BlogID,
			&uc.Likes, &uc.CreatedAt, &uc.BlogTitle, &uc.BlogImage); err != nil {
			return nil, err
		}
		out = append(out, uc)
	}
	return out, rows.Err()
}

// DeleteCascade removes a comment after detaching it from both the parent
// post's comment set and the author's comment set, plus its liker set.
// All removals share one transaction; a partial detach cannot be observed.
func (r *CommentRepo) DeleteCascade(ctx context.Context, id uint64, req Requester) (err error) {
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
	if err = tx.QueryRowContext(ctx, "SELECT author_id FROM comments WHERE id=?", id).Scan(&authorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrCommentNotFound
		}
		return err
	}
	if !req.allows(authorID) {
		return ErrForbidden
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM blog_comments WHERE comment_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM user_comments WHERE comment_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM comment_likes WHERE comment_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id); err != nil {
		return err
	}
	return nil
}

// Like adds userID to the comment's liker set and bumps the counter in the
// same transaction.
func (r *CommentRepo) Like(ctx context.Context, commentID, userID uint64) (likes uint32, err error) {
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

	if err = tx.QueryRowContext(ctx, "SELECT likes FROM comments WHERE id=?", commentID).Scan(&likes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrCommentNotFound
		}
		return 0, err
	}
	if _, err = tx.ExecContext(ctx,
		"INSERT INTO comment_likes (comment_id, user_id) VALUES (?,?)", commentID, userID); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			err = ErrAlreadyLiked
		}
		return 0, err
	}
	if _, err = tx.ExecContext(ctx,
		"UPDATE comments SET likes = likes + 1 WHERE id=?", commentID); err != nil {
		return 0, err
	}
	return likes + 1, nil
}

// Dislike removes userID from the liker set and decrements the counter.
func (r *CommentRepo) Dislike(ctx context.Context, commentID, userID uint64) (likes uint32, err error) {
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

	if err = tx.QueryRowContext(ctx, "SELECT likes FROM comments WHERE id=?", commentID).Scan(&likes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrCommentNotFound
		}
		return 0, err
	}
	res, err := tx.ExecContext(ctx,
		"DELETE FROM comment_likes WHERE comment_id=? AND user_id=?", commentID, userID)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrNotLiked
		return 0, err
	}
	if _, err = tx.ExecContext(ctx,
		"UPDATE comments SET likes = likes - 1 WHERE id=? AND likes > 0", commentID); err != nil {
		return 0, err
	}
	return likes - 1, nil
}
