package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rachitkansal-dev/prayatak-backend/internal/model"
)

// UserRepo is the credential store. It owns user rows, the reset-token
// lifecycle and the account-deletion cascade.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, name, email, password_hash, phone_number, address, is_admin, reset_token, reset_expires, created_at, updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.PhoneNumber,
		&u.Address, &u.IsAdmin, &u.ResetToken, &u.ResetExpires, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts a user and returns its ID. The email is normalized to
// lower case; the unique index on users.email turns duplicate signups into
// ErrEmailExists, which also closes the verify/verify race: only one of two
// concurrent verifications of the same candidate can ever insert.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (uint64, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, phone_number, address) VALUES (?,?,?,?,?)",
		u.Name, u.Email, u.PasswordHash, u.PhoneNumber, u.Address)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	u.ID = uint64(id)
	return u.ID, nil
}

// GetByEmail fetches a user by normalized email. Returns ErrUserNotFound
// when absent.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// GetByID fetches a user by id. Returns ErrUserNotFound when absent.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// List returns all users ordered by id. Admin-only at the routing layer.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.PhoneNumber,
			&u.Address, &u.IsAdmin, &u.ResetToken, &u.ResetExpires, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateProfile updates name, phone number, address and, when passwordHash
// is non-empty, the password hash. Returns ErrUserNotFound when no row
// matched.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name, passwordHash, phone, address string) error {
	var (
		res sql.Result
		err error
	)
	if passwordHash != "" {
		res, err = r.DB.ExecContext(ctx,
			"UPDATE users SET name=?, password_hash=?, phone_number=?, address=? WHERE id=?",
			name, passwordHash, phone, address, id)
	} else {
		res, err = r.DB.ExecContext(ctx,
			"UPDATE users SET name=?, phone_number=?, address=? WHERE id=?",
			name, phone, address, id)
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is 0 both for a missing row and for a no-op update;
		// confirm existence before reporting not found.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// SetResetToken stores a password-reset token and its expiry on the user
// with the given email. Returns ErrUserNotFound when no such user exists.
func (r *UserRepo) SetResetToken(ctx context.Context, email, token string, expires time.Time) error {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET reset_token=?, reset_expires=? WHERE email=?",
		token, expires, email)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// GetByResetToken fetches the user holding an unexpired reset token.
// Missing and expired tokens are both reported as ErrTokenInvalid.
func (r *UserRepo) GetByResetToken(ctx context.Context, token string) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE reset_token=? AND reset_expires > UTC_TIMESTAMP() LIMIT 1",
		token))
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrTokenInvalid
	}
	return u, err
}

// ResetPassword replaces the password hash and clears the reset token and
// its expiry in one statement, so no intermediate state with only one of
// the two cleared can be observed.
func (r *UserRepo) ResetPassword(ctx context.Context, id uint64, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, reset_token=NULL, reset_expires=NULL WHERE id=?",
		passwordHash, id)
	return err
}

// DeleteCascade removes a user and everything that references it, in one
// transaction. Only the user themself or an admin may delete an account.
// Order:
//  1. comments authored by the user (plus their likes and both reference
//     edges, including edges on other users' posts),
//  2. comments under the user's blog posts (authored by anyone),
//  3. the user's blog posts (plus likes and the user_blogs edges),
//  4. items and claims filed under the user's email,
//  5. the user row.
//
// Every step is idempotent, so re-running the cascade after a mid-flight
// failure converges on the same end state.
func (r *UserRepo) DeleteCascade(ctx context.Context, id uint64, req Requester) (err error) {
	if !req.allows(id) {
		return ErrForbidden
	}

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

	var email string
	if err = tx.QueryRowContext(ctx, "SELECT email FROM users WHERE id=?", id).Scan(&email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrUserNotFound
		}
		return err
	}

	// 1. Comments authored by the user, wherever they live.
	if _, err = tx.ExecContext(ctx,
		`DELETE cl FROM comment_likes cl JOIN comments c ON c.id = cl.comment_id WHERE c.author_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE bc FROM blog_comments bc JOIN comments c ON c.id = bc.comment_id WHERE c.author_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM user_comments WHERE user_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM comments WHERE author_id = ?`, id); err != nil {
		return err
	}

	// 2. Comments other users left under this user's posts, including the
	// edges pointing back at their authors.
	if _, err = tx.ExecContext(ctx,
		`DELETE cl FROM comment_likes cl
		 JOIN comments c ON c.id = cl.comment_id
		 JOIN blogs b ON b.id = c.blog_id
		 WHERE b.author_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE uc FROM user_comments uc
		 JOIN comments c ON c.id = uc.comment_id
		 JOIN blogs b ON b.id = c.blog_id
		 WHERE b.author_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE bc FROM blog_comments bc
		 JOIN blogs b ON b.id = bc.blog_id
		 WHERE b.author_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE c FROM comments c JOIN blogs b ON b.id = c.blog_id WHERE b.author_id = ?`, id); err != nil {
		return err
	}

	// 3. The user's blog posts.
	if _, err = tx.ExecContext(ctx,
		`DELETE bl FROM blog_likes bl JOIN blogs b ON b.id = bl.blog_id WHERE b.author_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM user_blogs WHERE user_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM blogs WHERE author_id = ?`, id); err != nil {
		return err
	}

	// 4. Lost-and-found records filed under the user's email.
	if _, err = tx.ExecContext(ctx, `DELETE FROM claims WHERE email = ?`, email); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM items WHERE email = ?`, email); err != nil {
		return err
	}

	// 5. The user row itself.
	if _, err = tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return err
	}
	return nil
}
