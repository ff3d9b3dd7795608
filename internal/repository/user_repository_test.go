package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rachitkansal-dev/prayatak-backend/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func userRows(u model.User) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "email", "password_hash", "phone_number", "address",
		"is_admin", "reset_token", "reset_expires", "created_at", "updated_at",
	}).AddRow(u.ID, u.Name, u.Email, u.PasswordHash, u.PhoneNumber, u.Address,
		u.IsAdmin, u.ResetToken, u.ResetExpires, u.CreatedAt, u.UpdatedAt)
}

func TestUserCreateNormalizesEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO users (name, email, password_hash, phone_number, address) VALUES (?,?,?,?,?)")).
		WithArgs("Asha", "asha@example.com", "hash", "123", "addr").
		WillReturnResult(sqlmock.NewResult(5, 1))

	u := model.User{Name: "Asha", Email: "  ASHA@Example.COM ", PasswordHash: "hash", PhoneNumber: "123", Address: "addr"}
	id, err := repo.Create(context.Background(), &u)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), id)
	assert.Equal(t, "asha@example.com", u.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'asha@example.com' for key 'users.uq_users_email'"))

	_, err := repo.Create(context.Background(), &model.User{Email: "asha@example.com"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserGetByEmailNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery("SELECT .* FROM users WHERE email").
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSetResetTokenUnknownEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE users SET reset_token=?, reset_expires=? WHERE email=?")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetResetToken(context.Background(), "ghost@example.com", "tok", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetByResetTokenExpiredOrMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery("SELECT .* FROM users WHERE reset_token").
		WithArgs("stale").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByResetToken(context.Background(), "stale")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestResetPasswordClearsTokenAndExpiryTogether(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE users SET password_hash=?, reset_token=NULL, reset_expires=NULL WHERE id=?")).
		WithArgs("newhash", uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ResetPassword(context.Background(), 3, "newhash"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserDeleteCascadeForbidden(t *testing.T) {
	db, _ := newMock(t)
	repo := NewUserRepo(db)

	// A non-admin deleting someone else never reaches the database.
	err := repo.DeleteCascade(context.Background(), 2, Requester{UserID: 1, IsAdmin: false})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUserDeleteCascadeNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT email FROM users WHERE id=?")).
		WithArgs(uint64(9)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.DeleteCascade(context.Background(), 9, Requester{UserID: 9})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestUserDeleteCascadeOrder pins the full fan-out: the user's own comments
// with their edges, comments under the user's posts, the posts themselves,
// lost-and-found records by email, and finally the user row, all inside one
// committed transaction.
func TestUserDeleteCascadeOrder(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	uid := uint64(4)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT email FROM users WHERE id=?")).
		WithArgs(uid).
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("asha@example.com"))

	// 1. comments authored by the user
	mock.ExpectExec("DELETE cl FROM comment_likes cl JOIN comments c ON c.id = cl.comment_id WHERE c.author_id").
		WithArgs(uid).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE bc FROM blog_comments bc JOIN comments c ON c.id = bc.comment_id WHERE c.author_id").
		WithArgs(uid).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM user_comments WHERE user_id").
		WithArgs(uid).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM comments WHERE author_id").
		WithArgs(uid).WillReturnResult(sqlmock.NewResult(0, 2))

	// 2. comments under the user's posts
	mock.ExpectExec("DELETE cl FROM comment_likes cl").
		WithArgs(uid).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE uc FROM user_comments uc").
		WithArgs(uid).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE bc FROM blog_comments bc").
		WithArgs(uid).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE c FROM comments c JOIN blogs b").
		WithArgs(uid).WillReturnResult(sqlmock.NewResult(0, 1))

	// 3. the user's posts
	mock.ExpectExec("DELETE bl FROM blog_likes bl").
		WithArgs(uid).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM user_blogs WHERE user_id").
		WithArgs(uid).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM blogs WHERE author_id").
		WithArgs(uid).WillReturnResult(sqlmock.NewResult(0, 1))

	// 4. lost-and-found by email
	mock.ExpectExec("DELETE FROM claims WHERE email").
		WithArgs("asha@example.com").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM items WHERE email").
		WithArgs("asha@example.com").WillReturnResult(sqlmock.NewResult(0, 1))

	// 5. the user row
	mock.ExpectExec("DELETE FROM users WHERE id").
		WithArgs(uid).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.DeleteCascade(context.Background(), uid, Requester{UserID: 1, IsAdmin: true})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetByIDFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	now := time.Now()
	u := model.User{ID: 2, Name: "Ravi", Email: "ravi@example.com", PasswordHash: "h", CreatedAt: now, UpdatedAt: now}
	mock.ExpectQuery("SELECT .* FROM users WHERE id").
		WithArgs(uint64(2)).
		WillReturnRows(userRows(u))

	got, err := repo.GetByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "ravi@example.com", got.Email)
}
