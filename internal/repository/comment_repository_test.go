package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rachitkansal-dev/prayatak-backend/internal/model"
)

func TestCommentCreateWritesBothEdges(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCommentRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM blogs WHERE id=?")).
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO comments (body, author_name, author_id, blog_id) VALUES (?,?,?,?)")).
		WithArgs("nice", "Ravi", uint64(2), uint64(11)).
		WillReturnResult(sqlmock.NewResult(21, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO blog_comments (blog_id, comment_id) VALUES (?,?)")).
		WithArgs(uint64(11), uint64(21)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_comments (user_id, comment_id) VALUES (?,?)")).
		WithArgs(uint64(2), uint64(21)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	cm := model.Comment{Body: "nice", AuthorName: "Ravi", AuthorID: 2, BlogID: 11}
	require.NoError(t, repo.Create(context.Background(), &cm))
	assert.Equal(t, uint64(21), cm.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentCreateAgainstMissingBlog(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCommentRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM blogs").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &model.Comment{BlogID: 99})
	assert.ErrorIs(t, err, ErrBlogNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCommentDeleteCascadeDetachesBothSets verifies a deleted comment leaves
// neither the parent post's set nor the author's set behind, in one tx.
func TestCommentDeleteCascadeDetachesBothSets(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCommentRepo(db)

	id := uint64(21)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT author_id FROM comments").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"author_id"}).AddRow(2))
	mock.ExpectExec("DELETE FROM blog_comments WHERE comment_id").
		WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM user_comments WHERE comment_id").
		WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM comment_likes WHERE comment_id").
		WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM comments WHERE id").
		WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.DeleteCascade(context.Background(), id, Requester{UserID: 2})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentDeleteCascadeForbidden(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCommentRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT author_id FROM comments").
		WillReturnRows(sqlmock.NewRows([]string{"author_id"}).AddRow(2))
	mock.ExpectRollback()

	err := repo.DeleteCascade(context.Background(), 21, Requester{UserID: 3})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCommentLikeThenDislikeRestoresCounter(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCommentRepo(db)

	// like
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT likes FROM comments").
		WillReturnRows(sqlmock.NewRows([]string{"likes"}).AddRow(0))
	mock.ExpectExec("INSERT INTO comment_likes").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE comments SET likes = likes + 1 WHERE id=?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	likes, err := repo.Like(context.Background(), 21, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), likes)

	// dislike
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT likes FROM comments").
		WillReturnRows(sqlmock.NewRows([]string{"likes"}).AddRow(1))
	mock.ExpectExec("DELETE FROM comment_likes WHERE comment_id").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE comments SET likes = likes - 1 WHERE id=? AND likes > 0")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	likes, err = repo.Dislike(context.Background(), 21, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), likes)
	assert.NoError(t, mock.ExpectationsWereMet())
}
