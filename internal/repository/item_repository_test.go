package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rachitkansal-dev/prayatak-backend/internal/model"
)

func itemRow(id uint64, title string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "landf", "title", "type", "description", "location",
		"happened_on", "photo", "contact", "name", "email", "created_at",
	}).AddRow(id, "lost", title, "wallet", "", "goa", nil, "/default.png", "123", "Asha", "asha@example.com", now)
}

func TestSearchItemsBuildsFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepo(db)

	mock.ExpectQuery("SELECT .* FROM items WHERE LOWER\\(type\\) LIKE .* AND LOWER\\(landf\\) LIKE .* ORDER BY id DESC").
		WithArgs("%wallet%", "%lost%").
		WillReturnRows(itemRow(1, "Black wallet"))

	items, err := repo.SearchItems(context.Background(), ItemFilter{Type: "Wallet", Landf: "Lost"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Black wallet", items[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteItemCascadeRemovesClaims(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM items WHERE id=?")).
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Claims reference items by stringified id.
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM claims WHERE item_id=?")).
		WithArgs("3").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteItemCascade(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteItemCascadeMissingItem(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM items WHERE id").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.DeleteItemCascade(context.Background(), 99)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func claimRows(claims ...model.Claim) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "item_id", "email", "description", "phone", "created_at"})
	for _, c := range claims {
		rows.AddRow(c.ID, c.ItemID, c.Email, c.Description, c.Phone, time.Now())
	}
	return rows
}

// TestListClaimsWithItemsToleratesDangling pins the soft-reference rule:
// a claim whose item is gone (or whose item_id is not numeric) is returned
// with a nil item, never dropped and never an error.
func TestListClaimsWithItemsToleratesDangling(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepo(db)

	mock.ExpectQuery("SELECT .* FROM claims ORDER BY id DESC").
		WillReturnRows(claimRows(
			model.Claim{ID: 1, ItemID: "3", Email: "a@x.com"},
			model.Claim{ID: 2, ItemID: "999", Email: "b@x.com"},
			model.Claim{ID: 3, ItemID: "garbage", Email: "c@x.com"},
		))
	mock.ExpectQuery("SELECT .* FROM items WHERE id").
		WithArgs(uint64(3)).
		WillReturnRows(itemRow(3, "Black wallet"))
	mock.ExpectQuery("SELECT .* FROM items WHERE id").
		WithArgs(uint64(999)).
		WillReturnRows(sqlmock.NewRows([]string{"id"})) // no such item

	out, err := repo.ListClaimsWithItems(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 3)

	require.NotNil(t, out[0].Item)
	assert.Equal(t, "Black wallet", out[0].Item.Title)
	assert.Nil(t, out[1].Item, "deleted item leaves a dangling claim")
	assert.Nil(t, out[2].Item, "non-numeric reference is dangling too")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWallCommentAssignsID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO lf_comments (username, comment_text) VALUES (?,?)")).
		WithArgs("ravi", "saw it near gate 2").
		WillReturnResult(sqlmock.NewResult(5, 1))

	cm := model.WallComment{Username: "ravi", Body: "saw it near gate 2"}
	require.NoError(t, repo.CreateWallComment(context.Background(), &cm))
	assert.Equal(t, uint64(5), cm.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListWallCommentsNewestFirst(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepo(db)

	mock.ExpectQuery("SELECT id, username, comment_text, created_at FROM lf_comments ORDER BY id DESC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "comment_text", "created_at"}).
			AddRow(2, "ravi", "second", time.Now()).
			AddRow(1, "asha", "first", time.Now()))

	out, err := repo.ListWallComments(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "second", out[0].Body)
	assert.Equal(t, "asha", out[1].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteClaimNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepo(db)

	mock.ExpectExec("DELETE FROM claims WHERE id").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.DeleteClaim(context.Background(), 9), ErrClaimNotFound)
}
