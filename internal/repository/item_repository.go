package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/rachitkansal-dev/prayatak-backend/internal/model"
)

// ItemRepo persists lost-and-found items and the claims filed against
// them. The item<->claim link is a soft string reference: claims survive
// unchanged when their item disappears and every reader must tolerate
// dangling ones.
type ItemRepo struct{ DB *sql.DB }

func NewItemRepo(db *sql.DB) *ItemRepo { return &ItemRepo{DB: db} }

const itemColumns = "id, landf, title, type, description, location, happened_on, photo, contact, name, email, created_at"

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	defer rows.Close()
	var out []model.Item
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ID, &it.Landf, &it.Title, &it.Type, &it.Description, &it.Location,
			&it.HappenedOn, &it.Photo, &it.Contact, &it.Name, &it.Email, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// CreateItem inserts a lost-or-found report.
func (r *ItemRepo) CreateItem(ctx context.Context, it *model.Item) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO items (landf, title, type, description, location, happened_on, photo, contact, name, email) VALUES (?,?,?,?,?,?,?,?,?,?)",
		it.Landf, it.Title, it.Type, it.Description, it.Location, it.HappenedOn, it.Photo, it.Contact, it.Name, it.Email)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	it.ID = uint64(id)
	return nil
}

// GetItemByID fetches a single item. Returns ErrItemNotFound when absent.
func (r *ItemRepo) GetItemByID(ctx context.Context, id uint64) (model.Item, error) {
	var it model.Item
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM items WHERE id=? LIMIT 1", id).
		Scan(&it.ID, &it.Landf, &it.Title, &it.Type, &it.Description, &it.Location,
			&it.HappenedOn, &it.Photo, &it.Contact, &it.Name, &it.Email, &it.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return it, ErrItemNotFound
	}
	return it, err
}

// ItemFilter narrows a search; empty fields are ignored. All matches are
// case-insensitive substring matches.
type ItemFilter struct {
	Type     string
	Location string
	Landf    string
}

// SearchItems returns items matching the filter, newest first.
func (r *ItemRepo) SearchItems(ctx context.Context, f ItemFilter) ([]model.Item, error) {
	q := "SELECT " + itemColumns + " FROM items"
	var (
		conds []string
		args  []any
	)
	if f.Type != "" {
		conds = append(conds, "LOWER(type) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Type)+"%")
	}
	if f.Location != "" {
		conds = append(conds, "LOWER(location) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Location)+"%")
	}
	if f.Landf != "" {
		conds = append(conds, "LOWER(landf) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Landf)+"%")
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY id DESC"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

// ListItemsByEmailAndKind returns a reporter's own lost or found items.
func (r *ItemRepo) ListItemsByEmailAndKind(ctx context.Context, email, landf string) ([]model.Item, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM items WHERE email=? AND landf=? ORDER BY id DESC",
		strings.ToLower(strings.TrimSpace(email)), landf)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

// ListItemsByKind returns every lost or found item for admin review.
func (r *ItemRepo) ListItemsByKind(ctx context.Context, landf string) ([]model.Item, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM items WHERE landf=? ORDER BY id DESC", landf)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

// DeleteItemCascade removes an item and every claim filed against it in
// one transaction. Claims are matched on the stringified item id.
func (r *ItemRepo) DeleteItemCascade(ctx context.Context, id uint64) (err error) {
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

	res, err := tx.ExecContext(ctx, "DELETE FROM items WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrItemNotFound
		return err
	}
	_, err = tx.ExecContext(ctx, "DELETE FROM claims WHERE item_id=?", strconv.FormatUint(id, 10))
	return err
}

// CreateClaim inserts a claim. The referenced item is not required to
// exist; the linkage is intentionally loose.
func (r *ItemRepo) CreateClaim(ctx context.Context, c *model.Claim) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO claims (item_id, email, description, phone) VALUES (?,?,?,?)",
		c.ItemID, c.Email, c.Description, c.Phone)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// ListClaims returns every claim, newest first.
func (r *ItemRepo) ListClaims(ctx context.Context) ([]model.Claim, error) {
	return r.listClaims(ctx, "SELECT id, item_id, email, description, phone, created_at FROM claims ORDER BY id DESC")
}

// ListClaimsByEmail returns the claims a user has filed.
func (r *ItemRepo) ListClaimsByEmail(ctx context.Context, email string) ([]model.Claim, error) {
	return r.listClaims(ctx,
		"SELECT id, item_id, email, description, phone, created_at FROM claims WHERE email=? ORDER BY id DESC",
		strings.ToLower(strings.TrimSpace(email)))
}

func (r *ItemRepo) listClaims(ctx context.Context, q string, args ...any) ([]model.Claim, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Claim
	for rows.Next() {
		var c model.Claim
		if err := rows.Scan(&c.ID, &c.ItemID, &c.Email, &c.Description, &c.Phone, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteClaim removes a single claim. Returns ErrClaimNotFound when absent.
func (r *ItemRepo) DeleteClaim(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM claims WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrClaimNotFound
	}
	return nil
}

// CreateWallComment posts an entry on the anonymous comment wall.
func (r *ItemRepo) CreateWallComment(ctx context.Context, cm *model.WallComment) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO lf_comments (username, comment_text) VALUES (?,?)",
		cm.Username, cm.Body)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	cm.ID = uint64(id)
	return nil
}

// ListWallComments returns the whole wall, newest first.
func (r *ItemRepo) ListWallComments(ctx context.Context) ([]model.WallComment, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, username, comment_text, created_at FROM lf_comments ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.WallComment
	for rows.Next() {
		var cm model.WallComment
		if err := rows.Scan(&cm.ID, &cm.Username, &cm.Body, &cm.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, cm)
	}
	return out, rows.Err()
}

// ListClaimsWithItems pairs each claim with the item it targets for the
// admin review page. Claims whose item_id does not parse or no longer
// matches an item are dangling; they are returned with a nil Item rather
// than dropped or treated as an error.
func (r *ItemRepo) ListClaimsWithItems(ctx context.Context) ([]model.ClaimWithItem, error) {
	claims, err := r.ListClaims(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.ClaimWithItem, 0, len(claims))
	for _, c := range claims {
		entry := model.ClaimWithItem{Claim: c}
		if id, perr := strconv.ParseUint(c.ItemID, 10, 64); perr == nil {
			it, gerr := r.GetItemByID(ctx, id)
			switch {
			case gerr == nil:
				entry.Item = &it
			case errors.Is(gerr, ErrItemNotFound):
				// dangling claim, keep Item nil
			default:
				return nil, gerr
			}
		}
		out = append(out, entry)
	}
	return out, nil
}
