package repository

import (
	"context"
	"database/sql"

	"github.com/rachitkansal-dev/prayatak-backend/internal/model"
)

// ContactRepo stores contact-us form submissions.
type ContactRepo struct{ DB *sql.DB }

func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{DB: db} }

// Create inserts a submission.
func (r *ContactRepo) Create(ctx context.Context, m *model.ContactMessage) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO contact_messages (name, email, phone_number, message) VALUES (?,?,?,?)",
		m.Name, m.Email, m.PhoneNumber, m.Message)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// List returns all submissions, newest first.
func (r *ContactRepo) List(ctx context.Context) ([]model.ContactMessage, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, email, phone_number, message, created_at FROM contact_messages ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ContactMessage
	for rows.Next() {
		var m model.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.PhoneNumber, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Delete removes a submission. Returns ErrContactNotFound when absent.
func (r *ContactRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM contact_messages WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrContactNotFound
	}
	return nil
}
