package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rachitkansal-dev/prayatak-backend/internal/model"
)

// OTPRepo is the challenge store for email-verified signups. Rows carry the
// serialized candidate account and are deleted once consumed; expired rows
// are never returned (the query treats them as absent) and get overwritten
// by the normal churn of the table, so no sweeper is needed.
type OTPRepo struct{ DB *sql.DB }

func NewOTPRepo(db *sql.DB) *OTPRepo { return &OTPRepo{DB: db} }

// Create inserts a challenge row.
func (r *OTPRepo) Create(ctx context.Context, ch *model.OTPChallenge) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO otp_challenges (token, otp_code, payload, expires_at) VALUES (?,?,?,?)",
		ch.Token, ch.Code, ch.Payload, ch.ExpiresAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ch.ID = uint64(id)
	return nil
}

// GetActiveByToken returns the unexpired challenge bound to a correlation
// token. Unknown and expired tokens are both ErrOTPNotFound.
func (r *OTPRepo) GetActiveByToken(ctx context.Context, token string) (model.OTPChallenge, error) {
	var ch model.OTPChallenge
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, token, otp_code, payload, expires_at, created_at FROM otp_challenges WHERE token=? AND expires_at > ? LIMIT 1",
		token, time.Now().UTC()).
		Scan(&ch.ID, &ch.Token, &ch.Code, &ch.Payload, &ch.ExpiresAt, &ch.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ch, ErrOTPNotFound
	}
	return ch, err
}

// Delete removes a consumed challenge. Deleting an already-deleted row is
// a no-op, which keeps verification replays harmless.
func (r *OTPRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM otp_challenges WHERE id=?", id)
	return err
}
