package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/MarvinPescos/balancehub/internal/domain"
	"github.com/MarvinPescos/balancehub/internal/repository"
)

const verificationColumns = `id, user_id, email, email_code, reset_token, verification_type, status,
	expires_at, verified_at, created_at, updated_at`

// CreateVerification supersedes the user's pending verifications of the same
// type and inserts the new one.
func (r *Repository) CreateVerification(ctx context.Context, v *domain.EmailVerification) error {
	if v == nil || v.UserID == 0 || v.Type == "" {
		return repository.ErrInvalidArgument
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const expire = `UPDATE email_verifications
		SET status = 'expired', updated_at = NOW()
		WHERE user_id = $1 AND verification_type = $2 AND status = 'pending'`
	if _, err := tx.Exec(ctx, expire, v.UserID, v.Type); err != nil {
		return err
	}

	status := v.Status
	if status == "" {
		status = domain.VerificationStatusPending
	}
	const insert = `INSERT INTO email_verifications
			(user_id, email, email_code, reset_token, verification_type, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, insert,
		v.UserID,
		strings.ToLower(strings.TrimSpace(v.Email)),
		v.Code,
		v.ResetToken,
		v.Type,
		status,
		v.ExpiresAt.UTC(),
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return mapWriteError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	v.Status = status
	return nil
}

// LatestPendingVerification returns the newest unexpired pending verification
// whose type is one of verificationTypes.
func (r *Repository) LatestPendingVerification(ctx context.Context, userID int64, verificationTypes []string, now time.Time) (*domain.EmailVerification, error) {
	const query = `SELECT ` + verificationColumns + ` FROM email_verifications
		WHERE user_id = $1 AND verification_type = ANY($2) AND status = 'pending' AND expires_at > $3
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	return scanVerification(r.pool.QueryRow(ctx, query, userID, verificationTypes, now.UTC()))
}

// GetVerificationByResetToken looks a verification up by its emailed token.
func (r *Repository) GetVerificationByResetToken(ctx context.Context, token string) (*domain.EmailVerification, error) {
	const query = `SELECT ` + verificationColumns + ` FROM email_verifications WHERE reset_token = $1`
	return scanVerification(r.pool.QueryRow(ctx, query, strings.TrimSpace(token)))
}

// CompleteEmailVerification marks the verification used and activates the user.
func (r *Repository) CompleteEmailVerification(ctx context.Context, verificationID, userID int64, at time.Time) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := markVerified(ctx, tx, verificationID, at); err != nil {
		return err
	}
	const activate = `UPDATE users
		SET is_active = TRUE, is_email_verified = TRUE, updated_at = NOW()
		WHERE id = $1`
	tag, err := tx.Exec(ctx, activate, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return tx.Commit(ctx)
}

// CompletePasswordReset marks the reset token used and stores the new hash.
func (r *Repository) CompletePasswordReset(ctx context.Context, verificationID, userID int64, passwordHash []byte, at time.Time) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := markVerified(ctx, tx, verificationID, at); err != nil {
		return err
	}
	const update = `UPDATE users SET hashed_password = $2, updated_at = NOW() WHERE id = $1`
	tag, err := tx.Exec(ctx, update, userID, string(passwordHash))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return tx.Commit(ctx)
}

// ExpirePendingVerifications flips every overdue pending row to expired.
func (r *Repository) ExpirePendingVerifications(ctx context.Context, now time.Time) (int64, error) {
	const query = `UPDATE email_verifications
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'pending' AND expires_at <= $1`
	tag, err := r.pool.Exec(ctx, query, now.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// markVerified only transitions pending rows so a token cannot be redeemed twice.
func markVerified(ctx context.Context, q querier, verificationID int64, at time.Time) error {
	const query = `UPDATE email_verifications
		SET status = 'verified', verified_at = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`
	tag, err := q.Exec(ctx, query, verificationID, at.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanVerification(row pgx.Row) (*domain.EmailVerification, error) {
	var v domain.EmailVerification
	if err := row.Scan(
		&v.ID,
		&v.UserID,
		&v.Email,
		&v.Code,
		&v.ResetToken,
		&v.Type,
		&v.Status,
		&v.ExpiresAt,
		&v.VerifiedAt,
		&v.CreatedAt,
		&v.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	v.ExpiresAt = v.ExpiresAt.UTC()
	return &v, nil
}
