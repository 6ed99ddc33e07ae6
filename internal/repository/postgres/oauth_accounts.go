package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/MarvinPescos/balancehub/internal/domain"
	"github.com/MarvinPescos/balancehub/internal/repository"
)

const oauthAccountColumns = `id, user_id, provider, provider_user_id, access_token, refresh_token,
	token_expires_at, provider_email, provider_name, profile_picture_url, created_at, updated_at`

// GetOAuthAccount finds the link for a provider identity.
func (r *Repository) GetOAuthAccount(ctx context.Context, provider, providerUserID string) (*domain.OAuthAccount, error) {
	const query = `SELECT ` + oauthAccountColumns + ` FROM oauth_accounts
		WHERE provider = $1 AND provider_user_id = $2`
	row := r.pool.QueryRow(ctx, query, provider, providerUserID)
	var a domain.OAuthAccount
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Provider,
		&a.ProviderUserID,
		&a.AccessToken,
		&a.RefreshToken,
		&a.TokenExpiresAt,
		&a.ProviderEmail,
		&a.ProviderName,
		&a.ProfilePictureURL,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// CreateOAuthAccount links an identity to an existing user.
func (r *Repository) CreateOAuthAccount(ctx context.Context, account *domain.OAuthAccount) error {
	return createOAuthAccount(ctx, r.pool, account)
}

// UpdateOAuthAccount refreshes tokens and profile details of a link.
func (r *Repository) UpdateOAuthAccount(ctx context.Context, account *domain.OAuthAccount) error {
	if account == nil {
		return repository.ErrInvalidArgument
	}
	const query = `UPDATE oauth_accounts SET
			access_token = $2,
			refresh_token = COALESCE($3, refresh_token),
			token_expires_at = $4,
			provider_email = $5,
			provider_name = $6,
			profile_picture_url = $7,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		account.ID,
		account.AccessToken,
		account.RefreshToken,
		account.TokenExpiresAt,
		account.ProviderEmail,
		account.ProviderName,
		account.ProfilePictureURL,
	).Scan(&account.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return mapWriteError(err)
	}
	return nil
}

// CreateUserWithOAuthAccount registers a brand new user from a provider login.
func (r *Repository) CreateUserWithOAuthAccount(ctx context.Context, user *domain.User, account *domain.OAuthAccount) error {
	if user == nil || account == nil {
		return repository.ErrInvalidArgument
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := createUser(ctx, tx, user); err != nil {
		return err
	}
	account.UserID = user.ID
	if err := createOAuthAccount(ctx, tx, account); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func createOAuthAccount(ctx context.Context, q querier, account *domain.OAuthAccount) error {
	if account == nil || account.UserID == 0 {
		return repository.ErrInvalidArgument
	}
	const query = `INSERT INTO oauth_accounts (
			user_id, provider, provider_user_id, access_token, refresh_token,
			token_expires_at, provider_email, provider_name, profile_picture_url
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`
	err := q.QueryRow(ctx, query,
		account.UserID,
		account.Provider,
		account.ProviderUserID,
		account.AccessToken,
		account.RefreshToken,
		account.TokenExpiresAt,
		account.ProviderEmail,
		account.ProviderName,
		account.ProfilePictureURL,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	return mapWriteError(err)
}
