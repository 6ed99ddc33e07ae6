package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MarvinPescos/balancehub/internal/domain"
	"github.com/MarvinPescos/balancehub/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.UserRepository         = (*Repository)(nil)
	_ repository.VerificationRepository = (*Repository)(nil)
	_ repository.OAuthAccountRepository = (*Repository)(nil)
	_ repository.CatFactRepository      = (*Repository)(nil)
	_ repository.BuildingRepository     = (*Repository)(nil)
	_ repository.RatingRepository       = (*Repository)(nil)
)

const userColumns = `id, username, email, hashed_password, full_name, is_active, is_email_verified,
	role, two_factor_enabled, two_factor_secret, created_at, updated_at`

// CreateUser inserts a user and fills in the generated id and timestamps.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	return createUser(ctx, r.pool, user)
}

func createUser(ctx context.Context, q querier, user *domain.User) error {
	if user == nil {
		return repository.ErrInvalidArgument
	}
	role := user.Role
	if role == "" {
		role = domain.RoleUser
	}
	const query = `INSERT INTO users (username, email, hashed_password, full_name, is_active, is_email_verified, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	err := q.QueryRow(ctx, query,
		user.Username,
		strings.ToLower(strings.TrimSpace(user.Email)),
		string(user.PasswordHash),
		user.FullName,
		user.IsActive,
		user.IsEmailVerified,
		role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.Role = role
	return nil
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetUserByEmail fetches a user by email. Emails compare case-insensitively.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
	return scanUser(row)
}

// GetUserByUsername fetches a user by username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, strings.TrimSpace(username))
	return scanUser(row)
}

// UpdateUser writes every mutable column of user.
func (r *Repository) UpdateUser(ctx context.Context, user *domain.User) error {
	if user == nil {
		return repository.ErrInvalidArgument
	}
	const query = `UPDATE users SET
			username = $2,
			email = $3,
			hashed_password = $4,
			full_name = $5,
			is_active = $6,
			is_email_verified = $7,
			role = $8,
			two_factor_enabled = $9,
			two_factor_secret = $10,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Username,
		strings.ToLower(strings.TrimSpace(user.Email)),
		string(user.PasswordHash),
		user.FullName,
		user.IsActive,
		user.IsEmailVerified,
		user.Role,
		user.TwoFactorEnabled,
		user.TwoFactorSecret,
	).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return mapWriteError(err)
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u    domain.User
		hash string
	)
	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&hash,
		&u.FullName,
		&u.IsActive,
		&u.IsEmailVerified,
		&u.Role,
		&u.TwoFactorEnabled,
		&u.TwoFactorSecret,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	u.PasswordHash = []byte(hash)
	return &u, nil
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// mapWriteError translates constraint violations into repository errors.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return repository.ErrConflict
		case "23503", "23514", "22P02":
			return repository.ErrInvalidArgument
		}
	}
	return err
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
