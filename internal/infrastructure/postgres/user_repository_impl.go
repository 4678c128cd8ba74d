package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nabilmamin/mern-auth-portal/internal/domain/entity"
	"github.com/nabilmamin/mern-auth-portal/internal/domain/repository"
)

// UserRepository is the pgx-backed credential store. Email uniqueness is
// enforced by a unique index on lower(email), so concurrent registrations
// for the same address cannot both succeed.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, name, email, phone, password_hash, is_verified,
	verification_token_hash, verification_token_expiry,
	reset_token_hash, reset_token_expiry, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if err := u.Validate(); err != nil {
		return errors.Join(repository.ErrValidation, err)
	}
	if err := u.EnsurePasswordHashed(); err != nil {
		return err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, phone, password_hash, is_verified,
			verification_token_hash, verification_token_expiry)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), $7)
		RETURNING id, created_at, updated_at
	`, u.Name, u.Email, u.Phone, u.PasswordHash, u.IsVerified,
		u.VerificationTokenHash, u.VerificationTokenExpiry)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`,
		entity.NormalizeEmail(email))
}

func (r *UserRepository) GetByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (*entity.User, error) {
	return r.getOne(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE verification_token_hash = $1 AND verification_token_expiry > $2`,
		tokenHash, now)
}

func (r *UserRepository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*entity.User, error) {
	return r.getOne(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE reset_token_hash = $1 AND reset_token_expiry > $2`,
		tokenHash, now)
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	if err := u.Validate(); err != nil {
		return errors.Join(repository.ErrValidation, err)
	}
	if err := u.EnsurePasswordHashed(); err != nil {
		return err
	}
	u.UpdatedAt = time.Now()

	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET name = $1, email = $2, phone = NULLIF($3, ''), password_hash = $4,
			is_verified = $5,
			verification_token_hash = NULLIF($6, ''), verification_token_expiry = $7,
			reset_token_hash = NULLIF($8, ''), reset_token_expiry = $9,
			updated_at = $10
		WHERE id = $11
	`, u.Name, u.Email, u.Phone, u.PasswordHash, u.IsVerified,
		u.VerificationTokenHash, u.VerificationTokenExpiry,
		u.ResetTokenHash, u.ResetTokenExpiry, u.UpdatedAt, u.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return repository.ErrDuplicateEmail
		}
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...any) (*entity.User, error) {
	u := &entity.User{}
	var phone, verifyHash, resetHash *string

	row := r.pool.QueryRow(ctx, query, args...)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &phone, &u.PasswordHash, &u.IsVerified,
		&verifyHash, &u.VerificationTokenExpiry,
		&resetHash, &u.ResetTokenExpiry,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if phone != nil {
		u.Phone = *phone
	}
	if verifyHash != nil {
		u.VerificationTokenHash = *verifyHash
	}
	if resetHash != nil {
		u.ResetTokenHash = *resetHash
	}
	return u, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
