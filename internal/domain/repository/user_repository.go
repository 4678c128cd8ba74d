package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nabilmamin/mern-auth-portal/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicateEmail is returned when a create would violate the
	// case-insensitive email uniqueness constraint.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrValidation wraps format failures rejected at the store boundary.
	ErrValidation = errors.New("validation failed")
)

// UserRepository is the credential store contract. Implementations must
// enforce email uniqueness atomically (constraint, not check-then-act) and
// hash staged passwords before persisting.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// GetByVerificationToken and GetByResetToken match on the stored token
	// hash and require the expiry to be strictly after now.
	GetByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (*entity.User, error)
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
}
