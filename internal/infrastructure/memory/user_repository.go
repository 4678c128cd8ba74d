// Package memory provides an in-memory credential store with the same
// contract as the postgres implementation. It backs the test suite and
// local development without a database.
package memory

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nabilmamin/mern-auth-portal/internal/domain/entity"
	"github.com/nabilmamin/mern-auth-portal/internal/domain/repository"
)

type UserRepository struct {
	mu     sync.Mutex
	seq    int
	byID   map[string]*entity.User
	emails map[string]string // lower(email) -> id
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:   make(map[string]*entity.User),
		emails: make(map[string]string),
	}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if err := u.Validate(); err != nil {
		return errors.Join(repository.ErrValidation, err)
	}
	if err := u.EnsurePasswordHashed(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, exists := r.emails[key]; exists {
		return repository.ErrDuplicateEmail
	}
	r.seq++
	u.ID = "u-" + strconv.Itoa(r.seq)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt

	cp := *u
	r.byID[u.ID] = &cp
	r.emails[key] = u.ID
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.emails[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *UserRepository) GetByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.VerificationTokenHash == tokenHash &&
			u.VerificationTokenExpiry != nil && u.VerificationTokenExpiry.After(now) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.ResetTokenHash == tokenHash &&
			u.ResetTokenExpiry != nil && u.ResetTokenExpiry.After(now) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	if err := u.Validate(); err != nil {
		return errors.Join(repository.ErrValidation, err)
	}
	if err := u.EnsurePasswordHashed(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.byID[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	newKey := strings.ToLower(u.Email)
	oldKey := strings.ToLower(prev.Email)
	if newKey != oldKey {
		if owner, exists := r.emails[newKey]; exists && owner != u.ID {
			return repository.ErrDuplicateEmail
		}
		delete(r.emails, oldKey)
		r.emails[newKey] = u.ID
	}
	u.UpdatedAt = time.Now()
	cp := *u
	r.byID[u.ID] = &cp
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
