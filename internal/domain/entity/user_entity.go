package entity

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nabilmamin/mern-auth-portal/pkg/helpers"
)

var (
	emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// User is the aggregate root for the account domain.
// Passwords are stored as bcrypt hashes in PasswordHash; the plaintext only
// lives in the unexported pendingPassword field between SetPassword and the
// next store write.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	IsVerified   bool

	VerificationTokenHash   string
	VerificationTokenExpiry *time.Time
	ResetTokenHash          string
	ResetTokenExpiry        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	pendingPassword string
	passwordDirty   bool
}

// Public is the projection returned to callers. The password hash and token
// fields never leave the server.
type Public struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

func New(name, email, phone, password string) *User {
	u := &User{
		Name:  strings.TrimSpace(name),
		Email: NormalizeEmail(email),
		Phone: phone,
	}
	u.SetPassword(password)
	return u
}

// NormalizeEmail lowercases and trims an address so uniqueness checks are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SetPassword stages a new plaintext password and marks it dirty. The store
// hashes it on the next write; an unchanged password is never re-hashed.
func (u *User) SetPassword(plain string) {
	u.pendingPassword = plain
	u.passwordDirty = true
}

// PasswordChanged reports whether SetPassword was called since the last
// store write.
func (u *User) PasswordChanged() bool { return u.passwordDirty }

// EnsurePasswordHashed hashes the staged password if one is pending.
// Called by the stores before persisting.
func (u *User) EnsurePasswordHashed() error {
	if !u.passwordDirty {
		return nil
	}
	hash, err := helpers.HashPassword(u.pendingPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.pendingPassword = ""
	u.passwordDirty = false
	return nil
}

// CheckPassword compares a plaintext candidate against the stored hash.
// bcrypt's comparison does not early-exit on mismatching prefixes.
func (u *User) CheckPassword(plain string) bool {
	return helpers.CompareHashAndPassword(u.PasswordHash, plain)
}

func (u *User) SetVerificationToken(hash string, expiry time.Time) {
	u.VerificationTokenHash = hash
	u.VerificationTokenExpiry = &expiry
}

func (u *User) ClearVerificationToken() {
	u.VerificationTokenHash = ""
	u.VerificationTokenExpiry = nil
}

func (u *User) SetResetToken(hash string, expiry time.Time) {
	u.ResetTokenHash = hash
	u.ResetTokenExpiry = &expiry
}

func (u *User) ClearResetToken() {
	u.ResetTokenHash = ""
	u.ResetTokenExpiry = nil
}

// Validate checks the format constraints enforced at the store boundary:
// non-empty name, email pattern, password length, phone shape.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if !emailPattern.MatchString(u.Email) {
		return fmt.Errorf("invalid email address")
	}
	if u.passwordDirty && len(u.pendingPassword) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	if u.Phone != "" {
		normalized, err := NormalizePhone(u.Phone)
		if err != nil {
			return err
		}
		u.Phone = normalized
	}
	return nil
}

// NormalizePhone strips formatting and a leading US country code, leaving
// exactly 10 digits.
func NormalizePhone(phone string) (string, error) {
	digits := nonDigits.ReplaceAllString(phone, "")
	if len(digits) == 11 && strings.HasPrefix(digits, "1") {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return "", fmt.Errorf("phone number must be exactly 10 digits long")
	}
	return digits, nil
}

func (u *User) Public() Public {
	return Public{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}
