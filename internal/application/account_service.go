package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nabilmamin/mern-auth-portal/internal/domain/entity"
	"github.com/nabilmamin/mern-auth-portal/internal/domain/repository"
	"github.com/nabilmamin/mern-auth-portal/pkg/helpers"
	"github.com/nabilmamin/mern-auth-portal/pkg/mailer/templates"
	"github.com/nabilmamin/mern-auth-portal/pkg/tokens"
)

// Delivery is the out-of-band channel that carries token links to the
// account holder. A send must fail visibly, never hang; the orchestrator
// invalidates the just-issued token when it does.
type Delivery interface {
	Send(ctx context.Context, to, subject, html string) error
}

// Service orchestrates the register/verify/login/forgot/reset/update flows
// over the credential store, the token lifecycle and the session issuer.
type Service struct {
	Repo     repository.UserRepository
	JWT      *helpers.JWTManager
	Delivery Delivery
	Logger   *logrus.Logger

	VerifyEmailURL   string
	ResetPasswordURL string
}

func NewService(repo repository.UserRepository, jwt *helpers.JWTManager, delivery Delivery, logger *logrus.Logger, verifyEmailURL, resetPasswordURL string) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		Repo:             repo,
		JWT:              jwt,
		Delivery:         delivery,
		Logger:           logger,
		VerifyEmailURL:   verifyEmailURL,
		ResetPasswordURL: resetPasswordURL,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// Register creates an unverified account, issues a verification token and
// delivers its link. On delivery failure the account persists but the token
// is invalidated, so the caller must go through the resend path.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	u := entity.New(in.Name, in.Email, in.Phone, in.Password)

	issued, err := tokens.Issue(tokens.PurposeVerification)
	if err != nil {
		return nil, err
	}
	u.SetVerificationToken(issued.Hash, issued.ExpiresAt)

	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}

	if err := s.sendVerification(ctx, u, issued.Plaintext); err != nil {
		return u, s.invalidateToken(ctx, u, tokens.PurposeVerification, err)
	}
	return u, nil
}

// VerifyEmail consumes a verification token and flips the account to
// verified. The token is single-use: the matched row has its token fields
// cleared whether or not the side-effect write succeeds.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*entity.User, error) {
	u, err := s.Repo.GetByVerificationToken(ctx, tokens.Hash(token), time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidOrExpiredToken
		}
		return nil, err
	}

	u.IsVerified = true
	u.ClearVerificationToken()
	if err := s.Repo.Update(ctx, u); err != nil {
		s.clearTokens(ctx, u.ID, tokens.PurposeVerification)
		return nil, err
	}
	return u, nil
}

// Login authenticates an email/password pair and mints a session
// credential. All lookup and password failures collapse into one generic
// error.
func (s *Service) Login(ctx context.Context, email, password string) (*entity.User, string, time.Time, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if !u.CheckPassword(password) {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if !u.IsVerified {
		return nil, "", time.Time{}, ErrNotVerified
	}

	token, exp, err := s.JWT.Generate(u.ID)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate session token failed")
		return nil, "", time.Time{}, err
	}
	return u, token, exp, nil
}

func (s *Service) GetProfile(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// ForgotPassword issues a reset token and delivers its link. Unknown
// addresses are treated as success so the endpoint cannot enumerate
// accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.Logger.WithField("email", entity.NormalizeEmail(email)).Debug("password reset requested for unknown email")
			return nil
		}
		return err
	}

	issued, err := tokens.Issue(tokens.PurposeReset)
	if err != nil {
		return err
	}
	u.SetResetToken(issued.Hash, issued.ExpiresAt)
	if err := s.Repo.Update(ctx, u); err != nil {
		return err
	}

	subject, html, err := templates.ResetPassword(u.Name, s.link(s.ResetPasswordURL, issued.Plaintext), tokens.ResetTTL)
	if err != nil {
		return err
	}
	if err := s.Delivery.Send(ctx, u.Email, subject, html); err != nil {
		return s.invalidateToken(ctx, u, tokens.PurposeReset, err)
	}
	return nil
}

// ResetPassword consumes a reset token and installs the new password.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return errors.Join(repository.ErrValidation, fmt.Errorf("password must be at least 8 characters"))
	}

	u, err := s.Repo.GetByResetToken(ctx, tokens.Hash(token), time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return err
	}

	u.SetPassword(newPassword)
	u.ClearResetToken()
	if err := s.Repo.Update(ctx, u); err != nil {
		s.clearTokens(ctx, u.ID, tokens.PurposeReset)
		return err
	}
	return nil
}

// ResendVerification re-issues a verification token for an unverified
// account. Like ForgotPassword it is success-shaped for unknown or already
// verified addresses.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if u.IsVerified {
		return nil
	}

	issued, err := tokens.Issue(tokens.PurposeVerification)
	if err != nil {
		return err
	}
	u.SetVerificationToken(issued.Hash, issued.ExpiresAt)
	if err := s.Repo.Update(ctx, u); err != nil {
		return err
	}

	if err := s.sendVerification(ctx, u, issued.Plaintext); err != nil {
		return s.invalidateToken(ctx, u, tokens.PurposeVerification, err)
	}
	return nil
}

type UpdateProfileInput struct {
	Name  string
	Email string
}

// UpdateProfile changes the display name and, when the email changes, drops
// the account back to unverified and starts a fresh verification cycle
// against the new address. The session credential is untouched.
func (s *Service) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if in.Name != "" {
		u.Name = strings.TrimSpace(in.Name)
	}

	emailChanged := false
	var plaintext string
	if in.Email != "" && entity.NormalizeEmail(in.Email) != u.Email {
		emailChanged = true
		u.Email = entity.NormalizeEmail(in.Email)
		u.IsVerified = false

		issued, err := tokens.Issue(tokens.PurposeVerification)
		if err != nil {
			return nil, err
		}
		u.SetVerificationToken(issued.Hash, issued.ExpiresAt)
		plaintext = issued.Plaintext
	}

	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, err
	}

	if emailChanged {
		if err := s.sendVerification(ctx, u, plaintext); err != nil {
			return u, s.invalidateToken(ctx, u, tokens.PurposeVerification, err)
		}
	}
	return u, nil
}

// ChangePassword rotates the password of an authenticated account after
// re-checking the current one.
func (s *Service) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !u.CheckPassword(currentPassword) {
		return ErrInvalidCredentials
	}
	if len(newPassword) < 8 {
		return errors.Join(repository.ErrValidation, fmt.Errorf("password must be at least 8 characters"))
	}

	u.SetPassword(newPassword)
	return s.Repo.Update(ctx, u)
}

func (s *Service) sendVerification(ctx context.Context, u *entity.User, plaintext string) error {
	subject, html, err := templates.VerifyEmail(u.Name, s.link(s.VerifyEmailURL, plaintext), tokens.VerificationTTL)
	if err != nil {
		return err
	}
	return s.Delivery.Send(ctx, u.Email, subject, html)
}

func (s *Service) link(base, token string) string {
	return strings.TrimRight(base, "/") + "/" + token
}

// invalidateToken clears the token slot after a failed delivery so no
// valid-but-undelivered secret lingers, then reports the delivery failure.
func (s *Service) invalidateToken(ctx context.Context, u *entity.User, purpose tokens.Purpose, cause error) error {
	s.Logger.WithError(cause).WithFields(logrus.Fields{
		"user_id": u.ID,
		"purpose": string(purpose),
	}).Warn("delivery failed; invalidating token")

	switch purpose {
	case tokens.PurposeReset:
		u.ClearResetToken()
	default:
		u.ClearVerificationToken()
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("clearing undelivered token failed")
	}
	return ErrDeliveryFailed
}

// clearTokens is the best-effort cleanup when consumption matched a token
// but persisting the side effect failed. Leaving the hash in place would
// open a silent reuse window.
func (s *Service) clearTokens(ctx context.Context, id string, purpose tokens.Purpose) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return
	}
	switch purpose {
	case tokens.PurposeReset:
		u.ClearResetToken()
	default:
		u.ClearVerificationToken()
	}
	if err := s.Repo.Update(ctx, u); err != nil {
		s.Logger.WithError(err).WithField("user_id", id).Error("clearing consumed token failed")
	}
}
