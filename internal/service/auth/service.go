package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/MarvinPescos/balancehub/internal/apperr"
	"github.com/MarvinPescos/balancehub/internal/domain"
	"github.com/MarvinPescos/balancehub/internal/metrics"
	"github.com/MarvinPescos/balancehub/internal/repository"
	"github.com/MarvinPescos/balancehub/pkg/config"
	"github.com/MarvinPescos/balancehub/pkg/crypto"
	jwtpkg "github.com/MarvinPescos/balancehub/pkg/jwt"
)

var (
	ErrEmailExists              = apperr.Conflict("Email already exists")
	ErrUsernameExists           = apperr.Conflict("Username already exists")
	ErrUserIDNotFound           = apperr.NotFound("User id not found")
	ErrInvalidCredentials       = apperr.New(apperr.KindAuthentication, "Invalid email or password")
	ErrAccountNotVerified       = apperr.New(apperr.KindAuthentication, "Account is not verified. Please check you email")
	ErrTwoFactorRequired        = apperr.New(apperr.KindAuthorization, "2FA_REQUIRED")
	ErrInvalidTwoFactorCode     = apperr.New(apperr.KindAuthentication, "Invalid 2FA code")
	ErrCouldNotValidate         = apperr.New(apperr.KindAuthentication, "Could not validate credentials")
	ErrCurrentPasswordRequired  = apperr.Validation("Current password is required to change email or password")
	ErrCurrentPasswordIncorrect = apperr.New(apperr.KindAuthentication, "Current password is incorrect")
	ErrUsernameTaken            = apperr.Validation("Username already taken")
	ErrEmailTaken               = apperr.Validation("Email already taken")
)

// Verifications issues and redeems emailed codes.
type Verifications interface {
	Create(ctx context.Context, userID int64, email, verificationType string) (*domain.EmailVerification, error)
	VerifyCode(ctx context.Context, userID int64, code string) error
	ResetTarget(ctx context.Context, token string) (*domain.EmailVerification, error)
	CompletePasswordReset(ctx context.Context, v *domain.EmailVerification, passwordHash []byte) error
}

// Notifier sends account emails.
type Notifier interface {
	SendVerification(ctx context.Context, to, userName, code string) error
	SendPasswordReset(ctx context.Context, to, userName, token string) error
}

// TOTPChecker validates a second factor for a user with 2FA enabled.
type TOTPChecker interface {
	Check(user *domain.User, code string) (bool, error)
}

// Service handles authentication workflows.
type Service struct {
	users         repository.UserRepository
	verifications Verifications
	totp          TOTPChecker
	notifier      Notifier
	logger        *slog.Logger
	cfg           config.APIConfig
}

// New constructs a Service.
func New(users repository.UserRepository, verifications Verifications, totp TOTPChecker, notifier Notifier, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{users: users, verifications: verifications, totp: totp, notifier: notifier, logger: logger, cfg: cfg}
}

// RegisterInput carries a validated registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName *string
}

// Register creates an inactive user and emails a verification code.
func (s Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)

	if taken, err := s.emailTaken(ctx, email, 0); err != nil {
		return nil, err
	} else if taken {
		metrics.Registration("duplicate")
		return nil, ErrEmailExists
	}
	if taken, err := s.usernameTaken(ctx, username, 0); err != nil {
		return nil, err
	} else if taken {
		metrics.Registration("duplicate")
		return nil, ErrUsernameExists
	}

	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("Registration failed", err)
	}
	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FullName:     trimOptional(in.FullName),
		Role:         domain.RoleUser,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			metrics.Registration("duplicate")
			return nil, ErrEmailExists
		}
		return nil, apperr.Internal("Registration failed", err)
	}

	v, err := s.verifications.Create(ctx, user.ID, user.Email, domain.VerificationTypeRegistration)
	if err != nil {
		return nil, apperr.Internal("Registration failed", err)
	}
	s.sendVerification(ctx, user, user.Email, v.Code)

	metrics.Registration("success")
	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// VerifyEmail redeems a registration code.
func (s Service) VerifyEmail(ctx context.Context, userID int64, code string) error {
	return s.verifications.VerifyCode(ctx, userID, code)
}

// ResendVerification issues a new code unless the user is already verified.
// It reports whether the email was already verified.
func (s Service) ResendVerification(ctx context.Context, userID int64) (bool, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrUserIDNotFound
		}
		return false, err
	}
	if user.IsEmailVerified {
		return true, nil
	}
	v, err := s.verifications.Create(ctx, user.ID, user.Email, domain.VerificationTypeRegistration)
	if err != nil {
		return false, apperr.Internal("Failed to resend verification code", err)
	}
	s.sendVerification(ctx, user, user.Email, v.Code)
	return false, nil
}

// Login authenticates with a password and, when enabled, a TOTP code.
func (s Service) Login(ctx context.Context, email, password, totpCode string) (*domain.User, string, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", ErrAccountNotVerified
	}
	if user.TwoFactorEnabled {
		code := strings.TrimSpace(totpCode)
		if code == "" {
			return nil, "", ErrTwoFactorRequired
		}
		ok, err := s.totp.Check(user, code)
		if err != nil {
			return nil, "", apperr.Internal("Login failed", err)
		}
		if !ok {
			s.logger.Warn("invalid 2fa code", "user_id", user.ID)
			return nil, "", ErrInvalidTwoFactorCode
		}
	}
	token, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return user, token, nil
}

// Authorize validates an access token and returns its active user.
func (s Service) Authorize(ctx context.Context, token string) (*domain.User, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, ErrCouldNotValidate
	}
	claims, err := jwtpkg.Parse(trimmed, s.cfg.SecretKey)
	if err != nil {
		return nil, ErrCouldNotValidate
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrCouldNotValidate
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCouldNotValidate
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrCouldNotValidate
	}
	return user, nil
}

// IssueToken signs an access token for userID.
func (s Service) IssueToken(userID int64) (string, error) {
	token, err := jwtpkg.GenerateToken(userID, s.cfg.SecretKey, s.cfg.AccessTokenTTL())
	if err != nil {
		return "", apperr.Internal("Could not issue token", err)
	}
	return token, nil
}

// TokenTTL is the lifetime of tokens returned by IssueToken.
func (s Service) TokenTTL() time.Duration {
	return s.cfg.AccessTokenTTL()
}

func (s Service) sendVerification(ctx context.Context, user *domain.User, to, code string) {
	if err := s.notifier.SendVerification(ctx, to, user.DisplayName(), code); err != nil {
		s.logger.Error("verification email failed", "user_id", user.ID, "error", err)
	}
}

func (s Service) emailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	existing, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("lookup email: %w", err)
	}
	return existing.ID != exceptID, nil
}

func (s Service) usernameTaken(ctx context.Context, username string, exceptID int64) (bool, error) {
	existing, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("lookup username: %w", err)
	}
	return existing.ID != exceptID, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
