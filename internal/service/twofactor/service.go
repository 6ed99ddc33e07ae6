// Package twofactor manages TOTP enrolment for user accounts.
package twofactor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/MarvinPescos/balancehub/internal/apperr"
	"github.com/MarvinPescos/balancehub/internal/domain"
	"github.com/MarvinPescos/balancehub/internal/repository"
	"github.com/MarvinPescos/balancehub/internal/service/qr"
	"github.com/MarvinPescos/balancehub/pkg/crypto"
)

const period = 30

var (
	ErrAlreadyEnabled  = apperr.Validation("2FA is already enabled")
	ErrNotEnabled      = apperr.Validation("2FA is not enabled")
	ErrSetupRequired   = apperr.Validation("2FA setup not initiated. Call /setup first.")
	ErrInvalidCode     = apperr.Validation("Invalid verification code")
	ErrInvalidPassword = apperr.New(apperr.KindAuthentication, "Invalid password")
)

var validateOpts = totp.ValidateOpts{
	Period:    period,
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// Service enrols, verifies and removes TOTP secrets.
type Service struct {
	users  repository.UserRepository
	box    *crypto.SecretBox
	issuer string
	logger *slog.Logger
	now    func() time.Time
}

// New constructs a Service. Secrets are sealed with box before storage.
func New(users repository.UserRepository, box *crypto.SecretBox, issuer string, logger *slog.Logger) Service {
	return Service{users: users, box: box, issuer: issuer, logger: logger, now: time.Now}
}

// Setup holds what the client needs to add the account to an authenticator.
type Setup struct {
	Secret         string `json:"secret"`
	QRCode         string `json:"qr_code"`
	ManualEntryKey string `json:"manual_entry_key"`
}

// Begin generates and stores a new secret for user. 2FA stays disabled until
// Enable confirms a code.
func (s Service) Begin(ctx context.Context, user *domain.User) (Setup, error) {
	if user.TwoFactorEnabled {
		return Setup{}, ErrAlreadyEnabled
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: user.Email,
		Period:      period,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return Setup{}, apperr.Internal("Failed to generate 2FA secret", err)
	}
	sealed, err := s.box.Seal(key.Secret())
	if err != nil {
		return Setup{}, apperr.Internal("Failed to store 2FA secret", err)
	}
	image, err := qr.DataURL(key.URL())
	if err != nil {
		return Setup{}, apperr.Internal("Failed to render 2FA QR code", err)
	}

	updated := *user
	updated.TwoFactorSecret = sealed
	if err := s.users.UpdateUser(ctx, &updated); err != nil {
		return Setup{}, apperr.Internal("Failed to store 2FA secret", err)
	}
	*user = updated
	s.logger.Info("2fa setup started", "user_id", user.ID)
	return Setup{Secret: key.Secret(), QRCode: image, ManualEntryKey: key.Secret()}, nil
}

// Enable turns 2FA on after the user proves possession of the secret.
func (s Service) Enable(ctx context.Context, user *domain.User, code string) error {
	if user.TwoFactorEnabled {
		return ErrAlreadyEnabled
	}
	if len(user.TwoFactorSecret) == 0 {
		return ErrSetupRequired
	}
	ok, err := s.validate(user, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCode
	}
	updated := *user
	updated.TwoFactorEnabled = true
	if err := s.users.UpdateUser(ctx, &updated); err != nil {
		return apperr.Internal("Failed to enable 2FA", err)
	}
	*user = updated
	s.logger.Info("2fa enabled", "user_id", user.ID)
	return nil
}

// Disable turns 2FA off and discards the secret. It needs both the account
// password and a current code.
func (s Service) Disable(ctx context.Context, user *domain.User, password, code string) error {
	if !user.TwoFactorEnabled {
		return ErrNotEnabled
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return ErrInvalidPassword
	}
	ok, err := s.validate(user, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCode
	}
	updated := *user
	updated.TwoFactorEnabled = false
	updated.TwoFactorSecret = nil
	if err := s.users.UpdateUser(ctx, &updated); err != nil {
		return apperr.Internal("Failed to disable 2FA", err)
	}
	*user = updated
	s.logger.Info("2fa disabled", "user_id", user.ID)
	return nil
}

// Check validates code against the user's stored secret.
func (s Service) Check(user *domain.User, code string) (bool, error) {
	return s.validate(user, code)
}

func (s Service) validate(user *domain.User, code string) (bool, error) {
	if len(user.TwoFactorSecret) == 0 {
		return false, nil
	}
	secret, err := s.box.Open(user.TwoFactorSecret)
	if err != nil {
		return false, apperr.Internal("Failed to read 2FA secret", fmt.Errorf("open secret: %w", err))
	}
	ok, err := totp.ValidateCustom(strings.TrimSpace(code), secret, s.now().UTC(), validateOpts)
	if err != nil {
		// malformed codes are simply wrong
		return false, nil
	}
	return ok, nil
}
