// Package verification issues and redeems emailed codes and reset links.
package verification

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MarvinPescos/balancehub/internal/apperr"
	"github.com/MarvinPescos/balancehub/internal/domain"
	"github.com/MarvinPescos/balancehub/internal/metrics"
	"github.com/MarvinPescos/balancehub/internal/repository"
	"github.com/MarvinPescos/balancehub/pkg/crypto"
)

const (
	codeLength      = 6
	resetTokenBytes = 32
	defaultExpiry   = 15 * time.Minute
)

// emailCodeTypes are the verifications redeemed by a 6-digit code.
var emailCodeTypes = []string{domain.VerificationTypeRegistration, domain.VerificationTypeEmailChange}

var (
	// ErrNoActiveVerification is returned when no pending, unexpired code exists.
	ErrNoActiveVerification = apperr.Validation("No active verification found or expired code")
	// ErrInvalidCode is returned when the submitted code does not match.
	ErrInvalidCode = apperr.Validation("Invalid verification code")
	// ErrInvalidResetToken is returned for unknown, used or expired reset links.
	ErrInvalidResetToken = apperr.Validation("Invalid or expired reset token")
)

// Service manages email verifications.
type Service struct {
	repo   repository.VerificationRepository
	logger *slog.Logger
	expiry time.Duration
	now    func() time.Time
}

// New constructs a Service. A non-positive expiry falls back to 15 minutes.
func New(repo repository.VerificationRepository, logger *slog.Logger, expiry time.Duration) Service {
	if expiry <= 0 {
		expiry = defaultExpiry
	}
	return Service{repo: repo, logger: logger, expiry: expiry, now: time.Now}
}

// Expiry is how long new verifications stay redeemable.
func (s Service) Expiry() time.Duration {
	return s.expiry
}

// Create supersedes the user's pending verifications of the same type and
// stores a fresh code and reset token addressed to email.
func (s Service) Create(ctx context.Context, userID int64, email, verificationType string) (*domain.EmailVerification, error) {
	code, err := crypto.RandomDigits(codeLength)
	if err != nil {
		return nil, err
	}
	token, err := crypto.RandomURLToken(resetTokenBytes)
	if err != nil {
		return nil, err
	}
	v := &domain.EmailVerification{
		UserID:     userID,
		Email:      email,
		Code:       code,
		ResetToken: token,
		Type:       verificationType,
		Status:     domain.VerificationStatusPending,
		ExpiresAt:  s.now().UTC().Add(s.expiry),
	}
	if err := s.repo.CreateVerification(ctx, v); err != nil {
		return nil, fmt.Errorf("create verification: %w", err)
	}
	s.logger.Info("verification created", "user_id", userID, "type", verificationType, "verification_id", v.ID)
	return v, nil
}

// VerifyCode redeems the newest registration or email-change code and marks
// the user's address verified.
func (s Service) VerifyCode(ctx context.Context, userID int64, code string) error {
	now := s.now().UTC()
	v, err := s.repo.LatestPendingVerification(ctx, userID, emailCodeTypes, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.Verification("expired")
			return ErrNoActiveVerification
		}
		return err
	}
	if !codesEqual(v.Code, code) {
		metrics.Verification("invalid")
		s.logger.Warn("verification code mismatch", "user_id", userID)
		return ErrInvalidCode
	}
	if err := s.repo.CompleteEmailVerification(ctx, v.ID, userID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.Verification("expired")
			return ErrNoActiveVerification
		}
		return fmt.Errorf("complete verification: %w", err)
	}
	metrics.Verification("success")
	s.logger.Info("email verified", "user_id", userID)
	return nil
}

// ResetTarget resolves a reset token to its pending password_reset verification.
func (s Service) ResetTarget(ctx context.Context, token string) (*domain.EmailVerification, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidResetToken
	}
	v, err := s.repo.GetVerificationByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidResetToken
		}
		return nil, err
	}
	if v.Type != domain.VerificationTypePasswordReset || !v.Usable(s.now()) {
		return nil, ErrInvalidResetToken
	}
	return v, nil
}

// CompletePasswordReset stores passwordHash and consumes v.
func (s Service) CompletePasswordReset(ctx context.Context, v *domain.EmailVerification, passwordHash []byte) error {
	if err := s.repo.CompletePasswordReset(ctx, v.ID, v.UserID, passwordHash, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("complete password reset: %w", err)
	}
	return nil
}

// CleanupExpired marks overdue pending verifications expired.
func (s Service) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpirePendingVerifications(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("expire verifications: %w", err)
	}
	return n, nil
}

func codesEqual(stored, submitted string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(strings.TrimSpace(submitted))) == 1
}
