package auth

import (
	"context"
	"errors"

	"github.com/MarvinPescos/balancehub/internal/apperr"
	"github.com/MarvinPescos/balancehub/internal/domain"
	"github.com/MarvinPescos/balancehub/internal/metrics"
	"github.com/MarvinPescos/balancehub/internal/repository"
	"github.com/MarvinPescos/balancehub/pkg/crypto"
)

// ForgetPassword emails a reset link when the address belongs to a user.
// Unknown addresses succeed silently so callers cannot probe accounts.
func (s Service) ForgetPassword(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}
	v, err := s.verifications.Create(ctx, user.ID, user.Email, domain.VerificationTypePasswordReset)
	if err != nil {
		return apperr.Internal("Failed to process password reset", err)
	}
	if err := s.notifier.SendPasswordReset(ctx, user.Email, user.DisplayName(), v.ResetToken); err != nil {
		s.logger.Error("password reset email failed", "user_id", user.ID, "error", err)
	}
	metrics.PasswordReset("issued")
	s.logger.Info("password reset issued", "user_id", user.ID)
	return nil
}

// ResetPassword consumes a reset token and stores the new password.
func (s Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	v, err := s.verifications.ResetTarget(ctx, token)
	if err != nil {
		if _, ok := apperr.As(err); ok {
			metrics.PasswordReset("invalid")
		}
		return err
	}
	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal("Failed to reset password", err)
	}
	if err := s.verifications.CompletePasswordReset(ctx, v, hash); err != nil {
		if _, ok := apperr.As(err); ok {
			metrics.PasswordReset("invalid")
		}
		return err
	}
	metrics.PasswordReset("success")
	s.logger.Info("password reset completed", "user_id", v.UserID)
	return nil
}
