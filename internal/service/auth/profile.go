package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/MarvinPescos/balancehub/internal/apperr"
	"github.com/MarvinPescos/balancehub/internal/domain"
	"github.com/MarvinPescos/balancehub/internal/repository"
	"github.com/MarvinPescos/balancehub/pkg/crypto"
)

// UpdateUser replaces username and full name.
func (s Service) UpdateUser(ctx context.Context, user *domain.User, username string, fullName *string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username != user.Username {
		taken, err := s.usernameTaken(ctx, username, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrUsernameExists
		}
	}
	updated := *user
	updated.Username = username
	updated.FullName = trimOptional(fullName)
	if err := s.users.UpdateUser(ctx, &updated); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUsernameExists
		}
		return nil, apperr.Internal("Failed to update user", err)
	}
	return &updated, nil
}

// ProfileInput carries optional profile changes. Nil fields are left alone.
type ProfileInput struct {
	Username        *string
	Email           *string
	FullName        *string
	CurrentPassword *string
	NewPassword     *string
}

// UpdateProfile applies a partial profile change. Changing the email or the
// password requires the current password; a new email must be re-verified.
func (s Service) UpdateProfile(ctx context.Context, user *domain.User, in ProfileInput) (*domain.User, error) {
	updated := *user

	newEmail := ""
	if in.Email != nil {
		if candidate := normalizeEmail(*in.Email); candidate != "" && candidate != user.Email {
			newEmail = candidate
		}
	}
	newPassword := ""
	if in.NewPassword != nil {
		newPassword = *in.NewPassword
	}

	if newEmail != "" || newPassword != "" {
		if in.CurrentPassword == nil || *in.CurrentPassword == "" {
			return nil, ErrCurrentPasswordRequired
		}
		if err := crypto.ComparePassword(user.PasswordHash, *in.CurrentPassword); err != nil {
			return nil, ErrCurrentPasswordIncorrect
		}
	}

	if in.Username != nil {
		if username := strings.TrimSpace(*in.Username); username != "" && username != user.Username {
			taken, err := s.usernameTaken(ctx, username, user.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrUsernameTaken
			}
			updated.Username = username
		}
	}
	if newEmail != "" {
		taken, err := s.emailTaken(ctx, newEmail, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailTaken
		}
		updated.Email = newEmail
		updated.IsEmailVerified = false
	}
	if in.FullName != nil {
		updated.FullName = trimOptional(in.FullName)
	}
	if newPassword != "" {
		hash, err := crypto.HashPassword(newPassword)
		if err != nil {
			return nil, apperr.Internal("Failed to update profile", err)
		}
		updated.PasswordHash = hash
	}

	if err := s.users.UpdateUser(ctx, &updated); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperr.Conflict("Username or email already taken")
		}
		return nil, apperr.Internal("Failed to update profile", err)
	}

	if newEmail != "" {
		v, err := s.verifications.Create(ctx, updated.ID, newEmail, domain.VerificationTypeEmailChange)
		if err != nil {
			s.logger.Error("email change verification failed", "user_id", updated.ID, "error", err)
		} else {
			s.sendVerification(ctx, &updated, newEmail, v.Code)
		}
	}
	s.logger.Info("profile updated", "user_id", updated.ID, "email_changed", newEmail != "", "password_changed", newPassword != "")
	return &updated, nil
}
