package auth

import (
	"context"
	"io"
	"log/slog"

	"github.com/MarvinPescos/balancehub/internal/domain"
	"github.com/MarvinPescos/balancehub/internal/repository"
	"github.com/MarvinPescos/balancehub/pkg/config"
)

const testSecret = "test-secret-key-with-at-least-32-chars"

type userRepoMock struct {
	createFunc        func(context.Context, *domain.User) error
	getByIDFunc       func(context.Context, int64) (*domain.User, error)
	getByEmailFunc    func(context.Context, string) (*domain.User, error)
	getByUsernameFunc func(context.Context, string) (*domain.User, error)
	updateFunc        func(context.Context, *domain.User) error
}

func (m userRepoMock) CreateUser(ctx context.Context, user *domain.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	user.ID = 1
	return nil
}

func (m userRepoMock) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m userRepoMock) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, repository.ErrNotFound
}

func (m userRepoMock) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getByUsernameFunc != nil {
		return m.getByUsernameFunc(ctx, username)
	}
	return nil, repository.ErrNotFound
}

func (m userRepoMock) UpdateUser(ctx context.Context, user *domain.User) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, user)
	}
	return nil
}

type verificationsMock struct {
	createFunc        func(context.Context, int64, string, string) (*domain.EmailVerification, error)
	verifyFunc        func(context.Context, int64, string) error
	resetTargetFunc   func(context.Context, string) (*domain.EmailVerification, error)
	completeResetFunc func(context.Context, *domain.EmailVerification, []byte) error
}

func (m verificationsMock) Create(ctx context.Context, userID int64, email, vt string) (*domain.EmailVerification, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, userID, email, vt)
	}
	return &domain.EmailVerification{ID: 1, UserID: userID, Email: email, Type: vt, Code: "123456", ResetToken: "reset-token"}, nil
}

func (m verificationsMock) VerifyCode(ctx context.Context, userID int64, code string) error {
	if m.verifyFunc != nil {
		return m.verifyFunc(ctx, userID, code)
	}
	return nil
}

func (m verificationsMock) ResetTarget(ctx context.Context, token string) (*domain.EmailVerification, error) {
	if m.resetTargetFunc != nil {
		return m.resetTargetFunc(ctx, token)
	}
	return nil, repository.ErrNotFound
}

func (m verificationsMock) CompletePasswordReset(ctx context.Context, v *domain.EmailVerification, hash []byte) error {
	if m.completeResetFunc != nil {
		return m.completeResetFunc(ctx, v, hash)
	}
	return nil
}

type sentMail struct {
	to, name, value string
}

type notifierMock struct {
	verifications *[]sentMail
	resets        *[]sentMail
	err           error
}

func (m notifierMock) SendVerification(_ context.Context, to, userName, code string) error {
	if m.verifications != nil {
		*m.verifications = append(*m.verifications, sentMail{to, userName, code})
	}
	return m.err
}

func (m notifierMock) SendPasswordReset(_ context.Context, to, userName, token string) error {
	if m.resets != nil {
		*m.resets = append(*m.resets, sentMail{to, userName, token})
	}
	return m.err
}

type totpMock struct {
	valid string
}

func (m totpMock) Check(_ *domain.User, code string) (bool, error) {
	return code == m.valid, nil
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.APIConfig {
	return config.APIConfig{
		AppName:                        "BalanceHub",
		SecretKey:                      testSecret,
		Algorithm:                      "HS256",
		AccessTokenExpireMinutes:       30,
		EmailVerificationExpiryMinutes: 15,
		FrontendURL:                    "http://localhost:5173",
	}
}

func newService(users userRepoMock, verifications verificationsMock, notifier notifierMock) Service {
	return New(users, verifications, totpMock{valid: "123456"}, notifier, newLogger(), testConfig())
}

func ptr[T any](v T) *T { return &v }
