// Package oauth signs users in through Google and Facebook.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/MarvinPescos/balancehub/internal/apperr"
	"github.com/MarvinPescos/balancehub/internal/domain"
	"github.com/MarvinPescos/balancehub/internal/repository"
	"github.com/MarvinPescos/balancehub/pkg/crypto"
	"github.com/MarvinPescos/balancehub/pkg/upstream"
)

const (
	defaultTokenLifetime = time.Hour
	stateBytes           = 32
	maxUsernameAttempts  = 100
)

var (
	ErrUnknownProvider = apperr.NotFound("Unsupported OAuth provider")
	ErrInvalidState    = apperr.Validation("Invalid or expired Oauth state")
	ErrExchangeFailed  = apperr.Validation("Failed to exchange authorization code")
	ErrProfileFailed   = apperr.Validation("Failed to get user information")
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	IssueToken(userID int64) (string, error)
}

// Service runs the authorization code flow and links provider identities
// to local users.
type Service struct {
	providers map[string]*Provider
	states    StateStore
	users     repository.UserRepository
	accounts  repository.OAuthAccountRepository
	box       *crypto.SecretBox
	tokens    TokenIssuer
	logger    *slog.Logger
	now       func() time.Time
}

// New constructs a Service.
func New(states StateStore, users repository.UserRepository, accounts repository.OAuthAccountRepository, box *crypto.SecretBox, tokens TokenIssuer, logger *slog.Logger, providers ...*Provider) Service {
	byName := make(map[string]*Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return Service{
		providers: byName,
		states:    states,
		users:     users,
		accounts:  accounts,
		box:       box,
		tokens:    tokens,
		logger:    logger,
		now:       time.Now,
	}
}

// LoginURL stores a fresh state and returns the provider consent URL.
func (s Service) LoginURL(ctx context.Context, providerName string) (string, error) {
	p, err := s.provider(providerName)
	if err != nil {
		return "", err
	}
	state, err := crypto.RandomURLToken(stateBytes)
	if err != nil {
		return "", apperr.Internal("Failed to start login", err)
	}
	if err := s.states.Save(ctx, state, p.Name(), StateTTL); err != nil {
		return "", apperr.Internal("Failed to start login", err)
	}
	return p.AuthURL(state), nil
}

// Callback validates state, exchanges the code and returns the signed-in
// user with a fresh access token.
func (s Service) Callback(ctx context.Context, providerName, code, state string) (*domain.User, string, error) {
	p, err := s.provider(providerName)
	if err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(state) == "" {
		return nil, "", ErrInvalidState
	}
	issuedFor, ok, err := s.states.Consume(ctx, state)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindUnavailable, "OAuth state store unavailable", err)
	}
	if !ok || issuedFor != p.Name() {
		return nil, "", ErrInvalidState
	}

	token, err := p.Exchange(ctx, code)
	if err != nil {
		if errors.Is(err, errExchangeRejected) {
			return nil, "", apperr.Wrap(apperr.KindValidation, ErrExchangeFailed.Message, err)
		}
		return nil, "", s.unavailable(p, err)
	}
	profile, err := p.FetchProfile(ctx, token)
	if err != nil {
		if errors.Is(err, errProfileRejected) {
			return nil, "", apperr.Wrap(apperr.KindValidation, ErrProfileFailed.Message, err)
		}
		return nil, "", s.unavailable(p, err)
	}

	user, err := s.AuthenticateOrCreate(ctx, p.Name(), profile, token)
	if err != nil {
		return nil, "", err
	}
	jwt, err := s.tokens.IssueToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, jwt, nil
}

// AuthenticateOrCreate resolves the local user for a provider identity,
// refreshing a known link, linking by email, or creating a new account.
func (s Service) AuthenticateOrCreate(ctx context.Context, providerName string, profile Profile, token *oauth2.Token) (*domain.User, error) {
	account, err := s.accounts.GetOAuthAccount(ctx, providerName, profile.ID)
	switch {
	case err == nil:
		return s.refreshAccount(ctx, account, profile, token)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperr.Internal("OAuth login failed", err)
	}

	account, err = s.newAccount(providerName, profile, token)
	if err != nil {
		return nil, err
	}

	if email := strings.ToLower(strings.TrimSpace(profile.Email)); email != "" {
		user, err := s.users.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			return s.linkAccount(ctx, user, account)
		case !errors.Is(err, repository.ErrNotFound):
			return nil, apperr.Internal("OAuth login failed", err)
		}
	}
	return s.createUser(ctx, providerName, profile, account)
}

func (s Service) refreshAccount(ctx context.Context, account *domain.OAuthAccount, profile Profile, token *oauth2.Token) (*domain.User, error) {
	if err := s.sealTokens(account, token); err != nil {
		return nil, err
	}
	account.ProviderEmail = optional(profile.Email)
	account.ProviderName = optional(profile.Name)
	account.ProfilePictureURL = optional(profile.PictureURL)
	if err := s.accounts.UpdateOAuthAccount(ctx, account); err != nil {
		return nil, apperr.Internal("OAuth login failed", err)
	}
	user, err := s.users.GetUserByID(ctx, account.UserID)
	if err != nil {
		return nil, apperr.Internal("OAuth login failed", err)
	}
	s.logger.Info("oauth user logged in", "provider", account.Provider, "user_id", user.ID)
	return user, nil
}

func (s Service) linkAccount(ctx context.Context, user *domain.User, account *domain.OAuthAccount) (*domain.User, error) {
	account.UserID = user.ID
	if err := s.accounts.CreateOAuthAccount(ctx, account); err != nil {
		return nil, apperr.Internal("OAuth login failed", err)
	}
	if !user.IsActive || !user.IsEmailVerified {
		// the provider vouched for this address
		user.IsActive = true
		user.IsEmailVerified = true
		if err := s.users.UpdateUser(ctx, user); err != nil {
			return nil, apperr.Internal("OAuth login failed", err)
		}
	}
	s.logger.Info("oauth account linked", "provider", account.Provider, "user_id", user.ID)
	return user, nil
}

func (s Service) createUser(ctx context.Context, providerName string, profile Profile, account *domain.OAuthAccount) (*domain.User, error) {
	prefix := providerName
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	username, err := s.uniqueUsername(ctx, prefix+"_"+profile.ID)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(profile.Email))
	verified := email != ""
	if !verified {
		email = prefix + "_" + profile.ID + "@oauth.local"
	}
	fullName := strings.TrimSpace(profile.Name)
	if fullName == "" {
		fullName = cases.Title(language.English).String(providerName) + " User"
	}

	random, err := crypto.RandomURLToken(32)
	if err != nil {
		return nil, apperr.Internal("OAuth login failed", err)
	}
	hash, err := crypto.HashPassword(random)
	if err != nil {
		return nil, apperr.Internal("OAuth login failed", err)
	}

	user := &domain.User{
		Username:        username,
		Email:           email,
		PasswordHash:    hash,
		FullName:        &fullName,
		IsActive:        true,
		IsEmailVerified: verified,
		Role:            domain.RoleUser,
	}
	if err := s.accounts.CreateUserWithOAuthAccount(ctx, user, account); err != nil {
		return nil, apperr.Internal("OAuth login failed", err)
	}
	s.logger.Info("oauth user created", "provider", providerName, "user_id", user.ID)
	return user, nil
}

func (s Service) uniqueUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 1; i <= maxUsernameAttempts; i++ {
		_, err := s.users.GetUserByUsername(ctx, candidate)
		if errors.Is(err, repository.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", apperr.Internal("OAuth login failed", err)
		}
		candidate = candidate + "_" + strconv.Itoa(i)
	}
	return "", apperr.Internal("OAuth login failed", fmt.Errorf("no free username for %q", base))
}

func (s Service) newAccount(providerName string, profile Profile, token *oauth2.Token) (*domain.OAuthAccount, error) {
	account := &domain.OAuthAccount{
		Provider:          providerName,
		ProviderUserID:    profile.ID,
		ProviderEmail:     optional(profile.Email),
		ProviderName:      optional(profile.Name),
		ProfilePictureURL: optional(profile.PictureURL),
	}
	if err := s.sealTokens(account, token); err != nil {
		return nil, err
	}
	return account, nil
}

func (s Service) sealTokens(account *domain.OAuthAccount, token *oauth2.Token) error {
	if token == nil {
		return nil
	}
	access, err := s.box.SealOptional(token.AccessToken)
	if err != nil {
		return apperr.Internal("OAuth login failed", err)
	}
	refresh, err := s.box.SealOptional(token.RefreshToken)
	if err != nil {
		return apperr.Internal("OAuth login failed", err)
	}
	expiry := token.Expiry
	if expiry.IsZero() {
		expiry = s.now().Add(defaultTokenLifetime)
	}
	expiry = expiry.UTC()
	account.AccessToken = access
	account.RefreshToken = refresh
	account.TokenExpiresAt = &expiry
	return nil
}

func (s Service) provider(name string) (*Provider, error) {
	p, ok := s.providers[strings.ToLower(name)]
	if !ok {
		return nil, ErrUnknownProvider
	}
	if !p.Configured() {
		return nil, apperr.New(apperr.KindUnavailable, displayName(p.Name())+" login is not configured")
	}
	return p, nil
}

func (s Service) unavailable(p *Provider, err error) error {
	s.logger.Error("oauth provider unavailable", "provider", p.Name(), "error", err)
	if errors.Is(err, upstream.ErrTransport) || errors.Is(err, upstream.ErrDecode) {
		return apperr.Wrap(apperr.KindUnavailable, displayName(p.Name())+" service temporarily unavailable", err)
	}
	return apperr.Internal("OAuth login failed", err)
}

func displayName(provider string) string {
	return cases.Title(language.English).String(provider)
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
