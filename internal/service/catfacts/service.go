// Package catfacts manages daily cat fact subscriptions and their delivery.
package catfacts

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"
	_ "time/tzdata"
	"unicode/utf8"

	"github.com/MarvinPescos/balancehub/internal/apperr"
	"github.com/MarvinPescos/balancehub/internal/domain"
	"github.com/MarvinPescos/balancehub/internal/repository"
	"github.com/MarvinPescos/balancehub/pkg/upstream"
)

// Fact sources.
const (
	SourceAPI      = "api"
	SourceFallback = "fallback"
)

const (
	DefaultPreferredTime = "09:00:00"
	DefaultTimezone      = "UTC"
)

var (
	ErrAlreadySubscribed    = apperr.Conflict("User already subscribed to cat facts")
	ErrSubscriptionNotFound = apperr.NotFound("Subscription not found")
	ErrInvalidAPIKey        = apperr.New(apperr.KindAuthentication, "Invalid API key")
	ErrInvalidTime          = apperr.Validation("preferred_time must be formatted as HH:MM or HH:MM:SS")
	ErrInvalidTimezone      = apperr.Validation("timezone must be a valid IANA time zone")
)

var fallbackFacts = []string{
	"Cats have five toes on their front paws, but only four toes on their back paws.",
	"A cat's purr vibrates at a frequency that promotes bone healing.",
	"Cats can rotate their ears 180 degrees.",
	"A group of cats is called a 'clowder'.",
	"Cats sleep 12-16 hours per day.",
	"A cat's sense of smell is 14 times stronger than humans.",
	"Cats have over 20 vocalizations, including the purr, meow, and chirp.",
	"A cat's whiskers are roughly as wide as their body.",
	"Cats can jump up to six times their length.",
	"The first cat in space was a French cat named Felicette in 1963.",
}

// Users resolves subscribers to their accounts.
type Users interface {
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
}

// Notifier delivers the fact and welcome emails.
type Notifier interface {
	SendCatFact(ctx context.Context, to, userName, fact string, now time.Time) error
	SendCatWelcome(ctx context.Context, to, userName, preferredTime, timezone string) error
}

// Fact is a single cat fact and where it came from.
type Fact struct {
	Fact      string    `json:"fact"`
	Source    string    `json:"source"`
	Length    int       `json:"length"`
	FetchedAt time.Time `json:"fetched_at"`
}

// SubscribeInput carries the requested delivery preferences.
type SubscribeInput struct {
	PreferredTime string
	Timezone      string
}

// PreferencesInput is a partial preference update.
type PreferencesInput struct {
	IsActive      *bool
	PreferredTime *string
	Timezone      *string
}

// Status describes a user's subscription state.
type Status struct {
	Subscribed   bool
	Subscription *domain.CatFactSubscription
	Message      string
}

// Service implements the cat facts activity.
type Service struct {
	repo     repository.CatFactRepository
	users    Users
	notifier Notifier
	client   *upstream.Client
	factURL  string
	apiKey   string
	logger   *slog.Logger
	now      func() time.Time
}

// New constructs a Service. apiKey guards the daily send trigger.
func New(repo repository.CatFactRepository, users Users, notifier Notifier, factURL, apiKey string, logger *slog.Logger, opts ...upstream.Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		users:    users,
		notifier: notifier,
		client:   upstream.New(opts...),
		factURL:  factURL,
		apiKey:   apiKey,
		logger:   logger.With("component", "cat_facts"),
		now:      time.Now,
	}
}

// Random returns a fact from the upstream API, falling back to a bundled
// fact when the API is unavailable.
func (s *Service) Random(ctx context.Context) Fact {
	var payload struct {
		Fact string `json:"fact"`
	}
	if err := s.client.GetJSON(ctx, s.factURL, &payload); err != nil {
		s.logger.Warn("cat fact api failed", "error", err)
	} else if payload.Fact != "" {
		return s.fact(payload.Fact, SourceAPI)
	}
	return s.fact(fallbackFacts[rand.IntN(len(fallbackFacts))], SourceFallback)
}

func (s *Service) fact(text, source string) Fact {
	return Fact{
		Fact:      text,
		Source:    source,
		Length:    utf8.RuneCountInString(text),
		FetchedAt: s.now().UTC(),
	}
}

// Subscribe creates or reactivates the user's subscription. New subscribers
// receive a welcome email.
func (s *Service) Subscribe(ctx context.Context, user domain.User, in SubscribeInput) (*domain.CatFactSubscription, error) {
	preferred, timezone, err := normalizePreferences(in.PreferredTime, in.Timezone)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetSubscriptionByUser(ctx, user.ID)
	switch {
	case err == nil:
		if existing.IsActive {
			return nil, ErrAlreadySubscribed
		}
		existing.IsActive = true
		existing.PreferredTime = preferred
		existing.Timezone = timezone
		if err := s.repo.UpdateSubscription(ctx, existing); err != nil {
			return nil, apperr.Internal("Failed to create subscription", err)
		}
		s.logger.Info("cat fact subscription reactivated", "user_id", user.ID)
		return existing, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperr.Internal("Failed to create subscription", err)
	}

	sub := &domain.CatFactSubscription{
		UserID:        user.ID,
		IsActive:      true,
		PreferredTime: preferred,
		Timezone:      timezone,
	}
	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadySubscribed
		}
		return nil, apperr.Internal("Failed to create subscription", err)
	}
	s.logger.Info("cat fact subscription created", "user_id", user.ID)

	if err := s.notifier.SendCatWelcome(ctx, user.Email, user.DisplayName(), preferred, timezone); err != nil {
		s.logger.Warn("welcome email failed", "user_id", user.ID, "error", err)
	}
	return sub, nil
}

// Unsubscribe deactivates the subscription and returns when it happened.
func (s *Service) Unsubscribe(ctx context.Context, userID int64) (time.Time, error) {
	sub, err := s.lookup(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	sub.IsActive = false
	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return time.Time{}, apperr.Internal("Failed to unsubscribe", err)
	}
	s.logger.Info("cat facts unsubscribed", "user_id", userID)
	return s.now().UTC(), nil
}

// Status reports whether the user currently receives facts.
func (s *Service) Status(ctx context.Context, userID int64) (Status, error) {
	sub, err := s.repo.GetSubscriptionByUser(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return Status{}, apperr.Internal("Failed to load subscription", err)
	}
	if sub == nil || !sub.IsActive {
		return Status{Message: "You're not subscribed to daily cat facts"}, nil
	}
	lastSent := "Never"
	if sub.LastSentAt != nil {
		lastSent = sub.LastSentAt.UTC().Format(time.RFC3339)
	}
	return Status{
		Subscribed:   true,
		Subscription: sub,
		Message:      "You're subscribed! Last sent: " + lastSent,
	}, nil
}

// UpdatePreferences applies the fields set in in.
func (s *Service) UpdatePreferences(ctx context.Context, userID int64, in PreferencesInput) (*domain.CatFactSubscription, error) {
	sub, err := s.lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.IsActive != nil {
		sub.IsActive = *in.IsActive
	}
	if in.PreferredTime != nil {
		t, err := normalizeTime(*in.PreferredTime)
		if err != nil {
			return nil, err
		}
		sub.PreferredTime = t
	}
	if in.Timezone != nil {
		tz, err := normalizeTimezone(*in.Timezone)
		if err != nil {
			return nil, err
		}
		sub.Timezone = tz
	}
	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return nil, apperr.Internal("Failed to update subscription", err)
	}
	s.logger.Info("cat fact subscription updated", "user_id", userID)
	return sub, nil
}

// Authorize checks the shared key presented by the daily send trigger.
func (s *Service) Authorize(key string) error {
	if s.apiKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
		return ErrInvalidAPIKey
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, userID int64) (*domain.CatFactSubscription, error) {
	sub, err := s.repo.GetSubscriptionByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, apperr.Internal("Failed to load subscription", err)
	}
	return sub, nil
}

func normalizePreferences(preferred, timezone string) (string, string, error) {
	if preferred == "" {
		preferred = DefaultPreferredTime
	}
	if timezone == "" {
		timezone = DefaultTimezone
	}
	t, err := normalizeTime(preferred)
	if err != nil {
		return "", "", err
	}
	tz, err := normalizeTimezone(timezone)
	if err != nil {
		return "", "", err
	}
	return t, tz, nil
}

func normalizeTime(value string) (string, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("15:04:05"), nil
		}
	}
	return "", ErrInvalidTime
}

func normalizeTimezone(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ErrInvalidTimezone
	}
	if _, err := time.LoadLocation(value); err != nil {
		return "", ErrInvalidTimezone
	}
	return value, nil
}
