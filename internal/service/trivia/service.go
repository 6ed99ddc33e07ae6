// Package trivia serves multiple choice questions from Open Trivia DB.
package trivia

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/MarvinPescos/balancehub/internal/apperr"
	"github.com/MarvinPescos/balancehub/pkg/upstream"
)

// MinInterval is the spacing Open Trivia DB enforces per client IP.
const MinInterval = 5 * time.Second

var (
	ErrUnavailable = apperr.New(apperr.KindUnavailable, "Trivia service is temporarily unavailable")
	ErrNoQuestions = apperr.NotFound("No trivia questions found")
	ErrRateLimited = apperr.New(apperr.KindRateLimited, "Too many requests to trivia service. Please wait a moment and try again.")
	ErrFetchFailed = apperr.New(apperr.KindUnavailable, "Failed to fetch trivia question")
	ErrConnection  = apperr.New(apperr.KindUnavailable, "Trivia service connection failed")
	errBadEndpoint = errors.New("trivia: invalid endpoint")
)

// Question is one decoded trivia question.
type Question struct {
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

type apiResponse struct {
	ResponseCode int        `json:"response_code"`
	Results      []Question `json:"results"`
}

// Service fetches questions while keeping outgoing calls spaced apart.
type Service struct {
	endpoint string
	client   *upstream.Client
	limiter  *rate.Limiter
	maxWait  time.Duration
	logger   *slog.Logger
}

// Option customises the service.
type Option func(*Service)

// WithClient swaps the upstream client.
func WithClient(c *upstream.Client) Option {
	return func(s *Service) {
		if c != nil {
			s.client = c
		}
	}
}

// WithLimit overrides the call spacing. maxWait bounds how long a caller
// queues for its turn before being told to retry.
func WithLimit(interval, maxWait time.Duration) Option {
	return func(s *Service) {
		if interval <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 1)
		} else {
			s.limiter = rate.NewLimiter(rate.Every(interval), 1)
		}
		s.maxWait = maxWait
	}
}

// New constructs a Service for the given API endpoint.
func New(endpoint string, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		endpoint: endpoint,
		client:   upstream.New(),
		limiter:  rate.NewLimiter(rate.Every(MinInterval), 1),
		maxWait:  MinInterval,
		logger:   logger.With("component", "trivia"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Question returns a single multiple choice question with HTML entities
// decoded.
func (s *Service) Question(ctx context.Context) (Question, error) {
	if err := s.wait(ctx); err != nil {
		s.logger.Warn("trivia throttled", "error", err)
		return Question{}, ErrRateLimited
	}

	target, err := s.requestURL()
	if err != nil {
		return Question{}, apperr.Internal("Failed to fetch trivia question", err)
	}

	var payload apiResponse
	if err := s.client.GetJSON(ctx, target, &payload); err != nil {
		return Question{}, s.mapError(err)
	}
	if payload.ResponseCode != 0 {
		s.logger.Warn("trivia api returned error code", "response_code", payload.ResponseCode)
		return Question{}, ErrUnavailable
	}
	if len(payload.Results) == 0 {
		return Question{}, ErrNoQuestions
	}
	return unescape(payload.Results[0]), nil
}

func (s *Service) wait(ctx context.Context) error {
	if s.maxWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.maxWait)
		defer cancel()
	}
	return s.limiter.Wait(ctx)
}

func (s *Service) requestURL() (string, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil || u.Host == "" {
		return "", errBadEndpoint
	}
	q := u.Query()
	q.Set("amount", "1")
	q.Set("type", "multiple")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *Service) mapError(err error) error {
	if status, ok := upstream.Status(err); ok {
		s.logger.Error("trivia api http error", "status", status)
		if status == http.StatusTooManyRequests {
			return ErrRateLimited
		}
		return apperr.Wrap(apperr.KindUnavailable, ErrFetchFailed.Message, err)
	}
	if errors.Is(err, upstream.ErrTransport) {
		s.logger.Error("trivia api request error", "error", err)
		return apperr.Wrap(apperr.KindUnavailable, ErrConnection.Message, err)
	}
	s.logger.Error("trivia fetch failed", "error", err)
	return apperr.Internal("Failed to fetch trivia question", err)
}

func unescape(q Question) Question {
	out := Question{
		Type:          q.Type,
		Difficulty:    q.Difficulty,
		Category:      html.UnescapeString(q.Category),
		Question:      html.UnescapeString(q.Question),
		CorrectAnswer: html.UnescapeString(q.CorrectAnswer),
	}
	out.IncorrectAnswers = make([]string, len(q.IncorrectAnswers))
	for i, a := range q.IncorrectAnswers {
		out.IncorrectAnswers[i] = html.UnescapeString(a)
	}
	return out
}
