// Package joke fetches a joke, optionally enciphers it and renders it as a
// QR code.
package joke

import (
	"context"
	"errors"
	"log/slog"

	"github.com/MarvinPescos/balancehub/internal/apperr"
	"github.com/MarvinPescos/balancehub/internal/service/cipher"
	"github.com/MarvinPescos/balancehub/internal/service/qr"
	"github.com/MarvinPescos/balancehub/pkg/upstream"
)

// Defaults applied when a request leaves the cipher parameters unset.
const (
	DefaultShift = 3
	DefaultKey   = "SECRET"
)

var (
	ErrNoJoke      = apperr.NotFound("No joke found in API response")
	ErrFetchFailed = apperr.New(apperr.KindUnavailable, "Failed to fetch joke from API")
	ErrConnection  = apperr.New(apperr.KindUnavailable, "Joke API connection failed")
)

// Request selects the optional cipher.
type Request struct {
	CipherType  string
	CaesarShift int
	VigenereKey string
}

// Result is the generated joke bundle.
type Result struct {
	OriginalJoke string  `json:"original_joke"`
	CipheredJoke *string `json:"ciphered_joke"`
	CipherUsed   *string `json:"cipher_used"`
	QRCodeBase64 string  `json:"qr_code_base64"`
}

// Service wires the joke API to the cipher and QR helpers.
type Service struct {
	endpoint string
	client   *upstream.Client
	logger   *slog.Logger
}

// New constructs a Service.
func New(endpoint string, logger *slog.Logger, opts ...upstream.Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		endpoint: endpoint,
		client:   upstream.New(opts...),
		logger:   logger.With("component", "joke"),
	}
}

// Fetch returns a single-part joke from the configured API.
func (s *Service) Fetch(ctx context.Context) (string, error) {
	var payload struct {
		Joke *string `json:"joke"`
	}
	if err := s.client.GetJSON(ctx, s.endpoint, &payload); err != nil {
		if status, ok := upstream.Status(err); ok {
			s.logger.Error("joke api http error", "status", status)
			return "", apperr.Wrap(ErrFetchFailed.Kind, ErrFetchFailed.Message, err)
		}
		if errors.Is(err, upstream.ErrTransport) {
			s.logger.Error("joke api request error", "error", err)
			return "", apperr.Wrap(ErrConnection.Kind, ErrConnection.Message, err)
		}
		s.logger.Error("joke fetch failed", "error", err)
		return "", apperr.Internal("Failed to fetch joke", err)
	}
	if payload.Joke == nil {
		return "", ErrNoJoke
	}
	return *payload.Joke, nil
}

// Generate fetches a joke, applies the requested cipher and encodes the
// resulting text as a QR code.
func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	joke, err := s.Fetch(ctx)
	if err != nil {
		return Result{}, err
	}
	s.logger.Info("joke fetched", "joke_length", len(joke))

	res := Result{OriginalJoke: joke}
	text := joke
	if req.CipherType != "" {
		shift := req.CaesarShift
		if shift == 0 {
			shift = DefaultShift
		}
		key := req.VigenereKey
		if key == "" {
			key = DefaultKey
		}
		ciphered, err := cipher.Apply(joke, cipher.Options{Type: req.CipherType, Shift: shift, Key: key})
		if err != nil {
			return Result{}, err
		}
		used := req.CipherType
		res.CipheredJoke = &ciphered
		res.CipherUsed = &used
		text = ciphered
	}

	code, err := qr.Base64(text)
	if err != nil {
		return Result{}, err
	}
	res.QRCodeBase64 = code
	return res, nil
}
