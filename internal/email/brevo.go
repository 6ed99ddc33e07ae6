package email

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/MarvinPescos/balancehub/pkg/config"
	"github.com/MarvinPescos/balancehub/pkg/upstream"
)

// BrevoMailer sends through the Brevo transactional email API.
type BrevoMailer struct {
	client   *upstream.Client
	endpoint string
	apiKey   string
	from     string
	fromName string
}

type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoRequest struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent,omitempty"`
	TextContent string         `json:"textContent,omitempty"`
}

// NewBrevoMailer constructs a BrevoMailer.
func NewBrevoMailer(cfg config.MailConfig, opts ...upstream.Option) (*BrevoMailer, error) {
	if strings.TrimSpace(cfg.BrevoAPIKey) == "" {
		return nil, fmt.Errorf("email: BREVO_API_KEY is required")
	}
	return &BrevoMailer{
		client:   upstream.New(opts...),
		endpoint: cfg.BrevoAPIURL,
		apiKey:   cfg.BrevoAPIKey,
		from:     cfg.From,
		fromName: cfg.FromName,
	}, nil
}

// Send posts the message to Brevo.
func (m *BrevoMailer) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}
	headers := http.Header{}
	headers.Set("api-key", m.apiKey)
	body := brevoRequest{
		Sender:      brevoContact{Email: m.from, Name: m.fromName},
		To:          []brevoContact{{Email: msg.To, Name: msg.ToName}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
		TextContent: msg.Text,
	}
	if err := m.client.PostJSON(ctx, m.endpoint, headers, body, nil); err != nil {
		return fmt.Errorf("email: brevo send: %w", err)
	}
	return nil
}
