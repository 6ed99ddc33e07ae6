// Package email delivers transactional mail through SMTP, Brevo or the log.
package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MarvinPescos/balancehub/pkg/config"
)

// Mail providers accepted by MAIL_PROVIDER.
const (
	ProviderSMTP  = "smtp"
	ProviderBrevo = "brevo"
	ProviderLog   = "log"
)

// ErrNoRecipient is returned when a message has no destination address.
var ErrNoRecipient = errors.New("email: message has no recipient")

// Message is one outgoing email with both HTML and plain text bodies.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// Mailer sends messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New selects the transport named by cfg.Provider.
func New(cfg config.MailConfig, logger *slog.Logger) (Mailer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderSMTP:
		return NewSMTPMailer(cfg)
	case ProviderBrevo:
		return NewBrevoMailer(cfg)
	case ProviderLog:
		return NewLogMailer(logger), nil
	default:
		return nil, fmt.Errorf("email: unknown provider %q", cfg.Provider)
	}
}

// LogMailer writes messages to the logger instead of delivering them.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer constructs a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the message headers and text body.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}
	m.logger.Info("email logged", "to", msg.To, "subject", msg.Subject, "text", msg.Text)
	return nil
}
