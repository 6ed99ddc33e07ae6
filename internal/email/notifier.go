package email

import (
	"context"
	"net/url"
	"time"

	"github.com/MarvinPescos/balancehub/pkg/config"
)

// Notifier renders and sends the application's transactional emails.
type Notifier struct {
	mailer        Mailer
	templates     *Templates
	appName       string
	frontendURL   string
	expiryMinutes int
}

// NewNotifier constructs a Notifier.
func NewNotifier(mailer Mailer, templates *Templates, cfg config.APIConfig) *Notifier {
	return &Notifier{
		mailer:        mailer,
		templates:     templates,
		appName:       cfg.AppName,
		frontendURL:   cfg.FrontendURL,
		expiryMinutes: cfg.EmailVerificationExpiryMinutes,
	}
}

// SendVerification emails a registration or email-change code.
func (n *Notifier) SendVerification(ctx context.Context, to, userName, code string) error {
	msg, err := n.templates.Verification(to, VerificationData{
		AppName:       n.appName,
		UserName:      userName,
		Code:          code,
		ExpiryMinutes: n.expiryMinutes,
	})
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, msg)
}

// SendPasswordReset emails the reset link for token.
func (n *Notifier) SendPasswordReset(ctx context.Context, to, userName, token string) error {
	msg, err := n.templates.PasswordReset(to, PasswordResetData{
		AppName:       n.appName,
		UserName:      userName,
		Link:          n.ResetLink(token),
		ExpiryMinutes: n.expiryMinutes,
	})
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, msg)
}

// SendCatFact emails the daily fact.
func (n *Notifier) SendCatFact(ctx context.Context, to, userName, fact string, now time.Time) error {
	msg, err := n.templates.CatFact(to, now.Format("January 02, 2006"), CatFactData{
		UserName:       userName,
		Fact:           fact,
		Date:           now.Format("Monday, January 02, 2006"),
		UnsubscribeURL: n.frontendURL + "/cat-facts",
	})
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, msg)
}

// SendCatWelcome emails the subscription confirmation.
func (n *Notifier) SendCatWelcome(ctx context.Context, to, userName, preferredTime, timezone string) error {
	msg, err := n.templates.CatWelcome(to, CatWelcomeData{
		AppName:       n.appName,
		UserName:      userName,
		PreferredTime: preferredTime,
		Timezone:      timezone,
	})
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, msg)
}

// ResetLink is the frontend page that consumes a reset token.
func (n *Notifier) ResetLink(token string) string {
	return n.frontendURL + "/reset-password?code=" + url.QueryEscape(token)
}
