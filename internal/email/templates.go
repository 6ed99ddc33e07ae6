package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

// Template names without extension.
const (
	templateVerification  = "verification"
	templatePasswordReset = "password_reset"
	templateCatFact       = "cat_fact"
	templateCatWelcome    = "cat_facts_welcome"
)

// VerificationData fills the registration code email.
type VerificationData struct {
	AppName       string
	UserName      string
	Code          string
	ExpiryMinutes int
}

// PasswordResetData fills the reset link email.
type PasswordResetData struct {
	AppName       string
	UserName      string
	Link          string
	ExpiryMinutes int
}

// CatFactData fills the daily fact email.
type CatFactData struct {
	UserName       string
	Fact           string
	Date           string
	UnsubscribeURL string
}

// CatWelcomeData fills the subscription welcome email.
type CatWelcomeData struct {
	AppName       string
	UserName      string
	PreferredTime string
	Timezone      string
}

// Templates renders the embedded email bodies.
type Templates struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

// LoadTemplates parses the embedded templates.
func LoadTemplates() (*Templates, error) {
	html, err := htmltemplate.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("email: parse html templates: %w", err)
	}
	text, err := texttemplate.ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("email: parse text templates: %w", err)
	}
	return &Templates{html: html, text: text}, nil
}

// Verification builds the registration code email.
func (t *Templates) Verification(to string, data VerificationData) (Message, error) {
	return t.compose(to, data.UserName, "Verify your "+data.AppName+" account", templateVerification, data)
}

// PasswordReset builds the reset link email.
func (t *Templates) PasswordReset(to string, data PasswordResetData) (Message, error) {
	return t.compose(to, data.UserName, "Reset your "+data.AppName+" password", templatePasswordReset, data)
}

// CatFact builds the daily fact email. subjectDate is shown in the subject line.
func (t *Templates) CatFact(to, subjectDate string, data CatFactData) (Message, error) {
	return t.compose(to, data.UserName, "🐱 Daily Cat Fact - "+subjectDate, templateCatFact, data)
}

// CatWelcome builds the subscription welcome email.
func (t *Templates) CatWelcome(to string, data CatWelcomeData) (Message, error) {
	return t.compose(to, data.UserName, "🎉 Welcome to Daily Cat Facts!", templateCatWelcome, data)
}

func (t *Templates) compose(to, toName, subject, name string, data any) (Message, error) {
	var html, text bytes.Buffer
	if err := t.html.ExecuteTemplate(&html, name+".html", data); err != nil {
		return Message{}, fmt.Errorf("email: render %s.html: %w", name, err)
	}
	if err := t.text.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return Message{}, fmt.Errorf("email: render %s.txt: %w", name, err)
	}
	return Message{To: to, ToName: toName, Subject: subject, HTML: html.String(), Text: text.String()}, nil
}
