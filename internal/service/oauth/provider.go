package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/MarvinPescos/balancehub/internal/domain"
	"github.com/MarvinPescos/balancehub/pkg/config"
	"github.com/MarvinPescos/balancehub/pkg/upstream"
)

const (
	googleUserInfoURL   = "https://www.googleapis.com/oauth2/v2/userinfo"
	facebookUserInfoURL = "https://graph.facebook.com/v18.0/me"
	facebookFields      = "id,name,email,picture.type(large)"
)

var facebookEndpoint = oauth2.Endpoint{
	AuthURL:   "https://www.facebook.com/v18.0/dialog/oauth",
	TokenURL:  "https://graph.facebook.com/v18.0/oauth/access_token",
	AuthStyle: oauth2.AuthStyleInParams,
}

var (
	errExchangeRejected = errors.New("provider rejected authorization code")
	errProfileRejected  = errors.New("provider rejected profile request")
)

// Profile is the identity returned by a provider.
type Profile struct {
	ID         string
	Email      string
	Name       string
	PictureURL string
}

// Provider wraps one OAuth2 identity provider.
type Provider struct {
	name        string
	config      *oauth2.Config
	authOptions []oauth2.AuthCodeOption
	userInfoURL string
	httpClient  *http.Client
	client      *upstream.Client
	decode      func(ctx context.Context, p *Provider, token *oauth2.Token) (Profile, error)
}

// ProviderOption customises a Provider.
type ProviderOption func(*Provider)

// WithEndpoints points the provider at alternative token, auth and profile URLs.
func WithEndpoints(endpoint oauth2.Endpoint, userInfoURL string) ProviderOption {
	return func(p *Provider) {
		p.config.Endpoint = endpoint
		p.userInfoURL = userInfoURL
	}
}

// WithHTTPClient overrides the client used for token exchange and profile calls.
func WithHTTPClient(h *http.Client) ProviderOption {
	return func(p *Provider) {
		if h != nil {
			p.httpClient = h
			p.client = upstream.New(upstream.WithHTTPClient(h))
		}
	}
}

// NewGoogle builds the Google provider.
func NewGoogle(cfg config.OAuthProviderConfig, opts ...ProviderOption) *Provider {
	p := &Provider{
		name: domain.ProviderGoogle,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoints.Google,
		},
		authOptions: []oauth2.AuthCodeOption{oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent")},
		userInfoURL: googleUserInfoURL,
		decode:      decodeGoogleProfile,
	}
	return p.apply(opts)
}

// NewFacebook builds the Facebook provider.
func NewFacebook(cfg config.OAuthProviderConfig, opts ...ProviderOption) *Provider {
	p := &Provider{
		name: domain.ProviderFacebook,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"public_profile"},
			Endpoint:     facebookEndpoint,
		},
		userInfoURL: facebookUserInfoURL,
		decode:      decodeFacebookProfile,
	}
	return p.apply(opts)
}

func (p *Provider) apply(opts []ProviderOption) *Provider {
	p.httpClient = http.DefaultClient
	p.client = upstream.New()
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name is the provider identifier stored on linked accounts.
func (p *Provider) Name() string {
	return p.name
}

// Configured reports whether client credentials are present.
func (p *Provider) Configured() bool {
	return p.config.ClientID != "" && p.config.ClientSecret != "" && p.config.RedirectURL != ""
}

// AuthURL is the consent page the user is sent to.
func (p *Provider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, p.authOptions...)
}

// Exchange trades an authorization code for a token. A provider refusal wraps
// errExchangeRejected; anything else is a transport failure.
func (p *Provider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return nil, fmt.Errorf("%w: %v", errExchangeRejected, err)
		}
		return nil, fmt.Errorf("%w: %v", upstream.ErrTransport, err)
	}
	return token, nil
}

// FetchProfile loads the user's identity with token.
func (p *Provider) FetchProfile(ctx context.Context, token *oauth2.Token) (Profile, error) {
	profile, err := p.decode(ctx, p, token)
	if err != nil {
		if _, ok := upstream.Status(err); ok {
			return Profile{}, fmt.Errorf("%w: %v", errProfileRejected, err)
		}
		return Profile{}, err
	}
	if strings.TrimSpace(profile.ID) == "" {
		return Profile{}, fmt.Errorf("%w: missing user id", errProfileRejected)
	}
	return profile, nil
}

func decodeGoogleProfile(ctx context.Context, p *Provider, token *oauth2.Token) (Profile, error) {
	var payload struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+token.AccessToken)
	if err := p.client.Do(ctx, http.MethodGet, p.userInfoURL, headers, nil, &payload); err != nil {
		return Profile{}, err
	}
	return Profile{ID: payload.ID, Email: payload.Email, Name: payload.Name, PictureURL: payload.Picture}, nil
}

func decodeFacebookProfile(ctx context.Context, p *Provider, token *oauth2.Token) (Profile, error) {
	var payload struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	query := url.Values{}
	query.Set("fields", facebookFields)
	query.Set("access_token", token.AccessToken)
	if err := p.client.GetJSON(ctx, p.userInfoURL+"?"+query.Encode(), &payload); err != nil {
		return Profile{}, err
	}
	return Profile{ID: payload.ID, Email: payload.Email, Name: payload.Name, PictureURL: payload.Picture.Data.URL}, nil
}
