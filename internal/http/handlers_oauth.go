package httpx

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MarvinPescos/balancehub/internal/service/oauth"
)

func (r *Router) registerOAuth() {
	r.api("GET", "/auth/{provider}/login", r.handleOAuthLogin)
	r.api("GET", "/auth/{provider}/callback", r.handleOAuthCallback)
}

func (r *Router) handleOAuthLogin(w http.ResponseWriter, req *http.Request) {
	url, err := r.services.OAuth.LoginURL(req.Context(), req.PathValue("provider"))
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"authorization_url": url})
}

// handleOAuthCallback finishes the provider redirect. State and provider
// problems are answered as JSON; everything later sends the browser back
// to the frontend login page.
func (r *Router) handleOAuthCallback(w http.ResponseWriter, req *http.Request) {
	provider := req.PathValue("provider")
	q := req.URL.Query()
	_, token, err := r.services.OAuth.Callback(req.Context(), provider, q.Get("code"), q.Get("state"))
	if err != nil {
		if errors.Is(err, oauth.ErrInvalidState) || errors.Is(err, oauth.ErrUnknownProvider) {
			r.writeServiceError(w, req, err)
			return
		}
		r.logger.Error("oauth callback failed", "provider", provider, "error", err)
		http.Redirect(w, req, r.frontendURL("/login?error=oauth_failed"), http.StatusTemporaryRedirect)
		return
	}
	maxAge := time.Duration(r.cfg.OAuthCookieMaxAgeSeconds) * time.Second
	r.setAuthCookie(w, token, maxAge, http.SameSiteNoneMode)
	http.Redirect(w, req, r.frontendURL("/dashboard?login=success"), http.StatusTemporaryRedirect)
}

func (r *Router) frontendURL(path string) string {
	return strings.TrimRight(r.cfg.FrontendURL, "/") + path
}
