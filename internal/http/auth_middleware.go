package httpx

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/MarvinPescos/balancehub/internal/domain"
	"github.com/MarvinPescos/balancehub/internal/service/auth"
)

const accessTokenCookie = "access_token"

type authContextKey string

const contextKeyUser authContextKey = "balancehub-user"

type contextSetter interface {
	SetContext(context.Context)
}

// requireAuth resolves the current user before invoking the handler.
func (r *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx, _, ok := r.ensureAuth(w, req)
		if !ok {
			return
		}
		if setter, ok := w.(contextSetter); ok {
			setter.SetContext(ctx)
		}
		next(w, req.WithContext(ctx))
	}
}

// ensureAuth reads the access token from the cookie or the Authorization
// header and loads its active user.
func (r *Router) ensureAuth(w http.ResponseWriter, req *http.Request) (context.Context, *domain.User, bool) {
	token := accessToken(req)
	if token == "" {
		r.unauthorized(w)
		return req.Context(), nil, false
	}
	user, err := r.services.Auth.Authorize(req.Context(), token)
	if err != nil {
		if !errors.Is(err, auth.ErrCouldNotValidate) {
			r.logger.Error("token validation failed", "error", err, "path", req.URL.Path)
		}
		r.unauthorized(w)
		return req.Context(), nil, false
	}
	if hub := sentry.GetHubFromContext(req.Context()); hub != nil {
		hub.Scope().SetUser(sentry.User{ID: strconv.FormatInt(user.ID, 10)})
	}
	ctx := context.WithValue(req.Context(), contextKeyUser, user)
	return ctx, user, true
}

func (r *Router) unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, auth.ErrCouldNotValidate.Message)
}

// userFromContext returns the user stored by requireAuth.
func userFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(contextKeyUser).(*domain.User)
	return user, ok && user != nil
}

func accessToken(req *http.Request) string {
	if cookie, err := req.Cookie(accessTokenCookie); err == nil {
		if v := strings.TrimSpace(cookie.Value); v != "" {
			return v
		}
	}
	token, err := bearerToken(req.Header.Get("Authorization"))
	if err != nil {
		return ""
	}
	return token
}

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("empty bearer token")
	}
	return token, nil
}

func (r *Router) setAuthCookie(w http.ResponseWriter, token string, maxAge time.Duration, sameSite http.SameSite) {
	secure := r.cfg.CookieSecure || sameSite == http.SameSiteNoneMode
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

func (r *Router) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
