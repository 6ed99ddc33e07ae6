package httpx

import "net/http"

func (r *Router) registerTwoFactor() {
	r.api("GET", "/auth/2fa/status", r.requireAuth(r.handleTwoFactorStatus))
	r.api("POST", "/auth/2fa/setup", r.requireAuth(r.handleTwoFactorSetup))
	r.api("POST", "/auth/2fa/enable", r.requireAuth(r.handleTwoFactorEnable))
	r.api("POST", "/auth/2fa/disable", r.requireAuth(r.handleTwoFactorDisable))
}

func (r *Router) handleTwoFactorStatus(w http.ResponseWriter, req *http.Request) {
	user, _ := userFromContext(req.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": user.TwoFactorEnabled})
}

func (r *Router) handleTwoFactorSetup(w http.ResponseWriter, req *http.Request) {
	user, _ := userFromContext(req.Context())
	setup, err := r.services.TwoFactor.Begin(req.Context(), user)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, setup)
}

func (r *Router) handleTwoFactorEnable(w http.ResponseWriter, req *http.Request) {
	user, _ := userFromContext(req.Context())
	var body twoFactorTokenRequest
	if !decode(w, req, &body) {
		return
	}
	if err := r.services.TwoFactor.Enable(req.Context(), user, body.Token); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeMessage(w, http.StatusOK, "2FA enabled successfully")
}

func (r *Router) handleTwoFactorDisable(w http.ResponseWriter, req *http.Request) {
	user, _ := userFromContext(req.Context())
	var body twoFactorDisableRequest
	if !decode(w, req, &body) {
		return
	}
	if err := r.services.TwoFactor.Disable(req.Context(), user, body.Password, body.Token); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeMessage(w, http.StatusOK, "2FA disabled successfully")
}
