package httpx

import (
	"net/http"
	"time"

	"github.com/MarvinPescos/balancehub/internal/service/auth"
)

func (r *Router) registerAuth() {
	r.api("POST", "/auth/register", r.withRateLimit(rateRule{name: "auth_register", limit: 5, window: time.Minute}, r.handleRegister))
	r.api("POST", "/auth/verify-email", r.handleVerifyEmail)
	r.api("POST", "/auth/resend-verification", r.withRateLimit(rateRule{
		name:   "auth_resend_verification",
		limit:  5,
		window: time.Hour,
		key:    rateLimitKeyBodyUserID,
	}, r.handleResendVerification))
	r.api("POST", "/auth/login", r.withRateLimit(rateRule{name: "auth_login", limit: 10, window: time.Minute}, r.handleLogin))
	r.api("GET", "/auth/me", r.requireAuth(r.handleMe))
	r.api("PUT", "/auth/update-user", r.requireAuth(r.handleUpdateUser))
	r.api("PUT", "/auth/profile", r.requireAuth(r.handleUpdateProfile))
	r.api("POST", "/auth/logout", r.handleLogout)
	r.api("POST", "/auth/password/forget", r.withRateLimit(rateRule{name: "auth_password_forget", limit: 5, window: time.Minute}, r.handleForgetPassword))
	r.api("POST", "/auth/password/reset", r.withRateLimit(rateRule{name: "auth_password_reset", limit: 10, window: time.Hour}, r.handleResetPassword))
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	var body registerRequest
	if !decode(w, req, &body) {
		return
	}
	user, err := r.services.Auth.Register(req.Context(), auth.RegisterInput{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
		FullName: body.FullName,
	})
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":   true,
		"message":   "Registration successful! Please check your email to verify your account",
		"user_id":   user.ID,
		"next_step": "Verify email",
	})
}

func (r *Router) handleVerifyEmail(w http.ResponseWriter, req *http.Request) {
	var body verifyEmailRequest
	if !decode(w, req, &body) {
		return
	}
	if err := r.services.Auth.VerifyEmail(req.Context(), body.UserID, body.Code); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Email verified successfully",
		"user_id": body.UserID,
	})
}

func (r *Router) handleResendVerification(w http.ResponseWriter, req *http.Request) {
	var body resendVerificationRequest
	if !decode(w, req, &body) {
		return
	}
	verified, err := r.services.Auth.ResendVerification(req.Context(), body.UserID)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	msg := "Verification code re sent to your email"
	if verified {
		msg = "Email is already verified"
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": msg})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	var body loginRequest
	if !decode(w, req, &body) {
		return
	}
	user, token, err := r.services.Auth.Login(req.Context(), body.Email, body.Password, body.TOTPCode)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	r.setAuthCookie(w, token, r.services.Auth.TokenTTL(), http.SameSiteLaxMode)
	writeJSON(w, http.StatusOK, map[string]any{
		"user":    newUserResponse(user),
		"message": "Login successful",
	})
}

func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) {
	user, _ := userFromContext(req.Context())
	writeJSON(w, http.StatusOK, newUserResponse(user))
}

func (r *Router) handleUpdateUser(w http.ResponseWriter, req *http.Request) {
	user, _ := userFromContext(req.Context())
	var body updateUserRequest
	if !decode(w, req, &body) {
		return
	}
	updated, err := r.services.Auth.UpdateUser(req.Context(), user, body.Username, body.FullName)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(updated))
}

func (r *Router) handleUpdateProfile(w http.ResponseWriter, req *http.Request) {
	user, _ := userFromContext(req.Context())
	var body profileRequest
	if !decode(w, req, &body) {
		return
	}
	updated, err := r.services.Auth.UpdateProfile(req.Context(), user, auth.ProfileInput{
		Username:        body.Username,
		Email:           body.Email,
		FullName:        body.FullName,
		CurrentPassword: body.CurrentPassword,
		NewPassword:     body.NewPassword,
	})
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(updated))
}

func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) {
	r.clearAuthCookie(w)
	writeMessage(w, http.StatusOK, "Successfully logout")
}

func (r *Router) handleForgetPassword(w http.ResponseWriter, req *http.Request) {
	var body forgetPasswordRequest
	if !decode(w, req, &body) {
		return
	}
	if err := r.services.Auth.ForgetPassword(req.Context(), body.Email); err != nil {
		// The response must not reveal whether the address exists.
		r.logger.Error("password reset request failed", "error", err)
	}
	writeMessage(w, http.StatusOK, "If that email exists, we've sent a reset link.")
}

func (r *Router) handleResetPassword(w http.ResponseWriter, req *http.Request) {
	var body resetPasswordRequest
	if !decode(w, req, &body) {
		return
	}
	if err := r.services.Auth.ResetPassword(req.Context(), body.Code, body.NewPassword); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeMessage(w, http.StatusOK, "Successfully changed password")
}
