package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/getsentry/sentry-go"

	"github.com/MarvinPescos/balancehub/internal/apperr"
)

const internalErrorMessage = "Internal server error"

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends an error message under the detail key clients expect.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

// writeMessage sends {"message": msg}.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeServiceError renders err. Client facing apperr failures keep their
// message; anything unexpected is logged, reported and hidden behind a 500.
func (r *Router) writeServiceError(w http.ResponseWriter, req *http.Request, err error) {
	if appErr, ok := apperr.As(err); ok && appErr.Kind != apperr.KindInternal {
		if appErr.Cause != nil {
			r.logger.Warn("request failed", "path", req.URL.Path, "kind", appErr.Kind, "error", err)
		}
		writeError(w, appErr.Kind.HTTPStatus(), appErr.Message)
		return
	}

	msg := internalErrorMessage
	if appErr, ok := apperr.As(err); ok && appErr.Message != "" {
		msg = appErr.Message
	}
	r.logger.Error("request failed", "path", req.URL.Path, "error", err)
	if hub := sentry.GetHubFromContext(req.Context()); hub != nil {
		hub.CaptureException(err)
	}
	writeError(w, http.StatusInternalServerError, msg)
}
