package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

var errSentinel = New(KindAuthentication, "Invalid email or password")

func TestIsMatchesKindAndMessage(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", New(KindAuthentication, "Invalid email or password"))
	if !errors.Is(wrapped, errSentinel) {
		t.Fatal("expected wrapped copy to match sentinel")
	}
	if errors.Is(New(KindAuthentication, "other"), errSentinel) {
		t.Fatal("different message must not match")
	}
	if errors.Is(New(KindValidation, "Invalid email or password"), errSentinel) {
		t.Fatal("different kind must not match")
	}
}

func TestAsExtractsFromChain(t *testing.T) {
	cause := errors.New("db down")
	err := fmt.Errorf("outer: %w", Internal("Registration failed", cause))
	appErr, ok := As(err)
	if !ok {
		t.Fatal("expected apperr in chain")
	}
	if appErr.Kind.HTTPStatus() != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", appErr.Kind.HTTPStatus())
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:     http.StatusBadRequest,
		KindAuthentication: http.StatusUnauthorized,
		KindAuthorization:  http.StatusForbidden,
		KindNotFound:       http.StatusNotFound,
		KindConflict:       http.StatusConflict,
		KindRateLimited:    http.StatusTooManyRequests,
		KindUnavailable:    http.StatusServiceUnavailable,
		KindInternal:       http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := kind.HTTPStatus(); got != want {
			t.Fatalf("%s: got %d want %d", kind, got, want)
		}
	}
}
