package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

const catFactsPrefix = activitiesPrefix + "/cat-facts"

func TestCatFactsSubscriptionLifecycle(t *testing.T) {
	router, deps := setupRouter(t)
	_, token := addActiveUser(t, deps, "ana", "Sup3rSecret")

	rr := doRequest(router, http.MethodGet, catFactsPrefix+"/status", token, "")
	payload := decodeBody(t, rr)
	if payload["subscribed"] != false || payload["message"] != "You're not subscribed to daily cat facts" {
		t.Fatalf("unexpected status %v", payload)
	}
	if _, ok := payload["subscription"]; ok {
		t.Fatal("expected no subscription key")
	}

	rr = doRequest(router, http.MethodPost, catFactsPrefix+"/subscribe", token, `{"preferred_time":"08:30","timezone":"Asia/Manila"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}
	payload = decodeBody(t, rr)
	sub, ok := payload["subscription"].(map[string]any)
	if !ok || sub["preferred_time"] != "08:30:00" || sub["timezone"] != "Asia/Manila" || sub["is_active"] != true {
		t.Fatalf("unexpected subscription %v", payload)
	}
	for _, key := range []string{"created_at", "updated_at", "last_sent_at", "total_sent"} {
		if _, ok := sub[key]; !ok {
			t.Fatalf("subscription missing %q: %v", key, sub)
		}
	}
	if len(deps.notifier.welcomes) != 1 {
		t.Fatalf("expected welcome email, got %d", len(deps.notifier.welcomes))
	}

	rr = doRequest(router, http.MethodPost, catFactsPrefix+"/subscribe", token, `{}`)
	expectDetail(t, rr, http.StatusConflict, "User already subscribed to cat facts")

	rr = doRequest(router, http.MethodPut, catFactsPrefix+"/preferences", token, `{"timezone":"Mars/Olympus"}`)
	expectDetail(t, rr, http.StatusBadRequest, "timezone must be a valid IANA time zone")

	rr = doRequest(router, http.MethodPut, catFactsPrefix+"/preferences", token, `{"preferred_time":"21:15"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	if got := decodeBody(t, rr)["preferred_time"]; got != "21:15:00" {
		t.Fatalf("unexpected preferred_time %v", got)
	}

	rr = doRequest(router, http.MethodGet, catFactsPrefix+"/status", token, "")
	payload = decodeBody(t, rr)
	if payload["subscribed"] != true || payload["message"] != "You're subscribed! Last sent: Never" {
		t.Fatalf("unexpected status %v", payload)
	}

	rr = doRequest(router, http.MethodDelete, catFactsPrefix+"/unsubscribe", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	payload = decodeBody(t, rr)
	if payload["message"] != "Successfully unsubscribed from daily cat facts. We'll miss you! 😿" || payload["unsubscribed_at"] == nil {
		t.Fatalf("unexpected payload %v", payload)
	}

	rr = doRequest(router, http.MethodPost, catFactsPrefix+"/subscribe", token, `{}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected reactivation, got %d", rr.Code)
	}
	if len(deps.notifier.welcomes) != 1 {
		t.Fatal("reactivation must not resend the welcome email")
	}
}

func TestCatFactsUnsubscribeWithoutSubscription(t *testing.T) {
	router, deps := setupRouter(t)
	_, token := addActiveUser(t, deps, "ana", "Sup3rSecret")
	rr := doRequest(router, http.MethodDelete, catFactsPrefix+"/unsubscribe", token, "")
	expectDetail(t, rr, http.StatusNotFound, "Subscription not found")
}

func TestCatFactsRandomIsPublic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"fact":"Cats sleep a lot.","length":17}`))
	}))
	defer srv.Close()

	router, _ := setupRouter(t, func(d *testDeps) { d.factURL = srv.URL })
	rr := doRequest(router, http.MethodGet, catFactsPrefix+"/random", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	payload := decodeBody(t, rr)
	if payload["fact"] != "Cats sleep a lot." || payload["source"] != "api" || payload["length"] != float64(17) {
		t.Fatalf("unexpected payload %v", payload)
	}

	router, _ = setupRouter(t)
	rr = doRequest(router, http.MethodGet, catFactsPrefix+"/random", "", "")
	if source := decodeBody(t, rr)["source"]; source != "fallback" {
		t.Fatalf("expected fallback source, got %v", source)
	}
}

func TestCatFactsSendDaily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"fact":"Cats purr."}`))
	}))
	defer srv.Close()

	router, deps := setupRouter(t, func(d *testDeps) { d.factURL = srv.URL })
	_, token := addActiveUser(t, deps, "ana", "Sup3rSecret")
	doRequest(router, http.MethodPost, catFactsPrefix+"/subscribe", token, `{}`)

	rr := doRequest(router, http.MethodPost, catFactsPrefix+"/send-daily", "", `{"api_key":"wrong"}`)
	expectDetail(t, rr, http.StatusUnauthorized, "Invalid API key")

	rr = doRequest(router, http.MethodPost, catFactsPrefix+"/send-daily", "", `{}`)
	expectDetail(t, rr, http.StatusUnauthorized, "Invalid API key")

	rr = doRequest(router, http.MethodPost, catFactsPrefix+"/send-daily", "", `{"api_key":"cron-key"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	payload := decodeBody(t, rr)
	if payload["sent_count"] != float64(1) || payload["failed_count"] != float64(0) || payload["total_subscribers"] != float64(1) {
		t.Fatalf("unexpected report %v", payload)
	}
	if payload["message"] != "Daily cat facts sent! Success: 1, Failed: 0" {
		t.Fatalf("unexpected message %v", payload["message"])
	}
	if _, ok := payload["details"]; ok {
		t.Fatal("details must be omitted without failures")
	}
	if len(deps.notifier.facts) != 1 {
		t.Fatalf("expected one fact email, got %d", len(deps.notifier.facts))
	}
}
