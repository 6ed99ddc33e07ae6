package httpx

import (
	"net/http"

	"github.com/MarvinPescos/balancehub/internal/service/catfacts"
)

func (r *Router) registerCatFacts() {
	r.api("POST", "/activities/cat-facts/subscribe", r.requireAuth(r.handleCatFactsSubscribe))
	r.api("DELETE", "/activities/cat-facts/unsubscribe", r.requireAuth(r.handleCatFactsUnsubscribe))
	r.api("GET", "/activities/cat-facts/status", r.requireAuth(r.handleCatFactsStatus))
	r.api("PUT", "/activities/cat-facts/preferences", r.requireAuth(r.handleCatFactsPreferences))
	r.api("GET", "/activities/cat-facts/random", r.handleCatFactsRandom)
	r.api("POST", "/activities/cat-facts/send-daily", r.handleCatFactsSendDaily)
}

func (r *Router) handleCatFactsSubscribe(w http.ResponseWriter, req *http.Request) {
	user, _ := userFromContext(req.Context())
	var body subscribeRequest
	if !decode(w, req, &body) {
		return
	}
	sub, err := r.services.CatFacts.Subscribe(req.Context(), *user, catfacts.SubscribeInput{
		PreferredTime: body.PreferredTime,
		Timezone:      body.Timezone,
	})
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":      true,
		"message":      "Successfully subscribed to daily cat facts! 🐱",
		"subscription": newSubscriptionResponse(sub),
	})
}

func (r *Router) handleCatFactsUnsubscribe(w http.ResponseWriter, req *http.Request) {
	user, _ := userFromContext(req.Context())
	at, err := r.services.CatFacts.Unsubscribe(req.Context(), user.ID)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"message":         "Successfully unsubscribed from daily cat facts. We'll miss you! 😿",
		"unsubscribed_at": at,
	})
}

func (r *Router) handleCatFactsStatus(w http.ResponseWriter, req *http.Request) {
	user, _ := userFromContext(req.Context())
	status, err := r.services.CatFacts.Status(req.Context(), user.ID)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	payload := map[string]any{
		"subscribed": status.Subscribed,
		"message":    status.Message,
	}
	if status.Subscription != nil {
		payload["subscription"] = newSubscriptionResponse(status.Subscription)
	}
	writeJSON(w, http.StatusOK, payload)
}

func (r *Router) handleCatFactsPreferences(w http.ResponseWriter, req *http.Request) {
	user, _ := userFromContext(req.Context())
	var body preferencesRequest
	if !decode(w, req, &body) {
		return
	}
	sub, err := r.services.CatFacts.UpdatePreferences(req.Context(), user.ID, catfacts.PreferencesInput{
		IsActive:      body.IsActive,
		PreferredTime: body.PreferredTime,
		Timezone:      body.Timezone,
	})
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, newSubscriptionResponse(sub))
}

func (r *Router) handleCatFactsRandom(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, r.services.CatFacts.Random(req.Context()))
}

func (r *Router) handleCatFactsSendDaily(w http.ResponseWriter, req *http.Request) {
	var body sendDailyRequest
	if !decode(w, req, &body) {
		return
	}
	if err := r.services.CatFacts.Authorize(body.APIKey); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	report, err := r.services.CatFacts.SendDaily(req.Context())
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
