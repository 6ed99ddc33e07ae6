package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

const activitiesPrefix = APIPrefix + "/activities"

func TestCipherEndpoints(t *testing.T) {
	router, deps := setupRouter(t)
	_, token := addActiveUser(t, deps, "ana", "Sup3rSecret")

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		result string
		detail string
	}{
		{name: "atbash", path: "/cipher/atbash", body: `{"text":"Hello, World!"}`, status: http.StatusOK, result: "Svool, Dliow!"},
		{name: "caesar", path: "/cipher/caesar", body: `{"text":"xyz","shift":3}`, status: http.StatusOK, result: "abc"},
		{name: "vigenere", path: "/cipher/vigenere", body: `{"text":"attack at dawn","key":"LEMON"}`, status: http.StatusOK, result: "lxfopv ef rnhr"},
		{name: "caesar shift out of range", path: "/cipher/caesar", body: `{"text":"abc","shift":26}`, status: http.StatusUnprocessableEntity, detail: "shift must be less than or equal to 25"},
		{name: "vigenere key with digits", path: "/cipher/vigenere", body: `{"text":"abc","key":"k3y"}`, status: http.StatusUnprocessableEntity, detail: "key must contain only letters and spaces"},
		{name: "vigenere blank key", path: "/cipher/vigenere", body: `{"text":"abc","key":"   "}`, status: http.StatusBadRequest, detail: "Key must contain at least one letter"},
		{name: "atbash empty text", path: "/cipher/atbash", body: `{"text":""}`, status: http.StatusUnprocessableEntity, detail: "text is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(router, http.MethodPost, activitiesPrefix+tt.path, token, tt.body)
			if tt.detail != "" {
				expectDetail(t, rr, tt.status, tt.detail)
				return
			}
			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d (%s)", tt.status, rr.Code, rr.Body.String())
			}
			if got := decodeBody(t, rr)["result"]; got != tt.result {
				t.Fatalf("unexpected result %v", got)
			}
		})
	}
}

func TestActivitiesRequireAuthentication(t *testing.T) {
	router, _ := setupRouter(t)
	paths := []struct{ method, path string }{
		{http.MethodPost, "/cipher/atbash"},
		{http.MethodPost, "/qr_generator/generate"},
		{http.MethodGet, "/trivia/question"},
		{http.MethodPost, "/joke_cipher_qr/generate"},
		{http.MethodGet, "/campus_building_rater/buildings"},
		{http.MethodGet, "/cat-facts/status"},
	}
	for _, p := range paths {
		rr := doRequest(router, p.method, activitiesPrefix+p.path, "", `{}`)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", p.method, p.path, rr.Code)
		}
	}
}

func TestQRGenerate(t *testing.T) {
	router, deps := setupRouter(t)
	_, token := addActiveUser(t, deps, "ana", "Sup3rSecret")

	rr := doRequest(router, http.MethodPost, activitiesPrefix+"/qr_generator/generate", token, `{"text":"hello"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if code, _ := decodeBody(t, rr)["qr_code_base64"].(string); len(code) < 100 {
		t.Fatalf("unexpected qr payload %q", code)
	}

	rr = doRequest(router, http.MethodPost, activitiesPrefix+"/qr_generator/generate", token, `{"text":"   "}`)
	expectDetail(t, rr, http.StatusBadRequest, "Text is required and cannot be empty")
}

func TestTriviaQuestion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("amount") != "1" || r.URL.Query().Get("type") != "multiple" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"response_code":0,"results":[{"type":"multiple","difficulty":"easy","category":"Science &amp; Nature","question":"What is H&#039;s symbol?","correct_answer":"H","incorrect_answers":["He","Hy","Hd"]}]}`))
	}))
	defer srv.Close()

	router, deps := setupRouter(t, func(d *testDeps) { d.triviaURL = srv.URL })
	_, token := addActiveUser(t, deps, "ana", "Sup3rSecret")

	rr := doRequest(router, http.MethodGet, activitiesPrefix+"/trivia/question", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	payload := decodeBody(t, rr)
	if payload["category"] != "Science & Nature" || payload["question"] != "What is H's symbol?" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestTriviaUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	router, deps := setupRouter(t, func(d *testDeps) { d.triviaURL = srv.URL })
	_, token := addActiveUser(t, deps, "ana", "Sup3rSecret")

	rr := doRequest(router, http.MethodGet, activitiesPrefix+"/trivia/question", token, "")
	expectDetail(t, rr, http.StatusServiceUnavailable, "Failed to fetch trivia question")
}

func TestJokeCipherQR(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":false,"type":"single","joke":"abc"}`))
	}))
	defer srv.Close()

	router, deps := setupRouter(t, func(d *testDeps) { d.jokeURL = srv.URL })
	_, token := addActiveUser(t, deps, "ana", "Sup3rSecret")

	rr := doRequest(router, http.MethodPost, activitiesPrefix+"/joke_cipher_qr/generate", token, `{"cipher_type":"caesar"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	payload := decodeBody(t, rr)
	if payload["original_joke"] != "abc" || payload["ciphered_joke"] != "def" || payload["cipher_used"] != "caesar" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if payload["qr_code_base64"] == "" {
		t.Fatal("expected qr code")
	}

	rr = doRequest(router, http.MethodPost, activitiesPrefix+"/joke_cipher_qr/generate", token, `{}`)
	payload = decodeBody(t, rr)
	if payload["ciphered_joke"] != nil || payload["cipher_used"] != nil {
		t.Fatalf("expected plain joke, got %v", payload)
	}

	rr = doRequest(router, http.MethodPost, activitiesPrefix+"/joke_cipher_qr/generate", token, `{"cipher_type":"rot13"}`)
	expectDetail(t, rr, http.StatusUnprocessableEntity, "cipher_type must be one of: atbash, caesar, vigenere")
}

func TestJokeAPIUnavailable(t *testing.T) {
	router, deps := setupRouter(t)
	_, token := addActiveUser(t, deps, "ana", "Sup3rSecret")
	rr := doRequest(router, http.MethodPost, activitiesPrefix+"/joke_cipher_qr/generate", token, `{}`)
	expectDetail(t, rr, http.StatusServiceUnavailable, "Joke API connection failed")
}
