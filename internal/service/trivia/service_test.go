package trivia

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(url string) *Service {
	return New(url, testLogger(), WithLimit(0, 0))
}

func TestQuestionUnescapesHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("amount") != "1" || r.URL.Query().Get("type") != "multiple" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"response_code":0,"results":[{
			"type":"multiple","difficulty":"easy","category":"Science &amp; Nature",
			"question":"What is &quot;H2O&quot;?","correct_answer":"Water",
			"incorrect_answers":["Salt","Ice &amp; Fire","Air"]}]}`))
	}))
	defer srv.Close()

	got, err := newTestService(srv.URL).Question(context.Background())
	if err != nil {
		t.Fatalf("Question: %v", err)
	}
	want := Question{
		Type:             "multiple",
		Difficulty:       "easy",
		Category:         "Science & Nature",
		Question:         `What is "H2O"?`,
		CorrectAnswer:    "Water",
		IncorrectAnswers: []string{"Salt", "Ice & Fire", "Air"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("question mismatch (-want +got):\n%s", diff)
	}
}

func TestQuestionErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "response code", status: http.StatusOK, body: `{"response_code":5,"results":[]}`, want: ErrUnavailable},
		{name: "empty", status: http.StatusOK, body: `{"response_code":0,"results":[]}`, want: ErrNoQuestions},
		{name: "throttled", status: http.StatusTooManyRequests, body: `{}`, want: ErrRateLimited},
		{name: "server error", status: http.StatusBadGateway, body: `{}`, want: ErrFetchFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newTestService(srv.URL).Question(context.Background())
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestQuestionConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestService(url).Question(context.Background())
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
}

func TestQuestionThrottlesBackToBackCalls(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"response_code":0,"results":[{"question":"q","correct_answer":"a","incorrect_answers":[]}]}`))
	}))
	defer srv.Close()

	svc := New(srv.URL, testLogger(), WithLimit(time.Minute, 10*time.Millisecond))
	if _, err := svc.Question(context.Background()); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := svc.Question(context.Background()); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one upstream call, got %d", calls)
	}
}
