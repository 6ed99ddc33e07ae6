package httpx

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MarvinPescos/balancehub/internal/domain"
	"github.com/MarvinPescos/balancehub/internal/repository"
	"github.com/MarvinPescos/balancehub/internal/service/auth"
	"github.com/MarvinPescos/balancehub/internal/service/building"
	"github.com/MarvinPescos/balancehub/internal/service/catfacts"
	"github.com/MarvinPescos/balancehub/internal/service/joke"
	"github.com/MarvinPescos/balancehub/internal/service/oauth"
	"github.com/MarvinPescos/balancehub/internal/service/trivia"
	"github.com/MarvinPescos/balancehub/internal/service/twofactor"
	"github.com/MarvinPescos/balancehub/pkg/config"
	"github.com/MarvinPescos/balancehub/pkg/crypto"
	jwtpkg "github.com/MarvinPescos/balancehub/pkg/jwt"
)

const testSecret = "router-test-secret-key-0123456789abcdef"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testDeps struct {
	cfg        config.APIConfig
	limiter    RateLimiter
	dbHealth   func(context.Context) error
	triviaURL  string
	jokeURL    string
	factURL    string
	providers  []*oauth.Provider
	verifyErr  error
	users      *userStore
	buildings  *buildingStore
	ratings    *ratingStore
	catFacts   *catFactStore
	notifier   *notifierStub
	oauthState *oauth.MemoryStateStore
}

func newTestDeps() *testDeps {
	return &testDeps{
		cfg: config.APIConfig{
			AppName:                  "BalanceHub",
			SecretKey:                testSecret,
			AccessTokenExpireMinutes: 30,
			OAuthCookieMaxAgeSeconds: 86400,
			FrontendURL:              "http://frontend.test",
			Activities:               config.ActivitiesConfig{CatFactsAPIKey: "cron-key"},
		},
		limiter:    newRateLimiterStub(),
		triviaURL:  "http://127.0.0.1:1/api.php",
		jokeURL:    "http://127.0.0.1:1/joke",
		factURL:    "http://127.0.0.1:1/fact",
		users:      newUserStore(),
		buildings:  newBuildingStore(),
		ratings:    newRatingStore(),
		catFacts:   newCatFactStore(),
		notifier:   &notifierStub{},
		oauthState: oauth.NewMemoryStateStore(),
	}
}

func setupRouter(t *testing.T, opts ...func(*testDeps)) (*Router, *testDeps) {
	t.Helper()
	deps := newTestDeps()
	for _, opt := range opts {
		opt(deps)
	}
	box, err := crypto.NewSecretBox(testSecret)
	if err != nil {
		t.Fatalf("NewSecretBox: %v", err)
	}
	logger := discardLogger()
	tf := twofactor.New(deps.users, box, deps.cfg.AppName, logger)
	authSvc := auth.New(deps.users, &verificationsStub{verifyErr: deps.verifyErr}, tf, deps.notifier, logger, deps.cfg)
	services := Services{
		Auth:      authSvc,
		TwoFactor: tf,
		OAuth:     oauth.New(deps.oauthState, deps.users, oauthAccountStub{users: deps.users}, box, authSvc, logger, deps.providers...),
		Trivia:    trivia.New(deps.triviaURL, logger, trivia.WithLimit(0, 0)),
		Joke:      joke.New(deps.jokeURL, logger),
		CatFacts:  catfacts.New(deps.catFacts, deps.users, deps.notifier, deps.factURL, deps.cfg.CatFactsKey(), logger),
		Buildings: building.New(deps.buildings, deps.ratings, logger),
	}
	router := NewRouter(logger, deps.cfg, services, deps.limiter, deps.dbHealth)
	t.Cleanup(router.Close)
	return router, deps
}

// addActiveUser stores a verified user and returns it with a bearer token.
func addActiveUser(t *testing.T, deps *testDeps, username, password string) (*domain.User, string) {
	t.Helper()
	hash, err := crypto.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	user := &domain.User{
		Username:        username,
		Email:           username + "@example.com",
		PasswordHash:    hash,
		IsActive:        true,
		IsEmailVerified: true,
		Role:            domain.RoleUser,
	}
	if err := deps.users.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	token, err := jwtpkg.GenerateToken(user.ID, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return user, token
}

func doRequest(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return payload
}

func expectDetail(t *testing.T, rr *httptest.ResponseRecorder, status int, detail string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected status %d, got %d (%s)", status, rr.Code, rr.Body.String())
	}
	payload := decodeBody(t, rr)
	if payload["detail"] != detail {
		t.Fatalf("unexpected detail %v", payload["detail"])
	}
}

func decodeList(t *testing.T, rr *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var payload []map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	return payload
}

type rateLimiterStub struct {
	mu      sync.Mutex
	calls   []rateLimitCall
	allowFn func(key string, limit int, window time.Duration) rateDecision
}

type rateLimitCall struct {
	key    string
	limit  int
	window time.Duration
}

func newRateLimiterStub() *rateLimiterStub {
	return &rateLimiterStub{}
}

func (s *rateLimiterStub) Allow(key string, limit int, window time.Duration) rateDecision {
	s.mu.Lock()
	s.calls = append(s.calls, rateLimitCall{key: key, limit: limit, window: window})
	fn := s.allowFn
	s.mu.Unlock()
	if fn != nil {
		return fn(key, limit, window)
	}
	return rateDecision{allowed: true, count: 1, windowEnd: time.Now().Add(window)}
}

func (s *rateLimiterStub) Close() {}

func (s *rateLimiterStub) recorded() []rateLimitCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]rateLimitCall(nil), s.calls...)
}

type userStore struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]domain.User
}

func newUserStore() *userStore {
	return &userStore{byID: map[int64]domain.User{}}
}

func (s *userStore) CreateUser(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Email == u.Email || existing.Username == u.Username {
			return repository.ErrConflict
		}
	}
	s.nextID++
	u.ID = s.nextID
	u.CreatedAt = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	u.UpdatedAt = u.CreatedAt
	s.byID[u.ID] = *u
	return nil
}

func (s *userStore) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *userStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	return s.find(func(u domain.User) bool { return u.Email == email })
}

func (s *userStore) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	return s.find(func(u domain.User) bool { return u.Username == username })
}

func (s *userStore) find(match func(domain.User) bool) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if match(u) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *userStore) UpdateUser(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[u.ID]; !ok {
		return repository.ErrNotFound
	}
	s.byID[u.ID] = *u
	return nil
}

type verificationsStub struct {
	verifyErr error
}

func (s *verificationsStub) Create(_ context.Context, userID int64, email, verificationType string) (*domain.EmailVerification, error) {
	return &domain.EmailVerification{UserID: userID, Email: email, Code: "123456", ResetToken: "reset-token", Type: verificationType}, nil
}

func (s *verificationsStub) VerifyCode(context.Context, int64, string) error {
	return s.verifyErr
}

func (s *verificationsStub) ResetTarget(context.Context, string) (*domain.EmailVerification, error) {
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return &domain.EmailVerification{ID: 1, UserID: 1, Type: domain.VerificationTypePasswordReset}, nil
}

func (s *verificationsStub) CompletePasswordReset(context.Context, *domain.EmailVerification, []byte) error {
	return nil
}

type notifierStub struct {
	mu            sync.Mutex
	verifications []string
	resets        []string
	facts         []string
	welcomes      []string
}

func (n *notifierStub) SendVerification(_ context.Context, to, _, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.verifications = append(n.verifications, to)
	return nil
}

func (n *notifierStub) SendPasswordReset(_ context.Context, to, _, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resets = append(n.resets, to)
	return nil
}

func (n *notifierStub) SendCatFact(_ context.Context, to, _, _ string, _ time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.facts = append(n.facts, to)
	return nil
}

func (n *notifierStub) SendCatWelcome(_ context.Context, to, _, _, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcomes = append(n.welcomes, to)
	return nil
}

type oauthAccountStub struct {
	users *userStore
}

func (oauthAccountStub) GetOAuthAccount(context.Context, string, string) (*domain.OAuthAccount, error) {
	return nil, repository.ErrNotFound
}

func (oauthAccountStub) CreateOAuthAccount(context.Context, *domain.OAuthAccount) error { return nil }

func (oauthAccountStub) UpdateOAuthAccount(context.Context, *domain.OAuthAccount) error { return nil }

func (s oauthAccountStub) CreateUserWithOAuthAccount(ctx context.Context, u *domain.User, a *domain.OAuthAccount) error {
	if err := s.users.CreateUser(ctx, u); err != nil {
		return err
	}
	a.UserID = u.ID
	return nil
}

type catFactStore struct {
	mu   sync.Mutex
	subs map[int64]domain.CatFactSubscription
}

func newCatFactStore() *catFactStore {
	return &catFactStore{subs: map[int64]domain.CatFactSubscription{}}
}

func (s *catFactStore) GetSubscriptionByUser(_ context.Context, userID int64) (*domain.CatFactSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sub, nil
}

func (s *catFactStore) CreateSubscription(_ context.Context, sub *domain.CatFactSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub.UserID]; ok {
		return repository.ErrConflict
	}
	sub.ID = int64(len(s.subs) + 1)
	s.subs[sub.UserID] = *sub
	return nil
}

func (s *catFactStore) UpdateSubscription(_ context.Context, sub *domain.CatFactSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.UserID] = *sub
	return nil
}

func (s *catFactStore) ListActiveSubscriptions(context.Context) ([]domain.CatFactSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.CatFactSubscription
	for _, sub := range s.subs {
		if sub.IsActive {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *catFactStore) RecordCatFactSent(_ context.Context, subscriptionID int64, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, sub := range s.subs {
		if sub.ID == subscriptionID {
			sub.LastSentAt = &sentAt
			sub.TotalSent++
			s.subs[userID] = sub
		}
	}
	return nil
}

type buildingStore struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]domain.Building
}

func newBuildingStore() *buildingStore {
	return &buildingStore{items: map[int64]domain.Building{}}
}

func (s *buildingStore) CreateBuilding(_ context.Context, b *domain.Building) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if strings.EqualFold(existing.Name, b.Name) {
			return repository.ErrConflict
		}
	}
	s.nextID++
	b.ID = s.nextID
	s.items[b.ID] = *b
	return nil
}

func (s *buildingStore) GetBuilding(_ context.Context, id int64) (*domain.Building, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (s *buildingStore) GetBuildingByName(_ context.Context, name string) (*domain.Building, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.items {
		if strings.EqualFold(b.Name, name) {
			return &b, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *buildingStore) ListBuildings(_ context.Context, limit, offset int) ([]domain.Building, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Building
	for id := int64(1); id <= s.nextID; id++ {
		if b, ok := s.items[id]; ok {
			out = append(out, b)
		}
	}
	return page(out, limit, offset), nil
}

func (s *buildingStore) UpdateBuilding(_ context.Context, b *domain.Building) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[b.ID] = *b
	return nil
}

func (s *buildingStore) DeleteBuilding(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

type ratingStore struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]domain.Rating
}

func newRatingStore() *ratingStore {
	return &ratingStore{items: map[int64]domain.Rating{}}
}

func (s *ratingStore) UpsertRating(_ context.Context, r *domain.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.items {
		if existing.BuildingID == r.BuildingID && existing.UserID == r.UserID {
			r.ID = id
			s.items[id] = *r
			return nil
		}
	}
	s.nextID++
	r.ID = s.nextID
	s.items[r.ID] = *r
	return nil
}

func (s *ratingStore) GetRating(_ context.Context, id int64) (*domain.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (s *ratingStore) GetUserRating(_ context.Context, buildingID, userID int64) (*domain.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.items {
		if r.BuildingID == buildingID && r.UserID == userID {
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *ratingStore) ListRatings(_ context.Context, limit, offset int) ([]domain.Rating, error) {
	return s.list(func(domain.Rating) bool { return true }, limit, offset), nil
}

func (s *ratingStore) ListRatingsByBuilding(_ context.Context, buildingID int64, limit, offset int) ([]domain.Rating, error) {
	return s.list(func(r domain.Rating) bool { return r.BuildingID == buildingID }, limit, offset), nil
}

func (s *ratingStore) list(match func(domain.Rating) bool, limit, offset int) []domain.Rating {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Rating
	for id := int64(1); id <= s.nextID; id++ {
		if r, ok := s.items[id]; ok && match(r) {
			out = append(out, r)
		}
	}
	return page(out, limit, offset)
}

func (s *ratingStore) UpdateRating(_ context.Context, r *domain.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[r.ID] = *r
	return nil
}

func (s *ratingStore) DeleteRating(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

func (s *ratingStore) BuildingAverages(_ context.Context, buildingID int64) (domain.BuildingAverages, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var avg domain.BuildingAverages
	var sum float64
	for _, r := range s.items {
		if r.BuildingID == buildingID {
			avg.TotalRatings++
			sum += float64(r.Aesthetic)
		}
	}
	if avg.TotalRatings > 0 {
		v := sum / float64(avg.TotalRatings)
		avg.Aesthetic = &v
	}
	return avg, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}
