package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"industry-mailer/internal/adapters/repo"
	"industry-mailer/internal/domain"
	httpinfra "industry-mailer/internal/infra/http"
	"industry-mailer/internal/usecase/digest"
	"industry-mailer/internal/usecase/subscriptions"
)

type stubDispatcher struct {
	report  domain.DispatchReport
	err     error
	topicID int64
	days    int
}

func (s *stubDispatcher) DispatchForTopic(_ context.Context, topicID int64, days int) (domain.DispatchReport, error) {
	s.topicID, s.days = topicID, days
	return s.report, s.err
}

func (s *stubDispatcher) PreviewForTopic(_ context.Context, topicID int64, days int) (digest.Preview, error) {
	if s.err != nil {
		return digest.Preview{}, s.err
	}
	return digest.Preview{Subject: "Preview", HTML: "<html>preview</html>"}, nil
}

type stubSource struct {
	articles []domain.Article
	err      error
	keywords string
	days     int
	limit    int
}

func (s *stubSource) Fetch(_ context.Context, keywords string, days, limit int) ([]domain.Article, error) {
	s.keywords, s.days, s.limit = keywords, days, limit
	return s.articles, s.err
}

type stubIdentity struct {
	ident domain.Identity
	err   error
}

func (s stubIdentity) VerifyIDToken(context.Context, string) (domain.Identity, error) {
	return s.ident, s.err
}

func (s stubIdentity) Exchange(context.Context, string) (domain.Identity, error) {
	return s.ident, s.err
}

func (s stubIdentity) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

type env struct {
	router     http.Handler
	dispatcher *stubDispatcher
	source     *stubSource
}

func newEnv(t *testing.T, identity Identity) *env {
	t.Helper()
	store := repo.NewMemory()
	e := &env{dispatcher: &stubDispatcher{}, source: &stubSource{}}
	h := NewHandler(Deps{
		Directory:   subscriptions.NewService(store, store, store, zerolog.Nop()),
		Dispatcher:  e.dispatcher,
		Source:      e.source,
		Identity:    identity,
		FrontendURL: "http://localhost:5173/",
		Logger:      zerolog.Nop(),
	})
	r := chi.NewRouter()
	h.Register(r)
	e.router = r
	return e
}

func (e *env) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("кодирование тела: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("разбор ответа %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("ожидали статус %d, получили %d: %s", want, rec.Code, rec.Body.String())
	}
}

func TestCreateUserIsIdempotent(t *testing.T) {
	e := newEnv(t, stubIdentity{})

	first := e.do(t, http.MethodPost, "/api/users/", map[string]string{"email": "reader@example.com", "full_name": "Reader"})
	expectStatus(t, first, http.StatusCreated)
	second := e.do(t, http.MethodPost, "/api/users/", map[string]string{"email": "reader@example.com"})
	expectStatus(t, second, http.StatusOK)

	a, b := decode[domain.User](t, first), decode[domain.User](t, second)
	if a.ID != b.ID {
		t.Fatalf("ожидали того же пользователя, получили %d и %d", a.ID, b.ID)
	}

	bad := e.do(t, http.MethodPost, "/api/users/", map[string]string{"email": "nope"})
	expectStatus(t, bad, http.StatusBadRequest)
	if resp := decode[httpinfra.ErrorResponse](t, bad); resp.Code != "validation_error" {
		t.Fatalf("неожиданный код ошибки: %+v", resp)
	}
}

func TestSubscriptionLifecycle(t *testing.T) {
	e := newEnv(t, stubIdentity{})
	user := decode[domain.User](t, e.do(t, http.MethodPost, "/api/users/", map[string]string{"email": "a@example.com"}))
	topicRec := e.do(t, http.MethodPost, "/api/topics/", map[string]string{"name": "Energy", "keywords": "oil, solar"})
	expectStatus(t, topicRec, http.StatusCreated)
	topic := decode[domain.Topic](t, topicRec)
	if !topic.IsActive {
		t.Fatal("новая тема должна быть активной")
	}

	body := map[string]any{"user_id": user.ID, "topic_id": topic.ID, "frequency": "7"}
	created := e.do(t, http.MethodPost, "/api/subscriptions/", body)
	expectStatus(t, created, http.StatusCreated)
	sub := decode[domain.Subscription](t, created)
	if sub.Frequency != domain.FrequencyWeekly {
		t.Fatalf("ожидали weekly, получили %q", sub.Frequency)
	}

	expectStatus(t, e.do(t, http.MethodPost, "/api/subscriptions/", body), http.StatusConflict)
	expectStatus(t, e.do(t, http.MethodPost, "/api/subscriptions/", map[string]any{"user_id": 999, "topic_id": topic.ID}), http.StatusNotFound)
	expectStatus(t, e.do(t, http.MethodPost, "/api/subscriptions/", map[string]any{"user_id": user.ID, "topic_id": topic.ID, "frequency": "14"}), http.StatusBadRequest)

	updated := e.do(t, http.MethodPut, "/api/subscriptions/"+itoa(sub.ID), map[string]string{"frequency": "30"})
	expectStatus(t, updated, http.StatusOK)
	if got := decode[domain.Subscription](t, updated); got.Frequency != domain.FrequencyMonthly || got.TopicID != topic.ID {
		t.Fatalf("неожиданная подписка после обновления: %+v", got)
	}

	list := decode[[]domain.Subscription](t, e.do(t, http.MethodGet, "/api/subscriptions/user/"+itoa(user.ID), nil))
	if len(list) != 1 {
		t.Fatalf("ожидали одну подписку, получили %d", len(list))
	}

	expectStatus(t, e.do(t, http.MethodDelete, "/api/topics/"+itoa(topic.ID), nil), http.StatusNoContent)
	expectStatus(t, e.do(t, http.MethodGet, "/api/subscriptions/"+itoa(sub.ID), nil), http.StatusNotFound)
}

func TestTopicConflictAndInactiveListing(t *testing.T) {
	e := newEnv(t, stubIdentity{})
	expectStatus(t, e.do(t, http.MethodPost, "/api/topics/", map[string]any{"name": "Finance", "keywords": "banking", "is_active": false}), http.StatusCreated)
	expectStatus(t, e.do(t, http.MethodPost, "/api/topics/", map[string]string{"name": "Finance", "keywords": "x"}), http.StatusConflict)
	expectStatus(t, e.do(t, http.MethodPost, "/api/topics/", map[string]string{"name": "NoKeywords"}), http.StatusBadRequest)

	active := decode[[]domain.Topic](t, e.do(t, http.MethodGet, "/api/topics/", nil))
	if len(active) != 0 {
		t.Fatalf("неактивная тема не должна попадать в список: %+v", active)
	}
	all := decode[[]domain.Topic](t, e.do(t, http.MethodGet, "/api/topics/?include_inactive=true", nil))
	if len(all) != 1 {
		t.Fatalf("ожидали одну тему, получили %d", len(all))
	}
	expectStatus(t, e.do(t, http.MethodGet, "/api/topics/?limit=-5", nil), http.StatusBadRequest)
}

func TestSendNewsletterOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "no content", err: domain.ErrNoContent, wantStatus: http.StatusNotFound, wantCode: "no_content"},
		{name: "missing topic", err: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{name: "provider", err: &domain.UpstreamError{Provider: "newsapi", Status: 401, Message: "apiKeyInvalid"}, wantStatus: http.StatusBadGateway, wantCode: "upstream_error"},
		{name: "no key", err: domain.ErrConfiguration, wantStatus: http.StatusServiceUnavailable, wantCode: "configuration_error"},
		{name: "busy", err: domain.ErrDispatchInProgress, wantStatus: http.StatusConflict, wantCode: "dispatch_in_progress"},
		{name: "unexpected", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, stubIdentity{})
			e.dispatcher.err = tt.err
			rec := e.do(t, http.MethodPost, "/api/news/send-newsletter", map[string]int{"topic_id": 3, "days": 7})
			expectStatus(t, rec, tt.wantStatus)
			if resp := decode[httpinfra.ErrorResponse](t, rec); resp.Code != tt.wantCode {
				t.Fatalf("ожидали код %s, получили %+v", tt.wantCode, resp)
			}
		})
	}
}

func TestSendNewsletterSuccessAndNoSubscribers(t *testing.T) {
	e := newEnv(t, stubIdentity{})
	e.dispatcher.report = domain.DispatchReport{TopicID: 3, SubscriberCount: 3, ArticleCount: 5, Delivered: 2, Failed: 1}

	rec := e.do(t, http.MethodPost, "/api/news/send-newsletter", map[string]int{"topic_id": 3})
	expectStatus(t, rec, http.StatusOK)
	resp := decode[sendNewsletterResponse](t, rec)
	if resp.ArticlesCount != 5 || resp.Message != "Newsletter sent to 2 of 3 subscribers" {
		t.Fatalf("неожиданный ответ: %+v", resp)
	}
	if e.dispatcher.days != 1 {
		t.Fatalf("ожидали окно по умолчанию 1, получили %d", e.dispatcher.days)
	}

	e.dispatcher.err = domain.ErrNoSubscribers
	rec = e.do(t, http.MethodPost, "/api/news/send-newsletter", map[string]int{"topic_id": 3})
	expectStatus(t, rec, http.StatusOK)
	if resp := decode[sendNewsletterResponse](t, rec); resp.Message != "No subscribers found for this topic" {
		t.Fatalf("неожиданное сообщение: %+v", resp)
	}

	expectStatus(t, e.do(t, http.MethodPost, "/api/news/send-newsletter", map[string]int{"topic_id": 3, "days": 2}), http.StatusBadRequest)
}

func TestFetchNews(t *testing.T) {
	e := newEnv(t, stubIdentity{})
	e.source.articles = []domain.Article{{Title: "A", URL: "https://a"}}

	rec := e.do(t, http.MethodGet, "/api/news/fetch?topic=ai,cloud&days=7", nil)
	expectStatus(t, rec, http.StatusOK)
	resp := decode[newsResponse](t, rec)
	if resp.TotalResults != 1 || e.source.keywords != "ai,cloud" || e.source.days != 7 || e.source.limit != 10 {
		t.Fatalf("неожиданный вызов источника: %+v / %+v", resp, e.source)
	}

	e.source.articles = nil
	rec = e.do(t, http.MethodGet, "/api/news/fetch?topic=ai", nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"articles":[]`) {
		t.Fatalf("ожидали пустой массив статей: %s", rec.Body.String())
	}

	expectStatus(t, e.do(t, http.MethodGet, "/api/news/fetch?topic=ai&days=3", nil), http.StatusBadRequest)
	expectStatus(t, e.do(t, http.MethodGet, "/api/news/fetch", nil), http.StatusBadRequest)
}

func TestPreviewAsHTML(t *testing.T) {
	e := newEnv(t, stubIdentity{})
	rec := e.do(t, http.MethodGet, "/api/news/preview?topic_id=1&format=html", nil)
	expectStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "<html>preview</html>" {
		t.Fatalf("неожиданный HTML: %s", rec.Body.String())
	}
	expectStatus(t, e.do(t, http.MethodGet, "/api/news/preview", nil), http.StatusBadRequest)
}

func TestGoogleSignIn(t *testing.T) {
	e := newEnv(t, stubIdentity{ident: domain.Identity{Email: "g@example.com", Name: "G"}})
	rec := e.do(t, http.MethodPost, "/api/auth/google", map[string]string{"id_token": "tok"})
	expectStatus(t, rec, http.StatusOK)
	if user := decode[domain.User](t, rec); user.Email != "g@example.com" || user.FullName != "G" {
		t.Fatalf("неожиданный пользователь: %+v", user)
	}
	expectStatus(t, e.do(t, http.MethodPost, "/api/auth/google", map[string]string{}), http.StatusBadRequest)

	denied := newEnv(t, stubIdentity{err: domain.ErrUnauthenticated})
	expectStatus(t, denied.do(t, http.MethodPost, "/api/auth/google", map[string]string{"id_token": "bad"}), http.StatusUnauthorized)
}

func TestGoogleCallbackHandoff(t *testing.T) {
	e := newEnv(t, stubIdentity{ident: domain.Identity{Email: "g@example.com", Name: "G"}})
	rec := e.do(t, http.MethodGet, "/api/auth/google/callback?code=abc", nil)
	expectStatus(t, rec, http.StatusOK)
	body := rec.Body.String()
	for _, want := range []string{"localStorage.setItem('ims_user'", `href="http://localhost:5173"`, "g@example.com"} {
		if !strings.Contains(body, want) {
			t.Fatalf("ожидали %q в странице:\n%s", want, body)
		}
	}
	expectStatus(t, e.do(t, http.MethodGet, "/api/auth/google/callback", nil), http.StatusBadRequest)

	login := e.do(t, http.MethodGet, "/api/auth/google/login", nil)
	expectStatus(t, login, http.StatusFound)
	if !strings.HasPrefix(login.Header().Get("Location"), "https://accounts.example.com/auth?state=") {
		t.Fatalf("неожиданный редирект: %s", login.Header().Get("Location"))
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
