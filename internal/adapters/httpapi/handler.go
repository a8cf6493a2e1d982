package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"industry-mailer/internal/domain"
	httpinfra "industry-mailer/internal/infra/http"
	"industry-mailer/internal/usecase/digest"
	"industry-mailer/internal/usecase/subscriptions"
)

// Dispatcher запускает и просматривает рассылку по теме.
type Dispatcher interface {
	DispatchForTopic(ctx context.Context, topicID int64, days int) (domain.DispatchReport, error)
	PreviewForTopic(ctx context.Context, topicID int64, days int) (digest.Preview, error)
}

// Identity подтверждает вход через Google.
type Identity interface {
	domain.IdentityVerifier
	AuthCodeURL(state string) string
}

// Deps содержит зависимости REST API.
type Deps struct {
	Directory   *subscriptions.Service
	Dispatcher  Dispatcher
	Source      domain.ArticleSource
	Identity    Identity
	FrontendURL string
	Logger      zerolog.Logger
}

// Handler обслуживает REST API рассылки.
type Handler struct {
	directory   *subscriptions.Service
	dispatcher  Dispatcher
	source      domain.ArticleSource
	identity    Identity
	frontendURL string
	log         zerolog.Logger
}

// NewHandler создаёт обработчики API.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		directory:   deps.Directory,
		dispatcher:  deps.Dispatcher,
		source:      deps.Source,
		identity:    deps.Identity,
		frontendURL: deps.FrontendURL,
		log:         deps.Logger,
	}
}

// Register подключает маршруты к роутеру.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		httpinfra.WriteJSON(w, http.StatusOK, map[string]string{
			"message": "Industry Mailer System API",
			"version": "1.0.0",
		})
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpinfra.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/api", func(api chi.Router) {
		api.Route("/users", func(users chi.Router) {
			users.Post("/", h.createUser)
			users.Get("/", h.listUsers)
			users.Get("/{id}", h.getUser)
			users.Put("/{id}", h.updateUser)
			users.Delete("/{id}", h.deleteUser)
		})
		api.Route("/topics", func(topics chi.Router) {
			topics.Post("/", h.createTopic)
			topics.Get("/", h.listTopics)
			topics.Get("/{id}", h.getTopic)
			topics.Put("/{id}", h.updateTopic)
			topics.Delete("/{id}", h.deleteTopic)
		})
		api.Route("/subscriptions", func(subs chi.Router) {
			subs.Post("/", h.createSubscription)
			subs.Get("/", h.listSubscriptions)
			subs.Get("/user/{id}", h.listUserSubscriptions)
			subs.Get("/{id}", h.getSubscription)
			subs.Put("/{id}", h.updateSubscription)
			subs.Delete("/{id}", h.deleteSubscription)
		})
		api.Route("/news", func(news chi.Router) {
			news.Get("/fetch", h.fetchNews)
			news.Get("/preview", h.previewNewsletter)
			news.Post("/send-newsletter", h.sendNewsletter)
		})
		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/google", h.googleSignIn)
			auth.Get("/google/login", h.googleLogin)
			auth.Get("/google/callback", h.googleCallback)
		})
	})
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: некорректное тело запроса: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: некорректный id %q", domain.ErrInvalidInput, raw)
	}
	return id, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: параметр %s должен быть числом", domain.ErrInvalidInput, name)
	}
	return v, nil
}

// pagination читает skip и limit как в исходном API.
func pagination(r *http.Request) (limit, offset int, err error) {
	if offset, err = queryInt(r, "skip", 0); err != nil {
		return 0, 0, err
	}
	if limit, err = queryInt(r, "limit", 100); err != nil {
		return 0, 0, err
	}
	if err := (pageRequest{Skip: offset, Limit: limit}).Validate(); err != nil {
		return 0, 0, invalid(err)
	}
	return limit, offset, nil
}

// listOrEmpty отдаёт [] вместо null для пустых списков.
func listOrEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
