package httpapi

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"industry-mailer/internal/domain"
	httpinfra "industry-mailer/internal/infra/http"
)

// handoffPage сохраняет пользователя в localStorage фронтенда и перенаправляет на него.
var handoffPage = template.Must(template.New("handoff").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Signing you in...</title>
  </head>
  <body>
    <script>
      try {
        localStorage.setItem('ims_user', {{.UserJSON}});
      } catch (e) { console.error(e); }
      window.location.href = {{.Frontend}};
    </script>
    <p>If you are not redirected, <a href="{{.Frontend}}">click here</a>.</p>
  </body>
</html>
`))

type storedUser struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	IsActive bool   `json:"is_active"`
}

func (h *Handler) googleSignIn(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.writeDomainError(w, r, invalid(err))
		return
	}
	ident, err := h.identity.VerifyIDToken(r.Context(), req.IDToken)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	user, _, err := h.directory.EnsureUser(r.Context(), ident.Email, ident.Name)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) googleLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.identity.AuthCodeURL(uuid.NewString()), http.StatusFound)
}

func (h *Handler) googleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		h.writeDomainError(w, r, fmt.Errorf("%w: missing code in callback", domain.ErrInvalidInput))
		return
	}
	ident, err := h.identity.Exchange(r.Context(), code)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	user, _, err := h.directory.EnsureUser(r.Context(), ident.Email, ident.Name)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	payload, err := json.Marshal(storedUser{ID: user.ID, Email: user.Email, FullName: user.FullName, IsActive: user.IsActive})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	var page strings.Builder
	err = handoffPage.Execute(&page, struct {
		UserJSON string
		Frontend string
	}{UserJSON: string(payload), Frontend: strings.TrimRight(h.frontendURL, "/")})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteHTML(w, http.StatusOK, page.String())
}
