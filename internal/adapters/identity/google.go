package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"

	"industry-mailer/internal/domain"
	"industry-mailer/internal/infra/metrics"
)

// Config задаёт OAuth-клиента Google.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

type validateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// Google подтверждает вход через Google Sign-In.
type Google struct {
	oauth    oauth2.Config
	clientID string
	validate validateFunc
}

var _ domain.IdentityVerifier = (*Google)(nil)

// NewGoogle создаёт верификатор.
func NewGoogle(cfg Config) *Google {
	return &Google{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		clientID: cfg.ClientID,
		validate: idtoken.Validate,
	}
}

// VerifyIDToken проверяет подпись и аудиторию ID-токена и извлекает email.
func (g *Google) VerifyIDToken(ctx context.Context, token string) (domain.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return domain.Identity{}, fmt.Errorf("%w: id_token is required", domain.ErrInvalidInput)
	}
	start := time.Now()
	payload, err := g.validate(ctx, token, g.clientID)
	metrics.ObserveNetworkRequest("identity", "validate_id_token", "google", start, err)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	return identityFromClaims(payload.Claims)
}

// Exchange обменивает код авторизации на токены и проверяет полученный ID-токен.
func (g *Google) Exchange(ctx context.Context, code string) (domain.Identity, error) {
	if strings.TrimSpace(code) == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing code in callback", domain.ErrInvalidInput)
	}
	if g.oauth.ClientID == "" || g.oauth.ClientSecret == "" {
		return domain.Identity{}, fmt.Errorf("google: %w: client credentials are not configured", domain.ErrConfiguration)
	}
	start := time.Now()
	tok, err := g.oauth.Exchange(ctx, code)
	metrics.ObserveNetworkRequest("identity", "exchange_code", "google", start, err)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: token exchange failed: %v", domain.ErrInvalidInput, err)
	}
	idTok, _ := tok.Extra("id_token").(string)
	if idTok == "" {
		return domain.Identity{}, fmt.Errorf("%w: no id_token returned by Google", domain.ErrInvalidInput)
	}
	return g.VerifyIDToken(ctx, idTok)
}

// AuthCodeURL возвращает адрес страницы согласия Google.
func (g *Google) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func identityFromClaims(claims map[string]any) (domain.Identity, error) {
	email, _ := claims["email"].(string)
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.Identity{}, fmt.Errorf("%w: Google token did not contain an email", domain.ErrInvalidInput)
	}
	name, _ := claims["name"].(string)
	if strings.TrimSpace(name) == "" {
		name = email
	}
	return domain.Identity{Email: email, Name: strings.TrimSpace(name)}, nil
}
