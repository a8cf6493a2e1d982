package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"industry-mailer/internal/domain"
	"industry-mailer/internal/infra/metrics"
)

// Старые и новые адреса Generative Language API. Перебираются по порядку.
var defaultGeminiBases = []string{
	"https://generativelanguage.googleapis.com/v1",
	"https://generativelanguage.googleapis.com/v1beta2",
	"https://generativeai.googleapis.com/v1",
	"https://generativeai.googleapis.com/v1beta2",
}

// Пути к тексту в известных форматах ответа.
var geminiTextPaths = []string{
	"candidates.0.content.parts.0.text",
	"candidates.0.output",
	"candidates.0.content",
	"candidates.0.text",
	"choices.0.text",
	"choices.0.message.content",
	"output",
	"content",
}

// Gemini реализует Provider через Google Generative Language API с ключом в query.
type Gemini struct {
	http   *http.Client
	apiKey string
	model  string
	bases  []string
}

// NewGemini создаёт провайдер Gemini.
func NewGemini(apiKey, model string, httpClient *http.Client) *Gemini {
	if model == "" {
		model = "text-bison-001"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 16 * time.Second}
	}
	return &Gemini{http: httpClient, apiKey: apiKey, model: model, bases: defaultGeminiBases}
}

// Name возвращает имя провайдера.
func (g *Gemini) Name() string { return "gemini" }

type geminiRequest struct {
	Prompt struct {
		Text string `json:"text"`
	} `json:"prompt"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
}

// SummarizeArticle перебирает адреса, пока один не вернёт непустой текст.
func (g *Gemini) SummarizeArticle(ctx context.Context, article domain.Article) (string, error) {
	var req geminiRequest
	req.Prompt.Text = buildPrompt(article)
	req.MaxOutputTokens = 60
	req.Temperature = 0.2
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	var lastErr error
	for _, base := range g.bases {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		text, err := g.try(ctx, base, body)
		if err != nil {
			lastErr = err
			continue
		}
		if text != "" {
			return text, nil
		}
		lastErr = errors.New("empty text")
	}
	return "", &domain.UpstreamError{Provider: "gemini", Message: fmt.Sprintf("no usable endpoint: %v", lastErr)}
}

func (g *Gemini) try(ctx context.Context, base string, body []byte) (string, error) {
	endpoint := strings.TrimRight(base, "/") + "/models/" + url.PathEscape(g.model) + ":generate?key=" + url.QueryEscape(g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	target := hostOf(base)
	start := time.Now()
	resp, err := g.http.Do(httpReq)
	if err != nil {
		// url.Error печатает адрес целиком, а в нём ключ.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		metrics.ObserveNetworkRequest("summarizer", "gemini_generate", target, start, err)
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil && resp.StatusCode >= 300 {
		err = fmt.Errorf("status %d", resp.StatusCode)
	}
	metrics.ObserveNetworkRequest("summarizer", "gemini_generate", target, start, err)
	if err != nil {
		return "", err
	}
	return extractText(respBody), nil
}

func extractText(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range geminiTextPaths {
		res := gjson.GetBytes(body, path)
		if res.Type != gjson.String {
			continue
		}
		if text := strings.TrimSpace(res.Str); text != "" {
			return text
		}
	}
	return ""
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
