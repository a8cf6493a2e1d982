package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"industry-mailer/internal/domain"
)

func TestGeminiFallsThroughEndpoints(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("key") != "secret" {
			t.Errorf("ключ не передан в query: %s", r.URL.RawQuery)
		}
		switch {
		case strings.HasPrefix(r.URL.Path, "/missing/"):
			w.WriteHeader(http.StatusNotFound)
		case strings.HasPrefix(r.URL.Path, "/broken/"):
			w.WriteHeader(http.StatusInternalServerError)
		case strings.HasPrefix(r.URL.Path, "/empty/"):
			_, _ = w.Write([]byte(`{"candidates":[{"output":""}]}`))
		default:
			var payload map[string]any
			_ = json.NewDecoder(r.Body).Decode(&payload)
			if payload["maxOutputTokens"] != float64(60) {
				t.Errorf("неожиданный payload: %v", payload)
			}
			_, _ = w.Write([]byte(`{"candidates":[{"output":"  Gemini says hi  "}]}`))
		}
	}))
	defer srv.Close()

	g := NewGemini("secret", "", srv.Client())
	g.bases = []string{srv.URL + "/missing", srv.URL + "/broken", srv.URL + "/empty", srv.URL + "/ok"}

	got, err := g.SummarizeArticle(context.Background(), domain.Article{Title: "t"})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got != "Gemini says hi" {
		t.Fatalf("получили %q", got)
	}
	if hits.Load() != 4 {
		t.Fatalf("ожидали 4 попытки, получили %d", hits.Load())
	}
}

func TestGeminiAllEndpointsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	g := NewGemini("k", "m", srv.Client())
	g.bases = []string{srv.URL + "/a", srv.URL + "/b"}
	_, err := g.SummarizeArticle(context.Background(), domain.Article{Title: "t"})
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("ожидали ErrUpstream, получили %v", err)
	}
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "gemini parts", body: `{"candidates":[{"content":{"parts":[{"text":"parts"}]}}]}`, want: "parts"},
		{name: "candidate content string", body: `{"candidates":[{"content":"content"}]}`, want: "content"},
		{name: "choices message", body: `{"choices":[{"message":{"content":"chat"}}]}`, want: "chat"},
		{name: "top level output", body: `{"output":"top"}`, want: "top"},
		{name: "non string ignored", body: `{"output":42}`, want: ""},
		{name: "invalid json", body: `not json`, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractText([]byte(tt.body)); got != tt.want {
				t.Fatalf("extractText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGeminiTransportErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	g := NewGemini("SECRET123", "m", &http.Client{})
	g.bases = []string{base + "/v1"}
	_, err := g.SummarizeArticle(context.Background(), domain.Article{Title: "t"})
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("ожидали ErrUpstream, получили %v", err)
	}
	if strings.Contains(err.Error(), "SECRET123") {
		t.Fatalf("ключ попал в текст ошибки: %v", err)
	}
}
