package summarizer

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"industry-mailer/internal/domain"
	"industry-mailer/internal/infra/metrics"
	openai "industry-mailer/internal/infra/openai"
)

const defaultMaxLength = 200

// Provider генерирует краткое содержание одной статьи внешней моделью.
type Provider interface {
	Name() string
	SummarizeArticle(ctx context.Context, article domain.Article) (string, error)
}

// Config задаёт ключи и модели провайдеров.
type Config struct {
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string
	GeminiKey     string
	GeminiModel   string
	Timeout       time.Duration
}

// Chain реализует domain.ArticleSummarizer: провайдер с локальным запасным вариантом для каждой статьи.
type Chain struct {
	provider Provider
	timeout  time.Duration
	log      zerolog.Logger
}

var _ domain.ArticleSummarizer = (*Chain)(nil)

// NewChain выбирает провайдера один раз: OpenAI, затем Gemini, иначе только локальная эвристика.
func NewChain(cfg Config, logger zerolog.Logger) *Chain {
	var p Provider
	switch {
	case cfg.OpenAIKey != "":
		client := openai.NewClient(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.Timeout)
		p = NewOpenAI(client, cfg.OpenAIModel)
	case cfg.GeminiKey != "":
		p = NewGemini(cfg.GeminiKey, cfg.GeminiModel, &http.Client{Timeout: cfg.Timeout + time.Second})
	}
	return NewChainWithProvider(p, cfg.Timeout, logger)
}

// NewChainWithProvider собирает цепочку с заданным провайдером. nil означает только локальную эвристику.
func NewChainWithProvider(p Provider, timeout time.Duration, logger zerolog.Logger) *Chain {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Chain{provider: p, timeout: timeout, log: logger}
}

// Provider возвращает имя активного провайдера.
func (c *Chain) Provider() string {
	if c.provider == nil {
		return "local"
	}
	return c.provider.Name()
}

// Summarize заполняет Summary у каждой статьи. Статьи обрабатываются последовательно,
// ошибка провайдера переводит на локальную эвристику только текущую статью.
func (c *Chain) Summarize(ctx context.Context, articles []domain.Article, maxLength int) []domain.Article {
	if len(articles) == 0 {
		return articles
	}
	if maxLength <= 0 {
		maxLength = defaultMaxLength
	}

	out := make([]domain.Article, len(articles))
	for i, article := range articles {
		out[i] = article
		if c.provider == nil {
			out[i].Summary = Local(article, maxLength)
			continue
		}
		summary, err := c.summarizeOne(ctx, article)
		if err != nil {
			metrics.IncSummarizerFallback("error")
			c.log.Warn().Err(err).Str("provider", c.provider.Name()).Str("title", clipRunes(article.Title, 60)).
				Msg("summarizer: провайдер недоступен, используем локальное резюме")
			out[i].Summary = Local(article, maxLength)
			continue
		}
		if summary == "" {
			metrics.IncSummarizerFallback("empty")
			out[i].Summary = Local(article, maxLength)
			continue
		}
		out[i].Summary = summary
	}
	return out
}

func (c *Chain) summarizeOne(ctx context.Context, article domain.Article) (summary string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic в провайдере: %v", r)
		}
	}()
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	text, err := c.provider.SummarizeArticle(callCtx, article)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func buildPrompt(article domain.Article) string {
	return "Summarize the following news article in one short sentence (no more than 30 words):\n" +
		"Title: " + article.Title + "\nDescription: " + article.Description + "\n\nSummary:"
}

func clipRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
